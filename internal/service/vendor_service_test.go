package service

import (
	"context"
	"testing"

	"github.com/rilaconsulting/pmpulse-sub002/internal/dto"
	"github.com/rilaconsulting/pmpulse-sub002/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// ── In-memory VendorRepository stub ──────────────────────────────────────────

type stubVendorRepo struct {
	vendors map[uuid.UUID]*model.Vendor
}

func newStubVendorRepo() *stubVendorRepo {
	return &stubVendorRepo{vendors: make(map[uuid.UUID]*model.Vendor)}
}

func (r *stubVendorRepo) add(v *model.Vendor) *model.Vendor {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	v.Active = true
	r.vendors[v.ID] = v
	return v
}

func (r *stubVendorRepo) Create(_ context.Context, v *model.Vendor) error {
	r.add(v)
	return nil
}

func (r *stubVendorRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Vendor, error) {
	v, ok := r.vendors[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return v, nil
}

func (r *stubVendorRepo) List(_ context.Context, filter dto.VendorFilter) ([]model.Vendor, int64, error) {
	var out []model.Vendor
	for _, v := range r.vendors {
		if filter.CanonicalOnly && v.CanonicalVendorID != nil {
			continue
		}
		out = append(out, *v)
	}
	return out, int64(len(out)), nil
}

func (r *stubVendorRepo) ListCanonical(_ context.Context) ([]model.Vendor, error) {
	var out []model.Vendor
	for _, v := range r.vendors {
		if v.CanonicalVendorID == nil && v.Active {
			out = append(out, *v)
		}
	}
	return out, nil
}

func (r *stubVendorRepo) Update(_ context.Context, v *model.Vendor) error {
	r.vendors[v.ID] = v
	return nil
}

func (r *stubVendorRepo) CountDuplicatesOf(_ context.Context, id uuid.UUID) (int64, error) {
	var n int64
	for _, v := range r.vendors {
		if v.CanonicalVendorID != nil && *v.CanonicalVendorID == id {
			n++
		}
	}
	return n, nil
}

func (r *stubVendorRepo) GroupIDs(_ context.Context, id uuid.UUID) ([]uuid.UUID, error) {
	ids := []uuid.UUID{id}
	for _, v := range r.vendors {
		if v.CanonicalVendorID != nil && *v.CanonicalVendorID == id {
			ids = append(ids, v.ID)
		}
	}
	return ids, nil
}

// ── Tests ────────────────────────────────────────────────────────────────────

func TestMarkDuplicateSelfReference(t *testing.T) {
	repo := newStubVendorRepo()
	v := repo.add(&model.Vendor{CompanyName: "ABC Plumbing"})
	svc := NewVendorService(repo)

	_, err := svc.MarkDuplicate(context.Background(), v.ID, dto.MarkDuplicateRequest{
		CanonicalVendorID: v.ID.String(),
	})

	var fieldErr *FieldError
	require.ErrorAs(t, err, &fieldErr)
	assert.Equal(t, "canonical_vendor_id", fieldErr.Field)
	assert.Equal(t, "A vendor cannot be marked as a duplicate of itself.", fieldErr.Message)
	assert.Nil(t, repo.vendors[v.ID].CanonicalVendorID, "vendor must stay canonical")
}

func TestMarkDuplicateBlockedWhenVendorHasDuplicates(t *testing.T) {
	repo := newStubVendorRepo()
	a := repo.add(&model.Vendor{CompanyName: "ABC Plumbing Inc"})
	b := repo.add(&model.Vendor{CompanyName: "ABC Plumbing LLC", CanonicalVendorID: &a.ID})
	c := repo.add(&model.Vendor{CompanyName: "Acme HVAC"})
	_ = b
	svc := NewVendorService(repo)

	// a has an incoming duplicate (b), so a itself cannot become a duplicate.
	_, err := svc.MarkDuplicate(context.Background(), a.ID, dto.MarkDuplicateRequest{
		CanonicalVendorID: c.ID.String(),
	})

	var fieldErr *FieldError
	require.ErrorAs(t, err, &fieldErr)
	assert.Equal(t, "This vendor has duplicates linked to it. Reassign those duplicates first.", fieldErr.Message)
}

func TestMarkDuplicateRejectsDuplicateCanonical(t *testing.T) {
	repo := newStubVendorRepo()
	a := repo.add(&model.Vendor{CompanyName: "Canonical Co"})
	b := repo.add(&model.Vendor{CompanyName: "Dupe Co", CanonicalVendorID: &a.ID})
	c := repo.add(&model.Vendor{CompanyName: "Third Co"})
	svc := NewVendorService(repo)

	// Linking c to b would create a chain: b already points at a.
	_, err := svc.MarkDuplicate(context.Background(), c.ID, dto.MarkDuplicateRequest{
		CanonicalVendorID: b.ID.String(),
	})

	var fieldErr *FieldError
	require.ErrorAs(t, err, &fieldErr)
	assert.Equal(t, "canonical_vendor_id", fieldErr.Field)
}

func TestMarkDuplicateUnknownCanonical(t *testing.T) {
	repo := newStubVendorRepo()
	v := repo.add(&model.Vendor{CompanyName: "Solo Co"})
	svc := NewVendorService(repo)

	_, err := svc.MarkDuplicate(context.Background(), v.ID, dto.MarkDuplicateRequest{
		CanonicalVendorID: uuid.NewString(),
	})

	var fieldErr *FieldError
	require.ErrorAs(t, err, &fieldErr)
	assert.Equal(t, "Canonical vendor not found.", fieldErr.Message)
}

func TestMarkDuplicateSuccess(t *testing.T) {
	repo := newStubVendorRepo()
	a := repo.add(&model.Vendor{CompanyName: "ABC Plumbing Inc"})
	b := repo.add(&model.Vendor{CompanyName: "ABC Plumbing LLC"})
	svc := NewVendorService(repo)

	resp, err := svc.MarkDuplicate(context.Background(), b.ID, dto.MarkDuplicateRequest{
		CanonicalVendorID: a.ID.String(),
	})

	require.NoError(t, err)
	require.NotNil(t, resp.Vendor.CanonicalVendorID)
	assert.Equal(t, a.ID.String(), *resp.Vendor.CanonicalVendorID)
	require.NotNil(t, repo.vendors[b.ID].CanonicalVendorID)
	assert.Equal(t, a.ID, *repo.vendors[b.ID].CanonicalVendorID)
}

func TestMarkCanonicalIdempotent(t *testing.T) {
	repo := newStubVendorRepo()
	a := repo.add(&model.Vendor{CompanyName: "Canonical Co"})
	b := repo.add(&model.Vendor{CompanyName: "Dupe Co", CanonicalVendorID: &a.ID})
	svc := NewVendorService(repo)

	first, err := svc.MarkCanonical(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, "Vendor marked as canonical.", first.Message)
	assert.Nil(t, repo.vendors[b.ID].CanonicalVendorID)

	// Second call is a no-op with a distinguishable outcome.
	second, err := svc.MarkCanonical(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, "Vendor is already canonical.", second.Message)
	assert.Nil(t, repo.vendors[b.ID].CanonicalVendorID)
}

func TestGetByIDReportsDuplicateCount(t *testing.T) {
	repo := newStubVendorRepo()
	a := repo.add(&model.Vendor{CompanyName: "Canonical Co"})
	repo.add(&model.Vendor{CompanyName: "Dupe One", CanonicalVendorID: &a.ID})
	repo.add(&model.Vendor{CompanyName: "Dupe Two", CanonicalVendorID: &a.ID})
	svc := NewVendorService(repo)

	resp, err := svc.GetByID(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), resp.DuplicateCount)
}

func TestGetByIDNotFound(t *testing.T) {
	svc := NewVendorService(newStubVendorRepo())
	_, err := svc.GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}
