package service

import (
	"context"
	"errors"
	"time"

	"github.com/rilaconsulting/pmpulse-sub002/internal/dto"
	"github.com/rilaconsulting/pmpulse-sub002/internal/model"
	"github.com/rilaconsulting/pmpulse-sub002/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Canonicalization messages. These are part of the admin API contract: the
// review UI matches on them.
const (
	msgSelfDuplicate    = "A vendor cannot be marked as a duplicate of itself."
	msgHasDuplicates    = "This vendor has duplicates linked to it. Reassign those duplicates first."
	msgCanonicalIsDupe  = "The selected canonical vendor is itself a duplicate."
	msgMarkedDuplicate  = "Vendor marked as duplicate."
	msgMarkedCanonical  = "Vendor marked as canonical."
	msgAlreadyCanonical = "Vendor is already canonical."
)

type VendorService interface {
	Create(ctx context.Context, req dto.CreateVendorRequest) (*dto.VendorResponse, error)
	Update(ctx context.Context, id uuid.UUID, req dto.UpdateVendorRequest) (*dto.VendorResponse, error)
	GetByID(ctx context.Context, id uuid.UUID) (*dto.VendorResponse, error)
	List(ctx context.Context, filter dto.VendorFilter) (*dto.VendorListResponse, error)
	// MarkDuplicate links a vendor to a canonical record. Rejected when the
	// vendor references itself, already has duplicates pointing at it, or
	// the chosen canonical is itself a duplicate — the link graph stays a
	// depth-1 tree.
	MarkDuplicate(ctx context.Context, id uuid.UUID, req dto.MarkDuplicateRequest) (*dto.VendorMutationResponse, error)
	// MarkCanonical clears the canonical link. Idempotent: an already
	// canonical vendor reports "already canonical".
	MarkCanonical(ctx context.Context, id uuid.UUID) (*dto.VendorMutationResponse, error)
}

type vendorService struct {
	repo repository.VendorRepository
}

func NewVendorService(repo repository.VendorRepository) VendorService {
	return &vendorService{repo: repo}
}

func (s *vendorService) Create(ctx context.Context, req dto.CreateVendorRequest) (*dto.VendorResponse, error) {
	v := &model.Vendor{
		CompanyName:  req.CompanyName,
		ContactName:  req.ContactName,
		Email:        req.Email,
		Phone:        req.Phone,
		Trades:       req.Trades,
		AddressLine1: req.AddressLine1,
		AddressLine2: req.AddressLine2,
		City:         req.City,
		State:        req.State,
		Zip:          req.Zip,
		Active:       true,
	}
	if err := s.repo.Create(ctx, v); err != nil {
		return nil, err
	}
	resp := toVendorResponse(v, 0)
	return &resp, nil
}

func (s *vendorService) Update(ctx context.Context, id uuid.UUID, req dto.UpdateVendorRequest) (*dto.VendorResponse, error) {
	v, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if req.CompanyName != nil {
		v.CompanyName = *req.CompanyName
	}
	if req.ContactName != nil {
		v.ContactName = req.ContactName
	}
	if req.Email != nil {
		v.Email = req.Email
	}
	if req.Phone != nil {
		v.Phone = req.Phone
	}
	if req.Trades != nil {
		v.Trades = req.Trades
	}
	if req.AddressLine1 != nil {
		v.AddressLine1 = req.AddressLine1
	}
	if req.AddressLine2 != nil {
		v.AddressLine2 = req.AddressLine2
	}
	if req.City != nil {
		v.City = req.City
	}
	if req.State != nil {
		v.State = req.State
	}
	if req.Zip != nil {
		v.Zip = req.Zip
	}
	v.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, v); err != nil {
		return nil, err
	}
	dupes, err := s.repo.CountDuplicatesOf(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toVendorResponse(v, dupes)
	return &resp, nil
}

func (s *vendorService) GetByID(ctx context.Context, id uuid.UUID) (*dto.VendorResponse, error) {
	v, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	dupes, err := s.repo.CountDuplicatesOf(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toVendorResponse(v, dupes)
	return &resp, nil
}

func (s *vendorService) List(ctx context.Context, filter dto.VendorFilter) (*dto.VendorListResponse, error) {
	vendors, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	data := make([]dto.VendorResponse, len(vendors))
	for i := range vendors {
		data[i] = toVendorResponse(&vendors[i], 0)
	}
	return &dto.VendorListResponse{
		Data:  data,
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}, nil
}

func (s *vendorService) MarkDuplicate(ctx context.Context, id uuid.UUID, req dto.MarkDuplicateRequest) (*dto.VendorMutationResponse, error) {
	canonicalID, err := uuid.Parse(req.CanonicalVendorID)
	if err != nil {
		return nil, NewFieldError("canonical_vendor_id", "Invalid canonical vendor id.")
	}
	if id == canonicalID {
		return nil, NewFieldError("canonical_vendor_id", msgSelfDuplicate)
	}

	v, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	canonical, err := s.repo.FindByID(ctx, canonicalID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewFieldError("canonical_vendor_id", "Canonical vendor not found.")
		}
		return nil, err
	}
	if !canonical.IsCanonical() {
		return nil, NewFieldError("canonical_vendor_id", msgCanonicalIsDupe)
	}

	incoming, err := s.repo.CountDuplicatesOf(ctx, id)
	if err != nil {
		return nil, err
	}
	if incoming > 0 {
		return nil, NewFieldError("canonical_vendor_id", msgHasDuplicates)
	}

	v.CanonicalVendorID = &canonicalID
	v.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, v); err != nil {
		return nil, err
	}

	return &dto.VendorMutationResponse{
		Vendor:  toVendorResponse(v, 0),
		Message: msgMarkedDuplicate,
	}, nil
}

func (s *vendorService) MarkCanonical(ctx context.Context, id uuid.UUID) (*dto.VendorMutationResponse, error) {
	v, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	dupes, err := s.repo.CountDuplicatesOf(ctx, id)
	if err != nil {
		return nil, err
	}

	if v.IsCanonical() {
		return &dto.VendorMutationResponse{
			Vendor:  toVendorResponse(v, dupes),
			Message: msgAlreadyCanonical,
		}, nil
	}

	v.CanonicalVendorID = nil
	v.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, v); err != nil {
		return nil, err
	}

	return &dto.VendorMutationResponse{
		Vendor:  toVendorResponse(v, dupes),
		Message: msgMarkedCanonical,
	}, nil
}

func toVendorResponse(v *model.Vendor, duplicateCount int64) dto.VendorResponse {
	var canonicalID *string
	if v.CanonicalVendorID != nil {
		s := v.CanonicalVendorID.String()
		canonicalID = &s
	}
	return dto.VendorResponse{
		ID:                v.ID.String(),
		CompanyName:       v.CompanyName,
		ContactName:       v.ContactName,
		Email:             v.Email,
		Phone:             v.Phone,
		Trades:            v.Trades,
		AddressLine1:      v.AddressLine1,
		AddressLine2:      v.AddressLine2,
		City:              v.City,
		State:             v.State,
		Zip:               v.Zip,
		CanonicalVendorID: canonicalID,
		DuplicateCount:    duplicateCount,
		Active:            v.Active,
		CreatedAt:         v.CreatedAt.UTC().Format(time.RFC3339),
	}
}
