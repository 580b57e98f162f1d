package repository

import (
	"context"

	"github.com/rilaconsulting/pmpulse-sub002/internal/dto"
	"github.com/rilaconsulting/pmpulse-sub002/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type VendorRepository interface {
	Create(ctx context.Context, v *model.Vendor) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Vendor, error)
	List(ctx context.Context, filter dto.VendorFilter) ([]model.Vendor, int64, error)
	// ListCanonical returns every active vendor with no canonical reference —
	// the input set for deduplication and trade comparisons.
	ListCanonical(ctx context.Context) ([]model.Vendor, error)
	Update(ctx context.Context, v *model.Vendor) error
	// CountDuplicatesOf counts vendors pointing at the given vendor as their
	// canonical record.
	CountDuplicatesOf(ctx context.Context, id uuid.UUID) (int64, error)
	// GroupIDs returns the vendor's id plus the ids of all duplicates linked
	// to it. For a vendor with no duplicates this is just its own id.
	GroupIDs(ctx context.Context, id uuid.UUID) ([]uuid.UUID, error)
}

type vendorRepo struct{ db *gorm.DB }

func NewVendorRepository(db *gorm.DB) VendorRepository { return &vendorRepo{db: db} }

func (r *vendorRepo) Create(ctx context.Context, v *model.Vendor) error {
	return r.db.WithContext(ctx).Create(v).Error
}

func (r *vendorRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Vendor, error) {
	var v model.Vendor
	err := r.db.WithContext(ctx).First(&v, "id = ?", id).Error
	return &v, err
}

func (r *vendorRepo) List(ctx context.Context, filter dto.VendorFilter) ([]model.Vendor, int64, error) {
	var vendors []model.Vendor
	var total int64
	offset := (filter.Page - 1) * filter.Limit

	q := r.db.WithContext(ctx).Model(&model.Vendor{}).Where("active = true")
	if filter.CanonicalOnly {
		q = q.Where("canonical_vendor_id IS NULL")
	}
	if filter.Trade != "" {
		q = q.Where("trades ILIKE ?", "%"+filter.Trade+"%")
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Order("company_name ASC").Offset(offset).Limit(filter.Limit).Find(&vendors).Error
	return vendors, total, err
}

func (r *vendorRepo) ListCanonical(ctx context.Context) ([]model.Vendor, error) {
	var vendors []model.Vendor
	err := r.db.WithContext(ctx).
		Where("canonical_vendor_id IS NULL AND active = true").
		Order("created_at ASC").
		Find(&vendors).Error
	return vendors, err
}

func (r *vendorRepo) Update(ctx context.Context, v *model.Vendor) error {
	return r.db.WithContext(ctx).Save(v).Error
}

func (r *vendorRepo) CountDuplicatesOf(ctx context.Context, id uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Vendor{}).
		Where("canonical_vendor_id = ?", id).
		Count(&n).Error
	return n, err
}

func (r *vendorRepo) GroupIDs(ctx context.Context, id uuid.UUID) ([]uuid.UUID, error) {
	var dupIDs []uuid.UUID
	err := r.db.WithContext(ctx).Model(&model.Vendor{}).
		Where("canonical_vendor_id = ?", id).
		Pluck("id", &dupIDs).Error
	if err != nil {
		return nil, err
	}
	return append([]uuid.UUID{id}, dupIDs...), nil
}
