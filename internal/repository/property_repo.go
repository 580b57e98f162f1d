package repository

import (
	"context"

	"github.com/rilaconsulting/pmpulse-sub002/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PropertyRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Property, error)
	List(ctx context.Context) ([]model.Property, error)
}

type propertyRepo struct{ db *gorm.DB }

func NewPropertyRepository(db *gorm.DB) PropertyRepository { return &propertyRepo{db: db} }

func (r *propertyRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Property, error) {
	var p model.Property
	err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error
	return &p, err
}

func (r *propertyRepo) List(ctx context.Context) ([]model.Property, error) {
	var properties []model.Property
	err := r.db.WithContext(ctx).Where("active = true").Order("name ASC").Find(&properties).Error
	return properties, err
}
