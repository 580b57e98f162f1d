package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rilaconsulting/pmpulse-sub002/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AnalysisRepository interface {
	Create(ctx context.Context, a *model.VendorDuplicateAnalysis) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.VendorDuplicateAnalysis, error)
	List(ctx context.Context, limit int) ([]model.VendorDuplicateAnalysis, int64, error)
	// MarkProcessing performs the conditional pending→processing transition.
	// Returns false when the record was not pending — another worker already
	// owns it, or the run was already finished.
	MarkProcessing(ctx context.Context, id uuid.UUID) (bool, error)
	MarkCompleted(ctx context.Context, id uuid.UUID, results json.RawMessage, totalVendors int, comparisons int64, duplicatesFound int) error
	MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error
	// ListStaleProcessing finds runs stuck in processing since before the
	// cutoff, so the reaper can fail them.
	ListStaleProcessing(ctx context.Context, cutoff time.Time) ([]model.VendorDuplicateAnalysis, error)
}

type analysisRepo struct{ db *gorm.DB }

func NewAnalysisRepository(db *gorm.DB) AnalysisRepository { return &analysisRepo{db: db} }

func (r *analysisRepo) Create(ctx context.Context, a *model.VendorDuplicateAnalysis) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *analysisRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.VendorDuplicateAnalysis, error) {
	var a model.VendorDuplicateAnalysis
	err := r.db.WithContext(ctx).First(&a, "id = ?", id).Error
	return &a, err
}

func (r *analysisRepo) List(ctx context.Context, limit int) ([]model.VendorDuplicateAnalysis, int64, error) {
	var analyses []model.VendorDuplicateAnalysis
	var total int64
	q := r.db.WithContext(ctx).Model(&model.VendorDuplicateAnalysis{})
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Order("created_at DESC").Limit(limit).Find(&analyses).Error
	return analyses, total, err
}

func (r *analysisRepo) MarkProcessing(ctx context.Context, id uuid.UUID) (bool, error) {
	now := time.Now().UTC()
	res := r.db.WithContext(ctx).Model(&model.VendorDuplicateAnalysis{}).
		Where("id = ? AND status = ?", id, model.AnalysisPending).
		Updates(map[string]interface{}{
			"status":     model.AnalysisProcessing,
			"started_at": now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *analysisRepo) MarkCompleted(ctx context.Context, id uuid.UUID, results json.RawMessage, totalVendors int, comparisons int64, duplicatesFound int) error {
	now := time.Now().UTC()
	return r.db.WithContext(ctx).Model(&model.VendorDuplicateAnalysis{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":           model.AnalysisCompleted,
			"results":          results,
			"total_vendors":    totalVendors,
			"comparisons":      comparisons,
			"duplicates_found": duplicatesFound,
			"completed_at":     now,
		}).Error
}

func (r *analysisRepo) MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error {
	now := time.Now().UTC()
	return r.db.WithContext(ctx).Model(&model.VendorDuplicateAnalysis{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":        model.AnalysisFailed,
			"error_message": errMsg,
			"completed_at":  now,
		}).Error
}

func (r *analysisRepo) ListStaleProcessing(ctx context.Context, cutoff time.Time) ([]model.VendorDuplicateAnalysis, error) {
	var analyses []model.VendorDuplicateAnalysis
	err := r.db.WithContext(ctx).
		Where("status = ? AND started_at < ?", model.AnalysisProcessing, cutoff).
		Find(&analyses).Error
	return analyses, err
}
