package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rilaconsulting/pmpulse-sub002/internal/dto"
	"github.com/rilaconsulting/pmpulse-sub002/internal/model"
	"github.com/rilaconsulting/pmpulse-sub002/internal/repository"
	"github.com/rilaconsulting/pmpulse-sub002/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type DedupService interface {
	// RequestAnalysis creates a pending analysis record and hands it to the
	// worker queue. The record's status/results fields are the entire
	// contract with the caller — progress is observed by polling.
	RequestAnalysis(ctx context.Context, req dto.CreateAnalysisRequest) (*dto.AnalysisResponse, error)
	GetAnalysis(ctx context.Context, id uuid.UUID) (*dto.AnalysisResponse, error)
	ListAnalyses(ctx context.Context, limit int) (*dto.AnalysisListResponse, error)
}

type dedupService struct {
	repo       repository.AnalysisRepository
	dispatcher *worker.Dispatcher
}

func NewDedupService(repo repository.AnalysisRepository, dispatcher *worker.Dispatcher) DedupService {
	return &dedupService{repo: repo, dispatcher: dispatcher}
}

func (s *dedupService) RequestAnalysis(ctx context.Context, req dto.CreateAnalysisRequest) (*dto.AnalysisResponse, error) {
	analysis := &model.VendorDuplicateAnalysis{
		Threshold:   *req.Threshold,
		Limit:       req.Limit,
		Status:      model.AnalysisPending,
		NotifyEmail: req.NotifyEmail,
	}
	if err := s.repo.Create(ctx, analysis); err != nil {
		return nil, err
	}

	payload := worker.DedupJobPayload{AnalysisID: analysis.ID.String()}
	if err := s.dispatcher.EnqueueDedup(ctx, payload); err != nil {
		// The record stays pending; the caller can re-trigger or the
		// operator can re-enqueue manually.
		log.Error().Err(err).Str("analysis_id", analysis.ID.String()).
			Msg("dedup_service: failed to enqueue analysis job")
		return nil, err
	}

	resp := toAnalysisResponse(analysis)
	return &resp, nil
}

func (s *dedupService) GetAnalysis(ctx context.Context, id uuid.UUID) (*dto.AnalysisResponse, error) {
	analysis, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	resp := toAnalysisResponse(analysis)
	return &resp, nil
}

func (s *dedupService) ListAnalyses(ctx context.Context, limit int) (*dto.AnalysisListResponse, error) {
	analyses, total, err := s.repo.List(ctx, limit)
	if err != nil {
		return nil, err
	}
	data := make([]dto.AnalysisResponse, len(analyses))
	for i := range analyses {
		data[i] = toAnalysisResponse(&analyses[i])
	}
	return &dto.AnalysisListResponse{Data: data, Total: total}, nil
}

func toAnalysisResponse(a *model.VendorDuplicateAnalysis) dto.AnalysisResponse {
	resp := dto.AnalysisResponse{
		ID:              a.ID.String(),
		Threshold:       a.Threshold,
		Limit:           a.Limit,
		Status:          a.Status,
		TotalVendors:    a.TotalVendors,
		Comparisons:     a.Comparisons,
		DuplicatesFound: a.DuplicatesFound,
		ErrorMessage:    a.ErrorMessage,
		CreatedAt:       a.CreatedAt.UTC().Format(time.RFC3339),
	}
	if a.StartedAt != nil {
		s := a.StartedAt.UTC().Format(time.RFC3339)
		resp.StartedAt = &s
	}
	if a.CompletedAt != nil {
		s := a.CompletedAt.UTC().Format(time.RFC3339)
		resp.CompletedAt = &s
	}
	if a.Status == model.AnalysisCompleted && len(a.Results) > 0 {
		var matches []dto.DuplicateMatch
		if err := json.Unmarshal(a.Results, &matches); err == nil {
			resp.Results = matches
		}
	}
	return resp
}
