package worker

// dedup_worker.go
// Runs vendor deduplication analyses from QueueDedup. The pairwise scan is
// O(n²) in canonical vendor count, which is exactly why it lives here and
// not on the request path. Single attempt: a failure is recorded on the
// analysis record, sent to the DLQ, and never silently retried.

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rilaconsulting/pmpulse-sub002/internal/matching"
	"github.com/rilaconsulting/pmpulse-sub002/internal/repository"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// DedupJobPayload is the job envelope sent to QueueDedup.
type DedupJobPayload struct {
	AnalysisID string `json:"analysis_id"`
}

// DedupWorker owns the pending→processing→completed/failed lifecycle of one
// analysis record at a time.
type DedupWorker struct {
	analysisRepo repository.AnalysisRepository
	vendorRepo   repository.VendorRepository
	engine       *matching.Engine
	dispatcher   *Dispatcher
	rdb          *redis.Client
	jobTimeout   time.Duration
}

func NewDedupWorker(
	analysisRepo repository.AnalysisRepository,
	vendorRepo repository.VendorRepository,
	engine *matching.Engine,
	dispatcher *Dispatcher,
	rdb *redis.Client,
	jobTimeout time.Duration,
) *DedupWorker {
	return &DedupWorker{
		analysisRepo: analysisRepo,
		vendorRepo:   vendorRepo,
		engine:       engine,
		dispatcher:   dispatcher,
		rdb:          rdb,
		jobTimeout:   jobTimeout,
	}
}

// Process handles a single dedup job:
//  1. Parse DedupJobPayload from the job envelope
//  2. Claim the analysis (conditional pending→processing; exactly one worker
//     may own a record)
//  3. Load all canonical vendors and run the pairwise engine under the
//     configured timeout
//  4. Store results + counters and mark completed
//  5. Optionally enqueue a completion notification email
//
// Any failure after the claim marks the analysis failed with the error
// message and pushes a DLQ entry.
func (w *DedupWorker) Process(ctx context.Context, raw json.RawMessage) {
	var payload DedupJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("dedup_worker: invalid payload")
		return
	}

	analysisID, err := uuid.Parse(payload.AnalysisID)
	if err != nil {
		log.Error().Str("analysis_id", payload.AnalysisID).Msg("dedup_worker: invalid analysis_id")
		return
	}

	analysis, err := w.analysisRepo.FindByID(ctx, analysisID)
	if err != nil {
		log.Error().Err(err).Str("analysis_id", payload.AnalysisID).Msg("dedup_worker: analysis not found")
		return
	}

	claimed, err := w.analysisRepo.MarkProcessing(ctx, analysisID)
	if err != nil {
		log.Error().Err(err).Str("analysis_id", payload.AnalysisID).Msg("dedup_worker: failed to claim analysis")
		return
	}
	if !claimed {
		log.Warn().Str("analysis_id", payload.AnalysisID).Str("status", analysis.Status).
			Msg("dedup_worker: analysis not pending — skipping")
		return
	}

	runCtx, cancel := context.WithTimeout(ctx, w.jobTimeout)
	defer cancel()

	if err := w.run(runCtx, analysis.ID, analysis.Threshold, analysis.Limit, analysis.NotifyEmail); err != nil {
		log.Error().Err(err).Str("analysis_id", payload.AnalysisID).Msg("dedup_worker: analysis failed")
		if markErr := w.analysisRepo.MarkFailed(ctx, analysisID, err.Error()); markErr != nil {
			log.Error().Err(markErr).Str("analysis_id", payload.AnalysisID).Msg("dedup_worker: failed to record failure")
		}
		SendToDLQ(ctx, w.rdb, QueueDedup, "dedup", raw, err.Error(), 1)
	}
}

func (w *DedupWorker) run(ctx context.Context, analysisID uuid.UUID, threshold float64, limit int, notifyEmail *string) error {
	start := time.Now()

	vendors, err := w.vendorRepo.ListCanonical(ctx)
	if err != nil {
		return fmt.Errorf("load canonical vendors: %w", err)
	}

	n := int64(len(vendors))
	comparisons := n * (n - 1) / 2

	matches := w.engine.FindPotentialDuplicates(vendors, threshold, limit)

	results, err := json.Marshal(matches)
	if err != nil {
		return fmt.Errorf("serialize results: %w", err)
	}

	if err := w.analysisRepo.MarkCompleted(ctx, analysisID, results, len(vendors), comparisons, len(matches)); err != nil {
		return fmt.Errorf("store results: %w", err)
	}

	log.Info().
		Str("analysis_id", analysisID.String()).
		Int("total_vendors", len(vendors)).
		Int64("comparisons", comparisons).
		Int("duplicates_found", len(matches)).
		Dur("elapsed", time.Since(start)).
		Msg("dedup_worker: analysis completed")

	if notifyEmail != nil && *notifyEmail != "" {
		emailJob := EmailJobPayload{
			ToEmail: *notifyEmail,
			Subject: "Vendor duplicate analysis completed",
			Body: fmt.Sprintf(
				"Your vendor duplicate analysis has finished.\nVendors scanned: %d\nPotential duplicates found: %d",
				len(vendors), len(matches)),
		}
		if err := w.dispatcher.EnqueueEmail(ctx, emailJob); err != nil {
			log.Warn().Err(err).Str("email", *notifyEmail).Msg("dedup_worker: failed to enqueue notification")
		}
	}

	return nil
}
