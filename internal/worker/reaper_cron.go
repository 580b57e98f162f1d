package worker

// reaper_cron.go
// Background goroutine that periodically fails duplicate analyses stuck in
// status='processing' past the job timeout. A worker crash mid-run would
// otherwise leave the record processing forever, and clients polling the
// analysis would never see a terminal state.

import (
	"context"
	"time"

	"github.com/rilaconsulting/pmpulse-sub002/internal/repository"

	"github.com/rs/zerolog/log"
)

const reaperTickInterval = 60 * time.Second

// ReaperConfig holds the dependencies for the stale-analysis reaper.
type ReaperConfig struct {
	AnalysisRepo repository.AnalysisRepository
	JobTimeout   time.Duration
}

// StartReaperCron launches a background goroutine that ticks every minute
// and fails analyses whose started_at is older than the job timeout.
// It respects the context for graceful shutdown.
func StartReaperCron(ctx context.Context, cfg ReaperConfig) {
	go func() {
		ticker := time.NewTicker(reaperTickInterval)
		defer ticker.Stop()

		log.Info().Dur("job_timeout", cfg.JobTimeout).Msg("reaper_cron: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("reaper_cron: shutting down")
				return
			case <-ticker.C:
				reapStale(ctx, cfg)
			}
		}
	}()
}

func reapStale(ctx context.Context, cfg ReaperConfig) {
	cutoff := time.Now().UTC().Add(-cfg.JobTimeout)

	stale, err := cfg.AnalysisRepo.ListStaleProcessing(ctx, cutoff)
	if err != nil {
		log.Error().Err(err).Msg("reaper_cron: failed to query stale analyses")
		return
	}
	if len(stale) == 0 {
		return
	}

	log.Warn().Int("count", len(stale)).Msg("reaper_cron: failing stale analyses")

	for i := range stale {
		a := &stale[i]
		if err := cfg.AnalysisRepo.MarkFailed(ctx, a.ID, "analysis timed out"); err != nil {
			log.Error().Err(err).Str("analysis_id", a.ID.String()).Msg("reaper_cron: failed to mark analysis")
			continue
		}
		log.Warn().
			Str("analysis_id", a.ID.String()).
			Time("started_at", derefTime(a.StartedAt)).
			Msg("reaper_cron: analysis timed out")
	}
}

func derefTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
