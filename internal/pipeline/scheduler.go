package pipeline

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"psx-analyst/internal/logging"
)

// Scheduler runs unattended scans on a cron schedule. A run that is still
// in progress when the next tick fires makes the new tick a no-op.
type Scheduler struct {
	cron     *cron.Cron
	pipeline *Pipeline
	symbols  func(ctx context.Context) ([]string, error)
	logger   zerolog.Logger
	running  atomic.Bool
}

// NewScheduler creates a scheduler. symbols is called at each tick so
// watchlist changes between runs are picked up.
func NewScheduler(p *Pipeline, symbols func(ctx context.Context) ([]string, error), logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:     cron.New(),
		pipeline: p,
		symbols:  symbols,
		logger:   logging.WithComponent(logger, "scheduler"),
	}
}

// Start registers the cron spec and starts the scheduler.
func (s *Scheduler) Start(ctx context.Context, spec string) error {
	_, err := s.cron.AddFunc(spec, func() {
		if !s.running.CompareAndSwap(false, true) {
			s.logger.Warn().Msg("Previous scan still running, skipping tick")
			return
		}
		defer s.running.Store(false)

		symbols, err := s.symbols(ctx)
		if err != nil {
			s.logger.Error().Err(err).Msg("Failed to resolve symbol universe")
			return
		}
		if len(symbols) == 0 {
			s.logger.Warn().Msg("Empty symbol universe, nothing to scan")
			return
		}

		if _, err := s.pipeline.ScanAll(ctx, symbols); err != nil {
			s.logger.Error().Err(err).Msg("Scheduled scan failed")
		}
	})
	if err != nil {
		return fmt.Errorf("failed to register schedule %q: %w", spec, err)
	}

	s.cron.Start()
	s.logger.Info().Str("spec", spec).Msg("Scheduler started")
	return nil
}

// Stop stops the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	s.logger.Info().Msg("Scheduler stopped")
}
