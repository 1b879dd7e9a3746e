// Package pipeline runs the per-symbol analysis pipeline over a symbol
// universe with bounded concurrency.
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"psx-analyst/internal/analysis/indicators"
	"psx-analyst/internal/analysis/scoring"
	"psx-analyst/internal/analysis/sentiment"
	apperrors "psx-analyst/internal/errors"
	"psx-analyst/internal/logging"
	"psx-analyst/internal/models"
	"psx-analyst/internal/store"
	"psx-analyst/pkg/utils"
)

// Fetcher pulls fresh market data before a symbol is analyzed. Optional;
// without one the pipeline works from stored history only.
type Fetcher interface {
	FetchHistory(ctx context.Context, symbol string, maxBars int) ([]models.Bar, error)
	FetchAnnouncements(ctx context.Context, symbol string) ([]models.SentimentRecord, error)
}

// FundamentalsProvider supplies fundamental inputs for the institutional
// scorer. Optional; without one every fundamental field is absent and the
// scorer falls back to its neutral defaults.
type FundamentalsProvider interface {
	Fundamentals(ctx context.Context, symbol string) (models.Fundamentals, error)
}

// Options carries the pipeline's tunables.
type Options struct {
	Workers       int
	HistoryBars   int
	WindowDays    int
	RetryAttempts int
	RetryDelay    time.Duration
	Snapshot      indicators.SnapshotConfig
	DeadBand      float64
	TopHeadlines  int
}

// DefaultOptions returns the standard pipeline settings.
func DefaultOptions() Options {
	return Options{
		Workers:       4,
		HistoryBars:   260,
		WindowDays:    14,
		RetryAttempts: 3,
		RetryDelay:    500 * time.Millisecond,
		Snapshot:      indicators.DefaultSnapshotConfig(),
		DeadBand:      sentiment.DefaultDeadBand,
		TopHeadlines:  sentiment.DefaultTopHeadlines,
	}
}

// ScanResult summarizes one scan over a symbol universe.
type ScanResult struct {
	Succeeded int
	Skipped   int
	Failed    int
	Summaries []models.ScanSummary
	Duration  time.Duration
}

// Pipeline runs fetch, indicators, sentiment and both scorers for each
// symbol and persists every stage.
type Pipeline struct {
	store        store.DataStore
	oracle       sentiment.Oracle
	fetcher      Fetcher
	fundamentals FundamentalsProvider

	aggregator *sentiment.Aggregator
	engine     *indicators.Engine
	buy        *scoring.BuyScorer
	inst       *scoring.InstitutionalScorer

	opts     Options
	retryCfg utils.RetryConfig
	logger   zerolog.Logger
}

// New creates a pipeline. Store, oracle and both scorers are required;
// fetcher and fundamentals provider may be nil.
func New(ds store.DataStore, oracle sentiment.Oracle, buy *scoring.BuyScorer, inst *scoring.InstitutionalScorer, opts Options, logger zerolog.Logger) (*Pipeline, error) {
	if ds == nil {
		return nil, fmt.Errorf("pipeline requires a store")
	}
	if oracle == nil {
		return nil, fmt.Errorf("pipeline requires a sentiment oracle")
	}
	if buy == nil || inst == nil {
		return nil, fmt.Errorf("pipeline requires both scorers")
	}
	if opts.Workers < 1 || opts.Workers > 64 {
		return nil, apperrors.NewValidationError("workers", opts.Workers, "must be in [1, 64]")
	}

	return &Pipeline{
		store:      ds,
		oracle:     oracle,
		aggregator: sentiment.NewAggregator(opts.DeadBand, opts.TopHeadlines),
		engine:     indicators.NewDefaultEngine(opts.Workers, opts.Snapshot),
		buy:        buy,
		inst:       inst,
		opts:       opts,
		retryCfg: utils.RetryConfig{
			MaxAttempts:   opts.RetryAttempts,
			InitialDelay:  opts.RetryDelay,
			MaxDelay:      10 * time.Second,
			BackoffFactor: 2.0,
		},
		logger: logging.WithComponent(logger, "pipeline"),
	}, nil
}

// SetFetcher attaches an optional market data fetcher.
func (p *Pipeline) SetFetcher(f Fetcher) {
	p.fetcher = f
}

// SetFundamentalsProvider attaches an optional fundamentals source.
func (p *Pipeline) SetFundamentalsProvider(f FundamentalsProvider) {
	p.fundamentals = f
}

// ScanAll analyzes every symbol with a bounded worker pool. A failing
// symbol is logged and counted, never aborts the scan. Cancelling the
// context stops dispatch; symbols already in flight run to completion.
func (p *Pipeline) ScanAll(ctx context.Context, symbols []string) (*ScanResult, error) {
	if len(symbols) == 0 {
		return nil, apperrors.ErrNoData
	}

	start := time.Now()
	logging.LogScanStart(p.logger, len(symbols), p.opts.Workers)

	jobs := make(chan string, len(symbols))

	var mu sync.Mutex
	result := &ScanResult{}

	var wg sync.WaitGroup
	for i := 0; i < p.opts.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for symbol := range jobs {
				summary, err := p.ProcessSymbol(ctx, symbol)

				mu.Lock()
				switch {
				case err == nil:
					result.Succeeded++
					result.Summaries = append(result.Summaries, *summary)
				case apperrors.Is(err, apperrors.ErrInsufficientData), apperrors.Is(err, apperrors.ErrNoData):
					result.Skipped++
				default:
					result.Failed++
				}
				mu.Unlock()

				if err != nil {
					if apperrors.Is(err, apperrors.ErrInsufficientData) || apperrors.Is(err, apperrors.ErrNoData) {
						logging.LogSymbolSkipped(p.logger, symbol, err.Error())
					} else {
						p.logger.Error().Err(err).Str("symbol", symbol).Msg("Symbol analysis failed")
					}
				}
			}
		}()
	}

dispatch:
	for _, symbol := range symbols {
		select {
		case <-ctx.Done():
			break dispatch
		case jobs <- symbol:
		}
	}
	close(jobs)
	wg.Wait()

	result.Duration = time.Since(start)
	logging.LogScanComplete(p.logger, result.Succeeded, result.Skipped, result.Failed, result.Duration)
	return result, nil
}

// ProcessSymbol runs the full pipeline for one symbol: refresh data if a
// fetcher is attached, compute the indicator snapshot, aggregate
// sentiment, run both scorers and persist every stage.
func (p *Pipeline) ProcessSymbol(ctx context.Context, symbol string) (*models.ScanSummary, error) {
	logger := logging.WithSymbol(p.logger, symbol)

	if err := utils.Retry(ctx, p.retryCfg, func() error {
		return p.store.EnsureTicker(ctx, symbol, "")
	}); err != nil {
		return nil, fmt.Errorf("failed to register ticker: %w", err)
	}

	if p.fetcher != nil {
		if err := p.refresh(ctx, symbol, logger); err != nil {
			// Stale stored data is still usable; log and continue.
			logger.Warn().Err(err).Msg("Data refresh failed, analyzing stored history")
		}
	}

	bars, err := utils.RetryWithResult(ctx, p.retryCfg, func() ([]models.Bar, error) {
		return p.store.LatestBars(ctx, symbol, p.opts.HistoryBars)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load price history: %w", err)
	}
	if len(bars) < p.opts.Snapshot.RSIPeriod+1 {
		return nil, fmt.Errorf("%d bars on record: %w", len(bars), apperrors.ErrInsufficientData)
	}

	snap, err := p.engine.Snapshot(ctx, bars)
	if err != nil {
		return nil, fmt.Errorf("failed to compute indicators: %w", err)
	}
	if err := utils.Retry(ctx, p.retryCfg, func() error {
		return p.store.SaveSnapshot(ctx, snap)
	}); err != nil {
		return nil, fmt.Errorf("failed to save snapshot: %w", err)
	}

	summary, err := p.symbolSentiment(ctx, symbol, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate sentiment: %w", err)
	}

	last := bars[len(bars)-1]

	analysis := p.buy.Score(scoring.BuyInputs{
		Snapshot:  snap,
		Sentiment: summary,
		Close:     last.Close,
	})
	if err := utils.Retry(ctx, p.retryCfg, func() error {
		return p.store.SaveAnalysis(ctx, &analysis)
	}); err != nil {
		return nil, fmt.Errorf("failed to save analysis: %w", err)
	}

	fundamentals := models.Fundamentals{}
	if p.fundamentals != nil {
		if f, err := p.fundamentals.Fundamentals(ctx, symbol); err == nil {
			fundamentals = f
		} else {
			logger.Warn().Err(err).Msg("Fundamentals unavailable, scoring with neutral defaults")
		}
	}

	score := p.inst.Score(scoring.InstInputs{
		Snapshot:     snap,
		Sentiment:    summary,
		Fundamentals: fundamentals,
		Close:        last.Close,
	})
	if err := utils.Retry(ctx, p.retryCfg, func() error {
		return p.store.SaveScore(ctx, &score)
	}); err != nil {
		return nil, fmt.Errorf("failed to save score: %w", err)
	}

	logging.LogSymbolResult(logger, symbol, analysis.BuyScore, string(analysis.Recommendation), score.Total, string(score.Rating))

	return &models.ScanSummary{
		Symbol:         symbol,
		Date:           last.Date,
		Close:          last.Close,
		BuyScore:       analysis.BuyScore,
		Recommendation: analysis.Recommendation,
		TotalScore:     score.Total,
		Rating:         score.Rating,
		RSI:            snap.RSI,
		VolumeSpike:    snap.VolumeSpike,
		SentimentScore: summary.Score,
		Trend:          snap.Trend,
		Notes:          analysis.Notes,
	}, nil
}

// refresh pulls fresh bars and announcements through the fetcher and
// persists them. Upserts make re-fetching the same day idempotent.
func (p *Pipeline) refresh(ctx context.Context, symbol string, logger zerolog.Logger) error {
	bars, err := utils.RetryWithResult(ctx, p.retryCfg, func() ([]models.Bar, error) {
		return p.fetcher.FetchHistory(ctx, symbol, p.opts.HistoryBars)
	})
	if err != nil {
		return fmt.Errorf("failed to fetch history: %w", err)
	}
	if err := utils.Retry(ctx, p.retryCfg, func() error {
		return p.store.SaveBars(ctx, bars)
	}); err != nil {
		return fmt.Errorf("failed to save bars: %w", err)
	}

	records, err := utils.RetryWithResult(ctx, p.retryCfg, func() ([]models.SentimentRecord, error) {
		return p.fetcher.FetchAnnouncements(ctx, symbol)
	})
	if err != nil {
		return fmt.Errorf("failed to fetch announcements: %w", err)
	}
	if len(records) > 0 {
		if err := utils.Retry(ctx, p.retryCfg, func() error {
			return p.store.SaveAnnouncements(ctx, records)
		}); err != nil {
			return fmt.Errorf("failed to save announcements: %w", err)
		}
	}

	logger.Debug().Int("bars", len(bars)).Int("announcements", len(records)).Msg("Data refreshed")
	return nil
}

// symbolSentiment scores any unscored announcements in the trailing
// window, then aggregates. Oracle failures leave records unscored; the
// aggregator works from whatever polarity is on record.
func (p *Pipeline) symbolSentiment(ctx context.Context, symbol string, logger zerolog.Logger) (models.SentimentSummary, error) {
	since := time.Now().AddDate(0, 0, -p.opts.WindowDays)
	records, err := utils.RetryWithResult(ctx, p.retryCfg, func() ([]models.SentimentRecord, error) {
		return p.store.RecentAnnouncements(ctx, symbol, since)
	})
	if err != nil {
		return models.SentimentSummary{}, err
	}

	for i := range records {
		if records[i].Polarity.Valid {
			continue
		}
		polarity, err := utils.RetryWithResult(ctx, p.retryCfg, func() (float64, error) {
			return p.oracle.Score(ctx, records[i].Headline)
		})
		if err != nil {
			logger.Warn().Err(err).Str("headline", records[i].Headline).Msg("Sentiment scoring failed, leaving unscored")
			continue
		}
		if err := p.store.SetAnnouncementPolarity(ctx, records[i].ID, polarity); err != nil {
			logger.Warn().Err(err).Int64("id", records[i].ID).Msg("Failed to persist polarity")
		}
		records[i].Polarity = models.Float(polarity)
		records[i].Processed = true
	}

	return p.aggregator.Aggregate(records), nil
}
