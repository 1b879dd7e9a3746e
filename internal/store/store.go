// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"time"

	"psx-analyst/internal/models"
)

// DataStore defines the persistence gateway contract.
//
// Write semantics: every derived table is keyed by (symbol, date) and
// writes are idempotent upserts; rewriting the same key replaces the row
// (last write wins). EnsureTicker must be called (or have been called)
// before any dependent write for the symbol. Write failures surface as
// errors, never silently.
//
// Read semantics: a missing row or empty range is (nil, nil), not an
// error, because every downstream computation already tolerates absent
// history. Bar queries return chronologically ascending slices.
//
// Implementations must be safe for concurrent use across distinct
// symbols.
type DataStore interface {
	// Ticker registry
	EnsureTicker(ctx context.Context, symbol, name string) error
	GetTicker(ctx context.Context, symbol string) (*models.Ticker, error)
	ListTickers(ctx context.Context) ([]models.Ticker, error)

	// Price history
	SaveBars(ctx context.Context, bars []models.Bar) error
	LatestBars(ctx context.Context, symbol string, limit int) ([]models.Bar, error)
	BarWindow(ctx context.Context, symbol string, start, end time.Time) ([]models.Bar, error)

	// Indicator snapshots
	SaveSnapshot(ctx context.Context, snap *models.IndicatorSnapshot) error
	LatestSnapshot(ctx context.Context, symbol string) (*models.IndicatorSnapshot, error)

	// Analysis results
	SaveAnalysis(ctx context.Context, res *models.AnalysisResult) error
	LatestAnalysis(ctx context.Context, symbol string) (*models.AnalysisResult, error)

	// Institutional scores
	SaveScore(ctx context.Context, score *models.StockScore) error
	LatestScore(ctx context.Context, symbol string) (*models.StockScore, error)

	// Announcements
	SaveAnnouncements(ctx context.Context, records []models.SentimentRecord) error
	RecentAnnouncements(ctx context.Context, symbol string, since time.Time) ([]models.SentimentRecord, error)
	UnprocessedAnnouncements(ctx context.Context, limit int) ([]models.SentimentRecord, error)
	SetAnnouncementPolarity(ctx context.Context, id int64, polarity float64) error

	// Watchlist
	AddToWatchlist(ctx context.Context, symbol string) error
	RemoveFromWatchlist(ctx context.Context, symbol string) error
	Watchlist(ctx context.Context) ([]string, error)

	// Report queries over the latest row per symbol
	TopOpportunities(ctx context.Context, minScore, limit int) ([]models.ScanSummary, error)
	RedAlerts(ctx context.Context, maxScore, limit int) ([]models.ScanSummary, error)

	// Lifecycle
	Close() error
}
