package pipeline

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"psx-analyst/internal/analysis/scoring"
	"psx-analyst/internal/analysis/sentiment"
	apperrors "psx-analyst/internal/errors"
	"psx-analyst/internal/models"
	"psx-analyst/internal/store"
)

// fakeFetcher serves canned bars and announcements per symbol, failing for
// symbols in the errs map.
type fakeFetcher struct {
	bars          map[string][]models.Bar
	announcements map[string][]models.SentimentRecord
	errs          map[string]error
}

func (f *fakeFetcher) FetchHistory(_ context.Context, symbol string, _ int) ([]models.Bar, error) {
	if err, ok := f.errs[symbol]; ok {
		return nil, err
	}
	return f.bars[symbol], nil
}

func (f *fakeFetcher) FetchAnnouncements(_ context.Context, symbol string) ([]models.SentimentRecord, error) {
	if err, ok := f.errs[symbol]; ok {
		return nil, err
	}
	return f.announcements[symbol], nil
}

// oversoldBars builds a declining series ending on a volume spike, the
// shape that should score well for a contrarian buy.
func oversoldBars(symbol string, count int) []models.Bar {
	base := time.Now().AddDate(0, 0, -count)
	bars := make([]models.Bar, count)
	price := 200.0
	for i := range bars {
		price -= 2.0
		volume := int64(10000)
		if i == count-1 {
			volume = 35000
		}
		bars[i] = models.Bar{
			Symbol: symbol,
			Date:   time.Date(base.Year(), base.Month(), base.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, i),
			Open:   price + 1,
			High:   price + 3,
			Low:    price - 1,
			Close:  price,
			Volume: volume,
		}
	}
	return bars
}

func testPipeline(t *testing.T, opts Options) (*Pipeline, *store.SQLiteStore) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "pipeline_test.db")
	ds, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { ds.Close() })

	buy, err := scoring.NewBuyScorer(scoring.DefaultBuyConfig())
	if err != nil {
		t.Fatalf("failed to create buy scorer: %v", err)
	}
	inst, err := scoring.NewInstitutionalScorer(scoring.DefaultInstitutionalConfig())
	if err != nil {
		t.Fatalf("failed to create institutional scorer: %v", err)
	}

	p, err := New(ds, sentiment.NewKeywordOracle(), buy, inst, opts, zerolog.Nop())
	if err != nil {
		t.Fatalf("failed to create pipeline: %v", err)
	}
	return p, ds
}

func TestNewRejectsMissingDependencies(t *testing.T) {
	opts := DefaultOptions()
	buy, _ := scoring.NewBuyScorer(scoring.DefaultBuyConfig())
	inst, _ := scoring.NewInstitutionalScorer(scoring.DefaultInstitutionalConfig())

	if _, err := New(nil, sentiment.NewKeywordOracle(), buy, inst, opts, zerolog.Nop()); err == nil {
		t.Error("expected error for nil store")
	}

	dbPath := filepath.Join(t.TempDir(), "deps_test.db")
	ds, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer ds.Close()

	if _, err := New(ds, nil, buy, inst, opts, zerolog.Nop()); err == nil {
		t.Error("expected error for nil oracle")
	}
	if _, err := New(ds, sentiment.NewKeywordOracle(), nil, inst, opts, zerolog.Nop()); err == nil {
		t.Error("expected error for nil buy scorer")
	}

	bad := opts
	bad.Workers = 0
	if _, err := New(ds, sentiment.NewKeywordOracle(), buy, inst, bad, zerolog.Nop()); err == nil {
		t.Error("expected error for zero workers")
	}
}

func TestProcessSymbolEndToEnd(t *testing.T) {
	opts := DefaultOptions()
	opts.RetryDelay = time.Millisecond
	p, ds := testPipeline(t, opts)

	fetcher := &fakeFetcher{
		bars: map[string][]models.Bar{
			"OGDC": oversoldBars("OGDC", 60),
		},
		announcements: map[string][]models.SentimentRecord{
			"OGDC": {
				{
					Symbol:      "OGDC",
					Headline:    "OGDC announces record profit and dividend",
					PublishedAt: time.Now().AddDate(0, 0, -2),
				},
			},
		},
	}
	p.SetFetcher(fetcher)

	ctx := context.Background()
	summary, err := p.ProcessSymbol(ctx, "OGDC")
	if err != nil {
		t.Fatalf("ProcessSymbol: %v", err)
	}

	if summary.Symbol != "OGDC" {
		t.Errorf("unexpected symbol %q", summary.Symbol)
	}
	if !summary.VolumeSpike {
		t.Error("expected a volume spike on the final bar")
	}
	if !summary.RSI.Valid || summary.RSI.Value > 35 {
		t.Errorf("expected deeply oversold RSI, got %+v", summary.RSI)
	}
	if summary.BuyScore < 5 {
		t.Errorf("expected oversold spike with positive news to score at least 5, got %d", summary.BuyScore)
	}
	if summary.SentimentScore <= 0 {
		t.Errorf("expected positive sentiment, got %v", summary.SentimentScore)
	}

	// Every stage must be on record.
	if snap, err := ds.LatestSnapshot(ctx, "OGDC"); err != nil || snap == nil {
		t.Errorf("expected persisted snapshot, got (%v, %v)", snap, err)
	}
	if analysis, err := ds.LatestAnalysis(ctx, "OGDC"); err != nil || analysis == nil {
		t.Errorf("expected persisted analysis, got (%v, %v)", analysis, err)
	}
	if score, err := ds.LatestScore(ctx, "OGDC"); err != nil || score == nil {
		t.Errorf("expected persisted score, got (%v, %v)", score, err)
	}

	// The announcement was scored and stored with its polarity.
	records, err := ds.RecentAnnouncements(ctx, "OGDC", time.Now().AddDate(0, 0, -7))
	if err != nil {
		t.Fatalf("RecentAnnouncements: %v", err)
	}
	if len(records) != 1 || !records[0].Polarity.Valid {
		t.Errorf("expected one scored announcement, got %+v", records)
	}
}

func TestProcessSymbolSkipsShortHistory(t *testing.T) {
	opts := DefaultOptions()
	opts.RetryDelay = time.Millisecond
	p, _ := testPipeline(t, opts)

	fetcher := &fakeFetcher{
		bars: map[string][]models.Bar{
			"THIN": oversoldBars("THIN", 5),
		},
	}
	p.SetFetcher(fetcher)

	_, err := p.ProcessSymbol(context.Background(), "THIN")
	if !errors.Is(err, apperrors.ErrInsufficientData) {
		t.Errorf("expected insufficient data error, got %v", err)
	}
}

func TestProcessSymbolSurvivesFetchFailure(t *testing.T) {
	opts := DefaultOptions()
	opts.RetryAttempts = 1
	opts.RetryDelay = time.Millisecond
	p, ds := testPipeline(t, opts)

	ctx := context.Background()
	if err := ds.EnsureTicker(ctx, "LUCK", ""); err != nil {
		t.Fatalf("EnsureTicker: %v", err)
	}
	if err := ds.SaveBars(ctx, oversoldBars("LUCK", 60)); err != nil {
		t.Fatalf("SaveBars: %v", err)
	}

	// Fetch fails, but stored history carries the analysis.
	p.SetFetcher(&fakeFetcher{errs: map[string]error{"LUCK": errors.New("portal down")}})

	summary, err := p.ProcessSymbol(ctx, "LUCK")
	if err != nil {
		t.Fatalf("expected analysis from stored history, got %v", err)
	}
	if summary.BuyScore < 1 || summary.BuyScore > 10 {
		t.Errorf("buy score out of range: %d", summary.BuyScore)
	}
}

func TestScanAllCountsOutcomes(t *testing.T) {
	opts := DefaultOptions()
	opts.Workers = 2
	opts.RetryAttempts = 1
	opts.RetryDelay = time.Millisecond
	p, _ := testPipeline(t, opts)

	p.SetFetcher(&fakeFetcher{
		bars: map[string][]models.Bar{
			"GOOD": oversoldBars("GOOD", 60),
			"THIN": oversoldBars("THIN", 3),
		},
	})

	// GOOD succeeds, THIN is skipped, MISSING has no data at all and is
	// skipped too once the empty history trips the bar floor.
	result, err := p.ScanAll(context.Background(), []string{"GOOD", "THIN", "MISSING"})
	if err != nil {
		t.Fatalf("ScanAll: %v", err)
	}

	if result.Succeeded != 1 {
		t.Errorf("expected 1 success, got %d", result.Succeeded)
	}
	if result.Skipped != 2 {
		t.Errorf("expected 2 skips, got %d", result.Skipped)
	}
	if result.Failed != 0 {
		t.Errorf("expected 0 failures, got %d", result.Failed)
	}
	if len(result.Summaries) != 1 || result.Summaries[0].Symbol != "GOOD" {
		t.Errorf("unexpected summaries: %+v", result.Summaries)
	}
	if result.Duration <= 0 {
		t.Error("expected a positive scan duration")
	}
}

func TestScanAllEmptyUniverse(t *testing.T) {
	p, _ := testPipeline(t, DefaultOptions())
	if _, err := p.ScanAll(context.Background(), nil); !errors.Is(err, apperrors.ErrNoData) {
		t.Errorf("expected no data error, got %v", err)
	}
}

func TestScanAllStopsDispatchOnCancel(t *testing.T) {
	opts := DefaultOptions()
	opts.Workers = 1
	opts.RetryAttempts = 1
	opts.RetryDelay = time.Millisecond
	p, _ := testPipeline(t, opts)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	symbols := make([]string, 50)
	for i := range symbols {
		symbols[i] = "SYM"
	}
	result, err := p.ScanAll(ctx, symbols)
	if err != nil {
		t.Fatalf("ScanAll: %v", err)
	}
	// The buffered job channel accepts everything it was handed before the
	// cancellation check; with an already-cancelled context nothing beyond
	// the buffer is dispatched and no work is required to have succeeded.
	if result.Succeeded != 0 {
		t.Errorf("expected no successes with a cancelled context, got %d", result.Succeeded)
	}
}
