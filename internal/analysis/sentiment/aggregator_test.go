package sentiment

import (
	"context"
	"math"
	"testing"
	"time"

	"psx-analyst/internal/models"
)

func record(headline string, daysAgo int, polarity models.OptFloat) models.SentimentRecord {
	return models.SentimentRecord{
		Symbol:      "FFC",
		Headline:    headline,
		PublishedAt: time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC).AddDate(0, 0, -daysAgo),
		Polarity:    polarity,
	}
}

func TestAggregateNoItems(t *testing.T) {
	agg := NewAggregator(DefaultDeadBand, DefaultTopHeadlines)
	summary := agg.Aggregate(nil)

	if summary.Score != 0 {
		t.Errorf("expected zero score, got %v", summary.Score)
	}
	if summary.AnnouncementCount != 0 {
		t.Errorf("expected zero count, got %d", summary.AnnouncementCount)
	}
	if len(summary.TopHeadlines) != 0 {
		t.Errorf("expected no headlines, got %d", len(summary.TopHeadlines))
	}
}

func TestAggregateLinearWeighting(t *testing.T) {
	// Older +1.0 gets weight 1, newer -1.0 gets weight 2:
	// (1*1.0 + 2*(-1.0)) / 3 = -1/3.
	records := []models.SentimentRecord{
		record("Record profit announced", 5, models.Float(1.0)),
		record("Plant shutdown extended", 1, models.Float(-1.0)),
	}

	agg := NewAggregator(DefaultDeadBand, DefaultTopHeadlines)
	summary := agg.Aggregate(records)

	if math.Abs(summary.Score-(-1.0/3.0)) > 1e-9 {
		t.Errorf("expected score -1/3, got %v", summary.Score)
	}
	if summary.Positive != 1 || summary.Negative != 1 || summary.Neutral != 0 {
		t.Errorf("unexpected counts: +%d -%d =%d", summary.Positive, summary.Negative, summary.Neutral)
	}
	if summary.AnnouncementCount != 2 {
		t.Errorf("expected count 2, got %d", summary.AnnouncementCount)
	}
}

func TestAggregateSkipsUnscored(t *testing.T) {
	records := []models.SentimentRecord{
		record("Dividend declared", 3, models.Float(0.8)),
		record("Board meeting scheduled", 2, models.NullFloat()),
		record("Quarterly results due", 1, models.NullFloat()),
	}

	agg := NewAggregator(DefaultDeadBand, DefaultTopHeadlines)
	summary := agg.Aggregate(records)

	if summary.AnnouncementCount != 1 {
		t.Errorf("expected 1 scored record, got %d", summary.AnnouncementCount)
	}
	if math.Abs(summary.Score-0.8) > 1e-9 {
		t.Errorf("expected score 0.8 from the only scored record, got %v", summary.Score)
	}
}

func TestAggregateDeadBand(t *testing.T) {
	records := []models.SentimentRecord{
		record("Minor update", 3, models.Float(0.05)),
		record("Neutral notice", 2, models.Float(-0.1)),
		record("Strong buyback", 1, models.Float(0.6)),
	}

	agg := NewAggregator(0.1, DefaultTopHeadlines)
	summary := agg.Aggregate(records)

	if summary.Positive != 1 {
		t.Errorf("expected 1 positive, got %d", summary.Positive)
	}
	if summary.Negative != 0 {
		t.Errorf("expected 0 negative (|-0.1| is inside the band), got %d", summary.Negative)
	}
	if summary.Neutral != 2 {
		t.Errorf("expected 2 neutral, got %d", summary.Neutral)
	}
}

func TestAggregateTopHeadlinesNewestFirst(t *testing.T) {
	records := []models.SentimentRecord{
		record("oldest", 7, models.Float(0.1)),
		record("middle", 4, models.Float(0.2)),
		record("newest", 1, models.Float(0.3)),
	}

	agg := NewAggregator(DefaultDeadBand, 2)
	summary := agg.Aggregate(records)

	if len(summary.TopHeadlines) != 2 {
		t.Fatalf("expected 2 headlines, got %d", len(summary.TopHeadlines))
	}
	if summary.TopHeadlines[0].Headline != "newest" || summary.TopHeadlines[1].Headline != "middle" {
		t.Errorf("expected newest-first ordering, got %q then %q",
			summary.TopHeadlines[0].Headline, summary.TopHeadlines[1].Headline)
	}
}

func TestKeywordOracleDirection(t *testing.T) {
	oracle := NewKeywordOracle()
	ctx := context.Background()

	pos, err := oracle.Score(ctx, "Company announces record profit and higher dividend")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pos <= 0 {
		t.Errorf("expected positive polarity, got %v", pos)
	}

	neg, err := oracle.Score(ctx, "Regulator imposes penalty after loss widens")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if neg >= 0 {
		t.Errorf("expected negative polarity, got %v", neg)
	}

	if pos > 1 || neg < -1 {
		t.Errorf("polarity out of [-1, 1]: %v, %v", pos, neg)
	}
}
