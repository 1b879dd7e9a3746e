// Package sentiment aggregates announcement and news sentiment for PSX
// symbols with a recency bias.
package sentiment

import (
	"sort"

	"psx-analyst/internal/models"
)

// DefaultDeadBand is the polarity band treated as neutral when counting
// positive/negative items.
const DefaultDeadBand = 0.1

// DefaultTopHeadlines is how many recent headlines a summary carries.
const DefaultTopHeadlines = 5

// Aggregator computes weighted sentiment summaries from scored records.
type Aggregator struct {
	deadBand     float64
	topHeadlines int
}

// NewAggregator creates an Aggregator. Non-positive arguments fall back to
// the defaults.
func NewAggregator(deadBand float64, topHeadlines int) *Aggregator {
	if deadBand <= 0 {
		deadBand = DefaultDeadBand
	}
	if topHeadlines <= 0 {
		topHeadlines = DefaultTopHeadlines
	}
	return &Aggregator{deadBand: deadBand, topHeadlines: topHeadlines}
}

// Aggregate computes the recency-weighted sentiment summary for a set of
// records. Records are weighted linearly by recency: with N scored items
// the most recent gets weight N and the oldest weight 1.
//
// Records without a polarity are skipped entirely; the aggregator never
// invents a score. Zero scored records yields a zero score and zero count,
// not an error.
func (a *Aggregator) Aggregate(records []models.SentimentRecord) models.SentimentSummary {
	scored := make([]models.SentimentRecord, 0, len(records))
	for _, r := range records {
		if r.Polarity.Valid {
			scored = append(scored, r)
		}
	}

	summary := models.SentimentSummary{}
	if len(scored) == 0 {
		return summary
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].PublishedAt.Before(scored[j].PublishedAt)
	})

	var weightedSum, weightTotal float64
	for i, r := range scored {
		weight := float64(i + 1)
		weightedSum += r.Polarity.Value * weight
		weightTotal += weight

		switch {
		case r.Polarity.Value > a.deadBand:
			summary.Positive++
		case r.Polarity.Value < -a.deadBand:
			summary.Negative++
		default:
			summary.Neutral++
		}
	}

	summary.Score = weightedSum / weightTotal
	summary.AnnouncementCount = len(scored)

	// Most recent headlines, newest first
	top := a.topHeadlines
	if top > len(scored) {
		top = len(scored)
	}
	summary.TopHeadlines = make([]models.ScoredHeadline, 0, top)
	for i := len(scored) - 1; i >= len(scored)-top; i-- {
		summary.TopHeadlines = append(summary.TopHeadlines, models.ScoredHeadline{
			Headline:    scored[i].Headline,
			PublishedAt: scored[i].PublishedAt,
			Polarity:    scored[i].Polarity.Value,
		})
	}

	return summary
}
