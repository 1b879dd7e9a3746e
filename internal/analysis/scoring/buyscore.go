package scoring

import (
	"fmt"
	"strings"

	"psx-analyst/internal/analysis/indicators"
	"psx-analyst/internal/models"
)

// BuyConfig holds the tunable thresholds for the 1-10 buy score.
type BuyConfig struct {
	RSIOversold   float64
	RSIOverbought float64
	StrongBuyMin  float64
	BuyMin        float64
	HoldMin       float64
	NearLevelPct  float64
}

// DefaultBuyConfig returns the standard buy-score thresholds.
func DefaultBuyConfig() BuyConfig {
	return BuyConfig{
		RSIOversold:   30,
		RSIOverbought: 70,
		StrongBuyMin:  8,
		BuyMin:        5,
		HoldMin:       4,
		NearLevelPct:  0.05,
	}
}

// BuyInputs carries everything the buy scorer reads.
type BuyInputs struct {
	Snapshot  *models.IndicatorSnapshot
	Sentiment models.SentimentSummary
	Close     float64
}

// BuyScorer produces the 1-10 buy score and its recommendation. It is a
// pure function of its inputs; persistence is the caller's concern.
type BuyScorer struct {
	cfg        BuyConfig
	base       *Composite[BuyInputs]
	thresholds *ThresholdTable
}

// NewBuyScorer validates the config and builds the scorer. Thresholds must
// be strictly descending.
func NewBuyScorer(cfg BuyConfig) (*BuyScorer, error) {
	thresholds, err := NewThresholdTable([]Threshold{
		{Min: cfg.StrongBuyMin, Label: string(models.RecStrongBuy)},
		{Min: cfg.BuyMin, Label: string(models.RecBuy)},
		{Min: cfg.HoldMin, Label: string(models.RecHold)},
	}, string(models.RecSellAvoid))
	if err != nil {
		return nil, fmt.Errorf("buy score thresholds: %w", err)
	}
	if cfg.RSIOversold >= cfg.RSIOverbought {
		return nil, fmt.Errorf("rsi_oversold (%.0f) must be below rsi_overbought (%.0f)",
			cfg.RSIOversold, cfg.RSIOverbought)
	}

	s := &BuyScorer{cfg: cfg, thresholds: thresholds}
	s.base = NewComposite(
		Component[BuyInputs]{Name: "technical", Max: 5, Default: 3, Eval: s.technicalComponent},
		Component[BuyInputs]{Name: "sentiment", Max: 5, Default: 3, Eval: s.sentimentComponent},
	)
	return s, nil
}

// Score computes the buy score for one symbol-day. A nil snapshot or
// all-null indicators degrade to neutral components rather than failing.
func (s *BuyScorer) Score(in BuyInputs) models.AnalysisResult {
	base, parts := s.base.Score(in)
	bonuses, penalties, notes := s.adjustments(in)

	score := int(clamp(base+bonuses-penalties, 1, 10))

	result := models.AnalysisResult{
		BuyScore:       score,
		Recommendation: models.Recommendation(s.thresholds.Map(float64(score))),
	}
	if in.Snapshot != nil {
		result.Symbol = in.Snapshot.Symbol
		result.Date = in.Snapshot.Date
		result.RSI = in.Snapshot.RSI
		result.VolumeSpike = in.Snapshot.VolumeSpike
	}
	result.SentimentScore = in.Sentiment.Score

	notes = append(notes,
		fmt.Sprintf("technical %.1f/5, sentiment %.1f/5", parts["technical"], parts["sentiment"]))
	result.Notes = strings.Join(notes, "; ")

	return result
}

// technicalComponent maps RSI and the volume-spike signal into [0, 5].
// Lower RSI and an active spike raise the component. Null RSI reports
// unavailable, which the composite maps to the neutral default.
func (s *BuyScorer) technicalComponent(in BuyInputs) (float64, bool) {
	snap := in.Snapshot
	if snap == nil || !snap.RSI.Valid {
		return 0, false
	}

	rsi := snap.RSI.Value
	var tier float64
	switch {
	case rsi < 30:
		tier = 5
	case rsi < 40:
		tier = 4
	case rsi > 70:
		tier = 1
	case rsi > 60:
		tier = 2
	default:
		tier = 3
	}

	if snap.VolumeSpike {
		tier++
	}
	return tier, true
}

// sentimentComponent maps the aggregated sentiment score into [0, 5].
func (s *BuyScorer) sentimentComponent(in BuyInputs) (float64, bool) {
	score := in.Sentiment.Score
	switch {
	case score > 0.5:
		return 5, true
	case score > 0.2:
		return 4, true
	case score > -0.2:
		return 3, true
	case score > -0.5:
		return 2, true
	default:
		return 1, true
	}
}

// adjustments computes the additive bonuses and penalties. Rules stack:
// several can fire at once. Any rule depending on a null indicator is
// skipped.
func (s *BuyScorer) adjustments(in BuyInputs) (bonuses, penalties float64, notes []string) {
	snap := in.Snapshot
	sent := in.Sentiment.Score

	if snap != nil && snap.RSI.Valid {
		if sent > 0.2 && snap.VolumeSpike && snap.RSI.Value < s.cfg.RSIOversold {
			bonuses += 2
			notes = append(notes, "oversold with volume spike and positive sentiment")
		}
		if sent < -0.2 && snap.RSI.Value > s.cfg.RSIOverbought {
			penalties += 2
			notes = append(notes, "overbought with negative sentiment")
		}
	}

	if sent > 0.5 {
		bonuses++
		notes = append(notes, "strongly positive sentiment")
	}
	if sent < -0.5 {
		penalties++
		notes = append(notes, "strongly negative sentiment")
	}

	if snap != nil && snap.SupportLevel.Valid {
		support := snap.SupportLevel.Value
		if in.Close >= support && indicators.NearLevel(in.Close, snap.SupportLevel, s.cfg.NearLevelPct) {
			bonuses++
			notes = append(notes, "near support")
		}
	}
	if snap != nil && snap.YearLow.Valid && in.Close < snap.YearLow.Value {
		penalties += 2
		notes = append(notes, "broke below 52-week support")
	}

	return bonuses, penalties, notes
}
