package scoring

import (
	"fmt"

	"psx-analyst/internal/models"
)

// InstitutionalConfig holds the rating thresholds for the 100-point score.
type InstitutionalConfig struct {
	StrongBuyMin float64
	BuyMin       float64
	HoldMin      float64
	ReduceMin    float64
}

// DefaultInstitutionalConfig returns the standard rating bands.
func DefaultInstitutionalConfig() InstitutionalConfig {
	return InstitutionalConfig{
		StrongBuyMin: 85,
		BuyMin:       70,
		HoldMin:      55,
		ReduceMin:    40,
	}
}

// InstInputs carries everything the institutional scorer reads.
type InstInputs struct {
	Snapshot     *models.IndicatorSnapshot
	Sentiment    models.SentimentSummary
	Fundamentals models.Fundamentals
	Close        float64
}

// InstitutionalScorer produces the five-component 100-point score. Every
// component is bounded; missing fundamentals degrade to documented neutral
// defaults rather than zero, so a symbol without fundamental coverage is
// not automatically rated SELL.
type InstitutionalScorer struct {
	cfg        InstitutionalConfig
	composite  *Composite[InstInputs]
	thresholds *ThresholdTable
}

// NewInstitutionalScorer validates the rating bands and builds the scorer.
func NewInstitutionalScorer(cfg InstitutionalConfig) (*InstitutionalScorer, error) {
	thresholds, err := NewThresholdTable([]Threshold{
		{Min: cfg.StrongBuyMin, Label: string(models.RatingStrongBuy)},
		{Min: cfg.BuyMin, Label: string(models.RatingBuy)},
		{Min: cfg.HoldMin, Label: string(models.RatingHold)},
		{Min: cfg.ReduceMin, Label: string(models.RatingReduce)},
	}, string(models.RatingSellAvoid))
	if err != nil {
		return nil, fmt.Errorf("institutional rating thresholds: %w", err)
	}

	s := &InstitutionalScorer{cfg: cfg, thresholds: thresholds}
	s.composite = NewComposite(
		Component[InstInputs]{Name: "financial", Max: 35, Default: 18, Eval: financialHealth},
		Component[InstInputs]{Name: "valuation", Max: 25, Default: 13, Eval: valuation},
		Component[InstInputs]{Name: "technical", Max: 20, Default: 10, Eval: technicalMomentum},
		Component[InstInputs]{Name: "sector_macro", Max: 15, Default: 9, Eval: sectorMacro},
		Component[InstInputs]{Name: "news", Max: 5, Default: 2, Eval: newsCatalysts},
	)
	return s, nil
}

// Score computes the institutional score for one symbol-day. Total is
// always the exact sum of the five components, clamped to [0, 100].
func (s *InstitutionalScorer) Score(in InstInputs) models.StockScore {
	_, parts := s.composite.Score(in)

	score := models.StockScore{
		Financial:   int(parts["financial"]),
		Valuation:   int(parts["valuation"]),
		Technical:   int(parts["technical"]),
		SectorMacro: int(parts["sector_macro"]),
		News:        int(parts["news"]),
		Details:     make(map[string]string, len(parts)),
	}
	score.Total = score.Financial + score.Valuation + score.Technical + score.SectorMacro + score.News
	if score.Total > 100 {
		score.Total = 100
	}
	if score.Total < 0 {
		score.Total = 0
	}
	score.Rating = models.Rating(s.thresholds.Map(float64(score.Total)))

	score.Details["financial"] = fmt.Sprintf("%d/35", score.Financial)
	score.Details["valuation"] = fmt.Sprintf("%d/25", score.Valuation)
	score.Details["technical"] = fmt.Sprintf("%d/20", score.Technical)
	score.Details["sector_macro"] = fmt.Sprintf("%d/15", score.SectorMacro)
	score.Details["news"] = fmt.Sprintf("%d/5", score.News)

	if in.Snapshot != nil {
		score.Symbol = in.Snapshot.Symbol
		score.Date = in.Snapshot.Date
	}
	return score
}

// financialHealth scores earnings, margins, dividend policy, and balance
// sheet stability into [0, 35]. Each sub-score substitutes its own neutral
// value when the underlying fundamental is missing; the component reports
// unavailable only when no fundamental at all is present.
func financialHealth(in InstInputs) (float64, bool) {
	f := in.Fundamentals
	if !f.EPSGrowth.Valid && !f.NetMargin.Valid && !f.DividendYield.Valid && !f.DebtToEquity.Valid {
		return 0, false
	}

	// Earnings quality, 10 points
	earnings := 5.0
	if f.EPSGrowth.Valid {
		switch g := f.EPSGrowth.Value; {
		case g > 15:
			earnings = 10
		case g > 5:
			earnings = 7
		case g > 0:
			earnings = 5
		case g > -5:
			earnings = 2
		default:
			earnings = 0
		}
	}

	// Margins, 10 points, nudged by the margin trend
	margins := 5.0
	if f.NetMargin.Valid {
		switch m := f.NetMargin.Value; {
		case m > 20:
			margins = 10
		case m > 10:
			margins = 7
		case m > 5:
			margins = 5
		case m > 0:
			margins = 3
		default:
			margins = 0
		}
		if f.MarginTrend.Valid {
			if f.MarginTrend.Value > 0 {
				margins = clamp(margins+1, 0, 10)
			} else if f.MarginTrend.Value < 0 {
				margins = clamp(margins-1, 0, 10)
			}
		}
	}

	// Dividend policy, 10 points
	dividend := 5.0
	if f.DividendYield.Valid {
		switch y := f.DividendYield.Value; {
		case y > 6:
			dividend = 10
		case y > 4:
			dividend = 8
		case y > 2:
			dividend = 5
		case y > 0:
			dividend = 3
		default:
			dividend = 0
		}
		// A sustainable payout ratio earns a point
		if f.PayoutRatio.Valid && f.PayoutRatio.Value >= 30 && f.PayoutRatio.Value <= 70 {
			dividend = clamp(dividend+1, 0, 10)
		}
	}

	// Stability via leverage, 5 points
	stability := 3.0
	if f.DebtToEquity.Valid {
		switch d := f.DebtToEquity.Value; {
		case d < 0.5:
			stability = 5
		case d < 1.0:
			stability = 4
		case d < 1.5:
			stability = 2
		default:
			stability = 0
		}
	}

	return earnings + margins + dividend + stability, true
}

// valuation scores P/E, dividend yield, and P/B into [0, 25].
func valuation(in InstInputs) (float64, bool) {
	f := in.Fundamentals
	if !f.PE.Valid && !f.DividendYield.Valid && !f.PB.Valid {
		return 0, false
	}

	pe := 5.0
	if f.PE.Valid && f.PE.Value > 0 {
		switch p := f.PE.Value; {
		case p < 7:
			pe = 10
		case p < 9:
			pe = 8
		case p < 12:
			pe = 6
		case p < 15:
			pe = 4
		default:
			pe = 2
		}
	}

	yield := 5.0
	if f.DividendYield.Valid {
		switch y := f.DividendYield.Value; {
		case y > 5:
			yield = 10
		case y > 4:
			yield = 8
		case y > 3:
			yield = 6
		case y > 2:
			yield = 4
		case y > 1:
			yield = 2
		default:
			yield = 0
		}
	}

	pb := 3.0
	if f.PB.Valid && f.PB.Value > 0 {
		switch p := f.PB.Value; {
		case p < 1.5:
			pb = 5
		case p < 2:
			pb = 4
		case p < 3:
			pb = 2
		default:
			pb = 1
		}
	}

	return pe + yield + pb, true
}

// technicalMomentum maps the indicator snapshot into [0, 20], starting
// from a neutral 10 and moving on each available signal. Null indicator
// fields skip their rule.
func technicalMomentum(in InstInputs) (float64, bool) {
	snap := in.Snapshot
	if snap == nil {
		return 0, false
	}

	score := 10.0

	if snap.RSI.Valid {
		switch rsi := snap.RSI.Value; {
		case rsi < 30:
			score += 4
		case rsi < 40:
			score += 2
		case rsi > 70:
			score -= 4
		case rsi > 60:
			score -= 2
		}
	}

	switch snap.Trend {
	case models.TrendStrongUptrend:
		score += 4
	case models.TrendUptrend:
		score += 2
	case models.TrendDowntrend:
		score -= 2
	case models.TrendStrongDowntrend:
		score -= 4
	}

	if snap.MACDHistogram.Valid {
		if snap.MACDHistogram.Value > 0 {
			score += 3
		} else if snap.MACDHistogram.Value < 0 {
			score -= 3
		}
	} else if snap.MACD.Valid && snap.MACDSignal.Valid {
		if snap.MACD.Value > snap.MACDSignal.Value {
			score++
		} else {
			score--
		}
	}

	if snap.VolumeRatio.Valid {
		switch r := snap.VolumeRatio.Value; {
		case r > 2:
			score += 2
		case r > 1.5:
			score++
		case r < 0.5:
			score--
		}
	}

	if snap.BollingerLower.Valid && in.Close < snap.BollingerLower.Value {
		score += 2
	} else if snap.BollingerUpper.Valid && in.Close > snap.BollingerUpper.Value {
		score -= 2
	}

	return score, true
}

// sectorMacro scores sector strength, the macro backdrop, and geopolitical
// risk into [0, 15]. All three inputs are analyst-supplied; each falls
// back to a mid-band default when absent.
func sectorMacro(in InstInputs) (float64, bool) {
	f := in.Fundamentals

	sector := 4.0
	if f.SectorStrength.Valid {
		sector = clamp(f.SectorStrength.Value, 0, 7)
	}

	macro := 3.0
	if f.MacroScore.Valid {
		macro = clamp(f.MacroScore.Value, 0, 5)
	}

	geo := 2.0
	if f.GeopoliticalRisk.Valid {
		geo = clamp(3-f.GeopoliticalRisk.Value, 0, 3)
	}

	return sector + macro + geo, true
}

// newsCatalysts maps aggregated sentiment into [0, 5] with a small boost
// for a busy announcement tape.
func newsCatalysts(in InstInputs) (float64, bool) {
	score := 2.0
	switch s := in.Sentiment.Score; {
	case s > 0.5:
		score = 4
	case s > 0.2:
		score = 3
	case s > -0.2:
		score = 2
	case s > -0.5:
		score = 1
	default:
		score = 0
	}

	if in.Sentiment.AnnouncementCount >= 3 && in.Sentiment.Score > 0 {
		score++
	}

	return clamp(score, 0, 5), true
}
