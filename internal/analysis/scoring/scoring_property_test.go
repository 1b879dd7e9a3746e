package scoring

import (
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"psx-analyst/internal/models"
)

// optFloatGen generates OptFloats including invalid (missing) values.
func optFloatGen(low, high float64) gopter.Gen {
	return gen.Weighted([]gen.WeightedGen{
		{Weight: 1, Gen: gen.Const(models.NullFloat())},
		{Weight: 3, Gen: gen.Float64Range(low, high).Map(models.Float)},
	})
}

// snapshotGen generates snapshots with arbitrary mixes of valid and null
// indicator fields.
func snapshotGen() gopter.Gen {
	trends := gen.OneConstOf(
		models.TrendStrongUptrend, models.TrendUptrend, models.TrendSideways,
		models.TrendDowntrend, models.TrendStrongDowntrend, models.TrendUnknown,
	)
	return gopter.CombineGens(
		optFloatGen(0, 100),      // RSI
		optFloatGen(10, 1000),    // MAShort
		optFloatGen(10, 1000),    // MAMedium
		optFloatGen(10, 1000),    // MALong
		optFloatGen(-50, 50),     // MACDHistogram
		optFloatGen(0, 10),       // VolumeRatio
		gen.Bool(),               // VolumeSpike
		optFloatGen(10, 1000),    // SupportLevel
		optFloatGen(10, 1000),    // YearLow
		trends,                   // Trend
	).Map(func(vals []interface{}) *models.IndicatorSnapshot {
		snap := &models.IndicatorSnapshot{
			Symbol:        "MARI",
			Date:          time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC),
			RSI:           vals[0].(models.OptFloat),
			MAShort:       vals[1].(models.OptFloat),
			MAMedium:      vals[2].(models.OptFloat),
			MALong:        vals[3].(models.OptFloat),
			MACDHistogram: vals[4].(models.OptFloat),
			VolumeRatio:   vals[5].(models.OptFloat),
			VolumeSpike:   vals[6].(bool),
			SupportLevel:  vals[7].(models.OptFloat),
			YearLow:       vals[8].(models.OptFloat),
			Trend:         vals[9].(models.TrendLabel),
		}
		return snap
	})
}

func sentimentGen() gopter.Gen {
	return gopter.CombineGens(
		gen.Float64Range(-1, 1),
		gen.IntRange(0, 10),
	).Map(func(vals []interface{}) models.SentimentSummary {
		return models.SentimentSummary{
			Score:             vals[0].(float64),
			AnnouncementCount: vals[1].(int),
		}
	})
}

func TestProperty_BuyScoreAlwaysInRange(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	parameters.Rng.Seed(time.Now().UnixNano())
	parameters.MaxShrinkCount = 0

	properties := gopter.NewProperties(parameters)

	scorer, err := NewBuyScorer(DefaultBuyConfig())
	if err != nil {
		t.Fatalf("failed to build scorer: %v", err)
	}

	properties.Property("buy score stays in [1, 10] for arbitrary inputs", prop.ForAll(
		func(snap *models.IndicatorSnapshot, sent models.SentimentSummary, close float64) bool {
			result := scorer.Score(BuyInputs{Snapshot: snap, Sentiment: sent, Close: close})
			return result.BuyScore >= 1 && result.BuyScore <= 10
		},
		snapshotGen(),
		sentimentGen(),
		gen.Float64Range(1, 2000),
	))

	properties.TestingRun(t)
}

func TestBuyScoreAllNullInputs(t *testing.T) {
	scorer, err := NewBuyScorer(DefaultBuyConfig())
	if err != nil {
		t.Fatalf("failed to build scorer: %v", err)
	}

	result := scorer.Score(BuyInputs{
		Snapshot:  &models.IndicatorSnapshot{Symbol: "PSO", Trend: models.TrendUnknown},
		Sentiment: models.SentimentSummary{},
		Close:     150,
	})

	// Neutral technical default 3 + neutral sentiment 3 = 6 -> BUY band.
	if result.BuyScore != 6 {
		t.Errorf("expected neutral score 6, got %d", result.BuyScore)
	}
	if result.Recommendation != models.RecBuy {
		t.Errorf("expected BUY for neutral score, got %s", result.Recommendation)
	}

	nilResult := scorer.Score(BuyInputs{Snapshot: nil, Close: 150})
	if nilResult.BuyScore < 1 || nilResult.BuyScore > 10 {
		t.Errorf("nil snapshot produced out-of-range score %d", nilResult.BuyScore)
	}
}

func TestBuyScoreOversoldSpikeScenario(t *testing.T) {
	scorer, err := NewBuyScorer(DefaultBuyConfig())
	if err != nil {
		t.Fatalf("failed to build scorer: %v", err)
	}

	snap := &models.IndicatorSnapshot{
		Symbol:      "OGDC",
		Date:        time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC),
		RSI:         models.Float(25),
		VolumeRatio: models.Float(3.0),
		VolumeSpike: true,
		Trend:       models.TrendDowntrend,
	}
	result := scorer.Score(BuyInputs{
		Snapshot:  snap,
		Sentiment: models.SentimentSummary{Score: 0.4, AnnouncementCount: 2},
		Close:     90,
	})

	// Technical 5+1 capped at 5, sentiment 4, bonus +2 for the
	// oversold/spike/positive-sentiment confluence: 11 -> clamped 10.
	if result.BuyScore != 10 {
		t.Errorf("expected score 10, got %d (notes: %s)", result.BuyScore, result.Notes)
	}
	if result.Recommendation != models.RecStrongBuy {
		t.Errorf("expected STRONG BUY, got %s", result.Recommendation)
	}
}

func TestBuyScoreBrokenYearLow(t *testing.T) {
	scorer, err := NewBuyScorer(DefaultBuyConfig())
	if err != nil {
		t.Fatalf("failed to build scorer: %v", err)
	}

	snap := &models.IndicatorSnapshot{
		Symbol:  "TRG",
		RSI:     models.Float(50),
		YearLow: models.Float(100),
		Trend:   models.TrendDowntrend,
	}
	result := scorer.Score(BuyInputs{
		Snapshot:  snap,
		Sentiment: models.SentimentSummary{Score: -0.6},
		Close:     95,
	})

	// Technical 3, sentiment 1, -2 broken 52w low, -1 strong negative
	// sentiment: clamped to 1.
	if result.BuyScore != 1 {
		t.Errorf("expected score 1, got %d (notes: %s)", result.BuyScore, result.Notes)
	}
	if result.Recommendation != models.RecSellAvoid {
		t.Errorf("expected SELL/AVOID, got %s", result.Recommendation)
	}
}

func TestProperty_InstitutionalTotalIsComponentSum(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	parameters.Rng.Seed(time.Now().UnixNano())
	parameters.MaxShrinkCount = 0

	properties := gopter.NewProperties(parameters)

	scorer, err := NewInstitutionalScorer(DefaultInstitutionalConfig())
	if err != nil {
		t.Fatalf("failed to build scorer: %v", err)
	}

	fundamentalsGen := gopter.CombineGens(
		optFloatGen(-50, 50),  // EPSGrowth
		optFloatGen(-10, 40),  // NetMargin
		optFloatGen(0, 12),    // DividendYield
		optFloatGen(0, 5),     // DebtToEquity
		optFloatGen(-20, 60),  // PE
		optFloatGen(0, 8),     // PB
	).Map(func(vals []interface{}) models.Fundamentals {
		return models.Fundamentals{
			EPSGrowth:     vals[0].(models.OptFloat),
			NetMargin:     vals[1].(models.OptFloat),
			DividendYield: vals[2].(models.OptFloat),
			DebtToEquity:  vals[3].(models.OptFloat),
			PE:            vals[4].(models.OptFloat),
			PB:            vals[5].(models.OptFloat),
		}
	})

	properties.Property("total equals the component sum and stays within [0, 100]", prop.ForAll(
		func(snap *models.IndicatorSnapshot, sent models.SentimentSummary, f models.Fundamentals, close float64) bool {
			score := scorer.Score(InstInputs{Snapshot: snap, Sentiment: sent, Fundamentals: f, Close: close})

			sum := score.Financial + score.Valuation + score.Technical + score.SectorMacro + score.News
			if score.Total != sum {
				return false
			}
			if score.Total < 0 || score.Total > 100 {
				return false
			}
			return score.Financial <= 35 && score.Valuation <= 25 && score.Technical <= 20 &&
				score.SectorMacro <= 15 && score.News <= 5
		},
		snapshotGen(),
		sentimentGen(),
		fundamentalsGen,
		gen.Float64Range(1, 2000),
	))

	properties.TestingRun(t)
}

func TestInstitutionalNeutralDefaults(t *testing.T) {
	scorer, err := NewInstitutionalScorer(DefaultInstitutionalConfig())
	if err != nil {
		t.Fatalf("failed to build scorer: %v", err)
	}

	score := scorer.Score(InstInputs{
		Snapshot:  nil,
		Sentiment: models.SentimentSummary{},
		Close:     100,
	})

	// No snapshot and no fundamentals: financial 18, valuation 13,
	// technical 10, sector 9 (defaults present, so evaluated), news 2.
	if score.Financial != 18 || score.Valuation != 13 || score.Technical != 10 {
		t.Errorf("unexpected defaults: financial=%d valuation=%d technical=%d",
			score.Financial, score.Valuation, score.Technical)
	}
	if score.SectorMacro != 9 || score.News != 2 {
		t.Errorf("unexpected defaults: sector=%d news=%d", score.SectorMacro, score.News)
	}
	if score.Total != 52 {
		t.Errorf("expected neutral total 52, got %d", score.Total)
	}
	if score.Rating != models.RatingReduce {
		t.Errorf("expected REDUCE for 52, got %s", score.Rating)
	}
}

func TestProperty_ThresholdMappingMonotonic(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	buyTable, err := NewThresholdTable([]Threshold{
		{Min: 8, Label: "STRONG BUY"},
		{Min: 5, Label: "BUY"},
		{Min: 4, Label: "HOLD"},
	}, "SELL/AVOID")
	if err != nil {
		t.Fatalf("failed to build table: %v", err)
	}

	ratingTable, err := NewThresholdTable([]Threshold{
		{Min: 85, Label: "STRONG BUY"},
		{Min: 70, Label: "BUY"},
		{Min: 55, Label: "HOLD"},
		{Min: 40, Label: "REDUCE"},
	}, "SELL/AVOID")
	if err != nil {
		t.Fatalf("failed to build table: %v", err)
	}

	properties.Property("higher scores never map to lower-ranked labels", prop.ForAll(
		func(a, b float64) bool {
			lo, hi := a, b
			if lo > hi {
				lo, hi = hi, lo
			}
			return buyTable.Rank(hi) >= buyTable.Rank(lo) &&
				ratingTable.Rank(hi) >= ratingTable.Rank(lo)
		},
		gen.Float64Range(0, 110),
		gen.Float64Range(0, 110),
	))

	properties.TestingRun(t)
}

func TestThresholdTableRejectsAmbiguousRows(t *testing.T) {
	_, err := NewThresholdTable([]Threshold{
		{Min: 8, Label: "A"},
		{Min: 8, Label: "B"},
	}, "C")
	if err == nil {
		t.Error("expected error for equal thresholds")
	}

	_, err = NewThresholdTable([]Threshold{
		{Min: 5, Label: "A"},
		{Min: 8, Label: "B"},
	}, "C")
	if err == nil {
		t.Error("expected error for ascending thresholds")
	}
}

func TestThresholdTableBands(t *testing.T) {
	table, err := NewThresholdTable([]Threshold{
		{Min: 8, Label: "STRONG BUY"},
		{Min: 5, Label: "BUY"},
		{Min: 4, Label: "HOLD"},
	}, "SELL/AVOID")
	if err != nil {
		t.Fatalf("failed to build table: %v", err)
	}

	cases := map[float64]string{
		10: "STRONG BUY",
		8:  "STRONG BUY",
		7:  "BUY",
		5:  "BUY",
		4:  "HOLD",
		3:  "SELL/AVOID",
		1:  "SELL/AVOID",
	}
	for score, expected := range cases {
		if got := table.Map(score); got != expected {
			t.Errorf("Map(%v) = %q, expected %q", score, got, expected)
		}
	}
}
