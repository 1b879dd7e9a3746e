package indicators

import (
	"psx-analyst/internal/models"
)

// Levels holds support/resistance levels computed over a trailing window.
type Levels struct {
	Support    models.OptFloat
	Resistance models.OptFloat
}

// TradingLevels computes support and resistance from the trailing lookback
// window: support is the lowest low, resistance the highest high. Both are
// invalid when fewer than lookback bars exist.
func TradingLevels(bars []models.Bar, lookback int) Levels {
	if lookback <= 0 || len(bars) < lookback {
		return Levels{}
	}

	window := bars[len(bars)-lookback:]
	return Levels{
		Support:    models.Float(lowest(lowPrices(window))),
		Resistance: models.Float(highest(highPrices(window))),
	}
}

// YearLevels computes the 52-week high and low over the trailing yearBars
// window (252 trading days by convention). When the history is shorter
// than yearBars but at least minBars long, the full history is used.
func YearLevels(bars []models.Bar, yearBars, minBars int) (high, low models.OptFloat) {
	if len(bars) < minBars {
		return models.NullFloat(), models.NullFloat()
	}

	window := bars
	if len(bars) > yearBars {
		window = bars[len(bars)-yearBars:]
	}
	return models.Float(highest(highPrices(window))), models.Float(lowest(lowPrices(window)))
}

// NearLevel reports whether price is within pct (e.g. 0.05 for 5%) of the
// level. A zero or invalid level is never "near".
func NearLevel(price float64, level models.OptFloat, pct float64) bool {
	if !level.Valid || level.Value == 0 {
		return false
	}
	return abs(price-level.Value)/level.Value <= pct
}
