package indicators

import (
	"fmt"

	"psx-analyst/internal/models"
)

// SMA calculates Simple Moving Average.
type SMA struct {
	period int
}

// NewSMA creates a new SMA indicator.
func NewSMA(period int) *SMA {
	return &SMA{period: period}
}

func (s *SMA) Name() string {
	return fmt.Sprintf("SMA_%d", s.period)
}

func (s *SMA) Period() int {
	return s.period
}

func (s *SMA) Calculate(bars []models.Bar) ([]float64, error) {
	if s.period <= 0 {
		return nil, ErrInvalidPeriod
	}
	if len(bars) < s.period {
		return nil, ErrInsufficientData
	}

	result := make([]float64, len(bars))
	closes := closePrices(bars)

	for i := s.period - 1; i < len(bars); i++ {
		result[i] = mean(closes[i-s.period+1 : i+1])
	}

	return result, nil
}

// EMA calculates Exponential Moving Average.
type EMA struct {
	period int
}

// NewEMA creates a new EMA indicator.
func NewEMA(period int) *EMA {
	return &EMA{period: period}
}

func (e *EMA) Name() string {
	return fmt.Sprintf("EMA_%d", e.period)
}

func (e *EMA) Period() int {
	return e.period
}

func (e *EMA) Calculate(bars []models.Bar) ([]float64, error) {
	if e.period <= 0 {
		return nil, ErrInvalidPeriod
	}
	if len(bars) < e.period {
		return nil, ErrInsufficientData
	}

	return CalculateEMA(closePrices(bars), e.period), nil
}

// CalculateEMA calculates EMA on raw values (helper for other indicators).
// The first EMA value is the SMA of the first period values.
func CalculateEMA(values []float64, period int) []float64 {
	if len(values) < period || period <= 0 {
		return nil
	}

	result := make([]float64, len(values))
	multiplier := 2.0 / float64(period+1)

	result[period-1] = mean(values[:period])
	for i := period; i < len(values); i++ {
		result[i] = (values[i]-result[i-1])*multiplier + result[i-1]
	}

	return result
}

// MACD calculates Moving Average Convergence Divergence.
type MACD struct {
	fastPeriod   int
	slowPeriod   int
	signalPeriod int
}

// NewMACD creates a new MACD indicator with the given periods (12, 26, 9
// are the conventional defaults).
func NewMACD(fast, slow, signal int) *MACD {
	return &MACD{
		fastPeriod:   fast,
		slowPeriod:   slow,
		signalPeriod: signal,
	}
}

func (m *MACD) Name() string {
	return fmt.Sprintf("MACD_%d_%d_%d", m.fastPeriod, m.slowPeriod, m.signalPeriod)
}

func (m *MACD) Period() int {
	return m.slowPeriod + m.signalPeriod - 1
}

func (m *MACD) Calculate(bars []models.Bar) (map[string][]float64, error) {
	if m.fastPeriod <= 0 || m.slowPeriod <= 0 || m.signalPeriod <= 0 {
		return nil, ErrInvalidPeriod
	}
	if m.fastPeriod >= m.slowPeriod {
		return nil, ErrInvalidPeriod
	}
	if len(bars) < m.Period() {
		return nil, ErrInsufficientData
	}

	closes := closePrices(bars)
	fastEMA := CalculateEMA(closes, m.fastPeriod)
	slowEMA := CalculateEMA(closes, m.slowPeriod)

	// MACD Line = Fast EMA - Slow EMA
	macdLine := make([]float64, len(bars))
	for i := m.slowPeriod - 1; i < len(bars); i++ {
		macdLine[i] = fastEMA[i] - slowEMA[i]
	}

	// Signal Line = EMA of MACD Line
	signalLine := make([]float64, len(bars))
	startIdx := m.slowPeriod - 1
	signalEMA := CalculateEMA(macdLine[startIdx:], m.signalPeriod)
	for i := 0; i < len(signalEMA); i++ {
		signalLine[startIdx+i] = signalEMA[i]
	}

	// Histogram = MACD Line - Signal Line
	histogram := make([]float64, len(bars))
	for i := m.Period() - 1; i < len(bars); i++ {
		histogram[i] = macdLine[i] - signalLine[i]
	}

	return map[string][]float64{
		"macd":      macdLine,
		"signal":    signalLine,
		"histogram": histogram,
	}, nil
}

// ClassifyTrend derives a trend label from the latest close and the three
// moving averages. Each pairwise comparison (close vs each MA, short vs
// medium, medium vs long) votes +1 or -1; the vote average maps to a label.
// Any missing moving average yields TrendUnknown.
func ClassifyTrend(close float64, maShort, maMedium, maLong models.OptFloat) models.TrendLabel {
	if !maShort.Valid || !maMedium.Valid || !maLong.Valid {
		return models.TrendUnknown
	}

	vote := func(a, b float64) float64 {
		if a > b {
			return 1
		}
		return -1
	}

	signals := []float64{
		vote(close, maShort.Value),
		vote(close, maMedium.Value),
		vote(close, maLong.Value),
		vote(maShort.Value, maMedium.Value),
		vote(maMedium.Value, maLong.Value),
	}
	avg := mean(signals)

	switch {
	case avg > 0.6:
		return models.TrendStrongUptrend
	case avg > 0.2:
		return models.TrendUptrend
	case avg < -0.6:
		return models.TrendStrongDowntrend
	case avg < -0.2:
		return models.TrendDowntrend
	default:
		return models.TrendSideways
	}
}
