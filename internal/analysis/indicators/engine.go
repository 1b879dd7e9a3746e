// Package indicators provides technical indicator calculations over daily
// OHLCV bars, with parallel processing for batch computation.
package indicators

import (
	"context"
	"fmt"
	"sync"

	"psx-analyst/internal/models"
)

// Indicator defines the interface for single-value technical indicators.
type Indicator interface {
	Name() string
	Calculate(bars []models.Bar) ([]float64, error)
	Period() int
}

// MultiValueIndicator defines the interface for indicators that return multiple values.
type MultiValueIndicator interface {
	Name() string
	Calculate(bars []models.Bar) (map[string][]float64, error)
	Period() int
}

// Engine provides parallel indicator calculation using a worker pool.
type Engine struct {
	workers     int
	cfg         SnapshotConfig
	indicators  map[string]Indicator
	multiIndics map[string]MultiValueIndicator
	mu          sync.RWMutex
}

// NewEngine creates a new indicator engine with the specified number of workers.
func NewEngine(workers int) *Engine {
	if workers <= 0 {
		workers = 4
	}
	return &Engine{
		workers:     workers,
		cfg:         DefaultSnapshotConfig(),
		indicators:  make(map[string]Indicator),
		multiIndics: make(map[string]MultiValueIndicator),
	}
}

// NewDefaultEngine creates an engine pre-registered with the full snapshot
// indicator set for the given config.
func NewDefaultEngine(workers int, cfg SnapshotConfig) *Engine {
	e := NewEngine(workers)
	e.cfg = cfg
	e.RegisterIndicator(NewRSI(cfg.RSIPeriod))
	e.RegisterIndicator(NewSMA(cfg.MAShort))
	e.RegisterIndicator(NewSMA(cfg.MAMedium))
	e.RegisterIndicator(NewSMA(cfg.MALong))
	e.RegisterIndicator(NewATR(cfg.ATRPeriod))
	e.RegisterIndicator(NewOBV())
	e.RegisterIndicator(NewADLine())
	e.RegisterMultiIndicator(NewMACD(cfg.MACDFast, cfg.MACDSlow, cfg.MACDSignal))
	e.RegisterMultiIndicator(NewBollingerBands(cfg.BollingerPeriod, cfg.BollingerStdDev))
	return e
}

// RegisterIndicator registers a single-value indicator.
func (e *Engine) RegisterIndicator(ind Indicator) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.indicators[ind.Name()] = ind
}

// RegisterMultiIndicator registers a multi-value indicator.
func (e *Engine) RegisterMultiIndicator(ind MultiValueIndicator) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.multiIndics[ind.Name()] = ind
}

// CalculateAll calculates all registered indicators in parallel. An
// indicator failing for lack of bars is skipped; any other indicator
// error fails the whole batch.
func (e *Engine) CalculateAll(ctx context.Context, bars []models.Bar) (map[string][]float64, map[string]map[string][]float64, error) {
	e.mu.RLock()
	indicators := make([]Indicator, 0, len(e.indicators))
	for _, ind := range e.indicators {
		indicators = append(indicators, ind)
	}
	multiIndics := make([]MultiValueIndicator, 0, len(e.multiIndics))
	for _, ind := range e.multiIndics {
		multiIndics = append(multiIndics, ind)
	}
	e.mu.RUnlock()

	singleResults := make(map[string][]float64)
	multiResults := make(map[string]map[string][]float64)
	var firstErr error
	var mu sync.Mutex
	var wg sync.WaitGroup

	singleWork := make(chan Indicator, len(indicators))
	multiWork := make(chan MultiValueIndicator, len(multiIndics))

	for i := 0; i < e.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ind := range singleWork {
				select {
				case <-ctx.Done():
					return
				default:
					values, err := ind.Calculate(bars)
					mu.Lock()
					switch {
					case err == nil:
						singleResults[ind.Name()] = values
					case !recoverable(err) && firstErr == nil:
						firstErr = err
					}
					mu.Unlock()
				}
			}
		}()
	}

	for i := 0; i < e.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ind := range multiWork {
				select {
				case <-ctx.Done():
					return
				default:
					values, err := ind.Calculate(bars)
					mu.Lock()
					switch {
					case err == nil:
						multiResults[ind.Name()] = values
					case !recoverable(err) && firstErr == nil:
						firstErr = err
					}
					mu.Unlock()
				}
			}
		}()
	}

	for _, ind := range indicators {
		singleWork <- ind
	}
	close(singleWork)

	for _, ind := range multiIndics {
		multiWork <- ind
	}
	close(multiWork)

	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	if firstErr != nil {
		return nil, nil, firstErr
	}
	return singleResults, multiResults, nil
}

// Snapshot assembles an IndicatorSnapshot for the most recent bar of a
// chronologically ascending series, running the registered indicator set
// over the worker pool. Each field degrades independently to an invalid
// OptFloat when its own lookback requirement is not met; short history is
// never an error at this level. Only an empty series is.
func (e *Engine) Snapshot(ctx context.Context, bars []models.Bar) (*models.IndicatorSnapshot, error) {
	if len(bars) == 0 {
		return nil, ErrInsufficientData
	}

	singles, multis, err := e.CalculateAll(ctx, bars)
	if err != nil {
		return nil, err
	}

	cfg := e.cfg
	last := bars[len(bars)-1]
	snap := &models.IndicatorSnapshot{
		Symbol: last.Symbol,
		Date:   last.Date,
		Trend:  models.TrendUnknown,
	}

	snap.RSI = lastValue(singles[NewRSI(cfg.RSIPeriod).Name()])
	snap.MAShort = lastValue(singles[NewSMA(cfg.MAShort).Name()])
	snap.MAMedium = lastValue(singles[NewSMA(cfg.MAMedium).Name()])
	snap.MALong = lastValue(singles[NewSMA(cfg.MALong).Name()])
	snap.OBV = lastValue(singles[NewOBV().Name()])
	snap.AccumulationDistribution = lastValue(singles[NewADLine().Name()])
	snap.ATR = lastValue(singles[NewATR(cfg.ATRPeriod).Name()])

	macd := multis[NewMACD(cfg.MACDFast, cfg.MACDSlow, cfg.MACDSignal).Name()]
	snap.MACD = lastValue(macd["macd"])
	snap.MACDSignal = lastValue(macd["signal"])
	snap.MACDHistogram = lastValue(macd["histogram"])

	bb := multis[NewBollingerBands(cfg.BollingerPeriod, cfg.BollingerStdDev).Name()]
	snap.BollingerUpper = lastValue(bb["upper"])
	snap.BollingerMiddle = lastValue(bb["middle"])
	snap.BollingerLower = lastValue(bb["lower"])

	ratio, err := NewVolumeRatio(cfg.VolumeAvgDays).Latest(bars)
	if err != nil && !recoverable(err) {
		return nil, err
	}
	snap.VolumeRatio = ratio
	snap.VolumeSpike = ratio.Valid && ratio.Value > cfg.VolumeSpikeMultiplier

	levels := TradingLevels(bars, cfg.LevelLookback)
	snap.SupportLevel = levels.Support
	snap.ResistanceLevel = levels.Resistance

	// Year levels exclude the current bar so that "close broke below the
	// 52-week low" is a satisfiable condition.
	snap.YearHigh, snap.YearLow = YearLevels(bars[:len(bars)-1], cfg.YearBars, cfg.LevelLookback)

	snap.Trend = ClassifyTrend(last.Close, snap.MAShort, snap.MAMedium, snap.MALong)

	return snap, nil
}

// Calculate calculates a specific indicator by name.
func (e *Engine) Calculate(ctx context.Context, name string, bars []models.Bar) ([]float64, error) {
	e.mu.RLock()
	ind, ok := e.indicators[name]
	e.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("indicator %s not found", name)
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
		return ind.Calculate(bars)
	}
}

// CalculateMulti calculates a specific multi-value indicator by name.
func (e *Engine) CalculateMulti(ctx context.Context, name string, bars []models.Bar) (map[string][]float64, error) {
	e.mu.RLock()
	ind, ok := e.multiIndics[name]
	e.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("multi-value indicator %s not found", name)
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
		return ind.Calculate(bars)
	}
}

// ListIndicators returns the names of all registered single-value indicators.
func (e *Engine) ListIndicators() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	names := make([]string, 0, len(e.indicators))
	for name := range e.indicators {
		names = append(names, name)
	}
	return names
}
