package indicators

import (
	"context"
	"errors"
	"testing"
	"time"

	"psx-analyst/internal/models"
)

func engineBars(count int) []models.Bar {
	base := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	bars := make([]models.Bar, count)
	price := 100.0
	for i := range bars {
		if i%3 == 0 {
			price += 2.5
		} else {
			price -= 1.0
		}
		bars[i] = models.Bar{
			Symbol: "OGDC",
			Date:   base.AddDate(0, 0, i),
			Open:   price - 0.5,
			High:   price + 1.5,
			Low:    price - 1.5,
			Close:  price,
			Volume: int64(10000 + i*100),
		}
	}
	return bars
}

func TestEngineCalculateAllMatchesDirectCalculation(t *testing.T) {
	cfg := DefaultSnapshotConfig()
	engine := NewDefaultEngine(4, cfg)
	bars := engineBars(250)

	singles, multis, err := engine.CalculateAll(context.Background(), bars)
	if err != nil {
		t.Fatalf("CalculateAll: %v", err)
	}

	rsi := NewRSI(cfg.RSIPeriod)
	direct, err := rsi.Calculate(bars)
	if err != nil {
		t.Fatalf("direct RSI: %v", err)
	}
	pooled, ok := singles[rsi.Name()]
	if !ok {
		t.Fatalf("RSI missing from pooled results, have %d singles", len(singles))
	}
	if len(pooled) != len(direct) {
		t.Fatalf("pooled RSI length %d, direct %d", len(pooled), len(direct))
	}
	for i := range pooled {
		if pooled[i] != direct[i] {
			t.Fatalf("pooled RSI diverges from direct at %d: %v vs %v", i, pooled[i], direct[i])
		}
	}

	macd := NewMACD(cfg.MACDFast, cfg.MACDSlow, cfg.MACDSignal)
	if _, ok := multis[macd.Name()]; !ok {
		t.Errorf("MACD missing from pooled multi results")
	}
	bb := NewBollingerBands(cfg.BollingerPeriod, cfg.BollingerStdDev)
	if _, ok := multis[bb.Name()]; !ok {
		t.Errorf("Bollinger missing from pooled multi results")
	}
}

func TestEngineSkipsFailingIndicators(t *testing.T) {
	engine := NewDefaultEngine(2, DefaultSnapshotConfig())
	// Too short for everything except OBV and the A/D line.
	bars := engineBars(3)

	singles, multis, err := engine.CalculateAll(context.Background(), bars)
	if err != nil {
		t.Fatalf("CalculateAll: %v", err)
	}
	if len(multis) != 0 {
		t.Errorf("expected no multi results on 3 bars, got %d", len(multis))
	}
	if _, ok := singles[NewOBV().Name()]; !ok {
		t.Error("expected OBV on 3 bars")
	}
	if _, ok := singles[NewRSI(14).Name()]; ok {
		t.Error("did not expect RSI on 3 bars")
	}
}

func TestEngineCalculateByName(t *testing.T) {
	engine := NewDefaultEngine(2, DefaultSnapshotConfig())
	bars := engineBars(50)

	values, err := engine.Calculate(context.Background(), NewOBV().Name(), bars)
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	if len(values) != len(bars) {
		t.Errorf("expected %d OBV values, got %d", len(bars), len(values))
	}

	if _, err := engine.Calculate(context.Background(), "nope", bars); err == nil {
		t.Error("expected error for unknown indicator")
	}
}

func TestEngineCancelledContext(t *testing.T) {
	engine := NewDefaultEngine(2, DefaultSnapshotConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := engine.Calculate(ctx, NewOBV().Name(), engineBars(50)); err == nil {
		t.Error("expected context error from Calculate")
	}
}

func TestEngineSnapshotMatchesSequential(t *testing.T) {
	cfg := DefaultSnapshotConfig()
	bars := engineBars(260)

	pooled, err := NewDefaultEngine(4, cfg).Snapshot(context.Background(), bars)
	if err != nil {
		t.Fatalf("engine Snapshot: %v", err)
	}
	sequential, err := Snapshot(bars, cfg)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}

	if *pooled != *sequential {
		t.Errorf("pooled snapshot diverges from sequential:\n%+v\nvs\n%+v", pooled, sequential)
	}
	if !pooled.RSI.Valid || !pooled.MACD.Valid || !pooled.BollingerMiddle.Valid {
		t.Errorf("expected RSI, MACD and Bollinger populated on 260 bars: %+v", pooled)
	}
}

func TestSnapshotPropagatesInvalidPeriod(t *testing.T) {
	cfg := DefaultSnapshotConfig()
	cfg.RSIPeriod = 0
	bars := engineBars(260)

	if _, err := Snapshot(bars, cfg); !errors.Is(err, ErrInvalidPeriod) {
		t.Errorf("Snapshot with zero RSI period: got %v, want ErrInvalidPeriod", err)
	}
	if _, err := NewDefaultEngine(4, cfg).Snapshot(context.Background(), bars); !errors.Is(err, ErrInvalidPeriod) {
		t.Errorf("engine Snapshot with zero RSI period: got %v, want ErrInvalidPeriod", err)
	}
}
