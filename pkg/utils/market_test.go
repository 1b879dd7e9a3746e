package utils

import (
	"testing"
	"time"
)

func TestIsTradingDay(t *testing.T) {
	// 2026-08-24 is a Monday.
	monday := time.Date(2026, 8, 24, 12, 0, 0, 0, KarachiLocation)
	saturday := time.Date(2026, 8, 29, 12, 0, 0, 0, KarachiLocation)
	sunday := time.Date(2026, 8, 30, 12, 0, 0, 0, KarachiLocation)

	if !IsTradingDay(monday) {
		t.Error("Monday should be a trading day")
	}
	if IsTradingDay(saturday) {
		t.Error("Saturday should not be a trading day")
	}
	if IsTradingDay(sunday) {
		t.Error("Sunday should not be a trading day")
	}
}

func TestLastTradingDay(t *testing.T) {
	sunday := time.Date(2026, 8, 30, 12, 0, 0, 0, KarachiLocation)
	got := LastTradingDay(sunday)
	want := time.Date(2026, 8, 28, 0, 0, 0, 0, KarachiLocation) // Friday
	if !got.Equal(want) {
		t.Errorf("LastTradingDay(Sunday) = %v, want %v", got, want)
	}

	wednesday := time.Date(2026, 8, 26, 9, 0, 0, 0, KarachiLocation)
	got = LastTradingDay(wednesday)
	want = time.Date(2026, 8, 26, 0, 0, 0, 0, KarachiLocation)
	if !got.Equal(want) {
		t.Errorf("LastTradingDay(Wednesday) = %v, want %v", got, want)
	}
}

func TestNextTradingDay(t *testing.T) {
	friday := time.Date(2026, 8, 28, 12, 0, 0, 0, KarachiLocation)
	got := NextTradingDay(friday)
	want := time.Date(2026, 8, 31, 0, 0, 0, 0, KarachiLocation) // Monday
	if !got.Equal(want) {
		t.Errorf("NextTradingDay(Friday) = %v, want %v", got, want)
	}
}

func TestMarketClose(t *testing.T) {
	friday := time.Date(2026, 8, 28, 10, 0, 0, 0, KarachiLocation)
	got := MarketClose(friday)
	if got.Hour() != 16 || got.Minute() != 30 {
		t.Errorf("Friday close = %v, want 16:30", got)
	}

	tuesday := time.Date(2026, 8, 25, 10, 0, 0, 0, KarachiLocation)
	got = MarketClose(tuesday)
	if got.Hour() != 15 || got.Minute() != 30 {
		t.Errorf("Tuesday close = %v, want 15:30", got)
	}
}
