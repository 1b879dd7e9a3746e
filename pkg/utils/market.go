package utils

import (
	"time"
)

// KarachiLocation is the timezone for the Pakistan Stock Exchange.
var KarachiLocation *time.Location

func init() {
	var err error
	KarachiLocation, err = time.LoadLocation("Asia/Karachi")
	if err != nil {
		// Fallback to UTC+5
		KarachiLocation = time.FixedZone("PKT", 5*60*60)
	}
}

// IsTradingDay reports whether t falls on a PSX trading day.
// Exchange holidays are not tracked; weekends only.
func IsTradingDay(t time.Time) bool {
	wd := t.In(KarachiLocation).Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// IsMarketOpen reports whether the regular PSX session is in progress.
// Monday through Thursday the session runs 09:30-15:30; Friday trading
// pauses for Jumma prayers and resumes 14:30-16:30.
func IsMarketOpen() bool {
	now := time.Now().In(KarachiLocation)
	if !IsTradingDay(now) {
		return false
	}

	minutes := now.Hour()*60 + now.Minute()
	if now.Weekday() == time.Friday {
		return (minutes >= 9*60+15 && minutes < 12*60) ||
			(minutes >= 14*60+30 && minutes < 16*60+30)
	}
	return minutes >= 9*60+30 && minutes < 15*60+30
}

// LastTradingDay returns the most recent trading day at or before t.
func LastTradingDay(t time.Time) time.Time {
	day := t.In(KarachiLocation)
	for !IsTradingDay(day) {
		day = day.AddDate(0, 0, -1)
	}
	return time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, KarachiLocation)
}

// NextTradingDay returns the first trading day strictly after t.
func NextTradingDay(t time.Time) time.Time {
	day := t.In(KarachiLocation).AddDate(0, 0, 1)
	for !IsTradingDay(day) {
		day = day.AddDate(0, 0, 1)
	}
	return time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, KarachiLocation)
}

// MarketClose returns the close time of the session on t's trading day.
func MarketClose(t time.Time) time.Time {
	day := t.In(KarachiLocation)
	if day.Weekday() == time.Friday {
		return time.Date(day.Year(), day.Month(), day.Day(), 16, 30, 0, 0, KarachiLocation)
	}
	return time.Date(day.Year(), day.Month(), day.Day(), 15, 30, 0, 0, KarachiLocation)
}
