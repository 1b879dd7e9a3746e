// Package models defines the core data types for the PSX market
// intelligence pipeline.
//
// Ordering contract: every []Bar passed between packages is chronological
// ascending. bars[0] is the oldest bar and bars[len(bars)-1] is the most
// recent trading day. Store queries that read date-descending reverse
// their results before returning.
package models

import "time"

// Bar represents one daily OHLCV bar for a symbol. Bars are unique per
// (symbol, date). The current trading day's bar may be rewritten as new
// data arrives; past bars are immutable.
type Bar struct {
	Symbol string
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64
}

// Ticker represents a listed PSX company in the symbol registry.
type Ticker struct {
	Symbol  string
	Name    string
	Sector  string
	AddedAt time.Time
}

// TrendLabel classifies the prevailing price trend.
type TrendLabel string

const (
	TrendStrongUptrend   TrendLabel = "strong_uptrend"
	TrendUptrend         TrendLabel = "uptrend"
	TrendSideways        TrendLabel = "sideways"
	TrendDowntrend       TrendLabel = "downtrend"
	TrendStrongDowntrend TrendLabel = "strong_downtrend"
	TrendUnknown         TrendLabel = "unknown"
)

// IndicatorSnapshot holds every indicator computed for a symbol as of one
// trading day. Each field degrades independently to an invalid OptFloat
// when its own lookback requirement is not met.
type IndicatorSnapshot struct {
	Symbol string
	Date   time.Time

	RSI      OptFloat
	MAShort  OptFloat
	MAMedium OptFloat
	MALong   OptFloat

	MACD          OptFloat
	MACDSignal    OptFloat
	MACDHistogram OptFloat

	BollingerUpper  OptFloat
	BollingerMiddle OptFloat
	BollingerLower  OptFloat

	OBV                      OptFloat
	AccumulationDistribution OptFloat
	ATR                      OptFloat

	// VolumeRatio is today's volume over the trailing average volume
	// (current day excluded). Invalid when the average is zero or the
	// history is too short. VolumeSpike is meaningful only when
	// VolumeRatio is valid.
	VolumeRatio OptFloat
	VolumeSpike bool

	SupportLevel    OptFloat
	ResistanceLevel OptFloat
	YearHigh        OptFloat
	YearLow         OptFloat

	Trend TrendLabel
}

// ScoredHeadline pairs an announcement headline with its polarity.
type ScoredHeadline struct {
	Headline    string
	PublishedAt time.Time
	Polarity    float64
}

// SentimentRecord is a dated text item (company announcement or news
// headline) for a symbol. Polarity is null until the sentiment oracle has
// scored it.
type SentimentRecord struct {
	ID          int64
	Symbol      string
	Headline    string
	PublishedAt time.Time
	Polarity    OptFloat
	Processed   bool
}

// SentimentSummary aggregates SentimentRecords over a trailing window.
type SentimentSummary struct {
	Score             float64
	Positive          int
	Negative          int
	Neutral           int
	AnnouncementCount int
	TopHeadlines      []ScoredHeadline
}

// Recommendation is the buy-score verdict for a symbol.
type Recommendation string

const (
	RecStrongBuy Recommendation = "STRONG BUY"
	RecBuy       Recommendation = "BUY"
	RecHold      Recommendation = "HOLD"
	RecSellAvoid Recommendation = "SELL/AVOID"
)

// Rating is the institutional-score verdict for a symbol.
type Rating string

const (
	RatingStrongBuy Rating = "STRONG BUY"
	RatingBuy       Rating = "BUY"
	RatingHold      Rating = "HOLD"
	RatingReduce    Rating = "REDUCE"
	RatingSellAvoid Rating = "SELL/AVOID"
)

// AnalysisResult is the buy-score output for a symbol on one day.
type AnalysisResult struct {
	Symbol         string
	Date           time.Time
	RSI            OptFloat
	VolumeSpike    bool
	SentimentScore float64
	BuyScore       int
	Recommendation Recommendation
	Notes          string
}

// Fundamentals carries the optional fundamental inputs to the
// institutional scorer. Every field may be absent.
type Fundamentals struct {
	EPS              OptFloat
	EPSGrowth        OptFloat
	NetMargin        OptFloat
	MarginTrend      OptFloat
	DividendYield    OptFloat
	PayoutRatio      OptFloat
	DebtToEquity     OptFloat
	PE               OptFloat
	PB               OptFloat
	SectorStrength   OptFloat
	MacroScore       OptFloat
	GeopoliticalRisk OptFloat
}

// StockScore is the 100-point institutional score for a symbol on one day.
// Total is always the sum of the five components.
type StockScore struct {
	Symbol      string
	Date        time.Time
	Financial   int
	Valuation   int
	Technical   int
	SectorMacro int
	News        int
	Total       int
	Rating      Rating
	Details     map[string]string
}

// ScanSummary is the data-only per-symbol result handed to report sinks.
type ScanSummary struct {
	Symbol         string
	Date           time.Time
	Close          float64
	BuyScore       int
	Recommendation Recommendation
	TotalScore     int
	Rating         Rating
	RSI            OptFloat
	VolumeSpike    bool
	SentimentScore float64
	Trend          TrendLabel
	Notes          string
}
