package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"psx-analyst/internal/models"
)

// SQLiteStore implements DataStore using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite-based data store.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool for concurrent per-symbol writers
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// initSchema creates all required tables and indexes.
func (s *SQLiteStore) initSchema() error {
	schema := `
	-- Ticker registry: referenced by convention from every derived table
	CREATE TABLE IF NOT EXISTS tickers (
		symbol TEXT PRIMARY KEY,
		name TEXT,
		sector TEXT,
		added_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	-- Daily OHLCV bars
	CREATE TABLE IF NOT EXISTS price_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		symbol TEXT NOT NULL,
		date TEXT NOT NULL,
		open REAL NOT NULL,
		high REAL NOT NULL,
		low REAL NOT NULL,
		close REAL NOT NULL,
		volume INTEGER NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(symbol, date)
	);

	-- Indicator snapshots, one row per symbol-day, fully recomputed on rerun
	CREATE TABLE IF NOT EXISTS technical_indicators (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		symbol TEXT NOT NULL,
		date TEXT NOT NULL,
		rsi REAL,
		ma_short REAL,
		ma_medium REAL,
		ma_long REAL,
		macd REAL,
		macd_signal REAL,
		macd_histogram REAL,
		bollinger_upper REAL,
		bollinger_middle REAL,
		bollinger_lower REAL,
		obv REAL,
		accumulation_distribution REAL,
		atr REAL,
		volume_ratio REAL,
		volume_spike INTEGER NOT NULL DEFAULT 0,
		support_level REAL,
		resistance_level REAL,
		year_high REAL,
		year_low REAL,
		trend TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(symbol, date)
	);

	-- Buy-score results
	CREATE TABLE IF NOT EXISTS analysis_results (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		symbol TEXT NOT NULL,
		date TEXT NOT NULL,
		rsi REAL,
		volume_spike INTEGER NOT NULL DEFAULT 0,
		sentiment_score REAL NOT NULL DEFAULT 0,
		buy_score INTEGER NOT NULL,
		recommendation TEXT NOT NULL,
		notes TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(symbol, date)
	);

	-- Institutional 100-point scores
	CREATE TABLE IF NOT EXISTS stock_scores (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		symbol TEXT NOT NULL,
		date TEXT NOT NULL,
		financial_score INTEGER NOT NULL,
		valuation_score INTEGER NOT NULL,
		technical_score INTEGER NOT NULL,
		sector_macro_score INTEGER NOT NULL,
		news_score INTEGER NOT NULL,
		total_score INTEGER NOT NULL,
		rating TEXT NOT NULL,
		details TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(symbol, date)
	);

	-- Company announcements pending or holding sentiment scores
	CREATE TABLE IF NOT EXISTS announcements (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		symbol TEXT NOT NULL,
		headline TEXT NOT NULL,
		published_at DATETIME NOT NULL,
		sentiment_score REAL,
		processed INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(symbol, headline, published_at)
	);

	-- Scan watchlist
	CREATE TABLE IF NOT EXISTS watchlist (
		symbol TEXT PRIMARY KEY,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_price_symbol_date ON price_history(symbol, date);
	CREATE INDEX IF NOT EXISTS idx_indicators_symbol_date ON technical_indicators(symbol, date);
	CREATE INDEX IF NOT EXISTS idx_analysis_symbol_date ON analysis_results(symbol, date);
	CREATE INDEX IF NOT EXISTS idx_scores_symbol_date ON stock_scores(symbol, date);
	CREATE INDEX IF NOT EXISTS idx_announcements_symbol ON announcements(symbol, published_at);
	CREATE INDEX IF NOT EXISTS idx_announcements_processed ON announcements(processed);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// dateKey formats a time as the canonical (symbol, date) key component.
func dateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

func parseDateKey(v string) time.Time {
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}
	}
	return t
}

// ============================================================================
// Ticker Methods
// ============================================================================

// EnsureTicker creates a minimal ticker record if absent. Idempotent; an
// existing row keeps its name unless the new one is non-empty.
func (s *SQLiteStore) EnsureTicker(ctx context.Context, symbol, name string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tickers (symbol, name)
		VALUES (?, ?)
		ON CONFLICT(symbol) DO UPDATE SET
			name = CASE WHEN excluded.name != '' THEN excluded.name ELSE tickers.name END
	`, symbol, name)
	if err != nil {
		return fmt.Errorf("failed to ensure ticker %s: %w", symbol, err)
	}
	return nil
}

// GetTicker retrieves one ticker, or nil when unknown.
func (s *SQLiteStore) GetTicker(ctx context.Context, symbol string) (*models.Ticker, error) {
	var t models.Ticker
	var name, sector sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT symbol, name, sector, added_at FROM tickers WHERE symbol = ?
	`, symbol).Scan(&t.Symbol, &name, &sector, &t.AddedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get ticker %s: %w", symbol, err)
	}
	t.Name = name.String
	t.Sector = sector.String
	return &t, nil
}

// ListTickers returns all registered tickers.
func (s *SQLiteStore) ListTickers(ctx context.Context) ([]models.Ticker, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT symbol, name, sector, added_at FROM tickers ORDER BY symbol
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tickers: %w", err)
	}
	defer rows.Close()

	var tickers []models.Ticker
	for rows.Next() {
		var t models.Ticker
		var name, sector sql.NullString
		if err := rows.Scan(&t.Symbol, &name, &sector, &t.AddedAt); err != nil {
			return nil, fmt.Errorf("failed to scan ticker: %w", err)
		}
		t.Name = name.String
		t.Sector = sector.String
		tickers = append(tickers, t)
	}
	return tickers, rows.Err()
}

// ============================================================================
// Price History Methods
// ============================================================================

// SaveBars upserts daily bars by (symbol, date). Today's bar may be
// rewritten as fresh data arrives.
func (s *SQLiteStore) SaveBars(ctx context.Context, bars []models.Bar) error {
	if len(bars) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO price_history (symbol, date, open, high, low, close, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(symbol, date) DO UPDATE SET
			open = excluded.open,
			high = excluded.high,
			low = excluded.low,
			close = excluded.close,
			volume = excluded.volume
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, b := range bars {
		if _, err := stmt.ExecContext(ctx, b.Symbol, dateKey(b.Date), b.Open, b.High, b.Low, b.Close, b.Volume); err != nil {
			return fmt.Errorf("failed to upsert bar %s %s: %w", b.Symbol, dateKey(b.Date), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// LatestBars returns up to limit most recent bars, chronologically
// ascending. No data is (nil, nil).
func (s *SQLiteStore) LatestBars(ctx context.Context, symbol string, limit int) ([]models.Bar, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT symbol, date, open, high, low, close, volume
		FROM price_history
		WHERE symbol = ?
		ORDER BY date DESC
		LIMIT ?
	`, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query bars: %w", err)
	}
	defer rows.Close()

	bars, err := scanBars(rows)
	if err != nil {
		return nil, err
	}
	reverseBars(bars)
	return bars, nil
}

// BarWindow returns bars in [start, end], chronologically ascending.
func (s *SQLiteStore) BarWindow(ctx context.Context, symbol string, start, end time.Time) ([]models.Bar, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT symbol, date, open, high, low, close, volume
		FROM price_history
		WHERE symbol = ? AND date >= ? AND date <= ?
		ORDER BY date DESC
	`, symbol, dateKey(start), dateKey(end))
	if err != nil {
		return nil, fmt.Errorf("failed to query bar window: %w", err)
	}
	defer rows.Close()

	bars, err := scanBars(rows)
	if err != nil {
		return nil, err
	}
	reverseBars(bars)
	return bars, nil
}

func scanBars(rows *sql.Rows) ([]models.Bar, error) {
	var bars []models.Bar
	for rows.Next() {
		var b models.Bar
		var date string
		if err := rows.Scan(&b.Symbol, &date, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, fmt.Errorf("failed to scan bar: %w", err)
		}
		b.Date = parseDateKey(date)
		bars = append(bars, b)
	}
	return bars, rows.Err()
}

// reverseBars flips a date-descending query result into the canonical
// ascending order.
func reverseBars(bars []models.Bar) {
	for i, j := 0, len(bars)-1; i < j; i, j = i+1, j-1 {
		bars[i], bars[j] = bars[j], bars[i]
	}
}

// ============================================================================
// Indicator Snapshot Methods
// ============================================================================

// SaveSnapshot upserts an indicator snapshot by (symbol, date).
func (s *SQLiteStore) SaveSnapshot(ctx context.Context, snap *models.IndicatorSnapshot) error {
	spike := 0
	if snap.VolumeSpike {
		spike = 1
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO technical_indicators (
			symbol, date, rsi, ma_short, ma_medium, ma_long,
			macd, macd_signal, macd_histogram,
			bollinger_upper, bollinger_middle, bollinger_lower,
			obv, accumulation_distribution, atr,
			volume_ratio, volume_spike,
			support_level, resistance_level, year_high, year_low, trend
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(symbol, date) DO UPDATE SET
			rsi = excluded.rsi,
			ma_short = excluded.ma_short,
			ma_medium = excluded.ma_medium,
			ma_long = excluded.ma_long,
			macd = excluded.macd,
			macd_signal = excluded.macd_signal,
			macd_histogram = excluded.macd_histogram,
			bollinger_upper = excluded.bollinger_upper,
			bollinger_middle = excluded.bollinger_middle,
			bollinger_lower = excluded.bollinger_lower,
			obv = excluded.obv,
			accumulation_distribution = excluded.accumulation_distribution,
			atr = excluded.atr,
			volume_ratio = excluded.volume_ratio,
			volume_spike = excluded.volume_spike,
			support_level = excluded.support_level,
			resistance_level = excluded.resistance_level,
			year_high = excluded.year_high,
			year_low = excluded.year_low,
			trend = excluded.trend
	`,
		snap.Symbol, dateKey(snap.Date),
		snap.RSI.NullFloat64(), snap.MAShort.NullFloat64(), snap.MAMedium.NullFloat64(), snap.MALong.NullFloat64(),
		snap.MACD.NullFloat64(), snap.MACDSignal.NullFloat64(), snap.MACDHistogram.NullFloat64(),
		snap.BollingerUpper.NullFloat64(), snap.BollingerMiddle.NullFloat64(), snap.BollingerLower.NullFloat64(),
		snap.OBV.NullFloat64(), snap.AccumulationDistribution.NullFloat64(), snap.ATR.NullFloat64(),
		snap.VolumeRatio.NullFloat64(), spike,
		snap.SupportLevel.NullFloat64(), snap.ResistanceLevel.NullFloat64(),
		snap.YearHigh.NullFloat64(), snap.YearLow.NullFloat64(), string(snap.Trend),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert snapshot %s %s: %w", snap.Symbol, dateKey(snap.Date), err)
	}
	return nil
}

// LatestSnapshot returns the most recent snapshot for a symbol, or nil.
func (s *SQLiteStore) LatestSnapshot(ctx context.Context, symbol string) (*models.IndicatorSnapshot, error) {
	var snap models.IndicatorSnapshot
	var date, trend string
	var spike int
	err := s.db.QueryRowContext(ctx, `
		SELECT symbol, date, rsi, ma_short, ma_medium, ma_long,
			macd, macd_signal, macd_histogram,
			bollinger_upper, bollinger_middle, bollinger_lower,
			obv, accumulation_distribution, atr,
			volume_ratio, volume_spike,
			support_level, resistance_level, year_high, year_low, trend
		FROM technical_indicators
		WHERE symbol = ?
		ORDER BY date DESC
		LIMIT 1
	`, symbol).Scan(
		&snap.Symbol, &date, &snap.RSI, &snap.MAShort, &snap.MAMedium, &snap.MALong,
		&snap.MACD, &snap.MACDSignal, &snap.MACDHistogram,
		&snap.BollingerUpper, &snap.BollingerMiddle, &snap.BollingerLower,
		&snap.OBV, &snap.AccumulationDistribution, &snap.ATR,
		&snap.VolumeRatio, &spike,
		&snap.SupportLevel, &snap.ResistanceLevel, &snap.YearHigh, &snap.YearLow, &trend,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot for %s: %w", symbol, err)
	}
	snap.Date = parseDateKey(date)
	snap.VolumeSpike = spike != 0
	snap.Trend = models.TrendLabel(trend)
	return &snap, nil
}

// ============================================================================
// Analysis Result Methods
// ============================================================================

// SaveAnalysis upserts a buy-score result by (symbol, date).
func (s *SQLiteStore) SaveAnalysis(ctx context.Context, res *models.AnalysisResult) error {
	spike := 0
	if res.VolumeSpike {
		spike = 1
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO analysis_results (symbol, date, rsi, volume_spike, sentiment_score, buy_score, recommendation, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(symbol, date) DO UPDATE SET
			rsi = excluded.rsi,
			volume_spike = excluded.volume_spike,
			sentiment_score = excluded.sentiment_score,
			buy_score = excluded.buy_score,
			recommendation = excluded.recommendation,
			notes = excluded.notes
	`, res.Symbol, dateKey(res.Date), res.RSI.NullFloat64(), spike, res.SentimentScore,
		res.BuyScore, string(res.Recommendation), res.Notes)
	if err != nil {
		return fmt.Errorf("failed to upsert analysis %s %s: %w", res.Symbol, dateKey(res.Date), err)
	}
	return nil
}

// LatestAnalysis returns the most recent analysis result for a symbol, or nil.
func (s *SQLiteStore) LatestAnalysis(ctx context.Context, symbol string) (*models.AnalysisResult, error) {
	var res models.AnalysisResult
	var date, rec string
	var notes sql.NullString
	var spike int
	err := s.db.QueryRowContext(ctx, `
		SELECT symbol, date, rsi, volume_spike, sentiment_score, buy_score, recommendation, notes
		FROM analysis_results
		WHERE symbol = ?
		ORDER BY date DESC
		LIMIT 1
	`, symbol).Scan(&res.Symbol, &date, &res.RSI, &spike, &res.SentimentScore, &res.BuyScore, &rec, &notes)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get analysis for %s: %w", symbol, err)
	}
	res.Date = parseDateKey(date)
	res.VolumeSpike = spike != 0
	res.Recommendation = models.Recommendation(rec)
	res.Notes = notes.String
	return &res, nil
}

// ============================================================================
// Stock Score Methods
// ============================================================================

// SaveScore upserts an institutional score by (symbol, date).
func (s *SQLiteStore) SaveScore(ctx context.Context, score *models.StockScore) error {
	details, _ := json.Marshal(score.Details)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO stock_scores (symbol, date, financial_score, valuation_score, technical_score, sector_macro_score, news_score, total_score, rating, details)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(symbol, date) DO UPDATE SET
			financial_score = excluded.financial_score,
			valuation_score = excluded.valuation_score,
			technical_score = excluded.technical_score,
			sector_macro_score = excluded.sector_macro_score,
			news_score = excluded.news_score,
			total_score = excluded.total_score,
			rating = excluded.rating,
			details = excluded.details
	`, score.Symbol, dateKey(score.Date), score.Financial, score.Valuation, score.Technical,
		score.SectorMacro, score.News, score.Total, string(score.Rating), string(details))
	if err != nil {
		return fmt.Errorf("failed to upsert score %s %s: %w", score.Symbol, dateKey(score.Date), err)
	}
	return nil
}

// LatestScore returns the most recent institutional score for a symbol, or nil.
func (s *SQLiteStore) LatestScore(ctx context.Context, symbol string) (*models.StockScore, error) {
	var score models.StockScore
	var date, rating string
	var details sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT symbol, date, financial_score, valuation_score, technical_score, sector_macro_score, news_score, total_score, rating, details
		FROM stock_scores
		WHERE symbol = ?
		ORDER BY date DESC
		LIMIT 1
	`, symbol).Scan(&score.Symbol, &date, &score.Financial, &score.Valuation, &score.Technical,
		&score.SectorMacro, &score.News, &score.Total, &rating, &details)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get score for %s: %w", symbol, err)
	}
	score.Date = parseDateKey(date)
	score.Rating = models.Rating(rating)
	if details.Valid && details.String != "" {
		if err := json.Unmarshal([]byte(details.String), &score.Details); err != nil {
			score.Details = nil
		}
	}
	return &score, nil
}

// ============================================================================
// Announcement Methods
// ============================================================================

// SaveAnnouncements inserts announcements, ignoring duplicates by
// (symbol, headline, published_at). Scored records keep their polarity.
func (s *SQLiteStore) SaveAnnouncements(ctx context.Context, records []models.SentimentRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO announcements (symbol, headline, published_at, sentiment_score, processed)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(symbol, headline, published_at) DO NOTHING
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		processed := 0
		if r.Processed {
			processed = 1
		}
		if _, err := stmt.ExecContext(ctx, r.Symbol, r.Headline, r.PublishedAt, r.Polarity.NullFloat64(), processed); err != nil {
			return fmt.Errorf("failed to insert announcement for %s: %w", r.Symbol, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// RecentAnnouncements returns a symbol's announcements published at or
// after since, newest first.
func (s *SQLiteStore) RecentAnnouncements(ctx context.Context, symbol string, since time.Time) ([]models.SentimentRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, symbol, headline, published_at, sentiment_score, processed
		FROM announcements
		WHERE symbol = ? AND published_at >= ?
		ORDER BY published_at DESC
	`, symbol, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query announcements: %w", err)
	}
	defer rows.Close()

	return scanAnnouncements(rows)
}

// UnprocessedAnnouncements returns announcements still waiting for a
// sentiment score, oldest first.
func (s *SQLiteStore) UnprocessedAnnouncements(ctx context.Context, limit int) ([]models.SentimentRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, symbol, headline, published_at, sentiment_score, processed
		FROM announcements
		WHERE processed = 0
		ORDER BY published_at ASC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query unprocessed announcements: %w", err)
	}
	defer rows.Close()

	return scanAnnouncements(rows)
}

// SetAnnouncementPolarity records an oracle verdict and marks the record
// processed.
func (s *SQLiteStore) SetAnnouncementPolarity(ctx context.Context, id int64, polarity float64) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE announcements SET sentiment_score = ?, processed = 1 WHERE id = ?
	`, polarity, id)
	if err != nil {
		return fmt.Errorf("failed to set announcement polarity %d: %w", id, err)
	}
	return nil
}

func scanAnnouncements(rows *sql.Rows) ([]models.SentimentRecord, error) {
	var records []models.SentimentRecord
	for rows.Next() {
		var r models.SentimentRecord
		var processed int
		if err := rows.Scan(&r.ID, &r.Symbol, &r.Headline, &r.PublishedAt, &r.Polarity, &processed); err != nil {
			return nil, fmt.Errorf("failed to scan announcement: %w", err)
		}
		r.Processed = processed != 0
		records = append(records, r)
	}
	return records, rows.Err()
}

// ============================================================================
// Watchlist Methods
// ============================================================================

// AddToWatchlist adds a symbol to the scan watchlist. Idempotent.
func (s *SQLiteStore) AddToWatchlist(ctx context.Context, symbol string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO watchlist (symbol) VALUES (?) ON CONFLICT(symbol) DO NOTHING
	`, symbol)
	if err != nil {
		return fmt.Errorf("failed to add %s to watchlist: %w", symbol, err)
	}
	return nil
}

// RemoveFromWatchlist removes a symbol from the scan watchlist.
func (s *SQLiteStore) RemoveFromWatchlist(ctx context.Context, symbol string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM watchlist WHERE symbol = ?`, symbol)
	if err != nil {
		return fmt.Errorf("failed to remove %s from watchlist: %w", symbol, err)
	}
	return nil
}

// Watchlist returns all watched symbols.
func (s *SQLiteStore) Watchlist(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT symbol FROM watchlist ORDER BY symbol`)
	if err != nil {
		return nil, fmt.Errorf("failed to query watchlist: %w", err)
	}
	defer rows.Close()

	var symbols []string
	for rows.Next() {
		var sym string
		if err := rows.Scan(&sym); err != nil {
			return nil, fmt.Errorf("failed to scan watchlist symbol: %w", err)
		}
		symbols = append(symbols, sym)
	}
	return symbols, rows.Err()
}

// ============================================================================
// Report Queries
// ============================================================================

const summaryQuery = `
	SELECT a.symbol, a.date, COALESCE(p.close, 0), a.rsi, a.volume_spike,
		a.sentiment_score, a.buy_score, a.recommendation, a.notes,
		COALESCE(s.total_score, 0), COALESCE(s.rating, ''),
		COALESCE(t.trend, 'unknown')
	FROM analysis_results a
	JOIN (
		SELECT symbol, MAX(date) AS max_date FROM analysis_results GROUP BY symbol
	) latest ON a.symbol = latest.symbol AND a.date = latest.max_date
	LEFT JOIN stock_scores s ON s.symbol = a.symbol AND s.date = a.date
	LEFT JOIN price_history p ON p.symbol = a.symbol AND p.date = a.date
	LEFT JOIN technical_indicators t ON t.symbol = a.symbol AND t.date = a.date
`

// TopOpportunities returns the latest per-symbol results with a buy score
// at or above minScore, best first.
func (s *SQLiteStore) TopOpportunities(ctx context.Context, minScore, limit int) ([]models.ScanSummary, error) {
	rows, err := s.db.QueryContext(ctx, summaryQuery+`
		WHERE a.buy_score >= ?
		ORDER BY a.buy_score DESC, a.sentiment_score DESC
		LIMIT ?
	`, minScore, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top opportunities: %w", err)
	}
	defer rows.Close()

	return scanSummaries(rows)
}

// RedAlerts returns the latest per-symbol results with a buy score at or
// below maxScore, worst first.
func (s *SQLiteStore) RedAlerts(ctx context.Context, maxScore, limit int) ([]models.ScanSummary, error) {
	rows, err := s.db.QueryContext(ctx, summaryQuery+`
		WHERE a.buy_score <= ?
		ORDER BY a.buy_score ASC, a.sentiment_score ASC
		LIMIT ?
	`, maxScore, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query red alerts: %w", err)
	}
	defer rows.Close()

	return scanSummaries(rows)
}

func scanSummaries(rows *sql.Rows) ([]models.ScanSummary, error) {
	var summaries []models.ScanSummary
	for rows.Next() {
		var sum models.ScanSummary
		var date, rec, rating, trend string
		var notes sql.NullString
		var spike int
		if err := rows.Scan(&sum.Symbol, &date, &sum.Close, &sum.RSI, &spike,
			&sum.SentimentScore, &sum.BuyScore, &rec, &notes,
			&sum.TotalScore, &rating, &trend); err != nil {
			return nil, fmt.Errorf("failed to scan summary: %w", err)
		}
		sum.Date = parseDateKey(date)
		sum.VolumeSpike = spike != 0
		sum.Recommendation = models.Recommendation(rec)
		sum.Rating = models.Rating(rating)
		sum.Trend = models.TrendLabel(trend)
		sum.Notes = notes.String
		summaries = append(summaries, sum)
	}
	return summaries, rows.Err()
}
