// Package config provides configuration management for the analysis
// pipeline. Configuration errors are fatal at load time: every threshold
// and lookback window is validated eagerly, never deep inside a
// per-symbol computation.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"psx-analyst/internal/analysis/indicators"
	"psx-analyst/internal/analysis/scoring"
)

// Config holds all application configuration.
type Config struct {
	Indicators IndicatorConfig `mapstructure:"indicators"`
	Sentiment  SentimentConfig `mapstructure:"sentiment"`
	Scoring    ScoringConfig   `mapstructure:"scoring"`
	Scan       ScanConfig      `mapstructure:"scan"`
	Database   DatabaseConfig  `mapstructure:"database"`
	Logging    LoggingConfig   `mapstructure:"logging"`
	Oracle     OracleConfig    `mapstructure:"oracle"`
	Fetch      FetchConfig     `mapstructure:"fetch"`
	Schedule   ScheduleConfig  `mapstructure:"schedule"`
}

// IndicatorConfig holds indicator lookback windows.
type IndicatorConfig struct {
	RSIPeriod             int     `mapstructure:"rsi_period"`
	MAShort               int     `mapstructure:"ma_short"`
	MAMedium              int     `mapstructure:"ma_medium"`
	MALong                int     `mapstructure:"ma_long"`
	MACDFast              int     `mapstructure:"macd_fast"`
	MACDSlow              int     `mapstructure:"macd_slow"`
	MACDSignal            int     `mapstructure:"macd_signal"`
	BollingerPeriod       int     `mapstructure:"bollinger_period"`
	BollingerStdDev       float64 `mapstructure:"bollinger_stddev"`
	ATRPeriod             int     `mapstructure:"atr_period"`
	VolumeAvgDays         int     `mapstructure:"volume_avg_days"`
	VolumeSpikeMultiplier float64 `mapstructure:"volume_spike_multiplier"`
	LevelLookback         int     `mapstructure:"level_lookback"`
	YearBars              int     `mapstructure:"year_bars"`
	NearLevelPct          float64 `mapstructure:"near_level_pct"`
}

// SentimentConfig holds sentiment aggregation settings.
type SentimentConfig struct {
	WindowDays   int     `mapstructure:"window_days"`
	DeadBand     float64 `mapstructure:"dead_band"`
	TopHeadlines int     `mapstructure:"top_headlines"`
}

// ScoringConfig groups both scoring regimes.
type ScoringConfig struct {
	Buy           BuyScoringConfig           `mapstructure:"buy"`
	Institutional InstitutionalScoringConfig `mapstructure:"institutional"`
}

// BuyScoringConfig holds the 1-10 buy score thresholds.
type BuyScoringConfig struct {
	RSIOversold   float64 `mapstructure:"rsi_oversold"`
	RSIOverbought float64 `mapstructure:"rsi_overbought"`
	StrongBuyMin  float64 `mapstructure:"strong_buy_min"`
	BuyMin        float64 `mapstructure:"buy_min"`
	HoldMin       float64 `mapstructure:"hold_min"`
}

// InstitutionalScoringConfig holds the 100-point rating bands.
type InstitutionalScoringConfig struct {
	StrongBuyMin float64 `mapstructure:"strong_buy_min"`
	BuyMin       float64 `mapstructure:"buy_min"`
	HoldMin      float64 `mapstructure:"hold_min"`
	ReduceMin    float64 `mapstructure:"reduce_min"`
}

// ScanConfig holds pipeline concurrency and retry settings.
type ScanConfig struct {
	Workers       int `mapstructure:"workers"`
	HistoryBars   int `mapstructure:"history_bars"`
	RetryAttempts int `mapstructure:"retry_attempts"`
	RetryDelayMS  int `mapstructure:"retry_delay_ms"`
}

// DatabaseConfig holds datastore settings.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	Console    bool   `mapstructure:"console"`
}

// OracleConfig holds sentiment oracle settings. With an empty API key the
// rule-based oracle is used.
type OracleConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

// FetchConfig holds PSX data source settings.
type FetchConfig struct {
	BaseURL        string  `mapstructure:"base_url"`
	RequestsPerSec float64 `mapstructure:"requests_per_sec"`
	TimeoutSec     int     `mapstructure:"timeout_sec"`
}

// ScheduleConfig holds the cron schedule for unattended scans.
type ScheduleConfig struct {
	CronSpec string `mapstructure:"cron_spec"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/psx-analyst"
	}
	return filepath.Join(home, ".config", "psx-analyst")
}

// Load loads configuration from the specified directory. If configDir is
// empty, the default config directory is used. A missing config file is
// not an error: defaults apply and a template is written for editing.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)
	setDefaults(v, configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config.toml: %w", err)
		}
		if err := writeTemplate(configDir); err != nil {
			return nil, fmt.Errorf("writing config template: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper, configDir string) {
	v.SetDefault("indicators.rsi_period", 14)
	v.SetDefault("indicators.ma_short", 10)
	v.SetDefault("indicators.ma_medium", 50)
	v.SetDefault("indicators.ma_long", 200)
	v.SetDefault("indicators.macd_fast", 12)
	v.SetDefault("indicators.macd_slow", 26)
	v.SetDefault("indicators.macd_signal", 9)
	v.SetDefault("indicators.bollinger_period", 20)
	v.SetDefault("indicators.bollinger_stddev", 2.0)
	v.SetDefault("indicators.atr_period", 14)
	v.SetDefault("indicators.volume_avg_days", 20)
	v.SetDefault("indicators.volume_spike_multiplier", 2.0)
	v.SetDefault("indicators.level_lookback", 20)
	v.SetDefault("indicators.year_bars", 252)
	v.SetDefault("indicators.near_level_pct", 0.05)

	v.SetDefault("sentiment.window_days", 14)
	v.SetDefault("sentiment.dead_band", 0.1)
	v.SetDefault("sentiment.top_headlines", 5)

	v.SetDefault("scoring.buy.rsi_oversold", 30.0)
	v.SetDefault("scoring.buy.rsi_overbought", 70.0)
	v.SetDefault("scoring.buy.strong_buy_min", 8.0)
	v.SetDefault("scoring.buy.buy_min", 5.0)
	v.SetDefault("scoring.buy.hold_min", 4.0)

	v.SetDefault("scoring.institutional.strong_buy_min", 85.0)
	v.SetDefault("scoring.institutional.buy_min", 70.0)
	v.SetDefault("scoring.institutional.hold_min", 55.0)
	v.SetDefault("scoring.institutional.reduce_min", 40.0)

	v.SetDefault("scan.workers", 4)
	v.SetDefault("scan.history_bars", 260)
	v.SetDefault("scan.retry_attempts", 3)
	v.SetDefault("scan.retry_delay_ms", 500)

	v.SetDefault("database.path", filepath.Join(configDir, "psx-analyst.db"))

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.file", filepath.Join(configDir, "psx-analyst.log"))
	v.SetDefault("logging.max_size_mb", 10)
	v.SetDefault("logging.max_backups", 3)
	v.SetDefault("logging.console", true)

	v.SetDefault("oracle.api_key", "")
	v.SetDefault("oracle.model", "gpt-4o-mini")

	v.SetDefault("fetch.base_url", "https://dps.psx.com.pk")
	v.SetDefault("fetch.requests_per_sec", 2.0)
	v.SetDefault("fetch.timeout_sec", 30)

	v.SetDefault("schedule.cron_spec", "30 17 * * 1-5")
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.Oracle.APIKey = v
	}
	if v := os.Getenv("PSX_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("PSX_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate checks every parameter eagerly, naming the offender.
func (c *Config) Validate() error {
	ind := c.Indicators
	positives := []struct {
		name  string
		value int
	}{
		{"indicators.rsi_period", ind.RSIPeriod},
		{"indicators.ma_short", ind.MAShort},
		{"indicators.ma_medium", ind.MAMedium},
		{"indicators.ma_long", ind.MALong},
		{"indicators.macd_fast", ind.MACDFast},
		{"indicators.macd_slow", ind.MACDSlow},
		{"indicators.macd_signal", ind.MACDSignal},
		{"indicators.bollinger_period", ind.BollingerPeriod},
		{"indicators.atr_period", ind.ATRPeriod},
		{"indicators.volume_avg_days", ind.VolumeAvgDays},
		{"indicators.level_lookback", ind.LevelLookback},
		{"indicators.year_bars", ind.YearBars},
		{"sentiment.window_days", c.Sentiment.WindowDays},
		{"scan.history_bars", c.Scan.HistoryBars},
	}
	for _, p := range positives {
		if p.value <= 0 {
			return fmt.Errorf("%s must be positive, got %d", p.name, p.value)
		}
	}

	if ind.MACDFast >= ind.MACDSlow {
		return fmt.Errorf("indicators.macd_fast (%d) must be below indicators.macd_slow (%d)",
			ind.MACDFast, ind.MACDSlow)
	}
	if ind.BollingerStdDev <= 0 {
		return fmt.Errorf("indicators.bollinger_stddev must be positive, got %.2f", ind.BollingerStdDev)
	}
	if ind.VolumeSpikeMultiplier <= 0 {
		return fmt.Errorf("indicators.volume_spike_multiplier must be positive, got %.2f", ind.VolumeSpikeMultiplier)
	}
	if ind.NearLevelPct <= 0 || ind.NearLevelPct >= 1 {
		return fmt.Errorf("indicators.near_level_pct must be in (0, 1), got %.2f", ind.NearLevelPct)
	}

	if c.Sentiment.DeadBand <= 0 || c.Sentiment.DeadBand >= 1 {
		return fmt.Errorf("sentiment.dead_band must be in (0, 1), got %.2f", c.Sentiment.DeadBand)
	}

	buy := c.Scoring.Buy
	if !(buy.StrongBuyMin > buy.BuyMin && buy.BuyMin > buy.HoldMin) {
		return fmt.Errorf("scoring.buy thresholds must be strictly descending: strong_buy_min %.1f, buy_min %.1f, hold_min %.1f",
			buy.StrongBuyMin, buy.BuyMin, buy.HoldMin)
	}
	if buy.RSIOversold >= buy.RSIOverbought {
		return fmt.Errorf("scoring.buy.rsi_oversold (%.0f) must be below rsi_overbought (%.0f)",
			buy.RSIOversold, buy.RSIOverbought)
	}

	inst := c.Scoring.Institutional
	if !(inst.StrongBuyMin > inst.BuyMin && inst.BuyMin > inst.HoldMin && inst.HoldMin > inst.ReduceMin) {
		return fmt.Errorf("scoring.institutional thresholds must be strictly descending: %.0f, %.0f, %.0f, %.0f",
			inst.StrongBuyMin, inst.BuyMin, inst.HoldMin, inst.ReduceMin)
	}

	if c.Scan.Workers < 1 || c.Scan.Workers > 64 {
		return fmt.Errorf("scan.workers must be in [1, 64], got %d", c.Scan.Workers)
	}
	if c.Scan.RetryAttempts < 1 {
		return fmt.Errorf("scan.retry_attempts must be at least 1, got %d", c.Scan.RetryAttempts)
	}
	if c.Scan.RetryDelayMS < 0 {
		return fmt.Errorf("scan.retry_delay_ms must be non-negative, got %d", c.Scan.RetryDelayMS)
	}

	if c.Fetch.RequestsPerSec <= 0 {
		return fmt.Errorf("fetch.requests_per_sec must be positive, got %.2f", c.Fetch.RequestsPerSec)
	}

	return nil
}

// SnapshotConfig converts to the indicator engine's config.
func (c *Config) SnapshotConfig() indicators.SnapshotConfig {
	return indicators.SnapshotConfig{
		RSIPeriod:             c.Indicators.RSIPeriod,
		MAShort:               c.Indicators.MAShort,
		MAMedium:              c.Indicators.MAMedium,
		MALong:                c.Indicators.MALong,
		MACDFast:              c.Indicators.MACDFast,
		MACDSlow:              c.Indicators.MACDSlow,
		MACDSignal:            c.Indicators.MACDSignal,
		BollingerPeriod:       c.Indicators.BollingerPeriod,
		BollingerStdDev:       c.Indicators.BollingerStdDev,
		ATRPeriod:             c.Indicators.ATRPeriod,
		VolumeAvgDays:         c.Indicators.VolumeAvgDays,
		VolumeSpikeMultiplier: c.Indicators.VolumeSpikeMultiplier,
		LevelLookback:         c.Indicators.LevelLookback,
		YearBars:              c.Indicators.YearBars,
		NearLevelPct:          c.Indicators.NearLevelPct,
	}
}

// BuyConfig converts to the buy scorer's config.
func (c *Config) BuyConfig() scoring.BuyConfig {
	return scoring.BuyConfig{
		RSIOversold:   c.Scoring.Buy.RSIOversold,
		RSIOverbought: c.Scoring.Buy.RSIOverbought,
		StrongBuyMin:  c.Scoring.Buy.StrongBuyMin,
		BuyMin:        c.Scoring.Buy.BuyMin,
		HoldMin:       c.Scoring.Buy.HoldMin,
		NearLevelPct:  c.Indicators.NearLevelPct,
	}
}

// InstitutionalConfig converts to the institutional scorer's config.
func (c *Config) InstitutionalConfig() scoring.InstitutionalConfig {
	return scoring.InstitutionalConfig{
		StrongBuyMin: c.Scoring.Institutional.StrongBuyMin,
		BuyMin:       c.Scoring.Institutional.BuyMin,
		HoldMin:      c.Scoring.Institutional.HoldMin,
		ReduceMin:    c.Scoring.Institutional.ReduceMin,
	}
}
