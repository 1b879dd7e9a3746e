package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Indicators.RSIPeriod != 14 {
		t.Errorf("expected default rsi_period 14, got %d", cfg.Indicators.RSIPeriod)
	}
	if cfg.Indicators.YearBars != 252 {
		t.Errorf("expected default year_bars 252, got %d", cfg.Indicators.YearBars)
	}
	if cfg.Scan.Workers != 4 {
		t.Errorf("expected default workers 4, got %d", cfg.Scan.Workers)
	}
	if cfg.Scoring.Buy.StrongBuyMin != 8.0 {
		t.Errorf("expected default strong_buy_min 8, got %v", cfg.Scoring.Buy.StrongBuyMin)
	}
	if cfg.Scoring.Institutional.ReduceMin != 40.0 {
		t.Errorf("expected default reduce_min 40, got %v", cfg.Scoring.Institutional.ReduceMin)
	}
	if cfg.Fetch.BaseURL != "https://dps.psx.com.pk" {
		t.Errorf("unexpected base url %q", cfg.Fetch.BaseURL)
	}
	if cfg.Database.Path != filepath.Join(dir, "psx-analyst.db") {
		t.Errorf("unexpected database path %q", cfg.Database.Path)
	}
}

func TestLoadWritesTemplateOnFirstRun(t *testing.T) {
	dir := t.TempDir()
	if _, err := Load(dir); err != nil {
		t.Fatalf("Load: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "config.toml"))
	if err != nil {
		t.Fatalf("expected template written: %v", err)
	}
	for _, section := range []string{"[indicators]", "[sentiment]", "[scoring.buy]", "[scan]", "[fetch]", "[schedule]"} {
		if !strings.Contains(string(data), section) {
			t.Errorf("template missing %s section", section)
		}
	}
}

func TestLoadReadsConfigFile(t *testing.T) {
	dir := t.TempDir()
	content := "[indicators]\nrsi_period = 21\n\n[scan]\nworkers = 8\n"
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Indicators.RSIPeriod != 21 {
		t.Errorf("expected rsi_period 21 from file, got %d", cfg.Indicators.RSIPeriod)
	}
	if cfg.Scan.Workers != 8 {
		t.Errorf("expected workers 8 from file, got %d", cfg.Scan.Workers)
	}
	// Untouched keys keep their defaults.
	if cfg.Indicators.MALong != 200 {
		t.Errorf("expected default ma_long 200, got %d", cfg.Indicators.MALong)
	}
}

func TestEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("PSX_DB_PATH", "/tmp/override.db")
	t.Setenv("PSX_LOG_LEVEL", "debug")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Database.Path != "/tmp/override.db" {
		t.Errorf("expected env db path, got %q", cfg.Database.Path)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected env log level, got %q", cfg.Logging.Level)
	}
	if cfg.Oracle.APIKey != "sk-test" {
		t.Errorf("expected env api key, got %q", cfg.Oracle.APIKey)
	}
}

func validConfig(t *testing.T) *Config {
	t.Helper()
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return cfg
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantSub string
	}{
		{
			name:    "zero rsi period",
			mutate:  func(c *Config) { c.Indicators.RSIPeriod = 0 },
			wantSub: "indicators.rsi_period",
		},
		{
			name:    "macd fast not below slow",
			mutate:  func(c *Config) { c.Indicators.MACDFast = 26 },
			wantSub: "macd_fast",
		},
		{
			name:    "near level pct out of range",
			mutate:  func(c *Config) { c.Indicators.NearLevelPct = 1.5 },
			wantSub: "near_level_pct",
		},
		{
			name:    "dead band out of range",
			mutate:  func(c *Config) { c.Sentiment.DeadBand = 0 },
			wantSub: "dead_band",
		},
		{
			name:    "buy thresholds not descending",
			mutate:  func(c *Config) { c.Scoring.Buy.BuyMin = 9 },
			wantSub: "scoring.buy thresholds",
		},
		{
			name:    "oversold above overbought",
			mutate:  func(c *Config) { c.Scoring.Buy.RSIOversold = 80 },
			wantSub: "rsi_oversold",
		},
		{
			name:    "institutional thresholds not descending",
			mutate:  func(c *Config) { c.Scoring.Institutional.HoldMin = 75 },
			wantSub: "scoring.institutional",
		},
		{
			name:    "workers too low",
			mutate:  func(c *Config) { c.Scan.Workers = 0 },
			wantSub: "scan.workers",
		},
		{
			name:    "workers too high",
			mutate:  func(c *Config) { c.Scan.Workers = 100 },
			wantSub: "scan.workers",
		},
		{
			name:    "zero requests per sec",
			mutate:  func(c *Config) { c.Fetch.RequestsPerSec = 0 },
			wantSub: "requests_per_sec",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig(t)
			tc.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.wantSub) {
				t.Errorf("expected error naming %q, got %q", tc.wantSub, err)
			}
		})
	}
}

func TestSnapshotConfigConversion(t *testing.T) {
	cfg := validConfig(t)
	cfg.Indicators.RSIPeriod = 21
	cfg.Indicators.VolumeSpikeMultiplier = 3.0

	sc := cfg.SnapshotConfig()
	if sc.RSIPeriod != 21 || sc.VolumeSpikeMultiplier != 3.0 {
		t.Errorf("conversion mismatch: %+v", sc)
	}

	bc := cfg.BuyConfig()
	if bc.NearLevelPct != cfg.Indicators.NearLevelPct {
		t.Errorf("expected buy config to carry near_level_pct, got %v", bc.NearLevelPct)
	}
}
