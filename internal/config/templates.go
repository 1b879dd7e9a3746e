package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# PSX Analyst Configuration

[indicators]
# RSI lookback period
rsi_period = 14
# Moving average windows (trading days)
ma_short = 10
ma_medium = 50
ma_long = 200
# MACD periods
macd_fast = 12
macd_slow = 26
macd_signal = 9
# Bollinger Bands
bollinger_period = 20
bollinger_stddev = 2.0
# ATR lookback period
atr_period = 14
# Volume spike detection: today vs the trailing average (current day excluded)
volume_avg_days = 20
volume_spike_multiplier = 2.0
# Support/resistance trailing window and 52-week window (trading days)
level_lookback = 20
year_bars = 252
# "Near a level" proximity, as a fraction of the level
near_level_pct = 0.05

[sentiment]
# Trailing announcement window in calendar days
window_days = 14
# Polarity band treated as neutral
dead_band = 0.1
# Headlines carried in the summary
top_headlines = 5

[scoring.buy]
rsi_oversold = 30.0
rsi_overbought = 70.0
# Recommendation thresholds, strictly descending
strong_buy_min = 8.0
buy_min = 5.0
hold_min = 4.0

[scoring.institutional]
# Rating bands, strictly descending
strong_buy_min = 85.0
buy_min = 70.0
hold_min = 55.0
reduce_min = 40.0

[scan]
# Concurrent per-symbol pipelines
workers = 4
# Bars of history loaded per symbol
history_bars = 260
# Retry policy for store and oracle calls
retry_attempts = 3
retry_delay_ms = 500

[database]
# path = "/path/to/psx-analyst.db"

[logging]
# Levels: trace, debug, info, warn, error
level = "info"
console = true
max_size_mb = 10
max_backups = 3

[oracle]
# OpenAI API key for LLM sentiment scoring; leave empty to use the
# rule-based scorer. Also read from OPENAI_API_KEY.
api_key = ""
model = "gpt-4o-mini"

[fetch]
base_url = "https://dps.psx.com.pk"
requests_per_sec = 2.0
timeout_sec = 30

[schedule]
# Cron spec for unattended scans (after PSX close, Mon-Fri)
cron_spec = "30 17 * * 1-5"
`

func writeTemplate(configDir string) error {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	path := filepath.Join(configDir, "config.toml")
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	if err := os.WriteFile(path, []byte(configTemplate), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
