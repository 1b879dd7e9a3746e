// Package cli provides the command-line interface for the PSX analyst.
package cli

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"psx-analyst/internal/analysis/scoring"
	"psx-analyst/internal/analysis/sentiment"
	"psx-analyst/internal/config"
	"psx-analyst/internal/logging"
	"psx-analyst/internal/pipeline"
	"psx-analyst/internal/psx"
	"psx-analyst/internal/store"
)

// Version information
const (
	Version   = "0.1.0"
	BuildDate = "2026-08-30"
)

// App holds the application dependencies.
type App struct {
	Config   *config.Config
	Logger   zerolog.Logger
	Store    store.DataStore
	Oracle   sentiment.Oracle
	Fetcher  *psx.Client
	Pipeline *pipeline.Pipeline
}

// ConfigDirFromArgs extracts the --config value from raw command-line
// arguments, before cobra has parsed them. Both "--config DIR" and
// "--config=DIR" forms are accepted; the last occurrence wins. Returns
// "" when the flag is absent.
func ConfigDirFromArgs(args []string) string {
	dir := ""
	for i, arg := range args {
		switch {
		case arg == "--config" && i+1 < len(args):
			dir = args[i+1]
		case strings.HasPrefix(arg, "--config="):
			dir = strings.TrimPrefix(arg, "--config=")
		}
	}
	return dir
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	// Initialize SQLite store
	dbPath := cfg.Database.Path
	if dbPath == "" {
		dbPath = filepath.Join(config.DefaultConfigDir(), "analyst.db")
	}
	dataStore, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to initialize store, most commands will be unavailable")
	} else {
		app.Store = dataStore
		logger.Debug().Str("path", dbPath).Msg("SQLite store initialized")
	}

	// LLM oracle when a key is configured, keyword fallback otherwise
	if cfg.Oracle.APIKey != "" {
		app.Oracle = sentiment.NewOpenAIOracle(cfg.Oracle.APIKey, cfg.Oracle.Model)
		logger.Debug().Str("model", cfg.Oracle.Model).Msg("OpenAI sentiment oracle initialized")
	} else {
		app.Oracle = sentiment.NewKeywordOracle()
		logger.Debug().Msg("Keyword sentiment oracle initialized")
	}

	app.Fetcher = psx.NewClient(
		psx.WithBaseURL(cfg.Fetch.BaseURL),
		psx.WithRateLimit(cfg.Fetch.RequestsPerSec),
		psx.WithTimeout(time.Duration(cfg.Fetch.TimeoutSec)*time.Second),
		psx.WithLogger(logger),
	)

	rootCmd := &cobra.Command{
		Use:   "psx-analyst",
		Short: "PSX Analyst - market intelligence for the Pakistan Stock Exchange",
		Long: `PSX Analyst scans Pakistan Stock Exchange listings, computes technical
indicators and announcement sentiment, and scores each symbol on two
scales: a 1-10 buy score and a 100-point institutional score.

Use 'psx-analyst help <command>' for more information about a command.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				logging.SetDebugLevel()
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}
			return nil
		},
	}

	// Global flags. The config directory must be known before cobra parses
	// anything, so --config is resolved early by ConfigDirFromArgs; it is
	// registered here only for help text and flag validation.
	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/psx-analyst)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))
	rootCmd.AddCommand(newScanCmd(app))
	rootCmd.AddCommand(newAnalyzeCmd(app))
	rootCmd.AddCommand(newScoreCmd(app))
	rootCmd.AddCommand(newReportCmd(app))
	rootCmd.AddCommand(newFetchCmd(app))
	rootCmd.AddCommand(newScheduleCmd(app))
	rootCmd.AddCommand(newWatchlistCmd(app))

	return rootCmd
}

// newPipeline wires the analysis pipeline from the app's dependencies.
func (app *App) newPipeline(withFetch bool) (*pipeline.Pipeline, error) {
	if app.Store == nil {
		return nil, fmt.Errorf("datastore unavailable")
	}

	buy, err := scoring.NewBuyScorer(app.Config.BuyConfig())
	if err != nil {
		return nil, err
	}
	inst, err := scoring.NewInstitutionalScorer(app.Config.InstitutionalConfig())
	if err != nil {
		return nil, err
	}

	opts := pipeline.Options{
		Workers:       app.Config.Scan.Workers,
		HistoryBars:   app.Config.Scan.HistoryBars,
		WindowDays:    app.Config.Sentiment.WindowDays,
		RetryAttempts: app.Config.Scan.RetryAttempts,
		RetryDelay:    time.Duration(app.Config.Scan.RetryDelayMS) * time.Millisecond,
		Snapshot:      app.Config.SnapshotConfig(),
		DeadBand:      app.Config.Sentiment.DeadBand,
		TopHeadlines:  app.Config.Sentiment.TopHeadlines,
	}

	p, err := pipeline.New(app.Store, app.Oracle, buy, inst, opts, app.Logger)
	if err != nil {
		return nil, err
	}
	if withFetch {
		p.SetFetcher(app.Fetcher)
	}
	return p, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{
					"version":    Version,
					"build_date": BuildDate,
				})
			} else {
				output.Printf("PSX Analyst v%s\n", Version)
				output.Printf("Build date: %s\n", BuildDate)
			}
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "View and validate application configuration.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(app.Config)
			}
			return showConfig(output, app.Config)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration directory path",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{"path": config.DefaultConfigDir()})
			} else {
				output.Println(config.DefaultConfigDir())
			}
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := app.Config.Validate(); err != nil {
				output.Error("Configuration validation failed: %v", err)
				return err
			}
			if output.IsJSON() {
				output.JSON(map[string]bool{"valid": true})
			} else {
				output.Success("Configuration is valid")
			}
			return nil
		},
	})

	return cmd
}

func showConfig(output *Output, cfg *config.Config) error {
	output.Bold("Indicators")
	output.Printf("  RSI period:      %d\n", cfg.Indicators.RSIPeriod)
	output.Printf("  MA windows:      %d / %d / %d\n", cfg.Indicators.MAShort, cfg.Indicators.MAMedium, cfg.Indicators.MALong)
	output.Printf("  MACD:            %d / %d / %d\n", cfg.Indicators.MACDFast, cfg.Indicators.MACDSlow, cfg.Indicators.MACDSignal)
	output.Printf("  Bollinger:       %d x %.1f\n", cfg.Indicators.BollingerPeriod, cfg.Indicators.BollingerStdDev)
	output.Printf("  Volume spike:    %.1fx over %d days\n", cfg.Indicators.VolumeSpikeMultiplier, cfg.Indicators.VolumeAvgDays)
	output.Println()

	output.Bold("Sentiment")
	output.Printf("  Window:          %d days\n", cfg.Sentiment.WindowDays)
	output.Printf("  Dead band:       %.2f\n", cfg.Sentiment.DeadBand)
	output.Println()

	output.Bold("Scoring")
	output.Printf("  Buy thresholds:  %.0f / %.0f / %.0f\n", cfg.Scoring.Buy.StrongBuyMin, cfg.Scoring.Buy.BuyMin, cfg.Scoring.Buy.HoldMin)
	output.Printf("  Rating bands:    %.0f / %.0f / %.0f / %.0f\n",
		cfg.Scoring.Institutional.StrongBuyMin, cfg.Scoring.Institutional.BuyMin,
		cfg.Scoring.Institutional.HoldMin, cfg.Scoring.Institutional.ReduceMin)
	output.Println()

	output.Bold("Scan")
	output.Printf("  Workers:         %d\n", cfg.Scan.Workers)
	output.Printf("  History bars:    %d\n", cfg.Scan.HistoryBars)
	output.Printf("  Retries:         %d x %dms\n", cfg.Scan.RetryAttempts, cfg.Scan.RetryDelayMS)
	output.Println()

	output.Bold("Oracle")
	model := cfg.Oracle.Model
	if cfg.Oracle.APIKey == "" {
		model = "keyword (no API key)"
	}
	output.Printf("  Model:           %s\n", model)
	output.Println()

	output.Bold("Schedule")
	output.Printf("  Cron:            %s\n", cfg.Schedule.CronSpec)

	return nil
}
