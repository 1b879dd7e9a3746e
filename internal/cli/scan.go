package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"psx-analyst/internal/models"
)

func newScanCmd(app *App) *cobra.Command {
	var noFetch bool

	cmd := &cobra.Command{
		Use:   "scan [symbols...]",
		Short: "Scan symbols and score each one",
		Long: `Scan runs the full pipeline over the given symbols: refresh market
data, compute indicators and sentiment, and produce both scores.
Without arguments the watchlist is scanned.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx := cmd.Context()

			symbols, err := app.resolveSymbols(cmd, args)
			if err != nil {
				return err
			}

			p, err := app.newPipeline(!noFetch)
			if err != nil {
				return err
			}

			result, err := p.ScanAll(ctx, symbols)
			if err != nil {
				return fmt.Errorf("scan failed: %w", err)
			}

			if output.IsJSON() {
				return output.JSON(result)
			}

			renderSummaries(output, result.Summaries)
			output.Println()
			output.Printf("%d analyzed, %d skipped, %d failed in %s\n",
				result.Succeeded, result.Skipped, result.Failed, result.Duration.Round(1e8))
			return nil
		},
	}

	cmd.Flags().BoolVar(&noFetch, "no-fetch", false, "analyze stored history without hitting the PSX portal")
	return cmd
}

// resolveSymbols uppercases explicit arguments or falls back to the
// watchlist.
func (app *App) resolveSymbols(cmd *cobra.Command, args []string) ([]string, error) {
	if len(args) > 0 {
		symbols := make([]string, 0, len(args))
		for _, arg := range args {
			symbols = append(symbols, strings.ToUpper(strings.TrimSpace(arg)))
		}
		return symbols, nil
	}

	if app.Store == nil {
		return nil, fmt.Errorf("datastore unavailable")
	}
	symbols, err := app.Store.Watchlist(cmd.Context())
	if err != nil {
		return nil, fmt.Errorf("failed to load watchlist: %w", err)
	}
	if len(symbols) == 0 {
		return nil, fmt.Errorf("watchlist is empty; pass symbols or run 'psx-analyst watchlist add'")
	}
	return symbols, nil
}

func renderSummaries(output *Output, summaries []models.ScanSummary) {
	if len(summaries) == 0 {
		output.Warning("No symbols analyzed")
		return
	}

	sorted := make([]models.ScanSummary, len(summaries))
	copy(sorted, summaries)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].BuyScore > sorted[j].BuyScore })

	table := NewTable(output, "SYMBOL", "CLOSE", "RSI", "TREND", "VOL", "SENT", "BUY", "REC", "SCORE", "RATING")
	for _, s := range sorted {
		spike := ""
		if s.VolumeSpike {
			spike = output.Yellow("SPIKE")
		}
		table.AddRow(
			s.Symbol,
			fmt.Sprintf("%.2f", s.Close),
			s.RSI.String(),
			output.Trend(s.Trend),
			spike,
			fmt.Sprintf("%+.2f", s.SentimentScore),
			fmt.Sprintf("%d/10", s.BuyScore),
			output.Recommendation(s.Recommendation),
			fmt.Sprintf("%d/100", s.TotalScore),
			output.Rating(s.Rating),
		)
	}
	table.Render()
}
