package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

func newScoreCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "score SYMBOL",
		Short: "Show the latest institutional score breakdown for a symbol",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx := cmd.Context()
			symbol := strings.ToUpper(strings.TrimSpace(args[0]))

			if app.Store == nil {
				return fmt.Errorf("datastore unavailable")
			}

			score, err := app.Store.LatestScore(ctx, symbol)
			if err != nil {
				return fmt.Errorf("failed to load score: %w", err)
			}
			if score == nil {
				return fmt.Errorf("no score on record for %s; run 'psx-analyst analyze %s' first", symbol, symbol)
			}

			if output.IsJSON() {
				return output.JSON(score)
			}

			output.Bold("%s  %s", score.Symbol, score.Date.Format("2006-01-02"))
			output.Printf("  Total: %d/100  %s\n", score.Total, output.Rating(score.Rating))
			output.Println()

			table := NewTable(output, "COMPONENT", "SCORE")
			table.AddRow("Financial health", fmt.Sprintf("%d/35", score.Financial))
			table.AddRow("Valuation", fmt.Sprintf("%d/25", score.Valuation))
			table.AddRow("Technical momentum", fmt.Sprintf("%d/20", score.Technical))
			table.AddRow("Sector & macro", fmt.Sprintf("%d/15", score.SectorMacro))
			table.AddRow("News & catalysts", fmt.Sprintf("%d/5", score.News))
			table.Render()

			if len(score.Details) > 0 {
				output.Println()
				keys := make([]string, 0, len(score.Details))
				for k := range score.Details {
					keys = append(keys, k)
				}
				sort.Strings(keys)
				for _, k := range keys {
					output.Printf("  %-18s %s\n", k+":", score.Details[k])
				}
			}
			return nil
		},
	}
}
