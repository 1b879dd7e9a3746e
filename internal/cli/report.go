package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newReportCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Reports over the latest analysis per symbol",
	}

	var minScore, limit int
	top := &cobra.Command{
		Use:   "top",
		Short: "Symbols with the highest buy scores",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if app.Store == nil {
				return fmt.Errorf("datastore unavailable")
			}

			summaries, err := app.Store.TopOpportunities(cmd.Context(), minScore, limit)
			if err != nil {
				return fmt.Errorf("failed to query opportunities: %w", err)
			}

			if output.IsJSON() {
				return output.JSON(summaries)
			}
			if len(summaries) == 0 {
				output.Warning("No symbols with buy score >= %d", minScore)
				return nil
			}
			output.Bold("Top opportunities (buy score >= %d)", minScore)
			renderSummaries(output, summaries)
			return nil
		},
	}
	top.Flags().IntVar(&minScore, "min", 7, "minimum buy score")
	top.Flags().IntVar(&limit, "limit", 20, "maximum rows")

	var maxScore, alertLimit int
	alerts := &cobra.Command{
		Use:   "alerts",
		Short: "Symbols with the weakest buy scores",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if app.Store == nil {
				return fmt.Errorf("datastore unavailable")
			}

			summaries, err := app.Store.RedAlerts(cmd.Context(), maxScore, alertLimit)
			if err != nil {
				return fmt.Errorf("failed to query alerts: %w", err)
			}

			if output.IsJSON() {
				return output.JSON(summaries)
			}
			if len(summaries) == 0 {
				output.Success("No symbols with buy score <= %d", maxScore)
				return nil
			}
			output.Bold("Red alerts (buy score <= %d)", maxScore)
			renderSummaries(output, summaries)
			return nil
		},
	}
	alerts.Flags().IntVar(&maxScore, "max", 3, "maximum buy score")
	alerts.Flags().IntVar(&alertLimit, "limit", 20, "maximum rows")

	cmd.AddCommand(top)
	cmd.AddCommand(alerts)
	return cmd
}
