package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"psx-analyst/internal/analysis/sentiment"
	"psx-analyst/internal/models"
	"psx-analyst/pkg/utils"
)

func newAnalyzeCmd(app *App) *cobra.Command {
	var noFetch bool

	cmd := &cobra.Command{
		Use:   "analyze SYMBOL",
		Short: "Run the full analysis for one symbol and show the detail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx := cmd.Context()
			symbol := strings.ToUpper(strings.TrimSpace(args[0]))

			p, err := app.newPipeline(!noFetch)
			if err != nil {
				return err
			}

			summary, err := p.ProcessSymbol(ctx, symbol)
			if err != nil {
				return fmt.Errorf("analysis failed for %s: %w", symbol, err)
			}

			snap, err := app.Store.LatestSnapshot(ctx, symbol)
			if err != nil {
				return fmt.Errorf("failed to load snapshot: %w", err)
			}

			since := time.Now().AddDate(0, 0, -app.Config.Sentiment.WindowDays)
			records, err := app.Store.RecentAnnouncements(ctx, symbol, since)
			if err != nil {
				return fmt.Errorf("failed to load announcements: %w", err)
			}
			agg := sentiment.NewAggregator(app.Config.Sentiment.DeadBand, app.Config.Sentiment.TopHeadlines)
			sent := agg.Aggregate(records)

			if output.IsJSON() {
				return output.JSON(map[string]interface{}{
					"summary":   summary,
					"snapshot":  snap,
					"sentiment": sent,
				})
			}

			renderAnalysis(output, summary, snap, sent)
			return nil
		},
	}

	cmd.Flags().BoolVar(&noFetch, "no-fetch", false, "analyze stored history without hitting the PSX portal")
	return cmd
}

func renderAnalysis(output *Output, summary *models.ScanSummary, snap *models.IndicatorSnapshot, sent models.SentimentSummary) {
	output.Bold("%s  %s", summary.Symbol, summary.Date.Format("2006-01-02"))
	if last := utils.LastTradingDay(time.Now()); summary.Date.Before(last.AddDate(0, 0, -1)) {
		output.Warning("  Latest bar predates the last trading session (%s)", last.Format("2006-01-02"))
	}
	output.Printf("  Close:           %s\n", utils.FormatRupees(summary.Close))
	output.Printf("  Buy score:       %d/10  %s\n", summary.BuyScore, output.Recommendation(summary.Recommendation))
	output.Printf("  Institutional:   %d/100  %s\n", summary.TotalScore, output.Rating(summary.Rating))
	if summary.Notes != "" {
		output.Printf("  Notes:           %s\n", summary.Notes)
	}
	output.Println()

	if snap != nil {
		output.Bold("Technical")
		output.Printf("  RSI:             %s\n", snap.RSI.String())
		output.Printf("  Trend:           %s\n", output.Trend(snap.Trend))
		output.Printf("  MA %s / %s / %s\n", snap.MAShort.String(), snap.MAMedium.String(), snap.MALong.String())
		output.Printf("  MACD:            %s  signal %s  hist %s\n",
			snap.MACD.String(), snap.MACDSignal.String(), snap.MACDHistogram.String())
		output.Printf("  Bollinger:       %s / %s / %s\n",
			snap.BollingerLower.String(), snap.BollingerMiddle.String(), snap.BollingerUpper.String())
		output.Printf("  ATR:             %s\n", snap.ATR.String())
		output.Printf("  Volume ratio:    %s", snap.VolumeRatio.String())
		if snap.VolumeSpike {
			output.Printf("  %s", output.Yellow("SPIKE"))
		}
		output.Println()
		output.Printf("  Support/Resist:  %s / %s\n", snap.SupportLevel.String(), snap.ResistanceLevel.String())
		output.Printf("  52w low/high:    %s / %s\n", snap.YearLow.String(), snap.YearHigh.String())
		output.Println()
	}

	output.Bold("Sentiment")
	output.Printf("  Score:           %+.3f (%d scored: %d+ %d- %d neutral)\n",
		sent.Score, sent.AnnouncementCount, sent.Positive, sent.Negative, sent.Neutral)
	for _, h := range sent.TopHeadlines {
		output.Printf("  %s  %+.2f  %s\n", h.PublishedAt.Format("Jan 02"), h.Polarity, h.Headline)
	}
}
