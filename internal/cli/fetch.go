package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"psx-analyst/pkg/utils"
)

func newFetchCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "fetch SYMBOL [SYMBOL...]",
		Short: "Fetch and store price history and announcements",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx := cmd.Context()

			if app.Store == nil {
				return fmt.Errorf("datastore unavailable")
			}

			type fetchResult struct {
				Symbol        string  `json:"symbol"`
				Bars          int     `json:"bars"`
				Announcements int     `json:"announcements"`
				LastClose     float64 `json:"last_close,omitempty"`
				LastVolume    int64   `json:"last_volume,omitempty"`
				Error         string  `json:"error,omitempty"`
			}
			var results []fetchResult

			for _, arg := range args {
				symbol := strings.ToUpper(strings.TrimSpace(arg))
				res := fetchResult{Symbol: symbol}

				if err := app.Store.EnsureTicker(ctx, symbol, ""); err != nil {
					res.Error = err.Error()
					results = append(results, res)
					continue
				}

				bars, err := app.Fetcher.FetchHistory(ctx, symbol, app.Config.Scan.HistoryBars)
				if err != nil {
					res.Error = err.Error()
					results = append(results, res)
					continue
				}
				if err := app.Store.SaveBars(ctx, bars); err != nil {
					res.Error = err.Error()
					results = append(results, res)
					continue
				}
				res.Bars = len(bars)
				if len(bars) > 0 {
					last := bars[len(bars)-1]
					res.LastClose = last.Close
					res.LastVolume = last.Volume
				}

				records, err := app.Fetcher.FetchAnnouncements(ctx, symbol)
				if err != nil {
					res.Error = err.Error()
					results = append(results, res)
					continue
				}
				if len(records) > 0 {
					if err := app.Store.SaveAnnouncements(ctx, records); err != nil {
						res.Error = err.Error()
						results = append(results, res)
						continue
					}
				}
				res.Announcements = len(records)
				results = append(results, res)
			}

			if output.IsJSON() {
				return output.JSON(results)
			}

			for _, res := range results {
				if res.Error != "" {
					output.Error("%s: %s", res.Symbol, res.Error)
				} else if res.Bars > 0 {
					output.Success("%s: %d bars, %d announcements, last close %s on volume %s",
						res.Symbol, res.Bars, res.Announcements,
						utils.FormatRupees(res.LastClose), utils.FormatVolume(res.LastVolume))
				} else {
					output.Success("%s: %d bars, %d announcements", res.Symbol, res.Bars, res.Announcements)
				}
			}
			return nil
		},
	}
}
