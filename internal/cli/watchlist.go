package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newWatchlistCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watchlist",
		Short: "Manage the scan watchlist",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "add SYMBOL [SYMBOL...]",
		Short: "Add symbols to the watchlist",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if app.Store == nil {
				return fmt.Errorf("datastore unavailable")
			}
			for _, arg := range args {
				symbol := strings.ToUpper(strings.TrimSpace(arg))
				if err := app.Store.EnsureTicker(cmd.Context(), symbol, ""); err != nil {
					return fmt.Errorf("failed to register %s: %w", symbol, err)
				}
				if err := app.Store.AddToWatchlist(cmd.Context(), symbol); err != nil {
					return fmt.Errorf("failed to add %s: %w", symbol, err)
				}
				output.Success("Added %s", symbol)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "remove SYMBOL [SYMBOL...]",
		Short: "Remove symbols from the watchlist",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if app.Store == nil {
				return fmt.Errorf("datastore unavailable")
			}
			for _, arg := range args {
				symbol := strings.ToUpper(strings.TrimSpace(arg))
				if err := app.Store.RemoveFromWatchlist(cmd.Context(), symbol); err != nil {
					return fmt.Errorf("failed to remove %s: %w", symbol, err)
				}
				output.Success("Removed %s", symbol)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List watchlist symbols",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if app.Store == nil {
				return fmt.Errorf("datastore unavailable")
			}
			symbols, err := app.Store.Watchlist(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to load watchlist: %w", err)
			}
			if output.IsJSON() {
				return output.JSON(symbols)
			}
			if len(symbols) == 0 {
				output.Warning("Watchlist is empty")
				return nil
			}
			for _, symbol := range symbols {
				output.Println(symbol)
			}
			return nil
		},
	})

	return cmd
}
