package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"psx-analyst/internal/pipeline"
	"psx-analyst/pkg/utils"
)

func newScheduleCmd(app *App) *cobra.Command {
	var spec string

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run scheduled watchlist scans until interrupted",
		Long: `Schedule starts a cron-driven loop that scans the watchlist on the
configured schedule. Runs in the foreground; stop with Ctrl-C.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			p, err := app.newPipeline(true)
			if err != nil {
				return err
			}

			if spec == "" {
				spec = app.Config.Schedule.CronSpec
			}

			sched := pipeline.NewScheduler(p, func(ctx context.Context) ([]string, error) {
				return app.Store.Watchlist(ctx)
			}, app.Logger)

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			if err := sched.Start(ctx, spec); err != nil {
				return err
			}
			output.Info("Scheduler running with spec %q, Ctrl-C to stop", spec)
			if utils.IsMarketOpen() {
				close := utils.MarketClose(time.Now())
				output.Warning("Market is still open, EOD data is final after %s PKT", close.Format("15:04"))
			}

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
			<-sigCh

			output.Println()
			output.Info("Stopping...")
			cancel()
			sched.Stop()
			return nil
		},
	}

	cmd.Flags().StringVar(&spec, "cron", "", "cron spec override (default from config)")
	return cmd
}
