package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"econdash/internal/errors"
	"econdash/internal/services"
	apihttp "econdash/internal/transport/http"
)

func newServeCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard API over HTTP",
		Long: `Start the HTTP API. Views are served under /api, health checks under
/health and Prometheus metrics under /metrics.

With --refresh-interval the dataset is refreshed in the background; stale
months are downloaded each time the interval elapses.`,
		Example: `  econdash serve
  econdash serve --addr :9090 --refresh-interval 6h`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			cfg := app.Config

			addr := cfg.Server.Addr
			if cmd.Flags().Changed("addr") {
				addr, _ = cmd.Flags().GetString("addr")
			}

			dashboard, err := app.Dashboard()
			if err != nil {
				output.Error("Failed to open dataset: %v", err)
				return err
			}

			router := apihttp.NewRouter(apihttp.RouterConfig{
				Service:       dashboard,
				Metrics:       app.Metrics,
				Logger:        app.Logger,
				Version:       Version,
				RatePerSecond: cfg.Server.RatePerSecond,
				Burst:         cfg.Server.Burst,
			})
			server := apihttp.NewServer(addr, router, cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, app.Logger)

			if interval, _ := cmd.Flags().GetDuration("refresh-interval"); interval > 0 {
				go app.refreshLoop(ctx, dashboard, interval)
			}

			if !output.IsJSON() {
				output.Info("Serving on %s (Ctrl+C to stop)", addr)
			}
			return server.Run(ctx)
		},
	}

	cmd.Flags().String("addr", "", "listen address (default: server.addr)")
	cmd.Flags().Duration("refresh-interval", 0, "refresh the dataset in the background; 0 disables")
	return cmd
}

// refreshLoop refreshes stale months every interval until ctx is done.
func (app *App) refreshLoop(ctx context.Context, dashboard *services.Dashboard, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger := app.Logger.With().Str("component", "refresh_loop").Logger()
	logger.Info().Dur("interval", interval).Msg("Background refresh started")

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			report, err := dashboard.Refresh(ctx, false)
			switch {
			case errors.Is(err, errors.ErrRefreshInProgress):
				logger.Debug().Msg("Refresh already running")
			case err != nil:
				logger.Warn().Err(err).Msg("Background refresh failed")
			default:
				logger.Info().
					Int("refreshed", report.Refreshed).
					Int("skipped", report.Skipped).
					Int("failed", report.Failed).
					Msg("Background refresh complete")
			}
		}
	}
}
