package cli

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"econdash/internal/analysis"
	"econdash/internal/analysis/classify"
	"econdash/internal/config"
	"econdash/internal/logging"
	"econdash/internal/metrics"
	"econdash/internal/resilience"
	"econdash/internal/services"
	"econdash/internal/store"
	"econdash/pkg/utils"
)

// App holds the application dependencies. Everything past the config and
// the logger is opened on first use, so commands such as version never touch
// the dataset.
type App struct {
	Config  *config.Config
	Logger  zerolog.Logger
	Metrics *metrics.Metrics

	store     *store.SQLiteStore
	archive   *store.CSVArchive
	cache     *store.DatasetCache
	refresher *store.Refresher
	dashboard *services.Dashboard
}

// setup loads the configuration named by --config and builds the logger.
func (app *App) setup(cmd *cobra.Command) error {
	configDir, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configDir)
	if err != nil {
		return err
	}
	app.Config = cfg

	level := cfg.Log.Level
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		level = "debug"
	}
	logCfg := logging.DefaultLogConfig()
	logCfg.Level = level
	logCfg.File = cfg.Log.File
	if cfg.Log.Path != "" {
		logCfg.FilePath = cfg.Log.Path
	}
	app.Logger = logging.NewLoggerWithConfig(logCfg)

	if !cfg.UI.ColorEnabled {
		color.NoColor = true
	}
	return nil
}

// Store opens the SQLite event store.
func (app *App) Store() (*store.SQLiteStore, error) {
	if app.store != nil {
		return app.store, nil
	}
	if err := os.MkdirAll(app.Config.Data.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	st, err := store.NewSQLiteStore(app.Config.DBPath())
	if err != nil {
		return nil, err
	}
	app.store = st
	app.Logger.Debug().Str("path", app.Config.DBPath()).Msg("SQLite store initialized")
	return st, nil
}

// Archive returns the monthly CSV archive.
func (app *App) Archive() *store.CSVArchive {
	if app.archive == nil {
		app.archive = store.NewCSVArchive(app.Config.Data.Dir)
	}
	return app.archive
}

// Dashboard wires the dataset cache, the refresher and the analysis
// pipeline together.
func (app *App) Dashboard() (*services.Dashboard, error) {
	if app.dashboard != nil {
		return app.dashboard, nil
	}
	cfg := app.Config

	st, err := app.Store()
	if err != nil {
		return nil, err
	}
	var source store.DatasetSource = st
	if cfg.Data.Source == "csv" {
		source = app.Archive()
	}
	app.cache = store.NewDatasetCache(source, cfg.Data.CacheTTL, store.WithLoadHook(func(n int) {
		app.Logger.Debug().Int("records", n).Str("source", cfg.Data.Source).Msg("Dataset loaded")
	}))

	breaker := resilience.NewBreaker(cfg.Provider.Name, resilience.BreakerConfig{
		FailureThreshold: cfg.Provider.BreakerThreshold,
		Cooldown:         cfg.Provider.BreakerCooldown,
	}, resilience.OnStateChange(func(name string, from, to resilience.State) {
		app.Logger.Warn().Str("provider", name).Str("from", string(from)).Str("to", string(to)).Msg("Provider circuit changed state")
	}))
	provider := store.NewHTTPProvider(store.HTTPProviderConfig{
		Name:          cfg.Provider.Name,
		URL:           cfg.Provider.URL,
		Timeout:       cfg.Provider.Timeout,
		RatePerSecond: cfg.Provider.RatePerSecond,
		Burst:         cfg.Provider.Burst,
		Retry: utils.RetryConfig{
			MaxAttempts:   cfg.Provider.MaxRetries,
			InitialDelay:  utils.DefaultRetryConfig().InitialDelay,
			MaxDelay:      utils.DefaultRetryConfig().MaxDelay,
			BackoffFactor: utils.DefaultRetryConfig().BackoffFactor,
		},
		Breaker: breaker,
	})
	app.refresher = store.NewRefresher(provider, app.Archive(), st, app.cache, store.RefreshConfig{
		MonthsBack:  cfg.Data.MonthsBack,
		MonthsAhead: cfg.Data.MonthsAhead,
		StaleAfter:  cfg.Data.StaleAfter,
		Concurrency: cfg.Provider.Concurrency,
	}, store.WithRefreshLogger(app.Logger), store.WithRefreshMetrics(app.Metrics))

	classifier, err := classify.FromFile(cfg.Classifier.RulesFile)
	if err != nil {
		return nil, err
	}
	pipeline := analysis.New(
		analysis.WithClassifier(classifier),
		analysis.WithRegions(cfg.Regions.Tracked),
		analysis.WithEquivalenceGroups(cfg.Coverage.Groups),
	)

	app.dashboard = services.NewDashboard(pipeline, app.cache,
		services.WithRefresher(app.refresher),
		services.WithDisplayNames(cfg.Regions.DisplayName),
		services.WithCategories(cfg.History.Categories),
		services.WithMetrics(app.Metrics),
		services.WithLogger(app.Logger),
	)
	return app.dashboard, nil
}

// Close releases the store.
func (app *App) Close() error {
	if app.store == nil {
		return nil
	}
	err := app.store.Close()
	app.store = nil
	return err
}
