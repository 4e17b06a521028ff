// Package cli provides the command-line interface for the economic calendar dashboard.
package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"econdash/internal/config"
	"econdash/internal/metrics"
)

// Version information
const (
	Version   = "0.1.0"
	BuildDate = "2026-10-01"
)

// commandTimeout bounds commands that only read the dataset.
const commandTimeout = 60 * time.Second

// NewRootCmd creates the root command for the CLI.
func NewRootCmd() *cobra.Command {
	app := &App{Metrics: metrics.New()}

	rootCmd := &cobra.Command{
		Use:   "econdash",
		Short: "Economic calendar dashboard",
		Long: `econdash keeps a local archive of economic calendar releases and turns it
into chartable indicator series.

Releases are classified into canonical indicators, their values parsed, gaps
repaired and indicators grouped by scale. The same views are available from
the command line and from the HTTP API started with 'econdash serve'.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return app.Close()
		},
	}

	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/econdash)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().Bool("no-color", false, "disable colored output")

	addCoreCommands(rootCmd, app)
	addDataCommands(rootCmd, app)
	addAnalysisCommands(rootCmd, app)
	addReportCommands(rootCmd, app)
	addHelpCommands(rootCmd)
	rootCmd.AddCommand(newServeCmd(app))

	return rootCmd
}

// commandContext derives the context of a read-only command.
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, commandTimeout)
}

// addCoreCommands adds core utility commands.
func addCoreCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(map[string]string{
					"version":    Version,
					"build_date": BuildDate,
				})
			}
			output.Printf("econdash v%s\n", Version)
			output.Dim("Build date: %s", BuildDate)
			return nil
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
			showConfig(output, app.Config)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(map[string]string{"path": app.Config.File})
			}
			output.Println(app.Config.File)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := app.Config.Validate(); err != nil {
				output.Error("Configuration validation failed: %v", err)
				return err
			}
			if output.IsJSON() {
				return output.JSON(map[string]bool{"valid": true})
			}
			output.Success("✓ Configuration is valid")
			return nil
		},
	})

	return cmd
}

func showConfig(output *Output, cfg *config.Config) {
	output.Bold("Data")
	output.Printf("  Directory:     %s\n", cfg.Data.Dir)
	output.Printf("  Source:        %s\n", cfg.Data.Source)
	output.Printf("  Database:      %s\n", cfg.DBPath())
	output.Printf("  Cache TTL:     %s\n", cfg.Data.CacheTTL)
	output.Printf("  Stale After:   %s\n", cfg.Data.StaleAfter)
	output.Printf("  Months:        %d back, %d ahead\n", cfg.Data.MonthsBack, cfg.Data.MonthsAhead)
	output.Println()

	output.Bold("Regions")
	for _, code := range cfg.Regions.Tracked {
		output.Printf("  %s  %s\n", code, cfg.Regions.DisplayName(code))
	}
	output.Println()

	output.Bold("Provider")
	output.Printf("  Name:          %s\n", cfg.Provider.Name)
	output.Printf("  URL:           %s\n", cfg.Provider.URL)
	output.Printf("  Timeout:       %s\n", cfg.Provider.Timeout)
	output.Printf("  Rate:          %.2f/s (burst %d)\n", cfg.Provider.RatePerSecond, cfg.Provider.Burst)
	output.Printf("  Retries:       %d\n", cfg.Provider.MaxRetries)
	output.Printf("  Concurrency:   %d\n", cfg.Provider.Concurrency)
	output.Printf("  Breaker:       %d failures, %s cooldown\n", cfg.Provider.BreakerThreshold, cfg.Provider.BreakerCooldown)
	output.Println()

	output.Bold("Classifier")
	rules := cfg.Classifier.RulesFile
	if rules == "" {
		rules = "built-in"
	}
	output.Printf("  Rules:         %s\n", rules)
	output.Printf("  Equivalences:  %d groups\n", len(cfg.Coverage.Groups))
	output.Println()

	output.Bold("Server")
	output.Printf("  Address:       %s\n", cfg.Server.Addr)
	output.Printf("  Rate Limit:    %.2f/s (burst %d)\n", cfg.Server.RatePerSecond, cfg.Server.Burst)
	output.Println()

	output.Dim("Config file: %s", cfg.File)
}
