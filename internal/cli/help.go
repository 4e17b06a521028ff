package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

// addHelpCommands adds help and documentation commands.
func addHelpCommands(rootCmd *cobra.Command) {
	rootCmd.AddCommand(newCommandsCmd())
	rootCmd.AddCommand(newExamplesCmd())
	rootCmd.AddCommand(newQuickstartCmd())
}

type commandEntry struct {
	cmd  string
	desc string
}

type commandCategory struct {
	name     string
	commands []commandEntry
}

var commandCategories = []commandCategory{
	{
		name: "Data",
		commands: []commandEntry{
			{"import <file>...", "Import calendar CSV files"},
			{"import <file>... --archive", "Import and merge into the monthly archive"},
			{"refresh [--force]", "Download stale months"},
			{"status", "Dataset freshness and health"},
		},
	},
	{
		name: "Views",
		commands: []commandEntry{
			{"summary", "Dataset overview"},
			{"currencies", "Currencies and their release counts"},
			{"tags [currency]", "Indicator tags"},
			{"groups <currency>", "Indicators grouped by scale"},
			{"series <currency> <tag>", "One repaired indicator series"},
			{"indicator <tag>", "One indicator across currencies"},
			{"coverage", "Indicators released by every tracked region"},
		},
	},
	{
		name: "Reports",
		commands: []commandEntry{
			{"calendar", "Releases by day"},
			{"history <currency>", "Month-by-indicator table"},
			{"history <currency> --xlsx <file>", "Export the table to a spreadsheet"},
		},
	},
	{
		name: "Server",
		commands: []commandEntry{
			{"serve", "HTTP API, health checks and metrics"},
		},
	},
	{
		name: "Utilities",
		commands: []commandEntry{
			{"config show/path/validate", "Configuration"},
			{"commands", "List all commands"},
			{"examples", "Common workflows"},
			{"quickstart", "New user guide"},
			{"version", "Version information"},
		},
	},
}

func newCommandsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "commands",
		Short: "List all commands by category",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				listing := make(map[string][]string, len(commandCategories))
				for _, cat := range commandCategories {
					for _, c := range cat.commands {
						listing[cat.name] = append(listing[cat.name], c.cmd)
					}
				}
				return output.JSON(listing)
			}

			output.Bold("econdash commands")
			output.Println()
			for _, cat := range commandCategories {
				output.Bold(cat.name)
				for _, c := range cat.commands {
					pad := strings.Repeat(" ", max(1, 36-len(c.cmd)))
					output.Printf("  %s%s%s\n", output.Cyan(c.cmd), pad, c.desc)
				}
				output.Println()
			}
			output.Dim("Use 'econdash help <command>' for detailed help on any command")
			return nil
		},
	}
}

type workflow struct {
	title    string
	commands []string
}

var workflows = []workflow{
	{
		title: "First Import",
		commands: []string{
			"econdash import economic_data.csv --archive  # Seed the store and archive",
			"econdash summary                            # Check what was imported",
			"econdash coverage                           # Indicators every region releases",
		},
	},
	{
		title: "Keep the Dataset Current",
		commands: []string{
			"econdash status                  # How old is the data",
			"econdash refresh                 # Download stale months",
			"econdash refresh --force         # Download every month again",
		},
	},
	{
		title: "Explore a Currency",
		commands: []string{
			"econdash tags USD                              # What USD publishes",
			"econdash groups USD --importance High          # Scale panels",
			"econdash series USD \"CPI (YoY)\"                # One series",
			"econdash groups USD --column forecast --full-coverage",
		},
	},
	{
		title: "Compare Regions",
		commands: []string{
			"econdash indicator \"Interest Rate\"              # Policy rates side by side",
			"econdash indicator \"Manufacturing PMI\" --from 2023-01-01",
		},
	},
	{
		title: "Weekly Review",
		commands: []string{
			"econdash calendar                              # Last week and next month",
			"econdash calendar --currency USD,EUR --importance High",
			"econdash history EUR --years 3                 # Monthly pivot",
			"econdash history EUR --xlsx eur.xlsx           # Spreadsheet export",
		},
	},
	{
		title: "Run the API",
		commands: []string{
			"econdash serve --refresh-interval 6h           # API with background refresh",
			"curl localhost:8888/api/currencies/USD/groups  # Query a view",
		},
	},
}

func newExamplesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "examples",
		Short: "Show common workflow examples",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			output.Bold("Common Workflow Examples")
			output.Println()

			for _, wf := range workflows {
				output.Bold(wf.title)
				for _, c := range wf.commands {
					command, comment, found := strings.Cut(c, "#")
					if found {
						output.Printf("  %s %s\n", output.Cyan(strings.TrimSpace(command)), output.DimText(strings.TrimSpace(comment)))
					} else {
						output.Printf("  %s\n", output.Cyan(c))
					}
				}
				output.Println()
			}
			return nil
		},
	}
}

func newQuickstartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "quickstart",
		Short: "New user guide",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			output.Bold("econdash - Quick Start Guide")
			output.Println()

			steps := []struct {
				title string
				desc  string
				cmd   string
			}{
				{"Review the Configuration", "A config.toml with defaults is written on first run.", "econdash config path"},
				{"Set the Provider", "Point provider.url at a JSON calendar feed.", "econdash config show"},
				{"Load Data", "Download the configured window or import an existing export.", "econdash refresh"},
				{"Check the Dataset", "Count releases and see which indicators every region publishes.", "econdash summary"},
				{"Chart a Currency", "Group a currency's indicators into scale panels.", "econdash groups USD"},
				{"Serve the API", "Expose the same views over HTTP.", "econdash serve"},
			}

			for i, s := range steps {
				output.Printf("%s Step %d: %s\n", output.Cyan("→"), i+1, output.BoldText(s.title))
				output.Printf("  %s\n", s.desc)
				output.Printf("  %s\n\n", output.DimText(s.cmd))
			}

			output.Bold("Configuration Files")
			output.Println()
			output.Printf("  %s - data directory, regions, provider, server\n", output.Cyan("config.toml"))
			output.Printf("  %s - optional classifier rules (classifier.rules_file)\n", output.Cyan("rules.yaml"))
			output.Println()

			output.Bold("Getting Help")
			output.Println()
			output.Printf("  %s - List all commands\n", output.Cyan("econdash commands"))
			output.Printf("  %s - Common workflows\n", output.Cyan("econdash examples"))
			output.Printf("  %s - Help for any command\n", output.Cyan("econdash help <command>"))
			return nil
		},
	}
}
