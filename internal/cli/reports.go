package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"econdash/internal/report"
)

// addReportCommands adds the calendar and history reports.
func addReportCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newCalendarCmd(app))
	rootCmd.AddCommand(newHistoryCmd(app))
}

func newCalendarCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "List releases by day",
		Long: `List releases grouped by day, most important first within each day.

Without --from and --to the calendar covers one week back to thirty days
ahead. Without --importance only High and Medium releases are shown.`,
		Example: `  econdash calendar
  econdash calendar --from 2024-03-01 --to 2024-03-31 --currency USD,EUR
  econdash calendar --importance High,Medium,Low --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := commandContext(cmd)
			defer cancel()

			from, to, err := rangeFromFlags(cmd)
			if err != nil {
				output.Error("%v", err)
				return err
			}
			q := report.CalendarQuery{From: from, To: to}
			if cmd.Flags().Changed("importance") {
				q.Importance, _ = cmd.Flags().GetStringSlice("importance")
			}
			q.Currencies, _ = cmd.Flags().GetStringSlice("currency")

			dashboard, err := app.Dashboard()
			if err != nil {
				output.Error("Failed to open dataset: %v", err)
				return err
			}
			days, err := dashboard.Calendar(ctx, q)
			if err != nil {
				output.Error("Failed to build calendar: %v", err)
				return err
			}
			if output.IsJSON() {
				return output.JSON(days)
			}
			displayCalendar(output, days)
			return nil
		},
	}

	cmd.Flags().String("from", "", "first day (YYYY-MM-DD)")
	cmd.Flags().String("to", "", "last day (YYYY-MM-DD)")
	cmd.Flags().StringSlice("importance", nil, "importance levels to show")
	cmd.Flags().StringSlice("currency", nil, "currencies to show")
	return cmd
}

func displayCalendar(output *Output, days []report.CalendarDay) {
	if len(days) == 0 {
		output.Dim("No releases in this window.")
		return
	}
	for i, day := range days {
		if i > 0 {
			output.Println()
		}
		output.Bold(day.Date)
		table := NewTable(output, "TIME", "CUR", "IMPACT", "EVENT", "ACTUAL", "FORECAST", "PREVIOUS")
		for _, e := range day.Entries {
			table.AddRow(e.Time, e.Currency, importanceLabel(output, e.Importance),
				TruncateString(e.Event, 48), e.Actual, e.Forecast, e.Previous)
		}
		table.Render()
	}
}

func importanceLabel(output *Output, label string) string {
	switch label {
	case "High":
		return output.Red(label)
	case "Medium":
		return output.Yellow(label)
	default:
		return output.DimText(label)
	}
}

func newHistoryCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history <currency>",
		Short: "Month-by-indicator history of a currency",
		Long: `Pivot the most recent years of a currency into one row per indicator and
one column per month. Each cell is the last value released in that month.
Rising values are red, falling values green and unchanged values yellow.

Use --xlsx to write the table to a spreadsheet instead.`,
		Example: `  econdash history USD
  econdash history EUR --years 3 --column forecast
  econdash history JPY --xlsx history_jpy.xlsx`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := commandContext(cmd)
			defer cancel()

			column, err := columnFromFlags(cmd)
			if err != nil {
				output.Error("%v", err)
				return err
			}
			years, _ := cmd.Flags().GetInt("years")
			if years <= 0 {
				err := fmt.Errorf("--years must be positive, got %d", years)
				output.Error("%v", err)
				return err
			}

			dashboard, err := app.Dashboard()
			if err != nil {
				output.Error("Failed to open dataset: %v", err)
				return err
			}
			table, err := dashboard.History(ctx, report.HistoryQuery{
				Currency: args[0],
				Column:   column,
				Years:    years,
			})
			if err != nil {
				output.Error("Failed to build history: %v", err)
				return err
			}

			if path, _ := cmd.Flags().GetString("xlsx"); path != "" {
				if err := writeHistoryFile(path, table); err != nil {
					output.Error("Failed to write %s: %v", path, err)
					return err
				}
				app.Logger.Info().Str("path", path).Str("currency", table.Currency).Msg("History exported")
				if output.IsJSON() {
					return output.JSON(map[string]interface{}{
						"path":        path,
						"indicators":  table.Indicators,
						"data_points": table.DataPoints,
					})
				}
				output.Success("✓ Wrote %s (%d indicators, %s data points)",
					path, table.Indicators, FormatCount(table.DataPoints))
				return nil
			}

			if output.IsJSON() {
				return output.JSON(table)
			}
			displayHistory(output, table)
			return nil
		},
	}

	addColumnFlag(cmd)
	cmd.Flags().Int("years", 2, "number of most recent years")
	cmd.Flags().String("xlsx", "", "write the table to this spreadsheet")
	return cmd
}

func writeHistoryFile(path string, table *report.HistoryTable) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := report.WriteHistoryXLSX(f, table); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func displayHistory(output *Output, table *report.HistoryTable) {
	output.Bold("%s history (%s)", table.Currency, table.Column)
	if len(table.Sections) == 0 {
		output.Dim("No categorised indicator has a value in this period.")
		return
	}

	headers := append([]string{"INDICATOR"}, table.Months...)
	for _, section := range table.Sections {
		output.Println()
		output.Printf("%s\n", output.Cyan(strings.ToUpper(section.Category)))
		t := NewTable(output, headers...)
		for _, row := range section.Rows {
			cells := make([]string, 0, len(row.Cells)+1)
			cells = append(cells, row.Tag)
			for _, c := range row.Cells {
				cells = append(cells, output.HistoryCell(c))
			}
			t.AddRow(cells...)
		}
		t.Render()
	}
	output.Println()
	output.Dim("%d indicators, %s data points", table.Indicators, FormatCount(table.DataPoints))
}
