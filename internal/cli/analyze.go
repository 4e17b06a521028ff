package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"econdash/internal/analysis"
	"econdash/internal/errors"
	"econdash/internal/models"
	"econdash/pkg/utils"
)

const dateLayout = "2006-01-02"

// addAnalysisCommands adds the dataset views.
func addAnalysisCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newSummaryCmd(app))
	rootCmd.AddCommand(newCurrenciesCmd(app))
	rootCmd.AddCommand(newTagsCmd(app))
	rootCmd.AddCommand(newGroupsCmd(app))
	rootCmd.AddCommand(newSeriesCmd(app))
	rootCmd.AddCommand(newIndicatorCmd(app))
	rootCmd.AddCommand(newCoverageCmd(app))
}

// addColumnFlag registers --column.
func addColumnFlag(cmd *cobra.Command) {
	cmd.Flags().String("column", string(models.ColumnActual), "value column: actual, forecast or previous")
}

// addFilterFlags registers the flags read by filterFromFlags.
func addFilterFlags(cmd *cobra.Command) {
	addColumnFlag(cmd)
	cmd.Flags().StringSlice("importance", nil, "importance levels to keep (High, Medium, Low)")
	cmd.Flags().Bool("full-coverage", false, "only indicators released by every tracked region")
	cmd.Flags().String("from", "", "first release date (YYYY-MM-DD)")
	cmd.Flags().String("to", "", "last release date (YYYY-MM-DD)")
}

func columnFromFlags(cmd *cobra.Command) (models.ValueColumn, error) {
	raw, _ := cmd.Flags().GetString("column")
	column, ok := models.ParseValueColumn(raw)
	if !ok {
		return "", fmt.Errorf("%w: %q", errors.ErrUnknownColumn, raw)
	}
	return column, nil
}

func dateFromFlag(cmd *cobra.Command, name string) (time.Time, error) {
	raw, _ := cmd.Flags().GetString(name)
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, errors.NewValidationError(name, raw, "expected YYYY-MM-DD")
	}
	return t, nil
}

func rangeFromFlags(cmd *cobra.Command) (from, to time.Time, err error) {
	if from, err = dateFromFlag(cmd, "from"); err != nil {
		return
	}
	if to, err = dateFromFlag(cmd, "to"); err != nil {
		return
	}
	if !from.IsZero() && !to.IsZero() && from.After(to) {
		err = errors.NewValidationError("from", from.Format(dateLayout), "start date is after end date")
	}
	return
}

func filterFromFlags(cmd *cobra.Command) (analysis.Filter, error) {
	var f analysis.Filter
	levels, _ := cmd.Flags().GetStringSlice("importance")
	for _, level := range levels {
		imp := models.ParseImportance(level)
		if imp == models.ImportanceUnknown {
			return f, errors.NewValidationError("importance", level, "expected High, Medium or Low")
		}
		f.Importance = append(f.Importance, imp)
	}
	f.FullCoverageOnly, _ = cmd.Flags().GetBool("full-coverage")

	from, to, err := rangeFromFlags(cmd)
	if err != nil {
		return f, err
	}
	f.From, f.To = from, to
	return f, nil
}

func newSummaryCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Summarize the normalized dataset",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := commandContext(cmd)
			defer cancel()

			dashboard, err := app.Dashboard()
			if err != nil {
				output.Error("Failed to open dataset: %v", err)
				return err
			}
			summary, err := dashboard.Summary(ctx)
			if err != nil {
				output.Error("Failed to summarize dataset: %v", err)
				return err
			}
			if output.IsJSON() {
				return output.JSON(summary)
			}
			displaySummary(output, summary)
			return nil
		},
	}
}

func displaySummary(output *Output, s analysis.Summary) {
	output.Bold("Dataset")
	output.Printf("  Releases:        %s\n", FormatCount(s.Records))
	output.Printf("  Period:          %s .. %s\n", FormatDate(s.From), FormatDate(s.To))
	output.Printf("  Currencies:      %s\n", strings.Join(s.Currencies, " "))
	output.Printf("  Missing actual:  %s\n", FormatCount(s.MissingActual))
	output.Println()

	levels := NewTable(output, "IMPORTANCE", "RELEASES")
	for _, imp := range []models.Importance{models.ImportanceHigh, models.ImportanceMedium, models.ImportanceLow} {
		levels.AddRow(output.Importance(imp), FormatCount(s.Importance[imp.String()]))
	}
	levels.Render()
	output.Println()

	output.Bold("Top Indicators")
	table := NewTable(output, "TAG", "RELEASES")
	for i, tc := range s.Tags {
		if i == 10 {
			break
		}
		table.AddRow(tc.Tag, FormatCount(tc.Count))
	}
	table.Render()
	output.Println()

	output.Printf("  %d of %d indicators are released by all of %s\n",
		len(s.FullCoverage), len(s.Tags), strings.Join(s.TrackedRegions, ", "))
}

func newCurrenciesCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "currencies",
		Short: "List currencies in the dataset",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := commandContext(cmd)
			defer cancel()

			dashboard, err := app.Dashboard()
			if err != nil {
				output.Error("Failed to open dataset: %v", err)
				return err
			}
			currencies, err := dashboard.Currencies(ctx)
			if err != nil {
				output.Error("Failed to list currencies: %v", err)
				return err
			}
			if output.IsJSON() {
				return output.JSON(currencies)
			}

			table := NewTable(output, "CODE", "REGION", "RELEASES", "INDICATORS", "TRACKED")
			for _, c := range currencies {
				tracked := output.DimText("no")
				if c.Tracked {
					tracked = output.Green("yes")
				}
				table.AddRow(c.Code, c.Name, FormatCount(c.Records), FormatCount(c.Tags), tracked)
			}
			table.Render()
			return nil
		},
	}
}

func newTagsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "tags [currency]",
		Short: "List indicator tags with release counts",
		Example: `  econdash tags
  econdash tags USD`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := commandContext(cmd)
			defer cancel()

			dashboard, err := app.Dashboard()
			if err != nil {
				output.Error("Failed to open dataset: %v", err)
				return err
			}

			var tags []analysis.TagCount
			if len(args) == 1 {
				tags, err = dashboard.Tags(ctx, args[0])
			} else {
				var summary analysis.Summary
				summary, err = dashboard.Summary(ctx)
				tags = summary.Tags
			}
			if err != nil {
				output.Error("Failed to list tags: %v", err)
				return err
			}
			if output.IsJSON() {
				return output.JSON(tags)
			}

			table := NewTable(output, "TAG", "RELEASES")
			for _, tc := range tags {
				table.AddRow(tc.Tag, FormatCount(tc.Count))
			}
			table.Render()
			return nil
		},
	}
}

func newGroupsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "groups <currency>",
		Short: "Group a currency's indicators by scale",
		Long: `Split every indicator of a currency into panels whose values share a
magnitude, so each panel can be drawn on one axis. Series are gap-repaired.`,
		Example: `  econdash groups USD
  econdash groups EUR --column forecast --importance High
  econdash groups JPY --full-coverage --from 2024-01-01`,
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
			filter, err := filterFromFlags(cmd)
			if err != nil {
				output.Error("%v", err)
				return err
			}

			dashboard, err := app.Dashboard()
			if err != nil {
				output.Error("Failed to open dataset: %v", err)
				return err
			}
			view, err := dashboard.CurrencyView(ctx, args[0], column, filter)
			if err != nil {
				output.Error("Failed to build view: %v", err)
				return err
			}
			if output.IsJSON() {
				return output.JSON(view)
			}
			displayCurrencyView(output, view)
			return nil
		},
	}

	addFilterFlags(cmd)
	return cmd
}

func displayCurrencyView(output *Output, view analysis.CurrencyView) {
	output.Bold("%s indicators (%s)", view.Currency, view.Column)
	if len(view.Panels) == 0 {
		output.Dim("No indicator has a value in this selection.")
		return
	}

	for _, panel := range view.Panels {
		output.Println()
		output.Printf("%s  %s\n", output.Cyan(panel.Group.Label), output.DimText(panel.Group.Kind.String()))

		table := NewTable(output, "TAG", "POINTS", "MIN", "MAX", "MEAN", "LATEST")
		for _, s := range panel.Series {
			stats := view.Stats[s.Tag]
			latest := MissingValue
			if n := len(s.Points); n > 0 {
				latest = FormatValue(s.Points[n-1].Value)
			}
			table.AddRow(s.Tag, FormatCount(stats.Count),
				FormatNumber(stats.Min), FormatNumber(stats.Max), FormatNumber(stats.Mean), latest)
		}
		table.Render()
	}
}

func newSeriesCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "series <currency> <tag>",
		Short: "Show the repaired series of one indicator",
		Example: `  econdash series USD "CPI (YoY)"
  econdash series GBP "Unemployment Rate" --column forecast --json`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := commandContext(cmd)
			defer cancel()

			column, err := columnFromFlags(cmd)
			if err != nil {
				output.Error("%v", err)
				return err
			}

			dashboard, err := app.Dashboard()
			if err != nil {
				output.Error("Failed to open dataset: %v", err)
				return err
			}
			series, err := dashboard.Series(ctx, args[0], args[1], column)
			if err != nil {
				output.Error("Failed to build series: %v", err)
				return err
			}
			if output.IsJSON() {
				return output.JSON(series)
			}
			displaySeries(output, series)
			return nil
		},
	}

	addColumnFlag(cmd)
	return cmd
}

func displaySeries(output *Output, s models.IndicatorSeries) {
	output.Bold("%s %s (%s)", s.Currency, s.Tag, s.Column)
	table := NewTable(output, "DATE", "TIME", "IMPORTANCE", "VALUE", "CHANGE")
	prev := models.Missing()
	for _, p := range s.Points {
		value, change := FormatValue(p.Value), ""
		switch {
		case p.Value.IsMissing():
			value = output.DimText(value)
		case !prev.IsMissing():
			change = utils.FormatChange(p.Value.Float - prev.Float)
		}
		if !p.Value.IsMissing() {
			prev = p.Value
		}
		table.AddRow(FormatDate(p.Date), p.Time, output.Importance(p.Importance), value, change)
	}
	table.Render()
}

func newIndicatorCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "indicator <tag>",
		Short: "Compare one indicator across currencies",
		Example: `  econdash indicator "Interest Rate"
  econdash indicator "Manufacturing PMI" --from 2023-01-01`,
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
			filter, err := filterFromFlags(cmd)
			if err != nil {
				output.Error("%v", err)
				return err
			}

			dashboard, err := app.Dashboard()
			if err != nil {
				output.Error("Failed to open dataset: %v", err)
				return err
			}
			view, err := dashboard.IndicatorView(ctx, args[0], column, filter)
			if err != nil {
				output.Error("Failed to build view: %v", err)
				return err
			}
			if output.IsJSON() {
				return output.JSON(view)
			}

			output.Bold("%s (%s)", view.Tag, view.Column)
			output.Dim("Axis: %s", view.Axis.Title)
			table := NewTable(output, "CURRENCY", "POINTS", "FIRST", "LAST", "LATEST")
			for _, s := range view.Series {
				if len(s.Points) == 0 {
					continue
				}
				first, last := s.Points[0], s.Points[len(s.Points)-1]
				table.AddRow(s.Currency, FormatCount(len(s.Points)),
					FormatDate(first.Date), FormatDate(last.Date), FormatValue(last.Value))
			}
			table.Render()
			return nil
		},
	}

	addFilterFlags(cmd)
	return cmd
}

func newCoverageCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "coverage",
		Short: "Show which tracked regions release each indicator",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := commandContext(cmd)
			defer cancel()

			dashboard, err := app.Dashboard()
			if err != nil {
				output.Error("Failed to open dataset: %v", err)
				return err
			}
			report, err := dashboard.Coverage(ctx)
			if err != nil {
				output.Error("Failed to compute coverage: %v", err)
				return err
			}
			if output.IsJSON() {
				return output.JSON(report)
			}

			fullOnly, _ := cmd.Flags().GetBool("full-only")
			table := NewTable(output, "TAG", "REGIONS", "MISSING")
			for _, row := range report.Matrix {
				if fullOnly && !row.Full {
					continue
				}
				missing := output.Green("-")
				if len(row.Missing) > 0 {
					missing = output.Yellow(strings.Join(row.Missing, " "))
				}
				table.AddRow(row.Tag, fmt.Sprintf("%d/%d", len(row.Regions), len(report.Regions)), missing)
			}
			table.Render()
			output.Println()
			output.Printf("  Full coverage: %d indicators across %s\n",
				len(report.FullCoverage), strings.Join(report.Regions, ", "))
			return nil
		},
	}

	cmd.Flags().Bool("full-only", false, "only show fully covered indicators")
	return cmd
}
