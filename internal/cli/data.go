package cli

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"econdash/internal/analysis"
	"econdash/internal/logging"
	"econdash/internal/models"
	"econdash/internal/store"
	"econdash/pkg/utils"
)

// addDataCommands adds dataset maintenance commands.
func addDataCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newImportCmd(app))
	rootCmd.AddCommand(newRefreshCmd(app))
	rootCmd.AddCommand(newStatusCmd(app))
}

// importResult is the outcome of one imported file.
type importResult struct {
	Path     string `json:"path"`
	Imported int    `json:"imported"`
	Rejected int    `json:"rejected"`
}

func newImportCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file.csv>...",
		Short: "Import calendar CSV files",
		Long: `Import releases from CSV files with the columns
id,date,time,currency,importance,event,actual,forecast,previous
and dates written day first (dd/mm/yyyy).

Rows with an unparseable date, no currency or no date are rejected.
Releases are upserted into the SQLite store; with --archive they are also
merged into the monthly CSV files and the combined file is rebuilt.`,
		Example: `  econdash import economic_data.csv
  econdash import data/economic_data_2024-*.csv --archive`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := commandContext(cmd)
			defer cancel()

			st, err := app.Store()
			if err != nil {
				output.Error("Failed to open store: %v", err)
				return err
			}
			toArchive, _ := cmd.Flags().GetBool("archive")
			pipeline := analysis.New()

			var results []importResult
			var all []models.EventRecord
			for _, path := range args {
				records, dropped, err := store.ReadFile(path)
				if err != nil {
					output.Error("Failed to read %s: %v", path, err)
					return err
				}

				valid := records[:0]
				for i, r := range records {
					if err := pipeline.ValidateRecord(i, r); err != nil {
						dropped++
						app.Logger.Debug().Err(err).Str("path", path).Msg("Rejected row")
						continue
					}
					valid = append(valid, r)
				}

				if err := st.SaveEvents(ctx, valid); err != nil {
					output.Error("Failed to save %s: %v", path, err)
					return err
				}
				logging.LogImport(app.Logger, path, len(valid), dropped)
				results = append(results, importResult{Path: path, Imported: len(valid), Rejected: dropped})
				all = append(all, valid...)
			}

			combined := 0
			if toArchive {
				if combined, err = archiveRecords(app.Archive(), all); err != nil {
					output.Error("Failed to update archive: %v", err)
					return err
				}
			}

			if output.IsJSON() {
				return output.JSON(map[string]interface{}{
					"files":    results,
					"combined": combined,
				})
			}

			table := NewTable(output, "FILE", "IMPORTED", "REJECTED")
			for _, r := range results {
				rejected := FormatCount(r.Rejected)
				if r.Rejected > 0 {
					rejected = output.Yellow(rejected)
				}
				table.AddRow(r.Path, FormatCount(r.Imported), rejected)
			}
			table.Render()
			if toArchive {
				output.Dim("Combined file rebuilt with %s releases", FormatCount(combined))
			}
			output.Success("✓ Import complete")
			return nil
		},
	}

	cmd.Flags().Bool("archive", false, "also merge into the monthly CSV archive")
	return cmd
}

// archiveRecords merges records into their month files and rebuilds the
// combined file.
func archiveRecords(archive *store.CSVArchive, records []models.EventRecord) (int, error) {
	byMonth := make(map[string][]models.EventRecord)
	starts := make(map[string]models.EventRecord)
	for _, r := range records {
		key := utils.MonthKey(r.Date)
		byMonth[key] = append(byMonth[key], r)
		starts[key] = r
	}

	keys := make([]string, 0, len(byMonth))
	for k := range byMonth {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		month, _ := utils.MonthBounds(starts[key].Date)
		merged := byMonth[key]
		if _, ok := archive.MonthModTime(month); ok {
			existing, err := archive.ReadMonth(month)
			if err != nil {
				return 0, err
			}
			merged = mergeByID(existing, merged)
		}
		if err := archive.WriteMonth(month, merged); err != nil {
			return 0, fmt.Errorf("failed to write %s: %w", key, err)
		}
	}
	return archive.RebuildCombined()
}

// mergeByID appends incoming to existing; an incoming record replaces the
// existing one with the same ID in place.
func mergeByID(existing, incoming []models.EventRecord) []models.EventRecord {
	pos := make(map[string]int, len(existing))
	out := make([]models.EventRecord, 0, len(existing)+len(incoming))
	for _, r := range store.EnsureIDs(existing) {
		pos[r.ID] = len(out)
		out = append(out, r)
	}
	for _, r := range incoming {
		if i, ok := pos[r.ID]; ok {
			out[i] = r
			continue
		}
		pos[r.ID] = len(out)
		out = append(out, r)
	}
	return out
}

func newRefreshCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Download stale months from the calendar provider",
		Long: `Download every month in the configured window whose file is missing or
older than data.stale_after, rebuild the combined file and update the store.

Use --force to download every month regardless of age.`,
		Example: `  econdash refresh
  econdash refresh --force --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			dashboard, err := app.Dashboard()
			if err != nil {
				output.Error("Failed to open dataset: %v", err)
				return err
			}
			force, _ := cmd.Flags().GetBool("force")

			report, err := dashboard.Refresh(ctx, force)
			if report != nil {
				if output.IsJSON() {
					if jerr := output.JSON(report); jerr != nil {
						return jerr
					}
				} else {
					displayRefresh(output, report)
				}
			}
			if err != nil {
				output.Error("Refresh failed: %v", err)
				return err
			}
			return nil
		},
	}

	cmd.Flags().Bool("force", false, "download every month regardless of age")
	return cmd
}

func displayRefresh(output *Output, report *store.RefreshReport) {
	table := NewTable(output, "MONTH", "RECORDS", "STATUS")
	for _, m := range report.Months {
		status := output.Green("refreshed")
		switch {
		case m.Error != "":
			status = output.Red(TruncateString(m.Error, 60))
		case m.Skipped:
			status = output.DimText("fresh")
		case m.Empty:
			status = output.Yellow("empty")
		}
		table.AddRow(m.Month, FormatCount(m.Records), status)
	}
	table.Render()
	output.Println()

	output.Printf("  Refreshed: %d  Skipped: %d  Empty: %d  Failed: %d\n",
		report.Refreshed, report.Skipped, report.Empty, report.Failed)
	output.Printf("  Fetched:   %s releases, combined file %s releases\n",
		FormatCount(report.Fetched), FormatCount(report.Combined))
	output.Dim("  Took %s", FormatDuration(report.Duration))
}

func newStatusCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show dataset freshness and health",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := commandContext(cmd)
			defer cancel()

			dashboard, err := app.Dashboard()
			if err != nil {
				output.Error("Failed to open dataset: %v", err)
				return err
			}
			health := dashboard.Health(ctx)
			if output.IsJSON() {
				return output.JSON(health)
			}

			switch health.Status {
			case "ok":
				output.Success("● %s", health.Freshness)
			case "stale":
				output.Warning("● %s", health.Freshness)
			default:
				output.Error("● %s", health.Error)
				return nil
			}
			output.Printf("  Releases:  %s\n", FormatCount(health.Records))
			if health.Rejected > 0 {
				output.Printf("  Rejected:  %s\n", output.Yellow(FormatCount(health.Rejected)))
			}
			output.Printf("  Source:    %s\n", app.Config.Data.Source)
			return nil
		},
	}
}
