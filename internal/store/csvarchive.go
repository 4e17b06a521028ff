package store

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gocarina/gocsv"

	"econdash/internal/errors"
	"econdash/internal/models"
	"econdash/pkg/utils"
)

const (
	monthFilePrefix  = "economic_data_"
	combinedFileName = "economic_data.csv"
)

// csvRow is the on-disk layout of one archived release.
type csvRow struct {
	ID         string `csv:"id"`
	Date       string `csv:"date"`
	Time       string `csv:"time"`
	Currency   string `csv:"currency"`
	Importance string `csv:"importance"`
	Event      string `csv:"event"`
	Actual     string `csv:"actual"`
	Forecast   string `csv:"forecast"`
	Previous   string `csv:"previous"`
}

func toRow(r models.EventRecord) csvRow {
	importance := ""
	if r.Importance != models.ImportanceUnknown {
		importance = r.Importance.String()
	}
	return csvRow{
		ID:         r.ID,
		Date:       r.Date.Format(utils.DayFirstLayout),
		Time:       r.Time,
		Currency:   r.Currency,
		Importance: importance,
		Event:      r.Event,
		Actual:     r.Actual,
		Forecast:   r.Forecast,
		Previous:   r.Previous,
	}
}

func (row csvRow) record() (models.EventRecord, error) {
	date, err := utils.ParseDayFirst(row.Date)
	if err != nil {
		return models.EventRecord{}, err
	}
	return models.EventRecord{
		ID:         strings.TrimSpace(row.ID),
		Date:       date,
		Time:       strings.TrimSpace(row.Time),
		Currency:   strings.ToUpper(strings.TrimSpace(row.Currency)),
		Importance: models.ParseImportance(row.Importance),
		Event:      strings.TrimSpace(row.Event),
		Actual:     row.Actual,
		Forecast:   row.Forecast,
		Previous:   row.Previous,
	}, nil
}

// CSVArchive keeps one CSV file per calendar month plus a combined file
// holding every month with exact duplicate rows removed.
type CSVArchive struct {
	dir string
}

// NewCSVArchive creates an archive rooted at dir. The directory is created
// on first write.
func NewCSVArchive(dir string) *CSVArchive {
	return &CSVArchive{dir: dir}
}

// Dir returns the archive directory.
func (a *CSVArchive) Dir() string {
	return a.dir
}

// MonthPath returns the file holding the month that contains month.
func (a *CSVArchive) MonthPath(month time.Time) string {
	return filepath.Join(a.dir, monthFilePrefix+utils.MonthKey(month)+".csv")
}

// CombinedPath returns the combined dataset file.
func (a *CSVArchive) CombinedPath() string {
	return filepath.Join(a.dir, combinedFileName)
}

// MonthModTime returns when the month file was last written, and false when
// it does not exist.
func (a *CSVArchive) MonthModTime(month time.Time) (time.Time, bool) {
	info, err := os.Stat(a.MonthPath(month))
	if err != nil {
		return time.Time{}, false
	}
	return info.ModTime(), true
}

// Months returns the months that have a file in the archive, oldest first.
func (a *CSVArchive) Months() ([]time.Time, error) {
	matches, err := filepath.Glob(filepath.Join(a.dir, monthFilePrefix+"*.csv"))
	if err != nil {
		return nil, fmt.Errorf("failed to list archive: %w", err)
	}

	var months []time.Time
	for _, path := range matches {
		key := strings.TrimSuffix(strings.TrimPrefix(filepath.Base(path), monthFilePrefix), ".csv")
		month, err := time.Parse(utils.MonthLayout, key)
		if err != nil {
			continue
		}
		months = append(months, month)
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Before(months[j]) })
	return months, nil
}

// WriteMonth replaces the file of the given month with records.
func (a *CSVArchive) WriteMonth(month time.Time, records []models.EventRecord) error {
	rows := make([]csvRow, len(records))
	for i, r := range EnsureIDs(records) {
		rows[i] = toRow(r)
	}
	return a.writeRows(a.MonthPath(month), rows)
}

// ReadMonth reads the file of the given month.
func (a *CSVArchive) ReadMonth(month time.Time) ([]models.EventRecord, error) {
	records, _, err := ReadFile(a.MonthPath(month))
	return records, err
}

// RebuildCombined merges every month file into the combined file, dropping
// exact duplicate rows and keeping the first occurrence. It returns the
// number of rows written.
func (a *CSVArchive) RebuildCombined() (int, error) {
	months, err := a.Months()
	if err != nil {
		return 0, err
	}

	seen := make(map[csvRow]struct{})
	var combined []csvRow
	for _, month := range months {
		rows, err := readRows(a.MonthPath(month))
		if err != nil {
			return 0, errors.NewDataError("month", utils.MonthKey(month), "failed to read archive file", err)
		}
		for _, row := range rows {
			if _, dup := seen[row]; dup {
				continue
			}
			seen[row] = struct{}{}
			combined = append(combined, row)
		}
	}

	if err := a.writeRows(a.CombinedPath(), combined); err != nil {
		return 0, err
	}
	return len(combined), nil
}

// Load reads the combined file. A missing file is an empty dataset.
func (a *CSVArchive) Load(ctx context.Context) ([]models.EventRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := os.Stat(a.CombinedPath()); os.IsNotExist(err) {
		return nil, nil
	}
	records, _, err := ReadFile(a.CombinedPath())
	return records, err
}

// writeRows writes rows to a temporary file and renames it over path.
func (a *CSVArchive) writeRows(path string, rows []csvRow) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create archive directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".econdash-*.csv")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := writeCSV(tmp, rows); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", filepath.Base(path), err)
	}
	return nil
}

func writeCSV(w io.Writer, rows []csvRow) error {
	if len(rows) == 0 {
		// header only
		_, err := io.WriteString(w, "id,date,time,currency,importance,event,actual,forecast,previous\n")
		return err
	}
	return gocsv.Marshal(&rows, w)
}

func readRows(path string) ([]csvRow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	// gocsv rejects input without data rows
	if bytes.Count(bytes.TrimSpace(data), []byte("\n")) == 0 {
		return nil, nil
	}

	var rows []csvRow
	if err := gocsv.Unmarshal(bytes.NewReader(data), &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// ReadFile reads an archive CSV file. Rows whose date cannot be parsed are
// dropped and counted; rows without an ID get one from EventID.
func ReadFile(path string) ([]models.EventRecord, int, error) {
	rows, err := readRows(path)
	if err != nil {
		return nil, 0, errors.NewDataError("csv", filepath.Base(path), "failed to read", err)
	}

	records := make([]models.EventRecord, 0, len(rows))
	dropped := 0
	for _, row := range rows {
		r, err := row.record()
		if err != nil {
			dropped++
			continue
		}
		records = append(records, r)
	}
	return EnsureIDs(records), dropped, nil
}

func statFile(path string) (time.Time, error) {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime(), nil
}
