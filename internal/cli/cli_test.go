package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const sampleCSV = `id,date,time,currency,importance,event,actual,forecast,previous
,11/01/2024,13:30,USD,High,CPI (YoY) (Dec),3.4%,3.2%,3.1%
,13/02/2024,13:30,USD,High,CPI (YoY) (Jan),3.1%,2.9%,3.4%
,12/03/2024,12:30,USD,High,CPI (YoY) (Feb),3.2%,3.1%,3.1%
,08/03/2024,13:30,USD,High,Unemployment Rate (Feb),3.9%,3.7%,3.7%
,01/03/2024,00:30,JPY,Medium,Unemployment Rate (Jan),2.4%,2.5%,2.5%
,31/02/2024,09:00,EUR,Low,Not A Date,,,
,06/03/2024,09:00,,Low,Orphan,,,
`

// runCmd executes the CLI against configDir and returns what it printed.
func runCmd(t *testing.T, configDir string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", configDir, "--no-color"}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

// importSample writes the sample CSV and imports it into a fresh config dir.
func importSample(t *testing.T, extra ...string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "sample.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0o644))

	args := append([]string{"import", path, "--json"}, extra...)
	out, err := runCmd(t, dir, args...)
	require.NoError(t, err, out)
	return dir
}

func TestVersionJSON(t *testing.T) {
	out, err := runCmd(t, t.TempDir(), "version", "--json")
	require.NoError(t, err)

	var got map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, Version, got["version"])
}

func TestConfigValidateWritesTemplate(t *testing.T) {
	dir := t.TempDir()
	out, err := runCmd(t, dir, "config", "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration is valid")
	assert.FileExists(t, filepath.Join(dir, "config.toml"))
}

func TestImportCountsRejectedRows(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sample.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0o644))

	out, err := runCmd(t, dir, "import", path, "--archive", "--json")
	require.NoError(t, err, out)

	var got struct {
		Files    []importResult `json:"files"`
		Combined int            `json:"combined"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got.Files, 1)
	assert.Equal(t, 5, got.Files[0].Imported)
	assert.Equal(t, 2, got.Files[0].Rejected)
	assert.Equal(t, 5, got.Combined)

	assert.FileExists(t, filepath.Join(dir, "data", "economic_data_2024-03.csv"))
	assert.FileExists(t, filepath.Join(dir, "data", "economic_data.csv"))
}

func TestImportArchiveTwiceKeepsOneCopy(t *testing.T) {
	dir := importSample(t, "--archive")
	path := filepath.Join(dir, "sample.csv")

	out, err := runCmd(t, dir, "import", path, "--archive", "--json")
	require.NoError(t, err, out)

	var got struct {
		Combined int `json:"combined"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, 5, got.Combined)
}

func TestImportTwiceUpserts(t *testing.T) {
	dir := importSample(t)
	path := filepath.Join(dir, "sample.csv")
	_, err := runCmd(t, dir, "import", path)
	require.NoError(t, err)

	out, err := runCmd(t, dir, "summary", "--json")
	require.NoError(t, err)
	var summary struct {
		Records    int      `json:"records"`
		Currencies []string `json:"currencies"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	assert.Equal(t, 5, summary.Records)
	assert.Equal(t, []string{"JPY", "USD"}, summary.Currencies)
}

func TestTagsAndSeries(t *testing.T) {
	dir := importSample(t)

	out, err := runCmd(t, dir, "tags", "usd", "--json")
	require.NoError(t, err, out)
	var tags []struct {
		Tag   string `json:"tag"`
		Count int    `json:"count"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &tags))
	require.NotEmpty(t, tags)
	assert.Equal(t, "CPI (YoY)", tags[0].Tag)
	assert.Equal(t, 3, tags[0].Count)

	out, err = runCmd(t, dir, "series", "USD", "CPI (YoY)", "--column", "forecast", "--json")
	require.NoError(t, err, out)
	var series struct {
		Column string `json:"column"`
		Points []struct {
			Value json.RawMessage `json:"value"`
		} `json:"points"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &series))
	assert.Equal(t, "forecast", series.Column)
	assert.Len(t, series.Points, 3)
}

func TestViewsRejectBadInput(t *testing.T) {
	dir := importSample(t)

	tests := []struct {
		name string
		args []string
	}{
		{"unknown column", []string{"series", "USD", "CPI (YoY)", "--column", "median"}},
		{"unknown currency", []string{"tags", "NZD"}},
		{"inverted range", []string{"groups", "USD", "--from", "2024-03-01", "--to", "2024-01-01"}},
		{"bad date", []string{"groups", "USD", "--from", "March"}},
		{"bad importance", []string{"groups", "USD", "--importance", "urgent"}},
		{"no years", []string{"history", "USD", "--years", "0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runCmd(t, dir, tt.args...)
			assert.Error(t, err)
		})
	}
}

func TestGroupsText(t *testing.T) {
	dir := importSample(t)

	out, err := runCmd(t, dir, "groups", "USD")
	require.NoError(t, err, out)
	assert.Contains(t, out, "USD indicators (actual)")
	assert.Contains(t, out, "CPI (YoY)")
	assert.Contains(t, out, "Unemployment Rate")
}

func TestCalendarWindow(t *testing.T) {
	dir := importSample(t)

	out, err := runCmd(t, dir, "calendar", "--from", "2024-03-01", "--to", "2024-03-10",
		"--importance", "High,Medium,Low", "--json")
	require.NoError(t, err, out)

	var days []struct {
		Date    string `json:"date"`
		Entries []struct {
			Currency string `json:"currency"`
		} `json:"entries"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &days))
	require.Len(t, days, 2)
	assert.Equal(t, "2024-03-01", days[0].Date)
	assert.Equal(t, "2024-03-08", days[1].Date)
}

func TestHistoryExport(t *testing.T) {
	dir := importSample(t)
	path := filepath.Join(dir, "usd.xlsx")

	out, err := runCmd(t, dir, "history", "USD", "--xlsx", path, "--json")
	require.NoError(t, err, out)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	assert.NotEmpty(t, f.GetSheetList())
}

func TestCoverageFullOnly(t *testing.T) {
	dir := importSample(t)

	out, err := runCmd(t, dir, "coverage", "--json")
	require.NoError(t, err, out)

	var report struct {
		Regions []string `json:"regions"`
		Matrix  []struct {
			Tag  string `json:"tag"`
			Full bool   `json:"full"`
		} `json:"matrix"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, []string{"USD", "JPY", "EUR", "GBP", "AUD"}, report.Regions)
	for _, row := range report.Matrix {
		assert.False(t, row.Full, row.Tag)
	}
}

func TestHelpCommands(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"commands", "examples", "quickstart"} {
		out, err := runCmd(t, dir, name)
		require.NoError(t, err, name)
		assert.Contains(t, out, "econdash", name)
	}
}
