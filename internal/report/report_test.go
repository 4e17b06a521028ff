package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"econdash/internal/errors"
	"econdash/internal/models"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func calendarRecords() []models.EventRecord {
	return []models.EventRecord{
		{ID: "1", Date: day(2024, 3, 12), Time: "12:30", Currency: "USD", Importance: models.ImportanceHigh, Event: "CPI (YoY) (Feb)", Actual: "3.2%", Forecast: "3.1%"},
		{ID: "2", Date: day(2024, 3, 12), Time: "07:00", Currency: "GBP", Importance: models.ImportanceMedium, Event: "Claimant Count Change", Forecast: "20.3K"},
		{ID: "3", Date: day(2024, 3, 12), Time: "08:30", Currency: "USD", Importance: models.ImportanceHigh, Event: "Core CPI (MoM) (Feb)"},
		{ID: "4", Date: day(2024, 3, 11), Time: "23:50", Currency: "JPY", Importance: models.ImportanceLow, Event: "BSI Large Manufacturing Conditions"},
		{ID: "5", Date: day(2024, 3, 20), Time: "18:00", Currency: "USD", Importance: models.ImportanceHigh, Event: "Fed Interest Rate Decision", Forecast: "5.50%"},
		{ID: "6", Date: day(2024, 2, 1), Time: "10:00", Currency: "EUR", Importance: models.ImportanceHigh, Event: "Outside the range"},
	}
}

func TestNormalizeImportance(t *testing.T) {
	assert.Equal(t, "High", NormalizeImportance("high"))
	assert.Equal(t, "Medium", NormalizeImportance(" MEDIUM "))
	assert.Equal(t, "Low", NormalizeImportance("Low"))
}

func TestBuildCalendar_GroupsAndOrders(t *testing.T) {
	days, err := BuildCalendar(calendarRecords(), CalendarQuery{
		From:       day(2024, 3, 10),
		To:         day(2024, 3, 31),
		Importance: []string{"high", "Medium"},
	})
	require.NoError(t, err)
	require.Len(t, days, 2)

	assert.Equal(t, "2024-03-12", days[0].Date)
	entries := days[0].Entries
	require.Len(t, entries, 3)
	assert.Equal(t, "Core CPI (MoM) (Feb)", entries[0].Event, "High sorted by time first")
	assert.Equal(t, "CPI (YoY) (Feb)", entries[1].Event)
	assert.Equal(t, "GBP", entries[2].Currency, "Medium after High")
	assert.Equal(t, "High", entries[0].Importance)

	assert.Equal(t, "--", entries[0].Display)
	assert.Equal(t, "3.2%", entries[1].Display)
	assert.Equal(t, "actual", entries[1].DisplayKind)
	assert.Equal(t, "20.3K", entries[2].Display)
	assert.Equal(t, "forecast", entries[2].DisplayKind)

	assert.Equal(t, "2024-03-20", days[1].Date)
}

func TestBuildCalendar_NoImportanceFilterKeepsAll(t *testing.T) {
	days, err := BuildCalendar(calendarRecords(), CalendarQuery{From: day(2024, 3, 11), To: day(2024, 3, 11)})
	require.NoError(t, err)
	require.Len(t, days, 1)
	assert.Equal(t, "Low", days[0].Entries[0].Importance)
}

func TestBuildCalendar_CurrencyFilter(t *testing.T) {
	days, err := BuildCalendar(calendarRecords(), CalendarQuery{Currencies: []string{"usd"}})
	require.NoError(t, err)
	for _, d := range days {
		for _, e := range d.Entries {
			assert.Equal(t, "USD", e.Currency)
		}
	}
}

func TestBuildCalendar_InvertedRange(t *testing.T) {
	_, err := BuildCalendar(calendarRecords(), CalendarQuery{From: day(2024, 4, 1), To: day(2024, 3, 1)})
	var verr *errors.ValidationError
	assert.True(t, errors.As(err, &verr))
}

func TestDefaultCalendarQuery(t *testing.T) {
	q := DefaultCalendarQuery(time.Date(2024, 3, 12, 15, 4, 0, 0, time.UTC))
	assert.Equal(t, day(2024, 3, 5), q.From)
	assert.Equal(t, day(2024, 4, 11), q.To)
	assert.Equal(t, []string{"High", "Medium"}, q.Importance)
}

func nr(currency, tag string, date time.Time, actual models.Value) models.NormalizedRecord {
	return models.NormalizedRecord{
		Currency: currency,
		Tag:      tag,
		Date:     date,
		Actual:   models.Field{Value: actual},
	}
}

func historyRecords() []models.NormalizedRecord {
	return []models.NormalizedRecord{
		nr("USD", "CPI (YoY)", day(2022, 12, 13), models.Some(6.5)),
		nr("USD", "CPI (YoY)", day(2023, 1, 12), models.Some(6.4)),
		nr("USD", "CPI (YoY)", day(2024, 1, 11), models.Some(3.4)),
		nr("USD", "CPI (YoY)", day(2024, 2, 13), models.Some(3.1)),
		nr("USD", "CPI (YoY)", day(2024, 3, 12), models.Some(3.2)),
		nr("USD", "CPI (YoY)", day(2024, 3, 28), models.Some(3.25)),
		nr("USD", "CPI (YoY)", day(2024, 4, 10), models.Missing()),
		nr("USD", "Unemployment Rate", day(2024, 2, 2), models.Some(3.7)),
		nr("USD", "Unemployment Rate", day(2024, 3, 8), models.Some(3.9)),
		nr("USD", "Unemployment Rate", day(2024, 4, 5), models.Some(3.9)),
		nr("USD", "Some Other Tag", day(2024, 3, 1), models.Some(1)),
		nr("JPY", "CPI (YoY)", day(2024, 3, 1), models.Some(2.8)),
	}
}

func TestBuildHistory_Pivot(t *testing.T) {
	table, err := BuildHistory(historyRecords(), HistoryQuery{Currency: "usd"})
	require.NoError(t, err)

	assert.Equal(t, []int{2023, 2024}, table.Years)
	assert.Equal(t, []string{"2023-01", "2024-01", "2024-02", "2024-03", "2024-04"}, table.Months)
	assert.Equal(t, 2, table.Indicators)

	require.Len(t, table.Sections, 2)
	assert.Equal(t, "Employment", table.Sections[0].Category)
	assert.Equal(t, "Prices", table.Sections[1].Category)

	cpi := table.Sections[1].Rows[0]
	assert.Equal(t, "CPI (YoY)", cpi.Tag)
	texts := make([]string, len(cpi.Cells))
	for i, c := range cpi.Cells {
		texts[i] = c.Text
	}
	assert.Equal(t, []string{"6.40", "3.40", "3.10", "3.25", "--"}, texts, "last value of the month, missing shown as --")

	assert.Equal(t, DirectionNone, cpi.Cells[0].Direction)
	assert.Equal(t, DirectionDown, cpi.Cells[1].Direction)
	assert.Equal(t, DirectionDown, cpi.Cells[2].Direction)
	assert.Equal(t, DirectionUp, cpi.Cells[3].Direction)

	unemployment := table.Sections[0].Rows[0]
	assert.Equal(t, MissingCell, unemployment.Cells[0].Text)
	assert.Equal(t, DirectionUp, unemployment.Cells[3].Direction)
	assert.Equal(t, DirectionFlat, unemployment.Cells[4].Direction)
}

func TestBuildHistory_UnknownCurrency(t *testing.T) {
	_, err := BuildHistory(historyRecords(), HistoryQuery{Currency: "CHF"})
	assert.True(t, errors.Is(err, errors.ErrUnknownCurrency))
}

func TestBuildHistory_DirectionSkipsGaps(t *testing.T) {
	cells := []HistoryCell{
		newCell(models.Some(2)),
		newCell(models.Missing()),
		newCell(models.Some(1.999)),
		newCell(models.Some(2.5)),
	}
	markDirections(cells)
	assert.Equal(t, DirectionFlat, cells[2].Direction, "compared at two decimals")
	assert.Equal(t, DirectionUp, cells[3].Direction)
	assert.Equal(t, DirectionNone, cells[1].Direction)
}

func TestWriteHistoryXLSX(t *testing.T) {
	table, err := BuildHistory(historyRecords(), HistoryQuery{Currency: "USD"})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteHistoryXLSX(&buf, table))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"USD"}, f.GetSheetList())

	header, err := f.GetCellValue("USD", "C1")
	require.NoError(t, err)
	assert.Equal(t, "2023-01", header)

	category, err := f.GetCellValue("USD", "A2")
	require.NoError(t, err)
	assert.Equal(t, "Employment", category)

	tag, err := f.GetCellValue("USD", "B3")
	require.NoError(t, err)
	assert.Equal(t, "Unemployment Rate", tag)

	missing, err := f.GetCellValue("USD", "C3")
	require.NoError(t, err)
	assert.Equal(t, "--", missing)
}
