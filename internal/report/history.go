package report

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"econdash/internal/errors"
	"econdash/internal/models"
	"econdash/pkg/utils"
)

// Category is a named, ordered list of indicator tags shown together.
type Category struct {
	Name string   `mapstructure:"name" json:"name"`
	Tags []string `mapstructure:"tags" json:"tags"`
}

// DefaultCategories returns the history table layout.
func DefaultCategories() []Category {
	return []Category{
		{Name: "Employment", Tags: []string{"Unemployment Rate", "Employment Change", "Jobless Claims", "Job Cuts (YoY)"}},
		{Name: "Prices", Tags: []string{
			"CPI (YoY)", "CPI (MoM)", "Core CPI (YoY)", "Core CPI (MoM)",
			"National CPI (YoY)", "National CPI (MoM)", "Tokyo CPI (YoY)", "Tokyo CPI (MoM)",
			"PPI (YoY)", "PPI (MoM)",
		}},
		{Name: "Growth", Tags: []string{"GDP (QoQ)", "GDP (YoY)", "Trade Balance", "Manufacturing PMI", "Services PMI", "Composite PMI"}},
		{Name: "Manufacturing", Tags: []string{"Industrial Production (YoY)", "Industrial Production (MoM)", "Factory Orders", "Building Permits", "Housing Starts"}},
		{Name: "Policy Rate", Tags: []string{"Interest Rate"}},
		{Name: "Consumption", Tags: []string{"Retail Sales (YoY)", "Retail Sales (MoM)", "Housing Prices (YoY)", "Housing Prices (MoM)", "Consumer Confidence"}},
	}
}

// Direction compares a cell with the previous present cell of its row.
type Direction string

const (
	DirectionNone Direction = ""
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
	DirectionFlat Direction = "flat"
)

// MissingCell is the text of a month without a release.
const MissingCell = "--"

// HistoryQuery selects one currency's history table.
type HistoryQuery struct {
	Currency   string
	Column     models.ValueColumn
	Years      int
	Categories []Category
}

// HistoryCell is one month of one indicator.
type HistoryCell struct {
	Value     models.Value `json:"value"`
	Text      string       `json:"text"`
	Direction Direction    `json:"direction,omitempty"`
}

// HistoryRow is one indicator across the table's months.
type HistoryRow struct {
	Tag   string        `json:"tag"`
	Cells []HistoryCell `json:"cells"`
}

// HistorySection is one category of the table.
type HistorySection struct {
	Category string       `json:"category"`
	Rows     []HistoryRow `json:"rows"`
}

// HistoryTable is a month-by-indicator pivot of one currency.
type HistoryTable struct {
	Currency   string             `json:"currency"`
	Column     models.ValueColumn `json:"column"`
	Years      []int              `json:"years"`
	Months     []string           `json:"months"`
	Sections   []HistorySection   `json:"sections"`
	Indicators int                `json:"indicators"`
	DataPoints int                `json:"data_points"`
}

type monthTag struct {
	month string
	tag   string
}

// BuildHistory pivots the most recent years of a currency into one row per
// categorised indicator and one column per month. A cell holds the last
// present value released in that month, printed with two decimals, or "--".
// Only months and indicators with at least one value are kept.
func BuildHistory(records []models.NormalizedRecord, q HistoryQuery) (*HistoryTable, error) {
	currency := strings.ToUpper(strings.TrimSpace(q.Currency))
	if q.Years <= 0 {
		q.Years = 2
	}
	if q.Column == "" {
		q.Column = models.ColumnActual
	}
	if len(q.Categories) == 0 {
		q.Categories = DefaultCategories()
	}

	var own []models.NormalizedRecord
	yearSeen := make(map[int]bool)
	for _, r := range records {
		if r.Currency != currency || r.Date.IsZero() {
			continue
		}
		own = append(own, r)
		yearSeen[r.Date.Year()] = true
	}
	if len(own) == 0 {
		return nil, fmt.Errorf("%w: %s", errors.ErrUnknownCurrency, currency)
	}

	years := make([]int, 0, len(yearSeen))
	for y := range yearSeen {
		years = append(years, y)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(years)))
	if len(years) > q.Years {
		years = years[:q.Years]
	}
	keepYear := make(map[int]bool, len(years))
	for _, y := range years {
		keepYear[y] = true
	}

	wanted := make(map[string]bool)
	for _, c := range q.Categories {
		for _, tag := range c.Tags {
			wanted[tag] = true
		}
	}

	sort.SliceStable(own, func(i, j int) bool {
		if !own[i].Date.Equal(own[j].Date) {
			return own[i].Date.Before(own[j].Date)
		}
		return own[i].Time < own[j].Time
	})

	last := make(map[monthTag]models.Value)
	monthSet := make(map[string]bool)
	tagSet := make(map[string]bool)
	for _, r := range own {
		if !keepYear[r.Date.Year()] || !wanted[r.Tag] {
			continue
		}
		v := r.Column(q.Column).Value
		if v.IsMissing() {
			continue
		}
		key := monthTag{month: utils.MonthKey(r.Date), tag: r.Tag}
		last[key] = v
		monthSet[key.month] = true
		tagSet[r.Tag] = true
	}

	months := make([]string, 0, len(monthSet))
	for m := range monthSet {
		months = append(months, m)
	}
	sort.Strings(months)
	sort.Ints(years)

	table := &HistoryTable{
		Currency:   currency,
		Column:     q.Column,
		Years:      years,
		Months:     months,
		Indicators: len(tagSet),
		DataPoints: len(last),
	}

	for _, c := range q.Categories {
		section := HistorySection{Category: c.Name}
		for _, tag := range c.Tags {
			if !tagSet[tag] {
				continue
			}
			row := HistoryRow{Tag: tag, Cells: make([]HistoryCell, len(months))}
			for i, m := range months {
				v, ok := last[monthTag{month: m, tag: tag}]
				if !ok {
					v = models.Missing()
				}
				row.Cells[i] = newCell(v)
			}
			markDirections(row.Cells)
			section.Rows = append(section.Rows, row)
		}
		if len(section.Rows) > 0 {
			table.Sections = append(table.Sections, section)
		}
	}
	return table, nil
}

func newCell(v models.Value) HistoryCell {
	if v.IsMissing() {
		return HistoryCell{Value: v, Text: MissingCell}
	}
	return HistoryCell{Value: v, Text: fmt.Sprintf("%.2f", v.Float)}
}

// markDirections compares each present cell with the nearest earlier present
// cell, at the two decimals that are displayed.
func markDirections(cells []HistoryCell) {
	var prev models.Value
	for i := range cells {
		v := cells[i].Value
		if v.IsMissing() {
			continue
		}
		cur := math.Round(v.Float*100) / 100
		if prev.Valid {
			switch {
			case cur > prev.Float:
				cells[i].Direction = DirectionUp
			case cur < prev.Float:
				cells[i].Direction = DirectionDown
			default:
				cells[i].Direction = DirectionFlat
			}
		}
		prev = models.Some(cur)
	}
}
