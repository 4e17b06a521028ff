// Package report builds the calendar and history tables shown by the CLI and the API.
package report

import (
	"sort"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"econdash/internal/errors"
	"econdash/internal/models"
	"econdash/pkg/utils"
)

var titleCaser = cases.Title(language.English)

// NormalizeImportance trims and title-cases an importance label ("high " becomes "High").
func NormalizeImportance(s string) string {
	return titleCaser.String(strings.ToLower(strings.TrimSpace(s)))
}

// CalendarQuery selects the releases shown in the calendar.
type CalendarQuery struct {
	From       time.Time
	To         time.Time
	Importance []string
	Currencies []string
}

// DefaultCalendarQuery covers one week back to thirty days ahead, High and Medium only.
func DefaultCalendarQuery(now time.Time) CalendarQuery {
	today := utils.TruncateDay(now)
	return CalendarQuery{
		From:       today.AddDate(0, 0, -7),
		To:         today.AddDate(0, 0, 30),
		Importance: []string{"High", "Medium"},
	}
}

// CalendarEntry is one release in a calendar day.
type CalendarEntry struct {
	Time       string `json:"time"`
	Currency   string `json:"currency"`
	Importance string `json:"importance"`
	Event      string `json:"event"`
	Actual     string `json:"actual"`
	Forecast   string `json:"forecast"`
	Previous   string `json:"previous"`
	// Display is the actual, else the forecast, else "--".
	Display     string `json:"display"`
	DisplayKind string `json:"display_kind,omitempty"`
}

// CalendarDay groups the releases of one date.
type CalendarDay struct {
	Date    string          `json:"date"`
	Entries []CalendarEntry `json:"entries"`
}

// BuildCalendar filters records by date range, importance and currency and
// groups them by date. Days are ascending; within a day entries are ordered
// by importance (High first) and then by time.
func BuildCalendar(records []models.EventRecord, q CalendarQuery) ([]CalendarDay, error) {
	if !q.From.IsZero() && !q.To.IsZero() && q.From.After(q.To) {
		return nil, errors.NewValidationError("from", q.From.Format("2006-01-02"), "start date is after end date")
	}

	importance := make(map[string]bool, len(q.Importance))
	for _, imp := range q.Importance {
		importance[NormalizeImportance(imp)] = true
	}
	currencies := make(map[string]bool, len(q.Currencies))
	for _, c := range q.Currencies {
		currencies[strings.ToUpper(strings.TrimSpace(c))] = true
	}
	from, to := utils.TruncateDay(q.From), utils.TruncateDay(q.To)

	byDate := make(map[string][]CalendarEntry)
	for _, r := range records {
		if r.Date.IsZero() {
			continue
		}
		date := utils.TruncateDay(r.Date)
		if !q.From.IsZero() && date.Before(from) {
			continue
		}
		if !q.To.IsZero() && date.After(to) {
			continue
		}
		label := NormalizeImportance(r.Importance.String())
		if len(importance) > 0 && !importance[label] {
			continue
		}
		if len(currencies) > 0 && !currencies[r.Currency] {
			continue
		}

		key := date.Format("2006-01-02")
		byDate[key] = append(byDate[key], newCalendarEntry(r, label))
	}

	days := make([]CalendarDay, 0, len(byDate))
	for date, entries := range byDate {
		sort.SliceStable(entries, func(i, j int) bool {
			ri := models.ParseImportance(entries[i].Importance).Rank()
			rj := models.ParseImportance(entries[j].Importance).Rank()
			if ri != rj {
				return ri < rj
			}
			return entries[i].Time < entries[j].Time
		})
		days = append(days, CalendarDay{Date: date, Entries: entries})
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date < days[j].Date })
	return days, nil
}

func newCalendarEntry(r models.EventRecord, label string) CalendarEntry {
	e := CalendarEntry{
		Time:       r.Time,
		Currency:   r.Currency,
		Importance: label,
		Event:      r.Event,
		Actual:     strings.TrimSpace(r.Actual),
		Forecast:   strings.TrimSpace(r.Forecast),
		Previous:   strings.TrimSpace(r.Previous),
	}
	switch {
	case e.Actual != "":
		e.Display, e.DisplayKind = e.Actual, "actual"
	case e.Forecast != "":
		e.Display, e.DisplayKind = e.Forecast, "forecast"
	default:
		e.Display = "--"
	}
	return e
}
