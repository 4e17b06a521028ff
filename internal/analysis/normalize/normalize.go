// Package normalize converts provider value strings into numbers.
package normalize

import (
	"math"
	"strconv"
	"strings"

	"econdash/internal/models"
)

// unitMarkers are removed in this order before parsing. Suffix multipliers
// are intentionally not applied: "250K" is 250.
var unitMarkers = []string{",", "%", "K", "M", "B"}

// Normalize parses a raw value such as "3.5%", "1,234" or "250K".
// Empty, NaN and unparseable input yields a missing value. It never panics.
func Normalize(raw string) models.Value {
	s := strings.TrimSpace(raw)
	if s == "" {
		return models.Missing()
	}
	for _, m := range unitMarkers {
		s = strings.ReplaceAll(s, m, "")
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return models.Missing()
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return models.Missing()
	}
	return models.Some(f)
}

// Field normalises raw and keeps the original string alongside.
func Field(raw string) models.Field {
	return models.Field{Value: Normalize(raw), Original: raw}
}

// Record normalises the three numeric columns of a classified record.
func Record(r models.ClassifiedRecord) models.NormalizedRecord {
	return models.NormalizedRecord{
		ID:           r.ID,
		Date:         r.Date,
		Time:         r.Time,
		Currency:     r.Currency,
		Importance:   r.Importance,
		Event:        r.Event,
		Tag:          r.Tag,
		CleanedEvent: r.CleanedEvent,
		Actual:       Field(r.Actual),
		Forecast:     Field(r.Forecast),
		Previous:     Field(r.Previous),
	}
}
