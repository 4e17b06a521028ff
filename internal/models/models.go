// Package models provides domain models for the economic calendar dataset.
package models

import (
	"encoding/json"
	"strings"
	"time"
)

// Importance represents the market impact ranking of a release.
type Importance int

const (
	ImportanceUnknown Importance = iota
	ImportanceLow
	ImportanceMedium
	ImportanceHigh
)

// String returns the lower-case name used in files and APIs.
func (i Importance) String() string {
	switch i {
	case ImportanceHigh:
		return "high"
	case ImportanceMedium:
		return "medium"
	case ImportanceLow:
		return "low"
	default:
		return "unknown"
	}
}

// Rank orders importance for display: high first, unknown last.
func (i Importance) Rank() int {
	switch i {
	case ImportanceHigh:
		return 0
	case ImportanceMedium:
		return 1
	case ImportanceLow:
		return 2
	default:
		return 3
	}
}

// MarshalJSON encodes the importance as its name.
func (i Importance) MarshalJSON() ([]byte, error) {
	return json.Marshal(i.String())
}

// UnmarshalJSON decodes an importance name. null is ImportanceUnknown.
func (i *Importance) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*i = ImportanceUnknown
		return nil
	}
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	*i = ParseImportance(name)
	return nil
}

// ParseImportance maps provider spellings ("High", "high", " MEDIUM ") to an Importance.
// Anything unrecognised is ImportanceUnknown.
func ParseImportance(s string) Importance {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "high":
		return ImportanceHigh
	case "medium":
		return ImportanceMedium
	case "low":
		return ImportanceLow
	default:
		return ImportanceUnknown
	}
}

// EventRecord is one raw economic calendar release as delivered by the provider.
type EventRecord struct {
	ID         string     `json:"id"`
	Date       time.Time  `json:"date"`
	Time       string     `json:"time,omitempty"` // clock time, empty when not scheduled
	Currency   string     `json:"currency" validate:"notblank"`
	Importance Importance `json:"importance"`
	Event      string     `json:"event"`
	Actual     string     `json:"actual"`
	Forecast   string     `json:"forecast"`
	Previous   string     `json:"previous"`
}

// ClassifiedRecord is an EventRecord with its indicator tag.
type ClassifiedRecord struct {
	EventRecord
	Tag          string `json:"tag"`
	CleanedEvent string `json:"cleaned_event"`
}

// Value is a float that may be missing.
type Value struct {
	Float float64
	Valid bool
}

// Missing returns a missing value.
func Missing() Value {
	return Value{}
}

// Some returns a present value.
func Some(f float64) Value {
	return Value{Float: f, Valid: true}
}

// IsMissing reports whether the value is absent.
func (v Value) IsMissing() bool {
	return !v.Valid
}

// MarshalJSON encodes missing values as null.
func (v Value) MarshalJSON() ([]byte, error) {
	if !v.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(v.Float)
}

// UnmarshalJSON decodes null as a missing value and a number as a present one.
func (v *Value) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*v = Missing()
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*v = Some(f)
	return nil
}

// Field is a normalised numeric column together with the string it came from.
type Field struct {
	Value    Value  `json:"value"`
	Original string `json:"original"`
}

// NormalizedRecord is a ClassifiedRecord whose numeric columns have been parsed.
type NormalizedRecord struct {
	ID           string     `json:"id"`
	Date         time.Time  `json:"date"`
	Time         string     `json:"time,omitempty"`
	Currency     string     `json:"currency"`
	Importance   Importance `json:"importance"`
	Event        string     `json:"event"`
	Tag          string     `json:"tag"`
	CleanedEvent string     `json:"cleaned_event"`
	Actual       Field      `json:"actual"`
	Forecast     Field      `json:"forecast"`
	Previous     Field      `json:"previous"`
}

// Column returns the field for the given value column.
func (r NormalizedRecord) Column(c ValueColumn) Field {
	switch c {
	case ColumnForecast:
		return r.Forecast
	case ColumnPrevious:
		return r.Previous
	default:
		return r.Actual
	}
}

// ValueColumn selects one of the numeric columns of a release.
type ValueColumn string

const (
	ColumnActual   ValueColumn = "actual"
	ColumnForecast ValueColumn = "forecast"
	ColumnPrevious ValueColumn = "previous"
)

// ParseValueColumn returns the column named s and whether it is known.
func ParseValueColumn(s string) (ValueColumn, bool) {
	switch ValueColumn(strings.ToLower(strings.TrimSpace(s))) {
	case ColumnActual:
		return ColumnActual, true
	case ColumnForecast:
		return ColumnForecast, true
	case ColumnPrevious:
		return ColumnPrevious, true
	default:
		return "", false
	}
}
