package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// SeriesPoint is one observation of an indicator series.
type SeriesPoint struct {
	Date       time.Time  `json:"date"`
	Time       string     `json:"time,omitempty"`
	Importance Importance `json:"importance"`
	Value      Value      `json:"value"`
}

// IndicatorSeries is the date-ordered history of one (currency, tag) pair for one column.
type IndicatorSeries struct {
	Currency string        `json:"currency"`
	Tag      string        `json:"tag"`
	Column   ValueColumn   `json:"column"`
	Points   []SeriesPoint `json:"points"`
}

// Values returns the series values in order.
func (s IndicatorSeries) Values() []Value {
	values := make([]Value, len(s.Points))
	for i, p := range s.Points {
		values[i] = p.Value
	}
	return values
}

// WithValues returns a copy of the series with its values replaced position by position.
// values must have the same length as the series.
func (s IndicatorSeries) WithValues(values []Value) IndicatorSeries {
	points := make([]SeriesPoint, len(s.Points))
	copy(points, s.Points)
	for i := range points {
		points[i].Value = values[i]
	}
	s.Points = points
	return s
}

// IndicatorStats summarises the non-missing values of an indicator.
type IndicatorStats struct {
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Mean  float64 `json:"mean"`
	Count int     `json:"count"`
}

// ScaleKind identifies a magnitude bucket.
type ScaleKind int

const (
	ScalePercentSmall ScaleKind = iota
	ScalePercentLarge
	ScalePMI
	ScaleLargeNegative
	ScaleMediumMagnitude
	ScaleVeryLargeMagnitude
)

// String returns the bucket identifier.
func (k ScaleKind) String() string {
	switch k {
	case ScalePercentSmall:
		return "percentage_small"
	case ScalePercentLarge:
		return "percentage_large"
	case ScalePMI:
		return "pmi"
	case ScaleLargeNegative:
		return "large_negative"
	case ScaleMediumMagnitude:
		return "medium_magnitude"
	case ScaleVeryLargeMagnitude:
		return "very_large_magnitude"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the kind as its identifier.
func (k ScaleKind) MarshalJSON() ([]byte, error) {
	return []byte(`"` + k.String() + `"`), nil
}

// UnmarshalJSON decodes a kind identifier.
func (k *ScaleKind) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	for c := ScalePercentSmall; c <= ScaleVeryLargeMagnitude; c++ {
		if c.String() == name {
			*k = c
			return nil
		}
	}
	return fmt.Errorf("unknown scale kind %q", name)
}

// ScaleGroup is a set of indicators that can share one chart axis.
type ScaleGroup struct {
	Kind     ScaleKind `json:"kind"`
	Members  []string  `json:"members"`
	Label    string    `json:"label"`
	Min      float64   `json:"min"`
	Max      float64   `json:"max"`
	AxisUnit string    `json:"axis_unit,omitempty"`
}

// Magnitude is the largest absolute bound of the group.
func (g ScaleGroup) Magnitude() float64 {
	a, b := g.Min, g.Max
	if a < 0 {
		a = -a
	}
	if b < 0 {
		b = -b
	}
	if a > b {
		return a
	}
	return b
}
