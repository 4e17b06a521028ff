package scale

import (
	"math"
	"strings"

	"econdash/internal/models"
)

// UnitGroup is the display unit inferred for a single indicator when it is
// charted across currencies.
type UnitGroup string

const (
	UnitPMI                 UnitGroup = "index_50"
	UnitIndex               UnitGroup = "index"
	UnitBillions            UnitGroup = "billions"
	UnitMillions            UnitGroup = "millions"
	UnitThousands           UnitGroup = "thousands"
	UnitCountHundredsK      UnitGroup = "count_hundreds_k"
	UnitCountThousands      UnitGroup = "count_thousands"
	UnitCountUnits          UnitGroup = "count_units"
	UnitPercentSmall        UnitGroup = "percentage_small"
	UnitPercentMedium       UnitGroup = "percentage_medium"
	UnitPercentLarge        UnitGroup = "percentage_large"
	UnitPercentXLarge       UnitGroup = "percentage_xlarge"
	UnitPercentInterest     UnitGroup = "percentage_interest"
	UnitPercentUnemployment UnitGroup = "percentage_unemployment"
	UnitPercentInflation    UnitGroup = "percentage_inflation"
	UnitPercentInflationNeg UnitGroup = "percentage_inflation_neg"
	UnitOther               UnitGroup = "other"
)

var unitTitles = map[UnitGroup]string{
	UnitPMI:                 "PMI / index (50 baseline)",
	UnitIndex:               "Index",
	UnitBillions:            "Billions",
	UnitMillions:            "Millions",
	UnitThousands:           "Thousands",
	UnitCountHundredsK:      "Count (100k)",
	UnitCountThousands:      "Count (thousands)",
	UnitCountUnits:          "Count",
	UnitPercentSmall:        "Rate (0-5%)",
	UnitPercentMedium:       "Rate (0-10%)",
	UnitPercentLarge:        "Rate (0-20%)",
	UnitPercentXLarge:       "Rate (20%+)",
	UnitPercentInterest:     "Interest rate (%)",
	UnitPercentUnemployment: "Unemployment rate (%)",
	UnitPercentInflation:    "Inflation (%)",
	UnitPercentInflationNeg: "Inflation (%)",
	UnitOther:               "Value",
}

// Title is the axis title for the unit.
func (u UnitGroup) Title() string {
	if t, ok := unitTitles[u]; ok {
		return t
	}
	return unitTitles[UnitOther]
}

// IsPercentage reports whether values are rates in percent.
func (u UnitGroup) IsPercentage() bool {
	return strings.HasPrefix(string(u), "percentage")
}

var (
	aggregateCues  = []string{"gdp", "trade balance", "current account"}
	countCues      = []string{"claims", "payroll", "employment change", "nonfarm"}
	rateCues       = []string{"rate", "unemployment", "interest", "(yoy)", "(mom)", "(qoq)", "inflation", "change", "growth"}
	priceIndexCues = []string{"cpi", "ppi", "price index"}
	activityCues   = []string{"sales", "production", "orders"}
)

// InferUnit picks a unit group from the tag and a sample of its values.
// Name cues are checked before falling back to the observed magnitude.
func InferUnit(tag string, samples []models.Value) UnitGroup {
	s := StatsFor(samples)
	if s.Count == 0 {
		return UnitOther
	}
	avg := math.Abs(s.Mean)
	spread := s.Max - s.Min
	lower := strings.ToLower(tag)

	if strings.Contains(lower, "pmi") {
		return UnitPMI
	}

	if containsAny(lower, aggregateCues) {
		switch {
		case avg > 1e6:
			return UnitBillions
		case avg > 1000:
			return UnitMillions
		}
		return percentBySize(s.Max, 5, 10)
	}

	if containsAny(lower, countCues) {
		switch {
		case avg > 100000:
			return UnitCountHundredsK
		case avg > 1000:
			return UnitCountThousands
		}
		return UnitCountUnits
	}

	if containsAny(lower, rateCues) && avg < 50 {
		switch {
		case strings.Contains(lower, "interest") || strings.Contains(lower, "fed rate") || strings.Contains(lower, "bank rate"):
			return UnitPercentInterest
		case strings.Contains(lower, "unemployment"):
			return UnitPercentUnemployment
		case strings.Contains(lower, "inflation") || strings.Contains(lower, "cpi"):
			if s.Min < -2 {
				return UnitPercentInflationNeg
			}
			return UnitPercentInflation
		}
		return percentBySize(s.Max, 5, 10, 20)
	}

	if containsAny(lower, priceIndexCues) {
		if avg > 50 {
			return UnitIndex
		}
		return percentBySize(s.Max, 5)
	}

	if containsAny(lower, activityCues) {
		switch {
		case avg > 1e6:
			return UnitMillions
		case avg > 1000:
			return UnitThousands
		}
		return percentBySize(s.Max, 5)
	}

	switch {
	case avg > 1e7:
		return UnitBillions
	case avg > 1e6:
		return UnitMillions
	case avg > 100000:
		return UnitCountHundredsK
	case avg > 10000:
		return UnitThousands
	case avg > 200:
		return UnitIndex
	case avg > 30 && avg < 80 && spread < 30:
		return UnitPMI
	case avg < 30:
		return percentBySize(s.Max, 5, 10, 20)
	}
	return UnitOther
}

// percentBySize walks the ceilings in order: below the first is small, below
// the second medium, below the third large. Past the last ceiling the next
// size up is returned.
func percentBySize(hi float64, ceilings ...float64) UnitGroup {
	sizes := []UnitGroup{UnitPercentSmall, UnitPercentMedium, UnitPercentLarge, UnitPercentXLarge}
	for i, c := range ceilings {
		if hi < c {
			return sizes[i]
		}
	}
	return sizes[len(ceilings)]
}

func containsAny(s string, cues []string) bool {
	for _, c := range cues {
		if strings.Contains(s, c) {
			return true
		}
	}
	return false
}

// AxisConfig describes how a chart axis for a unit group should be drawn.
type AxisConfig struct {
	Title        string  `json:"title"`
	TickSuffix   string  `json:"tick_suffix,omitempty"`
	TickFormat   string  `json:"tick_format,omitempty"`
	HasReference bool    `json:"has_reference"`
	Reference    float64 `json:"reference,omitempty"`
}

// AxisFor returns the axis settings for u. PMI-style indices get a
// reference line at 50.
func AxisFor(u UnitGroup) AxisConfig {
	cfg := AxisConfig{Title: u.Title()}
	switch {
	case u.IsPercentage():
		cfg.TickSuffix = "%"
	case u == UnitPMI:
		cfg.HasReference = true
		cfg.Reference = 50
	case u == UnitCountThousands || u == UnitThousands || u == UnitCountUnits:
		cfg.TickFormat = ","
	case u == UnitCountHundredsK:
		cfg.TickFormat = ".1f"
	case u == UnitMillions || u == UnitBillions:
		cfg.TickFormat = ".2s"
	}
	return cfg
}
