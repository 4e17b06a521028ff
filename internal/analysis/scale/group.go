// Package scale partitions indicators into groups that can share a chart axis.
//
// Grouping is a single greedy pass with fixed bucket boundaries tuned to
// economic data: small and large percentages, PMI-style diffusion indices,
// large negative balances, and medium or very large magnitudes.
package scale

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"econdash/internal/models"
	"econdash/pkg/utils"
)

// Bucket boundaries.
const (
	pmiLow             = 40.0
	pmiHigh            = 70.0
	percentCeiling     = 50.0
	smallPercentCeil   = 10.0
	largeMagnitudeFrom = 100.0
	veryLargeFrom      = 1000.0
	largeNegativeFrom  = 50.0
)

// pmiCues are matched case-insensitively against the indicator tag.
var pmiCues = []string{"pmi", "composite", "manufacturing", "services"}

// kindOrder breaks ties between groups of equal magnitude.
var kindOrder = []models.ScaleKind{
	models.ScalePercentSmall,
	models.ScalePercentLarge,
	models.ScalePMI,
	models.ScaleLargeNegative,
	models.ScaleMediumMagnitude,
	models.ScaleVeryLargeMagnitude,
}

// Bucket returns the scale kind for one indicator.
func Bucket(tag string, s models.IndicatorStats) models.ScaleKind {
	absMax := math.Max(math.Abs(s.Min), math.Abs(s.Max))

	switch {
	case hasPMICue(tag) && absMax >= pmiLow && absMax <= pmiHigh:
		return models.ScalePMI
	case s.Max < 0 && absMax > largeNegativeFrom:
		return models.ScaleLargeNegative
	case absMax >= largeMagnitudeFrom:
		return magnitudeKind(absMax)
	case absMax <= percentCeiling:
		if absMax <= smallPercentCeil {
			return models.ScalePercentSmall
		}
		return models.ScalePercentLarge
	default:
		return magnitudeKind(absMax)
	}
}

func magnitudeKind(absMax float64) models.ScaleKind {
	if absMax < veryLargeFrom {
		return models.ScaleMediumMagnitude
	}
	return models.ScaleVeryLargeMagnitude
}

func hasPMICue(tag string) bool {
	lower := strings.ToLower(tag)
	for _, cue := range pmiCues {
		if strings.Contains(lower, cue) {
			return true
		}
	}
	return false
}

// Group partitions indicators by magnitude. Every indicator with at least
// one observation lands in exactly one group; indicators without data are
// left out. Groups are ordered by ascending magnitude and never empty.
func Group(stats map[string]models.IndicatorStats) []models.ScaleGroup {
	members := make(map[models.ScaleKind][]string)
	for tag, s := range stats {
		if !usable(s) {
			continue
		}
		kind := Bucket(tag, s)
		members[kind] = append(members[kind], tag)
	}

	groups := make([]models.ScaleGroup, 0, len(members))
	for _, kind := range kindOrder {
		tags := members[kind]
		if len(tags) == 0 {
			continue
		}
		sort.Strings(tags)
		groups = append(groups, newGroup(kind, tags, stats))
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Magnitude() < groups[j].Magnitude()
	})
	return groups
}

func usable(s models.IndicatorStats) bool {
	if s.Count <= 0 {
		return false
	}
	return !math.IsNaN(s.Min) && !math.IsNaN(s.Max) && !math.IsInf(s.Min, 0) && !math.IsInf(s.Max, 0)
}

func newGroup(kind models.ScaleKind, tags []string, stats map[string]models.IndicatorStats) models.ScaleGroup {
	g := models.ScaleGroup{
		Kind:    kind,
		Members: tags,
		Min:     math.Inf(1),
		Max:     math.Inf(-1),
	}

	allBelowHundred := true
	for _, tag := range tags {
		s := stats[tag]
		g.Min = math.Min(g.Min, s.Min)
		g.Max = math.Max(g.Max, s.Max)
		if s.Max >= largeMagnitudeFrom {
			allBelowHundred = false
		}
	}

	g.Label = Label(kind, g.Min, g.Max)
	if allBelowHundred {
		g.AxisUnit = "%"
	}
	return g
}

// Label renders the observed range of a group, for example
// "Small percentage: 2.10~3.20%".
func Label(kind models.ScaleKind, lo, hi float64) string {
	switch kind {
	case models.ScalePercentSmall:
		return fmt.Sprintf("Small percentage: %.2f~%.2f%%", lo, hi)
	case models.ScalePercentLarge:
		return fmt.Sprintf("Large percentage: %.2f~%.2f%%", lo, hi)
	case models.ScalePMI:
		return fmt.Sprintf("PMI index: %.0f~%.0f", lo, hi)
	case models.ScaleLargeNegative:
		return fmt.Sprintf("Large negative: %s~%s", utils.FormatTruncated(lo), utils.FormatTruncated(hi))
	case models.ScaleMediumMagnitude:
		return fmt.Sprintf("Medium magnitude: %d~%d", int64(lo), int64(hi))
	case models.ScaleVeryLargeMagnitude:
		return fmt.Sprintf("Very large magnitude: %s~%s", utils.FormatTruncated(lo), utils.FormatTruncated(hi))
	default:
		return fmt.Sprintf("%g~%g", lo, hi)
	}
}

// StatsFor summarises the present values. A result with Count 0 means the
// indicator has no data and Group will skip it.
func StatsFor(values []models.Value) models.IndicatorStats {
	var s models.IndicatorStats
	var sum float64
	for _, v := range values {
		if v.IsMissing() {
			continue
		}
		if s.Count == 0 || v.Float < s.Min {
			s.Min = v.Float
		}
		if s.Count == 0 || v.Float > s.Max {
			s.Max = v.Float
		}
		sum += v.Float
		s.Count++
	}
	if s.Count > 0 {
		s.Mean = sum / float64(s.Count)
	}
	return s
}
