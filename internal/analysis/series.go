package analysis

import (
	"sort"

	"econdash/internal/analysis/gaps"
	"econdash/internal/analysis/scale"
	"econdash/internal/models"
)

// BuildSeries collects the date-ordered history of one (currency, tag) pair.
// Releases on the same date keep their clock time order.
func BuildSeries(records []models.NormalizedRecord, currency, tag string, column models.ValueColumn) models.IndicatorSeries {
	s := models.IndicatorSeries{Currency: currency, Tag: tag, Column: column}
	for _, r := range records {
		if r.Currency != currency || r.Tag != tag {
			continue
		}
		s.Points = append(s.Points, point(r, column))
	}
	sortPoints(s.Points)
	return s
}

// SeriesByTag builds every series of one currency, keyed by tag.
func SeriesByTag(records []models.NormalizedRecord, currency string, column models.ValueColumn) map[string]models.IndicatorSeries {
	out := make(map[string]models.IndicatorSeries)
	for _, r := range records {
		if r.Currency != currency {
			continue
		}
		s, ok := out[r.Tag]
		if !ok {
			s = models.IndicatorSeries{Currency: currency, Tag: r.Tag, Column: column}
		}
		s.Points = append(s.Points, point(r, column))
		out[r.Tag] = s
	}
	for tag, s := range out {
		sortPoints(s.Points)
		out[tag] = s
	}
	return out
}

// SeriesByCurrency builds the series of one tag for every currency that has it.
func SeriesByCurrency(records []models.NormalizedRecord, tag string, column models.ValueColumn) map[string]models.IndicatorSeries {
	out := make(map[string]models.IndicatorSeries)
	for _, r := range records {
		if r.Tag != tag {
			continue
		}
		s, ok := out[r.Currency]
		if !ok {
			s = models.IndicatorSeries{Currency: r.Currency, Tag: tag, Column: column}
		}
		s.Points = append(s.Points, point(r, column))
		out[r.Currency] = s
	}
	for c, s := range out {
		sortPoints(s.Points)
		out[c] = s
	}
	return out
}

// StatsByTag summarises the observed values of each series before repair.
func StatsByTag(series map[string]models.IndicatorSeries) map[string]models.IndicatorStats {
	out := make(map[string]models.IndicatorStats, len(series))
	for tag, s := range series {
		out[tag] = scale.StatsFor(s.Values())
	}
	return out
}

// Repair is gaps.RepairSeries, exposed next to the other entry points.
func Repair(s models.IndicatorSeries) models.IndicatorSeries {
	return gaps.RepairSeries(s)
}

func point(r models.NormalizedRecord, column models.ValueColumn) models.SeriesPoint {
	return models.SeriesPoint{
		Date:       r.Date,
		Time:       r.Time,
		Importance: r.Importance,
		Value:      r.Column(column).Value,
	}
}

func sortPoints(points []models.SeriesPoint) {
	sort.SliceStable(points, func(i, j int) bool {
		if !points[i].Date.Equal(points[j].Date) {
			return points[i].Date.Before(points[j].Date)
		}
		return points[i].Time < points[j].Time
	})
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
