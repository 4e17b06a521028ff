// Package gaps repairs holes in indicator series before they are charted.
//
// Providers often publish a bare 0 for a release that has not come out yet.
// Repair drops such zeros when both neighbours disagree with them, then fills
// missing positions forward and interpolates whatever is left inside the series.
package gaps

import "econdash/internal/models"

// Repair returns a repaired copy of values. The result has the same length
// and order, and Repair(Repair(v)) equals Repair(v).
func Repair(values []models.Value) []models.Value {
	out := make([]models.Value, len(values))
	copy(out, values)

	dropSpuriousZeros(out)
	forwardFill(out)
	interpolate(out)

	return out
}

// RepairSeries applies Repair to the values of s.
func RepairSeries(s models.IndicatorSeries) models.IndicatorSeries {
	return s.WithValues(Repair(s.Values()))
}

// dropSpuriousZeros marks a zero as missing when the nearest non-missing
// values on both sides exist and are non-zero. Neighbours are found by
// position in the already-modified slice.
func dropSpuriousZeros(values []models.Value) {
	for i, v := range values {
		if v.IsMissing() || v.Float != 0 {
			continue
		}
		prev, okPrev := nearest(values, i, -1)
		next, okNext := nearest(values, i, +1)
		if okPrev && okNext && prev.Float != 0 && next.Float != 0 {
			values[i] = models.Missing()
		}
	}
}

// nearest walks from i in direction step and returns the first non-missing value.
func nearest(values []models.Value, i, step int) (models.Value, bool) {
	for j := i + step; j >= 0 && j < len(values); j += step {
		if !values[j].IsMissing() {
			return values[j], true
		}
	}
	return models.Value{}, false
}

func forwardFill(values []models.Value) {
	var last models.Value
	for i, v := range values {
		if v.IsMissing() {
			if last.Valid {
				values[i] = last
			}
			continue
		}
		last = v
	}
}

// interpolate fills interior runs of missing values on the straight line
// between the anchors around them. Runs touching either end stay missing.
func interpolate(values []models.Value) {
	left := -1
	for i, v := range values {
		if v.IsMissing() {
			continue
		}
		if left >= 0 && i-left > 1 {
			a, b := values[left].Float, v.Float
			span := float64(i - left)
			for j := left + 1; j < i; j++ {
				frac := float64(j-left) / span
				values[j] = models.Some(a + (b-a)*frac)
			}
		}
		left = i
	}
}
