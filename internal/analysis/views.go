package analysis

import (
	"time"

	"github.com/sourcegraph/conc/iter"

	"econdash/internal/analysis/gaps"
	"econdash/internal/analysis/scale"
	"econdash/internal/models"
)

// Filter narrows the dataset before a view is built. Zero values select everything.
type Filter struct {
	Importance       []models.Importance `json:"importance,omitempty"`
	FullCoverageOnly bool                `json:"full_coverage_only,omitempty"`
	From             time.Time           `json:"from,omitempty"`
	To               time.Time           `json:"to,omitempty"`
}

// Apply returns the records that pass f, in input order.
func (p *Pipeline) Apply(records []models.NormalizedRecord, f Filter) []models.NormalizedRecord {
	wanted := make(map[models.Importance]bool, len(f.Importance))
	for _, imp := range f.Importance {
		wanted[imp] = true
	}

	var covered map[string]bool
	if f.FullCoverageOnly {
		covered = make(map[string]bool)
		for _, tag := range p.FullCoverage(records) {
			covered[tag] = true
		}
	}

	out := make([]models.NormalizedRecord, 0, len(records))
	for _, r := range records {
		if len(wanted) > 0 && !wanted[r.Importance] {
			continue
		}
		if covered != nil && !covered[r.Tag] {
			continue
		}
		if !f.From.IsZero() && r.Date.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && r.Date.After(f.To) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// GroupPanel is one scale group with the repaired series of its members.
type GroupPanel struct {
	Group  models.ScaleGroup        `json:"group"`
	Series []models.IndicatorSeries `json:"series"`
}

// CurrencyView is every indicator of one currency, split into scale groups.
type CurrencyView struct {
	Currency string                           `json:"currency"`
	Column   models.ValueColumn               `json:"column"`
	Stats    map[string]models.IndicatorStats `json:"stats"`
	Panels   []GroupPanel                     `json:"panels"`
}

// Tags returns the grouped tags in panel order.
func (v CurrencyView) Tags() []string {
	var tags []string
	for _, panel := range v.Panels {
		tags = append(tags, panel.Group.Members...)
	}
	return tags
}

// CurrencyView filters records, groups the currency's indicators by scale
// and repairs each member series.
func (p *Pipeline) CurrencyView(records []models.NormalizedRecord, currency string, column models.ValueColumn, f Filter) CurrencyView {
	series := SeriesByTag(p.Apply(records, f), currency, column)
	stats := StatsByTag(series)
	groups := scale.Group(stats)

	panels := iter.Map(groups, func(g *models.ScaleGroup) GroupPanel {
		panel := GroupPanel{Group: *g, Series: make([]models.IndicatorSeries, 0, len(g.Members))}
		for _, tag := range g.Members {
			panel.Series = append(panel.Series, gaps.RepairSeries(series[tag]))
		}
		return panel
	})

	return CurrencyView{
		Currency: currency,
		Column:   column,
		Stats:    stats,
		Panels:   panels,
	}
}

// IndicatorView is one indicator across every currency that publishes it.
type IndicatorView struct {
	Tag    string                   `json:"tag"`
	Column models.ValueColumn       `json:"column"`
	Unit   scale.UnitGroup          `json:"unit"`
	Axis   scale.AxisConfig         `json:"axis"`
	Series []models.IndicatorSeries `json:"series"`
}

// IndicatorView compares one tag across currencies on a single axis whose
// unit is inferred from the pooled observations.
func (p *Pipeline) IndicatorView(records []models.NormalizedRecord, tag string, column models.ValueColumn, f Filter) IndicatorView {
	byCurrency := SeriesByCurrency(p.Apply(records, f), tag, column)
	currencies := sortedKeys(byCurrency)

	var samples []models.Value
	for _, c := range currencies {
		samples = append(samples, byCurrency[c].Values()...)
	}
	unit := scale.InferUnit(tag, samples)

	series := iter.Map(currencies, func(c *string) models.IndicatorSeries {
		return gaps.RepairSeries(byCurrency[*c])
	})

	return IndicatorView{
		Tag:    tag,
		Column: column,
		Unit:   unit,
		Axis:   scale.AxisFor(unit),
		Series: series,
	}
}
