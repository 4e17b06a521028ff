package scale

import (
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"econdash/internal/models"
)

func st(lo, hi float64) models.IndicatorStats {
	return models.IndicatorStats{Min: lo, Max: hi, Mean: (lo + hi) / 2, Count: 2}
}

func TestBucket(t *testing.T) {
	tests := []struct {
		tag   string
		stats models.IndicatorStats
		want  models.ScaleKind
	}{
		{"Manufacturing PMI", st(49, 55), models.ScalePMI},
		{"services pmi", st(50, 52), models.ScalePMI},
		{"Composite PMI", st(40, 40), models.ScalePMI},
		{"Composite PMI", st(45, 70), models.ScalePMI},
		{"Manufacturing PMI", st(30, 38), models.ScalePercentLarge},
		{"Manufacturing PMI", st(45, 71), models.ScaleMediumMagnitude},
		{"Trade Balance", st(-80000, -500), models.ScaleLargeNegative},
		{"Trade Balance", st(-80000, 1200), models.ScaleVeryLargeMagnitude},
		{"Consumer Confidence", st(-60, -55), models.ScaleLargeNegative},
		{"Consumer Confidence", st(55, 70), models.ScaleMediumMagnitude},
		{"Building Permits", st(1300, 1500), models.ScaleVeryLargeMagnitude},
		{"Jobless Claims", st(200, 250), models.ScaleMediumMagnitude},
		{"Unemployment Rate", st(3.5, 4.1), models.ScalePercentSmall},
		{"Retail Sales (YoY)", st(-12, 15), models.ScalePercentLarge},
		{"GDP (QoQ)", st(-10, 0.5), models.ScalePercentSmall},
		{"Loans (YoY)", st(0, 50), models.ScalePercentLarge},
		{"Loans (YoY)", st(-40, -20), models.ScalePercentLarge},
		{"Housing Starts", st(0, 100), models.ScaleMediumMagnitude},
		{"Housing Starts", st(0, 1000), models.ScaleVeryLargeMagnitude},
		{"Employment Change", st(-999.5, 300), models.ScaleMediumMagnitude},
	}

	for _, tt := range tests {
		if got := Bucket(tt.tag, tt.stats); got != tt.want {
			t.Errorf("Bucket(%q, %+v) = %s, want %s", tt.tag, tt.stats, got, tt.want)
		}
	}
}

func TestGroup_CPIScenario(t *testing.T) {
	groups := Group(map[string]models.IndicatorStats{
		"CPI (YoY)":      {Min: 3.2, Max: 3.2, Mean: 3.2, Count: 1},
		"Core CPI (YoY)": {Min: 2.1, Max: 2.1, Mean: 2.1, Count: 1},
	})

	if len(groups) != 1 {
		t.Fatalf("got %d groups, want 1: %+v", len(groups), groups)
	}
	g := groups[0]
	if g.Kind != models.ScalePercentSmall {
		t.Errorf("Kind = %s, want percentage_small", g.Kind)
	}
	if g.Label != "Small percentage: 2.10~3.20%" {
		t.Errorf("Label = %q", g.Label)
	}
	if !reflect.DeepEqual(g.Members, []string{"CPI (YoY)", "Core CPI (YoY)"}) {
		t.Errorf("Members = %v", g.Members)
	}
	if g.AxisUnit != "%" {
		t.Errorf("AxisUnit = %q, want %%", g.AxisUnit)
	}
}

func TestGroup_OrderedByMagnitude(t *testing.T) {
	groups := Group(map[string]models.IndicatorStats{
		"Building Permits":   st(1300, 1500),
		"Trade Balance":      st(-300, -60),
		"Jobless Claims":     st(100, 250),
		"Manufacturing PMI":  st(48, 56),
		"Retail Sales (YoY)": st(-12, 15),
		"CPI (YoY)":          st(2, 3),
	})

	var kinds []models.ScaleKind
	for _, g := range groups {
		kinds = append(kinds, g.Kind)
	}
	want := []models.ScaleKind{
		models.ScalePercentSmall,
		models.ScalePercentLarge,
		models.ScalePMI,
		models.ScaleMediumMagnitude,
		models.ScaleLargeNegative,
		models.ScaleVeryLargeMagnitude,
	}
	if !reflect.DeepEqual(kinds, want) {
		t.Errorf("kinds = %v, want %v", kinds, want)
	}
}

func TestGroup_ExcludesIndicatorsWithoutData(t *testing.T) {
	groups := Group(map[string]models.IndicatorStats{
		"CPI (YoY)":     st(2, 3),
		"Trade Balance": {},
	})
	if len(groups) != 1 || len(groups[0].Members) != 1 || groups[0].Members[0] != "CPI (YoY)" {
		t.Errorf("unexpected groups: %+v", groups)
	}

	if got := Group(nil); len(got) != 0 {
		t.Errorf("Group(nil) = %+v, want empty", got)
	}
}

func TestGroup_AxisUnit(t *testing.T) {
	groups := Group(map[string]models.IndicatorStats{
		"A": st(-300, 50),
		"B": st(120, 400),
	})
	if len(groups) != 1 {
		t.Fatalf("got %d groups", len(groups))
	}
	if groups[0].AxisUnit != "" {
		t.Errorf("AxisUnit = %q, want empty when a member reaches 100", groups[0].AxisUnit)
	}

	groups = Group(map[string]models.IndicatorStats{"A": st(-300, 50)})
	if groups[0].AxisUnit != "%" {
		t.Errorf("AxisUnit = %q, want %%", groups[0].AxisUnit)
	}
}

func TestLabel(t *testing.T) {
	tests := []struct {
		kind   models.ScaleKind
		lo, hi float64
		want   string
	}{
		{models.ScalePercentSmall, 2.1, 3.2, "Small percentage: 2.10~3.20%"},
		{models.ScalePercentLarge, -12, 15.25, "Large percentage: -12.00~15.25%"},
		{models.ScalePMI, 47.6, 55.2, "PMI index: 48~55"},
		{models.ScaleLargeNegative, -80000.7, -500.2, "Large negative: -80,000~-500"},
		{models.ScaleMediumMagnitude, 100.9, 250.1, "Medium magnitude: 100~250"},
		{models.ScaleVeryLargeMagnitude, 1300, 1234567, "Very large magnitude: 1,300~1,234,567"},
	}
	for _, tt := range tests {
		if got := Label(tt.kind, tt.lo, tt.hi); got != tt.want {
			t.Errorf("Label(%s, %v, %v) = %q, want %q", tt.kind, tt.lo, tt.hi, got, tt.want)
		}
	}
}

func TestStatsFor(t *testing.T) {
	s := StatsFor([]models.Value{models.Some(3), models.Missing(), models.Some(-1), models.Some(4)})
	want := models.IndicatorStats{Min: -1, Max: 4, Mean: 2, Count: 3}
	if s != want {
		t.Errorf("StatsFor = %+v, want %+v", s, want)
	}

	if empty := StatsFor([]models.Value{models.Missing()}); empty.Count != 0 {
		t.Errorf("StatsFor(missing) = %+v", empty)
	}
}

var tagStems = []string{
	"Manufacturing PMI", "CPI (YoY)", "Trade Balance", "Jobless Claims",
	"Services PMI", "Retail Sales (MoM)", "Building Permits", "GDP (QoQ)",
}

func statsGen() gopter.Gen {
	return gopter.CombineGens(
		gen.Float64Range(-1e5, 1e5),
		gen.Float64Range(-1e5, 1e5),
		gen.IntRange(0, 5),
		gen.Float64Range(0, 1),
	).Map(func(vals []interface{}) models.IndicatorStats {
		a, b := vals[0].(float64), vals[1].(float64)
		// Shrink most samples toward the interesting boundaries.
		scale := vals[3].(float64)
		if scale < 0.7 {
			a, b = a/1000, b/1000
		}
		if a > b {
			a, b = b, a
		}
		return models.IndicatorStats{Min: a, Max: b, Mean: (a + b) / 2, Count: vals[2].(int)}
	})
}

func statsMap(list []models.IndicatorStats) map[string]models.IndicatorStats {
	m := make(map[string]models.IndicatorStats, len(list))
	for i, s := range list {
		m[fmt.Sprintf("%s #%d", tagStems[i%len(tagStems)], i)] = s
	}
	return m
}

// Property: every indicator with data lands in exactly one non-empty group,
// and groups come back in ascending magnitude.
func TestProperty_GroupExhaustiveAndDisjoint(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 300
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("each key with data appears in exactly one group", prop.ForAll(
		func(list []models.IndicatorStats) bool {
			stats := statsMap(list)
			seen := map[string]int{}
			for _, g := range Group(stats) {
				if len(g.Members) == 0 {
					return false
				}
				for _, m := range g.Members {
					seen[m]++
				}
			}
			for tag, s := range stats {
				want := 1
				if s.Count == 0 {
					want = 0
				}
				if seen[tag] != want {
					return false
				}
			}
			return len(seen) <= len(stats)
		},
		gen.SliceOf(statsGen(), reflect.TypeOf(models.IndicatorStats{})),
	))

	properties.Property("groups are sorted by magnitude and bound their members", prop.ForAll(
		func(list []models.IndicatorStats) bool {
			stats := statsMap(list)
			groups := Group(stats)
			for i, g := range groups {
				if i > 0 && groups[i-1].Magnitude() > g.Magnitude() {
					return false
				}
				for _, m := range g.Members {
					if stats[m].Min < g.Min || stats[m].Max > g.Max {
						return false
					}
				}
			}
			return true
		},
		gen.SliceOf(statsGen(), reflect.TypeOf(models.IndicatorStats{})),
	))

	properties.TestingRun(t)
}
