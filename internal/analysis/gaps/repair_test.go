package gaps

import (
	"reflect"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"econdash/internal/models"
)

// v builds a value slice where nil entries are missing.
func v(xs ...interface{}) []models.Value {
	out := make([]models.Value, len(xs))
	for i, x := range xs {
		switch n := x.(type) {
		case nil:
			out[i] = models.Missing()
		case int:
			out[i] = models.Some(float64(n))
		case float64:
			out[i] = models.Some(n)
		}
	}
	return out
}

func equalValues(a, b []models.Value) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Valid != b[i].Valid {
			return false
		}
		if a[i].Valid && a[i].Float != b[i].Float {
			return false
		}
	}
	return true
}

func TestRepair(t *testing.T) {
	tests := []struct {
		name string
		in   []models.Value
		want []models.Value
	}{
		{name: "empty", in: v(), want: v()},
		{name: "no gaps", in: v(1, 2, 3), want: v(1, 2, 3)},
		{name: "spurious zero forward filled", in: v(5, 0, 7), want: v(5, 5, 7)},
		{name: "spurious zero across missing neighbours", in: v(5, nil, 0, nil, 7), want: v(5, 5, 5, 5, 7)},
		{name: "zero next to zero kept", in: v(5, 0, 0, 5), want: v(5, 0, 0, 5)},
		{name: "zero at start kept", in: v(0, 4, 5), want: v(0, 4, 5)},
		{name: "zero at end kept", in: v(4, 5, 0), want: v(4, 5, 0)},
		{name: "zero with only missing before kept", in: v(nil, 0, 5), want: v(nil, 0, 5)},
		{name: "zero chain through missing kept", in: v(5, 0, nil, 0, 5), want: v(5, 0, 0, 0, 5)},
		{name: "genuine growth print", in: v(0.0, 0.0, 0.0), want: v(0.0, 0.0, 0.0)},
		{name: "gap forward filled", in: v(1, nil, nil, 4), want: v(1, 1, 1, 4)},
		{name: "leading gap stays missing", in: v(nil, nil, 3, nil), want: v(nil, nil, 3, 3)},
		{name: "all missing", in: v(nil, nil), want: v(nil, nil)},
		{name: "two spurious zeros", in: v(2, 0, 3, 0, 4), want: v(2, 2, 3, 3, 4)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Repair(tt.in)
			if !equalValues(got, tt.want) {
				t.Errorf("Repair(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestRepair_DoesNotMutateInput(t *testing.T) {
	in := v(5, 0, nil, 7)
	snapshot := append([]models.Value(nil), in...)
	Repair(in)
	if !equalValues(in, snapshot) {
		t.Errorf("input mutated: %v, want %v", in, snapshot)
	}
}

func TestInterpolate_InteriorRun(t *testing.T) {
	values := v(1, nil, nil, 4, nil)
	interpolate(values)
	want := v(1, 2, 3, 4, nil)
	if !equalValues(values, want) {
		t.Errorf("interpolate = %v, want %v", values, want)
	}
}

func TestRepairSeries(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC) }
	s := models.IndicatorSeries{
		Currency: "USD",
		Tag:      "CPI (YoY)",
		Column:   models.ColumnActual,
		Points: []models.SeriesPoint{
			{Date: day(1), Value: models.Some(3.1)},
			{Date: day(2), Value: models.Some(0)},
			{Date: day(3), Value: models.Some(3.3)},
		},
	}

	got := RepairSeries(s)
	if got.Points[1].Value.Float != 3.1 {
		t.Errorf("spurious zero not repaired: %+v", got.Points[1])
	}
	if !got.Points[1].Date.Equal(day(2)) {
		t.Errorf("dates must be preserved")
	}
	if s.Points[1].Value.Float != 0 {
		t.Errorf("original series mutated")
	}
}

func valueGen() gopter.Gen {
	return gen.Weighted([]gen.WeightedGen{
		{Weight: 2, Gen: gen.Const(models.Missing())},
		{Weight: 3, Gen: gen.Const(models.Some(0))},
		{Weight: 5, Gen: gen.Float64Range(-500, 500).Map(func(f float64) models.Value { return models.Some(f) })},
	})
}

func valuesGen() gopter.Gen {
	return gen.SliceOf(valueGen(), reflect.TypeOf(models.Value{}))
}

// Property: repair preserves length and is idempotent.
func TestProperty_RepairLengthAndIdempotence(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 300
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("len(repair(s)) == len(s)", prop.ForAll(
		func(values []models.Value) bool {
			return len(Repair(values)) == len(values)
		},
		valuesGen(),
	))

	properties.Property("repair(repair(s)) == repair(s)", prop.ForAll(
		func(values []models.Value) bool {
			once := Repair(values)
			return equalValues(Repair(once), once)
		},
		valuesGen(),
	))

	properties.Property("present non-zero values are never changed", prop.ForAll(
		func(values []models.Value) bool {
			out := Repair(values)
			for i, in := range values {
				if in.Valid && in.Float != 0 && (!out[i].Valid || out[i].Float != in.Float) {
					return false
				}
			}
			return true
		},
		valuesGen(),
	))

	properties.TestingRun(t)
}

// Property: a zero between two non-zero readings is replaced by the earlier reading,
// while a zero next to another zero survives.
func TestProperty_SpuriousZero(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	nonZero := gen.Float64Range(0.1, 900)

	properties.Property("zero flanked by non-zeros is repaired", prop.ForAll(
		func(a, b float64) bool {
			out := Repair(v(a, 0, b))
			return out[1].Valid && out[1].Float == a
		},
		nonZero, nonZero,
	))

	properties.Property("zero flanked by zeros is preserved", prop.ForAll(
		func(a float64) bool {
			out := Repair(v(a, 0, 0, 0, a))
			return out[1].Float == 0 && out[2].Float == 0 && out[3].Float == 0
		},
		nonZero,
	))

	properties.Property("zero with a missing side is preserved", prop.ForAll(
		func(a float64) bool {
			out := Repair(v(nil, 0, a))
			return out[1].Valid && out[1].Float == 0
		},
		nonZero,
	))

	properties.TestingRun(t)
}
