package cli

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"econdash/internal/models"
)

var groupedNumber = regexp.MustCompile(`^-?\d{1,3}(,\d{3})*\.\d{2}$`)

// Property: FormatNumber groups thousands, keeps two decimals and
// preserves the value when the separators are removed.
func TestProperty_NumberFormatting(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())
	properties := gopter.NewProperties(parameters)

	properties.Property("FormatNumber produces grouped two-decimal output", prop.ForAll(
		func(f float64) bool {
			formatted := FormatNumber(f)
			if !groupedNumber.MatchString(formatted) {
				t.Logf("Invalid format for %f: %s", f, formatted)
				return false
			}
			return true
		},
		gen.Float64Range(-1e12, 1e12),
	))

	properties.Property("FormatNumber preserves value", prop.ForAll(
		func(f float64) bool {
			formatted := FormatNumber(f)
			parsed, err := strconv.ParseFloat(strings.ReplaceAll(formatted, ",", ""), 64)
			if err != nil {
				return false
			}
			if diff := math.Abs(parsed - math.Round(f*100)/100); diff > 0.011 {
				t.Logf("Value not preserved: original=%f, formatted=%s, parsed=%f", f, formatted, parsed)
				return false
			}
			return true
		},
		gen.Float64Range(-1e9, 1e9),
	))

	properties.Property("FormatValue prints -- only for missing values", prop.ForAll(
		func(f float64, missing bool) bool {
			v := models.Some(f)
			if missing {
				v = models.Missing()
			}
			return (FormatValue(v) == MissingValue) == missing
		},
		gen.Float64Range(-1e6, 1e6),
		gen.Bool(),
	))

	properties.Property("TruncateString never exceeds the limit", prop.ForAll(
		func(s string, n int) bool {
			out := TruncateString(s, n)
			if len([]rune(out)) > n {
				return false
			}
			return len([]rune(s)) > n || out == s
		},
		gen.AnyString(),
		gen.IntRange(0, 40),
	))

	properties.Property("PadLeft and Center reach the requested width", prop.ForAll(
		func(s string, n int) bool {
			want := len([]rune(s))
			if n > want {
				want = n
			}
			return len([]rune(PadLeft(s, n))) == want && len([]rune(Center(s, n))) == want
		},
		gen.AlphaString(),
		gen.IntRange(0, 40),
	))

	properties.TestingRun(t)
}

func TestFormatNumberExamples(t *testing.T) {
	testCases := []struct {
		value    float64
		expected string
	}{
		{0, "0.00"},
		{1, "1.00"},
		{-0.001, "0.00"},
		{999.999, "1,000.00"},
		{1234.5, "1,234.50"},
		{-1234.56, "-1,234.56"},
		{12345678.9, "12,345,678.90"},
		{math.NaN(), "--"},
	}

	for _, tc := range testCases {
		t.Run(tc.expected, func(t *testing.T) {
			if result := FormatNumber(tc.value); result != tc.expected {
				t.Errorf("FormatNumber(%f) = %s, want %s", tc.value, result, tc.expected)
			}
		})
	}
}

func TestFormatDurationExamples(t *testing.T) {
	testCases := []struct {
		d        time.Duration
		expected string
	}{
		{250 * time.Millisecond, "250ms"},
		{42 * time.Second, "42s"},
		{3*time.Minute + 5*time.Second, "3m 5s"},
		{2*time.Hour + 30*time.Minute, "2h 30m"},
		{50 * time.Hour, "2d 2h"},
	}

	for _, tc := range testCases {
		t.Run(tc.expected, func(t *testing.T) {
			if result := FormatDuration(tc.d); result != tc.expected {
				t.Errorf("FormatDuration(%v) = %s, want %s", tc.d, result, tc.expected)
			}
		})
	}
}
