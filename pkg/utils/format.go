// Package utils provides shared utility functions.
package utils

import (
	"fmt"
	"math"
)

// FormatThousands formats an integer with comma thousands separators.
func FormatThousands(n int64) string {
	negative := n < 0
	s := fmt.Sprintf("%d", n)
	if negative {
		s = s[1:]
	}

	formatted := groupThousands(s)
	if negative {
		return "-" + formatted
	}
	return formatted
}

// groupThousands inserts commas every three digits from the right.
func groupThousands(s string) string {
	n := len(s)
	if n <= 3 {
		return s
	}

	result := s[n-3:]
	s = s[:n-3]
	for len(s) > 3 {
		result = s[len(s)-3:] + "," + result
		s = s[:len(s)-3]
	}
	return s + "," + result
}

// FormatTruncated formats the integer part of value with thousands separators.
// Fractions are dropped toward zero.
func FormatTruncated(value float64) string {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return fmt.Sprintf("%v", value)
	}
	return FormatThousands(int64(value))
}

// FormatChange formats a period-over-period change with an explicit sign.
func FormatChange(delta float64) string {
	if delta > 0 {
		return fmt.Sprintf("+%.2f", delta)
	}
	return fmt.Sprintf("%.2f", delta)
}
