package cli

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"econdash/internal/models"
	"econdash/pkg/utils"
)

// MissingValue is printed for an absent observation.
const MissingValue = "--"

// FormatValue prints a parsed value with two decimals and thousands
// separators, or "--" when it is missing.
func FormatValue(v models.Value) string {
	if v.IsMissing() {
		return MissingValue
	}
	return FormatNumber(v.Float)
}

// FormatNumber prints f with two decimals and thousands separators.
func FormatNumber(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return MissingValue
	}
	s := fmt.Sprintf("%.2f", math.Abs(f))
	intPart, decPart, _ := strings.Cut(s, ".")
	formatted := s
	if n, err := strconv.ParseInt(intPart, 10, 64); err == nil {
		formatted = utils.FormatThousands(n) + "." + decPart
	}
	if f < 0 && s != "0.00" {
		formatted = "-" + formatted
	}
	return formatted
}

// FormatDate formats a release date.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return MissingValue
	}
	return t.Format("2006-01-02")
}

// FormatDuration formats a duration in human-readable form.
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	} else if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	} else if d < time.Hour {
		return fmt.Sprintf("%dm %ds", int(d.Minutes()), int(d.Seconds())%60)
	} else if d < 24*time.Hour {
		return fmt.Sprintf("%dh %dm", int(d.Hours()), int(d.Minutes())%60)
	}
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	return fmt.Sprintf("%dd %dh", days, hours)
}

// FormatCount prints a count with thousands separators.
func FormatCount(n int) string {
	return utils.FormatThousands(int64(n))
}

// TruncateString truncates a string to maxLen runes with an ellipsis.
func TruncateString(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	r := []rune(s)
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}

// PadLeft pads a string to the left.
func PadLeft(s string, length int) string {
	n := utf8.RuneCountInString(s)
	if n >= length {
		return s
	}
	return strings.Repeat(" ", length-n) + s
}

// Center centers a string.
func Center(s string, length int) string {
	n := utf8.RuneCountInString(s)
	if n >= length {
		return s
	}
	padding := length - n
	left := padding / 2
	right := padding - left
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", right)
}
