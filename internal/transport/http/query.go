package http

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"econdash/internal/analysis"
	"econdash/internal/errors"
	"econdash/internal/models"
)

const dateLayout = "2006-01-02"

// splitList reads a comma-separated or repeated query parameter.
func splitList(r *http.Request, key string) []string {
	var out []string
	for _, raw := range r.URL.Query()[key] {
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// parseColumn reads ?column=, defaulting to actual.
func parseColumn(r *http.Request) (models.ValueColumn, error) {
	raw := r.URL.Query().Get("column")
	if raw == "" {
		return models.ColumnActual, nil
	}
	column, ok := models.ParseValueColumn(raw)
	if !ok {
		return "", fmt.Errorf("%w: %q", errors.ErrUnknownColumn, raw)
	}
	return column, nil
}

func parseDate(r *http.Request, key string) (time.Time, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, errors.NewValidationError(key, raw, "expected YYYY-MM-DD")
	}
	return t, nil
}

func parseRange(r *http.Request) (from, to time.Time, err error) {
	if from, err = parseDate(r, "from"); err != nil {
		return
	}
	if to, err = parseDate(r, "to"); err != nil {
		return
	}
	if !from.IsZero() && !to.IsZero() && from.After(to) {
		err = errors.NewValidationError("from", from.Format(dateLayout), "start date is after end date")
	}
	return
}

// parseFilter reads ?importance=high,medium&full_coverage=true&from=&to=.
func parseFilter(r *http.Request) (analysis.Filter, error) {
	var f analysis.Filter
	for _, raw := range splitList(r, "importance") {
		imp := models.ParseImportance(raw)
		if imp == models.ImportanceUnknown {
			return f, errors.NewValidationError("importance", raw, "expected high, medium or low")
		}
		f.Importance = append(f.Importance, imp)
	}
	if raw := r.URL.Query().Get("full_coverage"); raw != "" {
		full, err := strconv.ParseBool(raw)
		if err != nil {
			return f, errors.NewValidationError("full_coverage", raw, "expected a boolean")
		}
		f.FullCoverageOnly = full
	}
	var err error
	f.From, f.To, err = parseRange(r)
	return f, err
}

func parsePositiveInt(r *http.Request, key string) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, errors.NewValidationError(key, raw, "expected a positive integer")
	}
	return n, nil
}
