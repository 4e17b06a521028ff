// Package services holds the dashboard operations shared by the CLI and the HTTP API.
package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"econdash/internal/analysis"
	"econdash/internal/analysis/coverage"
	"econdash/internal/errors"
	"econdash/internal/logging"
	"econdash/internal/metrics"
	"econdash/internal/models"
	"econdash/internal/report"
	"econdash/internal/store"
)

// Dataset is the cached raw calendar.
type Dataset interface {
	Get(ctx context.Context) ([]models.EventRecord, error)
	LoadedAt() time.Time
}

// Refresher downloads stale months into the dataset.
type Refresher interface {
	Refresh(ctx context.Context) (*store.RefreshReport, error)
	Force(ctx context.Context) (*store.RefreshReport, error)
	Freshness() *store.DataFreshness
}

// CurrencyInfo describes one currency present in the dataset.
type CurrencyInfo struct {
	Code    string `json:"code"`
	Name    string `json:"name"`
	Records int    `json:"records"`
	Tags    int    `json:"tags"`
	Tracked bool   `json:"tracked"`
}

// CoverageReport is the coverage matrix of the tracked regions.
type CoverageReport struct {
	Regions      []string               `json:"regions"`
	FullCoverage []string               `json:"full_coverage"`
	Matrix       []coverage.TagCoverage `json:"matrix"`
}

// HealthStatus reports whether the dataset can be served.
type HealthStatus struct {
	Status      string    `json:"status"`
	Records     int       `json:"records"`
	Rejected    int       `json:"rejected"`
	LoadedAt    time.Time `json:"loaded_at,omitempty"`
	LastUpdated time.Time `json:"last_updated,omitempty"`
	Fresh       bool      `json:"fresh"`
	Freshness   string    `json:"freshness"`
	Error       string    `json:"error,omitempty"`
}

// Dashboard answers every read and refresh request against one dataset.
type Dashboard struct {
	pipeline   *analysis.Pipeline
	dataset    Dataset
	refresher  Refresher
	names      func(code string) string
	categories []report.Category
	metrics    *metrics.Metrics
	logger     zerolog.Logger
	now        func() time.Time

	mu         sync.Mutex
	loadedAt   time.Time
	raw        []models.EventRecord
	normalized []models.NormalizedRecord
	rejected   int
}

// Option configures a Dashboard.
type Option func(*Dashboard)

// WithRefresher enables Refresh and freshness reporting.
func WithRefresher(r Refresher) Option {
	return func(d *Dashboard) { d.refresher = r }
}

// WithDisplayNames sets the currency display-name lookup.
func WithDisplayNames(fn func(code string) string) Option {
	return func(d *Dashboard) { d.names = fn }
}

// WithCategories replaces the history table layout.
func WithCategories(c []report.Category) Option {
	return func(d *Dashboard) { d.categories = c }
}

// WithMetrics records dataset size on every reload.
func WithMetrics(m *metrics.Metrics) Option {
	return func(d *Dashboard) { d.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(d *Dashboard) { d.logger = logger }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(d *Dashboard) { d.now = now }
}

// NewDashboard creates a dashboard over dataset.
func NewDashboard(pipeline *analysis.Pipeline, dataset Dataset, opts ...Option) *Dashboard {
	d := &Dashboard{
		pipeline:   pipeline,
		dataset:    dataset,
		names:      func(code string) string { return code },
		categories: report.DefaultCategories(),
		logger:     zerolog.Nop(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Pipeline returns the analysis pipeline.
func (d *Dashboard) Pipeline() *analysis.Pipeline { return d.pipeline }

// load returns the raw and normalised dataset. Normalisation is redone only
// when the dataset has been reloaded since the previous call.
func (d *Dashboard) load(ctx context.Context) ([]models.EventRecord, []models.NormalizedRecord, error) {
	raw, err := d.dataset.Get(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load dataset: %w", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	loadedAt := d.dataset.LoadedAt()
	if d.normalized != nil && loadedAt.Equal(d.loadedAt) {
		return d.raw, d.normalized, nil
	}

	normalized, err := d.pipeline.ClassifyAndNormalize(raw)
	d.rejected = 0
	if err != nil {
		invalid := analysis.InvalidRecords(err)
		d.rejected = len(invalid)
		logger := logging.WithOperation(d.logger, "normalize")
		for _, ire := range invalid {
			logger.Debug().Int("index", ire.Index).Str("id", ire.RecordID).Str("field", ire.Field).Msg(ire.Reason)
		}
		logger.Warn().Int("rejected", d.rejected).Int("kept", len(normalized)).Msg("Dropped invalid releases")
	}

	d.raw, d.normalized, d.loadedAt = raw, normalized, loadedAt
	d.metrics.SetDatasetRecords(len(normalized))
	return raw, normalized, nil
}

// Records returns the classified and normalised dataset.
func (d *Dashboard) Records(ctx context.Context) ([]models.NormalizedRecord, error) {
	_, normalized, err := d.load(ctx)
	return normalized, err
}

// Summary describes the whole dataset.
func (d *Dashboard) Summary(ctx context.Context) (analysis.Summary, error) {
	records, err := d.Records(ctx)
	if err != nil {
		return analysis.Summary{}, err
	}
	return d.pipeline.Summarize(records), nil
}

// Currencies lists every currency in the dataset, tracked regions first.
func (d *Dashboard) Currencies(ctx context.Context) ([]CurrencyInfo, error) {
	records, err := d.Records(ctx)
	if err != nil {
		return nil, err
	}

	tracked := make(map[string]bool)
	for _, r := range d.pipeline.Regions() {
		tracked[r] = true
	}
	counts := make(map[string]int)
	tags := make(map[string]map[string]bool)
	for _, r := range records {
		counts[r.Currency]++
		if tags[r.Currency] == nil {
			tags[r.Currency] = make(map[string]bool)
		}
		tags[r.Currency][r.Tag] = true
	}

	out := make([]CurrencyInfo, 0, len(counts))
	for code, n := range counts {
		out = append(out, CurrencyInfo{
			Code:    code,
			Name:    d.names(code),
			Records: n,
			Tags:    len(tags[code]),
			Tracked: tracked[code],
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Tracked != out[j].Tracked {
			return out[i].Tracked
		}
		return out[i].Code < out[j].Code
	})
	return out, nil
}

// Tags counts releases per tag, for one currency or, when currency is empty, all of them.
func (d *Dashboard) Tags(ctx context.Context, currency string) ([]analysis.TagCount, error) {
	records, err := d.Records(ctx)
	if err != nil {
		return nil, err
	}
	if currency != "" {
		code := normalizeCode(currency)
		records = byCurrency(records, code)
		if len(records) == 0 {
			return nil, fmt.Errorf("%w: %s", errors.ErrUnknownCurrency, code)
		}
	}
	return d.pipeline.Summarize(records).Tags, nil
}

// CurrencyView groups the indicators of one currency by scale.
func (d *Dashboard) CurrencyView(ctx context.Context, currency string, column models.ValueColumn, f analysis.Filter) (analysis.CurrencyView, error) {
	records, err := d.Records(ctx)
	if err != nil {
		return analysis.CurrencyView{}, err
	}
	code := normalizeCode(currency)
	if len(byCurrency(records, code)) == 0 {
		return analysis.CurrencyView{}, fmt.Errorf("%w: %s", errors.ErrUnknownCurrency, code)
	}
	return d.pipeline.CurrencyView(records, code, column, f), nil
}

// Series returns the repaired series of one indicator of one currency.
func (d *Dashboard) Series(ctx context.Context, currency, tag string, column models.ValueColumn) (models.IndicatorSeries, error) {
	records, err := d.Records(ctx)
	if err != nil {
		return models.IndicatorSeries{}, err
	}
	code := normalizeCode(currency)
	s := analysis.BuildSeries(records, code, tag, column)
	if len(s.Points) == 0 {
		logger := logging.WithTag(logging.WithCurrency(d.logger, code), tag)
		logger.Debug().Msg("No releases for series")
		return s, fmt.Errorf("%w: %s %s", errors.ErrDataNotFound, code, tag)
	}
	return analysis.Repair(s), nil
}

// IndicatorView compares one tag across currencies.
func (d *Dashboard) IndicatorView(ctx context.Context, tag string, column models.ValueColumn, f analysis.Filter) (analysis.IndicatorView, error) {
	records, err := d.Records(ctx)
	if err != nil {
		return analysis.IndicatorView{}, err
	}
	view := d.pipeline.IndicatorView(records, tag, column, f)
	if len(view.Series) == 0 {
		return view, fmt.Errorf("%w: %s", errors.ErrDataNotFound, tag)
	}
	return view, nil
}

// Coverage builds the coverage matrix of the tracked regions.
func (d *Dashboard) Coverage(ctx context.Context) (CoverageReport, error) {
	records, err := d.Records(ctx)
	if err != nil {
		return CoverageReport{}, err
	}
	return CoverageReport{
		Regions:      d.pipeline.Regions(),
		FullCoverage: d.pipeline.FullCoverage(records),
		Matrix:       d.pipeline.CoverageMatrix(records),
	}, nil
}

// Calendar lists releases by day. A zero query falls back to the default window.
func (d *Dashboard) Calendar(ctx context.Context, q report.CalendarQuery) ([]report.CalendarDay, error) {
	raw, _, err := d.load(ctx)
	if err != nil {
		return nil, err
	}
	def := report.DefaultCalendarQuery(d.now())
	if q.From.IsZero() && q.To.IsZero() {
		q.From, q.To = def.From, def.To
	}
	if q.Importance == nil {
		q.Importance = def.Importance
	}
	return report.BuildCalendar(raw, q)
}

// History pivots the recent years of one currency.
func (d *Dashboard) History(ctx context.Context, q report.HistoryQuery) (*report.HistoryTable, error) {
	records, err := d.Records(ctx)
	if err != nil {
		return nil, err
	}
	if len(q.Categories) == 0 {
		q.Categories = d.categories
	}
	return report.BuildHistory(records, q)
}

// Refresh downloads stale months, or every month when force is set.
func (d *Dashboard) Refresh(ctx context.Context, force bool) (*store.RefreshReport, error) {
	if d.refresher == nil {
		return nil, fmt.Errorf("%w: no provider configured", errors.ErrProviderUnavailable)
	}
	if force {
		return d.refresher.Force(ctx)
	}
	return d.refresher.Refresh(ctx)
}

// Freshness reports the age of the dataset, or nil without a refresher.
func (d *Dashboard) Freshness() *store.DataFreshness {
	if d.refresher == nil {
		return nil
	}
	return d.refresher.Freshness()
}

// Health loads the dataset and reports its state. Status is "ok", "stale"
// or "error".
func (d *Dashboard) Health(ctx context.Context) HealthStatus {
	h := HealthStatus{Status: "ok"}
	records, err := d.Records(ctx)
	if err != nil {
		h.Status = "error"
		h.Error = err.Error()
		return h
	}

	d.mu.Lock()
	h.Records, h.Rejected, h.LoadedAt = len(records), d.rejected, d.loadedAt
	d.mu.Unlock()

	freshness := d.Freshness()
	h.Freshness = store.FormatFreshness(freshness)
	if freshness != nil {
		h.LastUpdated = freshness.LastUpdated
		h.Fresh = freshness.IsFresh
		if !freshness.IsFresh {
			h.Status = "stale"
		}
	}
	return h
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func byCurrency(records []models.NormalizedRecord, code string) []models.NormalizedRecord {
	var out []models.NormalizedRecord
	for _, r := range records {
		if r.Currency == code {
			out = append(out, r)
		}
	}
	return out
}
