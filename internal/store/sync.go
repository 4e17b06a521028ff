package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"econdash/internal/errors"
	"econdash/internal/logging"
	"econdash/internal/metrics"
	"econdash/internal/models"
	"econdash/pkg/utils"
)

// RefreshConfig holds configuration for the refresher.
type RefreshConfig struct {
	// MonthsBack and MonthsAhead bound the visited window in 30-day steps.
	MonthsBack  int
	MonthsAhead int
	// StaleAfter is how old a month file can be before it is fetched again.
	StaleAfter time.Duration
	// Concurrency caps simultaneous month fetches.
	Concurrency int
}

// DefaultRefreshConfig returns default refresh configuration.
func DefaultRefreshConfig() RefreshConfig {
	return RefreshConfig{
		MonthsBack:  59,
		MonthsAhead: 1,
		StaleAfter:  6 * time.Hour,
		Concurrency: 4,
	}
}

// MonthResult is the outcome of one month during a refresh.
type MonthResult struct {
	Month   string `json:"month"`
	Records int    `json:"records"`
	Skipped bool   `json:"skipped,omitempty"`
	Empty   bool   `json:"empty,omitempty"`
	Error   string `json:"error,omitempty"`

	err error
}

// RefreshReport summarises a refresh.
type RefreshReport struct {
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	Forced    bool          `json:"forced"`
	Months    []MonthResult `json:"months"`
	Refreshed int           `json:"refreshed"`
	Skipped   int           `json:"skipped"`
	Empty     int           `json:"empty"`
	Failed    int           `json:"failed"`
	Fetched   int           `json:"fetched"`
	Combined  int           `json:"combined"`
}

// DataFreshness represents the freshness of the stored dataset.
type DataFreshness struct {
	LastUpdated time.Time     `json:"last_updated"`
	IsFresh     bool          `json:"is_fresh"`
	Age         time.Duration `json:"age"`
}

// Refresher keeps the monthly archive, the combined file and the event
// store up to date. Only one refresh runs at a time.
type Refresher struct {
	provider Provider
	archive  *CSVArchive
	store    EventStore
	cache    *DatasetCache
	config   RefreshConfig
	logger   zerolog.Logger
	metrics  *metrics.Metrics
	now      func() time.Time

	running sync.Mutex
}

// RefresherOption configures a Refresher.
type RefresherOption func(*Refresher)

// WithRefreshLogger sets the logger.
func WithRefreshLogger(logger zerolog.Logger) RefresherOption {
	return func(r *Refresher) { r.logger = logger }
}

// WithRefreshMetrics sets the metrics sink.
func WithRefreshMetrics(m *metrics.Metrics) RefresherOption {
	return func(r *Refresher) { r.metrics = m }
}

// WithRefreshClock replaces time.Now.
func WithRefreshClock(now func() time.Time) RefresherOption {
	return func(r *Refresher) { r.now = now }
}

// NewRefresher creates a refresher. store and cache may be nil.
func NewRefresher(provider Provider, archive *CSVArchive, store EventStore, cache *DatasetCache, cfg RefreshConfig, opts ...RefresherOption) *Refresher {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = DefaultRefreshConfig().StaleAfter
	}
	r := &Refresher{
		provider: provider,
		archive:  archive,
		store:    store,
		cache:    cache,
		config:   cfg,
		logger:   zerolog.Nop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Months returns the months visited by a refresh, newest first.
func (r *Refresher) Months() []time.Time {
	return utils.MonthsAround(r.now(), r.config.MonthsAhead, r.config.MonthsBack)
}

// NeedsRefresh reports whether the month file is missing or older than StaleAfter.
func (r *Refresher) NeedsRefresh(month time.Time) bool {
	modTime, ok := r.archive.MonthModTime(month)
	if !ok {
		return true
	}
	return r.now().Sub(modTime) > r.config.StaleAfter
}

// Refresh fetches every missing or stale month.
func (r *Refresher) Refresh(ctx context.Context) (*RefreshReport, error) {
	return r.run(ctx, false)
}

// Force fetches every month in the window regardless of staleness.
func (r *Refresher) Force(ctx context.Context) (*RefreshReport, error) {
	return r.run(ctx, true)
}

func (r *Refresher) run(ctx context.Context, force bool) (*RefreshReport, error) {
	if !r.running.TryLock() {
		return nil, errors.ErrRefreshInProgress
	}
	defer r.running.Unlock()

	logger := logging.WithOperation(r.logger, "refresh")
	report := &RefreshReport{StartedAt: r.now(), Forced: force}
	months := r.Months()
	report.Months = make([]MonthResult, len(months))
	fetched := make([][]models.EventRecord, len(months))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.config.Concurrency)

	for i, month := range months {
		report.Months[i].Month = utils.MonthKey(month)
		if !force && !r.NeedsRefresh(month) {
			report.Months[i].Skipped = true
			continue
		}

		i, month := i, month
		g.Go(func() error {
			records, err := r.fetchMonth(gctx, month)
			res := &report.Months[i]
			switch {
			case err != nil:
				res.err = err
				res.Error = err.Error()
			case len(records) == 0:
				res.Empty = true
			default:
				res.Records = len(records)
				fetched[i] = records
			}
			// one failing month does not abort the others
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("refresh interrupted: %w", err)
	}

	var monthErrs error
	var saved []models.EventRecord
	for i, res := range report.Months {
		switch {
		case res.Skipped:
			report.Skipped++
		case res.err != nil:
			report.Failed++
			monthErrs = multierr.Append(monthErrs, fmt.Errorf("%s: %w", res.Month, res.err))
		case res.Empty:
			report.Empty++
		default:
			report.Refreshed++
			report.Fetched += res.Records
			saved = append(saved, fetched[i]...)
		}
	}

	if err := r.publish(ctx, report, saved); err != nil {
		return report, err
	}

	report.Duration = r.now().Sub(report.StartedAt)
	r.metrics.ObserveRefresh(report.Refreshed, report.Skipped, report.Failed, report.Duration, r.now())
	logging.LogRefresh(logger, report.Refreshed, report.Skipped, report.Failed, report.Fetched, report.Duration)

	if report.Failed > 0 && report.Refreshed == 0 {
		return report, monthErrs
	}
	return report, nil
}

func (r *Refresher) fetchMonth(ctx context.Context, month time.Time) ([]models.EventRecord, error) {
	from, to := utils.MonthBounds(month)
	start := time.Now()
	records, err := r.provider.Fetch(ctx, from, to)
	elapsed := time.Since(start)

	r.metrics.ObserveFetch(r.provider.Name(), len(records), elapsed, err)
	logging.LogFetch(r.logger, r.provider.Name(), utils.MonthKey(month), len(records), elapsed, err)
	if err != nil || len(records) == 0 {
		return nil, err
	}

	if err := r.archive.WriteMonth(month, records); err != nil {
		logger := logging.WithMonth(r.logger, utils.MonthKey(month))
		logger.Error().Err(err).Msg("Failed to archive month")
		return nil, fmt.Errorf("failed to archive %s: %w", utils.MonthKey(month), err)
	}
	return records, nil
}

// publish rebuilds the combined file, stores the fetched releases, drops the
// cached dataset and records the sync time.
func (r *Refresher) publish(ctx context.Context, report *RefreshReport, fetched []models.EventRecord) error {
	combined, err := r.archive.RebuildCombined()
	if err != nil {
		return fmt.Errorf("failed to rebuild combined file: %w", err)
	}
	report.Combined = combined

	if r.store != nil {
		if err := r.store.SaveEvents(ctx, fetched); err != nil {
			return fmt.Errorf("failed to store events: %w", err)
		}
	}
	if r.cache != nil {
		r.cache.Invalidate()
	}
	if r.store != nil && report.Refreshed > 0 {
		if err := r.store.SetLastSync(SyncTypeEvents, r.now()); err != nil {
			return err
		}
	}
	return nil
}

// Freshness returns how old the dataset is. The last sync recorded in the
// store wins; without a store the combined file's modification time is used.
func (r *Refresher) Freshness() *DataFreshness {
	var last time.Time
	if r.store != nil {
		last = r.store.GetLastSync(SyncTypeEvents)
	}
	if last.IsZero() {
		if modTime, err := statFile(r.archive.CombinedPath()); err == nil {
			last = modTime
		}
	}
	return freshnessAt(last, r.now(), r.config.StaleAfter)
}

func freshnessAt(last, now time.Time, staleAfter time.Duration) *DataFreshness {
	if last.IsZero() {
		return &DataFreshness{}
	}
	age := now.Sub(last)
	return &DataFreshness{
		LastUpdated: last,
		IsFresh:     age < staleAfter,
		Age:         age,
	}
}

// FormatFreshness returns a human-readable freshness string.
func FormatFreshness(freshness *DataFreshness) string {
	if freshness == nil || freshness.LastUpdated.IsZero() {
		return "Never synced"
	}

	age := freshness.Age
	var ageStr string

	switch {
	case age < time.Minute:
		ageStr = "just now"
	case age < time.Hour:
		ageStr = fmt.Sprintf("%d minutes ago", int(age.Minutes()))
	case age < 24*time.Hour:
		ageStr = fmt.Sprintf("%d hours ago", int(age.Hours()))
	default:
		ageStr = fmt.Sprintf("%d days ago", int(age.Hours()/24))
	}

	if freshness.IsFresh {
		return fmt.Sprintf("Updated %s", ageStr)
	}
	return fmt.Sprintf("Stale data - Updated %s", ageStr)
}
