package store

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"econdash/internal/errors"
	"econdash/internal/metrics"
	"econdash/internal/models"
)

// monthProvider returns one release dated on the first day of each requested month.
type monthProvider struct {
	mu    sync.Mutex
	calls int
	fail  bool
	empty bool
}

func (p *monthProvider) Name() string { return "fake" }

func (p *monthProvider) Fetch(ctx context.Context, from, to time.Time) ([]models.EventRecord, error) {
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()

	if p.fail {
		return nil, fmt.Errorf("%w: fake outage", errors.ErrProviderUnavailable)
	}
	if p.empty {
		return nil, nil
	}
	return []models.EventRecord{{
		Date:       time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC),
		Time:       "08:30",
		Currency:   "USD",
		Importance: models.ImportanceHigh,
		Event:      "CPI (YoY)",
		Actual:     "3.1%",
	}}, nil
}

func (p *monthProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

type refreshFixture struct {
	provider  *monthProvider
	archive   *CSVArchive
	store     *SQLiteStore
	cache     *DatasetCache
	refresher *Refresher
	offset    time.Duration // added to the refresher's clock
}

func newRefreshFixture(t *testing.T) *refreshFixture {
	t.Helper()
	dir := t.TempDir()
	f := &refreshFixture{
		provider: &monthProvider{},
		archive:  NewCSVArchive(filepath.Join(dir, "data")),
		store:    newTestStore(t),
	}
	f.cache = NewDatasetCache(f.store, time.Hour)
	f.refresher = NewRefresher(f.provider, f.archive, f.store, f.cache, RefreshConfig{
		MonthsBack:  2,
		MonthsAhead: 0,
		StaleAfter:  6 * time.Hour,
		Concurrency: 2,
	}, WithRefreshMetrics(metrics.New()),
		WithRefreshClock(func() time.Time { return time.Now().Add(f.offset) }))
	return f
}

func TestRefresher_RefreshThenSkipFresh(t *testing.T) {
	f := newRefreshFixture(t)
	ctx := context.Background()
	months := len(f.refresher.Months())
	require.GreaterOrEqual(t, months, 2)

	report, err := f.refresher.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, months, report.Refreshed)
	assert.Equal(t, months, report.Fetched)
	assert.Equal(t, months, report.Combined)
	assert.Equal(t, months, f.provider.Calls())

	stored, err := f.store.CountEvents(ctx)
	require.NoError(t, err)
	assert.Equal(t, months, stored)
	assert.False(t, f.store.GetLastSync(SyncTypeEvents).IsZero())

	again, err := f.refresher.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, months, again.Skipped)
	assert.Zero(t, again.Refreshed)
	assert.Equal(t, months, f.provider.Calls(), "fresh months are not fetched")
}

func TestRefresher_ForceIgnoresStaleness(t *testing.T) {
	f := newRefreshFixture(t)
	ctx := context.Background()

	_, err := f.refresher.Refresh(ctx)
	require.NoError(t, err)
	calls := f.provider.Calls()

	report, err := f.refresher.Force(ctx)
	require.NoError(t, err)
	assert.True(t, report.Forced)
	assert.Equal(t, len(f.refresher.Months()), report.Refreshed)
	assert.Equal(t, 2*calls, f.provider.Calls())

	stored, err := f.store.CountEvents(ctx)
	require.NoError(t, err)
	assert.Equal(t, calls, stored, "refetched releases upsert")
}

func TestRefresher_InvalidatesCache(t *testing.T) {
	f := newRefreshFixture(t)
	ctx := context.Background()

	before, err := f.cache.Get(ctx)
	require.NoError(t, err)
	assert.Empty(t, before)

	_, err = f.refresher.Refresh(ctx)
	require.NoError(t, err)

	after, err := f.cache.Get(ctx)
	require.NoError(t, err)
	assert.Len(t, after, len(f.refresher.Months()))
}

func TestRefresher_StaleMonthsAreRefetched(t *testing.T) {
	f := newRefreshFixture(t)
	ctx := context.Background()

	_, err := f.refresher.Refresh(ctx)
	require.NoError(t, err)

	f.offset = 7 * time.Hour
	for _, m := range f.refresher.Months() {
		if _, ok := f.archive.MonthModTime(m); ok {
			assert.True(t, f.refresher.NeedsRefresh(m))
		}
	}
}

func TestRefresher_AllMonthsFail(t *testing.T) {
	f := newRefreshFixture(t)
	f.provider.fail = true

	report, err := f.refresher.Refresh(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrProviderUnavailable))
	require.NotNil(t, report)
	assert.Equal(t, len(f.refresher.Months()), report.Failed)
	assert.NotEmpty(t, report.Months[0].Error)
	assert.True(t, f.store.GetLastSync(SyncTypeEvents).IsZero())
}

func TestRefresher_EmptyMonthsWriteNothing(t *testing.T) {
	f := newRefreshFixture(t)
	f.provider.empty = true

	report, err := f.refresher.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, len(f.refresher.Months()), report.Empty)

	months, err := f.archive.Months()
	require.NoError(t, err)
	assert.Empty(t, months)
}

func TestRefresher_CancelledContext(t *testing.T) {
	f := newRefreshFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.refresher.Refresh(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFreshness(t *testing.T) {
	now := time.Date(2024, 3, 12, 12, 0, 0, 0, time.UTC)

	never := freshnessAt(time.Time{}, now, 6*time.Hour)
	assert.False(t, never.IsFresh)
	assert.Equal(t, "Never synced", FormatFreshness(never))

	recent := freshnessAt(now.Add(-20*time.Minute), now, 6*time.Hour)
	assert.True(t, recent.IsFresh)
	assert.Equal(t, "Updated 20 minutes ago", FormatFreshness(recent))

	old := freshnessAt(now.Add(-50*time.Hour), now, 6*time.Hour)
	assert.False(t, old.IsFresh)
	assert.Equal(t, "Stale data - Updated 2 days ago", FormatFreshness(old))

	assert.Equal(t, "Never synced", FormatFreshness(nil))
}
