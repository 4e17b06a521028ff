package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveFetch(t *testing.T) {
	m := New()

	m.ObserveFetch("faireconomy", 12, 200*time.Millisecond, nil)
	m.ObserveFetch("faireconomy", 0, time.Second, errors.New("boom"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.fetchTotal.WithLabelValues("faireconomy", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.fetchTotal.WithLabelValues("faireconomy", "error")))
	assert.Equal(t, 12.0, testutil.ToFloat64(m.fetchRecords.WithLabelValues("faireconomy")))
}

func TestObserveRefresh(t *testing.T) {
	m := New()
	at := time.Date(2024, 3, 12, 10, 0, 0, 0, time.UTC)

	m.ObserveRefresh(3, 10, 1, 2*time.Second, at)

	assert.Equal(t, 3.0, testutil.ToFloat64(m.refreshMonths.WithLabelValues("refreshed")))
	assert.Equal(t, 10.0, testutil.ToFloat64(m.refreshMonths.WithLabelValues("skipped")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.refreshMonths.WithLabelValues("failed")))
	assert.Equal(t, float64(at.Unix()), testutil.ToFloat64(m.lastRefresh))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveFetch("x", 1, time.Second, nil)
		m.ObserveRefresh(1, 1, 1, time.Second, time.Now())
		m.SetDatasetRecords(5)
		m.ObserveRequest("GET", "/health", 200, time.Millisecond)
	})
}

func TestHandlerExposesCollectors(t *testing.T) {
	m := New()
	m.SetDatasetRecords(42)
	m.ObserveRequest(http.MethodGet, "/api/summary", http.StatusOK, 5*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "econdash_dataset_records 42")
	assert.Contains(t, string(body), `econdash_http_requests_total{code="200",method="GET",route="/api/summary"} 1`)
}
