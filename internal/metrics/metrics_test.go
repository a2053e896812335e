package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"netusage/internal/core"
)

func TestMetrics_Counters(t *testing.T) {
	active := 3
	m, err := New(func() int { return active })
	require.NoError(t, err)

	m.ObserveHTTP("GET", "/", 200, 20*time.Millisecond)
	m.ObserveHTTP("GET", "/", 200, 30*time.Millisecond)
	m.ObserveHTTP("POST", "/upload", 413, time.Millisecond)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("POST", "/upload", "413")))

	m.DatasetLoaded("upload", core.LoadReport{RowsRead: 10, RowsKept: 8, RowsDropped: 2, ZeroCoerced: 1})
	assert.Equal(t, 1.0, testutil.ToFloat64(m.datasets.WithLabelValues("upload")))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.rowsProcessed.WithLabelValues("kept")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rowsProcessed.WithLabelValues("zero_coerced")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.rowsProcessed.WithLabelValues("dropped")))

	m.LoadFailed("missing_column")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.loadFailures.WithLabelValues("missing_column")))

	m.ChartRendered("svg")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.charts.WithLabelValues("svg")))

	n, err := testutil.GatherAndCount(m.Registry(), "netusage_active_sessions")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestMetrics_Handler(t *testing.T) {
	m, err := New(nil)
	require.NoError(t, err)
	m.ChartRendered("png")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `netusage_charts_rendered_total{format="png"} 1`))
}

func TestMetrics_Nil(t *testing.T) {
	var m *Metrics
	m.ObserveHTTP("GET", "/", 200, time.Second)
	m.DatasetLoaded("file", core.LoadReport{})
	m.LoadFailed("x")
	m.ChartRendered("svg")
	assert.Nil(t, m.Registry())

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
