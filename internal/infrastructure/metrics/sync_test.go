package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyncMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewSyncMetrics(reg)

	m.ObserveFetch("customers", "cache", 10*time.Millisecond)
	m.ObserveFetch("customers", "sample", 200*time.Millisecond)
	m.ObserveFetch("customers", "sample", 150*time.Millisecond)
	m.ObserveRemote(http.MethodGet, 200)
	m.ObserveRemote(http.MethodGet, 401)
	m.ObserveRemote(http.MethodPost, 0)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.fetches.WithLabelValues("customers", "cache")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.fetches.WithLabelValues("customers", "sample")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.remoteRequests.WithLabelValues("POST", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.unauthorized))
	assert.Equal(t, 1, testutil.CollectAndCount(m.fetchDuration))
}

func TestSyncMetrics_NilIsNoop(t *testing.T) {
	var m *SyncMetrics
	assert.Nil(t, NewSyncMetrics(nil))
	assert.NotPanics(t, func() {
		m.ObserveFetch("products", "remote", time.Second)
		m.ObserveRemote(http.MethodGet, 500)
	})
}

func TestHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewSyncMetrics(reg)
	m.ObserveFetch("products", "remote", time.Millisecond)

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `orderdesk_resource_fetches_total{resource="products",source="remote"} 1`))
}
