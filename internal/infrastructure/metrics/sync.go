// Package metrics exposes Prometheus instruments for resource sync and remote calls.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "orderdesk"

// SyncMetrics records how resources were served and how the remote API behaved.
// A nil *SyncMetrics is valid and records nothing.
type SyncMetrics struct {
	fetches        *prometheus.CounterVec
	fetchDuration  *prometheus.HistogramVec
	remoteRequests *prometheus.CounterVec
	unauthorized   prometheus.Counter
}

// NewSyncMetrics registers the sync metrics on reg
func NewSyncMetrics(reg prometheus.Registerer) *SyncMetrics {
	if reg == nil {
		return nil
	}
	m := &SyncMetrics{
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resource_fetches_total",
			Help:      "Resource fetches by resource and where the data came from.",
		}, []string{"resource", "source"}),
		fetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "resource_fetch_duration_seconds",
			Help:      "Duration of resource fetches in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"resource"}),
		remoteRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "remote_requests_total",
			Help:      "Requests sent to the remote API by method and status code.",
		}, []string{"method", "status"}),
		unauthorized: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "remote_unauthorized_total",
			Help:      "Remote responses that invalidated the session.",
		}),
	}
	reg.MustRegister(m.fetches, m.fetchDuration, m.remoteRequests, m.unauthorized)
	return m
}

// ObserveFetch records one resource fetch served from source
func (m *SyncMetrics) ObserveFetch(resource, source string, d time.Duration) {
	if m == nil {
		return
	}
	m.fetches.WithLabelValues(resource, source).Inc()
	m.fetchDuration.WithLabelValues(resource).Observe(d.Seconds())
}

// ObserveRemote records one remote request. status 0 means a transport error.
func (m *SyncMetrics) ObserveRemote(method string, status int) {
	if m == nil {
		return
	}
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	m.remoteRequests.WithLabelValues(method, label).Inc()
	if status == http.StatusUnauthorized {
		m.unauthorized.Inc()
	}
}

// Handler serves the metrics gathered by g
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
