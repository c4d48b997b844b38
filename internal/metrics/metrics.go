package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal     prometheus.CounterVec
	HTTPRequestDuration   prometheus.HistogramVec
	HTTPActiveConnections prometheus.GaugeVec

	// Chat metrics
	MessagesPostedTotal  prometheus.CounterVec
	MessagesDeletedTotal prometheus.CounterVec
	ReportsFiledTotal    prometheus.CounterVec
	AutoReportedTotal    prometheus.Counter

	// Push metrics
	PushSendsTotal   prometheus.CounterVec
	PushSendsFailed  prometheus.CounterVec
	PushDroppedTotal prometheus.Counter

	// Cache metrics
	CacheHitsTotal   prometheus.CounterVec
	CacheMissesTotal prometheus.CounterVec

	// WebSocket metrics
	WebSocketConnections prometheus.Gauge
}

var (
	instance *Metrics
	once     sync.Once
)

// Initialize creates and registers all Prometheus metrics
func Initialize() *Metrics {
	once.Do(func() {
		instance = &Metrics{
			HTTPRequestsTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "http_requests_total",
					Help: "Total number of HTTP requests",
				},
				[]string{"method", "path", "status"},
			),
			HTTPRequestDuration: *promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "http_request_duration_seconds",
					Help:    "HTTP request latency in seconds",
					Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
				},
				[]string{"method", "path", "status"},
			),
			HTTPActiveConnections: *promauto.NewGaugeVec(
				prometheus.GaugeOpts{
					Name: "http_active_connections",
					Help: "Number of currently active HTTP connections",
				},
				[]string{"method", "path"},
			),

			MessagesPostedTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "chat_messages_posted_total",
					Help: "Total number of chat messages posted",
				},
				[]string{"group_id"},
			),
			MessagesDeletedTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "chat_messages_deleted_total",
					Help: "Total number of chat messages deleted",
				},
				[]string{"group_id"},
			),
			ReportsFiledTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "chat_reports_filed_total",
					Help: "Total number of message reports filed",
				},
				[]string{"reason"},
			),
			AutoReportedTotal: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "chat_messages_auto_reported_total",
					Help: "Messages automatically flagged after reaching the report threshold",
				},
			),

			PushSendsTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "push_sends_total",
					Help: "Total number of push notification sends attempted",
				},
				[]string{"topic_kind"},
			),
			PushSendsFailed: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "push_sends_failed_total",
					Help: "Total number of push notification sends that failed",
				},
				[]string{"topic_kind"},
			),
			PushDroppedTotal: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "push_dropped_total",
					Help: "Push notifications dropped because the dispatch queue was full",
				},
			),

			CacheHitsTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "cache_hits_total",
					Help: "Total number of cache hits",
				},
				[]string{"cache_name"},
			),
			CacheMissesTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "cache_misses_total",
					Help: "Total number of cache misses",
				},
				[]string{"cache_name"},
			),

			WebSocketConnections: promauto.NewGauge(
				prometheus.GaugeOpts{
					Name: "websocket_connections",
					Help: "Number of currently connected websocket clients",
				},
			),
		}
	})
	return instance
}

// Get returns the metrics instance, initializing it if needed
func Get() *Metrics {
	if instance == nil {
		return Initialize()
	}
	return instance
}
