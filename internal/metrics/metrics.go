package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "route"},
	)

	SocialEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "social_events_total",
			Help: "Social events published, by type and outcome",
		},
		[]string{"type", "outcome"},
	)

	UpstreamRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upstream_requests_total",
			Help: "Calls to the music catalog, by endpoint and outcome",
		},
		[]string{"endpoint", "outcome"},
	)

	LiveConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "live_connections",
			Help: "Authenticated live-update connections",
		},
	)

	LiveDropped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "live_connections_dropped_total",
			Help: "Live-update connections dropped because their buffer was full",
		},
	)
)

var once sync.Once

// Init registers the collectors with the default registry. Safe to call more than once.
func Init() {
	once.Do(func() {
		prometheus.MustRegister(
			RequestCounter,
			RequestDuration,
			SocialEvents,
			UpstreamRequests,
			LiveConnections,
			LiveDropped,
		)
	})
}
