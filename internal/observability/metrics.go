package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the feed counters. One instance is shared by every session of
// a process.
type Metrics struct {
	BytesTotal     *prometheus.CounterVec
	MessagesTotal  *prometheus.CounterVec
	MessageBytes   *prometheus.HistogramVec
	EvictedTotal   *prometheus.CounterVec
	SessionsActive prometheus.Gauge
}

// NewMetrics creates and registers the feed metrics on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		BytesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "msgsink",
			Subsystem: "feed",
			Name:      "bytes_total",
			Help:      "Bytes pushed into framers.",
		}, []string{"source"}),

		MessagesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "msgsink",
			Subsystem: "feed",
			Name:      "messages_total",
			Help:      "Completed messages by boundary kind.",
		}, []string{"source", "boundary"}),

		MessageBytes: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "msgsink",
			Subsystem: "feed",
			Name:      "message_bytes",
			Help:      "Size of delivered messages.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}, []string{"source"}),

		EvictedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "msgsink",
			Subsystem: "feed",
			Name:      "evicted_total",
			Help:      "Queued messages evicted before they were popped.",
		}, []string{"source"}),

		SessionsActive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "msgsink",
			Subsystem: "feed",
			Name:      "sessions_active",
			Help:      "Feed sessions currently running.",
		}),
	}
}

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "msgsink",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		},
		[]string{"node", "method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "msgsink",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"node", "method", "path", "status"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(httpRequests, httpDuration)
	})
}

func RecordHTTPRequest(node, method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(node, method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(node, method, path, statusLabel).Observe(duration.Seconds())
}
