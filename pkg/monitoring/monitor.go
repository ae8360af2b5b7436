package monitoring

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	// Progress sync traffic against the remote instance.
	SyncFetchCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "progress_sync_fetch_total",
			Help: "Remote progress fetches by outcome",
		},
		[]string{"outcome"},
	)

	SyncPushCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "progress_sync_push_total",
			Help: "Remote progress pushes by outcome",
		},
		[]string{"outcome"},
	)

	ProgressEventCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "progress_events_total",
			Help: "Committed progress mutations by operation",
		},
		[]string{"operation"},
	)

	EventsOnlineClients = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "events_online_clients",
			Help: "WebSocket clients connected to the events hub",
		},
	)

	EventsMessageCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_messages_total",
			Help: "Events hub messages by type and direction",
		},
		[]string{"type", "direction"},
	)
)

func Init() {
	prometheus.MustRegister(RequestCounter)
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(SyncFetchCounter)
	prometheus.MustRegister(SyncPushCounter)
	prometheus.MustRegister(ProgressEventCounter)
	prometheus.MustRegister(EventsOnlineClients)
	prometheus.MustRegister(EventsMessageCounter)
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := c.Writer.Status()

		RequestCounter.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			strconv.Itoa(status),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
		).Observe(duration)
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
