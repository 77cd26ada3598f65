package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gastbook_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"path", "method", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gastbook_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)
	domainEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gastbook_domain_events_total",
			Help: "Domain events published on the in-process bus",
		},
		[]string{"kind"},
	)
	notificationsDelivered = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gastbook_notifications_total",
			Help: "Notifications delivered per channel",
		},
		[]string{"type", "channel"},
	)
	wsConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "gastbook_websocket_connections",
			Help: "Open websocket connections",
		},
	)
	dispatchDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gastbook_dispatch_dropped_total",
			Help: "Email/push jobs dropped because the queue was full",
		},
		[]string{"channel"},
	)

	registerOnce sync.Once
)

// InitPrometheus registers the collectors. Safe to call more than once.
func InitPrometheus() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			httpRequestsTotal,
			httpRequestDuration,
			domainEvents,
			notificationsDelivered,
			wsConnections,
			dispatchDropped,
		)
	})
}

// Middleware records every request under its route template, so ids in
// paths do not blow up label cardinality.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		httpRequestsTotal.WithLabelValues(path, c.Request.Method, status).Inc()
		httpRequestDuration.WithLabelValues(path, c.Request.Method).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

func EventPublished(kind string) {
	domainEvents.WithLabelValues(kind).Inc()
}

// NotificationDelivered channel is one of inapp, ws, email, push.
func NotificationDelivered(typ, channel string) {
	notificationsDelivered.WithLabelValues(typ, channel).Inc()
}

func ConnectionOpened() { wsConnections.Inc() }

func ConnectionClosed() { wsConnections.Dec() }

func DispatchDropped(channel string) {
	dispatchDropped.WithLabelValues(channel).Inc()
}
