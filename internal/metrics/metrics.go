package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the service's Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "stockinator",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "stockinator",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "stockinator",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		},
		[]string{"method", "path"},
	)

	transactionsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "stockinator",
			Subsystem: "sales",
			Name:      "transactions_total",
			Help:      "Sales recorded, by outcome.",
		},
		[]string{"outcome"},
	)

	dashboardCache = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "stockinator",
			Subsystem: "dashboard",
			Name:      "cache_lookups_total",
			Help:      "Dashboard cache lookups, by result.",
		},
		[]string{"result"},
	)

	probeOnline = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "stockinator",
			Subsystem: "probe",
			Name:      "backend_online",
			Help:      "1 when the hosted backend answered the last probe.",
		},
	)

	realtimeSubscribers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "stockinator",
			Subsystem: "realtime",
			Name:      "subscribers",
			Help:      "Connected websocket subscribers.",
		},
	)

	realtimeEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "stockinator",
			Subsystem: "realtime",
			Name:      "events_total",
			Help:      "Change events consumed, by table and type.",
		},
		[]string{"table", "type"},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		transactionsCreated,
		dashboardCache,
		probeOnline,
		realtimeSubscribers,
		realtimeEvents,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler exposes the registered metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// Middleware records request count and latency labelled by route template.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		httpInFlight.Inc()
		defer httpInFlight.Dec()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		httpRequests.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

func RecordTransaction(outcome string) {
	transactionsCreated.WithLabelValues(outcome).Inc()
}

func RecordDashboardCache(hit bool) {
	if hit {
		dashboardCache.WithLabelValues("hit").Inc()
		return
	}
	dashboardCache.WithLabelValues("miss").Inc()
}

func SetProbeOnline(online bool) {
	if online {
		probeOnline.Set(1)
		return
	}
	probeOnline.Set(0)
}

func SetSubscribers(n int) {
	realtimeSubscribers.Set(float64(n))
}

func RecordEvent(table, typ string) {
	realtimeEvents.WithLabelValues(table, typ).Inc()
}
