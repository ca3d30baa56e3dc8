package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector aggregates the service counters on a private registry.
type Collector struct {
	registry *prometheus.Registry

	EventsCreated   *prometheus.CounterVec
	EventsDeleted   prometheus.Counter
	Notifications   *prometheus.CounterVec
	HTTPRequests    *prometheus.CounterVec
	SnapshotUploads *prometheus.CounterVec
}

func NewCollector() *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		registry: reg,
		EventsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wtx_events_created_total",
			Help: "Events persisted, by type",
		}, []string{"event_type"}),
		EventsDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wtx_events_deleted_total",
			Help: "Events removed by retention or bulk delete",
		}),
		Notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wtx_notifications_total",
			Help: "Notification dispatch outcomes",
		}, []string{"channel", "result"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wtx_http_requests_total",
			Help: "HTTP requests by method and status",
		}, []string{"method", "status"}),
		SnapshotUploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wtx_snapshot_uploads_total",
			Help: "Snapshot resolver outcomes",
		}, []string{"result"}),
	}

	reg.MustRegister(c.EventsCreated, c.EventsDeleted, c.Notifications, c.HTTPRequests, c.SnapshotUploads)
	return c
}

// Handler exposes the registry for /metrics.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Middleware counts requests by method and status.
func (c *Collector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		c.HTTPRequests.WithLabelValues(r.Method, strconv.Itoa(sw.status)).Inc()
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
