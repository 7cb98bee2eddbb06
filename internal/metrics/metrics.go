// Package metrics holds the Prometheus collectors exposed on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "hearth"

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)

	rateLimited = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "rate_limited_total",
			Help:      "Total number of requests rejected by the rate limiter.",
		},
	)

	notificationsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notifications",
			Name:      "created_total",
			Help:      "Total number of notifications created.",
		},
		[]string{"type"},
	)

	pushDeliveries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notifications",
			Name:      "push_deliveries_total",
			Help:      "Total number of web push deliveries attempted.",
		},
		[]string{"result"},
	)

	auditEntries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "audit",
			Name:      "entries_total",
			Help:      "Total number of audit log entries appended.",
		},
		[]string{"item_type"},
	)

	sideEffectFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "side_effects",
			Name:      "failures_total",
			Help:      "Total number of best-effort writes that failed.",
		},
		[]string{"kind"},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		rateLimited,
		notificationsCreated,
		pushDeliveries,
		auditEntries,
		sideEffectFailures,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// RegisterWebsocketClients exposes the live connection count reported by count.
func RegisterWebsocketClients(count func() int) error {
	return Registry.Register(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "websocket",
			Name:      "clients",
			Help:      "Current number of connected websocket clients.",
		},
		func() float64 { return float64(count()) },
	))
}

// Routes is the set of paths the server registers. Requests to any other
// path share the "/other" label.
type Routes map[string]bool

// Add records the path of a ServeMux pattern such as "GET /items/bills".
func (rs Routes) Add(pattern string) {
	if _, path, ok := strings.Cut(pattern, " "); ok {
		pattern = path
	}
	rs[pattern] = true
}

func (rs Routes) label(path string) string {
	if rs[path] {
		return path
	}
	return "/other"
}

var knownMethods = map[string]bool{
	http.MethodGet:     true,
	http.MethodHead:    true,
	http.MethodPost:    true,
	http.MethodPut:     true,
	http.MethodPatch:   true,
	http.MethodDelete:  true,
	http.MethodOptions: true,
}

func methodLabel(method string) string {
	if knownMethods[method] {
		return method
	}
	return "OTHER"
}

// InstrumentHandler wraps the provided handler with HTTP metrics collection.
// Path labels are limited to routes.
func InstrumentHandler(next http.Handler, routes Routes) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		httpInFlight.Inc()
		defer httpInFlight.Dec()

		next.ServeHTTP(rec, r)

		path := routes.label(r.URL.Path)
		method := methodLabel(r.Method)

		httpRequests.WithLabelValues(method, path, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	})
}

func RecordRateLimited() {
	rateLimited.Inc()
}

func RecordNotification(typ string) {
	notificationsCreated.WithLabelValues(typ).Inc()
}

// RecordPush records the outcome of delivering to n subscriptions, of which
// sent succeeded.
func RecordPush(sent, attempted int) {
	if sent > 0 {
		pushDeliveries.WithLabelValues("sent").Add(float64(sent))
	}
	if failed := attempted - sent; failed > 0 {
		pushDeliveries.WithLabelValues("failed").Add(float64(failed))
	}
}

var auditItemTypes = map[string]bool{
	"bills":       true,
	"chores":      true,
	"shopping":    true,
	"maintenance": true,
	"members":     true,
}

// RecordAudit counts an appended entry. Item types are client supplied on
// POST /audit-log, so unknown ones share the "other" label.
func RecordAudit(itemType string) {
	switch {
	case itemType == "":
		itemType = "none"
	case !auditItemTypes[itemType]:
		itemType = "other"
	}
	auditEntries.WithLabelValues(itemType).Inc()
}

// RecordSideEffectFailure counts a best-effort write (audit, notification,
// email) that failed after the primary mutation succeeded.
func RecordSideEffectFailure(kind string) {
	sideEffectFailures.WithLabelValues(kind).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Unwrap lets http.ResponseController reach the underlying writer, which
// websocket upgrades need.
func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}
