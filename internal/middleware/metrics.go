package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	metricsNamespace = "casedesk"
	metricsSubsystem = "http"
)

// Label names of the HTTP metrics.
const (
	LabelMethod     = "method"
	LabelRoute      = "route"
	LabelCollection = "collection"
	LabelStatus     = "status"
)

// Metrics records request counts, latencies and in-flight requests per
// route template and collection.
type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	inFlight prometheus.Gauge
}

// NewMetrics creates the HTTP metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		requests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: metricsSubsystem,
				Name:      "requests_total",
				Help:      "HTTP requests served, by route, collection and status",
			},
			[]string{LabelMethod, LabelRoute, LabelCollection, LabelStatus},
		),
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: metricsSubsystem,
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{LabelMethod, LabelRoute, LabelCollection},
		),
		inFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Subsystem: metricsSubsystem,
				Name:      "requests_in_flight",
				Help:      "HTTP requests currently being served",
			},
		),
	}
}

// Middleware returns the middleware feeding m. Item IDs never become label
// values, they are folded into the route template.
func (m *Metrics) Middleware() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := newStatusRecorder(w)

			m.inFlight.Inc()
			defer m.inFlight.Dec()

			next.ServeHTTP(rec, r)

			route := matchedRoute(r)

			m.requests.With(prometheus.Labels{
				LabelMethod:     r.Method,
				LabelRoute:      route.template,
				LabelCollection: route.collection,
				LabelStatus:     strconv.Itoa(rec.status),
			}).Inc()

			m.duration.With(prometheus.Labels{
				LabelMethod:     r.Method,
				LabelRoute:      route.template,
				LabelCollection: route.collection,
			}).Observe(time.Since(start).Seconds())
		})
	}
}
