package client

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	metricsNamespace = "casedesk"
	metricsSubsystem = "client"
)

// Label names of the client request metrics.
const (
	LabelCollection = "collection"
	LabelOperation  = "operation"
	LabelOutcome    = "outcome"
)

// Values of the outcome label.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

type metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// newMetrics creates the request metrics. A nil registerer leaves them
// unregistered.
func newMetrics(reg prometheus.Registerer) *metrics {
	factory := promauto.With(reg)

	return &metrics{
		requests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: metricsSubsystem,
				Name:      "requests_total",
				Help:      "Collection requests issued, by outcome",
			},
			[]string{LabelCollection, LabelOperation, LabelOutcome},
		),
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: metricsSubsystem,
				Name:      "request_duration_seconds",
				Help:      "Collection request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{LabelCollection, LabelOperation},
		),
	}
}

func (m *metrics) observe(collection string, op Operation, err error, elapsed time.Duration) {
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeFailure
	}

	m.requests.With(prometheus.Labels{
		LabelCollection: collection,
		LabelOperation:  string(op),
		LabelOutcome:    outcome,
	}).Inc()

	m.duration.With(prometheus.Labels{
		LabelCollection: collection,
		LabelOperation:  string(op),
	}).Observe(elapsed.Seconds())
}
