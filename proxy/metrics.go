package proxy

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	SubmissionAccepted      = "accepted"
	SubmissionRejected      = "rejected_upstream"
	SubmissionInvalidParams = "invalid_params"
	SubmissionNoWork        = "no_work"
	SubmissionFailed        = "failed"
)

// Metrics prometheus collectors updated by the proxy handlers
type Metrics struct {
	Templates         prometheus.Counter
	Submissions       *prometheus.CounterVec
	HeightsSuppressed prometheus.Counter
	UpstreamErrors    prometheus.Counter
	BaseNodeErrors    prometheus.Counter
	AuxiliaryHeight   prometheus.Gauge
	AuxiliaryTarget   prometheus.Gauge
}

// NewMetrics registers the collectors on registerer, prometheus.DefaultRegisterer when nil.
// Collectors already registered under the same name are reused
func NewMetrics(namespace string, registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	register := func(c prometheus.Collector) prometheus.Collector {
		if err := registerer.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				return are.ExistingCollector
			}
			return c
		}
		return c
	}

	m := &Metrics{}

	m.Templates = register(prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "templates_total",
		Help:      "Total number of merge mined block templates handed out",
	})).(prometheus.Counter)

	m.Submissions = register(prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "submissions_total",
		Help:      "Total number of block submissions by outcome",
	}, []string{"outcome"})).(*prometheus.CounterVec)

	m.HeightsSuppressed = register(prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "heights_suppressed_total",
		Help:      "Total number of height responses rewritten to the last known auxiliary height",
	})).(prometheus.Counter)

	m.UpstreamErrors = register(prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "monerod_errors_total",
		Help:      "Total number of failed or malformed monerod exchanges",
	})).(prometheus.Counter)

	m.BaseNodeErrors = register(prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "base_node_errors_total",
		Help:      "Total number of failed base node calls",
	})).(prometheus.Counter)

	m.AuxiliaryHeight = register(prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "aux_height",
		Help:      "Height of the last auxiliary block handed out",
	})).(prometheus.Gauge)

	m.AuxiliaryTarget = register(prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "aux_target_difficulty",
		Help:      "Target difficulty of the last auxiliary block handed out",
	})).(prometheus.Gauge)

	return m
}

// MetricsHandler serves gatherer in the prometheus exposition format
func MetricsHandler(gatherer prometheus.Gatherer) http.Handler {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
