package monitoring

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "review_sentiment"

// Prometheus holds the exported collectors
type Prometheus struct {
	registry *prometheus.Registry

	RequestDuration *prometheus.HistogramVec
	RequestsTotal   *prometheus.CounterVec
	InFlight        prometheus.Gauge

	AnalysesTotal     *prometheus.CounterVec
	RuleScore         prometheus.Histogram
	AnalysisDuration  prometheus.Histogram
	TrainingRuns      *prometheus.CounterVec
	TrainingDuration  prometheus.Histogram
	ModelAccuracy     prometheus.Gauge
	CacheOperations   *prometheus.CounterVec
	RateLimitDecision *prometheus.CounterVec
}

// NewPrometheus creates the collectors on a private registry that also
// carries the Go runtime and process collectors
func NewPrometheus() *Prometheus {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	p := &Prometheus{
		registry: reg,
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status_code"}),
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"method", "route", "status_code"}),
		InFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of HTTP requests currently being processed.",
		}),
		AnalysesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "total",
			Help:      "Reviews analyzed by final label and whether the rule engine overrode the model.",
		}, []string{"final_label", "overridden"}),
		RuleScore: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "rule_score",
			Help:      "Distribution of overall rule-based scores.",
			Buckets:   prometheus.LinearBuckets(0.1, 0.1, 9),
		}),
		AnalysisDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "duration_seconds",
			Help:      "Time spent analyzing one review.",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1},
		}),
		TrainingRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "model",
			Name:      "training_runs_total",
			Help:      "Model training runs by status.",
		}, []string{"status"}),
		TrainingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "model",
			Name:      "training_duration_seconds",
			Help:      "Duration of model training runs.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
		}),
		ModelAccuracy: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "model",
			Name:      "accuracy",
			Help:      "Evaluation accuracy of the serving model.",
		}),
		CacheOperations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "operations_total",
			Help:      "Response cache lookups by result.",
		}, []string{"result"}),
		RateLimitDecision: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ratelimit",
			Name:      "decisions_total",
			Help:      "Rate limit decisions by backend and outcome.",
		}, []string{"backend", "outcome"}),
	}

	reg.MustRegister(
		p.RequestDuration, p.RequestsTotal, p.InFlight,
		p.AnalysesTotal, p.RuleScore, p.AnalysisDuration,
		p.TrainingRuns, p.TrainingDuration, p.ModelAccuracy,
		p.CacheOperations, p.RateLimitDecision,
	)

	return p
}

// Registry exposes the registry for tests and extra collectors
func (p *Prometheus) Registry() *prometheus.Registry {
	return p.registry
}

// Handler serves the registry in the Prometheus exposition format
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{Registry: p.registry})
}
