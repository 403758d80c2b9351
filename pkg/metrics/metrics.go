package metrics

import (
	"errors"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Attempt outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
	OutcomeEmpty   = "empty"
)

// Recorder captures fallback-loop metrics.
type Recorder interface {
	ObserveAttempt(candidate, outcome string, durationSeconds float64)
	IncExhausted()
	IncRejected(reason string)
}

// HTTPRecorder captures request metrics for the HTTP surface.
type HTTPRecorder interface {
	ObserveRequest(method, route, status string, durationSeconds float64)
}

// Noop implements Recorder and HTTPRecorder without emitting anything.
type Noop struct{}

func (Noop) ObserveAttempt(string, string, float64)         {}
func (Noop) IncExhausted()                                  {}
func (Noop) IncRejected(string)                             {}
func (Noop) ObserveRequest(string, string, string, float64) {}

// Prom implements Recorder and HTTPRecorder backed by Prometheus collectors.
type Prom struct {
	attempts  *prometheus.CounterVec
	attemptLt *prometheus.HistogramVec
	exhausted prometheus.Counter
	rejected  *prometheus.CounterVec
	requests  *prometheus.CounterVec
	latency   *prometheus.HistogramVec
	once      sync.Once
}

// NewProm builds the collectors and registers them with the default registerer.
func NewProm(namespace string) *Prom {
	p := &Prom{
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "candidate_attempts_total",
			Help:      "Candidate attempts by candidate and outcome",
		}, []string{"candidate", "outcome"}),
		attemptLt: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "candidate_attempt_duration_seconds",
			Help:      "Candidate attempt latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"candidate"}),
		exhausted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "candidates_exhausted_total",
			Help:      "Requests for which every candidate failed",
		}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_rejected_total",
			Help:      "Requests rejected before reaching a candidate, by reason",
		}, []string{"reason"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method/route/status",
		}, []string{"method", "route", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method/route",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	p.register()
	return p
}

func (p *Prom) register() {
	p.once.Do(func() {
		p.attempts = registerOrReuse(p.attempts)
		p.attemptLt = registerOrReuse(p.attemptLt)
		p.exhausted = registerOrReuse(p.exhausted)
		p.rejected = registerOrReuse(p.rejected)
		p.requests = registerOrReuse(p.requests)
		p.latency = registerOrReuse(p.latency)
	})
}

// registerOrReuse registers c, or returns the identical collector a previous
// NewProm call already registered.
func registerOrReuse[C prometheus.Collector](c C) C {
	if err := prometheus.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}

func (p *Prom) ObserveAttempt(candidate, outcome string, durationSeconds float64) {
	p.attempts.WithLabelValues(candidate, outcome).Inc()
	p.attemptLt.WithLabelValues(candidate).Observe(durationSeconds)
}

func (p *Prom) IncExhausted() {
	p.exhausted.Inc()
}

func (p *Prom) IncRejected(reason string) {
	p.rejected.WithLabelValues(reason).Inc()
}

func (p *Prom) ObserveRequest(method, route, status string, durationSeconds float64) {
	p.requests.WithLabelValues(method, route, status).Inc()
	p.latency.WithLabelValues(method, route).Observe(durationSeconds)
}

// Handler returns an HTTP handler for /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}
