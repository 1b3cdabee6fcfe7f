// Package observability provides Prometheus metrics and OpenTelemetry tracing
// for site generation jobs.
//
// Metrics live in their own registry so that several instances can coexist
// in one process (tests, embedded use). Every method is safe on a nil
// *Metrics, which disables recording.
package observability

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/richhaase/agentic-site-builder/internal/agent"
	"github.com/richhaase/agentic-site-builder/internal/critic"
	"github.com/richhaase/agentic-site-builder/internal/domain"
)

const metricsNamespace = "asb"

// Metrics holds the collectors for job, generation, critic, repair and build activity.
type Metrics struct {
	registry *prometheus.Registry

	// JobsTotal counts finished jobs. Labels: status
	JobsTotal *prometheus.CounterVec
	// JobsInProgress tracks running jobs.
	JobsInProgress prometheus.Gauge
	// GenerationsTotal counts generator calls. Labels: backend, result (success, retryable, fatal)
	GenerationsTotal *prometheus.CounterVec
	// GenerationSeconds measures generator latency. Labels: backend
	GenerationSeconds *prometheus.HistogramVec
	// CriticOutcomesTotal counts critic stages. Labels: critic, outcome
	CriticOutcomesTotal *prometheus.CounterVec
	// RepairsTotal counts targeted fix attempts. Labels: result (applied, unchanged, error)
	RepairsTotal *prometheus.CounterVec
	// BuildSeconds measures build duration. Labels: result (success, failure, timeout)
	BuildSeconds *prometheus.HistogramVec
}

// NewMetrics creates and registers the collectors on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		JobsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "jobs_total",
				Help:      "Finished site generation jobs by terminal status",
			},
			[]string{"status"},
		),
		JobsInProgress: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Name:      "jobs_in_progress",
				Help:      "Site generation jobs currently running",
			},
		),
		GenerationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "generations_total",
				Help:      "Generator calls by backend and result",
			},
			[]string{"backend", "result"},
		),
		GenerationSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Name:      "generation_duration_seconds",
				Help:      "Generator call latency in seconds",
				Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
			},
			[]string{"backend"},
		),
		CriticOutcomesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "critic_outcomes_total",
				Help:      "Critic stage outcomes by critic",
			},
			[]string{"critic", "outcome"},
		),
		RepairsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "repairs_total",
				Help:      "Targeted fix attempts by result",
			},
			[]string{"result"},
		),
		BuildSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Name:      "build_duration_seconds",
				Help:      "Site build duration in seconds",
				Buckets:   []float64{5, 15, 30, 60, 120, 300, 600},
			},
			[]string{"result"},
		),
	}
}

// Registry returns the registry the collectors are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// JobStarted marks a job as running.
func (m *Metrics) JobStarted() {
	if m == nil {
		return
	}
	m.JobsInProgress.Inc()
}

// JobFinished records a job's terminal status.
func (m *Metrics) JobFinished(status domain.JobStatus) {
	if m == nil {
		return
	}
	m.JobsInProgress.Dec()
	m.JobsTotal.WithLabelValues(string(status)).Inc()
}

// CriticOutcome records one critic stage. It satisfies critic.Recorder.
func (m *Metrics) CriticOutcome(kind critic.Kind, outcome critic.Outcome) {
	if m == nil {
		return
	}
	m.CriticOutcomesTotal.WithLabelValues(string(kind), string(outcome)).Inc()
}

// Repair records a targeted fix attempt.
func (m *Metrics) Repair(result string) {
	if m == nil {
		return
	}
	m.RepairsTotal.WithLabelValues(result).Inc()
}

// BuildFinished records one build.
func (m *Metrics) BuildFinished(result string, d time.Duration) {
	if m == nil {
		return
	}
	m.BuildSeconds.WithLabelValues(result).Observe(d.Seconds())
}

// InstrumentGenerator wraps gen so that every call is counted and timed.
// With nil metrics gen is returned unchanged.
func InstrumentGenerator(gen agent.Generator, m *Metrics) agent.Generator {
	if m == nil {
		return gen
	}
	return &instrumentedGenerator{Generator: gen, metrics: m}
}

type instrumentedGenerator struct {
	agent.Generator
	metrics *Metrics
}

func (g *instrumentedGenerator) Generate(ctx context.Context, req *agent.Request) (string, error) {
	start := time.Now()
	out, err := g.Generator.Generate(ctx, req)
	backend := g.Generator.Name()
	g.metrics.GenerationSeconds.WithLabelValues(backend).Observe(time.Since(start).Seconds())

	result := "success"
	switch {
	case err == nil:
	case agent.IsRetryable(err):
		result = "retryable"
	default:
		result = "fatal"
	}
	g.metrics.GenerationsTotal.WithLabelValues(backend, result).Inc()
	return out, err
}
