// Package metrics exposes prometheus instruments for the orchestrator.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder holds the orchestrator's instruments.
type Recorder struct {
	OracleCalls   *prometheus.CounterVec
	OracleLatency *prometheus.HistogramVec
	OracleCost    *prometheus.CounterVec
	Routes        *prometheus.CounterVec
	PluginRuns    *prometheus.CounterVec
	TurnDuration  prometheus.Histogram
	ReasoningRuns *prometheus.CounterVec
}

// New registers the instruments with reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Recorder{
		OracleCalls: f.NewCounterVec(prometheus.CounterOpts{
			Name: "orchestrator_oracle_calls_total",
			Help: "Oracle call attempts by backend and outcome.",
		}, []string{"backend", "outcome"}),
		OracleLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "orchestrator_oracle_latency_seconds",
			Help:    "Oracle call latency by backend.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		}, []string{"backend"}),
		OracleCost: f.NewCounterVec(prometheus.CounterOpts{
			Name: "orchestrator_oracle_cost_usd_total",
			Help: "Estimated oracle spend in USD by backend.",
		}, []string{"backend"}),
		Routes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "orchestrator_routes_total",
			Help: "Routing decisions by tier and category.",
		}, []string{"tier", "category"}),
		PluginRuns: f.NewCounterVec(prometheus.CounterOpts{
			Name: "orchestrator_plugin_runs_total",
			Help: "Plugin invocations by stage, plugin and status.",
		}, []string{"stage", "plugin", "status"}),
		TurnDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "orchestrator_turn_duration_seconds",
			Help:    "End-to-end duration of a director turn.",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 10),
		}),
		ReasoningRuns: f.NewCounterVec(prometheus.CounterOpts{
			Name: "orchestrator_reasoning_runs_total",
			Help: "Reasoning engine runs by engine and outcome.",
		}, []string{"engine", "outcome"}),
	}
}

// ObserveOracleCall records one oracle attempt.
func (r *Recorder) ObserveOracleCall(backend, outcome string, latency time.Duration, costUSD float64) {
	if r == nil {
		return
	}
	r.OracleCalls.WithLabelValues(backend, outcome).Inc()
	r.OracleLatency.WithLabelValues(backend).Observe(latency.Seconds())
	if costUSD > 0 {
		r.OracleCost.WithLabelValues(backend).Add(costUSD)
	}
}

// ObserveRoute records one routing decision.
func (r *Recorder) ObserveRoute(tier, category string) {
	if r == nil {
		return
	}
	r.Routes.WithLabelValues(tier, category).Inc()
}

// ObservePlugin records one plugin invocation.
func (r *Recorder) ObservePlugin(stage, plugin, status string) {
	if r == nil {
		return
	}
	r.PluginRuns.WithLabelValues(stage, plugin, status).Inc()
}

// ObserveTurn records the duration of one director turn.
func (r *Recorder) ObserveTurn(d time.Duration) {
	if r == nil {
		return
	}
	r.TurnDuration.Observe(d.Seconds())
}

// ObserveReasoning records one reasoning engine run.
func (r *Recorder) ObserveReasoning(engine, outcome string) {
	if r == nil {
		return
	}
	r.ReasoningRuns.WithLabelValues(engine, outcome).Inc()
}
