package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(reg)

	r.ObserveOracleCall("openai", "success", 120*time.Millisecond, 0.01)
	r.ObserveOracleCall("openai", "success", 80*time.Millisecond, 0)
	r.ObserveOracleCall("openai", "timeout", time.Second, 0)
	r.ObserveRoute("standard", "code")
	r.ObservePlugin("grounding", "websearch", "ok")
	r.ObserveReasoning("tot", "complete")
	r.ObserveTurn(2 * time.Second)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.OracleCalls.WithLabelValues("openai", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.OracleCalls.WithLabelValues("openai", "timeout")))
	assert.InDelta(t, 0.01, testutil.ToFloat64(r.OracleCost.WithLabelValues("openai")), 1e-9)
	assert.Equal(t, 1.0, testutil.ToFloat64(r.Routes.WithLabelValues("standard", "code")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.PluginRuns.WithLabelValues("grounding", "websearch", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.ReasoningRuns.WithLabelValues("tot", "complete")))
	assert.Equal(t, 1, testutil.CollectAndCount(r.TurnDuration))
}

func TestNilRecorderIsSafe(t *testing.T) {
	var r *Recorder
	r.ObserveOracleCall("x", "success", time.Second, 1)
	r.ObserveRoute("simple", "general")
	r.ObservePlugin("memory", "store", "error")
	r.ObserveTurn(time.Second)
	r.ObserveReasoning("reflexion", "error")
}
