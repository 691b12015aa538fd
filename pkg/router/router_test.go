package router

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sabriotcore-code/cloud-orchestrator-sub001/pkg/config"
	"github.com/sabriotcore-code/cloud-orchestrator-sub001/pkg/oracle"
)

// scriptedOracle answers intent and complexity prompts with fixed replies.
func scriptedOracle(intentReply, complexityReply string) oracle.Oracle {
	return oracle.Func(func(_ context.Context, call oracle.Call) (*oracle.Result, error) {
		switch {
		case strings.Contains(call.Prompt, "routing classifier"):
			return &oracle.Result{Text: intentReply, Success: true}, nil
		case strings.Contains(call.Prompt, "Rate the complexity"):
			return &oracle.Result{Text: complexityReply, Success: true}, nil
		}
		return nil, errors.New("unexpected prompt")
	})
}

func failingOracle() oracle.Oracle {
	return oracle.Func(func(context.Context, oracle.Call) (*oracle.Result, error) {
		err := errors.New("upstream down")
		return &oracle.Result{Err: err}, err
	})
}

func TestRouteWithOracle(t *testing.T) {
	e := New(scriptedOracle(
		`{"category": "code", "confidence": 0.9}`,
		`{"steps": 0.5, "domains": 0.5, "ambiguity": 0.5, "iteration": 0, "dependencies": 0}`,
	), nil)

	d := e.Route(context.Background(), "write a parser", Options{})
	assert.Equal(t, "code", d.Intent.Category)
	assert.Equal(t, SourceOracle, d.Intent.Source)
	assert.Equal(t, 0.3, d.Complexity.Score)
	assert.Equal(t, TierStandard, d.Tier, "0.3 belongs to standard")
	assert.Equal(t, ProcessSequential, d.Process)
	assert.InDelta(t, 0.8, d.Confidence, 1e-9)
	assert.Equal(t, []string{"architect", "engineer", "reviewer"}, d.Roster)
	assert.NotEmpty(t, d.ID)
	assert.False(t, d.Timestamp.IsZero())
}

func TestRouteHierarchical(t *testing.T) {
	e := New(scriptedOracle(
		`{"category": "planning", "confidence": 0.95}`,
		`{"steps": 0.9, "domains": 0.9, "ambiguity": 0.9, "iteration": 0.9, "dependencies": 0.9}`,
	), nil)

	d := e.Route(context.Background(), "plan a migration", Options{})
	assert.Equal(t, TierMultiAgent, d.Tier)
	assert.Equal(t, ProcessHierarchical, d.Process)
	assert.InDelta(t, 0.6, d.Confidence, 1e-9)
}

func TestRouteWithoutOracleUsesFallbacks(t *testing.T) {
	for _, o := range []oracle.Oracle{nil, failingOracle(), scriptedOracle("nonsense", "also nonsense")} {
		e := New(o, nil)
		d := e.Route(context.Background(), "Please debug this function", Options{})
		require.NotNil(t, d)
		assert.Equal(t, "code", d.Intent.Category)
		assert.Equal(t, SourceKeywords, d.Intent.Source)
		assert.InDelta(t, 0.7, d.Intent.Confidence, 1e-9)
		assert.Equal(t, SourceHeuristic, d.Complexity.Source)
		assert.GreaterOrEqual(t, d.Complexity.Score, 0.0)
		assert.LessOrEqual(t, d.Complexity.Score, 1.0)
		assert.InDelta(t, d.Complexity.Score, d.Complexity.Factors.Mean(), 1e-9)
		assert.Equal(t, d.Complexity.Score, d.Complexity.Factors.Steps)
	}
}

func TestClassifyIntentUnknownCategoryFallsBack(t *testing.T) {
	e := New(scriptedOracle(`{"category": "astrology", "confidence": 0.99}`, ""), nil)
	intent := e.ClassifyIntent(context.Background(), "zzz qqq")
	assert.Equal(t, Intent{Category: "general", Confidence: 0.5, Source: SourceDefault}, intent)
}

func TestRouteForceTier(t *testing.T) {
	e := New(nil, nil)
	d := e.Route(context.Background(), "hi", Options{ForceTier: TierComplex})
	assert.Equal(t, TierComplex, d.Tier)
	assert.True(t, d.Forced)

	d = e.Route(context.Background(), "hi", Options{ForceTier: "bogus"})
	assert.False(t, d.Forced)
}

func TestHistoryIsBounded(t *testing.T) {
	cfg := config.DefaultRoutingConfig()
	cfg.HistorySize = 3
	e := New(nil, cfg)
	for _, task := range []string{"a", "b", "c", "d", "e"} {
		e.Route(context.Background(), task, Options{})
	}
	hist := e.History()
	require.Len(t, hist, 3)
	assert.Equal(t, "c", hist[0].Task)
	assert.Equal(t, "e", hist[2].Task)
}

func TestStats(t *testing.T) {
	e := New(nil, nil)
	assert.Equal(t, 0, e.Stats().Total)

	e.Route(context.Background(), "hello there", Options{})
	e.Route(context.Background(), "thanks, hello", Options{})
	e.Route(context.Background(), "debug the function", Options{})

	s := e.Stats()
	assert.Equal(t, 3, s.Total)
	assert.Equal(t, 2, s.ByCategory["conversation"])
	assert.Equal(t, 1, s.ByCategory["code"])
	assert.Greater(t, s.MeanConfidence, 0.0)
}

type recordingObserver struct{ tiers []string }

func (o *recordingObserver) ObserveRoute(tier, _ string) { o.tiers = append(o.tiers, tier) }

func TestRouteNotifiesObserver(t *testing.T) {
	obs := &recordingObserver{}
	e := New(nil, nil, WithObserver(obs))
	d := e.Route(context.Background(), "hi", Options{})
	assert.Equal(t, []string{string(d.Tier)}, obs.tiers)
}
