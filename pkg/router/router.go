// Package router decides how a task should be handled: its intent category,
// complexity, tier and recommended roster.
package router

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/sabriotcore-code/cloud-orchestrator-sub001/pkg/config"
	"github.com/sabriotcore-code/cloud-orchestrator-sub001/pkg/history"
	"github.com/sabriotcore-code/cloud-orchestrator-sub001/pkg/oracle"
)

// Observer receives every routing decision.
type Observer interface {
	ObserveRoute(tier, category string)
}

// Engine is the routing engine. It is safe for concurrent use.
type Engine struct {
	oracle   oracle.Oracle
	cfg      *config.RoutingConfig
	history  *history.Ring[*Decision]
	logger   zerolog.Logger
	observer Observer
	now      func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(e *Engine) { e.logger = logger.With().Str("component", "router").Logger() }
}

// WithObserver attaches a decision observer.
func WithObserver(o Observer) Option {
	return func(e *Engine) { e.observer = o }
}

// New returns an engine. A nil oracle routes with the fallbacks only.
func New(o oracle.Oracle, cfg *config.RoutingConfig, opts ...Option) *Engine {
	if cfg == nil {
		cfg = config.DefaultRoutingConfig()
	}
	if o == nil {
		o = oracle.Func(func(context.Context, oracle.Call) (*oracle.Result, error) {
			return &oracle.Result{Err: oracle.ErrNoBackend}, oracle.ErrNoBackend
		})
	}
	e := &Engine{
		oracle:  o,
		cfg:     cfg,
		history: history.NewRing[*Decision](cfg.HistorySize),
		logger:  zerolog.Nop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Options tune a single Route call.
type Options struct {
	Context   string
	ForceTier Tier
}

// Route classifies intent and complexity concurrently and derives the tier,
// roster, process and overall confidence. It never fails: without a reachable
// oracle both assessments use their fallbacks.
func (e *Engine) Route(ctx context.Context, task string, opts Options) *Decision {
	var intent Intent
	var complexity Complexity

	var g errgroup.Group
	g.Go(func() error {
		intent = e.ClassifyIntent(ctx, task)
		return nil
	})
	g.Go(func() error {
		complexity = e.AssessComplexity(ctx, task, opts.Context)
		return nil
	})
	_ = g.Wait()

	tier := TierFor(complexity.Score, e.cfg.Tiers)
	forced := false
	if opts.ForceTier.Valid() {
		tier = opts.ForceTier
		forced = true
	}

	process := ProcessSequential
	if complexity.Score > e.cfg.HierarchicalAbove {
		process = ProcessHierarchical
	}

	d := &Decision{
		ID:         uuid.NewString(),
		Task:       task,
		Intent:     intent,
		Complexity: complexity,
		Tier:       tier,
		Roster:     e.roster(intent.Category),
		Process:    process,
		Confidence: math.Min(intent.Confidence, 1-math.Abs(complexity.Score-0.5)),
		Forced:     forced,
		Timestamp:  e.now(),
	}
	e.history.Add(d)

	if e.observer != nil {
		e.observer.ObserveRoute(string(d.Tier), d.Intent.Category)
	}
	e.logger.Debug().
		Str("category", d.Intent.Category).
		Str("intent_source", d.Intent.Source).
		Float64("complexity", d.Complexity.Score).
		Str("tier", string(d.Tier)).
		Str("process", d.Process).
		Msg("routed")
	return d
}

func (e *Engine) roster(category string) []string {
	if cat, ok := e.cfg.Categories[category]; ok && len(cat.Roster) > 0 {
		return append([]string(nil), cat.Roster...)
	}
	if cat, ok := e.cfg.Categories[defaultCategory]; ok {
		return append([]string(nil), cat.Roster...)
	}
	return nil
}

// History returns recent decisions, oldest first.
func (e *Engine) History() []*Decision {
	return e.history.Snapshot()
}

// Stats summarizes the decisions in the history.
func (e *Engine) Stats() Stats {
	decisions := e.history.Snapshot()
	s := Stats{
		Total:      len(decisions),
		ByTier:     make(map[Tier]int),
		ByCategory: make(map[string]int),
	}
	if len(decisions) == 0 {
		return s
	}
	var complexity, confidence float64
	for _, d := range decisions {
		s.ByTier[d.Tier]++
		s.ByCategory[d.Intent.Category]++
		complexity += d.Complexity.Score
		confidence += d.Confidence
	}
	s.MeanComplexity = complexity / float64(len(decisions))
	s.MeanConfidence = confidence / float64(len(decisions))
	return s
}
