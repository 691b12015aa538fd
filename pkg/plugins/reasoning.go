package plugins

import (
	"context"
	"fmt"
	"strings"

	"github.com/sabriotcore-code/cloud-orchestrator-sub001/pkg/plugin"
	"github.com/sabriotcore-code/cloud-orchestrator-sub001/pkg/reflexion"
	"github.com/sabriotcore-code/cloud-orchestrator-sub001/pkg/tot"
)

// ConsensusThreshold is the vote share above which self-consistency
// reports a final answer.
const ConsensusThreshold = 0.6

// TreeOfThought runs tot.Engine.Explore on the input.
type TreeOfThought struct {
	engine *tot.Engine
	opts   tot.Options
}

// NewTreeOfThought returns a plugin using tot.DefaultOptions.
func NewTreeOfThought(engine *tot.Engine) *TreeOfThought {
	return &TreeOfThought{engine: engine, opts: tot.DefaultOptions()}
}

// Handle explores the problem. Only a complete result is offered as the
// final answer; a partial one is passed on as reasoning context.
func (p *TreeOfThought) Handle(ctx context.Context, req *plugin.Request) (*plugin.Result, error) {
	res, err := p.engine.Explore(ctx, problemWithContext(req), p.opts)
	if err != nil {
		return nil, fmt.Errorf("tree-of-thought: %w", err)
	}
	out := &plugin.Result{
		Status: plugin.StatusOK,
		Output: fmt.Sprintf("Best reasoning path (score %.2f, %d nodes, depth %d):\n%s",
			res.BestScore, res.NodesExplored, res.MaxDepth, strings.Join(res.Best.Path[1:], "\n")),
		Data: map[string]any{
			"score":       res.BestScore,
			"partial":     res.Partial,
			"nodes":       res.NodesExplored,
			"termination": res.Termination,
		},
	}
	if !res.Partial {
		out.FinalAnswer = res.Answer
	}
	return out, nil
}

// SelfConsistency votes over independent solutions.
type SelfConsistency struct {
	engine  *tot.Engine
	samples int
}

// NewSelfConsistency returns a plugin drawing five samples.
func NewSelfConsistency(engine *tot.Engine) *SelfConsistency {
	return &SelfConsistency{engine: engine, samples: 5}
}

// Handle offers the majority answer as final when its vote share reaches
// ConsensusThreshold.
func (p *SelfConsistency) Handle(ctx context.Context, req *plugin.Request) (*plugin.Result, error) {
	res, err := p.engine.SelfConsistency(ctx, problemWithContext(req), p.samples)
	if err != nil {
		return nil, fmt.Errorf("self-consistency: %w", err)
	}
	out := &plugin.Result{
		Status: plugin.StatusOK,
		Output: fmt.Sprintf("Majority answer %q with %.0f%% of %d samples.", res.Answer, res.Confidence*100, res.Samples),
		Data: map[string]any{
			"confidence": res.Confidence,
			"votes":      res.Votes,
		},
	}
	if res.Confidence >= ConsensusThreshold {
		out.FinalAnswer = res.Representative
	}
	return out, nil
}

// Reflexion runs the self-critique loop.
type Reflexion struct {
	engine *reflexion.Engine
	opts   reflexion.Options
}

// NewReflexion returns a plugin using reflexion.DefaultOptions.
func NewReflexion(engine *reflexion.Engine) *Reflexion {
	return &Reflexion{engine: engine, opts: reflexion.DefaultOptions()}
}

// Handle returns the last attempt's answer as final.
func (p *Reflexion) Handle(ctx context.Context, req *plugin.Request) (*plugin.Result, error) {
	res, err := p.engine.Reflect(ctx, problemWithContext(req), p.opts)
	if err != nil {
		return nil, fmt.Errorf("reflexion: %w", err)
	}
	return &plugin.Result{
		Status:      plugin.StatusOK,
		Output:      fmt.Sprintf("Refined over %d attempt(s), confidence %.2f.", len(res.Attempts), res.FinalConfidence),
		FinalAnswer: res.FinalAnswer,
		Data: map[string]any{
			"attempts":   len(res.Attempts),
			"confidence": res.FinalConfidence,
			"improved":   res.Improved,
		},
	}, nil
}

// Verification runs chain-of-verification.
type Verification struct {
	engine *reflexion.Engine
}

// NewVerification returns a verification plugin.
func NewVerification(engine *reflexion.Engine) *Verification {
	return &Verification{engine: engine}
}

// Handle returns the verified or corrected answer as final and lists the
// failed claims in its output.
func (p *Verification) Handle(ctx context.Context, req *plugin.Request) (*plugin.Result, error) {
	v, err := p.engine.Verify(ctx, problemWithContext(req))
	if err != nil {
		return nil, fmt.Errorf("verification: %w", err)
	}
	failed := v.Failed()
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Checked %d claim(s), %d failed.", len(v.Claims), len(failed)))
	for _, c := range failed {
		sb.WriteString(fmt.Sprintf("\n- %s", c.Claim))
		if c.Correction != "" {
			sb.WriteString(fmt.Sprintf(" (correction: %s)", c.Correction))
		}
	}
	return &plugin.Result{
		Status:      plugin.StatusOK,
		Output:      sb.String(),
		FinalAnswer: v.Final,
		Data: map[string]any{
			"claims":  len(v.Claims),
			"failed":  len(failed),
			"revised": v.Revised,
		},
	}, nil
}
