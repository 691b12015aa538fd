package tot

import (
	"context"
	"time"

	"github.com/sabriotcore-code/cloud-orchestrator-sub001/pkg/decode"
)

// Options tune Explore.
type Options struct {
	Breadth             int
	MaxDepth            int
	EvaluationThreshold float64
	AggressivePruning   bool
	Diversify           bool
	CallTimeout         time.Duration
	KeepTree            bool
}

// DefaultOptions returns the default exploration settings.
func DefaultOptions() Options {
	return Options{Breadth: 3, MaxDepth: 3, EvaluationThreshold: 0.6}
}

func (o Options) normalized() Options {
	d := DefaultOptions()
	if o.Breadth <= 0 {
		o.Breadth = d.Breadth
	}
	if o.MaxDepth <= 0 {
		o.MaxDepth = d.MaxDepth
	}
	if o.EvaluationThreshold < 0 {
		o.EvaluationThreshold = 0
	}
	return o
}

// Explore runs a breadth-first, level-order search. Every frontier node
// expands into Breadth scored children; incomplete children scoring at least
// EvaluationThreshold form the next frontier. The best complete node seen at
// any level is the answer. Without one, the best node of the last non-empty
// level is returned as a partial result.
func (e *Engine) Explore(ctx context.Context, problem string, opts Options) (*Result, error) {
	if err := checkOracle(ctx, e.oracle); err != nil {
		return nil, err
	}
	opts = opts.normalized()
	start := time.Now()

	root := newRoot(problem)
	tree := []*Node{root}
	frontier := []*Node{root}
	var lastLevel []*Node
	var bestComplete *Node
	termination := StopMaxDepth
	depthReached := 0

	for depth := 1; depth <= opts.MaxDepth; depth++ {
		if len(frontier) == 0 {
			termination = StopFrontierEmpty
			break
		}
		if opts.AggressivePruning && len(frontier) > 2*opts.Breadth {
			sortByScore(frontier)
			frontier = frontier[:2*opts.Breadth]
		}

		children := e.expandLevel(ctx, problem, frontier, expandConfig{
			breadth:     opts.Breadth,
			diversify:   opts.Diversify,
			callTimeout: opts.CallTimeout,
		})
		if len(children) == 0 {
			termination = StopFrontierEmpty
			break
		}
		depthReached = depth
		lastLevel = children
		tree = append(tree, children...)

		var next []*Node
		for _, c := range children {
			if c.Complete {
				if bestComplete == nil || c.Score > bestComplete.Score {
					bestComplete = c
				}
				continue
			}
			if c.Score >= opts.EvaluationThreshold {
				next = append(next, c)
			}
		}

		e.logger.Debug().
			Int("depth", depth).
			Int("children", len(children)).
			Int("frontier", len(next)).
			Msg("level explored")

		if bestComplete != nil && bestComplete.Score > EarlyAcceptScore {
			termination = StopEarlyAccept
			break
		}
		frontier = next
		if len(frontier) == 0 {
			termination = StopFrontierEmpty
			break
		}
	}

	res := buildResult(problem, root, bestComplete, lastLevel, tree, opts.KeepTree)
	res.MaxDepth = depthReached
	res.Termination = termination
	res.Duration = time.Since(start)
	e.record("tot", res)
	return res, nil
}

func buildResult(problem string, root, bestComplete *Node, lastLevel, tree []*Node, keepTree bool) *Result {
	best := bestComplete
	partial := false
	if best == nil {
		partial = true
		best = root
		if len(lastLevel) > 0 {
			ranked := append([]*Node(nil), lastLevel...)
			sortByScore(ranked)
			best = ranked[0]
		}
	}

	answer := best.Thought
	if best.Complete {
		answer = decode.FinalAnswer(best.Thought)
	}

	res := &Result{
		Problem:       problem,
		Best:          best,
		Answer:        answer,
		BestScore:     best.Score,
		Partial:       partial,
		NodesExplored: len(tree),
	}
	if keepTree {
		res.Tree = tree
	}
	return res
}
