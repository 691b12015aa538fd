package tot

import (
	"context"
	"time"
)

// BeamOptions tune BeamSearch.
type BeamOptions struct {
	BeamWidth   int
	Breadth     int
	MaxDepth    int
	Diversify   bool
	CallTimeout time.Duration
	KeepTree    bool
}

func (o BeamOptions) normalized() BeamOptions {
	if o.BeamWidth <= 0 {
		o.BeamWidth = 3
	}
	if o.Breadth <= 0 {
		o.Breadth = o.BeamWidth
	}
	if o.MaxDepth <= 0 {
		o.MaxDepth = 4
	}
	return o
}

// BeamSearch keeps exactly the top BeamWidth children per level, with no
// score threshold, and returns as soon as a kept node is complete.
func (e *Engine) BeamSearch(ctx context.Context, problem string, opts BeamOptions) (*Result, error) {
	if err := checkOracle(ctx, e.oracle); err != nil {
		return nil, err
	}
	opts = opts.normalized()
	start := time.Now()

	root := newRoot(problem)
	tree := []*Node{root}
	beam := []*Node{root}
	var lastLevel []*Node
	var bestComplete *Node
	termination := StopMaxDepth
	depthReached := 0

	for depth := 1; depth <= opts.MaxDepth; depth++ {
		children := e.expandLevel(ctx, problem, beam, expandConfig{
			breadth:     opts.Breadth,
			diversify:   opts.Diversify,
			callTimeout: opts.CallTimeout,
		})
		if len(children) == 0 {
			termination = StopFrontierEmpty
			break
		}
		depthReached = depth
		tree = append(tree, children...)

		sortByScore(children)
		if len(children) > opts.BeamWidth {
			children = children[:opts.BeamWidth]
		}
		beam = children
		lastLevel = children

		for _, c := range beam {
			if c.Complete && (bestComplete == nil || c.Score > bestComplete.Score) {
				bestComplete = c
			}
		}
		if bestComplete != nil {
			termination = StopComplete
			break
		}
	}

	res := buildResult(problem, root, bestComplete, lastLevel, tree, opts.KeepTree)
	res.MaxDepth = depthReached
	res.Termination = termination
	res.Duration = time.Since(start)
	e.record("beam", res)
	return res, nil
}
