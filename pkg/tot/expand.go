package tot

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/sabriotcore-code/cloud-orchestrator-sub001/pkg/decode"
	"github.com/sabriotcore-code/cloud-orchestrator-sub001/pkg/oracle"
)

// styles seed sibling generations so they explore different directions.
var styles = []string{
	"Think step by step, carefully and methodically.",
	"Approach this from a different angle than the most obvious one.",
	"Focus first on the hardest constraint in the problem.",
	"Work backwards from what a correct answer must look like.",
	"Look for edge cases and pitfalls before committing to a direction.",
	"Reduce the problem to a simpler sub-problem or an analogy.",
}

type expandConfig struct {
	breadth     int
	diversify   bool
	callTimeout time.Duration
}

// expandLevel generates and scores breadth children for every node in
// frontier concurrently. Children whose generation fails, or whose
// evaluation times out, are dropped. The returned order is stable: by
// frontier position, then sibling index.
func (e *Engine) expandLevel(ctx context.Context, problem string, frontier []*Node, cfg expandConfig) []*Node {
	backends := e.backends(cfg.diversify)
	slots := make([]*Node, len(frontier)*cfg.breadth)

	var wg sync.WaitGroup
	for fi, parent := range frontier {
		for i := 0; i < cfg.breadth; i++ {
			wg.Add(1)
			go func(slot int, parent *Node, sibling int) {
				defer wg.Done()
				backend := ""
				if len(backends) > 0 {
					backend = backends[sibling%len(backends)]
				}
				slots[slot] = e.expandOne(ctx, problem, parent, styles[sibling%len(styles)], backend, cfg.callTimeout)
			}(fi*cfg.breadth+i, parent, i)
		}
	}
	wg.Wait()

	children := make([]*Node, 0, len(slots))
	for _, c := range slots {
		if c != nil {
			children = append(children, c)
		}
	}
	return children
}

func (e *Engine) expandOne(ctx context.Context, problem string, parent *Node, style, backend string, timeout time.Duration) *Node {
	genOpts := []oracle.Option{oracle.WithTemperature(0.8)}
	if backend != "" {
		genOpts = append(genOpts, oracle.WithBackend(backend, ""))
	}
	res, err := e.call(ctx, buildGeneratePrompt(problem, parent.Path, style), timeout, genOpts...)
	if err != nil {
		e.logger.Debug().Err(err).Str("parent", parent.ID).Msg("generation failed; dropping branch")
		return nil
	}
	thought := strings.TrimSpace(res.Text)
	if thought == "" {
		return nil
	}

	score, ok := e.evaluate(ctx, problem, parent.Path, thought, timeout)
	if !ok {
		return nil
	}
	return newChild(parent, thought, res.Backend, score, decode.IsComplete(thought))
}

// evaluate scores a candidate thought. Unparseable replies and failed calls
// score decode.FallbackScore; a timed-out evaluation drops the branch.
func (e *Engine) evaluate(ctx context.Context, problem string, path []string, thought string, timeout time.Duration) (float64, bool) {
	res, err := e.call(ctx, buildEvaluatePrompt(problem, path, thought), timeout, oracle.WithTemperature(0))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
			e.logger.Debug().Err(err).Msg("evaluation timed out; dropping branch")
			return 0, false
		}
		return decode.FallbackScore, true
	}
	score, _ := decode.ThoughtScore(res.Text)
	return score, true
}

func (e *Engine) call(ctx context.Context, prompt string, timeout time.Duration, opts ...oracle.Option) (*oracle.Result, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	res, err := e.oracle.Invoke(ctx, prompt, opts...)
	if err != nil {
		return nil, err
	}
	if res == nil || !res.Success {
		if res != nil && res.Err != nil {
			return nil, res.Err
		}
		return nil, oracle.ErrNoBackend
	}
	return res, nil
}

func (e *Engine) backends(diversify bool) []string {
	if !diversify {
		return nil
	}
	lister, ok := e.oracle.(oracle.BackendLister)
	if !ok {
		return nil
	}
	names := lister.Backends()
	if len(names) < 2 {
		return nil
	}
	return names
}
