package director

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sabriotcore-code/cloud-orchestrator-sub001/pkg/plugin"
)

// turn accumulates the trace of one Think call. Stage fan-outs append
// concurrently.
type turn struct {
	mu      sync.Mutex
	trace   []TraceEntry
	ran     []string
	ranSeen map[string]bool
}

func newTurn() *turn {
	return &turn{ranSeen: make(map[string]bool)}
}

func (t *turn) add(e TraceEntry, ranPlugin bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.trace = append(t.trace, e)
	if ranPlugin && !t.ranSeen[e.Plugin] {
		t.ranSeen[e.Plugin] = true
		t.ran = append(t.ran, e.Plugin)
	}
}

// guarded runs fn with the plugin timeout and converts a panic or a hang
// into an error. fn keeps running in the background after a timeout; its
// result is discarded.
func (d *Director) guarded(ctx context.Context, name string, fn func(ctx context.Context) (*plugin.Result, error)) (res *plugin.Result, status string, err error) {
	ctx, cancel := context.WithTimeout(ctx, d.pluginTimeout)
	defer cancel()

	type outcome struct {
		res *plugin.Result
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("%s panicked: %v", name, r)}
			}
		}()
		res, err := fn(ctx)
		done <- outcome{res: res, err: err}
	}()

	select {
	case o := <-done:
		switch {
		case o.err != nil:
			if ctx.Err() == context.DeadlineExceeded {
				return nil, StatusTimeout, o.err
			}
			return nil, plugin.StatusError, o.err
		case o.res == nil:
			return nil, plugin.StatusError, fmt.Errorf("%s returned no result", name)
		case o.res.Status == "":
			o.res.Status = plugin.StatusOK
		}
		return o.res, o.res.Status, nil
	case <-ctx.Done():
		if ctx.Err() == context.DeadlineExceeded {
			return nil, StatusTimeout, fmt.Errorf("%s timed out after %s: %w", name, d.pluginTimeout, ctx.Err())
		}
		return nil, plugin.StatusError, ctx.Err()
	}
}

// runPlugin invokes one registered plugin and records it.
func (d *Director) runPlugin(ctx context.Context, t *turn, stage string, e *plugin.Entry, req plugin.Request) *plugin.Result {
	start := time.Now()
	res, status, err := d.guarded(ctx, e.Name, func(ctx context.Context) (*plugin.Result, error) {
		return e.Handler.Handle(ctx, &req)
	})
	d.record(t, stage, e.Name, status, err, time.Since(start), true)
	if err != nil {
		return nil
	}
	return res
}

func (d *Director) record(t *turn, stage, name, status string, err error, elapsed time.Duration, ranPlugin bool) {
	entry := TraceEntry{Stage: stage, Plugin: name, Status: status, Duration: elapsed}
	if err != nil {
		entry.Error = err.Error()
		d.logger.Warn().Err(err).Str("stage", stage).Str("plugin", name).Msg("collaborator failed")
	}
	t.add(entry, ranPlugin)
	if d.observer != nil && ranPlugin {
		d.observer.ObservePlugin(stage, name, status)
	}
}
