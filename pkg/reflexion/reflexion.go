// Package reflexion improves oracle answers by self-critique: an iterative
// generate, critique, improve loop, a single-pass approval gate and a
// chain-of-verification mode.
package reflexion

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/sabriotcore-code/cloud-orchestrator-sub001/pkg/history"
	"github.com/sabriotcore-code/cloud-orchestrator-sub001/pkg/oracle"
)

// ErrNoOracle is returned when the engine has no oracle.
var ErrNoOracle = errors.New("reflexion: no oracle configured")

// Summary is the history record of one Reflect or Verify call.
type Summary struct {
	Kind            string
	Task            string
	Attempts        int
	FinalConfidence float64
	Improved        bool
	Duration        time.Duration
	At              time.Time
}

// Observer receives one event per finished call.
type Observer interface {
	ObserveReasoning(engine, outcome string)
}

// Engine runs reflexion loops against an oracle.
type Engine struct {
	oracle   oracle.Oracle
	logger   zerolog.Logger
	history  *history.Ring[Summary]
	observer Observer
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(e *Engine) { e.logger = logger.With().Str("component", "reflexion").Logger() }
}

// WithObserver attaches an observer.
func WithObserver(o Observer) Option {
	return func(e *Engine) { e.observer = o }
}

// WithHistorySize bounds the call history.
func WithHistorySize(n int) Option {
	return func(e *Engine) { e.history = history.NewRing[Summary](n) }
}

// New returns an engine over o.
func New(o oracle.Oracle, opts ...Option) *Engine {
	e := &Engine{
		oracle:  o,
		logger:  zerolog.Nop(),
		history: history.NewRing[Summary](500),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// History returns recent call summaries, oldest first.
func (e *Engine) History() []Summary {
	return e.history.Snapshot()
}

func (e *Engine) record(s Summary, outcome string) {
	s.At = time.Now()
	e.history.Add(s)
	if e.observer != nil {
		e.observer.ObserveReasoning(s.Kind, outcome)
	}
}

func (e *Engine) call(ctx context.Context, prompt string, opts ...oracle.Option) (string, error) {
	res, err := e.oracle.Invoke(ctx, prompt, opts...)
	if err != nil {
		return "", err
	}
	if res == nil || !res.Success {
		if res != nil && res.Err != nil {
			return "", res.Err
		}
		return "", oracle.ErrNoBackend
	}
	return res.Text, nil
}
