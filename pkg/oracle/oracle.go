// Package oracle is the boundary to external text generation. Every call
// carries a timeout, bounded retries with backoff and an optional fallback
// chain across backends.
package oracle

import (
	"context"
	"time"
)

// Oracle turns a prompt into text.
type Oracle interface {
	Invoke(ctx context.Context, prompt string, opts ...Option) (*Result, error)
}

// BackendLister is implemented by oracles that can address individual backends.
type BackendLister interface {
	Backends() []string
}

// Call is one resolved oracle request.
type Call struct {
	Prompt      string
	System      string
	Backend     string
	Model       string
	Temperature *float64
	MaxTokens   int
	Timeout     time.Duration
}

// Option configures a single call.
type Option func(*Call)

// WithSystem sets the system instruction.
func WithSystem(system string) Option {
	return func(c *Call) { c.System = system }
}

// WithBackend pins the call to a backend and, optionally, a model.
func WithBackend(backend, model string) Option {
	return func(c *Call) {
		c.Backend = backend
		c.Model = model
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) Option {
	return func(c *Call) { c.Temperature = &t }
}

// WithMaxTokens bounds the completion length.
func WithMaxTokens(n int) Option {
	return func(c *Call) { c.MaxTokens = n }
}

// WithTimeout overrides the per-attempt timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Call) { c.Timeout = d }
}

// NewCall applies opts to a call for prompt.
func NewCall(prompt string, opts ...Option) Call {
	c := Call{Prompt: prompt}
	for _, opt := range opts {
		if opt != nil {
			opt(&c)
		}
	}
	return c
}

// Result is the outcome of one oracle invocation.
type Result struct {
	Text         string
	Backend      string
	Model        string
	TokensIn     int
	TokensOut    int
	CostUSD      float64
	Latency      time.Duration
	Success      bool
	Err          error
	Retries      int
	FallbackUsed bool
}

// Func adapts a function to the Oracle interface.
type Func func(ctx context.Context, call Call) (*Result, error)

// Invoke calls f with the resolved call.
func (f Func) Invoke(ctx context.Context, prompt string, opts ...Option) (*Result, error) {
	return f(ctx, NewCall(prompt, opts...))
}

// Text is a convenience for callers that only need the completion text.
func Text(ctx context.Context, o Oracle, prompt string, opts ...Option) (string, error) {
	if o == nil {
		return "", ErrNoBackend
	}
	res, err := o.Invoke(ctx, prompt, opts...)
	if err != nil {
		return "", err
	}
	if res == nil || !res.Success {
		if res != nil && res.Err != nil {
			return "", res.Err
		}
		return "", ErrNoBackend
	}
	return res.Text, nil
}
