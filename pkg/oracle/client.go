package oracle

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/sabriotcore-code/cloud-orchestrator-sub001/pkg/adapter"
	"github.com/sabriotcore-code/cloud-orchestrator-sub001/pkg/config"
)

// Observer receives one event per finished oracle call.
type Observer interface {
	ObserveOracleCall(backend, outcome string, latency time.Duration, costUSD float64)
}

// Client implements Oracle over a set of adapters.
type Client struct {
	adapters map[string]adapter.Adapter
	order    []string
	// selectable is order without name-only adapters.
	selectable []string
	routing  *config.RoutingConfig
	limiters map[string]*rate.Limiter
	timeout  time.Duration
	logger   zerolog.Logger
	observer Observer
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithCallTimeout sets the default per-attempt timeout.
func WithCallTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.timeout = d }
}

// WithLogger sets the client logger.
func WithLogger(logger zerolog.Logger) ClientOption {
	return func(c *Client) { c.logger = logger.With().Str("component", "oracle").Logger() }
}

// WithObserver attaches a call observer, typically a metrics recorder.
func WithObserver(o Observer) ClientOption {
	return func(c *Client) { c.observer = o }
}

// NewClient builds a client over adapters. Adapters are addressed by Name();
// the first selectable one is the default when the routing config names no
// registered backend. Name-only adapters (see adapter.NameOnly) are reached
// only through WithBackend, the routing default or a fallback chain.
func NewClient(adapters []adapter.Adapter, routing *config.RoutingConfig, opts ...ClientOption) *Client {
	if routing == nil {
		routing = config.DefaultRoutingConfig()
	}
	c := &Client{
		adapters: make(map[string]adapter.Adapter, len(adapters)),
		routing:  routing,
		limiters: make(map[string]*rate.Limiter),
		timeout:  60 * time.Second,
		logger:   zerolog.Nop(),
	}
	for _, a := range adapters {
		if a == nil {
			continue
		}
		if _, exists := c.adapters[a.Name()]; exists {
			continue
		}
		c.adapters[a.Name()] = a
		c.order = append(c.order, a.Name())
		if !adapter.IsNameOnly(a) {
			c.selectable = append(c.selectable, a.Name())
		}
	}
	for name, limit := range routing.RateLimits {
		if limit.PerSecond <= 0 {
			continue
		}
		burst := limit.Burst
		if burst <= 0 {
			burst = 1
		}
		c.limiters[name] = rate.NewLimiter(rate.Limit(limit.PerSecond), burst)
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Backends returns the selectable backend names in registration order.
// Name-only adapters are left out.
func (c *Client) Backends() []string {
	out := make([]string, len(c.selectable))
	copy(out, c.selectable)
	return out
}

// Registered returns every registered backend name, name-only ones included.
func (c *Client) Registered() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// Invoke calls the requested backend, retrying transient failures and walking
// the configured fallback chain. On failure the returned Result has Success
// false and carries the same error.
func (c *Client) Invoke(ctx context.Context, prompt string, opts ...Option) (*Result, error) {
	call := NewCall(prompt, opts...)
	targets := c.buildTargets(call)
	if len(targets) == 0 {
		return &Result{Err: ErrNoBackend}, ErrNoBackend
	}

	retryCfg := c.routing.Retry
	var lastErr error
	var retries int

	for idx, target := range targets {
		a := c.adapters[target.Adapter]
		for attempt := 0; attempt <= retryCfg.MaxRetries; attempt++ {
			res, err := c.attempt(ctx, a, target, call)
			if err == nil {
				res.Retries = retries
				res.FallbackUsed = idx > 0
				return res, nil
			}

			lastErr = err
			if ctx.Err() != nil {
				return c.fail(target, ctx.Err(), retries, idx > 0)
			}
			if !adapter.IsTransient(err) || attempt == retryCfg.MaxRetries {
				c.logger.Debug().Err(err).Str("backend", target.Adapter).Int("attempt", attempt+1).Msg("backend failed")
				break
			}

			retries++
			backoff := computeBackoff(retryCfg.BaseBackoffMs, retryCfg.MaxBackoffMs, attempt)
			if err := sleepWithContext(ctx, backoff); err != nil {
				return c.fail(target, err, retries, idx > 0)
			}
		}
	}

	if lastErr == nil {
		lastErr = errors.New("oracle call failed")
	}
	return c.fail(targets[len(targets)-1], lastErr, retries, len(targets) > 1)
}

// InvokeAll sends the same call to every selectable backend concurrently.
// Results are ordered like Backends(); failed backends have Success false.
func (c *Client) InvokeAll(ctx context.Context, prompt string, opts ...Option) []*Result {
	results := make([]*Result, len(c.selectable))
	var g errgroup.Group
	for i, name := range c.selectable {
		g.Go(func() error {
			pinned := append(append([]Option{}, opts...), WithBackend(name, ""))
			call := NewCall(prompt, pinned...)
			target := callTarget{Adapter: name, Model: call.Model}
			res, err := c.attempt(ctx, c.adapters[name], target, call)
			if err != nil {
				res = &Result{Backend: name, Model: target.Model, Err: err}
			}
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (c *Client) attempt(ctx context.Context, a adapter.Adapter, target callTarget, call Call) (*Result, error) {
	if lim, ok := c.limiters[target.Adapter]; ok {
		if err := lim.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait for %s: %w", target.Adapter, err)
		}
	}

	timeout := call.Timeout
	if timeout <= 0 {
		timeout = c.timeout
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	model := target.Model
	if model == "" {
		model = adapter.DefaultModel(a)
	}

	start := time.Now()
	resp, err := a.Generate(callCtx, adapter.Request{
		Model:       model,
		Prompt:      call.Prompt,
		System:      call.System,
		Temperature: call.Temperature,
		MaxTokens:   call.MaxTokens,
	})
	latency := time.Since(start)

	if err != nil {
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			err = &TimeoutError{Backend: target.Adapter, After: timeout}
		}
		c.observe(target.Adapter, outcomeFor(err), latency, 0)
		return nil, err
	}

	usage := normalizeUsage(resp.Usage)
	cost, _ := EstimateCost(c.routing.Pricing, target.Adapter, model, usage)
	c.observe(target.Adapter, "success", latency, cost)

	return &Result{
		Text:      resp.Text,
		Backend:   target.Adapter,
		Model:     model,
		TokensIn:  usage.PromptTokens,
		TokensOut: usage.CompletionTokens,
		CostUSD:   cost,
		Latency:   latency,
		Success:   true,
	}, nil
}

func (c *Client) fail(target callTarget, err error, retries int, fallback bool) (*Result, error) {
	return &Result{
		Backend:      target.Adapter,
		Model:        target.Model,
		Err:          err,
		Retries:      retries,
		FallbackUsed: fallback,
	}, err
}

func (c *Client) observe(backend, outcome string, latency time.Duration, cost float64) {
	if c.observer != nil {
		c.observer.ObserveOracleCall(backend, outcome, latency, cost)
	}
}

func outcomeFor(err error) string {
	var timeout *TimeoutError
	switch {
	case errors.As(err, &timeout):
		return "timeout"
	case adapter.IsTransient(err):
		return "transient"
	default:
		return "error"
	}
}

type callTarget struct {
	Adapter string
	Model   string
}

// buildTargets returns the primary target followed by its fallback chain,
// skipping backends that are not registered.
func (c *Client) buildTargets(call Call) []callTarget {
	primary := callTarget{Adapter: call.Backend, Model: call.Model}
	if primary.Adapter == "" {
		primary.Adapter = c.routing.Default.Adapter
		primary.Model = c.routing.Default.Model
	}
	if _, ok := c.adapters[primary.Adapter]; !ok && call.Backend == "" && len(c.selectable) > 0 {
		primary = callTarget{Adapter: c.selectable[0]}
	}

	var targets []callTarget
	seen := make(map[callTarget]bool)
	add := func(t callTarget) {
		if _, ok := c.adapters[t.Adapter]; !ok || seen[t] {
			return
		}
		seen[t] = true
		targets = append(targets, t)
	}
	add(primary)

	if !c.routing.Fallback.AllowFallback {
		return targets
	}
	for _, entry := range resolveFallbackChain(c.routing, primary.Adapter, primary.Model) {
		add(callTarget{Adapter: entry.Adapter, Model: entry.Model})
	}
	return targets
}

func resolveFallbackChain(cfg *config.RoutingConfig, adapterName, model string) []config.RouteTarget {
	if cfg == nil || cfg.Fallback.FallbackChain == nil {
		return nil
	}
	key := fmt.Sprintf("%s/%s", adapterName, model)
	if chain, ok := cfg.Fallback.FallbackChain[key]; ok {
		return chain
	}
	if chain, ok := cfg.Fallback.FallbackChain[adapterName]; ok {
		return chain
	}
	return nil
}

func computeBackoff(baseMs, maxMs, attempt int) time.Duration {
	backoff := time.Duration(baseMs) * time.Millisecond
	limit := time.Duration(maxMs) * time.Millisecond
	for i := 0; i < attempt; i++ {
		backoff *= 2
		if backoff >= limit {
			return limit
		}
	}
	if backoff > limit {
		return limit
	}
	return backoff
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// SortedBackends returns names sorted alphabetically, for display.
func SortedBackends(l BackendLister) []string {
	names := l.Backends()
	sort.Strings(names)
	return names
}
