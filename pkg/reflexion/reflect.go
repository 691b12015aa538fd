package reflexion

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sabriotcore-code/cloud-orchestrator-sub001/pkg/decode"
	"github.com/sabriotcore-code/cloud-orchestrator-sub001/pkg/oracle"
)

// Options tune Reflect.
type Options struct {
	MaxAttempts int
	// ConfidenceThreshold zero selects the default. AcceptAnyConfidence
	// accepts the first attempt whose critique lists no issues.
	ConfidenceThreshold float64
	// AttemptTimeout bounds one generate and critique round. Exceeding it
	// aborts the whole call.
	AttemptTimeout time.Duration
}

// AcceptAnyConfidence is a ConfidenceThreshold that ignores confidence.
const AcceptAnyConfidence = -1.0

// DefaultOptions returns the default loop settings.
func DefaultOptions() Options {
	return Options{MaxAttempts: 3, ConfidenceThreshold: 0.85}
}

func (o Options) normalized() Options {
	d := DefaultOptions()
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = d.MaxAttempts
	}
	switch {
	case o.ConfidenceThreshold == 0:
		o.ConfidenceThreshold = d.ConfidenceThreshold
	case o.ConfidenceThreshold < 0:
		o.ConfidenceThreshold = 0
	}
	return o
}

// Attempt is one generate and critique round.
type Attempt struct {
	Number      int           `json:"number"`
	Answer      string        `json:"answer"`
	Feedback    string        `json:"feedback"`
	Confidence  float64       `json:"confidence"`
	Issues      []string      `json:"issues"`
	Strengths   []string      `json:"strengths,omitempty"`
	Suggestions []string      `json:"suggestions,omitempty"`
	Duration    time.Duration `json:"duration"`
}

// Accepted reports whether the attempt ends the loop.
func (a Attempt) Accepted(threshold float64) bool {
	return a.Confidence >= threshold && len(a.Issues) == 0
}

// Result is the outcome of Reflect.
type Result struct {
	Task            string        `json:"task"`
	FinalAnswer     string        `json:"final_answer"`
	FinalConfidence float64       `json:"final_confidence"`
	Attempts        []Attempt     `json:"attempts"`
	Improved        bool          `json:"improved"`
	Duration        time.Duration `json:"duration"`
}

// Reflect answers task, critiques the answer and retries with every prior
// attempt fed back until an attempt reaches ConfidenceThreshold with no
// issues or MaxAttempts is spent. The final answer is the last attempt's.
// A failed generation or a timeout in either call aborts the call; any
// other critique failure degrades to decode.FallbackCritique.
func (e *Engine) Reflect(ctx context.Context, task string, opts Options) (*Result, error) {
	if e.oracle == nil {
		return nil, ErrNoOracle
	}
	opts = opts.normalized()
	start := time.Now()

	var attempts []Attempt
	for n := 1; n <= opts.MaxAttempts; n++ {
		a, err := e.attempt(ctx, task, n, attempts, opts.AttemptTimeout)
		if err != nil {
			e.record(Summary{Kind: "reflexion", Task: task, Attempts: len(attempts), Duration: time.Since(start)}, "error")
			return nil, err
		}
		attempts = append(attempts, a)

		e.logger.Debug().
			Int("attempt", n).
			Float64("confidence", a.Confidence).
			Int("issues", len(a.Issues)).
			Msg("attempt critiqued")

		if a.Accepted(opts.ConfidenceThreshold) {
			break
		}
	}

	first, last := attempts[0], attempts[len(attempts)-1]
	res := &Result{
		Task:            task,
		FinalAnswer:     last.Answer,
		FinalConfidence: last.Confidence,
		Attempts:        attempts,
		Improved:        len(attempts) > 1 && last.Confidence > first.Confidence,
		Duration:        time.Since(start),
	}

	outcome := "partial"
	if last.Accepted(opts.ConfidenceThreshold) {
		outcome = "complete"
	}
	e.record(Summary{
		Kind:            "reflexion",
		Task:            task,
		Attempts:        len(attempts),
		FinalConfidence: res.FinalConfidence,
		Improved:        res.Improved,
		Duration:        res.Duration,
	}, outcome)
	return res, nil
}

func (e *Engine) attempt(ctx context.Context, task string, n int, prior []Attempt, timeout time.Duration) (Attempt, error) {
	start := time.Now()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	answer, err := e.call(ctx, buildAnswerPrompt(task, prior), oracle.WithTemperature(0.7))
	if err != nil {
		return Attempt{}, fmt.Errorf("reflexion: attempt %d: generate: %w", n, err)
	}
	answer = strings.TrimSpace(answer)

	raw, err := e.call(ctx, buildCritiquePrompt(task, answer), oracle.WithTemperature(0))
	var critique decode.CritiqueResult
	switch {
	case err != nil && ctx.Err() != nil:
		return Attempt{}, fmt.Errorf("reflexion: attempt %d: critique: %w", n, ctx.Err())
	case errors.Is(err, context.DeadlineExceeded):
		return Attempt{}, fmt.Errorf("reflexion: attempt %d: critique: %w", n, err)
	case err != nil:
		e.logger.Debug().Err(err).Int("attempt", n).Msg("critique failed; using fallback")
		critique = decode.FallbackCritique("")
	default:
		critique, _ = decode.Critique(raw)
	}

	return Attempt{
		Number:      n,
		Answer:      answer,
		Feedback:    critique.Feedback,
		Confidence:  critique.Confidence,
		Issues:      critique.Issues,
		Strengths:   critique.Strengths,
		Suggestions: critique.Suggestions,
		Duration:    time.Since(start),
	}, nil
}

// QuickCheck is a single-pass approve or reject gate for response against
// the original request. It approves when no verdict can be obtained.
func (e *Engine) QuickCheck(ctx context.Context, response, request string) decode.Approval {
	if e.oracle == nil {
		return decode.Approval{Approved: true, Reason: "no oracle available"}
	}
	text, err := e.call(ctx, buildQuickCheckPrompt(response, request), oracle.WithTemperature(0))
	if err != nil {
		e.logger.Debug().Err(err).Msg("quick check unavailable; approving")
		return decode.Approval{Approved: true, Reason: "check unavailable"}
	}
	verdict, _ := decode.Approve(text)
	return verdict
}
