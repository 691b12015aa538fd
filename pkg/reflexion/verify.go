package reflexion

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sabriotcore-code/cloud-orchestrator-sub001/pkg/decode"
	"github.com/sabriotcore-code/cloud-orchestrator-sub001/pkg/oracle"
)

// ClaimCheck is the verification of one atomic claim.
type ClaimCheck struct {
	Claim      string `json:"claim"`
	Supported  bool   `json:"supported"`
	Correction string `json:"correction,omitempty"`
}

// Verification is the outcome of Verify.
type Verification struct {
	Task     string        `json:"task"`
	Original string        `json:"original"`
	Final    string        `json:"final"`
	Claims   []ClaimCheck  `json:"claims"`
	Revised  bool          `json:"revised"`
	Duration time.Duration `json:"duration"`
}

// Failed returns the claims that did not verify.
func (v *Verification) Failed() []ClaimCheck {
	var out []ClaimCheck
	for _, c := range v.Claims {
		if !c.Supported {
			out = append(out, c)
		}
	}
	return out
}

// Verify runs chain-of-verification: answer once, split the answer into
// claims, check every claim concurrently and, if any fails, regenerate once
// with all failed claims and their corrections. Otherwise the original
// answer is returned unchanged. Claim checks fail open.
func (e *Engine) Verify(ctx context.Context, task string) (*Verification, error) {
	if e.oracle == nil {
		return nil, ErrNoOracle
	}
	start := time.Now()

	answer, err := e.call(ctx, buildAnswerPrompt(task, nil), oracle.WithTemperature(0.7))
	if err != nil {
		e.record(Summary{Kind: "verification", Task: task, Duration: time.Since(start)}, "error")
		return nil, fmt.Errorf("reflexion: verify: generate: %w", err)
	}
	answer = strings.TrimSpace(answer)

	v := &Verification{Task: task, Original: answer, Final: answer}

	var claims []string
	if raw, err := e.call(ctx, buildClaimsPrompt(answer), oracle.WithTemperature(0)); err != nil {
		e.logger.Debug().Err(err).Msg("claim decomposition failed; keeping answer")
	} else {
		claims = decode.Claims(raw)
	}

	v.Claims = make([]ClaimCheck, len(claims))
	var g errgroup.Group
	for i, claim := range claims {
		g.Go(func() error {
			check := ClaimCheck{Claim: claim, Supported: true}
			raw, err := e.call(ctx, buildVerifyClaimPrompt(task, claim), oracle.WithTemperature(0))
			if err == nil {
				verdict, _ := decode.Verdict(raw)
				check.Supported = verdict.Supported
				check.Correction = verdict.Correction
			}
			v.Claims[i] = check
			return nil
		})
	}
	_ = g.Wait()

	failed := v.Failed()
	if len(failed) > 0 {
		revised, err := e.call(ctx, buildCorrectionPrompt(task, answer, failed), oracle.WithTemperature(0.3))
		if err != nil {
			e.logger.Warn().Err(err).Int("failed_claims", len(failed)).Msg("corrective regeneration failed; keeping original")
		} else if revised = strings.TrimSpace(revised); revised != "" {
			v.Final = revised
			v.Revised = true
		}
	}
	v.Duration = time.Since(start)

	confidence := 1.0
	if len(v.Claims) > 0 {
		confidence = float64(len(v.Claims)-len(failed)) / float64(len(v.Claims))
	}
	e.record(Summary{
		Kind:            "verification",
		Task:            task,
		Attempts:        1,
		FinalConfidence: confidence,
		Improved:        v.Revised,
		Duration:        v.Duration,
	}, "complete")
	return v, nil
}
