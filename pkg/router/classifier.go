package router

import (
	"context"
	"fmt"
	"strings"

	"github.com/sabriotcore-code/cloud-orchestrator-sub001/pkg/decode"
	"github.com/sabriotcore-code/cloud-orchestrator-sub001/pkg/oracle"
)

// ClassifyIntent asks the oracle for the task's category. Oracle failure, an
// unparseable reply or an unknown category falls back to KeywordIntent.
func (e *Engine) ClassifyIntent(ctx context.Context, task string) Intent {
	text, err := oracle.Text(ctx, e.oracle, buildIntentPrompt(task), e.classifierOpts()...)
	if err != nil {
		e.logger.Debug().Err(err).Msg("intent oracle failed; using keywords")
		return KeywordIntent(task, e.cfg)
	}
	category, confidence, ok := decode.Intent(text, Categories)
	if !ok {
		e.logger.Debug().Str("reply", truncate(text, 120)).Msg("intent reply unparseable; using keywords")
		return KeywordIntent(task, e.cfg)
	}
	return Intent{Category: category, Confidence: confidence, Source: SourceOracle}
}

// AssessComplexity asks the oracle for five complexity factors and averages
// them. On failure it falls back to HeuristicComplexity.
func (e *Engine) AssessComplexity(ctx context.Context, task, taskContext string) Complexity {
	text, err := oracle.Text(ctx, e.oracle, buildComplexityPrompt(task, taskContext), e.classifierOpts()...)
	if err == nil {
		if factors, ok := decode.Complexity(text); ok {
			return Complexity{Score: clamp01(factors.Mean()), Factors: factors, Source: SourceOracle}
		}
		e.logger.Debug().Str("reply", truncate(text, 120)).Msg("complexity reply unparseable; using heuristic")
	} else {
		e.logger.Debug().Err(err).Msg("complexity oracle failed; using heuristic")
	}
	h := HeuristicComplexity(task)
	// The heuristic yields one score; every factor carries it so the factor
	// mean stays equal to the score.
	return Complexity{
		Score:   h,
		Factors: decode.Factors{Steps: h, Domains: h, Ambiguity: h, Iteration: h, Dependencies: h},
		Source:  SourceHeuristic,
	}
}

func (e *Engine) classifierOpts() []oracle.Option {
	opts := []oracle.Option{oracle.WithTemperature(0), oracle.WithMaxTokens(256)}
	name := strings.TrimSpace(e.cfg.ClassifierAdapter)
	if name == "" {
		return opts
	}
	lister, ok := e.oracle.(oracle.BackendLister)
	if !ok {
		return opts
	}
	for _, b := range lister.Backends() {
		if b == name {
			return append(opts, oracle.WithBackend(name, e.cfg.ClassifierModel))
		}
	}
	return opts
}

func buildIntentPrompt(task string) string {
	var sb strings.Builder
	sb.WriteString("You are a routing classifier. Choose the single best category for the task.\n")
	sb.WriteString(fmt.Sprintf("Categories: %s.\n", strings.Join(Categories, ", ")))
	sb.WriteString("Return ONLY JSON: {\"category\":\"...\",\"confidence\":0-1}.\n\n")
	sb.WriteString("Task:\n")
	sb.WriteString(task)
	return sb.String()
}

func buildComplexityPrompt(task, taskContext string) string {
	var sb strings.Builder
	sb.WriteString("Rate the complexity of the task on five factors, each from 0 to 1:\n")
	sb.WriteString("- steps: how many reasoning steps are needed\n")
	sb.WriteString("- domains: how many knowledge domains are involved\n")
	sb.WriteString("- ambiguity: how underspecified the request is\n")
	sb.WriteString("- iteration: how much refinement the answer will likely need\n")
	sb.WriteString("- dependencies: how much the parts depend on each other\n")
	sb.WriteString("Return ONLY JSON: {\"steps\":0-1,\"domains\":0-1,\"ambiguity\":0-1,\"iteration\":0-1,\"dependencies\":0-1}.\n\n")
	if strings.TrimSpace(taskContext) != "" {
		sb.WriteString("Context:\n")
		sb.WriteString(taskContext)
		sb.WriteString("\n\n")
	}
	sb.WriteString("Task:\n")
	sb.WriteString(task)
	return sb.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
