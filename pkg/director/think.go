package director

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/sabriotcore-code/cloud-orchestrator-sub001/pkg/memory"
	"github.com/sabriotcore-code/cloud-orchestrator-sub001/pkg/oracle"
	"github.com/sabriotcore-code/cloud-orchestrator-sub001/pkg/plugin"
	"github.com/sabriotcore-code/cloud-orchestrator-sub001/pkg/router"
)

const defaultSystemPrompt = "You are a helpful assistant. Use the supplied context when it is relevant and say so when it is not enough."

const summaryLen = 500

// Think runs one turn. Stages always run in the same order: memory read,
// intent detection, grounding, execution, up to MaxReasoning reasoning or
// agent plugins, synthesis when no reasoning plugin answered, and memory
// write-back. A failing collaborator is recorded in the trace and the turn
// goes on.
func (d *Director) Think(ctx context.Context, input string, tc plugin.TurnContext) *Result {
	start := time.Now()
	t := newTurn()
	res := &Result{TurnID: uuid.NewString()}

	var routed chan *router.Decision
	if d.router != nil {
		routed = make(chan *router.Decision, 1)
		routeCtx := tc.MemoryContext
		go func() { routed <- d.router.Route(ctx, input, router.Options{Context: routeCtx}) }()
	}

	recalled := d.readMemory(ctx, t, tc.UserID)
	memPlugins := d.runStage(ctx, t, StageMemory, d.registry.ByCategory(plugin.CategoryMemory), input, tc)
	tc.MemoryContext = joinNonEmpty(tc.MemoryContext, recalled, memPlugins)

	detectStart := time.Now()
	active := d.detector.DetectActive(input)
	d.record(t, StageDetect, "detector", plugin.StatusOK, nil, time.Since(detectStart), false)
	d.logger.Debug().Int("active", len(active)).Msg("intent detection")

	tc.GroundedData = joinNonEmpty(tc.GroundedData,
		d.runStage(ctx, t, StageGrounding, plugin.Filter(active, plugin.CategoryGrounding), input, tc))
	tc.ExecutionData = joinNonEmpty(tc.ExecutionData,
		d.runStage(ctx, t, StageExecution, plugin.Filter(active, plugin.CategoryExecution), input, tc))

	answer := d.reason(ctx, t, active, input, &tc)

	var err error
	if answer == "" {
		answer, err = d.synthesize(ctx, t, input, tc)
	}
	answer = strings.TrimSpace(answer)

	if answer != "" {
		d.writeMemory(ctx, t, memory.Entry{
			ID:      res.TurnID,
			UserID:  tc.UserID,
			Input:   input,
			Summary: truncate(answer, summaryLen),
			Plugins: slices.Clone(t.ran),
		})
	} else if err == nil {
		err = ErrNoResponse
	}

	if routed != nil {
		res.Routing = <-routed
		d.record(t, StageRouting, "router", plugin.StatusOK, nil, 0, false)
	}

	res.Response = answer
	res.Err = err
	res.Trace = t.trace
	res.PluginsRun = t.ran
	res.SideChannels = sideChannels(tc)
	res.Elapsed = time.Since(start)

	if d.observer != nil {
		d.observer.ObserveTurn(res.Elapsed)
	}
	d.logger.Info().
		Str("turn_id", res.TurnID).
		Strs("plugins", res.PluginsRun).
		Dur("elapsed", res.Elapsed).
		Bool("ok", err == nil).
		Msg("turn finished")
	return res
}

func (d *Director) readMemory(ctx context.Context, t *turn, userID string) string {
	if d.memory == nil {
		return ""
	}
	start := time.Now()
	res, status, err := d.guarded(ctx, "memory store", func(ctx context.Context) (*plugin.Result, error) {
		text, err := d.memory.Read(ctx, userID)
		if err != nil {
			return nil, err
		}
		return &plugin.Result{Status: plugin.StatusOK, Output: text}, nil
	})
	d.record(t, StageMemory, "store", status, err, time.Since(start), false)
	if err != nil {
		return ""
	}
	return res.Output
}

func (d *Director) writeMemory(ctx context.Context, t *turn, entry memory.Entry) {
	if d.memory == nil {
		return
	}
	start := time.Now()
	_, status, err := d.guarded(ctx, "memory store", func(ctx context.Context) (*plugin.Result, error) {
		if err := d.memory.Write(ctx, entry); err != nil {
			return nil, err
		}
		return &plugin.Result{Status: plugin.StatusOK}, nil
	})
	d.record(t, StageMemoryWrite, "store", status, err, time.Since(start), false)
}

// runStage runs entries concurrently and joins their non-empty outputs in
// entry order. Failures never cancel siblings.
func (d *Director) runStage(ctx context.Context, t *turn, stage string, entries []*plugin.Entry, input string, tc plugin.TurnContext) string {
	if len(entries) == 0 {
		return ""
	}
	outputs := make([]string, len(entries))
	var g errgroup.Group
	for i, e := range entries {
		g.Go(func() error {
			res := d.runPlugin(ctx, t, stage, e, plugin.Request{Text: input, Context: tc})
			if res.OK() && strings.TrimSpace(res.Output) != "" {
				outputs[i] = fmt.Sprintf("[%s]\n%s", e.Name, strings.TrimSpace(res.Output))
			}
			return nil
		})
	}
	_ = g.Wait()
	return joinNonEmpty(outputs...)
}

// reason runs up to maxReasoning reasoning or agent plugins in priority
// order, each seeing everything gathered so far. The last final answer wins.
func (d *Director) reason(ctx context.Context, t *turn, active []*plugin.Entry, input string, tc *plugin.TurnContext) string {
	var selected []*plugin.Entry
	for _, e := range active {
		if e.Category == plugin.CategoryReasoning || e.Category == plugin.CategoryAgents {
			selected = append(selected, e)
		}
	}
	if len(selected) > d.maxReasoning {
		d.logger.Debug().Int("matched", len(selected)).Int("cap", d.maxReasoning).Msg("reasoning fan-out capped")
		selected = selected[:d.maxReasoning]
	}

	var answer string
	for _, e := range selected {
		res := d.runPlugin(ctx, t, StageReasoning, e, plugin.Request{Text: input, Context: *tc})
		if !res.OK() {
			continue
		}
		if out := strings.TrimSpace(res.Output); out != "" {
			block := fmt.Sprintf("[%s]\n%s", e.Name, out)
			if slices.Contains(e.Capabilities, "verification") {
				tc.VerificationData = joinNonEmpty(tc.VerificationData, block)
			} else {
				tc.ReasoningData = joinNonEmpty(tc.ReasoningData, block)
			}
		}
		if fa := strings.TrimSpace(res.FinalAnswer); fa != "" {
			answer = fa
		}
	}
	return answer
}

func (d *Director) synthesize(ctx context.Context, t *turn, input string, tc plugin.TurnContext) (string, error) {
	start := time.Now()
	res, status, err := d.guarded(ctx, "synthesis", func(ctx context.Context) (*plugin.Result, error) {
		text, err := oracle.Text(ctx, d.oracle, buildSynthesisPrompt(input, tc), oracle.WithSystem(d.system))
		if err != nil {
			return nil, err
		}
		return &plugin.Result{Status: plugin.StatusOK, Output: text}, nil
	})
	d.record(t, StageSynthesis, "oracle", status, err, time.Since(start), false)
	if err != nil {
		return "", fmt.Errorf("director: synthesis: %w", err)
	}
	return res.Output, nil
}

func buildSynthesisPrompt(input string, tc plugin.TurnContext) string {
	var sb strings.Builder
	sb.WriteString(input)
	blocks := []struct{ label, text string }{
		{"Conversation memory", tc.MemoryContext},
		{"Grounded data", tc.GroundedData},
		{"Execution results", tc.ExecutionData},
		{"Verification", tc.VerificationData},
		{"Reasoning", tc.ReasoningData},
	}
	header := false
	for _, b := range blocks {
		if strings.TrimSpace(b.text) == "" {
			continue
		}
		if !header {
			sb.WriteString("\n\nContext gathered for this request:\n")
			header = true
		}
		sb.WriteString(fmt.Sprintf("\n## %s\n%s\n", b.label, strings.TrimSpace(b.text)))
	}
	return sb.String()
}

func sideChannels(tc plugin.TurnContext) []string {
	var out []string
	for _, c := range []struct{ name, text string }{
		{"memory", tc.MemoryContext},
		{"grounding", tc.GroundedData},
		{"execution", tc.ExecutionData},
		{"verification", tc.VerificationData},
		{"reasoning", tc.ReasoningData},
	} {
		if strings.TrimSpace(c.text) != "" {
			out = append(out, c.name)
		}
	}
	return out
}

func joinNonEmpty(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "\n\n")
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}
