// Package plugins holds the built-in capability providers and registers
// them with a plugin.Registry.
package plugins

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/sabriotcore-code/cloud-orchestrator-sub001/pkg/memory"
	"github.com/sabriotcore-code/cloud-orchestrator-sub001/pkg/plugin"
	"github.com/sabriotcore-code/cloud-orchestrator-sub001/pkg/reflexion"
	"github.com/sabriotcore-code/cloud-orchestrator-sub001/pkg/tot"
)

// Deps are the collaborators the built-in plugins need. Missing ones leave
// the corresponding plugins unregistered or unavailable.
type Deps struct {
	ToT          *tot.Engine
	Reflexion    *reflexion.Engine
	Recall       memory.Recaller
	TavilyAPIKey string
	DocsRoot     string
	DocsExts     []string
	HTTPClient   *http.Client
	Logger       zerolog.Logger
}

// Register adds every built-in plugin to reg.
func Register(reg *plugin.Registry, deps Deps) error {
	type builtin struct {
		name string
		cfg  plugin.Config
	}
	var builtins []builtin

	if deps.Recall != nil {
		builtins = append(builtins, builtin{"recall", plugin.Config{
			Category:     plugin.CategoryMemory,
			Capabilities: []string{"memory", "recall"},
			Priority:     90,
			Handler:      NewRecall(deps.Recall),
			Description:  "Finds earlier turns relevant to the input",
		}})
	}

	builtins = append(builtins,
		builtin{"websearch", plugin.Config{
			Category:     plugin.CategoryGrounding,
			Capabilities: []string{"web", "search", "current-events"},
			Patterns: []string{
				`\b(search|look up|google)\b`,
				`\b(latest|current|today|news|recent)\b`,
			},
			Priority:    80,
			Handler:     NewWebSearch(deps.TavilyAPIKey, WithHTTPClient(deps.HTTPClient)),
			Description: "Web search via Tavily",
		}},
		builtin{"docs", plugin.Config{
			Category:     plugin.CategoryGrounding,
			Capabilities: []string{"documents", "files"},
			Patterns:     []string{`\b(docs?|documentation|readme|notes?|files?)\b`},
			Priority:     60,
			Handler:      NewDocs(deps.DocsRoot, WithExtensions(deps.DocsExts...)),
			Description:  "Searches local documents",
		}},
	)

	if deps.ToT != nil {
		builtins = append(builtins,
			builtin{"tree-of-thought", plugin.Config{
				Category:     plugin.CategoryReasoning,
				Capabilities: []string{"search", "planning", "puzzles"},
				Patterns: []string{
					`\b(puzzle|riddle|prove|plan|optimi[sz]e|strategy)\b`,
					`\bstep[- ]by[- ]step\b`,
				},
				Priority:    70,
				Handler:     NewTreeOfThought(deps.ToT),
				Description: "Breadth-first tree-of-thought search",
			}},
			builtin{"self-consistency", plugin.Config{
				Category:     plugin.CategoryReasoning,
				Capabilities: []string{"math", "estimation"},
				Keywords:     []string{"calculate", "how many", "how much", "probability", "estimate"},
				Priority:     60,
				Handler:      NewSelfConsistency(deps.ToT),
				Description:  "Majority vote over independent solutions",
			}},
		)
	}

	if deps.Reflexion != nil {
		builtins = append(builtins,
			builtin{"verification", plugin.Config{
				Category:     plugin.CategoryReasoning,
				Capabilities: []string{"fact-checking", "verification"},
				Patterns:     []string{`\b(fact[- ]check|verify|is it true|accurate|accuracy)\b`},
				Priority:     80,
				Handler:      NewVerification(deps.Reflexion),
				Description:  "Chain-of-verification over factual claims",
			}},
			builtin{"reflexion", plugin.Config{
				Category:     plugin.CategoryAgents,
				Capabilities: []string{"self-critique", "writing", "review"},
				Patterns:     []string{`\b(carefully|double[- ]check|critique|review|improve|polish)\b`},
				Priority:     50,
				Handler:      NewReflexion(deps.Reflexion),
				Description:  "Iterative self-critique",
			}},
		)
	}

	for _, s := range builtins {
		if err := reg.Register(s.name, s.cfg); err != nil {
			return err
		}
		deps.Logger.Debug().Str("plugin", s.name).Str("category", s.cfg.Category).Msg("plugin registered")
	}
	return nil
}

// problemWithContext prefixes the input with every non-empty context block.
func problemWithContext(req *plugin.Request) string {
	var sb strings.Builder
	for _, block := range []struct{ label, text string }{
		{"Conversation memory", req.Context.MemoryContext},
		{"Grounded data", req.Context.GroundedData},
		{"Execution results", req.Context.ExecutionData},
		{"Verification", req.Context.VerificationData},
		{"Earlier reasoning", req.Context.ReasoningData},
	} {
		if strings.TrimSpace(block.text) == "" {
			continue
		}
		sb.WriteString(fmt.Sprintf("[%s]\n%s\n\n", block.label, strings.TrimSpace(block.text)))
	}
	sb.WriteString(req.Text)
	return sb.String()
}

var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "is": true, "are": true,
	"what": true, "how": true, "where": true, "when": true, "why": true,
	"to": true, "of": true, "in": true, "for": true, "on": true,
	"and": true, "or": true, "but": true, "with": true, "about": true,
	"can": true, "you": true, "our": true, "did": true, "does": true,
}

// keywords lowercases query and drops short and stop words.
func keywords(query string) []string {
	var out []string
	for _, w := range strings.Fields(strings.ToLower(query)) {
		w = strings.Trim(w, ".,;:!?\"'()[]{}")
		if len(w) > 2 && !stopWords[w] {
			out = append(out, w)
		}
	}
	return out
}

// relevance is the share of keywords present in content.
func relevance(content string, kws []string) float64 {
	if len(kws) == 0 {
		return 0
	}
	content = strings.ToLower(content)
	matches := 0
	for _, kw := range kws {
		if strings.Contains(content, kw) {
			matches++
		}
	}
	return float64(matches) / float64(len(kws))
}

type hit struct {
	ref     string
	content string
	score   float64
}

func sortHits(hits []hit) {
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}
