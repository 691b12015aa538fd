package router

import (
	"math"
	"sort"
	"strings"

	"github.com/sabriotcore-code/cloud-orchestrator-sub001/pkg/config"
	"github.com/sabriotcore-code/cloud-orchestrator-sub001/pkg/plugin"
)

// Categories is the fixed set of intent categories, in tie-break order.
var Categories = []string{"general", "research", "code", "analysis", "creative", "planning", "math", "conversation"}

const defaultCategory = "general"

// KeywordIntent classifies task by keyword matches. The best category scores
// min(0.3+0.2*matches, 0.9); with no match the result is general/0.5.
func KeywordIntent(task string, cfg *config.RoutingConfig) Intent {
	lower := strings.ToLower(task)
	var candidates []Candidate
	for _, name := range Categories {
		cat, ok := cfg.Categories[name]
		if !ok {
			continue
		}
		var matched []string
		for _, kw := range cat.Keywords {
			if plugin.ContainsPhrase(lower, strings.ToLower(kw)) {
				matched = append(matched, kw)
			}
		}
		if len(matched) > 0 {
			candidates = append(candidates, Candidate{Category: name, Score: len(matched), Matched: matched})
		}
	}

	if len(candidates) == 0 {
		return Intent{Category: defaultCategory, Confidence: 0.5, Source: SourceDefault}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	best := candidates[0]
	return Intent{
		Category:   best.Category,
		Confidence: math.Min(0.3+0.2*float64(best.Score), 0.9),
		Source:     SourceKeywords,
		Candidates: candidates,
	}
}

var complexVerbs = []string{
	"design", "architect", "implement", "optimize", "analyze", "analyse", "compare",
	"evaluate", "refactor", "integrate", "migrate", "prove", "derive", "debug", "build",
	"research", "synthesize", "plan",
}

var simplePhrasings = []string{
	"what is", "what's", "who is", "who was", "when is", "when was", "where is",
	"define", "how many", "how much", "is it", "can you tell me",
}

var conjunctions = []string{"and then", "then", "also", "after that", "as well as", "additionally", "finally"}

// HeuristicComplexity estimates complexity from surface features: length,
// complex verbs, simple question phrasing and multi-clause conjunctions.
func HeuristicComplexity(task string) float64 {
	lower := strings.ToLower(strings.TrimSpace(task))
	words := len(strings.Fields(lower))

	var score float64
	switch {
	case words < 8:
		score = 0.1
	case words < 25:
		score = 0.3
	case words < 60:
		score = 0.5
	default:
		score = 0.7
	}

	verbs := 0
	for _, v := range complexVerbs {
		if plugin.ContainsPhrase(lower, v) {
			verbs++
		}
	}
	score += math.Min(0.1*float64(verbs), 0.3)

	for _, p := range simplePhrasings {
		if strings.HasPrefix(lower, p) {
			score -= 0.2
			break
		}
	}

	clauses := strings.Count(lower, ";")
	for _, c := range conjunctions {
		if plugin.ContainsPhrase(lower, c) {
			clauses++
		}
	}
	if strings.Count(lower, " and ") >= 2 {
		clauses++
	}
	score += math.Min(0.1*float64(clauses), 0.3)

	return clamp01(score)
}

// TierFor maps a complexity score to a tier using half-open intervals.
func TierFor(score float64, tiers config.TierConfig) Tier {
	switch {
	case score >= tiers.MultiAgent:
		return TierMultiAgent
	case score >= tiers.Complex:
		return TierComplex
	case score >= tiers.Standard:
		return TierStandard
	default:
		return TierSimple
	}
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0.5
	}
	return math.Max(0, math.Min(1, v))
}
