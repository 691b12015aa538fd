package router

import (
	"time"

	"github.com/sabriotcore-code/cloud-orchestrator-sub001/pkg/decode"
)

// Tier is a handling tier derived from complexity.
type Tier string

const (
	TierSimple     Tier = "simple"
	TierStandard   Tier = "standard"
	TierComplex    Tier = "complex"
	TierMultiAgent Tier = "multi-agent"
)

// Valid reports whether t names a known tier.
func (t Tier) Valid() bool {
	switch t {
	case TierSimple, TierStandard, TierComplex, TierMultiAgent:
		return true
	}
	return false
}

// Process modes.
const (
	ProcessSequential   = "sequential"
	ProcessHierarchical = "hierarchical"
)

// Assessment sources.
const (
	SourceOracle    = "oracle"
	SourceKeywords  = "keywords"
	SourceDefault   = "default"
	SourceHeuristic = "heuristic"
)

// Candidate captures a keyword-matched category.
type Candidate struct {
	Category string   `json:"category"`
	Score    int      `json:"score"`
	Matched  []string `json:"matched,omitempty"`
}

// Intent is a classified task category.
type Intent struct {
	Category   string      `json:"category"`
	Confidence float64     `json:"confidence"`
	Source     string      `json:"source"`
	Candidates []Candidate `json:"candidates,omitempty"`
}

// Complexity is a task's estimated complexity in [0,1].
type Complexity struct {
	Score   float64        `json:"score"`
	Factors decode.Factors `json:"factors"`
	Source  string         `json:"source"`
}

// Decision captures one routing decision.
type Decision struct {
	ID         string     `json:"id"`
	Task       string     `json:"task"`
	Intent     Intent     `json:"intent"`
	Complexity Complexity `json:"complexity"`
	Tier       Tier       `json:"tier"`
	Roster     []string   `json:"roster"`
	Process    string     `json:"process"`
	Confidence float64    `json:"confidence"`
	Forced     bool       `json:"forced,omitempty"`
	Timestamp  time.Time  `json:"timestamp"`
}

// Stats summarizes the routing history.
type Stats struct {
	Total          int            `json:"total"`
	ByTier         map[Tier]int   `json:"by_tier"`
	ByCategory     map[string]int `json:"by_category"`
	MeanComplexity float64        `json:"mean_complexity"`
	MeanConfidence float64        `json:"mean_confidence"`
}
