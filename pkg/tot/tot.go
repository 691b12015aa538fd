// Package tot implements tree-of-thought search over oracle-generated
// reasoning steps: breadth-first exploration, beam search and
// self-consistency voting.
package tot

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/sabriotcore-code/cloud-orchestrator-sub001/pkg/history"
	"github.com/sabriotcore-code/cloud-orchestrator-sub001/pkg/oracle"
)

// EarlyAcceptScore ends a search as soon as a complete node scores above it.
const EarlyAcceptScore = 0.95

// Termination reasons.
const (
	StopEarlyAccept   = "early_accept"
	StopMaxDepth      = "max_depth"
	StopFrontierEmpty = "frontier_empty"
	StopComplete      = "complete"
)

// Node is one reasoning step. Depth is parent depth plus one and Path holds
// Depth+1 thoughts, the first being the problem itself.
type Node struct {
	ID       string   `json:"id"`
	Thought  string   `json:"thought"`
	ParentID string   `json:"parent_id,omitempty"`
	Path     []string `json:"path"`
	Depth    int      `json:"depth"`
	Score    float64  `json:"score"`
	Complete bool     `json:"complete"`
	Backend  string   `json:"backend,omitempty"`
}

// Result is the outcome of Explore or BeamSearch.
type Result struct {
	Problem       string        `json:"problem"`
	Best          *Node         `json:"best"`
	Answer        string        `json:"answer"`
	BestScore     float64       `json:"best_score"`
	Partial       bool          `json:"partial"`
	NodesExplored int           `json:"nodes_explored"`
	MaxDepth      int           `json:"max_depth_reached"`
	Termination   string        `json:"termination"`
	Tree          []*Node       `json:"tree,omitempty"`
	Duration      time.Duration `json:"duration"`
}

// Summary is the history record of one search.
type Summary struct {
	Kind          string
	Problem       string
	BestScore     float64
	Partial       bool
	NodesExplored int
	Duration      time.Duration
	At            time.Time
}

// Observer receives one event per finished search.
type Observer interface {
	ObserveReasoning(engine, outcome string)
}

// Engine runs searches against an oracle. It is safe for concurrent use.
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
	return func(e *Engine) { e.logger = logger.With().Str("component", "tot").Logger() }
}

// WithObserver attaches a search observer.
func WithObserver(o Observer) Option {
	return func(e *Engine) { e.observer = o }
}

// WithHistorySize bounds the search history.
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

// History returns recent search summaries, oldest first.
func (e *Engine) History() []Summary {
	return e.history.Snapshot()
}

// ErrNoOracle is returned when the engine has no oracle.
var ErrNoOracle = errors.New("tot: no oracle configured")

func newRoot(problem string) *Node {
	return &Node{
		ID:      uuid.NewString(),
		Thought: problem,
		Path:    []string{problem},
		Depth:   0,
		Score:   1.0,
	}
}

func newChild(parent *Node, thought, backend string, score float64, complete bool) *Node {
	path := make([]string, len(parent.Path), len(parent.Path)+1)
	copy(path, parent.Path)
	return &Node{
		ID:       uuid.NewString(),
		Thought:  thought,
		ParentID: parent.ID,
		Path:     append(path, thought),
		Depth:    parent.Depth + 1,
		Score:    score,
		Complete: complete,
		Backend:  backend,
	}
}

// sortByScore orders nodes by score descending; ties keep generation order.
func sortByScore(nodes []*Node) {
	sort.SliceStable(nodes, func(i, j int) bool {
		return nodes[i].Score > nodes[j].Score
	})
}

func (e *Engine) record(kind string, res *Result) {
	e.history.Add(Summary{
		Kind:          kind,
		Problem:       res.Problem,
		BestScore:     res.BestScore,
		Partial:       res.Partial,
		NodesExplored: res.NodesExplored,
		Duration:      res.Duration,
		At:            time.Now(),
	})
	if e.observer != nil {
		outcome := "complete"
		if res.Partial {
			outcome = "partial"
		}
		e.observer.ObserveReasoning(kind, outcome)
	}
}

func checkOracle(ctx context.Context, o oracle.Oracle) error {
	if o == nil {
		return ErrNoOracle
	}
	return ctx.Err()
}
