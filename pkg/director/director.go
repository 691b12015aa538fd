// Package director runs one conversational turn through a fixed pipeline:
// memory, intent detection, grounding, execution, capped reasoning,
// synthesis and memory write-back.
package director

import (
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/sabriotcore-code/cloud-orchestrator-sub001/pkg/memory"
	"github.com/sabriotcore-code/cloud-orchestrator-sub001/pkg/oracle"
	"github.com/sabriotcore-code/cloud-orchestrator-sub001/pkg/plugin"
	"github.com/sabriotcore-code/cloud-orchestrator-sub001/pkg/router"
)

// MaxReasoning is the hard cap on reasoning plugins per turn.
const MaxReasoning = 2

// Stages, in execution order.
const (
	StageMemory      = "memory"
	StageDetect      = "detect"
	StageGrounding   = "grounding"
	StageExecution   = "execution"
	StageReasoning   = "reasoning"
	StageSynthesis   = "synthesis"
	StageMemoryWrite = "memory_write"
	StageRouting     = "routing"
)

// StatusTimeout marks a plugin call that exceeded its timeout.
const StatusTimeout = "timeout"

// ErrNoResponse is returned when a turn produced no answer at all.
var ErrNoResponse = errors.New("director: no response produced")

// TraceEntry records one collaborator call within a turn.
type TraceEntry struct {
	Stage    string        `json:"stage"`
	Plugin   string        `json:"plugin"`
	Status   string        `json:"status"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Result is the outcome of one turn. On total failure Response is empty
// and Err is set; the trace is always populated.
type Result struct {
	TurnID       string           `json:"turn_id"`
	Response     string           `json:"response"`
	Err          error            `json:"-"`
	Trace        []TraceEntry     `json:"trace"`
	PluginsRun   []string         `json:"plugins_run"`
	SideChannels []string         `json:"side_channels"`
	Elapsed      time.Duration    `json:"elapsed"`
	Routing      *router.Decision `json:"routing,omitempty"`
}

// Observer receives plugin and turn events.
type Observer interface {
	ObservePlugin(stage, plugin, status string)
	ObserveTurn(d time.Duration)
}

// Director sequences one turn. It is safe for concurrent use.
type Director struct {
	registry      *plugin.Registry
	detector      *plugin.Detector
	oracle        oracle.Oracle
	memory        memory.Store
	router        *router.Engine
	logger        zerolog.Logger
	observer      Observer
	pluginTimeout time.Duration
	maxReasoning  int
	system        string
}

// Option configures a Director.
type Option func(*Director)

// WithMemory sets the memory collaborator.
func WithMemory(store memory.Store) Option {
	return func(d *Director) { d.memory = store }
}

// WithRouter records a routing decision for every turn.
func WithRouter(r *router.Engine) Option {
	return func(d *Director) { d.router = r }
}

// WithLogger sets the director logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(d *Director) { d.logger = logger.With().Str("component", "director").Logger() }
}

// WithObserver attaches a metrics observer.
func WithObserver(o Observer) Option {
	return func(d *Director) { d.observer = o }
}

// WithPluginTimeout bounds every collaborator call.
func WithPluginTimeout(timeout time.Duration) Option {
	return func(d *Director) {
		if timeout > 0 {
			d.pluginTimeout = timeout
		}
	}
}

// WithMaxReasoning lowers the reasoning fan-out. Values above
// MaxReasoning are capped.
func WithMaxReasoning(n int) Option {
	return func(d *Director) {
		if n > 0 && n <= MaxReasoning {
			d.maxReasoning = n
		}
	}
}

// WithSystemPrompt sets the synthesis system instruction.
func WithSystemPrompt(system string) Option {
	return func(d *Director) { d.system = system }
}

// New returns a director over reg and o.
func New(reg *plugin.Registry, o oracle.Oracle, opts ...Option) *Director {
	if reg == nil {
		reg = plugin.NewRegistry()
	}
	d := &Director{
		registry:      reg,
		detector:      plugin.NewDetector(reg),
		oracle:        o,
		logger:        zerolog.Nop(),
		pluginTimeout: 90 * time.Second,
		maxReasoning:  MaxReasoning,
		system:        defaultSystemPrompt,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Registry returns the plugin registry.
func (d *Director) Registry() *plugin.Registry {
	return d.registry
}
