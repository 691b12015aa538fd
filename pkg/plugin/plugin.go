// Package plugin defines capability providers and the registry that
// indexes them by category, capability and intent.
package plugin

import "context"

// Well-known categories. The director runs them in a fixed order.
const (
	CategoryMemory    = "memory"
	CategoryGrounding = "grounding"
	CategoryExecution = "execution"
	CategoryReasoning = "reasoning"
	CategoryAgents    = "agents"
)

// Result statuses.
const (
	StatusOK          = "ok"
	StatusUnavailable = "unavailable"
	StatusError       = "error"
)

// Plugin is a capability provider.
type Plugin interface {
	Handle(ctx context.Context, req *Request) (*Result, error)
}

// Func adapts a function to the Plugin interface.
type Func func(ctx context.Context, req *Request) (*Result, error)

// Handle calls f.
func (f Func) Handle(ctx context.Context, req *Request) (*Result, error) {
	return f(ctx, req)
}

// TurnContext is the context accumulated over one director turn.
type TurnContext struct {
	UserID           string
	MemoryContext    string
	GroundedData     string
	ExecutionData    string
	VerificationData string
	ReasoningData    string
}

// Request is the input to a plugin.
type Request struct {
	Text    string
	Context TurnContext
}

// Result is a plugin's structured output. Plugins whose upstream is not
// configured return StatusUnavailable instead of an error.
type Result struct {
	Status      string
	Output      string
	FinalAnswer string
	Data        map[string]any
}

// OK reports whether the result carries usable output.
func (r *Result) OK() bool {
	return r != nil && r.Status == StatusOK
}

// Unavailable builds a status result for an unconfigured upstream.
func Unavailable(reason string) *Result {
	return &Result{Status: StatusUnavailable, Output: reason}
}
