package adapter

import (
	"context"
	"fmt"
	"sync"
)

// MockAdapter returns deterministic responses for local runs and tests.
type MockAdapter struct {
	name            string
	responses       map[string]string
	defaultResponse string
	Usage           *Usage
}

// NewMockAdapter creates a mock adapter with a default response.
func NewMockAdapter() *MockAdapter {
	return &MockAdapter{
		name:            "mock",
		responses:       make(map[string]string),
		defaultResponse: "mock response:",
	}
}

// NewMockAdapterWithResponses creates a mock adapter with predefined responses.
func NewMockAdapterWithResponses(responses map[string]string, defaultResponse string) *MockAdapter {
	if defaultResponse == "" {
		defaultResponse = "mock response:"
	}
	return &MockAdapter{name: "mock", responses: responses, defaultResponse: defaultResponse}
}

// Name returns the adapter identifier.
func (a *MockAdapter) Name() string {
	return a.name
}

// NameOnly reports true: the mock serves only calls that name it.
func (a *MockAdapter) NameOnly() bool {
	return true
}

// Models returns the list of supported mock models.
func (a *MockAdapter) Models() []string {
	return []string{"mock-1"}
}

// Generate returns a deterministic completion for the prompt.
func (a *MockAdapter) Generate(_ context.Context, req Request) (*Response, error) {
	model := req.Model
	if model == "" {
		model = "mock-1"
	}
	if response, ok := a.responses[req.Prompt]; ok {
		return &Response{Text: response, Adapter: a.Name(), Model: model, Usage: a.Usage}, nil
	}
	content := fmt.Sprintf("%s\n%s", a.defaultResponse, req.Prompt)
	return &Response{Text: content, Adapter: a.Name(), Model: model, Usage: a.Usage}, nil
}

// ResponderFunc produces a completion for a request.
type ResponderFunc func(ctx context.Context, req Request) (string, error)

// ScriptedAdapter answers every request through a caller-supplied function
// and records each call.
type ScriptedAdapter struct {
	name    string
	models  []string
	respond ResponderFunc

	mu    sync.Mutex
	calls []Request
}

// NewScriptedAdapter creates a scripted adapter registered under name.
func NewScriptedAdapter(name string, respond ResponderFunc, models ...string) *ScriptedAdapter {
	if len(models) == 0 {
		models = []string{name + "-1"}
	}
	return &ScriptedAdapter{name: name, models: models, respond: respond}
}

func (a *ScriptedAdapter) Name() string     { return a.name }
func (a *ScriptedAdapter) Models() []string { return a.models }

// Generate records the request and delegates to the responder.
func (a *ScriptedAdapter) Generate(ctx context.Context, req Request) (*Response, error) {
	a.mu.Lock()
	a.calls = append(a.calls, req)
	a.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	model := req.Model
	if model == "" {
		model = DefaultModel(a)
	}
	text, err := a.respond(ctx, req)
	if err != nil {
		return nil, err
	}
	usage := &Usage{PromptTokens: len(req.Prompt) / 4, CompletionTokens: len(text) / 4}
	usage.TotalTokens = usage.PromptTokens + usage.CompletionTokens
	return &Response{Text: text, Adapter: a.name, Model: model, Usage: usage}, nil
}

// Calls returns the number of Generate invocations so far.
func (a *ScriptedAdapter) Calls() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.calls)
}

// Requests returns a copy of every request received.
func (a *ScriptedAdapter) Requests() []Request {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]Request, len(a.calls))
	copy(out, a.calls)
	return out
}
