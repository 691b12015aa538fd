package adapter

import "context"

// Adapter defines the interface for text-generation backends.
type Adapter interface {
	// Generate sends a request to the backend and returns the completion.
	Generate(ctx context.Context, req Request) (*Response, error)

	// Name returns the adapter's identifier.
	Name() string

	// Models returns the list of supported models. The first entry is the default.
	Models() []string
}

// NameOnly is implemented by adapters that serve a call only when the call
// or the routing config names them. They are never picked as a default,
// listed for diversification or included in fan-outs.
type NameOnly interface {
	NameOnly() bool
}

// IsNameOnly reports whether a must be addressed by name.
func IsNameOnly(a Adapter) bool {
	n, ok := a.(NameOnly)
	return ok && n.NameOnly()
}

// DefaultModel returns the model to use when a request does not name one.
func DefaultModel(a Adapter) string {
	models := a.Models()
	if len(models) == 0 {
		return ""
	}
	return models[0]
}
