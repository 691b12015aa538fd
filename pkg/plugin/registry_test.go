package plugin

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var noop = Func(func(context.Context, *Request) (*Result, error) {
	return &Result{Status: StatusOK}, nil
})

func TestRegisterRequiresCategoryAndHandler(t *testing.T) {
	reg := NewRegistry()

	err := reg.Register("a", Config{Handler: noop})
	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "a", cfgErr.Plugin)
	assert.Contains(t, cfgErr.Error(), "Category")

	err = reg.Register("b", Config{Category: CategoryGrounding})
	require.ErrorAs(t, err, &cfgErr)
	assert.Contains(t, cfgErr.Error(), "Handler")

	err = reg.Register("c", Config{Category: CategoryGrounding, Handler: noop, Priority: 101})
	require.ErrorAs(t, err, &cfgErr)

	err = reg.Register("", Config{Category: CategoryGrounding, Handler: noop})
	require.ErrorAs(t, err, &cfgErr)

	assert.Empty(t, reg.List())
}

func TestRegisterRejectsInvalidPattern(t *testing.T) {
	reg := NewRegistry()
	err := reg.Register("bad", Config{Category: CategoryGrounding, Handler: noop, Patterns: []string{"("}})

	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Error(t, errors.Unwrap(cfgErr))
	_, ok := reg.Get("bad")
	assert.False(t, ok)
}

func TestRegisterRejectsDuplicateName(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register("dup", Config{Category: CategoryGrounding, Handler: noop, Priority: 10}))

	err := reg.Register("dup", Config{Category: CategoryReasoning, Handler: noop, Priority: 90})
	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)

	e, _ := reg.Get("dup")
	assert.Equal(t, CategoryGrounding, e.Category)
	assert.Len(t, reg.ByCategory(CategoryReasoning), 0)
}

func TestMustRegisterPanics(t *testing.T) {
	reg := NewRegistry()
	assert.Panics(t, func() { reg.MustRegister("x", Config{}) })
}

func TestCapabilityIndexSortedByPriority(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister("low", Config{Category: CategoryGrounding, Handler: noop, Priority: 10, Capabilities: []string{"search"}})
	reg.MustRegister("high", Config{Category: CategoryGrounding, Handler: noop, Priority: 90, Capabilities: []string{"search", "docs"}})
	reg.MustRegister("mid-first", Config{Category: CategoryGrounding, Handler: noop, Priority: 50, Capabilities: []string{"search"}})
	reg.MustRegister("mid-second", Config{Category: CategoryGrounding, Handler: noop, Priority: 50, Capabilities: []string{"search", "search"}})

	providers := reg.Providers("search")
	names := make([]string, len(providers))
	for i, p := range providers {
		names[i] = p.Name
	}
	assert.Equal(t, []string{"high", "mid-first", "mid-second", "low"}, names)

	for _, tag := range reg.Capabilities() {
		ps := reg.Providers(tag)
		for i := 1; i < len(ps); i++ {
			assert.GreaterOrEqual(t, ps[i-1].Priority, ps[i].Priority, tag)
		}
	}
	assert.Equal(t, []string{"docs", "search"}, reg.Capabilities())
	assert.Empty(t, reg.Providers("missing"))
}

func TestReadsNeverExecuteHandlers(t *testing.T) {
	called := false
	h := Func(func(context.Context, *Request) (*Result, error) {
		called = true
		return nil, nil
	})
	reg := NewRegistry()
	reg.MustRegister("p", Config{Category: CategoryExecution, Handler: h, Patterns: []string{`\brun\b`}, Keywords: []string{"execute"}})

	_, _ = reg.Get("p")
	_ = reg.List()
	_ = reg.ByCategory(CategoryExecution)
	patterns := reg.Patterns()

	assert.False(t, called)
	assert.Equal(t, []string{"p"}, patterns[`\brun\b`])
	assert.Equal(t, []string{"p"}, patterns["keywords(execute)"])
}
