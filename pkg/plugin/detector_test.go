package plugin

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type countingMatcher struct {
	calls  int
	result bool
}

func (m *countingMatcher) Matches(string) bool {
	m.calls++
	return m.result
}

func (m *countingMatcher) String() string { return "counting" }

func names(entries []*Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Name
	}
	return out
}

func TestDetectActive(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister("memory", Config{Category: CategoryMemory, Handler: noop, Priority: 100})
	reg.MustRegister("web", Config{Category: CategoryGrounding, Handler: noop, Priority: 60, Patterns: []string{`\b(search|latest)\b`}})
	reg.MustRegister("docs", Config{Category: CategoryGrounding, Handler: noop, Priority: 60, Keywords: []string{"documentation", "readme"}})
	reg.MustRegister("tot", Config{Category: CategoryReasoning, Handler: noop, Priority: 80, Patterns: []string{`step by step`, `plan`}})

	d := NewDetector(reg)

	assert.Equal(t, []string{"tot", "web", "docs"}, names(d.DetectActive("Search the README and plan it STEP BY STEP")))
	assert.Equal(t, []string{"web"}, names(d.DetectActive("what is the latest release")))
	assert.Empty(t, d.DetectActive("hello there"))
}

func TestDetectActiveShortCircuits(t *testing.T) {
	first := &countingMatcher{result: true}
	second := &countingMatcher{result: true}
	reg := NewRegistry()
	reg.MustRegister("p", Config{Category: CategoryGrounding, Handler: noop, Matchers: []IntentMatcher{first, second}})

	active := NewDetector(reg).DetectActive("anything")
	assert.Len(t, active, 1)
	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 0, second.calls)
}

func TestFilter(t *testing.T) {
	entries := []*Entry{
		{Name: "a", Category: CategoryGrounding},
		{Name: "b", Category: CategoryReasoning},
		{Name: "c", Category: CategoryGrounding},
	}
	assert.Equal(t, []string{"a", "c"}, names(Filter(entries, CategoryGrounding)))
	assert.Empty(t, Filter(entries, CategoryExecution))
}

func TestContainsPhrase(t *testing.T) {
	tests := []struct {
		text, phrase string
		want         bool
	}{
		{"please debug this", "debug", true},
		{"debugger attached", "debug", false},
		{"the debugger and then debug", "debug", true},
		{"look up the docs", "look up", true},
		{"lookup", "look up", false},
		{"", "x", false},
		{"x", "", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ContainsPhrase(tt.text, tt.phrase), "%q in %q", tt.phrase, tt.text)
	}
}
