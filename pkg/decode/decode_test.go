package decode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   string
		wantOK bool
	}{
		{name: "bare object", input: `{"a":1}`, want: `{"a":1}`, wantOK: true},
		{name: "fenced", input: "```json\n{\"a\": 1}\n```", want: `{"a": 1}`, wantOK: true},
		{name: "prose around", input: `Sure! Here it is: {"a": {"b": [1,2]}} hope that helps`, want: `{"a": {"b": [1,2]}}`, wantOK: true},
		{name: "braces inside strings", input: `x {"s": "a } b { c"} y`, want: `{"s": "a } b { c"}`, wantOK: true},
		{name: "array", input: `claims: ["a", "b"]`, want: `["a", "b"]`, wantOK: true},
		{name: "skips invalid candidate", input: `{not json} then {"ok": true}`, want: `{"ok": true}`, wantOK: true},
		{name: "unbalanced", input: `{"a": 1`, wantOK: false},
		{name: "empty", input: "   ", wantOK: false},
		{name: "no json", input: "just words", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractJSON(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestIntent(t *testing.T) {
	allowed := []string{"general", "code", "math"}

	cat, conf, ok := Intent(`{"category": "Code", "confidence": 0.82}`, allowed)
	require.True(t, ok)
	assert.Equal(t, "code", cat)
	assert.InDelta(t, 0.82, conf, 1e-9)

	cat, conf, ok = Intent(`{"category": "math"}`, allowed)
	require.True(t, ok)
	assert.Equal(t, "math", cat)
	assert.Equal(t, DefaultIntentConfidence, conf)

	_, conf, ok = Intent(`{"category": "math", "confidence": 85}`, allowed)
	require.True(t, ok)
	assert.InDelta(t, 0.85, conf, 1e-9)

	_, _, ok = Intent(`{"category": "astrology", "confidence": 0.9}`, allowed)
	assert.False(t, ok)

	_, _, ok = Intent("I think it is code", allowed)
	assert.False(t, ok)
}

func TestComplexity(t *testing.T) {
	f, ok := Complexity(`{"steps": 0.8, "domains": 0.6, "ambiguity": 0.2, "iteration": 0.4, "dependencies": 1.0}`)
	require.True(t, ok)
	assert.InDelta(t, 0.6, f.Mean(), 1e-9)

	f, ok = Complexity(`{"factors": {"steps": 1}}`)
	require.True(t, ok)
	assert.Equal(t, 1.0, f.Steps)
	assert.Equal(t, DefaultFactor, f.Domains)
	assert.InDelta(t, 0.6, f.Mean(), 1e-9)

	f, ok = Complexity(`{"steps": 7, "domains": -3}`)
	require.True(t, ok)
	assert.InDelta(t, 0.07, f.Steps, 1e-9)
	assert.Equal(t, 0.0, f.Domains)

	_, ok = Complexity(`{"unrelated": 1}`)
	assert.False(t, ok)
	_, ok = Complexity("hard")
	assert.False(t, ok)
}

func TestThoughtScore(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   float64
		wantOK bool
	}{
		{name: "all present", input: `{"validity": 8, "progress": 6, "coherence": 10, "promise": 4}`, want: 0.7, wantOK: true},
		{name: "missing counts as five", input: `{"validity": 10}`, want: 0.625, wantOK: true},
		{name: "clamped", input: `{"validity": 15, "progress": -2, "coherence": 10, "promise": 0}`, want: 0.5, wantOK: true},
		{name: "non numeric fields", input: `{"validity": "high"}`, want: FallbackScore, wantOK: false},
		{name: "garbage", input: "looks good to me", want: FallbackScore, wantOK: false},
		{name: "array", input: `[1,2,3]`, want: FallbackScore, wantOK: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ThoughtScore(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			assert.InDelta(t, tt.want, got, 1e-9)
			assert.GreaterOrEqual(t, got, 0.0)
			assert.LessOrEqual(t, got, 1.0)
		})
	}
}

func TestCritique(t *testing.T) {
	c, ok := Critique("```json\n" + `{
		"confidence": 0.9,
		"issues": [],
		"feedback": "solid",
		"strengths": ["clear"],
		"suggestions": [{"description": "add example"}]
	}` + "\n```")
	require.True(t, ok)
	assert.InDelta(t, 0.9, c.Confidence, 1e-9)
	assert.Empty(t, c.Issues)
	assert.Equal(t, "solid", c.Feedback)
	assert.Equal(t, []string{"clear"}, c.Strengths)
	assert.Equal(t, []string{"add example"}, c.Suggestions)

	c, ok = Critique(`{"issues": ["wrong date", ""]}`)
	require.True(t, ok)
	assert.Equal(t, 0.5, c.Confidence)
	assert.Equal(t, []string{"wrong date"}, c.Issues)

	c, ok = Critique("It is fine I guess")
	assert.False(t, ok)
	assert.Equal(t, 0.5, c.Confidence)
	assert.Equal(t, []string{CritiqueUnavailable}, c.Issues)
	assert.Equal(t, "It is fine I guess", c.Feedback)
}

func TestClaims(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, Claims(`["a", "b"]`))
	assert.Equal(t, []string{"x"}, Claims(`{"claims": [{"claim": "x"}]}`))
	assert.Equal(t,
		[]string{"Paris is in France", "1990 was a year", "Water boils at 100C"},
		Claims("1. Paris is in France\n\n- 1990 was a year\n* Water boils at 100C\n"))
	assert.Empty(t, Claims(""))
	assert.Empty(t, Claims("[]"))
}

func TestVerdict(t *testing.T) {
	v, ok := Verdict(`{"supported": false, "correction": "It is 1969."}`)
	require.True(t, ok)
	assert.False(t, v.Supported)
	assert.Equal(t, "It is 1969.", v.Correction)

	v, ok = Verdict(`{"verified": true}`)
	require.True(t, ok)
	assert.True(t, v.Supported)

	v, ok = Verdict("INCORRECT, it was 1969")
	require.True(t, ok)
	assert.False(t, v.Supported)

	v, ok = Verdict("no idea")
	assert.False(t, ok)
	assert.True(t, v.Supported)
}

func TestApprove(t *testing.T) {
	a, ok := Approve(`{"approved": false, "reason": "off topic"}`)
	require.True(t, ok)
	assert.False(t, a.Approved)
	assert.Equal(t, "off topic", a.Reason)

	a, ok = Approve("REJECTED: does not answer the question")
	require.True(t, ok)
	assert.False(t, a.Approved)
	assert.Equal(t, "does not answer the question", a.Reason)

	a, ok = Approve("APPROVED")
	require.True(t, ok)
	assert.True(t, a.Approved)

	a, ok = Approve("")
	assert.False(t, ok)
	assert.True(t, a.Approved)
}

func TestFinalAnswer(t *testing.T) {
	assert.True(t, IsComplete("so... Final Answer: 42"))
	assert.False(t, IsComplete("still thinking"))

	assert.Equal(t, "42", FinalAnswer("step one\nFINAL ANSWER: 42\nthanks"))
	assert.Equal(t, "b", FinalAnswer("FINAL ANSWER: a\nFINAL ANSWER: b"))
	assert.Equal(t, "last line", FinalAnswer("first\nlast line\n\n"))
	assert.Equal(t, "", FinalAnswer("   "))
}

func TestNormalizeAnswer(t *testing.T) {
	assert.Equal(t, "the answer is 3.14", NormalizeAnswer("  The answer is: 3.14! "))
	assert.Equal(t, NormalizeAnswer("Forty-two"), NormalizeAnswer("fortytwo"))
	assert.Equal(t, "42", NormalizeAnswer("42."))

	long := NormalizeAnswer("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	assert.Len(t, []rune(long), answerPrefixLen)
}
