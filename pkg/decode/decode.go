// Package decode turns free-form oracle text into typed values.
//
// Every decoder is total: malformed or missing fields fall back to a fixed
// default so callers never fail on a bad oracle response. The bool returned
// alongside a value reports whether the text parsed at all.
package decode

import (
	"strings"

	"github.com/tidwall/gjson"
)

// ExtractJSON returns the first JSON object or array embedded in text.
// Markdown code fences are stripped first.
func ExtractJSON(text string) (string, bool) {
	s := stripFences(strings.TrimSpace(text))
	if s == "" {
		return "", false
	}
	if gjson.Valid(s) && (s[0] == '{' || s[0] == '[') {
		return s, true
	}
	for i := 0; i < len(s); i++ {
		if s[i] != '{' && s[i] != '[' {
			continue
		}
		if end := matchBracket(s, i); end > i {
			candidate := s[i : end+1]
			if gjson.Valid(candidate) {
				return candidate, true
			}
		}
	}
	return "", false
}

func stripFences(s string) string {
	if !strings.Contains(s, "```") {
		return s
	}
	start := strings.Index(s, "```")
	rest := s[start+3:]
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		rest = rest[nl+1:]
	}
	if end := strings.Index(rest, "```"); end >= 0 {
		rest = rest[:end]
	}
	return strings.TrimSpace(rest)
}

// matchBracket returns the index of the bracket closing s[open], honoring
// JSON string literals, or -1.
func matchBracket(s string, open int) int {
	var stack []byte
	inString := false
	escaped := false
	for i := open; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			stack = append(stack, '}')
		case '[':
			stack = append(stack, ']')
		case '}', ']':
			if len(stack) == 0 || stack[len(stack)-1] != c {
				return -1
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return i
			}
		}
	}
	return -1
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// unit reads a 0..1 value. Values in (1,100] are taken as percentages.
func unit(r gjson.Result, fallback float64) float64 {
	if !r.Exists() {
		return fallback
	}
	if r.Type != gjson.Number && r.Type != gjson.String {
		return fallback
	}
	if r.Type == gjson.String && strings.TrimSpace(r.Str) == "" {
		return fallback
	}
	v := r.Float()
	if v > 1 && v <= 100 {
		v /= 100
	}
	return clamp(v, 0, 1)
}

// stringList reads an array of strings. Object elements contribute their
// "description", "issue" or "text" field.
func stringList(r gjson.Result) []string {
	if !r.IsArray() {
		if r.Type == gjson.String && strings.TrimSpace(r.Str) != "" {
			return []string{strings.TrimSpace(r.Str)}
		}
		return nil
	}
	var out []string
	for _, item := range r.Array() {
		var s string
		if item.IsObject() {
			for _, key := range []string{"description", "issue", "text", "claim"} {
				if v := item.Get(key); v.Exists() {
					s = v.String()
					break
				}
			}
		} else {
			s = item.String()
		}
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
