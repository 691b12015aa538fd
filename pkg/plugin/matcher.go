package plugin

import (
	"fmt"
	"regexp"
	"strings"
)

// IntentMatcher decides whether free text expresses a plugin's intent.
type IntentMatcher interface {
	Matches(text string) bool
	String() string
}

// RegexMatcher matches a case-insensitive regular expression.
type RegexMatcher struct {
	pattern string
	re      *regexp.Regexp
}

// NewRegexMatcher compiles pattern case-insensitively.
func NewRegexMatcher(pattern string) (*RegexMatcher, error) {
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return nil, fmt.Errorf("compile intent pattern %q: %w", pattern, err)
	}
	return &RegexMatcher{pattern: pattern, re: re}, nil
}

func (m *RegexMatcher) Matches(text string) bool { return m.re.MatchString(text) }
func (m *RegexMatcher) String() string         { return m.pattern }

// KeywordMatcher matches any of a set of phrases on word boundaries.
type KeywordMatcher struct {
	phrases []string
}

// NewKeywordMatcher returns a matcher for phrases. Empty phrases are dropped.
func NewKeywordMatcher(phrases ...string) *KeywordMatcher {
	m := &KeywordMatcher{}
	for _, p := range phrases {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			m.phrases = append(m.phrases, p)
		}
	}
	return m
}

func (m *KeywordMatcher) Matches(text string) bool {
	lower := strings.ToLower(text)
	for _, p := range m.phrases {
		if ContainsPhrase(lower, p) {
			return true
		}
	}
	return false
}

func (m *KeywordMatcher) String() string {
	return "keywords(" + strings.Join(m.phrases, "|") + ")"
}

// ContainsPhrase reports whether phrase occurs in text bounded by non-word
// characters. Both arguments are expected in lower case.
func ContainsPhrase(text, phrase string) bool {
	if phrase == "" {
		return false
	}
	for offset := 0; offset < len(text); {
		idx := strings.Index(text[offset:], phrase)
		if idx == -1 {
			return false
		}
		idx += offset
		end := idx + len(phrase)
		before := idx == 0 || !isWordChar(text[idx-1])
		after := end >= len(text) || !isWordChar(text[end])
		if before && after {
			return true
		}
		offset = idx + 1
	}
	return false
}

func isWordChar(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_'
}
