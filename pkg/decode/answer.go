package decode

import (
	"regexp"
	"strings"
	"unicode"
)

// FinalAnswerMarker flags a thought or solution as complete.
const FinalAnswerMarker = "FINAL ANSWER:"

var markerPattern = regexp.MustCompile(`(?i)final answer:`)

// answerPrefixLen is the number of runes compared when clustering answers.
const answerPrefixLen = 50

// IsComplete reports whether text carries the completion marker.
func IsComplete(text string) bool {
	return markerPattern.MatchString(text)
}

// FinalAnswer returns the text after the last completion marker, up to the
// end of that line. Without a marker it returns the last non-empty line.
func FinalAnswer(text string) string {
	if locs := markerPattern.FindAllStringIndex(text, -1); len(locs) > 0 {
		rest := strings.TrimSpace(text[locs[len(locs)-1][1]:])
		if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
			rest = rest[:nl]
		}
		return strings.TrimSpace(rest)
	}
	lines := strings.Split(strings.TrimSpace(text), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return ""
}

// NormalizeAnswer lowercases, drops punctuation, collapses whitespace and
// truncates to a fixed prefix so equivalent answers compare equal.
func NormalizeAnswer(answer string) string {
	src := []rune(strings.ToLower(strings.TrimSpace(answer)))
	var b strings.Builder
	space := false
	for i, r := range src {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(r)
		case r == '.' && i > 0 && i+1 < len(src) && unicode.IsDigit(src[i-1]) && unicode.IsDigit(src[i+1]):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			space = true
		}
	}
	runes := []rune(b.String())
	if len(runes) > answerPrefixLen {
		runes = runes[:answerPrefixLen]
	}
	return strings.TrimSpace(string(runes))
}
