package decode

import (
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
)

// DefaultIntentConfidence is used when the oracle omits a confidence.
const DefaultIntentConfidence = 0.5

// Intent decodes {"category": ..., "confidence": ...}. The category must be
// one of allowed (case-insensitive); otherwise ok is false.
func Intent(text string, allowed []string) (category string, confidence float64, ok bool) {
	js, found := ExtractJSON(text)
	if !found {
		return "", 0, false
	}
	raw := strings.ToLower(strings.TrimSpace(gjson.Get(js, "category").String()))
	if raw == "" {
		return "", 0, false
	}
	for _, c := range allowed {
		if strings.EqualFold(c, raw) {
			return c, unit(gjson.Get(js, "confidence"), DefaultIntentConfidence), true
		}
	}
	return "", 0, false
}

// DefaultFactor is the value of a complexity factor the oracle omitted.
const DefaultFactor = 0.5

// Factors are the five named complexity factors, each in [0,1].
type Factors struct {
	Steps        float64 `json:"steps"`
	Domains      float64 `json:"domains"`
	Ambiguity    float64 `json:"ambiguity"`
	Iteration    float64 `json:"iteration"`
	Dependencies float64 `json:"dependencies"`
}

// Mean averages the five factors.
func (f Factors) Mean() float64 {
	return (f.Steps + f.Domains + f.Ambiguity + f.Iteration + f.Dependencies) / 5
}

// Complexity decodes the five factors. A missing factor is DefaultFactor;
// ok is false when no JSON object was found or none of the factors exist.
func Complexity(text string) (Factors, bool) {
	js, found := ExtractJSON(text)
	if !found {
		return Factors{}, false
	}
	obj := gjson.Parse(js)
	if f := obj.Get("factors"); f.IsObject() {
		obj = f
	}
	keys := []string{"steps", "domains", "ambiguity", "iteration", "dependencies"}
	present := 0
	for _, k := range keys {
		if obj.Get(k).Exists() {
			present++
		}
	}
	if present == 0 {
		return Factors{}, false
	}
	return Factors{
		Steps:        unit(obj.Get("steps"), DefaultFactor),
		Domains:      unit(obj.Get("domains"), DefaultFactor),
		Ambiguity:    unit(obj.Get("ambiguity"), DefaultFactor),
		Iteration:    unit(obj.Get("iteration"), DefaultFactor),
		Dependencies: unit(obj.Get("dependencies"), DefaultFactor),
	}, true
}

// FallbackScore is the thought score used when the evaluator response
// cannot be parsed.
const FallbackScore = 0.5

// ThoughtScore decodes four 0-10 sub-scores (validity, progress, coherence,
// promise) and returns their mean scaled to [0,1]. A missing sub-score
// counts as 5. Unparseable text yields FallbackScore.
func ThoughtScore(text string) (float64, bool) {
	js, found := ExtractJSON(text)
	if !found {
		return FallbackScore, false
	}
	obj := gjson.Parse(js)
	if !obj.IsObject() {
		return FallbackScore, false
	}
	keys := []string{"validity", "progress", "coherence", "promise"}
	var sum float64
	present := 0
	for _, k := range keys {
		r := obj.Get(k)
		if !r.Exists() || r.Type != gjson.Number {
			sum += 5
			continue
		}
		present++
		sum += clamp(r.Float(), 0, 10)
	}
	if present == 0 {
		return FallbackScore, false
	}
	return sum / float64(len(keys)) / 10, true
}

// CritiqueResult is a decoded self-critique.
type CritiqueResult struct {
	Confidence  float64
	Issues      []string
	Feedback    string
	Strengths   []string
	Suggestions []string
}

// CritiqueUnavailable is the single issue reported when a critique cannot be decoded.
const CritiqueUnavailable = "critique unavailable"

// FallbackCritique is returned for unparseable critique text.
func FallbackCritique(raw string) CritiqueResult {
	return CritiqueResult{
		Confidence: 0.5,
		Issues:     []string{CritiqueUnavailable},
		Feedback:   strings.TrimSpace(raw),
	}
}

// Critique decodes {confidence, issues[], feedback, strengths[], suggestions[]}.
// Missing confidence is 0.5; missing lists are empty.
func Critique(text string) (CritiqueResult, bool) {
	js, found := ExtractJSON(text)
	if !found {
		return FallbackCritique(text), false
	}
	obj := gjson.Parse(js)
	if !obj.IsObject() {
		return FallbackCritique(text), false
	}
	return CritiqueResult{
		Confidence:  unit(obj.Get("confidence"), 0.5),
		Issues:      stringList(obj.Get("issues")),
		Feedback:    strings.TrimSpace(obj.Get("feedback").String()),
		Strengths:   stringList(obj.Get("strengths")),
		Suggestions: stringList(obj.Get("suggestions")),
	}, true
}

var listMarker = regexp.MustCompile(`^\s*(?:[-*•]\s*|\d+[.)]\s+)`)

// Claims decodes a list of atomic claims from a JSON array, an object with
// a "claims" array, or, failing both, one claim per non-empty line. An empty
// JSON array yields no claims.
func Claims(text string) []string {
	if js, found := ExtractJSON(text); found {
		obj := gjson.Parse(js)
		if obj.IsObject() {
			obj = obj.Get("claims")
		}
		if obj.IsArray() {
			return stringList(obj)
		}
	}
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(listMarker.ReplaceAllString(line, ""))
		if line != "" && !strings.HasPrefix(line, "```") {
			out = append(out, line)
		}
	}
	return out
}

// ClaimVerdict is the decoded verification of one claim.
type ClaimVerdict struct {
	Supported  bool
	Correction string
}

// Verdict decodes {"supported": bool, "correction": "..."}. It fails open:
// unparseable text counts as supported.
func Verdict(text string) (ClaimVerdict, bool) {
	js, found := ExtractJSON(text)
	if found {
		obj := gjson.Parse(js)
		for _, key := range []string{"supported", "verified", "correct"} {
			if r := obj.Get(key); r.Exists() {
				return ClaimVerdict{
					Supported:  r.Bool(),
					Correction: strings.TrimSpace(obj.Get("correction").String()),
				}, true
			}
		}
	}
	upper := strings.ToUpper(strings.TrimSpace(text))
	if strings.HasPrefix(upper, "FALSE") || strings.HasPrefix(upper, "INCORRECT") || strings.HasPrefix(upper, "UNSUPPORTED") {
		return ClaimVerdict{Supported: false}, true
	}
	return ClaimVerdict{Supported: true}, false
}

// Approval is a decoded approve/reject gate.
type Approval struct {
	Approved bool
	Reason   string
}

// Approve decodes {"approved": bool, "reason": "..."} or a bare
// APPROVED/REJECTED prefix. It fails open.
func Approve(text string) (Approval, bool) {
	if js, found := ExtractJSON(text); found {
		obj := gjson.Parse(js)
		if r := obj.Get("approved"); r.Exists() {
			return Approval{Approved: r.Bool(), Reason: strings.TrimSpace(obj.Get("reason").String())}, true
		}
	}
	trimmed := strings.TrimSpace(text)
	upper := strings.ToUpper(trimmed)
	switch {
	case strings.HasPrefix(upper, "REJECT"):
		return Approval{Approved: false, Reason: reasonAfterVerdict(trimmed)}, true
	case strings.HasPrefix(upper, "APPROVE"):
		return Approval{Approved: true, Reason: reasonAfterVerdict(trimmed)}, true
	}
	return Approval{Approved: true}, false
}

func reasonAfterVerdict(s string) string {
	if i := strings.IndexAny(s, ":\n"); i >= 0 {
		return strings.TrimSpace(s[i+1:])
	}
	return ""
}
