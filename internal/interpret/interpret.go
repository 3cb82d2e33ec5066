// Package interpret turns raw model output into judgements. Small models
// return sloppy JSON, fenced JSON, or plain prose; the parser tries each
// shape in turn and never fails, degrading to a text heuristic at the end.
package interpret

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/dshills/codecritic/internal/review"
)

var (
	jsonFenceRe     = regexp.MustCompile("(?s)```json\\s*(.*?)\\s*```")
	trailingCommaRe = regexp.MustCompile(`,\s*([}\]])`)
	flatObjectRe    = regexp.MustCompile(`\{[^{}]*\}`)
)

// payload is the wire shape the review prompt asks the model for. Valid is a
// pointer so an absent field defaults to true instead of false.
type payload struct {
	Valid        *bool    `json:"valid"`
	Issues       []string `json:"issues"`
	Suggestions  []string `json:"suggestions"`
	ImprovedCode string   `json:"improved_code"`
}

// Parse interprets raw model output as a judgement. Stages, in order: direct
// JSON, JSON inside a ```json fence, outermost brace pair (with a trailing
// comma repair retry), then a plain-text heuristic. The returned judgement
// records which path produced it in Source.
func Parse(raw string) *review.Judgement {
	text := strings.TrimSpace(raw)

	if p, ok := decode(text); ok {
		return fromPayload(p)
	}
	if m := jsonFenceRe.FindStringSubmatch(text); m != nil {
		if p, ok := decode(m[1]); ok {
			return fromPayload(p)
		}
	}
	if p, ok := decodeBraceSpan(text); ok {
		return fromPayload(p)
	}
	return fromText(text)
}

func decode(text string) (payload, bool) {
	var p payload
	if err := json.Unmarshal([]byte(text), &p); err != nil {
		return payload{}, false
	}
	return p, true
}

// decodeBraceSpan finds the outermost balanced { } pair, honoring string
// literals and escapes, and decodes it. On failure it strips trailing commas
// and retries once, then falls back to the first flat object in the text.
func decodeBraceSpan(text string) (payload, bool) {
	if span, ok := braceSpan(text); ok {
		if p, ok := decode(span); ok {
			return p, true
		}
		repaired := trailingCommaRe.ReplaceAllString(span, "$1")
		if p, ok := decode(repaired); ok {
			return p, true
		}
	}
	if m := flatObjectRe.FindString(text); m != "" {
		return decode(m)
	}
	return payload{}, false
}

func braceSpan(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	if start == -1 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			escaped = true
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return text[start : i+1], true
				}
			}
		}
	}
	return "", false
}

func fromPayload(p payload) *review.Judgement {
	j := &review.Judgement{
		Valid:        true,
		Issues:       p.Issues,
		Suggestions:  p.Suggestions,
		ImprovedCode: p.ImprovedCode,
		Source:       review.ProvenanceModel,
	}
	if p.Valid != nil {
		j.Valid = *p.Valid
	}
	j.Normalize()
	return j
}

const (
	maxHeuristicItems = 5
	maxHeuristicLen   = 150
)

var (
	problemWords    = []string{"error", "bug", "issue", "problem", "missing", "incorrect"}
	suggestionWords = []string{"suggest", "recommend", "consider", "should", "could", "better"}
)

// fromText scans prose for lines that read like findings. Only responses
// that mention a problem at all are mined; everything else becomes the
// placeholder suggestion so the judgement is never empty.
func fromText(text string) *review.Judgement {
	j := &review.Judgement{
		Valid:  true,
		Source: review.ProvenanceHeuristic,
	}

	lower := strings.ToLower(text)
	if strings.Contains(lower, "error") || strings.Contains(lower, "bug") || strings.Contains(lower, "issue") {
		for _, line := range strings.Split(text, "\n") {
			line = strings.TrimSpace(line)
			if len(line) <= 10 || len(line) >= 200 {
				continue
			}
			switch {
			case containsAny(strings.ToLower(line), problemWords):
				j.Issues = append(j.Issues, clip(line, maxHeuristicLen))
			case containsAny(strings.ToLower(line), suggestionWords):
				j.Suggestions = append(j.Suggestions, clip(line, maxHeuristicLen))
			}
		}
	}

	if len(j.Issues) > maxHeuristicItems {
		j.Issues = j.Issues[:maxHeuristicItems]
	}
	if len(j.Suggestions) > maxHeuristicItems {
		j.Suggestions = j.Suggestions[:maxHeuristicItems]
	}
	if len(j.Issues) == 0 && len(j.Suggestions) == 0 {
		j.Suggestions = []string{"Code review completed - no specific issues found"}
	}
	j.Normalize()
	return j
}

func containsAny(line string, words []string) bool {
	for _, w := range words {
		if strings.Contains(line, w) {
			return true
		}
	}
	return false
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
