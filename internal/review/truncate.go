package review

const (
	DefaultMaxIssues      = 20
	DefaultMaxSuggestions = 10
)

// Truncate caps issues and suggestions to the given limits. If either list
// exceeds its limit it is cut and a synthetic suggestion is appended noting
// the truncation.
func Truncate(j *Judgement, maxIssues, maxSuggestions int) {
	if maxIssues <= 0 {
		maxIssues = DefaultMaxIssues
	}
	if maxSuggestions <= 0 {
		maxSuggestions = DefaultMaxSuggestions
	}

	truncated := false

	if len(j.Issues) > maxIssues {
		j.Issues = j.Issues[:maxIssues]
		truncated = true
	}
	if len(j.Suggestions) > maxSuggestions {
		j.Suggestions = j.Suggestions[:maxSuggestions]
		truncated = true
	}

	if truncated {
		j.Suggestions = append(j.Suggestions,
			"Output truncated: re-run with higher limits to see all results")
	}
}
