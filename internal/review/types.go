// Package review defines the core types for codecritic review output.
package review

// Finding is one reported security, performance, or structural observation
// about a source unit.
type Finding struct {
	ID       string   `json:"id,omitempty"`
	Kind     Kind     `json:"kind"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	Line     int      `json:"line,omitempty"`
	Fix      string   `json:"fix,omitempty"`
}

// Metrics holds code quality measurements for a single source unit.
type Metrics struct {
	LinesOfCode          int     `json:"lines_of_code"`
	CyclomaticComplexity float64 `json:"cyclomatic_complexity"`
	Functions            int     `json:"functions"`
	Classes              int     `json:"classes"`
	CommentRatio         float64 `json:"comments_ratio"`
	DuplicatedLines      int     `json:"duplicated_lines"`
	TypeHintCoverage     float64 `json:"type_hints_coverage"`
}

// Judgement is the aggregated verdict for one review pass. The JSON shape is
// the wire contract shared with the model: absent fields are treated as their
// defaults, never as errors.
type Judgement struct {
	Valid        bool      `json:"valid"`
	Issues       []string  `json:"issues"`
	Suggestions  []string  `json:"suggestions"`
	ImprovedCode string    `json:"improved_code,omitempty"`
	Metrics      *Metrics  `json:"metrics,omitempty"`
	StaticIssues []Finding `json:"static_issues,omitempty"`

	// Source records how the judgement was produced. Not serialized.
	Source Provenance `json:"-"`
}

// Clean reports whether the judgement carries no issues of any kind.
func (j *Judgement) Clean() bool {
	return len(j.Issues) == 0 && len(j.StaticIssues) == 0
}

// Normalize enforces the judgement invariant: valid=false requires at least
// one critical/high finding or a reported issue, so a judgement is never both
// empty and invalid. Nil slices become empty so the wire shape stays stable.
func (j *Judgement) Normalize() {
	if j.Issues == nil {
		j.Issues = []string{}
	}
	if j.Suggestions == nil {
		j.Suggestions = []string{}
	}
	for _, f := range j.StaticIssues {
		if f.Severity == SeverityCritical || f.Severity == SeverityHigh {
			j.Valid = false
			break
		}
	}
	if !j.Valid && j.Clean() {
		j.Valid = true
	}
}
