// Package render produces Markdown and JSON output from a repair run.
package render

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dshills/codecritic/internal/repair"
	"github.com/dshills/codecritic/internal/review"
)

// Markdown renders a repair result as a Markdown report.
func Markdown(res *repair.Result) string {
	var b strings.Builder
	j := lastJudgement(res)

	b.WriteString("# CodeCritic Review\n\n")
	fmt.Fprintf(&b, "**Verdict:** %s\n", verdict(j))
	if j != nil && j.Metrics != nil {
		score := review.Score(*j.Metrics)
		fmt.Fprintf(&b, "**Quality Score:** %.1f / 100 (%s)\n", score, review.Grade(score))
	}
	fmt.Fprintf(&b, "**Iterations:** %d\n\n", res.Iterations)

	if j == nil {
		return b.String()
	}

	if len(j.Issues) > 0 {
		b.WriteString("## Model Issues\n\n")
		for _, issue := range j.Issues {
			fmt.Fprintf(&b, "- %s\n", issue)
		}
		b.WriteString("\n")
	}

	if len(j.StaticIssues) > 0 {
		b.WriteString("## Static Findings\n\n")
		sorted := make([]review.Finding, len(j.StaticIssues))
		copy(sorted, j.StaticIssues)
		review.SortFindings(sorted)
		for _, f := range sorted {
			renderFinding(&b, f)
		}
	}

	if len(j.Issues) == 0 && len(j.StaticIssues) == 0 {
		b.WriteString("No issues found.\n\n")
	}

	if len(j.Suggestions) > 0 {
		b.WriteString("## Suggestions\n\n")
		for _, s := range j.Suggestions {
			fmt.Fprintf(&b, "- %s\n", s)
		}
		b.WriteString("\n")
	}

	if j.Metrics != nil {
		renderMetrics(&b, *j.Metrics)
	}

	if changed(res) {
		b.WriteString("## Final Code\n\n```python\n")
		b.WriteString(res.Unit.Raw)
		if !strings.HasSuffix(res.Unit.Raw, "\n") {
			b.WriteString("\n")
		}
		b.WriteString("```\n\n")
	}

	if res.Message != "" {
		fmt.Fprintf(&b, "_%s_\n", res.Message)
	}
	return b.String()
}

// JSON renders a repair result as a machine-readable report.
func JSON(res *repair.Result) (string, error) {
	j := lastJudgement(res)
	rep := report{
		Success:    res.Success,
		Iterations: res.Iterations,
		FinalCode:  res.Unit.Raw,
		Message:    res.Message,
	}
	if j != nil {
		rep.Valid = j.Valid
		rep.Issues = j.Issues
		rep.Suggestions = j.Suggestions
		rep.StaticIssues = j.StaticIssues
		rep.Metrics = j.Metrics
		if j.Metrics != nil {
			score := review.Score(*j.Metrics)
			rep.Score = score
			rep.Grade = review.Grade(score)
		}
	}
	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return "", fmt.Errorf("render: encode report: %w", err)
	}
	return string(data) + "\n", nil
}

type report struct {
	Valid        bool             `json:"valid"`
	Success      bool             `json:"success"`
	Iterations   int              `json:"iterations"`
	Score        float64          `json:"score"`
	Grade        string           `json:"grade,omitempty"`
	Issues       []string         `json:"issues"`
	Suggestions  []string         `json:"suggestions"`
	StaticIssues []review.Finding `json:"static_issues,omitempty"`
	Metrics      *review.Metrics  `json:"metrics,omitempty"`
	FinalCode    string           `json:"final_code"`
	Message      string           `json:"message,omitempty"`
}

func lastJudgement(res *repair.Result) *review.Judgement {
	if len(res.History) == 0 {
		return nil
	}
	return res.History[len(res.History)-1].Judgement
}

func verdict(j *review.Judgement) string {
	if j == nil {
		return "UNKNOWN"
	}
	if j.Valid {
		return "PASS"
	}
	return "FAIL"
}

func changed(res *repair.Result) bool {
	return len(res.History) > 0 && res.Unit.Raw != res.History[0].Code
}

func renderFinding(b *strings.Builder, f review.Finding) {
	fmt.Fprintf(b, "### %s [%s / %s]\n\n", f.ID, f.Severity, f.Kind)
	if f.Line > 0 {
		fmt.Fprintf(b, "%s (L%d)\n\n", f.Message, f.Line)
	} else {
		fmt.Fprintf(b, "%s\n\n", f.Message)
	}
	if f.Fix != "" {
		fmt.Fprintf(b, "**Fix:** %s\n\n", f.Fix)
	}
}

func renderMetrics(b *strings.Builder, m review.Metrics) {
	b.WriteString("## Metrics\n\n")
	b.WriteString("| Metric | Value |\n|---|---|\n")
	fmt.Fprintf(b, "| Lines of code | %d |\n", m.LinesOfCode)
	fmt.Fprintf(b, "| Functions | %d |\n", m.Functions)
	fmt.Fprintf(b, "| Classes | %d |\n", m.Classes)
	fmt.Fprintf(b, "| Cyclomatic complexity | %.2f |\n", m.CyclomaticComplexity)
	fmt.Fprintf(b, "| Comment ratio | %.1f%% |\n", m.CommentRatio*100)
	fmt.Fprintf(b, "| Duplicated lines | %d |\n", m.DuplicatedLines)
	fmt.Fprintf(b, "| Type hint coverage | %.1f%% |\n", m.TypeHintCoverage*100)
	b.WriteString("\n")
}
