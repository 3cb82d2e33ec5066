// Package prompt builds the LLM prompts for code review and fixes.
package prompt

import (
	"fmt"
	"strings"

	"github.com/dshills/codecritic/internal/review"
	"github.com/dshills/codecritic/internal/source"
)

// Context carries project details embedded in prompts so the reviewer can
// judge intent, not just syntax.
type Context struct {
	Task      string
	Framework string
	Dataset   string
	FileType  string
}

func (c Context) fileType() string {
	if c.FileType == "" {
		return "python"
	}
	return c.FileType
}

// ReviewSystem is the system message for review requests.
const ReviewSystem = "You are a senior code reviewer. Analyze the code for bugs, best practices, and improvements." +
	" Return JSON with keys: valid (bool), issues (array of strings), suggestions (array of strings), improved_code (string)." +
	" Only include improved_code if significant changes are needed."

// FixSystem is the system message for fix requests.
const FixSystem = "You are an expert code fixer. Your task is to fix code issues while preserving functionality. " +
	"Return ONLY valid Python code in a markdown code block. No explanations."

// Caps on how many issues a fix prompt carries. Small models lose focus past
// a handful.
const (
	maxFixIssues       = 3
	maxFixStaticIssues = 2
)

// BuildReview assembles the review prompt. The code goes in line-numbered so
// the model can cite exact lines.
func BuildReview(u *source.Unit, ctx Context) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Review this %s file for a %s project:\n\n", ctx.fileType(), orUnknown(ctx.Task))

	b.WriteString("```python\n")
	b.WriteString(u.LineNumbered())
	b.WriteString("```\n\n")

	b.WriteString("Each line is prefixed with its number (LNNN:). Cite those numbers when reporting issues; never include the prefixes in improved_code.\n\n")

	b.WriteString("Context:\n")
	fmt.Fprintf(&b, "- Task: %s\n", orUnknown(ctx.Task))
	fmt.Fprintf(&b, "- Framework: %s\n", orUnknown(ctx.Framework))
	fmt.Fprintf(&b, "- Dataset: %s\n\n", orUnknown(ctx.Dataset))

	b.WriteString(`Check for:
1. Syntax errors
2. Import errors
3. Logic bugs
4. Missing error handling
5. Performance issues
6. Best practice violations
7. Dataset integration correctness

Provide JSON response with issues, suggestions, and optionally improved_code.
`)
	return b.String()
}

// BuildFix assembles the follow-up prompt that asks for corrected code. It
// carries the top model issues plus the worst static findings.
func BuildFix(u *source.Unit, j *review.Judgement, ctx Context) string {
	var b strings.Builder

	b.WriteString("The following code has issues that need to be fixed:\n\n")
	b.WriteString("```python\n")
	b.WriteString(u.Raw)
	if !strings.HasSuffix(u.Raw, "\n") {
		b.WriteString("\n")
	}
	b.WriteString("```\n\n")

	b.WriteString("Issues to fix:\n")
	issues := j.Issues
	if len(issues) > maxFixIssues {
		issues = issues[:maxFixIssues]
	}
	for _, issue := range issues {
		fmt.Fprintf(&b, "- %s\n", issue)
	}
	for _, f := range review.TopFindings(j.StaticIssues, maxFixStaticIssues) {
		fmt.Fprintf(&b, "- [Static] %s\n", f.Message)
	}
	b.WriteString("\n")

	b.WriteString("Context:\n")
	fmt.Fprintf(&b, "- Task: %s\n", orUnknown(ctx.Task))
	fmt.Fprintf(&b, "- Framework: %s\n", orUnknown(ctx.Framework))
	fmt.Fprintf(&b, "- File type: %s\n\n", ctx.fileType())

	b.WriteString(`Please provide the COMPLETE fixed code that addresses all issues above.
Ensure the fixed code is syntactically correct and handles the identified problems.
Return ONLY the fixed Python code, starting with ` + "```" + ` and ending with ` + "```" + `.
`)
	return b.String()
}

func orUnknown(s string) string {
	if s == "" {
		return "unspecified"
	}
	return s
}
