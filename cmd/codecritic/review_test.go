package main

import (
	"strings"
	"testing"

	"github.com/dshills/codecritic/internal/repair"
	"github.com/dshills/codecritic/internal/review"
	"github.com/dshills/codecritic/internal/source"
)

func fakeResult(code string, success bool) *repair.Result {
	u := source.New(code)
	return &repair.Result{
		Unit:       u,
		Iterations: 1,
		Success:    success,
		History: []repair.Step{{
			Iteration: 1,
			Code:      u.Raw,
			Judgement: &review.Judgement{Valid: success, Issues: []string{}, Suggestions: []string{}},
		}},
	}
}

func TestFormatResultsJSON(t *testing.T) {
	out, err := formatResults([]*repair.Result{fakeResult("x = 1\n", true)}, []string{"a.py"}, "json")
	if err != nil {
		t.Fatalf("formatResults failed: %v", err)
	}
	if !strings.Contains(out, `"success": true`) {
		t.Errorf("json output missing success field: %s", out)
	}
}

func TestFormatResultsMarkdownMultiFile(t *testing.T) {
	results := []*repair.Result{fakeResult("x = 1\n", true), fakeResult("y = 2\n", false)}
	out, err := formatResults(results, []string{"a.py", "b.py"}, "md")
	if err != nil {
		t.Fatalf("formatResults failed: %v", err)
	}
	if !strings.Contains(out, "**File:** a.py") || !strings.Contains(out, "**File:** b.py") {
		t.Error("multi-file markdown should label each file")
	}
	if !strings.Contains(out, "\n---\n") {
		t.Error("multi-file markdown should separate reports")
	}
}

func TestFormatResultsUnknownFormat(t *testing.T) {
	if _, err := formatResults([]*repair.Result{fakeResult("x = 1\n", true)}, []string{"a.py"}, "xml"); err == nil {
		t.Fatal("unknown format should error")
	}
}
