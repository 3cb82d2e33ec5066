// Package metrics computes quality measurements for source units.
package metrics

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/dshills/codecritic/internal/review"
	"github.com/dshills/codecritic/internal/source"
)

// Collect measures a unit. Line-based metrics always come back; tree-based
// ones stay at their zero values when the unit does not parse.
func Collect(u *source.Unit) review.Metrics {
	var m review.Metrics
	textMetrics(u.Lines, &m)

	idx := u.Index()
	if !idx.OK() {
		return m
	}
	treeMetrics(idx, &m)
	return m
}

func textMetrics(lines []string, m *review.Metrics) {
	seen := make(map[string]struct{})
	nonBlank, comments := 0, 0
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		nonBlank++
		if strings.HasPrefix(trimmed, "#") {
			comments++
			continue
		}
		m.LinesOfCode++
		if _, dup := seen[trimmed]; dup {
			m.DuplicatedLines++
		}
		seen[trimmed] = struct{}{}
	}
	if nonBlank > 0 {
		m.CommentRatio = float64(comments) / float64(nonBlank)
	}
}

func treeMetrics(idx *source.Index, m *review.Metrics) {
	idx.Walk(func(n *sitter.Node, _ []*sitter.Node) {
		if n.Type() == "class_definition" {
			m.Classes++
		}
	})

	fns := idx.Functions()
	m.Functions = len(fns)
	if len(fns) == 0 {
		// No functions to average over; a bare script is trivially simple
		// and trivially hinted.
		m.CyclomaticComplexity = 1.0
		m.TypeHintCoverage = 1.0
		return
	}

	total, hinted := 0, 0
	for _, fn := range fns {
		total += complexity(fn)
		if typeHinted(fn) {
			hinted++
		}
	}
	m.CyclomaticComplexity = float64(total) / float64(len(fns))
	m.TypeHintCoverage = float64(hinted) / float64(len(fns))
}

// complexity is 1 plus every branch point in the function body. elif clauses
// count separately from their if statement.
func complexity(fn *sitter.Node) int {
	c := 1
	source.WalkSubtree(fn, func(n *sitter.Node, _ []*sitter.Node) {
		switch n.Type() {
		case "if_statement", "elif_clause", "for_statement",
			"while_statement", "except_clause", "boolean_operator":
			c++
		}
	})
	return c
}

// typeHinted reports whether a function annotates its return type or any
// parameter.
func typeHinted(fn *sitter.Node) bool {
	if fn.ChildByFieldName("return_type") != nil {
		return true
	}
	params := fn.ChildByFieldName("parameters")
	if params == nil {
		return false
	}
	for i := 0; i < int(params.NamedChildCount()); i++ {
		switch params.NamedChild(i).Type() {
		case "typed_parameter", "typed_default_parameter":
			return true
		}
	}
	return false
}
