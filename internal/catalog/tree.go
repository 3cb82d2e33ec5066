package catalog

import (
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/dshills/codecritic/internal/review"
	"github.com/dshills/codecritic/internal/source"
)

// maxNestingDepth is the deepest acceptable stack of block statements inside
// one function before the detector fires.
const maxNestingDepth = 4

func securityTreeDetectors() []Detector {
	return []Detector{
		{
			ID:       "assertion",
			Kind:     review.KindSecurity,
			Severity: review.SeverityMedium,
			Message:  "Assertions are stripped under optimized execution and must not guard critical checks",
			Fix:      "Raise an explicit exception instead of asserting",
			Check: func(n *sitter.Node, _ []*sitter.Node, _ []byte) (string, bool) {
				return "", n.Type() == "assert_statement"
			},
		},
		{
			ID:       "missing_timeout",
			Kind:     review.KindSecurity,
			Severity: review.SeverityMedium,
			Message:  "HTTP request without a timeout can hang indefinitely",
			Fix:      "Pass a timeout argument: requests.get(url, timeout=30)",
			Check:    checkMissingTimeout,
		},
	}
}

func performanceTreeDetectors() []Detector {
	return []Detector{
		{
			ID:       "loop_mutation",
			Kind:     review.KindPerformance,
			Severity: review.SeverityHigh,
			Message:  "List mutated inside a loop",
			Fix:      "Use a list comprehension or build the list once outside the loop",
			Check:    checkLoopMutation,
		},
		{
			ID:       "deep_nesting",
			Kind:     review.KindPerformance,
			Severity: review.SeverityMedium,
			Message:  "Deeply nested control flow",
			Fix:      "Split into smaller functions",
			Check:    checkDeepNesting,
		},
		{
			ID:       "string_concat_loop",
			Kind:     review.KindPerformance,
			Severity: review.SeverityHigh,
			Message:  "String concatenation inside a loop builds quadratic garbage",
			Fix:      "Collect parts in a list and join once: ''.join(parts)",
			Check:    checkStringConcat,
		},
	}
}

// checkMissingTimeout matches requests.get/post/request calls that carry no
// timeout keyword argument.
func checkMissingTimeout(n *sitter.Node, _ []*sitter.Node, src []byte) (string, bool) {
	if n.Type() != "call" {
		return "", false
	}
	fn := n.ChildByFieldName("function")
	if fn == nil || fn.Type() != "attribute" {
		return "", false
	}
	obj := fn.ChildByFieldName("object")
	attr := fn.ChildByFieldName("attribute")
	if obj == nil || attr == nil || obj.Type() != "identifier" {
		return "", false
	}
	if obj.Content(src) != "requests" {
		return "", false
	}
	switch attr.Content(src) {
	case "get", "post", "request":
	default:
		return "", false
	}

	args := n.ChildByFieldName("arguments")
	if args == nil {
		return "", true
	}
	for i := 0; i < int(args.NamedChildCount()); i++ {
		arg := args.NamedChild(i)
		if arg.Type() != "keyword_argument" {
			continue
		}
		if name := arg.ChildByFieldName("name"); name != nil && name.Content(src) == "timeout" {
			return "", false
		}
	}
	return "", true
}

// checkLoopMutation matches .append/.insert/.remove method calls with a for
// loop somewhere above them. While loops are out of scope: draining a list
// under `while xs` is a common idiom, not a smell.
func checkLoopMutation(n *sitter.Node, ancestors []*sitter.Node, src []byte) (string, bool) {
	if n.Type() != "call" {
		return "", false
	}
	fn := n.ChildByFieldName("function")
	if fn == nil || fn.Type() != "attribute" {
		return "", false
	}
	attr := fn.ChildByFieldName("attribute")
	if attr == nil {
		return "", false
	}
	switch attr.Content(src) {
	case "append", "insert", "remove":
	default:
		return "", false
	}
	return "", insideForLoop(ancestors)
}

// checkDeepNesting fires once per function whose body stacks more than
// maxNestingDepth block statements.
func checkDeepNesting(n *sitter.Node, _ []*sitter.Node, _ []byte) (string, bool) {
	if n.Type() != "function_definition" {
		return "", false
	}
	depth := 0
	source.WalkSubtree(n, func(c *sitter.Node, stack []*sitter.Node) {
		d := 0
		for _, a := range stack {
			if blockStatement(a.Type()) {
				d++
			}
		}
		if blockStatement(c.Type()) {
			d++
		}
		if d > depth {
			depth = d
		}
	})
	if depth <= maxNestingDepth {
		return "", false
	}
	return fmt.Sprintf("Deeply nested control flow (depth %d)", depth), true
}

// checkStringConcat matches + between two string literals inside a loop.
func checkStringConcat(n *sitter.Node, ancestors []*sitter.Node, src []byte) (string, bool) {
	if n.Type() != "binary_operator" {
		return "", false
	}
	op := n.ChildByFieldName("operator")
	if op == nil || op.Content(src) != "+" {
		return "", false
	}
	left := n.ChildByFieldName("left")
	right := n.ChildByFieldName("right")
	if !stringLiteral(left) || !stringLiteral(right) {
		return "", false
	}
	return "", insideLoop(ancestors)
}

func insideForLoop(ancestors []*sitter.Node) bool {
	for _, a := range ancestors {
		if a.Type() == "for_statement" {
			return true
		}
	}
	return false
}

func insideLoop(ancestors []*sitter.Node) bool {
	for _, a := range ancestors {
		switch a.Type() {
		case "for_statement", "while_statement":
			return true
		}
	}
	return false
}

func blockStatement(typ string) bool {
	switch typ {
	case "if_statement", "for_statement", "while_statement", "try_statement", "with_statement":
		return true
	}
	return false
}

func stringLiteral(n *sitter.Node) bool {
	if n == nil {
		return false
	}
	switch n.Type() {
	case "string", "concatenated_string":
		return true
	}
	return false
}
