package source

import (
	"context"
	"errors"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

// ErrSyntax marks a unit whose tree view is unavailable. Analyzers degrade
// to the line view; they never propagate this error.
var ErrSyntax = errors.New("source: syntax error in unit")

// Index is the traversable tree view of a unit, backed by Tree-sitter with
// the Python grammar. When the unit does not parse, Err is set and Root
// returns nil; the line view on the owning Unit remains usable.
type Index struct {
	Src []byte
	Err error

	tree *sitter.Tree
}

func buildIndex(raw string) *Index {
	idx := &Index{Src: []byte(raw)}

	parser := sitter.NewParser()
	parser.SetLanguage(python.GetLanguage())

	tree, err := parser.ParseCtx(context.Background(), nil, idx.Src)
	if err != nil {
		idx.Err = fmt.Errorf("source: parse: %w", err)
		return idx
	}

	root := tree.RootNode()
	if root == nil || root.HasError() {
		idx.Err = ErrSyntax
		return idx
	}

	idx.tree = tree
	return idx
}

// OK reports whether the tree view is available.
func (idx *Index) OK() bool { return idx.Err == nil && idx.tree != nil }

// Root returns the root node, or nil when the unit failed to parse.
func (idx *Index) Root() *sitter.Node {
	if !idx.OK() {
		return nil
	}
	return idx.tree.RootNode()
}

// Content returns the source text covered by a node.
func (idx *Index) Content(n *sitter.Node) string {
	return n.Content(idx.Src)
}

// Line returns the 1-based line a node starts on.
func Line(n *sitter.Node) int {
	return int(n.StartPoint().Row) + 1
}

// Walk visits every named node once in pre-order, passing the ancestor stack
// for the current node. The stack replaces parent pointers: nesting checks
// inspect it instead of back-references on nodes. The slice is reused between
// calls; callers must not retain it.
func (idx *Index) Walk(visit func(n *sitter.Node, ancestors []*sitter.Node)) {
	root := idx.Root()
	if root == nil {
		return
	}
	walk(root, nil, visit)
}

// WalkSubtree visits every named node under n in pre-order with an ancestor
// stack rooted at n (n itself is not visited).
func WalkSubtree(n *sitter.Node, visit func(n *sitter.Node, ancestors []*sitter.Node)) {
	walk(n, nil, func(c *sitter.Node, stack []*sitter.Node) {
		if c != n {
			visit(c, stack)
		}
	})
}

func walk(n *sitter.Node, stack []*sitter.Node, visit func(n *sitter.Node, ancestors []*sitter.Node)) {
	visit(n, stack)
	stack = append(stack, n)
	for i := 0; i < int(n.NamedChildCount()); i++ {
		walk(n.NamedChild(i), stack, visit)
	}
}

// Functions returns all function definitions in traversal order, nested ones
// included.
func (idx *Index) Functions() []*sitter.Node {
	var fns []*sitter.Node
	idx.Walk(func(n *sitter.Node, _ []*sitter.Node) {
		if n.Type() == "function_definition" {
			fns = append(fns, n)
		}
	})
	return fns
}
