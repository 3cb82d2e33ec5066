// Package analysis runs the detector catalog against source units.
package analysis

import (
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/dshills/codecritic/internal/catalog"
	"github.com/dshills/codecritic/internal/review"
	"github.com/dshills/codecritic/internal/source"
)

// Analyzer applies the full detector table to source units. It is stateless
// after construction and safe for concurrent use.
type Analyzer struct {
	table []catalog.Detector
}

// New builds an analyzer over the built-in detector catalog.
func New() (*Analyzer, error) {
	table, err := catalog.Load()
	if err != nil {
		return nil, fmt.Errorf("analysis: %w", err)
	}
	return &Analyzer{table: table}, nil
}

// Analyze runs every detector over the unit and returns the findings in
// deterministic order: catalog order first, then line order for text
// detectors and traversal order for tree detectors. When the unit does not
// parse, tree detectors are skipped and the text detectors still run.
func (a *Analyzer) Analyze(u *source.Unit) []review.Finding {
	findings := []review.Finding{}
	idx := u.Index()
	for _, d := range a.table {
		if d.Text() {
			findings = append(findings, textFindings(d, u.Lines)...)
			continue
		}
		if !idx.OK() {
			continue
		}
		findings = append(findings, treeFindings(d, idx)...)
	}
	return findings
}

// textFindings reports one finding per matching pattern per line, so a line
// that trips two patterns of the same detector yields two findings.
func textFindings(d catalog.Detector, lines []string) []review.Finding {
	var out []review.Finding
	for i, line := range lines {
		for _, re := range d.Patterns {
			if re.MatchString(line) {
				out = append(out, newFinding(d, d.Message, i+1))
			}
		}
	}
	return out
}

func treeFindings(d catalog.Detector, idx *source.Index) []review.Finding {
	var out []review.Finding
	idx.Walk(func(n *sitter.Node, ancestors []*sitter.Node) {
		msg, ok := d.Check(n, ancestors, idx.Src)
		if !ok {
			return
		}
		if msg == "" {
			msg = d.Message
		}
		out = append(out, newFinding(d, msg, source.Line(n)))
	})
	return out
}

func newFinding(d catalog.Detector, msg string, line int) review.Finding {
	return review.Finding{
		ID:       d.ID,
		Kind:     d.Kind,
		Severity: d.Severity,
		Message:  msg,
		Line:     line,
		Fix:      d.Fix,
	}
}
