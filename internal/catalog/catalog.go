// Package catalog declares the built-in code detectors. Text detectors are
// loaded from embedded YAML; tree detectors are predicates over the syntax
// index. The table is ordered: analyzers iterate it front to back and report
// findings in that order.
package catalog

import (
	"embed"
	"fmt"
	"regexp"

	sitter "github.com/smacker/go-tree-sitter"
	"gopkg.in/yaml.v3"

	"github.com/dshills/codecritic/internal/review"
)

//go:embed builtin/*.yaml
var builtinFS embed.FS

// TreeCheck inspects a node with its ancestor stack and reports whether the
// detector matches. A non-empty message overrides the detector default, for
// checks that compute details like nesting depth.
type TreeCheck func(n *sitter.Node, ancestors []*sitter.Node, src []byte) (msg string, ok bool)

// Detector is one entry in the catalog. Exactly one of Patterns or Check is
// set: Patterns makes a text detector matched per line, Check makes a tree
// detector matched per node.
type Detector struct {
	ID       string
	Kind     review.Kind
	Severity review.Severity
	Message  string
	Fix      string

	Patterns []*regexp.Regexp
	Check    TreeCheck
}

// Text reports whether the detector runs against raw lines.
func (d Detector) Text() bool { return len(d.Patterns) > 0 }

type ruleFile struct {
	Rules []ruleSpec `yaml:"rules"`
}

type ruleSpec struct {
	ID       string   `yaml:"id"`
	Kind     string   `yaml:"kind"`
	Severity string   `yaml:"severity"`
	Message  string   `yaml:"message"`
	Fix      string   `yaml:"fix"`
	Patterns []string `yaml:"patterns"`
}

// Load builds the full detector table: security text detectors, security
// tree detectors, performance tree detectors, then performance text
// detectors.
func Load() ([]Detector, error) {
	security, err := loadTextDetectors("builtin/security.yaml")
	if err != nil {
		return nil, err
	}
	performance, err := loadTextDetectors("builtin/performance.yaml")
	if err != nil {
		return nil, err
	}

	table := make([]Detector, 0, len(security)+len(performance)+8)
	table = append(table, security...)
	table = append(table, securityTreeDetectors()...)
	table = append(table, performanceTreeDetectors()...)
	table = append(table, performance...)
	return table, nil
}

func loadTextDetectors(name string) ([]Detector, error) {
	data, err := builtinFS.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", name, err)
	}

	var file ruleFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("catalog: parse %s: %w", name, err)
	}

	detectors := make([]Detector, 0, len(file.Rules))
	for _, spec := range file.Rules {
		d, err := buildTextDetector(spec)
		if err != nil {
			return nil, fmt.Errorf("catalog: %s: %w", name, err)
		}
		detectors = append(detectors, d)
	}
	return detectors, nil
}

func buildTextDetector(spec ruleSpec) (Detector, error) {
	if spec.ID == "" {
		return Detector{}, fmt.Errorf("rule missing id")
	}
	kind := review.Kind(spec.Kind)
	if !kind.Valid() {
		return Detector{}, fmt.Errorf("rule %s: invalid kind %q", spec.ID, spec.Kind)
	}
	severity := review.Severity(spec.Severity)
	if !severity.Valid() {
		return Detector{}, fmt.Errorf("rule %s: invalid severity %q", spec.ID, spec.Severity)
	}
	if len(spec.Patterns) == 0 {
		return Detector{}, fmt.Errorf("rule %s: no patterns", spec.ID)
	}

	patterns := make([]*regexp.Regexp, 0, len(spec.Patterns))
	for _, p := range spec.Patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return Detector{}, fmt.Errorf("rule %s: pattern %q: %w", spec.ID, p, err)
		}
		patterns = append(patterns, re)
	}

	return Detector{
		ID:       spec.ID,
		Kind:     kind,
		Severity: severity,
		Message:  spec.Message,
		Fix:      spec.Fix,
		Patterns: patterns,
	}, nil
}
