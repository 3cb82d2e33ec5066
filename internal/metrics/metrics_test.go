package metrics

import (
	"math"
	"testing"

	"github.com/dshills/codecritic/internal/source"
)

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestCollectSimpleFunction(t *testing.T) {
	m := Collect(source.New("def add(a: int, b: int) -> int:\n    return a + b\n"))

	if m.LinesOfCode != 2 {
		t.Errorf("lines of code = %d, want 2", m.LinesOfCode)
	}
	if m.Functions != 1 {
		t.Errorf("functions = %d, want 1", m.Functions)
	}
	if m.Classes != 0 {
		t.Errorf("classes = %d, want 0", m.Classes)
	}
	if !approx(m.CyclomaticComplexity, 1.0) {
		t.Errorf("complexity = %v, want 1.0", m.CyclomaticComplexity)
	}
	if !approx(m.TypeHintCoverage, 1.0) {
		t.Errorf("type hint coverage = %v, want 1.0", m.TypeHintCoverage)
	}
}

func TestCollectComplexity(t *testing.T) {
	code := `def f(x):
    if x and x > 1:
        return 1
    elif x:
        return 2
    for i in x:
        while i:
            try:
                i -= 1
            except ValueError:
                pass
    return 0
`
	m := Collect(source.New(code))
	// 1 + if + boolean op + elif + for + while + except = 7.
	if !approx(m.CyclomaticComplexity, 7.0) {
		t.Errorf("complexity = %v, want 7.0", m.CyclomaticComplexity)
	}
}

func TestCollectComplexityAverage(t *testing.T) {
	code := "def a(x):\n    if x:\n        return 1\n    return 0\n\ndef b(x):\n    return x\n"
	m := Collect(source.New(code))
	if m.Functions != 2 {
		t.Fatalf("functions = %d, want 2", m.Functions)
	}
	// (2 + 1) / 2
	if !approx(m.CyclomaticComplexity, 1.5) {
		t.Errorf("complexity = %v, want 1.5", m.CyclomaticComplexity)
	}
}

func TestCollectCommentRatio(t *testing.T) {
	m := Collect(source.New("# one\n# two\nx = 1\ny = 2\n"))
	if m.LinesOfCode != 2 {
		t.Errorf("lines of code = %d, want 2", m.LinesOfCode)
	}
	if !approx(m.CommentRatio, 0.5) {
		t.Errorf("comment ratio = %v, want 0.5", m.CommentRatio)
	}
}

func TestCollectDuplicatedLines(t *testing.T) {
	// Trimmed repeats count, first occurrence does not.
	m := Collect(source.New("x = 1\nx = 1\n    x = 1\ny = 2\n"))
	if m.DuplicatedLines != 2 {
		t.Errorf("duplicated lines = %d, want 2", m.DuplicatedLines)
	}
}

func TestCollectTypeHintCoverage(t *testing.T) {
	code := "def hinted(a: int):\n    return a\n\ndef bare(a):\n    return a\n"
	m := Collect(source.New(code))
	if !approx(m.TypeHintCoverage, 0.5) {
		t.Errorf("type hint coverage = %v, want 0.5", m.TypeHintCoverage)
	}
}

func TestCollectReturnAnnotationCounts(t *testing.T) {
	m := Collect(source.New("def f(a) -> int:\n    return 1\n"))
	if !approx(m.TypeHintCoverage, 1.0) {
		t.Errorf("type hint coverage = %v, want 1.0", m.TypeHintCoverage)
	}
}

func TestCollectClasses(t *testing.T) {
	m := Collect(source.New("class A:\n    pass\n\nclass B:\n    pass\n"))
	if m.Classes != 2 {
		t.Errorf("classes = %d, want 2", m.Classes)
	}
}

func TestCollectEmpty(t *testing.T) {
	m := Collect(source.New(""))
	if m.LinesOfCode != 0 {
		t.Errorf("lines of code = %d, want 0", m.LinesOfCode)
	}
	if !approx(m.CyclomaticComplexity, 1.0) {
		t.Errorf("complexity = %v, want 1.0", m.CyclomaticComplexity)
	}
	if !approx(m.TypeHintCoverage, 1.0) {
		t.Errorf("type hint coverage = %v, want 1.0", m.TypeHintCoverage)
	}
	if !approx(m.CommentRatio, 0.0) {
		t.Errorf("comment ratio = %v, want 0", m.CommentRatio)
	}
}

func TestCollectSyntaxError(t *testing.T) {
	m := Collect(source.New("def broken(:\n    x = 1\n"))
	// Line metrics survive, tree metrics stay zeroed.
	if m.LinesOfCode != 2 {
		t.Errorf("lines of code = %d, want 2", m.LinesOfCode)
	}
	if m.Functions != 0 || !approx(m.CyclomaticComplexity, 0) || !approx(m.TypeHintCoverage, 0) {
		t.Errorf("tree metrics should be zero on parse failure, got %+v", m)
	}
}
