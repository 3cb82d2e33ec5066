package catalog

import (
	"testing"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/dshills/codecritic/internal/review"
	"github.com/dshills/codecritic/internal/source"
)

func mustLoad(t *testing.T) []Detector {
	t.Helper()
	table, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	return table
}

func find(t *testing.T, table []Detector, id string) Detector {
	t.Helper()
	for _, d := range table {
		if d.ID == id {
			return d
		}
	}
	t.Fatalf("detector %q not in table", id)
	return Detector{}
}

func TestLoadTable(t *testing.T) {
	table := mustLoad(t)
	if len(table) == 0 {
		t.Fatal("empty detector table")
	}
	for _, d := range table {
		if !d.Kind.Valid() {
			t.Errorf("detector %s: invalid kind %q", d.ID, d.Kind)
		}
		if !d.Severity.Valid() {
			t.Errorf("detector %s: invalid severity %q", d.ID, d.Severity)
		}
		if d.Text() == (d.Check != nil) {
			t.Errorf("detector %s: must have exactly one of patterns or check", d.ID)
		}
	}
}

func TestLoadOrdering(t *testing.T) {
	table := mustLoad(t)
	// Security detectors come before performance detectors, and within
	// performance the tree detectors come before the text ones.
	lastSecurity, firstPerformance := -1, -1
	for i, d := range table {
		if d.Kind == review.KindSecurity {
			lastSecurity = i
		}
		if d.Kind == review.KindPerformance && firstPerformance == -1 {
			firstPerformance = i
		}
	}
	if lastSecurity == -1 || firstPerformance == -1 {
		t.Fatal("expected both security and performance detectors")
	}
	if lastSecurity > firstPerformance {
		t.Errorf("security detectors should precede performance detectors")
	}

	var perfIDs []string
	for _, d := range table {
		if d.Kind == review.KindPerformance {
			perfIDs = append(perfIDs, d.ID)
		}
	}
	if perfIDs[0] != "loop_mutation" {
		t.Errorf("performance tree detectors should come first, got %v", perfIDs)
	}
	if perfIDs[len(perfIDs)-1] != "redundant_conversion" {
		t.Errorf("performance text detectors should come last, got %v", perfIDs)
	}
}

func TestTextPatterns(t *testing.T) {
	table := mustLoad(t)
	tests := []struct {
		id    string
		line  string
		match bool
	}{
		{"eval_usage", "result = eval(user_input)", true},
		{"eval_usage", "evaluate(x)", false},
		{"hardcoded_secret", `API_KEY = "sk-123456"`, true},
		{"hardcoded_secret", `api_key = os.getenv("API_KEY")`, false},
		{"unvalidated_input", `os.system("rm -rf " + path)`, true},
		{"pickle_usage", "data = pickle.loads(blob)", true},
		{"sql_injection", `cursor.execute(f"SELECT * FROM users WHERE id={uid}")`, true},
		{"wildcard_import", "from os.path import *", true},
		{"wildcard_import", "from os.path import join", false},
		{"debug_print", `print("DEBUG: here")`, true},
		{"redundant_conversion", "xs = list([1, 2, 3])", true},
	}
	for _, tt := range tests {
		d := find(t, table, tt.id)
		matched := false
		for _, re := range d.Patterns {
			if re.MatchString(tt.line) {
				matched = true
				break
			}
		}
		if matched != tt.match {
			t.Errorf("%s on %q: matched=%v, want %v", tt.id, tt.line, matched, tt.match)
		}
	}
}

// runCheck parses code and applies one tree detector, returning the match
// count.
func runCheck(t *testing.T, d Detector, code string) int {
	t.Helper()
	idx := source.New(code).Index()
	if !idx.OK() {
		t.Fatalf("test code failed to parse: %v", idx.Err)
	}
	count := 0
	idx.Walk(func(n *sitter.Node, ancestors []*sitter.Node) {
		if _, ok := d.Check(n, ancestors, idx.Src); ok {
			count++
		}
	})
	return count
}

func TestAssertionCheck(t *testing.T) {
	table := mustLoad(t)
	d := find(t, table, "assertion")
	if got := runCheck(t, d, "def f(x):\n    assert x > 0\n    return x\n"); got != 1 {
		t.Errorf("expected 1 assertion match, got %d", got)
	}
	if got := runCheck(t, d, "def f(x):\n    return x\n"); got != 0 {
		t.Errorf("expected no assertion match, got %d", got)
	}
}

func TestMissingTimeoutCheck(t *testing.T) {
	table := mustLoad(t)
	d := find(t, table, "missing_timeout")

	tests := []struct {
		name string
		code string
		want int
	}{
		{"no timeout", "import requests\nr = requests.get(url)\n", 1},
		{"with timeout", "import requests\nr = requests.get(url, timeout=30)\n", 0},
		{"post no timeout", "r = requests.post(url, data=payload)\n", 1},
		{"other module", "r = client.get(url)\n", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := runCheck(t, d, tt.code); got != tt.want {
				t.Errorf("got %d matches, want %d", got, tt.want)
			}
		})
	}
}

func TestLoopMutationCheck(t *testing.T) {
	table := mustLoad(t)
	d := find(t, table, "loop_mutation")

	inLoop := "def f(xs):\n    out = []\n    for x in xs:\n        out.append(x * 2)\n    return out\n"
	if got := runCheck(t, d, inLoop); got != 1 {
		t.Errorf("append in loop: got %d matches, want 1", got)
	}
	outside := "def f(xs):\n    out = []\n    out.append(1)\n    return out\n"
	if got := runCheck(t, d, outside); got != 0 {
		t.Errorf("append outside loop: got %d matches, want 0", got)
	}
	whileLoop := "def f(xs):\n    while xs:\n        xs.remove(xs[0])\n"
	if got := runCheck(t, d, whileLoop); got != 0 {
		t.Errorf("remove in while loop: got %d matches, want 0", got)
	}
}

func TestDeepNestingCheck(t *testing.T) {
	table := mustLoad(t)
	d := find(t, table, "deep_nesting")

	deep := `def f(a):
    if a:
        for x in a:
            while x:
                if x > 1:
                    with open(x) as fh:
                        return fh.read()
`
	idx := source.New(deep).Index()
	if !idx.OK() {
		t.Fatalf("parse failed: %v", idx.Err)
	}
	var msg string
	matches := 0
	idx.Walk(func(n *sitter.Node, ancestors []*sitter.Node) {
		if m, ok := d.Check(n, ancestors, idx.Src); ok {
			matches++
			msg = m
		}
	})
	if matches != 1 {
		t.Fatalf("got %d matches, want 1", matches)
	}
	if msg != "Deeply nested control flow (depth 5)" {
		t.Errorf("unexpected message %q", msg)
	}

	shallow := "def f(a):\n    if a:\n        for x in a:\n            return x\n"
	if got := runCheck(t, d, shallow); got != 0 {
		t.Errorf("shallow function: got %d matches, want 0", got)
	}
}

func TestStringConcatCheck(t *testing.T) {
	table := mustLoad(t)
	d := find(t, table, "string_concat_loop")

	concat := "def f(xs):\n    for x in xs:\n        s = \"a\" + \"b\"\n"
	if got := runCheck(t, d, concat); got != 1 {
		t.Errorf("literal concat in loop: got %d matches, want 1", got)
	}
	numeric := "def f(xs):\n    for x in xs:\n        n = 1 + 2\n"
	if got := runCheck(t, d, numeric); got != 0 {
		t.Errorf("numeric addition: got %d matches, want 0", got)
	}
	outside := "s = \"a\" + \"b\"\n"
	if got := runCheck(t, d, outside); got != 0 {
		t.Errorf("concat outside loop: got %d matches, want 0", got)
	}
}
