// Package source holds immutable source units and their derived views.
package source

import (
	"crypto/sha256"
	"fmt"
	"strings"
	"sync"
)

// Unit is an immutable snapshot of code text. Every revision produced by the
// repair loop is a new Unit; nothing mutates one in place. The syntax index
// is built lazily on first use.
type Unit struct {
	Raw   string
	Lines []string
	Hash  string

	once  sync.Once
	index *Index
}

// New creates a source unit from raw code text.
func New(text string) *Unit {
	h := sha256.Sum256([]byte(text))
	return &Unit{
		Raw:   text,
		Lines: strings.Split(text, "\n"),
		Hash:  fmt.Sprintf("sha256:%x", h),
	}
}

// Index returns the syntax index for the unit, building it on first call.
// A unit that fails to parse still returns an index; its Tree methods report
// the failure and callers degrade to the line view.
func (u *Unit) Index() *Index {
	u.once.Do(func() {
		u.index = buildIndex(u.Raw)
	})
	return u.index
}

// LineNumbered returns the unit text with each line prefixed by L-padded
// numbers, for embedding in prompts.
func (u *Unit) LineNumbered() string {
	width := lineNumberWidth(len(u.Lines))
	format := fmt.Sprintf("L%%0%dd: %%s\n", width)
	var b strings.Builder
	for i, line := range u.Lines {
		fmt.Fprintf(&b, format, i+1, line)
	}
	return b.String()
}

func lineNumberWidth(totalLines int) int {
	switch {
	case totalLines >= 10000:
		return 5
	case totalLines >= 1000:
		return 4
	default:
		return 3
	}
}
