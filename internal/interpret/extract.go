package interpret

import (
	"regexp"
	"strings"
)

var (
	pythonFenceRe  = regexp.MustCompile("(?s)```python\\s*(.*?)\\s*```")
	genericFenceRe = regexp.MustCompile("(?s)```\\s*(.*?)\\s*```")
)

// ExtractCode pulls code out of a fix response. Preference order: a python
// fence, a generic fence that looks like Python, then the whole response if
// it reads like code.
func ExtractCode(raw string) (string, bool) {
	text := strings.TrimSpace(raw)

	if m := pythonFenceRe.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1]), true
	}

	if m := genericFenceRe.FindStringSubmatch(text); m != nil {
		code := strings.TrimSpace(m[1])
		if looksLikePython(code) {
			return code, true
		}
	}

	if (strings.Contains(text, "def ") || strings.Contains(text, "class ")) &&
		strings.Count(text, "\n") > 2 {
		return text, true
	}
	return "", false
}

func looksLikePython(code string) bool {
	return strings.Contains(code, "def ") ||
		strings.Contains(code, "import ") ||
		strings.Contains(code, "class ") ||
		strings.HasPrefix(code, "import")
}
