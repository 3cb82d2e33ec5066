package review

import "sort"

// SortFindings sorts findings by severity (critical > high > medium > low),
// then by line ascending. The sort is stable so findings produced in catalog
// order keep that order within a severity/line group.
func SortFindings(findings []Finding) {
	sort.SliceStable(findings, func(i, j int) bool {
		oi := findings[i].Severity.order()
		oj := findings[j].Severity.order()
		if oi != oj {
			return oi < oj
		}
		return findings[i].Line < findings[j].Line
	})
}

// TopFindings returns at most n findings ordered by severity then line,
// without mutating the input.
func TopFindings(findings []Finding, n int) []Finding {
	if n <= 0 || len(findings) == 0 {
		return nil
	}
	sorted := make([]Finding, len(findings))
	copy(sorted, findings)
	SortFindings(sorted)
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}
