package review

// Kind classifies the type of finding.
type Kind string

const (
	KindSecurity    Kind = "security"
	KindPerformance Kind = "performance"
	KindStructural  Kind = "structural"
)

func (k Kind) Valid() bool {
	switch k {
	case KindSecurity, KindPerformance, KindStructural:
		return true
	}
	return false
}

// Severity indicates the importance of a finding. Performance findings use
// the same scale to express impact.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

func (s Severity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// order returns a sort key (lower = higher priority).
func (s Severity) order() int {
	switch s {
	case SeverityCritical:
		return 0
	case SeverityHigh:
		return 1
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 3
	default:
		return 4
	}
}

// Provenance records where a judgement came from.
type Provenance string

const (
	ProvenanceStatic    Provenance = "static"
	ProvenanceModel     Provenance = "model"
	ProvenanceHeuristic Provenance = "heuristic-text"
)

func (p Provenance) Valid() bool {
	switch p {
	case ProvenanceStatic, ProvenanceModel, ProvenanceHeuristic:
		return true
	}
	return false
}
