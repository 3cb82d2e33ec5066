package review

import "math"

// Score calculates a deterministic quality score in [0,100] from metrics.
// Starts at 100, subtracts up to 20 for complexity beyond 5, adds up to 10
// for comments, subtracts up to 15 for duplicated lines, adds up to 10 for
// type hint coverage, then clamps.
func Score(m Metrics) float64 {
	score := 100.0

	if m.CyclomaticComplexity > 5 {
		score -= math.Min(20, (m.CyclomaticComplexity-5)*2)
	}
	score += math.Min(10, m.CommentRatio*50)
	score -= math.Min(15, float64(m.DuplicatedLines))
	score += math.Min(10, m.TypeHintCoverage*30)

	return math.Max(0, math.Min(100, score))
}

// Grade maps a score to a letter grade.
func Grade(score float64) string {
	switch {
	case score >= 90:
		return "A"
	case score >= 80:
		return "B"
	case score >= 70:
		return "C"
	case score >= 60:
		return "D"
	default:
		return "F"
	}
}
