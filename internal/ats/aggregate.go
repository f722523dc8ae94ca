package ats

import "github.com/jonathan/resume-builder/internal/types"

// Overall combines a breakdown into one 0-100 score using integer weights that sum to 100.
// The weighted sum is exact in hundredths and rounded half up, so 70.5 becomes 71.
func Overall(b types.ScoreBreakdown, w Weights) int {
	total := w.Total()
	if total <= 0 {
		return 0
	}
	sum := b.Structure*w.Structure +
		b.Keywords*w.Keywords +
		b.Content*w.Content +
		b.Readability*w.Readability +
		b.Completeness*w.Completeness
	return roundRatio(sum, total)
}

// roundRatio returns num/den rounded half up for non-negative num and positive den.
func roundRatio(num, den int) int {
	if den <= 0 {
		return 0
	}
	return (2*num + den) / (2 * den)
}
