package scoring

import "github.com/shopspring/decimal"

// ScorePrecision is the number of decimal places persisted for scores.
const ScorePrecision = 2

// Round rounds half away from zero to ScorePrecision places.
func Round(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(ScorePrecision).Float64()
	return f
}

// Percentage returns score as a percentage of max, rounded.
func Percentage(score, max float64) float64 {
	if max <= 0 {
		return 0
	}
	return Round(decimal.NewFromFloat(score).
		Div(decimal.NewFromFloat(max)).
		Mul(decimal.NewFromInt(100)).
		InexactFloat64())
}

// LetterGrade maps a percentage onto A-F.
func LetterGrade(pct float64) string {
	switch {
	case pct >= 90:
		return "A"
	case pct >= 80:
		return "B"
	case pct >= 70:
		return "C"
	case pct >= 60:
		return "D"
	default:
		return "F"
	}
}
