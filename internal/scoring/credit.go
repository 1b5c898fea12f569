package scoring

// DefaultPartialMultiplier is the legacy share of a question's value granted
// for an incomplete but clean multi-answer selection.
const DefaultPartialMultiplier = 0.667

// ProportionalCredit awards total/uniqueCorrect points per correct answer selected.
func ProportionalCredit(total float64, uniqueCorrect, matches int) float64 {
	if uniqueCorrect <= 0 || matches <= 0 || total <= 0 {
		return 0
	}
	awarded := total / float64(uniqueCorrect) * float64(matches)
	if awarded < 0 {
		return 0
	}
	return awarded
}

// FixedPartialCredit awards multiplier*value when at least one but not every
// correct answer was selected and no incorrect answer was selected.
func FixedPartialCredit(value, multiplier float64, correctSelected, totalCorrect, wrongSelected int) (float64, bool) {
	if wrongSelected > 0 || correctSelected <= 0 || correctSelected >= totalCorrect {
		return 0, false
	}
	awarded := value * multiplier
	if awarded < 0 {
		return 0, true
	}
	return awarded, true
}
