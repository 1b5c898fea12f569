package scoring

// AveragedDeduction levies pct% of the average awarded points per graded
// question, once for every wrong question.
func AveragedDeduction(pct, pointsBefore float64, gradedQuestions, wrongQuestions int) float64 {
	if pct <= 0 || gradedQuestions <= 0 || wrongQuestions <= 0 || pointsBefore <= 0 {
		return 0
	}
	average := pointsBefore / float64(gradedQuestions)
	return pct / 100 * average * float64(wrongQuestions)
}

// FlatDeduction subtracts the configured deduction value once per attempt as
// soon as any graded response is wrong.
func FlatDeduction(deductionPoints float64, anyWrong bool) float64 {
	if !anyWrong || deductionPoints <= 0 {
		return 0
	}
	return deductionPoints
}

// ClampScore keeps a score from going negative.
func ClampScore(awarded, deduction float64) float64 {
	if s := awarded - deduction; s > 0 {
		return s
	}
	return 0
}
