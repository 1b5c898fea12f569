package scoring

import (
	"quiz-scoring-service/internal/domain"
)

// QuestionScore is the per-question outcome of a strategy.
type QuestionScore struct {
	QuestionID string
	Class      Classification
	Matches    int
	Unanswered bool
	// Wrong marks the question as eligible for deduction.
	Wrong    bool
	Awarded  float64
	Selected []string // normalized content
	Correct  []string // normalized, deduplicated content
}

// Result is the outcome of scoring one attempt.
type Result struct {
	Questions             []QuestionScore
	PointsBeforeDeduction float64
	Deduction             float64
	WrongCount            int
	Score                 float64 // clamped and rounded
}

// Strategy scores the persisted or about-to-be-persisted responses of an attempt.
// Questions without any response row are skipped.
type Strategy interface {
	Name() string
	Score(quiz domain.Quiz, responses []domain.StudentResponse) Result
}

// questionRows groups response rows under their question, in quiz order.
type questionRows struct {
	question domain.Question
	rows     []domain.StudentResponse
}

func groupByQuestion(quiz domain.Quiz, responses []domain.StudentResponse) []questionRows {
	byQuestion := make(map[string][]domain.StudentResponse, len(quiz.Questions))
	for _, r := range responses {
		byQuestion[r.QuestionID] = append(byQuestion[r.QuestionID], r)
	}
	out := make([]questionRows, 0, len(byQuestion))
	for _, q := range quiz.Questions {
		rows, ok := byQuestion[q.ID]
		if !ok {
			continue
		}
		out = append(out, questionRows{question: q, rows: rows})
	}
	return out
}

// selectedAnswers resolves the genuine selections of a question, one per answer id.
func selectedAnswers(q domain.Question, rows []domain.StudentResponse) ([]domain.Answer, bool) {
	seen := make(map[string]struct{}, len(rows))
	out := make([]domain.Answer, 0, len(rows))
	unanswered := true
	for _, r := range rows {
		if r.IsDefault() {
			continue
		}
		unanswered = false
		if _, dup := seen[r.AnswerID]; dup {
			continue
		}
		seen[r.AnswerID] = struct{}{}
		if a, ok := q.Answer(r.AnswerID); ok {
			out = append(out, a)
		}
	}
	return out, unanswered
}

// SubmissionStrategy is the policy applied when an attempt is submitted:
// correct selections earn their answer score, a clean incomplete multi-answer
// selection earns PartialMultiplier of the question value, and a single flat
// deduction equal to the quiz deduction percentage is taken if any selected
// answer is wrong.
type SubmissionStrategy struct {
	PartialMultiplier float64
	normalizer        *Normalizer
}

// NewSubmissionStrategy uses DefaultPartialMultiplier when multiplier is zero.
func NewSubmissionStrategy(n *Normalizer, multiplier float64) SubmissionStrategy {
	if multiplier == 0 {
		multiplier = DefaultPartialMultiplier
	}
	if n == nil {
		n = NewNormalizer(nil)
	}
	return SubmissionStrategy{PartialMultiplier: multiplier, normalizer: n}
}

func (SubmissionStrategy) Name() string { return "submission" }

func (s SubmissionStrategy) Score(quiz domain.Quiz, responses []domain.StudentResponse) Result {
	var res Result
	for _, group := range groupByQuestion(quiz, responses) {
		q := group.question
		selected, unanswered := selectedAnswers(q, group.rows)
		correctAnswers := q.CorrectAnswers()
		qs := QuestionScore{
			QuestionID: q.ID,
			Unanswered: unanswered,
			Selected:   s.normalizer.Normalize(selected),
			Correct:    RemoveDuplicates(s.normalizer.Normalize(correctAnswers)),
		}

		correctSelected, wrongSelected := 0, 0
		for _, a := range selected {
			if a.IsCorrect {
				correctSelected++
				qs.Awarded += a.Score
			} else {
				wrongSelected++
			}
		}
		qs.Matches = correctSelected
		if partial, ok := FixedPartialCredit(q.Points, s.PartialMultiplier, correctSelected, len(correctAnswers), wrongSelected); ok {
			qs.Awarded = partial
		}
		if qs.Awarded < 0 {
			qs.Awarded = 0
		}

		switch {
		case unanswered || correctSelected == 0:
			qs.Class = Incorrect
		case correctSelected == len(correctAnswers) && wrongSelected == 0:
			qs.Class = Correct
		default:
			qs.Class = Partial
		}
		qs.Wrong = !unanswered && wrongSelected > 0
		if qs.Wrong {
			res.WrongCount++
		}

		res.PointsBeforeDeduction += qs.Awarded
		res.Questions = append(res.Questions, qs)
	}
	res.Deduction = FlatDeduction(quiz.Settings.DeductionPercentage, res.WrongCount > 0)
	res.Score = Round(ClampScore(res.PointsBeforeDeduction, res.Deduction))
	res.PointsBeforeDeduction = Round(res.PointsBeforeDeduction)
	res.Deduction = Round(res.Deduction)
	return res
}

// ReportStrategy is the policy used to rebuild a score breakdown from stored
// responses: content-matched proportional credit, and a deduction of
// pct% of the average awarded points per graded question for every question
// answered wrong. Unanswered questions earn nothing and are never deducted.
type ReportStrategy struct {
	normalizer *Normalizer
}

func NewReportStrategy(n *Normalizer) ReportStrategy {
	if n == nil {
		n = NewNormalizer(nil)
	}
	return ReportStrategy{normalizer: n}
}

func (ReportStrategy) Name() string { return "report" }

func (s ReportStrategy) Score(quiz domain.Quiz, responses []domain.StudentResponse) Result {
	var res Result
	groups := groupByQuestion(quiz, responses)
	for _, group := range groups {
		q := group.question
		selected, unanswered := selectedAnswers(q, group.rows)
		qs := QuestionScore{
			QuestionID: q.ID,
			Unanswered: unanswered,
			Selected:   s.normalizer.Normalize(selected),
			Correct:    RemoveDuplicates(s.normalizer.Normalize(q.CorrectAnswers())),
		}
		if unanswered {
			qs.Class = Incorrect
		} else {
			m := Classify(qs.Selected, qs.Correct)
			qs.Class = m.Class
			qs.Matches = m.Matches
			qs.Awarded = ProportionalCredit(q.Points, len(qs.Correct), m.Matches)
			qs.Wrong = m.Class == Incorrect
		}
		if qs.Wrong {
			res.WrongCount++
		}
		res.PointsBeforeDeduction += qs.Awarded
		res.Questions = append(res.Questions, qs)
	}
	res.Deduction = AveragedDeduction(quiz.Settings.DeductionPercentage, res.PointsBeforeDeduction, len(groups), res.WrongCount)
	res.Score = Round(ClampScore(res.PointsBeforeDeduction, res.Deduction))
	res.PointsBeforeDeduction = Round(res.PointsBeforeDeduction)
	res.Deduction = Round(res.Deduction)
	return res
}
