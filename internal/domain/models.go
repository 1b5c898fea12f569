package domain

import "time"

// NoResponseContent is the content of the default answer substituted for unanswered questions.
const NoResponseContent = "No Response"

// QuizSettings holds the per-quiz grading and availability configuration.
type QuizSettings struct {
	TimeLimitMinutes    int     `json:"timeLimitMinutes"`
	DeductionPercentage float64 `json:"deductionPercentage"` // 0..100
	RetakeAllowed       bool    `json:"retakeAllowed"`
	Active              bool    `json:"active"`
	QuestionCount       int     `json:"questionCount"`
}

// Answer is one option of a question.
type Answer struct {
	ID         string  `json:"id"`
	QuestionID string  `json:"questionId"`
	Content    string  `json:"content"`
	IsCorrect  bool    `json:"isCorrect"`
	Score      float64 `json:"score"`
}

// AnswerContent lets the normalizer key on content instead of identifiers.
func (a Answer) AnswerContent() string { return a.Content }

// Question belongs to exactly one quiz.
type Question struct {
	ID             string   `json:"id"`
	QuizID         string   `json:"quizId"`
	Content        string   `json:"content"`
	MultipleChoice bool     `json:"multipleChoice"`
	Points         float64  `json:"pointsPerQuestion"`
	Answers        []Answer `json:"answers"`
}

// CorrectAnswers returns the answers flagged correct, in stored order.
func (q Question) CorrectAnswers() []Answer {
	out := make([]Answer, 0, len(q.Answers))
	for _, a := range q.Answers {
		if a.IsCorrect {
			out = append(out, a)
		}
	}
	return out
}

// Answer looks up an answer of this question by id.
func (q Question) Answer(answerID string) (Answer, bool) {
	for _, a := range q.Answers {
		if a.ID == answerID {
			return a, true
		}
	}
	return Answer{}, false
}

// Quiz is the question bank plus its settings.
type Quiz struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Category    string       `json:"category"`
	Subcategory string       `json:"subcategory"`
	OwnerID     string       `json:"ownerId"`
	Settings    QuizSettings `json:"settings"`
	Questions   []Question   `json:"questions"`
}

// Question looks up a question of this quiz by id.
func (q Quiz) Question(questionID string) (Question, bool) {
	for _, question := range q.Questions {
		if question.ID == questionID {
			return question, true
		}
	}
	return Question{}, false
}

// MaxScore is the sum of points over all questions.
func (q Quiz) MaxScore() float64 {
	total := 0.0
	for _, question := range q.Questions {
		total += question.Points
	}
	return total
}

// AttemptStatus is derived from whether the attempt has been finalized.
type AttemptStatus string

const (
	AttemptCreated   AttemptStatus = "created"
	AttemptSubmitted AttemptStatus = "submitted"
)

// QuizAttempt is one student's run through a quiz.
type QuizAttempt struct {
	ID        string     `json:"id"`
	QuizID    string     `json:"quizId"`
	StudentID string     `json:"studentId"`
	StartTime time.Time  `json:"startTime"`
	EndTime   *time.Time `json:"endTime,omitempty"`
	TimeTaken int64      `json:"timeTaken"` // seconds
	Score     float64    `json:"score"`
}

// Status reports Submitted once an end time has been written.
func (a QuizAttempt) Status() AttemptStatus {
	if a.EndTime != nil {
		return AttemptSubmitted
	}
	return AttemptCreated
}

// StudentResponse is one (question, selected answer) row of a submitted attempt.
// Exactly one of AnswerID and DefaultAnswerID is set.
type StudentResponse struct {
	ID              string `json:"id"`
	AttemptID       string `json:"attemptId"`
	QuizID          string `json:"quizId"`
	StudentID       string `json:"studentId"`
	QuestionID      string `json:"questionId"`
	AnswerID        string `json:"answerId,omitempty"`
	DefaultAnswerID string `json:"defaultAnswerId,omitempty"`
}

// IsDefault reports whether the row was synthesized for an unanswered question.
func (r StudentResponse) IsDefault() bool {
	return r.DefaultAnswerID != ""
}

// AttemptResult is the terminal write for an attempt: responses plus final score fields.
type AttemptResult struct {
	AttemptID string
	EndTime   time.Time
	TimeTaken int64
	Score     float64
	Responses []StudentResponse
}

// ScoreReport is the recomputed read-path view of an attempt's score.
type ScoreReport struct {
	AttemptID             string  `json:"attemptId"`
	Score                 float64 `json:"score"`
	StoredScore           float64 `json:"storedScore"`
	MaxScore              float64 `json:"maxScore"`
	Percentage            float64 `json:"percentage"`
	Grade                 string  `json:"grade"`
	Deduction             float64 `json:"deduction"`
	DeductionPercentage   float64 `json:"deductionPercentage"`
	WrongAnswerCount      int     `json:"wrongAnswerCount"`
	PointsBeforeDeduction float64 `json:"pointsBeforeDeduction"`
}

// ResponseDetail is one question of an attempt breakdown.
type ResponseDetail struct {
	QuestionID     string   `json:"questionId"`
	QuestionText   string   `json:"questionText"`
	StudentAnswer  []string `json:"studentAnswer"`
	CorrectAnswers []string `json:"correctAnswers"`
	Points         float64  `json:"points"`
}

// ResponseBreakdown lists every graded question of an attempt.
type ResponseBreakdown struct {
	AttemptID           string           `json:"attemptId"`
	Responses           []ResponseDetail `json:"responses"`
	DeductionPercentage float64          `json:"deductionPercentage"`
}

// SubmissionEvent is published after an attempt is finalized.
type SubmissionEvent struct {
	QuizID      string    `json:"quizId"`
	AttemptID   string    `json:"attemptId"`
	StudentID   string    `json:"studentId"`
	Score       float64   `json:"score"`
	SubmittedAt time.Time `json:"submittedAt"`
}
