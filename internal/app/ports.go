package app

import (
	"context"

	"quiz-scoring-service/internal/domain"
)

// QuizRepository loads quiz content (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// AttemptRepository abstracts how attempts and their responses are stored (in-memory, Postgres).
type AttemptRepository interface {
	CreateAttempt(ctx context.Context, attempt domain.QuizAttempt) error
	GetAttempt(ctx context.Context, attemptID string) (domain.QuizAttempt, error)
	HasSubmittedAttempt(ctx context.Context, quizID, studentID string) (bool, error)
	// FinalizeAttempt inserts the responses and writes the score fields as one
	// unit. It must fail with domain.ErrAlreadySubmitted, writing nothing, when
	// the attempt already has an end time.
	FinalizeAttempt(ctx context.Context, result domain.AttemptResult) error
	ListResponses(ctx context.Context, attemptID string) ([]domain.StudentResponse, error)
	// NoResponseAnswerID returns the id of the "No Response" default answer.
	NoResponseAnswerID(ctx context.Context) (string, error)
}

// SubmitGuard serializes submissions per attempt. Acquire fails with
// domain.ErrSubmissionInProgress while another submission holds the attempt.
type SubmitGuard interface {
	Acquire(ctx context.Context, attemptID string) (release func(), err error)
}

// EventPublisher announces finalized submissions. The local ScoreFeed is the
// default; a cross-instance relay can replace it.
type EventPublisher interface {
	Publish(ev domain.SubmissionEvent)
}
