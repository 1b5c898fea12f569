package domain

import (
	"errors"
	"fmt"
)

// Error classes. Every error returned by the engine wraps exactly one of these.
var (
	// ErrInvalidInput marks malformed payloads or unusable quiz configuration. Not retryable.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound marks a missing attempt, quiz, question or response set. Not retryable.
	ErrNotFound = errors.New("not found")
	// ErrConflict marks a write against an attempt that is already terminal. Not retryable.
	ErrConflict = errors.New("conflict")
	// ErrDependency marks a store or cache failure. Retryable; nothing was written.
	ErrDependency = errors.New("dependency failure")
)

var (
	ErrQuizNotFound          = fmt.Errorf("quiz %w", ErrNotFound)
	ErrAttemptNotFound       = fmt.Errorf("attempt %w", ErrNotFound)
	ErrQuestionNotFound      = fmt.Errorf("question %w", ErrNotFound)
	ErrResponsesNotFound     = fmt.Errorf("responses %w", ErrNotFound)
	ErrDefaultAnswerNotFound = fmt.Errorf("default answer %w", ErrNotFound)

	ErrAlreadySubmitted     = fmt.Errorf("attempt already submitted: %w", ErrConflict)
	ErrSubmissionInProgress = fmt.Errorf("submission already in progress: %w", ErrConflict)
	ErrQuizInactive         = fmt.Errorf("quiz is not active: %w", ErrConflict)
	ErrRetakeNotAllowed     = fmt.Errorf("retake not allowed: %w", ErrConflict)

	ErrEmptyAnswers = fmt.Errorf("answers must not be empty: %w", ErrInvalidInput)
)

// Invalidf builds an ErrInvalidInput with detail.
func Invalidf(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrInvalidInput)
}

// Dependency wraps a store failure unless it is already classified.
func Dependency(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrInvalidInput) || errors.Is(err, ErrDependency) {
		return err
	}
	return fmt.Errorf("%s: %w: %w", op, ErrDependency, err)
}

// Retryable reports whether the caller may safely retry the operation.
func Retryable(err error) bool {
	return errors.Is(err, ErrDependency)
}

// Validate checks the configuration the scoring engine depends on.
func (q Quiz) Validate() error {
	pct := q.Settings.DeductionPercentage
	if pct < 0 || pct > 100 {
		return Invalidf("quiz %s: deduction percentage %v outside [0,100]", q.ID, pct)
	}
	for _, question := range q.Questions {
		if question.Points <= 0 {
			return Invalidf("quiz %s: question %s has non-positive points %v", q.ID, question.ID, question.Points)
		}
		if len(question.CorrectAnswers()) == 0 {
			return Invalidf("quiz %s: question %s has no correct answer", q.ID, question.ID)
		}
	}
	return nil
}
