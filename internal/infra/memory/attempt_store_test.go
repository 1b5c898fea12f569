package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"quiz-scoring-service/internal/domain"
)

func TestAttemptStoreFinalizeOnce(t *testing.T) {
	ctx := context.Background()
	store := NewAttemptStore()
	start := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
	if err := store.CreateAttempt(ctx, domain.QuizAttempt{ID: "a1", QuizID: "quiz-1", StudentID: "s1", StartTime: start}); err != nil {
		t.Fatalf("create: %v", err)
	}

	result := domain.AttemptResult{
		AttemptID: "a1",
		EndTime:   start.Add(90 * time.Second),
		TimeTaken: 90,
		Score:     7.5,
		Responses: []domain.StudentResponse{{ID: "r1", AttemptID: "a1", QuestionID: "q1", AnswerID: "o2"}},
	}
	if err := store.FinalizeAttempt(ctx, result); err != nil {
		t.Fatalf("finalize: %v", err)
	}

	result.Score = 0
	result.Responses = append(result.Responses, domain.StudentResponse{ID: "r2", AttemptID: "a1", QuestionID: "q1", AnswerID: "o1"})
	if err := store.FinalizeAttempt(ctx, result); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict on second finalize, got %v", err)
	}

	attempt, _ := store.GetAttempt(ctx, "a1")
	if attempt.Score != 7.5 || attempt.Status() != domain.AttemptSubmitted || attempt.TimeTaken != 90 {
		t.Fatalf("first write must survive, got %+v", attempt)
	}
	responses, _ := store.ListResponses(ctx, "a1")
	if len(responses) != 1 {
		t.Fatalf("expected 1 response row, got %d", len(responses))
	}

	done, err := store.HasSubmittedAttempt(ctx, "quiz-1", "s1")
	if err != nil || !done {
		t.Fatalf("expected submitted attempt recorded, got %v %v", done, err)
	}
}

func TestAttemptStoreNotFound(t *testing.T) {
	store := NewAttemptStore()
	if _, err := store.GetAttempt(context.Background(), "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := store.FinalizeAttempt(context.Background(), domain.AttemptResult{AttemptID: "missing"}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSubmitGuard(t *testing.T) {
	guard := NewSubmitGuard()
	release, err := guard.Acquire(context.Background(), "a1")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if _, err := guard.Acquire(context.Background(), "a1"); !errors.Is(err, domain.ErrSubmissionInProgress) {
		t.Fatalf("expected in-progress conflict, got %v", err)
	}
	if _, err := guard.Acquire(context.Background(), "a2"); err != nil {
		t.Fatalf("other attempts must not be blocked: %v", err)
	}
	release()
	release()
	if _, err := guard.Acquire(context.Background(), "a1"); err != nil {
		t.Fatalf("expected acquire after release: %v", err)
	}
}
