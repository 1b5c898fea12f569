package postgres_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/migrate"
	_ "modernc.org/sqlite"
	"quiz-scoring-service/internal/domain"
	"quiz-scoring-service/internal/infra/postgres"
	"quiz-scoring-service/internal/infra/postgres/migrations"
)

// newTestDB runs the real migrations against a private in-memory SQLite database.
func newTestDB(t *testing.T) *bun.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	sqldb, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqldb.SetMaxOpenConns(1)
	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	migrator := migrate.NewMigrator(db, migrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("init migrations: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	for _, stmt := range []string{
		"INSERT INTO quizzes (id, title) VALUES ('quiz-1', 'Geography')",
		"INSERT INTO questions (id, quiz_id, content, points_per_question) VALUES ('q1', 'quiz-1', 'Capital of France?', 10)",
		"INSERT INTO answers (id, question_id, content, is_correct, score) VALUES ('paris', 'q1', 'Paris', TRUE, 10)",
	} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	return db
}

var startedAt = time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)

func TestAttemptStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := postgres.NewAttemptStore(newTestDB(t))

	if err := store.CreateAttempt(ctx, domain.QuizAttempt{ID: "a1", QuizID: "quiz-1", StudentID: "s1", StartTime: startedAt}); err != nil {
		t.Fatalf("create: %v", err)
	}
	attempt, err := store.GetAttempt(ctx, "a1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if attempt.Status() != domain.AttemptCreated || !attempt.StartTime.Equal(startedAt) {
		t.Fatalf("unexpected attempt %+v", attempt)
	}

	defaultID, err := store.NoResponseAnswerID(ctx)
	if err != nil || defaultID != "no-response" {
		t.Fatalf("expected seeded default answer, got %q %v", defaultID, err)
	}

	err = store.FinalizeAttempt(ctx, domain.AttemptResult{
		AttemptID: "a1",
		EndTime:   startedAt.Add(time.Minute),
		TimeTaken: 60,
		Score:     10,
		Responses: []domain.StudentResponse{
			{ID: "r1", AttemptID: "a1", QuizID: "quiz-1", StudentID: "s1", QuestionID: "q1", AnswerID: "paris"},
			{ID: "r2", AttemptID: "a1", QuizID: "quiz-1", StudentID: "s1", QuestionID: "q2", DefaultAnswerID: defaultID},
		},
	})
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}

	attempt, _ = store.GetAttempt(ctx, "a1")
	if attempt.Status() != domain.AttemptSubmitted || attempt.Score != 10 || attempt.TimeTaken != 60 {
		t.Fatalf("attempt not closed: %+v", attempt)
	}

	rows, err := store.ListResponses(ctx, "a1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 2 || rows[0].AnswerID != "paris" || rows[0].IsDefault() {
		t.Fatalf("unexpected rows %+v", rows)
	}
	if !rows[1].IsDefault() || rows[1].AnswerID != "" {
		t.Fatalf("expected default row second, got %+v", rows[1])
	}

	done, err := store.HasSubmittedAttempt(ctx, "quiz-1", "s1")
	if err != nil || !done {
		t.Fatalf("expected submitted attempt, got %v %v", done, err)
	}
	done, _ = store.HasSubmittedAttempt(ctx, "quiz-1", "s2")
	if done {
		t.Fatalf("s2 has no attempts")
	}
}

func TestAttemptStoreFinalizeIsWriteOnce(t *testing.T) {
	ctx := context.Background()
	store := postgres.NewAttemptStore(newTestDB(t))
	if err := store.CreateAttempt(ctx, domain.QuizAttempt{ID: "a1", QuizID: "quiz-1", StudentID: "s1", StartTime: startedAt}); err != nil {
		t.Fatalf("create: %v", err)
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := store.FinalizeAttempt(ctx, domain.AttemptResult{
				AttemptID: "a1",
				EndTime:   startedAt.Add(time.Minute),
				TimeTaken: 60,
				Score:     float64(i),
				Responses: []domain.StudentResponse{
					{ID: fmt.Sprintf("r%d", i), QuizID: "quiz-1", StudentID: "s1", QuestionID: "q1", AnswerID: "paris"},
				},
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, domain.ErrAlreadySubmitted):
				conflicts++
			default:
				t.Errorf("unexpected error %v", err)
			}
		}(i)
	}
	wg.Wait()
	if successes != 1 || conflicts != 3 {
		t.Fatalf("expected one winner, got %d successes and %d conflicts", successes, conflicts)
	}
	rows, _ := store.ListResponses(ctx, "a1")
	if len(rows) != 1 {
		t.Fatalf("losing submissions must not write rows, got %d", len(rows))
	}
}

func TestAttemptStoreNotFound(t *testing.T) {
	ctx := context.Background()
	store := postgres.NewAttemptStore(newTestDB(t))

	if _, err := store.GetAttempt(ctx, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := store.FinalizeAttempt(ctx, domain.AttemptResult{AttemptID: "missing"}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	rows, err := store.ListResponses(ctx, "missing")
	if err != nil || len(rows) != 0 {
		t.Fatalf("expected empty list, got %v %v", rows, err)
	}
}

func TestAttemptStoreFinalizeRollsBackOnInsertFailure(t *testing.T) {
	ctx := context.Background()
	store := postgres.NewAttemptStore(newTestDB(t))
	if err := store.CreateAttempt(ctx, domain.QuizAttempt{ID: "a1", QuizID: "quiz-1", StudentID: "s1", StartTime: startedAt}); err != nil {
		t.Fatalf("create: %v", err)
	}

	broken := []struct {
		name      string
		responses []domain.StudentResponse
	}{
		{"duplicate id", []domain.StudentResponse{
			{ID: "r1", QuizID: "quiz-1", StudentID: "s1", QuestionID: "q1", AnswerID: "paris"},
			{ID: "r1", QuizID: "quiz-1", StudentID: "s1", QuestionID: "q1", AnswerID: "paris"},
		}},
		{"answer and default both set", []domain.StudentResponse{
			{ID: "r1", QuizID: "quiz-1", StudentID: "s1", QuestionID: "q1", AnswerID: "paris", DefaultAnswerID: "no-response"},
		}},
	}
	for _, tc := range broken {
		err := store.FinalizeAttempt(ctx, domain.AttemptResult{
			AttemptID: "a1",
			EndTime:   startedAt.Add(time.Minute),
			TimeTaken: 60,
			Score:     10,
			Responses: tc.responses,
		})
		if err == nil {
			t.Fatalf("%s: expected insert failure", tc.name)
		}

		attempt, err := store.GetAttempt(ctx, "a1")
		if err != nil {
			t.Fatalf("%s: get: %v", tc.name, err)
		}
		if attempt.Status() != domain.AttemptCreated || attempt.Score != 0 || attempt.TimeTaken != 0 {
			t.Fatalf("%s: attempt must stay open after rollback, got %+v", tc.name, attempt)
		}
		rows, err := store.ListResponses(ctx, "a1")
		if err != nil || len(rows) != 0 {
			t.Fatalf("%s: expected no rows after rollback, got %v %v", tc.name, rows, err)
		}
	}

	err := store.FinalizeAttempt(ctx, domain.AttemptResult{
		AttemptID: "a1",
		EndTime:   startedAt.Add(time.Minute),
		TimeTaken: 60,
		Score:     10,
		Responses: []domain.StudentResponse{
			{ID: "r1", QuizID: "quiz-1", StudentID: "s1", QuestionID: "q1", AnswerID: "paris"},
		},
	})
	if err != nil {
		t.Fatalf("retry after rollback: %v", err)
	}
}
