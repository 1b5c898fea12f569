package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"quiz-scoring-service/internal/domain"
)

type attemptRow struct {
	bun.BaseModel `bun:"table:quiz_attempts,alias:qa"`

	ID        string     `bun:"id,pk"`
	QuizID    string     `bun:"quiz_id,notnull"`
	StudentID string     `bun:"student_id,notnull"`
	StartTime time.Time  `bun:"start_time,notnull"`
	EndTime   *time.Time `bun:"end_time"`
	TimeTaken int64      `bun:"time_taken,notnull"`
	Score     float64    `bun:"score,notnull"`
}

type responseRow struct {
	bun.BaseModel `bun:"table:student_responses,alias:sr"`

	ID              string `bun:"id,pk"`
	AttemptID       string `bun:"attempt_id,notnull"`
	QuizID          string `bun:"quiz_id,notnull"`
	StudentID       string `bun:"student_id,notnull"`
	QuestionID      string `bun:"question_id,notnull"`
	AnswerID        string `bun:"answer_id,nullzero"`
	DefaultAnswerID string `bun:"default_answer_id,nullzero"`
	Position        int    `bun:"position,notnull"`
}

type defaultAnswerRow struct {
	bun.BaseModel `bun:"table:default_answers,alias:da"`

	ID      string `bun:"id,pk"`
	Content string `bun:"content,notnull"`
}

// AttemptStore persists attempts and their responses with bun.
type AttemptStore struct {
	db *bun.DB
}

func NewAttemptStore(db *bun.DB) *AttemptStore {
	return &AttemptStore{db: db}
}

func (s *AttemptStore) CreateAttempt(ctx context.Context, attempt domain.QuizAttempt) error {
	row := toAttemptRow(attempt)
	if _, err := s.db.NewInsert().Model(&row).Exec(ctx); err != nil {
		return fmt.Errorf("insert attempt: %w", err)
	}
	return nil
}

func (s *AttemptStore) GetAttempt(ctx context.Context, attemptID string) (domain.QuizAttempt, error) {
	var row attemptRow
	err := s.db.NewSelect().Model(&row).Where("qa.id = ?", attemptID).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.QuizAttempt{}, domain.ErrAttemptNotFound
	}
	if err != nil {
		return domain.QuizAttempt{}, fmt.Errorf("select attempt: %w", err)
	}
	return row.toDomain(), nil
}

func (s *AttemptStore) HasSubmittedAttempt(ctx context.Context, quizID, studentID string) (bool, error) {
	exists, err := s.db.NewSelect().
		Model((*attemptRow)(nil)).
		Where("qa.quiz_id = ?", quizID).
		Where("qa.student_id = ?", studentID).
		Where("qa.end_time IS NOT NULL").
		Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("check submitted attempts: %w", err)
	}
	return exists, nil
}

// FinalizeAttempt closes the attempt and inserts its responses in one
// transaction. The update only matches an open attempt, so of two racing
// submissions exactly one commits.
func (s *AttemptStore) FinalizeAttempt(ctx context.Context, result domain.AttemptResult) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewUpdate().
			Model((*attemptRow)(nil)).
			Set("end_time = ?", result.EndTime).
			Set("time_taken = ?", result.TimeTaken).
			Set("score = ?", result.Score).
			Where("id = ?", result.AttemptID).
			Where("end_time IS NULL").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("close attempt: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("close attempt: %w", err)
		}
		if n == 0 {
			exists, err := tx.NewSelect().Model((*attemptRow)(nil)).Where("qa.id = ?", result.AttemptID).Exists(ctx)
			if err != nil {
				return fmt.Errorf("check attempt: %w", err)
			}
			if !exists {
				return domain.ErrAttemptNotFound
			}
			return domain.ErrAlreadySubmitted
		}

		if len(result.Responses) == 0 {
			return nil
		}
		rows := make([]responseRow, 0, len(result.Responses))
		for i, r := range result.Responses {
			rows = append(rows, responseRow{
				ID:              r.ID,
				AttemptID:       result.AttemptID,
				QuizID:          r.QuizID,
				StudentID:       r.StudentID,
				QuestionID:      r.QuestionID,
				AnswerID:        r.AnswerID,
				DefaultAnswerID: r.DefaultAnswerID,
				Position:        i,
			})
		}
		if _, err := tx.NewInsert().Model(&rows).Exec(ctx); err != nil {
			return fmt.Errorf("insert responses: %w", err)
		}
		return nil
	})
}

func (s *AttemptStore) ListResponses(ctx context.Context, attemptID string) ([]domain.StudentResponse, error) {
	var rows []responseRow
	err := s.db.NewSelect().
		Model(&rows).
		Where("sr.attempt_id = ?", attemptID).
		OrderExpr("sr.position ASC").
		Scan(ctx)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("select responses: %w", err)
	}
	out := make([]domain.StudentResponse, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.StudentResponse{
			ID:              r.ID,
			AttemptID:       r.AttemptID,
			QuizID:          r.QuizID,
			StudentID:       r.StudentID,
			QuestionID:      r.QuestionID,
			AnswerID:        r.AnswerID,
			DefaultAnswerID: r.DefaultAnswerID,
		})
	}
	return out, nil
}

func (s *AttemptStore) NoResponseAnswerID(ctx context.Context) (string, error) {
	var row defaultAnswerRow
	err := s.db.NewSelect().Model(&row).Where("da.content = ?", domain.NoResponseContent).Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return "", domain.ErrDefaultAnswerNotFound
	}
	if err != nil {
		return "", fmt.Errorf("select default answer: %w", err)
	}
	return row.ID, nil
}

func toAttemptRow(a domain.QuizAttempt) attemptRow {
	return attemptRow{
		ID:        a.ID,
		QuizID:    a.QuizID,
		StudentID: a.StudentID,
		StartTime: a.StartTime,
		EndTime:   a.EndTime,
		TimeTaken: a.TimeTaken,
		Score:     a.Score,
	}
}

func (r attemptRow) toDomain() domain.QuizAttempt {
	return domain.QuizAttempt{
		ID:        r.ID,
		QuizID:    r.QuizID,
		StudentID: r.StudentID,
		StartTime: r.StartTime,
		EndTime:   r.EndTime,
		TimeTaken: r.TimeTaken,
		Score:     r.Score,
	}
}
