package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"quiz-scoring-service/internal/domain"
)

// Querier is the read surface of *pgxpool.Pool the loader needs.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// QuizLoader reads a quiz with its settings, questions and answers from Postgres.
type QuizLoader struct {
	pool Querier
}

func NewQuizLoader(pool Querier) *QuizLoader {
	return &QuizLoader{pool: pool}
}

const selectQuiz = `
SELECT q.id, q.title, COALESCE(q.category, ''), COALESCE(q.subcategory, ''), COALESCE(q.owner_id, ''),
       COALESCE(s.time_limit_minutes, 0), COALESCE(s.deduction_percentage, 0),
       COALESCE(s.retake_allowed, FALSE), COALESCE(s.active, FALSE), COALESCE(s.question_count, 0)
FROM quizzes q
LEFT JOIN quiz_settings s ON s.quiz_id = q.id
WHERE q.id = $1`

const selectQuestions = `
SELECT id, content, multiple_choice, points_per_question
FROM questions
WHERE quiz_id = $1
ORDER BY position, id`

const selectAnswers = `
SELECT a.id, a.question_id, a.content, a.is_correct, a.score
FROM answers a
JOIN questions q ON q.id = a.question_id
WHERE q.quiz_id = $1
ORDER BY a.position, a.id`

func (l *QuizLoader) LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	quiz := domain.Quiz{ID: quizID}
	s := &quiz.Settings
	err := l.pool.QueryRow(ctx, selectQuiz, quizID).Scan(
		&quiz.ID, &quiz.Title, &quiz.Category, &quiz.Subcategory, &quiz.OwnerID,
		&s.TimeLimitMinutes, &s.DeductionPercentage, &s.RetakeAllowed, &s.Active, &s.QuestionCount,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load quiz: %w", err)
	}

	rows, err := l.pool.Query(ctx, selectQuestions, quizID)
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load questions: %w", err)
	}
	index := make(map[string]int)
	for rows.Next() {
		q := domain.Question{QuizID: quizID}
		if err := rows.Scan(&q.ID, &q.Content, &q.MultipleChoice, &q.Points); err != nil {
			rows.Close()
			return domain.Quiz{}, fmt.Errorf("scan question: %w", err)
		}
		index[q.ID] = len(quiz.Questions)
		quiz.Questions = append(quiz.Questions, q)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return domain.Quiz{}, fmt.Errorf("load questions: %w", err)
	}

	rows, err = l.pool.Query(ctx, selectAnswers, quizID)
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load answers: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var a domain.Answer
		if err := rows.Scan(&a.ID, &a.QuestionID, &a.Content, &a.IsCorrect, &a.Score); err != nil {
			return domain.Quiz{}, fmt.Errorf("scan answer: %w", err)
		}
		i, ok := index[a.QuestionID]
		if !ok {
			continue
		}
		quiz.Questions[i].Answers = append(quiz.Questions[i].Answers, a)
	}
	if err := rows.Err(); err != nil {
		return domain.Quiz{}, fmt.Errorf("load answers: %w", err)
	}
	return quiz, nil
}
