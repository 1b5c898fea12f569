package app

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"quiz-scoring-service/internal/domain"
	"quiz-scoring-service/internal/metrics"
	"quiz-scoring-service/internal/scoring"
)

// AttemptService contains the attempt lifecycle and scoring use cases.
type AttemptService struct {
	attempts   AttemptRepository
	quizzes    QuizRepository
	guard      SubmitGuard
	feed       *ScoreFeed
	publisher  EventPublisher
	metrics    *metrics.Metrics
	log        *zap.Logger
	now        func() time.Time
	validate   *validator.Validate
	submission scoring.Strategy
	report     scoring.Strategy
}

// Option customizes an AttemptService.
type Option func(*serviceConfig)

type serviceConfig struct {
	guard             SubmitGuard
	feed              *ScoreFeed
	publisher         EventPublisher
	metrics           *metrics.Metrics
	log               *zap.Logger
	now               func() time.Time
	partialMultiplier float64
}

func WithSubmitGuard(g SubmitGuard) Option   { return func(c *serviceConfig) { c.guard = g } }
func WithScoreFeed(f *ScoreFeed) Option      { return func(c *serviceConfig) { c.feed = f } }
func WithMetrics(m *metrics.Metrics) Option  { return func(c *serviceConfig) { c.metrics = m } }
func WithPublisher(p EventPublisher) Option  { return func(c *serviceConfig) { c.publisher = p } }
func WithLogger(l *zap.Logger) Option        { return func(c *serviceConfig) { c.log = l } }
func WithPartialMultiplier(m float64) Option { return func(c *serviceConfig) { c.partialMultiplier = m } }

// WithClock is test-only for deterministic timestamps.
func WithClock(now func() time.Time) Option { return func(c *serviceConfig) { c.now = now } }

func NewAttemptService(attempts AttemptRepository, quizzes QuizRepository, opts ...Option) *AttemptService {
	cfg := &serviceConfig{
		log: zap.NewNop(),
		now: time.Now,
	}
	for _, o := range opts {
		o(cfg)
	}
	if cfg.feed == nil {
		cfg.feed = NewScoreFeed()
	}
	if cfg.publisher == nil {
		cfg.publisher = cfg.feed
	}
	normalizer := scoring.NewNormalizer(cfg.log.Named("normalizer"))
	return &AttemptService{
		attempts:   attempts,
		quizzes:    quizzes,
		guard:      cfg.guard,
		feed:       cfg.feed,
		publisher:  cfg.publisher,
		metrics:    cfg.metrics,
		log:        cfg.log,
		now:        cfg.now,
		validate:   validator.New(),
		submission: scoring.NewSubmissionStrategy(normalizer, cfg.partialMultiplier),
		report:     scoring.NewReportStrategy(normalizer),
	}
}

// SubmitResult is returned once an attempt has been finalized.
type SubmitResult struct {
	AttemptID   string    `json:"attemptId"`
	Score       float64   `json:"score"`
	TimeTaken   int64     `json:"timeTaken"`
	SubmittedAt time.Time `json:"submittedAt"`
}

type startRequest struct {
	QuizID    string `validate:"required"`
	StudentID string `validate:"required"`
}

type submitRequest struct {
	AttemptID string              `validate:"required"`
	Answers   map[string][]string `validate:"required,min=1,dive,keys,required,endkeys,dive,required"`
}

// StartAttempt opens a new attempt in the Created state.
func (s *AttemptService) StartAttempt(ctx context.Context, quizID, studentID string) (domain.QuizAttempt, error) {
	if err := s.validate.Struct(startRequest{QuizID: quizID, StudentID: studentID}); err != nil {
		return domain.QuizAttempt{}, domain.Invalidf("start attempt: %v", err)
	}

	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.QuizAttempt{}, domain.Dependency("load quiz", err)
	}
	if !quiz.Settings.Active {
		return domain.QuizAttempt{}, domain.ErrQuizInactive
	}
	if !quiz.Settings.RetakeAllowed {
		done, err := s.attempts.HasSubmittedAttempt(ctx, quizID, studentID)
		if err != nil {
			return domain.QuizAttempt{}, domain.Dependency("check previous attempts", err)
		}
		if done {
			return domain.QuizAttempt{}, domain.ErrRetakeNotAllowed
		}
	}

	attempt := domain.QuizAttempt{
		ID:        uuid.NewString(),
		QuizID:    quizID,
		StudentID: studentID,
		StartTime: s.now().UTC(),
	}
	if err := s.attempts.CreateAttempt(ctx, attempt); err != nil {
		return domain.QuizAttempt{}, domain.Dependency("create attempt", err)
	}
	s.log.Info("attempt started",
		zap.String("attempt_id", attempt.ID),
		zap.String("quiz_id", quizID),
		zap.String("student_id", studentID))
	return attempt, nil
}

// SubmitAttempt records the student's answers (questionID -> answer ids),
// scores them with the submission policy and finalizes the attempt. Any error
// means nothing was written.
func (s *AttemptService) SubmitAttempt(ctx context.Context, attemptID string, answers map[string][]string) (SubmitResult, error) {
	res, err := s.submit(ctx, attemptID, answers)
	s.metrics.ObserveSubmission(outcomeOf(err), res.Score)
	if err != nil {
		s.log.Warn("submission rejected",
			zap.String("attempt_id", attemptID),
			zap.Bool("retryable", domain.Retryable(err)),
			zap.Error(err))
		return SubmitResult{}, err
	}
	return res, nil
}

func (s *AttemptService) submit(ctx context.Context, attemptID string, answers map[string][]string) (SubmitResult, error) {
	if len(answers) == 0 {
		return SubmitResult{}, domain.ErrEmptyAnswers
	}
	if err := s.validate.Struct(submitRequest{AttemptID: attemptID, Answers: answers}); err != nil {
		return SubmitResult{}, domain.Invalidf("malformed answers: %v", err)
	}

	if s.guard != nil {
		release, err := s.guard.Acquire(ctx, attemptID)
		if err != nil {
			return SubmitResult{}, domain.Dependency("acquire submit guard", err)
		}
		defer release()
	}

	attempt, err := s.attempts.GetAttempt(ctx, attemptID)
	if err != nil {
		return SubmitResult{}, domain.Dependency("load attempt", err)
	}
	if attempt.Status() == domain.AttemptSubmitted {
		return SubmitResult{}, domain.ErrAlreadySubmitted
	}

	quiz, err := s.quizzes.GetQuiz(ctx, attempt.QuizID)
	if err != nil {
		return SubmitResult{}, domain.Dependency("load quiz", err)
	}
	if err := quiz.Validate(); err != nil {
		return SubmitResult{}, err
	}

	responses, err := s.buildResponses(ctx, attempt, quiz, answers)
	if err != nil {
		return SubmitResult{}, err
	}

	scored := s.submission.Score(quiz, responses)

	endTime := s.now().UTC()
	timeTaken := int64(endTime.Sub(attempt.StartTime).Seconds())
	if timeTaken < 0 {
		timeTaken = 0
	}
	err = s.attempts.FinalizeAttempt(ctx, domain.AttemptResult{
		AttemptID: attempt.ID,
		EndTime:   endTime,
		TimeTaken: timeTaken,
		Score:     scored.Score,
		Responses: responses,
	})
	if err != nil {
		return SubmitResult{}, domain.Dependency("finalize attempt", err)
	}

	s.log.Info("attempt submitted",
		zap.String("attempt_id", attempt.ID),
		zap.String("quiz_id", quiz.ID),
		zap.Float64("score", scored.Score),
		zap.Float64("deduction", scored.Deduction),
		zap.Int("wrong_questions", scored.WrongCount),
		zap.Int("responses", len(responses)))
	s.publisher.Publish(domain.SubmissionEvent{
		QuizID:      quiz.ID,
		AttemptID:   attempt.ID,
		StudentID:   attempt.StudentID,
		Score:       scored.Score,
		SubmittedAt: endTime,
	})
	return SubmitResult{
		AttemptID:   attempt.ID,
		Score:       scored.Score,
		TimeTaken:   timeTaken,
		SubmittedAt: endTime,
	}, nil
}

// buildResponses produces one row per selected answer and one "No Response"
// row for every quiz question the student left out.
func (s *AttemptService) buildResponses(ctx context.Context, attempt domain.QuizAttempt, quiz domain.Quiz, answers map[string][]string) ([]domain.StudentResponse, error) {
	for questionID, answerIDs := range answers {
		question, ok := quiz.Question(questionID)
		if !ok {
			return nil, domain.Invalidf("question %s does not belong to quiz %s", questionID, quiz.ID)
		}
		for _, answerID := range answerIDs {
			if _, ok := question.Answer(answerID); !ok {
				return nil, domain.Invalidf("answer %s does not belong to question %s", answerID, questionID)
			}
		}
	}

	var noResponseID string
	responses := make([]domain.StudentResponse, 0, len(quiz.Questions))
	for _, question := range quiz.Questions {
		row := domain.StudentResponse{
			AttemptID:  attempt.ID,
			QuizID:     quiz.ID,
			StudentID:  attempt.StudentID,
			QuestionID: question.ID,
		}

		selected := dedupe(answers[question.ID])
		if len(selected) == 0 {
			if noResponseID == "" {
				id, err := s.attempts.NoResponseAnswerID(ctx)
				if err != nil {
					return nil, domain.Dependency("resolve default answer", err)
				}
				noResponseID = id
			}
			row.ID = uuid.NewString()
			row.DefaultAnswerID = noResponseID
			responses = append(responses, row)
			continue
		}
		for _, answerID := range selected {
			row.ID = uuid.NewString()
			row.AnswerID = answerID
			responses = append(responses, row)
		}
	}
	return responses, nil
}

// GetAttemptScore recomputes the score breakdown from stored responses.
func (s *AttemptService) GetAttemptScore(ctx context.Context, attemptID string) (domain.ScoreReport, error) {
	attempt, quiz, responses, err := s.loadGraded(ctx, attemptID)
	if err != nil {
		return domain.ScoreReport{}, err
	}
	res := s.report.Score(quiz, responses)
	maxScore := scoring.Round(quiz.MaxScore())
	pct := scoring.Percentage(res.Score, maxScore)
	return domain.ScoreReport{
		AttemptID:             attempt.ID,
		Score:                 res.Score,
		StoredScore:           attempt.Score,
		MaxScore:              maxScore,
		Percentage:            pct,
		Grade:                 scoring.LetterGrade(pct),
		Deduction:             res.Deduction,
		DeductionPercentage:   quiz.Settings.DeductionPercentage,
		WrongAnswerCount:      res.WrongCount,
		PointsBeforeDeduction: res.PointsBeforeDeduction,
	}, nil
}

// GetAttemptResponses lists each graded question with the student's and the
// correct answers and the points awarded by the report policy.
func (s *AttemptService) GetAttemptResponses(ctx context.Context, attemptID string) (domain.ResponseBreakdown, error) {
	attempt, quiz, responses, err := s.loadGraded(ctx, attemptID)
	if err != nil {
		return domain.ResponseBreakdown{}, err
	}
	res := s.report.Score(quiz, responses)

	rowsByQuestion := make(map[string][]domain.StudentResponse, len(quiz.Questions))
	for _, r := range responses {
		rowsByQuestion[r.QuestionID] = append(rowsByQuestion[r.QuestionID], r)
	}

	out := domain.ResponseBreakdown{
		AttemptID:           attempt.ID,
		Responses:           make([]domain.ResponseDetail, 0, len(res.Questions)),
		DeductionPercentage: quiz.Settings.DeductionPercentage,
	}
	for _, qs := range res.Questions {
		question, _ := quiz.Question(qs.QuestionID)
		detail := domain.ResponseDetail{
			QuestionID:     question.ID,
			QuestionText:   question.Content,
			StudentAnswer:  []string{},
			CorrectAnswers: []string{},
			Points:         scoring.Round(qs.Awarded),
		}
		for _, r := range rowsByQuestion[question.ID] {
			if r.IsDefault() {
				detail.StudentAnswer = append(detail.StudentAnswer, domain.NoResponseContent)
				continue
			}
			if a, ok := question.Answer(r.AnswerID); ok {
				detail.StudentAnswer = append(detail.StudentAnswer, a.Content)
			}
		}
		for _, a := range question.CorrectAnswers() {
			detail.CorrectAnswers = append(detail.CorrectAnswers, a.Content)
		}
		out.Responses = append(out.Responses, detail)
	}
	return out, nil
}

func (s *AttemptService) loadGraded(ctx context.Context, attemptID string) (domain.QuizAttempt, domain.Quiz, []domain.StudentResponse, error) {
	if strings.TrimSpace(attemptID) == "" {
		return domain.QuizAttempt{}, domain.Quiz{}, nil, domain.Invalidf("attempt id required")
	}
	responses, err := s.attempts.ListResponses(ctx, attemptID)
	if err != nil {
		return domain.QuizAttempt{}, domain.Quiz{}, nil, domain.Dependency("list responses", err)
	}
	if len(responses) == 0 {
		return domain.QuizAttempt{}, domain.Quiz{}, nil, domain.ErrResponsesNotFound
	}
	attempt, err := s.attempts.GetAttempt(ctx, attemptID)
	if err != nil {
		return domain.QuizAttempt{}, domain.Quiz{}, nil, domain.Dependency("load attempt", err)
	}
	quiz, err := s.quizzes.GetQuiz(ctx, attempt.QuizID)
	if err != nil {
		return domain.QuizAttempt{}, domain.Quiz{}, nil, domain.Dependency("load quiz", err)
	}
	for _, r := range responses {
		if _, ok := quiz.Question(r.QuestionID); !ok {
			return domain.QuizAttempt{}, domain.Quiz{}, nil, domain.ErrQuestionNotFound
		}
	}
	return attempt, quiz, responses, nil
}

// Subscribe returns live submission events for a quiz.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *AttemptService) Subscribe(ctx context.Context, quizID string) (<-chan domain.SubmissionEvent, func(), error) {
	// Subscribers cannot watch unknown quizzes.
	if _, err := s.quizzes.GetQuiz(ctx, quizID); err != nil {
		return nil, nil, domain.Dependency("load quiz", err)
	}
	ch, cancel := s.feed.Subscribe(quizID)
	return ch, cancel, nil
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeScored
	case errors.Is(err, domain.ErrInvalidInput):
		return metrics.OutcomeInvalid
	case errors.Is(err, domain.ErrNotFound):
		return metrics.OutcomeNotFound
	case errors.Is(err, domain.ErrConflict):
		return metrics.OutcomeConflict
	default:
		return metrics.OutcomeError
	}
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
