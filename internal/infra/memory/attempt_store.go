package memory

import (
	"context"
	"sync"

	"quiz-scoring-service/internal/domain"
)

// NoResponseAnswerID is the default answer id used by the in-memory store.
const NoResponseAnswerID = "no-response"

// AttemptStore is an in-memory implementation of app.AttemptRepository.
// A single mutex makes FinalizeAttempt's check-and-write atomic.
type AttemptStore struct {
	mu        sync.RWMutex
	attempts  map[string]domain.QuizAttempt
	responses map[string][]domain.StudentResponse
}

func NewAttemptStore() *AttemptStore {
	return &AttemptStore{
		attempts:  make(map[string]domain.QuizAttempt),
		responses: make(map[string][]domain.StudentResponse),
	}
}

func (s *AttemptStore) CreateAttempt(_ context.Context, attempt domain.QuizAttempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.attempts[attempt.ID]; ok {
		return domain.Invalidf("attempt %s already exists", attempt.ID)
	}
	s.attempts[attempt.ID] = attempt
	return nil
}

func (s *AttemptStore) GetAttempt(_ context.Context, attemptID string) (domain.QuizAttempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	attempt, ok := s.attempts[attemptID]
	if !ok {
		return domain.QuizAttempt{}, domain.ErrAttemptNotFound
	}
	return attempt, nil
}

func (s *AttemptStore) HasSubmittedAttempt(_ context.Context, quizID, studentID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.attempts {
		if a.QuizID == quizID && a.StudentID == studentID && a.Status() == domain.AttemptSubmitted {
			return true, nil
		}
	}
	return false, nil
}

func (s *AttemptStore) FinalizeAttempt(_ context.Context, result domain.AttemptResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	attempt, ok := s.attempts[result.AttemptID]
	if !ok {
		return domain.ErrAttemptNotFound
	}
	if attempt.Status() == domain.AttemptSubmitted {
		return domain.ErrAlreadySubmitted
	}

	end := result.EndTime
	attempt.EndTime = &end
	attempt.TimeTaken = result.TimeTaken
	attempt.Score = result.Score
	s.attempts[attempt.ID] = attempt
	s.responses[attempt.ID] = append([]domain.StudentResponse(nil), result.Responses...)
	return nil
}

func (s *AttemptStore) ListResponses(_ context.Context, attemptID string) ([]domain.StudentResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.StudentResponse(nil), s.responses[attemptID]...), nil
}

func (s *AttemptStore) NoResponseAnswerID(context.Context) (string, error) {
	return NoResponseAnswerID, nil
}
