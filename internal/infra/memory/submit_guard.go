package memory

import (
	"context"
	"sync"

	"quiz-scoring-service/internal/domain"
)

// SubmitGuard rejects a second submission for an attempt while the first is
// still in flight within this process.
type SubmitGuard struct {
	mu       sync.Mutex
	inFlight map[string]struct{}
}

func NewSubmitGuard() *SubmitGuard {
	return &SubmitGuard{inFlight: make(map[string]struct{})}
}

func (g *SubmitGuard) Acquire(_ context.Context, attemptID string) (func(), error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.inFlight[attemptID]; busy {
		return nil, domain.ErrSubmissionInProgress
	}
	g.inFlight[attemptID] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.inFlight, attemptID)
			g.mu.Unlock()
		})
	}, nil
}
