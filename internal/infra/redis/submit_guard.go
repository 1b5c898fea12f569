package redis

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"quiz-scoring-service/internal/domain"
)

// SubmitGuard marks an attempt as being submitted across all instances:
// SET attempt:{attemptID}:submitting {token} NX EX ttl
// The ttl bounds how long a crashed instance can block the attempt.
type SubmitGuard struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSubmitGuard(client *redis.Client, ttl time.Duration) *SubmitGuard {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &SubmitGuard{client: client, ttl: ttl}
}

// releaseScript deletes the key only if it still carries our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

func (g *SubmitGuard) Acquire(ctx context.Context, attemptID string) (func(), error) {
	key := guardKey(attemptID)
	token := uuid.NewString()
	ok, err := g.client.SetNX(ctx, key, token, g.ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrSubmissionInProgress
	}
	return func() {
		// The request context may already be cancelled.
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = releaseScript.Run(ctx, g.client, []string{key}, token).Err()
	}, nil
}

func guardKey(attemptID string) string {
	return "attempt:" + attemptID + ":submitting"
}
