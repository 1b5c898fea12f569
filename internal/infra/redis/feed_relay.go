package redis

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"quiz-scoring-service/internal/domain"
)

const (
	submissionsPattern = "quiz:*:submissions"
	submissionsSuffix  = ":submissions"
)

// LocalFeed delivers events to subscribers connected to this instance.
type LocalFeed interface {
	Publish(ev domain.SubmissionEvent)
}

// FeedRelay carries submission events between instances over Redis pub/sub.
// Publish sends to PUBLISH quiz:{quizID}:submissions; Run forwards every
// received event to the local feed, including events this instance sent.
type FeedRelay struct {
	client *redis.Client
	local  LocalFeed
	log    *zap.Logger
}

func NewFeedRelay(client *redis.Client, local LocalFeed, log *zap.Logger) *FeedRelay {
	if log == nil {
		log = zap.NewNop()
	}
	return &FeedRelay{client: client, local: local, log: log}
}

// Publish is fire-and-forget; a lost event only affects live viewers.
func (r *FeedRelay) Publish(ev domain.SubmissionEvent) {
	payload, err := json.Marshal(ev)
	if err != nil {
		r.log.Error("encode submission event", zap.Error(err))
		return
	}
	if err := r.client.Publish(context.Background(), feedChannel(ev.QuizID), payload).Err(); err != nil {
		r.log.Warn("publish submission event", zap.String("quiz_id", ev.QuizID), zap.Error(err))
	}
}

// Run blocks until ctx is done. ready, if non-nil, is closed once the
// subscription is confirmed by Redis.
func (r *FeedRelay) Run(ctx context.Context, ready chan<- struct{}) error {
	sub := r.client.PSubscribe(ctx, submissionsPattern)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return err
	}
	if ready != nil {
		close(ready)
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var ev domain.SubmissionEvent
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				r.log.Warn("dropping malformed submission event", zap.String("channel", msg.Channel), zap.Error(err))
				continue
			}
			if ev.QuizID == "" {
				ev.QuizID = strings.TrimSuffix(strings.TrimPrefix(msg.Channel, "quiz:"), submissionsSuffix)
			}
			r.local.Publish(ev)
		}
	}
}

func feedChannel(quizID string) string {
	return "quiz:" + quizID + submissionsSuffix
}
