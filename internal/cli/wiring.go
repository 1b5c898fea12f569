package cli

import (
	"context"
	"database/sql"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"go.uber.org/zap"
	"quiz-scoring-service/internal/app"
	"quiz-scoring-service/internal/config"
	"quiz-scoring-service/internal/domain"
	"quiz-scoring-service/internal/infra/memory"
	"quiz-scoring-service/internal/infra/postgres"
	rediscache "quiz-scoring-service/internal/infra/redis"
	"quiz-scoring-service/internal/logging"
	"quiz-scoring-service/internal/metrics"
)

// runtime holds the wired service and everything that must be closed with it.
type runtime struct {
	service *app.AttemptService
	metrics *metrics.Metrics
	relay   *rediscache.FeedRelay
	closers []func()
}

func (rt *runtime) Close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		rt.closers[i]()
	}
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	return logging.New(logging.Options{Level: cfg.Log.Level, File: cfg.Log.File})
}

// buildRuntime picks Postgres and Redis backends when configured and falls
// back to in-memory ones otherwise.
func buildRuntime(ctx context.Context, cfg config.Config, log *zap.Logger) (*runtime, error) {
	rt := &runtime{metrics: metrics.New()}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		rt.closers = append(rt.closers, func() { _ = redisClient.Close() })
	}

	var loader memory.QuizLoader = memory.NewStaticQuizLoader(sampleQuizzes())
	var attempts app.AttemptRepository = memory.NewAttemptStore()
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			rt.Close()
			return nil, err
		}
		rt.closers = append(rt.closers, pool.Close)
		loader = postgres.NewQuizLoader(pool)

		db := openBun(cfg.Postgres.URL)
		rt.closers = append(rt.closers, func() { _ = db.Close() })
		attempts = postgres.NewAttemptStore(db)
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	guardTTL := config.TTLDuration(cfg.Submission.GuardTTL, 30*time.Second)
	feed := app.NewScoreFeed()

	opts := []app.Option{
		app.WithLogger(log),
		app.WithMetrics(rt.metrics),
		app.WithScoreFeed(feed),
		app.WithPartialMultiplier(cfg.Scoring.PartialCreditMultiplier),
	}
	var quizRepo app.QuizRepository
	if redisClient != nil {
		quizRepo = rediscache.NewQuizRepository(redisClient, loader, quizTTL, log.Named("quiz_cache"))
		rt.relay = rediscache.NewFeedRelay(redisClient, feed, log.Named("feed_relay"))
		opts = append(opts,
			app.WithSubmitGuard(rediscache.NewSubmitGuard(redisClient, guardTTL)),
			app.WithPublisher(rt.relay))
	} else {
		quizRepo = memory.NewQuizRepository(loader, quizTTL)
		opts = append(opts, app.WithSubmitGuard(memory.NewSubmitGuard()))
	}

	rt.service = app.NewAttemptService(attempts, quizRepo, opts...)
	return rt, nil
}

func openBun(dsn string) *bun.DB {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	return bun.NewDB(sqldb, pgdialect.New())
}

// sampleQuizzes backs the in-memory mode; configure postgres.url for real data.
func sampleQuizzes() map[string]domain.Quiz {
	return map[string]domain.Quiz{
		"quiz-1": {
			ID:       "quiz-1",
			Title:    "Arithmetic warm-up",
			Category: "math",
			Settings: domain.QuizSettings{
				TimeLimitMinutes:    10,
				DeductionPercentage: 10,
				RetakeAllowed:       true,
				Active:              true,
				QuestionCount:       2,
			},
			Questions: []domain.Question{
				{
					ID:      "q1",
					QuizID:  "quiz-1",
					Content: "What is 2 + 2?",
					Points:  1,
					Answers: []domain.Answer{
						{ID: "o1", QuestionID: "q1", Content: "3"},
						{ID: "o2", QuestionID: "q1", Content: "4", IsCorrect: true, Score: 1},
						{ID: "o3", QuestionID: "q1", Content: "5"},
					},
				},
				{
					ID:             "q2",
					QuizID:         "quiz-1",
					Content:        "Which numbers are even?",
					MultipleChoice: true,
					Points:         2,
					Answers: []domain.Answer{
						{ID: "o4", QuestionID: "q2", Content: "2", IsCorrect: true, Score: 1},
						{ID: "o5", QuestionID: "q2", Content: "3"},
						{ID: "o6", QuestionID: "q2", Content: "4", IsCorrect: true, Score: 1},
					},
				},
			},
		},
	}
}
