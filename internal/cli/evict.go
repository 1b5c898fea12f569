package cli

import (
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"quiz-scoring-service/internal/config"
	rediscache "quiz-scoring-service/internal/infra/redis"
)

// NewEvictCmd drops a quiz from the shared Redis cache after it was edited in Postgres.
func NewEvictCmd(configPath *string) *cobra.Command {
	var quizID string
	cmd := &cobra.Command{
		Use:   "evict",
		Short: "Evict a quiz from the shared cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if cfg.Redis.Addr == "" {
				return fmt.Errorf("evict: redis.addr is not configured")
			}
			client := redis.NewClient(&redis.Options{
				Addr:     cfg.Redis.Addr,
				Password: cfg.Redis.Password,
				DB:       cfg.Redis.DB,
			})
			defer client.Close()

			cache := rediscache.NewQuizRepository(client, nil, config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute), nil)
			if err := cache.Invalidate(cmd.Context(), quizID); err != nil {
				return fmt.Errorf("evict quiz %s: %w", quizID, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "evicted quiz %s\n", quizID)
			return nil
		},
	}
	cmd.Flags().StringVar(&quizID, "quiz", "", "quiz id")
	_ = cmd.MarkFlagRequired("quiz")
	return cmd
}
