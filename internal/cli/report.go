package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"quiz-scoring-service/internal/config"
)

// NewReportCmd prints the score report of one submitted attempt as JSON.
func NewReportCmd(configPath *string) *cobra.Command {
	var (
		attemptID string
		responses bool
	)
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print the score report of a submitted attempt",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			log, err := newLogger(cfg)
			if err != nil {
				return err
			}
			defer log.Sync()

			rt, err := buildRuntime(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer rt.Close()

			var out any
			if responses {
				out, err = rt.service.GetAttemptResponses(cmd.Context(), attemptID)
			} else {
				out, err = rt.service.GetAttemptScore(cmd.Context(), attemptID)
			}
			if err != nil {
				return fmt.Errorf("attempt %s: %w", attemptID, err)
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}
	cmd.Flags().StringVar(&attemptID, "attempt", "", "attempt id")
	cmd.Flags().BoolVar(&responses, "responses", false, "print the per-question breakdown instead of the score")
	_ = cmd.MarkFlagRequired("attempt")
	return cmd
}
