package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jswider/quizforge/internal/config"
	"github.com/jswider/quizforge/internal/store"
)

var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Show LLM usage totals and stored sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		s, err := store.Open(resolveDBPath(cmd, cfg))
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer s.Close()

		ctx := context.Background()
		usage, err := s.Events().LLMUsage(ctx)
		if err != nil {
			return fmt.Errorf("query usage: %w", err)
		}
		fmt.Printf("LLM requests: %d (%d failed)\n", usage.Requests, usage.Failures)
		fmt.Printf("Tokens: %d in, %d out\n", usage.InputTokens, usage.OutputTokens)

		sessions, err := s.Sessions().ListSessions(ctx)
		if err != nil {
			return fmt.Errorf("list sessions: %w", err)
		}
		if len(sessions) == 0 {
			fmt.Println("No stored sessions.")
			return nil
		}
		fmt.Printf("\n%-36s  %-19s  %s\n", "Session", "Created", "Updated")
		for _, info := range sessions {
			fmt.Printf("%-36s  %-19s  %s\n",
				info.ID,
				info.CreatedAt.Format("2006-01-02 15:04:05"),
				info.UpdatedAt.Format("2006-01-02 15:04:05"))
		}
		return nil
	},
}
