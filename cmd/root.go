package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jswider/quizforge/internal/config"
	"github.com/jswider/quizforge/internal/extract"
	"github.com/jswider/quizforge/internal/feedback"
	"github.com/jswider/quizforge/internal/llm"
	"github.com/jswider/quizforge/internal/negotiate"
	"github.com/jswider/quizforge/internal/quiz"
	"github.com/jswider/quizforge/internal/quizgen"
	"github.com/jswider/quizforge/internal/store"
	"github.com/jswider/quizforge/internal/workflow"
)

var rootCmd = &cobra.Command{
	Use:   "quizforge",
	Short: "Quiz generator driven by topic negotiation",
	Long: "QuizForge extracts weighted topics from study material, refines them " +
		"through your feedback, and runs a generated quiz over the confirmed set.",
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides QUIZFORGE_DB env var)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(usageCmd)
	rootCmd.AddCommand(versionCmd)
}

// resolveDBPath returns the database path using --db flag (highest
// priority), then the configured path.
func resolveDBPath(cmd *cobra.Command, cfg *config.Config) string {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p
	}
	return cfg.DBPath
}

// buildOrchestrator wires the workflow over the store and the
// configured model provider.
func buildOrchestrator(ctx context.Context, cfg *config.Config, st *store.Store) (*workflow.Orchestrator, error) {
	if err := cfg.LLM.Validate(); err != nil {
		return nil, fmt.Errorf("LLM configuration: %w", err)
	}
	provider, err := llm.NewProvider(ctx, cfg.LLM, st.Events())
	if err != nil {
		return nil, err
	}

	extractCfg := extract.DefaultConfig()
	extractCfg.MaxAttempts = cfg.ExtractionAttempts

	negCfg := negotiate.Config{
		TargetTopicCount: cfg.TargetTopicCount,
		IterationCap:     cfg.IterationCap,
	}

	neg := negotiate.New(
		extract.New(provider, extractCfg),
		feedback.NewProcessor(feedback.NewInterpreter(provider, feedback.DefaultConfig())),
		negCfg,
	)
	genCfg := quizgen.DefaultConfig()
	genCfg.DifficultyMix = cfg.DifficultyMix
	builder := quizgen.NewBuilder(quizgen.New(provider, genCfg), genCfg)
	session := quiz.NewSession(quiz.NewLLMEvaluator(provider))

	return workflow.NewOrchestrator(neg, builder, session, st.Sessions()), nil
}
