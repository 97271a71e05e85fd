package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jswider/quizforge/internal/config"
	"github.com/jswider/quizforge/internal/feedback"
	"github.com/jswider/quizforge/internal/quiz"
	"github.com/jswider/quizforge/internal/quizgen"
	"github.com/jswider/quizforge/internal/retrieval"
	"github.com/jswider/quizforge/internal/store"
	"github.com/jswider/quizforge/internal/workflow"
)

var runCmd = &cobra.Command{
	Use:   "run FILE...",
	Short: "Run one quiz session interactively over the given documents",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		questions, _ := cmd.Flags().GetInt("questions")
		if questions == 0 {
			questions = cfg.QuestionCount
		}

		st, err := store.Open(resolveDBPath(cmd, cfg))
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer st.Close()

		orch, err := buildOrchestrator(cmd.Context(), cfg, st)
		if err != nil {
			return err
		}

		var docs []string
		for _, path := range args {
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read %s: %w", path, err)
			}
			docs = append(docs, string(data))
		}
		retriever := retrieval.NewMemoryRetriever(docs, cfg.ChunkSize)
		excerpts, err := retriever.Retrieve(cmd.Context(), "", cfg.ChunkCount)
		if err != nil {
			return err
		}

		return runSession(cmd.Context(), orch, excerpts, questions)
	},
}

func init() {
	runCmd.Flags().Int("questions", 0, "Number of questions to generate")
}

func runSession(ctx context.Context, orch *workflow.Orchestrator, excerpts []string, questions int) error {
	in := bufio.NewScanner(os.Stdin)

	fmt.Println("Analyzing documents...")
	state, err := orch.Start(ctx, excerpts, questions)
	if err != nil {
		return err
	}

	// Feedback loop: empty line or "ok" confirms, anything else is an
	// instruction.
	for state.Phase == workflow.PhaseNegotiating {
		printTopics(state)
		fmt.Print("feedback (empty to confirm)> ")
		if !in.Scan() {
			break
		}
		line := strings.TrimSpace(in.Text())
		if line == "" || strings.EqualFold(line, "ok") {
			state, err = orch.ConfirmTopics(ctx, state.SessionID)
			if err != nil {
				return err
			}
			break
		}

		revision := state.Negotiation.Set.Revision
		state, err = orch.SubmitFeedback(ctx, state.SessionID, revision, line)
		var stale *feedback.StaleRevisionError
		if errors.As(err, &stale) {
			fmt.Println("topics changed meanwhile, here is the current set:")
			continue
		}
		if err != nil {
			return err
		}
		for _, w := range state.Negotiation.Warnings {
			fmt.Println("note:", w)
		}
		state.Negotiation.Warnings = nil
	}

	if state.Quiz == nil {
		return nil
	}
	fmt.Printf("\nGenerated %d questions. Let's go.\n\n", len(state.Quiz.Questions))

	for state.Phase == workflow.PhaseQuiz {
		q := orch.CurrentQuestion(state)
		if q == nil {
			break
		}
		printQuestion(state.Quiz.Index+1, len(state.Quiz.Questions), q)

		fmt.Print("answer> ")
		if !in.Scan() {
			return in.Err()
		}
		answer := parseAnswer(q, in.Text())

		var record *quiz.AnswerRecord
		state, record, err = orch.SubmitAnswer(ctx, state.SessionID, answer)
		if err != nil {
			return err
		}
		if record.Correct {
			fmt.Println("correct!")
		} else {
			fmt.Printf("not quite. expected: %s\n", strings.Join(q.AnswerKey, ", "))
		}
		fmt.Println()
	}

	if state.Phase == workflow.PhaseCompleted {
		rep := quiz.Results(state.Quiz)
		fmt.Printf("Done: %d/%d correct, score %.0f%%\n", rep.Correct, rep.Total, rep.Score*100)
		for _, tr := range rep.ByTopic {
			fmt.Printf("  %-30s %d/%d\n", tr.Topic, tr.Correct, tr.Answered)
		}
	}
	return nil
}

func printTopics(state *workflow.State) {
	set := state.Negotiation.Set
	fmt.Printf("\nTopics (revision %d):\n", set.Revision)
	for i, t := range set.Topics {
		fmt.Printf("  %d. %-30s %5.1f%%\n", i+1, t.Name, t.Weight*100)
	}
}

func printQuestion(n, total int, q *quizgen.Question) {
	fmt.Printf("[%d/%d] (%s) %s\n", n, total, q.Topic, q.Prompt)
	for i, c := range q.Choices {
		fmt.Printf("  %c) %s\n", 'a'+i, c)
	}
	if q.Kind == quizgen.KindMultiChoice {
		fmt.Println("  (select all that apply, comma-separated)")
	}
}

// parseAnswer maps letter shortcuts onto choices; free text passes
// through for open questions.
func parseAnswer(q *quizgen.Question, input string) []string {
	input = strings.TrimSpace(input)
	if q.Kind == quizgen.KindOpen {
		return []string{input}
	}

	var out []string
	for _, part := range strings.Split(input, ",") {
		part = strings.TrimSpace(part)
		if len(part) == 1 {
			if i := int(part[0] - 'a'); i >= 0 && i < len(q.Choices) {
				out = append(out, q.Choices[i])
				continue
			}
		}
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
