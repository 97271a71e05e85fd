package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/jswider/quizforge/internal/feedback"
	"github.com/jswider/quizforge/internal/negotiate"
	"github.com/jswider/quizforge/internal/quiz"
	"github.com/jswider/quizforge/internal/quizgen"
	"github.com/jswider/quizforge/internal/topics"
)

type stubExtractor struct {
	set *topics.Set
	err error
}

func (s *stubExtractor) Extract(_ context.Context, _ []string, _ int) (*topics.Set, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.set.Clone(), nil
}

type scriptedInterpreter struct {
	diffs []topics.Diff
}

func (s *scriptedInterpreter) Interpret(_ context.Context, _ *topics.Set, _ string) (topics.Diff, error) {
	if len(s.diffs) == 0 {
		return topics.Diff{}, fmt.Errorf("no scripted diff left")
	}
	d := s.diffs[0]
	s.diffs = s.diffs[1:]
	return d, nil
}

type countingGenerator struct {
	calls int
}

func (g *countingGenerator) GenerateQuestion(_ context.Context, topic topics.Topic, difficulty quizgen.Difficulty) (*quizgen.Question, error) {
	g.calls++
	return &quizgen.Question{
		ID:         fmt.Sprintf("q%d", g.calls),
		TopicID:    topic.ID,
		Topic:      topic.Name,
		Prompt:     fmt.Sprintf("%s question %d?", topic.Name, g.calls),
		Kind:       quizgen.KindSingleChoice,
		Choices:    []string{"Right", "Wrong"},
		AnswerKey:  []string{"Right"},
		Difficulty: difficulty,
	}, nil
}

func testOrchestrator(t *testing.T, extractor *stubExtractor, interp *scriptedInterpreter, store Store) *Orchestrator {
	t.Helper()
	if store == nil {
		store = NewMemoryStore()
	}
	neg := negotiate.New(extractor, feedback.NewProcessor(interp), negotiate.DefaultConfig())
	builder := quizgen.NewBuilder(&countingGenerator{}, quizgen.DefaultConfig())
	return NewOrchestrator(neg, builder, quiz.NewSession(nil), store)
}

func threeTopics(t *testing.T) *topics.Set {
	t.Helper()
	set, err := topics.NewSet([]topics.Topic{
		{Name: "Virtual Memory", Weight: 0.5},
		{Name: "Scheduling", Weight: 0.3},
		{Name: "File Systems", Weight: 0.2},
	})
	if err != nil {
		t.Fatalf("NewSet: %v", err)
	}
	return set
}

func TestFullRun(t *testing.T) {
	ctx := context.Background()
	interp := &scriptedInterpreter{diffs: []topics.Diff{
		{Remove: []string{"Scheduling"}},
	}}
	o := testOrchestrator(t, &stubExtractor{set: threeTopics(t)}, interp, nil)

	state, err := o.Start(ctx, []string{"excerpt one", "excerpt two"}, 5)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if state.Phase != PhaseNegotiating {
		t.Fatalf("phase = %s, want negotiating", state.Phase)
	}
	if state.Negotiation.Set.Len() != 3 {
		t.Fatalf("extracted %d topics, want 3", state.Negotiation.Set.Len())
	}

	state, err = o.SubmitFeedback(ctx, state.SessionID, 0, "drop scheduling")
	if err != nil {
		t.Fatalf("SubmitFeedback: %v", err)
	}
	if state.Negotiation.Set.Len() != 2 {
		t.Fatalf("topics after removal = %d, want 2", state.Negotiation.Set.Len())
	}

	state, err = o.ConfirmTopics(ctx, state.SessionID)
	if err != nil {
		t.Fatalf("ConfirmTopics: %v", err)
	}
	if state.Phase != PhaseQuiz {
		t.Fatalf("phase = %s, want quiz", state.Phase)
	}
	if got := len(state.Quiz.Questions); got != 5 {
		t.Fatalf("generated %d questions, want 5", got)
	}

	for i := 0; i < 5; i++ {
		q := o.CurrentQuestion(state)
		if q == nil {
			t.Fatalf("no current question at step %d", i)
		}
		var record *quiz.AnswerRecord
		state, record, err = o.SubmitAnswer(ctx, state.SessionID, []string{"Right"})
		if err != nil {
			t.Fatalf("SubmitAnswer %d: %v", i, err)
		}
		if !record.Correct {
			t.Fatalf("answer %d marked wrong", i)
		}
	}
	if state.Phase != PhaseCompleted {
		t.Fatalf("phase = %s, want completed", state.Phase)
	}
	if state.Quiz.Score != 1.0 {
		t.Fatalf("final score = %v, want 1.0", state.Quiz.Score)
	}
}

func TestResumeFromStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	o := testOrchestrator(t, &stubExtractor{set: threeTopics(t)}, &scriptedInterpreter{}, store)

	state, err := o.Start(ctx, []string{"excerpt"}, 3)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := o.ConfirmTopics(ctx, state.SessionID); err != nil {
		t.Fatalf("ConfirmTopics: %v", err)
	}

	// A fresh orchestrator over the same store sees the session exactly
	// where it suspended.
	o2 := testOrchestrator(t, &stubExtractor{set: threeTopics(t)}, &scriptedInterpreter{}, store)
	resumed, err := o2.GetState(ctx, state.SessionID)
	if err != nil {
		t.Fatalf("GetState: %v", err)
	}
	if resumed.Phase != PhaseQuiz || resumed.Quiz.Index != 0 {
		t.Fatalf("resumed state = phase %s index %d", resumed.Phase, resumed.Quiz.Index)
	}

	resumed, record, err := o2.SubmitAnswer(ctx, state.SessionID, []string{"Right"})
	if err != nil {
		t.Fatalf("SubmitAnswer after resume: %v", err)
	}
	if !record.Correct || resumed.Quiz.Index != 1 {
		t.Fatalf("resume answer record=%+v index=%d", record, resumed.Quiz.Index)
	}
}

type failingGenerator struct {
	inner   countingGenerator
	healthy bool
}

func (g *failingGenerator) GenerateQuestion(ctx context.Context, topic topics.Topic, difficulty quizgen.Difficulty) (*quizgen.Question, error) {
	if !g.healthy {
		return nil, fmt.Errorf("model offline")
	}
	return g.inner.GenerateQuestion(ctx, topic, difficulty)
}

func TestConfirmRetriesAfterGenerationFailure(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	gen := &failingGenerator{}
	neg := negotiate.New(&stubExtractor{set: threeTopics(t)}, feedback.NewProcessor(&scriptedInterpreter{}), negotiate.DefaultConfig())
	builder := quizgen.NewBuilder(gen, quizgen.DefaultConfig())
	o := NewOrchestrator(neg, builder, quiz.NewSession(nil), store)

	state, err := o.Start(ctx, []string{"excerpt"}, 3)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	if _, err := o.ConfirmTopics(ctx, state.SessionID); err == nil {
		t.Fatal("expected generation failure on first confirm")
	}

	// Nothing was persisted for the failed confirm: the stored snapshot
	// still awaits feedback.
	stored, err := o.GetState(ctx, state.SessionID)
	if err != nil {
		t.Fatalf("GetState: %v", err)
	}
	if stored.Phase != PhaseNegotiating || stored.Negotiation.Status != negotiate.StatusAwaitingFeedback {
		t.Fatalf("after failed confirm: phase=%s status=%s", stored.Phase, stored.Negotiation.Status)
	}
	if stored.Negotiation.Set.Confirmed {
		t.Fatal("failed confirm must not persist a confirmed set")
	}

	// Once generation recovers, the same confirm goes through.
	gen.healthy = true
	confirmed, err := o.ConfirmTopics(ctx, state.SessionID)
	if err != nil {
		t.Fatalf("retry confirm: %v", err)
	}
	if confirmed.Phase != PhaseQuiz || len(confirmed.Quiz.Questions) != 3 {
		t.Fatalf("retry confirm: phase=%s questions=%d", confirmed.Phase, len(confirmed.Quiz.Questions))
	}
}

func TestInvalidTransitions(t *testing.T) {
	ctx := context.Background()
	o := testOrchestrator(t, &stubExtractor{set: threeTopics(t)}, &scriptedInterpreter{}, nil)

	state, err := o.Start(ctx, []string{"excerpt"}, 3)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	// Answering during negotiation is out of order.
	_, _, err = o.SubmitAnswer(ctx, state.SessionID, []string{"Right"})
	var invalid *InvalidTransitionError
	if !errors.As(err, &invalid) || invalid.Phase != PhaseNegotiating {
		t.Fatalf("err = %v, want InvalidTransitionError in negotiating", err)
	}

	if _, err := o.ConfirmTopics(ctx, state.SessionID); err != nil {
		t.Fatalf("ConfirmTopics: %v", err)
	}

	// Feedback after confirmation is out of order.
	_, err = o.SubmitFeedback(ctx, state.SessionID, 0, "more topics")
	if !errors.As(err, &invalid) || invalid.Phase != PhaseQuiz {
		t.Fatalf("err = %v, want InvalidTransitionError in quiz", err)
	}
	if !strings.Contains(invalid.Error(), "submit feedback") {
		t.Fatalf("error text = %q", invalid.Error())
	}
}

func TestStaleFeedbackReturnsCurrentState(t *testing.T) {
	ctx := context.Background()
	o := testOrchestrator(t, &stubExtractor{set: threeTopics(t)}, &scriptedInterpreter{}, nil)

	state, err := o.Start(ctx, []string{"excerpt"}, 3)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	got, err := o.SubmitFeedback(ctx, state.SessionID, 7, "remove something")
	var stale *feedback.StaleRevisionError
	if !errors.As(err, &stale) {
		t.Fatalf("err = %v, want StaleRevisionError", err)
	}
	if got == nil || got.Negotiation.Set.Revision != 0 {
		t.Fatalf("stale submit should return the unchanged state, got %+v", got)
	}
	if got.Negotiation.Rounds != 0 {
		t.Fatalf("stale submit consumed a round")
	}
}

func TestUnknownSession(t *testing.T) {
	o := testOrchestrator(t, &stubExtractor{set: threeTopics(t)}, &scriptedInterpreter{}, nil)
	_, err := o.GetState(context.Background(), "nope")
	if !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("err = %v, want ErrSessionNotFound", err)
	}
}

func TestSnapshotVersionRejected(t *testing.T) {
	if _, err := UnmarshalState([]byte(`{"version": 99, "state": {}}`)); err == nil {
		t.Fatal("expected error for unknown snapshot version")
	}
	if _, err := UnmarshalState([]byte(`{"version": 1}`)); err == nil {
		t.Fatal("expected error for missing state")
	}
}
