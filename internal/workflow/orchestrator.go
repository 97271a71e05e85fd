package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jswider/quizforge/internal/negotiate"
	"github.com/jswider/quizforge/internal/quiz"
	"github.com/jswider/quizforge/internal/quizgen"
)

// Orchestrator runs sessions through the phases. It holds only
// capabilities and configuration; all per-session state lives in the
// store, so any instance can serve any session.
type Orchestrator struct {
	negotiation *negotiate.Negotiation
	builder     *quizgen.Builder
	session     *quiz.Session
	store       Store
	now         func() time.Time
}

// NewOrchestrator wires a workflow over its capabilities and store.
func NewOrchestrator(n *negotiate.Negotiation, b *quizgen.Builder, s *quiz.Session, store Store) *Orchestrator {
	return &Orchestrator{negotiation: n, builder: b, session: s, store: store, now: time.Now}
}

// Start creates a session, extracts topics from the excerpts, and
// suspends awaiting feedback. questionCount fixes the quiz length at
// confirmation time.
func (o *Orchestrator) Start(ctx context.Context, excerpts []string, questionCount int) (*State, error) {
	if questionCount < 1 {
		return nil, fmt.Errorf("question count must be positive, got %d", questionCount)
	}

	state := &State{
		SessionID:     uuid.NewString(),
		Phase:         PhaseNegotiating,
		QuestionCount: questionCount,
		Negotiation:   &negotiate.State{},
		CreatedAt:     o.now(),
	}
	if err := o.negotiation.Start(ctx, state.Negotiation, excerpts); err != nil {
		return nil, fmt.Errorf("start session: %w", err)
	}
	if err := o.save(ctx, state); err != nil {
		return nil, err
	}
	return state, nil
}

// SubmitFeedback applies one feedback instruction during negotiation.
// When the iteration cap confirms the topics mid-call, the session
// moves straight into the quiz phase.
func (o *Orchestrator) SubmitFeedback(ctx context.Context, sessionID string, shownRevision int, instruction string) (*State, error) {
	state, err := o.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if state.Phase != PhaseNegotiating {
		return nil, &InvalidTransitionError{Op: "submit feedback", Phase: state.Phase}
	}

	if err := o.negotiation.SubmitFeedback(ctx, state.Negotiation, shownRevision, instruction); err != nil {
		// Stale revision: nothing changed, return the current state so
		// the caller can resync alongside the error.
		return state, err
	}

	if state.Negotiation.Status == negotiate.StatusConfirmed {
		if err := o.startQuiz(ctx, state); err != nil {
			return nil, err
		}
	}
	if err := o.save(ctx, state); err != nil {
		return nil, err
	}
	return state, nil
}

// ConfirmTopics freezes the negotiated set, generates the question
// sequence, and enters the quiz phase.
func (o *Orchestrator) ConfirmTopics(ctx context.Context, sessionID string) (*State, error) {
	state, err := o.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if state.Phase != PhaseNegotiating {
		return nil, &InvalidTransitionError{Op: "confirm topics", Phase: state.Phase}
	}

	if err := o.negotiation.Confirm(state.Negotiation); err != nil {
		return nil, err
	}
	if err := o.startQuiz(ctx, state); err != nil {
		return nil, err
	}
	if err := o.save(ctx, state); err != nil {
		return nil, err
	}
	return state, nil
}

// SubmitAnswer records the answer for the current question. The
// returned record carries the verdict; the state carries the next
// question or the completed status.
func (o *Orchestrator) SubmitAnswer(ctx context.Context, sessionID string, answer []string) (*State, *quiz.AnswerRecord, error) {
	state, err := o.load(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	if state.Phase != PhaseQuiz {
		return nil, nil, &InvalidTransitionError{Op: "submit answer", Phase: state.Phase}
	}

	record, err := o.session.SubmitAnswer(ctx, state.Quiz, answer)
	if err != nil {
		return nil, nil, err
	}
	if state.Quiz.Status == quiz.StatusCompleted {
		state.Phase = PhaseCompleted
	}
	if err := o.save(ctx, state); err != nil {
		return nil, nil, err
	}
	return state, record, nil
}

// GetState loads the current snapshot for a session.
func (o *Orchestrator) GetState(ctx context.Context, sessionID string) (*State, error) {
	return o.load(ctx, sessionID)
}

// CurrentQuestion returns the question awaiting an answer, or nil
// outside the quiz phase.
func (o *Orchestrator) CurrentQuestion(state *State) *quizgen.Question {
	if state.Phase != PhaseQuiz || state.Quiz == nil {
		return nil
	}
	return o.session.Current(state.Quiz)
}

// startQuiz builds the question sequence for the confirmed set. On a
// generation failure nothing is persisted, so the stored snapshot still
// awaits feedback and the confirm can simply be retried.
func (o *Orchestrator) startQuiz(ctx context.Context, state *State) error {
	questions, err := o.builder.Build(ctx, state.Negotiation.Set, state.QuestionCount)
	if err != nil {
		return fmt.Errorf("generate quiz: %w", err)
	}
	qs, err := quiz.NewState(questions)
	if err != nil {
		return err
	}
	state.Quiz = qs
	state.Phase = PhaseQuiz
	return nil
}

func (o *Orchestrator) save(ctx context.Context, state *State) error {
	state.UpdatedAt = o.now()
	data, err := MarshalState(state)
	if err != nil {
		return fmt.Errorf("serialize session %s: %w", state.SessionID, err)
	}
	if err := o.store.SaveSession(ctx, state.SessionID, data); err != nil {
		return fmt.Errorf("persist session %s: %w", state.SessionID, err)
	}
	return nil
}

func (o *Orchestrator) load(ctx context.Context, sessionID string) (*State, error) {
	data, err := o.store.LoadSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return UnmarshalState(data)
}
