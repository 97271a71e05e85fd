// Package negotiate drives the human-feedback loop that refines the
// weighted topic set before quiz generation: extract, present, collect
// feedback, revise, repeat until the user confirms.
package negotiate

import (
	"context"
	"errors"
	"fmt"

	"github.com/jswider/quizforge/internal/extract"
	"github.com/jswider/quizforge/internal/feedback"
	"github.com/jswider/quizforge/internal/topics"
)

// Status is the negotiation lifecycle state.
type Status string

const (
	StatusExtracting       Status = "extracting"
	StatusAwaitingFeedback Status = "awaiting_feedback"
	StatusRevising         Status = "revising"
	StatusConfirmed        Status = "confirmed"
)

// State is the serializable negotiation snapshot. Awaiting-feedback is
// a suspension point: control returns to the caller with this state and
// the negotiation resumes purely from it plus the next input.
type State struct {
	Status Status      `json:"status"`
	Set    *topics.Set `json:"set,omitempty"`

	// Rounds counts feedback submissions, intelligible or not. Stale
	// submissions are resyncs, not rounds.
	Rounds int `json:"rounds"`

	// History is the ordered audit trail of every feedback event,
	// including failed interpretations with empty diffs.
	History []topics.FeedbackEvent `json:"history,omitempty"`

	// Warnings accumulated for display with the next snapshot.
	Warnings []string `json:"warnings,omitempty"`
}

// Config bounds the negotiation loop.
type Config struct {
	// TargetTopicCount is passed to the extractor.
	TargetTopicCount int

	// IterationCap is the maximum number of feedback rounds. Once
	// reached, the current set is confirmed to guarantee termination.
	IterationCap int
}

// DefaultConfig returns the standard negotiation bounds.
func DefaultConfig() Config {
	return Config{TargetTopicCount: 5, IterationCap: 10}
}

// Negotiation is the state machine over extractor and feedback
// processor. It holds no per-session state itself; all of it lives in
// State so sessions suspend and resume freely.
type Negotiation struct {
	extractor extract.Extractor
	processor *feedback.Processor
	config    Config
}

// New creates a Negotiation.
func New(extractor extract.Extractor, processor *feedback.Processor, cfg Config) *Negotiation {
	return &Negotiation{extractor: extractor, processor: processor, config: cfg}
}

// Start runs extraction once and suspends awaiting feedback. An
// extraction failure is fatal for the workflow instance and leaves the
// state in extracting for inspection.
func (n *Negotiation) Start(ctx context.Context, state *State, excerpts []string) error {
	if state.Status != "" && state.Status != StatusExtracting {
		return fmt.Errorf("negotiation already started (status %s)", state.Status)
	}
	state.Status = StatusExtracting

	set, err := n.extractor.Extract(ctx, excerpts, n.config.TargetTopicCount)
	if err != nil {
		return err
	}

	state.Set = set
	state.Status = StatusAwaitingFeedback
	return nil
}

// SubmitFeedback applies one feedback instruction against the revision
// the user was shown and returns to awaiting feedback (or confirmed,
// when the iteration cap forces termination).
//
// Error handling follows explicit fallback transitions, never an
// undefined state:
//   - stale revision: set unchanged, still awaiting feedback; the error
//     is returned so the caller re-presents the current set;
//   - uninterpretable instruction: set unchanged, event recorded with
//     an empty diff, warning attached, still awaiting feedback;
//   - a merge that would empty the set: likewise rejected and recorded.
func (n *Negotiation) SubmitFeedback(ctx context.Context, state *State, shownRevision int, instruction string) error {
	if state.Status != StatusAwaitingFeedback {
		return fmt.Errorf("cannot accept feedback in status %s", state.Status)
	}
	state.Status = StatusRevising

	res, err := n.processor.Apply(ctx, state.Set, shownRevision, instruction)

	var stale *feedback.StaleRevisionError
	switch {
	case err == nil:
		state.Set = res.Set
		state.History = append(state.History, res.Event)
		state.Rounds++

	case errors.As(err, &stale):
		// Re-emit the current set unchanged; the caller must resync.
		state.Status = StatusAwaitingFeedback
		return err

	default:
		// Recoverable: record the event, warn, stay in the loop.
		if res != nil {
			state.History = append(state.History, res.Event)
		}
		state.Warnings = append(state.Warnings, fmt.Sprintf("feedback not applied: %v", err))
		state.Rounds++
	}

	if state.Rounds >= n.config.IterationCap {
		state.Warnings = append(state.Warnings,
			fmt.Sprintf("feedback round limit (%d) reached, topics confirmed automatically", n.config.IterationCap))
		n.confirm(state)
		return nil
	}

	state.Status = StatusAwaitingFeedback
	return nil
}

// Confirm freezes the current set. Confirmation is always an explicit
// external signal; the machine only self-confirms at the iteration cap.
func (n *Negotiation) Confirm(state *State) error {
	if state.Status != StatusAwaitingFeedback {
		return fmt.Errorf("cannot confirm topics in status %s", state.Status)
	}
	n.confirm(state)
	return nil
}

func (n *Negotiation) confirm(state *State) {
	state.Set.Confirmed = true
	state.Status = StatusConfirmed
}
