// Package workflow orchestrates the two phases of a quiz run: topic
// negotiation, then quiz execution. Every suspension point is a
// serializable snapshot, so a session can be persisted and resumed in a
// different process.
package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jswider/quizforge/internal/negotiate"
	"github.com/jswider/quizforge/internal/quiz"
)

// Phase is the coarse workflow position.
type Phase string

const (
	PhaseNegotiating Phase = "negotiating"
	PhaseQuiz        Phase = "quiz"
	PhaseCompleted   Phase = "completed"
)

// ErrSessionNotFound is returned when the store holds no session for
// the requested ID.
var ErrSessionNotFound = errors.New("session not found")

// InvalidTransitionError reports an operation applied in the wrong
// phase, e.g. answering before topics are confirmed.
type InvalidTransitionError struct {
	Op    string
	Phase Phase
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot %s in phase %s", e.Op, e.Phase)
}

// State is the full session snapshot. Only one phase's sub-state is
// active at a time, but both are kept so the finished session still
// carries its negotiation history.
type State struct {
	SessionID     string           `json:"session_id"`
	Phase         Phase            `json:"phase"`
	QuestionCount int              `json:"question_count"`
	Negotiation   *negotiate.State `json:"negotiation,omitempty"`
	Quiz          *quiz.State      `json:"quiz,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// snapshotVersion is bumped when the envelope layout changes.
const snapshotVersion = 1

type snapshot struct {
	Version int    `json:"version"`
	State   *State `json:"state"`
}

// MarshalState wraps the state in a versioned envelope for storage.
func MarshalState(s *State) ([]byte, error) {
	return json.Marshal(snapshot{Version: snapshotVersion, State: s})
}

// UnmarshalState restores a state from its envelope, rejecting
// snapshots written by an incompatible version.
func UnmarshalState(data []byte) (*State, error) {
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode session snapshot: %w", err)
	}
	if snap.Version != snapshotVersion {
		return nil, fmt.Errorf("unsupported session snapshot version %d", snap.Version)
	}
	if snap.State == nil {
		return nil, fmt.Errorf("session snapshot has no state")
	}
	return snap.State, nil
}

// Store persists serialized session snapshots. Implementations return
// ErrSessionNotFound (possibly wrapped) for unknown IDs.
type Store interface {
	SaveSession(ctx context.Context, id string, data []byte) error
	LoadSession(ctx context.Context, id string) ([]byte, error)
}
