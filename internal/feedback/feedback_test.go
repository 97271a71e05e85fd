package feedback

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/jswider/quizforge/internal/llm"
	"github.com/jswider/quizforge/internal/topics"
)

// stubInterpreter returns a fixed diff or error.
type stubInterpreter struct {
	diff topics.Diff
	err  error
}

func (s *stubInterpreter) Interpret(_ context.Context, _ *topics.Set, _ string) (topics.Diff, error) {
	return s.diff, s.err
}

func baseSet(t *testing.T) *topics.Set {
	t.Helper()
	s, err := topics.NewSet([]topics.Topic{
		{Name: "Virtual Memory", Weight: 0.5},
		{Name: "Scheduling", Weight: 0.3},
		{Name: "File Systems", Weight: 0.2},
	})
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestApply(t *testing.T) {
	p := NewProcessor(&stubInterpreter{diff: topics.Diff{Remove: []string{"Scheduling"}}})
	set := baseSet(t)

	res, err := p.Apply(context.Background(), set, 0, "drop the scheduling topic")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Set.Len() != 2 {
		t.Errorf("expected 2 topics, got %d", res.Set.Len())
	}
	if res.Set.Revision != 1 {
		t.Errorf("revision = %d, want 1", res.Set.Revision)
	}
	if !res.Event.Applied {
		t.Error("event should be marked applied")
	}
	if len(res.Event.Diff.Remove) != 1 {
		t.Error("event should carry the diff")
	}
}

func TestApply_StaleRevision(t *testing.T) {
	p := NewProcessor(&stubInterpreter{diff: topics.Diff{Remove: []string{"Scheduling"}}})
	set := baseSet(t)

	_, err := p.Apply(context.Background(), set, 5, "drop scheduling")
	var stale *StaleRevisionError
	if !errors.As(err, &stale) {
		t.Fatalf("expected StaleRevisionError, got %v", err)
	}
	if stale.Shown != 5 || stale.Current != 0 {
		t.Errorf("unexpected revisions: %+v", stale)
	}
	// The set is never mutated on a stale apply.
	if set.Len() != 3 || set.Revision != 0 {
		t.Error("stale feedback mutated the set")
	}
}

func TestApply_UninterpretableKeepsSetAndRecordsEvent(t *testing.T) {
	p := NewProcessor(&stubInterpreter{diff: topics.Diff{}})
	set := baseSet(t)

	res, err := p.Apply(context.Background(), set, 0, "asdfghjkl")
	if !errors.Is(err, ErrInterpretationFailed) {
		t.Fatalf("expected ErrInterpretationFailed, got %v", err)
	}
	if res == nil {
		t.Fatal("result with the audit event expected even on failure")
	}
	if res.Set != set {
		t.Error("set must be unchanged")
	}
	if res.Event.Applied {
		t.Error("event must not be marked applied")
	}
	if !res.Event.Diff.Empty() {
		t.Error("event diff must be empty")
	}
	if res.Event.Warning == "" {
		t.Error("event should carry a warning")
	}
}

func TestApply_EmptyInstruction(t *testing.T) {
	p := NewProcessor(&stubInterpreter{diff: topics.Diff{Remove: []string{"Scheduling"}}})
	_, err := p.Apply(context.Background(), baseSet(t), 0, "")
	if !errors.Is(err, ErrInterpretationFailed) {
		t.Fatalf("expected ErrInterpretationFailed, got %v", err)
	}
}

func TestApply_RemovingLastTopicRejected(t *testing.T) {
	p := NewProcessor(&stubInterpreter{diff: topics.Diff{
		Remove: []string{"Virtual Memory", "Scheduling", "File Systems"},
	}})
	set := baseSet(t)

	res, err := p.Apply(context.Background(), set, 0, "remove everything")
	if !errors.Is(err, topics.ErrEmptyTopicSet) {
		t.Fatalf("expected ErrEmptyTopicSet, got %v", err)
	}
	if res.Set != set || set.Len() != 3 {
		t.Error("rejected merge must preserve the prior set")
	}
}

func TestLLMInterpreter(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: json.RawMessage(`{
		"add": [{"name": "Deadlocks", "weight": 0}],
		"remove": ["File Systems"],
		"reweight": [{"name": "Scheduling", "weight": 0.6}]
	}`)})
	in := NewInterpreter(mock, DefaultConfig())

	diff, err := in.Interpret(context.Background(), baseSet(t), "more scheduling, add deadlocks, drop file systems")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(diff.Add) != 1 || diff.Add[0].Name != "Deadlocks" {
		t.Errorf("unexpected additions: %+v", diff.Add)
	}
	if len(diff.Remove) != 1 || diff.Remove[0] != "File Systems" {
		t.Errorf("unexpected removals: %+v", diff.Remove)
	}
	if len(diff.Reweight) != 1 || diff.Reweight[0].Weight != 0.6 {
		t.Errorf("unexpected reweights: %+v", diff.Reweight)
	}
}
