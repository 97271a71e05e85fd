// Package feedback applies natural-language feedback instructions to a
// weighted topic set under optimistic-concurrency discipline.
package feedback

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jswider/quizforge/internal/topics"
)

// ErrInterpretationFailed indicates the instruction could not be mapped
// to any diff. The topic set is left unchanged; the caller still
// records the event with an empty diff so the history stays complete.
var ErrInterpretationFailed = errors.New("feedback instruction could not be interpreted")

// StaleRevisionError signals feedback applied against an outdated
// revision. The caller must re-present the current set before retrying;
// the set is never silently overwritten.
type StaleRevisionError struct {
	Shown   int
	Current int
}

func (e *StaleRevisionError) Error() string {
	return fmt.Sprintf("feedback applied against revision %d, current is %d", e.Shown, e.Current)
}

// Interpreter is the reasoning capability that maps an instruction to a
// structured diff against the current topics.
type Interpreter interface {
	Interpret(ctx context.Context, current *topics.Set, instruction string) (topics.Diff, error)
}

// Result is a successful feedback application: the revised set plus the
// audit event describing what changed.
type Result struct {
	Set   *topics.Set
	Event topics.FeedbackEvent
}

// Processor validates, interprets, and merges feedback instructions.
type Processor struct {
	interpreter Interpreter
	now         func() time.Time
}

// NewProcessor creates a Processor over the given interpreter.
func NewProcessor(interpreter Interpreter) *Processor {
	return &Processor{interpreter: interpreter, now: time.Now}
}

// Apply interprets instruction and merges the resulting diff into
// current, returning the revised set and the audit event.
//
// shownRevision is the revision the human was looking at; a mismatch
// yields *StaleRevisionError without touching the set. An
// uninterpretable instruction yields ErrInterpretationFailed together
// with a Result carrying the unchanged set and an empty-diff event for
// the history.
func (p *Processor) Apply(ctx context.Context, current *topics.Set, shownRevision int, instruction string) (*Result, error) {
	if shownRevision != current.Revision {
		return nil, &StaleRevisionError{Shown: shownRevision, Current: current.Revision}
	}

	event := topics.FeedbackEvent{
		Instruction: instruction,
		Revision:    shownRevision,
		At:          p.now(),
	}

	diff, err := p.interpret(ctx, current, instruction)
	if err != nil {
		event.Warning = err.Error()
		return &Result{Set: current, Event: event}, fmt.Errorf("%w: %v", ErrInterpretationFailed, err)
	}

	revised, err := topics.Merge(current, diff)
	if err != nil {
		if errors.Is(err, topics.ErrEmptyTopicSet) {
			// Merge rejected; the pre-feedback set is preserved.
			event.Diff = diff
			event.Warning = err.Error()
			return &Result{Set: current, Event: event}, err
		}
		event.Warning = err.Error()
		return &Result{Set: current, Event: event}, fmt.Errorf("%w: %v", ErrInterpretationFailed, err)
	}

	event.Diff = diff
	event.Applied = true
	return &Result{Set: revised, Event: event}, nil
}

func (p *Processor) interpret(ctx context.Context, current *topics.Set, instruction string) (topics.Diff, error) {
	if len(instruction) == 0 {
		return topics.Diff{}, fmt.Errorf("empty instruction")
	}
	diff, err := p.interpreter.Interpret(ctx, current, instruction)
	if err != nil {
		return topics.Diff{}, err
	}
	if diff.Empty() {
		return topics.Diff{}, fmt.Errorf("instruction maps to no changes")
	}
	return diff, nil
}
