// Package quiz runs the question-answer loop over a generated question
// sequence: present, collect the answer, score, advance, finish.
package quiz

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jswider/quizforge/internal/quizgen"
)

// Status is the session lifecycle state.
type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// AnswerRecord is the per-question result appended as answers arrive.
type AnswerRecord struct {
	QuestionID string    `json:"question_id"`
	Answer     []string  `json:"answer"`
	Correct    bool      `json:"correct"`
	Score      float64   `json:"score"` // contribution in [0,1]
	AnsweredAt time.Time `json:"answered_at"`
}

// State is the serializable quiz snapshot. After each question is
// presented the session suspends awaiting the answer; it resumes purely
// from this state plus the submitted answer.
type State struct {
	Questions []*quizgen.Question `json:"questions"`
	Index     int                 `json:"index"`
	Records   []AnswerRecord      `json:"records,omitempty"`

	// Score is the running aggregate: mean of per-question scores over
	// answered questions.
	Score float64 `json:"score"`

	Status Status `json:"status"`
}

// Evaluator is the open-answer evaluation capability: exact matching
// cannot grade free text, so correctness and partial credit come from
// an external judge.
type Evaluator interface {
	Evaluate(ctx context.Context, answer, answerKey string) (correct bool, score float64, err error)
}

// Session is the state machine over the evaluator. Like the
// negotiation machine it holds no per-session state.
type Session struct {
	evaluator Evaluator
	now       func() time.Time
}

// NewSession creates a Session. evaluator may be nil when the question
// set contains no open questions.
func NewSession(evaluator Evaluator) *Session {
	return &Session{evaluator: evaluator, now: time.Now}
}

// NewState builds the initial snapshot for a generated sequence.
func NewState(questions []*quizgen.Question) (*State, error) {
	if len(questions) == 0 {
		return nil, fmt.Errorf("quiz needs at least one question")
	}
	return &State{Questions: questions, Status: StatusInProgress}, nil
}

// Current returns the question awaiting an answer, or nil when the
// session is completed.
func (s *Session) Current(state *State) *quizgen.Question {
	if state.Status != StatusInProgress || state.Index >= len(state.Questions) {
		return nil
	}
	return state.Questions[state.Index]
}

// SubmitAnswer scores the answer for the current question, records it,
// and advances. Choice questions are matched exactly against the
// answer key; open questions delegate to the evaluator. An evaluator
// failure leaves the state unchanged so the answer can be resubmitted.
func (s *Session) SubmitAnswer(ctx context.Context, state *State, answer []string) (*AnswerRecord, error) {
	q := s.Current(state)
	if q == nil {
		return nil, fmt.Errorf("quiz is not awaiting an answer (status %s)", state.Status)
	}

	correct, score, err := s.scoreAnswer(ctx, q, answer)
	if err != nil {
		return nil, err
	}

	record := AnswerRecord{
		QuestionID: q.ID,
		Answer:     answer,
		Correct:    correct,
		Score:      score,
		AnsweredAt: s.now(),
	}
	state.Records = append(state.Records, record)
	state.Index++

	var total float64
	for _, r := range state.Records {
		total += r.Score
	}
	state.Score = total / float64(len(state.Records))

	if state.Index >= len(state.Questions) {
		state.Status = StatusCompleted
	}
	return &record, nil
}

func (s *Session) scoreAnswer(ctx context.Context, q *quizgen.Question, answer []string) (bool, float64, error) {
	switch q.Kind {
	case quizgen.KindSingleChoice:
		ok := len(answer) == 1 && len(q.AnswerKey) == 1 &&
			strings.EqualFold(strings.TrimSpace(answer[0]), q.AnswerKey[0])
		return ok, boolScore(ok), nil

	case quizgen.KindMultiChoice:
		ok := sameChoiceSet(answer, q.AnswerKey)
		return ok, boolScore(ok), nil

	case quizgen.KindOpen:
		if s.evaluator == nil {
			return false, 0, fmt.Errorf("no evaluator configured for open question %s", q.ID)
		}
		text := strings.TrimSpace(strings.Join(answer, " "))
		key := strings.Join(q.AnswerKey, " ")
		return s.evaluator.Evaluate(ctx, text, key)

	default:
		return false, 0, fmt.Errorf("unknown question kind %q", q.Kind)
	}
}

func boolScore(ok bool) float64 {
	if ok {
		return 1
	}
	return 0
}

// sameChoiceSet compares answers to the key as case-insensitive sets.
// Each key entry may be matched at most once, so repeating one correct
// choice does not stand in for the rest.
func sameChoiceSet(answer, key []string) bool {
	want := make(map[string]bool, len(key))
	for _, k := range key {
		want[strings.ToLower(strings.TrimSpace(k))] = true
	}
	for _, a := range answer {
		norm := strings.ToLower(strings.TrimSpace(a))
		if !want[norm] {
			return false
		}
		delete(want, norm)
	}
	return len(want) == 0
}
