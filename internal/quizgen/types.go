package quizgen

import "fmt"

// Kind is the question answer format.
type Kind string

const (
	KindSingleChoice Kind = "single_choice"
	KindMultiChoice  Kind = "multi_choice"
	KindOpen         Kind = "open"
)

// Difficulty is the declared difficulty tag.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Question is one generated quiz question. Immutable once built.
type Question struct {
	ID      string `json:"id"`
	TopicID string `json:"topic_id"`
	Topic   string `json:"topic"`

	// Prompt is the question text shown to the user.
	Prompt string `json:"prompt"`

	Kind Kind `json:"kind"`

	// Choices is populated for choice questions; empty for open ones.
	Choices []string `json:"choices,omitempty"`

	// AnswerKey holds the correct choice texts for single/multi choice
	// (one element for single), or the reference answer for open
	// questions.
	AnswerKey []string `json:"answer_key"`

	Difficulty Difficulty `json:"difficulty"`

	// Explanation is shown after the user answers.
	Explanation string `json:"explanation,omitempty"`
}

// ErrGenerationFailed indicates a question slot could not be filled for
// any topic after spending the retry and reallocation budget.
type ErrGenerationFailed struct {
	Topic string
	Err   error
}

func (e *ErrGenerationFailed) Error() string {
	return fmt.Sprintf("question generation failed for topic %q: %v", e.Topic, e.Err)
}

func (e *ErrGenerationFailed) Unwrap() error { return e.Err }
