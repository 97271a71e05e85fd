package quizgen

import (
	"context"

	"github.com/jswider/quizforge/internal/topics"
)

// Generator is the question-generation capability: one question for a
// topic at a difficulty target.
type Generator interface {
	GenerateQuestion(ctx context.Context, topic topics.Topic, difficulty Difficulty) (*Question, error)
}

// Config controls quiz building.
type Config struct {
	// AttemptsPerSlot bounds generation retries for one slot before its
	// weight is reallocated to the next-largest topic.
	AttemptsPerSlot int

	// DifficultyMix is the target share per difficulty tag. Shares are
	// relative; they need not sum to 1.
	DifficultyMix map[Difficulty]float64

	MaxTokens   int
	Temperature float64
}

// DefaultConfig returns the recommended generation settings.
func DefaultConfig() Config {
	return Config{
		AttemptsPerSlot: 2,
		DifficultyMix: map[Difficulty]float64{
			DifficultyEasy:   0.25,
			DifficultyMedium: 0.5,
			DifficultyHard:   0.25,
		},
		MaxTokens:   768,
		Temperature: 0.7,
	}
}

// difficultySequence lays out per-slot difficulty targets for n slots
// following the configured mix, deterministically.
func difficultySequence(n int, mix map[Difficulty]float64) []Difficulty {
	order := []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard}
	weights := make([]float64, len(order))
	for i, d := range order {
		weights[i] = mix[d]
	}
	counts := Allocate(weights, n)

	out := make([]Difficulty, 0, n)
	for i, d := range order {
		for j := 0; j < counts[i]; j++ {
			out = append(out, d)
		}
	}
	// Degenerate mix: fall back to medium.
	for len(out) < n {
		out = append(out, DifficultyMedium)
	}
	return out
}
