// Package extract turns retrieved document excerpts into an initial
// weighted topic set.
package extract

import (
	"context"
	"fmt"

	"github.com/jswider/quizforge/internal/topics"
)

// ErrExtractionFailed wraps any failure to obtain a usable topic set
// from the analysis capability: provider errors, malformed output, or
// an empty topic list.
type ErrExtractionFailed struct {
	Err error
}

func (e *ErrExtractionFailed) Error() string {
	return fmt.Sprintf("topic extraction failed: %v", e.Err)
}

func (e *ErrExtractionFailed) Unwrap() error { return e.Err }

// Extractor is the topic analysis capability.
type Extractor interface {
	// Extract analyzes the excerpts and returns a fresh, normalized
	// topic set of roughly targetCount topics at revision zero.
	Extract(ctx context.Context, excerpts []string, targetCount int) (*topics.Set, error)
}

// Config controls the LLM extractor.
type Config struct {
	// MaxAttempts bounds extraction retries on failure. The failure is
	// surfaced after the budget is spent, never swallowed.
	MaxAttempts int

	MaxTokens   int
	Temperature float64
}

// DefaultConfig returns the recommended extractor settings.
func DefaultConfig() Config {
	return Config{
		MaxAttempts: 2,
		MaxTokens:   1024,
		Temperature: 0.3,
	}
}
