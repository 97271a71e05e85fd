package extract

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jswider/quizforge/internal/llm"
	"github.com/jswider/quizforge/internal/topics"
)

// LLMExtractor implements Extractor using the model provider.
type LLMExtractor struct {
	provider llm.Provider
	config   Config
}

// New creates an LLMExtractor.
func New(provider llm.Provider, cfg Config) *LLMExtractor {
	return &LLMExtractor{provider: provider, config: cfg}
}

// extractionOutput is the raw structured response.
type extractionOutput struct {
	Topics []struct {
		Name      string  `json:"name"`
		Weight    float64 `json:"weight"`
		Rationale string  `json:"rationale"`
	} `json:"topics"`
}

// Extract analyzes the excerpts into a normalized topic set. The call
// is retried up to the configured attempt budget; the last failure is
// returned as ErrExtractionFailed.
func (e *LLMExtractor) Extract(ctx context.Context, excerpts []string, targetCount int) (*topics.Set, error) {
	if len(excerpts) == 0 {
		return nil, &ErrExtractionFailed{Err: fmt.Errorf("no document excerpts to analyze")}
	}

	ctx = llm.WithPurpose(ctx, "topic-extract")

	var lastErr error
	for attempt := 0; attempt < e.config.MaxAttempts; attempt++ {
		set, err := e.extractOnce(ctx, excerpts, targetCount)
		if err == nil {
			return set, nil
		}
		lastErr = err
	}
	return nil, &ErrExtractionFailed{Err: lastErr}
}

func (e *LLMExtractor) extractOnce(ctx context.Context, excerpts []string, targetCount int) (*topics.Set, error) {
	req := llm.Request{
		System: systemPrompt,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: buildUserMessage(excerpts, targetCount)},
		},
		Schema:      TopicsSchema,
		MaxTokens:   e.config.MaxTokens,
		Temperature: e.config.Temperature,
	}

	resp, err := e.provider.Generate(ctx, req)
	if err != nil {
		return nil, err
	}

	var raw extractionOutput
	if err := json.Unmarshal(resp.Content, &raw); err != nil {
		return nil, fmt.Errorf("parse extraction response: %w", err)
	}
	if len(raw.Topics) == 0 {
		return nil, fmt.Errorf("analysis returned no topics")
	}

	ts := make([]topics.Topic, 0, len(raw.Topics))
	for _, t := range raw.Topics {
		if t.Name == "" {
			continue
		}
		w := t.Weight
		if w <= 0 {
			// Fall back to uniform weighting when the model omits or
			// zeroes a weight.
			w = 1.0 / float64(len(raw.Topics))
		}
		ts = append(ts, topics.Topic{Name: t.Name, Weight: w})
	}

	set, err := topics.NewSet(ts)
	if err != nil {
		return nil, fmt.Errorf("build topic set: %w", err)
	}
	return set, nil
}
