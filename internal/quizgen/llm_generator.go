package quizgen

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/jswider/quizforge/internal/llm"
	"github.com/jswider/quizforge/internal/topics"
)

// LLMGenerator implements Generator using the model provider.
type LLMGenerator struct {
	provider llm.Provider
	config   Config
}

// New creates an LLMGenerator.
func New(provider llm.Provider, cfg Config) *LLMGenerator {
	return &LLMGenerator{provider: provider, config: cfg}
}

// questionOutput is the raw structured response before validation.
type questionOutput struct {
	Prompt      string   `json:"prompt"`
	Kind        string   `json:"kind"`
	Choices     []string `json:"choices"`
	AnswerKey   []string `json:"answer_key"`
	Explanation string   `json:"explanation"`
}

const questionSystemPrompt = `You are a quiz author creating exam questions from study material topics.

Rules:
- Generate a single question for the given topic at the given difficulty.
- kind "single_choice": exactly 4 choices, answer_key holds the one correct choice verbatim.
- kind "multi_choice": 4 to 6 choices, answer_key holds every correct choice verbatim (2 or more).
- kind "open": no choices, answer_key holds one concise reference answer.
- Distractors must be plausible mistakes, not obviously wrong fillers.
- The explanation states why the key is correct, in two sentences or fewer.
- Prefer single_choice unless the topic clearly calls for another kind.`

// GenerateQuestion produces one question for the topic.
func (g *LLMGenerator) GenerateQuestion(ctx context.Context, topic topics.Topic, difficulty Difficulty) (*Question, error) {
	ctx = llm.WithPurpose(ctx, "question-gen")

	userMsg := fmt.Sprintf("Topic: %s\nDifficulty: %s\n", topic.Name, difficulty)

	resp, err := g.provider.Generate(ctx, llm.Request{
		System: questionSystemPrompt,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: userMsg},
		},
		Schema:      QuestionSchema,
		MaxTokens:   g.config.MaxTokens,
		Temperature: g.config.Temperature,
	})
	if err != nil {
		return nil, err
	}

	var raw questionOutput
	if err := json.Unmarshal(resp.Content, &raw); err != nil {
		return nil, fmt.Errorf("parse question response: %w", err)
	}

	q := &Question{
		ID:          uuid.NewString(),
		TopicID:     topic.ID,
		Topic:       topic.Name,
		Prompt:      raw.Prompt,
		Kind:        Kind(raw.Kind),
		Choices:     raw.Choices,
		AnswerKey:   raw.AnswerKey,
		Difficulty:  difficulty,
		Explanation: raw.Explanation,
	}
	if err := validateQuestion(q); err != nil {
		return nil, err
	}
	return q, nil
}

// validateQuestion enforces the cross-field rules the JSON schema
// cannot express.
func validateQuestion(q *Question) error {
	if q.Prompt == "" {
		return fmt.Errorf("question has empty prompt")
	}
	if len(q.AnswerKey) == 0 {
		return fmt.Errorf("question has empty answer key")
	}

	switch q.Kind {
	case KindSingleChoice:
		if len(q.Choices) < 2 {
			return fmt.Errorf("single_choice question needs choices, got %d", len(q.Choices))
		}
		if len(q.AnswerKey) != 1 {
			return fmt.Errorf("single_choice answer key must have one entry, got %d", len(q.AnswerKey))
		}
		if !containsAll(q.Choices, q.AnswerKey) {
			return fmt.Errorf("answer key not among choices")
		}
	case KindMultiChoice:
		if len(q.Choices) < 2 {
			return fmt.Errorf("multi_choice question needs choices, got %d", len(q.Choices))
		}
		if !containsAll(q.Choices, q.AnswerKey) {
			return fmt.Errorf("answer key not among choices")
		}
	case KindOpen:
		if len(q.Choices) != 0 {
			return fmt.Errorf("open question must not have choices")
		}
	default:
		return fmt.Errorf("unknown question kind %q", q.Kind)
	}
	return nil
}

func containsAll(haystack, needles []string) bool {
	set := make(map[string]bool, len(haystack))
	for _, h := range haystack {
		set[h] = true
	}
	for _, n := range needles {
		if !set[n] {
			return false
		}
	}
	return true
}

// QuestionSchema is the structured output contract for question
// generation.
var QuestionSchema = &llm.Schema{
	Name:        "quiz-question",
	Description: "A single quiz question with its answer key",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"prompt": map[string]any{
				"type":        "string",
				"description": "The question text shown to the user",
			},
			"kind": map[string]any{
				"type":        "string",
				"enum":        []any{"single_choice", "multi_choice", "open"},
				"description": "Answer format",
			},
			"choices": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Options for choice questions; empty for open questions",
			},
			"answer_key": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Correct choice text(s), or the reference answer for open questions",
			},
			"explanation": map[string]any{
				"type":        "string",
				"description": "Why the answer key is correct",
			},
		},
		"required":             []any{"prompt", "kind", "choices", "answer_key", "explanation"},
		"additionalProperties": false,
	},
}
