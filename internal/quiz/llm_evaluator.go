package quiz

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jswider/quizforge/internal/llm"
)

// LLMEvaluator grades open answers against the model answer using the
// provider as judge.
type LLMEvaluator struct {
	provider  llm.Provider
	maxTokens int
}

// NewLLMEvaluator creates an evaluator over the provider.
func NewLLMEvaluator(provider llm.Provider) *LLMEvaluator {
	return &LLMEvaluator{provider: provider, maxTokens: 512}
}

const evaluatorSystemPrompt = `You grade a learner's free-text answer against a model answer.

Judge whether the learner's answer conveys the essential content of the
model answer. Wording differences do not matter; missing or wrong core
facts do. Assign a score between 0.0 and 1.0 reflecting how much of the
model answer's substance the learner covered, and mark the answer
correct when the score is 0.7 or higher. Give one sentence of feedback
the learner can act on.`

// EvalSchema is the structured grading output.
var EvalSchema = &llm.Schema{
	Name:        "answer-eval",
	Description: "Grading verdict for a free-text answer",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"correct": map[string]any{"type": "boolean"},
			"score": map[string]any{
				"type":    "number",
				"minimum": 0,
				"maximum": 1,
			},
			"feedback": map[string]any{"type": "string"},
		},
		"required":             []any{"correct", "score"},
		"additionalProperties": false,
	},
}

type evalOutput struct {
	Correct  bool    `json:"correct"`
	Score    float64 `json:"score"`
	Feedback string  `json:"feedback"`
}

// Evaluate asks the model to grade answer against answerKey.
func (e *LLMEvaluator) Evaluate(ctx context.Context, answer, answerKey string) (bool, float64, error) {
	ctx = llm.WithPurpose(ctx, "answer-eval")

	user := fmt.Sprintf("Model answer:\n%s\n\nLearner's answer:\n%s", answerKey, answer)
	req := llm.Request{
		System:    evaluatorSystemPrompt,
		Messages:  []llm.Message{{Role: llm.RoleUser, Content: user}},
		Schema:    EvalSchema,
		MaxTokens: e.maxTokens,
	}

	resp, err := e.provider.Generate(ctx, req)
	if err != nil {
		return false, 0, fmt.Errorf("evaluate answer: %w", err)
	}

	var out evalOutput
	if err := json.Unmarshal(resp.Content, &out); err != nil {
		return false, 0, fmt.Errorf("parse evaluation response: %w", err)
	}
	if out.Score < 0 {
		out.Score = 0
	}
	if out.Score > 1 {
		out.Score = 1
	}
	return out.Correct, out.Score, nil
}
