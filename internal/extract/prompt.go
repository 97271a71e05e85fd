package extract

import (
	"fmt"
	"strings"

	"github.com/jswider/quizforge/internal/llm"
)

const systemPrompt = `You are an educational content analyst preparing a personalized quiz.

Rules:
- Read the provided document excerpts and extract the distinct subject topics they cover.
- Return roughly the requested number of topics. Merge near-duplicates into one topic.
- Topic names are short noun phrases, no weights or numbering inside the name.
- Assign each topic a weight in (0, 1] proportional to how much of the material covers it. Weights should sum to 1.0.
- Briefly justify each topic in its rationale.
- Only extract topics actually present in the excerpts. Never invent material.`

// buildUserMessage assembles the excerpt batch for the analysis call.
func buildUserMessage(excerpts []string, targetCount int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Target topic count: %d\n\nDocument excerpts:\n", targetCount)
	for i, ex := range excerpts {
		fmt.Fprintf(&b, "--- excerpt %d ---\n%s\n", i+1, ex)
	}
	return b.String()
}

// TopicsSchema is the structured output contract for topic extraction.
var TopicsSchema = &llm.Schema{
	Name:        "extracted-topics",
	Description: "Topics found in the document excerpts, weighted by coverage",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"topics": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"name": map[string]any{
							"type":        "string",
							"description": "Short topic name, a noun phrase",
						},
						"weight": map[string]any{
							"type":        "number",
							"minimum":     0,
							"maximum":     1,
							"description": "Share of the material covering this topic",
						},
						"rationale": map[string]any{
							"type":        "string",
							"description": "Why this topic was extracted",
						},
					},
					"required":             []any{"name", "weight", "rationale"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []any{"topics"},
		"additionalProperties": false,
	},
}
