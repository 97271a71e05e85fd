package feedback

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jswider/quizforge/internal/llm"
	"github.com/jswider/quizforge/internal/topics"
)

// LLMInterpreter implements Interpreter using the model provider.
type LLMInterpreter struct {
	provider llm.Provider
	config   Config
}

// Config controls the LLM interpreter.
type Config struct {
	MaxTokens   int
	Temperature float64
}

// DefaultConfig returns the recommended interpreter settings.
func DefaultConfig() Config {
	return Config{MaxTokens: 768, Temperature: 0}
}

// NewInterpreter creates an LLMInterpreter.
func NewInterpreter(provider llm.Provider, cfg Config) *LLMInterpreter {
	return &LLMInterpreter{provider: provider, config: cfg}
}

// diffOutput is the raw structured response.
type diffOutput struct {
	Add []struct {
		Name   string  `json:"name"`
		Weight float64 `json:"weight"`
	} `json:"add"`
	Remove   []string `json:"remove"`
	Reweight []struct {
		Name   string  `json:"name"`
		Weight float64 `json:"weight"`
	} `json:"reweight"`
}

const interpretSystemPrompt = `You translate a user's free-text feedback about quiz topics into a structured change set.

Rules:
- "add" lists new topics the user wants; weight 0 means no preference (a default is applied).
- "remove" lists exact names of current topics the user wants dropped. Only use names from the current list.
- "reweight" sets an explicit new weight on a current topic (e.g. "focus more on X").
- Users may refer to topics by position ("remove topic 2"); resolve positions against the numbered current list.
- If the feedback asks for nothing actionable, return all three lists empty.
- Never restate the whole list; emit only the changes.`

// Interpret maps an instruction to a diff against the current set.
func (i *LLMInterpreter) Interpret(ctx context.Context, current *topics.Set, instruction string) (topics.Diff, error) {
	ctx = llm.WithPurpose(ctx, "feedback-interpret")

	req := llm.Request{
		System: interpretSystemPrompt,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: buildInterpretMessage(current, instruction)},
		},
		Schema:      DiffSchema,
		MaxTokens:   i.config.MaxTokens,
		Temperature: i.config.Temperature,
	}

	resp, err := i.provider.Generate(ctx, req)
	if err != nil {
		return topics.Diff{}, err
	}

	var raw diffOutput
	if err := json.Unmarshal(resp.Content, &raw); err != nil {
		return topics.Diff{}, fmt.Errorf("parse interpretation response: %w", err)
	}

	var diff topics.Diff
	for _, a := range raw.Add {
		if a.Name != "" {
			diff.Add = append(diff.Add, topics.Addition{Name: a.Name, Weight: a.Weight})
		}
	}
	for _, name := range raw.Remove {
		if name != "" {
			diff.Remove = append(diff.Remove, name)
		}
	}
	for _, r := range raw.Reweight {
		if r.Name != "" {
			diff.Reweight = append(diff.Reweight, topics.Reweight{Name: r.Name, Weight: r.Weight})
		}
	}
	return diff, nil
}

func buildInterpretMessage(current *topics.Set, instruction string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Current topics (revision %d):\n", current.Revision)
	for i, t := range current.Topics {
		fmt.Fprintf(&b, "%d. %s (weight %.2f)\n", i+1, t.Name, t.Weight)
	}
	fmt.Fprintf(&b, "\nUser feedback: %q\n", instruction)
	return b.String()
}

// DiffSchema is the structured output contract for feedback
// interpretation.
var DiffSchema = &llm.Schema{
	Name:        "topic-diff",
	Description: "Structured changes to apply to the current topic list",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"add": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"name":   map[string]any{"type": "string"},
						"weight": map[string]any{"type": "number", "minimum": 0, "maximum": 1},
					},
					"required":             []any{"name", "weight"},
					"additionalProperties": false,
				},
			},
			"remove": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string"},
			},
			"reweight": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"name":   map[string]any{"type": "string"},
						"weight": map[string]any{"type": "number", "minimum": 0, "maximum": 1},
					},
					"required":             []any{"name", "weight"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []any{"add", "remove", "reweight"},
		"additionalProperties": false,
	},
}
