package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jswider/quizforge/internal/llm"
)

// EventRepo records every model call for cost tracking and debugging.
// It satisfies llm.EventSink.
type EventRepo struct {
	db *sql.DB
}

// UsageSummary aggregates the recorded events.
type UsageSummary struct {
	Requests     int
	Failures     int
	InputTokens  int
	OutputTokens int
}

// AppendLLMRequest records one model call.
func (r *EventRepo) AppendLLMRequest(ctx context.Context, ev llm.RequestEvent) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO llm_events
			(provider, model, purpose, input_tokens, output_tokens, latency_ms, success, error_message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.Provider, ev.Model, ev.Purpose,
		ev.InputTokens, ev.OutputTokens, ev.LatencyMs,
		boolToInt(ev.Success), ev.ErrorMessage)
	if err != nil {
		return fmt.Errorf("save LLM request event: %w", err)
	}
	return nil
}

// LLMUsage totals the recorded events.
func (r *EventRepo) LLMUsage(ctx context.Context) (*UsageSummary, error) {
	var u UsageSummary
	err := r.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN success = 0 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(input_tokens), 0),
			COALESCE(SUM(output_tokens), 0)
		FROM llm_events`).
		Scan(&u.Requests, &u.Failures, &u.InputTokens, &u.OutputTokens)
	if err != nil {
		return nil, fmt.Errorf("aggregate LLM usage: %w", err)
	}
	return &u, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
