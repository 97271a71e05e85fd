package llm

import (
	"context"
	"fmt"
	"os"
	"time"
)

// RequestEvent describes one model call for the audit trail.
type RequestEvent struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
}

// EventSink receives request events. The store's event repository
// implements this; tests use an in-memory sink.
type EventSink interface {
	AppendLLMRequest(ctx context.Context, ev RequestEvent) error
}

type loggingProvider struct {
	inner Provider
	sink  EventSink
}

// WithLogging wraps a Provider so every request is recorded as an
// event. A failing sink never fails the request.
func WithLogging(p Provider, sink EventSink) Provider {
	return &loggingProvider{inner: p, sink: sink}
}

func (l *loggingProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	resp, err := l.inner.Generate(ctx, req)

	ev := RequestEvent{
		Provider:  l.inner.ModelID(),
		Model:     l.inner.ModelID(),
		Purpose:   PurposeFrom(ctx),
		LatencyMs: time.Since(start).Milliseconds(),
		Success:   err == nil,
	}
	if resp != nil {
		ev.Model = resp.Model
		ev.InputTokens = resp.Usage.InputTokens
		ev.OutputTokens = resp.Usage.OutputTokens
	}
	if err != nil {
		ev.ErrorMessage = err.Error()
	}

	if logErr := l.sink.AppendLLMRequest(ctx, ev); logErr != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to record LLM request event: %v\n", logErr)
	}

	return resp, err
}

func (l *loggingProvider) ModelID() string { return l.inner.ModelID() }
