package quizgen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/jswider/quizforge/internal/llm"
	"github.com/jswider/quizforge/internal/topics"
)

func TestAllocate_LargestRemainder(t *testing.T) {
	got := Allocate([]float64{0.5, 0.3, 0.2}, 10)
	want := []int{5, 3, 2}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Allocate = %v, want %v", got, want)
		}
	}
}

func TestAllocate_FractionalShares(t *testing.T) {
	got := Allocate([]float64{1, 1, 1}, 10)
	sum := got[0] + got[1] + got[2]
	if sum != 10 {
		t.Fatalf("allocation sums to %d, want 10: %v", sum, got)
	}
	// 10/3: two topics get 3, one gets 4 via the largest remainder.
	for _, c := range got {
		if c < 3 || c > 4 {
			t.Errorf("unexpected count %d in %v", c, got)
		}
	}
}

func TestAllocate_PerTopicMinimum(t *testing.T) {
	got := Allocate([]float64{0.9, 0.05, 0.05}, 4)
	sum := 0
	for i, c := range got {
		sum += c
		if c == 0 {
			t.Errorf("topic %d got no slots despite n >= topic count: %v", i, got)
		}
	}
	if sum != 4 {
		t.Errorf("allocation sums to %d, want 4", sum)
	}
}

func TestAllocate_FewerSlotsThanTopics(t *testing.T) {
	got := Allocate([]float64{0.5, 0.3, 0.2}, 2)
	sum := got[0] + got[1] + got[2]
	if sum != 2 {
		t.Errorf("allocation sums to %d, want 2: %v", sum, got)
	}
}

// stubGenerator serves questions from a script keyed by topic name.
type stubGenerator struct {
	prompts map[string][]string // popped in order per topic
	fail    map[string]bool     // topics that always fail
	calls   int
}

func (s *stubGenerator) GenerateQuestion(_ context.Context, topic topics.Topic, difficulty Difficulty) (*Question, error) {
	s.calls++
	if s.fail[topic.Name] {
		return nil, &llm.ErrUnavailable{}
	}
	prompt := fmt.Sprintf("%s question %d", topic.Name, s.calls)
	if q := s.prompts[topic.Name]; len(q) > 0 {
		prompt = q[0]
		s.prompts[topic.Name] = q[1:]
	}
	return &Question{
		ID:         fmt.Sprintf("q%d", s.calls),
		TopicID:    topic.ID,
		Topic:      topic.Name,
		Prompt:     prompt,
		Kind:       KindSingleChoice,
		Choices:    []string{"a", "b", "c", "d"},
		AnswerKey:  []string{"a"},
		Difficulty: difficulty,
	}, nil
}

func confirmedSet(t *testing.T, ws ...float64) *topics.Set {
	t.Helper()
	names := []string{"Virtual Memory", "Scheduling", "File Systems", "Deadlocks"}
	ts := make([]topics.Topic, len(ws))
	for i, w := range ws {
		ts[i] = topics.Topic{Name: names[i], Weight: w}
	}
	s, err := topics.NewSet(ts)
	if err != nil {
		t.Fatal(err)
	}
	s.Confirmed = true
	return s
}

func TestBuild_CountAndDistribution(t *testing.T) {
	gen := &stubGenerator{}
	b := NewBuilder(gen, DefaultConfig())
	set := confirmedSet(t, 0.5, 0.3, 0.2)

	qs, err := b.Build(context.Background(), set, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(qs) != 10 {
		t.Fatalf("expected 10 questions, got %d", len(qs))
	}

	perTopic := make(map[string]int)
	for _, q := range qs {
		perTopic[q.Topic]++
	}
	if perTopic["Virtual Memory"] != 5 || perTopic["Scheduling"] != 3 || perTopic["File Systems"] != 2 {
		t.Errorf("unexpected distribution: %v", perTopic)
	}
}

func TestBuild_RoundRobinInterleave(t *testing.T) {
	gen := &stubGenerator{}
	b := NewBuilder(gen, DefaultConfig())
	set := confirmedSet(t, 0.34, 0.33, 0.33)

	qs, err := b.Build(context.Background(), set, 6)
	if err != nil {
		t.Fatal(err)
	}
	// First round covers each topic once before any repeats.
	seen := make(map[string]bool)
	for _, q := range qs[:3] {
		if seen[q.Topic] {
			t.Errorf("topic %q repeated within the first round: %v", q.Topic, topicsOf(qs))
		}
		seen[q.Topic] = true
	}
}

func topicsOf(qs []*Question) []string {
	out := make([]string, len(qs))
	for i, q := range qs {
		out[i] = q.Topic
	}
	return out
}

func TestBuild_DedupRegeneratesOnCollision(t *testing.T) {
	gen := &stubGenerator{prompts: map[string][]string{
		"Virtual Memory": {"same prompt", "same prompt", "fresh prompt"},
	}}
	b := NewBuilder(gen, DefaultConfig())
	set := confirmedSet(t, 1.0)

	qs, err := b.Build(context.Background(), set, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(qs) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(qs))
	}
	if qs[0].Prompt == qs[1].Prompt {
		t.Errorf("collision not regenerated: %q", qs[0].Prompt)
	}
}

func TestBuild_ReallocatesFailedTopic(t *testing.T) {
	gen := &stubGenerator{fail: map[string]bool{"File Systems": true}}
	b := NewBuilder(gen, DefaultConfig())
	set := confirmedSet(t, 0.5, 0.3, 0.2)

	qs, err := b.Build(context.Background(), set, 10)
	if err != nil {
		t.Fatalf("failed slots should reallocate, got error: %v", err)
	}
	if len(qs) != 10 {
		t.Fatalf("expected 10 questions, got %d", len(qs))
	}
	for _, q := range qs {
		if q.Topic == "File Systems" {
			t.Error("questions generated for a failing topic")
		}
	}
}

func TestBuild_EscalatesWhenNoTopicCanAbsorb(t *testing.T) {
	gen := &stubGenerator{fail: map[string]bool{
		"Virtual Memory": true, "Scheduling": true, "File Systems": true,
	}}
	b := NewBuilder(gen, DefaultConfig())
	set := confirmedSet(t, 0.5, 0.3, 0.2)

	_, err := b.Build(context.Background(), set, 5)
	var failed *ErrGenerationFailed
	if !errors.As(err, &failed) {
		t.Fatalf("expected ErrGenerationFailed, got %v", err)
	}
}

func TestLLMGenerator(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: json.RawMessage(`{
		"prompt": "Which page replacement policy evicts the least recently used page?",
		"kind": "single_choice",
		"choices": ["FIFO", "LRU", "Clock", "Random"],
		"answer_key": ["LRU"],
		"explanation": "LRU evicts the page unused for the longest time."
	}`)})
	gen := New(mock, DefaultConfig())

	q, err := gen.GenerateQuestion(context.Background(),
		topics.Topic{ID: "virtual-memory", Name: "Virtual Memory"}, DifficultyMedium)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.TopicID != "virtual-memory" {
		t.Errorf("topic ID not carried: %q", q.TopicID)
	}
	if q.Kind != KindSingleChoice || len(q.Choices) != 4 {
		t.Errorf("unexpected question shape: %+v", q)
	}
	if q.ID == "" {
		t.Error("question ID missing")
	}
}

func TestLLMGenerator_AnswerKeyMustMatchChoices(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: json.RawMessage(`{
		"prompt": "Pick one",
		"kind": "single_choice",
		"choices": ["a", "b", "c", "d"],
		"answer_key": ["e"],
		"explanation": "broken"
	}`)})
	gen := New(mock, DefaultConfig())

	if _, err := gen.GenerateQuestion(context.Background(),
		topics.Topic{Name: "Virtual Memory"}, DifficultyEasy); err == nil {
		t.Error("expected validation error for key outside choices")
	}
}
