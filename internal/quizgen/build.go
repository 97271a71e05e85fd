package quizgen

import (
	"context"
	"fmt"
	"strings"

	"github.com/jswider/quizforge/internal/topics"
)

// Builder produces the full ordered question sequence for a confirmed
// topic set.
type Builder struct {
	gen    Generator
	config Config
}

// NewBuilder creates a Builder.
func NewBuilder(gen Generator, cfg Config) *Builder {
	return &Builder{gen: gen, config: cfg}
}

// Build generates exactly n questions honoring the topic weights.
// Slots are allocated with largest-remainder rounding, generated per
// topic with exact-collision dedup (one regenerate), and interleaved
// round-robin across topics so consecutive questions rotate subjects.
//
// A slot whose topic exhausts its generation budget degrades
// gracefully: the slot moves to the largest topic that can still
// generate. ErrGenerationFailed escalates only when no topic can
// absorb a slot.
func (b *Builder) Build(ctx context.Context, set *topics.Set, n int) ([]*Question, error) {
	if set.Len() == 0 {
		return nil, topics.ErrEmptyTopicSet
	}
	if n <= 0 {
		return nil, fmt.Errorf("question count must be positive, got %d", n)
	}

	weights := make([]float64, set.Len())
	for i, t := range set.Topics {
		weights[i] = t.Weight
	}
	counts := Allocate(weights, n)
	difficulties := difficultySequence(n, b.config.DifficultyMix)

	perTopic := make([][]*Question, set.Len())
	seen := make([]map[string]bool, set.Len())
	for i := range seen {
		seen[i] = make(map[string]bool)
	}
	// A topic that exhausted its budget stops taking slots entirely.
	dead := make([]bool, set.Len())

	slot := 0
	var lastErr error
	for i := range set.Topics {
		for j := 0; j < counts[i]; j++ {
			difficulty := difficulties[slot%len(difficulties)]
			slot++

			placed := false
			for _, k := range candidateOrder(i, weights) {
				if dead[k] {
					continue
				}
				q, err := b.fillSlot(ctx, set.Topics[k], seen[k], difficulty)
				if err != nil {
					lastErr = err
					dead[k] = true
					continue
				}
				perTopic[k] = append(perTopic[k], q)
				placed = true
				break
			}
			if !placed {
				return nil, &ErrGenerationFailed{Topic: set.Topics[i].Name, Err: lastErr}
			}
		}
	}

	return interleave(perTopic, n), nil
}

// fillSlot generates one question, retrying within the per-slot budget
// and regenerating once on an exact prompt collision within the topic.
func (b *Builder) fillSlot(ctx context.Context, topic topics.Topic, seen map[string]bool, difficulty Difficulty) (*Question, error) {
	var lastErr error
	regenerated := false

	for attempt := 0; attempt < b.config.AttemptsPerSlot; attempt++ {
		q, err := b.gen.GenerateQuestion(ctx, topic, difficulty)
		if err != nil {
			lastErr = err
			continue
		}

		key := strings.ToLower(strings.TrimSpace(q.Prompt))
		if seen[key] && !regenerated {
			// Exact collision: reject once and regenerate. A second
			// collision is accepted rather than burning the budget.
			regenerated = true
			attempt--
			continue
		}

		seen[key] = true
		return q, nil
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("no generation attempts configured")
	}
	return nil, lastErr
}

// candidateOrder yields the preferred topic first, then the remaining
// topics by descending weight (presentation order breaks ties), for
// slot reallocation.
func candidateOrder(preferred int, weights []float64) []int {
	idx := make([]int, 0, len(weights))
	idx = append(idx, preferred)
	rest := make([]int, 0, len(weights)-1)
	for i := range weights {
		if i != preferred {
			rest = append(rest, i)
		}
	}
	// Insertion sort keeps ties stable without pulling in sort for a
	// handful of topics.
	for i := 1; i < len(rest); i++ {
		for j := i; j > 0 && weights[rest[j]] > weights[rest[j-1]]; j-- {
			rest[j], rest[j-1] = rest[j-1], rest[j]
		}
	}
	return append(idx, rest...)
}

// interleave merges per-topic question lists round-robin in topic
// presentation order, avoiding runs of one subject.
func interleave(perTopic [][]*Question, n int) []*Question {
	out := make([]*Question, 0, n)
	for round := 0; len(out) < n; round++ {
		appended := false
		for _, qs := range perTopic {
			if round < len(qs) {
				out = append(out, qs[round])
				appended = true
			}
		}
		if !appended {
			break
		}
	}
	return out
}
