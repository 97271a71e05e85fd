package topics

import (
	"errors"
	"strings"
	"time"
)

// WeightTolerance is the floating-point tolerance for the "weights sum
// to 1.0" invariant.
const WeightTolerance = 1e-9

// ErrEmptyTopicSet indicates an operation would leave the set without a
// single positive-weight topic. The workflow cannot proceed without one.
var ErrEmptyTopicSet = errors.New("topic set has no topics with positive weight")

// Topic is a named subject area with a relative importance weight.
type Topic struct {
	// ID is stable across revisions. Removals and reweights address the
	// topic by name, but the ID survives a remove-and-re-add of the same
	// name (see Merge).
	ID string `json:"id"`

	// Name is the display name shown to the user and used by feedback
	// diffs to address the topic.
	Name string `json:"name"`

	// Weight is the relative importance, non-negative. After every
	// revision the weights of a Set sum to 1.0.
	Weight float64 `json:"weight"`

	// Tags optionally relate the topic to a broader area. Flat labels,
	// no nesting.
	Tags []string `json:"tags,omitempty"`
}

// Set is the full, normalized collection of topics for a session.
// Insertion order is presentation order. Created by the extractor and
// mutated only through Merge; frozen once the negotiation confirms it.
type Set struct {
	Topics []Topic `json:"topics"`

	// Revision increases by exactly one on every successful Merge.
	Revision int `json:"revision"`

	// Confirmed marks the set immutable.
	Confirmed bool `json:"confirmed"`
}

// Diff is the structured result of interpreting a feedback instruction:
// topics to add, remove, and reweight.
type Diff struct {
	Add      []Addition `json:"add,omitempty"`
	Remove   []string   `json:"remove,omitempty"`
	Reweight []Reweight `json:"reweight,omitempty"`
}

// Addition describes a topic to add. Weight <= 0 means "use the default"
// (mean of the existing weights before normalization).
type Addition struct {
	Name   string  `json:"name"`
	Weight float64 `json:"weight,omitempty"`
}

// Reweight sets an explicit weight on an existing topic.
type Reweight struct {
	Name   string  `json:"name"`
	Weight float64 `json:"weight"`
}

// Empty reports whether the diff carries no changes at all.
func (d Diff) Empty() bool {
	return len(d.Add) == 0 && len(d.Remove) == 0 && len(d.Reweight) == 0
}

// FeedbackEvent records one feedback instruction and its outcome, for
// auditability and stale-revision detection. Events are recorded even
// when interpretation fails, with an empty diff and a warning.
type FeedbackEvent struct {
	Instruction string    `json:"instruction"`
	Revision    int       `json:"revision"` // revision the instruction applied against
	Diff        Diff      `json:"diff"`
	Applied     bool      `json:"applied"`
	Warning     string    `json:"warning,omitempty"`
	At          time.Time `json:"at"`
}

// Len returns the number of topics in the set.
func (s *Set) Len() int { return len(s.Topics) }

// Find returns the index of the topic with the given name, or -1.
// Name matching is case-insensitive to tolerate LLM-produced diffs.
func (s *Set) Find(name string) int {
	for i, t := range s.Topics {
		if strings.EqualFold(t.Name, name) {
			return i
		}
	}
	return -1
}

// Names returns the topic names in presentation order.
func (s *Set) Names() []string {
	out := make([]string, len(s.Topics))
	for i, t := range s.Topics {
		out[i] = t.Name
	}
	return out
}

// Clone returns a deep copy of the set.
func (s *Set) Clone() *Set {
	cp := &Set{
		Topics:    make([]Topic, len(s.Topics)),
		Revision:  s.Revision,
		Confirmed: s.Confirmed,
	}
	copy(cp.Topics, s.Topics)
	for i, t := range s.Topics {
		if len(t.Tags) > 0 {
			cp.Topics[i].Tags = append([]string(nil), t.Tags...)
		}
	}
	return cp
}

// TotalWeight returns the sum of all topic weights.
func (s *Set) TotalWeight() float64 {
	var total float64
	for _, t := range s.Topics {
		total += t.Weight
	}
	return total
}
