package topics

import (
	"fmt"
	"strings"
)

// Normalize rescales the weights of topics so they sum to 1.0,
// preserving relative ratios. A set with zero total weight cannot be
// normalized and yields ErrEmptyTopicSet. Negative weights are rejected.
func Normalize(ts []Topic) error {
	var total float64
	for _, t := range ts {
		if t.Weight < 0 {
			return fmt.Errorf("topic %q has negative weight %v", t.Name, t.Weight)
		}
		total += t.Weight
	}
	if total <= 0 {
		return ErrEmptyTopicSet
	}
	for i := range ts {
		ts[i].Weight /= total
	}
	return nil
}

// Merge applies a feedback diff to the set and returns the revised set.
// The receiver is never mutated: on any error the caller keeps the
// original set unchanged. On success the returned set's revision is
// exactly base.Revision+1 and its weights are normalized.
//
// Reconciliation rules:
//   - A name both removed and re-added is a reweight of the existing
//     topic, keeping its ID (no delete+insert churn).
//   - A name both removed and reweighted is removed ("remove wins").
//   - Added topics without an explicit weight default to the mean of the
//     surviving weights before normalization.
//   - A reweight to zero removes the topic.
func Merge(base *Set, diff Diff) (*Set, error) {
	if base.Confirmed {
		return nil, fmt.Errorf("topic set is confirmed and immutable")
	}

	for _, a := range diff.Add {
		if a.Weight < 0 {
			return nil, fmt.Errorf("addition %q has negative weight %v", a.Name, a.Weight)
		}
	}
	for _, r := range diff.Reweight {
		if r.Weight < 0 {
			return nil, fmt.Errorf("reweight %q has negative weight %v", r.Name, r.Weight)
		}
	}

	next := base.Clone()

	removed := make(map[string]bool, len(diff.Remove))
	for _, name := range diff.Remove {
		removed[strings.ToLower(name)] = true
	}

	// Remove-and-re-add of the same name collapses to a reweight.
	reweights := append([]Reweight(nil), diff.Reweight...)
	var adds []Addition
	for _, a := range diff.Add {
		key := strings.ToLower(a.Name)
		if removed[key] && next.Find(a.Name) >= 0 {
			delete(removed, key)
			if a.Weight > 0 {
				reweights = append(reweights, Reweight{Name: a.Name, Weight: a.Weight})
			}
			continue
		}
		adds = append(adds, a)
	}

	// Removals. "Remove wins" over any reweight of the same name.
	if len(removed) > 0 {
		kept := next.Topics[:0]
		for _, t := range next.Topics {
			if !removed[strings.ToLower(t.Name)] {
				kept = append(kept, t)
			}
		}
		next.Topics = kept
	}

	// Default weight for additions: mean of surviving weights, taken
	// before the additions and before normalization.
	defaultWeight := 1.0
	if len(next.Topics) > 0 {
		defaultWeight = next.TotalWeight() / float64(len(next.Topics))
	}

	for _, a := range adds {
		if i := next.Find(a.Name); i >= 0 {
			// Adding an existing name is a reweight, not a duplicate.
			if a.Weight > 0 {
				next.Topics[i].Weight = a.Weight
			}
			continue
		}
		w := a.Weight
		if w <= 0 {
			w = defaultWeight
		}
		next.Topics = append(next.Topics, Topic{
			ID:     topicID(a.Name),
			Name:   a.Name,
			Weight: w,
		})
	}

	for _, r := range reweights {
		if removed[strings.ToLower(r.Name)] {
			continue
		}
		if i := next.Find(r.Name); i >= 0 {
			next.Topics[i].Weight = r.Weight
		}
	}

	// Zero weight means removed: it must not feed question generation.
	kept := next.Topics[:0]
	for _, t := range next.Topics {
		if t.Weight > 0 {
			kept = append(kept, t)
		}
	}
	next.Topics = kept

	if err := Normalize(next.Topics); err != nil {
		return nil, err
	}

	next.Revision = base.Revision + 1
	return next, nil
}
