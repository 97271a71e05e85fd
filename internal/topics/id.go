package topics

import "strings"

// topicID derives a stable identifier from a topic name. Names are
// unique within a set, so the slug is too, and it survives reweights
// and serialization round-trips.
func topicID(name string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// NewSet builds a normalized set at revision zero from raw topics.
// Topics without IDs get slug IDs. Used by the extractor.
func NewSet(ts []Topic) (*Set, error) {
	if len(ts) == 0 {
		return nil, ErrEmptyTopicSet
	}
	out := make([]Topic, 0, len(ts))
	for _, t := range ts {
		if t.ID == "" {
			t.ID = topicID(t.Name)
		}
		// Merge duplicates from independent extraction batches by
		// summing their weights.
		dup := false
		for i := range out {
			if strings.EqualFold(out[i].Name, t.Name) {
				out[i].Weight += t.Weight
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, t)
		}
	}
	if err := Normalize(out); err != nil {
		return nil, err
	}
	return &Set{Topics: out}, nil
}
