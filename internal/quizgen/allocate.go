package quizgen

import "sort"

// Allocate splits n question slots across weights using
// largest-remainder rounding, so the counts sum to exactly n despite
// fractional shares. When n >= len(weights), every positive-weight
// topic gets at least one slot; the deficit comes out of the largest
// allocations.
func Allocate(weights []float64, n int) []int {
	counts := make([]int, len(weights))
	if n <= 0 || len(weights) == 0 {
		return counts
	}

	var total float64
	for _, w := range weights {
		total += w
	}
	if total <= 0 {
		return counts
	}

	type slot struct {
		index     int
		remainder float64
	}
	remainders := make([]slot, 0, len(weights))

	assigned := 0
	for i, w := range weights {
		share := float64(n) * w / total
		counts[i] = int(share)
		assigned += counts[i]
		remainders = append(remainders, slot{index: i, remainder: share - float64(counts[i])})
	}

	// Hand the leftover slots to the largest fractional parts; ties go
	// to the earlier topic to keep the result deterministic.
	sort.SliceStable(remainders, func(a, b int) bool {
		return remainders[a].remainder > remainders[b].remainder
	})
	for i := 0; i < n-assigned; i++ {
		counts[remainders[i%len(remainders)].index]++
	}

	// Per-topic minimum of one question when there is room for it.
	if n >= len(weights) {
		for i, w := range weights {
			if w > 0 && counts[i] == 0 {
				counts[largestIndex(counts)]--
				counts[i]++
			}
		}
	}

	return counts
}

func largestIndex(counts []int) int {
	best := 0
	for i, c := range counts {
		if c > counts[best] {
			best = i
		}
	}
	return best
}
