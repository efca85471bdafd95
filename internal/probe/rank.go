package probe

import "sort"

// Rank returns the k fastest outcomes, sorted by latency ascending.
// Outcomes without a measurement are dropped; ties keep input order.
// k <= 0 means no truncation.
func Rank(outcomes []*Outcome, k int) []*Outcome {
	ranked := make([]*Outcome, 0, len(outcomes))
	for _, o := range outcomes {
		if o.Success() {
			ranked = append(ranked, o)
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return *ranked[i].LatencyMS < *ranked[j].LatencyMS
	})

	if k > 0 && len(ranked) > k {
		ranked = ranked[:k]
	}
	return ranked
}
