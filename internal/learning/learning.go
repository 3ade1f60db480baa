package learning

import (
	"fmt"
	"slices"
)

// #region summarize
// Summarize scans decisions (newest first, already capped to the lookback
// window) for the persona's votes and ranks its recurring mistakes.
//
// A decision counts only when the persona voted and a final decision exists.
// A vote against the final decision with confidence above the threshold adds
// to high_confidence_mismatch; every red flag the persona raised adds to
// red_flag:<flag> regardless of agreement.
func Summarize(personaID string, decisions []Decision, confidenceThreshold float64) Summary {
	counts := newCounter()
	considered := 0

	for _, d := range decisions {
		v, ok := d.VoteBy(personaID)
		if !ok || d.FinalDecision == "" {
			continue
		}
		considered++

		if opposes(d.FinalDecision, v.Vote) && v.Confidence > confidenceThreshold {
			counts.inc(PatternHighConfidenceMismatch)
		}
		for _, flag := range v.RedFlags {
			counts.inc("red_flag:" + flag)
		}
	}

	return Summary{
		SourceDecisions: considered,
		MistakePatterns: counts.ranked(),
	}
}

// opposes reports whether vote contradicts final. Unknown final decisions
// have no expected vote and never count as a contradiction.
func opposes(final, vote string) bool {
	want, known := expectedVote[final]
	return known && vote != want
}
// #endregion summarize

// #region counter
// counter is an insertion-ordered tally.
type counter struct {
	order  []string
	counts map[string]int
}

func newCounter() *counter {
	return &counter{counts: make(map[string]int)}
}

func (c *counter) inc(key string) {
	if _, seen := c.counts[key]; !seen {
		c.order = append(c.order, key)
	}
	c.counts[key]++
}

// ranked returns "key:count" strings by descending count, stable on first-seen order.
func (c *counter) ranked() []string {
	keys := slices.Clone(c.order)
	slices.SortStableFunc(keys, func(a, b string) int {
		return c.counts[b] - c.counts[a]
	})
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = fmt.Sprintf("%s:%d", k, c.counts[k])
	}
	return out
}
// #endregion counter
