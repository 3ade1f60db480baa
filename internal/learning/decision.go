package learning

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// #region normalize
// Normalize reads a decision artifact payload. Votes and final_decision may
// sit at the top level or nested under "response"; the top level wins when
// present.
func Normalize(payload json.RawMessage) (Decision, error) {
	var doc map[string]any
	if err := json.Unmarshal(payload, &doc); err != nil {
		return Decision{}, fmt.Errorf("decode decision: %w", err)
	}
	nested, _ := doc["response"].(map[string]any)

	d := Decision{}
	d.BoardID, _ = doc["board_id"].(string)

	rawVotes, ok := doc["votes"].([]any)
	if !ok && nested != nil {
		rawVotes, _ = nested["votes"].([]any)
	}
	for _, rv := range rawVotes {
		if v, ok := toVote(rv); ok {
			d.Votes = append(d.Votes, v)
		}
	}

	d.FinalDecision, _ = doc["final_decision"].(string)
	if d.FinalDecision == "" && nested != nil {
		d.FinalDecision, _ = nested["final_decision"].(string)
	}
	return d, nil
}

// VoteBy returns the vote cast by personaID, if any.
func (d Decision) VoteBy(personaID string) (Vote, bool) {
	for _, v := range d.Votes {
		if v.PersonaID == personaID {
			return v, true
		}
	}
	return Vote{}, false
}
// #endregion normalize

// #region helpers
func toVote(raw any) (Vote, bool) {
	m, ok := raw.(map[string]any)
	if !ok {
		return Vote{}, false
	}
	v := Vote{}
	v.PersonaID, _ = m["persona_id"].(string)
	v.Vote, _ = m["vote"].(string)
	v.Confidence = toFloat(m["confidence"])
	if flags, ok := m["red_flags"].([]any); ok {
		for _, f := range flags {
			if s, ok := f.(string); ok {
				v.RedFlags = append(v.RedFlags, s)
			}
		}
	}
	return v, true
}

// toFloat treats anything that is not numeric as zero confidence.
func toFloat(raw any) float64 {
	switch n := raw.(type) {
	case float64:
		return n
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}
// #endregion helpers
