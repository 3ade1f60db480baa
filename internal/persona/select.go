package persona

import (
	"cmp"
	"slices"
)

// #region select
// Select picks the persona to replace. With an explicit personaID the set is
// searched for that id. Otherwise the lowest-reputation persona at or below
// threshold wins, ties going to the earlier persona in the set; unrated
// personas never qualify. The boolean is false when nothing qualifies.
func Select(set Set, personaID string, threshold float64) (Persona, bool) {
	if personaID != "" {
		i := set.Index(personaID)
		if i < 0 {
			return Persona{}, false
		}
		return set.Personas[i], true
	}

	ranked := slices.DeleteFunc(slices.Clone(set.Personas), func(p Persona) bool {
		return p.Unrated
	})
	slices.SortStableFunc(ranked, func(a, b Persona) int {
		return cmp.Compare(a.Reputation, b.Reputation)
	})
	for _, p := range ranked {
		if p.Reputation <= threshold {
			return p, true
		}
	}
	return Persona{}, false
}
// #endregion select
