package persona

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/elliotchance/pie/v2"
)

// #region persona
// Persona is a board participant profile. Fields the respawn pipeline does not
// interpret are kept in Extra and written back unchanged. Unrated marks a
// stored persona without a reputation field; it never meets a threshold.
type Persona struct {
	PersonaID      string
	Name           string
	Bias           string
	NonNegotiables []string
	FailureModes   []string
	Reputation     float64
	Unrated        bool
	Extra          map[string]json.RawMessage
}

// personaFields mirrors the known JSON fields of Persona.
type personaFields struct {
	PersonaID      string   `json:"persona_id"`
	Name           string   `json:"name"`
	Bias           string   `json:"bias"`
	NonNegotiables []string `json:"non_negotiables"`
	FailureModes   []string `json:"failure_modes"`
	Reputation     float64  `json:"reputation"`
}

var knownFields = []string{"persona_id", "name", "bias", "non_negotiables", "failure_modes", "reputation"}

// MarshalJSON writes known fields over the opaque ones.
func (p Persona) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(p.Extra)+len(knownFields))
	maps.Copy(out, p.Extra)

	known, err := json.Marshal(personaFields{
		PersonaID:      p.PersonaID,
		Name:           p.Name,
		Bias:           p.Bias,
		NonNegotiables: nonNil(p.NonNegotiables),
		FailureModes:   nonNil(p.FailureModes),
		Reputation:     p.Reputation,
	})
	if err != nil {
		return nil, err
	}
	var knownMap map[string]json.RawMessage
	if err := json.Unmarshal(known, &knownMap); err != nil {
		return nil, err
	}
	if p.Unrated {
		delete(knownMap, "reputation")
	}
	maps.Copy(out, knownMap)
	return json.Marshal(out)
}

// UnmarshalJSON splits a persona object into known fields and Extra.
func (p *Persona) UnmarshalJSON(data []byte) error {
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return fmt.Errorf("decode persona: %w", err)
	}
	var known personaFields
	if err := json.Unmarshal(data, &known); err != nil {
		return fmt.Errorf("decode persona fields: %w", err)
	}
	_, rated := all["reputation"]
	for _, k := range knownFields {
		delete(all, k)
	}
	*p = Persona{
		PersonaID:      known.PersonaID,
		Name:           known.Name,
		Bias:           known.Bias,
		NonNegotiables: known.NonNegotiables,
		FailureModes:   known.FailureModes,
		Reputation:     known.Reputation,
		Unrated:        !rated,
	}
	if len(all) > 0 {
		p.Extra = all
	}
	return nil
}

// Clone returns a deep copy so callers never share slices with the original.
func (p Persona) Clone() Persona {
	c := p
	c.NonNegotiables = slices.Clone(p.NonNegotiables)
	c.FailureModes = slices.Clone(p.FailureModes)
	if p.Extra != nil {
		c.Extra = make(map[string]json.RawMessage, len(p.Extra))
		for k, v := range p.Extra {
			c.Extra[k] = slices.Clone(v)
		}
	}
	return c
}
// #endregion persona

// #region persona-set
// Lineage points a persona set at the set it was derived from.
type Lineage struct {
	ParentPersonaSetID string `json:"parent_persona_set_id"`
}

// Set is an immutable, versioned list of personas for one board.
type Set struct {
	PersonaSetID string    `json:"persona_set_id"`
	BoardID      string    `json:"board_id,omitempty"`
	Personas     []Persona `json:"personas"`
	CreatedAt    time.Time `json:"created_at,omitzero"`
	UpdatedAt    time.Time `json:"updated_at,omitzero"`
	Lineage      *Lineage  `json:"lineage,omitempty"`
}

// Index returns the position of personaID in the set, or -1.
func (s Set) Index(personaID string) int {
	return pie.FindFirstUsing(s.Personas, func(p Persona) bool {
		return p.PersonaID == personaID
	})
}

// Count returns how many personas in the set carry personaID.
func (s Set) Count(personaID string) int {
	n := 0
	for _, p := range s.Personas {
		if p.PersonaID == personaID {
			n++
		}
	}
	return n
}

// Derive builds the successor set: replacedID swapped for next in place,
// every other persona kept in order, lineage pointing back at s.
func (s Set) Derive(newSetID, replacedID string, next Persona, now time.Time) Set {
	personas := make([]Persona, len(s.Personas))
	for i, p := range s.Personas {
		if p.PersonaID == replacedID {
			personas[i] = next.Clone()
			continue
		}
		personas[i] = p.Clone()
	}
	return Set{
		PersonaSetID: newSetID,
		BoardID:      s.BoardID,
		Personas:     personas,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    now,
		Lineage:      &Lineage{ParentPersonaSetID: s.PersonaSetID},
	}
}
// #endregion persona-set

// #region helpers
func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
// #endregion helpers
