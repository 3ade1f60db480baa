package persona

import (
	"context"
	"fmt"

	"github.com/danielpatrickdp/persona-respawn/internal/identity"
)

// #region archetypes
type archetype struct {
	name           string
	bias           string
	nonNegotiables []string
	failureModes   []string
	reputation     float64
}

var packs = map[string][]archetype{
	"founder": {
		{
			name:           "Operator",
			bias:           "Ships the smallest change that works",
			nonNegotiables: []string{"Reversible rollout"},
			failureModes:   []string{"Underestimates long-term cost"},
			reputation:     0.6,
		},
		{
			name:           "Skeptic",
			bias:           "Assumes the plan is wrong until shown otherwise",
			nonNegotiables: []string{"Evidence before commitment"},
			failureModes:   []string{"Blocks on missing data"},
			reputation:     0.55,
		},
		{
			name:           "Customer Advocate",
			bias:           "Weighs every choice by user impact",
			nonNegotiables: []string{"No silent breaking changes"},
			failureModes:   []string{"Ignores operational load"},
			reputation:     0.6,
		},
		{
			name:           "Risk Officer",
			bias:           "Prices downside before upside",
			nonNegotiables: []string{"Compliance sign-off"},
			failureModes:   []string{"Treats every risk as blocking"},
			reputation:     0.5,
		},
		{
			name:           "Growth Lead",
			bias:           "Optimizes for reach and speed",
			nonNegotiables: []string{"Measurable outcome"},
			failureModes:   []string{"Overconfidence in projections"},
			reputation:     0.5,
		},
		{
			name:           "Architect",
			bias:           "Protects system coherence",
			nonNegotiables: []string{"Documented interfaces"},
			failureModes:   []string{"Gold-plating"},
			reputation:     0.55,
		},
	},
}
// #endregion archetypes

// #region pack-generator
// PackGenerator builds persona sets from built-in archetype packs. It is the
// in-process stand-in for the remote generator service.
type PackGenerator struct {
	ids identity.Source
}

// NewPackGenerator creates a generator that draws ids from ids.
func NewPackGenerator(ids identity.Source) *PackGenerator {
	return &PackGenerator{ids: ids}
}

// Generate returns req.NPersonas personas from req.PersonaPack. Archetypes
// repeat with a numeric suffix when more personas are requested than the
// pack holds.
func (g *PackGenerator) Generate(_ context.Context, req GenerateRequest) (GenerateResult, error) {
	pack, ok := packs[req.PersonaPack]
	if !ok {
		return GenerateResult{}, fmt.Errorf("unknown persona pack: %s", req.PersonaPack)
	}
	if req.NPersonas <= 0 {
		return GenerateResult{}, fmt.Errorf("n_personas must be positive, got %d", req.NPersonas)
	}

	personas := make([]Persona, req.NPersonas)
	for i := range personas {
		a := pack[i%len(pack)]
		name := a.name
		if round := i / len(pack); round > 0 {
			name = fmt.Sprintf("%s %d", a.name, round+1)
		}
		personas[i] = Persona{
			PersonaID:      NewPersonaID(g.ids),
			Name:           name,
			Bias:           a.bias,
			NonNegotiables: append([]string(nil), a.nonNegotiables...),
			FailureModes:   append([]string(nil), a.failureModes...),
			Reputation:     a.reputation,
		}
	}
	return GenerateResult{
		PersonaSetID: g.ids.NewID(),
		Personas:     personas,
	}, nil
}
// #endregion pack-generator

// NewPersonaID mints a persona id of the form persona_<8 chars>.
func NewPersonaID(ids identity.Source) string {
	return "persona_" + identity.Short(ids.NewID(), 8)
}
