package mutate

import (
	"github.com/danielpatrickdp/persona-respawn/internal/persona"
	"github.com/danielpatrickdp/persona-respawn/internal/request"
)

// #region mutate-config
// MutateConfig holds the fixed values a successor persona is built with.
type MutateConfig struct {
	Reputation    float64 // baseline for an unproven persona
	TopPatterns   int     // mistake patterns cited in the bias
	NonNegotiable string  // appended to non_negotiables
	FailureMode   string  // appended to failure_modes
	NameSuffix    string
}

// DefaultMutateConfig returns the standard successor settings.
func DefaultMutateConfig() MutateConfig {
	return MutateConfig{
		Reputation:    request.Defaults.RespawnReputation,
		TopPatterns:   3,
		NonNegotiable: "Validate high-confidence disagreement",
		FailureMode:   "Overconfidence without evidence",
		NameSuffix:    " v2",
	}
}
// #endregion mutate-config

// #region mutate-result
// MutateResult bundles the successor persona and a short account of why it
// looks the way it does.
type MutateResult struct {
	Persona persona.Persona
	Reason  string
}
// #endregion mutate-result
