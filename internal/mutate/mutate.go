package mutate

import (
	"fmt"
	"strings"

	"github.com/danielpatrickdp/persona-respawn/internal/identity"
	"github.com/danielpatrickdp/persona-respawn/internal/learning"
	"github.com/danielpatrickdp/persona-respawn/internal/persona"
)

// #region mutate-function
// Mutate builds the successor of old from its learning summary. Apart from the
// persona id drawn from ids, the result depends only on old, summary and
// config. old is never modified.
func Mutate(old persona.Persona, summary learning.Summary, ids identity.Source, config MutateConfig) MutateResult {
	next := old.Clone()

	top := summary.Top(config.TopPatterns)
	cited := "none"
	if len(top) > 0 {
		cited = strings.Join(top, ", ")
	}

	next.PersonaID = persona.NewPersonaID(ids)
	next.Name = old.Name + config.NameSuffix
	next.Bias = fmt.Sprintf("Adjusted from ledger mistakes (%s)", cited)
	next.NonNegotiables = union(old.NonNegotiables, config.NonNegotiable)
	next.FailureModes = union(old.FailureModes, config.FailureMode)
	next.Reputation = config.Reputation
	next.Unrated = false

	return MutateResult{
		Persona: next,
		Reason: fmt.Sprintf("replaced %s after %d decisions, patterns: %s",
			old.PersonaID, summary.SourceDecisions, cited),
	}
}
// #endregion mutate-function

// #region helpers
// union appends extra to base, dropping duplicates while keeping first-seen order.
func union(base []string, extra ...string) []string {
	seen := make(map[string]bool, len(base)+len(extra))
	out := make([]string, 0, len(base)+len(extra))
	for _, group := range [][]string{base, extra} {
		for _, s := range group {
			if seen[s] {
				continue
			}
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
// #endregion helpers
