package eval

import (
	"fmt"
	"math"

	"github.com/danielpatrickdp/persona-respawn/internal/persona"
)

// #region eval-harness
// EvalHarness checks lineage invariants on a freshly committed persona set.
type EvalHarness struct {
	config EvalConfig
}

// NewEvalHarness creates an eval harness with the given configuration.
func NewEvalHarness(config EvalConfig) *EvalHarness {
	return &EvalHarness{config: config}
}

// Run compares the updated set against the set it was derived from. It never
// touches the store; a failed result is reported, not rolled back.
func (h *EvalHarness) Run(parent, updated persona.Set, replacedID string, successor persona.Persona) EvalResult {
	var metrics []EvalMetric
	var failReasons []string

	check := func(name string, value float64, pass bool, reason string) {
		metrics = append(metrics, EvalMetric{Name: name, Value: value, Pass: pass})
		if !pass {
			failReasons = append(failReasons, reason)
		}
	}

	// 1. Lineage points back at the parent set
	lineageOK := updated.Lineage != nil && updated.Lineage.ParentPersonaSetID == parent.PersonaSetID
	check("lineage_parent", boolValue(lineageOK), lineageOK,
		fmt.Sprintf("lineage does not reference %s", parent.PersonaSetID))

	// 2. New version id
	freshID := updated.PersonaSetID != "" && updated.PersonaSetID != parent.PersonaSetID
	check("fresh_set_id", boolValue(freshID), freshID, "persona set id was not renewed")

	// 3. Replaced persona gone
	replaced := updated.Count(replacedID)
	check("replaced_absent", float64(replaced), replaced == 0,
		fmt.Sprintf("replaced persona %s still present %d times", replacedID, replaced))

	// 4. Successor present exactly once
	succ := updated.Count(successor.PersonaID)
	check("successor_present", float64(succ), succ == 1,
		fmt.Sprintf("successor %s present %d times", successor.PersonaID, succ))

	// 5. Set size preserved
	sizeOK := len(updated.Personas) == len(parent.Personas)
	check("size_preserved", float64(len(updated.Personas)), sizeOK,
		fmt.Sprintf("set size changed from %d to %d", len(parent.Personas), len(updated.Personas)))

	// 6. Everyone else untouched, in order
	changed := changedPositions(parent, updated, replacedID)
	check("others_unchanged", float64(changed), changed == 0,
		fmt.Sprintf("%d untouched personas changed", changed))

	// 7. Successor reputation reset
	repOK := math.Abs(successor.Reputation-h.config.SuccessorReputation) <= h.config.Tolerance
	check("successor_reputation", successor.Reputation, repOK,
		fmt.Sprintf("successor reputation %.4f, want %.4f", successor.Reputation, h.config.SuccessorReputation))

	reason := "all checks passed"
	if len(failReasons) == 1 {
		reason = fmt.Sprintf("eval failed: %s", failReasons[0])
	} else if len(failReasons) > 1 {
		reason = fmt.Sprintf("eval failed: %d checks: %s", len(failReasons), failReasons[0])
	}

	return EvalResult{
		Passed:  len(failReasons) == 0,
		Metrics: metrics,
		Reason:  reason,
	}
}

// #endregion eval-harness

// #region gap-detection
// DetectGap reports whether rec was recorded against latest but its persona
// set write never landed: the latest set is still the record's parent and
// still holds the persona the record replaced.
func DetectGap(latest persona.Set, rec *persona.RespawnRecord) bool {
	if rec == nil || rec.Response == nil || rec.ParentPersonaSetID == "" {
		return false
	}
	if latest.PersonaSetID != rec.ParentPersonaSetID {
		return false
	}
	return latest.Index(rec.ReplacedPersonaID) >= 0
}

// #endregion gap-detection

// #region helpers
func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// changedPositions counts personas other than replacedID whose id moved or
// disappeared between parent and updated.
func changedPositions(parent, updated persona.Set, replacedID string) int {
	n := 0
	for i, p := range parent.Personas {
		if p.PersonaID == replacedID {
			continue
		}
		if i >= len(updated.Personas) || updated.Personas[i].PersonaID != p.PersonaID {
			n++
		}
	}
	return n
}

// #endregion helpers
