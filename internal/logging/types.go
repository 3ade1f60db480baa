package logging

import "time"

// #region decisions
// Pipeline outcomes recorded in the provenance log.
const (
	DecisionCommit        = "commit"
	DecisionReplay        = "replay"
	DecisionNoDeadPersona = "no_dead_persona"
	DecisionReconcile     = "reconcile"
	DecisionFailed        = "failed"
)
// #endregion decisions

// #region provenance-entry
// ProvenanceEntry is a single row in the provenance_log table.
type ProvenanceEntry struct {
	BoardID        string
	RespawnID      string
	IdempotencyKey string
	TriggerType    string // "persona_id" | "threshold"
	Decision       string
	Reason         string
	CreatedAt      time.Time
}
// #endregion provenance-entry
