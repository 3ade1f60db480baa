package request

// #region defaults
// Defaults is the single table of implicit trigger values. Selection,
// summarization and idempotency-key derivation all read from here so the
// key never drifts from what the pipeline actually did.
var Defaults = struct {
	MinReputation      float64
	Reason             string
	LookbackDecisions  int
	PersonaSetRef      string
	RespawnReputation  float64
	ConfidenceMismatch float64
}{
	MinReputation:      0.12,
	Reason:             "auto",
	LookbackDecisions:  50,
	PersonaSetRef:      "latest",
	RespawnReputation:  0.55,
	ConfidenceMismatch: 0.85,
}

// MaxLookbackDecisions caps lookback_decisions. Larger values are clamped
// before conversion so they cannot overflow int.
const MaxLookbackDecisions = 100_000
// #endregion defaults

// #region trigger
// Trigger describes which persona should be replaced and why.
type Trigger struct {
	PersonaID     string   `json:"persona_id,omitempty"`
	MinReputation *float64 `json:"min_reputation,omitempty"`
	Reason        string   `json:"reason,omitempty"`
}

// Threshold returns the reputation ceiling for automatic selection.
func (t Trigger) Threshold() float64 {
	if t.MinReputation != nil {
		return *t.MinReputation
	}
	return Defaults.MinReputation
}

// ReasonOrDefault returns the trigger reason, "auto" when unset.
func (t Trigger) ReasonOrDefault() string {
	if t.Reason != "" {
		return t.Reason
	}
	return Defaults.Reason
}

// Kind classifies the trigger for logging: explicit persona or threshold.
func (t Trigger) Kind() string {
	if t.PersonaID != "" {
		return "persona_id"
	}
	return "threshold"
}
// #endregion trigger

// #region request
// Request is a validated respawn request.
type Request struct {
	BoardID           string  `json:"board_id"`
	Trigger           Trigger `json:"trigger"`
	PersonaSetID      string  `json:"persona_set_id,omitempty"`
	LookbackDecisions int     `json:"lookback_decisions,omitempty"`
}

// Lookback returns how many recent decisions to scan.
func (r Request) Lookback() int {
	if r.LookbackDecisions > 0 {
		return r.LookbackDecisions
	}
	return Defaults.LookbackDecisions
}

// PersonaSetRef returns the explicit persona set id or "latest".
func (r Request) PersonaSetRef() string {
	if r.PersonaSetID != "" {
		return r.PersonaSetID
	}
	return Defaults.PersonaSetRef
}
// #endregion request
