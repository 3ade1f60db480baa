package artifact

import (
	"encoding/json"
	"time"
)

// #region artifact-types
// Artifact types written by the respawn pipeline and its collaborators.
const (
	TypeDecision   = "decision"
	TypePersonaSet = "persona_set"
	TypeRespawn    = "persona_respawn"
)

// idFields names the payload field that identifies an artifact of each type.
var idFields = map[string]string{
	TypeDecision:   "decision_id",
	TypePersonaSet: "persona_set_id",
	TypeRespawn:    "respawn_id",
}
// #endregion artifact-types

// #region submission
// Artifact is one typed payload written for a board.
type Artifact struct {
	Type    string          `json:"type"`
	BoardID string          `json:"board_id"`
	Payload json.RawMessage `json:"payload"`
}

// Submission is an appended artifact with its position in the log.
type Submission struct {
	Seq       int64     `json:"seq"`
	Ref       string    `json:"ref"`
	Artifacts Artifact  `json:"artifacts"`
	CreatedAt time.Time `json:"created_at"`
}

// State is the whole submission log in write order.
type State struct {
	Submissions []Submission `json:"submissions"`
}
// #endregion submission
