package persona

import (
	"time"

	"github.com/danielpatrickdp/persona-respawn/internal/learning"
)

// #region board-write
// BoardWrite reports one artifact write performed by a respawn.
type BoardWrite struct {
	Type    string `json:"type"`
	Success bool   `json:"success"`
	Ref     string `json:"ref"`
}
// #endregion board-write

// #region response
// Response is the successful result of a respawn.
type Response struct {
	BoardID           string           `json:"board_id"`
	RespawnID         string           `json:"respawn_id"`
	Timestamp         time.Time        `json:"timestamp"`
	ReplacedPersonaID string           `json:"replaced_persona_id"`
	NewPersona        Persona          `json:"new_persona"`
	LearningSummary   learning.Summary `json:"learning_summary"`
	BoardWrites       []BoardWrite     `json:"board_writes"`
}
// #endregion response

// #region respawn-record
// RespawnRecord is the persona_respawn artifact payload. The latest one per
// board backs the idempotency check. PersonaSetID names the set the respawn
// writes after the record; the record only counts as committed once that set
// exists.
type RespawnRecord struct {
	IdempotencyKey     string           `json:"idempotency_key"`
	RespawnID          string           `json:"respawn_id"`
	ReplacedPersonaID  string           `json:"replaced_persona_id"`
	ParentPersonaSetID string           `json:"parent_persona_set_id,omitempty"`
	PersonaSetID       string           `json:"persona_set_id,omitempty"`
	LearningSummary    learning.Summary `json:"learning_summary"`
	Response           *Response        `json:"response,omitempty"`
}
// #endregion respawn-record
