package gate

import (
	"context"
	"encoding/json"

	"github.com/danielpatrickdp/persona-respawn/internal/persona"
)

// #region actions
// Gate actions.
const (
	ActionReplay  = "replay"  // a prior respawn already served this request
	ActionProceed = "proceed" // no matching respawn; run the pipeline
)
// #endregion actions

// #region readers
// LatestReader reads the most recent artifact of a type for a board.
type LatestReader interface {
	Latest(ctx context.Context, boardID, artifactType string) (json.RawMessage, bool, error)
}

// Reader adds lookup by artifact id, used to confirm a respawn's persona set
// landed before its response is replayed.
type Reader interface {
	LatestReader
	ByID(ctx context.Context, boardID, artifactType, id string) (json.RawMessage, bool, error)
}
// #endregion readers

// #region gate-decision
// GateDecision is the output of the idempotency check.
type GateDecision struct {
	Action string
	Reason string
	// Cached is the stored response to return unchanged when Action is replay.
	Cached *persona.Response
	// Latest is the most recent respawn record for the board, if any.
	Latest *persona.RespawnRecord
}
// #endregion gate-decision
