package gate

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/danielpatrickdp/persona-respawn/internal/artifact"
	"github.com/danielpatrickdp/persona-respawn/internal/persona"
	"github.com/danielpatrickdp/persona-respawn/internal/request"
)

// #region key
// keyInput is the logical identity of a respawn request. Field order is fixed
// by the struct, so the JSON encoding is canonical.
type keyInput struct {
	BoardID       string  `json:"board_id"`
	PersonaSetID  string  `json:"persona_set_id"`
	PersonaID     *string `json:"persona_id"`
	MinReputation float64 `json:"min_reputation"`
	Reason        string  `json:"reason"`
}

// Key derives the idempotency key for req. Implicit values come from
// request.Defaults, so a request that spells out a default and one that omits
// it share a key.
func Key(req request.Request) string {
	in := keyInput{
		BoardID:       req.BoardID,
		PersonaSetID:  req.PersonaSetRef(),
		MinReputation: req.Trigger.Threshold(),
		Reason:        req.Trigger.ReasonOrDefault(),
	}
	if req.Trigger.PersonaID != "" {
		id := req.Trigger.PersonaID
		in.PersonaID = &id
	}
	data, _ := json.Marshal(in) // cannot fail: strings and a float
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
// #endregion key

// #region gate
// Gate suppresses duplicate respawns by comparing the request key with the
// key on the board's latest respawn record.
//
// Only the latest record is consulted. Two identical requests racing each
// other can both miss the check and both commit; the later persona set then
// wins as "latest". Closing that gap needs compare-and-swap from the store.
type Gate struct {
	store Reader
}

// NewGate creates a gate reading respawn records and persona sets from store.
func NewGate(store Reader) *Gate {
	return &Gate{store: store}
}

// Evaluate returns replay with the cached response when the latest respawn
// record carries key and a response and its persona set was written;
// proceed otherwise. A record whose persona set is missing never replays.
func (g *Gate) Evaluate(ctx context.Context, boardID, key string) (GateDecision, error) {
	rec, err := LatestRecord(ctx, g.store, boardID)
	if err != nil {
		return GateDecision{}, err
	}
	if rec == nil {
		return GateDecision{Action: ActionProceed, Reason: "no prior respawn"}, nil
	}
	if rec.IdempotencyKey != key {
		return GateDecision{Action: ActionProceed, Reason: "latest respawn has a different key", Latest: rec}, nil
	}
	if rec.Response == nil {
		return GateDecision{Action: ActionProceed, Reason: "latest respawn has no cached response", Latest: rec}, nil
	}
	if rec.PersonaSetID != "" {
		_, ok, err := g.store.ByID(ctx, boardID, artifact.TypePersonaSet, rec.PersonaSetID)
		if err != nil {
			return GateDecision{}, fmt.Errorf("read respawn persona set: %w", err)
		}
		if !ok {
			return GateDecision{
				Action: ActionProceed,
				Reason: fmt.Sprintf("persona set %s of respawn %s was never written", rec.PersonaSetID, rec.RespawnID),
				Latest: rec,
			}, nil
		}
	}
	return GateDecision{
		Action: ActionReplay,
		Reason: fmt.Sprintf("matches respawn %s", rec.RespawnID),
		Cached: rec.Response,
		Latest: rec,
	}, nil
}
// #endregion gate

// #region latest-record
// LatestRecord loads and decodes the board's most recent respawn record. It
// returns nil when the board has none.
func LatestRecord(ctx context.Context, store LatestReader, boardID string) (*persona.RespawnRecord, error) {
	payload, ok, err := store.Latest(ctx, boardID, artifact.TypeRespawn)
	if err != nil {
		return nil, fmt.Errorf("read latest respawn: %w", err)
	}
	if !ok {
		return nil, nil
	}
	var rec persona.RespawnRecord
	if err := json.Unmarshal(payload, &rec); err != nil {
		return nil, fmt.Errorf("decode latest respawn: %w", err)
	}
	return &rec, nil
}
// #endregion latest-record
