package respawn

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/danielpatrickdp/persona-respawn/internal/artifact"
	"github.com/danielpatrickdp/persona-respawn/internal/eval"
	"github.com/danielpatrickdp/persona-respawn/internal/gate"
	"github.com/danielpatrickdp/persona-respawn/internal/logging"
	"github.com/danielpatrickdp/persona-respawn/internal/persona"
	"github.com/danielpatrickdp/persona-respawn/internal/request"
	"github.com/samber/oops"
)

// #region resolve

// resolve returns the persona set the request applies to. An explicit id
// that is not on the board is treated like a board with no set: a fresh one
// is generated. "latest" is checked for a partial commit first. Explicit and
// seeded sets are not repaired; the gate sees their missing write and the
// request runs again.
func (s *Service) resolve(ctx context.Context, req request.Request) (persona.Set, error) {
	if req.PersonaSetID != "" {
		payload, ok, err := s.store.ByID(ctx, req.BoardID, artifact.TypePersonaSet, req.PersonaSetID)
		if err != nil {
			return persona.Set{}, respawnFailed(oops.In("resolve").With("board_id", req.BoardID).Wrapf(err, "read persona set"))
		}
		if !ok {
			return s.seed(ctx, req.BoardID)
		}
		return decodeSet(req.BoardID, payload)
	}

	payload, ok, err := s.store.Latest(ctx, req.BoardID, artifact.TypePersonaSet)
	if err != nil {
		return persona.Set{}, respawnFailed(oops.In("resolve").With("board_id", req.BoardID).Wrapf(err, "read latest persona set"))
	}
	if !ok {
		return s.seed(ctx, req.BoardID)
	}
	set, err := decodeSet(req.BoardID, payload)
	if err != nil {
		return persona.Set{}, err
	}
	return s.reconcile(ctx, req, set)
}

// seed asks the generator for a first persona set. The seeded set is not
// persisted; the respawn's own persona set write is the board's first.
func (s *Service) seed(ctx context.Context, boardID string) (persona.Set, error) {
	res, err := s.generator.Generate(ctx, persona.SeedRequest(boardID))
	if err != nil {
		return persona.Set{}, generationFailed(err)
	}
	s.logger.Info("persona set seeded",
		"board_id", boardID, "persona_set_id", res.PersonaSetID, "personas", len(res.Personas))
	return persona.Set{
		PersonaSetID: res.PersonaSetID,
		BoardID:      boardID,
		Personas:     res.Personas,
	}, nil
}

func decodeSet(boardID string, payload json.RawMessage) (persona.Set, error) {
	var set persona.Set
	if err := json.Unmarshal(payload, &set); err != nil {
		return persona.Set{}, respawnFailed(fmt.Errorf("decode persona set: %w", err))
	}
	if set.BoardID == "" {
		set.BoardID = boardID
	}
	return set, nil
}

// #endregion resolve

// #region reconcile

// reconcile re-applies the persona set write of the latest respawn when it
// never landed: the record names latest as its parent and latest still holds
// the replaced persona. The repaired set keeps the id the record promised, so
// the gate can confirm it and replay the cached response.
func (s *Service) reconcile(ctx context.Context, req request.Request, latest persona.Set) (persona.Set, error) {
	rec, err := gate.LatestRecord(ctx, s.store, req.BoardID)
	if err != nil {
		return persona.Set{}, respawnFailed(oops.In("reconcile").With("board_id", req.BoardID).Wrapf(err, "read latest respawn"))
	}
	if !eval.DetectGap(latest, rec) {
		return latest, nil
	}

	setID := rec.PersonaSetID
	if setID == "" {
		setID = s.ids.NewID()
	}
	repaired := latest.Derive(setID, rec.ReplacedPersonaID, rec.Response.NewPersona, s.now().UTC())
	ref, err := s.store.Write(ctx, req.BoardID, artifact.TypePersonaSet, repaired)
	if err != nil {
		return persona.Set{}, respawnFailed(oops.In("reconcile").
			With("board_id", req.BoardID).
			With("respawn_id", rec.RespawnID).
			Wrapf(err, "re-apply persona set"))
	}

	s.logger.Warn("respawn reconciled",
		"board_id", req.BoardID,
		"respawn_id", rec.RespawnID,
		"parent_persona_set_id", latest.PersonaSetID,
		"persona_set_id", repaired.PersonaSetID,
		"ref", ref)
	s.metrics.reconcile()
	s.record(ctx, logging.ProvenanceEntry{
		BoardID:        req.BoardID,
		RespawnID:      rec.RespawnID,
		IdempotencyKey: rec.IdempotencyKey,
		TriggerType:    req.Trigger.Kind(),
		Decision:       logging.DecisionReconcile,
		Reason:         fmt.Sprintf("persona set %s re-applied as %s", latest.PersonaSetID, repaired.PersonaSetID),
		CreatedAt:      s.now().UTC(),
	})
	return repaired, nil
}

// #endregion reconcile
