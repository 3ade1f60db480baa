package respawn

import (
	"context"

	"github.com/danielpatrickdp/persona-respawn/internal/artifact"
	"github.com/danielpatrickdp/persona-respawn/internal/learning"
	"github.com/danielpatrickdp/persona-respawn/internal/persona"
	"github.com/danielpatrickdp/persona-respawn/internal/request"
	"github.com/samber/oops"
)

// #region commit

type commitInput struct {
	req     request.Request
	key     string
	set     persona.Set
	target  persona.Persona
	next    persona.Persona
	summary learning.Summary
}

// commit writes the respawn record, then the derived persona set. The two
// writes are not atomic. If the second fails the record stays behind naming
// a persona_set_id that was never written: the gate refuses to replay it, and
// a "latest" resolution re-applies the set under that id.
//
// The record caches the response with empty board_writes; refs only exist
// once both writes have returned.
func (s *Service) commit(ctx context.Context, in commitInput) (*persona.Response, persona.Set, error) {
	boardID := in.req.BoardID
	now := s.now().UTC()

	updated := in.set.Derive(s.ids.NewID(), in.target.PersonaID, in.next, now)
	respawnID := s.ids.NewID()

	resp := persona.Response{
		BoardID:           boardID,
		RespawnID:         respawnID,
		Timestamp:         now,
		ReplacedPersonaID: in.target.PersonaID,
		NewPersona:        in.next,
		LearningSummary:   in.summary,
		BoardWrites:       []persona.BoardWrite{},
	}
	cached := resp
	record := persona.RespawnRecord{
		IdempotencyKey:     in.key,
		RespawnID:          respawnID,
		ReplacedPersonaID:  in.target.PersonaID,
		ParentPersonaSetID: in.set.PersonaSetID,
		PersonaSetID:       updated.PersonaSetID,
		LearningSummary:    in.summary,
		Response:           &cached,
	}

	errs := oops.In("commit").With("board_id", boardID).With("respawn_id", respawnID)

	respawnRef, err := s.store.Write(ctx, boardID, artifact.TypeRespawn, record)
	if err != nil {
		return nil, persona.Set{}, respawnFailed(errs.Wrapf(err, "write respawn record"))
	}
	setRef, err := s.store.Write(ctx, boardID, artifact.TypePersonaSet, updated)
	if err != nil {
		return nil, persona.Set{}, respawnFailed(errs.With("persona_set_id", updated.PersonaSetID).Wrapf(err, "write persona set"))
	}

	resp.BoardWrites = []persona.BoardWrite{
		{Type: artifact.TypeRespawn, Success: true, Ref: respawnRef},
		{Type: artifact.TypePersonaSet, Success: true, Ref: setRef},
	}
	return &resp, updated, nil
}

// #endregion commit
