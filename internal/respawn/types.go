package respawn

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/danielpatrickdp/persona-respawn/internal/identity"
	"github.com/danielpatrickdp/persona-respawn/internal/logging"
	"github.com/danielpatrickdp/persona-respawn/internal/persona"
)

// #region store
// Store is the artifact store capability the pipeline consumes.
// artifact.Store implements it.
type Store interface {
	Latest(ctx context.Context, boardID, artifactType string) (json.RawMessage, bool, error)
	ByID(ctx context.Context, boardID, artifactType, id string) (json.RawMessage, bool, error)
	Recent(ctx context.Context, boardID, artifactType string, limit int) ([]json.RawMessage, error)
	Write(ctx context.Context, boardID, artifactType string, payload any) (string, error)
}

// ProvenanceRecorder receives one entry per pipeline outcome.
type ProvenanceRecorder interface {
	Record(ctx context.Context, entry logging.ProvenanceEntry) error
}
// #endregion store

// #region options
// Options wires a Service. Store and Generator are required; the rest fall
// back to random ids, the wall clock, slog.Default and no metrics or
// provenance.
type Options struct {
	Store      Store
	Generator  persona.Generator
	IDs        identity.Source
	Now        func() time.Time
	Logger     *slog.Logger
	Metrics    *Metrics
	Provenance ProvenanceRecorder
}
// #endregion options

// #region outcome
// ErrorBody is the error half of an envelope.
type ErrorBody struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details"`
}

// ErrorEnvelope is returned instead of a Response when the pipeline fails.
type ErrorEnvelope struct {
	BoardID string    `json:"board_id"`
	Error   ErrorBody `json:"error"`
}

// Outcome holds exactly one of Response or Error. Decision is the
// provenance decision (commit, replay, no_dead_persona, failed) and is not
// part of the JSON form.
type Outcome struct {
	Response *persona.Response
	Error    *ErrorEnvelope
	Decision string
}

// OK reports whether the outcome is a success response.
func (o Outcome) OK() bool {
	return o.Response != nil
}

// Code returns the error code, or "" on success.
func (o Outcome) Code() string {
	if o.Error == nil {
		return ""
	}
	return o.Error.Error.Code
}

// MarshalJSON writes whichever half is set.
func (o Outcome) MarshalJSON() ([]byte, error) {
	if o.Error != nil {
		return json.Marshal(o.Error)
	}
	return json.Marshal(o.Response)
}

func errorOutcome(boardID string, err error) Outcome {
	e := classify(err)
	details := e.Details
	if details == nil {
		details = map[string]any{}
	}
	return Outcome{Error: &ErrorEnvelope{
		BoardID: boardID,
		Error:   ErrorBody{Code: e.Code, Message: e.Message, Details: details},
	}}
}
// #endregion outcome
