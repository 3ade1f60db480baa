package respawn

import (
	"errors"
	"fmt"

	"github.com/danielpatrickdp/persona-respawn/internal/persona"
	"github.com/danielpatrickdp/persona-respawn/internal/request"
)

// #region codes

// Error codes carried by ErrorEnvelope.
const (
	CodeInvalidInput     = "INVALID_INPUT"
	CodeGenerationFailed = "PERSONA_GENERATION_FAILED"
	CodeNoDeadPersona    = "NO_DEAD_PERSONA"
	CodeRespawnFailed    = "PERSONA_RESPAWN_FAILED"
)

// #endregion codes

// #region error

// Error is a classified pipeline failure.
type Error struct {
	Code    string
	Message string
	Details map[string]any
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// #endregion error

// #region constructors

func invalidInput(msg string) *Error {
	return &Error{Code: CodeInvalidInput, Message: msg}
}

// generationFailed keeps a generator-reported message verbatim.
func generationFailed(err error) *Error {
	msg := err.Error()
	var genErr *persona.GenerationError
	if errors.As(err, &genErr) {
		msg = genErr.Message
	}
	return &Error{Code: CodeGenerationFailed, Message: msg, Err: err}
}

func noDeadPersona(trigger request.Trigger) *Error {
	details := map[string]any{"trigger": trigger.Kind()}
	if trigger.PersonaID != "" {
		details["persona_id"] = trigger.PersonaID
	} else {
		details["min_reputation"] = trigger.Threshold()
	}
	return &Error{Code: CodeNoDeadPersona, Message: "No persona met respawn trigger", Details: details}
}

func respawnFailed(err error) *Error {
	msg := "unknown"
	if err != nil && err.Error() != "" {
		msg = err.Error()
	}
	return &Error{Code: CodeRespawnFailed, Message: msg, Err: err}
}

// classify recovers the pipeline error from err. Anything unclassified is a
// respawn failure.
func classify(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return respawnFailed(err)
}

// #endregion constructors
