package persona

import "context"

// #region generate-request
// TaskContext describes what a generated persona set is for.
type TaskContext struct {
	Goal          string   `json:"goal"`
	Audience      string   `json:"audience"`
	RiskTolerance string   `json:"risk_tolerance"`
	Constraints   []string `json:"constraints"`
	Domain        string   `json:"domain"`
}

// GenerateRequest asks a generator for a fresh persona set.
type GenerateRequest struct {
	BoardID     string      `json:"board_id"`
	TaskContext TaskContext `json:"task_context"`
	NPersonas   int         `json:"n_personas"`
	PersonaPack string      `json:"persona_pack"`
}

// GenerateResult is a generator's persona set before it is persisted.
type GenerateResult struct {
	PersonaSetID string    `json:"persona_set_id"`
	Personas     []Persona `json:"personas"`
}

// SeedRequest is the fixed request used when a board has no persona set yet.
func SeedRequest(boardID string) GenerateRequest {
	return GenerateRequest{
		BoardID: boardID,
		TaskContext: TaskContext{
			Goal:          "respawn seed",
			Audience:      "internal",
			RiskTolerance: "medium",
			Constraints:   []string{},
			Domain:        "governance",
		},
		NPersonas:   5,
		PersonaPack: "founder",
	}
}
// #endregion generate-request

// #region generator
// Generator manufactures persona sets.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (GenerateResult, error)
}
// #endregion generator

// #region generation-error
// GenerationError is a failure reported by the generator itself, as opposed to
// a transport failure. Message is surfaced to callers unchanged.
type GenerationError struct {
	Message string
}

func (e *GenerationError) Error() string {
	return e.Message
}
// #endregion generation-error
