package fixture

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/danielpatrickdp/persona-respawn/internal/artifact"
	"github.com/danielpatrickdp/persona-respawn/internal/persona"
)

// #region fixture-types

// Fixture is the top-level JSON structure for a board seed.
type Fixture struct {
	Description string            `json:"description"`
	BoardID     string            `json:"board_id"`
	PersonaSet  *persona.Set      `json:"persona_set,omitempty"`
	Decisions   []json.RawMessage `json:"decisions"`
	Requests    []FixtureRequest  `json:"requests"`
}

// FixtureRequest is one respawn request replayed against the seeded board.
type FixtureRequest struct {
	Input  json.RawMessage `json:"input"`
	Expect FixtureExpect   `json:"expect"`
}

// FixtureExpect captures what a request should do. Outcome is "commit",
// "replay" or an error code; empty fields are not checked.
type FixtureExpect struct {
	Outcome           string   `json:"outcome"`
	ReplacedPersonaID string   `json:"replaced_persona_id,omitempty"`
	MistakePatterns   []string `json:"mistake_patterns,omitempty"`
}

// Writer appends artifacts to a board.
type Writer interface {
	Write(ctx context.Context, boardID, artifactType string, payload any) (string, error)
}

// #endregion fixture-types

// #region fixture-loader

// LoadFixture reads and parses a JSON fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	if f.BoardID == "" {
		return nil, fmt.Errorf("parse fixture %s: board_id is required", path)
	}
	return &f, nil
}

// #endregion fixture-loader

// #region apply

// Apply writes the fixture's persona set, then its decisions in file order,
// and returns the refs of every write.
func Apply(ctx context.Context, w Writer, f *Fixture) ([]string, error) {
	var refs []string
	if f.PersonaSet != nil {
		set := *f.PersonaSet
		if set.BoardID == "" {
			set.BoardID = f.BoardID
		}
		ref, err := w.Write(ctx, f.BoardID, artifact.TypePersonaSet, set)
		if err != nil {
			return refs, fmt.Errorf("seed persona set: %w", err)
		}
		refs = append(refs, ref)
	}
	for i, d := range f.Decisions {
		ref, err := w.Write(ctx, f.BoardID, artifact.TypeDecision, d)
		if err != nil {
			return refs, fmt.Errorf("seed decision %d: %w", i, err)
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

// #endregion apply
