package replay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/danielpatrickdp/persona-respawn/internal/fixture"
	"github.com/danielpatrickdp/persona-respawn/internal/respawn"
)

// #region types
// Runner executes one respawn request. *respawn.Service implements it.
type Runner interface {
	Run(ctx context.Context, raw any) respawn.Outcome
}

// ReplayResult captures the outcome of replaying one fixture request.
type ReplayResult struct {
	Index   int
	Outcome string // "commit" | "replay" | error code
	Match   bool
	Reason  string

	RespawnID         string
	ReplacedPersonaID string
	MistakePatterns   []string
}

// ReplaySummary provides aggregate stats from a replay run.
type ReplaySummary struct {
	Total      int
	Commits    int
	Replays    int
	Errors     int
	Mismatches int
}

// #endregion types

// #region replay
// Replay runs each request in order against runner and compares the outcome
// with the request's expectation. Requests share the runner's store, so later
// requests see earlier commits.
func Replay(ctx context.Context, runner Runner, requests []fixture.FixtureRequest) []ReplayResult {
	results := make([]ReplayResult, 0, len(requests))
	for i, r := range requests {
		result := ReplayResult{Index: i}

		raw, err := decodeInput(r.Input)
		if err != nil {
			result.Outcome = "decode_error"
			result.Reason = err.Error()
			results = append(results, result)
			continue
		}

		out := runner.Run(ctx, raw)
		result.Outcome = outcomeName(out)
		if out.Response != nil {
			result.RespawnID = out.Response.RespawnID
			result.ReplacedPersonaID = out.Response.ReplacedPersonaID
			result.MistakePatterns = out.Response.LearningSummary.MistakePatterns
		}
		result.Match, result.Reason = compare(result, r.Expect)
		results = append(results, result)
	}
	return results
}

// ReplayFixture seeds f into store and replays its requests through runner.
func ReplayFixture(ctx context.Context, store fixture.Writer, runner Runner, f *fixture.Fixture) ([]ReplayResult, error) {
	if _, err := fixture.Apply(ctx, store, f); err != nil {
		return nil, fmt.Errorf("seed fixture: %w", err)
	}
	return Replay(ctx, runner, f.Requests), nil
}

// #endregion replay

// #region summarize
// Summarize computes aggregate stats from replay results.
func Summarize(results []ReplayResult) ReplaySummary {
	s := ReplaySummary{Total: len(results)}
	for _, r := range results {
		switch r.Outcome {
		case "commit":
			s.Commits++
		case "replay":
			s.Replays++
		default:
			s.Errors++
		}
		if !r.Match {
			s.Mismatches++
		}
	}
	return s
}

// #endregion summarize

// #region helpers
func outcomeName(out respawn.Outcome) string {
	if out.OK() {
		return out.Decision
	}
	return out.Code()
}

func compare(r ReplayResult, want fixture.FixtureExpect) (bool, string) {
	if want.Outcome != "" && r.Outcome != want.Outcome {
		return false, fmt.Sprintf("outcome %s, want %s", r.Outcome, want.Outcome)
	}
	if want.ReplacedPersonaID != "" && r.ReplacedPersonaID != want.ReplacedPersonaID {
		return false, fmt.Sprintf("replaced %s, want %s", r.ReplacedPersonaID, want.ReplacedPersonaID)
	}
	if want.MistakePatterns != nil && !slices.Equal(r.MistakePatterns, want.MistakePatterns) {
		return false, fmt.Sprintf("mistake patterns %v, want %v", r.MistakePatterns, want.MistakePatterns)
	}
	return true, "matched"
}

func decodeInput(input json.RawMessage) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(input))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode request: %w", err)
	}
	return raw, nil
}

// #endregion helpers
