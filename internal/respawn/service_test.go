package respawn

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/danielpatrickdp/persona-respawn/internal/artifact"
	"github.com/danielpatrickdp/persona-respawn/internal/gate"
	"github.com/danielpatrickdp/persona-respawn/internal/identity"
	"github.com/danielpatrickdp/persona-respawn/internal/logging"
	"github.com/danielpatrickdp/persona-respawn/internal/persona"
	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// #region helpers

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// countingStore counts successful writes and can fail every write of one type.
type countingStore struct {
	Store
	failType string
	writes   int
}

func (c *countingStore) Write(ctx context.Context, boardID, artifactType string, payload any) (string, error) {
	if artifactType == c.failType {
		return "", errors.New("disk full")
	}
	ref, err := c.Store.Write(ctx, boardID, artifactType, payload)
	if err == nil {
		c.writes++
	}
	return ref, err
}

type failingReads struct {
	Store
}

func (failingReads) Latest(context.Context, string, string) (json.RawMessage, bool, error) {
	return nil, false, errors.New("db locked")
}

type stubGenerator struct {
	result persona.GenerateResult
	err    error
	calls  int
}

func (g *stubGenerator) Generate(context.Context, persona.GenerateRequest) (persona.GenerateResult, error) {
	g.calls++
	return g.result, g.err
}

type harness struct {
	store      *artifact.Store
	counting   *countingStore
	provenance *logging.ProvenanceLog
	metrics    *Metrics
	ids        *identity.Sequence
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store, err := artifact.NewStore(filepath.Join(t.TempDir(), "board-state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return &harness{
		store:      store,
		counting:   &countingStore{Store: store},
		provenance: logging.NewProvenanceLog(store.DB()),
		metrics:    NewMetrics(prometheus.NewRegistry()),
		ids:        identity.NewSequence("id"),
	}
}

func (h *harness) service(t *testing.T, gen persona.Generator) *Service {
	t.Helper()
	if gen == nil {
		gen = &stubGenerator{err: errors.New("generator should not be called")}
	}
	svc, err := New(Options{
		Store:      h.counting,
		Generator:  gen,
		IDs:        h.ids,
		Now:        func() time.Time { return fixedNow },
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		Metrics:    h.metrics,
		Provenance: h.provenance,
	})
	require.NoError(t, err)
	return svc
}

func (h *harness) seedSet(t *testing.T, boardID string) persona.Set {
	t.Helper()
	var set persona.Set
	require.NoError(t, json.Unmarshal([]byte(`{
		"persona_set_id": "ps-1",
		"board_id": "`+boardID+`",
		"personas": [
			{"persona_id": "p-a", "name": "A", "bias": "a", "non_negotiables": ["Ship"], "failure_modes": [], "reputation": 0.5},
			{"persona_id": "p-b", "name": "B", "bias": "b", "non_negotiables": [], "failure_modes": ["Overreach"], "reputation": 0.1, "voice": "loud"},
			{"persona_id": "p-c", "name": "C", "bias": "c", "non_negotiables": [], "failure_modes": [], "reputation": 0.3, "voice": "calm"}
		]
	}`), &set))
	_, err := h.store.Write(context.Background(), boardID, artifact.TypePersonaSet, set)
	require.NoError(t, err)
	return set
}

func (h *harness) writeDecision(t *testing.T, boardID, body string) {
	t.Helper()
	_, err := h.store.Write(context.Background(), boardID, artifact.TypeDecision, json.RawMessage(body))
	require.NoError(t, err)
}

func (h *harness) latestSet(t *testing.T, boardID string) persona.Set {
	t.Helper()
	payload, ok, err := h.store.Latest(context.Background(), boardID, artifact.TypePersonaSet)
	require.NoError(t, err)
	require.True(t, ok, "expected a persona set")
	var set persona.Set
	require.NoError(t, json.Unmarshal(payload, &set))
	return set
}

func (h *harness) count(t *testing.T, boardID, artifactType string) int {
	t.Helper()
	payloads, err := h.store.Recent(context.Background(), boardID, artifactType, 100)
	require.NoError(t, err)
	return len(payloads)
}

func req(body string) any {
	var raw any
	if err := json.Unmarshal([]byte(body), &raw); err != nil {
		panic(err)
	}
	return raw
}

// #endregion helpers

// #region end-to-end

func TestRun_EndToEnd(t *testing.T) {
	h := newHarness(t)
	parent := h.seedSet(t, "b1")
	svc := h.service(t, nil)

	out := svc.Run(context.Background(), req(`{"board_id":"b1","trigger":{"min_reputation":0.12}}`))

	require.True(t, out.OK(), "unexpected error: %+v", out.Error)
	resp := out.Response
	assert.Equal(t, "b1", resp.BoardID)
	assert.Equal(t, "p-b", resp.ReplacedPersonaID)
	assert.Equal(t, 0.55, resp.NewPersona.Reputation)
	assert.Equal(t, "B v2", resp.NewPersona.Name)
	assert.Equal(t, "persona_id-0001", resp.NewPersona.PersonaID)
	assert.Equal(t, "id-0003", resp.RespawnID)
	assert.Equal(t, fixedNow, resp.Timestamp)
	require.Len(t, resp.BoardWrites, 2)
	assert.Equal(t, artifact.TypeRespawn, resp.BoardWrites[0].Type)
	assert.Equal(t, artifact.TypePersonaSet, resp.BoardWrites[1].Type)
	for _, w := range resp.BoardWrites {
		assert.True(t, w.Success)
		assert.NotEmpty(t, w.Ref)
	}
	assert.Equal(t, 2, h.counting.writes)

	updated := h.latestSet(t, "b1")
	assert.Equal(t, "id-0002", updated.PersonaSetID)
	require.NotNil(t, updated.Lineage)
	assert.Equal(t, parent.PersonaSetID, updated.Lineage.ParentPersonaSetID)
	assert.Equal(t, 0, updated.Count("p-b"))
	assert.Equal(t, 1, updated.Count(resp.NewPersona.PersonaID))
	assert.Equal(t, 1, updated.Index(resp.NewPersona.PersonaID), "successor takes the replaced slot")
	assert.Equal(t, fixedNow, updated.UpdatedAt)

	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.outcomes.WithLabelValues(logging.DecisionCommit)))
	assert.Equal(t, 0.0, testutil.ToFloat64(h.metrics.evalFailure))
}

func TestRun_LearningSummaryFromDecisions(t *testing.T) {
	h := newHarness(t)
	h.seedSet(t, "b1")
	h.writeDecision(t, "b1", `{"final_decision":"APPROVE","votes":[{"persona_id":"p-b","vote":"NO","confidence":0.9}]}`)
	h.writeDecision(t, "b1", `{"response":{"final_decision":"APPROVE","votes":[{"persona_id":"p-b","vote":"NO","confidence":0.5}]}}`)
	h.writeDecision(t, "b1", `{"final_decision":"APPROVE","votes":[{"persona_id":"p-b","vote":"YES","confidence":0.99}]}`)
	h.writeDecision(t, "b1", `{"final_decision":"BLOCK","votes":[{"persona_id":"p-a","vote":"YES","confidence":0.99}]}`)
	h.writeDecision(t, "b1", `["not","a","decision"]`)
	svc := h.service(t, nil)

	out := svc.Run(context.Background(), req(`{"board_id":"b1"}`))

	require.True(t, out.OK(), "unexpected error: %+v", out.Error)
	assert.Equal(t, 3, out.Response.LearningSummary.SourceDecisions)
	assert.Equal(t, []string{"high_confidence_mismatch:1"}, out.Response.LearningSummary.MistakePatterns)
	assert.Equal(t, "Adjusted from ledger mistakes (high_confidence_mismatch:1)", out.Response.NewPersona.Bias)
}

func TestRun_LookbackCapsDecisions(t *testing.T) {
	h := newHarness(t)
	h.seedSet(t, "b1")
	h.writeDecision(t, "b1", `{"final_decision":"APPROVE","votes":[{"persona_id":"p-b","vote":"NO","confidence":0.9}]}`)
	h.writeDecision(t, "b1", `{"final_decision":"APPROVE","votes":[{"persona_id":"p-b","vote":"YES","confidence":0.9}]}`)
	svc := h.service(t, nil)

	out := svc.Run(context.Background(), req(`{"board_id":"b1","lookback_decisions":1}`))

	require.True(t, out.OK())
	assert.Equal(t, 1, out.Response.LearningSummary.SourceDecisions)
	assert.Empty(t, out.Response.LearningSummary.MistakePatterns)
	assert.Equal(t, "Adjusted from ledger mistakes (none)", out.Response.NewPersona.Bias)
}

func TestRun_OpaqueFieldsPreserved(t *testing.T) {
	h := newHarness(t)
	h.seedSet(t, "b1")
	svc := h.service(t, nil)

	out := svc.Run(context.Background(), req(`{"board_id":"b1"}`))
	require.True(t, out.OK())

	assert.JSONEq(t, `"loud"`, string(out.Response.NewPersona.Extra["voice"]))
	updated := h.latestSet(t, "b1")
	c := updated.Personas[updated.Index("p-c")]
	assert.JSONEq(t, `"calm"`, string(c.Extra["voice"]))
	assert.Equal(t, []string{"Overreach", "Overconfidence without evidence"}, out.Response.NewPersona.FailureModes)
	assert.Equal(t, []string{"Validate high-confidence disagreement"}, out.Response.NewPersona.NonNegotiables)
}

// #endregion end-to-end

// #region idempotency

func TestRun_IdempotentRetry(t *testing.T) {
	h := newHarness(t)
	h.seedSet(t, "b1")
	svc := h.service(t, nil)
	raw := `{"board_id":"b1","trigger":{"persona_id":"p-b"}}`

	first := svc.Run(context.Background(), req(raw))
	require.True(t, first.OK(), "unexpected error: %+v", first.Error)
	writes := h.counting.writes

	second := svc.Run(context.Background(), req(raw))
	require.True(t, second.OK(), "unexpected error: %+v", second.Error)

	assert.Equal(t, first.Response.RespawnID, second.Response.RespawnID)
	assert.Equal(t, first.Response.NewPersona.PersonaID, second.Response.NewPersona.PersonaID)
	assert.Equal(t, writes, h.counting.writes, "replay must not write")
	assert.Empty(t, second.Response.BoardWrites)
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.outcomes.WithLabelValues(logging.DecisionReplay)))
}

func TestRun_ImplicitDefaultsReplayExplicit(t *testing.T) {
	h := newHarness(t)
	h.seedSet(t, "b1")
	svc := h.service(t, nil)

	first := svc.Run(context.Background(), req(`{"board_id":"b1"}`))
	require.True(t, first.OK())
	second := svc.Run(context.Background(), req(`{"board_id":"b1","trigger":{"min_reputation":0.12,"reason":"auto"}}`))
	require.True(t, second.OK())

	assert.Equal(t, first.Response.RespawnID, second.Response.RespawnID)
	assert.Equal(t, 2, h.counting.writes)
}

func TestRun_DifferentReasonIsNewRequest(t *testing.T) {
	h := newHarness(t)
	h.seedSet(t, "b1")
	svc := h.service(t, nil)

	first := svc.Run(context.Background(), req(`{"board_id":"b1","trigger":{"min_reputation":0.4}}`))
	require.True(t, first.OK())
	second := svc.Run(context.Background(), req(`{"board_id":"b1","trigger":{"min_reputation":0.4,"reason":"manual"}}`))
	require.True(t, second.OK())

	assert.NotEqual(t, first.Response.RespawnID, second.Response.RespawnID)
	assert.Equal(t, "p-c", second.Response.ReplacedPersonaID, "p-b already replaced; next lowest is p-c")
	assert.Equal(t, 4, h.counting.writes)
}

// #endregion idempotency

// #region negative-outcomes

func TestRun_NoDeadPersona(t *testing.T) {
	h := newHarness(t)
	h.seedSet(t, "b1")
	svc := h.service(t, nil)

	out := svc.Run(context.Background(), req(`{"board_id":"b1","trigger":{"min_reputation":0.05}}`))

	require.False(t, out.OK())
	assert.Equal(t, CodeNoDeadPersona, out.Code())
	assert.Equal(t, "b1", out.Error.BoardID)
	assert.Equal(t, "No persona met respawn trigger", out.Error.Error.Message)
	assert.Equal(t, "threshold", out.Error.Error.Details["trigger"])
	assert.Equal(t, 0, h.counting.writes)

	entries, err := h.provenance.Recent(context.Background(), "b1", 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, logging.DecisionNoDeadPersona, entries[0].Decision)
}

func TestRun_UnknownExplicitPersona(t *testing.T) {
	h := newHarness(t)
	h.seedSet(t, "b1")
	svc := h.service(t, nil)

	out := svc.Run(context.Background(), req(`{"board_id":"b1","trigger":{"persona_id":"p-zzz"}}`))

	assert.Equal(t, CodeNoDeadPersona, out.Code())
	assert.Equal(t, "p-zzz", out.Error.Error.Details["persona_id"])
}

func TestRun_InvalidInput(t *testing.T) {
	h := newHarness(t)
	svc := h.service(t, nil)

	cases := []struct {
		name    string
		raw     any
		boardID string
		message string
	}{
		{"unknown top-level", req(`{"board_id":"b1","extra":1}`), "b1", "unknown field in input: extra"},
		{"unknown trigger", req(`{"board_id":"b1","trigger":{"foo":1}}`), "b1", "unknown field in trigger: foo"},
		{"empty board", req(`{"board_id":"  "}`), "  ", "board_id is required"},
		{"not an object", req(`[1]`), "", "input must be object"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out := svc.Run(context.Background(), tc.raw)
			require.False(t, out.OK())
			assert.Equal(t, CodeInvalidInput, out.Code())
			assert.Equal(t, tc.boardID, out.Error.BoardID)
			assert.Equal(t, tc.message, out.Error.Error.Message)
		})
	}
	assert.Equal(t, 0, h.counting.writes)
}

func TestRun_GenerationFailed(t *testing.T) {
	h := newHarness(t)
	gen := &stubGenerator{err: &persona.GenerationError{Message: "pack exhausted"}}
	svc := h.service(t, gen)

	out := svc.Run(context.Background(), req(`{"board_id":"empty"}`))

	assert.Equal(t, CodeGenerationFailed, out.Code())
	assert.Equal(t, "pack exhausted", out.Error.Error.Message)
	assert.Equal(t, 1, gen.calls)
	assert.Equal(t, 0, h.counting.writes)
}

func TestRun_GenerationTransportError(t *testing.T) {
	h := newHarness(t)
	svc := h.service(t, &stubGenerator{err: errors.New("connection refused")})

	out := svc.Run(context.Background(), req(`{"board_id":"empty"}`))

	assert.Equal(t, CodeGenerationFailed, out.Code())
	assert.Equal(t, "connection refused", out.Error.Error.Message)
}

func TestRun_RespawnWriteFails(t *testing.T) {
	h := newHarness(t)
	h.seedSet(t, "b1")
	h.counting.failType = artifact.TypeRespawn
	svc := h.service(t, nil)

	out := svc.Run(context.Background(), req(`{"board_id":"b1"}`))

	assert.Equal(t, CodeRespawnFailed, out.Code())
	assert.Contains(t, out.Error.Error.Message, "disk full")
	assert.Equal(t, 1, h.count(t, "b1", artifact.TypePersonaSet), "persona set must not be written")
}

func TestRun_StoreReadFails(t *testing.T) {
	h := newHarness(t)
	svc, err := New(Options{
		Store:     failingReads{Store: h.store},
		Generator: &stubGenerator{},
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)

	out := svc.Run(context.Background(), req(`{"board_id":"b1"}`))

	assert.Equal(t, CodeRespawnFailed, out.Code())
	assert.Contains(t, out.Error.Error.Message, "db locked")
}

// #endregion negative-outcomes

// #region seeding

func TestRun_SeedsMissingBoard(t *testing.T) {
	h := newHarness(t)
	gen := persona.NewPackGenerator(identity.NewSequence("gen"))
	svc := h.service(t, gen)

	out := svc.Run(context.Background(), req(`{"board_id":"fresh","trigger":{"min_reputation":0.5}}`))

	require.True(t, out.OK(), "unexpected error: %+v", out.Error)
	assert.Equal(t, "persona_gen-0004", out.Response.ReplacedPersonaID, "first of the tied 0.5 archetypes")
	assert.Equal(t, "Risk Officer v2", out.Response.NewPersona.Name)
	assert.Equal(t, 2, h.counting.writes)

	updated := h.latestSet(t, "fresh")
	require.NotNil(t, updated.Lineage)
	assert.Equal(t, "gen-0006", updated.Lineage.ParentPersonaSetID)
	assert.Len(t, updated.Personas, 5)
}

func TestRun_MissingExplicitSetIsSeeded(t *testing.T) {
	h := newHarness(t)
	h.seedSet(t, "b1")
	gen := &stubGenerator{result: persona.GenerateResult{
		PersonaSetID: "ps-gen",
		Personas:     []persona.Persona{{PersonaID: "g1", Name: "G", Reputation: 0.01}},
	}}
	svc := h.service(t, gen)

	out := svc.Run(context.Background(), req(`{"board_id":"b1","persona_set_id":"ps-missing"}`))

	require.True(t, out.OK(), "unexpected error: %+v", out.Error)
	assert.Equal(t, 1, gen.calls)
	assert.Equal(t, "g1", out.Response.ReplacedPersonaID)
}

func TestRun_ExplicitSetByID(t *testing.T) {
	h := newHarness(t)
	h.seedSet(t, "b1")
	svc := h.service(t, nil)

	first := svc.Run(context.Background(), req(`{"board_id":"b1"}`))
	require.True(t, first.OK())

	// ps-1 still holds p-b even though a newer set is latest
	out := svc.Run(context.Background(), req(`{"board_id":"b1","persona_set_id":"ps-1","trigger":{"persona_id":"p-b"}}`))
	require.True(t, out.OK(), "unexpected error: %+v", out.Error)
	assert.NotEqual(t, first.Response.RespawnID, out.Response.RespawnID)
	assert.Equal(t, "ps-1", h.latestSet(t, "b1").Lineage.ParentPersonaSetID)
}

// #endregion seeding

// #region reconcile

func TestRun_ReconcilesPartialCommit(t *testing.T) {
	h := newHarness(t)
	h.seedSet(t, "b1")
	svc := h.service(t, nil)
	raw := `{"board_id":"b1"}`

	h.counting.failType = artifact.TypePersonaSet
	failed := svc.Run(context.Background(), req(raw))
	require.Equal(t, CodeRespawnFailed, failed.Code())
	assert.Contains(t, failed.Error.Error.Message, "write persona set")

	rec, err := gate.LatestRecord(context.Background(), h.store, "b1")
	require.NoError(t, err)
	require.NotNil(t, rec, "respawn record is written before the persona set")
	assert.Equal(t, "ps-1", rec.ParentPersonaSetID)
	assert.Equal(t, 1, h.latestSet(t, "b1").Count("p-b"))

	h.counting.failType = ""
	retry := svc.Run(context.Background(), req(raw))
	require.True(t, retry.OK(), "unexpected error: %+v", retry.Error)

	assert.Equal(t, rec.RespawnID, retry.Response.RespawnID, "retry replays the recorded respawn")
	repaired := h.latestSet(t, "b1")
	assert.Equal(t, 0, repaired.Count("p-b"))
	assert.Equal(t, 1, repaired.Count(rec.Response.NewPersona.PersonaID))
	assert.Equal(t, "ps-1", repaired.Lineage.ParentPersonaSetID)
	assert.Equal(t, rec.PersonaSetID, repaired.PersonaSetID, "repair uses the id the record promised")
	assert.Equal(t, 2, h.count(t, "b1", artifact.TypePersonaSet))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.reconciled))

	// a further retry finds nothing to repair
	again := svc.Run(context.Background(), req(raw))
	require.True(t, again.OK())
	assert.Equal(t, 2, h.count(t, "b1", artifact.TypePersonaSet))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.reconciled))

	entries, err := h.provenance.Recent(context.Background(), "b1", 10)
	require.NoError(t, err)
	decisions := make([]string, len(entries))
	for i, e := range entries {
		decisions[i] = e.Decision
	}
	want := []string{logging.DecisionReplay, logging.DecisionReplay, logging.DecisionReconcile, logging.DecisionFailed}
	if diff := cmp.Diff(want, decisions); diff != "" {
		t.Errorf("provenance decisions (-want +got):\n%s", diff)
	}
}

func TestRun_ExplicitSetPartialCommitRunsAgain(t *testing.T) {
	h := newHarness(t)
	h.seedSet(t, "b1")
	svc := h.service(t, nil)
	raw := `{"board_id":"b1","persona_set_id":"ps-1","trigger":{"persona_id":"p-b"}}`

	h.counting.failType = artifact.TypePersonaSet
	failed := svc.Run(context.Background(), req(raw))
	require.Equal(t, CodeRespawnFailed, failed.Code())
	rec, err := gate.LatestRecord(context.Background(), h.store, "b1")
	require.NoError(t, err)
	require.NotNil(t, rec)

	h.counting.failType = ""
	retry := svc.Run(context.Background(), req(raw))
	require.True(t, retry.OK(), "unexpected error: %+v", retry.Error)

	assert.Equal(t, logging.DecisionCommit, retry.Decision, "an unconfirmed respawn is not replayed")
	assert.NotEqual(t, rec.RespawnID, retry.Response.RespawnID)
	assert.Len(t, retry.Response.BoardWrites, 2)
	assert.Equal(t, 2, h.count(t, "b1", artifact.TypePersonaSet))
	latest := h.latestSet(t, "b1")
	assert.Equal(t, 0, latest.Count("p-b"))
	assert.Equal(t, "ps-1", latest.Lineage.ParentPersonaSetID)
	assert.Equal(t, 0.0, testutil.ToFloat64(h.metrics.reconciled))

	again := svc.Run(context.Background(), req(raw))
	require.True(t, again.OK())
	assert.Equal(t, logging.DecisionReplay, again.Decision)
	assert.Equal(t, retry.Response.RespawnID, again.Response.RespawnID)
}

func TestRun_SeededBoardPartialCommitRunsAgain(t *testing.T) {
	h := newHarness(t)
	gen := &stubGenerator{result: persona.GenerateResult{
		PersonaSetID: "ps-gen",
		Personas: []persona.Persona{
			{PersonaID: "g1", Name: "G1", Reputation: 0.01},
			{PersonaID: "g2", Name: "G2", Reputation: 0.9},
		},
	}}
	svc := h.service(t, gen)
	raw := `{"board_id":"fresh"}`

	h.counting.failType = artifact.TypePersonaSet
	failed := svc.Run(context.Background(), req(raw))
	require.Equal(t, CodeRespawnFailed, failed.Code())
	assert.Equal(t, 0, h.count(t, "fresh", artifact.TypePersonaSet))

	h.counting.failType = ""
	retry := svc.Run(context.Background(), req(raw))
	require.True(t, retry.OK(), "unexpected error: %+v", retry.Error)

	assert.Equal(t, logging.DecisionCommit, retry.Decision)
	assert.Equal(t, 2, gen.calls)
	assert.Equal(t, "g1", retry.Response.ReplacedPersonaID)
	assert.Equal(t, 1, h.count(t, "fresh", artifact.TypePersonaSet))
	updated := h.latestSet(t, "fresh")
	assert.Equal(t, 0, updated.Count("g1"))
	assert.Equal(t, "ps-gen", updated.Lineage.ParentPersonaSetID)
}

// #endregion reconcile

// #region outcome

func TestOutcome_MarshalJSON(t *testing.T) {
	out := errorOutcome("b1", invalidInput("board_id is required"))
	data, err := json.Marshal(out)
	require.NoError(t, err)
	assert.JSONEq(t, `{"board_id":"b1","error":{"code":"INVALID_INPUT","message":"board_id is required","details":{}}}`, string(data))

	ok := Outcome{Response: &persona.Response{BoardID: "b1", RespawnID: "r1", BoardWrites: []persona.BoardWrite{}}}
	data, err = json.Marshal(ok)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "r1", decoded["respawn_id"])
	assert.NotContains(t, decoded, "error")
}

func TestClassify_Unclassified(t *testing.T) {
	e := classify(errors.New("boom"))
	assert.Equal(t, CodeRespawnFailed, e.Code)
	assert.Equal(t, "boom", e.Message)
}

func TestNew_RequiresCollaborators(t *testing.T) {
	_, err := New(Options{Generator: &stubGenerator{}})
	assert.Error(t, err)
	h := newHarness(t)
	_, err = New(Options{Store: h.store})
	assert.Error(t, err)
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	m.outcome("commit")
	m.reconcile()
	m.evalFailed()
}

// #endregion outcome
