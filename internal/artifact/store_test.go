package artifact

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/sync/errgroup"
)

func tempStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	s, err := NewStore(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestWriteAndLatest(t *testing.T) {
	s := tempStore(t)
	ctx := context.Background()

	ref1, err := s.Write(ctx, "b1", TypePersonaSet, map[string]any{"persona_set_id": "ps-1"})
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	ref2, err := s.Write(ctx, "b1", TypePersonaSet, map[string]any{"persona_set_id": "ps-2"})
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if ref1 == ref2 {
		t.Fatalf("expected distinct refs, got %s twice", ref1)
	}
	if ref1 != "persona_set:1" {
		t.Errorf("unexpected ref format %q", ref1)
	}

	payload, ok, err := s.Latest(ctx, "b1", TypePersonaSet)
	if err != nil || !ok {
		t.Fatalf("Latest: ok=%v err=%v", ok, err)
	}
	var doc map[string]string
	json.Unmarshal(payload, &doc)
	if doc["persona_set_id"] != "ps-2" {
		t.Errorf("expected latest ps-2, got %s", doc["persona_set_id"])
	}
}

func TestLatestScopedByBoardAndType(t *testing.T) {
	s := tempStore(t)
	ctx := context.Background()

	s.Write(ctx, "b1", TypePersonaSet, map[string]any{"persona_set_id": "ps-1"})
	s.Write(ctx, "b2", TypePersonaSet, map[string]any{"persona_set_id": "ps-other"})
	s.Write(ctx, "b1", TypeRespawn, map[string]any{"respawn_id": "r-1"})

	payload, ok, _ := s.Latest(ctx, "b1", TypePersonaSet)
	if !ok {
		t.Fatal("expected persona set for b1")
	}
	var doc map[string]string
	json.Unmarshal(payload, &doc)
	if doc["persona_set_id"] != "ps-1" {
		t.Errorf("expected ps-1, got %s", doc["persona_set_id"])
	}

	_, ok, err := s.Latest(ctx, "b3", TypePersonaSet)
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if ok {
		t.Error("expected no persona set for unknown board")
	}
}

func TestByID(t *testing.T) {
	s := tempStore(t)
	ctx := context.Background()

	s.Write(ctx, "b1", TypePersonaSet, map[string]any{"persona_set_id": "ps-1", "v": 1})
	s.Write(ctx, "b1", TypePersonaSet, map[string]any{"persona_set_id": "ps-2", "v": 2})

	payload, ok, err := s.ByID(ctx, "b1", TypePersonaSet, "ps-1")
	if err != nil || !ok {
		t.Fatalf("ByID: ok=%v err=%v", ok, err)
	}
	var doc map[string]any
	json.Unmarshal(payload, &doc)
	if doc["v"] != float64(1) {
		t.Errorf("expected v=1, got %v", doc["v"])
	}

	if _, ok, _ := s.ByID(ctx, "b2", TypePersonaSet, "ps-1"); ok {
		t.Error("ByID must be scoped to the board")
	}
	if _, ok, _ := s.ByID(ctx, "b1", TypePersonaSet, "missing"); ok {
		t.Error("expected not found for missing id")
	}
}

func TestRecentNewestFirstWithLimit(t *testing.T) {
	s := tempStore(t)
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		s.Write(ctx, "b1", TypeDecision, map[string]any{"n": i})
	}
	s.Write(ctx, "b2", TypeDecision, map[string]any{"n": 99})

	got, err := s.Recent(ctx, "b1", TypeDecision, 3)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 decisions, got %d", len(got))
	}
	for i, want := range []float64{5, 4, 3} {
		var doc map[string]float64
		json.Unmarshal(got[i], &doc)
		if doc["n"] != want {
			t.Errorf("position %d: expected n=%v, got %v", i, want, doc["n"])
		}
	}
}

func TestStateInWriteOrder(t *testing.T) {
	s := tempStore(t)
	ctx := context.Background()

	s.Write(ctx, "b1", TypeDecision, map[string]any{"n": 1})
	s.Write(ctx, "b2", TypePersonaSet, map[string]any{"persona_set_id": "x"})
	s.Write(ctx, "b1", TypeRespawn, map[string]any{"respawn_id": "r"})

	st, err := s.State(ctx)
	if err != nil {
		t.Fatalf("State: %v", err)
	}
	if len(st.Submissions) != 3 {
		t.Fatalf("expected 3 submissions, got %d", len(st.Submissions))
	}
	types := []string{st.Submissions[0].Artifacts.Type, st.Submissions[1].Artifacts.Type, st.Submissions[2].Artifacts.Type}
	if types[0] != TypeDecision || types[1] != TypePersonaSet || types[2] != TypeRespawn {
		t.Errorf("unexpected order %v", types)
	}
	if st.Submissions[2].Ref != "persona_respawn:3" {
		t.Errorf("unexpected ref %q", st.Submissions[2].Ref)
	}

	board, err := s.BoardState(ctx, "b1")
	if err != nil {
		t.Fatalf("BoardState: %v", err)
	}
	if len(board.Submissions) != 2 {
		t.Errorf("expected 2 submissions for b1, got %d", len(board.Submissions))
	}
}

func TestWriteUnmarshalablePayload(t *testing.T) {
	s := tempStore(t)
	if _, err := s.Write(context.Background(), "b1", TypeDecision, map[string]any{"f": func() {}}); err == nil {
		t.Fatal("expected marshal error")
	}
}

func TestWriteAfterClose(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStore(filepath.Join(dir, "closed.db"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	s.Close()
	if _, err := s.Write(context.Background(), "b1", TypeDecision, map[string]any{}); err == nil {
		t.Fatal("expected error writing to closed store")
	}
}

func TestNewStoreInvalidPath(t *testing.T) {
	_, err := NewStore(filepath.Join(string(os.PathSeparator), "nonexistent", "deep", "path", "test.db"))
	if err == nil {
		t.Fatal("expected error for invalid path")
	}
}

func TestConcurrentWrites(t *testing.T) {
	s := tempStore(t)
	const writers, perWriter = 32, 20

	var g errgroup.Group
	for w := range writers {
		g.Go(func() error {
			for i := range perWriter {
				payload := map[string]any{"writer": w, "n": i}
				if _, err := s.Write(context.Background(), "b1", TypeDecision, payload); err != nil {
					return fmt.Errorf("writer %d write %d: %w", w, i, err)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("concurrent write: %v", err)
	}

	got, err := s.Recent(context.Background(), "b1", TypeDecision, writers*perWriter+1)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != writers*perWriter {
		t.Errorf("expected %d decisions, got %d", writers*perWriter, len(got))
	}
}

func TestReopenKeepsLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "persist.db")
	s, err := NewStore(path)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	s.Write(context.Background(), "b1", TypePersonaSet, map[string]any{"persona_set_id": "ps-1"})
	s.Close()

	s2, err := NewStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()
	if _, ok, _ := s2.ByID(context.Background(), "b1", TypePersonaSet, "ps-1"); !ok {
		t.Fatal("expected persona set to survive reopen")
	}
}

func TestArtifactID(t *testing.T) {
	if got := artifactID(TypeRespawn, []byte(`{"respawn_id":"r-1"}`)); got != "r-1" {
		t.Errorf("expected r-1, got %q", got)
	}
	if got := artifactID("unknown", []byte(`{"id":"x"}`)); got != "" {
		t.Errorf("expected empty id for unknown type, got %q", got)
	}
	if got := artifactID(TypePersonaSet, []byte(`{}`)); got != "" {
		t.Errorf("expected empty id when field missing, got %q", got)
	}
}
