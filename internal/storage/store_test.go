package storage

import (
	"context"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "trainer.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestLoad_MissingKey(t *testing.T) {
	s := newTestStore(t)

	doc, err := s.Load(context.Background(), "alice", "profile.json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc != nil {
		t.Errorf("expected nil for missing key, got %q", doc)
	}
}

func TestSaveLoad_Roundtrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.Save(ctx, "alice", "profile.json", []byte(`{"fitness_level":"beginner"}`))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if id == "" {
		t.Error("expected non-empty document ID")
	}

	doc, err := s.Load(ctx, "alice", "profile.json")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if string(doc) != `{"fitness_level":"beginner"}` {
		t.Errorf("unexpected content: %q", doc)
	}
}

func TestSave_OverwriteKeepsID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id1, err := s.Save(ctx, "alice", "trainer_memory.txt", []byte("first"))
	if err != nil {
		t.Fatal(err)
	}
	id2, err := s.Save(ctx, "alice", "trainer_memory.txt", []byte("second"))
	if err != nil {
		t.Fatal(err)
	}
	if id1 != id2 {
		t.Errorf("overwrite changed ID: %s vs %s", id1, id2)
	}

	doc, err := s.Load(ctx, "alice", "trainer_memory.txt")
	if err != nil {
		t.Fatal(err)
	}
	if string(doc) != "second" {
		t.Errorf("expected overwritten content, got %q", doc)
	}
}

func TestSave_UsersIsolated(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.Save(ctx, "alice", "profile.json", []byte("alice-data")); err != nil {
		t.Fatal(err)
	}

	doc, err := s.Load(ctx, "bob", "profile.json")
	if err != nil {
		t.Fatal(err)
	}
	if doc != nil {
		t.Errorf("expected bob to have no profile, got %q", doc)
	}
}

func TestAppendReadRows(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rows := [][]string{
		{"2026-08-01 10:00", "Squat", "3", "10, 10, 8", "60", "45", "", "good"},
		{"2026-08-03 10:00", "Bench press", "3", "8, 8, 8", "40", "40", "", ""},
	}
	for _, row := range rows {
		if err := s.AppendRow(ctx, "alice", "workout_logs", row); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	got, err := s.ReadRows(ctx, "alice", "workout_logs")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(got))
	}
	// Insertion order preserved
	if got[0][1] != "Squat" {
		t.Errorf("first row exercise = %q, want Squat", got[0][1])
	}
	if got[1][1] != "Bench press" {
		t.Errorf("second row exercise = %q, want Bench press", got[1][1])
	}
}

func TestReadRows_EmptySheet(t *testing.T) {
	s := newTestStore(t)

	got, err := s.ReadRows(context.Background(), "alice", "workout_logs")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("expected no rows, got %d", len(got))
	}
}

func TestListKeys_Prefix(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	keys := []string{
		"current_plan.json",
		"plans_history/plan_2026-08-01T10:00:00Z.json",
		"plans_history/plan_2026-08-15T10:00:00Z.json",
	}
	for _, k := range keys {
		if _, err := s.Save(ctx, "alice", k, []byte("{}")); err != nil {
			t.Fatal(err)
		}
	}

	got, err := s.ListKeys(ctx, "alice", "plans_history/")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 history keys, got %d: %v", len(got), got)
	}
	if got[0] != "plans_history/plan_2026-08-01T10:00:00Z.json" {
		t.Errorf("unexpected first key: %s", got[0])
	}
}
