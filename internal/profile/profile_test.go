package profile

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sokolovskiy0103/personal-ai-trainer/internal/storage"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	docs, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "trainer.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { docs.Close() })
	return NewStore(docs)
}

func TestFromArgs_Basic(t *testing.T) {
	args := map[string]any{
		"goals":         []any{"схуднення", "витривалість"},
		"fitness_level": "intermediate",
		"schedule":      map[string]any{"Понеділок": "18:00-19:00"},
	}

	p := FromArgs("alice@example.com", args)

	if p.UserID != "alice@example.com" {
		t.Errorf("UserID = %q", p.UserID)
	}
	if len(p.Goals) != 2 || p.Goals[0] != "схуднення" {
		t.Errorf("Goals = %v", p.Goals)
	}
	if p.FitnessLevel != "intermediate" {
		t.Errorf("FitnessLevel = %q", p.FitnessLevel)
	}
	if p.Schedule["Понеділок"] != "18:00-19:00" {
		t.Errorf("Schedule = %v", p.Schedule)
	}
}

func TestFromArgs_DefaultFitnessLevel(t *testing.T) {
	p := FromArgs("alice", map[string]any{"goals": []any{"сила"}})
	if p.FitnessLevel != "beginner" {
		t.Errorf("FitnessLevel = %q, want beginner", p.FitnessLevel)
	}
}

func TestFromArgs_PreferenceCoercion(t *testing.T) {
	tests := []struct {
		name  string
		input any
		check func(t *testing.T, prefs map[string]any)
	}{
		{
			name:  "object kept",
			input: map[string]any{"training_type": "strength"},
			check: func(t *testing.T, prefs map[string]any) {
				if prefs["training_type"] != "strength" {
					t.Errorf("prefs = %v", prefs)
				}
			},
		},
		{
			name:  "list wrapped in items",
			input: []any{"ранкові тренування", "без бігу"},
			check: func(t *testing.T, prefs map[string]any) {
				items, ok := prefs["items"].([]any)
				if !ok || len(items) != 2 {
					t.Errorf("prefs = %v", prefs)
				}
			},
		},
		{
			name:  "string wrapped in note",
			input: "любить силові",
			check: func(t *testing.T, prefs map[string]any) {
				if prefs["note"] != "любить силові" {
					t.Errorf("prefs = %v", prefs)
				}
			},
		},
		{
			name:  "number dropped",
			input: float64(42),
			check: func(t *testing.T, prefs map[string]any) {
				if len(prefs) != 0 {
					t.Errorf("prefs = %v, want empty", prefs)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := FromArgs("alice", map[string]any{"preferences": tt.input})
			tt.check(t, p.Preferences)
		})
	}
}

func TestSummary_AllFieldsRendered(t *testing.T) {
	p := &Profile{
		UserID:             "alice@example.com",
		Goals:              []string{"схуднення"},
		Schedule:           map[string]string{"Понеділок": "18:00"},
		HealthConditions:   []string{"біль в коліні"},
		FitnessLevel:       "beginner",
		EquipmentAvailable: []string{"гантелі"},
		Preferences:        map[string]any{"dislikes": "біг"},
		AdditionalNotes:    "віддає перевагу коротким тренуванням",
	}

	got := p.Summary()

	for _, want := range []string{
		"=== USER PROFILE ===",
		"Email: alice@example.com",
		"Fitness level: beginner",
		"Goals: схуднення",
		"  - Понеділок: 18:00",
		"⚠️ Health limitations: біль в коліні",
		"Available equipment: гантелі",
		"dislikes: біг",
		"Additional notes: віддає перевагу коротким тренуванням",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("Summary missing %q\n%s", want, got)
		}
	}
}

func TestSummary_OptionalSectionsOmitted(t *testing.T) {
	p := &Profile{UserID: "alice", FitnessLevel: "beginner"}

	got := p.Summary()

	for _, absent := range []string{"Training schedule", "Health limitations", "equipment", "Preferences", "Additional notes"} {
		if strings.Contains(got, absent) {
			t.Errorf("Summary should omit %q when empty\n%s", absent, got)
		}
	}
}

func TestStore_Roundtrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	p := FromArgs("alice", map[string]any{
		"goals":         []any{"сила"},
		"fitness_level": "advanced",
	})
	if err := store.Save(ctx, p); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := store.Load(ctx, "alice")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got == nil {
		t.Fatal("expected profile")
	}
	if got.FitnessLevel != "advanced" {
		t.Errorf("FitnessLevel = %q", got.FitnessLevel)
	}
	if got.CreatedAt.IsZero() || got.UpdatedAt.IsZero() {
		t.Error("expected timestamps set")
	}
}

func TestStore_LoadMissing(t *testing.T) {
	store := newTestStore(t)

	got, err := store.Load(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for missing profile, got %+v", got)
	}
}

func TestStore_OverwriteKeepsCreatedAt(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first := FromArgs("alice", map[string]any{"goals": []any{"сила"}})
	if err := store.Save(ctx, first); err != nil {
		t.Fatal(err)
	}

	second := FromArgs("alice", map[string]any{"goals": []any{"витривалість"}})
	if err := store.Save(ctx, second); err != nil {
		t.Fatal(err)
	}

	got, err := store.Load(ctx, "alice")
	if err != nil {
		t.Fatal(err)
	}
	if !got.CreatedAt.Equal(first.CreatedAt) {
		t.Errorf("CreatedAt changed on overwrite: %v vs %v", got.CreatedAt, first.CreatedAt)
	}
	if got.Goals[0] != "витривалість" {
		t.Errorf("Goals = %v", got.Goals)
	}
}

func TestProvider_MissingProfile(t *testing.T) {
	store := newTestStore(t)
	p := NewProvider(store)

	got, err := p.GetContext(context.Background(), "alice")
	if err != nil {
		t.Fatal(err)
	}
	if got != "" {
		t.Errorf("expected empty context, got %q", got)
	}
}
