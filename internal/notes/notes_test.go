package notes

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sokolovskiy0103/personal-ai-trainer/internal/storage"
	"github.com/sokolovskiy0103/personal-ai-trainer/internal/tools"
)

func newTestSession(t *testing.T) *tools.Session {
	t.Helper()
	docs, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "trainer.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { docs.Close() })
	return &tools.Session{UserID: "alice", Store: docs}
}

func TestUpdate_AppendToEmpty(t *testing.T) {
	sess := newTestSession(t)
	ctx := context.Background()

	result, err := handleUpdate(ctx, sess, map[string]any{
		"new_text": "Любить ранкові тренування",
		"mode":     "append",
	})
	if err != nil {
		t.Fatal(err)
	}
	if result != "✅ Trainer memory updated (mode: append)!" {
		t.Errorf("result = %q", result)
	}

	text, err := NewStore(sess.Store).Load(ctx, "alice")
	if err != nil {
		t.Fatal(err)
	}
	if text != "Любить ранкові тренування" {
		t.Errorf("memory = %q", text)
	}
}

func TestUpdate_AppendSeparatesWithBlankLine(t *testing.T) {
	sess := newTestSession(t)
	ctx := context.Background()

	store := NewStore(sess.Store)
	if err := store.Save(ctx, "alice", "перший запис"); err != nil {
		t.Fatal(err)
	}

	if _, err := handleUpdate(ctx, sess, map[string]any{
		"new_text": "другий запис",
		"mode":     "append",
	}); err != nil {
		t.Fatal(err)
	}

	text, _ := store.Load(ctx, "alice")
	if text != "перший запис\n\nдругий запис" {
		t.Errorf("memory = %q", text)
	}
}

func TestUpdate_ReplaceFirstOccurrenceOnly(t *testing.T) {
	sess := newTestSession(t)
	ctx := context.Background()

	store := NewStore(sess.Store)
	if err := store.Save(ctx, "alice", "вага 80 кг, ціль 80 повторень"); err != nil {
		t.Fatal(err)
	}

	result, err := handleUpdate(ctx, sess, map[string]any{
		"old_text": "80",
		"new_text": "75",
		"mode":     "replace",
	})
	if err != nil {
		t.Fatal(err)
	}
	if result != "✅ Trainer memory updated (mode: replace)!" {
		t.Errorf("result = %q", result)
	}

	text, _ := store.Load(ctx, "alice")
	if text != "вага 75 кг, ціль 80 повторень" {
		t.Errorf("memory = %q", text)
	}
}

func TestUpdate_ReplaceErrors(t *testing.T) {
	sess := newTestSession(t)
	ctx := context.Background()

	if err := NewStore(sess.Store).Save(ctx, "alice", "щось"); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		args map[string]any
		want string
	}{
		{
			name: "missing old_text",
			args: map[string]any{"new_text": "x", "mode": "replace"},
			want: "❌ Error: 'replace' mode requires old_text parameter",
		},
		{
			name: "old_text not found",
			args: map[string]any{"old_text": "немає такого", "new_text": "x", "mode": "replace"},
			want: "❌ Error: text 'немає такого...' not found in memory",
		},
		{
			name: "unknown mode",
			args: map[string]any{"new_text": "x", "mode": "prepend"},
			want: "❌ Error: unknown mode 'prepend'. Use: replace, append, overwrite",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := handleUpdate(ctx, sess, tt.args)
			if err != nil {
				t.Fatal(err)
			}
			if result != tt.want {
				t.Errorf("result = %q, want %q", result, tt.want)
			}
		})
	}
}

func TestUpdate_NotFoundTruncatesLongText(t *testing.T) {
	sess := newTestSession(t)
	ctx := context.Background()

	long := strings.Repeat("а", 80)
	result, err := handleUpdate(ctx, sess, map[string]any{
		"old_text": long,
		"new_text": "x",
		"mode":     "replace",
	})
	if err != nil {
		t.Fatal(err)
	}
	want := "❌ Error: text '" + strings.Repeat("а", 50) + "...' not found in memory"
	if result != want {
		t.Errorf("result = %q", result)
	}
}

func TestUpdate_Overwrite(t *testing.T) {
	sess := newTestSession(t)
	ctx := context.Background()

	store := NewStore(sess.Store)
	if err := store.Save(ctx, "alice", "старий вміст"); err != nil {
		t.Fatal(err)
	}

	if _, err := handleUpdate(ctx, sess, map[string]any{
		"new_text": "новий вміст",
		"mode":     "overwrite",
	}); err != nil {
		t.Fatal(err)
	}

	text, _ := store.Load(ctx, "alice")
	if text != "новий вміст" {
		t.Errorf("memory = %q", text)
	}
}

func TestUpdate_DefaultModeIsReplace(t *testing.T) {
	sess := newTestSession(t)

	result, err := handleUpdate(context.Background(), sess, map[string]any{"new_text": "x"})
	if err != nil {
		t.Fatal(err)
	}
	if result != "❌ Error: 'replace' mode requires old_text parameter" {
		t.Errorf("result = %q", result)
	}
}

func TestProvider(t *testing.T) {
	sess := newTestSession(t)
	ctx := context.Background()

	store := NewStore(sess.Store)
	p := NewProvider(store)

	got, err := p.GetContext(ctx, "alice")
	if err != nil {
		t.Fatal(err)
	}
	if got != "" {
		t.Errorf("expected empty context, got %q", got)
	}

	if err := store.Save(ctx, "alice", "віддає перевагу гантелям"); err != nil {
		t.Fatal(err)
	}
	got, err = p.GetContext(ctx, "alice")
	if err != nil {
		t.Fatal(err)
	}
	if got != "=== TRAINER MEMORY ===\nвіддає перевагу гантелям" {
		t.Errorf("context = %q", got)
	}
}
