package notes

import (
	"context"
	"fmt"
	"strings"

	"github.com/sokolovskiy0103/personal-ai-trainer/internal/tools"
)

// RegisterTools adds the trainer memory tool to the registry.
func RegisterTools(r *tools.Registry) {
	r.Register(&tools.Tool{
		Name: "update_memory",
		Description: "Update trainer memory (free-form text document). Use this tool to " +
			"record any important information about the user: personal preferences, " +
			"progress observations, exercise preferences, or any other notes that will " +
			"help you serve the user better. Modes: \"replace\" replaces old_text with " +
			"new_text, \"append\" adds new_text to the end of the document, \"overwrite\" " +
			"completely rewrites the document with new_text.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"old_text": map[string]any{
					"type":        "string",
					"description": "Text to replace (required only for mode=\"replace\")",
				},
				"new_text": map[string]any{
					"type":        "string",
					"description": "New text to insert/replace",
				},
				"mode": map[string]any{
					"type":        "string",
					"description": "Edit mode (\"replace\", \"append\", \"overwrite\")",
				},
			},
			"required": []string{"new_text"},
		},
		Handler: handleUpdate,
	})
}

func handleUpdate(ctx context.Context, sess *tools.Session, args map[string]any) (string, error) {
	oldText, _ := args["old_text"].(string)
	newText, _ := args["new_text"].(string)
	mode, _ := args["mode"].(string)
	if mode == "" {
		mode = "replace"
	}

	store := NewStore(sess.Store)
	current, err := store.Load(ctx, sess.UserID)
	if err != nil {
		return fmt.Sprintf("❌ Error updating memory: %v", err), err
	}

	var updated string
	switch mode {
	case "replace":
		if oldText == "" {
			return "❌ Error: 'replace' mode requires old_text parameter", nil
		}
		if !strings.Contains(current, oldText) {
			return fmt.Sprintf("❌ Error: text '%s...' not found in memory", truncate(oldText, 50)), nil
		}
		// Only the first occurrence is substituted; repeated phrases
		// stay intact so the model can target them one at a time.
		updated = strings.Replace(current, oldText, newText, 1)
	case "append":
		if current != "" {
			updated = current + "\n\n" + newText
		} else {
			updated = newText
		}
	case "overwrite":
		updated = newText
	default:
		return fmt.Sprintf("❌ Error: unknown mode '%s'. Use: replace, append, overwrite", mode), nil
	}

	if err := store.Save(ctx, sess.UserID, updated); err != nil {
		return fmt.Sprintf("❌ Error updating memory: %v", err), err
	}

	return fmt.Sprintf("✅ Trainer memory updated (mode: %s)!", mode), nil
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
