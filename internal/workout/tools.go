package workout

import (
	"context"
	"fmt"
	"strings"

	"github.com/sokolovskiy0103/personal-ai-trainer/internal/tools"
)

// RegisterTools adds the workout tools to the registry.
func RegisterTools(r *tools.Registry) {
	r.Register(&tools.Tool{
		Name:        "save_workout_log",
		Description: "Save completed workout log.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"completed_exercises": map[string]any{
					"type": "array",
					"items": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"exercise_name":  map[string]any{"type": "string", "description": "Exercise name"},
							"sets_completed": map[string]any{"type": "integer", "description": "Number of sets"},
							"reps_per_set": map[string]any{
								"type":        "array",
								"items":       map[string]any{"type": "integer"},
								"description": "Array of reps, e.g. [12, 10, 8]",
							},
							"weight_per_set": map[string]any{
								"type":        "array",
								"items":       map[string]any{"type": "number"},
								"description": "Array of weights in kg [0, 0, 0] (use 0 for bodyweight)",
							},
							"notes": map[string]any{"type": "string", "description": "Execution notes"},
						},
					},
					"description": "List of completed exercises",
				},
				"duration_minutes": map[string]any{
					"type":        "integer",
					"description": "Workout duration in minutes",
				},
				"feedback": map[string]any{
					"type":        "string",
					"description": "Overall user feedback after workout",
				},
			},
			"required": []string{"completed_exercises", "duration_minutes"},
		},
		Handler: handleSaveLog,
	})

	r.Register(&tools.Tool{
		Name:        "get_workout_logs",
		Description: "Load user's workout history, most recent first.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"limit": map[string]any{
					"type":        "integer",
					"description": "Maximum number of logs to display (default 10)",
				},
			},
		},
		Handler: handleGetLogs,
	})
}

func handleSaveLog(ctx context.Context, sess *tools.Session, args map[string]any) (string, error) {
	log := FromArgs(sess.UserID, args)

	store := NewStore(sess.Store)
	if err := store.SaveLog(ctx, log); err != nil {
		return fmt.Sprintf("❌ Error saving workout log: %v", err), err
	}

	return fmt.Sprintf("✅ Workout log saved! Completed %d exercises in %d minutes.\n\n📊 View spreadsheet: %s",
		len(log.CompletedExercises), log.DurationMinutes, SheetName), nil
}

func handleGetLogs(ctx context.Context, sess *tools.Session, args map[string]any) (string, error) {
	limit := 10
	if l, ok := args["limit"].(float64); ok && l > 0 {
		limit = int(l)
	}

	store := NewStore(sess.Store)
	entries, err := store.RecentEntries(ctx, sess.UserID, limit)
	if err != nil {
		return fmt.Sprintf("❌ Error loading workout logs: %v", err), err
	}

	if len(entries) == 0 {
		return fmt.Sprintf("No workout logs yet. Start your first workout!\n\n📊 Spreadsheet link: %s", SheetName), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "**Last %d workouts:**\n\n", len(entries))

	currentDate := ""
	for _, e := range entries {
		if e.Date != currentDate {
			fmt.Fprintf(&b, "\n📅 **%s**\n", e.Date)
			currentDate = e.Date
		}
		fmt.Fprintf(&b, "  • %s: %s sets (%s)", e.ExerciseName, e.Sets, e.Reps)
		if e.Weights != "" && e.Weights != "0, 0, 0" {
			fmt.Fprintf(&b, ", weight: %s kg", e.Weights)
		}
		if e.Notes != "" {
			fmt.Fprintf(&b, "\n    💬 %s", e.Notes)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "\n📊 **Full workout log:** %s", SheetName)
	return b.String(), nil
}
