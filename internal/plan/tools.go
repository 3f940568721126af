package plan

import (
	"context"
	"fmt"

	"github.com/sokolovskiy0103/personal-ai-trainer/internal/tools"
)

// RegisterTools adds the plan tools to the registry.
func RegisterTools(r *tools.Registry) {
	r.Register(&tools.Tool{
		Name:        "save_workout_plan",
		Description: "Save new workout plan.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"weeks": map[string]any{
					"type":        "integer",
					"description": "Number of weeks in the plan",
				},
				"days_per_week": map[string]any{
					"type":        "integer",
					"description": "Number of workouts per week",
				},
				"plan": map[string]any{
					"type": "object",
					"description": "Plan structure by weeks. Each key is week_1, week_2, etc. " +
						"Each week is an ARRAY of day objects with day_name, exercises " +
						"(name, sets, reps, weight, rest_seconds, instructions), notes, " +
						"estimated_duration_minutes.",
				},
				"notes": map[string]any{
					"type":        "string",
					"description": "General notes about the plan",
				},
			},
			"required": []string{"weeks", "days_per_week", "plan"},
		},
		Handler: handleSave,
	})
}

func handleSave(ctx context.Context, sess *tools.Session, args map[string]any) (string, error) {
	p := FromArgs(sess.UserID, args)

	store := NewStore(sess.Store)
	if err := store.Save(ctx, p); err != nil {
		return fmt.Sprintf("❌ Error saving plan: %v", err), err
	}

	return fmt.Sprintf("✅ Workout plan for %d weeks saved successfully!", p.Weeks), nil
}
