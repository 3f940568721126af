package profile

import (
	"context"
	"fmt"
	"strings"

	"github.com/sokolovskiy0103/personal-ai-trainer/internal/tools"
)

// RegisterTools adds the profile tools to the registry.
func RegisterTools(r *tools.Registry) {
	r.Register(&tools.Tool{
		Name: "save_user_profile",
		Description: "Save or update user profile. Use this function after completing " +
			"onboarding or when user updates their data.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"goals": map[string]any{
					"type":        "array",
					"items":       map[string]any{"type": "string"},
					"description": "User's fitness goals (weight loss, muscle gain, endurance, strength)",
				},
				"fitness_level": map[string]any{
					"type":        "string",
					"description": "Fitness level (beginner, intermediate, advanced)",
				},
				"schedule": map[string]any{
					"type":        "object",
					"description": "Available days and training times, e.g. {\"Monday\": \"18:00-19:00\"}",
				},
				"health_conditions": map[string]any{
					"type":        "array",
					"items":       map[string]any{"type": "string"},
					"description": "Injuries, illnesses, health limitations",
				},
				"equipment_available": map[string]any{
					"type":        "array",
					"items":       map[string]any{"type": "string"},
					"description": "Available equipment (bodyweight, dumbbells, barbell, etc.)",
				},
				"preferences": map[string]any{
					"type":        "object",
					"description": "Training preferences (must be object!), e.g. {\"training_type\": \"strength\"}",
				},
				"additional_notes": map[string]any{
					"type":        "string",
					"description": "Arbitrary notes about user for future interactions",
				},
			},
			"required": []string{"goals", "fitness_level"},
		},
		Handler: handleSave,
	})
}

func handleSave(ctx context.Context, sess *tools.Session, args map[string]any) (string, error) {
	p := FromArgs(sess.UserID, args)

	store := NewStore(sess.Store)
	if err := store.Save(ctx, p); err != nil {
		return fmt.Sprintf("❌ Error saving profile: %v", err), err
	}

	return fmt.Sprintf("✅ Profile saved successfully! Goals: %s, Level: %s",
		strings.Join(p.Goals, ", "), p.FitnessLevel), nil
}
