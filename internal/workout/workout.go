// Package workout records completed training sessions: one sheet row
// per exercise plus a JSON backup document per session.
package workout

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// CompletedExercise is one exercise actually performed in a session.
type CompletedExercise struct {
	ExerciseName string    `json:"exercise_name"`
	SetsComplete int       `json:"sets_completed"`
	RepsPerSet   []int     `json:"reps_per_set"`
	WeightPerSet []float64 `json:"weight_per_set"`
	Notes        string    `json:"notes"`
}

// Log is a completed workout session.
type Log struct {
	LogID              string              `json:"log_id"`
	UserID             string              `json:"user_id"`
	Date               time.Time           `json:"date"`
	CompletedExercises []CompletedExercise `json:"completed_exercises"`
	Feedback           string              `json:"feedback"`
	DurationMinutes    int                 `json:"duration_minutes"`
	Skipped            bool                `json:"skipped"`
	SkipReason         string              `json:"skip_reason,omitempty"`
}

// FromArgs builds a Log from loosely-typed tool arguments. Weights the
// model sends as text ("власна вага") become 0 with the raw text folded
// into the exercise notes.
func FromArgs(userID string, args map[string]any) *Log {
	id, _ := uuid.NewV7()
	log := &Log{
		LogID:           id.String(),
		UserID:          userID,
		Date:            time.Now(),
		DurationMinutes: intArg(args["duration_minutes"], 0),
	}
	if fb, ok := args["feedback"].(string); ok {
		log.Feedback = fb
	}
	if skipped, ok := args["skipped"].(bool); ok {
		log.Skipped = skipped
	}
	if reason, ok := args["skip_reason"].(string); ok {
		log.SkipReason = reason
	}

	rawExercises, _ := args["completed_exercises"].([]any)
	for _, rawEx := range rawExercises {
		exMap, ok := rawEx.(map[string]any)
		if !ok {
			continue
		}
		log.CompletedExercises = append(log.CompletedExercises, exerciseFromMap(exMap))
	}

	return log
}

func exerciseFromMap(m map[string]any) CompletedExercise {
	ex := CompletedExercise{
		ExerciseName: "Unknown",
		SetsComplete: intArg(m["sets_completed"], 0),
		RepsPerSet:   toIntSlice(m["reps_per_set"]),
	}
	if name, ok := m["exercise_name"].(string); ok && name != "" {
		ex.ExerciseName = name
	}
	if notes, ok := m["notes"].(string); ok {
		ex.Notes = notes
	}

	var weightNotes []string
	rawWeights, _ := m["weight_per_set"].([]any)
	for i, raw := range rawWeights {
		switch w := raw.(type) {
		case float64:
			ex.WeightPerSet = append(ex.WeightPerSet, w)
		case string:
			ex.WeightPerSet = append(ex.WeightPerSet, 0)
			weightNotes = append(weightNotes, fmt.Sprintf("Підхід %d: %s", i+1, w))
		default:
			ex.WeightPerSet = append(ex.WeightPerSet, 0)
		}
	}
	if len(weightNotes) > 0 {
		text := strings.Join(weightNotes, "; ")
		if ex.Notes != "" {
			ex.Notes = fmt.Sprintf("%s (%s)", ex.Notes, text)
		} else {
			ex.Notes = text
		}
	}

	return ex
}

func intArg(v any, def int) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	default:
		return def
	}
}

func toIntSlice(v any) []int {
	raw, ok := v.([]any)
	if !ok {
		return nil
	}
	var result []int
	for _, item := range raw {
		if n, ok := item.(float64); ok {
			result = append(result, int(n))
		}
	}
	return result
}

// joinInts renders reps for a sheet cell: "12, 10, 8".
func joinInts(nums []int) string {
	parts := make([]string, len(nums))
	for i, n := range nums {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ", ")
}

// joinFloats renders weights for a sheet cell: "20, 22.5, 25".
func joinFloats(nums []float64) string {
	parts := make([]string, len(nums))
	for i, n := range nums {
		parts[i] = strconv.FormatFloat(n, 'g', -1, 64)
	}
	return strings.Join(parts, ", ")
}
