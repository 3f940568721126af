// Package profile stores who the user is: goals, fitness level,
// schedule, health limitations, equipment, preferences.
package profile

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Profile describes a user's fitness background and constraints.
type Profile struct {
	UserID             string            `json:"user_id"`
	Goals              []string          `json:"goals"`
	Schedule           map[string]string `json:"schedule"`
	HealthConditions   []string          `json:"health_conditions"`
	FitnessLevel       string            `json:"fitness_level"`
	EquipmentAvailable []string          `json:"equipment_available"`
	Preferences        map[string]any    `json:"preferences"`
	AdditionalNotes    string            `json:"additional_notes"`
	CreatedAt          time.Time         `json:"created_at"`
	UpdatedAt          time.Time         `json:"updated_at"`
}

// FromArgs builds a Profile from loosely-typed tool arguments. Models
// frequently bend the schema, so coercion is lenient: preferences given
// as a list become {"items": [...]}, as a bare string {"note": ...},
// anything else the empty map.
func FromArgs(userID string, args map[string]any) *Profile {
	p := &Profile{
		UserID:             userID,
		Goals:              toStringSlice(args["goals"]),
		Schedule:           toStringMap(args["schedule"]),
		HealthConditions:   toStringSlice(args["health_conditions"]),
		FitnessLevel:       "beginner",
		EquipmentAvailable: toStringSlice(args["equipment_available"]),
		Preferences:        coercePreferences(args["preferences"]),
		AdditionalNotes:    "",
	}
	if level, ok := args["fitness_level"].(string); ok && level != "" {
		p.FitnessLevel = level
	}
	if notes, ok := args["additional_notes"].(string); ok {
		p.AdditionalNotes = notes
	}
	return p
}

func coercePreferences(v any) map[string]any {
	switch pref := v.(type) {
	case map[string]any:
		return pref
	case []any:
		return map[string]any{"items": pref}
	case string:
		return map[string]any{"note": pref}
	default:
		return map[string]any{}
	}
}

func toStringSlice(v any) []string {
	switch vv := v.(type) {
	case []string:
		return vv
	case []any:
		var result []string
		for _, item := range vv {
			if s, ok := item.(string); ok {
				result = append(result, s)
			}
		}
		return result
	default:
		return nil
	}
}

func toStringMap(v any) map[string]string {
	result := map[string]string{}
	switch vv := v.(type) {
	case map[string]string:
		return vv
	case map[string]any:
		for k, item := range vv {
			if s, ok := item.(string); ok {
				result[k] = s
			}
		}
	}
	return result
}

// Summary renders the full profile for the agent's context. Every field
// the model can set appears here so nothing is lost between sessions.
func (p *Profile) Summary() string {
	var b strings.Builder
	b.WriteString("=== USER PROFILE ===\n")
	fmt.Fprintf(&b, "Email: %s\n", p.UserID)
	fmt.Fprintf(&b, "Fitness level: %s\n", p.FitnessLevel)
	fmt.Fprintf(&b, "Goals: %s", strings.Join(p.Goals, ", "))

	if len(p.Schedule) > 0 {
		b.WriteString("\nTraining schedule:")
		days := make([]string, 0, len(p.Schedule))
		for day := range p.Schedule {
			days = append(days, day)
		}
		sort.Strings(days)
		for _, day := range days {
			fmt.Fprintf(&b, "\n  - %s: %s", day, p.Schedule[day])
		}
	}

	if len(p.HealthConditions) > 0 {
		fmt.Fprintf(&b, "\n⚠️ Health limitations: %s", strings.Join(p.HealthConditions, ", "))
	}

	if len(p.EquipmentAvailable) > 0 {
		fmt.Fprintf(&b, "\nAvailable equipment: %s", strings.Join(p.EquipmentAvailable, ", "))
	}

	if len(p.Preferences) > 0 {
		b.WriteString("\nPreferences:")
		keys := make([]string, 0, len(p.Preferences))
		for k := range p.Preferences {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, "\n  - %s: %v", k, p.Preferences[k])
		}
	}

	if p.AdditionalNotes != "" {
		fmt.Fprintf(&b, "\nAdditional notes: %s", p.AdditionalNotes)
	}

	return b.String()
}
