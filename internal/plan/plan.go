// Package plan stores and renders multi-week workout plans.
package plan

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Exercise is one prescribed exercise within a workout day.
type Exercise struct {
	Name         string   `json:"name"`
	Sets         int      `json:"sets"`
	Reps         string   `json:"reps"` // "10", "10-12", or "до відмови"
	Weight       *float64 `json:"weight,omitempty"`
	RestSeconds  int      `json:"rest_seconds"`
	Instructions string   `json:"instructions"`
}

// WorkoutDay is a single training day within a week.
type WorkoutDay struct {
	DayName                  string     `json:"day_name"`
	Exercises                []Exercise `json:"exercises"`
	Notes                    string     `json:"notes"`
	EstimatedDurationMinutes int        `json:"estimated_duration_minutes"`
}

// Plan is a complete workout plan, organized by weeks (week_1, week_2, ...).
type Plan struct {
	PlanID      string                  `json:"plan_id"`
	UserID      string                  `json:"user_id"`
	Weeks       int                     `json:"weeks"`
	DaysPerWeek int                     `json:"days_per_week"`
	Plan        map[string][]WorkoutDay `json:"plan"`
	CreatedAt   time.Time               `json:"created_at"`
	Status      string                  `json:"status"` // active, completed, paused
	Notes       string                  `json:"notes"`
}

// FromArgs builds a Plan from loosely-typed tool arguments. Decode is
// lenient: a day given as a bare string becomes a day with that name and
// no exercises, malformed exercises are skipped, and weeks whose day
// list parses empty are dropped.
func FromArgs(userID string, args map[string]any) *Plan {
	id, _ := uuid.NewV7()
	p := &Plan{
		PlanID:      id.String(),
		UserID:      userID,
		Weeks:       intArg(args["weeks"], 4),
		DaysPerWeek: intArg(args["days_per_week"], 3),
		Plan:        map[string][]WorkoutDay{},
		CreatedAt:   time.Now().UTC(),
		Status:      "active",
	}
	if notes, ok := args["notes"].(string); ok {
		p.Notes = notes
	}

	rawPlan, _ := args["plan"].(map[string]any)
	for weekKey, rawDays := range rawPlan {
		daysList, ok := rawDays.([]any)
		if !ok {
			continue
		}

		var days []WorkoutDay
		for _, rawDay := range daysList {
			switch d := rawDay.(type) {
			case string:
				days = append(days, WorkoutDay{DayName: d, EstimatedDurationMinutes: 45})
			case map[string]any:
				days = append(days, dayFromMap(d))
			}
		}
		if len(days) > 0 {
			p.Plan[weekKey] = days
		}
	}

	return p
}

func dayFromMap(d map[string]any) WorkoutDay {
	day := WorkoutDay{
		DayName:                  "Unnamed Day",
		EstimatedDurationMinutes: intArg(d["estimated_duration_minutes"], 45),
	}
	if name, ok := d["day_name"].(string); ok && name != "" {
		day.DayName = name
	}
	if notes, ok := d["notes"].(string); ok {
		day.Notes = notes
	}

	rawExercises, _ := d["exercises"].([]any)
	for _, rawEx := range rawExercises {
		exMap, ok := rawEx.(map[string]any)
		if !ok {
			continue
		}
		ex, ok := exerciseFromMap(exMap)
		if !ok {
			continue
		}
		day.Exercises = append(day.Exercises, ex)
	}
	return day
}

// exerciseFromMap returns ok=false when the required fields are missing,
// mirroring the skip-invalid behavior of the plan coercion.
func exerciseFromMap(m map[string]any) (Exercise, bool) {
	name, _ := m["name"].(string)
	sets := intArg(m["sets"], 0)
	reps := flexString(m["reps"])
	if name == "" || sets < 1 || reps == "" {
		return Exercise{}, false
	}

	ex := Exercise{
		Name:        name,
		Sets:        sets,
		Reps:        reps,
		RestSeconds: intArg(m["rest_seconds"], 60),
	}
	if w, ok := m["weight"].(float64); ok {
		ex.Weight = &w
	}
	if instr, ok := m["instructions"].(string); ok {
		ex.Instructions = instr
	}
	return ex, true
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

// flexString accepts reps given as either a number or a string.
func flexString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return strconv.Itoa(int(s))
	default:
		return ""
	}
}

// TotalWorkouts is the number of training days across all weeks.
func (p *Plan) TotalWorkouts() int {
	total := 0
	for _, days := range p.Plan {
		total += len(days)
	}
	return total
}

// WeekKeys returns the plan's week keys in week order (week_1, week_2, ...).
func (p *Plan) WeekKeys() []string {
	keys := make([]string, 0, len(p.Plan))
	for k := range p.Plan {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return weekNumber(keys[i]) < weekNumber(keys[j])
	})
	return keys
}

func weekNumber(key string) int {
	n, err := strconv.Atoi(strings.TrimPrefix(key, "week_"))
	if err != nil {
		return 0
	}
	return n
}

// Summary renders the whole plan for the agent's context, including
// every day and exercise so nothing is lost between sessions.
func (p *Plan) Summary() string {
	var b strings.Builder
	b.WriteString("=== CURRENT WORKOUT PLAN ===\n")
	fmt.Fprintf(&b, "Duration: %d weeks\n", p.Weeks)
	fmt.Fprintf(&b, "Workouts per week: %d\n", p.DaysPerWeek)
	fmt.Fprintf(&b, "Status: %s", p.Status)
	if p.Notes != "" {
		fmt.Fprintf(&b, "\nPlan notes: %s", p.Notes)
	}
	fmt.Fprintf(&b, "\nTotal workouts in plan: %d", p.TotalWorkouts())

	for _, week := range p.WeekKeys() {
		fmt.Fprintf(&b, "\n\n%s:", week)
		for _, day := range p.Plan[week] {
			fmt.Fprintf(&b, "\n  %s (%d min):", day.DayName, day.EstimatedDurationMinutes)
			for _, ex := range day.Exercises {
				fmt.Fprintf(&b, "\n    • %s: %d x %s, rest %ds", ex.Name, ex.Sets, ex.Reps, ex.RestSeconds)
				if ex.Weight != nil {
					fmt.Fprintf(&b, ", weight %g kg", *ex.Weight)
				}
				if ex.Instructions != "" {
					fmt.Fprintf(&b, " (%s)", ex.Instructions)
				}
			}
			if day.Notes != "" {
				fmt.Fprintf(&b, "\n    Notes: %s", day.Notes)
			}
		}
	}

	return b.String()
}
