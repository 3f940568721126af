package plan

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
)

// Markdown renders the plan as a markdown document for export.
func (p *Plan) Markdown() string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Workout Plan (%d weeks, %d days/week)\n\n", p.Weeks, p.DaysPerWeek)
	fmt.Fprintf(&b, "**Status:** %s\n\n", p.Status)
	if p.Notes != "" {
		fmt.Fprintf(&b, "%s\n\n", p.Notes)
	}

	for _, week := range p.WeekKeys() {
		fmt.Fprintf(&b, "## %s\n\n", strings.ReplaceAll(week, "_", " "))
		for _, day := range p.Plan[week] {
			fmt.Fprintf(&b, "### %s (~%d min)\n\n", day.DayName, day.EstimatedDurationMinutes)
			for _, ex := range day.Exercises {
				fmt.Fprintf(&b, "- **%s**: %d x %s, rest %ds", ex.Name, ex.Sets, ex.Reps, ex.RestSeconds)
				if ex.Weight != nil {
					fmt.Fprintf(&b, ", %g kg", *ex.Weight)
				}
				if ex.Instructions != "" {
					fmt.Fprintf(&b, "\n  - %s", ex.Instructions)
				}
				b.WriteString("\n")
			}
			if day.Notes != "" {
				fmt.Fprintf(&b, "\n*%s*\n", day.Notes)
			}
			b.WriteString("\n")
		}
	}

	return b.String()
}

// RenderHTML converts the markdown rendering to HTML for the web UI.
func (p *Plan) RenderHTML() ([]byte, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(p.Markdown()), &buf); err != nil {
		return nil, fmt.Errorf("render plan: %w", err)
	}
	return buf.Bytes(), nil
}
