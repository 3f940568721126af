package workout

import (
	"context"
	"fmt"
	"strings"
)

// contextScanLimit bounds how many rows are read when looking for the
// last 3 distinct workout dates.
const contextScanLimit = 50

// Provider renders the recent-workouts briefing section. An empty
// string means the user has not logged any workouts yet.
type Provider struct {
	store *Store
}

// NewProvider creates a workout context provider.
func NewProvider(store *Store) *Provider {
	return &Provider{store: store}
}

// GetContext returns up to the 3 most recent distinct workout dates'
// exercise summaries, newest first, or "" with no history.
func (p *Provider) GetContext(ctx context.Context, userID string) (string, error) {
	entries, err := p.store.RecentEntries(ctx, userID, contextScanLimit)
	if err != nil {
		return "", fmt.Errorf("workout context: %w", err)
	}
	if len(entries) == 0 {
		return "", nil
	}

	// Group by date preserving recency order of first appearance.
	var dates []string
	byDate := map[string][]Entry{}
	for _, e := range entries {
		if _, seen := byDate[e.Date]; !seen {
			dates = append(dates, e.Date)
		}
		byDate[e.Date] = append(byDate[e.Date], e)
	}
	if len(dates) > 3 {
		dates = dates[:3]
	}

	var b strings.Builder
	b.WriteString("=== LAST 3 WORKOUTS ===")

	for _, date := range dates {
		fmt.Fprintf(&b, "\n\n📅 %s:", date)
		sessionEntries := byDate[date]
		for _, e := range sessionEntries {
			fmt.Fprintf(&b, "\n  • %s: %s sets (%s)", e.ExerciseName, e.Sets, e.Reps)
			if e.Weights != "" && e.Weights != "0, 0, 0" {
				fmt.Fprintf(&b, ", weight: %s kg", e.Weights)
			}
			if e.Notes != "" {
				fmt.Fprintf(&b, "\n    💬 %s", e.Notes)
			}
		}
		// Feedback is the same for every row of a session.
		if fb := sessionEntries[0].Feedback; fb != "" {
			fmt.Fprintf(&b, "\n  Feedback: %s", fb)
		}
	}

	return b.String(), nil
}
