package workout

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sokolovskiy0103/personal-ai-trainer/internal/storage"
)

// SheetName is the row sheet holding one row per completed exercise.
// Columns: Date, Exercise, Sets, Reps, Weight (kg), Duration (min),
// Notes, Feedback. All rows of one session share date and duration.
const (
	SheetName = "workout_logs"
	LogPrefix = "workout_logs/"

	dateLayout   = "2006-01-02 15:04"
	backupLayout = "2006-01-02_15-04-05"
)

// Entry is one parsed sheet row.
type Entry struct {
	Date            string
	ExerciseName    string
	Sets            string
	Reps            string
	Weights         string
	DurationMinutes string
	Notes           string
	Feedback        string
}

// Store persists workout logs over a DocumentStore.
type Store struct {
	docs storage.DocumentStore
}

// NewStore creates a workout store.
func NewStore(docs storage.DocumentStore) *Store {
	return &Store{docs: docs}
}

// SaveLog appends one sheet row per exercise and writes a JSON backup
// of the full session.
func (s *Store) SaveLog(ctx context.Context, log *Log) error {
	date := log.Date.Format(dateLayout)

	for _, ex := range log.CompletedExercises {
		row := []string{
			date,
			ex.ExerciseName,
			fmt.Sprintf("%d", ex.SetsComplete),
			joinInts(ex.RepsPerSet),
			joinFloats(ex.WeightPerSet),
			fmt.Sprintf("%d", log.DurationMinutes),
			ex.Notes,
			log.Feedback,
		}
		if err := s.docs.AppendRow(ctx, log.UserID, SheetName, row); err != nil {
			return fmt.Errorf("append workout row: %w", err)
		}
	}

	doc, err := json.Marshal(log)
	if err != nil {
		return fmt.Errorf("encode workout log: %w", err)
	}
	backupKey := fmt.Sprintf("%slog_%s.json", LogPrefix, time.Now().UTC().Format(backupLayout))
	if _, err := s.docs.Save(ctx, log.UserID, backupKey, doc); err != nil {
		return fmt.Errorf("save workout backup: %w", err)
	}
	return nil
}

// RecentEntries returns up to limit sheet rows with the newest workout
// date first. Exercises within one date keep the order they were
// logged in. limit <= 0 means all rows.
func (s *Store) RecentEntries(ctx context.Context, userID string, limit int) ([]Entry, error) {
	rows, err := s.docs.ReadRows(ctx, userID, SheetName)
	if err != nil {
		return nil, fmt.Errorf("read workout rows: %w", err)
	}

	start := 0
	if limit > 0 && len(rows) > limit {
		start = len(rows) - limit
	}

	// Rows are stored oldest first. Group by date in logged order,
	// then emit the date groups newest first.
	var dates []string
	byDate := map[string][]Entry{}
	for _, row := range rows[start:] {
		if len(row) < 2 {
			continue
		}
		e := entryFromRow(row)
		if _, seen := byDate[e.Date]; !seen {
			dates = append(dates, e.Date)
		}
		byDate[e.Date] = append(byDate[e.Date], e)
	}

	var entries []Entry
	for i := len(dates) - 1; i >= 0; i-- {
		entries = append(entries, byDate[dates[i]]...)
	}
	return entries, nil
}

func entryFromRow(row []string) Entry {
	cell := func(i int) string {
		if i < len(row) {
			return row[i]
		}
		return ""
	}
	return Entry{
		Date:            cell(0),
		ExerciseName:    cell(1),
		Sets:            cell(2),
		Reps:            cell(3),
		Weights:         cell(4),
		DurationMinutes: cell(5),
		Notes:           cell(6),
		Feedback:        cell(7),
	}
}
