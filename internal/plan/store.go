package plan

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sokolovskiy0103/personal-ai-trainer/internal/storage"
)

// CurrentKey is the document key holding the active plan. Every save
// also writes an immutable timestamped copy under HistoryPrefix.
const (
	CurrentKey    = "current_plan.json"
	HistoryPrefix = "plans_history/"

	historyTimeLayout = "2006-01-02_15-04-05"
)

// Store persists plans over a DocumentStore.
type Store struct {
	docs storage.DocumentStore
}

// NewStore creates a plan store.
func NewStore(docs storage.DocumentStore) *Store {
	return &Store{docs: docs}
}

// Load returns the user's current plan, or (nil, nil) when none exists.
func (s *Store) Load(ctx context.Context, userID string) (*Plan, error) {
	doc, err := s.docs.Load(ctx, userID, CurrentKey)
	if err != nil {
		return nil, fmt.Errorf("load plan: %w", err)
	}
	if doc == nil {
		return nil, nil
	}

	var p Plan
	if err := json.Unmarshal(doc, &p); err != nil {
		return nil, fmt.Errorf("decode plan: %w", err)
	}
	return &p, nil
}

// Save overwrites the current plan and appends a history copy.
func (s *Store) Save(ctx context.Context, p *Plan) error {
	doc, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode plan: %w", err)
	}

	if _, err := s.docs.Save(ctx, p.UserID, CurrentKey, doc); err != nil {
		return fmt.Errorf("save current plan: %w", err)
	}

	historyKey := fmt.Sprintf("%splan_%s.json", HistoryPrefix, time.Now().UTC().Format(historyTimeLayout))
	if _, err := s.docs.Save(ctx, p.UserID, historyKey, doc); err != nil {
		return fmt.Errorf("save plan history: %w", err)
	}
	return nil
}

// History returns the keys of all archived plan copies, oldest first.
func (s *Store) History(ctx context.Context, userID string) ([]string, error) {
	keys, err := s.docs.ListKeys(ctx, userID, HistoryPrefix)
	if err != nil {
		return nil, fmt.Errorf("list plan history: %w", err)
	}
	return keys, nil
}
