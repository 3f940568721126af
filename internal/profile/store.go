package profile

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sokolovskiy0103/personal-ai-trainer/internal/storage"
)

// Key is the document key holding the user's profile.
const Key = "profile.json"

// Store persists profiles over a DocumentStore.
type Store struct {
	docs storage.DocumentStore
}

// NewStore creates a profile store.
func NewStore(docs storage.DocumentStore) *Store {
	return &Store{docs: docs}
}

// Load returns the user's profile, or (nil, nil) when none exists.
func (s *Store) Load(ctx context.Context, userID string) (*Profile, error) {
	doc, err := s.docs.Load(ctx, userID, Key)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	if doc == nil {
		return nil, nil
	}

	var p Profile
	if err := json.Unmarshal(doc, &p); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	return &p, nil
}

// Save overwrites the user's profile, stamping timestamps.
func (s *Store) Save(ctx context.Context, p *Profile) error {
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		if existing, err := s.Load(ctx, p.UserID); err == nil && existing != nil {
			p.CreatedAt = existing.CreatedAt
		}
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	doc, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	if _, err := s.docs.Save(ctx, p.UserID, Key, doc); err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}
