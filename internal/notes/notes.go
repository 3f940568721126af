// Package notes keeps the trainer's free-form memory document. The
// assistant edits it through the update_memory tool and every briefing
// includes it verbatim, so observations survive across conversations.
package notes

import (
	"context"

	"github.com/sokolovskiy0103/personal-ai-trainer/internal/storage"
)

// Key is the document key the memory text lives under.
const Key = "trainer_memory.txt"

// Store reads and writes the memory document for a user.
type Store struct {
	docs storage.DocumentStore
}

func NewStore(docs storage.DocumentStore) *Store {
	return &Store{docs: docs}
}

// Load returns the memory text, or "" when none has been written yet.
func (s *Store) Load(ctx context.Context, userID string) (string, error) {
	raw, err := s.docs.Load(ctx, userID, Key)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func (s *Store) Save(ctx context.Context, userID, text string) error {
	_, err := s.docs.Save(ctx, userID, Key, []byte(text))
	return err
}
