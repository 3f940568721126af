package plan

import (
	"context"
	"fmt"
)

// Provider renders the current-plan briefing section. An empty string
// means the user has no active plan yet.
type Provider struct {
	store *Store
}

// NewProvider creates a plan context provider.
func NewProvider(store *Store) *Provider {
	return &Provider{store: store}
}

// GetContext returns the plan section, or "" when no plan exists.
func (p *Provider) GetContext(ctx context.Context, userID string) (string, error) {
	current, err := p.store.Load(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("plan context: %w", err)
	}
	if current == nil {
		return "", nil
	}
	return current.Summary(), nil
}
