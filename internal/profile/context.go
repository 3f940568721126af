package profile

import (
	"context"
	"fmt"
)

// Provider renders the profile briefing section. An empty string means
// the user has no profile yet.
type Provider struct {
	store *Store
}

// NewProvider creates a profile context provider.
func NewProvider(store *Store) *Provider {
	return &Provider{store: store}
}

// GetContext returns the profile section, or "" when no profile exists.
func (p *Provider) GetContext(ctx context.Context, userID string) (string, error) {
	prof, err := p.store.Load(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("profile context: %w", err)
	}
	if prof == nil {
		return "", nil
	}
	return prof.Summary(), nil
}
