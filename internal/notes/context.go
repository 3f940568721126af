package notes

import "context"

// Provider surfaces the memory document for the conversation briefing.
type Provider struct {
	store *Store
}

func NewProvider(store *Store) *Provider {
	return &Provider{store: store}
}

// GetContext returns the memory text under its section header, or ""
// when no memory has been recorded.
func (p *Provider) GetContext(ctx context.Context, userID string) (string, error) {
	text, err := p.store.Load(ctx, userID)
	if err != nil {
		return "", err
	}
	if text == "" {
		return "", nil
	}
	return "=== TRAINER MEMORY ===\n" + text, nil
}
