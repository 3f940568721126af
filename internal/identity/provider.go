package identity

import (
	"context"
	"errors"
	"sync"
	"time"
)

var (
	// ErrNoCredentials means the request carried nothing to authenticate.
	ErrNoCredentials = errors.New("no credentials presented")

	// ErrUnknownToken means the presented token matches no configured user.
	ErrUnknownToken = errors.New("unknown token")
)

// Credentials is a resolved identity and the material that proved it.
// A zero ExpiresAt means the credentials do not expire.
type Credentials struct {
	UserID    string
	Token     string
	ExpiresAt time.Time
}

// Expired reports whether the credentials are past their lifetime.
func (c *Credentials) Expired() bool {
	return !c.ExpiresAt.IsZero() && time.Now().After(c.ExpiresAt)
}

// Provider resolves the credential material carried on a request
// context into an identity and manages that identity's lifetime.
type Provider interface {
	// Authenticate resolves the token on ctx (see WithToken) into
	// credentials.
	Authenticate(ctx context.Context) (*Credentials, error)

	// Refresh re-validates credentials and returns a renewed copy.
	Refresh(ctx context.Context, creds *Credentials) (*Credentials, error)

	// Revoke invalidates credentials for the rest of the process
	// lifetime.
	Revoke(ctx context.Context, creds *Credentials) error
}

const tokenKey contextKey = 1

// WithToken returns a context carrying the bearer token a request
// presented.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey, token)
}

// TokenFromContext extracts the presented bearer token, or "".
func TokenFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(tokenKey).(string); ok {
		return v
	}
	return ""
}

// StaticTokenProvider authenticates against a fixed token-to-user map
// from configuration. Static tokens never expire; revocation removes
// the token until restart.
type StaticTokenProvider struct {
	mu     sync.RWMutex
	tokens map[string]string
}

// NewStaticTokenProvider builds a provider over configured tokens.
func NewStaticTokenProvider(tokens map[string]string) *StaticTokenProvider {
	copied := make(map[string]string, len(tokens))
	for token, user := range tokens {
		copied[token] = user
	}
	return &StaticTokenProvider{tokens: copied}
}

func (p *StaticTokenProvider) Authenticate(ctx context.Context) (*Credentials, error) {
	token := TokenFromContext(ctx)
	if token == "" {
		return nil, ErrNoCredentials
	}

	p.mu.RLock()
	user, ok := p.tokens[token]
	p.mu.RUnlock()
	if !ok {
		return nil, ErrUnknownToken
	}
	return &Credentials{UserID: user, Token: token}, nil
}

func (p *StaticTokenProvider) Refresh(ctx context.Context, creds *Credentials) (*Credentials, error) {
	if creds == nil {
		return nil, ErrNoCredentials
	}
	return p.Authenticate(WithToken(ctx, creds.Token))
}

func (p *StaticTokenProvider) Revoke(_ context.Context, creds *Credentials) error {
	if creds == nil {
		return ErrNoCredentials
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.tokens[creds.Token]; !ok {
		return ErrUnknownToken
	}
	delete(p.tokens, creds.Token)
	return nil
}
