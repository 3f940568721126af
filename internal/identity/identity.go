// Package identity provides per-user identity for the trainer API:
// static bearer tokens for configured users and sealed anonymous
// cookies for everyone else.
package identity

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"golang.org/x/crypto/nacl/secretbox"
)

const (
	CookieName   = "trainer_session"
	cookieMaxAge = 30 * 24 * time.Hour
)

type contextKey int

const userIDKey contextKey = iota

var anonIDPattern = regexp.MustCompile(`^anon_[a-f0-9]{32}$`)

// UserIDFromContext extracts the authenticated user ID from the request
// context, or "" when the request carried no identity.
func UserIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(userIDKey).(string); ok {
		return v
	}
	return ""
}

// WithUserID returns a context carrying the given user ID.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

func generateAnonID() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate anonymous id: %w", err)
	}
	return "anon_" + hex.EncodeToString(buf), nil
}

// CookieCodec seals user IDs into tamper-proof cookie values with
// NaCl secretbox. The 24-byte nonce is prepended to the ciphertext and
// the whole value is base64url encoded.
type CookieCodec struct {
	key [32]byte
}

// NewCookieCodec builds a codec from a 32-byte secret given as base64
// or hex.
func NewCookieCodec(secret string) (*CookieCodec, error) {
	raw, err := decodeSecret(secret)
	if err != nil {
		return nil, err
	}
	c := &CookieCodec{}
	copy(c.key[:], raw)
	return c, nil
}

func decodeSecret(secret string) ([]byte, error) {
	if raw, err := base64.StdEncoding.DecodeString(secret); err == nil && len(raw) == 32 {
		return raw, nil
	}
	if raw, err := hex.DecodeString(secret); err == nil && len(raw) == 32 {
		return raw, nil
	}
	return nil, errors.New("cookie secret must be 32 bytes of base64 or hex")
}

// Seal encrypts a user ID into a cookie value.
func (c *CookieCodec) Seal(userID string) (string, error) {
	var nonce [24]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return "", fmt.Errorf("seal cookie: %w", err)
	}
	sealed := secretbox.Seal(nonce[:], []byte(userID), &nonce, &c.key)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Open decrypts a cookie value back to a user ID. Tampered or
// truncated values return an error.
func (c *CookieCodec) Open(value string) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return "", fmt.Errorf("decode cookie: %w", err)
	}
	if len(raw) < 24 {
		return "", errors.New("cookie value too short")
	}
	var nonce [24]byte
	copy(nonce[:], raw[:24])
	plain, ok := secretbox.Open(nil, raw[24:], &nonce, &c.key)
	if !ok {
		return "", errors.New("cookie authentication failed")
	}
	return string(plain), nil
}

func setSessionCookie(w http.ResponseWriter, value string, isDev bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   int(cookieMaxAge.Seconds()),
		Expires:  time.Now().Add(cookieMaxAge),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   !isDev,
	})
}

// Middleware resolves request identity. Credentials accepted by the
// provider win; otherwise the sealed session cookie is opened, or a
// fresh anonymous identity is minted and set. When codec is nil,
// cookie sessions are disabled and unauthenticated requests get an
// unpersisted anonymous ID per request.
func Middleware(codec *CookieCodec, provider Provider, isDev bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var userID string
			if provider != nil {
				ctx := WithToken(r.Context(), bearerToken(r))
				if creds, err := provider.Authenticate(ctx); err == nil && !creds.Expired() {
					userID = creds.UserID
				}
			}

			if userID == "" && codec != nil {
				if c, err := r.Cookie(CookieName); err == nil {
					if id, err := codec.Open(c.Value); err == nil && anonIDPattern.MatchString(id) {
						userID = id
					}
				}
			}

			if userID == "" {
				id, err := generateAnonID()
				if err != nil {
					http.Error(w, `{"error":"failed to establish identity"}`, http.StatusInternalServerError)
					return
				}
				userID = id
				if codec != nil {
					sealed, err := codec.Seal(id)
					if err != nil {
						http.Error(w, `{"error":"failed to establish identity"}`, http.StatusInternalServerError)
						return
					}
					setSessionCookie(w, sealed, isDev)
				}
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(auth, "Bearer ")
	if !ok {
		return ""
	}
	return token
}
