package identity

import (
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func testSecret() string {
	return base64.StdEncoding.EncodeToString([]byte("0123456789abcdef0123456789abcdef"))
}

func TestCookieCodec_Roundtrip(t *testing.T) {
	codec, err := NewCookieCodec(testSecret())
	if err != nil {
		t.Fatal(err)
	}

	sealed, err := codec.Seal("anon_00112233445566778899aabbccddeeff")
	if err != nil {
		t.Fatal(err)
	}

	got, err := codec.Open(sealed)
	if err != nil {
		t.Fatal(err)
	}
	if got != "anon_00112233445566778899aabbccddeeff" {
		t.Errorf("opened = %q", got)
	}
}

func TestCookieCodec_TamperDetected(t *testing.T) {
	codec, err := NewCookieCodec(testSecret())
	if err != nil {
		t.Fatal(err)
	}

	sealed, err := codec.Seal("anon_00112233445566778899aabbccddeeff")
	if err != nil {
		t.Fatal(err)
	}

	raw, _ := base64.RawURLEncoding.DecodeString(sealed)
	raw[len(raw)-1] ^= 0x01
	tampered := base64.RawURLEncoding.EncodeToString(raw)

	if _, err := codec.Open(tampered); err == nil {
		t.Error("expected error for tampered cookie")
	}
	if _, err := codec.Open("short"); err == nil {
		t.Error("expected error for truncated cookie")
	}
}

func TestNewCookieCodec_BadSecret(t *testing.T) {
	for _, secret := range []string{"", "tooshort", "not base64 at all!!"} {
		if _, err := NewCookieCodec(secret); err == nil {
			t.Errorf("expected error for secret %q", secret)
		}
	}
}

func identityEcho(t *testing.T) (http.Handler, *string) {
	t.Helper()
	var seen string
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = UserIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	return h, &seen
}

func TestMiddleware_BearerToken(t *testing.T) {
	inner, seen := identityEcho(t)
	provider := NewStaticTokenProvider(map[string]string{"secret-token": "serhii"})
	h := Middleware(nil, provider, true)(inner)

	req := httptest.NewRequest("GET", "/v1/history", nil)
	req.Header.Set("Authorization", "Bearer secret-token")
	h.ServeHTTP(httptest.NewRecorder(), req)

	if *seen != "serhii" {
		t.Errorf("user = %q, want serhii", *seen)
	}
}

func TestMiddleware_MintsAnonymousCookie(t *testing.T) {
	codec, err := NewCookieCodec(testSecret())
	if err != nil {
		t.Fatal(err)
	}
	inner, seen := identityEcho(t)
	h := Middleware(codec, nil, true)(inner)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	if !strings.HasPrefix(*seen, "anon_") {
		t.Errorf("user = %q, want anon_ prefix", *seen)
	}

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != CookieName {
		t.Fatalf("cookies = %+v", cookies)
	}

	// Replaying the cookie resolves to the same identity.
	first := *seen
	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(cookies[0])
	h.ServeHTTP(httptest.NewRecorder(), req)

	if *seen != first {
		t.Errorf("replayed identity = %q, want %q", *seen, first)
	}
}

func TestMiddleware_CookieSecureFlag(t *testing.T) {
	codec, err := NewCookieCodec(testSecret())
	if err != nil {
		t.Fatal(err)
	}

	for _, tt := range []struct {
		name       string
		isDev      bool
		wantSecure bool
	}{
		{"production", false, true},
		{"dev mode", true, false},
	} {
		t.Run(tt.name, func(t *testing.T) {
			inner, _ := identityEcho(t)
			h := Middleware(codec, nil, tt.isDev)(inner)

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

			cookies := rec.Result().Cookies()
			if len(cookies) != 1 {
				t.Fatalf("cookies = %+v", cookies)
			}
			if cookies[0].Secure != tt.wantSecure {
				t.Errorf("Secure = %v, want %v", cookies[0].Secure, tt.wantSecure)
			}
		})
	}
}

func TestMiddleware_RejectsForgedCookie(t *testing.T) {
	codec, err := NewCookieCodec(testSecret())
	if err != nil {
		t.Fatal(err)
	}
	inner, seen := identityEcho(t)
	h := Middleware(codec, nil, true)(inner)

	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "forged-value"})
	h.ServeHTTP(httptest.NewRecorder(), req)

	// Forged cookie is ignored and a fresh identity minted.
	if !strings.HasPrefix(*seen, "anon_") {
		t.Errorf("user = %q", *seen)
	}
}
