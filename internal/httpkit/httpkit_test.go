package httpkit

import (
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"syscall"
	"testing"
	"time"
)

func TestNewClient_Timeouts(t *testing.T) {
	tests := []struct {
		name string
		opts []ClientOption
		want time.Duration
	}{
		{"default", nil, 30 * time.Second},
		{"custom", []ClientOption{WithTimeout(5 * time.Second)}, 5 * time.Second},
		// LLM providers stream with no client timeout; the transport's
		// response-header timeout still bounds a dead connection.
		{"streaming", []ClientOption{WithTimeout(0)}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NewClient(tt.opts...).Timeout; got != tt.want {
				t.Errorf("Timeout = %v, want %v", got, tt.want)
			}
		})
	}
}

func uaEchoServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(r.Header.Get("User-Agent")))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestNewClient_UserAgent(t *testing.T) {
	srv := uaEchoServer(t)

	get := func(t *testing.T, c *http.Client) string {
		t.Helper()
		resp, err := c.Get(srv.URL)
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		return string(body)
	}

	t.Run("default identifies the service", func(t *testing.T) {
		if ua := get(t, NewClient()); !strings.HasPrefix(ua, "personal-ai-trainer/") {
			t.Errorf("User-Agent = %q", ua)
		}
	})

	t.Run("override", func(t *testing.T) {
		if ua := get(t, NewClient(WithUserAgent("coach-probe/1.0"))); ua != "coach-probe/1.0" {
			t.Errorf("User-Agent = %q", ua)
		}
	})

	t.Run("disabled falls back to Go default", func(t *testing.T) {
		if ua := get(t, NewClient(WithoutUserAgent())); strings.HasPrefix(ua, "personal-ai-trainer/") {
			t.Errorf("User-Agent = %q", ua)
		}
	})

	t.Run("per-request header wins", func(t *testing.T) {
		req, _ := http.NewRequest("GET", srv.URL, nil)
		req.Header.Set("User-Agent", "upstream-sdk/2.0")
		resp, err := NewClient().Do(req)
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		if string(body) != "upstream-sdk/2.0" {
			t.Errorf("User-Agent = %q", body)
		}
	})
}

func TestNewTransport_Defaults(t *testing.T) {
	tr := NewTransport()
	if tr.TLSHandshakeTimeout != DefaultTLSHandshakeTimeout {
		t.Errorf("TLSHandshakeTimeout = %v", tr.TLSHandshakeTimeout)
	}
	if tr.ResponseHeaderTimeout != DefaultResponseHeader {
		t.Errorf("ResponseHeaderTimeout = %v", tr.ResponseHeaderTimeout)
	}
	if tr.IdleConnTimeout != DefaultIdleConnTimeout {
		t.Errorf("IdleConnTimeout = %v", tr.IdleConnTimeout)
	}
	if tr.MaxIdleConns != DefaultMaxIdleConns {
		t.Errorf("MaxIdleConns = %d", tr.MaxIdleConns)
	}
	if tr.MaxIdleConnsPerHost != DefaultMaxIdleConnsPerHost {
		t.Errorf("MaxIdleConnsPerHost = %d", tr.MaxIdleConnsPerHost)
	}
}

func TestNewClient_SharedTransport(t *testing.T) {
	// Providers tune one transport and hand it to the client.
	tr := NewTransport()
	tr.ResponseHeaderTimeout = 10 * time.Minute
	c := NewClient(WithTimeout(0), WithTransport(tr))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	resp, err := c.Get(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
}

func TestReadErrorBody(t *testing.T) {
	t.Run("full body", func(t *testing.T) {
		rc := io.NopCloser(strings.NewReader(`{"error":{"type":"rate_limit_error"}}`))
		if got := ReadErrorBody(rc, 4096); got != `{"error":{"type":"rate_limit_error"}}` {
			t.Errorf("body = %q", got)
		}
	})

	t.Run("truncates at limit", func(t *testing.T) {
		rc := io.NopCloser(strings.NewReader(strings.Repeat("x", 1000)))
		if got := ReadErrorBody(rc, 10); len(got) != 10 {
			t.Errorf("len = %d", len(got))
		}
	})

	t.Run("nil body", func(t *testing.T) {
		if got := ReadErrorBody(nil, 4096); got != "" {
			t.Errorf("body = %q", got)
		}
	})

	t.Run("read failure reported", func(t *testing.T) {
		rc := io.NopCloser(&failReader{})
		if got := ReadErrorBody(rc, 4096); !strings.Contains(got, "failed to read") {
			t.Errorf("body = %q", got)
		}
	})
}

type failReader struct{}

func (f *failReader) Read([]byte) (int, error) {
	return 0, fmt.Errorf("connection reset")
}

func TestDrainAndClose(t *testing.T) {
	DrainAndClose(io.NopCloser(strings.NewReader("leftover body")), 1024)
	DrainAndClose(io.NopCloser(strings.NewReader(strings.Repeat("x", 10000))), 100)
	DrainAndClose(nil, 1024)
}

// flakyRoundTripper fails with a retryable network error a fixed
// number of times, then succeeds.
type flakyRoundTripper struct {
	failures int
	calls    int
}

func (f *flakyRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, &net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED}
	}
	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(strings.NewReader("ok")),
	}, nil
}

func TestRetryTransport(t *testing.T) {
	tests := []struct {
		name      string
		failures  int
		wantCalls int
		wantErr   bool
	}{
		{"clean first attempt", 0, 1, false},
		{"recovers after one failure", 1, 2, false},
		{"gives up after budget", 10, 3, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ft := &flakyRoundTripper{failures: tt.failures}
			rt := &retryTransport{base: ft, count: 2, delay: time.Millisecond}

			req, _ := http.NewRequest("GET", "http://api.invalid/v1/chat", nil)
			_, err := rt.RoundTrip(req)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if ft.calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", ft.calls, tt.wantCalls)
			}
		})
	}
}

func TestRetryTransport_BodyNeedsGetBody(t *testing.T) {
	// A request body is consumed by the first attempt; without GetBody
	// the transport must fail instead of retrying a half-sent request.
	ft := &flakyRoundTripper{failures: 1}
	rt := &retryTransport{base: ft, count: 2, delay: time.Millisecond}

	req, _ := http.NewRequest("POST", "http://api.invalid/v1/chat", strings.NewReader(`{"message":"привіт"}`))
	req.GetBody = nil
	if _, err := rt.RoundTrip(req); err == nil {
		t.Fatal("expected error without GetBody")
	}
	if ft.calls != 1 {
		t.Errorf("calls = %d, want 1", ft.calls)
	}

	ft = &flakyRoundTripper{failures: 1}
	rt = &retryTransport{base: ft, count: 2, delay: time.Millisecond}
	req, _ = http.NewRequest("POST", "http://api.invalid/v1/chat", strings.NewReader(`{"message":"привіт"}`))
	req.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(strings.NewReader(`{"message":"привіт"}`)), nil
	}
	if _, err := rt.RoundTrip(req); err != nil {
		t.Fatalf("expected retry with GetBody, got %v", err)
	}
}

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"generic", fmt.Errorf("boom"), false},
		{"connection refused", syscall.ECONNREFUSED, true},
		{"host unreachable", syscall.EHOSTUNREACH, true},
		{"network unreachable", syscall.ENETUNREACH, true},
		{"connection reset", syscall.ECONNRESET, false},
		{"wrapped", fmt.Errorf("dial: %w", syscall.ECONNREFUSED), true},
		{"op error chain", &net.OpError{Op: "dial", Net: "tcp", Err: syscall.EHOSTUNREACH}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isRetryableError(tt.err); got != tt.want {
				t.Errorf("isRetryableError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
