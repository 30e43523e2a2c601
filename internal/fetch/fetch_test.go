package fetch

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	http "github.com/bogdanfinn/fhttp"

	apierrors "github.com/diogo/llmchat/internal/errors"
)

// mockDoer records the last request and returns a canned response
type mockDoer struct {
	status int
	body   string
	err    error

	lastReq  *http.Request
	lastBody []byte
}

func (m *mockDoer) Do(req *http.Request) (*http.Response, error) {
	m.lastReq = req
	if req.Body != nil {
		m.lastBody, _ = io.ReadAll(req.Body)
	}
	if m.err != nil {
		return nil, m.err
	}
	return &http.Response{
		StatusCode: m.status,
		Body:       io.NopCloser(strings.NewReader(m.body)),
	}, nil
}

func TestHTTPFetch_Post(t *testing.T) {
	doer := &mockDoer{status: 200, body: `{"ok": "yes"}`}
	f := NewWithDoer(doer)

	headers := []Header{{Key: "Authorization", Value: "Bearer sk-test"}}
	resp, err := f.Post(context.Background(), "https://api.example.com/v1/x", headers, map[string]string{"model": "m"})
	if err != nil {
		t.Fatalf("Post() returned error: %v", err)
	}

	if doer.lastReq.Method != http.MethodPost {
		t.Errorf("Method = %s, want POST", doer.lastReq.Method)
	}
	if got := doer.lastReq.Header.Get("Authorization"); got != "Bearer sk-test" {
		t.Errorf("Authorization = %q", got)
	}
	if got := doer.lastReq.Header.Get("Content-Type"); got != "application/json" {
		t.Errorf("Content-Type = %q", got)
	}
	if !bytes.Equal(doer.lastBody, []byte(`{"model":"m"}`)) {
		t.Errorf("body = %s", doer.lastBody)
	}

	if !resp.OK() {
		t.Errorf("OK() = false for status %d", resp.StatusCode)
	}
	v, err := resp.JSON()
	if err != nil {
		t.Fatalf("JSON() returned error: %v", err)
	}
	if got, _ := v.Key("ok").Text(); got != "yes" {
		t.Errorf("ok = %q", got)
	}
}

func TestHTTPFetch_Get(t *testing.T) {
	doer := &mockDoer{status: 404, body: `not json`}
	f := NewWithDoer(doer)

	resp, err := f.Get(context.Background(), "https://api.example.com/v1/models", nil)
	if err != nil {
		t.Fatalf("Get() returned error: %v", err)
	}
	if doer.lastReq.Method != http.MethodGet {
		t.Errorf("Method = %s, want GET", doer.lastReq.Method)
	}
	if doer.lastBody != nil {
		t.Errorf("GET should not send a body, got %q", doer.lastBody)
	}
	if resp.OK() {
		t.Error("OK() = true for 404")
	}

	_, err = resp.JSON()
	if !apierrors.IsParseError(err) {
		t.Errorf("JSON() error = %v, want parse error", err)
	}
}

func TestHTTPFetch_TransportError(t *testing.T) {
	f := NewWithDoer(&mockDoer{err: errors.New("connection refused")})

	_, err := f.Get(context.Background(), "https://api.example.com", nil)
	if !apierrors.IsNetworkError(err) {
		t.Fatalf("error = %v, want network error", err)
	}
	if !strings.Contains(err.Error(), "connection refused") {
		t.Errorf("error should carry the cause: %v", err)
	}
}

func TestHTTPFetch_PostRequiresPayload(t *testing.T) {
	doer := &mockDoer{status: 200}
	f := NewWithDoer(doer)

	if _, err := f.Post(context.Background(), "https://api.example.com", nil, nil); err == nil {
		t.Error("expected error for nil payload")
	}
	if doer.lastReq != nil {
		t.Error("no request should be sent")
	}
}

func TestHTTPFetch_RateLimitHonorsContext(t *testing.T) {
	doer := &mockDoer{status: 200, body: `{}`}
	f := NewWithDoer(doer, WithRateLimit(1))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.Get(ctx, "https://api.example.com", nil)
	if !apierrors.IsNetworkError(err) {
		t.Fatalf("error = %v, want network error", err)
	}
	if doer.lastReq != nil {
		t.Error("no request should be sent with a cancelled context")
	}
}

func TestWithRateLimit_ZeroDisables(t *testing.T) {
	f := NewWithDoer(&mockDoer{}, WithRateLimit(0))
	if f.limiter != nil {
		t.Error("limiter should be nil for 0 requests per second")
	}
}

func TestHTTPFetch_BodyLimit(t *testing.T) {
	t.Run("at the limit", func(t *testing.T) {
		f := NewWithDoer(&mockDoer{status: 200, body: `{"a":1}`}, WithMaxBodySize(7))
		resp, err := f.Get(context.Background(), "https://api.example.com", nil)
		if err != nil {
			t.Fatalf("Get() returned error: %v", err)
		}
		if string(resp.Body) != `{"a":1}` {
			t.Errorf("body = %q", resp.Body)
		}
	})

	t.Run("over the limit", func(t *testing.T) {
		f := NewWithDoer(&mockDoer{status: 200, body: `{"a":12}`}, WithMaxBodySize(7))
		_, err := f.Get(context.Background(), "https://api.example.com", nil)
		if !errors.Is(err, ErrBodyTooLarge) {
			t.Fatalf("error = %v, want ErrBodyTooLarge", err)
		}
		if !apierrors.IsNetworkError(err) {
			t.Errorf("error = %v, want network error", err)
		}
	})
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"abcdef", 3, "abc..."},
		{"héllo wörld", 5, "héllo..."},
		{"日本語テキスト", 3, "日本語..."},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.n); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}
