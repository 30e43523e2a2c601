// Package fetch is the HTTP capability used by providers: POST a JSON
// payload or GET a URL with a header list and get the raw body back.
package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"
	"unicode/utf8"

	http "github.com/bogdanfinn/fhttp"
	tls_client "github.com/bogdanfinn/tls-client"
	"github.com/bogdanfinn/tls-client/profiles"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	apierrors "github.com/diogo/llmchat/internal/errors"
	"github.com/diogo/llmchat/internal/jsondecode"
)

// MaxBodySize is the default cap on a response body
const MaxBodySize = 10 << 20

// ErrBodyTooLarge is returned, wrapped in a NetworkError, when a response
// body exceeds the cap
var ErrBodyTooLarge = errors.New("response too large")

// Header is a single request header
type Header struct {
	Key   string
	Value string
}

// Response is a completed HTTP exchange. Non-2xx statuses are not errors.
type Response struct {
	StatusCode int
	Body       []byte
}

// OK reports a 2xx status
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// JSON parses the body
func (r *Response) JSON() (jsondecode.Value, error) {
	v, err := jsondecode.Parse(r.Body)
	if err != nil {
		return jsondecode.Value{}, apierrors.NewParseError(
			fmt.Sprintf("failed to parse JSON: %s", truncate(string(r.Body), 200)), jsondecode.RootPath)
	}
	return v, nil
}

// Fetch performs HTTP requests. Errors are returned only for transport
// failures; application errors travel in the Response.
type Fetch interface {
	Post(ctx context.Context, url string, headers []Header, payload any) (*Response, error)
	Get(ctx context.Context, url string, headers []Header) (*Response, error)
}

// Doer is the part of tls_client.HttpClient used here
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// HTTPFetch is the Fetch implementation over a tls-client HttpClient
type HTTPFetch struct {
	client  Doer
	limiter *rate.Limiter
	maxBody int64
}

// Option configures an HTTPFetch
type Option func(*HTTPFetch)

// WithRateLimit caps outgoing requests per second; 0 disables the cap.
func WithRateLimit(perSecond float64) Option {
	return func(f *HTTPFetch) {
		if perSecond <= 0 {
			f.limiter = nil
			return
		}
		f.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
}

// WithMaxBodySize overrides MaxBodySize
func WithMaxBodySize(n int64) Option {
	return func(f *HTTPFetch) {
		f.maxBody = n
	}
}

// WithDoer replaces the underlying client
func WithDoer(d Doer) Option {
	return func(f *HTTPFetch) {
		f.client = d
	}
}

// New creates an HTTPFetch backed by a Chrome-profile tls-client.
func New(timeout time.Duration, opts ...Option) (*HTTPFetch, error) {
	f := &HTTPFetch{maxBody: MaxBodySize}
	for _, opt := range opts {
		opt(f)
	}
	if f.client != nil {
		return f, nil
	}

	seconds := int(timeout / time.Second)
	if seconds <= 0 {
		seconds = 120
	}
	client, err := tls_client.NewHttpClient(tls_client.NewNoopLogger(),
		tls_client.WithTimeoutSeconds(seconds),
		tls_client.WithClientProfile(profiles.Chrome_120),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}
	f.client = client
	return f, nil
}

// NewWithDoer creates an HTTPFetch over an existing client
func NewWithDoer(d Doer, opts ...Option) *HTTPFetch {
	f := &HTTPFetch{client: d, maxBody: MaxBodySize}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Post sends payload as a JSON body
func (f *HTTPFetch) Post(ctx context.Context, url string, headers []Header, payload any) (*Response, error) {
	if payload == nil {
		return nil, fmt.Errorf("POST %s requires a payload", url)
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode payload: %w", err)
	}
	return f.do(ctx, http.MethodPost, url, headers, body)
}

// Get requests url without a body
func (f *HTTPFetch) Get(ctx context.Context, url string, headers []Header) (*Response, error) {
	return f.do(ctx, http.MethodGet, url, headers, nil)
}

func (f *HTTPFetch) do(ctx context.Context, method, url string, headers []Header, body []byte) (*Response, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, apierrors.NewNetworkError(method, url, err)
		}
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, apierrors.NewNetworkError(method, url, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, h := range headers {
		req.Header.Set(h.Key, h.Value)
	}

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		log.Debug().Str("method", method).Str("url", url).Err(err).Msg("request failed")
		return nil, apierrors.NewNetworkError(method, url, err)
	}
	defer func() {
		if resp.Body != nil {
			_ = resp.Body.Close()
		}
	}()

	var data []byte
	if resp.Body != nil {
		data, err = io.ReadAll(io.LimitReader(resp.Body, f.maxBody+1))
		if err != nil {
			return nil, apierrors.NewNetworkError(method, url, fmt.Errorf("read body: %w", err))
		}
		if int64(len(data)) > f.maxBody {
			log.Debug().Str("method", method).Str("url", url).Int64("limit", f.maxBody).Msg("response body over the limit")
			return nil, apierrors.NewNetworkError(method, url,
				fmt.Errorf("%w: body exceeds %d bytes", ErrBodyTooLarge, f.maxBody))
		}
	}

	log.Debug().
		Str("method", method).
		Str("url", url).
		Int("status", resp.StatusCode).
		Dur("took", time.Since(start)).
		Int("bytes", len(data)).
		Msg("request done")

	return &Response{StatusCode: resp.StatusCode, Body: data}, nil
}

// truncate cuts s to at most n runes
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}
