package httputil

import (
	"context"
	stderrors "errors"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/matzehuels/postcraft/pkg/cache"
	"github.com/matzehuels/postcraft/pkg/errors"
	"github.com/matzehuels/postcraft/pkg/observability"
)

const (
	defaultTimeout = 15 * time.Second
	// DefaultMaxBodySize bounds a single response body.
	DefaultMaxBodySize = 20 << 20
)

// Client performs GET requests for remote resources.
// It is safe for concurrent use.
type Client struct {
	http     *http.Client
	cache    cache.Cache
	keyer    cache.Keyer
	ttl      time.Duration
	headers  map[string]string
	attempts int
	delay    time.Duration
	maxBody  int64
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout sets the per-request timeout of the default http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http = &http.Client{Timeout: d} }
}

// WithCache stores response bodies in store for ttl.
func WithCache(store cache.Cache, ttl time.Duration) Option {
	return func(c *Client) {
		c.cache = store
		c.ttl = ttl
	}
}

// WithKeyer overrides the keyer used for response caching.
func WithKeyer(k cache.Keyer) Option {
	return func(c *Client) {
		if k != nil {
			c.keyer = k
		}
	}
}

// WithHeaders sets headers sent with every request.
func WithHeaders(h map[string]string) Option {
	return func(c *Client) { c.headers = h }
}

// WithAttempts enables retries of transient failures.
func WithAttempts(n int, delay time.Duration) Option {
	return func(c *Client) {
		c.attempts = max(n, 1)
		c.delay = delay
	}
}

// WithMaxBodySize bounds response bodies. Larger bodies fail with
// ErrCodeResourceLoad.
func WithMaxBodySize(n int64) Option {
	return func(c *Client) { c.maxBody = n }
}

// NewClient creates a Client. Without options it makes a single uncached
// attempt per request.
func NewClient(opts ...Option) *Client {
	c := &Client{
		http:     &http.Client{Timeout: defaultTimeout},
		cache:    cache.NewNullCache(),
		keyer:    cache.NewDefaultKeyer(),
		attempts: 1,
		delay:    500 * time.Millisecond,
		maxBody:  DefaultMaxBodySize,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Cached returns the cached value for key or runs fetch and caches its
// result. Only successful fetches are cached.
func (c *Client) Cached(ctx context.Context, key, keyType string, ttl time.Duration, fetch func() ([]byte, error)) ([]byte, error) {
	if data, ok, _ := c.cache.Get(ctx, key); ok {
		observability.Cache().OnCacheHit(ctx, keyType)
		return data, nil
	}
	observability.Cache().OnCacheMiss(ctx, keyType)

	var data []byte
	err := Retry(ctx, c.attempts, c.delay, func() error {
		var err error
		data, err = fetch()
		return err
	})
	if err != nil {
		return nil, err
	}
	if err := c.cache.Set(ctx, key, data, ttl); err == nil {
		observability.Cache().OnCacheSet(ctx, keyType, len(data))
	}
	return data, nil
}

// GetBytes fetches rawURL and returns the body. Responses are cached under
// the keyer's resource key.
func (c *Client) GetBytes(ctx context.Context, rawURL string) ([]byte, error) {
	return c.Cached(ctx, c.keyer.ResourceKey(rawURL), "resource", c.ttl, func() ([]byte, error) {
		return c.fetch(ctx, rawURL, nil)
	})
}

// GetText fetches rawURL with extra headers and returns the body as a
// string. The response is not cached; callers cache the parsed result.
func (c *Client) GetText(ctx context.Context, rawURL string, headers map[string]string) (string, error) {
	var body []byte
	err := Retry(ctx, c.attempts, c.delay, func() error {
		var err error
		body, err = c.fetch(ctx, rawURL, headers)
		return err
	})
	return string(body), err
}

func (c *Client) fetch(ctx context.Context, rawURL string, headers map[string]string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidSource, err, "parse url")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidSource, err, "build request")
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	hooks := observability.HTTP()
	hooks.OnRequest(ctx, req.Method, u.Host, u.Path)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		hooks.OnError(ctx, req.Method, u.Host, u.Path, err)
		return nil, classifyTransport(err, rawURL)
	}
	defer resp.Body.Close()
	hooks.OnResponse(ctx, req.Method, u.Host, u.Path, resp.StatusCode, time.Since(start))

	if err := checkStatus(resp.StatusCode, rawURL); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return nil, Retryable(errors.Wrap(errors.ErrCodeNetwork, err, "read %s", rawURL))
	}
	if int64(len(data)) > c.maxBody {
		return nil, errors.New(errors.ErrCodeResourceLoad, "%s exceeds %d bytes", rawURL, c.maxBody)
	}
	return data, nil
}

func classifyTransport(err error, rawURL string) error {
	if stderrors.Is(err, context.Canceled) {
		return err
	}
	if stderrors.Is(err, context.DeadlineExceeded) {
		return errors.Wrap(errors.ErrCodeTimeout, err, "fetch %s", rawURL)
	}
	var netErr interface{ Timeout() bool }
	if stderrors.As(err, &netErr) && netErr.Timeout() {
		return Retryable(errors.Wrap(errors.ErrCodeTimeout, err, "fetch %s", rawURL))
	}
	return Retryable(errors.Wrap(errors.ErrCodeNetwork, err, "fetch %s", rawURL))
}

func checkStatus(code int, rawURL string) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusNotFound:
		return errors.New(errors.ErrCodeNotFound, "%s: status %d", rawURL, code)
	case code == http.StatusTooManyRequests, code >= 500:
		return Retryable(errors.New(errors.ErrCodeNetwork, "%s: status %d", rawURL, code))
	default:
		return errors.New(errors.ErrCodeResourceLoad, "%s: status %d", rawURL, code)
	}
}
