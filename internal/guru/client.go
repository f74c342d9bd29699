// Package guru is the client SDK for the Snippets Guru API.
//
// Every operation is one synchronous HTTPS round trip: the resource clients
// (Snippets, Blobs, Revisions) compose a URL from the configured base URL and
// their fixed base path, and hand it to Client.Execute, which authenticates
// the request with a bearer token, classifies the response and decodes the
// JSON body.
//
// The client speaks the hypermedia flavour of the API (application/ld+json
// with Hydra collections). It never retries and never caches; both are the
// caller's business.
package guru

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// DefaultBaseURL is the production Snippets Guru service.
	DefaultBaseURL = "https://snippets.guru"

	// RequestTimeout bounds every request. It is not configurable per call.
	RequestTimeout = 30 * time.Second

	// MaxResponseBytes caps how much of a response body is read.
	MaxResponseBytes = 16 << 20

	mediaType = "application/ld+json"
)

// TokenProvider supplies the bearer token for a request.
// ok is false when no token is available; an empty token is treated the same.
type TokenProvider interface {
	Retrieve(ctx context.Context) (token string, ok bool)
}

// Doer is the transport adapter. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config holds the client configuration.
type Config struct {
	// BaseURL is the service root, e.g. "https://snippets.guru".
	BaseURL string
	// HTTPClient overrides the transport. Defaults to an *http.Client with
	// RequestTimeout.
	HTTPClient Doer
}

// Client executes authenticated requests against the Snippets Guru API.
// It is safe for concurrent use; it holds no per-request state.
type Client struct {
	baseURL string
	http    Doer
	tokens  TokenProvider
	logger  *slog.Logger
}

// New creates a Client. tokens is consulted on every request.
func New(cfg Config, tokens TokenProvider, logger *slog.Logger) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}

	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("guru: parsing base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("guru: base URL must use http or https, got %q", base)
	}

	if tokens == nil {
		return nil, fmt.Errorf("guru: token provider is required")
	}

	doer := cfg.HTTPClient
	if doer == nil {
		doer = &http.Client{Timeout: RequestTimeout}
	}

	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Client{
		baseURL: base,
		http:    doer,
		tokens:  tokens,
		logger:  logger,
	}, nil
}

// BaseURL returns the service root without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// URL joins path onto the base URL.
func (c *Client) URL(path string) string {
	if path == "" {
		return c.baseURL
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseURL + path
}

// WithTokenProvider returns a copy of c that authenticates with tokens.
// Used to check a candidate token before it is persisted.
func (c *Client) WithTokenProvider(tokens TokenProvider) *Client {
	cp := *c
	cp.tokens = tokens
	return &cp
}

// Snippets returns the client for /api/snippets.
func (c *Client) Snippets() *SnippetClient {
	return &SnippetClient{c: c}
}

// Blobs returns the client for /api/blobs.
func (c *Client) Blobs() *BlobClient {
	return &BlobClient{c: c}
}

// Revisions returns the client for /api/revisions.
func (c *Client) Revisions() *RevisionClient {
	return &RevisionClient{c: c}
}

// resourceURL builds {base}{basePath}[/{id}].
func (c *Client) resourceURL(basePath string, id ...string) string {
	u := c.baseURL + basePath
	for _, part := range id {
		u += "/" + url.PathEscape(part)
	}
	return u
}

// roundTrip sends req and reads the body, at most MaxResponseBytes of it.
// Transport and read failures come back as *TransportError. A successful
// response larger than the cap is a *DecodeError; the bodies of error
// responses are never decoded, so they are cut at the cap.
func (c *Client) roundTrip(req *http.Request) (*http.Response, []byte, error) {
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("guru request failed",
			slog.String("method", req.Method),
			slog.String("url", req.URL.String()),
			slog.Duration("duration", time.Since(start)),
			slog.String("error", err.Error()),
		)
		return nil, nil, &TransportError{Method: req.Method, URL: req.URL.String(), Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseBytes+1))
	if err != nil {
		return nil, nil, &TransportError{Method: req.Method, URL: req.URL.String(), Err: err}
	}
	if len(body) > MaxResponseBytes {
		if resp.StatusCode < http.StatusBadRequest {
			return nil, nil, &DecodeError{URL: req.URL.String(), Err: ErrResponseTooLarge}
		}
		body = body[:MaxResponseBytes]
	}

	c.logger.Debug("guru request completed",
		slog.String("method", req.Method),
		slog.String("url", req.URL.String()),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", time.Since(start)),
		slog.Int("bytes", len(body)),
	)

	return resp, body, nil
}
