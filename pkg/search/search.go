// Package search provides the web search and encyclopedic reference clients
// used to gather public-profile evidence about a person.
package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// UserAgent identifies this client to the upstream APIs.
const UserAgent = "guestscout/1.0 (+https://github.com/codeGROOVE-dev/guestscout)"

var (
	// ErrAuth means the provider rejected the configured credentials.
	ErrAuth = errors.New("search provider rejected credentials")
	// ErrQuota means the provider's own request quota is exhausted.
	ErrQuota = errors.New("search provider quota exhausted")
	// ErrUnavailable means the provider cannot be reached or is failing.
	ErrUnavailable = errors.New("search provider unavailable")
)

// Query describes one web search.
type Query struct {
	Text string
	// DateRestrict limits results by age using Google's syntax: d1, w1, m1, y1.
	DateRestrict string
	// Sites restricts results to any of the given domains.
	Sites      []string
	NumResults int
}

// Result is a single web search hit.
type Result struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

// Response is the outcome of a web search.
// TotalResults is the provider's estimate, or 0 when the provider does not report one.
type Response struct {
	Results      []Result `json:"results"`
	TotalResults int64    `json:"total_results"`
}

// Searcher runs web searches.
type Searcher interface {
	Name() string
	Search(ctx context.Context, q Query) (*Response, error)
}

// Article is the best encyclopedic match for a person.
type Article struct {
	Title     string `json:"title"`
	Snippet   string `json:"snippet"`
	WordCount int    `json:"word_count"`
}

// Reference looks up encyclopedic articles.
// Lookup returns a nil Article and nil error when nothing matches.
type Reference interface {
	Name() string
	Lookup(ctx context.Context, name string) (*Article, error)
}

// HTTPError represents a non-200 response from a provider.
type HTTPError struct {
	Provider   string
	Endpoint   string
	Body       string
	StatusCode int
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: HTTP %d from %s", e.Provider, e.StatusCode, e.Endpoint)
	}
	return fmt.Sprintf("%s: HTTP %d from %s: %s", e.Provider, e.StatusCode, e.Endpoint, e.Body)
}

// Unwrap maps the status code onto the package sentinel errors.
func (e *HTTPError) Unwrap() error {
	switch {
	case e.StatusCode == http.StatusUnauthorized, e.StatusCode == http.StatusForbidden:
		return ErrAuth
	case e.StatusCode == http.StatusTooManyRequests:
		return ErrQuota
	case e.StatusCode >= 500:
		return ErrUnavailable
	default:
		return nil
	}
}

// Option configures a client.
type Option func(*config)

type config struct {
	httpClient *http.Client
	logger     *slog.Logger
	endpoint   string
}

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(c *http.Client) Option {
	return func(cfg *config) { cfg.httpClient = c }
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *config) { cfg.logger = logger }
}

// WithEndpoint overrides the provider endpoint URL.
func WithEndpoint(endpoint string) Option {
	return func(cfg *config) { cfg.endpoint = endpoint }
}

func newConfig(endpoint string, opts []Option) config {
	cfg := config{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}
