package domain

import (
	"context"
	"net/http"
	"time"

	"github.com/quantmind-br/extracthttp-go/internal/record"
)

// Fetcher defines the interface for HTTP fetching with stealth capabilities
type Fetcher interface {
	// Get fetches content from a URL
	Get(ctx context.Context, url string) (*Response, error)
	// GetWithHeaders fetches content with custom headers
	GetWithHeaders(ctx context.Context, url string, headers map[string]string) (*Response, error)
	// GetCookies returns cookies for a URL (for sharing with renderer)
	GetCookies(url string) []*http.Cookie
	// Close releases resources
	Close() error
}

// PayloadFetcher fetches a URL and decodes the body by content type
type PayloadFetcher interface {
	FetchPayload(ctx context.Context, url string, enc Encoding) (record.Value, error)
}

// Response represents an HTTP response
type Response struct {
	StatusCode  int
	Body        []byte
	Headers     http.Header
	ContentType string
	URL         string
	FromCache   bool
}

// Renderer defines the interface for JavaScript rendering
type Renderer interface {
	// Render fetches and renders a page with JavaScript
	Render(ctx context.Context, url string, opts RenderOptions) (string, error)
	// Close releases browser resources
	Close() error
}

// RenderOptions contains options for page rendering
type RenderOptions struct {
	Timeout     time.Duration
	WaitFor     string        // CSS selector to wait for
	WaitStable  time.Duration // Wait for network idle
	ScrollToEnd bool          // Scroll to load lazy content
	Cookies     []*http.Cookie
}

// Cache defines the interface for content caching
type Cache interface {
	// Get retrieves a value from cache
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores a value in cache with TTL
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Has checks if a key exists in cache
	Has(ctx context.Context, key string) bool
	// Delete removes a key from cache
	Delete(ctx context.Context, key string) error
	// Close releases cache resources
	Close() error
}

// Writer defines the interface for output writing
type Writer interface {
	// Write persists one extraction result
	Write(ctx context.Context, result *Result) error
}
