package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	fhttp "github.com/bogdanfinn/fhttp"
	tls_client "github.com/bogdanfinn/tls-client"
	"github.com/bogdanfinn/tls-client/profiles"

	"github.com/quantmind-br/extracthttp-go/internal/cache"
	"github.com/quantmind-br/extracthttp-go/internal/domain"
	"github.com/quantmind-br/extracthttp-go/internal/utils"
)

// Ensure Client implements the fetch interfaces
var (
	_ domain.Fetcher        = (*Client)(nil)
	_ domain.PayloadFetcher = (*Client)(nil)
)

// Client is a stealth HTTP client using tls-client
type Client struct {
	tlsClient    tls_client.HttpClient
	userAgent    string
	retrier      *Retrier
	cache        domain.Cache
	cacheEnabled bool
	cacheTTL     time.Duration
	logger       *utils.Logger
}

// ClientOptions contains options for creating a Client
type ClientOptions struct {
	Timeout     time.Duration
	MaxRetries  int
	EnableCache bool
	CacheTTL    time.Duration
	Cache       domain.Cache
	UserAgent   string
	ProxyURL    string
	Logger      *utils.Logger
}

// DefaultClientOptions returns default client options
func DefaultClientOptions() ClientOptions {
	return ClientOptions{
		Timeout:     90 * time.Second,
		MaxRetries:  3,
		EnableCache: true,
		CacheTTL:    24 * time.Hour,
	}
}

// NewClient creates a new stealth HTTP client
func NewClient(opts ClientOptions) (*Client, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultClientOptions().Timeout
	}

	tlsOpts := []tls_client.HttpClientOption{
		tls_client.WithTimeoutSeconds(int(opts.Timeout.Seconds())),
		tls_client.WithClientProfile(profiles.Chrome_131),
		tls_client.WithRandomTLSExtensionOrder(),
	}
	if opts.ProxyURL != "" {
		tlsOpts = append(tlsOpts, tls_client.WithProxyUrl(opts.ProxyURL))
	}

	tlsClient, err := tls_client.NewHttpClient(tls_client.NewNoopLogger(), tlsOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create tls client: %w", err)
	}

	return &Client{
		tlsClient: tlsClient,
		userAgent: opts.UserAgent,
		retrier: NewRetrier(RetrierOptions{
			MaxRetries:      opts.MaxRetries,
			InitialInterval: 1 * time.Second,
			MaxInterval:     30 * time.Second,
			Multiplier:      2.0,
		}),
		cache:        opts.Cache,
		cacheEnabled: opts.EnableCache,
		cacheTTL:     opts.CacheTTL,
		logger:       utils.OrNop(opts.Logger).WithComponent("fetcher"),
	}, nil
}

// Get fetches content from a URL
func (c *Client) Get(ctx context.Context, url string) (*domain.Response, error) {
	return c.GetWithHeaders(ctx, url, nil)
}

// GetWithHeaders fetches content with custom headers. Successful responses
// are cached together with their content type.
func (c *Client) GetWithHeaders(ctx context.Context, url string, extraHeaders map[string]string) (*domain.Response, error) {
	if c.useCache() {
		if cached, err := c.getFromCache(ctx, url); err == nil {
			c.logger.Debug().Str("url", url).Msg("Cache hit")
			return cached, nil
		}
	}

	var resp *domain.Response
	err := c.retrier.Retry(ctx, func() error {
		var err error
		resp, err = c.doRequest(ctx, url, extraHeaders)
		return err
	})
	if err != nil {
		var retryable *domain.RetryableError
		if errors.As(err, &retryable) {
			return nil, retryable.Err
		}
		return nil, err
	}

	if c.useCache() {
		if err := c.saveToCache(ctx, url, resp); err != nil {
			c.logger.Warn().Err(err).Str("url", url).Msg("Failed to cache response")
		}
	}
	return resp, nil
}

func (c *Client) useCache() bool {
	return c.cacheEnabled && c.cache != nil
}

// doRequest performs the actual HTTP request
func (c *Client) doRequest(ctx context.Context, targetURL string, extraHeaders map[string]string) (*domain.Response, error) {
	req, err := fhttp.NewRequestWithContext(ctx, fhttp.MethodGet, targetURL, nil)
	if err != nil {
		return nil, &domain.FetchError{URL: targetURL, Err: fmt.Errorf("%w: %v", domain.ErrInvalidURL, err)}
	}

	for k, v := range StealthHeaders(c.userAgent, extraHeaders["Accept"]) {
		req.Header.Set(k, v)
	}
	for k, v := range extraHeaders {
		req.Header.Set(k, v)
	}

	resp, err := c.tlsClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &domain.FetchError{
			URL: targetURL,
			Err: fmt.Errorf("request failed: %w", err),
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		fetchErr := &domain.FetchError{
			URL:        targetURL,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("HTTP %d", resp.StatusCode),
		}
		if ShouldRetryStatus(resp.StatusCode) {
			return nil, &domain.RetryableError{
				Err:        fetchErr,
				RetryAfter: int(ParseRetryAfter(resp.Header.Get("Retry-After")).Seconds()),
			}
		}
		return nil, fetchErr
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.FetchError{URL: targetURL, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	headers := make(http.Header, len(resp.Header))
	for k, v := range resp.Header {
		headers[k] = v
	}

	finalURL := targetURL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	return &domain.Response{
		StatusCode:  resp.StatusCode,
		Body:        body,
		Headers:     headers,
		ContentType: resp.Header.Get("Content-Type"),
		URL:         finalURL,
	}, nil
}

// GetCookies returns cookies for a URL (for sharing with renderer)
func (c *Client) GetCookies(rawURL string) []*http.Cookie {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return nil
	}
	cookies := c.tlsClient.GetCookies(parsedURL)
	result := make([]*http.Cookie, len(cookies))
	for i, cookie := range cookies {
		result[i] = &http.Cookie{
			Name:     cookie.Name,
			Value:    cookie.Value,
			Path:     cookie.Path,
			Domain:   cookie.Domain,
			Expires:  cookie.Expires,
			Secure:   cookie.Secure,
			HttpOnly: cookie.HttpOnly,
		}
	}
	return result
}

// Close releases client resources. The tls client keeps no resources
// beyond pooled connections.
func (c *Client) Close() error {
	return nil
}

func (c *Client) getFromCache(ctx context.Context, url string) (*domain.Response, error) {
	data, err := c.cache.Get(ctx, url)
	if err != nil {
		return nil, err
	}
	entry, err := cache.DecodeEntry(data, time.Now())
	if err != nil {
		return nil, err
	}

	return &domain.Response{
		StatusCode:  http.StatusOK,
		Body:        entry.Content,
		Headers:     http.Header{"Content-Type": []string{entry.ContentType}},
		ContentType: entry.ContentType,
		URL:         entry.URL,
		FromCache:   true,
	}, nil
}

func (c *Client) saveToCache(ctx context.Context, key string, resp *domain.Response) error {
	now := time.Now()
	entry := &domain.CacheEntry{
		URL:         resp.URL,
		Content:     resp.Body,
		ContentType: resp.ContentType,
		FetchedAt:   now,
	}
	if c.cacheTTL > 0 {
		entry.ExpiresAt = now.Add(c.cacheTTL)
	}
	data, err := cache.EncodeEntry(entry)
	if err != nil {
		return err
	}
	return c.cache.Set(ctx, key, data, c.cacheTTL)
}

// SetCache sets the cache implementation
func (c *Client) SetCache(cache domain.Cache) {
	c.cache = cache
}

// SetCacheEnabled enables or disables caching
func (c *Client) SetCacheEnabled(enabled bool) {
	c.cacheEnabled = enabled
}
