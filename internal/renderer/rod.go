package renderer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/quantmind-br/extracthttp-go/internal/domain"
	"github.com/quantmind-br/extracthttp-go/internal/utils"
)

var _ domain.Renderer = (*Renderer)(nil)

// maxScrolls bounds lazy-load scrolling on endless pages
const maxScrolls = 10

// Renderer loads pages in headless Chrome so locate groups see the DOM
// after scripts ran
type Renderer struct {
	browser *rod.Browser
	pool    *TabPool
	timeout time.Duration
	stealth bool
	logger  *utils.Logger
}

// RendererOptions contains options for creating a Renderer
type RendererOptions struct {
	Timeout     time.Duration
	MaxTabs     int
	Stealth     bool
	Headless    bool
	BrowserPath string
	// NoSandbox is needed inside most containers
	NoSandbox bool
	Logger    *utils.Logger
}

// DefaultRendererOptions returns default renderer options
func DefaultRendererOptions() RendererOptions {
	return RendererOptions{
		Timeout:   60 * time.Second,
		MaxTabs:   5,
		Stealth:   true,
		Headless:  true,
		NoSandbox: isCI(),
	}
}

func isCI() bool {
	return os.Getenv("CI") != "" || os.Getenv("GITHUB_ACTIONS") != ""
}

// NewRenderer launches a browser and opens its tab pool
func NewRenderer(opts RendererOptions) (*Renderer, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}

	l := launcher.New()
	if opts.BrowserPath != "" {
		l = l.Bin(opts.BrowserPath)
	}
	l = l.Headless(opts.Headless)
	if opts.Stealth {
		l = l.Set("disable-blink-features", "AutomationControlled")
	}
	if opts.NoSandbox {
		l = l.NoSandbox(true)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrBrowserNotFound, err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	pool, err := NewTabPool(browser, opts.MaxTabs)
	if err != nil {
		_ = browser.Close()
		return nil, fmt.Errorf("failed to create tab pool: %w", err)
	}

	return &Renderer{
		browser: browser,
		pool:    pool,
		timeout: opts.Timeout,
		stealth: opts.Stealth,
		logger:  utils.OrNop(opts.Logger).WithComponent("renderer"),
	}, nil
}

// Render navigates to pageURL and returns the HTML once the page settled
func (r *Renderer) Render(ctx context.Context, pageURL string, opts domain.RenderOptions) (string, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = r.timeout
	}
	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	page, err := r.pool.Acquire(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to acquire page: %w", err)
	}
	defer r.pool.Release(page)
	page = page.Context(ctx)

	if r.stealth {
		if err := ApplyStealthMode(page); err != nil {
			return "", fmt.Errorf("%w: stealth: %v", domain.ErrRenderFailed, err)
		}
	}
	if len(opts.Cookies) > 0 {
		if err := setCookies(page, pageURL, opts.Cookies); err != nil {
			return "", fmt.Errorf("%w: cookies: %v", domain.ErrRenderFailed, err)
		}
	}

	if err := page.Navigate(pageURL); err != nil {
		return "", domain.NewFetchError(pageURL, 0, fmt.Errorf("navigation failed: %w", err))
	}
	if err := page.WaitLoad(); err != nil {
		return "", r.renderError(ctx, pageURL, err)
	}

	log := r.logger.WithURL(pageURL)
	if opts.WaitFor != "" {
		el, err := page.Element(opts.WaitFor)
		if err == nil {
			err = el.WaitVisible()
		}
		if err != nil {
			log.Warn().Err(err).Str("selector", opts.WaitFor).Msg("Wait selector never became visible")
		}
	}
	if opts.WaitStable > 0 {
		page.WaitRequestIdle(opts.WaitStable, nil, nil, nil)()
	}
	if opts.ScrollToEnd {
		if err := scrollToEnd(ctx, page); err != nil {
			log.Debug().Err(err).Msg("Scrolling stopped early")
		}
	}

	html, err := page.HTML()
	if err != nil {
		return "", r.renderError(ctx, pageURL, err)
	}
	return html, nil
}

func (r *Renderer) renderError(ctx context.Context, pageURL string, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return domain.NewFetchError(pageURL, 0, domain.ErrTimeout)
	}
	return fmt.Errorf("%w: %s: %v", domain.ErrRenderFailed, pageURL, err)
}

func setCookies(page *rod.Page, pageURL string, cookies []*http.Cookie) error {
	parsed, err := url.Parse(pageURL)
	if err != nil {
		return err
	}

	params := make([]*proto.NetworkCookieParam, 0, len(cookies))
	for _, c := range cookies {
		host := c.Domain
		if host == "" {
			host = parsed.Hostname()
		}
		path := c.Path
		if path == "" {
			path = "/"
		}
		params = append(params, &proto.NetworkCookieParam{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   host,
			Path:     path,
			Secure:   c.Secure,
			HTTPOnly: c.HttpOnly,
		})
	}
	return page.SetCookies(params)
}

// scrollToEnd scrolls until the page stops growing to trigger lazy loading
func scrollToEnd(ctx context.Context, page *rod.Page) error {
	height := func() (int, error) {
		res, err := page.Eval(`() => document.body.scrollHeight`)
		if err != nil {
			return 0, err
		}
		return res.Value.Int(), nil
	}

	last, err := height()
	if err != nil {
		return err
	}
	for i := 0; i < maxScrolls; i++ {
		if _, err := page.Eval(`() => window.scrollTo(0, document.body.scrollHeight)`); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(500 * time.Millisecond):
		}
		cur, err := height()
		if err != nil {
			return err
		}
		if cur == last {
			break
		}
		last = cur
	}
	_, _ = page.Eval(`() => window.scrollTo(0, 0)`)
	return nil
}

// DefaultRenderOptions returns default render options
func DefaultRenderOptions() domain.RenderOptions {
	return domain.RenderOptions{
		Timeout:     60 * time.Second,
		WaitStable:  2 * time.Second,
		ScrollToEnd: true,
	}
}

// Close releases browser resources
func (r *Renderer) Close() error {
	if r.pool != nil {
		_ = r.pool.Close()
		r.pool = nil
	}
	if r.browser != nil {
		browser := r.browser
		r.browser = nil
		return browser.Close()
	}
	return nil
}

// IsAvailable checks if a Chrome binary can be found
func IsAvailable() bool {
	path, exists := launcher.LookPath()
	return exists && path != ""
}
