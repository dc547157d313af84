package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/quantmind-br/extracthttp-go/internal/cache"
	"github.com/quantmind-br/extracthttp-go/internal/domain"
	"github.com/quantmind-br/extracthttp-go/internal/fetcher"
	"github.com/quantmind-br/extracthttp-go/internal/renderer"
	"github.com/quantmind-br/extracthttp-go/internal/utils"
)

// Dependencies holds the collaborators shared by every extraction run
type Dependencies struct {
	Fetcher  domain.Fetcher
	Payloads domain.PayloadFetcher
	Renderer domain.Renderer
	Cache    domain.Cache
	Logger   *utils.Logger

	// Lazy renderer initialization
	rendererOnce sync.Once
	rendererOpts *renderer.RendererOptions
	rendererErr  error
}

// DependencyOptions contains options for creating dependencies
type DependencyOptions struct {
	Timeout     time.Duration
	MaxRetries  int
	EnableCache bool
	CacheTTL    time.Duration
	CacheDir    string
	UserAgent   string
	ProxyURL    string
	// EnableRenderer launches the browser up front instead of on first use
	EnableRenderer bool
	Renderer       renderer.RendererOptions
	Logger         *utils.Logger
}

// NewDependencies builds the fetcher, its badger cache and the renderer
// settings
func NewDependencies(opts DependencyOptions) (*Dependencies, error) {
	logger := utils.OrNop(opts.Logger)

	var cacheImpl domain.Cache
	if opts.EnableCache {
		c, err := cache.NewBadgerCache(cache.Options{
			Directory: utils.ExpandPath(opts.CacheDir),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to open cache: %w", err)
		}
		cacheImpl = c
	}

	client, err := fetcher.NewClient(fetcher.ClientOptions{
		Timeout:     opts.Timeout,
		MaxRetries:  opts.MaxRetries,
		EnableCache: opts.EnableCache,
		CacheTTL:    opts.CacheTTL,
		Cache:       cacheImpl,
		UserAgent:   opts.UserAgent,
		ProxyURL:    opts.ProxyURL,
		Logger:      logger,
	})
	if err != nil {
		if cacheImpl != nil {
			cacheImpl.Close()
		}
		return nil, err
	}

	rendererOpts := opts.Renderer
	if rendererOpts.Timeout == 0 {
		rendererOpts = renderer.DefaultRendererOptions()
	}
	rendererOpts.Logger = logger

	deps := &Dependencies{
		Fetcher:      client,
		Payloads:     client,
		Cache:        cacheImpl,
		Logger:       logger,
		rendererOpts: &rendererOpts,
	}

	if opts.EnableRenderer {
		if _, err := deps.GetRenderer(); err != nil {
			logger.Warn().Err(err).Msg("Browser renderer unavailable, render_js configs will fail")
		}
	}
	return deps, nil
}

// GetRenderer returns the renderer, launching the browser on first use
func (d *Dependencies) GetRenderer() (domain.Renderer, error) {
	d.rendererOnce.Do(func() {
		if d.Renderer != nil {
			return
		}
		if d.rendererOpts == nil {
			d.rendererErr = fmt.Errorf("%w: no renderer configured", domain.ErrBrowserNotFound)
			return
		}
		r, err := renderer.NewRenderer(*d.rendererOpts)
		if err != nil {
			d.rendererErr = err
			utils.OrNop(d.Logger).Debug().Err(err).Msg("Failed to initialize browser renderer on demand")
			return
		}
		d.Renderer = r
		utils.OrNop(d.Logger).Info().Msg("Browser renderer initialized on demand")
	})

	if d.rendererErr != nil {
		return nil, d.rendererErr
	}
	return d.Renderer, nil
}

// Close releases all resources
func (d *Dependencies) Close() error {
	if d.Fetcher != nil {
		d.Fetcher.Close()
	}
	if d.Renderer != nil {
		d.Renderer.Close()
	}
	if d.Cache != nil {
		d.Cache.Close()
	}
	return nil
}

// lazyRenderer defers the browser launch until a page needs it
type lazyRenderer struct {
	deps *Dependencies
}

func (l lazyRenderer) Render(ctx context.Context, url string, opts domain.RenderOptions) (string, error) {
	r, err := l.deps.GetRenderer()
	if err != nil {
		return "", err
	}
	return r.Render(ctx, url, opts)
}

func (l lazyRenderer) Close() error {
	return nil
}
