package renderer

import (
	"context"
	"errors"
	"sync"

	"github.com/go-rod/rod"
)

// ErrPoolClosed is returned when trying to acquire from a closed pool
var ErrPoolClosed = errors.New("pool is closed")

// TabPool hands out a fixed set of browser tabs, bounding concurrent renders
type TabPool struct {
	tabs    chan *rod.Page
	maxTabs int
	mu      sync.Mutex
	closed  bool
}

// NewTabPool opens maxTabs stealth tabs in browser
func NewTabPool(browser *rod.Browser, maxTabs int) (*TabPool, error) {
	if maxTabs <= 0 {
		maxTabs = 5
	}

	pool := &TabPool{
		tabs:    make(chan *rod.Page, maxTabs),
		maxTabs: maxTabs,
	}
	for i := 0; i < maxTabs; i++ {
		page, err := StealthPage(browser)
		if err != nil {
			_ = pool.Close()
			return nil, err
		}
		pool.tabs <- page
	}
	return pool, nil
}

// Acquire gets a tab, blocking until one is free or ctx is done
func (p *TabPool) Acquire(ctx context.Context) (*rod.Page, error) {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return nil, ErrPoolClosed
	}

	select {
	case page, ok := <-p.tabs:
		if !ok {
			return nil, ErrPoolClosed
		}
		return page, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Release blanks a tab and returns it to the pool
func (p *TabPool) Release(page *rod.Page) {
	if page == nil {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		_ = page.Close()
		return
	}

	_ = page.Navigate("about:blank")
	select {
	case p.tabs <- page:
	default:
		_ = page.Close()
	}
}

// Close closes every idle tab; tabs still in use are closed on Release
func (p *TabPool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	close(p.tabs)

	for page := range p.tabs {
		_ = page.Close()
	}
	return nil
}

// Size returns the number of idle tabs
func (p *TabPool) Size() int {
	return len(p.tabs)
}

// MaxSize returns the maximum pool size
func (p *TabPool) MaxSize() int {
	return p.maxTabs
}
