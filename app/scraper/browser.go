package scraper

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// Renderer produces fully rendered HTML for JavaScript-driven pages.
// Dynamic adapters depend on this interface so tests can substitute canned
// markup without a browser.
type Renderer interface {
	Render(ctx context.Context, url string) (string, error)
}

// settleWait gives client-side frameworks time to hydrate after load.
const settleWait = 5 * time.Second

// Browser renders pages with a shared headless chromium instance. The
// browser launches lazily on first use; each Render gets its own page which
// is closed on every exit path.
type Browser struct {
	mu      sync.Mutex
	browser *rod.Browser
}

func NewBrowser() *Browser {
	return &Browser{}
}

func (b *Browser) connect() (*rod.Browser, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.browser != nil {
		return b.browser, nil
	}

	controlURL, err := launcher.New().Headless(true).Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	b.browser = browser
	return browser, nil
}

func (b *Browser) Render(ctx context.Context, url string) (string, error) {
	browser, err := b.connect()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}

	page, err := browser.Page(proto.TargetCreateTarget{URL: url})
	if err != nil {
		return "", fmt.Errorf("%w: open %s: %v", ErrSourceUnavailable, url, err)
	}
	defer page.Close()

	page = page.Context(ctx)

	if err := page.WaitLoad(); err != nil {
		return "", fmt.Errorf("%w: load %s: %v", ErrSourceUnavailable, url, err)
	}
	if err := page.WaitIdle(settleWait); err != nil {
		return "", fmt.Errorf("%w: render %s: %v", ErrSourceUnavailable, url, err)
	}

	html, err := page.HTML()
	if err != nil {
		return "", fmt.Errorf("%w: read %s: %v", ErrSourceUnavailable, url, err)
	}
	return html, nil
}

// Close shuts the shared browser down. Safe to call when Render never ran.
func (b *Browser) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.browser != nil {
		_ = b.browser.Close()
		b.browser = nil
	}
}
