package sandbox

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/jhaveripatric/webagents/internal/config"
)

// Browser is a local Chrome instance driven over CDP.
type Browser struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	timeout  time.Duration

	mu     sync.Mutex
	closed bool
}

// Launch starts Chrome with cfg and connects to it.
func Launch(ctx context.Context, cfg config.BrowserConfig) (*Browser, error) {
	l := launcher.New().
		Context(ctx).
		Headless(cfg.Headless)

	if cfg.NoSandbox {
		l = l.NoSandbox(true)
	}
	if cfg.ChromePath != "" {
		l = l.Bin(cfg.ChromePath)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch chrome: %w", err)
	}

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("connect to chrome: %w", err)
	}

	return &Browser{launcher: l, browser: b, timeout: cfg.Timeout}, nil
}

// Open navigates a new tab to pageURL and waits for it to load.
func (b *Browser) Open(ctx context.Context, pageURL string) (*RodEvaluator, error) {
	page, err := b.browser.Context(ctx).Page(proto.TargetCreateTarget{URL: pageURL})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", pageURL, err)
	}
	if err := page.WaitLoad(); err != nil {
		page.Close()
		return nil, fmt.Errorf("load %s: %w", pageURL, err)
	}
	return &RodEvaluator{page: page, timeout: b.timeout}, nil
}

// Close shuts the browser down and kills the Chrome process.
func (b *Browser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true

	err := b.browser.Close()
	b.launcher.Kill()
	return err
}

// RodEvaluator evaluates scripts in one browser tab.
type RodEvaluator struct {
	page    *rod.Page
	timeout time.Duration
}

// Evaluate runs script as the body of an arrow function, awaiting the
// returned promise.
func (e *RodEvaluator) Evaluate(ctx context.Context, script string) (any, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	res, err := e.page.Context(ctx).Evaluate(rod.Eval("() => " + script).ByPromise())
	if err != nil {
		return nil, err
	}
	if res.Value.Nil() {
		return nil, nil
	}
	return res.Value.Val(), nil
}

// URL reports the page's current location.
func (e *RodEvaluator) URL() string {
	info, err := e.page.Info()
	if err != nil {
		return ""
	}
	return info.URL
}

// Close closes the tab.
func (e *RodEvaluator) Close() error {
	return e.page.Close()
}
