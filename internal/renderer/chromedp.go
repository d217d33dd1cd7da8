// Package renderer drives the headless browser used to render listings pages.
package renderer

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ErrRendererClosed indicates the browser context has been torn down.
var ErrRendererClosed = errors.New("renderer closed")

// Config controls the chromedp renderer, decoupled from Viper.
type Config struct {
	UserAgent        string
	NavTimeout       time.Duration
	Settle           time.Duration
	DomainQPS        float64
	SnapshotsEnabled bool
	SnapshotDir      string
}

// overlayTimeout caps each transient-overlay dismissal step. Failure to find
// the target element within it is an absence, not an error.
const overlayTimeout = 2 * time.Second

// Chromedp renders pages in one exclusive headless Chrome context. It owns a
// single tab that is reused across the pages of a crawl; it must not be
// shared between concurrent pipeline runs.
type Chromedp struct {
	allocatorCancel context.CancelFunc
	browserCancel   context.CancelFunc
	tabCtx          context.Context
	tabCancel       context.CancelFunc
	cfg             Config
	logger          *zap.Logger
	domainLimiters  sync.Map
	closed          bool
}

// New launches the browser and warms it up. A failure here is the only error
// class that aborts a pipeline run outright.
func New(cfg Config, logger *zap.Logger) (*Chromedp, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts := chromedp.DefaultExecAllocatorOptions[:]
	opts = append(opts,
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.UserAgent(cfg.UserAgent),
	)
	allocatorCtx, allocatorCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocatorCtx)
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocatorCancel()
		return nil, fmt.Errorf("chromedp warmup: %w", err)
	}
	tabCtx, tabCancel := chromedp.NewContext(browserCtx)

	return &Chromedp{
		allocatorCancel: allocatorCancel,
		browserCancel:   browserCancel,
		tabCtx:          tabCtx,
		tabCancel:       tabCancel,
		cfg:             cfg,
		logger:          logger,
	}, nil
}

// Close tears down the tab, browser and allocator contexts.
func (r *Chromedp) Close(context.Context) error {
	if r == nil || r.closed {
		return nil
	}
	r.closed = true
	r.tabCancel()
	r.browserCancel()
	r.allocatorCancel()
	return nil
}

// Navigate loads the URL in the shared tab, waits for base content, dismisses
// transient overlays and returns the settled page HTML.
func (r *Chromedp) Navigate(ctx context.Context, rawURL string) (string, error) {
	if r == nil || r.closed {
		return "", ErrRendererClosed
	}
	if err := r.waitDomainBudget(ctx, rawURL); err != nil {
		return "", fmt.Errorf("render rate limit: %w", err)
	}

	navCtx, cancel := context.WithTimeout(r.tabCtx, r.cfg.NavTimeout)
	defer cancel()
	stop := forwardCancel(ctx, cancel)
	defer stop()

	tasks := chromedp.Tasks{
		network.Enable(),
		chromedp.Navigate(rawURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
	}
	if r.cfg.Settle > 0 {
		tasks = append(tasks, chromedp.Sleep(r.cfg.Settle))
	}
	if err := chromedp.Run(navCtx, tasks); err != nil {
		return "", fmt.Errorf("navigate %s: %w", rawURL, err)
	}

	r.dismissOverlays(ctx)

	var html string
	if err := chromedp.Run(navCtx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("capture dom: %w", err)
	}
	return html, nil
}

// dismissStep is one best-effort attempt to clear a transient overlay.
type dismissStep struct {
	name   string
	action chromedp.Action
}

// dismissOverlays executes the dismissal steps in order. Each step gets a
// capped timeout and "element not found" is swallowed as expected absence.
func (r *Chromedp) dismissOverlays(ctx context.Context) {
	steps := []dismissStep{
		{name: "cookie consent ok", action: clickButtonByText("ok")},
		{name: "promo modal close", action: clickButtonByText("close")},
		{name: "promo modal x", action: clickCloseControl()},
		{name: "escape key", action: chromedp.KeyEvent(kb.Escape)},
	}
	for _, step := range steps {
		stepCtx, cancel := context.WithTimeout(r.tabCtx, overlayTimeout)
		stop := forwardCancel(ctx, cancel)
		if err := chromedp.Run(stepCtx, step.action); err != nil {
			r.logger.Debug("overlay dismissal step skipped",
				zap.String("step", step.name), zap.Error(err))
		}
		stop()
		cancel()
	}
}

// clickButtonByText clicks the first button whose trimmed text equals the
// given phrase, case-insensitive. Absence evaluates to false, not an error.
func clickButtonByText(text string) chromedp.Action {
	script := fmt.Sprintf(`(() => {
		const btn = Array.from(document.querySelectorAll('button'))
			.find(b => b.textContent.trim().toLowerCase() === %q);
		if (btn) { btn.click(); return true; }
		return false;
	})()`, text)
	var clicked bool
	return chromedp.Evaluate(script, &clicked)
}

// clickCloseControl clicks a close-labelled control (aria-label or testid).
func clickCloseControl() chromedp.Action {
	const script = `(() => {
		const btn = document.querySelector('button[aria-label*="close" i], button[data-testid="close"]');
		if (btn) { btn.click(); return true; }
		return false;
	})()`
	var clicked bool
	return chromedp.Evaluate(script, &clicked)
}

// HasNextLink reports whether the current page exposes a "next" pagination
// affordance.
func (r *Chromedp) HasNextLink(ctx context.Context) (bool, error) {
	if r == nil || r.closed {
		return false, ErrRendererClosed
	}
	const script = `(() => {
		const link = Array.from(document.querySelectorAll('a')).find(a =>
			a.textContent.trim().toLowerCase() === 'next' ||
			(a.getAttribute('aria-label') || '').toLowerCase().includes('next'));
		return !!link;
	})()`

	evalCtx, cancel := context.WithTimeout(r.tabCtx, overlayTimeout)
	defer cancel()
	stop := forwardCancel(ctx, cancel)
	defer stop()

	var hasNext bool
	if err := chromedp.Run(evalCtx, chromedp.Evaluate(script, &hasNext)); err != nil {
		return false, fmt.Errorf("detect next link: %w", err)
	}
	return hasNext, nil
}

// Snapshot writes a full-page screenshot for diagnostics. Best-effort: it is
// not part of the crawl contract.
func (r *Chromedp) Snapshot(ctx context.Context, name string) error {
	if r == nil || r.closed {
		return ErrRendererClosed
	}
	if !r.cfg.SnapshotsEnabled {
		return nil
	}
	if err := os.MkdirAll(r.cfg.SnapshotDir, 0o750); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}

	shotCtx, cancel := context.WithTimeout(r.tabCtx, r.cfg.NavTimeout)
	defer cancel()
	stop := forwardCancel(ctx, cancel)
	defer stop()

	var buf []byte
	if err := chromedp.Run(shotCtx, chromedp.FullScreenshot(&buf, 80)); err != nil {
		return fmt.Errorf("capture screenshot: %w", err)
	}
	path := filepath.Join(r.cfg.SnapshotDir, name+".png")
	if err := os.WriteFile(path, buf, 0o600); err != nil {
		return fmt.Errorf("write screenshot: %w", err)
	}
	return nil
}

func (r *Chromedp) waitDomainBudget(ctx context.Context, rawURL string) error {
	if r.cfg.DomainQPS <= 0 {
		return nil
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("parse render url: %w", err)
	}
	host := strings.ToLower(parsed.Host)
	val, _ := r.domainLimiters.LoadOrStore(host, rate.NewLimiter(rate.Limit(r.cfg.DomainQPS), 1))
	limiter, ok := val.(*rate.Limiter)
	if !ok {
		return fmt.Errorf("unexpected limiter type %T", val)
	}
	if err := limiter.Wait(ctx); err != nil {
		return fmt.Errorf("wait limiter: %w", err)
	}
	return nil
}

func forwardCancel(parent context.Context, cancel context.CancelFunc) func() {
	if parent == nil {
		return func() {}
	}
	done := make(chan struct{})
	go func() {
		select {
		case <-parent.Done():
			cancel()
		case <-done:
		}
	}()
	return func() { close(done) }
}
