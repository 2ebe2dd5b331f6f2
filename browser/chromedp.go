package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
)

// Options configures the Chrome session.
type Options struct {
	Headless          bool
	UserAgent         string
	NavigationTimeout time.Duration
}

// ChromeSession drives a headless Chrome process through chromedp.
type ChromeSession struct {
	opts         Options
	allocatorCtx context.Context
	browserCtx   context.Context
	cancelAlloc  context.CancelFunc
	cancelBrowse context.CancelFunc
}

// NewChromeSession launches the browser process. The returned session must
// be closed by the caller; ctx cancellation also tears it down.
func NewChromeSession(ctx context.Context, opts Options) (*ChromeSession, error) {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.UserAgent(opts.UserAgent),
	)

	allocatorCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	browserCtx, cancelBrowse := chromedp.NewContext(allocatorCtx)

	// Run a no-op so a missing or broken Chrome binary fails here,
	// not on the first navigation.
	if err := chromedp.Run(browserCtx); err != nil {
		cancelBrowse()
		cancelAlloc()
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	return &ChromeSession{
		opts:         opts,
		allocatorCtx: allocatorCtx,
		browserCtx:   browserCtx,
		cancelAlloc:  cancelAlloc,
		cancelBrowse: cancelBrowse,
	}, nil
}

// NewPage opens an isolated tab context.
func (s *ChromeSession) NewPage() (Page, error) {
	tabCtx, cancel := chromedp.NewContext(s.browserCtx)
	return &chromePage{
		ctx:     tabCtx,
		cancel:  cancel,
		timeout: s.opts.NavigationTimeout,
	}, nil
}

// Close tears down the browser process.
func (s *ChromeSession) Close() {
	s.cancelBrowse()
	s.cancelAlloc()
}

type chromePage struct {
	ctx     context.Context
	cancel  context.CancelFunc
	timeout time.Duration
}

func (p *chromePage) Navigate(ctx context.Context, url string) error {
	runCtx, cancel := p.bound(ctx, p.timeout)
	defer cancel()

	if err := chromedp.Run(runCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	return nil
}

func (p *chromePage) Evaluate(ctx context.Context, script string, out any) error {
	runCtx, cancel := p.bound(ctx, p.timeout)
	defer cancel()
	return chromedp.Run(runCtx, chromedp.Evaluate(script, out))
}

func (p *chromePage) QueryCount(ctx context.Context, selector string) (int, error) {
	var count int
	script := fmt.Sprintf(`document.querySelectorAll(%q).length`, selector)
	if err := p.Evaluate(ctx, script, &count); err != nil {
		return 0, err
	}
	return count, nil
}

func (p *chromePage) ScrollTo(ctx context.Context, fraction float64) error {
	script := fmt.Sprintf(
		`window.scrollTo(0, document.body.scrollHeight * %f); true`, fraction)
	var ok bool
	return p.Evaluate(ctx, script, &ok)
}

func (p *chromePage) HTML(ctx context.Context) (string, error) {
	var html string
	if err := p.Evaluate(ctx, `document.documentElement.outerHTML`, &html); err != nil {
		return "", err
	}
	return html, nil
}

func (p *chromePage) Close() {
	p.cancel()
}

// bound merges the caller's cancellation with the page timeout. chromedp
// actions must run on the tab context, so the caller context is only
// watched for cancellation.
func (p *chromePage) bound(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	runCtx, cancel := context.WithTimeout(p.ctx, timeout)
	if ctx == nil {
		return runCtx, cancel
	}
	stop := context.AfterFunc(ctx, cancel)
	return runCtx, func() {
		stop()
		cancel()
	}
}
