package scraper

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"shopharvest/browser"
	"shopharvest/config"
	"shopharvest/models"
)

// Harvester orchestrates single-page harvests: navigation, container
// discovery, scroll stabilization, and field extraction.
type Harvester struct {
	cfg     *config.Config
	metrics *Metrics
}

// NewHarvester builds a harvester from cfg. metrics may be nil.
func NewHarvester(cfg *config.Config, metrics *Metrics) *Harvester {
	return &Harvester{cfg: cfg, metrics: metrics}
}

// HarvestPage loads pageURL in the given page context, stabilizes its
// lazy-loaded content, and extracts one record per listing node.
func (h *Harvester) HarvestPage(ctx context.Context, page browser.Page, pageURL string) ([]*models.ListingRecord, error) {
	start := time.Now()

	if err := h.navigate(ctx, page, pageURL); err != nil {
		h.fail(err)
		return nil, err
	}

	selector, count, err := h.probeContainers(ctx, page, pageURL)
	if err != nil {
		h.fail(err)
		return nil, err
	}

	count = h.stabilize(ctx, page, selector, count)

	html, err := page.HTML(ctx)
	if err != nil {
		wrapped := NavigationError{URL: pageURL, Err: err}
		h.fail(wrapped)
		return nil, wrapped
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		wrapped := NavigationError{URL: pageURL, Err: err}
		h.fail(wrapped)
		return nil, wrapped
	}

	records := extractListings(doc, selector, pageURL)

	h.metrics.IncPage("ok")
	h.metrics.AddListings(len(records))
	h.metrics.ObserveDuration(time.Since(start))
	slog.Debug("page harvested",
		slog.String("url", pageURL),
		slog.String("selector", selector),
		slog.Int("live_count", count),
		slog.Int("records", len(records)),
	)
	return records, nil
}

func (h *Harvester) fail(err error) {
	h.metrics.IncPage("error")
	h.metrics.IncError(errorTypeLabel(err))
}

// navigate loads the page, retrying transient failures with exponential
// backoff before declaring a NavigationError.
func (h *Harvester) navigate(ctx context.Context, page browser.Page, pageURL string) error {
	var lastErr error
	attempts := h.cfg.NavigationRetries + 1
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			h.metrics.IncRetries()
			if err := sleepCtx(ctx, backoff(h.cfg.RetryBackoff, attempt)); err != nil {
				return NavigationError{URL: pageURL, Err: err}
			}
		}
		if err := page.Navigate(ctx, pageURL); err != nil {
			lastErr = err
			slog.Debug("navigation attempt failed",
				slog.String("url", pageURL),
				slog.Int("attempt", attempt+1),
				slog.Any("error", err),
			)
			continue
		}
		return nil
	}
	return NavigationError{URL: pageURL, Err: lastErr}
}

// probeContainers tries each candidate container selector against the live
// document. When nothing matches immediately, one scroll-and-settle pass
// gives lazy-rendered grids a chance to appear before giving up.
func (h *Harvester) probeContainers(ctx context.Context, page browser.Page, pageURL string) (string, int, error) {
	for pass := 0; pass < 2; pass++ {
		for _, candidate := range ContainerCandidates {
			count, err := page.QueryCount(ctx, candidate)
			if err != nil {
				return "", 0, NavigationError{URL: pageURL, Err: err}
			}
			if count > 0 {
				return candidate, count, nil
			}
		}
		if pass == 0 {
			_ = page.ScrollTo(ctx, 1)
			if err := sleepCtx(ctx, h.cfg.SettleInterval); err != nil {
				return "", 0, NavigationError{URL: pageURL, Err: err}
			}
		}
	}
	return "", 0, NoListingsError{URL: pageURL}
}

// stabilize runs the scroll-stabilization loop: click any visible load-more
// control, scroll to the bottom, wait, re-count. The loop ends when the
// match count has been unchanged for StableThreshold consecutive
// observations or after MaxScrollIters iterations. Every other iteration
// scrolls to a mid-point first; some lazy-loading libraries only trigger on
// upward-then-downward motion.
func (h *Harvester) stabilize(ctx context.Context, page browser.Page, selector string, initial int) int {
	last := initial
	stable := 0
	iterations := 0

	for iterations < h.cfg.MaxScrollIters && stable < h.cfg.StableThreshold {
		iterations++

		var clicked bool
		_ = page.Evaluate(ctx, loadMoreScript, &clicked)

		if iterations%2 == 0 {
			_ = page.ScrollTo(ctx, 0.5)
		}
		_ = page.ScrollTo(ctx, 1)

		if err := sleepCtx(ctx, h.cfg.SettleInterval); err != nil {
			break
		}

		count, err := page.QueryCount(ctx, selector)
		if err != nil {
			break
		}
		if count > last {
			last = count
			stable = 0
		} else {
			stable++
		}
	}

	h.metrics.ObserveStabilization(iterations)
	slog.Debug("stabilization finished",
		slog.String("selector", selector),
		slog.Int("iterations", iterations),
		slog.Int("count", last),
	)
	return last
}

func backoff(base time.Duration, attempt int) time.Duration {
	if base <= 0 {
		base = 100 * time.Millisecond
	}
	if attempt <= 0 {
		attempt = 1
	}
	return base * time.Duration(1<<(attempt-1))
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
