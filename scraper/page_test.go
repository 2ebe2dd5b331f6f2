package scraper

import (
	"context"
	"errors"
	"testing"
	"time"

	"shopharvest/config"
)

// fakePage simulates a browser tab. QueryCount walks the counts slice for
// the matching selector and repeats the last value once exhausted.
type fakePage struct {
	matchSelector string
	counts        []int
	countCalls    int
	html          string
	navErr        error
	navAttempts   int
	closed        bool
}

func (p *fakePage) Navigate(ctx context.Context, url string) error {
	p.navAttempts++
	return p.navErr
}

func (p *fakePage) Evaluate(ctx context.Context, script string, out any) error {
	if b, ok := out.(*bool); ok {
		*b = false
	}
	return nil
}

func (p *fakePage) QueryCount(ctx context.Context, selector string) (int, error) {
	if selector != p.matchSelector || len(p.counts) == 0 {
		return 0, nil
	}
	idx := p.countCalls
	if idx >= len(p.counts) {
		idx = len(p.counts) - 1
	}
	p.countCalls++
	return p.counts[idx], nil
}

func (p *fakePage) ScrollTo(ctx context.Context, fraction float64) error { return nil }

func (p *fakePage) HTML(ctx context.Context) (string, error) { return p.html, nil }

func (p *fakePage) Close() { p.closed = true }

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.SettleInterval = time.Millisecond
	cfg.StableThreshold = 2
	cfg.MaxScrollIters = 6
	cfg.NavigationRetries = 1
	cfg.RetryBackoff = time.Millisecond
	cfg.PolitenessDelay = 0
	return cfg
}

const twoListingsHTML = `<html><body>
	<div data-sqe="item"><a data-sqe="link" href="/First-i.1.101"><div data-sqe="name">First</div></a></div>
	<div data-sqe="item"><a data-sqe="link" href="/Second-i.1.102"><div data-sqe="name">Second</div></a></div>
</body></html>`

func TestHarvestPageExtractsRecords(t *testing.T) {
	page := &fakePage{
		matchSelector: ContainerCandidates[0],
		counts:        []int{2},
		html:          twoListingsHTML,
	}

	h := NewHarvester(testConfig(), nil)
	records, err := h.HarvestPage(context.Background(), page, "https://shop.test/search?keyword=mouse")
	if err != nil {
		t.Fatalf("HarvestPage: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("len(records) = %d, want 2", len(records))
	}
	if records[0].Name != "First" || records[1].Name != "Second" {
		t.Fatalf("records out of order: %q, %q", records[0].Name, records[1].Name)
	}
	if page.navAttempts != 1 {
		t.Fatalf("navAttempts = %d, want 1", page.navAttempts)
	}
}

func TestHarvestPageNavigationErrorAfterRetries(t *testing.T) {
	page := &fakePage{navErr: errors.New("net::ERR_TIMED_OUT")}

	h := NewHarvester(testConfig(), nil)
	_, err := h.HarvestPage(context.Background(), page, "https://shop.test/search")

	var navErr NavigationError
	if !errors.As(err, &navErr) {
		t.Fatalf("error = %v, want NavigationError", err)
	}
	if page.navAttempts != 2 {
		t.Fatalf("navAttempts = %d, want 2 (one retry)", page.navAttempts)
	}
}

func TestHarvestPageNoListings(t *testing.T) {
	page := &fakePage{html: "<html><body><p>maintenance</p></body></html>"}

	h := NewHarvester(testConfig(), nil)
	_, err := h.HarvestPage(context.Background(), page, "https://shop.test/search")

	var noListings NoListingsError
	if !errors.As(err, &noListings) {
		t.Fatalf("error = %v, want NoListingsError", err)
	}
}

func TestStabilizeStopsWhenCountIsStable(t *testing.T) {
	page := &fakePage{
		matchSelector: "div.grid",
		counts:        []int{5, 5},
	}

	h := NewHarvester(testConfig(), nil)
	count := h.stabilize(context.Background(), page, "div.grid", 5)
	if count != 5 {
		t.Fatalf("count = %d, want 5", count)
	}
	if page.countCalls != 2 {
		t.Fatalf("countCalls = %d, want StableThreshold observations", page.countCalls)
	}
}

func TestStabilizeStopsAtIterationCeiling(t *testing.T) {
	// A count that grows on every observation never stabilizes; the
	// iteration ceiling must end the loop.
	page := &fakePage{
		matchSelector: "div.grid",
		counts:        []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10},
	}

	cfg := testConfig()
	cfg.MaxScrollIters = 4
	cfg.StableThreshold = 3
	h := NewHarvester(cfg, nil)

	count := h.stabilize(context.Background(), page, "div.grid", 0)
	if page.countCalls != 4 {
		t.Fatalf("countCalls = %d, want the ceiling of 4", page.countCalls)
	}
	if count != 4 {
		t.Fatalf("count = %d, want 4", count)
	}
}

func TestStabilizeResetsOnGrowth(t *testing.T) {
	// One flat observation, then growth, then flat again: the stability
	// window restarts after the growth observation.
	page := &fakePage{
		matchSelector: "div.grid",
		counts:        []int{3, 7, 7, 7},
	}

	cfg := testConfig()
	cfg.StableThreshold = 2
	cfg.MaxScrollIters = 20
	h := NewHarvester(cfg, nil)

	count := h.stabilize(context.Background(), page, "div.grid", 3)
	if count != 7 {
		t.Fatalf("count = %d, want 7", count)
	}
	if page.countCalls != 4 {
		t.Fatalf("countCalls = %d, want 4", page.countCalls)
	}
}
