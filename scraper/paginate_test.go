package scraper

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"testing"

	"shopharvest/models"
)

func fakeRecords(page, n int) []*models.ListingRecord {
	records := make([]*models.ListingRecord, 0, n)
	for i := 0; i < n; i++ {
		records = append(records, &models.ListingRecord{
			Name:       fmt.Sprintf("Item %d-%d", page, i),
			ListingURL: fmt.Sprintf("https://shop.test/item-i.%d.%d", page, i),
		})
	}
	return records
}

func pageNumber(t *testing.T, pageURL, param string) int {
	t.Helper()
	parsed, err := url.Parse(pageURL)
	if err != nil {
		t.Fatalf("parse %q: %v", pageURL, err)
	}
	n, err := strconv.Atoi(parsed.Query().Get(param))
	if err != nil {
		t.Fatalf("page param in %q: %v", pageURL, err)
	}
	return n
}

func TestHarvestAllStopsOnEmptyPage(t *testing.T) {
	h := NewHarvester(testConfig(), nil)

	var visited []string
	harvest := func(ctx context.Context, pageURL string) ([]*models.ListingRecord, error) {
		visited = append(visited, pageURL)
		if page := pageNumber(t, pageURL, "page"); page <= 2 {
			return fakeRecords(page, 3), nil
		}
		return nil, nil
	}

	run, err := h.HarvestAll(context.Background(), "https://shop.test/search?keyword=mouse&sortBy=sales", harvest)
	if err != nil {
		t.Fatalf("HarvestAll: %v", err)
	}
	if run.Terminated != models.TerminatedEmptyPage {
		t.Fatalf("Terminated = %q, want %q", run.Terminated, models.TerminatedEmptyPage)
	}
	if run.PagesVisited != 3 {
		t.Fatalf("PagesVisited = %d, want 3", run.PagesVisited)
	}
	if len(run.Records) != 6 {
		t.Fatalf("len(Records) = %d, want 6 from the two populated pages", len(run.Records))
	}
	if len(visited) != 3 {
		t.Fatalf("harvested %d pages, want 3", len(visited))
	}
}

func TestHarvestAllStopsAtPageCeiling(t *testing.T) {
	cfg := testConfig()
	cfg.MaxPages = 2
	h := NewHarvester(cfg, nil)

	harvest := func(ctx context.Context, pageURL string) ([]*models.ListingRecord, error) {
		return fakeRecords(pageNumber(t, pageURL, "page"), 4), nil
	}

	run, err := h.HarvestAll(context.Background(), "https://shop.test/search?keyword=mouse", harvest)
	if err != nil {
		t.Fatalf("HarvestAll: %v", err)
	}
	if run.Terminated != models.TerminatedPageLimit {
		t.Fatalf("Terminated = %q, want %q", run.Terminated, models.TerminatedPageLimit)
	}
	if run.PagesVisited != 2 {
		t.Fatalf("PagesVisited = %d, want the ceiling of 2", run.PagesVisited)
	}
	if len(run.Records) != 8 {
		t.Fatalf("len(Records) = %d, want 8", len(run.Records))
	}
}

func TestHarvestAllKeepsEarlierPagesOnError(t *testing.T) {
	h := NewHarvester(testConfig(), nil)

	boom := NavigationError{URL: "https://shop.test/search?page=3", Err: errors.New("tab crashed")}
	harvest := func(ctx context.Context, pageURL string) ([]*models.ListingRecord, error) {
		if page := pageNumber(t, pageURL, "page"); page <= 2 {
			return fakeRecords(page, 2), nil
		}
		return nil, boom
	}

	run, err := h.HarvestAll(context.Background(), "https://shop.test/search?keyword=mouse", harvest)
	var navErr NavigationError
	if !errors.As(err, &navErr) {
		t.Fatalf("error = %v, want the harvest NavigationError", err)
	}
	if run.Terminated != models.TerminatedError {
		t.Fatalf("Terminated = %q, want %q", run.Terminated, models.TerminatedError)
	}
	if len(run.Records) != 4 {
		t.Fatalf("len(Records) = %d, want the 4 records harvested before the error", len(run.Records))
	}
}

func TestHarvestAllNoListingsPastFirstPageIsEmptyPage(t *testing.T) {
	h := NewHarvester(testConfig(), nil)

	harvest := func(ctx context.Context, pageURL string) ([]*models.ListingRecord, error) {
		if page := pageNumber(t, pageURL, "page"); page == 1 {
			return fakeRecords(page, 5), nil
		}
		return nil, NoListingsError{URL: pageURL}
	}

	run, err := h.HarvestAll(context.Background(), "https://shop.test/search?keyword=mouse", harvest)
	if err != nil {
		t.Fatalf("a no-listings page after results should not surface an error, got %v", err)
	}
	if run.Terminated != models.TerminatedEmptyPage {
		t.Fatalf("Terminated = %q, want %q", run.Terminated, models.TerminatedEmptyPage)
	}
	if len(run.Records) != 5 {
		t.Fatalf("len(Records) = %d, want 5", len(run.Records))
	}
}

func TestHarvestAllNoListingsOnFirstPageSurfacesError(t *testing.T) {
	h := NewHarvester(testConfig(), nil)

	harvest := func(ctx context.Context, pageURL string) ([]*models.ListingRecord, error) {
		return nil, NoListingsError{URL: pageURL}
	}

	run, err := h.HarvestAll(context.Background(), "https://shop.test/search?keyword=mouse", harvest)
	var noListings NoListingsError
	if !errors.As(err, &noListings) {
		t.Fatalf("error = %v, want NoListingsError as the batch diagnostic", err)
	}
	if run.Terminated != models.TerminatedEmptyPage {
		t.Fatalf("Terminated = %q, want %q", run.Terminated, models.TerminatedEmptyPage)
	}
	if len(run.Records) != 0 {
		t.Fatalf("len(Records) = %d, want 0", len(run.Records))
	}
}

func TestHarvestAllResumesFromSeedPageParam(t *testing.T) {
	cfg := testConfig()
	cfg.MaxPages = 2
	h := NewHarvester(cfg, nil)

	var pages []int
	harvest := func(ctx context.Context, pageURL string) ([]*models.ListingRecord, error) {
		page := pageNumber(t, pageURL, "page")
		pages = append(pages, page)
		return fakeRecords(page, 1), nil
	}

	if _, err := h.HarvestAll(context.Background(), "https://shop.test/search?keyword=mouse&page=4", harvest); err != nil {
		t.Fatalf("HarvestAll: %v", err)
	}
	if len(pages) != 2 || pages[0] != 4 || pages[1] != 5 {
		t.Fatalf("visited pages = %v, want [4 5]", pages)
	}
}

func TestHarvestAllRejectsUnparseableSeed(t *testing.T) {
	h := NewHarvester(testConfig(), nil)

	run, err := h.HarvestAll(context.Background(), "https://shop.test/%zz", func(ctx context.Context, pageURL string) ([]*models.ListingRecord, error) {
		t.Fatal("harvest must not run for an unparseable seed")
		return nil, nil
	})
	if err == nil {
		t.Fatal("expected a parse error")
	}
	if run.Terminated != models.TerminatedError {
		t.Fatalf("Terminated = %q, want %q", run.Terminated, models.TerminatedError)
	}
}
