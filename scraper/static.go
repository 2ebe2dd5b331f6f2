package scraper

import (
	"bytes"
	"context"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"

	"shopharvest/config"
	"shopharvest/models"
)

// StaticHarvester fetches server-rendered grids over plain HTTP and runs
// the same field extractor over the response body. It covers storefronts
// that do not need a browser; lazy-loading targets need the browser path.
type StaticHarvester struct {
	cfg       *config.Config
	metrics   *Metrics
	transport http.RoundTripper
}

// NewStaticHarvester builds the static-mode harvester. metrics may be nil.
func NewStaticHarvester(cfg *config.Config, metrics *Metrics) *StaticHarvester {
	return &StaticHarvester{cfg: cfg, metrics: metrics}
}

// WithTransport overrides the HTTP transport. Used by tests.
func (s *StaticHarvester) WithTransport(rt http.RoundTripper) {
	s.transport = rt
}

// HarvestPage fetches pageURL and extracts one record per listing node,
// with the same error taxonomy as the browser path.
func (s *StaticHarvester) HarvestPage(ctx context.Context, pageURL string) ([]*models.ListingRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, NavigationError{URL: pageURL, Err: err}
	}

	start := time.Now()
	collector := colly.NewCollector(colly.UserAgent(s.cfg.UserAgent))
	collector.SetRequestTimeout(s.cfg.NavigationTimeout)
	collector.IgnoreRobotsTxt = true
	if s.transport != nil {
		collector.WithTransport(s.transport)
	}

	var (
		records    []*models.ListingRecord
		harvestErr error
	)

	collector.OnResponse(func(r *colly.Response) {
		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(r.Body))
		if err != nil {
			harvestErr = NavigationError{URL: pageURL, Err: err}
			return
		}
		selector := probeDocument(doc)
		if selector == "" {
			harvestErr = NoListingsError{URL: pageURL}
			return
		}
		records = extractListings(doc, selector, r.Request.URL.String())
	})

	collector.OnError(func(_ *colly.Response, err error) {
		harvestErr = NavigationError{URL: pageURL, Err: err}
	})

	if err := collector.Visit(pageURL); err != nil {
		harvestErr = NavigationError{URL: pageURL, Err: err}
	}
	collector.Wait()

	if harvestErr != nil {
		s.metrics.IncPage("error")
		s.metrics.IncError(errorTypeLabel(harvestErr))
		return nil, harvestErr
	}

	s.metrics.IncPage("ok")
	s.metrics.AddListings(len(records))
	s.metrics.ObserveDuration(time.Since(start))
	return records, nil
}
