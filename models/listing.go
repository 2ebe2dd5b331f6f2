// Package models defines data structures for the harvester.
package models

import "time"

// ListingRecord represents one harvested or parsed product listing.
type ListingRecord struct {
	Name             string    `csv:"name" json:"name"`
	Price            float64   `csv:"price" json:"price"`
	OriginalPrice    float64   `csv:"original_price" json:"original_price,omitempty"`
	Discount         string    `csv:"discount" json:"discount,omitempty"`
	Rating           float64   `csv:"rating" json:"rating,omitempty"`
	ReviewCount      int       `csv:"review_count" json:"review_count"`
	SoldCountRaw     string    `csv:"sold_count_raw" json:"sold_count_raw"`
	SoldCountNumeric float64   `csv:"sold_count_numeric" json:"sold_count_numeric"`
	SoldCountAdjust  float64   `csv:"sold_count_adjusted" json:"sold_count_adjusted"`
	SoldDisplay      string    `csv:"sold_display" json:"sold_display"`
	ItemID           string    `csv:"item_id" json:"item_id"`
	ShopName         string    `csv:"shop_name" json:"shop_name,omitempty"`
	Location         string    `csv:"location" json:"location,omitempty"`
	Brand            string    `csv:"brand" json:"brand,omitempty"`
	InStock          bool      `csv:"in_stock" json:"in_stock"`
	ImageURL         string    `csv:"image_url" json:"image_url"`
	ListingURL       string    `csv:"listing_url" json:"listing_url"`
	ScrapedAt        time.Time `csv:"scraped_at" json:"scraped_at"`
}

// SalesEstimate derives the estimated revenue for the listing.
func (r *ListingRecord) SalesEstimate() float64 {
	return r.Price * r.SoldCountAdjust
}

// TerminationReason records why pagination stopped for one source URL.
type TerminationReason string

const (
	TerminatedEmptyPage  TerminationReason = "EMPTY_PAGE"
	TerminatedError      TerminationReason = "ERROR"
	TerminatedPageLimit  TerminationReason = "PAGE_LIMIT"
	TerminatedSinglePage TerminationReason = "SINGLE_PAGE_MODE"
)

// HarvestRun is the unit of work for one input URL.
type HarvestRun struct {
	SourceURL    string
	PagesVisited int
	Records      []*ListingRecord
	Terminated   TerminationReason
}

// BatchStats tabulates summary counters for one invocation.
type BatchStats struct {
	TotalRecords int
	ByReason     map[TerminationReason]int
}

// BatchResult aggregates all HarvestRuns in one invocation.
type BatchResult struct {
	Runs       []*HarvestRun
	AllRecords []*ListingRecord
	Errors     map[string]string // URL -> error message, failed URLs only
	Stats      BatchStats
}

// ParseStats summarizes the payload-ingestion path.
type ParseStats struct {
	TotalRecords int
	Available    int
	SoldOut      int
	PerInput     []int
}

// ParseResult aggregates records and errors from pasted payloads.
type ParseResult struct {
	Records []*ListingRecord
	Errors  []string
	Stats   ParseStats
}
