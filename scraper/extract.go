package scraper

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"shopharvest/models"
	"shopharvest/parser"
)

// resolveField walks a field's candidate chain over one listing subtree and
// returns the first non-empty match, falling back to the spec default.
// Purely a function of the subtree passed in.
func resolveField(root *goquery.Selection, spec FieldSpec) string {
	for _, c := range spec.Candidates {
		sel := root.Find(c.Selector).First()
		if sel.Length() == 0 {
			continue
		}
		if c.Attr != "" {
			if value, ok := sel.Attr(c.Attr); ok {
				if trimmed := strings.TrimSpace(value); trimmed != "" {
					return trimmed
				}
			}
			continue
		}
		if text := parser.CleanText(sel.Text()); text != "" {
			return text
		}
	}
	return spec.Default
}

// matchesAny reports whether any candidate selector matches under the
// listing root. Used for presence-only fields such as the sold-out badge,
// which is often an icon with no text content.
func matchesAny(root *goquery.Selection, spec FieldSpec) bool {
	for _, c := range spec.Candidates {
		if root.Find(c.Selector).Length() > 0 {
			return true
		}
	}
	return false
}

// scanSoldText is the secondary sold-count fallback: scan every text-bearing
// leaf under the listing root for something shaped like "1.3k sold". Handles
// markup where the sold-count element carries no stable class name.
func scanSoldText(root *goquery.Selection) string {
	found := ""
	root.Find("*").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if sel.Children().Length() > 0 {
			return true
		}
		text := parser.CleanText(sel.Text())
		if soldTextRe.MatchString(text) {
			found = text
			return false
		}
		return true
	})
	return found
}

// ExtractRecord builds one ListingRecord from a listing node. A node is
// never dropped: when nothing usable is found a placeholder name is
// synthesized from the node index.
func ExtractRecord(root *goquery.Selection, index int, base *url.URL) *models.ListingRecord {
	name := resolveField(root, nameSpec)
	if name == "" {
		name = fmt.Sprintf("Unknown Product %d", index)
	}

	listingURL := absoluteURL(base, resolveField(root, linkSpec))
	imageURL := absoluteURL(base, resolveField(root, imageSpec))

	soldRaw := resolveField(root, soldSpec)
	if soldRaw == "" {
		soldRaw = scanSoldText(root)
	}
	quantity := parser.NormalizeQuantity(soldRaw)

	record := &models.ListingRecord{
		Name:             name,
		Price:            parser.ParsePrice(resolveField(root, priceSpec)),
		OriginalPrice:    parser.ParsePrice(resolveField(root, originalPriceSpec)),
		Discount:         resolveField(root, discountSpec),
		Rating:           parser.ParseRating(resolveField(root, ratingSpec)),
		ReviewCount:      parser.ParseCount(resolveField(root, reviewCountSpec)),
		SoldCountRaw:     soldRaw,
		SoldCountNumeric: quantity.Numeric,
		SoldCountAdjust:  quantity.Adjusted,
		SoldDisplay:      quantity.Display,
		ItemID:           parser.ExtractItemID(listingURL),
		ShopName:         resolveField(root, shopSpec),
		Location:         resolveField(root, locationSpec),
		Brand:            resolveField(root, brandSpec),
		InStock:          !matchesAny(root, soldOutSpec),
		ImageURL:         imageURL,
		ListingURL:       listingURL,
		ScrapedAt:        time.Now().UTC(),
	}
	return record
}

// extractListings runs the field extractor across every node matching
// selector, preserving document order.
func extractListings(doc *goquery.Document, selector, pageURL string) []*models.ListingRecord {
	base, err := url.Parse(pageURL)
	if err != nil {
		base = nil
	}

	var records []*models.ListingRecord
	doc.Find(selector).Each(func(i int, sel *goquery.Selection) {
		records = append(records, ExtractRecord(sel, i, base))
	})
	return records
}

// probeDocument finds the first container candidate with matches in an
// already-parsed document. Used by the static harvest path.
func probeDocument(doc *goquery.Document) string {
	for _, candidate := range ContainerCandidates {
		if doc.Find(candidate).Length() > 0 {
			return candidate
		}
	}
	return ""
}

func absoluteURL(base *url.URL, ref string) string {
	if ref == "" {
		return ""
	}
	if base == nil {
		return ref
	}
	parsed, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(parsed).String()
}
