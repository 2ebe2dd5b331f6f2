package scraper

import "regexp"

// Candidate pairs a CSS selector with an optional attribute to read.
// An empty Attr means the element's text content.
type Candidate struct {
	Selector string
	Attr     string
}

// FieldSpec resolves one logical field through an ordered candidate chain:
// the first candidate yielding non-empty text (or attribute value) wins,
// otherwise Default applies. Storefront markup varies across template
// variants; the chain absorbs that without per-variant branching.
type FieldSpec struct {
	Field      string
	Candidates []Candidate
	Default    string
}

// ContainerCandidates are probed in order against a loaded document; the
// first selector with a non-zero match count becomes the active listing
// container selector for that page.
var ContainerCandidates = []string{
	"div[data-sqe='item']",
	"li.shop-search-result-view__item",
	".shop-search-result-view .col-xs-2-4",
	"li[data-testid='listing-card']",
	"div.product-grid-item",
	"li.product-item",
	"div.item-card",
}

var (
	nameSpec = FieldSpec{
		Field: "name",
		Candidates: []Candidate{
			{Selector: "div[data-sqe='name']"},
			{Selector: ".product-name"},
			{Selector: "[data-testid='product-title']"},
			{Selector: "a[title]", Attr: "title"},
			{Selector: "h3 a"},
		},
	}
	priceSpec = FieldSpec{
		Field: "price",
		Candidates: []Candidate{
			{Selector: "[data-sqe='price'] span:last-child"},
			{Selector: ".product-price .current"},
			{Selector: "span.price"},
			{Selector: ".price_color"},
		},
	}
	originalPriceSpec = FieldSpec{
		Field: "original_price",
		Candidates: []Candidate{
			{Selector: "[data-sqe='price'] del"},
			{Selector: ".product-price .original"},
			{Selector: "span.price-before-discount"},
			{Selector: "del"},
		},
	}
	discountSpec = FieldSpec{
		Field: "discount",
		Candidates: []Candidate{
			{Selector: ".percent-discount"},
			{Selector: "span.discount-label"},
			{Selector: "[data-testid='discount-badge']"},
		},
	}
	ratingSpec = FieldSpec{
		Field: "rating",
		Candidates: []Candidate{
			{Selector: ".shopee-rating-stars__stars", Attr: "data-rating"},
			{Selector: "[data-testid='rating-value']"},
			{Selector: "span.rating-score"},
		},
	}
	reviewCountSpec = FieldSpec{
		Field: "review_count",
		Candidates: []Candidate{
			{Selector: ".rating-total"},
			{Selector: "[data-testid='review-count']"},
			{Selector: "span.review-count"},
		},
	}
	soldSpec = FieldSpec{
		Field: "sold_count",
		Candidates: []Candidate{
			{Selector: ".go5yPW"},
			{Selector: "[data-testid='sold-count']"},
			{Selector: "div.sold-count"},
			{Selector: "span.units-sold"},
		},
	}
	shopSpec = FieldSpec{
		Field: "shop_name",
		Candidates: []Candidate{
			{Selector: "[data-testid='shop-name']"},
			{Selector: ".shop-name"},
			{Selector: "div.seller-name"},
		},
	}
	locationSpec = FieldSpec{
		Field: "location",
		Candidates: []Candidate{
			{Selector: "[data-sqe='location']"},
			{Selector: ".shop-location"},
			{Selector: "span.location"},
		},
	}
	brandSpec = FieldSpec{
		Field: "brand",
		Candidates: []Candidate{
			{Selector: "[data-testid='brand']"},
			{Selector: ".product-brand"},
			{Selector: "span.brand"},
		},
	}
	soldOutSpec = FieldSpec{
		Field: "sold_out",
		Candidates: []Candidate{
			{Selector: ".sold-out-badge"},
			{Selector: "[data-testid='out-of-stock']"},
			{Selector: "div.item-sold-out"},
		},
	}
	imageSpec = FieldSpec{
		Field: "image_url",
		Candidates: []Candidate{
			{Selector: "img", Attr: "src"},
			{Selector: "img", Attr: "data-src"},
			{Selector: "source", Attr: "srcset"},
		},
	}
	linkSpec = FieldSpec{
		Field: "listing_url",
		Candidates: []Candidate{
			{Selector: "a[data-sqe='link']", Attr: "href"},
			{Selector: "a[href]", Attr: "href"},
		},
	}
)

// soldTextRe matches sold-count text when no stable class name carries it,
// e.g. "1.3k sold" or "568 sold".
var soldTextRe = regexp.MustCompile(`(?i)^[\d.,]+[kK]?\s+sold$`)

// loadMoreScript clicks a visible "load more" control when one exists and
// reports whether anything was clicked.
const loadMoreScript = `(() => {
	const visible = (el) => {
		const r = el.getBoundingClientRect();
		return r.width > 0 && r.height > 0;
	};
	const labels = ['load more', 'show more', 'see more', 'view more'];
	for (const el of document.querySelectorAll('button, [role="button"], a.load-more')) {
		const text = (el.textContent || '').replace(/\s+/g, ' ').trim().toLowerCase();
		if (visible(el) && labels.some((l) => text.startsWith(l))) {
			el.click();
			return true;
		}
	}
	return false;
})()`
