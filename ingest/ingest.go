// Package ingest parses pre-captured structured storefront payloads pasted
// by a user into listing records. This is the non-browser ingestion path.
package ingest

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"shopharvest/models"
	"shopharvest/parser"
)

// ParseError marks one input (or one item inside it) that was not valid or
// had an unexpected shape. Invalid items never discard valid siblings.
type ParseError struct {
	Input int
	Item  int // -1 when the whole input failed
	Err   error
}

func (e ParseError) Error() string {
	if e.Item < 0 {
		return fmt.Sprintf("input %d: %v", e.Input+1, e.Err)
	}
	return fmt.Sprintf("input %d item %d: %v", e.Input+1, e.Item+1, e.Err)
}

func (e ParseError) Unwrap() error {
	return e.Err
}

// payload keeps items raw so each one decodes independently; a
// type-mismatched field in one item must not discard its siblings.
type payload struct {
	Items []json.RawMessage `json:"items"`
}

type payloadItem struct {
	Name           string   `json:"name"`
	Price          float64  `json:"price"`
	PriceBefore    float64  `json:"price_before_discount"`
	Discount       string   `json:"discount"`
	Rating         float64  `json:"rating"`
	ReviewCount    int      `json:"review_count"`
	HistoricalSold *float64 `json:"historical_sold"`
	SoldText       string   `json:"sold_text"`
	ItemID         int64    `json:"itemid"`
	ShopName       string   `json:"shop_name"`
	Location       string   `json:"shop_location"`
	Brand          string   `json:"brand"`
	Stock          *int     `json:"stock"`
	Image          string   `json:"image"`
	URL            string   `json:"url"`
}

// ParsePayloads parses each pasted payload independently, collecting
// per-input and per-item errors alongside whatever parsed successfully.
func ParsePayloads(inputs []string) *models.ParseResult {
	result := &models.ParseResult{
		Stats: models.ParseStats{
			PerInput: make([]int, len(inputs)),
		},
	}

	for i, raw := range inputs {
		var p payload
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			result.Errors = append(result.Errors, ParseError{Input: i, Item: -1, Err: err}.Error())
			continue
		}
		if len(p.Items) == 0 {
			result.Errors = append(result.Errors, ParseError{Input: i, Item: -1, Err: fmt.Errorf("payload has no items array")}.Error())
			continue
		}

		for j, rawItem := range p.Items {
			var item payloadItem
			if err := json.Unmarshal(rawItem, &item); err != nil {
				result.Errors = append(result.Errors, ParseError{Input: i, Item: j, Err: err}.Error())
				continue
			}
			record, err := item.toRecord()
			if err != nil {
				result.Errors = append(result.Errors, ParseError{Input: i, Item: j, Err: err}.Error())
				continue
			}
			result.Records = append(result.Records, record)
			result.Stats.PerInput[i]++
			if record.InStock {
				result.Stats.Available++
			} else {
				result.Stats.SoldOut++
			}
		}
	}

	result.Stats.TotalRecords = len(result.Records)
	return result
}

func (item payloadItem) toRecord() (*models.ListingRecord, error) {
	if strings.TrimSpace(item.Name) == "" {
		return nil, fmt.Errorf("item missing name")
	}

	soldRaw := item.SoldText
	if soldRaw == "" && item.HistoricalSold != nil {
		soldRaw = strconv.FormatFloat(*item.HistoricalSold, 'f', -1, 64)
	}
	quantity := parser.NormalizeQuantity(soldRaw)

	itemID := ""
	if item.ItemID > 0 {
		itemID = strconv.FormatInt(item.ItemID, 10)
	} else {
		itemID = parser.ExtractItemID(item.URL)
	}

	// Stock is indeterminate when the payload omits it; default to in stock.
	inStock := true
	if item.Stock != nil {
		inStock = *item.Stock > 0
	}

	return &models.ListingRecord{
		Name:             parser.CleanText(item.Name),
		Price:            item.Price,
		OriginalPrice:    item.PriceBefore,
		Discount:         item.Discount,
		Rating:           item.Rating,
		ReviewCount:      item.ReviewCount,
		SoldCountRaw:     soldRaw,
		SoldCountNumeric: quantity.Numeric,
		SoldCountAdjust:  quantity.Adjusted,
		SoldDisplay:      quantity.Display,
		ItemID:           itemID,
		ShopName:         item.ShopName,
		Location:         item.Location,
		Brand:            item.Brand,
		InStock:          inStock,
		ImageURL:         item.Image,
		ListingURL:       item.URL,
		ScrapedAt:        time.Now().UTC(),
	}, nil
}
