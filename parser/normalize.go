// Package parser normalizes noisy scraped text into typed values.
package parser

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	kScaleRe   = regexp.MustCompile(`^(\d+(?:\.\d+)?)k$`)
	soldWordRe = regexp.MustCompile(`\s*sold\s*`)
	itemIDRe   = regexp.MustCompile(`-?i\.(\d+)\.(\d+)`)
	numberRe   = regexp.MustCompile(`[\d.,]+`)
)

// Quantity is the normalized form of a human-readable count such as "1.3K sold".
type Quantity struct {
	Numeric  float64
	Adjusted float64
	Display  string
}

// NormalizeQuantity parses a noisy quantity string into a Quantity.
//
// "k"-scale values between 1k and 10k get 500 added to the adjusted count;
// the platform rounds those down coarsely and this rule is kept verbatim.
// Unparseable input yields zeros but keeps the raw text as Display.
func NormalizeQuantity(raw string) Quantity {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Quantity{Display: "0"}
	}

	s := strings.ToLower(trimmed)
	s = strings.ReplaceAll(s, ",", "")
	s = soldWordRe.ReplaceAllString(s, " ")
	s = strings.Join(strings.Fields(s), " ")
	s = strings.TrimSuffix(s, "+")
	s = strings.TrimSpace(s)

	if m := kScaleRe.FindStringSubmatch(s); m != nil {
		base, err := strconv.ParseFloat(m[1], 64)
		if err == nil {
			numeric := base * 1000
			adjusted := numeric
			if base >= 1 && base <= 10 {
				adjusted = numeric + 500
			}
			display := strconv.FormatFloat(base, 'f', -1, 64) + "k"
			return Quantity{Numeric: numeric, Adjusted: adjusted, Display: display}
		}
	}

	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return Quantity{Numeric: v, Adjusted: v, Display: s}
	}

	return Quantity{Display: trimmed}
}

// ExtractItemID derives the item ID from a listing permalink.
// URLs that do not carry the shopid.itemid pattern yield an empty string;
// a miss is not an error, ambiguous permalinks are real inputs.
func ExtractItemID(listingURL string) string {
	m := itemIDRe.FindStringSubmatch(listingURL)
	if m == nil {
		return ""
	}
	return m[2]
}

// ParsePrice extracts a numeric amount from a price string, dropping
// currency symbols and thousands separators. Returns 0 when no number
// is present.
func ParsePrice(text string) float64 {
	match := numberRe.FindString(text)
	if match == "" {
		return 0
	}
	match = strings.ReplaceAll(match, ",", "")
	v, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0
	}
	return v
}

// ParseRating parses a rating string such as "4.8" into a float.
func ParseRating(text string) float64 {
	match := numberRe.FindString(strings.TrimSpace(text))
	if match == "" {
		return 0
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(match, ",", ""), 64)
	if err != nil {
		return 0
	}
	return v
}

// ParseCount parses an integer count such as a review total, tolerating
// separators and parentheses.
func ParseCount(text string) int {
	match := numberRe.FindString(text)
	if match == "" {
		return 0
	}
	match = strings.ReplaceAll(match, ",", "")
	match = strings.ReplaceAll(match, ".", "")
	v, err := strconv.Atoi(match)
	if err != nil {
		return 0
	}
	return v
}

// CleanText collapses internal whitespace and trims the result.
func CleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
