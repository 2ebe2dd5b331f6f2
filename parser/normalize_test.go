package parser

import (
	"testing"

	"shopharvest/models"
)

func TestNormalizeQuantity(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		numeric  float64
		adjusted float64
		display  string
	}{
		{name: "plain integer", raw: "568", numeric: 568, adjusted: 568, display: "568"},
		{name: "k scale with sold suffix", raw: "1.3K sold", numeric: 1300, adjusted: 1800, display: "1.3k"},
		{name: "integral k", raw: "3K sold", numeric: 3000, adjusted: 3500, display: "3k"},
		{name: "k at lower bound", raw: "1k", numeric: 1000, adjusted: 1500, display: "1k"},
		{name: "k at upper bound", raw: "10k", numeric: 10000, adjusted: 10500, display: "10k"},
		{name: "k above adjustment range", raw: "15k", numeric: 15000, adjusted: 15000, display: "15k"},
		{name: "k below adjustment range", raw: "0.5k", numeric: 500, adjusted: 500, display: "0.5k"},
		{name: "trailing plus", raw: "2.5k+ sold", numeric: 2500, adjusted: 3000, display: "2.5k"},
		{name: "thousands separator", raw: "1,234 sold", numeric: 1234, adjusted: 1234, display: "1234"},
		{name: "extra spacing", raw: "  42   sold ", numeric: 42, adjusted: 42, display: "42"},
		{name: "empty", raw: "", numeric: 0, adjusted: 0, display: "0"},
		{name: "whitespace only", raw: "   ", numeric: 0, adjusted: 0, display: "0"},
		{name: "unparseable keeps raw", raw: "lots", numeric: 0, adjusted: 0, display: "lots"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeQuantity(tt.raw)
			if got.Numeric != tt.numeric {
				t.Fatalf("Numeric = %v, want %v", got.Numeric, tt.numeric)
			}
			if got.Adjusted != tt.adjusted {
				t.Fatalf("Adjusted = %v, want %v", got.Adjusted, tt.adjusted)
			}
			if got.Display != tt.display {
				t.Fatalf("Display = %q, want %q", got.Display, tt.display)
			}
		})
	}
}

func TestNormalizeQuantityIsPure(t *testing.T) {
	first := NormalizeQuantity("1.3K sold")
	second := NormalizeQuantity("1.3K sold")
	if first != second {
		t.Fatalf("repeated parse differs: %+v vs %+v", first, second)
	}
}

func TestExtractItemID(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{
			name: "standard permalink",
			url:  "https://shop.example.com/Wireless-Mouse-i.12345.67890",
			want: "67890",
		},
		{
			name: "permalink with query",
			url:  "https://shop.example.com/Keyboard-i.555.888?sp_atk=abc",
			want: "888",
		},
		{
			name: "no pattern yields empty",
			url:  "https://shop.example.com/some/other/page",
			want: "",
		},
		{
			name: "empty url",
			url:  "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractItemID(tt.url); got != tt.want {
				t.Fatalf("ExtractItemID(%q) = %q, want %q", tt.url, got, tt.want)
			}
		})
	}
}

func TestParsePrice(t *testing.T) {
	tests := []struct {
		text string
		want float64
	}{
		{"$1,299.50", 1299.50},
		{"₱599", 599},
		{"1299", 1299},
		{"free", 0},
		{"", 0},
	}

	for _, tt := range tests {
		if got := ParsePrice(tt.text); got != tt.want {
			t.Fatalf("ParsePrice(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestParseCount(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"(1,024)", 1024},
		{"87 ratings", 87},
		{"none", 0},
	}

	for _, tt := range tests {
		if got := ParseCount(tt.text); got != tt.want {
			t.Fatalf("ParseCount(%q) = %d, want %d", tt.text, got, tt.want)
		}
	}
}

func TestValidateRecord(t *testing.T) {
	tests := []struct {
		name    string
		record  *models.ListingRecord
		wantErr bool
	}{
		{
			name: "valid record",
			record: &models.ListingRecord{
				Name:       "Wireless Mouse",
				ListingURL: "https://shop.example.com/Wireless-Mouse-i.1.2",
			},
			wantErr: false,
		},
		{
			name:    "nil record",
			record:  nil,
			wantErr: true,
		},
		{
			name: "missing name",
			record: &models.ListingRecord{
				ListingURL: "https://shop.example.com/x-i.1.2",
			},
			wantErr: true,
		},
		{
			name: "missing url",
			record: &models.ListingRecord{
				Name: "Wireless Mouse",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRecord(tt.record)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateRecord() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
