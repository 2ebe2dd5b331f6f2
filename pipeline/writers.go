package pipeline

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"shopharvest/models"
)

var csvHeader = []string{
	"name", "price", "original_price", "discount", "rating", "review_count",
	"sold_count_raw", "sold_count_numeric", "sold_count_adjusted", "sold_display",
	"item_id", "shop_name", "location", "brand", "in_stock",
	"image_url", "listing_url", "sales_estimate", "scraped_at",
}

func recordRow(r *models.ListingRecord) []string {
	return []string{
		r.Name,
		formatFloat(r.Price),
		formatFloat(r.OriginalPrice),
		r.Discount,
		formatFloat(r.Rating),
		strconv.Itoa(r.ReviewCount),
		r.SoldCountRaw,
		formatFloat(r.SoldCountNumeric),
		formatFloat(r.SoldCountAdjust),
		r.SoldDisplay,
		r.ItemID,
		r.ShopName,
		r.Location,
		r.Brand,
		strconv.FormatBool(r.InStock),
		r.ImageURL,
		r.ListingURL,
		formatFloat(r.SalesEstimate()),
		r.ScrapedAt.Format(time.RFC3339),
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// totalRow synthesizes the summary row appended to tabular outputs: a
// presentation convention of the export layer, not part of the record shape.
func totalRow(salesTotal float64) []string {
	row := make([]string, len(csvHeader))
	row[0] = "TOTAL"
	row[len(csvHeader)-2] = formatFloat(salesTotal)
	return row
}

// CSVWriter writes records to CSV, appending a TOTAL row on Close.
type CSVWriter struct {
	path       string
	file       *os.File
	writer     *csv.Writer
	mu         sync.Mutex
	salesTotal float64
}

// NewCSVWriter initialises a CSV writer and writes the header row.
func NewCSVWriter(filename string) (*CSVWriter, error) {
	if err := ensureDir(filename); err != nil {
		return nil, err
	}

	f, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("create csv file: %w", err)
	}

	writer := csv.NewWriter(f)
	if err := writer.Write(csvHeader); err != nil {
		f.Close()
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		f.Close()
		return nil, fmt.Errorf("flush csv header: %w", err)
	}

	return &CSVWriter{
		path:   filename,
		file:   f,
		writer: writer,
	}, nil
}

// Write appends records to the CSV output.
func (cw *CSVWriter) Write(records []*models.ListingRecord) error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	for _, record := range records {
		if err := cw.writer.Write(recordRow(record)); err != nil {
			return fmt.Errorf("write csv record: %w", err)
		}
		cw.salesTotal += record.SalesEstimate()
	}
	cw.writer.Flush()
	if err := cw.writer.Error(); err != nil {
		return fmt.Errorf("flush csv records: %w", err)
	}
	return nil
}

// Close appends the TOTAL row, flushes, and closes the file handle.
func (cw *CSVWriter) Close() error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	if err := cw.writer.Write(totalRow(cw.salesTotal)); err != nil {
		return fmt.Errorf("write csv total row: %w", err)
	}
	cw.writer.Flush()
	if err := cw.writer.Error(); err != nil {
		return fmt.Errorf("flush csv writer: %w", err)
	}
	return cw.file.Close()
}

// Validate ensures the file has content besides the header. It stats by
// path so it works after Close.
func (cw *CSVWriter) Validate() error {
	info, err := os.Stat(cw.path)
	if err != nil {
		return fmt.Errorf("stat csv file: %w", err)
	}
	if info.Size() <= 0 {
		return fmt.Errorf("csv file is empty")
	}
	return nil
}

// JSONWriter writes newline-delimited JSON records. No TOTAL row: the
// summary convention applies only to tabular outputs.
type JSONWriter struct {
	path    string
	file    *os.File
	writer  *bufio.Writer
	encoder *json.Encoder
	mu      sync.Mutex
}

// NewJSONWriter initialises the JSON writer.
func NewJSONWriter(filename string) (*JSONWriter, error) {
	if err := ensureDir(filename); err != nil {
		return nil, err
	}

	f, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("create json file: %w", err)
	}

	buffer := bufio.NewWriter(f)
	return &JSONWriter{
		path:    filename,
		file:    f,
		writer:  buffer,
		encoder: json.NewEncoder(buffer),
	}, nil
}

// Write appends records in JSONL format.
func (jw *JSONWriter) Write(records []*models.ListingRecord) error {
	jw.mu.Lock()
	defer jw.mu.Unlock()

	for _, record := range records {
		if err := jw.encoder.Encode(record); err != nil {
			return fmt.Errorf("encode json record: %w", err)
		}
	}

	if err := jw.writer.Flush(); err != nil {
		return fmt.Errorf("flush json writer: %w", err)
	}

	return nil
}

// Close flushes buffers and closes the underlying file.
func (jw *JSONWriter) Close() error {
	jw.mu.Lock()
	defer jw.mu.Unlock()

	if err := jw.writer.Flush(); err != nil {
		return fmt.Errorf("flush json writer: %w", err)
	}
	return jw.file.Close()
}

// Validate ensures the JSON file has data.
func (jw *JSONWriter) Validate() error {
	info, err := os.Stat(jw.path)
	if err != nil {
		return fmt.Errorf("stat json file: %w", err)
	}
	if info.Size() <= 0 {
		return fmt.Errorf("json file is empty")
	}
	return nil
}

func ensureDir(filename string) error {
	dir := filepath.Dir(filename)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", dir, err)
	}
	return nil
}
