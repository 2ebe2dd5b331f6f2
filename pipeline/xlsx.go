package pipeline

import (
	"fmt"
	"sync"

	"github.com/xuri/excelize/v2"

	"shopharvest/models"
)

const listingsSheet = "Listings"

// XLSXWriter writes records to a spreadsheet workbook, appending a TOTAL
// row on Close. The workbook is held in memory and saved when closed.
type XLSXWriter struct {
	filename   string
	file       *excelize.File
	mu         sync.Mutex
	nextRow    int
	salesTotal float64
	saved      bool
}

// NewXLSXWriter initialises the workbook and writes the header row.
func NewXLSXWriter(filename string) (*XLSXWriter, error) {
	if err := ensureDir(filename); err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", listingsSheet); err != nil {
		return nil, fmt.Errorf("name listings sheet: %w", err)
	}

	for i, h := range csvHeader {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, fmt.Errorf("header cell: %w", err)
		}
		if err := f.SetCellValue(listingsSheet, cell, h); err != nil {
			return nil, fmt.Errorf("write header cell: %w", err)
		}
	}

	return &XLSXWriter{
		filename: filename,
		file:     f,
		nextRow:  2,
	}, nil
}

// Write appends records as rows.
func (xw *XLSXWriter) Write(records []*models.ListingRecord) error {
	xw.mu.Lock()
	defer xw.mu.Unlock()

	for _, record := range records {
		if err := xw.writeRow(recordRow(record)); err != nil {
			return err
		}
		xw.salesTotal += record.SalesEstimate()
	}
	return nil
}

// Close appends the TOTAL row and saves the workbook.
func (xw *XLSXWriter) Close() error {
	xw.mu.Lock()
	defer xw.mu.Unlock()

	if err := xw.writeRow(totalRow(xw.salesTotal)); err != nil {
		return err
	}
	if err := xw.file.SaveAs(xw.filename); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	xw.saved = true
	return xw.file.Close()
}

// Validate ensures the workbook reached disk.
func (xw *XLSXWriter) Validate() error {
	xw.mu.Lock()
	defer xw.mu.Unlock()
	if !xw.saved {
		return fmt.Errorf("workbook %s was never saved", xw.filename)
	}
	return nil
}

func (xw *XLSXWriter) writeRow(values []string) error {
	for i, v := range values {
		if v == "" {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(i+1, xw.nextRow)
		if err != nil {
			return fmt.Errorf("row cell: %w", err)
		}
		if err := xw.file.SetCellValue(listingsSheet, cell, v); err != nil {
			return fmt.Errorf("write row cell: %w", err)
		}
	}
	xw.nextRow++
	return nil
}
