package pipeline

import (
	"fmt"
	"sync"

	"shopharvest/models"
)

// MultiWriter fans records out to several writers simultaneously.
type MultiWriter struct {
	writers []OutputWriter
	mu      sync.Mutex
}

// NewMultiWriter wraps the given writers; closing the multi writer closes
// all of them even when one fails.
func NewMultiWriter(writers ...OutputWriter) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write writes records to every underlying writer.
func (mw *MultiWriter) Write(records []*models.ListingRecord) error {
	mw.mu.Lock()
	defer mw.mu.Unlock()

	for _, w := range mw.writers {
		if err := w.Write(records); err != nil {
			return fmt.Errorf("multi write failed: %w", err)
		}
	}
	return nil
}

// Close closes all writers, collecting every failure.
func (mw *MultiWriter) Close() error {
	mw.mu.Lock()
	defer mw.mu.Unlock()

	var errs []error
	for _, w := range mw.writers {
		if err := w.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("multiple errors: %v", errs)
	}
	return nil
}

// Validate validates every output.
func (mw *MultiWriter) Validate() error {
	var errs []error
	for _, w := range mw.writers {
		if err := w.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("validation errors: %v", errs)
	}
	return nil
}
