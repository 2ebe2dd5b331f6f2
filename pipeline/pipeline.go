// Package pipeline coordinates validation, de-duplication, and output
// writing for harvested listing records.
package pipeline

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"shopharvest/models"
	"shopharvest/parser"
)

// ErrPipelineClosed is returned when Process is called after shutdown.
var ErrPipelineClosed = errors.New("pipeline: closed")

const dedupCacheSize = 8192

// OutputWriter defines the interface for data output.
type OutputWriter interface {
	Write(records []*models.ListingRecord) error
	Close() error
	Validate() error
}

// Pipeline coordinates validation, de-duplication, and output writing.
type Pipeline struct {
	writer    OutputWriter
	recordCh  chan *models.ListingRecord
	batchSize int

	wg sync.WaitGroup

	seen *lru.Cache[string, struct{}]

	metrics metrics

	mu     sync.Mutex // guards closed/err
	closed bool
	err    error

	closeOnce    sync.Once
	shutdown     chan struct{}
	shutdownOnce sync.Once
}

// NewPipeline builds a pipeline with a modest in-memory buffer. Listing
// URLs are de-duplicated through a bounded LRU cache: pagination often
// re-serves items across page boundaries.
func NewPipeline(writer OutputWriter) *Pipeline {
	seen, _ := lru.New[string, struct{}](dedupCacheSize)
	return &Pipeline{
		writer:    writer,
		recordCh:  make(chan *models.ListingRecord, 512),
		batchSize: 64,
		seen:      seen,
		metrics:   newMetrics(),
		shutdown:  make(chan struct{}),
	}
}

// Start launches worker goroutines.
func (p *Pipeline) Start(workers int) {
	if workers <= 0 {
		workers = 1
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()

	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

// Process enqueues records for downstream processing.
func (p *Pipeline) Process(records []*models.ListingRecord) error {
	if len(records) == 0 {
		return nil
	}

	closed, err := p.state()
	if err != nil {
		return err
	}
	if closed {
		return ErrPipelineClosed
	}

	for _, record := range records {
		if record == nil {
			continue
		}
		if err := p.enqueue(record); err != nil {
			return err
		}
	}
	return nil
}

// Close waits for workers to finish and prevents more submissions.
func (p *Pipeline) Close() error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
	}
	p.mu.Unlock()

	p.signalShutdown()
	p.closeOnce.Do(func() {
		close(p.recordCh)
	})

	p.wg.Wait()
	return p.Err()
}

// Err returns the first error encountered during processing.
func (p *Pipeline) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// GetMetrics returns a snapshot of the internal counters.
func (p *Pipeline) GetMetrics() map[string]interface{} {
	return p.metrics.snapshot()
}

// StartMetricsReporting emits periodic progress logs.
func (p *Pipeline) StartMetricsReporting(interval time.Duration) {
	if interval <= 0 {
		return
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				snapshot := p.GetMetrics()
				processed := snapshot["processed_records"].(int64)
				validation := snapshot["validation_errors"].(map[string]int)
				slog.Info("pipeline progress",
					slog.Int64("processed", processed),
					slog.Int("validation_errors", len(validation)),
				)
			case <-p.shutdown:
				return
			}
		}
	}()
}

func (p *Pipeline) worker() {
	defer p.wg.Done()

	batch := make([]*models.ListingRecord, 0, p.batchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := p.writer.Write(batch); err != nil {
			return err
		}
		batch = batch[:0]
		return nil
	}

	for record := range p.recordCh {
		prepared := p.prepare(record)
		if prepared == nil {
			continue
		}
		batch = append(batch, prepared)
		if len(batch) >= p.batchSize {
			if err := flush(); err != nil {
				p.setErr(fmt.Errorf("write batch: %w", err))
				return
			}
		}
	}

	if err := flush(); err != nil {
		p.setErr(fmt.Errorf("write batch: %w", err))
	}
}

func (p *Pipeline) prepare(record *models.ListingRecord) *models.ListingRecord {
	if err := parser.ValidateRecord(record); err != nil {
		p.metrics.addValidation("invalid_record")
		return nil
	}

	if _, dup := p.seen.Get(record.ListingURL); dup {
		p.metrics.addValidation("duplicate_url")
		return nil
	}
	p.seen.Add(record.ListingURL, struct{}{})

	p.metrics.incrementProcessed()
	return record
}

func (p *Pipeline) enqueue(record *models.ListingRecord) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = ErrPipelineClosed
		}
	}()

	select {
	case <-p.shutdown:
		return ErrPipelineClosed
	case p.recordCh <- record:
		return nil
	}
}

func (p *Pipeline) setErr(err error) {
	if err == nil {
		return
	}

	p.mu.Lock()
	if p.err != nil {
		p.mu.Unlock()
		return
	}
	p.err = err
	p.closed = true
	p.mu.Unlock()

	p.signalShutdown()
	p.closeOnce.Do(func() {
		close(p.recordCh)
	})
}

func (p *Pipeline) state() (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed, p.err
}

func (p *Pipeline) signalShutdown() {
	p.shutdownOnce.Do(func() {
		close(p.shutdown)
	})
}

type metrics struct {
	mu         sync.Mutex
	processed  int64
	validation map[string]int
}

func newMetrics() metrics {
	return metrics{
		validation: make(map[string]int),
	}
}

func (m *metrics) incrementProcessed() {
	m.mu.Lock()
	m.processed++
	m.mu.Unlock()
}

func (m *metrics) addValidation(kind string) {
	m.mu.Lock()
	m.validation[kind]++
	m.mu.Unlock()
}

func (m *metrics) snapshot() map[string]interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()

	copyValidation := make(map[string]int, len(m.validation))
	for k, v := range m.validation {
		copyValidation[k] = v
	}

	return map[string]interface{}{
		"processed_records": m.processed,
		"validation_errors": copyValidation,
	}
}
