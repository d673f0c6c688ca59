package clickhouse

import (
	"context"
	"sync"
	"time"

	"argus/pkg/logger"
)

// FlushFunc performs the actual INSERT for a batch of buffered items.
type FlushFunc func(ctx context.Context, batch []interface{}) error

// BatchWriter accumulates items in memory and flushes them to ClickHouse in
// batches. Single row inserts are inefficient in ClickHouse, so all archive
// writes go through a writer like this one.
type BatchWriter struct {
	flushFunc FlushFunc
	buffer    []interface{}
	mu        sync.Mutex
	log       *logger.Logger

	maxBatchSize int
	maxAge       time.Duration
	tableName    string

	lastFlush time.Time
	ticker    *time.Ticker
	stopCh    chan struct{}
	wg        sync.WaitGroup
	running   bool
}

// BatchWriterConfig contains configuration for BatchWriter
type BatchWriterConfig struct {
	FlushFunc    FlushFunc
	TableName    string
	MaxBatchSize int           // Default: 500
	MaxAge       time.Duration // Default: 5s
}

// NewBatchWriter creates a new batch writer
func NewBatchWriter(cfg BatchWriterConfig) *BatchWriter {
	if cfg.MaxBatchSize <= 0 {
		cfg.MaxBatchSize = 500
	}
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = 5 * time.Second
	}

	return &BatchWriter{
		flushFunc:    cfg.FlushFunc,
		buffer:       make([]interface{}, 0, cfg.MaxBatchSize),
		maxBatchSize: cfg.MaxBatchSize,
		maxAge:       cfg.MaxAge,
		tableName:    cfg.TableName,
		lastFlush:    time.Now(),
		stopCh:       make(chan struct{}),
		log:          logger.Get().With("component", "batch_writer", "table", cfg.TableName),
	}
}

// Start begins the background flush ticker
func (bw *BatchWriter) Start(ctx context.Context) {
	bw.mu.Lock()
	if bw.running {
		bw.mu.Unlock()
		return
	}
	bw.running = true
	bw.ticker = time.NewTicker(bw.maxAge)
	bw.mu.Unlock()

	bw.wg.Add(1)
	go bw.flushLoop(ctx)

	bw.log.Infof("BatchWriter started (maxBatchSize=%d, maxAge=%v)", bw.maxBatchSize, bw.maxAge)
}

// Add adds an item to the buffer. When the buffer reaches maxBatchSize it is
// flushed immediately.
func (bw *BatchWriter) Add(ctx context.Context, item interface{}) error {
	bw.mu.Lock()
	bw.buffer = append(bw.buffer, item)
	shouldFlush := len(bw.buffer) >= bw.maxBatchSize
	bw.mu.Unlock()

	if shouldFlush {
		return bw.Flush(ctx)
	}
	return nil
}

// Flush writes all buffered items to ClickHouse
func (bw *BatchWriter) Flush(ctx context.Context) error {
	bw.mu.Lock()
	if len(bw.buffer) == 0 {
		bw.mu.Unlock()
		return nil
	}

	// Take ownership of the current buffer so Add() is not blocked while the
	// insert runs.
	batch := bw.buffer
	bw.buffer = make([]interface{}, 0, bw.maxBatchSize)
	bw.lastFlush = time.Now()
	bw.mu.Unlock()

	start := time.Now()
	if err := bw.flushFunc(ctx, batch); err != nil {
		bw.log.Errorf("Failed to flush %d items to %s: %v (took %v)",
			len(batch), bw.tableName, err, time.Since(start))
		return err
	}

	bw.log.Debugf("Flushed %d items to %s (took %v)", len(batch), bw.tableName, time.Since(start))
	return nil
}

func (bw *BatchWriter) flushLoop(ctx context.Context) {
	defer bw.wg.Done()

	for {
		select {
		case <-ctx.Done():
			bw.log.Info("BatchWriter stopping, performing final flush...")
			if err := bw.Flush(context.Background()); err != nil {
				bw.log.Errorf("Final flush failed: %v", err)
			}
			return

		case <-bw.stopCh:
			bw.log.Info("BatchWriter received stop signal, performing final flush...")
			if err := bw.Flush(context.Background()); err != nil {
				bw.log.Errorf("Final flush failed: %v", err)
			}
			return

		case <-bw.ticker.C:
			bw.mu.Lock()
			bufferSize := len(bw.buffer)
			bw.mu.Unlock()

			if bufferSize > 0 {
				if err := bw.Flush(ctx); err != nil {
					bw.log.Errorf("Periodic flush failed: %v", err)
				}
			}
		}
	}
}

// Stop gracefully shuts down the batch writer. It flushes any remaining items
// and waits for the flush loop to exit.
func (bw *BatchWriter) Stop(ctx context.Context) error {
	bw.mu.Lock()
	if !bw.running {
		bw.mu.Unlock()
		return nil
	}
	bw.running = false
	bw.mu.Unlock()

	if bw.ticker != nil {
		bw.ticker.Stop()
	}
	close(bw.stopCh)

	done := make(chan struct{})
	go func() {
		bw.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		bw.log.Info("BatchWriter stopped gracefully")
		return nil
	case <-ctx.Done():
		bw.log.Warn("BatchWriter stop timed out")
		return ctx.Err()
	}
}

// BufferSize returns the current buffer size (for monitoring)
func (bw *BatchWriter) BufferSize() int {
	bw.mu.Lock()
	defer bw.mu.Unlock()
	return len(bw.buffer)
}
