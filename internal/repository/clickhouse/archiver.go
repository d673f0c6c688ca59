package clickhouse

import (
	"context"
	"time"

	"argus/internal/domain/chain"
	ch "argus/pkg/clickhouse"
)

type archivedTx struct {
	chain string
	tx    chain.Transaction
}

// Inserter persists a batch of observed transactions for one chain.
type Inserter interface {
	InsertBatch(ctx context.Context, chainName string, txs []chain.Transaction) error
}

// BufferedArchiver sits between the chain monitor and the transaction
// archive. Poll cycles produce small per-block batches, so writes are
// buffered and flushed to ClickHouse in larger batches.
type BufferedArchiver struct {
	archive Inserter
	writer  *ch.BatchWriter
}

// NewBufferedArchiver creates an archiver that buffers writes through the
// given archive.
func NewBufferedArchiver(archive Inserter, maxBatchSize int, maxAge time.Duration) *BufferedArchiver {
	a := &BufferedArchiver{archive: archive}
	a.writer = ch.NewBatchWriter(ch.BatchWriterConfig{
		FlushFunc:    a.flush,
		TableName:    "observed_transactions",
		MaxBatchSize: maxBatchSize,
		MaxAge:       maxAge,
	})
	return a
}

// Start begins the background flush loop.
func (a *BufferedArchiver) Start(ctx context.Context) {
	a.writer.Start(ctx)
}

// Stop flushes any buffered transactions and shuts the writer down.
func (a *BufferedArchiver) Stop(ctx context.Context) error {
	return a.writer.Stop(ctx)
}

// InsertBatch buffers observed transactions for the next flush.
func (a *BufferedArchiver) InsertBatch(ctx context.Context, chainName string, txs []chain.Transaction) error {
	for _, tx := range txs {
		if err := a.writer.Add(ctx, archivedTx{chain: chainName, tx: tx}); err != nil {
			return err
		}
	}
	return nil
}

// flush groups buffered items by chain and forwards them to the archive.
func (a *BufferedArchiver) flush(ctx context.Context, batch []interface{}) error {
	byChain := make(map[string][]chain.Transaction)
	for _, item := range batch {
		entry, ok := item.(archivedTx)
		if !ok {
			continue
		}
		byChain[entry.chain] = append(byChain[entry.chain], entry.tx)
	}

	for chainName, txs := range byChain {
		if err := a.archive.InsertBatch(ctx, chainName, txs); err != nil {
			return err
		}
	}
	return nil
}
