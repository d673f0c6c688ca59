package clickhouse

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"argus/internal/domain/chain"
)

type fakeInserter struct {
	mu      sync.Mutex
	byChain map[string][]chain.Transaction
}

func newFakeInserter() *fakeInserter {
	return &fakeInserter{byChain: make(map[string][]chain.Transaction)}
}

func (f *fakeInserter) InsertBatch(_ context.Context, chainName string, txs []chain.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byChain[chainName] = append(f.byChain[chainName], txs...)
	return nil
}

func (f *fakeInserter) count(chainName string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.byChain[chainName])
}

func archiveTx(hash string) chain.Transaction {
	return chain.Transaction{
		Hash:       hash,
		From:       "0xaaa",
		Value:      decimal.NewFromInt(1),
		ObservedAt: time.Now().UTC(),
	}
}

func TestBufferedArchiver_FlushGroupsByChain(t *testing.T) {
	inserter := newFakeInserter()
	archiver := NewBufferedArchiver(inserter, 100, time.Hour)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	archiver.Start(ctx)

	require.NoError(t, archiver.InsertBatch(ctx, "ethereum", []chain.Transaction{
		archiveTx("0x01"), archiveTx("0x02"),
	}))
	require.NoError(t, archiver.InsertBatch(ctx, "base", []chain.Transaction{
		archiveTx("0x03"),
	}))

	// Nothing written yet, buffer below batch size
	assert.Equal(t, 0, inserter.count("ethereum"))

	stopCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	require.NoError(t, archiver.Stop(stopCtx))

	assert.Equal(t, 2, inserter.count("ethereum"))
	assert.Equal(t, 1, inserter.count("base"))
}

func TestBufferedArchiver_FlushOnBatchSize(t *testing.T) {
	inserter := newFakeInserter()
	archiver := NewBufferedArchiver(inserter, 2, time.Hour)

	ctx := context.Background()
	require.NoError(t, archiver.InsertBatch(ctx, "ethereum", []chain.Transaction{
		archiveTx("0x01"), archiveTx("0x02"),
	}))

	assert.Equal(t, 2, inserter.count("ethereum"))
}
