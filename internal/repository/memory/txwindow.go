package memory

import (
	"sync"
	"time"

	"argus/internal/domain/chain"
)

// TxFilter narrows a window store query. Zero fields match everything.
type TxFilter struct {
	BlockNumber *uint64
	To          string
	Since       time.Time
}

func (f TxFilter) matches(tx chain.Transaction) bool {
	if f.BlockNumber != nil && tx.BlockNumber != *f.BlockNumber {
		return false
	}
	if f.To != "" && tx.To != f.To {
		return false
	}
	if !f.Since.IsZero() && tx.ObservedAt.Before(f.Since) {
		return false
	}
	return true
}

// TxWindow is the time-bounded store of observed transactions, partitioned
// per chain. The monitor is the single writer; analyzers and probes read
// snapshots. Each partition owns its own lock, so one chain's scan never
// blocks another chain's inserts.
type TxWindow struct {
	mu         sync.RWMutex
	partitions map[string]*txPartition
}

type txPartition struct {
	mu     sync.RWMutex
	byHash map[string]chain.Transaction
}

// NewTxWindow creates an empty window store
func NewTxWindow() *TxWindow {
	return &TxWindow{partitions: make(map[string]*txPartition)}
}

func (w *TxWindow) partition(chainName string) *txPartition {
	w.mu.RLock()
	p, ok := w.partitions[chainName]
	w.mu.RUnlock()
	if ok {
		return p
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if p, ok = w.partitions[chainName]; ok {
		return p
	}
	p = &txPartition{byHash: make(map[string]chain.Transaction)}
	w.partitions[chainName] = p
	return p
}

// Insert stores a transaction. Idempotent on hash: inserting a transaction
// that is already present is a no-op and returns false.
func (w *TxWindow) Insert(chainName string, tx chain.Transaction) bool {
	p := w.partition(chainName)

	p.mu.Lock()
	defer p.mu.Unlock()
	if _, exists := p.byHash[tx.Hash]; exists {
		return false
	}
	p.byHash[tx.Hash] = tx
	return true
}

// Query returns a defensive copy of the transactions matching the filter
func (w *TxWindow) Query(chainName string, filter TxFilter) []chain.Transaction {
	p := w.partition(chainName)

	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]chain.Transaction, 0, len(p.byHash))
	for _, tx := range p.byHash {
		if filter.matches(tx) {
			out = append(out, tx)
		}
	}
	return out
}

// EvictOlderThan removes transactions observed more than maxAge ago across
// all partitions and returns the number evicted.
func (w *TxWindow) EvictOlderThan(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)

	w.mu.RLock()
	parts := make([]*txPartition, 0, len(w.partitions))
	for _, p := range w.partitions {
		parts = append(parts, p)
	}
	w.mu.RUnlock()

	evicted := 0
	for _, p := range parts {
		p.mu.Lock()
		for hash, tx := range p.byHash {
			if tx.ObservedAt.Before(cutoff) {
				delete(p.byHash, hash)
				evicted++
			}
		}
		p.mu.Unlock()
	}
	return evicted
}

// Count returns the number of stored transactions across all chains
func (w *TxWindow) Count() int {
	w.mu.RLock()
	defer w.mu.RUnlock()

	total := 0
	for _, p := range w.partitions {
		p.mu.RLock()
		total += len(p.byHash)
		p.mu.RUnlock()
	}
	return total
}

// Chains returns the chain names with at least one stored transaction
func (w *TxWindow) Chains() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()

	chains := make([]string, 0, len(w.partitions))
	for name, p := range w.partitions {
		p.mu.RLock()
		n := len(p.byHash)
		p.mu.RUnlock()
		if n > 0 {
			chains = append(chains, name)
		}
	}
	return chains
}
