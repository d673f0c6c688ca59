package monitor

import (
	"context"
	"time"

	"argus/internal/events"
	"argus/internal/metrics"
	"argus/internal/workers"
	"argus/pkg/errors"
)

// chainPoller is the per-chain polling loop. One iteration fetches the
// latest block, inserts its transactions into the window store and forwards
// new ones to the MEV detector. RPC failures are logged and retried on the
// next tick; they never stop the loop.
type chainPoller struct {
	*workers.BaseWorker
	m         *Monitor
	chainName string

	// last block already processed; blocks are not re-scanned
	lastBlock uint64
}

func newChainPoller(m *Monitor, chainName string) *chainPoller {
	return &chainPoller{
		BaseWorker: workers.NewBaseWorker("chain_poller_"+chainName, m.cfg.PollInterval, true),
		m:          m,
		chainName:  chainName,
	}
}

// Run executes one poll iteration
func (p *chainPoller) Run(ctx context.Context) error {
	if err := p.poll(ctx); err != nil {
		metrics.PollErrors.WithLabelValues(p.chainName).Inc()
		p.RecordError(err)
		return errors.Wrapf(err, "poll %s", p.chainName)
	}
	p.RecordRun()
	return nil
}

func (p *chainPoller) poll(ctx context.Context) error {
	latest, err := p.m.reader.LatestBlockNumber(ctx, p.chainName)
	if err != nil {
		return errors.Wrap(err, "latest block number")
	}
	if latest == p.lastBlock {
		return nil
	}

	block, err := p.m.reader.BlockByNumber(ctx, p.chainName, latest)
	if err != nil {
		return errors.Wrapf(err, "block %d", latest)
	}
	p.lastBlock = latest
	metrics.BlocksPolled.WithLabelValues(p.chainName).Inc()

	observedAt := time.Now()
	inserted := block.Transactions[:0:0]
	for i, tx := range block.Transactions {
		tx.BlockNumber = block.Number
		tx.PositionInBlock = i
		if tx.ObservedAt.IsZero() {
			tx.ObservedAt = observedAt
		}

		if !p.m.window.Insert(p.chainName, tx) {
			continue
		}
		inserted = append(inserted, tx)

		metrics.TransactionsObserved.WithLabelValues(p.chainName).Inc()
		p.m.detector.OnTransaction(p.chainName, tx)
		p.m.bus.Publish(events.Event{
			Type:    events.TypeTransactionObserved,
			Chain:   p.chainName,
			Payload: tx,
			At:      tx.ObservedAt,
		})
	}

	if p.m.archive != nil && len(inserted) > 0 {
		if err := p.m.archive.InsertBatch(ctx, p.chainName, inserted); err != nil {
			// Archiving is best effort; the in-memory window is authoritative
			p.Log().Warn("Failed to archive transactions", "error", err, "count", len(inserted))
		}
	}

	p.Log().Debug("Block processed",
		"block", block.Number,
		"txs", len(block.Transactions),
		"new", len(inserted),
	)
	return nil
}
