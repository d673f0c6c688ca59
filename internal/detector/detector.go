package detector

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"argus/internal/domain/chain"
	"argus/internal/domain/mev"
	"argus/internal/events"
	"argus/internal/metrics"
	"argus/internal/repository/memory"
	"argus/pkg/errors"
	"argus/pkg/logger"
)

// Structural confidence placeholders. Detection uses block position only,
// not mempool arrival order, so these are not calibrated probabilities.
const (
	sandwichConfidence = 0.8
	frontRunConfidence = 0.7
)

// Detector scans same-block transaction orderings for MEV signatures.
// Detection is best effort: an error on one transaction never aborts
// processing of subsequent transactions.
type Detector struct {
	window   *memory.TxWindow
	patterns *memory.PatternStore
	bus      *events.Bus
	log      *logger.Logger
}

// New creates a detector reading same-block transactions from the window
// store. bus may be nil when no subscribers are wired.
func New(window *memory.TxWindow, patterns *memory.PatternStore, bus *events.Bus) *Detector {
	return &Detector{
		window:   window,
		patterns: patterns,
		bus:      bus,
		log:      logger.Get().With("component", "mev_detector"),
	}
}

// OnTransaction is invoked once per newly observed transaction. It re-scans
// only the transactions sharing tx's block.
func (d *Detector) OnTransaction(chainName string, tx chain.Transaction) {
	defer func() {
		if r := recover(); r != nil {
			err := errors.Wrapf(errors.ErrDetectionFailure, "panic: %v", r)
			d.log.Error("Pattern detection panicked",
				"chain", chainName,
				"tx", tx.Hash,
				"error", err,
			)
		}
	}()

	blockTxs := d.window.Query(chainName, memory.TxFilter{BlockNumber: &tx.BlockNumber})
	sort.Slice(blockTxs, func(i, j int) bool {
		return blockTxs[i].PositionInBlock < blockTxs[j].PositionInBlock
	})

	d.scanSandwiches(chainName, blockTxs)
	d.scanFrontRuns(chainName, blockTxs)
}

// scanSandwiches emits a sandwich pattern for every contiguous position-
// ordered triple (a,b,c) where a and c target the same address and b sits
// between two distinct senders.
func (d *Detector) scanSandwiches(chainName string, blockTxs []chain.Transaction) {
	for i := 0; i+2 < len(blockTxs); i++ {
		a, b, c := blockTxs[i], blockTxs[i+1], blockTxs[i+2]
		if a.To != c.To || a.To == "" {
			continue
		}
		if a.From == b.From || b.From == c.From {
			continue
		}

		d.emit(mev.Pattern{
			ID:           uuid.New().String(),
			Type:         mev.PatternSandwich,
			Chain:        chainName,
			Transactions: []chain.Transaction{a, b, c},
			// Profit pending a gas/price computation
			EstimatedProfit: decimal.Zero,
			BlockNumber:     a.BlockNumber,
			DetectedAt:      time.Now(),
			Confidence:      sandwichConfidence,
		})
	}
}

// scanFrontRuns emits a front_run pattern when a copy of an earlier call
// (same target, same calldata) paid a higher gas price and was still placed
// ahead of it in the block. True mempool arrival order is not observed, so
// position is the only ordering signal.
func (d *Detector) scanFrontRuns(chainName string, blockTxs []chain.Transaction) {
	for i := 0; i < len(blockTxs); i++ {
		for j := i + 1; j < len(blockTxs); j++ {
			f, e := blockTxs[i], blockTxs[j]
			if e.To != f.To || e.To == "" || e.Data != f.Data {
				continue
			}
			if f.GasPrice <= e.GasPrice {
				continue
			}

			d.emit(mev.Pattern{
				ID:              uuid.New().String(),
				Type:            mev.PatternFrontRun,
				Chain:           chainName,
				Transactions:    []chain.Transaction{f, e},
				EstimatedProfit: decimal.Zero,
				BlockNumber:     f.BlockNumber,
				DetectedAt:      time.Now(),
				Confidence:      frontRunConfidence,
			})
		}
	}
}

func (d *Detector) emit(p mev.Pattern) {
	if !d.patterns.Add(p) {
		return
	}

	metrics.PatternsDetected.WithLabelValues(p.Chain, string(p.Type)).Inc()
	d.log.Info("MEV pattern detected",
		"chain", p.Chain,
		"type", p.Type,
		"block", p.BlockNumber,
		"txs", len(p.Transactions),
	)

	if d.bus != nil {
		d.bus.Publish(events.Event{
			Type:    events.TypePatternDetected,
			Chain:   p.Chain,
			Payload: p,
			At:      p.DetectedAt,
		})
	}
}

// Patterns returns the retained patterns for one chain
func (d *Detector) Patterns(chainName string) []mev.Pattern {
	return d.patterns.ByChain(chainName)
}

// AllPatterns returns every retained pattern
func (d *Detector) AllPatterns() []mev.Pattern {
	return d.patterns.All()
}

// EvictOlderThan drops patterns past their retention age
func (d *Detector) EvictOlderThan(maxAge time.Duration) int {
	return d.patterns.EvictOlderThan(maxAge)
}

// PatternCount returns the number of retained patterns
func (d *Detector) PatternCount() int {
	return d.patterns.Count()
}
