package monitor

import (
	"context"
	"sync"

	"argus/internal/adapters/config"
	"argus/internal/detector"
	"argus/internal/domain/chain"
	"argus/internal/events"
	"argus/internal/repository/memory"
	"argus/internal/workers"
	"argus/pkg/logger"
)

// Archiver receives observed transactions for long-term storage.
// Optional; a nil archiver disables archiving.
type Archiver interface {
	InsertBatch(ctx context.Context, chainName string, txs []chain.Transaction) error
}

// MempoolStats is the live view of the monitored state
type MempoolStats struct {
	TransactionCount int      `json:"transactionCount"`
	PatternCount     int      `json:"patternCount"`
	Chains           []string `json:"chains"`
	IsMonitoring     bool     `json:"isMonitoring"`
}

// Monitor drives one polling loop per configured chain. Each loop pulls new
// blocks from the chain reader, feeds transactions into the window store and
// the MEV detector, and emits notifications on the bus. A janitor loop
// evicts aged entries from both stores.
type Monitor struct {
	cfg      config.MonitorConfig
	reader   chain.Reader
	window   *memory.TxWindow
	detector *detector.Detector
	bus      *events.Bus
	archive  Archiver

	sched   *workers.Scheduler
	mu      sync.Mutex
	running bool
	log     *logger.Logger
}

// New builds a monitor for the chains in cfg. archive may be nil.
func New(
	cfg config.MonitorConfig,
	reader chain.Reader,
	window *memory.TxWindow,
	det *detector.Detector,
	bus *events.Bus,
	archive Archiver,
) *Monitor {
	m := &Monitor{
		cfg:      cfg,
		reader:   reader,
		window:   window,
		detector: det,
		bus:      bus,
		archive:  archive,
		sched:    workers.NewScheduler(),
		log:      logger.Get().With("component", "chain_monitor"),
	}

	for _, chainName := range cfg.Chains() {
		m.sched.RegisterWorker(newChainPoller(m, chainName))
	}
	m.sched.RegisterWorker(newJanitor(m))

	return m
}

// Start transitions the monitor to running and begins polling all chains
func (m *Monitor) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return nil
	}

	if err := m.sched.Start(ctx); err != nil {
		return err
	}
	m.running = true
	m.log.Info("Chain monitor started", "chains", m.cfg.Chains(), "poll_interval", m.cfg.PollInterval)
	return nil
}

// Stop cancels all polling loops and releases their timers. Idempotent:
// stopping an already stopped monitor is a no-op.
func (m *Monitor) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.running {
		return nil
	}

	err := m.sched.Stop()
	m.running = false
	m.log.Info("Chain monitor stopped")
	return err
}

// IsRunning reports whether the monitor is polling
func (m *Monitor) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// Stats returns the live mempool statistics
func (m *Monitor) Stats() MempoolStats {
	return MempoolStats{
		TransactionCount: m.window.Count(),
		PatternCount:     m.detector.PatternCount(),
		Chains:           m.cfg.Chains(),
		IsMonitoring:     m.IsRunning(),
	}
}
