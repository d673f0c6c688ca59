package monitor

import (
	"context"

	"argus/internal/metrics"
	"argus/internal/workers"
)

// janitor runs age-based eviction over the window store and the pattern
// store. Snapshots taken by in-flight analyses are copies, so eviction
// never invalidates a running probe.
type janitor struct {
	*workers.BaseWorker
	m *Monitor
}

func newJanitor(m *Monitor) *janitor {
	return &janitor{
		BaseWorker: workers.NewBaseWorker("window_janitor", m.cfg.CleanupInterval, true),
		m:          m,
	}
}

// Run executes one eviction pass
func (j *janitor) Run(ctx context.Context) error {
	txEvicted := j.m.window.EvictOlderThan(j.m.cfg.TransactionRetention)
	patternEvicted := j.m.detector.EvictOlderThan(j.m.cfg.PatternRetention)

	if txEvicted > 0 {
		metrics.EntriesEvicted.WithLabelValues("transactions").Add(float64(txEvicted))
	}
	if patternEvicted > 0 {
		metrics.EntriesEvicted.WithLabelValues("patterns").Add(float64(patternEvicted))
	}

	if txEvicted > 0 || patternEvicted > 0 {
		j.Log().Debug("Eviction pass completed",
			"transactions", txEvicted,
			"patterns", patternEvicted,
		)
	}
	j.RecordRun()
	return nil
}
