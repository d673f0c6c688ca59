package memory

import (
	"context"
	"sync"

	"argus/internal/domain/fairness"
	"argus/internal/domain/probe"
	"argus/pkg/errors"
)

// ProbeStore implements probe.Store in memory. Default store for tests and
// single-node deployments without Redis.
type ProbeStore struct {
	mu       sync.RWMutex
	results  map[string]*probe.Result
	analyses map[string]*fairness.Analysis
}

// NewProbeStore creates an empty probe store
func NewProbeStore() *ProbeStore {
	return &ProbeStore{
		results:  make(map[string]*probe.Result),
		analyses: make(map[string]*fairness.Analysis),
	}
}

// SaveResult stores a probe result keyed by probe ID
func (s *ProbeStore) SaveResult(ctx context.Context, result *probe.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[result.ProbeID] = result
	return nil
}

// Result returns the stored result for a probe ID
func (s *ProbeStore) Result(ctx context.Context, probeID string) (*probe.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result, ok := s.results[probeID]
	if !ok {
		return nil, errors.Wrapf(errors.ErrNotFound, "probe result %s", probeID)
	}
	return result, nil
}

// SaveAnalysis stores a fairness analysis keyed by event ID
func (s *ProbeStore) SaveAnalysis(ctx context.Context, analysis *fairness.Analysis) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.analyses[analysis.EventID] = analysis
	return nil
}

// Analysis returns the stored analysis for an event ID
func (s *ProbeStore) Analysis(ctx context.Context, eventID string) (*fairness.Analysis, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	analysis, ok := s.analyses[eventID]
	if !ok {
		return nil, errors.Wrapf(errors.ErrNotFound, "fairness analysis for event %s", eventID)
	}
	return analysis, nil
}
