package memory

import (
	"sync"
	"time"

	"argus/internal/domain/mev"
)

// PatternStore is the bounded, age-evicted collection of detected MEV
// patterns. Patterns are deduplicated by their key, so re-scanning a block
// after each new transaction never produces duplicates.
type PatternStore struct {
	mu    sync.RWMutex
	byKey map[string]mev.Pattern
}

// NewPatternStore creates an empty pattern store
func NewPatternStore() *PatternStore {
	return &PatternStore{byKey: make(map[string]mev.Pattern)}
}

// Add stores a pattern. Returns false if an equivalent pattern (same type,
// same transactions) is already present.
func (s *PatternStore) Add(p mev.Pattern) bool {
	key := p.Key()

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byKey[key]; exists {
		return false
	}
	s.byKey[key] = p
	return true
}

// ByChain returns a copy of the patterns detected on one chain
func (s *PatternStore) ByChain(chainName string) []mev.Pattern {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]mev.Pattern, 0)
	for _, p := range s.byKey {
		if p.Chain == chainName {
			out = append(out, p)
		}
	}
	return out
}

// All returns a copy of every stored pattern
func (s *PatternStore) All() []mev.Pattern {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]mev.Pattern, 0, len(s.byKey))
	for _, p := range s.byKey {
		out = append(out, p)
	}
	return out
}

// EvictOlderThan removes patterns detected more than maxAge ago
func (s *PatternStore) EvictOlderThan(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)

	s.mu.Lock()
	defer s.mu.Unlock()
	evicted := 0
	for key, p := range s.byKey {
		if p.DetectedAt.Before(cutoff) {
			delete(s.byKey, key)
			evicted++
		}
	}
	return evicted
}

// Count returns the number of stored patterns
func (s *PatternStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byKey)
}
