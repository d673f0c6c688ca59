package memory

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
)

// EvidenceSink is a content-addressed evidence store in memory.
// Publishing the same bytes twice yields the same URI.
type EvidenceSink struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// NewEvidenceSink creates an empty sink
func NewEvidenceSink() *EvidenceSink {
	return &EvidenceSink{blobs: make(map[string][]byte)}
}

// Publish stores the blob under its sha256 digest
func (s *EvidenceSink) Publish(ctx context.Context, data []byte) (string, error) {
	sum := sha256.Sum256(data)
	digest := hex.EncodeToString(sum[:])

	s.mu.Lock()
	s.blobs[digest] = append([]byte(nil), data...)
	s.mu.Unlock()

	return "cas://sha256/" + digest, nil
}

// Get returns a stored blob by digest
func (s *EvidenceSink) Get(digest string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.blobs[digest]
	return data, ok
}
