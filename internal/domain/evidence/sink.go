package evidence

import (
	"context"
	"time"
)

// Sink publishes evidence bundles to content-addressed storage and returns
// the content URI of the stored blob.
type Sink interface {
	Publish(ctx context.Context, data []byte) (string, error)
}

// Manifest is the deterministic summary of one analysis run. Its hash must be
// reproducible given identical analysis inputs, so Timestamp is derived from
// the window (latest observed transaction), not from wall-clock time.
type Manifest struct {
	EventID          string    `json:"eventId"`
	Timestamp        time.Time `json:"timestamp"`
	TransactionCount int       `json:"transactionCount"`
	ViolationCount   int       `json:"violationCount"`
	MEVPatternCount  int       `json:"mevPatternCount"`
}
