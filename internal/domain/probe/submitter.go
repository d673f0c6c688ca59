package probe

import "context"

// Submitter sends a test transaction against an event's contract.
// Optional collaborator: submission failures never fail a probe.
type Submitter interface {
	Submit(ctx context.Context, chain string, contractAddress string) (*TestTransaction, error)
}
