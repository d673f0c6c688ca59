package chain

import "context"

// Reader supplies block headers and per-block transaction lists for a chain.
// Implementations wrap an RPC endpoint; test fakes implement it in-memory.
type Reader interface {
	// LatestBlockNumber returns the most recent block number for the chain
	LatestBlockNumber(ctx context.Context, chain string) (uint64, error)

	// BlockByNumber returns the block with its transactions. The position of
	// each transaction within the block is implied by list order.
	BlockByNumber(ctx context.Context, chain string, number uint64) (*Block, error)
}
