package ethrpc

import (
	"context"
	"encoding/hex"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"argus/internal/domain/chain"
	"argus/pkg/errors"
	"argus/pkg/logger"
)

// Reader implements chain.Reader over JSON-RPC endpoints. One ethclient per
// configured chain; all calls share a single rate limiter so a burst of
// pollers cannot exhaust the provider quota.
type Reader struct {
	clients map[string]*ethclient.Client
	limiter *rate.Limiter
	log     *logger.Logger
}

// NewReader dials every endpoint in rpcURLs (chain name -> URL). Endpoints
// that fail to dial are reported as an error; a reader is only returned when
// all chains are reachable.
func NewReader(rpcURLs map[string]string, rps float64) (*Reader, error) {
	r := &Reader{
		clients: make(map[string]*ethclient.Client, len(rpcURLs)),
		limiter: rate.NewLimiter(rate.Limit(rps), int(rps)+1),
		log:     logger.Get().With("component", "eth_reader"),
	}

	for name, url := range rpcURLs {
		client, err := ethclient.Dial(url)
		if err != nil {
			r.Close()
			return nil, errors.Wrapf(err, "dial %s", name)
		}
		r.clients[name] = client
		r.log.Info("Chain RPC connected", "chain", name)
	}

	return r, nil
}

// Close releases all RPC connections
func (r *Reader) Close() {
	for _, c := range r.clients {
		c.Close()
	}
}

func (r *Reader) client(chainName string) (*ethclient.Client, error) {
	c, ok := r.clients[chainName]
	if !ok {
		return nil, errors.Wrapf(errors.ErrChainNotConfigured, "chain %q", chainName)
	}
	return c, nil
}

// LatestBlockNumber returns the current head block number
func (r *Reader) LatestBlockNumber(ctx context.Context, chainName string) (uint64, error) {
	c, err := r.client(chainName)
	if err != nil {
		return 0, err
	}
	if err := r.limiter.Wait(ctx); err != nil {
		return 0, errors.Wrap(err, "rate limit wait")
	}

	n, err := c.BlockNumber(ctx)
	if err != nil {
		return 0, errors.Wrapf(errors.ErrDataUnavailable, "block number for %s: %v", chainName, err)
	}
	return n, nil
}

// BlockByNumber fetches a full block and converts it to the domain model
func (r *Reader) BlockByNumber(ctx context.Context, chainName string, number uint64) (*chain.Block, error) {
	c, err := r.client(chainName)
	if err != nil {
		return nil, err
	}
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, errors.Wrap(err, "rate limit wait")
	}

	block, err := c.BlockByNumber(ctx, new(big.Int).SetUint64(number))
	if err != nil {
		return nil, errors.Wrapf(errors.ErrDataUnavailable, "block %d for %s: %v", number, chainName, err)
	}

	observedAt := time.Unix(int64(block.Time()), 0).UTC()
	out := &chain.Block{
		Number:       block.NumberU64(),
		Timestamp:    observedAt,
		Transactions: make([]chain.Transaction, 0, len(block.Transactions())),
	}

	for i, tx := range block.Transactions() {
		converted, err := convertTransaction(tx, block.NumberU64(), i, observedAt)
		if err != nil {
			// Sender recovery fails for exotic tx types; skip rather than
			// poison the whole block
			r.log.Debug("Skipping unconvertible transaction",
				"chain", chainName,
				"hash", tx.Hash().Hex(),
				"error", err,
			)
			continue
		}
		out.Transactions = append(out.Transactions, converted)
	}

	return out, nil
}

func convertTransaction(tx *types.Transaction, blockNumber uint64, position int, observedAt time.Time) (chain.Transaction, error) {
	from, err := types.Sender(types.LatestSignerForChainID(tx.ChainId()), tx)
	if err != nil {
		return chain.Transaction{}, errors.Wrap(err, "recover sender")
	}

	to := ""
	if tx.To() != nil {
		to = strings.ToLower(tx.To().Hex())
	}

	data := ""
	if len(tx.Data()) > 0 {
		data = "0x" + hex.EncodeToString(tx.Data())
	}

	return chain.Transaction{
		Hash:            strings.ToLower(tx.Hash().Hex()),
		From:            strings.ToLower(from.Hex()),
		To:              to,
		Value:           decimal.NewFromBigInt(tx.Value(), 0),
		GasPrice:        tx.GasPrice().Uint64(),
		GasLimit:        tx.Gas(),
		Nonce:           tx.Nonce(),
		Data:            data,
		ObservedAt:      observedAt,
		BlockNumber:     blockNumber,
		PositionInBlock: position,
	}, nil
}
