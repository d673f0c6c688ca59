package clickhouse

import (
	"context"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"argus/internal/domain/chain"
	"argus/pkg/errors"
)

// TxArchive persists observed transactions to ClickHouse for long-term
// analysis. The in-memory window stays authoritative for live detection;
// the archive exists for offline queries over historical distribution
// events.
type TxArchive struct {
	conn driver.Conn
}

// NewTxArchive creates a new transaction archive repository
func NewTxArchive(conn driver.Conn) *TxArchive {
	return &TxArchive{conn: conn}
}

// InsertBatch inserts observed transactions efficiently
func (r *TxArchive) InsertBatch(ctx context.Context, chainName string, txs []chain.Transaction) error {
	if len(txs) == 0 {
		return nil
	}

	batch, err := r.conn.PrepareBatch(ctx, `
		INSERT INTO observed_transactions (
			chain, tx_hash, from_address, to_address, value,
			gas_price, gas_limit, nonce, data, observed_at,
			block_number, position_in_block
		)
	`)
	if err != nil {
		return errors.Wrap(err, "prepare observed transactions batch")
	}

	for _, tx := range txs {
		err := batch.Append(
			chainName, tx.Hash, tx.From, tx.To, tx.Value.String(),
			tx.GasPrice, tx.GasLimit, tx.Nonce, tx.Data, tx.ObservedAt,
			tx.BlockNumber, int32(tx.PositionInBlock),
		)
		if err != nil {
			return errors.Wrap(err, "append to observed transactions batch")
		}
	}

	if err := batch.Send(); err != nil {
		return errors.Wrap(err, "send observed transactions batch")
	}

	return nil
}

// QueryByBlockRange returns archived transactions for a chain within a block
// range, ordered by block number and position
func (r *TxArchive) QueryByBlockRange(ctx context.Context, chainName string, fromBlock, toBlock uint64) ([]chain.Transaction, error) {
	query := `
		SELECT tx_hash, from_address, to_address, value,
		       gas_price, gas_limit, nonce, data, observed_at,
		       block_number, position_in_block
		FROM observed_transactions
		WHERE chain = ? AND block_number >= ? AND block_number <= ?
		ORDER BY block_number, position_in_block
	`

	rows, err := r.conn.Query(ctx, query, chainName, fromBlock, toBlock)
	if err != nil {
		return nil, errors.Wrap(err, "query archived transactions")
	}
	defer rows.Close()

	var txs []chain.Transaction
	for rows.Next() {
		var (
			tx       chain.Transaction
			value    string
			observed time.Time
			position int32
		)
		err := rows.Scan(
			&tx.Hash, &tx.From, &tx.To, &value,
			&tx.GasPrice, &tx.GasLimit, &tx.Nonce, &tx.Data, &observed,
			&tx.BlockNumber, &position,
		)
		if err != nil {
			return nil, errors.Wrap(err, "scan archived transaction")
		}

		tx.Value, err = parseValue(value)
		if err != nil {
			return nil, errors.Wrapf(err, "parse value for %s", tx.Hash)
		}
		tx.ObservedAt = observed
		tx.PositionInBlock = int(position)
		txs = append(txs, tx)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate archived transactions")
	}

	return txs, nil
}
