package chain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is one observed on-chain transaction. Immutable after
// insertion into the window store; uniquely identified by Hash.
type Transaction struct {
	Hash            string          `json:"hash"`
	From            string          `json:"from"`
	To              string          `json:"to"`
	Value           decimal.Decimal `json:"value"`
	GasPrice        uint64          `json:"gasPrice"`
	GasLimit        uint64          `json:"gasLimit"`
	Nonce           uint64          `json:"nonce"`
	Data            string          `json:"data"`
	ObservedAt      time.Time       `json:"observedAt"`
	BlockNumber     uint64          `json:"blockNumber"`
	PositionInBlock int             `json:"positionInBlock"`
}

// Block is a block header plus its transactions, ordered by position
type Block struct {
	Number       uint64        `json:"number"`
	Timestamp    time.Time     `json:"timestamp"`
	Transactions []Transaction `json:"transactions"`
}
