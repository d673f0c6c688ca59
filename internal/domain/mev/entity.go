package mev

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"argus/internal/domain/chain"
)

// PatternType classifies a detected MEV pattern
type PatternType string

const (
	PatternSandwich    PatternType = "sandwich"
	PatternFrontRun    PatternType = "front_run"
	PatternBackRun     PatternType = "back_run"
	PatternArbitrage   PatternType = "arbitrage"
	PatternLiquidation PatternType = "liquidation"
)

// Pattern is one detected MEV pattern. All referenced transactions belong to
// the same block. Read-only after creation; evicted by age.
type Pattern struct {
	ID           string              `json:"patternId"`
	Type         PatternType         `json:"patternType"`
	Chain        string              `json:"chain"`
	Transactions []chain.Transaction `json:"transactions"`
	// Placeholder pending a proper profit/gas computation
	EstimatedProfit decimal.Decimal `json:"estimatedProfit"`
	BlockNumber     uint64          `json:"blockNumber"`
	DetectedAt      time.Time       `json:"detectedAt"`
	Confidence      float64         `json:"confidence"`
}

// Key identifies a pattern by type and the ordered set of transactions it
// references. Re-scanning a block emits the same key for the same pattern.
func (p *Pattern) Key() string {
	hashes := make([]string, 0, len(p.Transactions))
	for _, tx := range p.Transactions {
		hashes = append(hashes, tx.Hash)
	}
	sort.Strings(hashes)
	return string(p.Type) + ":" + strings.Join(hashes, ",")
}
