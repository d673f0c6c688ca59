package analyzer

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"argus/internal/domain/chain"
	"argus/internal/domain/evidence"
	"argus/internal/domain/fairness"
	"argus/internal/domain/mev"
	"argus/internal/domain/probe"
	"argus/internal/metrics"
	"argus/pkg/errors"
	"argus/pkg/logger"
)

const (
	// Share and count bounds for flagging a wallet as a likely bot
	suspiciousShareThreshold = 0.05
	suspiciousCountThreshold = 10
	highConcentrationShare   = 0.10
	botConcentrationConf     = 0.8

	// Timing manipulation bounds
	timingMinTransactions = 10
	timingFastGap         = time.Second
	timingFastGapRatio    = 0.30
	timingConf            = 0.7

	clusterSimilarity = 0.8

	// Score deductions outside per-violation severity weights
	giniHighPenalty   = 15
	giniMediumPenalty = 10
	sandwichPenalty   = 20
	frontRunPenalty   = 10
)

// Input carries everything one analysis run operates on. Transactions and
// patterns come from the live window; when the window holds nothing for the
// range, the chain reader backfills.
type Input struct {
	EventID         string
	EventType       string
	Chain           string
	ContractAddress string
	StartBlock      uint64
	EndBlock        uint64

	Transactions []chain.Transaction
	Patterns     []mev.Pattern

	Config probe.Config
}

// Analyzer computes fairness analyses for event windows. Stateless: every
// Analyze call is a function of its input plus chain reader backfill, so
// independent workers given the same input produce identical scores and
// hashes.
type Analyzer struct {
	reader     chain.Reader
	sink       evidence.Sink
	thresholds fairness.CategoryThresholds
	log        *logger.Logger
}

// New creates an analyzer. sink may be nil to skip evidence publishing.
func New(reader chain.Reader, sink evidence.Sink, thresholds fairness.CategoryThresholds) *Analyzer {
	return &Analyzer{
		reader:     reader,
		sink:       sink,
		thresholds: thresholds,
		log:        logger.Get().With("component", "fairness_analyzer"),
	}
}

// Analyze computes the full fairness analysis for one event window
func (a *Analyzer) Analyze(ctx context.Context, in Input) (*fairness.Analysis, error) {
	txs, err := a.resolveTransactions(ctx, in)
	if err != nil {
		return nil, err
	}
	patterns := patternsInRange(in.Patterns, in.StartBlock, in.EndBlock)

	var violations []fairness.Violation
	if in.Config.BotDetection {
		if v := a.detectBotConcentration(txs); v != nil {
			violations = append(violations, *v)
		}
	}
	if in.Config.MEVDetection {
		violations = append(violations, a.mevViolations(patterns)...)
	}
	if in.Config.TimingAnalysis {
		if v := a.detectTimingManipulation(txs); v != nil {
			violations = append(violations, *v)
		}
	}

	var clusters []fairness.WalletCluster
	if in.Config.BotDetection {
		clusters = a.clusterWallets(txs)
	}

	concentration := concentrationMetrics(txs)
	mevStats := mevMetrics(patterns)
	timing := timingMetrics(txs)

	score := computeScore(violations, concentration.GiniCoefficient, mevStats)

	analysis := &fairness.Analysis{
		EventID:           in.EventID,
		EventType:         in.EventType,
		Chain:             in.Chain,
		ContractAddress:   in.ContractAddress,
		StartBlock:        in.StartBlock,
		EndBlock:          in.EndBlock,
		TotalParticipants: countParticipants(txs),
		OverallScore:      score,
		ScoreCategory:     a.thresholds.Categorize(score),
		Violations:        violations,
		WalletClusters:    clusters,
		Concentration:     concentration,
		MEV:               mevStats,
		Timing:            timing,
		AnalyzedAt:        time.Now().UTC(),
	}
	analysis.Evidence = a.publishEvidence(ctx, in.EventID, txs, patterns, len(violations))

	for _, v := range violations {
		metrics.ViolationsFound.WithLabelValues(string(v.Type), string(v.Severity)).Inc()
	}

	a.log.Info("Analysis completed",
		"event_id", in.EventID,
		"chain", in.Chain,
		"transactions", len(txs),
		"violations", len(violations),
		"score", score,
	)
	return analysis, nil
}

// resolveTransactions returns the window transactions, backfilling from the
// chain reader when the window holds nothing for the range. SampleSize > 0
// caps the set, keeping the earliest transactions in block order.
func (a *Analyzer) resolveTransactions(ctx context.Context, in Input) ([]chain.Transaction, error) {
	txs := in.Transactions
	if len(txs) == 0 && a.reader != nil {
		fetched, err := a.fetchRange(ctx, in.Chain, in.StartBlock, in.EndBlock)
		if err != nil {
			return nil, errors.Wrapf(err, "backfill blocks %d-%d", in.StartBlock, in.EndBlock)
		}
		txs = fetched
	}

	sorted := make([]chain.Transaction, len(txs))
	copy(sorted, txs)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].BlockNumber != sorted[j].BlockNumber {
			return sorted[i].BlockNumber < sorted[j].BlockNumber
		}
		if sorted[i].PositionInBlock != sorted[j].PositionInBlock {
			return sorted[i].PositionInBlock < sorted[j].PositionInBlock
		}
		return sorted[i].Hash < sorted[j].Hash
	})

	if in.Config.SampleSize > 0 && len(sorted) > in.Config.SampleSize {
		sorted = sorted[:in.Config.SampleSize]
	}
	return sorted, nil
}

func (a *Analyzer) fetchRange(ctx context.Context, chainName string, startBlock, endBlock uint64) ([]chain.Transaction, error) {
	var txs []chain.Transaction
	for number := startBlock; number <= endBlock; number++ {
		block, err := a.reader.BlockByNumber(ctx, chainName, number)
		if err != nil {
			return nil, err
		}
		txs = append(txs, block.Transactions...)
	}
	return txs, nil
}

// detectBotConcentration flags wallets holding an outsized share of the
// window's transactions. One violation per run at most.
func (a *Analyzer) detectBotConcentration(txs []chain.Transaction) *fairness.Violation {
	total := len(txs)
	if total == 0 {
		return nil
	}

	counts := countsByWallet(txs)

	var (
		suspicious []string
		topShare   float64
	)
	for wallet, count := range counts {
		share := float64(count) / float64(total)
		if share > topShare {
			topShare = share
		}
		if share > suspiciousShareThreshold || count > suspiciousCountThreshold {
			suspicious = append(suspicious, wallet)
		}
	}
	if len(suspicious) == 0 {
		return nil
	}
	sort.Strings(suspicious)

	severity := fairness.SeverityMedium
	if topShare > highConcentrationShare {
		severity = fairness.SeverityHigh
	}

	suspiciousSet := make(map[string]struct{}, len(suspicious))
	for _, w := range suspicious {
		suspiciousSet[w] = struct{}{}
	}
	hashes, blocks, supply := evidenceFor(txs, suspiciousSet)

	return &fairness.Violation{
		ID:       uuid.New().String(),
		Type:     fairness.ViolationBotConcentration,
		Severity: severity,
		Description: fmt.Sprintf(
			"%d of %d wallets show bot-like transaction volume; top wallet holds %.1f%% of window activity",
			len(suspicious), len(counts), topShare*100,
		),
		Evidence: fairness.ViolationEvidence{
			TransactionHashes: hashes,
			WalletAddresses:   suspicious,
			BlockNumbers:      blocks,
			Timestamp:         latestObserved(txs),
		},
		Impact: fairness.ViolationImpact{
			AffectedWallets: len(suspicious),
			AffectedSupply:  supply,
		},
		Confidence: botConcentrationConf,
	}
}

// mevViolations maps detected sandwich and front-run patterns to violations,
// copying confidence from the pattern
func (a *Analyzer) mevViolations(patterns []mev.Pattern) []fairness.Violation {
	var violations []fairness.Violation
	for _, p := range patterns {
		var (
			vType    fairness.ViolationType
			severity fairness.Severity
		)
		switch p.Type {
		case mev.PatternSandwich:
			vType = fairness.ViolationSandwichAttack
			severity = fairness.SeverityHigh
		case mev.PatternFrontRun:
			vType = fairness.ViolationMEVFrontRunning
			severity = fairness.SeverityMedium
		default:
			continue
		}

		hashes := make([]string, 0, len(p.Transactions))
		wallets := make([]string, 0, len(p.Transactions))
		for _, tx := range p.Transactions {
			hashes = append(hashes, tx.Hash)
			wallets = append(wallets, tx.From)
		}
		sort.Strings(wallets)

		violations = append(violations, fairness.Violation{
			ID:          uuid.New().String(),
			Type:        vType,
			Severity:    severity,
			Description: fmt.Sprintf("%s pattern in block %d involving %d transactions", p.Type, p.BlockNumber, len(p.Transactions)),
			Evidence: fairness.ViolationEvidence{
				TransactionHashes: hashes,
				WalletAddresses:   dedupeStrings(wallets),
				BlockNumbers:      []uint64{p.BlockNumber},
				Timestamp:         p.DetectedAt,
			},
			Impact: fairness.ViolationImpact{
				AffectedWallets: len(dedupeStrings(wallets)),
				EstimatedLoss:   p.EstimatedProfit,
			},
			Confidence: p.Confidence,
		})
	}
	return violations
}

// detectTimingManipulation flags windows where an excessive share of
// consecutive transaction gaps is sub-second
func (a *Analyzer) detectTimingManipulation(txs []chain.Transaction) *fairness.Violation {
	if len(txs) < timingMinTransactions {
		return nil
	}

	gaps := consecutiveGaps(txs)
	if len(gaps) == 0 {
		return nil
	}

	fast := 0
	for _, gap := range gaps {
		if gap < timingFastGap {
			fast++
		}
	}
	ratio := float64(fast) / float64(len(gaps))
	if ratio <= timingFastGapRatio {
		return nil
	}

	wallets := make([]string, 0, len(txs))
	for _, tx := range txs {
		wallets = append(wallets, tx.From)
	}
	sort.Strings(wallets)

	return &fairness.Violation{
		ID:       uuid.New().String(),
		Type:     fairness.ViolationTimingManipulation,
		Severity: fairness.SeverityMedium,
		Description: fmt.Sprintf(
			"%.0f%% of consecutive transaction gaps are under 1s across %d transactions",
			ratio*100, len(txs),
		),
		Evidence: fairness.ViolationEvidence{
			WalletAddresses: dedupeStrings(wallets),
			Timestamp:       latestObserved(txs),
		},
		Impact: fairness.ViolationImpact{
			AffectedWallets: len(dedupeStrings(wallets)),
		},
		Confidence: timingConf,
	}
}

// clusterWallets groups wallets submitting with identical (nonce, gasPrice)
// pairs. Groups of one are not clusters.
func (a *Analyzer) clusterWallets(txs []chain.Transaction) []fairness.WalletCluster {
	type signature struct {
		nonce    uint64
		gasPrice uint64
	}

	groups := make(map[signature]map[string]struct{})
	seen := make(map[signature]struct {
		first time.Time
		last  time.Time
	})
	for _, tx := range txs {
		sig := signature{nonce: tx.Nonce, gasPrice: tx.GasPrice}
		if groups[sig] == nil {
			groups[sig] = make(map[string]struct{})
		}
		groups[sig][tx.From] = struct{}{}

		span := seen[sig]
		if span.first.IsZero() || tx.ObservedAt.Before(span.first) {
			span.first = tx.ObservedAt
		}
		if tx.ObservedAt.After(span.last) {
			span.last = tx.ObservedAt
		}
		seen[sig] = span
	}

	sigs := make([]signature, 0, len(groups))
	for sig, wallets := range groups {
		if len(wallets) >= 2 {
			sigs = append(sigs, sig)
		}
	}
	sort.Slice(sigs, func(i, j int) bool {
		if sigs[i].nonce != sigs[j].nonce {
			return sigs[i].nonce < sigs[j].nonce
		}
		return sigs[i].gasPrice < sigs[j].gasPrice
	})

	clusters := make([]fairness.WalletCluster, 0, len(sigs))
	for _, sig := range sigs {
		wallets := make([]string, 0, len(groups[sig]))
		for w := range groups[sig] {
			wallets = append(wallets, w)
		}
		sort.Strings(wallets)

		clusters = append(clusters, fairness.WalletCluster{
			ID:                uuid.New().String(),
			WalletAddresses:   wallets,
			SimilarityScore:   clusterSimilarity,
			BehavioralSignals: []string{"similar_nonce", "similar_gas_price"},
			FirstSeen:         seen[sig].first,
			LastSeen:          seen[sig].last,
		})
	}
	return clusters
}

// computeScore applies all deductions to a starting score of 100
func computeScore(violations []fairness.Violation, gini float64, mevStats fairness.MEVMetrics) float64 {
	score := 100.0
	for _, v := range violations {
		score -= v.Severity.Weight() * v.Confidence
	}

	switch {
	case gini > 0.7:
		score -= giniHighPenalty
	case gini > 0.5:
		score -= giniMediumPenalty
	}

	if mevStats.SandwichAttacks > 0 {
		score -= sandwichPenalty
	}
	if mevStats.FrontRunningTxs > 0 {
		score -= frontRunPenalty
	}

	return fairness.ClampScore(score)
}

func countParticipants(txs []chain.Transaction) int {
	wallets := make(map[string]struct{}, len(txs))
	for _, tx := range txs {
		wallets[tx.From] = struct{}{}
	}
	return len(wallets)
}

func countsByWallet(txs []chain.Transaction) map[string]int {
	counts := make(map[string]int)
	for _, tx := range txs {
		counts[tx.From]++
	}
	return counts
}

func patternsInRange(patterns []mev.Pattern, startBlock, endBlock uint64) []mev.Pattern {
	out := make([]mev.Pattern, 0, len(patterns))
	for _, p := range patterns {
		if p.BlockNumber >= startBlock && p.BlockNumber <= endBlock {
			out = append(out, p)
		}
	}
	return out
}

func evidenceFor(txs []chain.Transaction, wallets map[string]struct{}) ([]string, []uint64, decimal.Decimal) {
	var (
		hashes []string
		blocks []uint64
		supply = decimal.Zero
	)
	seenBlocks := make(map[uint64]struct{})
	for _, tx := range txs {
		if _, ok := wallets[tx.From]; !ok {
			continue
		}
		hashes = append(hashes, tx.Hash)
		if _, ok := seenBlocks[tx.BlockNumber]; !ok {
			seenBlocks[tx.BlockNumber] = struct{}{}
			blocks = append(blocks, tx.BlockNumber)
		}
		supply = supply.Add(tx.Value)
	}
	sort.Strings(hashes)
	sort.Slice(blocks, func(i, j int) bool { return blocks[i] < blocks[j] })
	return hashes, blocks, supply
}

func latestObserved(txs []chain.Transaction) time.Time {
	var latest time.Time
	for _, tx := range txs {
		if tx.ObservedAt.After(latest) {
			latest = tx.ObservedAt
		}
	}
	return latest
}

func dedupeStrings(sorted []string) []string {
	out := sorted[:0:0]
	for i, s := range sorted {
		if i == 0 || s != sorted[i-1] {
			out = append(out, s)
		}
	}
	return out
}
