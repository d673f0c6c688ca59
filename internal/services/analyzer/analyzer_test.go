package analyzer

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"argus/internal/domain/chain"
	"argus/internal/domain/fairness"
	"argus/internal/domain/mev"
	"argus/internal/domain/probe"
	"argus/internal/repository/memory"
	"argus/pkg/errors"
)

var allChecks = probe.Config{
	MempoolMonitoring: true,
	MEVDetection:      true,
	BotDetection:      true,
	TimingAnalysis:    true,
}

type fakeReader struct {
	blocks map[uint64]*chain.Block
	err    error
}

func (r *fakeReader) LatestBlockNumber(ctx context.Context, chainName string) (uint64, error) {
	if r.err != nil {
		return 0, r.err
	}
	var latest uint64
	for n := range r.blocks {
		if n > latest {
			latest = n
		}
	}
	return latest, nil
}

func (r *fakeReader) BlockByNumber(ctx context.Context, chainName string, number uint64) (*chain.Block, error) {
	if r.err != nil {
		return nil, r.err
	}
	block, ok := r.blocks[number]
	if !ok {
		return nil, errors.Wrapf(errors.ErrDataUnavailable, "block %d", number)
	}
	return block, nil
}

type failingSink struct{}

func (failingSink) Publish(ctx context.Context, data []byte) (string, error) {
	return "", errors.Wrap(errors.ErrPublishFailed, "sink offline")
}

// spreadTxs builds count transactions across wallets with wide timing gaps
// and unique gas prices, so only the shaping under test fires
func spreadTxs(count int, walletFor func(i int) string) []chain.Transaction {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	txs := make([]chain.Transaction, count)
	for i := 0; i < count; i++ {
		txs[i] = chain.Transaction{
			Hash:            fmt.Sprintf("0xtx%04d", i),
			From:            walletFor(i),
			To:              "0xmint",
			Nonce:           uint64(i),
			GasPrice:        uint64(1000 + i),
			BlockNumber:     uint64(100 + i/10),
			PositionInBlock: i % 10,
			ObservedAt:      base.Add(time.Duration(i) * 5 * time.Second),
		}
	}
	return txs
}

func baseInput(txs []chain.Transaction, patterns []mev.Pattern) Input {
	return Input{
		EventID:         "event-1",
		EventType:       "token_launch",
		Chain:           "ethereum",
		ContractAddress: "0xmint",
		StartBlock:      100,
		EndBlock:        200,
		Transactions:    txs,
		Patterns:        patterns,
		Config:          allChecks,
	}
}

func TestAnalyzer_BotConcentrationHigh(t *testing.T) {
	// One wallet authors 15 of 100 transactions: 15% > 10% = high severity
	txs := spreadTxs(100, func(i int) string {
		if i < 15 {
			return "0xwhale"
		}
		return fmt.Sprintf("0xwallet%02d", i)
	})

	a := New(nil, memory.NewEvidenceSink(), fairness.DefaultThresholds)
	analysis, err := a.Analyze(context.Background(), baseInput(txs, nil))
	require.NoError(t, err)

	var botViolation *fairness.Violation
	for i := range analysis.Violations {
		if analysis.Violations[i].Type == fairness.ViolationBotConcentration {
			botViolation = &analysis.Violations[i]
		}
	}
	require.NotNil(t, botViolation)
	assert.Equal(t, fairness.SeverityHigh, botViolation.Severity)
	assert.Equal(t, 0.8, botViolation.Confidence)
	assert.Contains(t, botViolation.Evidence.WalletAddresses, "0xwhale")
	assert.Equal(t, 86, analysis.TotalParticipants)
}

func TestAnalyzer_NoBotConcentrationWhenEven(t *testing.T) {
	// 100 wallets with one transaction each
	txs := spreadTxs(100, func(i int) string { return fmt.Sprintf("0xwallet%02d", i) })

	a := New(nil, memory.NewEvidenceSink(), fairness.DefaultThresholds)
	analysis, err := a.Analyze(context.Background(), baseInput(txs, nil))
	require.NoError(t, err)

	for _, v := range analysis.Violations {
		assert.NotEqual(t, fairness.ViolationBotConcentration, v.Type)
	}
	assert.InDelta(t, 0, analysis.Concentration.GiniCoefficient, 1e-9)
	assert.InDelta(t, 0.01, analysis.Concentration.HerfindahlIndex, 1e-9)
	assert.Equal(t, 100.0, analysis.OverallScore)
	assert.Equal(t, fairness.CategoryExcellent, analysis.ScoreCategory)
}

func TestAnalyzer_MEVViolationsFromPatterns(t *testing.T) {
	txs := spreadTxs(20, func(i int) string { return fmt.Sprintf("0xwallet%02d", i) })
	patterns := []mev.Pattern{
		{
			ID:           "p1",
			Type:         mev.PatternSandwich,
			Chain:        "ethereum",
			Transactions: txs[:3],
			BlockNumber:  100,
			DetectedAt:   time.Now(),
			Confidence:   0.8,
		},
		{
			ID:           "p2",
			Type:         mev.PatternFrontRun,
			Chain:        "ethereum",
			Transactions: txs[3:5],
			BlockNumber:  100,
			DetectedAt:   time.Now(),
			Confidence:   0.7,
		},
		{
			// Outside the probed range: excluded from metrics and violations
			ID:           "p3",
			Type:         mev.PatternSandwich,
			Chain:        "ethereum",
			Transactions: txs[5:8],
			BlockNumber:  999,
			DetectedAt:   time.Now(),
			Confidence:   0.8,
		},
	}

	a := New(nil, memory.NewEvidenceSink(), fairness.DefaultThresholds)
	analysis, err := a.Analyze(context.Background(), baseInput(txs, patterns))
	require.NoError(t, err)

	assert.Equal(t, 1, analysis.MEV.SandwichAttacks)
	assert.Equal(t, 1, analysis.MEV.FrontRunningTxs)

	var sandwich, frontRun bool
	for _, v := range analysis.Violations {
		switch v.Type {
		case fairness.ViolationSandwichAttack:
			sandwich = true
			assert.Equal(t, fairness.SeverityHigh, v.Severity)
			assert.Equal(t, 0.8, v.Confidence)
		case fairness.ViolationMEVFrontRunning:
			frontRun = true
			assert.Equal(t, fairness.SeverityMedium, v.Severity)
			assert.Equal(t, 0.7, v.Confidence)
		}
	}
	assert.True(t, sandwich)
	assert.True(t, frontRun)

	// 100 - 20*0.8 (sandwich violation) - 10*0.7 (front-run violation)
	//     - 20 (sandwich present) - 10 (front-run present) = 47
	assert.InDelta(t, 47, analysis.OverallScore, 1e-9)
	assert.Equal(t, fairness.CategoryPoor, analysis.ScoreCategory)
}

func TestAnalyzer_TimingManipulation(t *testing.T) {
	// 12 transactions all within the same second
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	txs := spreadTxs(12, func(i int) string { return fmt.Sprintf("0xwallet%02d", i) })
	for i := range txs {
		txs[i].ObservedAt = base.Add(time.Duration(i) * 50 * time.Millisecond)
	}

	a := New(nil, memory.NewEvidenceSink(), fairness.DefaultThresholds)
	analysis, err := a.Analyze(context.Background(), baseInput(txs, nil))
	require.NoError(t, err)

	var timing *fairness.Violation
	for i := range analysis.Violations {
		if analysis.Violations[i].Type == fairness.ViolationTimingManipulation {
			timing = &analysis.Violations[i]
		}
	}
	require.NotNil(t, timing)
	assert.Equal(t, fairness.SeverityMedium, timing.Severity)
	assert.Equal(t, 0.7, timing.Confidence)

	assert.InDelta(t, 0.05, analysis.Timing.AverageConfirmationTime, 1e-9)
	assert.InDelta(t, 0.05, analysis.Timing.MedianConfirmationTime, 1e-9)
}

func TestAnalyzer_NoTimingViolationBelowMinimum(t *testing.T) {
	// Fast gaps but fewer than 10 transactions
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	txs := spreadTxs(9, func(i int) string { return fmt.Sprintf("0xwallet%02d", i) })
	for i := range txs {
		txs[i].ObservedAt = base.Add(time.Duration(i) * 50 * time.Millisecond)
	}

	a := New(nil, memory.NewEvidenceSink(), fairness.DefaultThresholds)
	analysis, err := a.Analyze(context.Background(), baseInput(txs, nil))
	require.NoError(t, err)

	for _, v := range analysis.Violations {
		assert.NotEqual(t, fairness.ViolationTimingManipulation, v.Type)
	}
}

func TestAnalyzer_WalletClustering(t *testing.T) {
	txs := spreadTxs(20, func(i int) string { return fmt.Sprintf("0xwallet%02d", i) })
	// Three wallets sharing one (nonce, gasPrice) signature
	for i := 0; i < 3; i++ {
		txs[i].Nonce = 7
		txs[i].GasPrice = 42000
	}

	a := New(nil, memory.NewEvidenceSink(), fairness.DefaultThresholds)
	analysis, err := a.Analyze(context.Background(), baseInput(txs, nil))
	require.NoError(t, err)

	require.Len(t, analysis.WalletClusters, 1)
	cluster := analysis.WalletClusters[0]
	assert.Len(t, cluster.WalletAddresses, 3)
	assert.Equal(t, 0.8, cluster.SimilarityScore)
	assert.ElementsMatch(t, []string{"similar_nonce", "similar_gas_price"}, cluster.BehavioralSignals)
	assert.False(t, cluster.LastSeen.Before(cluster.FirstSeen))
}

func TestAnalyzer_GiniHighConcentration(t *testing.T) {
	// One wallet authors nearly everything
	txs := spreadTxs(50, func(i int) string {
		if i < 46 {
			return "0xwhale"
		}
		return fmt.Sprintf("0xwallet%02d", i)
	})

	a := New(nil, memory.NewEvidenceSink(), fairness.DefaultThresholds)
	analysis, err := a.Analyze(context.Background(), baseInput(txs, nil))
	require.NoError(t, err)

	assert.Greater(t, analysis.Concentration.GiniCoefficient, 0.7)
	assert.LessOrEqual(t, analysis.Concentration.GiniCoefficient, 1.0)
	assert.Greater(t, analysis.Concentration.HerfindahlIndex, 0.5)
	assert.LessOrEqual(t, analysis.Concentration.HerfindahlIndex, 1.0)
}

func TestAnalyzer_ScoreClampedToZero(t *testing.T) {
	txs := spreadTxs(30, func(i int) string { return "0xwhale" })

	// Enough sandwich patterns to drive the raw score far below zero
	var patterns []mev.Pattern
	for i := 0; i < 10; i++ {
		patterns = append(patterns, mev.Pattern{
			ID:           fmt.Sprintf("p%d", i),
			Type:         mev.PatternSandwich,
			Chain:        "ethereum",
			Transactions: txs[i : i+3],
			BlockNumber:  uint64(100 + i),
			DetectedAt:   time.Now(),
			Confidence:   0.8,
		})
	}

	a := New(nil, memory.NewEvidenceSink(), fairness.DefaultThresholds)
	analysis, err := a.Analyze(context.Background(), baseInput(txs, patterns))
	require.NoError(t, err)

	assert.Equal(t, 0.0, analysis.OverallScore)
	assert.Equal(t, fairness.CategoryPoor, analysis.ScoreCategory)
}

func TestAnalyzer_EmptyWindow(t *testing.T) {
	a := New(nil, memory.NewEvidenceSink(), fairness.DefaultThresholds)
	analysis, err := a.Analyze(context.Background(), baseInput(nil, nil))
	require.NoError(t, err)

	assert.Equal(t, 0, analysis.TotalParticipants)
	assert.Equal(t, fairness.ConcentrationMetrics{}, analysis.Concentration)
	assert.Equal(t, fairness.TimingMetrics{}, analysis.Timing)
	assert.Empty(t, analysis.Violations)
	assert.Equal(t, 100.0, analysis.OverallScore)
}

func TestAnalyzer_DeterministicEvidenceHashes(t *testing.T) {
	txs := spreadTxs(25, func(i int) string { return fmt.Sprintf("0xwallet%02d", i%7) })

	a := New(nil, memory.NewEvidenceSink(), fairness.DefaultThresholds)

	first, err := a.Analyze(context.Background(), baseInput(txs, nil))
	require.NoError(t, err)

	// Same inputs in reversed order hash identically
	reversed := make([]chain.Transaction, len(txs))
	for i, tx := range txs {
		reversed[len(txs)-1-i] = tx
	}
	second, err := a.Analyze(context.Background(), baseInput(reversed, nil))
	require.NoError(t, err)

	assert.NotEmpty(t, first.Evidence.ManifestHash)
	assert.NotEmpty(t, first.Evidence.RawDataHash)
	assert.Equal(t, first.Evidence.ManifestHash, second.Evidence.ManifestHash)
	assert.Equal(t, first.Evidence.RawDataHash, second.Evidence.RawDataHash)
	assert.Equal(t, first.Evidence.ContentURI, second.Evidence.ContentURI)
	assert.Contains(t, first.Evidence.ContentURI, "cas://sha256/")
}

func TestAnalyzer_PublishFailureDegrades(t *testing.T) {
	txs := spreadTxs(10, func(i int) string { return fmt.Sprintf("0xwallet%02d", i) })

	a := New(nil, failingSink{}, fairness.DefaultThresholds)
	analysis, err := a.Analyze(context.Background(), baseInput(txs, nil))
	require.NoError(t, err)

	assert.NotEmpty(t, analysis.Evidence.ManifestHash)
	assert.NotEmpty(t, analysis.Evidence.RawDataHash)
	assert.Empty(t, analysis.Evidence.ContentURI)
}

func TestAnalyzer_BackfillsFromReader(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	reader := &fakeReader{blocks: map[uint64]*chain.Block{
		100: {Number: 100, Timestamp: base, Transactions: []chain.Transaction{
			{Hash: "0xa", From: "0xw1", To: "0xmint", BlockNumber: 100, ObservedAt: base},
		}},
		101: {Number: 101, Timestamp: base.Add(12 * time.Second), Transactions: []chain.Transaction{
			{Hash: "0xb", From: "0xw2", To: "0xmint", BlockNumber: 101, ObservedAt: base.Add(12 * time.Second)},
		}},
	}}

	in := baseInput(nil, nil)
	in.StartBlock, in.EndBlock = 100, 101

	a := New(reader, memory.NewEvidenceSink(), fairness.DefaultThresholds)
	analysis, err := a.Analyze(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, 2, analysis.TotalParticipants)
}

func TestAnalyzer_DataUnavailable(t *testing.T) {
	reader := &fakeReader{err: errors.Wrap(errors.ErrDataUnavailable, "rpc down")}

	a := New(reader, memory.NewEvidenceSink(), fairness.DefaultThresholds)
	_, err := a.Analyze(context.Background(), baseInput(nil, nil))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrDataUnavailable))
}

func TestAnalyzer_SampleSizeCapsWindow(t *testing.T) {
	txs := spreadTxs(100, func(i int) string { return fmt.Sprintf("0xwallet%02d", i) })

	in := baseInput(txs, nil)
	in.Config.SampleSize = 40

	a := New(nil, memory.NewEvidenceSink(), fairness.DefaultThresholds)
	analysis, err := a.Analyze(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, 40, analysis.TotalParticipants)
}
