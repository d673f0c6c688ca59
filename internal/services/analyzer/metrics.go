package analyzer

import (
	"math"
	"sort"
	"time"

	"argus/internal/domain/chain"
	"argus/internal/domain/fairness"
	"argus/internal/domain/mev"
)

// concentrationMetrics computes inequality measures over per-wallet
// transaction counts. All metrics are 0 for an empty window.
func concentrationMetrics(txs []chain.Transaction) fairness.ConcentrationMetrics {
	counts := countsByWallet(txs)
	if len(counts) == 0 {
		return fairness.ConcentrationMetrics{}
	}

	ascending := make([]int, 0, len(counts))
	total := 0
	for _, c := range counts {
		ascending = append(ascending, c)
		total += c
	}
	sort.Ints(ascending)

	n := len(ascending)
	var giniSum float64
	for i, c := range ascending {
		giniSum += float64(2*(i+1)-n-1) * float64(c)
	}
	gini := giniSum / (float64(n) * float64(total))

	var hhi float64
	for _, c := range ascending {
		share := float64(c) / float64(total)
		hhi += share * share
	}

	return fairness.ConcentrationMetrics{
		GiniCoefficient: gini,
		Top10Percent:    topShare(ascending, total, 0.10),
		Top1Percent:     topShare(ascending, total, 0.01),
		HerfindahlIndex: hhi,
	}
}

// topShare returns the percentage of all transactions held by the top
// floor(n*k) wallets
func topShare(ascending []int, total int, k float64) float64 {
	n := len(ascending)
	top := int(math.Floor(float64(n) * k))
	if top == 0 || total == 0 {
		return 0
	}

	sum := 0
	for _, c := range ascending[n-top:] {
		sum += c
	}
	return float64(sum) / float64(total) * 100
}

func mevMetrics(patterns []mev.Pattern) fairness.MEVMetrics {
	var m fairness.MEVMetrics
	for _, p := range patterns {
		switch p.Type {
		case mev.PatternSandwich:
			m.SandwichAttacks++
		case mev.PatternFrontRun:
			m.FrontRunningTxs++
		case mev.PatternBackRun:
			m.BackRunningTxs++
		}
	}
	return m
}

// timingMetrics summarizes consecutive-timestamp gaps in seconds.
// All zero with fewer than two timestamps.
func timingMetrics(txs []chain.Transaction) fairness.TimingMetrics {
	gaps := consecutiveGaps(txs)
	if len(gaps) == 0 {
		return fairness.TimingMetrics{}
	}

	seconds := make([]float64, len(gaps))
	var sum float64
	for i, gap := range gaps {
		seconds[i] = gap.Seconds()
		sum += seconds[i]
	}
	sort.Float64s(seconds)

	var median float64
	mid := len(seconds) / 2
	if len(seconds)%2 == 0 {
		median = (seconds[mid-1] + seconds[mid]) / 2
	} else {
		median = seconds[mid]
	}

	return fairness.TimingMetrics{
		AverageConfirmationTime: sum / float64(len(seconds)),
		MedianConfirmationTime:  median,
		FastestConfirmation:     seconds[0],
		SlowestConfirmation:     seconds[len(seconds)-1],
	}
}

// consecutiveGaps returns the deltas between adjacent observed timestamps,
// sorted chronologically
func consecutiveGaps(txs []chain.Transaction) []time.Duration {
	if len(txs) < 2 {
		return nil
	}

	stamps := make([]time.Time, len(txs))
	for i, tx := range txs {
		stamps[i] = tx.ObservedAt
	}
	sort.Slice(stamps, func(i, j int) bool { return stamps[i].Before(stamps[j]) })

	gaps := make([]time.Duration, 0, len(stamps)-1)
	for i := 1; i < len(stamps); i++ {
		gaps = append(gaps, stamps[i].Sub(stamps[i-1]))
	}
	return gaps
}
