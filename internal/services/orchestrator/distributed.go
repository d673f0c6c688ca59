package orchestrator

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"argus/internal/domain/fairness"
	"argus/internal/domain/probe"
	"argus/pkg/errors"
)

// ExecuteDistributedProbe fans the same request out to workerCount
// independent probe executions and reconciles their results. Worker launches
// are staggered by the configured delay. Partial failures do not fail the
// aggregate; only a run where every worker failed does.
func (o *Orchestrator) ExecuteDistributedProbe(ctx context.Context, req *probe.Request, workerCount int) (*probe.AggregatedResult, error) {
	if workerCount < 1 {
		return nil, errors.Wrapf(errors.ErrInvalidRequest, "workerCount %d must be >= 1", workerCount)
	}
	if err := req.Validate(o.cfg.MaxSampleSize); err != nil {
		return nil, err
	}

	o.log.Info("Distributed probe starting",
		"event_id", req.EventID,
		"workers", workerCount,
		"stagger", o.cfg.WorkerStagger,
	)

	results := make([]*probe.Result, workerCount)
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < workerCount; i++ {
		g.Go(func() error {
			if o.cfg.WorkerStagger > 0 && i > 0 {
				select {
				case <-gctx.Done():
					return gctx.Err()
				case <-time.After(time.Duration(i) * o.cfg.WorkerStagger):
				}
			}

			probeID := uuid.New().String()
			o.setStatus(probeID, probe.StatusCreated)

			execCtx, cancel := context.WithTimeout(gctx, o.cfg.Deadline)
			defer cancel()
			results[i] = o.runProbe(execCtx, probeID, req)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, errors.Wrap(err, "distributed probe interrupted")
	}

	aggregated := aggregate(req.EventID, results)
	if !aggregated.Success {
		return aggregated, errors.Wrapf(errors.ErrAllWorkersFailed, "event %s: %d workers", req.EventID, workerCount)
	}
	return aggregated, nil
}

// aggregate reconciles worker results into one consensus view
func aggregate(eventID string, results []*probe.Result) *probe.AggregatedResult {
	agg := &probe.AggregatedResult{
		EventID:     eventID,
		WorkerCount: len(results),
		Results:     results,
	}

	var scores []float64
	seenViolations := make(map[string]struct{})
	seenClusters := make(map[string]struct{})

	for _, r := range results {
		if r == nil {
			continue
		}
		if !r.Success {
			agg.Errors = append(agg.Errors, r.Errors...)
			continue
		}
		agg.SuccessCount++

		if r.Data == nil || r.Data.Analysis == nil {
			continue
		}
		analysis := r.Data.Analysis
		scores = append(scores, analysis.OverallScore)

		for _, v := range analysis.Violations {
			key := violationKey(v)
			if _, ok := seenViolations[key]; ok {
				continue
			}
			seenViolations[key] = struct{}{}
			agg.Violations = append(agg.Violations, v)
		}
		for _, c := range analysis.WalletClusters {
			key := clusterKey(c)
			if _, ok := seenClusters[key]; ok {
				continue
			}
			seenClusters[key] = struct{}{}
			agg.WalletClusters = append(agg.WalletClusters, c)
		}
	}

	if len(scores) > 0 {
		agg.Success = true
		agg.AverageScore = mean(scores)
		agg.Consensus = math.Max(0, 1-stddev(scores)/100)
	}
	return agg
}

// violationKey dedupes by type plus the sorted hash set
func violationKey(v fairness.Violation) string {
	hashes := make([]string, len(v.Evidence.TransactionHashes))
	copy(hashes, v.Evidence.TransactionHashes)
	sort.Strings(hashes)
	return string(v.Type) + ":" + strings.Join(hashes, ",")
}

// clusterKey dedupes by the sorted wallet-address set
func clusterKey(c fairness.WalletCluster) string {
	wallets := make([]string, len(c.WalletAddresses))
	copy(wallets, c.WalletAddresses)
	sort.Strings(wallets)
	return strings.Join(wallets, ",")
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// stddev is the population standard deviation
func stddev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := mean(values)
	var sum float64
	for _, v := range values {
		d := v - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)))
}
