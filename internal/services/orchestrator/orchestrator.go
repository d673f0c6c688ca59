package orchestrator

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"argus/internal/adapters/config"
	"argus/internal/detector"
	"argus/internal/domain/chain"
	"argus/internal/domain/fairness"
	"argus/internal/domain/probe"
	"argus/internal/events"
	"argus/internal/metrics"
	"argus/internal/repository/memory"
	"argus/internal/services/analyzer"
	"argus/pkg/errors"
	"argus/pkg/logger"
)

// Orchestrator drives probe executions: it resolves an event's block window,
// snapshots the live mempool state, runs the fairness analyzer and records
// the result. Probes run asynchronously; distributed probes fan the same
// request out to independent workers and reconcile their scores.
type Orchestrator struct {
	cfg       config.ProbeConfig
	reader    chain.Reader
	window    *memory.TxWindow
	detector  *detector.Detector
	analyzer  *analyzer.Analyzer
	store     probe.Store
	submitter probe.Submitter
	bus       *events.Bus

	mu       sync.RWMutex
	statuses map[string]probe.Status

	log *logger.Logger
}

// New creates an orchestrator. submitter and bus may be nil.
func New(
	cfg config.ProbeConfig,
	reader chain.Reader,
	window *memory.TxWindow,
	det *detector.Detector,
	anl *analyzer.Analyzer,
	store probe.Store,
	submitter probe.Submitter,
	bus *events.Bus,
) *Orchestrator {
	return &Orchestrator{
		cfg:       cfg,
		reader:    reader,
		window:    window,
		detector:  det,
		analyzer:  anl,
		store:     store,
		submitter: submitter,
		bus:       bus,
		statuses:  make(map[string]probe.Status),
		log:       logger.Get().With("component", "probe_orchestrator"),
	}
}

// CreateProbe validates the request and schedules asynchronous execution.
// Returns the probe ID without blocking on the probe itself.
func (o *Orchestrator) CreateProbe(ctx context.Context, req *probe.Request) (string, error) {
	if err := req.Validate(o.cfg.MaxSampleSize); err != nil {
		return "", err
	}

	probeID := uuid.New().String()
	o.setStatus(probeID, probe.StatusCreated)
	o.log.Info("Probe created", "probe_id", probeID, "event_id", req.EventID, "chain", req.Chain)

	go func() {
		// Detached from the caller: the probe outlives the create request
		execCtx, cancel := context.WithTimeout(context.Background(), o.cfg.Deadline)
		defer cancel()
		o.runProbe(execCtx, probeID, req)
	}()

	return probeID, nil
}

// Status returns a probe's lifecycle status
func (o *Orchestrator) Status(probeID string) (probe.Status, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	status, ok := o.statuses[probeID]
	if !ok {
		return "", errors.Wrapf(errors.ErrNotFound, "probe %s", probeID)
	}
	return status, nil
}

// ProbeResult returns the stored result for a probe ID
func (o *Orchestrator) ProbeResult(ctx context.Context, probeID string) (*probe.Result, error) {
	return o.store.Result(ctx, probeID)
}

// Analysis returns the stored fairness analysis for an event ID
func (o *Orchestrator) Analysis(ctx context.Context, eventID string) (*fairness.Analysis, error) {
	return o.store.Analysis(ctx, eventID)
}

// runProbe executes one probe end to end and records the terminal result
func (o *Orchestrator) runProbe(ctx context.Context, probeID string, req *probe.Request) *probe.Result {
	start := time.Now()
	o.setStatus(probeID, probe.StatusRunning)

	result := o.execute(ctx, probeID, req)
	result.DurationMs = time.Since(start).Milliseconds()

	if result.Success {
		o.setStatus(probeID, probe.StatusSucceeded)
		metrics.ProbeExecutions.WithLabelValues("succeeded").Inc()
	} else {
		o.setStatus(probeID, probe.StatusFailed)
		metrics.ProbeExecutions.WithLabelValues("failed").Inc()
		o.log.Warn("Probe failed", "probe_id", probeID, "event_id", req.EventID, "errors", result.Errors)
	}
	metrics.ProbeDuration.Observe(time.Since(start).Seconds())

	if err := o.store.SaveResult(ctx, result); err != nil {
		o.log.Error("Failed to persist probe result", "probe_id", probeID, "error", err)
	}
	if result.Success && result.Data != nil && result.Data.Analysis != nil {
		if err := o.store.SaveAnalysis(ctx, result.Data.Analysis); err != nil {
			o.log.Error("Failed to persist analysis", "event_id", req.EventID, "error", err)
		}
	}

	if o.bus != nil {
		o.bus.Publish(events.Event{
			Type:    events.TypeProbeCompleted,
			Chain:   req.Chain,
			Payload: result,
			At:      time.Now(),
		})
	}
	return result
}

// execute performs the probe steps and builds the immutable result
func (o *Orchestrator) execute(ctx context.Context, probeID string, req *probe.Request) *probe.Result {
	result := &probe.Result{
		ProbeID:      probeID,
		EventID:      req.EventID,
		Timestamp:    time.Now().UTC(),
		NodeLocation: o.cfg.NodeLocation,
	}
	var probeErrs errors.MultiError

	blockRange, err := o.resolveBlockRange(ctx, req)
	if err != nil {
		probeErrs.Add(err)
		result.Errors = probeErrs.Messages()
		return result
	}

	windowTxs := o.window.Query(req.Chain, memory.TxFilter{})
	patterns := o.detector.Patterns(req.Chain)

	var testTxs []probe.TestTransaction
	if req.Config.MempoolMonitoring && o.submitter != nil {
		// Best effort: a failed submission is recorded, never fatal
		testTx, err := o.submitter.Submit(ctx, req.Chain, req.ContractAddress)
		if err != nil {
			probeErrs.Add(errors.Wrap(errors.ErrSubmissionFailed, err.Error()))
		} else if testTx != nil {
			testTxs = append(testTxs, *testTx)
		}
	}

	analysis, err := o.analyzer.Analyze(ctx, analyzer.Input{
		EventID:         req.EventID,
		EventType:       req.EventType,
		Chain:           req.Chain,
		ContractAddress: req.ContractAddress,
		StartBlock:      blockRange.Start,
		EndBlock:        blockRange.End,
		Transactions:    windowTxs,
		Patterns:        patterns,
		Config:          req.Config,
	})
	if err != nil {
		probeErrs.Add(err)
		result.Errors = probeErrs.Messages()
		return result
	}

	result.Errors = probeErrs.Messages()
	result.Success = true
	result.Data = &probe.Data{
		Analysis:         analysis,
		TestTransactions: testTxs,
		BlockRange:       blockRange,
	}
	return result
}

// resolveBlockRange maps the request's time window onto block numbers. With
// no explicit times the probe covers the latest DefaultBlockSpan blocks.
func (o *Orchestrator) resolveBlockRange(ctx context.Context, req *probe.Request) (probe.BlockRange, error) {
	latest, err := o.reader.LatestBlockNumber(ctx, req.Chain)
	if err != nil {
		return probe.BlockRange{}, errors.Wrap(err, "resolve latest block")
	}

	end := latest
	if req.EndTime != nil {
		end, err = o.blockBefore(ctx, req.Chain, *req.EndTime, latest)
		if err != nil {
			return probe.BlockRange{}, errors.Wrap(err, "resolve end block")
		}
	}

	start := uint64(0)
	if end > o.cfg.DefaultBlockSpan {
		start = end - o.cfg.DefaultBlockSpan
	}
	if req.StartTime != nil {
		start, err = o.blockBefore(ctx, req.Chain, *req.StartTime, latest)
		if err != nil {
			return probe.BlockRange{}, errors.Wrap(err, "resolve start block")
		}
	}

	if start > end {
		start = end
	}
	return probe.BlockRange{Start: start, End: end}, nil
}

// blockBefore binary-searches block timestamps for the last block with
// timestamp <= target. Block timestamps are monotonic non-decreasing.
func (o *Orchestrator) blockBefore(ctx context.Context, chainName string, target time.Time, latest uint64) (uint64, error) {
	lo, hi := uint64(0), latest
	var searchErr error

	// Invariant: the answer lies in [lo, hi]
	for lo < hi {
		mid := lo + (hi-lo+1)/2

		block, err := o.reader.BlockByNumber(ctx, chainName, mid)
		if err != nil {
			searchErr = err
			break
		}
		if block.Timestamp.After(target) {
			hi = mid - 1
		} else {
			lo = mid
		}
	}
	if searchErr != nil {
		return 0, searchErr
	}
	return lo, nil
}

func (o *Orchestrator) setStatus(probeID string, status probe.Status) {
	o.mu.Lock()
	o.statuses[probeID] = status
	o.mu.Unlock()
}
