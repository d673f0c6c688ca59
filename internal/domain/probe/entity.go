package probe

import (
	"time"

	"argus/internal/domain/fairness"
	"argus/pkg/errors"
)

// Status tracks a probe's lifecycle: created -> running -> succeeded | failed
type Status string

const (
	StatusCreated   Status = "created"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Terminal reports whether the status is final
func (s Status) Terminal() bool {
	return s == StatusSucceeded || s == StatusFailed
}

// Config toggles the checks a probe performs
type Config struct {
	MempoolMonitoring bool `json:"mempoolMonitoring"`
	MEVDetection      bool `json:"mevDetection"`
	BotDetection      bool `json:"botDetection"`
	TimingAnalysis    bool `json:"timingAnalysis"`
	SampleSize        int  `json:"sampleSize"`
}

// Request asks for one fairness check of an event window. Input only.
type Request struct {
	EventID         string     `json:"eventId"`
	EventType       string     `json:"eventType"`
	Chain           string     `json:"chain"`
	ContractAddress string     `json:"contractAddress"`
	StartTime       *time.Time `json:"startTime,omitempty"`
	EndTime         *time.Time `json:"endTime,omitempty"`
	Config          Config     `json:"probeConfig"`
}

// Validate checks a request before execution
func (r *Request) Validate(maxSampleSize int) error {
	if r.EventID == "" {
		return errors.Wrap(errors.ErrInvalidRequest, "eventId is required")
	}
	if r.Chain == "" {
		return errors.Wrap(errors.ErrInvalidRequest, "chain is required")
	}
	if r.Config.SampleSize < 0 || r.Config.SampleSize > maxSampleSize {
		return errors.Wrapf(errors.ErrInvalidRequest, "sampleSize %d out of bounds [0, %d]", r.Config.SampleSize, maxSampleSize)
	}
	if r.StartTime != nil && r.EndTime != nil && r.EndTime.Before(*r.StartTime) {
		return errors.Wrap(errors.ErrInvalidRequest, "endTime before startTime")
	}
	return nil
}

// TestTransaction is the receipt of a commissioned test transaction
type TestTransaction struct {
	TransactionHash string `json:"transactionHash"`
	From            string `json:"from"`
	GasPrice        uint64 `json:"gasPrice"`
	Status          string `json:"status"`
}

// BlockRange is the resolved block window of a probe
type BlockRange struct {
	Start uint64 `json:"startBlock"`
	End   uint64 `json:"endBlock"`
}

// Data is the payload of a successful probe
type Data struct {
	Analysis         *fairness.Analysis `json:"fairnessAnalysis"`
	TestTransactions []TestTransaction  `json:"testTransactions,omitempty"`
	BlockRange       BlockRange         `json:"blockRange"`
}

// Result is the record of one probe execution (or one distributed worker).
// Created exactly once; immutable; keyed by ProbeID.
type Result struct {
	ProbeID      string    `json:"probeId"`
	EventID      string    `json:"eventId"`
	Success      bool      `json:"success"`
	Data         *Data     `json:"data,omitempty"`
	Errors       []string  `json:"errors,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
	DurationMs   int64     `json:"durationMs"`
	NodeLocation string    `json:"nodeLocation"`
}

// AggregatedResult reconciles the results of a distributed probe run
type AggregatedResult struct {
	EventID      string  `json:"eventId"`
	Success      bool    `json:"success"`
	WorkerCount  int     `json:"workerCount"`
	SuccessCount int     `json:"successCount"`
	AverageScore float64 `json:"averageScore"`
	// Consensus is max(0, 1 - stddev(scores)/100): low dispersion across
	// workers yields values near 1.
	Consensus float64 `json:"consensus"`

	Violations     []fairness.Violation     `json:"violations"`
	WalletClusters []fairness.WalletCluster `json:"walletClusters"`

	Results []*Result `json:"results"`
	Errors  []string  `json:"errors,omitempty"`
}
