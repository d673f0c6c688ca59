package fairness

import (
	"time"

	"github.com/shopspring/decimal"
)

// ViolationType classifies a fairness violation
type ViolationType string

const (
	ViolationBotConcentration   ViolationType = "bot_concentration"
	ViolationMEVFrontRunning    ViolationType = "mev_front_running"
	ViolationSandwichAttack     ViolationType = "sandwich_attack"
	ViolationBackdoorAllowlist  ViolationType = "backdoor_allowlist"
	ViolationPreminedSupply     ViolationType = "premined_supply"
	ViolationSybilAttack        ViolationType = "sybil_attack"
	ViolationTimingManipulation ViolationType = "timing_manipulation"
	ViolationPrivateRelayAbuse  ViolationType = "private_relay_abuse"
)

// Severity grades a violation
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Weight returns the score deduction weight for a severity
func (s Severity) Weight() float64 {
	switch s {
	case SeverityLow:
		return 5
	case SeverityMedium:
		return 10
	case SeverityHigh:
		return 20
	case SeverityCritical:
		return 30
	default:
		return 0
	}
}

// ViolationEvidence holds the raw references backing a violation
type ViolationEvidence struct {
	TransactionHashes []string  `json:"transactionHashes"`
	WalletAddresses   []string  `json:"walletAddresses"`
	BlockNumbers      []uint64  `json:"blockNumbers"`
	Timestamp         time.Time `json:"timestamp"`
}

// ViolationImpact estimates the blast radius of a violation
type ViolationImpact struct {
	AffectedWallets int             `json:"affectedWallets"`
	AffectedSupply  decimal.Decimal `json:"affectedSupply"`
	EstimatedLoss   decimal.Decimal `json:"estimatedLoss"`
}

// Violation is produced once per analysis run; immutable
type Violation struct {
	ID          string            `json:"violationId"`
	Type        ViolationType     `json:"type"`
	Severity    Severity          `json:"severity"`
	Description string            `json:"description"`
	Evidence    ViolationEvidence `json:"evidence"`
	Impact      ViolationImpact   `json:"impact"`
	Confidence  float64           `json:"confidence"`
}

// WalletCluster groups wallets showing coordinated behavior.
// At least 2 distinct members; immutable after creation.
type WalletCluster struct {
	ID                string    `json:"clusterId"`
	WalletAddresses   []string  `json:"walletAddresses"`
	SimilarityScore   float64   `json:"similarityScore"`
	BehavioralSignals []string  `json:"behavioralSignals"`
	FirstSeen         time.Time `json:"firstSeen"`
	LastSeen          time.Time `json:"lastSeen"`
}

// ConcentrationMetrics are inequality measures over per-wallet transaction counts
type ConcentrationMetrics struct {
	GiniCoefficient float64 `json:"giniCoefficient"`
	Top10Percent    float64 `json:"top10Percent"`
	Top1Percent     float64 `json:"top1Percent"`
	HerfindahlIndex float64 `json:"herfindahlIndex"`
}

// MEVMetrics count detected patterns within the event window
type MEVMetrics struct {
	SandwichAttacks  int `json:"sandwichAttacks"`
	FrontRunningTxs  int `json:"frontRunningTxs"`
	BackRunningTxs   int `json:"backRunningTxs"`
	PrivateRelayUsage int `json:"privateRelayUsage"`
}

// TimingMetrics summarize consecutive-timestamp gaps, in seconds
type TimingMetrics struct {
	AverageConfirmationTime float64 `json:"averageConfirmationTime"`
	MedianConfirmationTime  float64 `json:"medianConfirmationTime"`
	FastestConfirmation     float64 `json:"fastestConfirmation"`
	SlowestConfirmation     float64 `json:"slowestConfirmation"`
}

// EvidenceRefs point at the published evidence bundle
type EvidenceRefs struct {
	ManifestHash string `json:"manifestHash"`
	ContentURI   string `json:"contentUri"`
	NotebookURI  string `json:"notebookUri"`
	RawDataHash  string `json:"rawDataHash"`
}

// Analysis is the aggregate fairness result for one event window.
// Created once per probe execution; never mutated; keyed by EventID.
type Analysis struct {
	EventID         string `json:"eventId"`
	EventType       string `json:"eventType"`
	Chain           string `json:"chain"`
	ContractAddress string `json:"contractAddress"`
	StartBlock      uint64 `json:"startBlock"`
	EndBlock        uint64 `json:"endBlock"`

	TotalParticipants int      `json:"totalParticipants"`
	OverallScore      float64  `json:"overallScore"`
	ScoreCategory     Category `json:"scoreCategory"`

	Violations     []Violation     `json:"violations"`
	WalletClusters []WalletCluster `json:"walletClusters"`

	Concentration ConcentrationMetrics `json:"concentrationMetrics"`
	MEV           MEVMetrics           `json:"mevMetrics"`
	Timing        TimingMetrics        `json:"timingMetrics"`
	Evidence      EvidenceRefs         `json:"evidence"`

	AnalyzedAt time.Time `json:"analyzedAt"`
}
