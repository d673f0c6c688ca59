package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"argus/pkg/errors"
)

type Config struct {
	App           AppConfig
	Monitor       MonitorConfig
	Probe         ProbeConfig
	Scoring       ScoringConfig
	Redis         RedisConfig
	ClickHouse    ClickHouseConfig
	Kafka         KafkaConfig
	ErrorTracking ErrorTrackingConfig
}

type AppConfig struct {
	Name     string `envconfig:"APP_NAME" default:"argus"`
	Env      string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	Debug    bool   `envconfig:"DEBUG" default:"false"`
	Version  string `envconfig:"APP_VERSION" default:"dev"`

	// Port for the HTTP API, health and metrics endpoints
	Port int `envconfig:"PORT" default:"8080"`
}

// MonitorConfig controls the per-chain polling loops and state retention
type MonitorConfig struct {
	// Chain name -> RPC endpoint URL, e.g. "ethereum:https://...,base:https://..."
	ChainRPC map[string]string `envconfig:"CHAIN_RPC_URLS"`

	PollInterval    time.Duration `envconfig:"MONITOR_POLL_INTERVAL" default:"5s"`
	CleanupInterval time.Duration `envconfig:"MONITOR_CLEANUP_INTERVAL" default:"60s"`

	// Retention windows for the in-memory mempool state
	TransactionRetention time.Duration `envconfig:"MONITOR_TX_RETENTION" default:"5m"`
	PatternRetention     time.Duration `envconfig:"MONITOR_PATTERN_RETENTION" default:"10m"`

	// RPC requests per second across all chains
	RPCRateLimit float64 `envconfig:"MONITOR_RPC_RATE_LIMIT" default:"20"`

	// Observed transactions are batch-archived to ClickHouse when enabled
	ArchiveEnabled       bool          `envconfig:"MONITOR_ARCHIVE_ENABLED" default:"false"`
	ArchiveBatchSize     int           `envconfig:"MONITOR_ARCHIVE_BATCH_SIZE" default:"500"`
	ArchiveFlushInterval time.Duration `envconfig:"MONITOR_ARCHIVE_FLUSH_INTERVAL" default:"5s"`
}

// Chains returns the configured chain names
func (c MonitorConfig) Chains() []string {
	chains := make([]string, 0, len(c.ChainRPC))
	for name := range c.ChainRPC {
		chains = append(chains, name)
	}
	return chains
}

// ProbeConfig controls probe execution
type ProbeConfig struct {
	// Overall deadline for one probe execution
	Deadline time.Duration `envconfig:"PROBE_DEADLINE" default:"2m"`

	// Block span used when a request carries no explicit time window
	DefaultBlockSpan uint64 `envconfig:"PROBE_DEFAULT_BLOCK_SPAN" default:"100"`

	// Delay between launching distributed probe workers
	WorkerStagger time.Duration `envconfig:"PROBE_WORKER_STAGGER" default:"0s"`

	// Reported on probe results, e.g. "eu-west-1"
	NodeLocation string `envconfig:"PROBE_NODE_LOCATION" default:"local"`

	// Bounds for ProbeRequest.SampleSize
	MaxSampleSize int `envconfig:"PROBE_MAX_SAMPLE_SIZE" default:"1000"`

	// TTL for results persisted in Redis
	ResultTTL time.Duration `envconfig:"PROBE_RESULT_TTL" default:"720h"`
}

// ScoringConfig holds the score category thresholds
type ScoringConfig struct {
	ExcellentThreshold float64 `envconfig:"SCORE_EXCELLENT_THRESHOLD" default:"90"`
	GoodThreshold      float64 `envconfig:"SCORE_GOOD_THRESHOLD" default:"75"`
	FairThreshold      float64 `envconfig:"SCORE_FAIR_THRESHOLD" default:"60"`
}

type RedisConfig struct {
	Host     string `envconfig:"REDIS_HOST" default:"localhost"`
	Port     int    `envconfig:"REDIS_PORT" default:"6379"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type ClickHouseConfig struct {
	Host     string `envconfig:"CLICKHOUSE_HOST" default:"localhost"`
	Port     int    `envconfig:"CLICKHOUSE_PORT" default:"9000"`
	User     string `envconfig:"CLICKHOUSE_USER" default:"default"`
	Password string `envconfig:"CLICKHOUSE_PASSWORD"`
	Database string `envconfig:"CLICKHOUSE_DB" default:"argus"`
}

type KafkaConfig struct {
	Enabled bool     `envconfig:"KAFKA_ENABLED" default:"false"`
	Brokers []string `envconfig:"KAFKA_BROKERS"`
}

type ErrorTrackingConfig struct {
	Enabled     bool   `envconfig:"ERROR_TRACKING_ENABLED" default:"true"`
	SentryDSN   string `envconfig:"SENTRY_DSN"`
	Environment string `envconfig:"SENTRY_ENVIRONMENT" default:"production"`
}

// Load reads configuration from environment variables
// It first tries to load .env file (useful for local development)
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if not exists)
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to process env config")
	}

	return &cfg, nil
}
