package kafka

// Topic definitions for Kafka event streaming
const (
	// Mempool events
	TopicMempoolTransactions = "mempool.transactions"
	TopicMempoolPatterns     = "mempool.patterns"

	// Probe events
	TopicProbesCompleted = "probes.completed"
)
