package testsupport

import (
	"context"
	"fmt"
	"testing"
	"time"

	"argus/internal/adapters/clickhouse"
	"argus/internal/adapters/config"
)

// ClickHouseTestHelper manages cleanup for ClickHouse integration tests.
type ClickHouseTestHelper struct {
	client *clickhouse.Client
}

// NewClickHouseTestHelper creates a ClickHouse client for tests.
func NewClickHouseTestHelper(t *testing.T, cfg config.ClickHouseConfig) *ClickHouseTestHelper {
	t.Helper()

	client, err := clickhouse.NewClient(cfg)
	if err != nil {
		t.Fatalf("failed to connect to clickhouse: %v", err)
	}

	helper := &ClickHouseTestHelper{client: client}
	t.Cleanup(func() { _ = client.Close() })
	return helper
}

// CreateTempTable creates a temporary table and registers cleanup.
func (h *ClickHouseTestHelper) CreateTempTable(t *testing.T, schema string) string {
	t.Helper()

	table := fmt.Sprintf("tmp_test_%d", time.Now().UnixNano())
	query := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s) ENGINE = MergeTree() ORDER BY tuple()", table, schema)

	if err := h.client.Conn().Exec(context.Background(), query); err != nil {
		t.Fatalf("failed to create clickhouse table: %v", err)
	}

	t.Cleanup(func() {
		_ = h.client.Conn().Exec(context.Background(), fmt.Sprintf("DROP TABLE IF EXISTS %s", table))
	})

	return table
}

// EnsureObservedTransactionsTable creates the archive table when the test
// database does not have it yet. Tests share the table and clean up their own
// rows via RegisterTableCleanup.
func (h *ClickHouseTestHelper) EnsureObservedTransactionsTable(t *testing.T) {
	t.Helper()

	query := `
		CREATE TABLE IF NOT EXISTS observed_transactions (
			chain String,
			tx_hash String,
			from_address String,
			to_address String,
			value String,
			gas_price UInt64,
			gas_limit UInt64,
			nonce UInt64,
			data String,
			observed_at DateTime64(3, 'UTC'),
			block_number UInt64,
			position_in_block Int32
		) ENGINE = MergeTree()
		ORDER BY (chain, block_number, position_in_block)
	`
	if err := h.client.Conn().Exec(context.Background(), query); err != nil {
		t.Fatalf("failed to ensure observed_transactions table: %v", err)
	}
}

// CleanupTable drops the provided table immediately.
func (h *ClickHouseTestHelper) CleanupTable(ctx context.Context, table string) error {
	return h.client.Conn().Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", table))
}

// TruncateTable removes all data from the table but keeps the structure
func (h *ClickHouseTestHelper) TruncateTable(ctx context.Context, table string) error {
	return h.client.Conn().Exec(ctx, fmt.Sprintf("TRUNCATE TABLE IF EXISTS %s", table))
}

// RegisterTableCleanup schedules cleanup of specific table data after test completes
// This is useful when working with shared tables that shouldn't be dropped
func (h *ClickHouseTestHelper) RegisterTableCleanup(t *testing.T, table, condition string) {
	t.Helper()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		_ = h.client.Conn().Exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE %s", table, condition))
	})
}

// Client exposes the raw ClickHouse client for queries.
func (h *ClickHouseTestHelper) Client() *clickhouse.Client {
	return h.client
}
