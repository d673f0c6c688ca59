package testsupport

import "testing"

func TestLoadDatabaseConfigsFromEnv(t *testing.T) {
	t.Setenv("CLICKHOUSE_HOST", "click")
	t.Setenv("CLICKHOUSE_DB", "analytics")
	t.Setenv("CLICKHOUSE_PORT", "8123")

	t.Setenv("REDIS_HOST", "redis")
	t.Setenv("REDIS_PORT", "6380")
	t.Setenv("REDIS_DB", "2")

	cfg := LoadDatabaseConfigsFromEnv(t)

	if cfg.ClickHouse.Host != "click" || cfg.ClickHouse.Port != 8123 {
		t.Fatalf("unexpected clickhouse config %+v", cfg.ClickHouse)
	}

	if cfg.ClickHouse.User != "default" {
		t.Fatalf("expected default clickhouse user, got %q", cfg.ClickHouse.User)
	}

	if cfg.Redis.Host != "redis" || cfg.Redis.Port != 6380 || cfg.Redis.DB != 2 {
		t.Fatalf("unexpected redis config %+v", cfg.Redis)
	}
}
