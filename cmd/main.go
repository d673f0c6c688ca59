package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	goredis "github.com/redis/go-redis/v9"

	chadapter "argus/internal/adapters/clickhouse"
	"argus/internal/adapters/config"
	"argus/internal/adapters/errors/noop"
	"argus/internal/adapters/errors/sentry"
	"argus/internal/adapters/ethrpc"
	"argus/internal/adapters/kafka"
	redisadapter "argus/internal/adapters/redis"
	"argus/internal/api"
	"argus/internal/api/health"
	"argus/internal/detector"
	"argus/internal/domain/evidence"
	"argus/internal/domain/fairness"
	"argus/internal/domain/probe"
	"argus/internal/events"
	"argus/internal/metrics"
	"argus/internal/monitor"
	"argus/internal/repository/clickhouse"
	"argus/internal/repository/memory"
	redisrepo "argus/internal/repository/redis"
	"argus/internal/services/analyzer"
	"argus/internal/services/orchestrator"
	"argus/pkg/errors"
	"argus/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	if err := logger.Init(cfg.App.LogLevel, cfg.App.Env); err != nil {
		panic("failed to init logger: " + err.Error())
	}
	defer logger.Sync()

	log := logger.Get()
	log.Infof("Starting %s in %s mode", cfg.App.Name, cfg.App.Env)

	errorTracker := initErrorTracker(cfg, log)
	logger.SetErrorTracker(errorTracker)

	metrics.Register()

	// Chain RPC
	reader, err := ethrpc.NewReader(cfg.Monitor.ChainRPC, cfg.Monitor.RPCRateLimit)
	if err != nil {
		log.Fatalf("Failed to connect chain RPC: %v", err)
	}
	defer reader.Close()

	// Stores: Redis when reachable, memory otherwise
	probeStore, evidenceSink, redisClient := initStores(cfg, log)
	if redisClient != nil {
		defer redisClient.Close()
	}

	// Optional ClickHouse archive, buffered so poll cycles do not produce
	// single-row inserts
	chClient := initClickHouse(cfg, log)
	var archive monitor.Archiver
	var archiver *clickhouse.BufferedArchiver
	if chClient != nil {
		defer chClient.Close()
		archiver = clickhouse.NewBufferedArchiver(
			clickhouse.NewTxArchive(chClient.Conn()),
			cfg.Monitor.ArchiveBatchSize,
			cfg.Monitor.ArchiveFlushInterval,
		)
		archive = archiver
	}

	// In-memory window state and event bus
	window := memory.NewTxWindow()
	patterns := memory.NewPatternStore()
	bus := events.NewBus()
	defer bus.Close()

	det := detector.New(window, patterns, bus)
	mon := monitor.New(cfg.Monitor, reader, window, det, bus, archive)

	anl := analyzer.New(reader, evidenceSink, fairness.CategoryThresholds{
		Excellent: cfg.Scoring.ExcellentThreshold,
		Good:      cfg.Scoring.GoodThreshold,
		Fair:      cfg.Scoring.FairThreshold,
	})
	orch := orchestrator.New(cfg.Probe, reader, window, det, anl, probeStore, nil, bus)

	// Optional Kafka forwarding of bus events
	forwarder := initKafka(cfg, bus, log)

	server := initServer(cfg, chClient, redisClient, orch, mon, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if forwarder != nil {
		forwarder.Start(ctx)
	}
	if archiver != nil {
		archiver.Start(ctx)
	}
	if err := mon.Start(ctx); err != nil {
		log.Fatalf("Failed to start chain monitor: %v", err)
	}

	go func() {
		if err := server.Start(); err != nil {
			log.Errorf("HTTP server stopped: %v", err)
		}
	}()

	log.Info("System initialized successfully")

	waitForShutdown(cancel, log)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warnf("HTTP shutdown: %v", err)
	}
	if err := mon.Stop(); err != nil {
		log.Warnf("Monitor shutdown: %v", err)
	}
	if archiver != nil {
		if err := archiver.Stop(shutdownCtx); err != nil {
			log.Warnf("Archiver shutdown: %v", err)
		}
	}
	if forwarder != nil {
		forwarder.Wait()
	}
	if err := errorTracker.Flush(shutdownCtx); err != nil {
		log.Warnf("Error tracker flush: %v", err)
	}
	log.Info("Shutdown complete")
}

// initErrorTracker initializes error tracking (Sentry or no-op)
func initErrorTracker(cfg *config.Config, log *logger.Logger) errors.Tracker {
	if !cfg.ErrorTracking.Enabled || cfg.ErrorTracking.SentryDSN == "" {
		log.Info("Error tracking disabled")
		return noop.New()
	}

	tracker, err := sentry.New(cfg.ErrorTracking.SentryDSN, cfg.ErrorTracking.Environment)
	if err != nil {
		log.Warnf("Failed to initialize Sentry: %v", err)
		return noop.New()
	}

	log.Info("Error tracking initialized (Sentry)")
	return tracker
}

// initStores wires the probe result store and evidence sink. Falls back to
// in-memory stores when Redis is unavailable.
func initStores(cfg *config.Config, log *logger.Logger) (probe.Store, evidence.Sink, *redisadapter.Client) {
	client, err := redisadapter.NewClient(cfg.Redis)
	if err != nil {
		log.Warnf("Redis unavailable, using in-memory stores: %v", err)
		return memory.NewProbeStore(), memory.NewEvidenceSink(), nil
	}

	log.Info("Redis connected", "addr", cfg.Redis.Addr())
	return redisrepo.NewProbeStore(client, cfg.Probe.ResultTTL),
		redisrepo.NewEvidenceSink(client, cfg.Probe.ResultTTL),
		client
}

// initClickHouse connects ClickHouse when archiving is enabled
func initClickHouse(cfg *config.Config, log *logger.Logger) *chadapter.Client {
	if !cfg.Monitor.ArchiveEnabled {
		return nil
	}

	client, err := chadapter.NewClient(cfg.ClickHouse)
	if err != nil {
		log.Warnf("ClickHouse unavailable, archiving disabled: %v", err)
		return nil
	}

	log.Info("ClickHouse archive enabled")
	return client
}

// initKafka wires bus event forwarding to Kafka when enabled
func initKafka(cfg *config.Config, bus *events.Bus, log *logger.Logger) *events.KafkaForwarder {
	if !cfg.Kafka.Enabled || len(cfg.Kafka.Brokers) == 0 {
		return nil
	}

	producer := kafka.NewProducer(kafka.ProducerConfig{Brokers: cfg.Kafka.Brokers})
	log.Info("Kafka event forwarding enabled", "brokers", cfg.Kafka.Brokers)
	return events.NewKafkaForwarder(producer, bus)
}

// initServer builds the HTTP API server
func initServer(
	cfg *config.Config,
	chClient *chadapter.Client,
	redisClient *redisadapter.Client,
	orch *orchestrator.Orchestrator,
	mon *monitor.Monitor,
	log *logger.Logger,
) *api.Server {
	var chConn = healthClickHouse(chClient)
	var redisConn = healthRedis(redisClient)

	healthHandler := health.New(log, chConn, redisConn, cfg.App.Name, cfg.App.Version)
	probeHandler := api.NewProbeHandler(orch, mon)

	return api.NewServer(api.ServerConfig{
		Port:        cfg.App.Port,
		ServiceName: cfg.App.Name,
		Version:     cfg.App.Version,
	}, healthHandler, probeHandler, log)
}

func healthClickHouse(client *chadapter.Client) driver.Conn {
	if client == nil {
		return nil
	}
	return client.Conn()
}

func healthRedis(client *redisadapter.Client) *goredis.Client {
	if client == nil {
		return nil
	}
	return client.Client()
}

// waitForShutdown blocks until SIGINT or SIGTERM
func waitForShutdown(cancel context.CancelFunc, log *logger.Logger) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	log.Infof("Received signal %s, shutting down...", sig)
	cancel()
}
