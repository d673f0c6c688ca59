package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"argus/pkg/logger"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/redis/go-redis/v9"
)

// Handler provides health check endpoints. Redis and ClickHouse are
// optional deployments; a nil client is reported as "disabled" and does not
// degrade readiness.
type Handler struct {
	log         *logger.Logger
	clickhouse  driver.Conn
	redis       *redis.Client
	startTime   time.Time
	serviceName string
	version     string
}

// New creates a new health check handler
func New(
	log *logger.Logger,
	clickhouse driver.Conn,
	redisClient *redis.Client,
	serviceName string,
	version string,
) *Handler {
	return &Handler{
		log:         log,
		clickhouse:  clickhouse,
		redis:       redisClient,
		startTime:   time.Now(),
		serviceName: serviceName,
		version:     version,
	}
}

// HealthStatus represents the overall health status
type HealthStatus struct {
	Status    string                     `json:"status"` // "healthy", "unhealthy"
	Service   string                     `json:"service"`
	Version   string                     `json:"version"`
	Uptime    string                     `json:"uptime"`
	Timestamp string                     `json:"timestamp"`
	Checks    map[string]ComponentHealth `json:"checks"`
}

// ComponentHealth represents health of a single component
type ComponentHealth struct {
	Status       string `json:"status"`
	ResponseTime string `json:"response_time,omitempty"`
	Error        string `json:"error,omitempty"`
}

// HandleLiveness returns 200 OK if service is running
// Used by Kubernetes liveness probe
func (h *Handler) HandleLiveness(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status": "alive",
	})
}

// HandleReadiness checks if service is ready to accept traffic
// Used by Kubernetes readiness probe
func (h *Handler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]ComponentHealth)
	allHealthy := true

	redisHealth := h.checkRedis(ctx)
	checks["redis"] = redisHealth
	if redisHealth.Status == "unhealthy" {
		allHealthy = false
	}

	chHealth := h.checkClickHouse(ctx)
	checks["clickhouse"] = chHealth
	if chHealth.Status == "unhealthy" {
		allHealthy = false
	}

	status := HealthStatus{
		Status:    "healthy",
		Service:   h.serviceName,
		Version:   h.version,
		Uptime:    time.Since(h.startTime).String(),
		Timestamp: time.Now().Format(time.RFC3339),
		Checks:    checks,
	}

	statusCode := http.StatusOK
	if !allHealthy {
		status.Status = "unhealthy"
		statusCode = http.StatusServiceUnavailable
		h.log.Warn("Readiness check failed", "checks", checks)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(status)
}

// HandleHealth is the detailed health endpoint, same payload as readiness
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	h.HandleReadiness(w, r)
}

func (h *Handler) checkRedis(ctx context.Context) ComponentHealth {
	if h.redis == nil {
		return ComponentHealth{Status: "disabled"}
	}

	start := time.Now()
	if err := h.redis.Ping(ctx).Err(); err != nil {
		return ComponentHealth{Status: "unhealthy", Error: err.Error()}
	}
	return ComponentHealth{Status: "healthy", ResponseTime: time.Since(start).String()}
}

func (h *Handler) checkClickHouse(ctx context.Context) ComponentHealth {
	if h.clickhouse == nil {
		return ComponentHealth{Status: "disabled"}
	}

	start := time.Now()
	if err := h.clickhouse.Ping(ctx); err != nil {
		return ComponentHealth{Status: "unhealthy", Error: err.Error()}
	}
	return ComponentHealth{Status: "healthy", ResponseTime: time.Since(start).String()}
}
