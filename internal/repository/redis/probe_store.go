package redis

import (
	"context"
	"time"

	goredis "github.com/redis/go-redis/v9"

	redisadapter "argus/internal/adapters/redis"
	"argus/internal/domain/fairness"
	"argus/internal/domain/probe"
	"argus/pkg/errors"
)

const (
	probeResultKeyPrefix = "probe:result:"
	analysisKeyPrefix    = "probe:analysis:"
)

// ProbeStore implements probe.Store on Redis. Results and analyses are
// stored as JSON with a TTL so completed probes age out on their own.
type ProbeStore struct {
	client *redisadapter.Client
	ttl    time.Duration
}

// NewProbeStore creates a Redis-backed probe store
func NewProbeStore(client *redisadapter.Client, ttl time.Duration) *ProbeStore {
	return &ProbeStore{client: client, ttl: ttl}
}

// SaveResult stores a probe result keyed by probe ID
func (s *ProbeStore) SaveResult(ctx context.Context, result *probe.Result) error {
	if err := s.client.Set(ctx, probeResultKeyPrefix+result.ProbeID, result, s.ttl); err != nil {
		return errors.Wrapf(err, "save probe result %s", result.ProbeID)
	}
	return nil
}

// Result returns the stored result for a probe ID
func (s *ProbeStore) Result(ctx context.Context, probeID string) (*probe.Result, error) {
	var result probe.Result
	err := s.client.Get(ctx, probeResultKeyPrefix+probeID, &result)
	if err == goredis.Nil {
		return nil, errors.Wrapf(errors.ErrNotFound, "probe result %s", probeID)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get probe result %s", probeID)
	}
	return &result, nil
}

// SaveAnalysis stores a fairness analysis keyed by event ID
func (s *ProbeStore) SaveAnalysis(ctx context.Context, analysis *fairness.Analysis) error {
	if err := s.client.Set(ctx, analysisKeyPrefix+analysis.EventID, analysis, s.ttl); err != nil {
		return errors.Wrapf(err, "save analysis for event %s", analysis.EventID)
	}
	return nil
}

// Analysis returns the stored analysis for an event ID
func (s *ProbeStore) Analysis(ctx context.Context, eventID string) (*fairness.Analysis, error) {
	var analysis fairness.Analysis
	err := s.client.Get(ctx, analysisKeyPrefix+eventID, &analysis)
	if err == goredis.Nil {
		return nil, errors.Wrapf(errors.ErrNotFound, "fairness analysis for event %s", eventID)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get analysis for event %s", eventID)
	}
	return &analysis, nil
}
