package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	goredis "github.com/redis/go-redis/v9"

	redisadapter "argus/internal/adapters/redis"
	"argus/pkg/errors"
)

const evidenceKeyPrefix = "evidence:sha256:"

// EvidenceSink is a content-addressed evidence store on Redis. Blobs are
// keyed by their sha256 digest, so republishing identical evidence is
// idempotent and the returned URI is stable.
type EvidenceSink struct {
	client *redisadapter.Client
	ttl    time.Duration
}

// NewEvidenceSink creates a Redis-backed evidence sink
func NewEvidenceSink(client *redisadapter.Client, ttl time.Duration) *EvidenceSink {
	return &EvidenceSink{client: client, ttl: ttl}
}

// Publish stores the blob under its sha256 digest and returns its URI
func (s *EvidenceSink) Publish(ctx context.Context, data []byte) (string, error) {
	sum := sha256.Sum256(data)
	digest := hex.EncodeToString(sum[:])

	if err := s.client.SetBytes(ctx, evidenceKeyPrefix+digest, data, s.ttl); err != nil {
		return "", errors.Wrapf(errors.ErrPublishFailed, "store evidence blob: %v", err)
	}

	return "cas://sha256/" + digest, nil
}

// Get returns a stored blob by digest
func (s *EvidenceSink) Get(ctx context.Context, digest string) ([]byte, error) {
	data, err := s.client.GetBytes(ctx, evidenceKeyPrefix+digest)
	if err == goredis.Nil {
		return nil, errors.Wrapf(errors.ErrNotFound, "evidence blob %s", digest)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get evidence blob %s", digest)
	}
	return data, nil
}
