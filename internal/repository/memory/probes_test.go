package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"argus/internal/domain/fairness"
	"argus/internal/domain/probe"
	"argus/pkg/errors"
)

func TestProbeStore_Results(t *testing.T) {
	s := NewProbeStore()
	ctx := context.Background()

	_, err := s.Result(ctx, "missing")
	assert.True(t, errors.Is(err, errors.ErrNotFound))

	result := &probe.Result{ProbeID: "probe-1", EventID: "event-1", Success: true}
	require.NoError(t, s.SaveResult(ctx, result))

	got, err := s.Result(ctx, "probe-1")
	require.NoError(t, err)
	assert.Equal(t, "event-1", got.EventID)
	assert.True(t, got.Success)
}

func TestProbeStore_Analyses(t *testing.T) {
	s := NewProbeStore()
	ctx := context.Background()

	_, err := s.Analysis(ctx, "missing")
	assert.True(t, errors.Is(err, errors.ErrNotFound))

	analysis := &fairness.Analysis{EventID: "event-1", OverallScore: 87.5}
	require.NoError(t, s.SaveAnalysis(ctx, analysis))

	got, err := s.Analysis(ctx, "event-1")
	require.NoError(t, err)
	assert.Equal(t, 87.5, got.OverallScore)
}

func TestEvidenceSink_ContentAddressed(t *testing.T) {
	s := NewEvidenceSink()
	ctx := context.Background()

	uri1, err := s.Publish(ctx, []byte(`{"eventId":"e1"}`))
	require.NoError(t, err)
	assert.Contains(t, uri1, "cas://sha256/")

	// Identical bytes publish to the identical URI
	uri2, err := s.Publish(ctx, []byte(`{"eventId":"e1"}`))
	require.NoError(t, err)
	assert.Equal(t, uri1, uri2)

	uri3, err := s.Publish(ctx, []byte(`{"eventId":"e2"}`))
	require.NoError(t, err)
	assert.NotEqual(t, uri1, uri3)
}
