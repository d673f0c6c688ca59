package probe

import (
	"context"

	"argus/internal/domain/fairness"
)

// Store persists probe results and fairness analyses.
// Backed by Redis in production, memory in tests.
type Store interface {
	SaveResult(ctx context.Context, result *Result) error
	Result(ctx context.Context, probeID string) (*Result, error)

	SaveAnalysis(ctx context.Context, analysis *fairness.Analysis) error
	Analysis(ctx context.Context, eventID string) (*fairness.Analysis, error)
}
