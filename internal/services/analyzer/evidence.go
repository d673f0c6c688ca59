package analyzer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"

	"argus/internal/domain/chain"
	"argus/internal/domain/evidence"
	"argus/internal/domain/fairness"
	"argus/internal/domain/mev"
)

// rawBundle is the serialized form of the analysis inputs. Transactions and
// patterns are sorted before marshalling so the hash is stable regardless of
// input order.
type rawBundle struct {
	Transactions []chain.Transaction `json:"transactions"`
	Patterns     []mev.Pattern       `json:"patterns"`
}

// publishEvidence hashes the manifest and raw inputs deterministically and
// pushes the bundle to the sink. A publish failure degrades to hashes-only
// refs; it never fails the analysis.
func (a *Analyzer) publishEvidence(ctx context.Context, eventID string, txs []chain.Transaction, patterns []mev.Pattern, violationCount int) fairness.EvidenceRefs {
	manifest := evidence.Manifest{
		EventID: eventID,
		// Derived from the window, not wall-clock time, so identical inputs
		// hash identically
		Timestamp:        latestObserved(txs).UTC(),
		TransactionCount: len(txs),
		ViolationCount:   violationCount,
		MEVPatternCount:  len(patterns),
	}

	manifestHash, err := hashJSON(manifest)
	if err != nil {
		a.log.Error("Failed to hash evidence manifest", "event_id", eventID, "error", err)
		return fairness.EvidenceRefs{}
	}

	raw := rawBundle{
		Transactions: sortedTransactions(txs),
		Patterns:     sortedPatterns(patterns),
	}
	rawHash, err := hashJSON(raw)
	if err != nil {
		a.log.Error("Failed to hash raw evidence", "event_id", eventID, "error", err)
		return fairness.EvidenceRefs{ManifestHash: manifestHash}
	}

	refs := fairness.EvidenceRefs{
		ManifestHash: manifestHash,
		RawDataHash:  rawHash,
	}

	if a.sink == nil {
		return refs
	}

	bundle, err := json.Marshal(struct {
		Manifest evidence.Manifest `json:"manifest"`
		Raw      rawBundle         `json:"raw"`
	}{Manifest: manifest, Raw: raw})
	if err != nil {
		a.log.Error("Failed to serialize evidence bundle", "event_id", eventID, "error", err)
		return refs
	}

	uri, err := a.sink.Publish(ctx, bundle)
	if err != nil {
		a.log.Warn("Evidence publish failed, keeping hashes only", "event_id", eventID, "error", err)
		return refs
	}
	refs.ContentURI = uri
	return refs
}

func hashJSON(v interface{}) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

func sortedTransactions(txs []chain.Transaction) []chain.Transaction {
	out := make([]chain.Transaction, len(txs))
	copy(out, txs)
	sort.Slice(out, func(i, j int) bool { return out[i].Hash < out[j].Hash })
	return out
}

func sortedPatterns(patterns []mev.Pattern) []mev.Pattern {
	out := make([]mev.Pattern, len(patterns))
	copy(out, patterns)
	sort.Slice(out, func(i, j int) bool {
		ki := out[i].Key()
		kj := out[j].Key()
		return ki < kj
	})
	return out
}
