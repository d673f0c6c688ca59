package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"argus/internal/adapters/config"
	"argus/internal/detector"
	"argus/internal/domain/chain"
	"argus/internal/domain/fairness"
	"argus/internal/events"
	"argus/internal/monitor"
	"argus/internal/repository/memory"
	"argus/internal/services/analyzer"
	"argus/internal/services/orchestrator"
)

type stubReader struct {
	latest uint64
}

func (r *stubReader) LatestBlockNumber(ctx context.Context, chainName string) (uint64, error) {
	return r.latest, nil
}

func (r *stubReader) BlockByNumber(ctx context.Context, chainName string, number uint64) (*chain.Block, error) {
	return &chain.Block{Number: number, Timestamp: time.Unix(int64(number), 0)}, nil
}

func newTestHandler() (*ProbeHandler, *memory.TxWindow) {
	reader := &stubReader{latest: 150}
	window := memory.NewTxWindow()
	patterns := memory.NewPatternStore()
	det := detector.New(window, patterns, nil)
	bus := events.NewBus()

	monCfg := config.MonitorConfig{
		ChainRPC:     map[string]string{"ethereum": "http://localhost:8545"},
		PollInterval: time.Hour,
	}
	mon := monitor.New(monCfg, reader, window, det, bus, nil)

	anl := analyzer.New(reader, memory.NewEvidenceSink(), fairness.DefaultThresholds)
	orch := orchestrator.New(config.ProbeConfig{
		Deadline:         10 * time.Second,
		DefaultBlockSpan: 100,
		NodeLocation:     "test",
		MaxSampleSize:    1000,
	}, reader, window, det, anl, memory.NewProbeStore(), nil, nil)

	return NewProbeHandler(orch, mon), window
}

func newTestMux(h *ProbeHandler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /probes", h.HandleCreateProbe)
	mux.HandleFunc("POST /probes/distributed", h.HandleDistributedProbe)
	mux.HandleFunc("GET /probes/{probeId}", h.HandleProbeResult)
	mux.HandleFunc("GET /analyses/{eventId}", h.HandleAnalysis)
	mux.HandleFunc("GET /mempool/stats", h.HandleMempoolStats)
	return mux
}

func seedWindow(w *memory.TxWindow, count int) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < count; i++ {
		w.Insert("ethereum", chain.Transaction{
			Hash:        fmt.Sprintf("0x%03d", i),
			From:        fmt.Sprintf("0xwallet%03d", i),
			To:          "0xmint",
			Nonce:       uint64(i),
			GasPrice:    uint64(1000 + i),
			BlockNumber: 145,
			ObservedAt:  base.Add(time.Duration(i) * 5 * time.Second),
		})
	}
}

const probeBody = `{
	"eventId": "event-1",
	"eventType": "token_launch",
	"chain": "ethereum",
	"contractAddress": "0xmint",
	"probeConfig": {"mevDetection": true, "botDetection": true, "timingAnalysis": true}
}`

func TestProbeAPI_CreateAndFetch(t *testing.T) {
	h, window := newTestHandler()
	seedWindow(window, 10)
	mux := newTestMux(h)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/probes", strings.NewReader(probeBody)))
	require.Equal(t, http.StatusAccepted, rec.Code)

	var created map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	probeID := created["probeId"]
	require.NotEmpty(t, probeID)

	require.Eventually(t, func() bool {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/probes/"+probeID, nil))
		if rec.Code != http.StatusOK {
			return false
		}
		var result map[string]interface{}
		if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
			return false
		}
		success, ok := result["success"].(bool)
		return ok && success
	}, 5*time.Second, 20*time.Millisecond)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/analyses/event-1", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var analysis fairness.Analysis
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &analysis))
	assert.Equal(t, "event-1", analysis.EventID)
	assert.Equal(t, 10, analysis.TotalParticipants)
}

func TestProbeAPI_CreateRejectsInvalid(t *testing.T) {
	h, _ := newTestHandler()
	mux := newTestMux(h)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/probes", strings.NewReader(`{"chain":"ethereum"}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/probes", strings.NewReader(`not json`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProbeAPI_UnknownProbeAndAnalysis(t *testing.T) {
	h, _ := newTestHandler()
	mux := newTestMux(h)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/probes/unknown", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/analyses/unknown", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProbeAPI_DistributedProbe(t *testing.T) {
	h, window := newTestHandler()
	seedWindow(window, 10)
	mux := newTestMux(h)

	body := `{"request": ` + probeBody + `, "workerCount": 2}`
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/probes/distributed", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code)

	var agg map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &agg))
	assert.Equal(t, true, agg["success"])
	assert.Equal(t, float64(2), agg["workerCount"])
	assert.Equal(t, float64(1), agg["consensus"])
}

func TestProbeAPI_MempoolStats(t *testing.T) {
	h, window := newTestHandler()
	seedWindow(window, 3)
	mux := newTestMux(h)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/mempool/stats", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var stats monitor.MempoolStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 3, stats.TransactionCount)
	assert.False(t, stats.IsMonitoring)
	assert.Equal(t, []string{"ethereum"}, stats.Chains)
}
