package api

import (
	"encoding/json"
	"net/http"

	"argus/internal/domain/probe"
	"argus/internal/monitor"
	"argus/internal/services/orchestrator"
	"argus/pkg/errors"
	"argus/pkg/logger"
)

// ProbeHandler exposes probe creation and result lookup
type ProbeHandler struct {
	orch *orchestrator.Orchestrator
	mon  *monitor.Monitor
	log  *logger.Logger
}

// NewProbeHandler creates the probe API handler
func NewProbeHandler(orch *orchestrator.Orchestrator, mon *monitor.Monitor) *ProbeHandler {
	return &ProbeHandler{
		orch: orch,
		mon:  mon,
		log:  logger.Get().With("component", "probe_api"),
	}
}

// HandleCreateProbe accepts a probe request and schedules execution
func (h *ProbeHandler) HandleCreateProbe(w http.ResponseWriter, r *http.Request) {
	var req probe.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.Wrap(errors.ErrInvalidRequest, err.Error()))
		return
	}

	probeID, err := h.orch.CreateProbe(r.Context(), &req)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{
		"probeId": probeID,
		"status":  string(probe.StatusCreated),
	})
}

type distributedRequest struct {
	Request     probe.Request `json:"request"`
	WorkerCount int           `json:"workerCount"`
}

// HandleDistributedProbe runs a distributed probe synchronously and returns
// the aggregated result
func (h *ProbeHandler) HandleDistributedProbe(w http.ResponseWriter, r *http.Request) {
	var req distributedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.Wrap(errors.ErrInvalidRequest, err.Error()))
		return
	}

	aggregated, err := h.orch.ExecuteDistributedProbe(r.Context(), &req.Request, req.WorkerCount)
	if err != nil && !errors.Is(err, errors.ErrAllWorkersFailed) {
		writeError(w, err)
		return
	}

	status := http.StatusOK
	if aggregated != nil && !aggregated.Success {
		status = http.StatusBadGateway
	}
	writeJSON(w, status, aggregated)
}

// HandleProbeResult returns a stored probe result, or the live status for a
// probe that has not finished yet
func (h *ProbeHandler) HandleProbeResult(w http.ResponseWriter, r *http.Request) {
	probeID := r.PathValue("probeId")

	result, err := h.orch.ProbeResult(r.Context(), probeID)
	if err == nil {
		writeJSON(w, http.StatusOK, result)
		return
	}
	if !errors.Is(err, errors.ErrNotFound) {
		writeError(w, err)
		return
	}

	// No stored result yet; the probe may still be running
	status, statusErr := h.orch.Status(probeID)
	if statusErr != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"probeId": probeID,
		"status":  string(status),
	})
}

// HandleAnalysis returns the stored fairness analysis for an event
func (h *ProbeHandler) HandleAnalysis(w http.ResponseWriter, r *http.Request) {
	analysis, err := h.orch.Analysis(r.Context(), r.PathValue("eventId"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, analysis)
}

// HandleMempoolStats returns the live monitoring statistics
func (h *ProbeHandler) HandleMempoolStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.mon.Stats())
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, errors.ErrInvalidRequest):
		status = http.StatusBadRequest
	case errors.Is(err, errors.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, errors.ErrDataUnavailable), errors.Is(err, errors.ErrChainNotConfigured):
		status = http.StatusBadGateway
	case errors.Is(err, errors.ErrTimeout):
		status = http.StatusGatewayTimeout
	}

	writeJSON(w, status, map[string]string{"error": err.Error()})
}
