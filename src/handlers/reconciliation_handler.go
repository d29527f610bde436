package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"os"

	"github.com/username/riconcilia/src/logger"
	"github.com/username/riconcilia/src/security/validation"
	"github.com/username/riconcilia/src/services"
)

type ReconciliationHandler struct {
	service         services.ReconciliationService
	inputRoot       string
	maxRequestBytes int64
}

func NewReconciliationHandler(service services.ReconciliationService, inputRoot string, maxRequestBytes int64) *ReconciliationHandler {
	return &ReconciliationHandler{
		service:         service,
		inputRoot:       inputRoot,
		maxRequestBytes: maxRequestBytes,
	}
}

type runRequest struct {
	InputDir string `json:"input_dir"`
}

// HandleRun runs a reconciliation over a directory below the configured input root.
func (h *ReconciliationHandler) HandleRun(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxRequestBytes)
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	var req runRequest
	if err := decoder.Decode(&req); err != nil {
		logger.WarnFromContext(r.Context(), "Invalid reconciliation request body", "error", err)
		sendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	dir, err := validation.ResolveWithinRoot(h.inputRoot, req.InputDir, "input_dir")
	if err != nil {
		logger.WarnFromContext(r.Context(), "Rejected input directory", "inputDir", req.InputDir, "error", err)
		sendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if info, statErr := os.Stat(dir); statErr != nil || !info.IsDir() {
		logger.WarnFromContext(r.Context(), "Input directory not found", "inputDir", dir, "error", statErr)
		sendJSONError(w, "input_dir is not an existing directory", http.StatusBadRequest)
		return
	}

	runID, _ := GetRequestIDFromContext(r.Context())
	result, err := h.service.Run(r.Context(), services.RunConfig{InputDir: dir, RunID: runID})
	switch {
	case err == nil:
		logger.InfoFromContext(r.Context(), "Reconciliation run completed",
			"inputDir", dir, "installations", result.InstallationsProcessed, "skipped", len(result.SkippedPOSCodes))
		sendJSON(w, http.StatusOK, result)
	case errors.Is(err, services.ErrRunInProgress):
		sendJSONError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, services.ErrTheoreticalExportMissing), errors.Is(err, services.ErrNoTheoreticalData):
		logger.WarnFromContext(r.Context(), "Reconciliation precondition failed", "inputDir", dir, "error", err)
		sendJSONError(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		logger.ErrorFromContext(r.Context(), "Reconciliation run failed", "inputDir", dir, "error", err)
		sendJSONError(w, "Reconciliation failed", http.StatusInternalServerError)
	}
}

// NewHealthHandler reports whether the report store answers.
func NewHealthHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			logger.ErrorFromContext(r.Context(), "Health check failed", "error", err)
			sendJSONError(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		sendJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
