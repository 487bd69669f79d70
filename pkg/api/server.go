package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/kunnath/RobotBrowser/pkg/logging"
	"github.com/kunnath/RobotBrowser/pkg/metrics"
	"github.com/kunnath/RobotBrowser/pkg/models"
	"github.com/kunnath/RobotBrowser/pkg/runner"
	"github.com/kunnath/RobotBrowser/pkg/store"
)

// RunRequest is the submission payload. Headless and CopyScreenshots
// are pointers so an omitted field keeps the job default (both true).
type RunRequest struct {
	URL             string `json:"url"`
	Task            string `json:"task"`
	Password        string `json:"password,omitempty"`
	Headless        *bool  `json:"headless,omitempty"`
	CopyScreenshots *bool  `json:"copy_screenshots,omitempty"`
}

// Handler serves the automation API on top of a single runner
type Handler struct {
	runner    *runner.Runner
	store     store.Store
	collector *metrics.Collector
	log       *logging.Logger
}

// NewHandler creates a new API handler
func NewHandler(r *runner.Runner, s store.Store) *Handler {
	return &Handler{
		runner: r,
		store:  s,
		log:    logging.NewLogger(logging.INFO),
	}
}

// SetCollector attaches a metrics collector; submissions and consumed
// outcomes are counted through it
func (h *Handler) SetCollector(c *metrics.Collector) {
	h.collector = c
}

// SetLogger replaces the handler's logger
func (h *Handler) SetLogger(l *logging.Logger) {
	if l != nil {
		h.log = l
	}
}

// RegisterRoutes registers all API routes
func (h *Handler) RegisterRoutes(r *mux.Router) {
	// Current-run routes (register specific routes before parameterized routes)
	r.HandleFunc("/runs/current", h.CurrentRun).Methods("GET")
	r.HandleFunc("/runs/current/status", h.DrainStatus).Methods("GET")
	r.HandleFunc("/runs/current/outcome", h.PollOutcome).Methods("GET")
	r.HandleFunc("/runs/current/artifacts", h.ListArtifacts).Methods("GET")

	// Run routes
	r.HandleFunc("/runs", h.SubmitRun).Methods("POST")
	r.HandleFunc("/runs", h.ListRuns).Methods("GET")
	r.HandleFunc("/runs/{id}", h.GetRun).Methods("GET")
	r.HandleFunc("/runs/{id}", h.DeleteRun).Methods("DELETE")

	// Other routes
	r.HandleFunc("/health", h.Health).Methods("GET")
	if h.collector != nil {
		r.Handle("/metrics", h.collector).Methods("GET")
	}
}

// SubmitRun accepts a new automation run when the slot is free
func (h *Handler) SubmitRun(w http.ResponseWriter, r *http.Request) {
	var req RunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.URL == "" || req.Task == "" {
		http.Error(w, "url and task are required", http.StatusBadRequest)
		return
	}

	job := models.NewJob(req.URL, req.Task)
	job.Credential = req.Password
	if req.Headless != nil {
		job.Headless = *req.Headless
	}
	if req.CopyScreenshots != nil {
		job.CopyScratch = *req.CopyScreenshots
	}

	if !h.runner.Submit(job) {
		if h.collector != nil {
			h.collector.RecordSubmissionRejected()
		}
		http.Error(w, "A run is already in progress", http.StatusConflict)
		return
	}
	if h.collector != nil {
		h.collector.RecordSubmissionAccepted()
	}

	h.log.Info("run submitted", map[string]interface{}{"run_id": job.RunID, "url": job.TargetURL})

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "accepted",
		"run_id":  job.RunID,
		"run_dir": job.RunDir,
	})
}

// CurrentRun returns a snapshot of the most recently accepted run
func (h *Handler) CurrentRun(w http.ResponseWriter, r *http.Request) {
	job := h.runner.Current()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"running": h.runner.IsRunning(),
		"job":     job,
	})
}

// DrainStatus returns every progress event queued since the last call
func (h *Handler) DrainStatus(w http.ResponseWriter, r *http.Request) {
	events := []models.ProgressEvent{}
	for {
		ev, ok := h.runner.PollStatus()
		if !ok {
			break
		}
		events = append(events, ev)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"events":  events,
		"count":   len(events),
		"running": h.runner.IsRunning(),
	})
}

// PollOutcome returns the oldest unconsumed outcome, or a null outcome
// when none is queued
func (h *Handler) PollOutcome(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	out, ok := h.runner.PollOutcome()
	if !ok {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"outcome": nil,
			"running": h.runner.IsRunning(),
		})
		return
	}

	if h.collector != nil {
		h.collector.RecordArtifacts(len(out.Artifacts))
		if out.ReportPath != "" {
			if out.Failed() {
				h.collector.RecordErrorReport()
			} else {
				h.collector.RecordReportWritten()
			}
		}
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"outcome": out,
		"running": h.runner.IsRunning(),
	})
}

// ListArtifacts rescans the current run directory and returns the manifest
func (h *Handler) ListArtifacts(w http.ResponseWriter, r *http.Request) {
	manifest := h.runner.CollectArtifacts()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"artifacts": manifest,
		"count":     len(manifest),
	})
}

// ListRuns returns run history, newest first. The limit query parameter
// caps the result; zero or absent means all runs.
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			http.Error(w, "limit must be a non-negative integer", http.StatusBadRequest)
			return
		}
		limit = n
	}

	runs, err := h.store.ListRuns(limit)
	if err != nil {
		h.log.Error("failed to list runs", map[string]interface{}{"error": err.Error()})
		http.Error(w, "Failed to list runs", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"runs":  runs,
		"count": len(runs),
	})
}

// getRunByAnyID retrieves a history record by run directory name or by
// record UUID
func (h *Handler) getRunByAnyID(id string) (*models.RunRecord, error) {
	rec, err := h.store.GetRunByRunID(id)
	if err == store.ErrRunNotFound {
		return h.store.GetRun(id)
	}
	return rec, err
}

// GetRun retrieves a specific run record
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id := vars["id"]

	rec, err := h.getRunByAnyID(id)
	if err != nil {
		if err == store.ErrRunNotFound {
			http.Error(w, "Run not found", http.StatusNotFound)
			return
		}
		h.log.Error("failed to get run", map[string]interface{}{"id": id, "error": err.Error()})
		http.Error(w, "Failed to get run", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(rec)
}

// DeleteRun removes a run record from history. Files on disk are left
// alone; the retention sweeper owns those.
func (h *Handler) DeleteRun(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id := vars["id"]

	rec, err := h.getRunByAnyID(id)
	if err != nil {
		if err == store.ErrRunNotFound {
			http.Error(w, "Run not found", http.StatusNotFound)
			return
		}
		h.log.Error("failed to get run", map[string]interface{}{"id": id, "error": err.Error()})
		http.Error(w, "Failed to get run", http.StatusInternalServerError)
		return
	}

	if err := h.store.DeleteRun(rec.ID); err != nil {
		h.log.Error("failed to delete run", map[string]interface{}{"id": rec.ID, "error": err.Error()})
		http.Error(w, "Failed to delete run", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status": "deleted",
		"id":     rec.ID,
	})
}

// Health returns the service health status
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "healthy",
		"running": h.runner.IsRunning(),
	})
}
