// Package api implements the HTTP status surface consumed by the dashboard.
//
// Routes:
//
//	POST   /validate            → submit a problem statement, returns job_id
//	GET    /validate/{job_id}   → poll job status and result
//	GET    /problems            → list job summaries
//	DELETE /problems/{job_id}   → delete a job and its result
//	GET    /health              → liveness probe
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/NeoSkosana/AI-driven-PVS/internal/cache"
	"github.com/NeoSkosana/AI-driven-PVS/internal/events"
	"github.com/NeoSkosana/AI-driven-PVS/internal/jobstore"
	"github.com/NeoSkosana/AI-driven-PVS/internal/model"
	"github.com/NeoSkosana/AI-driven-PVS/internal/queue"
	"github.com/NeoSkosana/AI-driven-PVS/pkg/logging"
)

// ─── Handler ─────────────────────────────────────────────────────────────────

// Handler holds shared dependencies.
type Handler struct {
	store  jobstore.Store
	queue  queue.Queue
	cache  *cache.ResultCache // optional
	events *events.Publisher  // optional
	log    *logging.Logger
}

// NewHandler returns a configured Handler.
func NewHandler(store jobstore.Store, q queue.Queue, c *cache.ResultCache, ev *events.Publisher, log *logging.Logger) *Handler {
	return &Handler{
		store:  store,
		queue:  q,
		cache:  c,
		events: ev,
		log:    log.With("component", "StatusAPI"),
	}
}

// RegisterRoutes mounts all routes on mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/validate", h.handleValidate)
	mux.HandleFunc("/validate/", h.handleValidateByID)
	mux.HandleFunc("/problems", h.handleProblems)
	mux.HandleFunc("/problems/", h.handleProblemByID)
}

// ─── Route dispatch ───────────────────────────────────────────────────────────

// handleValidate handles POST /validate
func (h *Handler) handleValidate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonError(w, "method_not_allowed", "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	h.submitProblem(w, r)
}

// handleValidateByID handles GET /validate/{job_id}
func (h *Handler) handleValidateByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonError(w, "method_not_allowed", "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	jobID, ok := pathID(r.URL.Path, "/validate/")
	if !ok {
		jsonError(w, "not_found", "invalid path", http.StatusNotFound)
		return
	}
	h.getJob(w, r, jobID)
}

// handleProblems handles GET /problems
func (h *Handler) handleProblems(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonError(w, "method_not_allowed", "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	h.listProblems(w, r)
}

// handleProblemByID handles DELETE /problems/{job_id}
func (h *Handler) handleProblemByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		jsonError(w, "method_not_allowed", "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	jobID, ok := pathID(r.URL.Path, "/problems/")
	if !ok {
		jsonError(w, "not_found", "invalid path", http.StatusNotFound)
		return
	}
	h.deleteProblem(w, r, jobID)
}

// ─── Individual handlers ──────────────────────────────────────────────────────

func (h *Handler) submitProblem(w http.ResponseWriter, r *http.Request) {
	var problem model.ProblemStatement
	if err := json.NewDecoder(r.Body).Decode(&problem); err != nil {
		jsonError(w, "bad_request", "invalid JSON body", http.StatusBadRequest)
		return
	}
	if err := problem.Validate(); err != nil {
		jsonError(w, "bad_request", err.Error(), http.StatusBadRequest)
		return
	}

	job, err := h.store.Create(r.Context(), problem)
	if err != nil {
		h.log.Error("create job failed", "err", err)
		jsonError(w, "internal", "could not create validation job", http.StatusInternalServerError)
		return
	}

	if err := h.queue.Enqueue(r.Context(), job.ID); err != nil {
		// The record exists but will never run; surface the failure rather
		// than leaving the caller polling a dead job.
		h.log.Error("enqueue failed", "job_id", job.ID, "err", err)
		if _, delErr := h.store.Delete(r.Context(), job.ID); delErr != nil {
			h.log.Error("cleanup after enqueue failure failed", "job_id", job.ID, "err", delErr)
		}
		jsonError(w, "internal", "could not queue validation job", http.StatusInternalServerError)
		return
	}

	if h.events != nil {
		h.events.Publish(r.Context(), events.EventJobQueued, job.ID, nil)
	}

	h.log.Info("job submitted", "job_id", job.ID, "title", problem.Title)
	writeJSON(w, http.StatusAccepted, map[string]string{
		"job_id": job.ID,
		"status": string(job.Status),
	})
}

func (h *Handler) getJob(w http.ResponseWriter, r *http.Request, jobID string) {
	// Completed results are immutable — serve the cache when it has them.
	if h.cache != nil {
		if result, ok := h.cache.Get(r.Context(), jobID); ok {
			writeJSON(w, http.StatusOK, map[string]any{
				"job_id": jobID,
				"status": string(jobstore.StatusCompleted),
				"result": result,
			})
			return
		}
	}

	job, err := h.store.Get(r.Context(), jobID)
	if errors.Is(err, jobstore.ErrNotFound) {
		jsonError(w, "not_found", "validation job not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.log.Error("get job failed", "job_id", jobID, "err", err)
		jsonError(w, "internal", "could not load validation job", http.StatusInternalServerError)
		return
	}

	body := map[string]any{
		"job_id":     job.ID,
		"status":     string(job.Status),
		"created_at": job.CreatedAt,
	}
	if job.CompletedAt != nil {
		body["completed_at"] = job.CompletedAt
	}
	if job.Result != nil {
		body["result"] = job.Result
		if h.cache != nil {
			h.cache.Set(r.Context(), job.ID, job.Result)
		}
	}
	if job.Error != nil {
		body["error"] = job.Error
	}
	writeJSON(w, http.StatusOK, body)
}

func (h *Handler) listProblems(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.store.List(r.Context())
	if err != nil {
		h.log.Error("list jobs failed", "err", err)
		jsonError(w, "internal", "could not list validation jobs", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (h *Handler) deleteProblem(w http.ResponseWriter, r *http.Request, jobID string) {
	deleted, err := h.store.Delete(r.Context(), jobID)
	if err != nil {
		h.log.Error("delete job failed", "job_id", jobID, "err", err)
		jsonError(w, "internal", "could not delete validation job", http.StatusInternalServerError)
		return
	}
	if !deleted {
		jsonError(w, "not_found", "validation job not found", http.StatusNotFound)
		return
	}

	if h.cache != nil {
		h.cache.Delete(r.Context(), jobID)
	}

	h.log.Info("job deleted", "job_id", jobID)
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted", "job_id": jobID})
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

func pathID(path, prefix string) (string, bool) {
	id := strings.TrimPrefix(path, prefix)
	if id == "" || strings.Contains(id, "/") {
		return "", false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, kind, msg string, code int) {
	writeJSON(w, code, map[string]any{
		"error": map[string]string{"kind": kind, "message": msg},
	})
}
