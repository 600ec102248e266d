package main

import (
	"encoding/json"
	"errors"
	"net/http"

	syncpkg "github.com/nualapos/backend/internal/sync"
	"github.com/nualapos/backend/internal/sync/queue"
	"github.com/nualapos/backend/internal/sync/scheduler"
)

// handler serves the daemon's localhost status and trigger endpoints.
type handler struct {
	coord   *syncpkg.Coordinator
	queue   *queue.Queue
	sched   *scheduler.Scheduler
	session scheduler.Session
}

func newHandler(coord *syncpkg.Coordinator, q *queue.Queue, sched *scheduler.Scheduler, session scheduler.Session) *handler {
	return &handler{coord: coord, queue: q, sched: sched, session: session}
}

func (h *handler) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/health", h.health)
	mux.HandleFunc("/sync/status", h.status)
	mux.HandleFunc("/sync/now", h.syncNow)
	mux.HandleFunc("/sync/online", h.setOnline)
	mux.HandleFunc("/sync/retry", h.retryFailed)
	return mux
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, map[string]any{"status": "ok", "service": "nualapos-syncd"})
}

// status handles GET /sync/status: coordinator state plus queue statistics.
func (h *handler) status(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	orgID := h.session.CurrentOrganization()
	status := h.coord.Status(orgID)

	response := map[string]any{
		"is_syncing":         status.IsSyncing,
		"pending_operations": status.PendingOperations,
		"is_online":          h.sched.IsOnline(),
		"queue_stats":        h.queue.Stats(orgID),
	}
	if status.LastSyncTime != nil {
		response["last_sync"] = status.LastSyncTime.Unix()
	}
	writeJSON(w, response)
}

// syncNow handles POST /sync/now: an explicit "sync now" from the UI.
func (h *handler) syncNow(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	report, err := h.coord.SyncAll(r.Context(), h.session.CurrentUser(), h.session.CurrentOrganization())
	if err != nil {
		if errors.Is(err, syncpkg.ErrSyncInProgress) {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		http.Error(w, "Sync failed: "+err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]any{
		"status":     "success",
		"total":      report.TotalOperations,
		"successful": report.Successful,
		"failed":     report.Failed,
		"errors":     report.Errors,
	})
}

// setOnline handles POST /sync/online: the platform's connectivity events
// are delivered here by the shell application.
func (h *handler) setOnline(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var request struct {
		Online bool `json:"online"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	h.sched.SetOnline(request.Online)
	writeJSON(w, map[string]any{"status": "success", "online": request.Online})
}

// retryFailed handles POST /sync/retry: resets permanently failed queue
// items for another round after manual intervention.
func (h *handler) retryFailed(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	count, err := h.queue.RetryFailed(h.session.CurrentOrganization())
	if err != nil {
		http.Error(w, "Retry reset failed: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]any{"status": "success", "reset": count})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
