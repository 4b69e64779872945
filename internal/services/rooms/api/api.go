// Package api exposes the rooms REST surface.
//
// The service is a dumb shared blackboard: GET returns the record, POST
// merges the posted fields over whatever is stored, DELETE clears it. All
// game rules live client-side; the only server-side semantics are the merge
// and the timestamps.
package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/louisbranch/darkwater/internal/services/rooms/domain/room"
	"github.com/louisbranch/darkwater/internal/services/rooms/storage"
)

// Handler serves the rooms routes.
type Handler struct {
	store storage.Store
	now   func() time.Time
}

// NewHandler returns a handler backed by store.
func NewHandler(store storage.Store) *Handler {
	return &Handler{store: store, now: time.Now}
}

// RegisterRoutes wires the rooms routes into the provided mux.
func RegisterRoutes(mux *http.ServeMux, h *Handler) {
	if mux == nil || h == nil {
		return
	}
	mux.HandleFunc("GET /api/health", h.handleHealth)
	mux.HandleFunc("GET /api/rooms/{code}", h.handleGet)
	mux.HandleFunc("POST /api/rooms/{code}", h.handlePost)
	mux.HandleFunc("DELETE /api/rooms/{code}", h.handleDelete)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	code, ok := h.roomCode(w, r)
	if !ok {
		return
	}

	rec, err := h.store.Get(r.Context(), code)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "room not found")
		return
	}
	if err != nil {
		log.Printf("get room %s: %v", code, err)
		writeError(w, http.StatusInternalServerError, "storage error")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *Handler) handlePost(w http.ResponseWriter, r *http.Request) {
	code, ok := h.roomCode(w, r)
	if !ok {
		return
	}

	var update room.Record
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		writeError(w, http.StatusBadRequest, "invalid record body")
		return
	}
	// The path is authoritative for the code.
	update.RoomCode = code

	base, err := h.store.Get(r.Context(), code)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		log.Printf("read room %s for merge: %v", code, err)
		writeError(w, http.StatusInternalServerError, "storage error")
		return
	}

	merged := room.Merge(base, update)
	nowMillis := h.now().UTC().UnixMilli()
	if merged.CreatedAt == 0 {
		merged.CreatedAt = nowMillis
	}
	merged.UpdatedAt = nowMillis

	if err := h.store.Put(r.Context(), merged); err != nil {
		log.Printf("put room %s: %v", code, err)
		writeError(w, http.StatusInternalServerError, "storage error")
		return
	}
	writeJSON(w, http.StatusOK, merged)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	code, ok := h.roomCode(w, r)
	if !ok {
		return
	}

	if err := h.store.Delete(r.Context(), code); err != nil {
		log.Printf("delete room %s: %v", code, err)
		writeError(w, http.StatusInternalServerError, "storage error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) roomCode(w http.ResponseWriter, r *http.Request) (string, bool) {
	code := strings.ToUpper(r.PathValue("code"))
	if err := room.ValidateCode(code); err != nil {
		writeError(w, http.StatusBadRequest, "invalid room code")
		return "", false
	}
	return code, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
