// SPDX-License-Identifier: MIT

package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/soleks/botvar/internal/log"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"sessionId": s.store.SessionID(),
		"remote":    s.store.RemoteAvailable(),
		"settings":  s.store.Len(),
	})
}

func (s *Server) handleListSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.All())
}

func (s *Server) handleGetSetting(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	value, ok := s.store.Lookup(key)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown setting")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"key": key, "value": value})
}

func (s *Server) handlePutSetting(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	var body struct {
		Value *string `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Value == nil {
		writeError(w, http.StatusBadRequest, "body must be {\"value\": \"...\"}")
		return
	}

	if ok := s.store.Set(r.Context(), key, *body.Value); !ok {
		writeError(w, http.StatusBadGateway, "setting cached but not persisted")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"key": key, "value": *body.Value})
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Reload(); err != nil {
		log.FromContext(r.Context()).Error().Err(err).Msg("manual reload failed")
		writeError(w, http.StatusInternalServerError, "reload failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "reloaded", "settings": s.store.Len()})
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	if !s.store.RemoteAvailable() {
		writeError(w, http.StatusConflict, "remote sync not configured")
		return
	}
	if err := s.store.SyncFromRemote(r.Context()); err != nil {
		log.FromContext(r.Context()).Error().Err(err).Msg("manual sync failed")
		writeError(w, http.StatusBadGateway, "sync failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "synced"})
}

// handleTieredRestart starts the multi-tier restart attempt: control
// endpoint, then dyno recycle, then process termination.
func (s *Server) handleTieredRestart(w http.ResponseWriter, r *http.Request) {
	if s.restarter == nil {
		writeError(w, http.StatusConflict, "restarter not configured")
		return
	}
	// Detach from the request context: the tiers outlive this request.
	s.restarter.Trigger(context.WithoutCancel(r.Context()))
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "restart scheduled"})
}

// handleRestart acknowledges the restart request, then signals the
// process to shut down so the supervisor relaunches it. The 202 must be
// on the wire before the shutdown starts, hence the deferred call.
func (s *Server) handleRestart(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).Info().Msg("restart requested via control endpoint")
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "restarting"})
	if s.shutdown != nil {
		go s.shutdown()
	}
}
