// File path: internal/api/cache_handler.go
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/raglinehq/ragline/internal/cache"
	"github.com/raglinehq/ragline/internal/common"
)

func (s *Server) handleCacheStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.app.Engine().Stats())
}

type invalidateRequest struct {
	Target string `json:"target"`
}

type invalidateResponse struct {
	Target  string `json:"target"`
	Deleted int    `json:"deleted"`
}

func (s *Server) handleCacheInvalidate(w http.ResponseWriter, r *http.Request) {
	var req invalidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}
	deleted, err := s.app.Invalidator().Invalidate(r.Context(), req.Target)
	if err != nil {
		if errors.Is(err, cache.ErrUnknownTier) {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		// Partial deletions still report what was removed.
		writeJSON(w, http.StatusBadGateway, map[string]interface{}{
			"error":   err.Error(),
			"deleted": deleted,
		})
		return
	}
	common.Logger().Info("api: cache invalidated", "target", req.Target, "deleted", deleted)
	writeJSON(w, http.StatusOK, invalidateResponse{Target: req.Target, Deleted: deleted})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	cachePing := "ok"
	if err := s.app.Engine().Store().Ping(r.Context()); err != nil {
		cachePing = err.Error()
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":       "ok",
		"capabilities": s.app.Capabilities(),
		"cache_ping":   cachePing,
	})
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"entries": common.LogEntries(),
	})
}
