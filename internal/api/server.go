// File path: internal/api/server.go
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	chi "github.com/go-chi/chi/v5"

	"github.com/raglinehq/ragline/internal/app"
	"github.com/raglinehq/ragline/internal/common"
)

type Server struct {
	router chi.Router
	app    *app.App
}

func NewServer(application *app.App) (*Server, error) {
	if application == nil {
		return nil, fmt.Errorf("application container required")
	}
	srv := &Server{
		router: chi.NewRouter(),
		app:    application,
	}
	srv.routes()
	common.Logger().Info("api: server ready", "capabilities", application.Capabilities())
	return srv, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	logger := common.Logger()
	logger.Info("api: configuring routes")
	s.router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			logger.Debug("request", "method", r.Method, "path", r.URL.Path, "dur", time.Since(start), "remote", r.RemoteAddr)
		})
	})

	s.router.Get("/healthz", s.handleHealth)

	s.router.Post("/v1/query", s.handleQuery)
	s.router.Post("/v1/ingest/upload", s.handleIngestUpload)
	s.router.Get("/v1/cache/stats", s.handleCacheStats)
	s.router.Post("/v1/cache/invalidate", s.handleCacheInvalidate)
	s.router.Get("/v1/pending", s.handlePendingList)
	s.router.Get("/v1/pending/{id}", s.handlePendingGet)
	s.router.Post("/v1/pending/{id}/approve", s.handlePendingApprove)
	s.router.Post("/v1/pending/{id}/reject", s.handlePendingReject)
	s.router.Get("/v1/logs", s.handleLogs)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	logger := common.Logger()
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "status", status, "error", err)
	} else {
		logger.Warn("request failed", "status", status, "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
