// File path: internal/api/query_handler.go
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/raglinehq/ragline/internal/pipeline"
	"github.com/raglinehq/ragline/internal/safety"
)

type queryRequest struct {
	Question string `json:"question"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}
	question, err := safety.ValidateQuestion(req.Question)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	response, err := s.app.Dispatcher().Dispatch(r.Context(), question)
	if err != nil {
		writePipelineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, response)
}

// writePipelineError maps the pipeline error taxonomy to HTTP statuses and
// keeps the kind and suggestion machine-readable in the body.
func writePipelineError(w http.ResponseWriter, err error) {
	var classified *pipeline.Error
	if !errors.As(err, &classified) {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	status := http.StatusInternalServerError
	switch classified.Kind {
	case pipeline.KindValidation:
		status = http.StatusBadRequest
	case pipeline.KindUnsafeStatement:
		status = http.StatusUnprocessableEntity
	case pipeline.KindNotFound:
		status = http.StatusNotFound
	case pipeline.KindInvalidPendingState:
		status = http.StatusConflict
	case pipeline.KindTimeout:
		status = http.StatusGatewayTimeout
	}
	writeJSON(w, status, classified)
}
