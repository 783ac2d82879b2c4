// File path: internal/api/pending_handler.go
package api

import (
	"errors"
	"net/http"

	chi "github.com/go-chi/chi/v5"

	"github.com/raglinehq/ragline/internal/ledger"
)

func (s *Server) handlePendingList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"pending": s.app.Approvals().Pending(),
	})
}

func (s *Server) handlePendingGet(w http.ResponseWriter, r *http.Request) {
	entry, err := s.app.Approvals().Get(chi.URLParam(r, "id"))
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// handlePendingApprove flips the entry to approved and immediately executes
// its statement; the result lands in the shared result-set cache slot.
func (s *Server) handlePendingApprove(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.app.Approvals().Approve(id); err != nil {
		writeLedgerError(w, err)
		return
	}
	outcome, err := s.app.SQL().ExecuteApproved(r.Context(), id)
	if err != nil {
		writePipelineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

func (s *Server) handlePendingReject(w http.ResponseWriter, r *http.Request) {
	entry, err := s.app.Approvals().Reject(chi.URLParam(r, "id"))
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func writeLedgerError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, ledger.ErrInvalidState):
		writeError(w, http.StatusConflict, err)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}
