// File path: internal/api/ingest_handler.go
package api

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/raglinehq/ragline/internal/common"
)

// maxMemory bounds how much of a multipart upload stays in memory.
const maxMemory = 64 << 20

func (s *Server) handleIngestUpload(w http.ResponseWriter, r *http.Request) {
	logger := common.Logger()
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		logger.Warn("api: ingest upload form parse failed", "error", err)
		writeError(w, http.StatusBadRequest, fmt.Errorf("failed to parse upload form: %w", err))
		return
	}
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("missing file field: %w", err))
		return
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Errorf("read upload: %w", err))
		return
	}

	filename := strings.TrimSpace(header.Filename)
	result, err := s.app.Ingestor().Ingest(r.Context(), filename, raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	logger.Info("api: document ingested", "filename", filename, "content_hash", result.ContentHash, "reused", result.ArtifactReused)
	writeJSON(w, http.StatusOK, result)
}
