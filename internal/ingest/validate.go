// File path: internal/ingest/validate.go
package ingest

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// maxFileSize caps upload payloads at 50 MB.
const maxFileSize = 50 * 1024 * 1024

var allowedExtensions = map[string]string{
	".txt":  "text/plain",
	".md":   "text/markdown",
	".csv":  "text/csv",
	".json": "application/json",
	".log":  "text/plain",
	".pdf":  "application/pdf",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".doc":  "application/msword",
}

// ValidateFile rejects uploads with unsupported extensions or oversized
// payloads before any parsing work starts.
func ValidateFile(filename string, size int64) error {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		return fmt.Errorf("file %q has no extension", filename)
	}
	if _, ok := allowedExtensions[ext]; !ok {
		return fmt.Errorf("file type %s not supported (allowed: %s)", ext, strings.Join(sortedExtensions(), ", "))
	}
	if size > maxFileSize {
		return fmt.Errorf("file too large: %d bytes (maximum %d)", size, maxFileSize)
	}
	return nil
}

func sortedExtensions() []string {
	out := make([]string, 0, len(allowedExtensions))
	for ext := range allowedExtensions {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}
