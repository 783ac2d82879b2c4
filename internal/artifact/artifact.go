// File path: internal/artifact/artifact.go
package artifact

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/raglinehq/ragline/internal/fingerprint"
)

// ErrNotFound reports that no artifact exists for a content hash.
var ErrNotFound = errors.New("artifact: not found")

// Chunk is one parsed slice of a document, stored alongside its position so
// downstream consumers can reconstruct provenance without re-parsing.
type Chunk struct {
	Text       string `json:"text"`
	Index      int    `json:"index"`
	TokenCount int    `json:"token_count"`
	CharStart  int    `json:"char_start"`
	CharEnd    int    `json:"char_end"`
}

// Metadata describes the upload that produced an artifact. Filename records
// the first name the content arrived under; identical bytes under a new name
// reuse the stored artifact.
type Metadata struct {
	Filename     string        `json:"filename"`
	ByteSize     int64         `json:"byte_size"`
	IngestedAt   time.Time     `json:"ingested_at"`
	Processing   time.Duration `json:"processing_ns"`
	Parser       string        `json:"parser"`
	ChunkCount   int           `json:"chunk_count"`
	EmbedModel   string        `json:"embed_model,omitempty"`
	VectorLength int           `json:"vector_length,omitempty"`
}

// Record is the full parse product for one content hash. Vectors is parallel
// to Chunks. Artifacts have no TTL; identical bytes always map to the same
// record.
type Record struct {
	ContentHash string      `json:"content_hash"`
	Chunks      []Chunk     `json:"chunks"`
	Vectors     [][]float32 `json:"vectors"`
	Metadata    Metadata    `json:"metadata"`
}

// HashContent derives the content address for raw upload bytes.
func HashContent(raw []byte) string {
	return fingerprint.Sum(raw).Hex()
}

// ObjectKey is the storage key shared by all backends.
func ObjectKey(contentHash string) string {
	return fmt.Sprintf("artifacts/%s.json", contentHash)
}

// Backend persists artifact records keyed by content hash.
type Backend interface {
	Get(ctx context.Context, contentHash string) (*Record, error)
	Put(ctx context.Context, record *Record) error
	Name() string
}
