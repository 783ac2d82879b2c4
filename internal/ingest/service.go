// File path: internal/ingest/service.go
package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/raglinehq/ragline/internal/artifact"
	"github.com/raglinehq/ragline/internal/cache"
	"github.com/raglinehq/ragline/internal/common"
	"github.com/raglinehq/ragline/internal/common/telemetry"
	"github.com/raglinehq/ragline/internal/embed"
	"github.com/raglinehq/ragline/internal/vector"
)

// Service runs the upload path: validate, parse or reuse the stored
// artifact, embed, index, then invalidate answers that may now be stale.
type Service struct {
	parser      *Parser
	artifacts   *artifact.Cache
	embedder    *embed.Embedder
	vectors     vector.Store
	invalidator *cache.Coordinator
}

// Result summarizes one ingestion for the API response.
type Result struct {
	ContentHash     string `json:"content_hash"`
	Filename        string `json:"filename"`
	ChunkCount      int    `json:"chunk_count"`
	ArtifactReused  bool   `json:"artifact_reused"`
	Indexed         bool   `json:"indexed"`
	AnswersPurged   int    `json:"answers_purged"`
	EmbeddingsSaved int    `json:"embeddings_saved"`
}

// Option adjusts service construction.
type Option func(*Service)

// WithExtractor installs a text extractor for binary document formats.
func WithExtractor(extract Extractor) Option {
	return func(s *Service) {
		s.parser.extract = extract
	}
}

func NewService(artifacts *artifact.Cache, embedder *embed.Embedder, vectors vector.Store, invalidator *cache.Coordinator, opts ...Option) *Service {
	s := &Service{
		parser:      NewParser(),
		artifacts:   artifacts,
		embedder:    embedder,
		vectors:     vectors,
		invalidator: invalidator,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Ingest processes one uploaded file. Parsing and embedding are skipped
// entirely when the exact bytes were ingested before; indexing and answer
// invalidation still run so a fresh vector store converges.
func (s *Service) Ingest(ctx context.Context, filename string, raw []byte) (*Result, error) {
	if err := ValidateFile(filename, int64(len(raw))); err != nil {
		return nil, err
	}
	logger := common.Logger()

	record, reused, err := s.artifacts.GetOrParse(ctx, raw, func(ctx context.Context, contentHash string) (*artifact.Record, error) {
		started := time.Now()
		chunks, parserName, err := s.parser.Parse(filename, raw)
		if err != nil {
			return nil, err
		}
		texts := make([]string, len(chunks))
		for i, chunk := range chunks {
			texts[i] = chunk.Text
		}
		vectors, usage, err := s.embedder.EmbedAll(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("embed chunks: %w", err)
		}
		logger.Info("ingest: document parsed", "filename", filename, "chunks", len(chunks), "embedded", usage.Generated, "embed_cache_hits", usage.CacheHits)
		return &artifact.Record{
			ContentHash: contentHash,
			Chunks:      chunks,
			Vectors:     vectors,
			Metadata: artifact.Metadata{
				Filename:     filename,
				ByteSize:     int64(len(raw)),
				IngestedAt:   time.Now().UTC(),
				Processing:   time.Since(started),
				Parser:       parserName,
				ChunkCount:   len(chunks),
				VectorLength: vectorLength(vectors),
			},
		}, nil
	})
	if err != nil {
		return nil, err
	}
	if reused {
		logger.Info("ingest: artifact reused, parsing skipped", "filename", filename, "content_hash", record.ContentHash)
	}

	result := &Result{
		ContentHash:     record.ContentHash,
		Filename:        filename,
		ChunkCount:      len(record.Chunks),
		ArtifactReused:  reused,
		EmbeddingsSaved: len(record.Vectors),
	}

	if s.vectors != nil && s.vectors.Available() {
		chunks := make([]vector.Chunk, len(record.Chunks))
		for i, chunk := range record.Chunks {
			chunks[i] = vector.Chunk{
				ID:      fmt.Sprintf("%s:%d", record.ContentHash, chunk.Index),
				Content: chunk.Text,
				Source:  record.Metadata.Filename,
				Index:   chunk.Index,
			}
		}
		if err := s.vectors.UpsertChunks(ctx, chunks, record.Vectors); err != nil {
			return nil, fmt.Errorf("index chunks: %w", err)
		}
		result.Indexed = true
	} else {
		logger.Warn("ingest: vector store unavailable, chunks not indexed", "filename", filename)
	}

	// New content can change answers; purge the answer tier so the next
	// question recomputes against the updated corpus.
	purged, err := s.invalidator.Invalidate(ctx, cache.TierAnswer.Prefix)
	if err != nil {
		logger.Warn("ingest: answer invalidation failed", "error", err)
	} else {
		result.AnswersPurged = purged
	}

	telemetry.RecordIngest(1)
	return result, nil
}

func vectorLength(vectors [][]float32) int {
	for _, v := range vectors {
		if len(v) > 0 {
			return len(v)
		}
	}
	return 0
}
