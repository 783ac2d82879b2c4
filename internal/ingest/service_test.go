// File path: internal/ingest/service_test.go
package ingest

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raglinehq/ragline/internal/artifact"
	"github.com/raglinehq/ragline/internal/cache"
	"github.com/raglinehq/ragline/internal/embed"
	"github.com/raglinehq/ragline/internal/llm"
	"github.com/raglinehq/ragline/internal/vector"
)

type stubProvider struct {
	embedCalls int
}

func (s *stubProvider) Chat(ctx context.Context, messages []llm.Message) (string, error) {
	return "", errors.New("not implemented")
}

func (s *stubProvider) Embed(ctx context.Context, input []string) ([][]float32, error) {
	s.embedCalls++
	vectors := make([][]float32, len(input))
	for i := range input {
		vectors[i] = []float32{1, 2, 3}
	}
	return vectors, nil
}

func (s *stubProvider) Name() string { return "stub" }

type memoryVectorStore struct {
	upserts   int
	lastIDs   []string
	available bool
}

func (m *memoryVectorStore) Available() bool    { return m.available }
func (m *memoryVectorStore) Collection() string { return "test" }

func (m *memoryVectorStore) UpsertChunks(ctx context.Context, chunks []vector.Chunk, vectors [][]float32) error {
	m.upserts++
	m.lastIDs = nil
	for _, chunk := range chunks {
		m.lastIDs = append(m.lastIDs, chunk.ID)
	}
	return nil
}

func (m *memoryVectorStore) Search(ctx context.Context, v []float32, limit int) ([]vector.SearchResult, error) {
	return nil, nil
}

type ingestHarness struct {
	service  *Service
	provider *stubProvider
	vectors  *memoryVectorStore
	redis    *miniredis.Miniredis
}

func newIngestHarness(t *testing.T) *ingestHarness {
	t.Helper()
	mr := miniredis.RunT(t)
	store, err := cache.OpenRedis(context.Background(), cache.Config{Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	backend, err := artifact.NewFSBackend(t.TempDir())
	require.NoError(t, err)

	provider := &stubProvider{}
	vectors := &memoryVectorStore{available: true}
	service := NewService(
		artifact.NewCache(backend, nil),
		embed.New(provider, cache.NewEngine(store), "test-model"),
		vectors,
		cache.NewCoordinator(store),
	)
	return &ingestHarness{service: service, provider: provider, vectors: vectors, redis: mr}
}

func TestIngestParsesEmbedsAndIndexes(t *testing.T) {
	h := newIngestHarness(t)
	raw := []byte("Refunds are issued within 14 days of approval. Contact finance for exceptions.")

	result, err := h.service.Ingest(context.Background(), "policy.txt", raw)
	require.NoError(t, err)
	assert.False(t, result.ArtifactReused)
	assert.True(t, result.Indexed)
	assert.Greater(t, result.ChunkCount, 0)
	assert.Equal(t, 1, h.vectors.upserts)
	require.NotEmpty(t, h.vectors.lastIDs)
	assert.Equal(t, artifact.HashContent(raw)+":0", h.vectors.lastIDs[0])
}

func TestIngestReusesArtifactForSameBytes(t *testing.T) {
	h := newIngestHarness(t)
	raw := []byte("Shared content uploaded twice under different names.")

	first, err := h.service.Ingest(context.Background(), "a.txt", raw)
	require.NoError(t, err)
	embedCallsAfterFirst := h.provider.embedCalls

	second, err := h.service.Ingest(context.Background(), "b.txt", raw)
	require.NoError(t, err)
	assert.True(t, second.ArtifactReused)
	assert.Equal(t, first.ContentHash, second.ContentHash)
	assert.Equal(t, embedCallsAfterFirst, h.provider.embedCalls)
	// Indexing still runs so the vector store converges.
	assert.Equal(t, 2, h.vectors.upserts)
}

func TestIngestPurgesAnswerTier(t *testing.T) {
	h := newIngestHarness(t)
	h.redis.Set("ans:deadbeef", `{"answer":"stale"}`)
	h.redis.Set("gen:deadbeef", `{"query":"SELECT 1"}`)

	result, err := h.service.Ingest(context.Background(), "doc.txt", []byte("new facts arrive"))
	require.NoError(t, err)
	assert.Equal(t, 1, result.AnswersPurged)
	assert.False(t, h.redis.Exists("ans:deadbeef"))
	assert.True(t, h.redis.Exists("gen:deadbeef"))
}

func TestIngestRejectsUnsupportedExtension(t *testing.T) {
	h := newIngestHarness(t)
	_, err := h.service.Ingest(context.Background(), "malware.exe", []byte("nope"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not supported")
}

func TestIngestRejectsOversizedFile(t *testing.T) {
	require.Error(t, ValidateFile("big.txt", maxFileSize+1))
	require.NoError(t, ValidateFile("ok.txt", maxFileSize))
}

func TestIngestContinuesWithoutVectorStore(t *testing.T) {
	h := newIngestHarness(t)
	h.vectors.available = false

	result, err := h.service.Ingest(context.Background(), "doc.txt", []byte("content without an index"))
	require.NoError(t, err)
	assert.False(t, result.Indexed)
}

func TestParserChunksLongText(t *testing.T) {
	parser := NewParser()
	text := strings.Repeat("Every order ships within two business days. ", 60)

	chunks, parserName, err := parser.Parse("doc.txt", []byte(text))
	require.NoError(t, err)
	assert.Equal(t, "plaintext", parserName)
	assert.Greater(t, len(chunks), 1)
	for i, chunk := range chunks {
		assert.Equal(t, i, chunk.Index)
		assert.Greater(t, chunk.TokenCount, 0)
		assert.LessOrEqual(t, chunk.CharStart, chunk.CharEnd)
	}
}

func TestParserRejectsBinaryFormats(t *testing.T) {
	parser := NewParser()
	_, _, err := parser.Parse("report.pdf", []byte("%PDF-1.4"))
	require.Error(t, err)
}

func TestIngestUsesExtractorForBinaryFormats(t *testing.T) {
	harness := newIngestHarness(t)
	harness.service.parser.extract = func(filename string, raw []byte) (string, error) {
		return "quarterly revenue grew in every region", nil
	}

	result, err := harness.service.Ingest(context.Background(), "report.pdf", []byte("%PDF-1.4 binary payload"))
	require.NoError(t, err)
	assert.False(t, result.ArtifactReused)
	assert.Equal(t, 1, result.ChunkCount)
	assert.True(t, result.Indexed)
}

func TestWithExtractorOption(t *testing.T) {
	called := false
	service := NewService(nil, nil, nil, nil, WithExtractor(func(filename string, raw []byte) (string, error) {
		called = true
		return string(raw), nil
	}))
	_, _, err := service.parser.Parse("scan.docx", []byte("extracted text already"))
	require.NoError(t, err)
	assert.True(t, called)
}
