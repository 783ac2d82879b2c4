// File path: internal/embed/embedder_test.go
package embed

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raglinehq/ragline/internal/cache"
	"github.com/raglinehq/ragline/internal/llm"
)

type fakeProvider struct {
	calls   int
	batches [][]string
	fail    bool
}

func (f *fakeProvider) Chat(ctx context.Context, messages []llm.Message) (string, error) {
	return "", errors.New("not implemented")
}

func (f *fakeProvider) Embed(ctx context.Context, input []string) ([][]float32, error) {
	f.calls++
	f.batches = append(f.batches, input)
	if f.fail {
		return nil, errors.New("provider unavailable")
	}
	vectors := make([][]float32, len(input))
	for i := range input {
		vectors[i] = []float32{float32(len(input[i])), 1, 2}
	}
	return vectors, nil
}

func (f *fakeProvider) Name() string { return "fake" }

func newTestEmbedder(t *testing.T) (*Embedder, *fakeProvider, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	store, err := cache.OpenRedis(context.Background(), cache.Config{Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	provider := &fakeProvider{}
	return New(provider, cache.NewEngine(store), "test-model"), provider, mr
}

func TestEmbedAllCachesPerText(t *testing.T) {
	embedder, provider, _ := newTestEmbedder(t)
	ctx := context.Background()

	vectors, usage, err := embedder.EmbedAll(ctx, []string{"alpha", "beta"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.Equal(t, 2, usage.Generated)
	assert.Equal(t, 0, usage.CacheHits)
	assert.Equal(t, 1, provider.calls)

	// Second call: one cached text, one new. Only the new one reaches the
	// provider.
	vectors, usage, err = embedder.EmbedAll(ctx, []string{"alpha", "gamma"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.Equal(t, 1, usage.CacheHits)
	assert.Equal(t, 1, usage.Generated)
	assert.Equal(t, 2, provider.calls)
	assert.Equal(t, []string{"gamma"}, provider.batches[1])
}

func TestEmbedAllWhitespaceSharesSlot(t *testing.T) {
	embedder, provider, _ := newTestEmbedder(t)
	ctx := context.Background()

	_, _, err := embedder.EmbedAll(ctx, []string{"alpha"})
	require.NoError(t, err)
	_, usage, err := embedder.EmbedAll(ctx, []string{"  alpha  "})
	require.NoError(t, err)
	assert.Equal(t, 1, usage.CacheHits)
	assert.Equal(t, 1, provider.calls)
}

func TestEmbedAllCaseChangesSlot(t *testing.T) {
	embedder, provider, _ := newTestEmbedder(t)
	ctx := context.Background()

	_, _, err := embedder.EmbedAll(ctx, []string{"Alpha"})
	require.NoError(t, err)
	_, usage, err := embedder.EmbedAll(ctx, []string{"alpha"})
	require.NoError(t, err)
	assert.Equal(t, 0, usage.CacheHits)
	assert.Equal(t, 2, provider.calls)
}

func TestEmbedAllProviderErrorSurfacesAndNothingCached(t *testing.T) {
	embedder, provider, mr := newTestEmbedder(t)
	provider.fail = true

	_, _, err := embedder.EmbedAll(context.Background(), []string{"alpha"})
	require.Error(t, err)
	assert.Empty(t, mr.Keys())
}

func TestEmbedOne(t *testing.T) {
	embedder, _, _ := newTestEmbedder(t)
	vector, err := embedder.EmbedOne(context.Background(), "alpha")
	require.NoError(t, err)
	assert.Len(t, vector, 3)
}

func TestEmbedAllEmptyInput(t *testing.T) {
	embedder, provider, _ := newTestEmbedder(t)
	vectors, usage, err := embedder.EmbedAll(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, vectors)
	assert.Equal(t, 0, usage.Requested)
	assert.Equal(t, 0, provider.calls)
}
