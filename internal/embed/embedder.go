// File path: internal/embed/embedder.go
package embed

import (
	"context"
	"fmt"

	"github.com/raglinehq/ragline/internal/cache"
	"github.com/raglinehq/ragline/internal/common"
	"github.com/raglinehq/ragline/internal/fingerprint"
	"github.com/raglinehq/ragline/internal/llm"
)

// Embedder caches embedding vectors per input text. Whitespace padding on
// an input does not change its cache slot; casing does, since embedding
// models are case sensitive.
type Embedder struct {
	provider llm.Provider
	engine   *cache.Engine
	model    string
}

// Usage reports where the vectors for one call came from.
type Usage struct {
	Requested int `json:"requested"`
	CacheHits int `json:"cache_hits"`
	Generated int `json:"generated"`
}

func New(provider llm.Provider, engine *cache.Engine, model string) *Embedder {
	return &Embedder{provider: provider, engine: engine, model: model}
}

// EmbedOne embeds a single text, serving from cache when possible.
func (e *Embedder) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	vectors, _, err := e.EmbedAll(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedAll resolves each text through the embedding cache tier and sends
// only the misses to the provider in a single batch. Results line up with
// the input slice.
func (e *Embedder) EmbedAll(ctx context.Context, texts []string) ([][]float32, Usage, error) {
	usage := Usage{Requested: len(texts)}
	if len(texts) == 0 {
		return nil, usage, nil
	}

	vectors := make([][]float32, len(texts))
	canonicals := make([][]byte, len(texts))
	var missTexts []string
	var missIndexes []int

	for i, text := range texts {
		canonicals[i] = fingerprint.Text(text)
		payload, ok := e.engine.Lookup(ctx, cache.TierEmbedding, canonicals[i])
		if !ok {
			missTexts = append(missTexts, text)
			missIndexes = append(missIndexes, i)
			continue
		}
		var record cache.EmbeddingRecord
		if err := cache.DecodeRecord(payload, &record); err != nil {
			common.Logger().Warn("embed: undecodable cache entry, regenerating", "index", i, "error", err)
			missTexts = append(missTexts, text)
			missIndexes = append(missIndexes, i)
			continue
		}
		vectors[i] = record.Vector
		usage.CacheHits++
	}

	if len(missTexts) > 0 {
		generated, err := e.provider.Embed(ctx, missTexts)
		if err != nil {
			return nil, usage, fmt.Errorf("embed batch: %w", err)
		}
		if len(generated) != len(missTexts) {
			return nil, usage, fmt.Errorf("embed batch: provider returned %d vectors for %d inputs", len(generated), len(missTexts))
		}
		for j, vector := range generated {
			i := missIndexes[j]
			vectors[i] = vector
			usage.Generated++
			record := cache.EmbeddingRecord{Vector: vector, Model: e.model}
			e.engine.StoreRecord(ctx, cache.TierEmbedding, canonicals[i], record)
		}
	}
	return vectors, usage, nil
}
