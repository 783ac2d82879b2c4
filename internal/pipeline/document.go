// File path: internal/pipeline/document.go
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/raglinehq/ragline/internal/cache"
	"github.com/raglinehq/ragline/internal/common"
	"github.com/raglinehq/ragline/internal/embed"
	"github.com/raglinehq/ragline/internal/fingerprint"
	"github.com/raglinehq/ragline/internal/llm"
	"github.com/raglinehq/ragline/internal/vector"
)

const defaultTopK = 5

const answerSystemPrompt = "You answer questions using only the provided document excerpts. " +
	"Cite nothing outside them. If the excerpts do not contain the answer, say so."

// DocumentPipeline answers questions from the ingested corpus: embed the
// question, retrieve similar chunks, generate an answer. Full answers are
// cached per canonical question in the answer tier.
type DocumentPipeline struct {
	engine   *cache.Engine
	embedder *embed.Embedder
	vectors  vector.Store
	provider llm.Provider
	topK     int
}

// DocumentAnswer is the pipeline product plus cache provenance.
type DocumentAnswer struct {
	Answer         string   `json:"answer"`
	Sources        []string `json:"sources"`
	RetrievedCount int      `json:"retrieved_count"`
	Cached         bool     `json:"cached"`
}

func NewDocumentPipeline(engine *cache.Engine, embedder *embed.Embedder, vectors vector.Store, provider llm.Provider) *DocumentPipeline {
	return &DocumentPipeline{
		engine:   engine,
		embedder: embedder,
		vectors:  vectors,
		provider: provider,
		topK:     defaultTopK,
	}
}

// Ask resolves a question through the answer tier. On a miss the full
// retrieve-and-generate path runs and the result is cached for the tier's
// TTL. Collaborator failures surface classified and uncached.
func (p *DocumentPipeline) Ask(ctx context.Context, question string) (*DocumentAnswer, error) {
	canonical := fingerprint.Question(question)
	record, hit, err := cache.LookupOrCompute(ctx, p.engine, cache.TierAnswer, canonical, func(ctx context.Context) (cache.AnswerRecord, error) {
		return p.compute(ctx, question)
	})
	if err != nil {
		return nil, classify(err)
	}
	return &DocumentAnswer{
		Answer:         record.Answer,
		Sources:        record.Sources,
		RetrievedCount: record.RetrievedCount,
		Cached:         hit,
	}, nil
}

func (p *DocumentPipeline) compute(ctx context.Context, question string) (cache.AnswerRecord, error) {
	queryVector, err := p.embedder.EmbedOne(ctx, question)
	if err != nil {
		return cache.AnswerRecord{}, fmt.Errorf("embed question: %w", err)
	}

	var results []vector.SearchResult
	if p.vectors != nil && p.vectors.Available() {
		results, err = p.vectors.Search(ctx, queryVector, p.topK)
		if err != nil {
			return cache.AnswerRecord{}, fmt.Errorf("retrieve chunks: %w", err)
		}
	} else {
		common.Logger().Warn("pipeline: vector store unavailable, answering without retrieval")
	}

	var contextBlock strings.Builder
	sources := make([]string, 0, len(results))
	seen := make(map[string]bool, len(results))
	for i, result := range results {
		fmt.Fprintf(&contextBlock, "[%d] %s\n\n", i+1, result.Content)
		if result.Source != "" && !seen[result.Source] {
			seen[result.Source] = true
			sources = append(sources, result.Source)
		}
	}

	userPrompt := fmt.Sprintf("Excerpts:\n%s\nQuestion: %s", contextBlock.String(), question)
	answer, err := p.provider.Chat(ctx, []llm.Message{
		{Role: "system", Content: answerSystemPrompt},
		{Role: "user", Content: userPrompt},
	})
	if err != nil {
		return cache.AnswerRecord{}, fmt.Errorf("generate answer: %w", err)
	}

	return cache.AnswerRecord{
		Answer:         strings.TrimSpace(answer),
		Sources:        sources,
		RetrievedCount: len(results),
		CreatedAt:      time.Now().UTC(),
	}, nil
}
