// File path: internal/cache/tiers.go
package cache

import (
	"time"

	"github.com/raglinehq/ragline/internal/fingerprint"
)

// Tier names one category of cacheable artifact with its own key namespace
// and time-to-live. The prefixes and key format ({prefix}:{hex digest}) are a
// persisted convention shared with existing deployments and must not change.
type Tier struct {
	Name   string
	Prefix string
	TTL    time.Duration
}

var (
	// TierGeneratedQuery holds NL-to-SQL translations. The question-to-
	// statement mapping only shifts when the schema does, so a day is safe.
	TierGeneratedQuery = Tier{Name: "generated_query", Prefix: "gen", TTL: 24 * time.Hour}

	// TierEmbedding holds computed embedding vectors. Embeddings for fixed
	// text are invariant; the long TTL maximizes reuse across the answer
	// and ingestion pipelines.
	TierEmbedding = Tier{Name: "embedding", Prefix: "emb", TTL: 7 * 24 * time.Hour}

	// TierAnswer holds generated answers. Source documents change, so the
	// short TTL bounds staleness between invalidations.
	TierAnswer = Tier{Name: "answer", Prefix: "ans", TTL: time.Hour}

	// TierResultSet holds executed query results over live transactional
	// data, the fastest-moving tier of all.
	TierResultSet = Tier{Name: "result_set", Prefix: "res", TTL: 15 * time.Minute}
)

// Tiers lists every registered tier in a stable order.
func Tiers() []Tier {
	return []Tier{TierGeneratedQuery, TierEmbedding, TierAnswer, TierResultSet}
}

// TierByPrefix resolves a namespace prefix to its tier.
func TierByPrefix(prefix string) (Tier, bool) {
	for _, tier := range Tiers() {
		if tier.Prefix == prefix {
			return tier, true
		}
	}
	return Tier{}, false
}

// Key builds the namespaced store key for a fingerprint.
func (t Tier) Key(digest fingerprint.Digest) string {
	return t.Prefix + ":" + digest.Hex()
}

// Pattern is the glob covering every key in this tier's namespace.
func (t Tier) Pattern() string {
	return t.Prefix + ":*"
}

// GeneratedQuery is the gen-tier record: one NL-to-SQL translation.
type GeneratedQuery struct {
	Query       string    `json:"query"`
	Explanation string    `json:"explanation"`
	Confidence  float64   `json:"confidence"`
	CreatedAt   time.Time `json:"created_at"`
}

// EmbeddingRecord is the emb-tier record: one computed vector.
type EmbeddingRecord struct {
	Vector     []float32 `json:"vector"`
	Model      string    `json:"model"`
	TokenCount int       `json:"token_count"`
}

// AnswerRecord is the ans-tier record: one generated answer with its source
// attributions.
type AnswerRecord struct {
	Answer         string    `json:"answer"`
	Sources        []string  `json:"sources"`
	RetrievedCount int       `json:"retrieved_count"`
	CreatedAt      time.Time `json:"created_at"`
}

// ResultSetRecord is the res-tier record: one executed result set.
type ResultSetRecord struct {
	Columns    []string        `json:"columns"`
	Rows       [][]interface{} `json:"rows"`
	RowCount   int             `json:"row_count"`
	DurationMS int64           `json:"duration_ms"`
	Truncated  bool            `json:"truncated,omitempty"`
}
