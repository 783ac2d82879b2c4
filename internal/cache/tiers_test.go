// File path: internal/cache/tiers_test.go
package cache

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raglinehq/ragline/internal/fingerprint"
)

func TestTierKeyFormat(t *testing.T) {
	digest := fingerprint.Sum(fingerprint.Question("How many customers?"))
	key := TierGeneratedQuery.Key(digest)
	require.True(t, strings.HasPrefix(key, "gen:"))
	assert.Len(t, strings.TrimPrefix(key, "gen:"), 64)
}

func TestTierPolicies(t *testing.T) {
	cases := []struct {
		tier   Tier
		prefix string
		ttl    time.Duration
	}{
		{TierGeneratedQuery, "gen", 24 * time.Hour},
		{TierEmbedding, "emb", 7 * 24 * time.Hour},
		{TierAnswer, "ans", time.Hour},
		{TierResultSet, "res", 15 * time.Minute},
	}
	for _, tc := range cases {
		t.Run(tc.prefix, func(t *testing.T) {
			assert.Equal(t, tc.prefix, tc.tier.Prefix)
			assert.Equal(t, tc.ttl, tc.tier.TTL)
			assert.Equal(t, tc.prefix+":*", tc.tier.Pattern())
		})
	}
}

func TestTierByPrefix(t *testing.T) {
	tier, ok := TierByPrefix("emb")
	require.True(t, ok)
	assert.Equal(t, TierEmbedding, tier)

	_, ok = TierByPrefix("nope")
	assert.False(t, ok)
}

func TestRecordRoundTrips(t *testing.T) {
	t.Run("generated query", func(t *testing.T) {
		in := GeneratedQuery{
			Query:       "SELECT COUNT(*) FROM customers",
			Explanation: "Counts all customer rows.",
			Confidence:  0.92,
			CreatedAt:   time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		}
		var out GeneratedQuery
		roundTrip(t, in, &out)
		assert.Equal(t, in, out)
	})

	t.Run("embedding", func(t *testing.T) {
		vector := make([]float32, 1536)
		for i := range vector {
			vector[i] = float32(i) / 1536
		}
		in := EmbeddingRecord{Vector: vector, Model: "text-embedding-3-small", TokenCount: 12}
		var out EmbeddingRecord
		roundTrip(t, in, &out)
		assert.Equal(t, in, out)
	})

	t.Run("answer", func(t *testing.T) {
		in := AnswerRecord{
			Answer:         strings.Repeat("long answer text ", 500),
			Sources:        []string{"handbook.pdf#3", "policy.md#1"},
			RetrievedCount: 5,
			CreatedAt:      time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		}
		var out AnswerRecord
		roundTrip(t, in, &out)
		assert.Equal(t, in, out)
	})

	t.Run("empty result set", func(t *testing.T) {
		in := ResultSetRecord{Columns: []string{"id", "total"}, Rows: [][]interface{}{}, RowCount: 0, DurationMS: 12}
		var out ResultSetRecord
		roundTrip(t, in, &out)
		assert.Equal(t, in.Columns, out.Columns)
		assert.Empty(t, out.Rows)
		assert.Zero(t, out.RowCount)
	})
}

func roundTrip(t *testing.T, in, out interface{}) {
	t.Helper()
	payload, err := json.Marshal(in)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(payload, out))
}
