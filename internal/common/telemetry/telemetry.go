// File path: internal/common/telemetry/telemetry.go
package telemetry

import (
	"context"
	"expvar"
	"strings"
	"sync"
	"time"

	"github.com/raglinehq/ragline/internal/common"
)

type spanKey struct{}

type span struct {
	name  string
	start time.Time
}

var (
	initOnce sync.Once

	cacheHitTotal  *expvar.Map
	cacheMissTotal *expvar.Map
	cacheErrTotal  *expvar.Int

	embedCallTotal      *expvar.Int
	embedCallLatencyMS  *expvar.Int
	chatCallTotal       *expvar.Int
	chatCallLatencyMS   *expvar.Int
	vectorSearchTotal   *expvar.Int
	vectorSearchLatency *expvar.Int
	sqlExecTotal        *expvar.Int
	sqlExecLatencyMS    *expvar.Int

	invalidationTotal *expvar.Int
	ingestDocsTotal   *expvar.Int
)

func ensureInit() {
	initOnce.Do(func() {
		cacheHitTotal = expvar.NewMap("ragline_cache_hits_total")
		cacheMissTotal = expvar.NewMap("ragline_cache_misses_total")
		cacheErrTotal = expvar.NewInt("ragline_cache_store_errors_total")

		embedCallTotal = expvar.NewInt("ragline_embed_calls_total")
		embedCallLatencyMS = expvar.NewInt("ragline_embed_latency_ms")
		chatCallTotal = expvar.NewInt("ragline_chat_calls_total")
		chatCallLatencyMS = expvar.NewInt("ragline_chat_latency_ms")
		vectorSearchTotal = expvar.NewInt("ragline_vector_search_total")
		vectorSearchLatency = expvar.NewInt("ragline_vector_search_latency_ms")
		sqlExecTotal = expvar.NewInt("ragline_sql_exec_total")
		sqlExecLatencyMS = expvar.NewInt("ragline_sql_exec_latency_ms")

		invalidationTotal = expvar.NewInt("ragline_cache_invalidations_total")
		ingestDocsTotal = expvar.NewInt("ragline_ingest_documents_total")
	})
}

// StartSpan records a debug-level trace span around a blocking operation.
// The returned func closes the span and logs its duration.
func StartSpan(ctx context.Context, name string) (context.Context, func(attrs ...interface{})) {
	ensureInit()
	sp := &span{name: name, start: time.Now()}
	ctx = context.WithValue(ctx, spanKey{}, sp)
	logger := common.Logger()
	logger.Debug("trace: start", "span", name)
	return ctx, func(attrs ...interface{}) {
		duration := time.Since(sp.start)
		logger.Debug("trace: end", append([]interface{}{"span", name, "dur", duration}, attrs...)...)
	}
}

// SpanDuration reports elapsed time for the span carried by ctx, if any.
func SpanDuration(ctx context.Context) time.Duration {
	sp, _ := ctx.Value(spanKey{}).(*span)
	if sp == nil {
		return 0
	}
	return time.Since(sp.start)
}

// RecordCacheLookup counts a tier lookup outcome in the process-wide expvars.
func RecordCacheLookup(tier string, hit bool) {
	ensureInit()
	key := strings.TrimSpace(strings.ToLower(tier))
	if key == "" {
		key = "unknown"
	}
	if hit {
		cacheHitTotal.Add(key, 1)
		return
	}
	cacheMissTotal.Add(key, 1)
}

// RecordCacheStoreError counts a failed cache store round trip. A rising
// counter with a reachable primary path signals silent degradation.
func RecordCacheStoreError() {
	ensureInit()
	cacheErrTotal.Add(1)
}

// RecordInvalidation counts keys purged by the invalidation coordinator.
func RecordInvalidation(deleted int) {
	ensureInit()
	if deleted > 0 {
		invalidationTotal.Add(int64(deleted))
	}
}

// RecordIngest counts documents processed by the ingestion pipeline.
func RecordIngest(docs int) {
	ensureInit()
	if docs > 0 {
		ingestDocsTotal.Add(int64(docs))
	}
}

// RecordEmbedCall records one embedding collaborator round trip.
func RecordEmbedCall(duration time.Duration) {
	ensureInit()
	embedCallTotal.Add(1)
	if duration > 0 {
		embedCallLatencyMS.Add(duration.Milliseconds())
	}
}

// RecordChatCall records one completion collaborator round trip.
func RecordChatCall(duration time.Duration) {
	ensureInit()
	chatCallTotal.Add(1)
	if duration > 0 {
		chatCallLatencyMS.Add(duration.Milliseconds())
	}
}

// RecordVectorSearch records one vector similarity search round trip.
func RecordVectorSearch(duration time.Duration) {
	ensureInit()
	vectorSearchTotal.Add(1)
	if duration > 0 {
		vectorSearchLatency.Add(duration.Milliseconds())
	}
}

// RecordSQLExec records one SQL execution round trip.
func RecordSQLExec(duration time.Duration) {
	ensureInit()
	sqlExecTotal.Add(1)
	if duration > 0 {
		sqlExecLatencyMS.Add(duration.Milliseconds())
	}
}
