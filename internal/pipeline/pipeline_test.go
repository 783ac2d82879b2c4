// File path: internal/pipeline/pipeline_test.go
package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raglinehq/ragline/internal/cache"
	"github.com/raglinehq/ragline/internal/embed"
	"github.com/raglinehq/ragline/internal/fingerprint"
	"github.com/raglinehq/ragline/internal/ledger"
	"github.com/raglinehq/ragline/internal/llm"
	"github.com/raglinehq/ragline/internal/sqldb"
	"github.com/raglinehq/ragline/internal/vector"
)

type scriptedProvider struct {
	chatResponse string
	chatErr      error
	chatCalls    int
	embedCalls   int
}

func (s *scriptedProvider) Chat(ctx context.Context, messages []llm.Message) (string, error) {
	s.chatCalls++
	if s.chatErr != nil {
		return "", s.chatErr
	}
	return s.chatResponse, nil
}

func (s *scriptedProvider) Embed(ctx context.Context, input []string) ([][]float32, error) {
	s.embedCalls++
	vectors := make([][]float32, len(input))
	for i := range input {
		vectors[i] = []float32{0.5, 0.5}
	}
	return vectors, nil
}

func (s *scriptedProvider) Name() string { return "scripted" }

type fixedVectorStore struct {
	results     []vector.SearchResult
	searchCalls int
}

func (f *fixedVectorStore) Available() bool    { return true }
func (f *fixedVectorStore) Collection() string { return "test" }

func (f *fixedVectorStore) UpsertChunks(ctx context.Context, chunks []vector.Chunk, vectors [][]float32) error {
	return nil
}

func (f *fixedVectorStore) Search(ctx context.Context, v []float32, limit int) ([]vector.SearchResult, error) {
	f.searchCalls++
	return f.results, nil
}

func newEngine(t *testing.T) (*cache.Engine, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	store, err := cache.OpenRedis(context.Background(), cache.Config{Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return cache.NewEngine(store), mr
}

func newMockExecutor(t *testing.T) (*sqldb.Executor, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqldb.NewExecutor(sqlx.NewDb(db, "sqlmock"), sqldb.Config{}), mock
}

func TestDocumentAskMissThenHit(t *testing.T) {
	engine, _ := newEngine(t)
	provider := &scriptedProvider{chatResponse: "Refunds take 14 days."}
	vectors := &fixedVectorStore{results: []vector.SearchResult{
		{ID: "h:0", Content: "Refunds are processed in 14 days.", Source: "policy.md", Score: 0.9},
	}}
	pipeline := NewDocumentPipeline(engine, embed.New(provider, engine, "m"), vectors, provider)
	ctx := context.Background()

	first, err := pipeline.Ask(ctx, "What is the refund turnaround?")
	require.NoError(t, err)
	assert.False(t, first.Cached)
	assert.Equal(t, "Refunds take 14 days.", first.Answer)
	assert.Equal(t, []string{"policy.md"}, first.Sources)
	assert.Equal(t, 1, first.RetrievedCount)

	// Case and padding differences hit the same answer slot; no model or
	// vector store call happens.
	second, err := pipeline.Ask(ctx, "  WHAT IS THE REFUND TURNAROUND?  ")
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Answer, second.Answer)
	assert.Equal(t, 1, provider.chatCalls)
	assert.Equal(t, 1, vectors.searchCalls)
}

func TestDocumentAskProviderErrorNotCached(t *testing.T) {
	engine, mr := newEngine(t)
	provider := &scriptedProvider{chatErr: errors.New("model overloaded")}
	pipeline := NewDocumentPipeline(engine, embed.New(provider, engine, "m"), &fixedVectorStore{}, provider)

	_, err := pipeline.Ask(context.Background(), "anything at all?")
	require.Error(t, err)
	assert.Equal(t, KindCompute, KindOf(err))
	for _, key := range mr.Keys() {
		assert.NotContains(t, key, "ans:")
	}
}

func TestSQLQueryApprovalFlow(t *testing.T) {
	engine, _ := newEngine(t)
	provider := &scriptedProvider{chatResponse: "SELECT count(*) FROM orders\nEXPLANATION: counts all orders"}
	executor, mock := newMockExecutor(t)
	approvals := ledger.New()
	pipeline := NewSQLPipeline(engine, provider, executor, approvals, false)
	ctx := context.Background()

	outcome, err := pipeline.Query(ctx, "How many orders do we have?")
	require.NoError(t, err)
	assert.True(t, outcome.RequiresApproval)
	require.NotEmpty(t, outcome.PendingID)
	assert.Equal(t, "SELECT count(*) FROM orders", outcome.Statement)
	assert.Equal(t, "counts all orders", outcome.Explanation)
	assert.Nil(t, outcome.Result)

	// Execution before approval is rejected.
	_, err = pipeline.ExecuteApproved(ctx, outcome.PendingID)
	require.Error(t, err)
	assert.Equal(t, KindInvalidPendingState, KindOf(err))

	_, err = approvals.Approve(outcome.PendingID)
	require.NoError(t, err)

	mock.ExpectQuery("SELECT").WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(42))
	executed, err := pipeline.ExecuteApproved(ctx, outcome.PendingID)
	require.NoError(t, err)
	require.NotNil(t, executed.Result)
	assert.Equal(t, 1, executed.Result.RowCount)
	assert.False(t, executed.ResultCached)

	// The same statement now hits the result-set tier without touching the
	// database again.
	again, err := pipeline.ExecuteApproved(ctx, outcome.PendingID)
	require.NoError(t, err)
	assert.True(t, again.ResultCached)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLQueryAutoApproveExecutes(t *testing.T) {
	engine, _ := newEngine(t)
	provider := &scriptedProvider{chatResponse: "SELECT region FROM sales"}
	executor, mock := newMockExecutor(t)
	pipeline := NewSQLPipeline(engine, provider, executor, ledger.New(), true)

	mock.ExpectQuery("SELECT").WillReturnRows(sqlmock.NewRows([]string{"region"}).AddRow("EMEA"))
	outcome, err := pipeline.Query(context.Background(), "list sales regions")
	require.NoError(t, err)
	assert.False(t, outcome.RequiresApproval)
	require.NotNil(t, outcome.Result)
	assert.Equal(t, "EMEA", outcome.Result.Rows[0][0])
}

func TestSQLQueryGenerationCachedAcrossCalls(t *testing.T) {
	engine, _ := newEngine(t)
	provider := &scriptedProvider{chatResponse: "SELECT 1"}
	pipeline := NewSQLPipeline(engine, provider, nil, ledger.New(), false)
	ctx := context.Background()

	first, err := pipeline.Query(ctx, "How many widgets?")
	require.NoError(t, err)
	assert.False(t, first.StatementCached)

	second, err := pipeline.Query(ctx, "how many widgets?")
	require.NoError(t, err)
	assert.True(t, second.StatementCached)
	assert.Equal(t, 1, provider.chatCalls)
	// Each query creates its own pending entry even on a generation hit.
	assert.NotEqual(t, first.PendingID, second.PendingID)
}

func TestSQLQueryUnsafeGenerationRejected(t *testing.T) {
	engine, mr := newEngine(t)
	provider := &scriptedProvider{chatResponse: "DROP TABLE orders"}
	approvals := ledger.New()
	pipeline := NewSQLPipeline(engine, provider, nil, approvals, false)

	_, err := pipeline.Query(context.Background(), "delete all the orders")
	require.Error(t, err)
	assert.Equal(t, KindUnsafeStatement, KindOf(err))
	var classified *Error
	require.True(t, errors.As(err, &classified))
	assert.NotEmpty(t, classified.Suggestion)
	assert.Empty(t, approvals.Pending())
	assert.Empty(t, mr.Keys(), "rejected statement must never be cached")
}

func TestSQLQueryRejectsUnsafeCachedStatement(t *testing.T) {
	engine, _ := newEngine(t)
	provider := &scriptedProvider{chatResponse: "SELECT 1"}
	pipeline := NewSQLPipeline(engine, provider, nil, ledger.New(), false)

	// Simulates an entry stored before the classifier learned to reject it.
	question := "truncate the audit log"
	engine.StoreRecord(context.Background(), cache.TierGeneratedQuery,
		fingerprint.Question(question), cache.GeneratedQuery{Query: "TRUNCATE audit_log"})

	_, err := pipeline.Query(context.Background(), question)
	require.Error(t, err)
	assert.Equal(t, KindUnsafeStatement, KindOf(err))
	assert.Zero(t, provider.chatCalls)
}

func TestSQLExecuteTimeoutKind(t *testing.T) {
	engine, _ := newEngine(t)
	provider := &scriptedProvider{chatResponse: "SELECT pg_sleep(60) FROM big"}
	executor, mock := newMockExecutor(t)
	pipeline := NewSQLPipeline(engine, provider, executor, ledger.New(), true)

	mock.ExpectQuery("SELECT").WillReturnError(context.DeadlineExceeded)
	_, err := pipeline.Query(context.Background(), "show the big table")
	require.Error(t, err)
	assert.Equal(t, KindTimeout, KindOf(err))
}

func TestSQLExecuteUnknownPending(t *testing.T) {
	engine, _ := newEngine(t)
	pipeline := NewSQLPipeline(engine, &scriptedProvider{}, nil, ledger.New(), false)
	_, err := pipeline.ExecuteApproved(context.Background(), "missing-id")
	require.Error(t, err)
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestDispatcherRoutes(t *testing.T) {
	engine, _ := newEngine(t)
	provider := &scriptedProvider{chatResponse: "SELECT count(*) FROM customers"}
	executor, mock := newMockExecutor(t)
	sqlPipe := NewSQLPipeline(engine, provider, executor, ledger.New(), true)
	docProvider := &scriptedProvider{chatResponse: "Our policy allows returns."}
	docPipe := NewDocumentPipeline(engine, embed.New(docProvider, engine, "m"), &fixedVectorStore{}, docProvider)
	dispatcher := NewDispatcher(sqlPipe, docPipe)
	ctx := context.Background()

	mock.ExpectQuery("SELECT").WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))
	response, err := dispatcher.Dispatch(ctx, "How many customers do we have?")
	require.NoError(t, err)
	assert.NotNil(t, response.SQL)
	assert.Nil(t, response.Document)

	response, err = dispatcher.Dispatch(ctx, "Explain the escalation procedure")
	require.NoError(t, err)
	assert.Nil(t, response.SQL)
	assert.NotNil(t, response.Document)
}

func TestSplitGenerationStripsFences(t *testing.T) {
	statement, explanation := splitGeneration("```sql\nSELECT 1\nEXPLANATION: trivial\n```")
	assert.Equal(t, "SELECT 1", statement)
	assert.Equal(t, "trivial", explanation)
}
