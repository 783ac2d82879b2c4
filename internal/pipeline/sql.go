// File path: internal/pipeline/sql.go
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/raglinehq/ragline/internal/cache"
	"github.com/raglinehq/ragline/internal/common"
	"github.com/raglinehq/ragline/internal/fingerprint"
	"github.com/raglinehq/ragline/internal/ledger"
	"github.com/raglinehq/ragline/internal/llm"
	"github.com/raglinehq/ragline/internal/safety"
	"github.com/raglinehq/ragline/internal/sqldb"
)

const sqlSystemPrompt = "You translate natural language questions into a single PostgreSQL SELECT statement. " +
	"Respond with the SQL statement on the first line, then EXPLANATION: followed by one sentence. " +
	"Never produce INSERT, UPDATE, DELETE, or DDL."

// SQLPipeline turns questions into statements and statements into result
// sets. Generated statements pass the safety classifier before anything is
// cached or queued; without auto-approval they park in the ledger until a
// human decides.
type SQLPipeline struct {
	engine      *cache.Engine
	provider    llm.Provider
	executor    *sqldb.Executor
	approvals   *ledger.Ledger
	autoApprove bool
}

// SQLOutcome covers both terminal states of the SQL path: an executed
// result set, or a pending approval.
type SQLOutcome struct {
	Statement        string                 `json:"statement"`
	Explanation      string                 `json:"explanation,omitempty"`
	RequiresApproval bool                   `json:"requires_approval"`
	PendingID        string                 `json:"pending_id,omitempty"`
	Result           *cache.ResultSetRecord `json:"result,omitempty"`
	StatementCached  bool                   `json:"statement_cached"`
	ResultCached     bool                   `json:"result_cached"`
}

func NewSQLPipeline(engine *cache.Engine, provider llm.Provider, executor *sqldb.Executor, approvals *ledger.Ledger, autoApprove bool) *SQLPipeline {
	return &SQLPipeline{
		engine:      engine,
		provider:    provider,
		executor:    executor,
		approvals:   approvals,
		autoApprove: autoApprove,
	}
}

// Query runs the NL-to-SQL path for one question.
func (p *SQLPipeline) Query(ctx context.Context, question string) (*SQLOutcome, error) {
	canonical := fingerprint.Question(question)
	generated, hit, err := cache.LookupOrCompute(ctx, p.engine, cache.TierGeneratedQuery, canonical, func(ctx context.Context) (cache.GeneratedQuery, error) {
		result, err := p.generate(ctx, question)
		if err != nil {
			return cache.GeneratedQuery{}, err
		}
		// A rejected statement must never reach the store; failing here
		// keeps LookupOrCompute from writing it back.
		if err := safety.Check(result.Query); err != nil {
			common.Logger().Warn("pipeline: generated statement rejected", "question", question)
			return cache.GeneratedQuery{}, err
		}
		return result, nil
	})
	if err != nil {
		return nil, classify(err)
	}

	// Entries cached before a classifier change still get re-screened.
	if err := safety.Check(generated.Query); err != nil {
		common.Logger().Warn("pipeline: cached statement rejected", "question", question)
		return nil, classify(err)
	}

	outcome := &SQLOutcome{
		Statement:       generated.Query,
		Explanation:     generated.Explanation,
		StatementCached: hit,
	}

	if !p.autoApprove {
		entry := p.approvals.Create(question, generated.Query, generated.Explanation, fingerprint.Sum(canonical).Hex())
		outcome.RequiresApproval = true
		outcome.PendingID = entry.ID
		return outcome, nil
	}

	result, cached, err := p.execute(ctx, generated.Query)
	if err != nil {
		return nil, err
	}
	outcome.Result = result
	outcome.ResultCached = cached
	return outcome, nil
}

// ExecuteApproved runs the statement behind an approved ledger entry. The
// result lands in the same result-set slot an auto-approved run would use,
// so later identical statements hit regardless of the approval route.
func (p *SQLPipeline) ExecuteApproved(ctx context.Context, pendingID string) (*SQLOutcome, error) {
	entry, err := p.approvals.Get(pendingID)
	if err != nil {
		return nil, classify(err)
	}
	if entry.Status != ledger.StatusApproved {
		return nil, newError(KindInvalidPendingState, fmt.Sprintf("entry %s is %s, not approved", pendingID, entry.Status), ledger.ErrInvalidState)
	}
	if err := safety.Check(entry.Statement); err != nil {
		return nil, classify(err)
	}
	result, cached, err := p.execute(ctx, entry.Statement)
	if err != nil {
		return nil, err
	}
	return &SQLOutcome{
		Statement:    entry.Statement,
		Explanation:  entry.Explanation,
		Result:       result,
		ResultCached: cached,
	}, nil
}

func (p *SQLPipeline) execute(ctx context.Context, statement string) (*cache.ResultSetRecord, bool, error) {
	if p.executor == nil {
		return nil, false, newError(KindCompute, "no database configured", nil)
	}
	canonical := fingerprint.Statement(statement)
	record, hit, err := cache.LookupOrCompute(ctx, p.engine, cache.TierResultSet, canonical, func(ctx context.Context) (cache.ResultSetRecord, error) {
		return p.executor.Execute(ctx, statement)
	})
	if err != nil {
		return nil, false, classify(err)
	}
	return &record, hit, nil
}

func (p *SQLPipeline) generate(ctx context.Context, question string) (cache.GeneratedQuery, error) {
	response, err := p.provider.Chat(ctx, []llm.Message{
		{Role: "system", Content: sqlSystemPrompt},
		{Role: "user", Content: question},
	})
	if err != nil {
		return cache.GeneratedQuery{}, fmt.Errorf("generate statement: %w", err)
	}
	statement, explanation := splitGeneration(response)
	if statement == "" {
		return cache.GeneratedQuery{}, fmt.Errorf("model returned no statement")
	}
	return cache.GeneratedQuery{
		Query:       statement,
		Explanation: explanation,
		Confidence:  1,
		CreatedAt:   time.Now().UTC(),
	}, nil
}

// splitGeneration separates the statement from the trailing explanation and
// strips markdown fences the model sometimes adds.
func splitGeneration(response string) (string, string) {
	cleaned := strings.TrimSpace(response)
	cleaned = strings.TrimPrefix(cleaned, "```sql")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	statement := cleaned
	explanation := ""
	if idx := strings.Index(cleaned, "EXPLANATION:"); idx >= 0 {
		statement = strings.TrimSpace(cleaned[:idx])
		explanation = strings.TrimSpace(cleaned[idx+len("EXPLANATION:"):])
	}
	return statement, explanation
}
