// File path: internal/sqldb/executor.go
package sqldb

import (
	"context"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"

	"github.com/raglinehq/ragline/internal/cache"
	"github.com/raglinehq/ragline/internal/common"
	"github.com/raglinehq/ragline/internal/common/telemetry"
)

// ErrTimeout marks a statement that exceeded the per-query deadline. Callers
// map it to their own taxonomy; timed-out results are never cached.
var ErrTimeout = errors.New("sqldb: statement timed out")

// Executor runs read-only statements against the configured database and
// shapes results for the result-set cache tier.
type Executor struct {
	db      *sqlx.DB
	timeout time.Duration
	maxRows int
}

// Open connects using the pgx stdlib driver. An empty DSN is a configuration
// error; callers should check cfg.Enabled first.
func Open(ctx context.Context, cfg Config) (*Executor, error) {
	if !cfg.Enabled() {
		return nil, errors.New("sqldb: no DSN configured")
	}
	db, err := sqlx.Open("pgx", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	executor := NewExecutor(db, cfg)
	if err := db.PingContext(ctx); err != nil {
		common.Logger().Warn("sqldb: initial ping failed", "error", err)
	}
	return executor, nil
}

// NewExecutor wraps an existing connection pool. Used by tests with sqlmock.
func NewExecutor(db *sqlx.DB, cfg Config) *Executor {
	cfg.applyDefaults()
	return &Executor{db: db, timeout: cfg.QueryTimeout, maxRows: cfg.MaxRows}
}

// Execute runs one statement under the query deadline and returns the result
// set in cacheable form. Row values pass through the driver's native types.
func (e *Executor) Execute(ctx context.Context, statement string) (cache.ResultSetRecord, error) {
	if e == nil || e.db == nil {
		return cache.ResultSetRecord{}, errors.New("sqldb: executor not configured")
	}
	queryCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	started := time.Now()
	rows, err := e.db.QueryxContext(queryCtx, statement)
	if err != nil {
		telemetry.RecordSQLExec(time.Since(started))
		return cache.ResultSetRecord{}, e.classify(queryCtx, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return cache.ResultSetRecord{}, fmt.Errorf("read columns: %w", err)
	}

	record := cache.ResultSetRecord{Columns: columns, Rows: make([][]interface{}, 0, 16)}
	for rows.Next() {
		if len(record.Rows) >= e.maxRows {
			common.Logger().Warn("sqldb: result truncated", "max_rows", e.maxRows)
			record.Truncated = true
			break
		}
		values, err := rows.SliceScan()
		if err != nil {
			return cache.ResultSetRecord{}, fmt.Errorf("scan row: %w", err)
		}
		record.Rows = append(record.Rows, normalizeRow(values))
	}
	if err := rows.Err(); err != nil {
		telemetry.RecordSQLExec(time.Since(started))
		return cache.ResultSetRecord{}, e.classify(queryCtx, err)
	}
	elapsed := time.Since(started)
	telemetry.RecordSQLExec(elapsed)
	record.RowCount = len(record.Rows)
	record.DurationMS = elapsed.Milliseconds()
	common.Logger().Debug("sqldb: statement executed", "rows", record.RowCount, "duration_ms", record.DurationMS)
	return record, nil
}

// Ping reports backend reachability for health checks.
func (e *Executor) Ping(ctx context.Context) error {
	if e == nil || e.db == nil {
		return errors.New("sqldb: executor not configured")
	}
	return e.db.PingContext(ctx)
}

func (e *Executor) Close() error {
	if e == nil || e.db == nil {
		return nil
	}
	return e.db.Close()
}

func (e *Executor) classify(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w after %s", ErrTimeout, e.timeout)
	}
	return fmt.Errorf("execute statement: %w", err)
}

// normalizeRow converts driver byte slices to strings so the record survives
// a JSON round trip through the cache without base64 surprises.
func normalizeRow(values []interface{}) []interface{} {
	for i, v := range values {
		if b, ok := v.([]byte); ok {
			values[i] = string(b)
		}
	}
	return values
}
