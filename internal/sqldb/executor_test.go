// File path: internal/sqldb/executor_test.go
package sqldb

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestExecutor(t *testing.T, cfg Config) (*Executor, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewExecutor(sqlx.NewDb(db, "sqlmock"), cfg), mock
}

func TestExecuteShapesResultSet(t *testing.T) {
	executor, mock := newTestExecutor(t, Config{})
	mock.ExpectQuery("SELECT region, total FROM sales").WillReturnRows(
		sqlmock.NewRows([]string{"region", "total"}).
			AddRow("EMEA", 1200).
			AddRow("APAC", 900),
	)

	record, err := executor.Execute(context.Background(), "SELECT region, total FROM sales")
	require.NoError(t, err)
	assert.Equal(t, []string{"region", "total"}, record.Columns)
	assert.Equal(t, 2, record.RowCount)
	require.Len(t, record.Rows, 2)
	assert.Equal(t, "EMEA", record.Rows[0][0])
	assert.False(t, record.Truncated)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExecuteEmptyResultSet(t *testing.T) {
	executor, mock := newTestExecutor(t, Config{})
	mock.ExpectQuery("SELECT").WillReturnRows(sqlmock.NewRows([]string{"id"}))

	record, err := executor.Execute(context.Background(), "SELECT id FROM empty")
	require.NoError(t, err)
	assert.Equal(t, 0, record.RowCount)
	assert.Empty(t, record.Rows)
}

func TestExecuteDatabaseError(t *testing.T) {
	executor, mock := newTestExecutor(t, Config{})
	mock.ExpectQuery("SELECT").WillReturnError(errors.New("relation does not exist"))

	_, err := executor.Execute(context.Background(), "SELECT * FROM missing")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrTimeout)
	assert.Contains(t, err.Error(), "relation does not exist")
}

func TestExecuteTimeoutClassified(t *testing.T) {
	executor, mock := newTestExecutor(t, Config{QueryTimeout: 20 * time.Millisecond})
	mock.ExpectQuery("SELECT").WillDelayFor(200 * time.Millisecond).WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := executor.Execute(context.Background(), "SELECT pg_sleep(60)")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestExecuteTruncatesAtMaxRows(t *testing.T) {
	executor, mock := newTestExecutor(t, Config{MaxRows: 2})
	mock.ExpectQuery("SELECT").WillReturnRows(
		sqlmock.NewRows([]string{"id"}).AddRow(1).AddRow(2).AddRow(3),
	)

	record, err := executor.Execute(context.Background(), "SELECT id FROM big")
	require.NoError(t, err)
	assert.Equal(t, 2, record.RowCount)
	assert.True(t, record.Truncated)
}

func TestExecuteConvertsByteSlices(t *testing.T) {
	executor, mock := newTestExecutor(t, Config{})
	mock.ExpectQuery("SELECT").WillReturnRows(
		sqlmock.NewRows([]string{"name"}).AddRow([]byte("widget")),
	)

	record, err := executor.Execute(context.Background(), "SELECT name FROM products")
	require.NoError(t, err)
	assert.Equal(t, "widget", record.Rows[0][0])
}

func TestConfigCeilingEnforced(t *testing.T) {
	cfg := Config{QueryTimeout: 5 * time.Minute}
	cfg.applyDefaults()
	assert.Equal(t, queryCeiling, cfg.QueryTimeout)
}

func TestNilExecutor(t *testing.T) {
	var executor *Executor
	_, err := executor.Execute(context.Background(), "SELECT 1")
	require.Error(t, err)
	require.Error(t, executor.Ping(context.Background()))
	require.NoError(t, executor.Close())
}
