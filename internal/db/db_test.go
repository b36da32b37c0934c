package db

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBulkUpsert(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	cols := []string{"id", "data", "updated_at"}
	rows := [][]any{
		{"a1", []byte(`{}`), "2026-08-01"},
		{"a2", []byte(`{}`), "2026-08-01"},
	}

	mock.ExpectBegin()
	mock.ExpectExec("CREATE TEMP TABLE").WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"_tmp_upsert_accounts"}, cols).WillReturnResult(2)
	mock.ExpectExec("INSERT INTO").WillReturnResult(pgxmock.NewResult("INSERT", 2))
	mock.ExpectCommit()

	n, err := BulkUpsert(context.Background(), mock, UpsertConfig{
		Table:        "accounts",
		Columns:      cols,
		ConflictKeys: []string{"id"},
	}, rows)

	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBulkUpsertEmptyRows(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	n, err := BulkUpsert(context.Background(), mock, UpsertConfig{
		Table:        "accounts",
		Columns:      []string{"id"},
		ConflictKeys: []string{"id"},
	}, nil)

	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestBulkUpsertValidation(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	rows := [][]any{{"a1"}}

	_, err = BulkUpsert(context.Background(), mock, UpsertConfig{
		Table: "accounts", ConflictKeys: []string{"id"},
	}, rows)
	assert.Error(t, err)

	_, err = BulkUpsert(context.Background(), mock, UpsertConfig{
		Table: "accounts", Columns: []string{"id"},
	}, rows)
	assert.Error(t, err)
}

func TestQuoteAndJoin(t *testing.T) {
	assert.Equal(t, `"id", "data"`, quoteAndJoin([]string{"id", "data"}))
}
