package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/territory-cli/internal/db"
	"github.com/sells-group/territory-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool db.Pool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 2
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresWithPool wraps an existing pool. Used by tests with pgxmock.
func NewPostgresWithPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS accounts (
	id         TEXT PRIMARY KEY,
	data       JSONB NOT NULL,
	locked     BOOLEAN NOT NULL DEFAULT FALSE,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS reps (
	id         TEXT PRIMARY KEY,
	data       JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS passes (
	id         TEXT PRIMARY KEY,
	record     JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS audit_entries (
	id         TEXT PRIMARY KEY,
	account_id TEXT NOT NULL,
	entry      JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_audit_account ON audit_entries(account_id, created_at DESC);
`

// Migrate creates the schema if it does not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, postgresMigration); err != nil {
		return eris.Wrap(err, "postgres: migrate")
	}
	return nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// SaveAccounts bulk-upserts the account snapshot.
func (s *PostgresStore) SaveAccounts(ctx context.Context, accounts []model.Account) error {
	rows := make([][]any, 0, len(accounts))
	now := time.Now().UTC()
	for i := range accounts {
		data, err := json.Marshal(&accounts[i])
		if err != nil {
			return eris.Wrapf(err, "postgres: marshal account %s", accounts[i].ID)
		}
		rows = append(rows, []any{accounts[i].ID, data, accounts[i].ExcludeFromReassignment, now})
	}
	_, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "accounts",
		Columns:      []string{"id", "data", "locked", "updated_at"},
		ConflictKeys: []string{"id"},
	}, rows)
	if err != nil {
		return eris.Wrap(err, "postgres: save accounts")
	}
	return nil
}

// ListAccounts returns the stored account snapshot ordered by id.
func (s *PostgresStore) ListAccounts(ctx context.Context) ([]model.Account, error) {
	rows, err := s.pool.Query(ctx, `SELECT data FROM accounts ORDER BY id`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list accounts")
	}
	defer rows.Close()

	var accounts []model.Account
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, eris.Wrap(err, "postgres: scan account")
		}
		var a model.Account
		if err := json.Unmarshal(data, &a); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal account")
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// SaveReps bulk-upserts the rep snapshot.
func (s *PostgresStore) SaveReps(ctx context.Context, reps []model.SalesRep) error {
	rows := make([][]any, 0, len(reps))
	now := time.Now().UTC()
	for i := range reps {
		data, err := json.Marshal(&reps[i])
		if err != nil {
			return eris.Wrapf(err, "postgres: marshal rep %s", reps[i].ID)
		}
		rows = append(rows, []any{reps[i].ID, data, now})
	}
	_, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "reps",
		Columns:      []string{"id", "data", "updated_at"},
		ConflictKeys: []string{"id"},
	}, rows)
	if err != nil {
		return eris.Wrap(err, "postgres: save reps")
	}
	return nil
}

// ListReps returns the stored rep snapshot ordered by id.
func (s *PostgresStore) ListReps(ctx context.Context) ([]model.SalesRep, error) {
	rows, err := s.pool.Query(ctx, `SELECT data FROM reps ORDER BY id`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list reps")
	}
	defer rows.Close()

	var reps []model.SalesRep
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, eris.Wrap(err, "postgres: scan rep")
		}
		var r model.SalesRep
		if err := json.Unmarshal(data, &r); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal rep")
		}
		reps = append(reps, r)
	}
	return reps, rows.Err()
}

// UpdateAccount persists engine write-backs for a single account.
func (s *PostgresStore) UpdateAccount(ctx context.Context, account model.Account) error {
	data, err := json.Marshal(&account)
	if err != nil {
		return eris.Wrapf(err, "postgres: marshal account %s", account.ID)
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE accounts SET data = $1, locked = $2, updated_at = now() WHERE id = $3`,
		data, account.ExcludeFromReassignment, account.ID)
	if err != nil {
		return eris.Wrapf(err, "postgres: update account %s", account.ID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("postgres: account %s not found", account.ID)
	}
	return nil
}

// SavePass stores one pass record.
func (s *PostgresStore) SavePass(ctx context.Context, pass PassRecord) error {
	if pass.CreatedAt.IsZero() {
		pass.CreatedAt = time.Now().UTC()
	}
	data, err := json.Marshal(&pass)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal pass")
	}
	if _, err := s.pool.Exec(ctx,
		`INSERT INTO passes (id, record, created_at) VALUES ($1, $2, $3)`,
		pass.ID, data, pass.CreatedAt); err != nil {
		return eris.Wrapf(err, "postgres: insert pass %s", pass.ID)
	}
	return nil
}

// GetPass loads one pass by id.
func (s *PostgresStore) GetPass(ctx context.Context, passID string) (*PassRecord, error) {
	var data []byte
	err := s.pool.QueryRow(ctx, `SELECT record FROM passes WHERE id = $1`, passID).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Errorf("postgres: pass %s not found", passID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get pass %s", passID)
	}
	var pass PassRecord
	if err := json.Unmarshal(data, &pass); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal pass")
	}
	return &pass, nil
}

// LatestPass loads the most recent pass, or nil when none exist.
func (s *PostgresStore) LatestPass(ctx context.Context) (*PassRecord, error) {
	var data []byte
	err := s.pool.QueryRow(ctx,
		`SELECT record FROM passes ORDER BY created_at DESC, id DESC LIMIT 1`).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: latest pass")
	}
	var pass PassRecord
	if err := json.Unmarshal(data, &pass); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal pass")
	}
	return &pass, nil
}

// SaveAudit appends one audit entry.
func (s *PostgresStore) SaveAudit(ctx context.Context, entry model.AuditEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	data, err := json.Marshal(&entry)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal audit entry")
	}
	if _, err := s.pool.Exec(ctx,
		`INSERT INTO audit_entries (id, account_id, entry, created_at) VALUES ($1, $2, $3, $4)`,
		entry.ID, entry.AccountID, data, entry.CreatedAt); err != nil {
		return eris.Wrapf(err, "postgres: insert audit entry %s", entry.ID)
	}
	return nil
}

// ListAudit returns audit entries, optionally filtered by account,
// newest first.
func (s *PostgresStore) ListAudit(ctx context.Context, accountID string, limit int) ([]model.AuditEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT entry FROM audit_entries ORDER BY created_at DESC LIMIT $1`
	args := []any{limit}
	if accountID != "" {
		query = `SELECT entry FROM audit_entries WHERE account_id = $1 ORDER BY created_at DESC LIMIT $2`
		args = []any{accountID, limit}
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list audit")
	}
	defer rows.Close()

	var entries []model.AuditEntry
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, eris.Wrap(err, "postgres: scan audit entry")
		}
		var e model.AuditEntry
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal audit entry")
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
