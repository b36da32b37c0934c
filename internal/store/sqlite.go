package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/territory-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS accounts (
	id         TEXT PRIMARY KEY,
	data       TEXT NOT NULL,
	locked     INTEGER NOT NULL DEFAULT 0,
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS reps (
	id         TEXT PRIMARY KEY,
	data       TEXT NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS passes (
	id         TEXT PRIMARY KEY,
	record     TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS audit_entries (
	id         TEXT PRIMARY KEY,
	account_id TEXT NOT NULL,
	entry      TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_audit_account ON audit_entries(account_id, created_at DESC);
`

// Migrate creates the schema if it does not exist.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteMigration); err != nil {
		return eris.Wrap(err, "sqlite: migrate")
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveAccounts upserts the full account snapshot.
func (s *SQLiteStore) SaveAccounts(ctx context.Context, accounts []model.Account) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO accounts (id, data, locked, updated_at) VALUES (?, ?, ?, datetime('now'))
		ON CONFLICT(id) DO UPDATE SET data = excluded.data, locked = excluded.locked, updated_at = excluded.updated_at`)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare account upsert")
	}
	defer stmt.Close()

	for i := range accounts {
		data, err := json.Marshal(&accounts[i])
		if err != nil {
			return eris.Wrapf(err, "sqlite: marshal account %s", accounts[i].ID)
		}
		locked := 0
		if accounts[i].ExcludeFromReassignment {
			locked = 1
		}
		if _, err := stmt.ExecContext(ctx, accounts[i].ID, string(data), locked); err != nil {
			return eris.Wrapf(err, "sqlite: upsert account %s", accounts[i].ID)
		}
	}
	if err := tx.Commit(); err != nil {
		return eris.Wrap(err, "sqlite: commit accounts")
	}
	return nil
}

// ListAccounts returns the stored account snapshot ordered by id.
func (s *SQLiteStore) ListAccounts(ctx context.Context) ([]model.Account, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT data FROM accounts ORDER BY id`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list accounts")
	}
	defer rows.Close()

	var accounts []model.Account
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan account")
		}
		var a model.Account
		if err := json.Unmarshal([]byte(data), &a); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal account")
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// SaveReps upserts the rep snapshot.
func (s *SQLiteStore) SaveReps(ctx context.Context, reps []model.SalesRep) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO reps (id, data, updated_at) VALUES (?, ?, datetime('now'))
		ON CONFLICT(id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare rep upsert")
	}
	defer stmt.Close()

	for i := range reps {
		data, err := json.Marshal(&reps[i])
		if err != nil {
			return eris.Wrapf(err, "sqlite: marshal rep %s", reps[i].ID)
		}
		if _, err := stmt.ExecContext(ctx, reps[i].ID, string(data)); err != nil {
			return eris.Wrapf(err, "sqlite: upsert rep %s", reps[i].ID)
		}
	}
	if err := tx.Commit(); err != nil {
		return eris.Wrap(err, "sqlite: commit reps")
	}
	return nil
}

// ListReps returns the stored rep snapshot ordered by id.
func (s *SQLiteStore) ListReps(ctx context.Context) ([]model.SalesRep, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT data FROM reps ORDER BY id`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list reps")
	}
	defer rows.Close()

	var reps []model.SalesRep
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan rep")
		}
		var r model.SalesRep
		if err := json.Unmarshal([]byte(data), &r); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal rep")
		}
		reps = append(reps, r)
	}
	return reps, rows.Err()
}

// UpdateAccount persists engine write-backs for a single account.
func (s *SQLiteStore) UpdateAccount(ctx context.Context, account model.Account) error {
	data, err := json.Marshal(&account)
	if err != nil {
		return eris.Wrapf(err, "sqlite: marshal account %s", account.ID)
	}
	locked := 0
	if account.ExcludeFromReassignment {
		locked = 1
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE accounts SET data = ?, locked = ?, updated_at = datetime('now') WHERE id = ?`,
		string(data), locked, account.ID)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update account %s", account.ID)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return eris.Errorf("sqlite: account %s not found", account.ID)
	}
	return nil
}

// SavePass stores one pass record as a JSON blob.
func (s *SQLiteStore) SavePass(ctx context.Context, pass PassRecord) error {
	if pass.CreatedAt.IsZero() {
		pass.CreatedAt = time.Now().UTC()
	}
	data, err := json.Marshal(&pass)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal pass")
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO passes (id, record, created_at) VALUES (?, ?, ?)`,
		pass.ID, string(data), pass.CreatedAt); err != nil {
		return eris.Wrapf(err, "sqlite: insert pass %s", pass.ID)
	}
	return nil
}

// GetPass loads one pass by id.
func (s *SQLiteStore) GetPass(ctx context.Context, passID string) (*PassRecord, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT record FROM passes WHERE id = ?`, passID).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, eris.Errorf("sqlite: pass %s not found", passID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get pass %s", passID)
	}
	var pass PassRecord
	if err := json.Unmarshal([]byte(data), &pass); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal pass")
	}
	return &pass, nil
}

// LatestPass loads the most recent pass, or nil when none exist.
func (s *SQLiteStore) LatestPass(ctx context.Context) (*PassRecord, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT record FROM passes ORDER BY created_at DESC, id DESC LIMIT 1`).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: latest pass")
	}
	var pass PassRecord
	if err := json.Unmarshal([]byte(data), &pass); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal pass")
	}
	return &pass, nil
}

// SaveAudit appends one audit entry.
func (s *SQLiteStore) SaveAudit(ctx context.Context, entry model.AuditEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	data, err := json.Marshal(&entry)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal audit entry")
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO audit_entries (id, account_id, entry, created_at) VALUES (?, ?, ?, ?)`,
		entry.ID, entry.AccountID, string(data), entry.CreatedAt); err != nil {
		return eris.Wrapf(err, "sqlite: insert audit entry %s", entry.ID)
	}
	return nil
}

// ListAudit returns audit entries, optionally filtered by account,
// newest first.
func (s *SQLiteStore) ListAudit(ctx context.Context, accountID string, limit int) ([]model.AuditEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT entry FROM audit_entries ORDER BY created_at DESC LIMIT ?`
	args := []any{limit}
	if accountID != "" {
		query = `SELECT entry FROM audit_entries WHERE account_id = ? ORDER BY created_at DESC LIMIT ?`
		args = []any{accountID, limit}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list audit")
	}
	defer rows.Close()

	var entries []model.AuditEntry
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan audit entry")
		}
		var e model.AuditEntry
		if err := json.Unmarshal([]byte(data), &e); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal audit entry")
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
