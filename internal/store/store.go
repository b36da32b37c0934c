// Package store persists build snapshots, pass outputs, and audit
// entries. The engine itself never touches a store: callers load
// snapshots, run the engine, and persist its outputs here.
package store

import (
	"context"
	"time"

	"github.com/sells-group/territory-cli/internal/model"
)

// PassRecord is one persisted assignment pass.
type PassRecord struct {
	ID            string                     `json:"id"`
	CreatedAt     time.Time                  `json:"created_at"`
	Proposals     []model.AssignmentProposal `json:"proposals"`
	Warnings      []model.Warning            `json:"warnings,omitempty"`
	UnassignedIDs []string                   `json:"unassigned_ids,omitempty"`
}

// Store defines the persistence interface for the assignment engine's
// inputs and outputs.
type Store interface {
	// Snapshot
	SaveAccounts(ctx context.Context, accounts []model.Account) error
	ListAccounts(ctx context.Context) ([]model.Account, error)
	SaveReps(ctx context.Context, reps []model.SalesRep) error
	ListReps(ctx context.Context) ([]model.SalesRep, error)

	// Write-backs (proposed owner, split flag, lock state)
	UpdateAccount(ctx context.Context, account model.Account) error

	// Passes
	SavePass(ctx context.Context, pass PassRecord) error
	GetPass(ctx context.Context, passID string) (*PassRecord, error)
	LatestPass(ctx context.Context) (*PassRecord, error)

	// Audit
	SaveAudit(ctx context.Context, entry model.AuditEntry) error
	ListAudit(ctx context.Context, accountID string, limit int) ([]model.AuditEntry, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
