package model

import "time"

// AuditEntry records one manual reassignment or lock operation.
type AuditEntry struct {
	ID        string    `json:"id"`
	AccountID string    `json:"account_id"`
	Operation string    `json:"operation"`

	PreviousOwnerID   string `json:"previous_owner_id,omitempty"`
	PreviousOwnerName string `json:"previous_owner_name,omitempty"`
	NewOwnerID        string `json:"new_owner_id,omitempty"`
	NewOwnerName      string `json:"new_owner_name,omitempty"`

	// CascadedAccountIDs lists the child accounts moved alongside the
	// target, excluding the target itself.
	CascadedAccountIDs []string      `json:"cascaded_account_ids,omitempty"`
	Warnings           []WarningType `json:"warnings,omitempty"`
	Rationale          string        `json:"rationale,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// Audit operation names.
const (
	AuditOpReassign = "reassign"
	AuditOpLock     = "lock"
	AuditOpUnlock   = "unlock"
)
