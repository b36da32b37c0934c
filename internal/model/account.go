package model

import (
	"time"
)

// Tier buckets accounts by expected sales motion. Tier 1 is the largest,
// most strategic book; tier 4 is transactional.
type Tier int

const (
	TierUnknown Tier = 0
	Tier1       Tier = 1
	Tier2       Tier = 2
	Tier3       Tier = 3
	Tier4       Tier = 4
)

// Account is one customer or prospect account in a build snapshot.
//
// CurrentOwner* is the "before" picture and is immutable once a build
// starts; ProposedOwner* is the working assignment the engine writes.
type Account struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	IsParent    bool   `json:"is_parent"`
	// UltimateParentID links a child to the top of its hierarchy.
	// Hierarchies are at most two levels deep; a child never walks
	// further ancestors.
	UltimateParentID string `json:"ultimate_parent_id,omitempty"`
	IsCustomer       bool   `json:"is_customer"`

	ARR float64 `json:"arr"`
	// HierarchyARR is the consolidated ARR across the account and its
	// children, used in place of ARR when the account is a parent.
	HierarchyARR float64 `json:"hierarchy_arr"`
	ATR          float64 `json:"atr"`

	ExpansionTier   Tier `json:"expansion_tier"`
	InitialSaleTier Tier `json:"initial_sale_tier"`

	Territory string `json:"territory"`
	CRECount  int    `json:"cre_count"`

	RenewalDate time.Time `json:"renewal_date,omitzero"`

	CurrentOwnerID   string `json:"current_owner_id,omitempty"`
	CurrentOwnerName string `json:"current_owner_name,omitempty"`

	ProposedOwnerID   string `json:"proposed_owner_id,omitempty"`
	ProposedOwnerName string `json:"proposed_owner_name,omitempty"`

	// ExcludeFromReassignment pins the account to its current owner
	// through every pass until explicitly unlocked.
	ExcludeFromReassignment bool   `json:"exclude_from_reassignment"`
	LockReason              string `json:"lock_reason,omitempty"`

	HasSplitOwnership bool `json:"has_split_ownership"`
}

// EffectiveARR returns the ARR used for capacity math: consolidated
// hierarchy ARR for parents, direct ARR otherwise.
func (a *Account) EffectiveARR() float64 {
	if a.IsParent && a.HierarchyARR > 0 {
		return a.HierarchyARR
	}
	return a.ARR
}

// EffectiveTier picks the authoritative tier for the account's motion:
// expansion tier for customers, initial-sale tier for prospects, with
// fallback to whichever is set.
func (a *Account) EffectiveTier() Tier {
	if a.IsCustomer {
		if a.ExpansionTier != TierUnknown {
			return a.ExpansionTier
		}
		return a.InitialSaleTier
	}
	if a.InitialSaleTier != TierUnknown {
		return a.InitialSaleTier
	}
	return a.ExpansionTier
}

// RenewalQuarter returns the calendar quarter (1-4) of the account's
// renewal date, or 0 when no renewal date is known.
func (a *Account) RenewalQuarter() int {
	if a.RenewalDate.IsZero() {
		return 0
	}
	return (int(a.RenewalDate.Month())-1)/3 + 1
}

// IsChild reports whether the account participates in a hierarchy as a
// child.
func (a *Account) IsChild() bool {
	return a.UltimateParentID != "" && a.UltimateParentID != a.ID
}
