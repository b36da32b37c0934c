package model

// SalesRep is one member of the assignment pool.
type SalesRep struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Region string `json:"region"`
	Team   string `json:"team"`

	IsActive bool `json:"is_active"`
	// IncludeInAssignments gates whether the rep can receive accounts
	// at all. Assignment never targets a rep with this unset.
	IncludeInAssignments bool `json:"include_in_assignments"`
	// IsManager excludes the rep from receiving accounts by convention.
	IsManager bool `json:"is_manager"`
	// IsStrategicRep marks membership in the strategic pool. Strategic
	// reps keep their accounts as a group and are exempt from the
	// standard capacity caps.
	IsStrategicRep bool `json:"is_strategic_rep"`
}

// Assignable reports whether the rep may receive accounts: active,
// eligible, and not a manager.
func (r *SalesRep) Assignable() bool {
	return r.IsActive && r.IncludeInAssignments && !r.IsManager
}
