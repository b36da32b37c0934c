package model

// Confidence classifies how safe a proposed assignment is.
type Confidence string

const (
	ConfidenceHigh   Confidence = "HIGH"
	ConfidenceMedium Confidence = "MEDIUM"
	ConfidenceLow    Confidence = "LOW"
)

// CRERisk classifies an account's churn risk from its CRE count. It is
// tracked separately from Confidence: confidence answers "is this
// assignment sound", CRE risk answers "is this account likely to churn".
type CRERisk string

const (
	CRERiskNone   CRERisk = "none"
	CRERiskLow    CRERisk = "low"
	CRERiskMedium CRERisk = "medium"
	CRERiskHigh   CRERisk = "high"
)

// CRERiskFor derives the risk level from a raw CRE count.
func CRERiskFor(creCount int) CRERisk {
	switch {
	case creCount <= 0:
		return CRERiskNone
	case creCount == 1:
		return CRERiskLow
	case creCount == 2:
		return CRERiskMedium
	default:
		return CRERiskHigh
	}
}

// Severity grades a warning.
type Severity string

const (
	SeverityHigh   Severity = "HIGH"
	SeverityMedium Severity = "MEDIUM"
	SeverityLow    Severity = "LOW"
)

// WarningType tags a warning attached to a single account's proposal.
type WarningType string

const (
	WarnHierarchySplit       WarningType = "HIERARCHY_SPLIT"
	WarnLockOverride         WarningType = "LOCK_OVERRIDE"
	WarnCRERisk              WarningType = "CRE_RISK"
	WarnStrategicOverflow    WarningType = "STRATEGIC_OVERFLOW"
	WarnCrossRegion          WarningType = "CROSS_REGION"
	WarnCapacityExceeded     WarningType = "CAPACITY_EXCEEDED"
	WarnContinuityBroken     WarningType = "CONTINUITY_BROKEN"
	WarnTierConcentration    WarningType = "TIER_CONCENTRATION"
	WarnChangingCustomer     WarningType = "CHANGING_CUSTOMER_OWNER"
)

// Warning is a typed flag attached to one account's proposal.
type Warning struct {
	AccountID string      `json:"account_id"`
	Type      WarningType `json:"type"`
	Severity  Severity    `json:"severity"`
	Message   string      `json:"message,omitempty"`
}

// AppliedRule names the waterfall step (or manual operation) that
// produced a proposal.
type AppliedRule string

const (
	RuleLocked             AppliedRule = "LOCKED"
	RuleStrategicPool      AppliedRule = "STRATEGIC_POOL"
	RuleContinuityGeo      AppliedRule = "CONTINUITY_GEO"
	RuleGeographyBest      AppliedRule = "GEOGRAPHY_BEST"
	RuleContinuityAnyGeo   AppliedRule = "CONTINUITY_ANY_GEO"
	RuleBestAvailable      AppliedRule = "BEST_AVAILABLE"
	RuleUnassigned         AppliedRule = "UNASSIGNED"
	RuleManualReassignment AppliedRule = "MANUAL_REASSIGNMENT"
)

// AssignmentProposal is the engine's primary output: one per account,
// produced fresh each pass and replaced wholesale.
type AssignmentProposal struct {
	AccountID           string      `json:"account_id"`
	ProposedOwnerID     string      `json:"proposed_owner_id,omitempty"`
	ProposedOwnerName   string      `json:"proposed_owner_name,omitempty"`
	ProposedOwnerRegion string      `json:"proposed_owner_region,omitempty"`
	RuleApplied         AppliedRule `json:"rule_applied"`
	AssignmentReason    string      `json:"assignment_reason"`
	Confidence          Confidence  `json:"confidence"`
	CRERisk             CRERisk     `json:"cre_risk"`
	Warnings            []Warning   `json:"warnings,omitempty"`
}

// Assigned reports whether the proposal carries an owner.
func (p *AssignmentProposal) Assigned() bool {
	return p.ProposedOwnerID != ""
}

// HasWarning reports whether a warning of the given type is attached.
func (p *AssignmentProposal) HasWarning(t WarningType) bool {
	for _, w := range p.Warnings {
		if w.Type == t {
			return true
		}
	}
	return false
}
