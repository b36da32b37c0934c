package model

import (
	"github.com/rotisserie/eris"
)

// RuleType names one of the supported assignment rule kinds.
type RuleType string

const (
	RuleGeoFirst     RuleType = "GEO_FIRST"
	RuleContinuity   RuleType = "CONTINUITY"
	RuleSmartBalance RuleType = "SMART_BALANCE"
	RuleTierBalance  RuleType = "TIER_BALANCE"
	RuleCREBalance   RuleType = "CRE_BALANCE"
)

// AccountScope restricts which accounts a rule applies to.
type AccountScope string

const (
	ScopeAll       AccountScope = "all"
	ScopeCustomers AccountScope = "customers"
	ScopeProspects AccountScope = "prospects"
)

// AssignmentRule is one entry in the ordered rule configuration. The
// hard waterfall order is fixed; rule priority orders only the soft
// balancing rules layered on top.
//
// Conditions is a closed union: exactly the variant matching RuleType
// is set, all others are nil. Malformed configurations are rejected at
// load time, never mid-pass.
type AssignmentRule struct {
	Name     string       `json:"name" yaml:"name"`
	Priority int          `json:"priority" yaml:"priority"`
	Type     RuleType     `json:"type" yaml:"type"`
	Enabled  bool         `json:"enabled" yaml:"enabled"`
	Scope    AccountScope `json:"scope" yaml:"scope"`

	GeoFirst     *GeoFirstConditions     `json:"geo_first,omitempty" yaml:"geo_first,omitempty"`
	Continuity   *ContinuityConditions   `json:"continuity,omitempty" yaml:"continuity,omitempty"`
	SmartBalance *SmartBalanceConditions `json:"smart_balance,omitempty" yaml:"smart_balance,omitempty"`
	TierBalance  *TierBalanceConditions  `json:"tier_balance,omitempty" yaml:"tier_balance,omitempty"`
	CREBalance   *CREBalanceConditions   `json:"cre_balance,omitempty" yaml:"cre_balance,omitempty"`
}

// GeoFirstConditions tunes the geography steps of the waterfall.
type GeoFirstConditions struct {
	// StrictRegionMatch requires the mapped region to equal the rep
	// region exactly; otherwise matching tolerates case and whitespace
	// differences between the roster and the territory table.
	StrictRegionMatch bool `json:"strict_region_match" yaml:"strict_region_match"`
}

// ContinuityConditions tunes the continuity steps.
type ContinuityConditions struct {
	// CustomersOnly limits continuity preference to customer accounts.
	CustomersOnly bool `json:"customers_only" yaml:"customers_only"`
}

// SmartBalanceConditions weights the ARR-deficit balancing metric.
// Weights scale the metric's deficits before the comparison epsilon, so
// a small weight makes the metric concede near-ties to later metrics.
type SmartBalanceConditions struct {
	// ARRWeight scales the ARR deficit; values at or below zero fall
	// back to 1.
	ARRWeight float64 `json:"arr_weight" yaml:"arr_weight"`
	// RenewalQuarterWeight enables renewal-quarter load spreading when
	// positive and scales its deficit. Zero or negative disables it.
	RenewalQuarterWeight float64 `json:"renewal_quarter_weight" yaml:"renewal_quarter_weight"`
}

// TierBalanceConditions weights the tier-deficit balancing metric. The
// tier/rep pairing scores (60/40/20) are fixed and not configurable.
type TierBalanceConditions struct {
	// TierWeight scales the tier deficit; values at or below zero fall
	// back to 1.
	TierWeight float64 `json:"tier_weight" yaml:"tier_weight"`
}

// CREBalanceConditions tunes CRE spreading. The hard CRE cap comes from
// capacity configuration, not from here.
type CREBalanceConditions struct {
	// CREWeight scales the CRE deficit; values at or below zero fall
	// back to 1.
	CREWeight float64 `json:"cre_weight" yaml:"cre_weight"`
}

// Validate checks the rule's shape: known type and scope, and exactly
// the condition variant matching the type populated.
func (r *AssignmentRule) Validate() error {
	switch r.Scope {
	case ScopeAll, ScopeCustomers, ScopeProspects:
	case "":
		return eris.Errorf("rule %q: missing account scope", r.Name)
	default:
		return eris.Errorf("rule %q: unknown account scope %q", r.Name, r.Scope)
	}

	variants := 0
	for _, set := range []bool{
		r.GeoFirst != nil,
		r.Continuity != nil,
		r.SmartBalance != nil,
		r.TierBalance != nil,
		r.CREBalance != nil,
	} {
		if set {
			variants++
		}
	}
	if variants > 1 {
		return eris.Errorf("rule %q: multiple condition variants set", r.Name)
	}

	switch r.Type {
	case RuleGeoFirst:
		if variants == 1 && r.GeoFirst == nil {
			return eris.Errorf("rule %q: conditions do not match type %s", r.Name, r.Type)
		}
	case RuleContinuity:
		if variants == 1 && r.Continuity == nil {
			return eris.Errorf("rule %q: conditions do not match type %s", r.Name, r.Type)
		}
	case RuleSmartBalance:
		if variants == 1 && r.SmartBalance == nil {
			return eris.Errorf("rule %q: conditions do not match type %s", r.Name, r.Type)
		}
	case RuleTierBalance:
		if variants == 1 && r.TierBalance == nil {
			return eris.Errorf("rule %q: conditions do not match type %s", r.Name, r.Type)
		}
	case RuleCREBalance:
		if variants == 1 && r.CREBalance == nil {
			return eris.Errorf("rule %q: conditions do not match type %s", r.Name, r.Type)
		}
	case "":
		return eris.Errorf("rule %q: missing rule type", r.Name)
	default:
		return eris.Errorf("rule %q: unsupported rule type %q", r.Name, r.Type)
	}

	return nil
}

// AppliesTo reports whether the rule's scope covers the account.
func (r *AssignmentRule) AppliesTo(a *Account) bool {
	switch r.Scope {
	case ScopeCustomers:
		return a.IsCustomer
	case ScopeProspects:
		return !a.IsCustomer
	default:
		return true
	}
}
