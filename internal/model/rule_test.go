package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAssignmentRuleValidate(t *testing.T) {
	tests := []struct {
		name    string
		rule    AssignmentRule
		wantErr bool
	}{
		{
			name: "valid bare rule",
			rule: AssignmentRule{Name: "geo", Type: RuleGeoFirst, Scope: ScopeAll},
		},
		{
			name: "valid with matching conditions",
			rule: AssignmentRule{Name: "smart", Type: RuleSmartBalance, Scope: ScopeCustomers,
				SmartBalance: &SmartBalanceConditions{ARRWeight: 1}},
		},
		{
			name:    "missing scope",
			rule:    AssignmentRule{Name: "geo", Type: RuleGeoFirst},
			wantErr: true,
		},
		{
			name:    "unknown scope",
			rule:    AssignmentRule{Name: "geo", Type: RuleGeoFirst, Scope: "everyone"},
			wantErr: true,
		},
		{
			name:    "missing type",
			rule:    AssignmentRule{Name: "anon", Scope: ScopeAll},
			wantErr: true,
		},
		{
			name:    "unknown type",
			rule:    AssignmentRule{Name: "weird", Type: "MOON_PHASE", Scope: ScopeAll},
			wantErr: true,
		},
		{
			name: "mismatched conditions",
			rule: AssignmentRule{Name: "geo", Type: RuleGeoFirst, Scope: ScopeAll,
				SmartBalance: &SmartBalanceConditions{ARRWeight: 1}},
			wantErr: true,
		},
		{
			name: "multiple condition variants",
			rule: AssignmentRule{Name: "both", Type: RuleSmartBalance, Scope: ScopeAll,
				SmartBalance: &SmartBalanceConditions{ARRWeight: 1},
				TierBalance:  &TierBalanceConditions{TierWeight: 1}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.rule.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestAssignmentRuleAppliesTo(t *testing.T) {
	customer := &Account{ID: "a1", IsCustomer: true}
	prospect := &Account{ID: "a2"}

	all := AssignmentRule{Scope: ScopeAll}
	assert.True(t, all.AppliesTo(customer))
	assert.True(t, all.AppliesTo(prospect))

	customers := AssignmentRule{Scope: ScopeCustomers}
	assert.True(t, customers.AppliesTo(customer))
	assert.False(t, customers.AppliesTo(prospect))

	prospects := AssignmentRule{Scope: ScopeProspects}
	assert.False(t, prospects.AppliesTo(customer))
	assert.True(t, prospects.AppliesTo(prospect))
}

func TestProposalHelpers(t *testing.T) {
	p := AssignmentProposal{AccountID: "a1"}
	assert.False(t, p.Assigned())

	p.ProposedOwnerID = "r1"
	assert.True(t, p.Assigned())

	p.Warnings = append(p.Warnings, Warning{Type: WarnCrossRegion})
	assert.True(t, p.HasWarning(WarnCrossRegion))
	assert.False(t, p.HasWarning(WarnHierarchySplit))
}
