package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/territory-cli/internal/model"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadRuleSet(t *testing.T) {
	rulesYAML := `
rules:
  - name: balance arr
    priority: 2
    type: SMART_BALANCE
    enabled: true
    scope: all
    smart_balance:
      arr_weight: 1.0
      renewal_quarter_weight: 0.5
  - name: geo first
    priority: 1
    type: GEO_FIRST
    enabled: true
    scope: all
`
	territoriesYAML := `
territories:
  CA: west
  NY: east
`
	rs, err := LoadRuleSet(
		writeTempFile(t, "rules.yaml", rulesYAML),
		writeTempFile(t, "territories.yaml", territoriesYAML),
	)
	require.NoError(t, err)

	rules := rs.Rules()
	require.Len(t, rules, 2)
	assert.Equal(t, "geo first", rules[0].Name) // priority order
	assert.Equal(t, model.RuleSmartBalance, rules[1].Type)
	assert.InDelta(t, 1.0, rules[1].SmartBalance.ARRWeight, 0.001)

	region, ok := rs.Region("CA")
	assert.True(t, ok)
	assert.Equal(t, "west", region)

	_, ok = rs.Region("ZZ")
	assert.False(t, ok)
}

func TestLoadRuleSetRejectsInvalidRule(t *testing.T) {
	rulesYAML := `
rules:
  - name: broken
    priority: 1
    type: NOT_A_RULE
    enabled: true
    scope: all
`
	_, err := LoadRuleSet(writeTempFile(t, "rules.yaml", rulesYAML), "")
	assert.Error(t, err)
}

func TestLoadRuleSetMissingFile(t *testing.T) {
	_, err := LoadRuleSet(filepath.Join(t.TempDir(), "absent.yaml"), "")
	assert.Error(t, err)
}

func TestRuleSetEnabledRespectsScope(t *testing.T) {
	rs, err := NewRuleSet([]model.AssignmentRule{
		{Name: "customers only", Priority: 1, Type: model.RuleSmartBalance,
			Enabled: true, Scope: model.ScopeCustomers},
		{Name: "off", Priority: 2, Type: model.RuleTierBalance,
			Enabled: false, Scope: model.ScopeAll},
	}, nil)
	require.NoError(t, err)

	customer := &model.Account{ID: "a1", IsCustomer: true}
	prospect := &model.Account{ID: "a2"}

	assert.True(t, rs.Enabled(model.RuleSmartBalance, customer))
	assert.False(t, rs.Enabled(model.RuleSmartBalance, prospect))
	assert.False(t, rs.Enabled(model.RuleTierBalance, customer))
}
