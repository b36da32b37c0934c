package engine

import (
	"os"
	"sort"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/territory-cli/internal/model"
)

// RuleSet is the validated rule configuration for a pass: the soft
// balancing rules in priority order plus the territory→region table.
// Rules are configuration input to the engine, never engine state.
type RuleSet struct {
	rules             []model.AssignmentRule
	regionByTerritory map[string]string
}

// NewRuleSet validates and orders the given rules. Invalid rules are
// rejected here, before any pass runs.
func NewRuleSet(rules []model.AssignmentRule, territories map[string]string) (*RuleSet, error) {
	for i := range rules {
		if err := rules[i].Validate(); err != nil {
			return nil, eris.Wrap(err, "ruleset: validate")
		}
	}
	ordered := make([]model.AssignmentRule, len(rules))
	copy(ordered, rules)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority < ordered[j].Priority
	})

	regions := make(map[string]string, len(territories))
	for territory, region := range territories {
		regions[territory] = region
	}

	return &RuleSet{rules: ordered, regionByTerritory: regions}, nil
}

// LoadRuleSet reads rule configuration from a YAML file, and the
// territory→region table from a second YAML file when territoryPath is
// non-empty.
func LoadRuleSet(path, territoryPath string) (*RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "ruleset: read config %s", path)
	}

	var wrapper struct {
		Rules []model.AssignmentRule `yaml:"rules"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return nil, eris.Wrap(err, "ruleset: parse config")
	}

	territories := map[string]string{}
	if territoryPath != "" {
		tdata, err := os.ReadFile(territoryPath)
		if err != nil {
			return nil, eris.Wrapf(err, "ruleset: read territories %s", territoryPath)
		}
		var twrapper struct {
			Territories map[string]string `yaml:"territories"`
		}
		if err := yaml.Unmarshal(tdata, &twrapper); err != nil {
			return nil, eris.Wrap(err, "ruleset: parse territories")
		}
		territories = twrapper.Territories
	}

	return NewRuleSet(wrapper.Rules, territories)
}

// Region maps an account territory to its assignment region. The
// second return is false for unmapped territories, which disables the
// geography-only waterfall step for that account.
func (rs *RuleSet) Region(territory string) (string, bool) {
	region, ok := rs.regionByTerritory[territory]
	return region, ok
}

// active returns the highest-priority enabled rule of the given type
// covering the account, or nil.
func (rs *RuleSet) active(t model.RuleType, a *model.Account) *model.AssignmentRule {
	for i := range rs.rules {
		r := &rs.rules[i]
		if r.Type == t && r.Enabled && r.AppliesTo(a) {
			return r
		}
	}
	return nil
}

// Enabled reports whether a rule of the given type is enabled for the
// account.
func (rs *RuleSet) Enabled(t model.RuleType, a *model.Account) bool {
	return rs.active(t, a) != nil
}

// GeoFirst returns the geography conditions for the account, or nil
// when the rule is disabled or carries no conditions block.
func (rs *RuleSet) GeoFirst(a *model.Account) *model.GeoFirstConditions {
	if r := rs.active(model.RuleGeoFirst, a); r != nil {
		return r.GeoFirst
	}
	return nil
}

// Continuity returns the continuity conditions for the account.
func (rs *RuleSet) Continuity(a *model.Account) *model.ContinuityConditions {
	if r := rs.active(model.RuleContinuity, a); r != nil {
		return r.Continuity
	}
	return nil
}

// SmartBalance returns the smart-balance conditions for the account.
func (rs *RuleSet) SmartBalance(a *model.Account) *model.SmartBalanceConditions {
	if r := rs.active(model.RuleSmartBalance, a); r != nil {
		return r.SmartBalance
	}
	return nil
}

// TierBalance returns the tier-balance conditions for the account.
func (rs *RuleSet) TierBalance(a *model.Account) *model.TierBalanceConditions {
	if r := rs.active(model.RuleTierBalance, a); r != nil {
		return r.TierBalance
	}
	return nil
}

// CREBalance returns the CRE-balance conditions for the account.
func (rs *RuleSet) CREBalance(a *model.Account) *model.CREBalanceConditions {
	if r := rs.active(model.RuleCREBalance, a); r != nil {
		return r.CREBalance
	}
	return nil
}

// Rules returns the ordered rule list.
func (rs *RuleSet) Rules() []model.AssignmentRule {
	return rs.rules
}
