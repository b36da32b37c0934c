// Package report summarizes a completed assignment pass for operators.
package report

import (
	"sort"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/sells-group/territory-cli/internal/engine"
	"github.com/sells-group/territory-cli/internal/model"
)

// RepSummary is one rep's share of a pass.
type RepSummary struct {
	RepID        string  `json:"rep_id"`
	RepName      string  `json:"rep_name"`
	AccountCount int     `json:"account_count"`
	TotalARR     float64 `json:"total_arr"`
	CRECount     int     `json:"cre_count"`
	Tier1Count   int     `json:"tier1_count"`
}

// PassSummary aggregates one pass's proposals.
type PassSummary struct {
	PassID       string                         `json:"pass_id"`
	Accounts     int                            `json:"accounts"`
	Assigned     int                            `json:"assigned"`
	Unassigned   int                            `json:"unassigned"`
	ByRep        []RepSummary                   `json:"by_rep"`
	ByConfidence map[model.Confidence]int       `json:"by_confidence"`
	ByWarning    map[model.WarningType]int      `json:"by_warning"`
	ByRule       map[model.AppliedRule]int      `json:"by_rule"`
}

// Summarize aggregates the pass result against its account roster.
func Summarize(result *engine.PassResult, roster *engine.Roster, repName func(id string) string) *PassSummary {
	s := &PassSummary{
		PassID:       result.PassID,
		Accounts:     len(result.Proposals),
		ByConfidence: make(map[model.Confidence]int),
		ByWarning:    make(map[model.WarningType]int),
		ByRule:       make(map[model.AppliedRule]int),
	}

	byRep := make(map[string]*RepSummary)
	for _, p := range result.Proposals {
		s.ByConfidence[p.Confidence]++
		s.ByRule[p.RuleApplied]++
		for _, w := range p.Warnings {
			s.ByWarning[w.Type]++
		}
		if !p.Assigned() {
			s.Unassigned++
			continue
		}
		s.Assigned++

		rs := byRep[p.ProposedOwnerID]
		if rs == nil {
			rs = &RepSummary{RepID: p.ProposedOwnerID, RepName: repName(p.ProposedOwnerID)}
			byRep[p.ProposedOwnerID] = rs
		}
		rs.AccountCount++
		if a := roster.Get(p.AccountID); a != nil {
			rs.TotalARR += a.EffectiveARR()
			if a.CRECount > 0 {
				rs.CRECount++
			}
			if a.EffectiveTier() == model.Tier1 {
				rs.Tier1Count++
			}
		}
	}

	for _, rs := range byRep {
		s.ByRep = append(s.ByRep, *rs)
	}
	sort.Slice(s.ByRep, func(i, j int) bool {
		if s.ByRep[i].TotalARR != s.ByRep[j].TotalARR {
			return s.ByRep[i].TotalARR > s.ByRep[j].TotalARR
		}
		return s.ByRep[i].RepID < s.ByRep[j].RepID
	})

	return s
}

// Render formats the summary as operator-readable text.
func (s *PassSummary) Render() string {
	p := message.NewPrinter(language.English)
	var b strings.Builder

	p.Fprintf(&b, "Pass %s: %d accounts, %d assigned, %d unassigned\n",
		s.PassID, s.Accounts, s.Assigned, s.Unassigned)

	p.Fprintf(&b, "\nConfidence: HIGH %d / MEDIUM %d / LOW %d\n",
		s.ByConfidence[model.ConfidenceHigh],
		s.ByConfidence[model.ConfidenceMedium],
		s.ByConfidence[model.ConfidenceLow])

	if len(s.ByWarning) > 0 {
		b.WriteString("\nWarnings:\n")
		for _, t := range sortedWarningTypes(s.ByWarning) {
			p.Fprintf(&b, "  %-24s %d\n", string(t), s.ByWarning[t])
		}
	}

	b.WriteString("\nLoad by rep:\n")
	for _, rs := range s.ByRep {
		name := rs.RepName
		if name == "" {
			name = rs.RepID
		}
		p.Fprintf(&b, "  %-24s %3d accounts  $%.0f ARR  %d CRE  %d tier-1\n",
			name, rs.AccountCount, rs.TotalARR, rs.CRECount, rs.Tier1Count)
	}

	return b.String()
}

func sortedWarningTypes(m map[model.WarningType]int) []model.WarningType {
	types := make([]model.WarningType, 0, len(m))
	for t := range m {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}
