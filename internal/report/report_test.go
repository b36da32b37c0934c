package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/territory-cli/internal/engine"
	"github.com/sells-group/territory-cli/internal/model"
)

func testRoster(t *testing.T) *engine.Roster {
	t.Helper()
	roster, err := engine.BuildRoster([]*model.Account{
		{ID: "a1", IsCustomer: true, ARR: 1_000_000, CRECount: 2, ExpansionTier: model.Tier1},
		{ID: "a2", ARR: 400_000},
		{ID: "a3", ARR: 200_000},
	})
	require.NoError(t, err)
	return roster
}

func testResult() *engine.PassResult {
	return &engine.PassResult{
		PassID: "pass-1",
		Proposals: []model.AssignmentProposal{
			{AccountID: "a1", ProposedOwnerID: "r1", RuleApplied: model.RuleContinuityGeo,
				Confidence: model.ConfidenceHigh},
			{AccountID: "a2", ProposedOwnerID: "r2", RuleApplied: model.RuleBestAvailable,
				Confidence: model.ConfidenceMedium,
				Warnings:   []model.Warning{{AccountID: "a2", Type: model.WarnCrossRegion}}},
			{AccountID: "a3", RuleApplied: model.RuleUnassigned,
				Confidence: model.ConfidenceLow,
				Warnings:   []model.Warning{{AccountID: "a3", Type: model.WarnCapacityExceeded}}},
		},
		UnassignedIDs: []string{"a3"},
	}
}

func TestSummarize(t *testing.T) {
	names := map[string]string{"r1": "Jordan", "r2": "Sam"}
	s := Summarize(testResult(), testRoster(t), func(id string) string { return names[id] })

	assert.Equal(t, "pass-1", s.PassID)
	assert.Equal(t, 3, s.Accounts)
	assert.Equal(t, 2, s.Assigned)
	assert.Equal(t, 1, s.Unassigned)

	assert.Equal(t, 1, s.ByConfidence[model.ConfidenceHigh])
	assert.Equal(t, 1, s.ByConfidence[model.ConfidenceMedium])
	assert.Equal(t, 1, s.ByConfidence[model.ConfidenceLow])
	assert.Equal(t, 1, s.ByWarning[model.WarnCrossRegion])
	assert.Equal(t, 1, s.ByRule[model.RuleContinuityGeo])
	assert.Equal(t, 1, s.ByRule[model.RuleUnassigned])

	// Sorted by ARR descending.
	require.Len(t, s.ByRep, 2)
	assert.Equal(t, "r1", s.ByRep[0].RepID)
	assert.Equal(t, "Jordan", s.ByRep[0].RepName)
	assert.InDelta(t, 1_000_000, s.ByRep[0].TotalARR, 1)
	assert.Equal(t, 1, s.ByRep[0].CRECount)
	assert.Equal(t, 1, s.ByRep[0].Tier1Count)
	assert.Equal(t, "r2", s.ByRep[1].RepID)
}

func TestRender(t *testing.T) {
	s := Summarize(testResult(), testRoster(t), func(id string) string { return id })
	out := s.Render()

	assert.Contains(t, out, "Pass pass-1: 3 accounts, 2 assigned, 1 unassigned")
	assert.Contains(t, out, "HIGH 1 / MEDIUM 1 / LOW 1")
	assert.Contains(t, out, "CROSS_REGION")
	assert.Contains(t, out, "CAPACITY_EXCEEDED")
	assert.Contains(t, out, "1,000,000")
}
