package engine

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/territory-cli/internal/model"
)

// hierarchyFixture builds a parent with two children, all owned by r1,
// plus an unrelated standalone account.
func hierarchyFixture() []*model.Account {
	return []*model.Account{
		{ID: "p1", Name: "Parent", IsParent: true, IsCustomer: true,
			ARR: 1_000_000, HierarchyARR: 1_800_000, Territory: "CA",
			CurrentOwnerID: "r1", CurrentOwnerName: "Rep r1"},
		{ID: "c1", Name: "Child One", UltimateParentID: "p1", IsCustomer: true,
			ARR: 500_000, Territory: "CA",
			CurrentOwnerID: "r1", CurrentOwnerName: "Rep r1"},
		{ID: "c2", Name: "Child Two", UltimateParentID: "p1", IsCustomer: true,
			ARR: 300_000, Territory: "CA",
			CurrentOwnerID: "r1", CurrentOwnerName: "Rep r1"},
		{ID: "solo", Name: "Standalone", ARR: 200_000, Territory: "NY",
			CurrentOwnerID: "r2", CurrentOwnerName: "Rep r2"},
	}
}

func cascadeEngine(t *testing.T, accounts []*model.Account) *Engine {
	t.Helper()
	reps := []*model.SalesRep{testRep("r1", "west"), testRep("r2", "east"), testRep("r3", "west")}
	return newTestEngine(t, accounts, reps)
}

func TestPlanReassignmentRejectsBadInput(t *testing.T) {
	eng := cascadeEngine(t, hierarchyFixture())

	_, err := eng.PlanReassignment(ReassignRequest{AccountID: "ghost", NewOwnerID: "r2"})
	assert.Error(t, err)

	_, err = eng.PlanReassignment(ReassignRequest{AccountID: "p1", NewOwnerID: "ghost"})
	assert.Error(t, err)
}

func TestPlanReassignmentRejectsIneligibleRep(t *testing.T) {
	accounts := hierarchyFixture()
	manager := testRep("m1", "west")
	manager.IsManager = true
	eng, err := New(accounts,
		[]*model.SalesRep{testRep("r1", "west"), manager},
		testRuleSet(t), testCapacity())
	require.NoError(t, err)

	_, err = eng.PlanReassignment(ReassignRequest{AccountID: "solo", NewOwnerID: "m1"})
	assert.Error(t, err)
}

func TestPlanReassignmentRejectsLockedTarget(t *testing.T) {
	accounts := hierarchyFixture()
	accounts[3].ExcludeFromReassignment = true
	accounts[3].LockReason = "executive hold"
	eng := cascadeEngine(t, accounts)

	_, err := eng.PlanReassignment(ReassignRequest{AccountID: "solo", NewOwnerID: "r1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "locked")
}

func TestReassignParentCascadesChildren(t *testing.T) {
	eng := cascadeEngine(t, hierarchyFixture())

	plan, err := eng.PlanReassignment(ReassignRequest{
		AccountID:       "p1",
		NewOwnerID:      "r2",
		IncludeChildren: true,
		Rationale:       "coverage change",
	})
	require.NoError(t, err)
	assert.Equal(t, StateConfirmed, plan.State())
	assert.False(t, plan.RequiresConfirmation())

	result, err := plan.Apply()
	require.NoError(t, err)
	assert.Equal(t, StateApplied, plan.State())

	require.Len(t, result.Affected, 3)
	for _, a := range result.Affected {
		assert.Equal(t, "r2", a.ProposedOwnerID)
	}
	assert.False(t, eng.Roster().Get("p1").HasSplitOwnership)

	assert.Equal(t, "p1", result.Audit.AccountID)
	assert.Equal(t, model.AuditOpReassign, result.Audit.Operation)
	assert.Equal(t, []string{"c1", "c2"}, result.Audit.CascadedAccountIDs)
	assert.Equal(t, "r1", result.Audit.PreviousOwnerID)
	assert.Equal(t, "r2", result.Audit.NewOwnerID)
	assert.Equal(t, "coverage change", result.Audit.Rationale)
}

func TestReassignParentAloneWarnsSplit(t *testing.T) {
	eng := cascadeEngine(t, hierarchyFixture())

	plan, err := eng.PlanReassignment(ReassignRequest{
		AccountID:  "p1",
		NewOwnerID: "r2",
	})
	require.NoError(t, err)
	assert.Equal(t, StateSplitWarned, plan.State())
	// A split warning does not gate Apply; it only forces confidence.
	assert.False(t, plan.RequiresConfirmation())

	result, err := plan.Apply()
	require.NoError(t, err)

	require.Len(t, result.Proposals, 1)
	p := result.Proposals[0]
	assert.Equal(t, model.RuleManualReassignment, p.RuleApplied)
	assert.Equal(t, model.ConfidenceLow, p.Confidence)
	assert.True(t, p.HasWarning(model.WarnHierarchySplit))
	assert.True(t, eng.Roster().Get("p1").HasSplitOwnership)
}

func TestReassignChildAloneWarnsSplit(t *testing.T) {
	eng := cascadeEngine(t, hierarchyFixture())

	plan, err := eng.PlanReassignment(ReassignRequest{
		AccountID:    "c1",
		NewOwnerID:   "r2",
		MoveOnlyThis: true,
	})
	require.NoError(t, err)
	assert.Equal(t, StateSplitWarned, plan.State())

	result, err := plan.Apply()
	require.NoError(t, err)
	require.Len(t, result.Affected, 1)
	assert.Equal(t, "c1", result.Affected[0].ID)
	assert.Equal(t, model.ConfidenceLow, result.Proposals[0].Confidence)
	assert.True(t, eng.Roster().Get("p1").HasSplitOwnership)
}

func TestReassignChildDragsHierarchy(t *testing.T) {
	eng := cascadeEngine(t, hierarchyFixture())

	plan, err := eng.PlanReassignment(ReassignRequest{
		AccountID:  "c1",
		NewOwnerID: "r2",
	})
	require.NoError(t, err)
	assert.Equal(t, StateConfirmed, plan.State())

	result, err := plan.Apply()
	require.NoError(t, err)
	require.Len(t, result.Affected, 3)
	assert.False(t, eng.Roster().Get("p1").HasSplitOwnership)
}

func TestReassignSkipsLockedChildAndWarns(t *testing.T) {
	accounts := hierarchyFixture()
	accounts[2].ExcludeFromReassignment = true // c2
	eng := cascadeEngine(t, accounts)

	plan, err := eng.PlanReassignment(ReassignRequest{
		AccountID:       "p1",
		NewOwnerID:      "r2",
		IncludeChildren: true,
	})
	require.NoError(t, err)
	assert.Equal(t, StateSplitWarned, plan.State())
	assert.Equal(t, []string{"c2"}, plan.SkippedLocked())

	result, err := plan.Apply()
	require.NoError(t, err)
	require.Len(t, result.Affected, 2)
	assert.Equal(t, "r1", eng.Roster().Get("c2").CurrentOwnerID)
	assert.Empty(t, eng.Roster().Get("c2").ProposedOwnerID)
	assert.True(t, eng.Roster().Get("p1").HasSplitOwnership)
}

func TestReassignLockOverrideRequiresConfirm(t *testing.T) {
	accounts := hierarchyFixture()
	accounts[2].ExcludeFromReassignment = true // c2
	eng := cascadeEngine(t, accounts)

	plan, err := eng.PlanReassignment(ReassignRequest{
		AccountID:       "p1",
		NewOwnerID:      "r2",
		IncludeChildren: true,
		OverrideLocks:   true,
		Rationale:       "reorg",
	})
	require.NoError(t, err)
	assert.Equal(t, StateLockOverrideWarned, plan.State())
	assert.True(t, plan.RequiresConfirmation())
	assert.Contains(t, plan.Warnings(), model.WarnLockOverride)

	_, err = plan.Apply()
	require.Error(t, err)

	plan.Confirm()
	result, err := plan.Apply()
	require.NoError(t, err)
	require.Len(t, result.Affected, 3)
	assert.Equal(t, "r2", eng.Roster().Get("c2").ProposedOwnerID)
	assert.Contains(t, eng.Roster().Get("c2").LockReason, "reorg")
}

func TestReassignLockOverrideRevertsOnNextPass(t *testing.T) {
	// An overridden account stays locked to its unchanged current
	// owner, so a subsequent pass pins it back until ownership syncs.
	accounts := hierarchyFixture()
	accounts[2].ExcludeFromReassignment = true // c2
	eng := cascadeEngine(t, accounts)

	plan, err := eng.PlanReassignment(ReassignRequest{
		AccountID:       "p1",
		NewOwnerID:      "r2",
		IncludeChildren: true,
		OverrideLocks:   true,
		Rationale:       "reorg",
	})
	require.NoError(t, err)
	plan.Confirm()
	_, err = plan.Apply()
	require.NoError(t, err)

	c2 := eng.Roster().Get("c2")
	assert.Equal(t, "r2", c2.ProposedOwnerID)
	assert.True(t, c2.ExcludeFromReassignment)

	result, err := eng.RunPass()
	require.NoError(t, err)
	found := false
	for i := range result.Proposals {
		if result.Proposals[i].AccountID == "c2" {
			found = true
			assert.Equal(t, model.RuleLocked, result.Proposals[i].RuleApplied)
			assert.Equal(t, "r1", result.Proposals[i].ProposedOwnerID)
		}
	}
	assert.True(t, found)
}

func TestReassignCancelIsTerminal(t *testing.T) {
	eng := cascadeEngine(t, hierarchyFixture())

	plan, err := eng.PlanReassignment(ReassignRequest{AccountID: "solo", NewOwnerID: "r1"})
	require.NoError(t, err)

	plan.Cancel()
	assert.Equal(t, StateCancelled, plan.State())

	_, err = plan.Apply()
	assert.Error(t, err)
	assert.Empty(t, eng.Roster().Get("solo").ProposedOwnerID)
}

func TestReassignApplyIsOneShot(t *testing.T) {
	eng := cascadeEngine(t, hierarchyFixture())

	plan, err := eng.PlanReassignment(ReassignRequest{AccountID: "solo", NewOwnerID: "r1"})
	require.NoError(t, err)

	_, err = plan.Apply()
	require.NoError(t, err)
	_, err = plan.Apply()
	assert.Error(t, err)
}

func TestReassignCustomerWarnsOwnerChange(t *testing.T) {
	eng := cascadeEngine(t, hierarchyFixture())

	plan, err := eng.PlanReassignment(ReassignRequest{
		AccountID:       "p1",
		NewOwnerID:      "r2",
		IncludeChildren: true,
	})
	require.NoError(t, err)

	result, err := plan.Apply()
	require.NoError(t, err)
	for _, p := range result.Proposals {
		assert.True(t, p.HasWarning(model.WarnChangingCustomer))
		assert.Equal(t, model.ConfidenceLow, p.Confidence)
	}
}

func TestSetLockCapturesOwnerAndTruncatesReason(t *testing.T) {
	eng := cascadeEngine(t, hierarchyFixture())

	longReason := strings.Repeat("x", 600)
	account, audit, err := eng.SetLock("solo", true, longReason)
	require.NoError(t, err)

	assert.True(t, account.ExcludeFromReassignment)
	assert.Len(t, account.LockReason, 500)
	assert.Equal(t, "r2", account.ProposedOwnerID)
	assert.Equal(t, model.AuditOpLock, audit.Operation)

	account, audit, err = eng.SetLock("solo", false, "")
	require.NoError(t, err)
	assert.False(t, account.ExcludeFromReassignment)
	assert.Empty(t, account.LockReason)
	assert.Equal(t, model.AuditOpUnlock, audit.Operation)

	_, _, err = eng.SetLock("ghost", true, "")
	assert.Error(t, err)
}
