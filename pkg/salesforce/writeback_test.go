package salesforce

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/territory-cli/internal/model"
)

// fakeClient records calls and plays back canned responses.
type fakeClient struct {
	queryJSON   string
	queryErr    error
	lastSOQL    string
	updated     []CollectionRecord
	updateErr   error
	updateCalls int
}

func (f *fakeClient) Query(_ context.Context, soql string, out any) error {
	f.lastSOQL = soql
	if f.queryErr != nil {
		return f.queryErr
	}
	return json.Unmarshal([]byte(f.queryJSON), out)
}

func (f *fakeClient) UpdateOne(_ context.Context, _ string, _ string, _ map[string]any) error {
	return nil
}

func (f *fakeClient) UpdateCollection(_ context.Context, _ string, records []CollectionRecord) ([]CollectionResult, error) {
	f.updateCalls++
	f.updated = append(f.updated, records...)
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	results := make([]CollectionResult, len(records))
	for i, r := range records {
		results[i] = CollectionResult{ID: r.ID, Success: true}
	}
	return results, nil
}

func TestPushOwnerUpdatesSkipsUnassigned(t *testing.T) {
	client := &fakeClient{}

	updates := []OwnerUpdate{
		{AccountID: "a1", ProposedOwnerID: "r1", AssignmentReason: "kept current owner"},
		{AccountID: "a2"}, // unassigned, never written back
		{AccountID: "a3", ProposedOwnerID: "r2", HasSplitOwnership: true},
	}
	results, err := PushOwnerUpdates(context.Background(), client, updates)
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.Len(t, client.updated, 2)

	first := client.updated[0]
	assert.Equal(t, "a1", first.ID)
	assert.Equal(t, "r1", first.Fields["Proposed_Owner__c"])
	assert.Equal(t, false, first.Fields["Has_Split_Ownership__c"])
	assert.Equal(t, true, client.updated[1].Fields["Has_Split_Ownership__c"])
}

func TestPushOwnerUpdatesEmptyInput(t *testing.T) {
	client := &fakeClient{}

	results, err := PushOwnerUpdates(context.Background(), client, nil)
	require.NoError(t, err)
	assert.Nil(t, results)
	assert.Zero(t, client.updateCalls)

	// All-unassigned input never hits the API either.
	results, err = PushOwnerUpdates(context.Background(), client, []OwnerUpdate{{AccountID: "a1"}})
	require.NoError(t, err)
	assert.Nil(t, results)
	assert.Zero(t, client.updateCalls)
}

func TestOwnerUpdatesFromProposals(t *testing.T) {
	accounts := map[string]*model.Account{
		"a1": {ID: "a1", HasSplitOwnership: true},
		"a2": {ID: "a2"},
	}
	proposals := []model.AssignmentProposal{
		{AccountID: "a1", ProposedOwnerID: "r1", AssignmentReason: "kept current owner"},
		{AccountID: "a2", ProposedOwnerID: "r2"},
		{AccountID: "a3", ProposedOwnerID: "r3"}, // not in snapshot
	}

	updates := OwnerUpdatesFromProposals(proposals, accounts)
	require.Len(t, updates, 3)
	assert.True(t, updates[0].HasSplitOwnership)
	assert.Equal(t, "kept current owner", updates[0].AssignmentReason)
	assert.False(t, updates[1].HasSplitOwnership)
	assert.False(t, updates[2].HasSplitOwnership)
}

func TestPullAccounts(t *testing.T) {
	client := &fakeClient{queryJSON: `[
		{"Id": "a1", "Name": "Acme", "Type": "Customer",
		 "ARR__c": 1200000, "Hierarchy_ARR__c": 1800000,
		 "Expansion_Tier__c": 1, "Territory__c": "CA", "CRE_Count__c": 2,
		 "Renewal_Date__c": "2026-09-30",
		 "OwnerId": "r1", "Owner_Name__c": "Jordan",
		 "Assignment_Locked__c": true, "Assignment_Lock_Note__c": "hold"},
		{"Id": "a2", "Name": "Acme West", "Type": "Prospect",
		 "Ultimate_Parent__c": "a1", "ARR__c": 400000,
		 "Initial_Sale_Tier__c": 3, "Territory__c": "CA"}
	]`}

	accounts, err := PullAccounts(context.Background(), client)
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.Contains(t, client.lastSOQL, "FROM Account")

	parent := accounts[0]
	assert.True(t, parent.IsCustomer)
	assert.True(t, parent.IsParent)
	assert.Equal(t, model.Tier1, parent.ExpansionTier)
	assert.Equal(t, 2, parent.CRECount)
	assert.Equal(t, 2026, parent.RenewalDate.Year())
	assert.True(t, parent.ExcludeFromReassignment)
	assert.Equal(t, "hold", parent.LockReason)

	child := accounts[1]
	assert.False(t, child.IsCustomer)
	assert.False(t, child.IsParent)
	assert.Equal(t, "a1", child.UltimateParentID)
}

func TestPullReps(t *testing.T) {
	client := &fakeClient{queryJSON: `[
		{"Id": "r1", "Name": "Jordan", "Region__c": "west", "IsActive": true,
		 "Include_In_Assignments__c": true},
		{"Id": "r2", "Name": "Sam", "Region__c": "east", "IsActive": true,
		 "Is_Strategic_Rep__c": true}
	]`}

	reps, err := PullReps(context.Background(), client)
	require.NoError(t, err)
	require.Len(t, reps, 2)
	assert.Contains(t, client.lastSOQL, "FROM User")
	assert.True(t, reps[0].Assignable())
	assert.True(t, reps[1].IsStrategicRep)
}
