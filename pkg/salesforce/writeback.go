package salesforce

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/territory-cli/internal/model"
)

// OwnerUpdate is one account's assignment outcome to push back.
type OwnerUpdate struct {
	AccountID         string
	ProposedOwnerID   string
	HasSplitOwnership bool
	AssignmentReason  string
}

// PushOwnerUpdates writes proposed owners back onto Account records in
// batches. Returns the per-record results; a partial failure does not
// abort the remaining records.
func PushOwnerUpdates(ctx context.Context, c Client, updates []OwnerUpdate) ([]CollectionResult, error) {
	if len(updates) == 0 {
		return nil, nil
	}

	records := make([]CollectionRecord, 0, len(updates))
	for _, u := range updates {
		if u.ProposedOwnerID == "" {
			continue // unassigned outcomes are not written back
		}
		records = append(records, CollectionRecord{
			ID: u.AccountID,
			Fields: map[string]any{
				"Proposed_Owner__c":      u.ProposedOwnerID,
				"Has_Split_Ownership__c": u.HasSplitOwnership,
				"Assignment_Reason__c":   u.AssignmentReason,
			},
		})
	}
	if len(records) == 0 {
		return nil, nil
	}

	results, err := c.UpdateCollection(ctx, "Account", records)
	if err != nil {
		return nil, eris.Wrap(err, "sf: push owner updates")
	}
	return results, nil
}

// OwnerUpdatesFromProposals converts pass proposals into write-back
// records, joining split state from the account snapshot.
func OwnerUpdatesFromProposals(proposals []model.AssignmentProposal, accounts map[string]*model.Account) []OwnerUpdate {
	updates := make([]OwnerUpdate, 0, len(proposals))
	for _, p := range proposals {
		u := OwnerUpdate{
			AccountID:        p.AccountID,
			ProposedOwnerID:  p.ProposedOwnerID,
			AssignmentReason: p.AssignmentReason,
		}
		if a := accounts[p.AccountID]; a != nil {
			u.HasSplitOwnership = a.HasSplitOwnership
		}
		updates = append(updates, u)
	}
	return updates
}
