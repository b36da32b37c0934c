package salesforce

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/territory-cli/internal/model"
)

// AccountRecord is the Salesforce Account shape the engine consumes.
type AccountRecord struct {
	ID                 string  `json:"Id" salesforce:"Id"`
	Name               string  `json:"Name" salesforce:"Name"`
	ParentID           string  `json:"ParentId" salesforce:"ParentId"`
	UltimateParentID   string  `json:"Ultimate_Parent__c" salesforce:"Ultimate_Parent__c"`
	Type               string  `json:"Type" salesforce:"Type"`
	ARR                float64 `json:"ARR__c" salesforce:"ARR__c"`
	HierarchyARR       float64 `json:"Hierarchy_ARR__c" salesforce:"Hierarchy_ARR__c"`
	ATR                float64 `json:"ATR__c" salesforce:"ATR__c"`
	ExpansionTier      float64 `json:"Expansion_Tier__c" salesforce:"Expansion_Tier__c"`
	InitialSaleTier    float64 `json:"Initial_Sale_Tier__c" salesforce:"Initial_Sale_Tier__c"`
	Territory          string  `json:"Territory__c" salesforce:"Territory__c"`
	CRECount           float64 `json:"CRE_Count__c" salesforce:"CRE_Count__c"`
	RenewalDate        string  `json:"Renewal_Date__c" salesforce:"Renewal_Date__c"`
	OwnerID            string  `json:"OwnerId" salesforce:"OwnerId"`
	OwnerName          string  `json:"Owner_Name__c" salesforce:"Owner_Name__c"`
	AssignmentLocked   bool    `json:"Assignment_Locked__c" salesforce:"Assignment_Locked__c"`
	AssignmentLockNote string  `json:"Assignment_Lock_Note__c" salesforce:"Assignment_Lock_Note__c"`
}

// UserRecord is the Salesforce User shape the engine consumes.
type UserRecord struct {
	ID             string `json:"Id" salesforce:"Id"`
	Name           string `json:"Name" salesforce:"Name"`
	Region         string `json:"Region__c" salesforce:"Region__c"`
	Team           string `json:"Team__c" salesforce:"Team__c"`
	IsActive       bool   `json:"IsActive" salesforce:"IsActive"`
	InAssignments  bool   `json:"Include_In_Assignments__c" salesforce:"Include_In_Assignments__c"`
	IsManager      bool   `json:"Is_Manager__c" salesforce:"Is_Manager__c"`
	IsStrategicRep bool   `json:"Is_Strategic_Rep__c" salesforce:"Is_Strategic_Rep__c"`
}

var accountFields = []string{
	"Id", "Name", "ParentId", "Ultimate_Parent__c", "Type",
	"ARR__c", "Hierarchy_ARR__c", "ATR__c",
	"Expansion_Tier__c", "Initial_Sale_Tier__c",
	"Territory__c", "CRE_Count__c", "Renewal_Date__c",
	"OwnerId", "Owner_Name__c",
	"Assignment_Locked__c", "Assignment_Lock_Note__c",
}

var userFields = []string{
	"Id", "Name", "Region__c", "Team__c", "IsActive",
	"Include_In_Assignments__c", "Is_Manager__c", "Is_Strategic_Rep__c",
}

// PullAccounts queries the full account snapshot for a build.
func PullAccounts(ctx context.Context, c Client) ([]model.Account, error) {
	soql := fmt.Sprintf("SELECT %s FROM Account WHERE IsDeleted = false", strings.Join(accountFields, ", "))

	var records []AccountRecord
	if err := c.Query(ctx, soql, &records); err != nil {
		return nil, eris.Wrap(err, "sf: pull accounts")
	}

	accounts := make([]model.Account, 0, len(records))
	for _, rec := range records {
		accounts = append(accounts, rec.toModel())
	}
	return accounts, nil
}

// PullReps queries the assignable user snapshot.
func PullReps(ctx context.Context, c Client) ([]model.SalesRep, error) {
	soql := fmt.Sprintf("SELECT %s FROM User WHERE IsActive = true", strings.Join(userFields, ", "))

	var records []UserRecord
	if err := c.Query(ctx, soql, &records); err != nil {
		return nil, eris.Wrap(err, "sf: pull reps")
	}

	reps := make([]model.SalesRep, 0, len(records))
	for _, rec := range records {
		reps = append(reps, model.SalesRep{
			ID:                   rec.ID,
			Name:                 rec.Name,
			Region:               rec.Region,
			Team:                 rec.Team,
			IsActive:             rec.IsActive,
			IncludeInAssignments: rec.InAssignments,
			IsManager:            rec.IsManager,
			IsStrategicRep:       rec.IsStrategicRep,
		})
	}
	return reps, nil
}

func (rec AccountRecord) toModel() model.Account {
	a := model.Account{
		ID:                      rec.ID,
		Name:                    rec.Name,
		UltimateParentID:        rec.UltimateParentID,
		IsCustomer:              strings.EqualFold(rec.Type, "Customer"),
		ARR:                     rec.ARR,
		HierarchyARR:            rec.HierarchyARR,
		ATR:                     rec.ATR,
		ExpansionTier:           model.Tier(int(rec.ExpansionTier)),
		InitialSaleTier:         model.Tier(int(rec.InitialSaleTier)),
		Territory:               rec.Territory,
		CRECount:                int(rec.CRECount),
		CurrentOwnerID:          rec.OwnerID,
		CurrentOwnerName:        rec.OwnerName,
		ExcludeFromReassignment: rec.AssignmentLocked,
		LockReason:              rec.AssignmentLockNote,
	}
	// A record is a parent when children reference it; the snapshot
	// carries the consolidated ARR only on parents, so a non-zero
	// hierarchy ARR marks one too.
	a.IsParent = rec.HierarchyARR > 0 && rec.UltimateParentID == ""
	if rec.RenewalDate != "" {
		if t, err := time.Parse("2006-01-02", rec.RenewalDate); err == nil {
			a.RenewalDate = t
		}
	}
	return a
}
