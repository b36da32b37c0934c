package importer

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/territory-cli/internal/model"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "snapshot.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestAccountsFromCSV(t *testing.T) {
	csv := `id,name,is_parent,ultimate_parent_id,is_customer,arr,hierarchy_arr,atr,expansion_tier,initial_sale_tier,territory,cre_count,renewal_date,current_owner_id,current_owner_name,locked,lock_reason
acc-1,Acme Corp,true,,yes,"$1,200,000","$1,800,000","$400,000",1,2,CA,2,2026-09-30,rep-1,Jordan,false,
acc-2,Acme West,false,acc-1,yes,"$600,000",,,2,,CA,0,06/15/2026,rep-1,Jordan,true,executive hold
acc-3,Fresh Prospect,,,,250000,,,,3,NY,,,,,,
`
	accounts, err := AccountsFromCSV(writeCSV(t, csv))
	require.NoError(t, err)
	require.Len(t, accounts, 3)

	parent := accounts[0]
	assert.Equal(t, "acc-1", parent.ID)
	assert.True(t, parent.IsParent)
	assert.True(t, parent.IsCustomer)
	assert.InDelta(t, 1_200_000, parent.ARR, 1)
	assert.InDelta(t, 1_800_000, parent.HierarchyARR, 1)
	assert.Equal(t, model.Tier1, parent.ExpansionTier)
	assert.Equal(t, 2, parent.CRECount)
	assert.Equal(t, time.Date(2026, 9, 30, 0, 0, 0, 0, time.UTC), parent.RenewalDate)
	assert.False(t, parent.ExcludeFromReassignment)

	child := accounts[1]
	assert.Equal(t, "acc-1", child.UltimateParentID)
	assert.True(t, child.ExcludeFromReassignment)
	assert.Equal(t, "executive hold", child.LockReason)
	assert.Equal(t, time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC), child.RenewalDate)

	prospect := accounts[2]
	assert.False(t, prospect.IsCustomer)
	assert.InDelta(t, 250_000, prospect.ARR, 1)
	assert.Equal(t, model.Tier3, prospect.InitialSaleTier)
	assert.True(t, prospect.RenewalDate.IsZero())
}

func TestAccountsFromCSVErrors(t *testing.T) {
	tests := []struct {
		name string
		csv  string
	}{
		{"missing id column", "name,arr\nAcme,100\n"},
		{"missing id value", "id,name\n,Acme\n"},
		{"bad number", "id,arr\nacc-1,not-a-number\n"},
		{"bad date", "id,renewal_date\nacc-1,someday\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := AccountsFromCSV(writeCSV(t, tt.csv))
			assert.Error(t, err)
		})
	}
}

func TestAccountsFromCSVSkipsBlankRows(t *testing.T) {
	csv := "id,name\nacc-1,Acme\n,\nacc-2,Beta\n"
	accounts, err := AccountsFromCSV(writeCSV(t, csv))
	require.NoError(t, err)
	assert.Len(t, accounts, 2)
}

func TestRepsFromCSV(t *testing.T) {
	csv := `id,name,region,team,is_active,include_in_assignments,is_manager,is_strategic_rep
rep-1,Jordan,west,enterprise,true,yes,false,false
rep-2,Sam,east,enterprise,1,1,0,1
rep-3,Morgan,central,mid-market,true,true,true,false
`
	reps, err := RepsFromCSV(writeCSV(t, csv))
	require.NoError(t, err)
	require.Len(t, reps, 3)

	assert.True(t, reps[0].Assignable())
	assert.True(t, reps[1].IsStrategicRep)
	assert.False(t, reps[2].Assignable()) // manager
}

func TestHeaderIsCaseInsensitive(t *testing.T) {
	csv := "ID,Name,ARR\nacc-1,Acme,500\n"
	accounts, err := AccountsFromCSV(writeCSV(t, csv))
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.InDelta(t, 500, accounts[0].ARR, 0.001)
}
