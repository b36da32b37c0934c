package engine

import (
	"sort"

	"github.com/rotisserie/eris"
	"github.com/sells-group/territory-cli/internal/model"
)

// Roster is the flat, indexed view of a build's account set. Accounts
// live in a table keyed by id; children are discovered through a
// secondary index on ultimateParentId built once per roster. The
// structure is rebuilt from the snapshot at pass start, never patched.
type Roster struct {
	byID     map[string]*model.Account
	order    []string            // account ids, descending effective ARR then id
	children map[string][]string // parent id -> sorted child ids
}

// BuildRoster indexes the account snapshot. It rejects duplicate ids
// and dangling or cyclic parent references.
func BuildRoster(accounts []*model.Account) (*Roster, error) {
	r := &Roster{
		byID:     make(map[string]*model.Account, len(accounts)),
		children: make(map[string][]string),
	}
	for _, a := range accounts {
		if a.ID == "" {
			return nil, eris.New("roster: account with empty id")
		}
		if _, dup := r.byID[a.ID]; dup {
			return nil, eris.Errorf("roster: duplicate account id %s", a.ID)
		}
		r.byID[a.ID] = a
	}
	for _, a := range accounts {
		if !a.IsChild() {
			continue
		}
		parent, ok := r.byID[a.UltimateParentID]
		if !ok {
			return nil, eris.Errorf("roster: account %s references missing parent %s", a.ID, a.UltimateParentID)
		}
		if parent.IsChild() {
			return nil, eris.Errorf("roster: parent %s of account %s is itself a child", parent.ID, a.ID)
		}
		r.children[parent.ID] = append(r.children[parent.ID], a.ID)
	}
	for _, ids := range r.children {
		sort.Strings(ids)
	}

	// Larger accounts are harder to place, so they are resolved first.
	// The id tiebreak keeps repeated passes byte-identical.
	r.order = make([]string, 0, len(accounts))
	for _, a := range accounts {
		r.order = append(r.order, a.ID)
	}
	sort.Slice(r.order, func(i, j int) bool {
		ai, aj := r.byID[r.order[i]], r.byID[r.order[j]]
		if ai.EffectiveARR() != aj.EffectiveARR() {
			return ai.EffectiveARR() > aj.EffectiveARR()
		}
		return ai.ID < aj.ID
	})

	return r, nil
}

// Get returns the account with the given id, or nil.
func (r *Roster) Get(id string) *model.Account {
	return r.byID[id]
}

// Len returns the number of accounts in the roster.
func (r *Roster) Len() int {
	return len(r.order)
}

// Ordered returns account ids in evaluation order.
func (r *Roster) Ordered() []string {
	return r.order
}

// Children returns the sorted child ids of the given parent account.
func (r *Roster) Children(parentID string) []string {
	return r.children[parentID]
}

// HasChildren reports whether the account heads a hierarchy.
func (r *Roster) HasChildren(id string) bool {
	return len(r.children[id]) > 0
}

// Hierarchy returns the parent id plus all member ids of the hierarchy
// the account belongs to, including the account itself. For a
// standalone account it returns just the account.
func (r *Roster) Hierarchy(id string) []string {
	a := r.byID[id]
	if a == nil {
		return nil
	}
	root := id
	if a.IsChild() {
		root = a.UltimateParentID
	}
	members := []string{root}
	members = append(members, r.children[root]...)
	return members
}
