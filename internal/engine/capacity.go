// Package engine implements the account assignment engine: the rule
// waterfall, capacity bookkeeping, balance tie-breaking, hierarchy
// cascades for manual reassignment, and confidence scoring.
package engine

import (
	"github.com/sells-group/territory-cli/internal/config"
	"github.com/sells-group/territory-cli/internal/model"
)

// RepLoad holds one rep's accumulated load within a single pass.
type RepLoad struct {
	ARR               float64
	ATR               float64
	AccountCount      int
	CustomerCount     int
	CRECount          int
	Tier1Count        int
	Tier2Count        int
	RenewalsByQuarter [5]int // indexed 1-4, 0 unused
}

// CapacityBook tracks per-rep load for one assignment pass. It is
// rebuilt fresh at the start of every pass and discarded afterwards;
// it must never outlive the pass that created it.
type CapacityBook struct {
	cfg   config.CapacityConfig
	reps  map[string]*model.SalesRep
	loads map[string]*RepLoad

	// committed guards against double-counting an account within the
	// same pass.
	committed map[string]string // account id -> rep id
}

// NewCapacityBook initializes empty load state for the given reps.
func NewCapacityBook(reps []*model.SalesRep, cfg config.CapacityConfig) *CapacityBook {
	b := &CapacityBook{
		cfg:       cfg,
		reps:      make(map[string]*model.SalesRep, len(reps)),
		loads:     make(map[string]*RepLoad, len(reps)),
		committed: make(map[string]string),
	}
	for _, r := range reps {
		b.reps[r.ID] = r
		b.loads[r.ID] = &RepLoad{}
	}
	return b
}

// arrCap returns the binding ARR cap for the account's class: the
// variance-widened target and the absolute max are independent limits,
// so the lower of the two binds.
func (b *CapacityBook) arrCap(a *model.Account) float64 {
	target, maxARR := b.cfg.ProspectTargetARR, b.cfg.ProspectMaxARR
	if a.IsCustomer {
		target, maxARR = b.cfg.CustomerTargetARR, b.cfg.CustomerMaxARR
	}
	widened := target * (1 + b.cfg.CapacityVariancePct/100)
	if maxARR > 0 && maxARR < widened {
		return maxARR
	}
	return widened
}

// CanAccept reports whether committing the account to the rep would
// keep every hard limit intact. It is pure: no state changes.
// Strategic reps absorb overflow rather than refusing accounts, so
// they always accept.
func (b *CapacityBook) CanAccept(repID string, a *model.Account) bool {
	rep, ok := b.reps[repID]
	if !ok {
		return false
	}
	if rep.IsStrategicRep {
		return true
	}
	load, ok := b.loads[repID]
	if !ok {
		return false
	}

	if load.ARR+a.EffectiveARR() > b.arrCap(a) {
		return false
	}
	if a.CRECount > 0 && b.cfg.MaxCREPerRep > 0 && load.CRECount+1 > b.cfg.MaxCREPerRep {
		return false
	}
	switch a.EffectiveTier() {
	case model.Tier1:
		if b.cfg.MaxTier1PerRep > 0 && load.Tier1Count+1 > b.cfg.MaxTier1PerRep {
			return false
		}
	case model.Tier2:
		if b.cfg.MaxTier2PerRep > 0 && load.Tier2Count+1 > b.cfg.MaxTier2PerRep {
			return false
		}
	}
	return true
}

// Headroom returns the remaining ARR room the rep has for accounts of
// the given account's class. Negative headroom means the rep is over
// cap already.
func (b *CapacityBook) Headroom(repID string, a *model.Account) float64 {
	load, ok := b.loads[repID]
	if !ok {
		return 0
	}
	return b.arrCap(a) - load.ARR
}

// Commit records the account against the rep's load. Committing the
// same account twice within a pass is a no-op for the original rep and
// a move otherwise (the prior commit is reversed first).
func (b *CapacityBook) Commit(repID string, a *model.Account) {
	if prev, ok := b.committed[a.ID]; ok {
		if prev == repID {
			return
		}
		b.uncommit(prev, a)
	}
	load, ok := b.loads[repID]
	if !ok {
		return
	}
	load.ARR += a.EffectiveARR()
	load.ATR += a.ATR
	load.AccountCount++
	if a.IsCustomer {
		load.CustomerCount++
	}
	if a.CRECount > 0 {
		load.CRECount++
	}
	switch a.EffectiveTier() {
	case model.Tier1:
		load.Tier1Count++
	case model.Tier2:
		load.Tier2Count++
	}
	if q := a.RenewalQuarter(); q >= 1 && q <= 4 {
		load.RenewalsByQuarter[q]++
	}
	b.committed[a.ID] = repID
}

func (b *CapacityBook) uncommit(repID string, a *model.Account) {
	load, ok := b.loads[repID]
	if !ok {
		return
	}
	load.ARR -= a.EffectiveARR()
	load.ATR -= a.ATR
	load.AccountCount--
	if a.IsCustomer {
		load.CustomerCount--
	}
	if a.CRECount > 0 {
		load.CRECount--
	}
	switch a.EffectiveTier() {
	case model.Tier1:
		load.Tier1Count--
	case model.Tier2:
		load.Tier2Count--
	}
	if q := a.RenewalQuarter(); q >= 1 && q <= 4 {
		load.RenewalsByQuarter[q]--
	}
	delete(b.committed, a.ID)
}

// Load returns a copy of the rep's current totals.
func (b *CapacityBook) Load(repID string) RepLoad {
	if load, ok := b.loads[repID]; ok {
		return *load
	}
	return RepLoad{}
}

// OverMax reports whether the rep's committed ARR exceeds the absolute
// max for the given account class. Used to flag strategic overflow
// after a commit that no cap prevented.
func (b *CapacityBook) OverMax(repID string, a *model.Account) bool {
	load, ok := b.loads[repID]
	if !ok {
		return false
	}
	maxARR := b.cfg.ProspectMaxARR
	if a.IsCustomer {
		maxARR = b.cfg.CustomerMaxARR
	}
	return maxARR > 0 && load.ARR > maxARR
}
