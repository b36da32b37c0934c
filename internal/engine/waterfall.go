package engine

import (
	"fmt"
	"math"
	"strings"

	"github.com/sells-group/territory-cli/internal/model"
)

// placement is the outcome of waterfall evaluation for one account.
type placement struct {
	rep      *model.SalesRep
	rule     model.AppliedRule
	reason   string
	warnings []model.Warning
}

// place runs the fixed hard waterfall for a single account. The
// configured rule priorities never reorder these steps; they only tune
// the soft balancing applied inside a step. place is read-only with
// respect to capacity state — commits happen in the pass loop.
func (e *Engine) place(a *model.Account, book *CapacityBook, bal *Balancer) placement {
	cur := e.reps[a.CurrentOwnerID]

	// Strategic carve-out. An account owned by a strategic rep stays in
	// the strategic pool for its lifetime and never competes for normal
	// rep capacity.
	if cur != nil && cur.IsStrategicRep {
		return e.placeStrategic(a, cur, book)
	}

	region, mapped := e.rules.Region(a.Territory)

	// Priority 1 — continuity + geography.
	if cur != nil && e.continuityAllowed(a) && cur.Assignable() && mapped && e.regionMatches(a, cur.Region, region) && book.CanAccept(cur.ID, a) {
		return placement{
			rep:    cur,
			rule:   model.RuleContinuityGeo,
			reason: fmt.Sprintf("kept current owner %s in region %s", cur.Name, region),
		}
	}

	// Priority 2 — geography only. Unavailable for unmapped territories.
	if mapped {
		var candidates []*model.SalesRep
		for _, id := range e.repOrder {
			rep := e.reps[id]
			if rep.ID == a.CurrentOwnerID {
				continue // already rejected at priority 1
			}
			if rep.Assignable() && !rep.IsStrategicRep && e.regionMatches(a, rep.Region, region) && book.CanAccept(rep.ID, a) {
				candidates = append(candidates, rep)
			}
		}
		if rep := e.mostHeadroom(candidates, a, book, bal); rep != nil {
			return placement{
				rep:    rep,
				rule:   model.RuleGeographyBest,
				reason: fmt.Sprintf("assigned to %s, most capacity headroom in region %s", rep.Name, region),
			}
		}
	}

	// Priority 3 — continuity, any geography.
	if cur != nil && e.continuityAllowed(a) && cur.Assignable() && book.CanAccept(cur.ID, a) {
		return placement{
			rep:    cur,
			rule:   model.RuleContinuityAnyGeo,
			reason: fmt.Sprintf("kept current owner %s outside mapped geography", cur.Name),
		}
	}

	// Priority 4 — best available, any geography.
	var candidates []*model.SalesRep
	for _, id := range e.repOrder {
		rep := e.reps[id]
		if rep.Assignable() && !rep.IsStrategicRep && book.CanAccept(rep.ID, a) {
			candidates = append(candidates, rep)
		}
	}
	if rep := e.mostHeadroom(candidates, a, book, bal); rep != nil {
		p := placement{
			rep:    rep,
			rule:   model.RuleBestAvailable,
			reason: fmt.Sprintf("assigned to %s, best available capacity", rep.Name),
		}
		if mapped && !e.regionMatches(a, rep.Region, region) {
			p.warnings = append(p.warnings, model.Warning{
				AccountID: a.ID,
				Type:      model.WarnCrossRegion,
				Severity:  model.SeverityMedium,
				Message:   fmt.Sprintf("account territory maps to %s but owner %s covers %s", region, rep.Name, rep.Region),
			})
		}
		return p
	}

	// Unassigned. Every rep refused the account.
	return placement{
		rule:   model.RuleUnassigned,
		reason: "no rep satisfies capacity and eligibility constraints",
		warnings: []model.Warning{{
			AccountID: a.ID,
			Type:      model.WarnCapacityExceeded,
			Severity:  model.SeverityHigh,
			Message:   "no eligible rep can accept this account without breaching a hard cap",
		}},
	}
}

// placeStrategic resolves an account inside the strategic pool: prefer
// the current owner, otherwise the strategic rep with the lowest
// committed ARR. Strategic reps absorb overflow evenly instead of
// refusing accounts, so no hard cap applies here.
func (e *Engine) placeStrategic(a *model.Account, cur *model.SalesRep, book *CapacityBook) placement {
	if cur.Assignable() {
		return placement{
			rep:    cur,
			rule:   model.RuleStrategicPool,
			reason: fmt.Sprintf("retained by strategic owner %s", cur.Name),
		}
	}

	var best *model.SalesRep
	bestARR := math.Inf(1)
	for _, id := range e.repOrder {
		rep := e.reps[id]
		if !rep.IsStrategicRep || !rep.Assignable() {
			continue
		}
		if arr := book.Load(rep.ID).ARR; arr < bestARR {
			best, bestARR = rep, arr
		}
	}
	if best == nil {
		return placement{
			rule:   model.RuleUnassigned,
			reason: "strategic account with no active strategic rep available",
			warnings: []model.Warning{{
				AccountID: a.ID,
				Type:      model.WarnCapacityExceeded,
				Severity:  model.SeverityHigh,
				Message:   "strategic pool has no assignable rep",
			}},
		}
	}
	return placement{
		rep:    best,
		rule:   model.RuleStrategicPool,
		reason: fmt.Sprintf("moved within strategic pool to %s (lowest load)", best.Name),
	}
}

// continuityAllowed reports whether continuity preference covers the
// account. A customers-only CONTINUITY rule drops prospects straight to
// the geography and best-available steps.
func (e *Engine) continuityAllowed(a *model.Account) bool {
	cc := e.rules.Continuity(a)
	return cc == nil || !cc.CustomersOnly || a.IsCustomer
}

// regionMatches applies the configured geography strictness: strict
// matching requires exact label equality, the default tolerates case
// and surrounding whitespace differences between the rep roster and
// the territory table.
func (e *Engine) regionMatches(a *model.Account, repRegion, region string) bool {
	if gc := e.rules.GeoFirst(a); gc != nil && gc.StrictRegionMatch {
		return repRegion == region
	}
	return strings.EqualFold(strings.TrimSpace(repRegion), strings.TrimSpace(region))
}

// mostHeadroom keeps the candidates with the greatest ARR headroom and
// lets the balance optimizer break any residual tie.
func (e *Engine) mostHeadroom(candidates []*model.SalesRep, a *model.Account, book *CapacityBook, bal *Balancer) *model.SalesRep {
	if len(candidates) == 0 {
		return nil
	}
	best := math.Inf(-1)
	for _, rep := range candidates {
		best = math.Max(best, book.Headroom(rep.ID, a))
	}
	var tied []*model.SalesRep
	for _, rep := range candidates {
		if best-book.Headroom(rep.ID, a) <= deficitEpsilon {
			tied = append(tied, rep)
		}
	}
	return bal.Pick(tied, a)
}
