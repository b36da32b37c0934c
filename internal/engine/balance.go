package engine

import (
	"math"
	"sort"

	"github.com/sells-group/territory-cli/internal/model"
)

// balanceTargets holds the pass-level remaining work, used to compute
// the ideal per-rep share each balancing metric steers toward. Totals
// shrink as accounts are placed.
type balanceTargets struct {
	RemainingARR       float64
	RemainingCRE       int
	RemainingByTier    [5]int // indexed by tier 1-4
	RemainingByQuarter [5]int // indexed by renewal quarter 1-4
}

// Balancer breaks ties among reps equally eligible at one waterfall
// step, steering toward even ARR, CRE, tier, and renewal-quarter
// distribution. It never overrides a waterfall decision: it only
// chooses among reps already valid at the current step.
type Balancer struct {
	book       *CapacityBook
	rules      *RuleSet
	normalReps int
	targets    balanceTargets
}

const deficitEpsilon = 1e-9

func newBalancer(book *CapacityBook, rules *RuleSet, reps []*model.SalesRep) *Balancer {
	b := &Balancer{book: book, rules: rules}
	for _, r := range reps {
		if r.Assignable() && !r.IsStrategicRep {
			b.normalReps++
		}
	}
	return b
}

// seed accumulates the pass totals for the accounts still to place.
func (b *Balancer) seed(accounts []*model.Account) {
	for _, a := range accounts {
		b.add(a, 1)
	}
}

// consume removes a placed account from the remaining totals.
func (b *Balancer) consume(a *model.Account) {
	b.add(a, -1)
}

func (b *Balancer) add(a *model.Account, sign int) {
	b.targets.RemainingARR += float64(sign) * a.EffectiveARR()
	if a.CRECount > 0 {
		b.targets.RemainingCRE += sign
	}
	if t := a.EffectiveTier(); t >= model.Tier1 && t <= model.Tier4 {
		b.targets.RemainingByTier[t] += sign
	}
	if q := a.RenewalQuarter(); q >= 1 && q <= 4 {
		b.targets.RemainingByQuarter[q] += sign
	}
}

// Pick returns the single best rep among candidates tied at the same
// waterfall step. Enabled metrics are compared in fixed precedence —
// ARR deficit, then CRE, then tier, then renewal quarter — a metric
// decides only when candidates disagree on it. Rule condition weights
// scale a metric's deficits before the epsilon comparison, so a small
// weight makes that metric concede near-ties to the metrics after it.
// Residual ties fall to the fixed tier pairing score, then to rep id
// for determinism.
func (b *Balancer) Pick(candidates []*model.SalesRep, a *model.Account) *model.SalesRep {
	switch len(candidates) {
	case 0:
		return nil
	case 1:
		return candidates[0]
	}

	// Stable input order regardless of caller.
	ordered := make([]*model.SalesRep, len(candidates))
	copy(ordered, candidates)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })

	arrWeight, quarterWeight := 1.0, 1.0
	if sb := b.rules.SmartBalance(a); sb != nil {
		if sb.ARRWeight > 0 {
			arrWeight = sb.ARRWeight
		}
		quarterWeight = sb.RenewalQuarterWeight
	}
	creWeight := 1.0
	if cc := b.rules.CREBalance(a); cc != nil && cc.CREWeight > 0 {
		creWeight = cc.CREWeight
	}
	tierWeight := 1.0
	if tc := b.rules.TierBalance(a); tc != nil && tc.TierWeight > 0 {
		tierWeight = tc.TierWeight
	}

	type metric struct {
		enabled bool
		deficit func(rep *model.SalesRep) float64
	}
	n := float64(b.normalReps)
	if n == 0 {
		n = 1
	}
	metrics := []metric{
		{
			enabled: b.rules.Enabled(model.RuleSmartBalance, a),
			deficit: func(rep *model.SalesRep) float64 {
				return arrWeight * (b.targets.RemainingARR/n - b.book.Load(rep.ID).ARR)
			},
		},
		{
			enabled: b.rules.Enabled(model.RuleCREBalance, a),
			deficit: func(rep *model.SalesRep) float64 {
				return creWeight * (float64(b.targets.RemainingCRE)/n - float64(b.book.Load(rep.ID).CRECount))
			},
		},
		{
			enabled: b.rules.Enabled(model.RuleTierBalance, a),
			deficit: func(rep *model.SalesRep) float64 {
				t := a.EffectiveTier()
				if t < model.Tier1 || t > model.Tier4 {
					return 0
				}
				load := b.book.Load(rep.ID)
				var held float64
				switch t {
				case model.Tier1:
					held = float64(load.Tier1Count)
				case model.Tier2:
					held = float64(load.Tier2Count)
				}
				return tierWeight * (float64(b.targets.RemainingByTier[t])/n - held)
			},
		},
		{
			enabled: b.rules.Enabled(model.RuleSmartBalance, a) && quarterWeight > 0,
			deficit: func(rep *model.SalesRep) float64 {
				q := a.RenewalQuarter()
				if q < 1 || q > 4 {
					return 0
				}
				return quarterWeight * (float64(b.targets.RemainingByQuarter[q])/n - float64(b.book.Load(rep.ID).RenewalsByQuarter[q]))
			},
		},
	}

	pool := ordered
	for _, m := range metrics {
		if !m.enabled || len(pool) == 1 {
			continue
		}
		pool = bestByDeficit(pool, m.deficit)
	}

	if len(pool) > 1 && b.rules.Enabled(model.RuleTierBalance, a) {
		pool = bestByScore(pool, func(rep *model.SalesRep) float64 {
			return tierPairingScore(a.EffectiveTier(), rep)
		})
	}

	// pool is id-ordered, so the first entry is the deterministic winner.
	return pool[0]
}

// bestByDeficit keeps the candidates sharing the largest positive
// deficit. When no candidate sits below target, or all deficits agree,
// the metric is indecisive and the pool passes through unchanged.
func bestByDeficit(pool []*model.SalesRep, deficit func(*model.SalesRep) float64) []*model.SalesRep {
	best := math.Inf(-1)
	worst := math.Inf(1)
	values := make([]float64, len(pool))
	for i, rep := range pool {
		values[i] = deficit(rep)
		best = math.Max(best, values[i])
		worst = math.Min(worst, values[i])
	}
	if best <= deficitEpsilon || best-worst <= deficitEpsilon {
		return pool
	}
	var kept []*model.SalesRep
	for i, rep := range pool {
		if best-values[i] <= deficitEpsilon {
			kept = append(kept, rep)
		}
	}
	return kept
}

func bestByScore(pool []*model.SalesRep, score func(*model.SalesRep) float64) []*model.SalesRep {
	best := math.Inf(-1)
	values := make([]float64, len(pool))
	for i, rep := range pool {
		values[i] = score(rep)
		best = math.Max(best, values[i])
	}
	var kept []*model.SalesRep
	for i, rep := range pool {
		if values[i] == best {
			kept = append(kept, rep)
		}
	}
	return kept
}

// tierPairingScore is the fixed tier/rep pairing preference: tier-1
// books belong with strategic reps, tier-3/4 books with non-strategic
// reps, everything else is neutral. Not configurable.
func tierPairingScore(t model.Tier, rep *model.SalesRep) float64 {
	switch {
	case t == model.Tier1 && rep.IsStrategicRep:
		return 60
	case (t == model.Tier3 || t == model.Tier4) && !rep.IsStrategicRep:
		return 40
	default:
		return 20
	}
}
