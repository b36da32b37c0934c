package engine

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/territory-cli/internal/config"
	"github.com/sells-group/territory-cli/internal/model"
)

// Engine drives assignment passes and manual reassignment over one
// build's account and rep snapshot. It is single-threaded by design:
// correctness of the capacity invariants depends on the fixed
// evaluation order, and a full pass is cheap enough to re-run wholesale
// on any input change.
type Engine struct {
	cfg    config.CapacityConfig
	rules  *RuleSet
	roster *Roster

	reps     map[string]*model.SalesRep
	repOrder []string // rep ids ascending, for deterministic iteration

	// proposals is the output of the most recent pass, keyed by account
	// id. Manual operations patch entries inside their cascade scope and
	// leave the rest untouched.
	proposals map[string]*model.AssignmentProposal
}

// PassResult is the output of one full assignment pass.
type PassResult struct {
	PassID        string                     `json:"pass_id"`
	Proposals     []model.AssignmentProposal `json:"proposals"`
	Warnings      []model.Warning            `json:"warnings,omitempty"`
	UnassignedIDs []string                   `json:"unassigned_ids,omitempty"`
}

// New builds an engine over the given snapshot. The rule set must have
// been validated already (NewRuleSet / LoadRuleSet reject bad config
// before any pass can run).
func New(accounts []*model.Account, reps []*model.SalesRep, rules *RuleSet, cfg config.CapacityConfig) (*Engine, error) {
	if rules == nil {
		return nil, eris.New("engine: nil rule set")
	}
	roster, err := BuildRoster(accounts)
	if err != nil {
		return nil, eris.Wrap(err, "engine: build roster")
	}

	e := &Engine{
		cfg:       cfg,
		rules:     rules,
		roster:    roster,
		reps:      make(map[string]*model.SalesRep, len(reps)),
		proposals: make(map[string]*model.AssignmentProposal),
	}
	for _, r := range reps {
		if r.ID == "" {
			return nil, eris.New("engine: rep with empty id")
		}
		if _, dup := e.reps[r.ID]; dup {
			return nil, eris.Errorf("engine: duplicate rep id %s", r.ID)
		}
		e.reps[r.ID] = r
		e.repOrder = append(e.repOrder, r.ID)
	}
	sort.Strings(e.repOrder)

	return e, nil
}

// Roster exposes the indexed account table.
func (e *Engine) Roster() *Roster {
	return e.roster
}

// Rep returns the rep with the given id, or nil.
func (e *Engine) Rep(id string) *model.SalesRep {
	return e.reps[id]
}

// Proposal returns the current proposal for an account, or nil when no
// pass has produced one.
func (e *Engine) Proposal(accountID string) *model.AssignmentProposal {
	return e.proposals[accountID]
}

// CRERisk reports the account's churn risk level, independent of any
// proposal confidence.
func (e *Engine) CRERisk(accountID string) (model.CRERisk, error) {
	a := e.roster.Get(accountID)
	if a == nil {
		return "", eris.Errorf("engine: unknown account %s", accountID)
	}
	return model.CRERiskFor(a.CRECount), nil
}

// RunPass recomputes proposals for every account in the snapshot.
// Capacity state is rebuilt from zero; prior proposals are replaced
// wholesale. Repeated runs over unchanged input produce identical
// output.
func (e *Engine) RunPass() (*PassResult, error) {
	book := NewCapacityBook(e.repSlice(), e.cfg)
	bal := newBalancer(book, e.rules, e.repSlice())

	// Locked accounts are pinned to their current owner first so their
	// load is visible before anything else is placed.
	var open []*model.Account
	for _, id := range e.roster.Ordered() {
		a := e.roster.Get(id)
		if a.ExcludeFromReassignment {
			continue
		}
		open = append(open, a)
	}
	bal.seed(open)

	proposals := make(map[string]*model.AssignmentProposal, e.roster.Len())
	for _, id := range e.roster.Ordered() {
		a := e.roster.Get(id)
		if !a.ExcludeFromReassignment {
			continue
		}
		proposals[a.ID] = e.pinLocked(a, book)
	}

	for _, a := range open {
		p := e.place(a, book, bal)
		bal.consume(a)
		proposals[a.ID] = e.applyPlacement(a, p, book)
	}

	e.markSplits(proposals)

	result := &PassResult{PassID: uuid.NewString()}
	for _, id := range sortedKeys(proposals) {
		p := proposals[id]
		p.CRERisk = model.CRERiskFor(e.roster.Get(id).CRECount)
		p.Confidence = ScoreConfidence(p.Warnings)
		if p.HasWarning(model.WarnHierarchySplit) {
			p.Confidence = model.ConfidenceLow
		}
		result.Proposals = append(result.Proposals, *p)
		result.Warnings = append(result.Warnings, p.Warnings...)
		if !p.Assigned() {
			result.UnassignedIDs = append(result.UnassignedIDs, id)
		}
	}
	e.proposals = proposals

	zap.L().Info("engine: pass complete",
		zap.String("pass_id", result.PassID),
		zap.Int("accounts", e.roster.Len()),
		zap.Int("unassigned", len(result.UnassignedIDs)),
		zap.Int("warnings", len(result.Warnings)),
	)

	return result, nil
}

// pinLocked mirrors a locked account's current owner into its proposal
// and books the load against that owner.
func (e *Engine) pinLocked(a *model.Account, book *CapacityBook) *model.AssignmentProposal {
	p := &model.AssignmentProposal{
		AccountID:        a.ID,
		RuleApplied:      model.RuleLocked,
		AssignmentReason: "locked to current owner",
	}
	if a.LockReason != "" {
		p.AssignmentReason = fmt.Sprintf("locked to current owner: %s", a.LockReason)
	}
	if rep := e.reps[a.CurrentOwnerID]; rep != nil {
		p.ProposedOwnerID = rep.ID
		p.ProposedOwnerName = rep.Name
		p.ProposedOwnerRegion = rep.Region
		book.Commit(rep.ID, a)
	}
	a.ProposedOwnerID = a.CurrentOwnerID
	a.ProposedOwnerName = a.CurrentOwnerName
	return p
}

// applyPlacement commits a placement, writes the proposed owner back to
// the account record, and attaches the post-commit warnings.
func (e *Engine) applyPlacement(a *model.Account, p placement, book *CapacityBook) *model.AssignmentProposal {
	prop := &model.AssignmentProposal{
		AccountID:        a.ID,
		RuleApplied:      p.rule,
		AssignmentReason: p.reason,
		Warnings:         p.warnings,
	}

	if p.rep == nil {
		a.ProposedOwnerID = ""
		a.ProposedOwnerName = ""
		return prop
	}

	book.Commit(p.rep.ID, a)
	prop.ProposedOwnerID = p.rep.ID
	prop.ProposedOwnerName = p.rep.Name
	prop.ProposedOwnerRegion = p.rep.Region
	a.ProposedOwnerID = p.rep.ID
	a.ProposedOwnerName = p.rep.Name

	if a.CurrentOwnerID != "" && a.CurrentOwnerID != p.rep.ID {
		prop.Warnings = append(prop.Warnings, model.Warning{
			AccountID: a.ID,
			Type:      model.WarnContinuityBroken,
			Severity:  model.SeverityMedium,
			Message:   fmt.Sprintf("moved from %s to %s", a.CurrentOwnerName, p.rep.Name),
		})
		if a.IsCustomer {
			prop.Warnings = append(prop.Warnings, model.Warning{
				AccountID: a.ID,
				Type:      model.WarnChangingCustomer,
				Severity:  model.SeverityHigh,
				Message:   "existing customer changes owner",
			})
		}
	}

	if p.rep.IsStrategicRep && book.OverMax(p.rep.ID, a) {
		prop.Warnings = append(prop.Warnings, model.Warning{
			AccountID: a.ID,
			Type:      model.WarnStrategicOverflow,
			Severity:  model.SeverityMedium,
			Message:   fmt.Sprintf("strategic rep %s absorbed load beyond the standard max", p.rep.Name),
		})
	}

	load := book.Load(p.rep.ID)
	if e.cfg.MaxTier1PerRep > 0 && a.EffectiveTier() == model.Tier1 && load.Tier1Count >= e.cfg.MaxTier1PerRep {
		prop.Warnings = append(prop.Warnings, model.Warning{
			AccountID: a.ID,
			Type:      model.WarnTierConcentration,
			Severity:  model.SeverityMedium,
			Message:   fmt.Sprintf("%s now holds %d tier-1 accounts", p.rep.Name, load.Tier1Count),
		})
	}

	if risk := model.CRERiskFor(a.CRECount); risk == model.CRERiskMedium || risk == model.CRERiskHigh {
		sev := model.SeverityMedium
		if risk == model.CRERiskHigh {
			sev = model.SeverityHigh
		}
		prop.Warnings = append(prop.Warnings, model.Warning{
			AccountID: a.ID,
			Type:      model.WarnCRERisk,
			Severity:  sev,
			Message:   fmt.Sprintf("account carries %d renewal risk events", a.CRECount),
		})
	}

	return prop
}

// markSplits recomputes hierarchy split state: a parent whose children
// do not all land with the parent's effective owner is split, and each
// diverging child carries a HIERARCHY_SPLIT warning.
func (e *Engine) markSplits(proposals map[string]*model.AssignmentProposal) {
	for _, id := range e.roster.Ordered() {
		a := e.roster.Get(id)
		childIDs := e.roster.Children(a.ID)
		if len(childIDs) == 0 {
			continue
		}
		parentOwner := effectiveOwner(a)
		split := false
		for _, childID := range childIDs {
			child := e.roster.Get(childID)
			if effectiveOwner(child) == parentOwner {
				continue
			}
			split = true
			if p := proposals[childID]; p != nil && !p.HasWarning(model.WarnHierarchySplit) {
				p.Warnings = append(p.Warnings, model.Warning{
					AccountID: childID,
					Type:      model.WarnHierarchySplit,
					Severity:  model.SeverityHigh,
					Message:   fmt.Sprintf("owner diverges from parent %s", a.Name),
				})
			}
		}
		a.HasSplitOwnership = split
	}
}

// effectiveOwner is the owner a hierarchy comparison sees: the working
// assignment when present, the before-snapshot owner otherwise.
func effectiveOwner(a *model.Account) string {
	if a.ProposedOwnerID != "" {
		return a.ProposedOwnerID
	}
	return a.CurrentOwnerID
}

func (e *Engine) repSlice() []*model.SalesRep {
	reps := make([]*model.SalesRep, 0, len(e.repOrder))
	for _, id := range e.repOrder {
		reps = append(reps, e.reps[id])
	}
	return reps
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
