package engine

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/territory-cli/internal/model"
)

// ReassignState is the state of an in-flight manual reassignment.
type ReassignState string

const (
	StateIdle               ReassignState = "idle"
	StateEvaluating         ReassignState = "evaluating"
	StateConfirmed          ReassignState = "confirmed"
	StateSplitWarned        ReassignState = "split_warned"
	StateLockOverrideWarned ReassignState = "lock_override_warned"
	StateApplied            ReassignState = "applied"
	StateCancelled          ReassignState = "cancelled"
)

// hierarchyRole classifies the reassignment target.
type hierarchyRole int

const (
	roleStandalone hierarchyRole = iota
	roleParent
	roleChild
)

// maxLockReasonLen bounds the operator-supplied lock rationale.
const maxLockReasonLen = 500

// ReassignRequest is the manual single-account reassignment entry
// point's input.
type ReassignRequest struct {
	AccountID       string `json:"account_id"`
	NewOwnerID      string `json:"new_owner_id"`
	IncludeChildren bool   `json:"include_children"`
	MoveOnlyThis    bool   `json:"move_only_this"`
	OverrideLocks   bool   `json:"override_locks"`
	Rationale       string `json:"rationale"`
}

// ReassignResult is returned once a reassignment is applied.
type ReassignResult struct {
	Affected  []*model.Account            `json:"affected"`
	Proposals []*model.AssignmentProposal `json:"proposals"`
	Audit     model.AuditEntry            `json:"audit"`
}

// Reassignment is the cascade state machine for one manual move.
// Applied and Cancelled are terminal; abandoning the value without
// calling Apply leaves every account untouched.
type Reassignment struct {
	engine *Engine
	req    ReassignRequest
	state  ReassignState

	target   *model.Account
	newOwner *model.SalesRep
	role     hierarchyRole

	// moves is the full set of accounts that change owner, target
	// included. Locked members that stay behind are listed in skipped.
	moves     []*model.Account
	skipped   []string
	warnings  []model.WarningType
	confirmed bool
}

// PlanReassignment evaluates a manual reassignment without mutating any
// account. Invalid targets and owners are rejected here, and a locked
// target without overrideLocks never gets past evaluation.
func (e *Engine) PlanReassignment(req ReassignRequest) (*Reassignment, error) {
	r := &Reassignment{engine: e, req: req, state: StateEvaluating}

	r.target = e.roster.Get(req.AccountID)
	if r.target == nil {
		return nil, eris.Errorf("reassign: unknown account %s", req.AccountID)
	}
	r.newOwner = e.reps[req.NewOwnerID]
	if r.newOwner == nil {
		return nil, eris.Errorf("reassign: unknown rep %s", req.NewOwnerID)
	}
	if !r.newOwner.Assignable() {
		return nil, eris.Errorf("reassign: rep %s is not eligible for assignments", r.newOwner.Name)
	}

	if r.target.ExcludeFromReassignment && !req.OverrideLocks {
		return nil, eris.Errorf("reassign: account %s is locked (%s)", r.target.ID, r.target.LockReason)
	}

	switch {
	case e.roster.HasChildren(r.target.ID):
		r.role = roleParent
	case r.target.IsChild():
		r.role = roleChild
	default:
		r.role = roleStandalone
	}

	r.moves = append(r.moves, r.target)
	lockOverridden := r.target.ExcludeFromReassignment

	switch r.role {
	case roleParent:
		if req.IncludeChildren {
			for _, childID := range e.roster.Children(r.target.ID) {
				child := e.roster.Get(childID)
				if child.ExcludeFromReassignment && !req.OverrideLocks {
					r.skipped = append(r.skipped, childID)
					continue
				}
				if child.ExcludeFromReassignment {
					lockOverridden = true
				}
				r.moves = append(r.moves, child)
			}
		}
	case roleChild:
		if !req.MoveOnlyThis {
			// Moving a child without isolating it drags the whole
			// hierarchy along.
			for _, id := range e.roster.Hierarchy(r.target.ID) {
				if id == r.target.ID {
					continue
				}
				member := e.roster.Get(id)
				if member.ExcludeFromReassignment && !req.OverrideLocks {
					r.skipped = append(r.skipped, id)
					continue
				}
				if member.ExcludeFromReassignment {
					lockOverridden = true
				}
				r.moves = append(r.moves, member)
			}
		}
	}

	if r.splitsHierarchy() {
		r.warnings = append(r.warnings, model.WarnHierarchySplit)
	}
	if lockOverridden {
		r.warnings = append(r.warnings, model.WarnLockOverride)
	}

	switch {
	case lockOverridden:
		r.state = StateLockOverrideWarned
	case r.splitsHierarchy():
		r.state = StateSplitWarned
	default:
		r.state = StateConfirmed
	}

	return r, nil
}

// splitsHierarchy reports whether applying the plan leaves a hierarchy
// member with an owner different from its parent's.
func (r *Reassignment) splitsHierarchy() bool {
	if r.role == roleStandalone {
		return false
	}
	moving := make(map[string]bool, len(r.moves))
	for _, a := range r.moves {
		moving[a.ID] = true
	}
	for _, id := range r.engine.roster.Hierarchy(r.target.ID) {
		if !moving[id] {
			// A member staying behind keeps its old owner while the
			// target moves; only a coincidental owner match avoids a
			// split.
			if effectiveOwner(r.engine.roster.Get(id)) != r.newOwner.ID {
				return true
			}
		}
	}
	return false
}

// State returns the machine's current state.
func (r *Reassignment) State() ReassignState {
	return r.state
}

// Warnings lists the warning types the evaluation raised.
func (r *Reassignment) Warnings() []model.WarningType {
	return r.warnings
}

// SkippedLocked lists locked accounts left behind by the cascade.
func (r *Reassignment) SkippedLocked() []string {
	return r.skipped
}

// RequiresConfirmation reports whether Apply is gated on Confirm.
func (r *Reassignment) RequiresConfirmation() bool {
	return r.state == StateLockOverrideWarned && !r.confirmed
}

// Confirm acknowledges a lock-override warning, allowing Apply.
func (r *Reassignment) Confirm() {
	if r.state == StateLockOverrideWarned {
		r.confirmed = true
	}
}

// Cancel abandons the reassignment without touching any account.
func (r *Reassignment) Cancel() {
	if r.state != StateApplied {
		r.state = StateCancelled
	}
}

// Apply moves the target and its cascade to the new owner, updates the
// affected proposals, and records one audit entry. The update is atomic
// over the cascade scope: validation is complete before the first
// mutation, so either every account in the plan moves or none does.
func (r *Reassignment) Apply() (*ReassignResult, error) {
	switch r.state {
	case StateConfirmed, StateSplitWarned:
	case StateLockOverrideWarned:
		if !r.confirmed {
			return nil, eris.New("reassign: lock override requires confirmation")
		}
	case StateApplied:
		return nil, eris.New("reassign: already applied")
	case StateCancelled:
		return nil, eris.New("reassign: cancelled")
	default:
		return nil, eris.Errorf("reassign: cannot apply from state %s", r.state)
	}

	prevID, prevName := r.target.ProposedOwnerID, r.target.ProposedOwnerName
	if prevID == "" {
		prevID, prevName = r.target.CurrentOwnerID, r.target.CurrentOwnerName
	}

	forcedLow := r.state == StateSplitWarned ||
		(r.role == roleParent && !r.req.IncludeChildren) ||
		(r.role == roleChild && r.req.MoveOnlyThis)

	result := &ReassignResult{}
	for _, a := range r.moves {
		a.ProposedOwnerID = r.newOwner.ID
		a.ProposedOwnerName = r.newOwner.Name
		if a.ExcludeFromReassignment {
			// Overriding the lock repins the account to its new owner.
			a.LockReason = fmt.Sprintf("override: %s", r.req.Rationale)
		}
		result.Affected = append(result.Affected, a)
		result.Proposals = append(result.Proposals, r.rewriteProposal(a, forcedLow))
	}

	r.refreshSplitState()
	r.state = StateApplied

	cascaded := make([]string, 0, len(r.moves)-1)
	for _, a := range r.moves[1:] {
		cascaded = append(cascaded, a.ID)
	}
	result.Audit = model.AuditEntry{
		ID:                 uuid.NewString(),
		AccountID:          r.target.ID,
		Operation:          model.AuditOpReassign,
		PreviousOwnerID:    prevID,
		PreviousOwnerName:  prevName,
		NewOwnerID:         r.newOwner.ID,
		NewOwnerName:       r.newOwner.Name,
		CascadedAccountIDs: cascaded,
		Warnings:           r.warnings,
		Rationale:          r.req.Rationale,
		CreatedAt:          time.Now().UTC(),
	}

	zap.L().Info("engine: manual reassignment applied",
		zap.String("account", r.target.ID),
		zap.String("new_owner", r.newOwner.ID),
		zap.Int("cascaded", len(cascaded)),
		zap.Int("skipped_locked", len(r.skipped)),
	)

	return result, nil
}

// rewriteProposal replaces the account's proposal with the manual
// outcome. A split move is forced to LOW confidence regardless of what
// the scorer would compute.
func (r *Reassignment) rewriteProposal(a *model.Account, forcedLow bool) *model.AssignmentProposal {
	p := &model.AssignmentProposal{
		AccountID:           a.ID,
		ProposedOwnerID:     r.newOwner.ID,
		ProposedOwnerName:   r.newOwner.Name,
		ProposedOwnerRegion: r.newOwner.Region,
		RuleApplied:         model.RuleManualReassignment,
		AssignmentReason:    r.req.Rationale,
		CRERisk:             model.CRERiskFor(a.CRECount),
	}
	if p.AssignmentReason == "" {
		p.AssignmentReason = "manual reassignment"
	}

	for _, t := range r.warnings {
		sev := model.SeverityHigh
		if t == model.WarnLockOverride {
			sev = model.SeverityMedium
		}
		p.Warnings = append(p.Warnings, model.Warning{
			AccountID: a.ID,
			Type:      t,
			Severity:  sev,
		})
	}
	if a.IsCustomer && a.CurrentOwnerID != "" && a.CurrentOwnerID != r.newOwner.ID {
		p.Warnings = append(p.Warnings, model.Warning{
			AccountID: a.ID,
			Type:      model.WarnChangingCustomer,
			Severity:  model.SeverityHigh,
			Message:   "existing customer changes owner",
		})
	}

	p.Confidence = ScoreConfidence(p.Warnings)
	if forcedLow {
		p.Confidence = model.ConfidenceLow
	}

	r.engine.proposals[a.ID] = p
	return p
}

// refreshSplitState recomputes hasSplitOwnership for the touched
// hierarchy only.
func (r *Reassignment) refreshSplitState() {
	if r.role == roleStandalone {
		return
	}
	members := r.engine.roster.Hierarchy(r.target.ID)
	parent := r.engine.roster.Get(members[0])
	parentOwner := effectiveOwner(parent)
	split := false
	for _, id := range members[1:] {
		if effectiveOwner(r.engine.roster.Get(id)) != parentOwner {
			split = true
			break
		}
	}
	parent.HasSplitOwnership = split
}

// SetLock locks or unlocks an account. Locking captures the account's
// current owner as the pinned target and an optional reason, truncated
// to 500 characters; unlocking is unconditional. Both return the
// account's new state plus an audit entry.
func (e *Engine) SetLock(accountID string, locked bool, reason string) (*model.Account, *model.AuditEntry, error) {
	a := e.roster.Get(accountID)
	if a == nil {
		return nil, nil, eris.Errorf("engine: unknown account %s", accountID)
	}

	op := model.AuditOpUnlock
	if locked {
		op = model.AuditOpLock
		if len(reason) > maxLockReasonLen {
			reason = reason[:maxLockReasonLen]
		}
		a.ExcludeFromReassignment = true
		a.LockReason = reason
		a.ProposedOwnerID = a.CurrentOwnerID
		a.ProposedOwnerName = a.CurrentOwnerName
	} else {
		a.ExcludeFromReassignment = false
		a.LockReason = ""
	}

	entry := &model.AuditEntry{
		ID:              uuid.NewString(),
		AccountID:       a.ID,
		Operation:       op,
		PreviousOwnerID: a.CurrentOwnerID,
		NewOwnerID:      a.CurrentOwnerID,
		Rationale:       reason,
		CreatedAt:       time.Now().UTC(),
	}

	zap.L().Info("engine: lock state changed",
		zap.String("account", a.ID),
		zap.Bool("locked", locked),
	)

	return a, entry, nil
}
