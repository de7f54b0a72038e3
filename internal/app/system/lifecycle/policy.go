package lifecycle

import (
	"strings"

	"github.com/dalemusser/councilhub/internal/app/system/apperr"
	"github.com/dalemusser/councilhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Action is an admin operation on an account.
type Action string

const (
	ActionVerify       Action = "verify"
	ActionResend       Action = "resend"
	ActionApprove      Action = "approve"
	ActionReject       Action = "reject"
	ActionMigrate      Action = "migrate"
	ActionToggleActive Action = "toggle_active"
	ActionDelete       Action = "delete"
	ActionEdit         Action = "edit"
)

var (
	// ErrSelfAction is returned when an admin targets their own account with
	// an action that could lock them out.
	ErrSelfAction = apperr.Permission("You can't perform this action on your own account.")

	// ErrActionNotAllowed is returned when the action is not permitted in the
	// target's current bucket.
	ErrActionNotAllowed = apperr.Conflict("That action is not available for this user's current state.")

	// ErrOutranked is returned when the target account, or a role being
	// assigned, ranks above the actor's own role.
	ErrOutranked = apperr.Permission("You can't manage an account with a higher role than yours.")

	// ErrUserNotFound is returned when the target account does not exist.
	ErrUserNotFound = apperr.NotFound("User not found.")
)

// Policy is a fixed bucket-to-action table.
type Policy struct {
	table map[Bucket][]Action
	self  map[Action]struct{}
}

// DefaultPolicy returns the council's account policy.
func DefaultPolicy() *Policy {
	return &Policy{
		table: map[Bucket][]Action{
			Unverified:      {ActionVerify, ActionResend},
			PendingApproval: {ActionApprove, ActionReject},
			Legacy:          {ActionMigrate},
			Active:          {ActionToggleActive, ActionDelete, ActionEdit},
		},
		self: map[Action]struct{}{
			ActionApprove:      {},
			ActionReject:       {},
			ActionToggleActive: {},
			ActionDelete:       {},
		},
	}
}

// ActionsFor returns the actions permitted for bucket b, in display order.
func (p *Policy) ActionsFor(b Bucket) []Action {
	acts := p.table[b]
	out := make([]Action, len(acts))
	copy(out, acts)
	return out
}

// Allowed reports whether action a is permitted in bucket b.
func (p *Policy) Allowed(b Bucket, a Action) bool {
	for _, x := range p.table[b] {
		if x == a {
			return true
		}
	}
	return false
}

// SelfGuarded reports whether a may never target the actor's own account.
func (p *Policy) SelfGuarded(a Action) bool {
	_, ok := p.self[a]
	return ok
}

// Check validates that actor may apply action to target in bucket b.
// Self-targeted guarded actions fail with ErrSelfAction before the bucket
// table is consulted.
func (p *Policy) Check(actorID, targetID primitive.ObjectID, b Bucket, a Action) error {
	if actorID == targetID && p.SelfGuarded(a) {
		return ErrSelfAction
	}
	if !p.Allowed(b, a) {
		return ErrActionNotAllowed
	}
	return nil
}

// CanManage reports whether an actor holding actorRole may act on an account
// holding targetRole. An unknown actor role manages nothing.
func CanManage(actorRole, targetRole string) bool {
	a := models.RoleRank(actorRole)
	return a >= 0 && models.RoleRank(targetRole) <= a
}

// ParseAction accepts "toggle-active" and "toggle_active" forms in any case.
func ParseAction(s string) (Action, bool) {
	s = strings.ToLower(strings.TrimSpace(strings.ReplaceAll(s, "-", "_")))
	switch Action(s) {
	case ActionVerify, ActionResend, ActionApprove, ActionReject,
		ActionMigrate, ActionToggleActive, ActionDelete, ActionEdit:
		return Action(s), true
	}
	return "", false
}
