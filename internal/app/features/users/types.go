package users

import (
	"github.com/dalemusser/councilhub/internal/app/system/lifecycle"
	"github.com/dalemusser/councilhub/internal/app/system/viewdata"
	"github.com/dalemusser/councilhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// userRow is a user with its derived bucket and the actions the caller
// may take on it.
type userRow struct {
	models.User
	Bucket  lifecycle.Bucket   `json:"bucket"`
	Actions []lifecycle.Action `json:"actions"`
}

type listResponse struct {
	Users  []userRow                  `json:"users"`
	Counts map[lifecycle.Bucket]int64 `json:"counts"`
}

type actionRequest struct {
	Reason string `json:"reason"`
}

var bucketLabels = map[lifecycle.Bucket]string{
	lifecycle.PendingApproval: "Awaiting approval",
	lifecycle.Unverified:      "Awaiting email verification",
	lifecycle.Legacy:          "Legacy accounts",
	lifecycle.Active:          "Active accounts",
}

var actionLabels = map[lifecycle.Action]string{
	lifecycle.ActionVerify:       "Mark verified",
	lifecycle.ActionResend:       "Resend email",
	lifecycle.ActionApprove:      "Approve",
	lifecycle.ActionReject:       "Reject",
	lifecycle.ActionMigrate:      "Migrate",
	lifecycle.ActionToggleActive: "Activate / deactivate",
	lifecycle.ActionDelete:       "Delete",
}

// actionButton is one form button on the HTML console.
type actionButton struct {
	Action lifecycle.Action
	Label  string
	Reason bool
}

// Buttons returns the row's actions for the HTML console. Edit is served
// by the profile form, not a button.
func (u userRow) Buttons() []actionButton {
	var out []actionButton
	for _, a := range u.Actions {
		if a == lifecycle.ActionEdit {
			continue
		}
		out = append(out, actionButton{Action: a, Label: actionLabels[a], Reason: a == lifecycle.ActionReject})
	}
	return out
}

type bucketGroup struct {
	Bucket lifecycle.Bucket
	Label  string
	Count  int64
	Rows   []userRow
}

type listData struct {
	viewdata.BaseVM
	Search      string
	Groups      []bucketGroup
	LegacyCount int64
}

// rowFor classifies u and lists the actions the policy permits. Actions
// that may not target the actor's own account are left off that row, and
// accounts ranked above the actor get none.
func rowFor(p *lifecycle.Policy, actor primitive.ObjectID, actorRole string, u models.User) userRow {
	b := lifecycle.ClassifyUser(u)
	acts := p.ActionsFor(b)
	if !lifecycle.CanManage(actorRole, u.Role) {
		acts = nil
	} else if u.ID == actor {
		kept := acts[:0]
		for _, a := range acts {
			if !p.SelfGuarded(a) {
				kept = append(kept, a)
			}
		}
		acts = kept
	}
	return userRow{User: u, Bucket: b, Actions: acts}
}
