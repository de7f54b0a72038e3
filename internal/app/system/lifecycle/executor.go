package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/councilhub/internal/app/system/apperr"
	"github.com/dalemusser/councilhub/internal/app/system/clock"
	"github.com/dalemusser/councilhub/internal/app/system/mailer"
	"github.com/dalemusser/councilhub/internal/app/system/notify"
	"github.com/dalemusser/councilhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// UserRepo is the persistence the executor needs. Every mutation is a single
// conditional write scoped by _id, so repeated or concurrent calls are safe.
// GetByID returns mongo.ErrNoDocuments when the user does not exist.
type UserRepo interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	ListByBucket(ctx context.Context, b Bucket) ([]models.User, error)
	MarkEmailVerified(ctx context.Context, id primitive.ObjectID, now time.Time) (bool, error)
	Approve(ctx context.Context, id, by primitive.ObjectID, now time.Time) (bool, error)
	MigrateLegacy(ctx context.Context, id primitive.ObjectID, now time.Time) (bool, error)
	SetActive(ctx context.Context, id primitive.ObjectID, active bool, now time.Time) error
	UpdateProfile(ctx context.Context, id primitive.ObjectID, edit ProfileEdit, now time.Time) error
	Delete(ctx context.Context, id primitive.ObjectID) (bool, error)
}

// Auditor records admin actions on accounts.
type Auditor interface {
	AccountAction(ctx context.Context, actorID, targetID primitive.ObjectID, action string, success bool, reason string)
}

// SiteNamer supplies the organization name used in outbound email.
type SiteNamer interface {
	SiteName(ctx context.Context) string
}

// ProfileEdit holds optional field changes for the edit action. Nil means unchanged.
type ProfileEdit struct {
	Name         *string `json:"name,omitempty"`
	Phone        *string `json:"phone,omitempty"`
	Role         *string `json:"role,omitempty"`
	MemberStatus *string `json:"member_status,omitempty"`
}

// Request describes one action against one account.
type Request struct {
	ActorID   primitive.ObjectID
	ActorRole string
	TargetID  primitive.ObjectID
	Action    Action
	Reason    string       // reject only
	Edit      *ProfileEdit // edit only
}

// Result reports what an action did.
type Result struct {
	Action    Action `json:"action"`
	Bucket    Bucket `json:"bucket"` // bucket before the action
	Changed   bool   `json:"changed"`
	Email     string `json:"email"`
	Message   string `json:"message"`
	NotifyErr error  `json:"-"` // best-effort email failure; the action itself succeeded
}

// MigrateResult reports a legacy migration batch.
type MigrateResult struct {
	MigratedCount int      `json:"migratedCount"`
	Skipped       int      `json:"skipped"`
	Failures      []string `json:"failures"`
}

// Executor applies lifecycle actions.
type Executor struct {
	Users   UserRepo
	Mail    mailer.Sender
	Clock   clock.Clock
	Policy  *Policy
	Audit   Auditor
	Site    SiteNamer
	BaseURL string
	Log     *zap.Logger
}

// NewExecutor wires an Executor with the default policy.
func NewExecutor(users UserRepo, mail mailer.Sender, clk clock.Clock, audit Auditor, site SiteNamer, baseURL string, logger *zap.Logger) *Executor {
	if clk == nil {
		clk = clock.System{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{
		Users:   users,
		Mail:    mail,
		Clock:   clk,
		Policy:  DefaultPolicy(),
		Audit:   audit,
		Site:    site,
		BaseURL: strings.TrimRight(baseURL, "/"),
		Log:     logger,
	}
}

// Execute loads the target, checks the policy and runs the action.
// Outcome messages go to n; n may be nil.
func (x *Executor) Execute(ctx context.Context, req Request, n notify.Notifier) (Result, error) {
	n = notify.OrDiscard(n)
	res, err := x.execute(ctx, req, n)
	x.audit(ctx, req, err)
	if err != nil {
		n.Error(userMessage(err))
	}
	return res, err
}

func (x *Executor) execute(ctx context.Context, req Request, n notify.Notifier) (Result, error) {
	res := Result{Action: req.Action}

	u, err := x.Users.GetByID(ctx, req.TargetID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return res, ErrUserNotFound
		}
		return res, fmt.Errorf("load user: %w", err)
	}
	res.Email = u.Email
	res.Bucket = ClassifyUser(*u)

	if req.ActorID == req.TargetID && x.Policy.SelfGuarded(req.Action) {
		return res, ErrSelfAction
	}
	if !CanManage(req.ActorRole, u.Role) {
		return res, ErrOutranked
	}

	// Approving an already-approved account is a no-op success.
	if req.Action == ActionApprove && res.Bucket == Active {
		res.Message = "User is already approved."
		n.Success(res.Message)
		return res, nil
	}

	if err := x.Policy.Check(req.ActorID, req.TargetID, res.Bucket, req.Action); err != nil {
		return res, err
	}

	now := x.Clock.Now()
	switch req.Action {
	case ActionVerify:
		return x.verify(ctx, u, now, res, n)
	case ActionResend:
		return x.resend(ctx, u, res, n)
	case ActionApprove:
		return x.approve(ctx, req.ActorID, u, now, res, n)
	case ActionReject:
		return x.reject(ctx, u, req.Reason, res, n)
	case ActionMigrate:
		changed, err := x.Users.MigrateLegacy(ctx, u.ID, now)
		if err != nil {
			return res, fmt.Errorf("migrate user: %w", err)
		}
		res.Changed = changed
		res.Message = "Legacy account migrated."
		n.Success(res.Message)
		return res, nil
	case ActionToggleActive:
		if err := x.Users.SetActive(ctx, u.ID, !u.Active, now); err != nil {
			return res, fmt.Errorf("toggle active: %w", err)
		}
		res.Changed = true
		if u.Active {
			res.Message = "User deactivated."
		} else {
			res.Message = "User activated."
		}
		n.Success(res.Message)
		return res, nil
	case ActionDelete:
		deleted, err := x.Users.Delete(ctx, u.ID)
		if err != nil {
			return res, fmt.Errorf("delete user: %w", err)
		}
		if !deleted {
			return res, ErrUserNotFound
		}
		res.Changed = true
		res.Message = "User deleted."
		n.Success(res.Message)
		return res, nil
	case ActionEdit:
		return x.edit(ctx, req, u, now, res, n)
	}
	return res, ErrActionNotAllowed
}

func (x *Executor) verify(ctx context.Context, u *models.User, now time.Time, res Result, n notify.Notifier) (Result, error) {
	changed, err := x.Users.MarkEmailVerified(ctx, u.ID, now)
	if err != nil {
		return res, fmt.Errorf("verify user: %w", err)
	}
	res.Changed = changed
	res.Message = "Email marked as verified."
	n.Success(res.Message)
	return res, nil
}

// resend re-sends the stored token. It never mutates the account.
func (x *Executor) resend(ctx context.Context, u *models.User, res Result, n notify.Notifier) (Result, error) {
	if x.Mail == nil {
		return res, apperr.Collaborator("Email is not configured.", errors.New("no mailer"))
	}
	email := mailer.BuildVerificationEmail(u.Email, mailer.VerificationEmailData{
		SiteName: x.siteName(ctx),
		Name:     u.Name,
		Link:     x.VerifyLink(*u.EmailVerificationToken),
	})
	if err := x.Mail.Send(ctx, email); err != nil {
		x.Log.Warn("resend verification failed", zap.String("user_id", u.ID.Hex()), zap.Error(err))
		return res, apperr.Collaborator("The verification email could not be sent.", err)
	}
	res.Message = "Verification email sent."
	n.Success(res.Message)
	return res, nil
}

func (x *Executor) approve(ctx context.Context, actor primitive.ObjectID, u *models.User, now time.Time, res Result, n notify.Notifier) (Result, error) {
	changed, err := x.Users.Approve(ctx, u.ID, actor, now)
	if err != nil {
		return res, fmt.Errorf("approve user: %w", err)
	}
	res.Changed = changed
	if !changed {
		res.Message = "User is already approved."
		n.Success(res.Message)
		return res, nil
	}

	res.Message = "User approved."
	n.Success(res.Message)

	res.NotifyErr = x.send(ctx, mailer.BuildApprovedEmail(u.Email, mailer.NoticeEmailData{
		SiteName: x.siteName(ctx),
		Name:     u.Name,
		LoginURL: x.BaseURL + "/login",
	}))
	if res.NotifyErr != nil {
		n.Error("The approval email could not be sent.")
	}
	return res, nil
}

// reject deletes the applicant and, when a reason was given, emails it to them.
func (x *Executor) reject(ctx context.Context, u *models.User, reason string, res Result, n notify.Notifier) (Result, error) {
	email, name := u.Email, u.Name
	deleted, err := x.Users.Delete(ctx, u.ID)
	if err != nil {
		return res, fmt.Errorf("reject user: %w", err)
	}
	if !deleted {
		return res, ErrUserNotFound
	}
	res.Changed = true
	res.Message = "User rejected."
	n.Success(res.Message)

	reason = strings.TrimSpace(reason)
	if reason == "" {
		return res, nil
	}
	res.NotifyErr = x.send(ctx, mailer.BuildRejectedEmail(email, mailer.NoticeEmailData{
		SiteName: x.siteName(ctx),
		Name:     name,
		Reason:   reason,
	}))
	if res.NotifyErr != nil {
		n.Error("The rejection email could not be sent.")
	}
	return res, nil
}

func (x *Executor) edit(ctx context.Context, req Request, u *models.User, now time.Time, res Result, n notify.Notifier) (Result, error) {
	if req.Edit == nil {
		return res, apperr.Validation("Nothing to update.", nil)
	}
	e := *req.Edit
	fields := map[string]string{}

	if e.Name != nil {
		v := strings.TrimSpace(*e.Name)
		if v == "" {
			fields["name"] = "Name is required."
		}
		e.Name = &v
	}
	if e.Role != nil {
		v := strings.ToUpper(strings.TrimSpace(*e.Role))
		if !models.ValidRole(v) {
			fields["role"] = "Unknown role."
		}
		e.Role = &v
	}
	if e.MemberStatus != nil {
		v := strings.ToUpper(strings.TrimSpace(*e.MemberStatus))
		if !models.ValidMemberStatus(v) {
			fields["member_status"] = "Unknown member status."
		}
		e.MemberStatus = &v
	}
	if len(fields) > 0 {
		return res, apperr.Validation("Please fix the highlighted fields.", fields)
	}
	if e.Role != nil && !CanManage(req.ActorRole, *e.Role) {
		return res, ErrOutranked
	}

	// Admins keep their own name and phone editable but never their role.
	if req.ActorID == u.ID && e.Role != nil && *e.Role != u.Role {
		return res, ErrSelfAction
	}

	if err := x.Users.UpdateProfile(ctx, u.ID, e, now); err != nil {
		return res, fmt.Errorf("update user: %w", err)
	}
	res.Changed = true
	res.Message = "User updated."
	n.Success(res.Message)
	return res, nil
}

// MigrateLegacy marks every legacy account verified and approved.
// A failing row is recorded and the batch continues.
func (x *Executor) MigrateLegacy(ctx context.Context, actorID primitive.ObjectID, n notify.Notifier) (MigrateResult, error) {
	n = notify.OrDiscard(n)
	var out MigrateResult

	users, err := x.Users.ListByBucket(ctx, Legacy)
	if err != nil {
		n.Error("Could not load legacy users.")
		return out, fmt.Errorf("list legacy users: %w", err)
	}

	now := x.Clock.Now()
	for _, u := range users {
		changed, err := x.Users.MigrateLegacy(ctx, u.ID, now)
		switch {
		case err != nil:
			out.Failures = append(out.Failures, fmt.Sprintf("%s: %v", u.Email, err))
			x.Log.Warn("legacy migration failed", zap.String("user_id", u.ID.Hex()), zap.Error(err))
		case !changed:
			out.Skipped++
		default:
			out.MigratedCount++
		}
	}

	if x.Audit != nil {
		x.Audit.AccountAction(ctx, actorID, primitive.NilObjectID, "migrate_legacy_batch", len(out.Failures) == 0,
			fmt.Sprintf("migrated=%d failed=%d", out.MigratedCount, len(out.Failures)))
	}

	n.Success(fmt.Sprintf("Migrated %d legacy user(s).", out.MigratedCount))
	if len(out.Failures) > 0 {
		n.Error(fmt.Sprintf("%d legacy user(s) could not be migrated.", len(out.Failures)))
	}
	return out, nil
}

// VerifyLink returns the public URL that confirms token.
func (x *Executor) VerifyLink(token string) string {
	return x.BaseURL + "/verify-email?token=" + token
}

// SendVerification emails a verification link for token to u. Registration uses it
// for the first message; the resend action goes through Execute.
func (x *Executor) SendVerification(ctx context.Context, u models.User, token string) error {
	if x.Mail == nil {
		return errors.New("no mailer configured")
	}
	return x.Mail.Send(ctx, mailer.BuildVerificationEmail(u.Email, mailer.VerificationEmailData{
		SiteName: x.siteName(ctx),
		Name:     u.Name,
		Link:     x.VerifyLink(token),
	}))
}

func (x *Executor) send(ctx context.Context, e mailer.Email) error {
	if x.Mail == nil {
		return errors.New("no mailer configured")
	}
	if err := x.Mail.Send(ctx, e); err != nil {
		x.Log.Warn("notification email failed", zap.String("to", e.To), zap.String("subject", e.Subject), zap.Error(err))
		return err
	}
	return nil
}

func (x *Executor) siteName(ctx context.Context) string {
	if x.Site == nil {
		return models.DefaultSiteName
	}
	if s := x.Site.SiteName(ctx); s != "" {
		return s
	}
	return models.DefaultSiteName
}

func (x *Executor) audit(ctx context.Context, req Request, err error) {
	if x.Audit == nil {
		return
	}
	reason := ""
	if err != nil {
		reason = err.Error()
	}
	x.Audit.AccountAction(ctx, req.ActorID, req.TargetID, string(req.Action), err == nil, reason)
}

func userMessage(err error) string {
	if ae, ok := apperr.As(err); ok && ae.Message != "" {
		return ae.Message
	}
	return "Something went wrong. Please try again."
}
