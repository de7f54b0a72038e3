// Package login signs users in and out, over the JSON API and the HTML form.
package login

import (
	"context"
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/councilhub/internal/app/features/errors"
	loginstore "github.com/dalemusser/councilhub/internal/app/store/logins"
	settingsstore "github.com/dalemusser/councilhub/internal/app/store/settings"
	userstore "github.com/dalemusser/councilhub/internal/app/store/users"
	"github.com/dalemusser/councilhub/internal/app/system/auditlog"
	"github.com/dalemusser/councilhub/internal/app/system/auth"
	"github.com/dalemusser/councilhub/internal/app/system/authutil"
	"github.com/dalemusser/councilhub/internal/app/system/clock"
	"github.com/dalemusser/councilhub/internal/app/system/lifecycle"
	"github.com/dalemusser/councilhub/internal/app/system/normalize"
	"github.com/dalemusser/councilhub/internal/app/system/ratelimit"
	"github.com/dalemusser/councilhub/internal/app/system/timeouts"
	"github.com/dalemusser/councilhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type Handler struct {
	Users      *userstore.Store
	Logins     *loginstore.Store
	Site       *settingsstore.Store
	SessionMgr *auth.SessionManager
	ErrLog     *uierrors.ErrorLogger
	AuditLog   *auditlog.Logger
	Limiter    *ratelimit.LoginLimiter
	Clock      clock.Clock
	Log        *zap.Logger
}

func NewHandler(db *mongo.Database, sm *auth.SessionManager, errLog *uierrors.ErrorLogger, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	site := settingsstore.New(db, logger)
	return &Handler{
		Users:      userstore.New(db),
		Logins:     loginstore.New(db),
		Site:       site,
		SessionMgr: sm,
		ErrLog:     errLog.WithSite(site),
		AuditLog:   audit,
		Limiter:    ratelimit.NewLoginLimiter(),
		Clock:      clock.System{},
		Log:        logger,
	}
}

// denial explains why a sign-in attempt was refused. Status and Code are
// used by the API; Message is shown to the user either way.
type denial struct {
	Status  int
	Code    string
	Message string
}

func (d *denial) Error() string { return d.Message }

var errBadCredentials = &denial{http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password."}

// dummyHash keeps the unknown-email path as slow as a real comparison.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("councilhub-timing"), bcrypt.DefaultCost)

// bucketDenials holds the refusal for every bucket that may not sign in.
var bucketDenials = map[lifecycle.Bucket]*denial{
	lifecycle.Unverified: {http.StatusForbidden, "EMAIL_UNVERIFIED",
		"Please verify your email address before signing in. Check your inbox for the link we sent."},
	lifecycle.PendingApproval: {http.StatusForbidden, "PENDING_APPROVAL",
		"Your email is verified. Your account is waiting for approval by an administrator."},
	lifecycle.Legacy: {http.StatusForbidden, "NOT_ACTIVATED",
		"Your account has not been activated yet. Please contact an administrator."},
}

var errInactive = &denial{http.StatusForbidden, "ACCOUNT_INACTIVE",
	"Your account is inactive. Please contact an administrator."}

// authenticate checks credentials and lifecycle state. A *denial error is
// a refusal to show the user; any other error is a server failure.
func (h *Handler) authenticate(ctx context.Context, r *http.Request, email, password string) (*models.User, error) {
	email = normalize.Email(email)
	if email == "" || password == "" {
		return nil, &denial{http.StatusBadRequest, "VALIDATION", "Please enter your email and password."}
	}
	if ok, msg := h.Limiter.Check(r, email); !ok {
		return nil, &denial{http.StatusTooManyRequests, "RATE_LIMITED", msg}
	}

	u, err := h.Users.GetByEmail(ctx, email)
	if errors.Is(err, mongo.ErrNoDocuments) {
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		h.AuditLog.LoginFailedUserNotFound(ctx, r, email)
		return nil, errBadCredentials
	}
	if err != nil {
		return nil, err
	}

	if !authutil.CheckPassword(password, u.PasswordHash) {
		h.AuditLog.LoginFailedWrongPassword(ctx, r, u.ID)
		return nil, errBadCredentials
	}

	if d, blocked := bucketDenials[lifecycle.ClassifyUser(*u)]; blocked {
		h.AuditLog.LoginFailedNotAllowed(ctx, r, u.ID, d.Code)
		return nil, d
	}
	if !u.Active {
		h.AuditLog.LoginFailedNotAllowed(ctx, r, u.ID, errInactive.Code)
		return nil, errInactive
	}
	return u, nil
}

// establish starts the session and records the login. Only the session
// write can fail the sign-in; bookkeeping failures are logged.
func (h *Handler) establish(w http.ResponseWriter, r *http.Request, u *models.User) error {
	if err := h.SessionMgr.SignIn(w, r, u.ID.Hex()); err != nil {
		return err
	}
	h.Limiter.ResetEmail(u.Email)

	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), timeouts.Short())
	defer cancel()

	if err := h.Users.TouchLastLogin(ctx, u.ID, h.Clock.Now()); err != nil {
		h.Log.Warn("update last_login failed", zap.String("user_id", u.ID.Hex()), zap.Error(err))
	}
	if err := h.Logins.CreateFrom(ctx, r, u.ID); err != nil {
		h.Log.Warn("record login failed", zap.String("user_id", u.ID.Hex()), zap.Error(err))
	}
	h.AuditLog.LoginSuccess(ctx, r, u.ID, u.Email)
	return nil
}
