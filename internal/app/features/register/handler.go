// Package register handles self-service sign-up and the email
// verification link.
package register

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	uierrors "github.com/dalemusser/councilhub/internal/app/features/errors"
	settingsstore "github.com/dalemusser/councilhub/internal/app/store/settings"
	userstore "github.com/dalemusser/councilhub/internal/app/store/users"
	"github.com/dalemusser/councilhub/internal/app/system/apperr"
	"github.com/dalemusser/councilhub/internal/app/system/auditlog"
	"github.com/dalemusser/councilhub/internal/app/system/auth"
	"github.com/dalemusser/councilhub/internal/app/system/authutil"
	"github.com/dalemusser/councilhub/internal/app/system/clock"
	"github.com/dalemusser/councilhub/internal/app/system/inputval"
	"github.com/dalemusser/councilhub/internal/app/system/integrations"
	"github.com/dalemusser/councilhub/internal/app/system/jsonresp"
	"github.com/dalemusser/councilhub/internal/app/system/lifecycle"
	"github.com/dalemusser/councilhub/internal/app/system/notify"
	"github.com/dalemusser/councilhub/internal/app/system/ratelimit"
	"github.com/dalemusser/councilhub/internal/app/system/timeouts"
	"github.com/dalemusser/councilhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// CaptchaVerifier checks a reCAPTCHA response token.
type CaptchaVerifier interface {
	Verify(ctx context.Context, token, remoteIP string) (bool, error)
}

// VerificationSender emails the verification link.
type VerificationSender interface {
	SendVerification(ctx context.Context, u models.User, token string) error
}

type Handler struct {
	Users      *userstore.Store
	Site       *settingsstore.Store
	Captcha    CaptchaVerifier
	Verifier   VerificationSender
	SessionMgr *auth.SessionManager
	ErrLog     *uierrors.ErrorLogger
	AuditLog   *auditlog.Logger
	Limiter    *ratelimit.Limiter
	Clock      clock.Clock
	Log        *zap.Logger
}

func NewHandler(db *mongo.Database, captcha CaptchaVerifier, verifier VerificationSender, sm *auth.SessionManager,
	errLog *uierrors.ErrorLogger, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	site := settingsstore.New(db, logger)
	return &Handler{
		Users:      userstore.New(db),
		Site:       site,
		Captcha:    captcha,
		Verifier:   verifier,
		SessionMgr: sm,
		ErrLog:     errLog.WithSite(site),
		AuditLog:   audit,
		Limiter:    ratelimit.New(10, time.Hour),
		Clock:      clock.System{},
		Log:        logger,
	}
}

type registerRequest struct {
	Name           string `json:"name" validate:"required,max=200" label:"Name"`
	Email          string `json:"email" validate:"required,email" label:"Email"`
	Phone          string `json:"phone" validate:"max=40" label:"Phone"`
	Password       string `json:"password" validate:"required" label:"Password"`
	RecaptchaToken string `json:"recaptcha_token"`
}

type registerResponse struct {
	ID               string           `json:"id"`
	Email            string           `json:"email"`
	Bucket           lifecycle.Bucket `json:"bucket"`
	VerificationSent bool             `json:"verification_sent"`
}

var errClosed = apperr.Permission("Registration is currently closed.")

// Register handles POST /api/auth/register.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := jsonresp.Decode(w, r, &req); err != nil {
		jsonresp.FromError(w, r, h.Log, err)
		return
	}
	if !h.Limiter.Allow(ratelimit.ClientIP(r)) {
		jsonresp.Fail(w, r, http.StatusTooManyRequests, "RATE_LIMITED", "Too many sign-ups from this address. Please try again later.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	c := &notify.Collector{}
	res, err := h.register(ctx, r, req, c)
	if err != nil {
		jsonresp.FromError(w, r, h.Log, err)
		return
	}
	jsonresp.Write(w, http.StatusCreated, jsonresp.Envelope{Success: true, Data: res, Messages: c.Messages()})
}

func (h *Handler) register(ctx context.Context, r *http.Request, req registerRequest, n notify.Notifier) (registerResponse, error) {
	site := h.Site.Get(ctx)
	if !site.RegistrationOpen {
		return registerResponse{}, errClosed
	}
	if err := h.checkCaptcha(ctx, r, site, req.RecaptchaToken); err != nil {
		return registerResponse{}, err
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if err := inputval.Validate(req).Err(); err != nil {
		return registerResponse{}, err
	}
	if err := authutil.ValidatePassword(req.Password); err != nil {
		return registerResponse{}, apperr.Validation(err.Error(), map[string]string{"password": err.Error()})
	}

	hash, err := authutil.HashPassword(req.Password)
	if err != nil {
		return registerResponse{}, err
	}
	token := uuid.NewString()
	u, err := h.Users.Create(ctx, models.User{
		Name:                   req.Name,
		Email:                  req.Email,
		Phone:                  strings.TrimSpace(req.Phone),
		PasswordHash:           hash,
		Role:                   models.RoleMember,
		MemberStatus:           models.StatusVisitor,
		Active:                 true,
		EmailVerificationToken: &token,
		CreatedAt:              h.Clock.Now(),
	})
	if errors.Is(err, userstore.ErrDuplicateEmail) {
		return registerResponse{}, apperr.Validation("An account with this email already exists.",
			map[string]string{"email": "An account with this email already exists."})
	}
	if err != nil {
		return registerResponse{}, err
	}

	// The account stays even when the email fails; an admin can resend.
	sent := true
	if err := h.Verifier.SendVerification(ctx, u, token); err != nil {
		sent = false
		h.Log.Warn("verification email failed", zap.String("user_id", u.ID.Hex()), zap.Error(err))
		n.Error("Your account was created, but we couldn't send the verification email. Please contact an administrator.")
	} else {
		n.Success("Check your inbox for a link to verify your email address.")
	}
	h.AuditLog.Registered(ctx, r, u.ID, u.Email, sent)

	return registerResponse{
		ID:               u.ID.Hex(),
		Email:            u.Email,
		Bucket:           lifecycle.ClassifyUser(u),
		VerificationSent: sent,
	}, nil
}

// checkCaptcha enforces reCAPTCHA when the setting is on and a secret is
// stored. An enabled setting without credentials lets sign-ups through.
func (h *Handler) checkCaptcha(ctx context.Context, r *http.Request, site models.SiteSettings, token string) error {
	if !site.RecaptchaEnabled || h.Captcha == nil {
		return nil
	}
	ok, err := h.Captcha.Verify(ctx, token, ratelimit.ClientIP(r))
	switch {
	case errors.Is(err, integrations.ErrNotConfigured):
		h.Log.Warn("recaptcha enabled in settings but not configured")
		return nil
	case err != nil:
		return apperr.Collaborator("We couldn't check the CAPTCHA. Please try again.", err)
	case !ok:
		return apperr.Validation("Please complete the CAPTCHA.", map[string]string{"recaptcha_token": "Please complete the CAPTCHA."})
	}
	return nil
}

// VerifyEmail handles GET /verify-email?token=.
func (h *Handler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	u, err := h.verify(r)
	if err != nil {
		if _, ok := apperr.As(err); ok {
			f := h.SessionMgr.Flasher()
			f.Error("This verification link is invalid or has already been used.")
			if err := f.Save(w, r); err != nil {
				h.Log.Warn("save flash failed", zap.Error(err))
			}
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		h.ErrLog.LogServerError(w, r, "verify email failed", err, "A server error occurred.", "/login")
		return
	}
	h.Log.Info("email verified", zap.String("user_id", u.ID.Hex()))
	http.Redirect(w, r, "/login?verified=1", http.StatusSeeOther)
}

// APIVerifyEmail handles GET /api/auth/verify-email?token= for the SPA.
func (h *Handler) APIVerifyEmail(w http.ResponseWriter, r *http.Request) {
	u, err := h.verify(r)
	if err != nil {
		jsonresp.FromError(w, r, h.Log, err)
		return
	}
	jsonresp.OK(w, map[string]any{"verified": true, "bucket": lifecycle.ClassifyUser(*u)})
}

func (h *Handler) verify(r *http.Request) (*models.User, error) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.VerifyByToken(ctx, query.Get(r, "token"), h.Clock.Now())
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperr.NotFound("This verification link is invalid or has already been used.")
	}
	if err != nil {
		return nil, err
	}
	h.AuditLog.EmailVerified(ctx, r, u.ID)
	return u, nil
}
