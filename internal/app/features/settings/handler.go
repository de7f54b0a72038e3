// Package settings serves the organization settings to admins and the
// public subset to everyone.
package settings

import (
	"context"

	uierrors "github.com/dalemusser/councilhub/internal/app/features/errors"
	settingsstore "github.com/dalemusser/councilhub/internal/app/store/settings"
	"github.com/dalemusser/councilhub/internal/app/system/auditlog"
	"github.com/dalemusser/councilhub/internal/app/system/auth"
	"github.com/dalemusser/councilhub/internal/app/system/clock"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// SiteKeyer returns the public reCAPTCHA key, or "" when none is stored.
type SiteKeyer interface {
	SiteKey(ctx context.Context) string
}

// Handler owns the settings endpoints.
type Handler struct {
	Site       *settingsstore.Store
	Captcha    SiteKeyer // may be nil
	SessionMgr *auth.SessionManager
	ErrLog     *uierrors.ErrorLogger
	AuditLog   *auditlog.Logger
	Clock      clock.Clock
	Log        *zap.Logger
}

func NewHandler(db *mongo.Database, captcha SiteKeyer, sm *auth.SessionManager, errLog *uierrors.ErrorLogger, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	site := settingsstore.New(db, logger)
	return &Handler{
		Site:       site,
		Captcha:    captcha,
		SessionMgr: sm,
		ErrLog:     errLog.WithSite(site),
		AuditLog:   audit,
		Clock:      clock.System{},
		Log:        logger,
	}
}
