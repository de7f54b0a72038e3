// Package events serves the public event listing and calendar, and the
// editor endpoints that maintain them.
package events

import (
	"context"
	"time"

	uierrors "github.com/dalemusser/councilhub/internal/app/features/errors"
	eventstore "github.com/dalemusser/councilhub/internal/app/store/events"
	settingsstore "github.com/dalemusser/councilhub/internal/app/store/settings"
	"github.com/dalemusser/councilhub/internal/app/system/auditlog"
	"github.com/dalemusser/councilhub/internal/app/system/auth"
	"github.com/dalemusser/councilhub/internal/app/system/clock"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	Events     *eventstore.Store
	Site       *settingsstore.Store
	SessionMgr *auth.SessionManager
	ErrLog     *uierrors.ErrorLogger
	AuditLog   *auditlog.Logger
	Clock      clock.Clock
	Log        *zap.Logger
}

func NewHandler(db *mongo.Database, sm *auth.SessionManager, errLog *uierrors.ErrorLogger, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	site := settingsstore.New(db, logger)
	return &Handler{
		Events:     eventstore.New(db),
		Site:       site,
		SessionMgr: sm,
		ErrLog:     errLog.WithSite(site),
		AuditLog:   audit,
		Clock:      clock.System{},
		Log:        logger,
	}
}

// location is the council's configured timezone.
func (h *Handler) location(ctx context.Context) *time.Location {
	return settingsstore.Location(h.Site.Get(ctx))
}
