// Package integrations is the admin surface for third-party accounts:
// status, configure, disconnect, test and the Gmail consent round trip.
package integrations

import (
	"context"

	uierrors "github.com/dalemusser/councilhub/internal/app/features/errors"
	settingsstore "github.com/dalemusser/councilhub/internal/app/store/settings"
	"github.com/dalemusser/councilhub/internal/app/system/auditlog"
	"github.com/dalemusser/councilhub/internal/app/system/auth"
	"github.com/dalemusser/councilhub/internal/app/system/integrations"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Registry looks up providers.
type Registry interface {
	Get(name string) (integrations.Provider, error)
	Statuses(ctx context.Context) ([]integrations.Status, error)
}

// ConsentFlow is the OAuth round trip for providers connected through a
// consent screen.
type ConsentFlow interface {
	Begin(ctx context.Context, actor primitive.ObjectID, returnURL string) (string, error)
	Complete(ctx context.Context, actor primitive.ObjectID, state, code string) (string, error)
}

type Handler struct {
	Providers  Registry
	Gmail      ConsentFlow
	Site       *settingsstore.Store
	SessionMgr *auth.SessionManager
	ErrLog     *uierrors.ErrorLogger
	AuditLog   *auditlog.Logger
	Log        *zap.Logger
}

func NewHandler(db *mongo.Database, providers Registry, gmail ConsentFlow, sm *auth.SessionManager, errLog *uierrors.ErrorLogger, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	site := settingsstore.New(db, logger)
	return &Handler{
		Providers:  providers,
		Gmail:      gmail,
		Site:       site,
		SessionMgr: sm,
		ErrLog:     errLog.WithSite(site),
		AuditLog:   audit,
		Log:        logger,
	}
}
