// Package users is the admin console for account lifecycle actions:
// verification, approval, activation and legacy migration.
package users

import (
	uierrors "github.com/dalemusser/councilhub/internal/app/features/errors"
	settingsstore "github.com/dalemusser/councilhub/internal/app/store/settings"
	userstore "github.com/dalemusser/councilhub/internal/app/store/users"
	"github.com/dalemusser/councilhub/internal/app/system/auth"
	"github.com/dalemusser/councilhub/internal/app/system/lifecycle"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	Users      *userstore.Store
	Exec       *lifecycle.Executor
	Site       *settingsstore.Store
	SessionMgr *auth.SessionManager
	ErrLog     *uierrors.ErrorLogger
	Log        *zap.Logger
}

func NewHandler(db *mongo.Database, exec *lifecycle.Executor, sm *auth.SessionManager, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	site := settingsstore.New(db, logger)
	return &Handler{
		Users:      userstore.New(db),
		Exec:       exec,
		Site:       site,
		SessionMgr: sm,
		ErrLog:     errLog.WithSite(site),
		Log:        logger,
	}
}
