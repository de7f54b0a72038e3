// Package directory maintains the council contact directory and its CSV
// import.
package directory

import (
	uierrors "github.com/dalemusser/councilhub/internal/app/features/errors"
	contactstore "github.com/dalemusser/councilhub/internal/app/store/contacts"
	settingsstore "github.com/dalemusser/councilhub/internal/app/store/settings"
	"github.com/dalemusser/councilhub/internal/app/system/auditlog"
	"github.com/dalemusser/councilhub/internal/app/system/auth"
	"github.com/dalemusser/councilhub/internal/app/system/clock"
	"github.com/dalemusser/councilhub/internal/app/system/csvutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	Contacts   *contactstore.Store
	Importer   *csvutil.Importer
	Site       *settingsstore.Store
	SessionMgr *auth.SessionManager
	ErrLog     *uierrors.ErrorLogger
	AuditLog   *auditlog.Logger
	Clock      clock.Clock
	Log        *zap.Logger
}

func NewHandler(db *mongo.Database, sm *auth.SessionManager, errLog *uierrors.ErrorLogger, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	contacts := contactstore.New(db)
	site := settingsstore.New(db, logger)
	return &Handler{
		Contacts:   contacts,
		Importer:   csvutil.NewImporter(contacts, nil, logger),
		Site:       site,
		SessionMgr: sm,
		ErrLog:     errLog.WithSite(site),
		AuditLog:   audit,
		Clock:      clock.System{},
		Log:        logger,
	}
}
