// Package dashboard serves the signed-in landing page and the admin
// summary API.
package dashboard

import (
	"context"
	"time"

	uierrors "github.com/dalemusser/councilhub/internal/app/features/errors"
	eventstore "github.com/dalemusser/councilhub/internal/app/store/events"
	metricsstore "github.com/dalemusser/councilhub/internal/app/store/metrics"
	settingsstore "github.com/dalemusser/councilhub/internal/app/store/settings"
	"github.com/dalemusser/councilhub/internal/app/system/auth"
	"github.com/dalemusser/councilhub/internal/app/system/clock"
	"github.com/dalemusser/councilhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const (
	dashboardTimeout = 5 * time.Second
	recentLoginLimit = 10
	upcomingLimit    = 5
)

type Handler struct {
	DB         *mongo.Database
	Events     *eventstore.Store
	Site       *settingsstore.Store
	SessionMgr *auth.SessionManager
	ErrLog     *uierrors.ErrorLogger
	Clock      clock.Clock
	Log        *zap.Logger
}

func NewHandler(db *mongo.Database, sm *auth.SessionManager, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	site := settingsstore.New(db, logger)
	return &Handler{
		DB:         db,
		Events:     eventstore.New(db),
		Site:       site,
		SessionMgr: sm,
		ErrLog:     errLog.WithSite(site),
		Clock:      clock.System{},
		Log:        logger,
	}
}

// summary is what editors and admins see. RecentLogins is filled for
// admins only.
type summary struct {
	Counts       metricsstore.Counts        `json:"counts"`
	Upcoming     []models.Event             `json:"upcoming"`
	RecentLogins []metricsstore.RecentLogin `json:"recent_logins,omitempty"`
}

func (h *Handler) upcoming(ctx context.Context) ([]models.Event, error) {
	now := h.Clock.Now()
	evs, err := h.Events.List(ctx, eventstore.ListFilter{
		From:   &now,
		Status: models.EventPublished,
		Limit:  upcomingLimit,
	})
	if evs == nil {
		evs = []models.Event{}
	}
	return evs, err
}

func (h *Handler) summary(ctx context.Context, withLogins bool) (summary, error) {
	s := summary{Counts: metricsstore.FetchDashboardCounts(ctx, h.DB, h.Clock.Now())}

	var err error
	if s.Upcoming, err = h.upcoming(ctx); err != nil {
		return s, err
	}
	if withLogins {
		if s.RecentLogins, err = metricsstore.RecentLogins(ctx, h.DB, recentLoginLimit); err != nil {
			return s, err
		}
	}
	return s, nil
}
