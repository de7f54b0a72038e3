package home

import (
	"context"
	"net/http"

	eventstore "github.com/dalemusser/councilhub/internal/app/store/events"
	settingsstore "github.com/dalemusser/councilhub/internal/app/store/settings"
	"github.com/dalemusser/councilhub/internal/app/system/authz"
	"github.com/dalemusser/councilhub/internal/app/system/clock"
	"github.com/dalemusser/councilhub/internal/app/system/timeouts"
	"github.com/dalemusser/councilhub/internal/app/system/viewdata"
	"github.com/dalemusser/councilhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const upcomingOnHome = 6

// Handler holds dependencies needed to serve the home page.
type Handler struct {
	Events *eventstore.Store
	Site   *settingsstore.Store
	Clock  clock.Clock
	Log    *zap.Logger
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		Events: eventstore.New(db),
		Site:   settingsstore.New(db, logger),
		Clock:  clock.System{},
		Log:    logger,
	}
}

type homeData struct {
	viewdata.BaseVM
	Settings models.SiteSettings
	Upcoming []models.Event
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET / – landing                                                             |
*─────────────────────────────────────────────────────────────────────────────*/

// ServeRoot shows the public landing page. Signed-in users go straight to
// their dashboard.
func (h *Handler) ServeRoot(w http.ResponseWriter, r *http.Request) {
	if _, _, _, ok := authz.UserCtx(r); ok {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	now := h.Clock.Now()
	evs, err := h.Events.List(ctx, eventstore.ListFilter{From: &now, Status: models.EventPublished, Limit: upcomingOnHome})
	if err != nil {
		// The page still renders without events.
		h.Log.Warn("home: list upcoming events failed", zap.Error(err))
	}

	templates.Render(w, r, "home", homeData{
		BaseVM:   viewdata.NewBaseVM(r, h.Site, "Welcome", "/"),
		Settings: h.Site.Get(ctx),
		Upcoming: evs,
	})
}
