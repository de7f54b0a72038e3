package events

import (
	"github.com/dalemusser/councilhub/internal/app/system/auth"
	"github.com/dalemusser/councilhub/internal/app/system/authz"
	"github.com/go-chi/chi/v5"
)

// PublicRoutes mounts at /api/events.
func PublicRoutes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.PublicList)
	r.Get("/calendar", h.Calendar)
	r.Get("/{slug}", h.PublicGet)
	return r
}

// AdminRoutes mounts at /api/admin/events. Task routes nested under an
// event are added by the tasks feature.
func AdminRoutes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.Use(sm.RequireRole(authz.EditorRoles...))

	r.Get("/", h.AdminList)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Patch("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
	return r
}

// Routes mounts the HTML pages at /admin/events.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.Use(sm.RequireRole(authz.EditorRoles...))

	r.Get("/calendar", h.ServeCalendar)
	return r
}
