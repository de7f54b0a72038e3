package settings

import (
	"github.com/dalemusser/councilhub/internal/app/system/auth"
	"github.com/dalemusser/councilhub/internal/app/system/authz"
	"github.com/go-chi/chi/v5"
)

// APIRoutes mounts at /api/admin/settings.
func APIRoutes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.Use(sm.RequireRole(authz.AdminRoles...))

	r.Get("/", h.Get)
	r.Put("/", h.Put)
	return r
}

// PublicRoutes mounts at /api/settings.
func PublicRoutes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/public", h.Public)
	return r
}

// Routes mounts the HTML form at /admin/settings.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.Use(sm.RequireRole(authz.AdminRoles...))

	r.Get("/", h.ServeSettings)
	r.Post("/", h.HandleSettings)
	return r
}
