package dashboard

import (
	"github.com/dalemusser/councilhub/internal/app/system/auth"
	"github.com/dalemusser/councilhub/internal/app/system/authz"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the landing page at /dashboard.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.Get("/", h.ServeDashboard)
	return r
}

// APIRoutes mounts at /api/admin/dashboard.
func APIRoutes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.Use(sm.RequireRole(authz.EditorRoles...))
	r.Get("/", h.Summary)
	return r
}
