package users

import (
	"github.com/dalemusser/councilhub/internal/app/system/auth"
	"github.com/dalemusser/councilhub/internal/app/system/authz"
	"github.com/go-chi/chi/v5"
)

// APIRoutes mounts at /api/admin/users.
func APIRoutes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Use(sm.RequireRole(authz.AdminRoles...))

		pr.Get("/", h.List)
		pr.Post("/migrate-legacy", h.MigrateLegacy)
		pr.Patch("/{id}", h.Patch)
		pr.Delete("/{id}", h.Delete)
		pr.Post("/{id}/{action}", h.Act)
	})
	return r
}

// Routes mounts the HTML console at /admin/users.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Use(sm.RequireRole(authz.AdminRoles...))

		pr.Get("/", h.ServeList)
		pr.Post("/migrate-legacy", h.HandleMigrate)
		pr.Post("/{id}/{action}", h.HandleAction)
	})
	return r
}
