package directory

import (
	"github.com/dalemusser/councilhub/internal/app/system/auth"
	"github.com/dalemusser/councilhub/internal/app/system/authz"
	"github.com/go-chi/chi/v5"
)

// APIRoutes mounts at /api/admin/directory.
func APIRoutes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.Use(sm.RequireRole(authz.EditorRoles...))

	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Post("/import", h.Import)
	r.Get("/{id}", h.Get)
	r.Patch("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
	return r
}

// Routes mounts the HTML pages at /admin/directory.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.Use(sm.RequireRole(authz.EditorRoles...))

	r.Get("/import", h.ServeImport)
	r.Post("/import", h.HandleImport)
	return r
}
