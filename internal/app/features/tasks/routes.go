package tasks

import (
	"github.com/dalemusser/councilhub/internal/app/system/auth"
	"github.com/dalemusser/councilhub/internal/app/system/authz"
	"github.com/go-chi/chi/v5"
)

// AddEventRoutes adds the task routes nested under an event to the events
// admin router, which already applies the editor guard.
func AddEventRoutes(r chi.Router, h *Handler) {
	r.Get("/{id}/tasks", h.List)
	r.Post("/{id}/tasks", h.Create)
}

// Routes mounts at /api/admin/tasks.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.Use(sm.RequireRole(authz.EditorRoles...))

	r.Patch("/{id}", h.Update)
	r.Post("/{id}/toggle", h.Toggle)
	r.Delete("/{id}", h.Delete)
	return r
}
