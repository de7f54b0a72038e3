package integrations

import (
	"github.com/dalemusser/councilhub/internal/app/system/auth"
	"github.com/dalemusser/councilhub/internal/app/system/authz"
	"github.com/go-chi/chi/v5"
)

// APIRoutes mounts at /api/admin/integrations.
func APIRoutes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.Use(sm.RequireRole(authz.AdminRoles...))

	r.Get("/", h.List)
	r.Get("/{provider}", h.Get)
	r.Post("/{provider}", h.Configure)
	r.Delete("/{provider}", h.Delete)
	r.Post("/{provider}/test", h.Test)
	return r
}

// Routes mounts the HTML pages at /admin/integrations. The Gmail paths must
// match integrations.GmailConnectPath and GmailCallbackPath.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.Use(sm.RequireRole(authz.AdminRoles...))

	r.Get("/", h.ServeIndex)
	r.Get("/gmail/connect", h.Connect)
	r.Get("/gmail/callback", h.Callback)
	r.Post("/{provider}", h.HandleConfigure)
	r.Post("/{provider}/disconnect", h.HandleDisconnect)
	r.Post("/{provider}/test", h.HandleTest)
	return r
}
