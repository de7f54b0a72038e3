package login

import (
	"github.com/dalemusser/councilhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes serves the HTML sign-in form; mount at /login.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeLogin)
	r.Post("/", h.HandleLoginPost)
	return r
}

// APIRoutes serves the session endpoints; mount at /api/auth.
func APIRoutes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Post("/login", h.APILogin)
	r.Post("/logout", h.APILogout)
	r.With(sm.RequireSignedIn).Get("/me", h.APIMe)
	return r
}
