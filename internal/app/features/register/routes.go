package register

import "github.com/go-chi/chi/v5"

// AddAPIRoutes adds the sign-up endpoints to the /api/auth router the
// login feature builds, so both share one mount point.
func AddAPIRoutes(r chi.Router, h *Handler) {
	r.Post("/register", h.Register)
	r.Get("/verify-email", h.APIVerifyEmail)
}

// Routes serves the emailed link; mount at /verify-email.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.VerifyEmail)
	return r
}
