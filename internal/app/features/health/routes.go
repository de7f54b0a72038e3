package health

import "github.com/go-chi/chi/v5"

// Routes serves the check at the mount point. HEAD is answered too, for
// probes that skip the body.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.Serve)
	r.Head("/", h.Serve)
	return r
}
