package home

import "github.com/go-chi/chi/v5"

// AddRoutes registers the landing page on r. It is added directly rather
// than mounted so unknown paths still reach the root NotFound handler.
func AddRoutes(r chi.Router, h *Handler) {
	r.Get("/", h.ServeRoot)
}
