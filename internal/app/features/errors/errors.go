// Package errors renders the friendly error pages shown to browser users
// and logs the failures behind them.
package errors

import (
	"net/http"

	"github.com/dalemusser/councilhub/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/templates"
)

// pageData is the view model for error pages.
type pageData struct {
	viewdata.BaseVM
	Message string
}

// Handler serves the standalone error pages.
type Handler struct {
	Site viewdata.SiteSource
}

// NewHandler constructs an errors Handler. site may be nil.
func NewHandler(site viewdata.SiteSource) *Handler {
	return &Handler{Site: site}
}

// Forbidden renders the "access denied" page.
// GET /forbidden
func (h *Handler) Forbidden(w http.ResponseWriter, r *http.Request) {
	render(w, r, h.Site, http.StatusForbidden, "Access denied",
		"You don't have permission to view this page.", "/")
}

// Unauthorized renders the "sign in required" page.
// GET /unauthorized
func (h *Handler) Unauthorized(w http.ResponseWriter, r *http.Request) {
	render(w, r, h.Site, http.StatusUnauthorized, "Sign in required",
		"Please sign in to continue.", "/login")
}

// NotFound renders the 404 page for unmatched routes.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	render(w, r, h.Site, http.StatusNotFound, "Page not found",
		"We couldn't find that page.", "/")
}

func render(w http.ResponseWriter, r *http.Request, site viewdata.SiteSource, status int, title, msg, back string) {
	data := pageData{
		BaseVM:  viewdata.NewBaseVM(r, site, title, back),
		Message: msg,
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	templates.Render(w, r, "error_page", data)
}
