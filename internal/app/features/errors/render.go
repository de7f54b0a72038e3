package errors

import (
	"net/http"

	"github.com/dalemusser/waffle/pantry/httpnav"
)

// RenderUnauthorized shows the "sign in required" page.
// If backURL is empty, it defaults to /login.
func RenderUnauthorized(w http.ResponseWriter, r *http.Request, backURL string) {
	if backURL == "" {
		backURL = "/login"
	}
	render(w, r, nil, http.StatusUnauthorized, "Sign in required", "Please sign in to continue.", backURL)
}

// RenderForbidden shows the access error page with msg.
// If backURL is empty, a safe back URL is resolved from the request.
func RenderForbidden(w http.ResponseWriter, r *http.Request, msg, backURL string) {
	if backURL == "" {
		backURL = httpnav.ResolveBackURL(r, "/")
	}
	render(w, r, nil, http.StatusForbidden, "Access denied", msg, backURL)
}
