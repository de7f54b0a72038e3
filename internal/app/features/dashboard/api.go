package dashboard

import (
	"context"
	"net/http"

	"github.com/dalemusser/councilhub/internal/app/system/authz"
	"github.com/dalemusser/councilhub/internal/app/system/jsonresp"
)

// Summary handles GET /api/admin/dashboard.
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), dashboardTimeout)
	defer cancel()

	s, err := h.summary(ctx, authz.IsAdmin(r))
	if err != nil {
		jsonresp.FromError(w, r, h.Log, err)
		return
	}
	jsonresp.OK(w, s)
}
