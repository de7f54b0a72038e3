package directory

import (
	"net/http"

	"github.com/dalemusser/councilhub/internal/app/system/apperr"
	"github.com/dalemusser/councilhub/internal/app/system/csvutil"
	"github.com/dalemusser/councilhub/internal/app/system/viewdata"
	"github.com/dalemusser/councilhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
)

type importPage struct {
	viewdata.BaseVM
	Error   string
	Result  *csvutil.ImportResult
	Columns []string
	Types   []string
}

var importColumns = []string{
	"contact_name", "organization", "title", "email", "phone", "address",
	"city", "state", "zip", "website", "notes", "contact_type",
}

func (h *Handler) importPage(r *http.Request) importPage {
	return importPage{
		BaseVM:  viewdata.NewBaseVM(r, h.Site, "Import directory", "/dashboard"),
		Columns: importColumns,
		Types:   models.ContactTypes,
	}
}

// ServeImport handles GET /admin/directory/import.
func (h *Handler) ServeImport(w http.ResponseWriter, r *http.Request) {
	templates.Render(w, r, "directory_import", h.importPage(r))
}

// HandleImport handles POST /admin/directory/import and renders the result
// on the same page.
func (h *Handler) HandleImport(w http.ResponseWriter, r *http.Request) {
	res, err := h.runImport(w, r)
	data := h.importPage(r)
	if err != nil {
		ae, ok := apperr.As(err)
		if !ok || ae.Status >= http.StatusInternalServerError {
			h.ErrLog.LogServerError(w, r, "contact import failed", err, "The import could not be completed.", "/admin/directory/import")
			return
		}
		data.Error = ae.Message
		w.WriteHeader(http.StatusBadRequest)
		templates.Render(w, r, "directory_import", data)
		return
	}
	data.Result = &res
	templates.Render(w, r, "directory_import", data)
}
