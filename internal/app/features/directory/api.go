package directory

import (
	"context"
	"errors"
	"net/http"
	"strings"

	contactstore "github.com/dalemusser/councilhub/internal/app/store/contacts"
	"github.com/dalemusser/councilhub/internal/app/system/apperr"
	"github.com/dalemusser/councilhub/internal/app/system/authz"
	"github.com/dalemusser/councilhub/internal/app/system/csvutil"
	"github.com/dalemusser/councilhub/internal/app/system/inputval"
	"github.com/dalemusser/councilhub/internal/app/system/jsonresp"
	"github.com/dalemusser/councilhub/internal/app/system/paging"
	"github.com/dalemusser/councilhub/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	errBadID      = apperr.Validation("Invalid contact id.", nil)
	errNotFound   = apperr.NotFound("Contact not found.")
	errNoFile     = apperr.Validation("A CSV file is required.", map[string]string{"file": "A CSV file is required."})
	errFileTooBig = apperr.Validation("The CSV file is too large. Maximum size is 5 MB.", map[string]string{"file": "Maximum size is 5 MB."})
)

// List handles GET /api/admin/directory?q=&type=&after=&before=&limit=.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	page, err := h.Contacts.List(ctx, contactstore.ListFilter{
		Search: query.Get(r, "q"),
		Type:   query.Get(r, "type"),
	}, paging.FromRequest(r))
	if err != nil {
		jsonresp.FromError(w, r, h.Log, err)
		return
	}
	jsonresp.OK(w, page)
}

// Get handles GET /api/admin/directory/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		jsonresp.FromError(w, r, h.Log, errBadID)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	c, err := h.Contacts.GetByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		jsonresp.FromError(w, r, h.Log, errNotFound)
		return
	}
	if err != nil {
		jsonresp.FromError(w, r, h.Log, err)
		return
	}
	jsonresp.OK(w, c)
}

// Create handles POST /api/admin/directory.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req contactRequest
	if err := jsonresp.Decode(w, r, &req); err != nil {
		jsonresp.FromError(w, r, h.Log, err)
		return
	}
	req.normalize()
	if err := inputval.Validate(req).Err(); err != nil {
		jsonresp.FromError(w, r, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	c := req.contact()
	_, _, actor, _ := authz.UserCtx(r)
	c.AddedBy = &actor
	now := h.Clock.Now()
	c.CreatedAt, c.UpdatedAt = now, now

	created, err := h.Contacts.Insert(ctx, c)
	if err != nil {
		jsonresp.FromError(w, r, h.Log, err)
		return
	}
	jsonresp.Created(w, created)
}

// Update handles PATCH /api/admin/directory/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		jsonresp.FromError(w, r, h.Log, errBadID)
		return
	}
	var p contactstore.Patch
	if err := jsonresp.Decode(w, r, &p); err != nil {
		jsonresp.FromError(w, r, h.Log, err)
		return
	}
	if err := checkPatch(&p); err != nil {
		jsonresp.FromError(w, r, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	c, err := h.Contacts.Update(ctx, id, p, h.Clock.Now())
	if errors.Is(err, mongo.ErrNoDocuments) {
		jsonresp.FromError(w, r, h.Log, errNotFound)
		return
	}
	if err != nil {
		jsonresp.FromError(w, r, h.Log, err)
		return
	}
	jsonresp.OK(w, c)
}

// Delete handles DELETE /api/admin/directory/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		jsonresp.FromError(w, r, h.Log, errBadID)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	deleted, err := h.Contacts.Delete(ctx, id)
	if err != nil {
		jsonresp.FromError(w, r, h.Log, err)
		return
	}
	if !deleted {
		jsonresp.FromError(w, r, h.Log, errNotFound)
		return
	}
	jsonresp.OK(w, map[string]bool{"deleted": true})
}

// Import handles POST /api/admin/directory/import with a multipart "file".
// Row failures are reported in the result; only file-level problems fail
// the request.
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	res, err := h.runImport(w, r)
	if err != nil {
		jsonresp.FromError(w, r, h.Log, err)
		return
	}
	jsonresp.OK(w, res)
}

// runImport reads the uploaded file and imports it on behalf of the caller.
func (h *Handler) runImport(w http.ResponseWriter, r *http.Request) (csvutil.ImportResult, error) {
	r.Body = http.MaxBytesReader(w, r.Body, csvutil.MaxUploadSize)

	file, _, err := r.FormFile("file")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) || strings.Contains(err.Error(), "request body too large") {
			return csvutil.ImportResult{}, errFileTooBig
		}
		return csvutil.ImportResult{}, errNoFile
	}
	defer file.Close()

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Batch(), h.Log, "contact import")
	defer cancel()

	_, _, actor, _ := authz.UserCtx(r)
	res, err := h.Importer.Import(ctx, file, actor)
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		res.Errors = append(res.Errors, "import stopped: timed out")
	case errors.Is(err, context.Canceled):
		res.Errors = append(res.Errors, "import stopped: cancelled")
	case err != nil:
		return res, err
	}

	// Rows saved before a timeout are still audited.
	auditCtx, cancelAudit := context.WithTimeout(context.WithoutCancel(r.Context()), timeouts.Short())
	defer cancelAudit()
	h.AuditLog.ContactsImported(auditCtx, r, actor, res.ImportedCount, res.TotalRows)
	return res, nil
}
