// internal/app/system/viewdata/viewdata.go
package viewdata

import (
	"context"
	"html/template"
	"net/http"

	"github.com/dalemusser/councilhub/internal/app/system/authz"
	"github.com/dalemusser/councilhub/internal/app/system/notify"
	"github.com/dalemusser/councilhub/internal/app/system/timeouts"
	"github.com/dalemusser/councilhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/httpnav"
	"github.com/gorilla/csrf"
)

// SiteSource supplies the typed organization settings.
type SiteSource interface {
	Get(ctx context.Context) models.SiteSettings
}

// BaseVM contains common fields for all admin pages.
// Embed this struct in your feature-specific view models.
//
// Usage:
//
//	type myPageData struct {
//	    viewdata.BaseVM
//	    // page-specific fields...
//	}
//
//	data := myPageData{
//	    BaseVM: viewdata.NewBaseVM(r, h.Site, "Page Title", "/default-back"),
//	}
type BaseVM struct {
	// Organization settings
	SiteName     string
	ContactEmail string
	FooterHTML   template.HTML

	// User context (from auth middleware)
	IsLoggedIn bool
	Role       string
	UserName   string
	IsAdmin    bool
	IsEditor   bool

	// Page context
	Title       string
	BackURL     string
	CurrentPath string

	// CSRF protection
	CSRFToken string
	CSRFField template.HTML

	// One-shot messages from the previous request
	Flashes []notify.Message
}

// NewBaseVM creates a fully populated BaseVM for a page. site may be nil,
// in which case defaults are shown.
func NewBaseVM(r *http.Request, site SiteSource, title, backDefault string) BaseVM {
	role, name, _, signedIn := authz.UserCtx(r)

	vm := BaseVM{
		SiteName:    models.DefaultSiteName,
		IsLoggedIn:  signedIn,
		Role:        role,
		UserName:    name,
		IsAdmin:     authz.IsAdmin(r),
		IsEditor:    authz.IsEditor(r),
		Title:       title,
		BackURL:     httpnav.ResolveBackURL(r, backDefault),
		CurrentPath: httpnav.CurrentPath(r),
		CSRFToken:   csrf.Token(r),
		CSRFField:   csrf.TemplateField(r),
	}

	if site != nil {
		ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
		defer cancel()
		s := site.Get(ctx)
		vm.SiteName = s.OrganizationName
		vm.ContactEmail = s.ContactEmail
		// Footer HTML is sanitized when settings are saved.
		vm.FooterHTML = template.HTML(s.FooterHTML)
	}
	return vm
}

// WithFlashes returns vm carrying msgs.
func (vm BaseVM) WithFlashes(msgs []notify.Message) BaseVM {
	vm.Flashes = msgs
	return vm
}
