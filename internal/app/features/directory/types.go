package directory

import (
	"strings"

	contactstore "github.com/dalemusser/councilhub/internal/app/store/contacts"
	"github.com/dalemusser/councilhub/internal/app/system/apperr"
	"github.com/dalemusser/councilhub/internal/app/system/csvutil"
	"github.com/dalemusser/councilhub/internal/app/system/inputval"
	"github.com/dalemusser/councilhub/internal/domain/models"
)

type contactRequest struct {
	ContactName  string `json:"contact_name" validate:"required,max=200" label:"Contact name"`
	Organization string `json:"organization" validate:"max=200" label:"Organization"`
	Title        string `json:"title" validate:"max=120" label:"Title"`
	Email        string `json:"email" validate:"omitempty,email" label:"Email"`
	Phone        string `json:"phone" validate:"max=40" label:"Phone"`
	Address      string `json:"address" validate:"max=200" label:"Address"`
	City         string `json:"city" validate:"max=100" label:"City"`
	State        string `json:"state" validate:"max=60" label:"State"`
	Zip          string `json:"zip" validate:"max=20" label:"Zip"`
	Website      string `json:"website" validate:"omitempty,httpurl" label:"Website"`
	Notes        string `json:"notes" validate:"max=4000" label:"Notes"`
	ContactType  string `json:"contact_type" validate:"omitempty,oneof=contact organization vendor sponsor partner" label:"Type"`
}

func (c *contactRequest) normalize() {
	c.ContactName = strings.TrimSpace(c.ContactName)
	c.Email = strings.TrimSpace(c.Email)
	c.Website = csvutil.NormalizeWebsite(c.Website)
	c.ContactType = strings.ToLower(strings.TrimSpace(c.ContactType))
}

func (c contactRequest) contact() models.Contact {
	return models.Contact{
		ContactName:  c.ContactName,
		Organization: strings.TrimSpace(c.Organization),
		Title:        strings.TrimSpace(c.Title),
		Email:        c.Email,
		Phone:        strings.TrimSpace(c.Phone),
		Address:      strings.TrimSpace(c.Address),
		City:         strings.TrimSpace(c.City),
		State:        strings.TrimSpace(c.State),
		Zip:          strings.TrimSpace(c.Zip),
		Website:      c.Website,
		Notes:        strings.TrimSpace(c.Notes),
		ContactType:  c.ContactType,
	}
}

// checkPatch validates the fields present in p and normalizes the website.
func checkPatch(p *contactstore.Patch) error {
	fields := map[string]string{}
	if p.ContactName != nil && strings.TrimSpace(*p.ContactName) == "" {
		fields["contact_name"] = "Contact name is required."
	}
	if p.Email != nil {
		if e := strings.TrimSpace(*p.Email); e != "" && !inputval.IsValidEmail(e) {
			fields["email"] = "A valid email address is required."
		}
	}
	if p.Website != nil {
		w := csvutil.NormalizeWebsite(*p.Website)
		if w != "" && !inputval.IsValidHTTPURL(w) {
			fields["website"] = "Website must be a valid http or https URL."
		}
		p.Website = &w
	}
	if p.ContactType != nil {
		t := strings.ToLower(strings.TrimSpace(*p.ContactType))
		if !models.ValidContactType(t) {
			fields["contact_type"] = "Type must be one of: " + strings.Join(models.ContactTypes, ", ") + "."
		}
	}
	if len(fields) > 0 {
		return apperr.Validation("Please fix the highlighted fields.", fields)
	}
	return nil
}
