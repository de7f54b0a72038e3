// internal/domain/models/sitesettings.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Setting is one row of the flat key/value settings collection.
type Setting struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty" json:"-"`
	Key       string              `bson:"key" json:"key"`
	Value     string              `bson:"value" json:"value"`
	UpdatedAt time.Time           `bson:"updated_at" json:"updated_at"`
	UpdatedBy *primitive.ObjectID `bson:"updated_by,omitempty" json:"updated_by,omitempty"`
}

// SiteSettings is the typed view of the settings collection. Values are
// decoded once by the settings store; callers never parse raw strings.
type SiteSettings struct {
	OrganizationName string   `json:"organization_name"`
	ContactEmail     string   `json:"contact_email"`
	ContactPhone     string   `json:"contact_phone"`
	Address          string   `json:"address"`
	Timezone         string   `json:"timezone"`
	RegistrationOpen bool     `json:"registration_open"`
	RecaptchaEnabled bool     `json:"recaptcha_enabled"`
	EventCategories  []string `json:"event_categories"`
	CalendarCellMax  int      `json:"calendar_cell_max"`
	FooterHTML       string   `json:"footer_html"`
}

// DefaultSiteSettings returns the values used for keys that are missing or invalid.
func DefaultSiteSettings() SiteSettings {
	return SiteSettings{
		OrganizationName: DefaultSiteName,
		Timezone:         "America/New_York",
		RegistrationOpen: true,
		EventCategories:  []string{"Competition", "Training", "Meeting", "Social"},
		CalendarCellMax:  3,
	}
}

// DefaultSiteName is the organization name used when none has been saved.
const DefaultSiteName = "Regional Sports Council"
