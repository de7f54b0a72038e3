package settingsstore

import (
	"net/mail"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dalemusser/councilhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/councilhub/internal/domain/models"
)

// Keys in the flat settings collection.
const (
	KeyOrganizationName = "organization_name"
	KeyContactEmail     = "contact_email"
	KeyContactPhone     = "contact_phone"
	KeyAddress          = "address"
	KeyTimezone         = "timezone"
	KeyRegistrationOpen = "registration_open"
	KeyRecaptchaEnabled = "recaptcha_enabled"
	KeyEventCategories  = "event_categories"
	KeyCalendarCellMax  = "calendar_cell_max"
	KeyFooterHTML       = "footer_html"
)

// Bounds for calendar_cell_max.
const (
	minCellMax = 1
	maxCellMax = 10
)

// Problem describes a stored value that could not be decoded. The default
// was used in its place.
type Problem struct {
	Key     string `json:"key"`
	Value   string `json:"value"`
	Message string `json:"message"`
}

// Decode turns the raw key/value bag into typed settings. Missing keys take
// their defaults silently; malformed values take their defaults and are
// reported. Unknown keys are ignored.
func Decode(kv map[string]string) (models.SiteSettings, []Problem) {
	s := models.DefaultSiteSettings()
	var problems []Problem
	bad := func(key, msg string) {
		problems = append(problems, Problem{Key: key, Value: kv[key], Message: msg})
	}

	if v, ok := kv[KeyOrganizationName]; ok && strings.TrimSpace(v) != "" {
		s.OrganizationName = strings.TrimSpace(v)
	}
	if v, ok := kv[KeyContactEmail]; ok && v != "" {
		if _, err := mail.ParseAddress(v); err != nil {
			bad(KeyContactEmail, "not a valid email address")
		} else {
			s.ContactEmail = v
		}
	}
	s.ContactPhone = strings.TrimSpace(kv[KeyContactPhone])
	s.Address = strings.TrimSpace(kv[KeyAddress])

	if v, ok := kv[KeyTimezone]; ok && v != "" {
		if _, err := time.LoadLocation(v); err != nil {
			bad(KeyTimezone, "unknown time zone")
		} else {
			s.Timezone = v
		}
	}
	if v, ok := kv[KeyRegistrationOpen]; ok && v != "" {
		if b, err := strconv.ParseBool(v); err != nil {
			bad(KeyRegistrationOpen, "must be true or false")
		} else {
			s.RegistrationOpen = b
		}
	}
	if v, ok := kv[KeyRecaptchaEnabled]; ok && v != "" {
		if b, err := strconv.ParseBool(v); err != nil {
			bad(KeyRecaptchaEnabled, "must be true or false")
		} else {
			s.RecaptchaEnabled = b
		}
	}
	if v, ok := kv[KeyEventCategories]; ok {
		if cats := splitCategories(v); len(cats) > 0 {
			s.EventCategories = cats
		}
	}
	if v, ok := kv[KeyCalendarCellMax]; ok && v != "" {
		n, err := strconv.Atoi(v)
		switch {
		case err != nil:
			bad(KeyCalendarCellMax, "must be a whole number")
		case n < minCellMax || n > maxCellMax:
			bad(KeyCalendarCellMax, "must be between 1 and 10")
		default:
			s.CalendarCellMax = n
		}
	}
	s.FooterHTML = kv[KeyFooterHTML]

	sort.Slice(problems, func(i, j int) bool { return problems[i].Key < problems[j].Key })
	return s, problems
}

// Encode renders typed settings back into the flat bag.
func Encode(s models.SiteSettings) map[string]string {
	return map[string]string{
		KeyOrganizationName: s.OrganizationName,
		KeyContactEmail:     s.ContactEmail,
		KeyContactPhone:     s.ContactPhone,
		KeyAddress:          s.Address,
		KeyTimezone:         s.Timezone,
		KeyRegistrationOpen: strconv.FormatBool(s.RegistrationOpen),
		KeyRecaptchaEnabled: strconv.FormatBool(s.RecaptchaEnabled),
		KeyEventCategories:  strings.Join(s.EventCategories, ","),
		KeyCalendarCellMax:  strconv.Itoa(s.CalendarCellMax),
		KeyFooterHTML:       s.FooterHTML,
	}
}

// Clean trims text fields, dedupes categories and sanitizes the footer.
func Clean(s models.SiteSettings) models.SiteSettings {
	s.OrganizationName = strings.TrimSpace(s.OrganizationName)
	s.ContactEmail = strings.ToLower(strings.TrimSpace(s.ContactEmail))
	s.ContactPhone = strings.TrimSpace(s.ContactPhone)
	s.Address = strings.TrimSpace(s.Address)
	s.Timezone = strings.TrimSpace(s.Timezone)
	s.EventCategories = splitCategories(strings.Join(s.EventCategories, ","))
	s.FooterHTML = htmlsanitize.Sanitize(s.FooterHTML)
	return s
}

// Validate reports field problems in cleaned settings, keyed by JSON name.
func Validate(s models.SiteSettings) map[string]string {
	fields := map[string]string{}
	if s.OrganizationName == "" {
		fields[KeyOrganizationName] = "Organization name is required."
	}
	if s.ContactEmail != "" {
		if _, err := mail.ParseAddress(s.ContactEmail); err != nil {
			fields[KeyContactEmail] = "A valid email address is required."
		}
	}
	if s.Timezone == "" {
		fields[KeyTimezone] = "Time zone is required."
	} else if _, err := time.LoadLocation(s.Timezone); err != nil {
		fields[KeyTimezone] = "Unknown time zone."
	}
	if s.CalendarCellMax < minCellMax || s.CalendarCellMax > maxCellMax {
		fields[KeyCalendarCellMax] = "Events per day must be between 1 and 10."
	}
	if len(s.EventCategories) == 0 {
		fields[KeyEventCategories] = "At least one event category is required."
	}
	return fields
}

// Location returns the configured time zone, or UTC if it does not load.
func Location(s models.SiteSettings) *time.Location {
	if loc, err := time.LoadLocation(s.Timezone); err == nil {
		return loc
	}
	return time.UTC
}

func splitCategories(v string) []string {
	seen := map[string]bool{}
	var out []string
	for _, c := range strings.Split(v, ",") {
		c = strings.TrimSpace(c)
		k := strings.ToLower(c)
		if c == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, c)
	}
	return out
}
