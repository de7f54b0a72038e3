package settingsstore_test

import (
	"testing"
	"time"

	settingsstore "github.com/dalemusser/councilhub/internal/app/store/settings"
	"github.com/dalemusser/councilhub/internal/domain/models"
	"github.com/dalemusser/councilhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func TestDecode_DefaultsAndProblems(t *testing.T) {
	s, problems := settingsstore.Decode(map[string]string{
		settingsstore.KeyOrganizationName: "  Valley Sports Council ",
		settingsstore.KeyRegistrationOpen: "false",
		settingsstore.KeyCalendarCellMax:  "lots",
		settingsstore.KeyTimezone:         "Mars/Olympus",
		settingsstore.KeyEventCategories:  "Meeting, Gala ,meeting,,",
		"unknown_key":                     "ignored",
	})

	if s.OrganizationName != "Valley Sports Council" {
		t.Errorf("org = %q", s.OrganizationName)
	}
	if s.RegistrationOpen {
		t.Error("registration_open should decode false")
	}
	def := models.DefaultSiteSettings()
	if s.CalendarCellMax != def.CalendarCellMax || s.Timezone != def.Timezone {
		t.Errorf("bad values should fall back: max=%d tz=%s", s.CalendarCellMax, s.Timezone)
	}
	if len(s.EventCategories) != 2 || s.EventCategories[0] != "Meeting" || s.EventCategories[1] != "Gala" {
		t.Errorf("categories = %v", s.EventCategories)
	}

	if len(problems) != 2 {
		t.Fatalf("problems = %+v", problems)
	}
	if problems[0].Key != settingsstore.KeyCalendarCellMax || problems[1].Key != settingsstore.KeyTimezone {
		t.Errorf("problem keys = %s, %s", problems[0].Key, problems[1].Key)
	}
	if problems[1].Value != "Mars/Olympus" {
		t.Errorf("problem should carry the raw value: %+v", problems[1])
	}
}

func TestDecode_EmptyBagIsDefaults(t *testing.T) {
	s, problems := settingsstore.Decode(nil)
	if len(problems) != 0 {
		t.Errorf("problems = %v", problems)
	}
	def := models.DefaultSiteSettings()
	if s.OrganizationName != def.OrganizationName || !s.RegistrationOpen || s.CalendarCellMax != 3 {
		t.Errorf("defaults = %+v", s)
	}
}

func TestEncodeDecode_PreservesTypedValues(t *testing.T) {
	in := models.DefaultSiteSettings()
	in.RecaptchaEnabled = true
	in.CalendarCellMax = 5
	in.EventCategories = []string{"Youth", "Masters"}

	out, problems := settingsstore.Decode(settingsstore.Encode(in))
	if len(problems) != 0 {
		t.Fatalf("problems = %v", problems)
	}
	if !out.RecaptchaEnabled || out.CalendarCellMax != 5 || len(out.EventCategories) != 2 {
		t.Errorf("decoded = %+v", out)
	}
}

func TestCleanAndValidate(t *testing.T) {
	s := settingsstore.Clean(models.SiteSettings{
		OrganizationName: "  ",
		ContactEmail:     "nobody",
		Timezone:         "UTC",
		CalendarCellMax:  0,
		EventCategories:  []string{" ", ""},
		FooterHTML:       `<p>Hi</p><script>alert(1)</script>`,
	})
	if s.FooterHTML != "<p>Hi</p>" {
		t.Errorf("footer = %q", s.FooterHTML)
	}

	fields := settingsstore.Validate(s)
	for _, k := range []string{
		settingsstore.KeyOrganizationName,
		settingsstore.KeyContactEmail,
		settingsstore.KeyCalendarCellMax,
		settingsstore.KeyEventCategories,
	} {
		if _, ok := fields[k]; !ok {
			t.Errorf("expected a problem for %s", k)
		}
	}
	if _, ok := fields[settingsstore.KeyTimezone]; ok {
		t.Error("UTC is a valid time zone")
	}
}

func TestStore_SaveAndLoad(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := settingsstore.New(db, zap.NewNop())
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if got := store.SiteName(ctx); got != models.DefaultSiteName {
		t.Errorf("empty store SiteName = %q", got)
	}

	st := models.DefaultSiteSettings()
	st.OrganizationName = "Lakeside Athletics"
	by := primitive.NewObjectID()
	if err := store.Save(ctx, st, &by, time.Now()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	// Saving twice must not duplicate keys.
	if err := store.Save(ctx, st, &by, time.Now()); err != nil {
		t.Fatalf("second Save failed: %v", err)
	}

	n, err := db.Collection("settings").CountDocuments(ctx, bson.M{"key": settingsstore.KeyOrganizationName})
	if err != nil || n != 1 {
		t.Errorf("organization_name rows = %d, %v", n, err)
	}

	if got := store.SiteName(ctx); got != "Lakeside Athletics" {
		t.Errorf("SiteName = %q", got)
	}

	if err := store.Set(ctx, settingsstore.KeyCalendarCellMax, "99", nil); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	loaded, problems, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.CalendarCellMax != 3 || len(problems) != 1 {
		t.Errorf("out-of-range value: max=%d problems=%v", loaded.CalendarCellMax, problems)
	}
}
