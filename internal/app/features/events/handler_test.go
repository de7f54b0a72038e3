package events_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	uierrors "github.com/dalemusser/councilhub/internal/app/features/errors"
	"github.com/dalemusser/councilhub/internal/app/features/events"
	settingsstore "github.com/dalemusser/councilhub/internal/app/store/settings"
	"github.com/dalemusser/councilhub/internal/app/system/auth"
	"github.com/dalemusser/councilhub/internal/app/system/clock"
	"github.com/dalemusser/councilhub/internal/domain/models"
	"github.com/dalemusser/councilhub/internal/testutil"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*events.Handler, *auth.SessionManager, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()

	sm, err := auth.NewSessionManager("test-session-key-for-testing-only", "test-session", "", time.Hour, false, logger)
	if err != nil {
		t.Fatalf("NewSessionManager failed: %v", err)
	}
	h := events.NewHandler(db, sm, uierrors.NewErrorLogger(logger), nil, logger)
	h.Clock = clock.NewManual(time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC))

	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := h.Site.Set(ctx, settingsstore.KeyTimezone, "UTC", nil); err != nil {
		t.Fatalf("set timezone: %v", err)
	}
	return h, sm, testutil.NewFixtures(t, db)
}

func utc(y int, m time.Month, d, hour int) time.Time {
	return time.Date(y, m, d, hour, 0, 0, 0, time.UTC)
}

func editor(r *http.Request) *http.Request { return testutil.WithUser(r, testutil.EditorUser()) }

func TestCreate(t *testing.T) {
	h, _, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.Create(rec, editor(testutil.NewJSONRequest(t, http.MethodPost, "/api/admin/events", map[string]any{
		"title":       "  Spring   Regatta ",
		"description": `<p>Boats</p><script>alert(1)</script>`,
		"start_date":  "2024-04-06T09:00",
		"end_date":    "2024-04-07",
		"status":      "published",
	})))
	testutil.AssertStatus(t, rec, http.StatusCreated)

	var e models.Event
	testutil.DecodeEnvelope(t, rec, &e)
	if e.Title != "Spring Regatta" || e.Slug != "spring-regatta" {
		t.Errorf("title/slug = %q / %q", e.Title, e.Slug)
	}
	if e.Description != "<p>Boats</p>" {
		t.Errorf("description = %q", e.Description)
	}
	if !e.Published || e.Status != models.EventPublished {
		t.Errorf("status = %s published = %v", e.Status, e.Published)
	}
	if e.CreatedBy == nil {
		t.Error("created_by not set")
	}
}

func TestCreate_Validation(t *testing.T) {
	h, _, _ := newTestHandler(t)

	tests := []struct {
		name  string
		body  map[string]any
		field string
	}{
		{"missing title", map[string]any{"start_date": "2024-04-06"}, "title"},
		{"missing start", map[string]any{"title": "Meet"}, "start_date"},
		{"bad start", map[string]any{"title": "Meet", "start_date": "next tuesday"}, "start_date"},
		{"end before start", map[string]any{"title": "Meet", "start_date": "2024-04-06", "end_date": "2024-04-05"}, "end_date"},
		{"unknown status", map[string]any{"title": "Meet", "start_date": "2024-04-06", "status": "maybe"}, "status"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.Create(rec, editor(testutil.NewJSONRequest(t, http.MethodPost, "/api/admin/events", tt.body)))
			testutil.AssertStatus(t, rec, http.StatusBadRequest)
			env := testutil.DecodeEnvelope(t, rec, nil)
			if env.Fields[tt.field] == "" {
				t.Errorf("fields = %v, want %s", env.Fields, tt.field)
			}
		})
	}
}

func TestUpdate_ValidatesMergedEvent(t *testing.T) {
	h, _, f := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	end := utc(2024, 3, 12, 17)
	e := f.CreateEvent(ctx, "Camp", models.EventDraft, utc(2024, 3, 10, 9), &end)

	patch := func(body map[string]any) *httptest.ResponseRecorder {
		req := editor(testutil.NewJSONRequest(t, http.MethodPatch, "/api/admin/events/"+e.ID.Hex(), body))
		req = testutil.WithChiURLParam(req, "id", e.ID.Hex())
		rec := httptest.NewRecorder()
		h.Update(rec, req)
		return rec
	}

	// Moving the start past the stored end is refused.
	testutil.AssertStatus(t, patch(map[string]any{"start_date": "2024-03-14"}), http.StatusBadRequest)

	// Clearing the end makes it a single-day event, then publishing mirrors the flag.
	rec := patch(map[string]any{"end_date": "", "status": "PUBLISHED"})
	testutil.AssertStatus(t, rec, http.StatusOK)
	var got models.Event
	testutil.DecodeEnvelope(t, rec, &got)
	if got.EndDate != nil || !got.Published {
		t.Errorf("end = %v published = %v", got.EndDate, got.Published)
	}
	if got.Slug != e.Slug {
		t.Errorf("slug changed to %q", got.Slug)
	}
}

func TestDelete_CascadesTasks(t *testing.T) {
	h, _, f := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	e := f.CreateEvent(ctx, "Gala", models.EventPublished, utc(2024, 5, 1, 18), nil)
	f.CreateTask(ctx, e.ID, "Book hall")
	f.CreateTask(ctx, e.ID, "Order food")

	req := editor(testutil.NewJSONRequest(t, http.MethodDelete, "/api/admin/events/"+e.ID.Hex(), nil))
	req = testutil.WithChiURLParam(req, "id", e.ID.Hex())
	rec := httptest.NewRecorder()
	h.Delete(rec, req)
	testutil.AssertStatus(t, rec, http.StatusOK)

	var data struct {
		TasksDeleted int64 `json:"tasks_deleted"`
	}
	testutil.DecodeEnvelope(t, rec, &data)
	if data.TasksDeleted != 2 {
		t.Errorf("tasks_deleted = %d, want 2", data.TasksDeleted)
	}

	rec = httptest.NewRecorder()
	h.Delete(rec, req)
	testutil.AssertStatus(t, rec, http.StatusNotFound)
}

func TestPublicList_PublishedOnly(t *testing.T) {
	h, _, f := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	f.CreateEvent(ctx, "Open Day", models.EventPublished, utc(2024, 3, 20, 10), nil)
	f.CreateEvent(ctx, "Draft Plan", models.EventDraft, utc(2024, 3, 21, 10), nil)
	f.CreateEvent(ctx, "Last Year", models.EventPublished, utc(2023, 3, 20, 10), nil)

	rec := httptest.NewRecorder()
	h.PublicList(rec, testutil.NewJSONRequest(t, http.MethodGet, "/api/events?from=2024-03-01&to=2024-03-31", nil))
	testutil.AssertStatus(t, rec, http.StatusOK)

	var list []models.Event
	testutil.DecodeEnvelope(t, rec, &list)
	if len(list) != 1 || list[0].Title != "Open Day" {
		t.Errorf("list = %+v", list)
	}

	rec = httptest.NewRecorder()
	h.PublicList(rec, testutil.NewJSONRequest(t, http.MethodGet, "/api/events?from=soon", nil))
	testutil.AssertStatus(t, rec, http.StatusBadRequest)
}

func TestPublicGet_HidesDrafts(t *testing.T) {
	h, _, f := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	draft := f.CreateEvent(ctx, "Draft Plan", models.EventDraft, utc(2024, 3, 21, 10), nil)

	get := func(r *http.Request) int {
		r = testutil.WithChiURLParam(r, "slug", draft.Slug)
		rec := httptest.NewRecorder()
		h.PublicGet(rec, r)
		return rec.Code
	}
	if code := get(testutil.NewJSONRequest(t, http.MethodGet, "/api/events/"+draft.Slug, nil)); code != http.StatusNotFound {
		t.Errorf("anonymous status = %d, want 404", code)
	}
	if code := get(editor(testutil.NewJSONRequest(t, http.MethodGet, "/api/events/"+draft.Slug, nil))); code != http.StatusOK {
		t.Errorf("editor status = %d, want 200", code)
	}
}

func TestCalendar_MultiDayAndOverflow(t *testing.T) {
	h, _, f := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	// Monday 11th through Wednesday 13th.
	end := utc(2024, 3, 13, 9)
	f.CreateEvent(ctx, "Tournament", models.EventPublished, utc(2024, 3, 11, 10), &end)
	for hour := 8; hour < 13; hour++ {
		f.CreateEvent(ctx, "Practice", models.EventPublished, utc(2024, 3, 20, hour), nil)
	}
	f.CreateEvent(ctx, "Hidden", models.EventDraft, utc(2024, 3, 11, 8), nil)

	rec := httptest.NewRecorder()
	h.Calendar(rec, testutil.NewJSONRequest(t, http.MethodGet, "/api/events/calendar?year=2024&month=3", nil))
	testutil.AssertStatus(t, rec, http.StatusOK)

	var cal struct {
		Year  int `json:"year"`
		Month int `json:"month"`
		Prev  struct{ Year, Month int }
		Next  struct{ Year, Month int }
		Weeks [][]struct {
			Date           string `json:"date"`
			IsCurrentMonth bool   `json:"is_current_month"`
			IsToday        bool   `json:"is_today"`
			Events         []struct {
				Title string `json:"title"`
			} `json:"events"`
			More int `json:"more"`
		} `json:"weeks"`
	}
	testutil.DecodeEnvelope(t, rec, &cal)

	if len(cal.Weeks) != 6 {
		t.Fatalf("weeks = %d, want 6", len(cal.Weeks))
	}
	if cal.Prev.Month != 2 || cal.Next.Month != 4 {
		t.Errorf("prev/next = %+v / %+v", cal.Prev, cal.Next)
	}
	byDate := map[string]int{}
	for _, w := range cal.Weeks {
		if len(w) != 7 {
			t.Fatalf("week has %d days", len(w))
		}
		for _, d := range w {
			byDate[d.Date] = len(d.Events)
			if d.Date == "2024-03-20" && (len(d.Events) != 3 || d.More != 2) {
				t.Errorf("March 20: %d visible, %d more; want 3, 2", len(d.Events), d.More)
			}
			if d.IsToday != (d.Date == "2024-03-15") {
				t.Errorf("%s is_today = %v", d.Date, d.IsToday)
			}
		}
	}
	for _, d := range []string{"2024-03-11", "2024-03-12", "2024-03-13"} {
		if byDate[d] != 1 {
			t.Errorf("%s has %d events, want the tournament only", d, byDate[d])
		}
	}
	if byDate["2024-03-14"] != 0 {
		t.Errorf("tournament leaked onto March 14")
	}
}

func TestCalendar_DecemberRollover(t *testing.T) {
	h, _, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.Calendar(rec, testutil.NewJSONRequest(t, http.MethodGet, "/api/events/calendar?year=2023&month=12", nil))
	testutil.AssertStatus(t, rec, http.StatusOK)

	var cal struct {
		Next struct {
			Year  int `json:"year"`
			Month int `json:"month"`
		} `json:"next"`
	}
	testutil.DecodeEnvelope(t, rec, &cal)
	if cal.Next.Year != 2024 || cal.Next.Month != 1 {
		t.Errorf("next = %+v, want 2024-01", cal.Next)
	}

	rec = httptest.NewRecorder()
	h.Calendar(rec, testutil.NewJSONRequest(t, http.MethodGet, "/api/events/calendar?month=13", nil))
	testutil.AssertStatus(t, rec, http.StatusBadRequest)
}

func TestAdminRoutes_RequireEditor(t *testing.T) {
	h, sm, _ := newTestHandler(t)
	r := events.AdminRoutes(h, sm)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, testutil.WithUser(testutil.NewJSONRequest(t, http.MethodGet, "/", nil), testutil.MemberUser()))
	testutil.AssertStatus(t, rec, http.StatusForbidden)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, editor(testutil.NewJSONRequest(t, http.MethodGet, "/", nil)))
	testutil.AssertStatus(t, rec, http.StatusOK)
}
