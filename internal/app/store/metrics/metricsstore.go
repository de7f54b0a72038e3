// Package metricsstore gathers the totals shown on the dashboard.
package metricsstore

import (
	"context"
	"time"

	contactstore "github.com/dalemusser/councilhub/internal/app/store/contacts"
	eventstore "github.com/dalemusser/councilhub/internal/app/store/events"
	loginstore "github.com/dalemusser/councilhub/internal/app/store/logins"
	taskstore "github.com/dalemusser/councilhub/internal/app/store/tasks"
	userstore "github.com/dalemusser/councilhub/internal/app/store/users"
	"go.mongodb.org/mongo-driver/mongo"
)

// Counts is the set of totals used by the dashboard.
type Counts struct {
	Users          int64            `json:"users"`
	UsersByBucket  map[string]int64 `json:"users_by_bucket"`
	UpcomingEvents int64            `json:"upcoming_events"`
	OpenTasks      int64            `json:"open_tasks"`
	Contacts       int64            `json:"contacts"`
	ContactsByType map[string]int64 `json:"contacts_by_type"`
	LoginsLastWeek int64            `json:"logins_last_week"`
}

// RecentLogin is one sign-in with the user's display fields.
type RecentLogin struct {
	UserID string    `json:"user_id"`
	Name   string    `json:"name"`
	Email  string    `json:"email"`
	At     time.Time `json:"at"`
	IP     string    `json:"ip"`
}

// FetchDashboardCounts returns the high-level counts used by the dashboard.
// Intentionally tolerant: on error it returns 0 for that counter.
func FetchDashboardCounts(ctx context.Context, db *mongo.Database, now time.Time) Counts {
	out := Counts{
		UsersByBucket:  map[string]int64{},
		ContactsByType: map[string]int64{},
	}

	if byBucket, err := userstore.New(db).CountByBucket(ctx); err == nil {
		for b, n := range byBucket {
			out.UsersByBucket[string(b)] = n
			out.Users += n
		}
	}
	if n, err := eventstore.New(db).CountUpcoming(ctx, now); err == nil {
		out.UpcomingEvents = n
	}
	if n, err := taskstore.New(db).CountOpen(ctx); err == nil {
		out.OpenTasks = n
	}
	if byType, err := contactstore.New(db).CountByType(ctx); err == nil {
		for t, n := range byType {
			out.ContactsByType[t] = n
			out.Contacts += n
		}
	}
	if n, err := loginstore.New(db).CountSince(ctx, now.AddDate(0, 0, -7)); err == nil {
		out.LoginsLastWeek = n
	}
	return out
}

// RecentLogins returns the newest sign-ins joined with user names. Logins
// by users that no longer exist are skipped.
func RecentLogins(ctx context.Context, db *mongo.Database, limit int64) ([]RecentLogin, error) {
	recs, err := loginstore.New(db).Recent(ctx, limit)
	if err != nil {
		return nil, err
	}
	users := userstore.New(db)
	out := make([]RecentLogin, 0, len(recs))
	for _, rec := range recs {
		u, err := users.GetByID(ctx, rec.UserID)
		if err != nil {
			continue
		}
		out = append(out, RecentLogin{
			UserID: rec.UserID.Hex(),
			Name:   u.Name,
			Email:  u.Email,
			At:     rec.CreatedAt,
			IP:     rec.IP,
		})
	}
	return out, nil
}
