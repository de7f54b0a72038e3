// Package indexes reconciles the MongoDB indexes every store relies on.
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

/*
EnsureAll is called at startup. Each ensure* function is idempotent.
We aggregate errors so any problem is visible and startup can fail fast.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	sets := []struct {
		coll   string
		models []mongo.IndexModel
	}{
		{"users", userIndexes()},
		{"events", eventIndexes()},
		{"tasks", taskIndexes()},
		{"contacts", contactIndexes()},
		{"settings", settingIndexes()},
		{"integrations", integrationIndexes()},
		{"login_records", loginRecordIndexes()},
		{"audit_events", auditIndexes()},
		{"oauth_states", oauthStateIndexes()},
	}

	var problems []string
	for _, s := range sets {
		if err := ensureIndexSet(ctx, db.Collection(s.coll), s.models); err != nil {
			problems = append(problems, s.coll+": "+err.Error())
		}
	}
	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Core helper: reconcile a set of desired indexes for one collection         */
/* -------------------------------------------------------------------------- */

type existingIndex struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique *bool  `bson:"unique,omitempty"`
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func isTrue(b *bool) bool { return b != nil && *b }

func listExisting(ctx context.Context, coll *mongo.Collection) map[string]existingIndex {
	existing := map[string]existingIndex{}
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		// Collection does not exist yet.
		return existing
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var idx existingIndex
		if err := cur.Decode(&idx); err != nil {
			zap.L().Warn("failed to decode existing index",
				zap.String("collection", coll.Name()),
				zap.Error(err))
			continue
		}
		existing[keySig(idx.Key)] = idx
	}
	return existing
}

// ensureIndexSet creates missing indexes, reuses matching ones, and drops and
// recreates an index whose keys match but whose name or uniqueness differ.
func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) error {
	var errs []string
	existing := listExisting(ctx, coll)

	for _, m := range models {
		var name string
		var unique bool
		if m.Options != nil {
			if m.Options.Name != nil {
				name = *m.Options.Name
			}
			unique = isTrue(m.Options.Unique)
		}
		sig := keySig(m.Keys.(bson.D))
		start := time.Now()

		if ex, ok := existing[sig]; ok {
			if isTrue(ex.Unique) == unique && (name == "" || ex.Name == name) {
				zap.L().Debug("reusing existing index",
					zap.String("collection", coll.Name()),
					zap.String("name", ex.Name),
					zap.String("keys", sig))
				continue
			}
			if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
				errs = append(errs, fmt.Sprintf("%s: drop %s failed: %v", name, ex.Name, err))
				continue
			}
			zap.L().Info("dropped index to realign options",
				zap.String("collection", coll.Name()),
				zap.String("from", ex.Name),
				zap.String("to", name))
		}

		if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
			if unique && wafflemongo.IsDup(err) {
				errs = append(errs, fmt.Sprintf("%s: cannot create unique index on %s (duplicates present)", name, sig))
			} else {
				errs = append(errs, fmt.Sprintf("%s: %v", name, err))
			}
			zap.L().Warn("index ensure failed",
				zap.String("collection", coll.Name()),
				zap.String("name", name),
				zap.String("keys", sig),
				zap.Error(err))
			continue
		}
		zap.L().Info("index ensured",
			zap.String("collection", coll.Name()),
			zap.String("name", name),
			zap.String("keys", sig),
			zap.Bool("unique", unique),
			zap.Duration("took", time.Since(start)))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Collection-specific index sets                                              */
/* -------------------------------------------------------------------------- */

func userIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_users_email"),
		},
		// Admin list sorted by name, with or without a bucket predicate.
		{
			Keys:    bson.D{{Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}},
			Options: options.Index().SetName("idx_users_nameci_id"),
		},
		// Bucket predicates.
		{
			Keys:    bson.D{{Key: "approved", Value: 1}, {Key: "email_verified", Value: 1}},
			Options: options.Index().SetName("idx_users_approved_verified"),
		},
		// Verification link lookup.
		{
			Keys:    bson.D{{Key: "email_verification_token", Value: 1}},
			Options: options.Index().SetName("idx_users_verification_token"),
		},
	}
}

func eventIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "slug", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_events_slug"),
		},
		// Calendar range queries filtered by status.
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "start_date", Value: 1}},
			Options: options.Index().SetName("idx_events_status_start"),
		},
		{
			Keys:    bson.D{{Key: "start_date", Value: 1}, {Key: "_id", Value: 1}},
			Options: options.Index().SetName("idx_events_start_id"),
		},
		{
			Keys:    bson.D{{Key: "category", Value: 1}, {Key: "start_date", Value: 1}},
			Options: options.Index().SetName("idx_events_category_start"),
		},
	}
}

func taskIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "event_id", Value: 1}, {Key: "status", Value: 1}, {Key: "due_date", Value: 1}},
			Options: options.Index().SetName("idx_tasks_event_status_due"),
		},
		{
			Keys:    bson.D{{Key: "assignee_id", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index().SetName("idx_tasks_assignee_status"),
		},
	}
}

func contactIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		// Directory list keyset paging.
		{
			Keys:    bson.D{{Key: "contact_name_ci", Value: 1}, {Key: "_id", Value: 1}},
			Options: options.Index().SetName("idx_contacts_nameci_id"),
		},
		{
			Keys:    bson.D{{Key: "contact_type", Value: 1}, {Key: "contact_name_ci", Value: 1}, {Key: "_id", Value: 1}},
			Options: options.Index().SetName("idx_contacts_type_nameci_id"),
		},
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName("idx_contacts_email"),
		},
	}
}

func settingIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "key", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_settings_key"),
		},
	}
}

func integrationIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "provider", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_integrations_provider"),
		},
	}
}

func loginRecordIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		// Dashboard "recent sign-ins".
		{
			Keys:    bson.D{{Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_logins_created_desc"),
		},
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_logins_user_created_desc"),
		},
	}
}

func auditIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_audit_timestamp_desc"),
		},
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_audit_user_timestamp"),
		},
		{
			Keys:    bson.D{{Key: "actor_id", Value: 1}, {Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_audit_actor_timestamp"),
		},
		{
			Keys:    bson.D{{Key: "category", Value: 1}, {Key: "event_type", Value: 1}, {Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_audit_category_type_timestamp"),
		},
	}
}

func oauthStateIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "nonce", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_oauth_states_nonce"),
		},
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0).SetName("ttl_oauth_states_expires"),
		},
	}
}
