// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// collectionIndexes lists the desired indexes per collection. Unique
// indexes carry the duplicate rules the stores rely on.
func collectionIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		"users": {
			{Keys: bson.D{{Key: "login_id_ci", Value: 1}}, Options: options.Index().SetUnique(true).SetName("uniq_users_login_id_ci")},
			{Keys: bson.D{{Key: "role", Value: 1}, {Key: "full_name_ci", Value: 1}}, Options: options.Index().SetName("idx_users_role_name")},
		},
		"pages": {
			{Keys: bson.D{{Key: "slug", Value: 1}}, Options: options.Index().SetUnique(true).SetName("uniq_pages_slug")},
		},
		"contact_messages": {
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}}, Options: options.Index().SetName("idx_contact_status_created")},
			{Keys: bson.D{{Key: "created_at", Value: -1}}, Options: options.Index().SetName("idx_contact_created")},
		},
		"faqs": {
			{Keys: bson.D{{Key: "order", Value: 1}}, Options: options.Index().SetName("idx_faqs_order")},
			{Keys: bson.D{{Key: "published", Value: 1}, {Key: "order", Value: 1}}, Options: options.Index().SetName("idx_faqs_published_order")},
		},
		"events": {
			{Keys: bson.D{{Key: "slug", Value: 1}}, Options: options.Index().SetUnique(true).SetName("uniq_events_slug")},
			{Keys: bson.D{{Key: "published", Value: 1}, {Key: "starts_at", Value: 1}}, Options: options.Index().SetName("idx_events_published_starts")},
		},
		"registrations": {
			{Keys: bson.D{{Key: "event_id", Value: 1}, {Key: "email_ci", Value: 1}}, Options: options.Index().SetUnique(true).SetName("uniq_registrations_event_email")},
			{Keys: bson.D{{Key: "created_at", Value: -1}}, Options: options.Index().SetName("idx_registrations_created")},
		},
		"subscribers": {
			{Keys: bson.D{{Key: "email_ci", Value: 1}}, Options: options.Index().SetUnique(true).SetName("uniq_subscribers_email")},
			{Keys: bson.D{{Key: "created_at", Value: -1}}, Options: options.Index().SetName("idx_subscribers_created")},
		},
		"projects": {
			{Keys: bson.D{{Key: "slug", Value: 1}}, Options: options.Index().SetUnique(true).SetName("uniq_projects_slug")},
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "order", Value: 1}}, Options: options.Index().SetName("idx_projects_status_order")},
		},
		"login_attempts": {
			{Keys: bson.D{{Key: "last_attempt", Value: 1}}, Options: options.Index().SetExpireAfterSeconds(86400).SetName("ttl_login_attempts")},
		},
		"audit_events": {
			{Keys: bson.D{{Key: "created_at", Value: -1}}, Options: options.Index().SetName("idx_audit_created")},
			{Keys: bson.D{{Key: "category", Value: 1}, {Key: "created_at", Value: -1}}, Options: options.Index().SetName("idx_audit_category_created")},
			{Keys: bson.D{{Key: "actor_id", Value: 1}, {Key: "created_at", Value: -1}}, Options: options.Index().SetName("idx_audit_actor_created")},
		},
	}
}

// Collections returns the names of every collection with managed indexes.
func Collections() []string {
	out := make([]string, 0, len(collectionIndexes()))
	for name := range collectionIndexes() {
		out = append(out, name)
	}
	return out
}

/*
EnsureAll is called at startup and by the test database helper. It is
idempotent. Problems from every collection are collected into one error so
startup fails with the whole picture.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string
	for name, models := range collectionIndexes() {
		if err := ensureIndexSet(ctx, db.Collection(name), models); err != nil {
			problems = append(problems, name+": "+err.Error())
		}
	}
	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

type existingIndex struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique bool   `bson:"unique,omitempty"`
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func isDuplicateKeyErr(err error) bool {
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == 11000 {
				return true
			}
		}
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == 11000 {
		return true
	}
	return err != nil && strings.Contains(err.Error(), "E11000")
}

func listExisting(ctx context.Context, coll *mongo.Collection) map[string]existingIndex {
	existing := map[string]existingIndex{}
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		return existing
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var idx existingIndex
		if err := cur.Decode(&idx); err != nil {
			zap.L().Warn("failed to decode existing index", zap.String("collection", coll.Name()), zap.Error(err))
			continue
		}
		existing[keySig(idx.Key)] = idx
	}
	return existing
}

// ensureIndexSet creates each desired index. An index with the same keys
// but a different unique flag is dropped and recreated.
func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) error {
	existing := listExisting(ctx, coll)
	var errs []string

	for _, m := range models {
		name := ""
		unique := false
		if m.Options != nil {
			if m.Options.Name != nil {
				name = *m.Options.Name
			}
			unique = m.Options.Unique != nil && *m.Options.Unique
		}
		sig := keySig(m.Keys.(bson.D))
		start := time.Now()

		if ex, ok := existing[sig]; ok {
			if ex.Unique == unique {
				continue
			}
			if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
				errs = append(errs, fmt.Sprintf("%s: drop %s failed: %v", name, ex.Name, err))
				continue
			}
			zap.L().Info("dropped index with mismatched options",
				zap.String("collection", coll.Name()), zap.String("name", ex.Name))
		}

		if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
			if unique && isDuplicateKeyErr(err) {
				errs = append(errs, fmt.Sprintf("%s: cannot create unique index (duplicates present)", name))
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
