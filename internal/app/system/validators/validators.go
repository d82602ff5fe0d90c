// internal/app/system/validators/validators.go
package validators

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// collection pairs a collection name with its $jsonSchema. A nil schema
// means the collection is created without a validator.
type collection struct {
	name   string
	schema func() bson.M
}

// collections lists every collection the site writes to.
var collections = []collection{
	{"users", usersSchema},
	{"events", eventsSchema},
	{"registrations", registrationsSchema},
	{"contact_messages", contactMessagesSchema},
	{"subscribers", subscribersSchema},
	{"faqs", nil},
	{"projects", nil},
	{"pages", nil},
	{"site_content", nil},
	{"audit_events", nil},
	{"login_attempts", nil},
}

// Names returns the collections EnsureAll creates.
func Names() []string {
	out := make([]string, len(collections))
	for i, c := range collections {
		out[i] = c.name
	}
	return out
}

// EnsureAll creates the collections and attaches their validators. The
// collections must exist before a transaction writes to them on servers
// older than 4.4. A server that refuses collMod (some hosted tiers) gets
// the collection without the validator.
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	existing, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		zap.L().Warn("listing collections failed; creating blind", zap.Error(err))
	}
	have := make(map[string]bool, len(existing))
	for _, n := range existing {
		have[n] = true
	}

	var problems []string
	for _, c := range collections {
		if !have[c.name] {
			if _, err := ensureCollection(ctx, db, c.name); err != nil {
				problems = append(problems, c.name+": "+err.Error())
				continue
			}
		}
		if c.schema == nil {
			continue
		}
		if err := setValidator(ctx, db, c.name, c.schema()); err != nil {
			if isNoSuchCommand(err) || isNotImplemented(err) {
				zap.L().Info("validator unsupported by server", zap.String("collection", c.name))
				continue
			}
			problems = append(problems, c.name+": "+err.Error())
		}
	}

	if len(problems) > 0 {
		return errors.New("ensure collections: " + strings.Join(problems, "; "))
	}
	return nil
}

func collectionExists(ctx context.Context, db *mongo.Database, name string) (bool, error) {
	names, err := db.ListCollectionNames(ctx, bson.M{"name": name})
	if err != nil {
		return false, err
	}
	return len(names) > 0, nil
}

// ensureCollection reports created=true only when this call created name.
// Losing a creation race to another instance is not an error.
func ensureCollection(ctx context.Context, db *mongo.Database, name string) (created bool, err error) {
	if ok, err := collectionExists(ctx, db, name); err == nil && ok {
		return false, nil
	}
	if err := db.CreateCollection(ctx, name); err != nil {
		if isNamespaceExistsErr(err) {
			return false, nil
		}
		return false, err
	}
	zap.L().Info("created collection", zap.String("collection", name))
	return true, nil
}

// setValidator uses moderate validation so documents written before a
// schema change stay updatable.
func setValidator(ctx context.Context, db *mongo.Database, name string, schema bson.M) error {
	return db.RunCommand(ctx, bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: schema},
		{Key: "validationLevel", Value: "moderate"},
		{Key: "validationAction", Value: "error"},
	}).Err()
}

// serverError reports whether err carries one of codes, or mentions one
// of phrases in its message.
func serverError(err error, codes []int32, phrases ...string) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) {
		for _, c := range codes {
			if ce.Code == c {
				return true
			}
		}
	}
	msg := strings.ToLower(err.Error())
	for _, p := range phrases {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

func isNamespaceExistsErr(err error) bool {
	return serverError(err, []int32{48}, "already exists", "namespace exists")
}

func isNoSuchCommand(err error) bool {
	return serverError(err, []int32{59}, "no such command")
}

func isNotImplemented(err error) bool {
	return serverError(err, []int32{115}, "not implemented", "not supported")
}

func usersSchema() bson.M {
	return jsonSchema(bson.A{"full_name", "login_id_ci", "role"}, bson.M{
		"full_name":   bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"},
		"login_id":    bson.M{"bsonType": "string", "minLength": 3},
		"login_id_ci": bson.M{"bsonType": "string", "minLength": 3},
		"role":        bson.M{"enum": bson.A{"admin", "editor"}},
		"status":      bson.M{"enum": bson.A{"active", "disabled"}},
	})
}

// eventsSchema keeps capacity non-negative even for writes that bypass the
// conditional decrement.
func eventsSchema() bson.M {
	return jsonSchema(bson.A{"title", "slug", "starts_at"}, bson.M{
		"title":     bson.M{"bsonType": "string", "minLength": 1},
		"slug":      bson.M{"bsonType": "string", "minLength": 1},
		"starts_at": bson.M{"bsonType": "date"},
		"capacity":  bson.M{"bsonType": bson.A{"int", "long"}, "minimum": 0},
	})
}

func registrationsSchema() bson.M {
	return jsonSchema(bson.A{"event_id", "email_ci", "status"}, bson.M{
		"event_id": bson.M{"bsonType": "objectId"},
		"email_ci": bson.M{"bsonType": "string", "minLength": 3},
		"status":   bson.M{"enum": bson.A{"pending", "confirmed", "cancelled"}},
	})
}

func contactMessagesSchema() bson.M {
	return jsonSchema(bson.A{"email", "message", "status"}, bson.M{
		"message": bson.M{"bsonType": "string", "minLength": 1, "maxLength": 5000},
		"status":  bson.M{"enum": bson.A{"new", "read", "replied", "archived"}},
	})
}

func subscribersSchema() bson.M {
	return jsonSchema(bson.A{"email", "email_ci"}, bson.M{
		"email_ci": bson.M{"bsonType": "string", "minLength": 3},
	})
}

func jsonSchema(required bson.A, props bson.M) bson.M {
	return bson.M{"$jsonSchema": bson.M{
		"bsonType":   "object",
		"required":   required,
		"properties": props,
	}}
}
