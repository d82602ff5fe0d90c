// internal/app/store/sitecontent/sitecontent.go
//
// Package sitecontent stores the singleton content documents (about,
// contact, events hero, site) in the site_content collection, one document
// per key with an optimistic-concurrency version.
package sitecontent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/strataimpact/internal/app/store/storeutil"
	"github.com/dalemusser/strataimpact/internal/app/system/contentschema"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrVersionConflict is returned by Save when the stored version is not the
// one the caller loaded.
var ErrVersionConflict = errors.New("content was changed by someone else")

// Store provides access to the site_content collection.
type Store struct {
	c *mongo.Collection
}

// New creates a new site content store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("site_content")}
}

type document struct {
	Key       string    `bson:"_id"`
	Version   int64     `bson:"version"`
	Data      bson.Raw  `bson:"data"`
	UpdatedAt time.Time `bson:"updated_at"`
	UpdatedBy string    `bson:"updated_by,omitempty"`
}

// Found is the result of Get. OK is false when the document has never been
// saved; Version is then 0, which is what Save expects for a first write.
type Found[T any] struct {
	Value     T
	Version   int64
	UpdatedAt time.Time
	UpdatedBy string
	OK        bool
}

// Or returns the stored value, or def when nothing has been saved.
func (f Found[T]) Or(def T) T {
	if f.OK {
		return f.Value
	}
	return def
}

// Optional converts the result to a storeutil.Optional.
func (f Found[T]) Optional() storeutil.Optional[T] {
	if f.OK {
		return storeutil.Some(f.Value)
	}
	return storeutil.None[T]()
}

// Get loads the document stored under key. A missing document is not an
// error; any other failure is returned.
func Get[T any](ctx context.Context, s *Store, key string) (Found[T], error) {
	var doc document
	err := s.c.FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Found[T]{}, nil
	}
	if err != nil {
		return Found[T]{}, err
	}

	var v T
	if err := bson.Unmarshal(doc.Data, &v); err != nil {
		return Found[T]{}, fmt.Errorf("decode %s content: %w", key, err)
	}
	return Found[T]{
		Value:     v,
		Version:   doc.Version,
		UpdatedAt: doc.UpdatedAt,
		UpdatedBy: doc.UpdatedBy,
		OK:        true,
	}, nil
}

// Save validates v against the schema for key and writes it if the stored
// version still equals expected. expected 0 means the caller saw no
// document. It returns the new version.
func Save[T any](ctx context.Context, s *Store, key string, v T, expected int64, by string) (int64, error) {
	if err := contentschema.Validate(key, v); err != nil {
		return 0, err
	}
	now := time.Now().UTC()

	if expected == 0 {
		_, err := s.c.InsertOne(ctx, bson.M{
			"_id":        key,
			"version":    int64(1),
			"data":       v,
			"updated_at": now,
			"updated_by": by,
		})
		if storeutil.IsDup(err) {
			return 0, ErrVersionConflict
		}
		if err != nil {
			return 0, err
		}
		return 1, nil
	}

	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": key, "version": expected},
		bson.M{
			"$set": bson.M{"data": v, "updated_at": now, "updated_by": by},
			"$inc": bson.M{"version": 1},
		},
	)
	if err != nil {
		return 0, err
	}
	if res.MatchedCount == 0 {
		return 0, ErrVersionConflict
	}
	return expected + 1, nil
}

// Versions returns the stored version of every saved key. Keys that were
// never saved are absent.
func (s *Store) Versions(ctx context.Context) (map[string]int64, error) {
	cur, err := s.c.Find(ctx, bson.M{}, options.Find().SetProjection(bson.M{"version": 1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make(map[string]int64)
	for cur.Next(ctx) {
		var d struct {
			Key     string `bson:"_id"`
			Version int64  `bson:"version"`
		}
		if err := cur.Decode(&d); err != nil {
			return nil, err
		}
		out[d.Key] = d.Version
	}
	return out, cur.Err()
}

// Reset deletes the document for key so readers fall back to defaults.
func (s *Store) Reset(ctx context.Context, key string) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"_id": key})
	return err
}
