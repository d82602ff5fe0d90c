// internal/app/store/faqs/faqstore.go
package faqstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/strataimpact/internal/app/system/txn"
	"github.com/dalemusser/strataimpact/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// ErrNotFound is returned when no FAQ has the requested ID.
var ErrNotFound = errors.New("faq not found")

// Store provides access to the faqs collection.
type Store struct {
	db  *mongo.Database
	c   *mongo.Collection
	log *zap.Logger
}

// New creates a new FAQ store. The logger receives transaction fallback warnings.
func New(db *mongo.Database, log *zap.Logger) *Store {
	return &Store{db: db, c: db.Collection("faqs"), log: log}
}

// Input carries the editable fields of an FAQ.
type Input struct {
	Question  string
	Answer    string
	Published bool
}

// Create appends an FAQ after the current last one.
func (s *Store) Create(ctx context.Context, in Input) (models.FAQ, error) {
	last, err := s.maxOrder(ctx)
	if err != nil {
		return models.FAQ{}, err
	}
	now := time.Now().UTC()
	f := models.FAQ{
		ID:        primitive.NewObjectID(),
		Question:  in.Question,
		Answer:    in.Answer,
		Order:     last + 1,
		Published: in.Published,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := s.c.InsertOne(ctx, f); err != nil {
		return models.FAQ{}, err
	}
	return f, nil
}

func (s *Store) maxOrder(ctx context.Context) (int, error) {
	var top models.FAQ
	err := s.c.FindOne(ctx, bson.M{}, options.FindOne().SetSort(bson.D{{Key: "order", Value: -1}})).Decode(&top)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, nil
	}
	return top.Order, err
}

// GetByID loads one FAQ.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.FAQ, error) {
	var f models.FAQ
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&f)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.FAQ{}, ErrNotFound
	}
	return f, err
}

// Update replaces the editable fields. Order is unchanged.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, in Input) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"question":   in.Question,
		"answer":     in.Answer,
		"published":  in.Published,
		"updated_at": time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// TogglePublished flips the published flag and returns the new value.
func (s *Store) TogglePublished(ctx context.Context, id primitive.ObjectID) (bool, error) {
	f, err := s.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	_, err = s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"published":  !f.Published,
		"updated_at": time.Now().UTC(),
	}})
	return !f.Published, err
}

// Delete removes an FAQ. Gaps in the order sequence are harmless.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns FAQs in display order. publishedOnly hides drafts.
func (s *Store) List(ctx context.Context, publishedOnly bool) ([]models.FAQ, error) {
	filter := bson.M{}
	if publishedOnly {
		filter["published"] = true
	}
	cur, err := s.c.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "order", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.FAQ
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// MoveUp swaps the FAQ with its neighbour above. The first FAQ
// stays where it is.
func (s *Store) MoveUp(ctx context.Context, id primitive.ObjectID) error {
	return s.swap(ctx, id, -1)
}

// MoveDown swaps the FAQ with its neighbour below. The last FAQ
// stays where it is.
func (s *Store) MoveDown(ctx context.Context, id primitive.ObjectID) error {
	return s.swap(ctx, id, 1)
}

// swap moves the FAQ one place in List order and renumbers the whole
// list densely from 1. Renumbering clears tied orders left by concurrent
// creates, which a plain exchange of two order values would not resolve.
func (s *Store) swap(ctx context.Context, id primitive.ObjectID, dir int) error {
	all, err := s.List(ctx, false)
	if err != nil {
		return err
	}
	at := -1
	for i, f := range all {
		if f.ID == id {
			at = i
			break
		}
	}
	if at < 0 {
		return ErrNotFound
	}
	to := at + dir
	if to < 0 || to >= len(all) {
		return nil
	}
	all[at], all[to] = all[to], all[at]

	now := time.Now().UTC()
	return txn.Run(ctx, s.db, s.log, func(ctx context.Context) error {
		for i, f := range all {
			if f.Order == i+1 {
				continue
			}
			if _, err := s.c.UpdateOne(ctx, bson.M{"_id": f.ID}, bson.M{"$set": bson.M{"order": i + 1, "updated_at": now}}); err != nil {
				return err
			}
		}
		return nil
	})
}

// Count returns the number of FAQs, optionally only published ones.
func (s *Store) Count(ctx context.Context, publishedOnly bool) (int64, error) {
	filter := bson.M{}
	if publishedOnly {
		filter["published"] = true
	}
	return s.c.CountDocuments(ctx, filter)
}
