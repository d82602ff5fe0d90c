// internal/app/store/events/eventstore.go
package eventstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/strataimpact/internal/app/store/storeutil"
	"github.com/dalemusser/strataimpact/internal/app/system/normalize"
	"github.com/dalemusser/strataimpact/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrNotFound is returned when no event matches.
	ErrNotFound = errors.New("event not found")
	// ErrDuplicateSlug is returned when another event already uses the slug.
	ErrDuplicateSlug = errors.New("an event with this slug already exists")
	// ErrEventFull is returned when a capped event has no remaining slots.
	ErrEventFull = errors.New("event is full")
)

// Store provides access to the events collection.
type Store struct {
	c *mongo.Collection
}

// New creates a new event store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("events")}
}

// Input carries the admin-editable fields of an event. Description must
// already be sanitized.
type Input struct {
	Title                string
	Slug                 string
	Summary              string
	Description          string
	Location             string
	StartsAt             time.Time
	EndsAt               *time.Time
	Capacity             *int
	RegistrationDeadline *time.Time
	Impact               []models.ImpactMetric
	Published            bool
}

func (in Input) slug() string {
	if s := normalize.Slug(in.Slug); s != "" {
		return s
	}
	return normalize.Slug(in.Title)
}

// Create inserts a new event. A blank slug is derived from the title.
func (s *Store) Create(ctx context.Context, in Input) (models.Event, error) {
	now := time.Now().UTC()
	e := models.Event{
		ID:                   primitive.NewObjectID(),
		Title:                in.Title,
		Slug:                 in.slug(),
		Summary:              in.Summary,
		Description:          in.Description,
		Location:             in.Location,
		StartsAt:             in.StartsAt.UTC(),
		EndsAt:               in.EndsAt,
		Capacity:             in.Capacity,
		RegistrationDeadline: in.RegistrationDeadline,
		Impact:               in.Impact,
		Published:            in.Published,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if _, err := s.c.InsertOne(ctx, e); err != nil {
		if storeutil.IsDup(err) {
			return models.Event{}, ErrDuplicateSlug
		}
		return models.Event{}, err
	}
	return e, nil
}

// Update replaces the editable fields. The gallery is managed separately.
// A nil Capacity makes the event uncapped.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, in Input) error {
	set := bson.M{
		"title":       in.Title,
		"slug":        in.slug(),
		"summary":     in.Summary,
		"description": in.Description,
		"location":    in.Location,
		"starts_at":   in.StartsAt.UTC(),
		"impact":      in.Impact,
		"published":   in.Published,
		"updated_at":  time.Now().UTC(),
	}
	unset := bson.M{}
	optionalField(set, unset, "ends_at", in.EndsAt)
	optionalField(set, unset, "capacity", in.Capacity)
	optionalField(set, unset, "registration_deadline", in.RegistrationDeadline)

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		if storeutil.IsDup(err) {
			return ErrDuplicateSlug
		}
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func optionalField[T any](set, unset bson.M, name string, v *T) {
	if v == nil {
		unset[name] = ""
		return
	}
	set[name] = *v
}

// GetByID loads an event regardless of its published flag.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Event, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

// GetBySlug loads an event by slug. publishedOnly hides drafts.
func (s *Store) GetBySlug(ctx context.Context, slug string, publishedOnly bool) (models.Event, error) {
	filter := bson.M{"slug": slug}
	if publishedOnly {
		filter["published"] = true
	}
	return s.findOne(ctx, filter)
}

func (s *Store) findOne(ctx context.Context, filter bson.M) (models.Event, error) {
	var e models.Event
	err := s.c.FindOne(ctx, filter).Decode(&e)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Event{}, ErrNotFound
	}
	return e, err
}

// Delete removes an event. Registrations are removed by the caller.
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

// ListAll returns every event, newest start first, for the admin list.
func (s *Store) ListAll(ctx context.Context) ([]models.Event, error) {
	return s.find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "starts_at", Value: -1}}))
}

// ListUpcoming returns published events starting at or after now, soonest
// first. limit 0 returns all of them.
func (s *Store) ListUpcoming(ctx context.Context, now time.Time, limit int64) ([]models.Event, error) {
	opts := options.Find().SetSort(bson.D{{Key: "starts_at", Value: 1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	return s.find(ctx, bson.M{"published": true, "starts_at": bson.M{"$gte": now}}, opts)
}

// ListPast returns published events that started before now, most recent first.
func (s *Store) ListPast(ctx context.Context, now time.Time) ([]models.Event, error) {
	return s.find(ctx,
		bson.M{"published": true, "starts_at": bson.M{"$lt": now}},
		options.Find().SetSort(bson.D{{Key: "starts_at", Value: -1}}),
	)
}

// ListWithGallery returns published events that have at least one gallery
// image, most recent first.
func (s *Store) ListWithGallery(ctx context.Context) ([]models.Event, error) {
	return s.find(ctx,
		bson.M{"published": true, "gallery.0": bson.M{"$exists": true}},
		options.Find().SetSort(bson.D{{Key: "starts_at", Value: -1}}),
	)
}

func (s *Store) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.Event, error) {
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Event
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AddGalleryImage appends an image to the event's gallery.
func (s *Store) AddGalleryImage(ctx context.Context, id primitive.ObjectID, img models.GalleryImage) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$push": bson.M{"gallery": img},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// RemoveGalleryImage removes the gallery entry with the given URL.
func (s *Store) RemoveGalleryImage(ctx context.Context, id primitive.ObjectID, url string) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$pull": bson.M{"gallery": bson.M{"url": url}},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DecrementCapacity takes one slot from a capped event. The filter only
// matches while capacity is above zero, so capacity never goes negative.
// It returns ErrEventFull when no slot was available. Uncapped events are
// left unchanged.
func (s *Store) DecrementCapacity(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "capacity": bson.M{"$gt": 0}},
		bson.M{"$inc": bson.M{"capacity": -1}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrEventFull
	}
	return nil
}

// IncrementCapacity gives one slot back to a capped event. Uncapped events are
// not touched.
func (s *Store) IncrementCapacity(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "capacity": bson.M{"$exists": true, "$ne": nil}},
		bson.M{"$inc": bson.M{"capacity": 1}},
	)
	return err
}

// CountUpcoming returns the number of published events starting at or after now.
func (s *Store) CountUpcoming(ctx context.Context, now time.Time) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"published": true, "starts_at": bson.M{"$gte": now}})
}
