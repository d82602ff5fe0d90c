// internal/app/store/subscribers/subscriberstore.go
package subscriberstore

import (
	"context"
	"errors"
	"regexp"
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
	// ErrAlreadySubscribed is returned when the email is already on the list.
	ErrAlreadySubscribed = errors.New("already subscribed")
	// ErrNotFound is returned when no subscriber has the requested ID.
	ErrNotFound = errors.New("subscriber not found")
)

// Store provides access to the subscribers collection.
type Store struct {
	c *mongo.Collection
}

// New creates a new subscriber store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("subscribers")}
}

// Subscribe adds email to the list. The unique index on email_ci decides
// duplicates, so two concurrent requests for one address store one document.
func (s *Store) Subscribe(ctx context.Context, email, name, source string) (models.Subscriber, error) {
	email = normalize.Email(email)
	sub := models.Subscriber{
		ID:        primitive.NewObjectID(),
		Name:      normalize.Name(name),
		Email:     email,
		EmailCI:   email,
		Source:    source,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := s.c.InsertOne(ctx, sub); err != nil {
		if storeutil.IsDup(err) {
			return models.Subscriber{}, ErrAlreadySubscribed
		}
		return models.Subscriber{}, err
	}
	return sub, nil
}

func searchFilter(q string) bson.M {
	q = normalize.QueryParam(q)
	if q == "" {
		return bson.M{}
	}
	pattern := regexp.QuoteMeta(q)
	return bson.M{"$or": []bson.M{
		{"email_ci": bson.M{"$regex": regexp.QuoteMeta(normalize.Email(q))}},
		{"name": bson.M{"$regex": pattern, "$options": "i"}},
	}}
}

// List returns one page of subscribers, newest first, matching q against
// email and name. It also returns the total number of matches.
func (s *Store) List(ctx context.Context, q string, page, perPage int64) ([]models.Subscriber, int64, error) {
	filter := searchFilter(q)
	total, err := s.c.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	opts := storeutil.Paginate(perPage, page).SetSort(bson.D{{Key: "created_at", Value: -1}})
	subs, err := s.find(ctx, filter, opts)
	return subs, total, err
}

// All returns every subscriber, oldest first, for CSV export.
func (s *Store) All(ctx context.Context) ([]models.Subscriber, error) {
	return s.find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
}

func (s *Store) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.Subscriber, error) {
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Subscriber
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Count returns the number of subscribers.
func (s *Store) Count(ctx context.Context) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{})
}

// CountByEmail returns how many documents hold email.
func (s *Store) CountByEmail(ctx context.Context, email string) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"email_ci": normalize.Email(email)})
}

// Delete removes a subscriber.
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
