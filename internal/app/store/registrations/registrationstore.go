// internal/app/store/registrations/registrationstore.go
package registrationstore

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
	// ErrNotFound is returned when no registration matches.
	ErrNotFound = errors.New("registration not found")
	// ErrAlreadyRegistered is returned when the email is already registered for the event.
	ErrAlreadyRegistered = errors.New("this email is already registered for the event")
	// ErrBadStatus is returned for a status outside models.AllRegistrationStatuses.
	ErrBadStatus = errors.New("invalid registration status")
)

// Store provides access to the registrations collection.
type Store struct {
	c *mongo.Collection
}

// New creates a new registration store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("registrations")}
}

// Insert stores r as given, filling EmailCI and timestamps. A duplicate
// (event_id, email_ci) returns ErrAlreadyRegistered.
func (s *Store) Insert(ctx context.Context, r *models.Registration) error {
	now := time.Now().UTC()
	if r.ID.IsZero() {
		r.ID = primitive.NewObjectID()
	}
	r.Email = normalize.Email(r.Email)
	r.EmailCI = r.Email
	if r.Status == "" {
		r.Status = models.RegistrationPending
	}
	r.CreatedAt = now
	r.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, r); err != nil {
		if storeutil.IsDup(err) {
			return ErrAlreadyRegistered
		}
		return err
	}
	return nil
}

// Exists reports whether email is already registered for eventID.
func (s *Store) Exists(ctx context.Context, eventID primitive.ObjectID, email string) (bool, error) {
	n, err := s.c.CountDocuments(ctx,
		bson.M{"event_id": eventID, "email_ci": normalize.Email(email)},
		options.Count().SetLimit(1),
	)
	return n > 0, err
}

// GetByID loads one registration.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Registration, error) {
	var r models.Registration
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&r)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Registration{}, ErrNotFound
	}
	return r, err
}

// ListByEvent returns an event's registrations in sign-up order.
func (s *Store) ListByEvent(ctx context.Context, eventID primitive.ObjectID) ([]models.Registration, error) {
	return s.find(ctx, bson.M{"event_id": eventID}, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
}

// Recent returns the latest registrations across all events.
func (s *Store) Recent(ctx context.Context, limit int64) ([]models.Registration, error) {
	return s.find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(limit))
}

func (s *Store) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.Registration, error) {
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Registration
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CountByEvent returns the number of registrations for an event.
func (s *Store) CountByEvent(ctx context.Context, eventID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"event_id": eventID})
}

// SetStatus changes a registration's status. Status changes never touch
// the event's capacity.
func (s *Store) SetStatus(ctx context.Context, id primitive.ObjectID, status string) error {
	status = normalize.Status(status)
	if !models.IsValidRegistrationStatus(status) {
		return ErrBadStatus
	}
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"status":     status,
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

// Delete removes one registration.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

// DeleteByEvent removes every registration for an event.
func (s *Store) DeleteByEvent(ctx context.Context, eventID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"event_id": eventID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
