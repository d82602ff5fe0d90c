// internal/app/store/contacts/contactstore.go
package contactstore

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
	// ErrNotFound is returned when no message has the requested ID.
	ErrNotFound = errors.New("contact message not found")
	// ErrBadStatus is returned for a status outside models.AllMessageStatuses.
	ErrBadStatus = errors.New("invalid message status")
)

// Store provides access to the contact_messages collection.
type Store struct {
	c *mongo.Collection
}

// New creates a new contact message store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("contact_messages")}
}

// CreateInput holds a validated contact form submission.
type CreateInput struct {
	Name        string
	Email       string
	Subject     string
	Message     string
	InquiryType string
	Urgency     string
}

// Create stores a new message with status "new".
func (s *Store) Create(ctx context.Context, in CreateInput) (models.ContactMessage, error) {
	now := time.Now().UTC()
	msg := models.ContactMessage{
		ID:          primitive.NewObjectID(),
		Name:        normalize.Name(in.Name),
		Email:       normalize.Email(in.Email),
		Subject:     in.Subject,
		Message:     in.Message,
		InquiryType: in.InquiryType,
		Urgency:     in.Urgency,
		Status:      models.MessageStatusNew,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if msg.InquiryType == "" {
		msg.InquiryType = models.InquiryGeneral
	}
	if msg.Urgency == "" {
		msg.Urgency = models.UrgencyNormal
	}
	if _, err := s.c.InsertOne(ctx, msg); err != nil {
		return models.ContactMessage{}, err
	}
	return msg, nil
}

// GetByID loads a message.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.ContactMessage, error) {
	var msg models.ContactMessage
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&msg)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.ContactMessage{}, ErrNotFound
	}
	return msg, err
}

// ListFilter narrows List. A blank Status lists every message except archived ones.
type ListFilter struct {
	Status  string
	Page    int64
	PerPage int64
}

func (f ListFilter) query() bson.M {
	if f.Status != "" {
		return bson.M{"status": f.Status}
	}
	return bson.M{"status": bson.M{"$ne": models.MessageStatusArchived}}
}

// List returns one page of messages, newest first, and the total match count.
func (s *Store) List(ctx context.Context, f ListFilter) ([]models.ContactMessage, int64, error) {
	q := f.query()
	total, err := s.c.CountDocuments(ctx, q)
	if err != nil {
		return nil, 0, err
	}
	opts := storeutil.Paginate(f.PerPage, f.Page).SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := s.c.Find(ctx, q, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	var msgs []models.ContactMessage
	if err := cur.All(ctx, &msgs); err != nil {
		return nil, 0, err
	}
	return msgs, total, nil
}

// SetStatus moves a message to status.
func (s *Store) SetStatus(ctx context.Context, id primitive.ObjectID, status string) error {
	status = normalize.Status(status)
	if !models.IsValidMessageStatus(status) {
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

// MarkRead moves a message from "new" to "read". Messages in any other
// status are left alone. It reports whether the message changed.
func (s *Store) MarkRead(ctx context.Context, id primitive.ObjectID) (bool, error) {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "status": models.MessageStatusNew},
		bson.M{"$set": bson.M{"status": models.MessageStatusRead, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

// Delete removes a message permanently.
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

// CountByStatus returns the number of messages in each status.
func (s *Store) CountByStatus(ctx context.Context) (map[string]int64, error) {
	cur, err := s.c.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.D{{Key: "_id", Value: "$status"}, {Key: "n", Value: bson.D{{Key: "$sum", Value: 1}}}}}},
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	counts := make(map[string]int64, 4)
	for cur.Next(ctx) {
		var row struct {
			Status string `bson:"_id"`
			N      int64  `bson:"n"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		counts[row.Status] = row.N
	}
	return counts, cur.Err()
}

// PurgeArchived deletes archived messages last updated before cutoff.
func (s *Store) PurgeArchived(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{
		"status":     models.MessageStatusArchived,
		"updated_at": bson.M{"$lt": cutoff},
	}, options.Delete())
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
