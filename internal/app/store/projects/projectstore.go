// internal/app/store/projects/projectstore.go
package projectstore

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
	// ErrNotFound is returned when no project matches.
	ErrNotFound = errors.New("project not found")
	// ErrDuplicateSlug is returned when another project already uses the slug.
	ErrDuplicateSlug = errors.New("a project with this slug already exists")
	// ErrBadStatus is returned for a status outside models.AllProjectStatuses.
	ErrBadStatus = errors.New("invalid project status")
)

// Store provides access to the projects collection.
type Store struct {
	c *mongo.Collection
}

// New creates a new project store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("projects")}
}

// Input carries the editable fields of a project. Description must already
// be sanitized.
type Input struct {
	Title       string
	Slug        string
	Summary     string
	Description string
	Status      string
	ImpactStats []models.ImpactMetric
	ImageURL    string
	Order       int
}

func (in Input) normalized() (Input, error) {
	in.Slug = normalize.Slug(in.Slug)
	if in.Slug == "" {
		in.Slug = normalize.Slug(in.Title)
	}
	in.Status = normalize.Status(in.Status)
	if in.Status == "" {
		in.Status = models.ProjectActive
	}
	if !models.IsValidProjectStatus(in.Status) {
		return in, ErrBadStatus
	}
	return in, nil
}

// Create inserts a project.
func (s *Store) Create(ctx context.Context, in Input) (models.Project, error) {
	in, err := in.normalized()
	if err != nil {
		return models.Project{}, err
	}
	now := time.Now().UTC()
	p := models.Project{
		ID:          primitive.NewObjectID(),
		Title:       in.Title,
		Slug:        in.Slug,
		Summary:     in.Summary,
		Description: in.Description,
		Status:      in.Status,
		ImpactStats: in.ImpactStats,
		ImageURL:    in.ImageURL,
		Order:       in.Order,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := s.c.InsertOne(ctx, p); err != nil {
		if storeutil.IsDup(err) {
			return models.Project{}, ErrDuplicateSlug
		}
		return models.Project{}, err
	}
	return p, nil
}

// Update replaces the editable fields of a project.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, in Input) error {
	in, err := in.normalized()
	if err != nil {
		return err
	}
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"title":        in.Title,
		"slug":         in.Slug,
		"summary":      in.Summary,
		"description":  in.Description,
		"status":       in.Status,
		"impact_stats": in.ImpactStats,
		"image_url":    in.ImageURL,
		"order":        in.Order,
		"updated_at":   time.Now().UTC(),
	}})
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

// GetByID loads a project.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Project, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

// GetBySlug loads a project by slug.
func (s *Store) GetBySlug(ctx context.Context, slug string) (models.Project, error) {
	return s.findOne(ctx, bson.M{"slug": slug})
}

func (s *Store) findOne(ctx context.Context, filter bson.M) (models.Project, error) {
	var p models.Project
	err := s.c.FindOne(ctx, filter).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Project{}, ErrNotFound
	}
	return p, err
}

// Delete removes a project.
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

var displayOrder = options.Find().SetSort(bson.D{{Key: "order", Value: 1}, {Key: "title", Value: 1}})

// List returns every project in display order.
func (s *Store) List(ctx context.Context) ([]models.Project, error) {
	return s.find(ctx, bson.M{})
}

// ListByStatus returns projects with the given status in display order.
func (s *Store) ListByStatus(ctx context.Context, status string) ([]models.Project, error) {
	return s.find(ctx, bson.M{"status": status})
}

// Grouped returns projects keyed by status.
func (s *Store) Grouped(ctx context.Context) (map[string][]models.Project, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string][]models.Project, 3)
	for _, p := range all {
		out[p.Status] = append(out[p.Status], p)
	}
	return out, nil
}

func (s *Store) find(ctx context.Context, filter bson.M) ([]models.Project, error) {
	cur, err := s.c.Find(ctx, filter, displayOrder)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Project
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
