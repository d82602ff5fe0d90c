// internal/app/store/pages/pagestore.go
package pagestore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/strataimpact/internal/app/store/storeutil"
	"github.com/dalemusser/strataimpact/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrUnknownSlug is returned for a slug outside models.AllPageSlugs.
var ErrUnknownSlug = errors.New("unknown page slug")

// Store holds the intro text of the fixed set of content pages, one
// document per slug. A page nobody has edited has no document.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("pages")}
}

// GetBySlug returns None when the page was never saved.
func (s *Store) GetBySlug(ctx context.Context, slug string) (storeutil.Optional[models.Page], error) {
	var page models.Page
	switch err := s.c.FindOne(ctx, bson.M{"slug": slug}).Decode(&page); {
	case errors.Is(err, mongo.ErrNoDocuments):
		return storeutil.None[models.Page](), nil
	case err != nil:
		return storeutil.None[models.Page](), err
	}
	return storeutil.Some(page), nil
}

// Upsert writes title, content and the editor of page.Slug.
func (s *Store) Upsert(ctx context.Context, page models.Page) error {
	if !models.IsValidPageSlug(page.Slug) {
		return ErrUnknownSlug
	}
	_, err := s.c.UpdateOne(ctx, bson.M{"slug": page.Slug}, bson.M{
		"$set": bson.M{
			"title":           page.Title,
			"content":         page.Content,
			"updated_at":      time.Now().UTC(),
			"updated_by_id":   page.UpdatedByID,
			"updated_by_name": page.UpdatedByName,
		},
		"$setOnInsert": bson.M{"_id": primitive.NewObjectID()},
	}, options.Update().SetUpsert(true))
	return err
}

// InsertIfMissing stores page only when its slug has no document yet and
// reports whether it did. Seeding uses it so an edited page survives a
// restart.
func (s *Store) InsertIfMissing(ctx context.Context, page models.Page) (bool, error) {
	if !models.IsValidPageSlug(page.Slug) {
		return false, ErrUnknownSlug
	}
	res, err := s.c.UpdateOne(ctx, bson.M{"slug": page.Slug}, bson.M{
		"$setOnInsert": bson.M{
			"_id":     primitive.NewObjectID(),
			"title":   page.Title,
			"content": page.Content,
		},
	}, options.Update().SetUpsert(true))
	if err != nil {
		return false, err
	}
	return res.UpsertedCount == 1, nil
}

// BySlug returns every saved page keyed by slug.
func (s *Store) BySlug(ctx context.Context) (map[string]models.Page, error) {
	cur, err := s.c.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	var pages []models.Page
	if err := cur.All(ctx, &pages); err != nil {
		return nil, err
	}
	out := make(map[string]models.Page, len(pages))
	for _, p := range pages {
		out[p.Slug] = p
	}
	return out, nil
}
