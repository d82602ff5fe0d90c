// internal/domain/models/page.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Page holds the editable intro of a public content page.
type Page struct {
	ID      primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Slug    string             `bson:"slug" json:"slug"`       // URL slug, see AllPageSlugs
	Title   string             `bson:"title" json:"title"`     // Display title
	Content string             `bson:"content" json:"content"` // Sanitized HTML

	UpdatedAt     *time.Time          `bson:"updated_at,omitempty" json:"updated_at,omitempty"`
	UpdatedByID   *primitive.ObjectID `bson:"updated_by_id,omitempty" json:"updated_by_id,omitempty"`
	UpdatedByName string              `bson:"updated_by_name,omitempty" json:"updated_by_name,omitempty"`
}

// Page slugs
const (
	PageSlugGetInvolved    = "get-involved"
	PageSlugMedia          = "media"
	PageSlugResources      = "resources"
	PageSlugSuccessStories = "success-stories"
	PageSlugTerms          = "terms"
	PageSlugPrivacy        = "privacy"
)

// pageTitles maps each slug to the title shown when the page has no document yet.
var pageTitles = map[string]string{
	PageSlugGetInvolved:    "Get Involved",
	PageSlugMedia:          "Media",
	PageSlugResources:      "Resources",
	PageSlugSuccessStories: "Success Stories",
	PageSlugTerms:          "Terms of Service",
	PageSlugPrivacy:        "Privacy Policy",
}

// AllPageSlugs returns all valid page slugs in menu order.
func AllPageSlugs() []string {
	return []string{
		PageSlugGetInvolved,
		PageSlugMedia,
		PageSlugResources,
		PageSlugSuccessStories,
		PageSlugTerms,
		PageSlugPrivacy,
	}
}

// IsValidPageSlug checks if a slug is valid.
func IsValidPageSlug(slug string) bool {
	_, ok := pageTitles[slug]
	return ok
}

// DefaultPageTitle returns the built-in title for slug, or "" if the slug is unknown.
func DefaultPageTitle(slug string) string {
	return pageTitles[slug]
}
