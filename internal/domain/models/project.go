// internal/domain/models/project.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Project is a program or initiative run by the organization.
type Project struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title       string             `bson:"title" json:"title"`
	Slug        string             `bson:"slug" json:"slug"`
	Summary     string             `bson:"summary" json:"summary"`
	Description string             `bson:"description" json:"description"` // sanitized HTML
	Status      string             `bson:"status" json:"status"`
	ImpactStats []ImpactMetric     `bson:"impact_stats,omitempty" json:"impact_stats,omitempty"`
	ImageURL    string             `bson:"image_url,omitempty" json:"image_url,omitempty"`
	Order       int                `bson:"order" json:"order"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updated_at"`
}

// Project statuses
const (
	ProjectPlanned   = "planned"
	ProjectActive    = "active"
	ProjectCompleted = "completed"
)

// AllProjectStatuses returns the project statuses in display order.
func AllProjectStatuses() []string {
	return []string{ProjectActive, ProjectPlanned, ProjectCompleted}
}

// IsValidProjectStatus reports whether s is a known project status.
func IsValidProjectStatus(s string) bool {
	return contains(AllProjectStatuses(), s)
}
