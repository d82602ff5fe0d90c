// internal/domain/models/event.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Event is a public event people can register for.
//
// Capacity holds the number of remaining registration slots. A nil Capacity
// means the event is uncapped. RegistrationDeadline may be nil for events
// that accept registrations until they happen.
type Event struct {
	ID                   primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title                string             `bson:"title" json:"title"`
	Slug                 string             `bson:"slug" json:"slug"`
	Summary              string             `bson:"summary" json:"summary"`
	Description          string             `bson:"description" json:"description"` // sanitized HTML
	Location             string             `bson:"location" json:"location"`
	StartsAt             time.Time          `bson:"starts_at" json:"starts_at"`
	EndsAt               *time.Time         `bson:"ends_at,omitempty" json:"ends_at,omitempty"`
	Capacity             *int               `bson:"capacity,omitempty" json:"capacity,omitempty"`
	RegistrationDeadline *time.Time         `bson:"registration_deadline,omitempty" json:"registration_deadline,omitempty"`
	Gallery              []GalleryImage     `bson:"gallery,omitempty" json:"gallery,omitempty"`
	Impact               []ImpactMetric     `bson:"impact,omitempty" json:"impact,omitempty"`
	Published            bool               `bson:"published" json:"published"`
	CreatedAt            time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt            time.Time          `bson:"updated_at" json:"updated_at"`
}

// GalleryImage is one photo attached to an event.
type GalleryImage struct {
	URL     string `bson:"url" json:"url"`
	Path    string `bson:"path,omitempty" json:"path,omitempty"` // storage path when uploaded
	Caption string `bson:"caption,omitempty" json:"caption,omitempty"`
}

// ImpactMetric is a labelled figure such as "Meals served: 1,200".
type ImpactMetric struct {
	Label string `bson:"label" json:"label"`
	Value string `bson:"value" json:"value"`
}

// Uncapped reports whether the event accepts unlimited registrations.
func (e Event) Uncapped() bool {
	return e.Capacity == nil
}

// SpotsLeft returns the remaining capacity, or -1 when uncapped.
func (e Event) SpotsLeft() int {
	if e.Capacity == nil {
		return -1
	}
	if *e.Capacity < 0 {
		return 0
	}
	return *e.Capacity
}

// Full reports whether a capped event has no spots left.
func (e Event) Full() bool {
	return e.Capacity != nil && *e.Capacity <= 0
}

// DeadlinePassed reports whether now is after the registration deadline.
func (e Event) DeadlinePassed(now time.Time) bool {
	return e.RegistrationDeadline != nil && now.After(*e.RegistrationDeadline)
}

// RegistrationOpen reports whether a registration made at now can be accepted.
func (e Event) RegistrationOpen(now time.Time) bool {
	return !e.DeadlinePassed(now) && !e.Full()
}

// Upcoming reports whether the event starts at or after now.
func (e Event) Upcoming(now time.Time) bool {
	return !e.StartsAt.Before(now)
}
