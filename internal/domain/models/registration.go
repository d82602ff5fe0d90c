// internal/domain/models/registration.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Registration is one attendee's sign-up for an event.
// (EventID, EmailCI) is unique.
type Registration struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	EventID          primitive.ObjectID `bson:"event_id" json:"event_id"`
	Name             string             `bson:"name" json:"name"`
	Email            string             `bson:"email" json:"email"`
	EmailCI          string             `bson:"email_ci" json:"-"` // lowercase, trimmed
	Phone            string             `bson:"phone,omitempty" json:"phone,omitempty"`
	Organization     string             `bson:"organization,omitempty" json:"organization,omitempty"`
	Dietary          string             `bson:"dietary,omitempty" json:"dietary,omitempty"`
	SpecialNeeds     string             `bson:"special_needs,omitempty" json:"special_needs,omitempty"`
	Status           string             `bson:"status" json:"status"`
	ConfirmationCode string             `bson:"confirmation_code" json:"confirmation_code"`
	CreatedAt        time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt        time.Time          `bson:"updated_at" json:"updated_at"`
}

// Registration statuses
const (
	RegistrationPending   = "pending"
	RegistrationConfirmed = "confirmed"
	RegistrationCancelled = "cancelled"
)

// AllRegistrationStatuses returns the statuses an admin can assign.
func AllRegistrationStatuses() []string {
	return []string{RegistrationPending, RegistrationConfirmed, RegistrationCancelled}
}

// IsValidRegistrationStatus reports whether s is a known registration status.
func IsValidRegistrationStatus(s string) bool {
	return contains(AllRegistrationStatuses(), s)
}
