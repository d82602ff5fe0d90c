// internal/domain/models/contact.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ContactMessage is a message sent through the public contact form.
type ContactMessage struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Email       string             `bson:"email" json:"email"` // lowercase, trimmed
	Subject     string             `bson:"subject" json:"subject"`
	Message     string             `bson:"message" json:"message"`
	InquiryType string             `bson:"inquiry_type" json:"inquiry_type"`
	Urgency     string             `bson:"urgency" json:"urgency"`
	Status      string             `bson:"status" json:"status"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updated_at"`
}

// Contact message statuses
const (
	MessageStatusNew      = "new"
	MessageStatusRead     = "read"
	MessageStatusReplied  = "replied"
	MessageStatusArchived = "archived"
)

// AllMessageStatuses returns the statuses in workflow order.
func AllMessageStatuses() []string {
	return []string{MessageStatusNew, MessageStatusRead, MessageStatusReplied, MessageStatusArchived}
}

// IsValidMessageStatus reports whether s is a known message status.
func IsValidMessageStatus(s string) bool {
	return contains(AllMessageStatuses(), s)
}

// Inquiry types
const (
	InquiryGeneral     = "general"
	InquiryVolunteer   = "volunteer"
	InquiryPartnership = "partnership"
	InquiryDonation    = "donation"
	InquiryMedia       = "media"
)

// AllInquiryTypes returns the inquiry types offered on the contact form.
func AllInquiryTypes() []string {
	return []string{InquiryGeneral, InquiryVolunteer, InquiryPartnership, InquiryDonation, InquiryMedia}
}

// Urgency levels
const (
	UrgencyLow    = "low"
	UrgencyNormal = "normal"
	UrgencyHigh   = "high"
)

// AllUrgencies returns the urgency levels offered on the contact form.
func AllUrgencies() []string {
	return []string{UrgencyLow, UrgencyNormal, UrgencyHigh}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
