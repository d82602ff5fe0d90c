// internal/domain/models/subscriber.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Subscriber is a newsletter subscription. EmailCI is unique.
type Subscriber struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name      string             `bson:"name,omitempty" json:"name,omitempty"`
	Email     string             `bson:"email" json:"email"`
	EmailCI   string             `bson:"email_ci" json:"-"`
	Source    string             `bson:"source,omitempty" json:"source,omitempty"` // form the visitor used: home, footer, get-involved
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}
