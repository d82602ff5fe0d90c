// internal/domain/models/user.go
package models

// Terminology: User Identifiers
//   - UserID / userID / user_id: The MongoDB ObjectID (_id) that uniquely identifies a user record
//   - LoginID / loginID / login_id: The email address an admin types to sign in

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is a back-office account.
//
// Auth fields:
//   - LoginID: the admin's email address (stored lowercase)
//   - LoginIDCI: case/diacritic-insensitive version for matching (folded)
//   - PasswordHash: bcrypt hash
type User struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FullName   string             `bson:"full_name" json:"full_name"`
	FullNameCI string             `bson:"full_name_ci" json:"full_name_ci"`

	LoginID   string `bson:"login_id" json:"login_id"`
	LoginIDCI string `bson:"login_id_ci" json:"login_id_ci"`

	PasswordHash string `bson:"password_hash,omitempty" json:"-"`

	Role   string `bson:"role" json:"role"`
	Status string `bson:"status,omitempty" json:"status,omitempty"` // active, disabled

	LastLoginAt *time.Time `bson:"last_login_at,omitempty" json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `bson:"updated_at" json:"updated_at"`
}

// User roles
const (
	RoleAdmin  = "admin"
	RoleEditor = "editor"
)

// AllRoles returns all valid user roles.
func AllRoles() []string {
	return []string{RoleAdmin, RoleEditor}
}

// IsValidRole checks if a role is valid.
func IsValidRole(role string) bool {
	return contains(AllRoles(), role)
}

// User statuses
const (
	UserActive   = "active"
	UserDisabled = "disabled"
)
