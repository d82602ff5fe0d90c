// internal/app/system/authz/authz.go
package authz

import (
	"net/http"

	"github.com/dalemusser/strataimpact/internal/app/system/auth"
	"github.com/dalemusser/strataimpact/internal/app/system/normalize"
	"github.com/dalemusser/strataimpact/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ContentRoles may edit public content.
var ContentRoles = []string{models.RoleAdmin, models.RoleEditor}

// AdminRoles may see visitor data: messages, subscribers and registrations.
var AdminRoles = []string{models.RoleAdmin}

// UserCtx returns the current user's normalized role, name and ID. ok is
// false for visitors and for sessions carrying a malformed ID.
func UserCtx(r *http.Request) (role, name string, userID primitive.ObjectID, ok bool) {
	u, found := auth.CurrentUser(r)
	if !found {
		return "visitor", "", primitive.NilObjectID, false
	}
	id, err := primitive.ObjectIDFromHex(u.ID)
	if err != nil {
		return "visitor", "", primitive.NilObjectID, false
	}
	return normalize.Role(u.Role), u.Name, id, true
}

// HasRole reports whether the current user holds one of roles.
func HasRole(r *http.Request, roles ...string) bool {
	role, _, _, ok := UserCtx(r)
	if !ok {
		return false
	}
	for _, want := range roles {
		if normalize.Role(want) == role {
			return true
		}
	}
	return false
}

// IsAdmin reports whether the current user is an admin.
func IsAdmin(r *http.Request) bool { return HasRole(r, AdminRoles...) }

// CanEditContent reports whether the current user may edit public content.
func CanEditContent(r *http.Request) bool { return HasRole(r, ContentRoles...) }

// IsLoggedIn reports whether a user is signed in.
func IsLoggedIn(r *http.Request) bool {
	_, ok := auth.CurrentUser(r)
	return ok
}
