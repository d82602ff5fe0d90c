package authz

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/strataimpact/internal/app/system/auth"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func requestAs(role, id string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	if role == "" {
		return req
	}
	return auth.WithTestUser(req, &auth.SessionUser{ID: id, Name: "Sam", Role: role})
}

func TestUserCtx(t *testing.T) {
	id := primitive.NewObjectID()
	role, name, got, ok := UserCtx(requestAs("ADMIN", id.Hex()))
	if !ok || role != "admin" || name != "Sam" || got != id {
		t.Errorf("UserCtx() = %q, %q, %v, %v", role, name, got, ok)
	}

	role, _, _, ok = UserCtx(requestAs("admin", "bad"))
	if ok || role != "visitor" {
		t.Errorf("UserCtx(malformed id) = %q, %v; want visitor, false", role, ok)
	}

	if _, _, _, ok := UserCtx(requestAs("", "")); ok {
		t.Error("UserCtx(anonymous) ok = true")
	}
}

func TestRoleChecks(t *testing.T) {
	hex := primitive.NewObjectID().Hex()
	tests := []struct {
		role        string
		wantAdmin   bool
		wantContent bool
		wantLogged  bool
	}{
		{"admin", true, true, true},
		{"editor", false, true, true},
		{"viewer", false, false, true},
		{"", false, false, false},
	}
	for _, tt := range tests {
		t.Run("role="+tt.role, func(t *testing.T) {
			r := requestAs(tt.role, hex)
			if got := IsAdmin(r); got != tt.wantAdmin {
				t.Errorf("IsAdmin() = %v, want %v", got, tt.wantAdmin)
			}
			if got := CanEditContent(r); got != tt.wantContent {
				t.Errorf("CanEditContent() = %v, want %v", got, tt.wantContent)
			}
			if got := IsLoggedIn(r); got != tt.wantLogged {
				t.Errorf("IsLoggedIn() = %v, want %v", got, tt.wantLogged)
			}
		})
	}
}
