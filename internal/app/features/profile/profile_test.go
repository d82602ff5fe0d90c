package profile

import (
	"context"
	"net/http"
	"net/url"
	"testing"

	userstore "github.com/dalemusser/strataimpact/internal/app/store/users"
	"github.com/dalemusser/strataimpact/internal/app/system/auth"
	"github.com/dalemusser/strataimpact/internal/app/system/authutil"
	"github.com/dalemusser/strataimpact/internal/domain/models"
	"github.com/dalemusser/strataimpact/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const currentPassword = "current-password-1"

func setup(t *testing.T) (http.Handler, *userstore.Store, models.User) {
	t.Helper()
	testutil.MustBootTemplates(t)
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)

	hash, err := authutil.HashPassword(currentPassword)
	require.NoError(t, err)
	u, err := store.Create(context.Background(), models.User{
		FullName:     "Riley Editor",
		LoginID:      "riley@example.org",
		Role:         models.RoleEditor,
		PasswordHash: hash,
	})
	require.NoError(t, err)

	return Routes(NewHandler(db, nil, nil, zap.NewNop()), &auth.SessionManager{}), store, u
}

func actor(u models.User) testutil.TestUser {
	return testutil.TestUser{ID: u.ID.Hex(), Name: u.FullName, Email: u.LoginID, Role: u.Role}
}

func TestShow(t *testing.T) {
	routes, _, u := setup(t)

	rec := testutil.NewRecorder()
	routes.ServeHTTP(rec, testutil.NewAuthenticatedRequest(http.MethodGet, "/?success=password", actor(u)))

	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "riley@example.org")
	rec.AssertContains(t, "Riley Editor")
	rec.AssertContains(t, "Password changed.")
}

func TestShow_UnknownUser(t *testing.T) {
	routes, _, _ := setup(t)

	rec := testutil.NewRecorder()
	routes.ServeHTTP(rec, testutil.NewAuthenticatedRequest(http.MethodGet, "/", testutil.EditorUser()))

	rec.AssertStatus(t, http.StatusNotFound)
}

func TestUpdateName(t *testing.T) {
	routes, store, u := setup(t)

	rec := testutil.NewRecorder()
	routes.ServeHTTP(rec, testutil.NewAuthenticatedForm("/name", url.Values{"full_name": {"Riley Q. Editor"}}, actor(u)))
	rec.AssertRedirect(t, "/admin/profile?success=name")

	got, err := store.GetByID(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Riley Q. Editor", got.FullName)
	assert.Equal(t, models.RoleEditor, got.Role)
}

func TestUpdateName_Blank(t *testing.T) {
	routes, store, u := setup(t)

	rec := testutil.NewRecorder()
	routes.ServeHTTP(rec, testutil.NewAuthenticatedForm("/name", url.Values{"full_name": {""}}, actor(u)))
	rec.AssertStatus(t, http.StatusBadRequest)

	got, err := store.GetByID(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Riley Editor", got.FullName)
}

func TestChangePassword(t *testing.T) {
	routes, store, u := setup(t)

	rec := testutil.NewRecorder()
	routes.ServeHTTP(rec, testutil.NewAuthenticatedForm("/password", url.Values{
		"current_password": {currentPassword},
		"new_password":     {"a-fresh-passphrase"},
		"confirm_password": {"a-fresh-passphrase"},
	}, actor(u)))
	rec.AssertRedirect(t, "/admin/profile?success=password")

	got, err := store.GetByID(context.Background(), u.ID)
	require.NoError(t, err)
	assert.True(t, authutil.CheckPassword("a-fresh-passphrase", got.PasswordHash))
}

func TestChangePassword_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		form    url.Values
		message string
	}{
		{"wrong current", url.Values{
			"current_password": {"not-my-password"},
			"new_password":     {"a-fresh-passphrase"},
			"confirm_password": {"a-fresh-passphrase"},
		}, "Current password is incorrect."},
		{"too short", url.Values{
			"current_password": {currentPassword},
			"new_password":     {"short"},
			"confirm_password": {"short"},
		}, "at least 10 characters"},
		{"mismatch", url.Values{
			"current_password": {currentPassword},
			"new_password":     {"a-fresh-passphrase"},
			"confirm_password": {"another-passphrase"},
		}, "New passwords do not match."},
		{"reuse", url.Values{
			"current_password": {currentPassword},
			"new_password":     {currentPassword},
			"confirm_password": {currentPassword},
		}, "cannot be the same"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			routes, store, u := setup(t)

			rec := testutil.NewRecorder()
			routes.ServeHTTP(rec, testutil.NewAuthenticatedForm("/password", tt.form, actor(u)))
			rec.AssertStatus(t, http.StatusBadRequest)
			rec.AssertContains(t, tt.message)

			got, err := store.GetByID(context.Background(), u.ID)
			require.NoError(t, err)
			assert.True(t, authutil.CheckPassword(currentPassword, got.PasswordHash))
		})
	}
}
