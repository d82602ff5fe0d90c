package projects

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"testing"

	projectstore "github.com/dalemusser/strataimpact/internal/app/store/projects"
	"github.com/dalemusser/strataimpact/internal/app/system/auth"
	"github.com/dalemusser/strataimpact/internal/domain/models"
	"github.com/dalemusser/strataimpact/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setup(t *testing.T) (*Handler, *projectstore.Store) {
	t.Helper()
	testutil.MustBootTemplates(t)
	db := testutil.SetupTestDB(t)
	return NewHandler(db, nil, nil, nil, zap.NewNop()), projectstore.New(db)
}

func TestList_GroupsByStatus(t *testing.T) {
	h, store := setup(t)
	ctx := context.Background()
	for _, in := range []projectstore.Input{
		{Title: "Food Bank", Status: models.ProjectActive},
		{Title: "Library Build", Status: models.ProjectCompleted},
		{Title: "Clinic", Status: models.ProjectPlanned},
	} {
		_, err := store.Create(ctx, in)
		require.NoError(t, err)
	}

	rec := testutil.NewRecorder()
	Routes(h).ServeHTTP(rec, testutil.NewRequest(http.MethodGet, "/"))

	rec.AssertStatus(t, http.StatusOK)
	body := rec.Body.String()
	current := strings.Index(body, "Current programs")
	soon := strings.Index(body, "Coming soon")
	done := strings.Index(body, "Completed")
	require.True(t, current >= 0 && soon >= 0 && done >= 0, "missing a status heading")
	assert.Less(t, current, strings.Index(body, "Food Bank"))
	assert.Less(t, current, soon)
	assert.Less(t, soon, strings.Index(body, "Clinic"))
	assert.Less(t, done, strings.Index(body, "Library Build"))
}

func TestShow(t *testing.T) {
	h, store := setup(t)
	_, err := store.Create(context.Background(), projectstore.Input{
		Title:       "Food Bank",
		Description: "<p>Weekly groceries</p>",
		ImpactStats: []models.ImpactMetric{{Value: "1,200", Label: "families fed"}},
	})
	require.NoError(t, err)

	rec := testutil.NewRecorder()
	Routes(h).ServeHTTP(rec, testutil.NewRequest(http.MethodGet, "/food-bank"))

	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "<p>Weekly groceries</p>")
	rec.AssertContains(t, "families fed")

	rec = testutil.NewRecorder()
	Routes(h).ServeHTTP(rec, testutil.NewRequest(http.MethodGet, "/missing"))
	rec.AssertStatus(t, http.StatusNotFound)
}

func TestAdminCreate(t *testing.T) {
	h, store := setup(t)
	form := url.Values{
		"title":       {"Tree Planting"},
		"status":      {"planned"},
		"description": {`<p>Plant trees</p><script>alert(1)</script>`},
		"impact":      {"500 | saplings"},
		"order":       {"2"},
	}

	rec := testutil.NewRecorder()
	AdminRoutes(h, &auth.SessionManager{}).ServeHTTP(rec, testutil.NewAuthenticatedForm("/", form, testutil.EditorUser()))

	rec.AssertRedirect(t, "/admin/projects?success=created")
	p, err := store.GetBySlug(context.Background(), "tree-planting")
	require.NoError(t, err)
	assert.Equal(t, models.ProjectPlanned, p.Status)
	assert.Equal(t, 2, p.Order)
	assert.NotContains(t, p.Description, "<script>")
	assert.Equal(t, []models.ImpactMetric{{Value: "500", Label: "saplings"}}, p.ImpactStats)
}

func TestAdminCreate_Rejections(t *testing.T) {
	h, store := setup(t)
	_, err := store.Create(context.Background(), projectstore.Input{Title: "Tree Planting"})
	require.NoError(t, err)

	tests := []struct {
		name string
		form url.Values
		want string
	}{
		{"duplicate slug", url.Values{"title": {"Tree Planting"}, "status": {"active"}}, "Another project already uses this slug."},
		{"bad status", url.Values{"title": {"Other"}, "status": {"paused"}}, "Status must be one of: active, planned, completed."},
		{"missing title", url.Values{"status": {"active"}}, "Title is required."},
		{"bad image url", url.Values{"title": {"Other"}, "status": {"active"}, "image_url": {"javascript:alert(1)"}}, "Image URL must be a path starting with /"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := testutil.NewRecorder()
			AdminRoutes(h, &auth.SessionManager{}).ServeHTTP(rec, testutil.NewAuthenticatedForm("/", tt.form, testutil.EditorUser()))
			rec.AssertStatus(t, http.StatusOK)
			rec.AssertContains(t, tt.want)
		})
	}
}

func TestAdmin_RequiresContentRole(t *testing.T) {
	h, _ := setup(t)
	rec := testutil.NewRecorder()
	AdminRoutes(h, &auth.SessionManager{}).ServeHTTP(rec, testutil.NewAuthenticatedRequest(http.MethodGet, "/", testutil.TestUser{ID: "x", Role: "viewer"}))
	rec.AssertStatus(t, http.StatusForbidden)
}
