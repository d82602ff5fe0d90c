package pages

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	eventstore "github.com/dalemusser/strataimpact/internal/app/store/events"
	faqstore "github.com/dalemusser/strataimpact/internal/app/store/faqs"
	pagestore "github.com/dalemusser/strataimpact/internal/app/store/pages"
	projectstore "github.com/dalemusser/strataimpact/internal/app/store/projects"
	"github.com/dalemusser/strataimpact/internal/domain/models"
	"github.com/dalemusser/strataimpact/internal/testutil"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*Handler, *mongo.Database) {
	t.Helper()
	testutil.MustBootTemplates(t)
	db := testutil.SetupTestDB(t)
	return NewHandler(db, nil, nil, zap.NewNop()), db
}

func serve(h http.HandlerFunc, req *http.Request) *testutil.ResponseRecorder {
	rec := testutil.NewRecorder()
	h(rec, req)
	return rec
}

func get(target string) *http.Request {
	return testutil.WithCSRFToken(httptest.NewRequest(http.MethodGet, target, nil))
}

func withSlug(req *http.Request, slug string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("slug", slug)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestShow_MissingPageUsesDefaultTitle(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := serve(h.Show(models.PageSlugTerms), get("/terms"))

	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "Terms of Service")
}

func TestShow_SavedPage(t *testing.T) {
	h, db := newTestHandler(t)
	err := pagestore.New(db).Upsert(context.Background(), models.Page{
		Slug:    models.PageSlugResources,
		Title:   "Toolkits",
		Content: "<p>Download our volunteer guide.</p>",
	})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	rec := serve(h.Show(models.PageSlugResources), get("/resources"))

	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "Toolkits")
	rec.AssertContains(t, "Download our volunteer guide.")
}

func TestShow_GetInvolvedListsPublishedFAQs(t *testing.T) {
	h, db := newTestHandler(t)
	ctx := context.Background()
	faqs := faqstore.New(db, zap.NewNop())
	if _, err := faqs.Create(ctx, faqstore.Input{Question: "How do I volunteer?", Answer: "Fill in the form.", Published: true}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := faqs.Create(ctx, faqstore.Input{Question: "Hidden question", Answer: "Draft.", Published: false}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	rec := serve(h.Show(models.PageSlugGetInvolved), get("/get-involved"))

	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "How do I volunteer?")
	rec.AssertNotContains(t, "Hidden question")
	rec.AssertContains(t, `action="/newsletter/subscribe"`)
}

func TestShow_MediaAggregatesGalleries(t *testing.T) {
	h, db := newTestHandler(t)
	ctx := context.Background()
	events := eventstore.New(db)
	ev, err := events.Create(ctx, eventstore.Input{
		Title:     "Park Cleanup",
		StartsAt:  time.Now().Add(-48 * time.Hour),
		Published: true,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	img := models.GalleryImage{URL: "/uploads/gallery/cleanup.jpg", Caption: "Volunteers at work"}
	if err := events.AddGalleryImage(ctx, ev.ID, img); err != nil {
		t.Fatalf("AddGalleryImage: %v", err)
	}

	rec := serve(h.Show(models.PageSlugMedia), get("/media"))

	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "/uploads/gallery/cleanup.jpg")
	rec.AssertContains(t, "Park Cleanup")
}

func TestShow_SuccessStoriesShowsCompletedProjects(t *testing.T) {
	h, db := newTestHandler(t)
	ctx := context.Background()
	projects := projectstore.New(db)
	_, err := projects.Create(ctx, projectstore.Input{
		Title:       "Winter Coats",
		Status:      models.ProjectCompleted,
		ImpactStats: []models.ImpactMetric{{Label: "coats given", Value: "1,200"}},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := projects.Create(ctx, projectstore.Input{Title: "Reading Buddies", Status: models.ProjectActive}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	rec := serve(h.Show(models.PageSlugSuccessStories), get("/success-stories"))

	rec.AssertContains(t, "Winter Coats")
	rec.AssertContains(t, "1,200")
	rec.AssertNotContains(t, "Reading Buddies")
}

func TestUpdate_SavesSanitizedContent(t *testing.T) {
	h, db := newTestHandler(t)
	form := url.Values{
		"title":   {"Privacy"},
		"content": {`<p>We respect your data.</p><script>alert(1)</script>`},
	}
	req := withSlug(testutil.NewAuthenticatedForm("/admin/pages/privacy", form, testutil.EditorUser()), "privacy")

	rec := serve(h.Update, req)

	rec.AssertRedirect(t, "/admin/pages/privacy/edit?success=1")
	found, err := pagestore.New(db).GetBySlug(context.Background(), "privacy")
	if err != nil {
		t.Fatalf("GetBySlug: %v", err)
	}
	page, ok := found.Get()
	if !ok {
		t.Fatal("page was not saved")
	}
	if page.Content != "<p>We respect your data.</p>" {
		t.Errorf("content = %q", page.Content)
	}
	if page.UpdatedByName != "Test Editor" {
		t.Errorf("updated by = %q", page.UpdatedByName)
	}
}

func TestUpdate_RequiresTitle(t *testing.T) {
	h, _ := newTestHandler(t)
	form := url.Values{"title": {""}, "content": {"Body"}}
	req := withSlug(testutil.NewAuthenticatedForm("/admin/pages/terms", form, testutil.AdminUser()), "terms")

	rec := serve(h.Update, req)

	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "Title is required")
}

func TestEdit_UnknownSlug(t *testing.T) {
	h, _ := newTestHandler(t)
	req := withSlug(testutil.NewAuthenticatedRequestWithCSRF(http.MethodGet, "/admin/pages/nope/edit", testutil.AdminUser()), "nope")

	rec := serve(h.Edit, req)

	rec.AssertStatus(t, http.StatusNotFound)
}

func TestList_ShowsEverySlug(t *testing.T) {
	h, _ := newTestHandler(t)
	rec := serve(h.List, testutil.NewAuthenticatedRequestWithCSRF(http.MethodGet, "/admin/pages", testutil.AdminUser()))

	rec.AssertStatus(t, http.StatusOK)
	for _, slug := range models.AllPageSlugs() {
		rec.AssertContains(t, "/admin/pages/"+slug+"/edit")
	}
}
