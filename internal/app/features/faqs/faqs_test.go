package faqs

import (
	"context"
	"net/http"
	"net/url"
	"testing"

	faqstore "github.com/dalemusser/strataimpact/internal/app/store/faqs"
	"github.com/dalemusser/strataimpact/internal/app/system/auth"
	"github.com/dalemusser/strataimpact/internal/domain/models"
	"github.com/dalemusser/strataimpact/internal/testutil"
	"go.uber.org/zap"
)

func setup(t *testing.T) (http.Handler, *faqstore.Store) {
	t.Helper()
	testutil.MustBootTemplates(t)
	db := testutil.SetupTestDB(t)
	h := NewHandler(db, nil, nil, zap.NewNop())
	return AdminRoutes(h, &auth.SessionManager{}), faqstore.New(db, zap.NewNop())
}

func seed(t *testing.T, store *faqstore.Store, questions ...string) []models.FAQ {
	t.Helper()
	var out []models.FAQ
	for _, q := range questions {
		f, err := store.Create(context.Background(), faqstore.Input{Question: q, Answer: "A", Published: true})
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		out = append(out, f)
	}
	return out
}

func questions(t *testing.T, store *faqstore.Store) []string {
	t.Helper()
	list, err := store.List(context.Background(), false)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	out := make([]string, len(list))
	for i, f := range list {
		out[i] = f.Question
	}
	return out
}

func TestMoveUp_SwapsOrder(t *testing.T) {
	routes, store := setup(t)
	faqs := seed(t, store, "Q1", "Q2", "Q3")

	rec := testutil.NewRecorder()
	routes.ServeHTTP(rec, testutil.NewAuthenticatedForm("/"+faqs[1].ID.Hex()+"/up", url.Values{}, testutil.EditorUser()))

	rec.AssertRedirect(t, "/admin/faqs?success=reordered")
	got := questions(t, store)
	want := []string{"Q2", "Q1", "Q3"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
	moved, _ := store.GetByID(context.Background(), faqs[1].ID)
	if moved.Order != faqs[0].Order {
		t.Errorf("moved order = %d, want %d", moved.Order, faqs[0].Order)
	}
}

func TestMoveDown_LastIsNoop(t *testing.T) {
	routes, store := setup(t)
	faqs := seed(t, store, "Q1", "Q2")

	rec := testutil.NewRecorder()
	routes.ServeHTTP(rec, testutil.NewAuthenticatedForm("/"+faqs[1].ID.Hex()+"/down", url.Values{}, testutil.EditorUser()))

	rec.AssertRedirect(t, "/admin/faqs?success=reordered")
	if got := questions(t, store); got[0] != "Q1" || got[1] != "Q2" {
		t.Errorf("order = %v, want unchanged", got)
	}
}

func TestCreate_AppendsAndValidates(t *testing.T) {
	routes, store := setup(t)
	seed(t, store, "Q1")

	rec := testutil.NewRecorder()
	routes.ServeHTTP(rec, testutil.NewAuthenticatedForm("/", url.Values{"question": {"Q2"}}, testutil.EditorUser()))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "Answer is required.")

	rec = testutil.NewRecorder()
	form := url.Values{"question": {"Q2"}, "answer": {"Yes."}, "published": {"on"}}
	routes.ServeHTTP(rec, testutil.NewAuthenticatedForm("/", form, testutil.EditorUser()))
	rec.AssertRedirect(t, "/admin/faqs?success=created")
	if got := questions(t, store); len(got) != 2 || got[1] != "Q2" {
		t.Errorf("questions = %v", got)
	}
}

func TestToggle_HidesFromPublicList(t *testing.T) {
	routes, store := setup(t)
	faqs := seed(t, store, "Q1")

	rec := testutil.NewRecorder()
	routes.ServeHTTP(rec, testutil.NewAuthenticatedForm("/"+faqs[0].ID.Hex()+"/toggle", url.Values{}, testutil.EditorUser()))

	rec.AssertRedirect(t, "/admin/faqs?success=toggled")
	public, err := store.List(context.Background(), true)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(public) != 0 {
		t.Errorf("published = %d, want 0", len(public))
	}
}

func TestEdit_UnknownIDIsNotFound(t *testing.T) {
	routes, _ := setup(t)
	rec := testutil.NewRecorder()
	routes.ServeHTTP(rec, testutil.NewAuthenticatedRequest(http.MethodGet, "/0123456789abcdef01234567/edit", testutil.AdminUser()))
	rec.AssertStatus(t, http.StatusNotFound)
}
