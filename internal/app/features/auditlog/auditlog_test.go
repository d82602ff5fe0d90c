package auditlog

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/strataimpact/internal/app/store/audit"
	"github.com/dalemusser/strataimpact/internal/app/system/auth"
	"github.com/dalemusser/strataimpact/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setup(t *testing.T) (http.Handler, *audit.Store) {
	t.Helper()
	testutil.MustBootTemplates(t)
	db := testutil.SetupTestDB(t)
	return Routes(NewHandler(db, nil, zap.NewNop()), &auth.SessionManager{}), audit.New(db)
}

func TestList_FiltersByCategoryAndKind(t *testing.T) {
	routes, store := setup(t)
	ctx := context.Background()
	require.NoError(t, store.Log(ctx, audit.Event{Category: audit.CategoryAuth, Action: audit.ActionLoginFailed, ActorLogin: "intruder@example.org", Reason: "wrong_password"}))
	require.NoError(t, store.Log(ctx, audit.Event{Category: audit.CategoryAdmin, Action: audit.ActionDeleted, ActorLogin: "admin@example.org", TargetKind: "faq", TargetID: "abc", Success: true, Details: map[string]string{"question": "Why?"}}))
	require.NoError(t, store.Log(ctx, audit.Event{Category: audit.CategoryAdmin, Action: audit.ActionCreated, ActorLogin: "editor@example.org", TargetKind: "event", TargetID: "def", Success: true}))

	rec := testutil.NewRecorder()
	routes.ServeHTTP(rec, testutil.NewAuthenticatedRequest(http.MethodGet, "/", testutil.AdminUser()))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "3 events")
	rec.AssertContains(t, "login failed")
	rec.AssertContains(t, "question=Why?")

	rec = testutil.NewRecorder()
	routes.ServeHTTP(rec, testutil.NewAuthenticatedRequest(http.MethodGet, "/?category=admin&kind=faq", testutil.AdminUser()))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "1 events")
	rec.AssertContains(t, "admin@example.org")
	rec.AssertNotContains(t, "editor@example.org")
	rec.AssertNotContains(t, "intruder@example.org")
}

func TestList_SinceExcludesOldEvents(t *testing.T) {
	routes, store := setup(t)
	ctx := context.Background()
	require.NoError(t, store.Log(ctx, audit.Event{Category: audit.CategoryAdmin, Action: audit.ActionUpdated, ActorLogin: "old@example.org", CreatedAt: time.Now().Add(-10 * 24 * time.Hour)}))
	require.NoError(t, store.Log(ctx, audit.Event{Category: audit.CategoryAdmin, Action: audit.ActionUpdated, ActorLogin: "new@example.org"}))

	rec := testutil.NewRecorder()
	routes.ServeHTTP(rec, testutil.NewAuthenticatedRequest(http.MethodGet, "/?since=7d", testutil.AdminUser()))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "new@example.org")
	rec.AssertNotContains(t, "old@example.org")
}

func TestList_EditorForbidden(t *testing.T) {
	routes, _ := setup(t)
	rec := testutil.NewRecorder()
	routes.ServeHTTP(rec, testutil.NewAuthenticatedRequest(http.MethodGet, "/", testutil.EditorUser()))
	rec.AssertStatus(t, http.StatusForbidden)
}

func TestFormatDetails(t *testing.T) {
	assert.Equal(t, "", formatDetails(nil))
	assert.Equal(t, "a=1, b=2", formatDetails(map[string]string{"b": "2", "a": "1"}))
}
