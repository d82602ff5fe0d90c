package subscribers

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"testing"

	subscriberstore "github.com/dalemusser/strataimpact/internal/app/store/subscribers"
	"github.com/dalemusser/strataimpact/internal/app/system/auth"
	"github.com/dalemusser/strataimpact/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setup(t *testing.T) (http.Handler, *subscriberstore.Store) {
	t.Helper()
	testutil.MustBootTemplates(t)
	db := testutil.SetupTestDB(t)
	store := subscriberstore.New(db)
	for _, email := range []string{"ana@example.org", "ben@example.org", "cara@example.org"} {
		_, err := store.Subscribe(context.Background(), email, "", "footer")
		require.NoError(t, err)
	}
	return AdminRoutes(NewHandler(db, nil, nil, zap.NewNop()), &auth.SessionManager{}), store
}

func TestList_Search(t *testing.T) {
	routes, _ := setup(t)

	rec := testutil.NewRecorder()
	routes.ServeHTTP(rec, testutil.NewAuthenticatedRequest(http.MethodGet, "/?q=ben", testutil.AdminUser()))

	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "ben@example.org")
	rec.AssertNotContains(t, "ana@example.org")
}

func TestList_EditorForbidden(t *testing.T) {
	routes, _ := setup(t)
	rec := testutil.NewRecorder()
	routes.ServeHTTP(rec, testutil.NewAuthenticatedRequest(http.MethodGet, "/", testutil.EditorUser()))
	rec.AssertStatus(t, http.StatusForbidden)
}

func TestExport(t *testing.T) {
	routes, _ := setup(t)

	rec := testutil.NewRecorder()
	routes.ServeHTTP(rec, testutil.NewAuthenticatedRequest(http.MethodGet, "/export.csv", testutil.AdminUser()))

	rec.AssertStatus(t, http.StatusOK)
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "email,name,source,subscribed_at", lines[0])
	assert.Contains(t, rec.Body.String(), "\nana@example.org,,footer,")
}

func TestExport_EscapesFormulas(t *testing.T) {
	routes, store := setup(t)
	_, err := store.Subscribe(context.Background(), "dan@example.org", "=HYPERLINK(\"http://evil\")", "footer")
	require.NoError(t, err)

	rec := testutil.NewRecorder()
	routes.ServeHTTP(rec, testutil.NewAuthenticatedRequest(http.MethodGet, "/export.csv", testutil.AdminUser()))

	rec.AssertStatus(t, http.StatusOK)
	assert.Contains(t, rec.Body.String(), `dan@example.org,"'=HYPERLINK(""http://evil"")",footer,`)
}

func TestDelete(t *testing.T) {
	routes, store := setup(t)
	all, err := store.All(context.Background())
	require.NoError(t, err)

	rec := testutil.NewRecorder()
	routes.ServeHTTP(rec, testutil.NewAuthenticatedForm("/"+all[0].ID.Hex()+"/delete", url.Values{}, testutil.AdminUser()))

	rec.AssertRedirect(t, "/admin/subscribers?success=deleted")
	n, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	rec = testutil.NewRecorder()
	routes.ServeHTTP(rec, testutil.NewAuthenticatedForm("/"+all[0].ID.Hex()+"/delete", url.Values{}, testutil.AdminUser()))
	rec.AssertStatus(t, http.StatusNotFound)
}
