package dashboard

import (
	"context"
	"net/http"
	"testing"
	"time"

	contactstore "github.com/dalemusser/strataimpact/internal/app/store/contacts"
	eventstore "github.com/dalemusser/strataimpact/internal/app/store/events"
	registrationstore "github.com/dalemusser/strataimpact/internal/app/store/registrations"
	subscriberstore "github.com/dalemusser/strataimpact/internal/app/store/subscribers"
	"github.com/dalemusser/strataimpact/internal/app/system/auth"
	"github.com/dalemusser/strataimpact/internal/domain/models"
	"github.com/dalemusser/strataimpact/internal/testutil"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func seedSite(t *testing.T, db *mongo.Database) {
	t.Helper()
	ctx := context.Background()
	spots := 12
	ev, err := eventstore.New(db).Create(ctx, eventstore.Input{
		Title:     "River Cleanup",
		StartsAt:  time.Now().Add(72 * time.Hour),
		Capacity:  &spots,
		Published: true,
	})
	require.NoError(t, err)
	_, err = eventstore.New(db).Create(ctx, eventstore.Input{
		Title:     "Open House",
		StartsAt:  time.Now().Add(96 * time.Hour),
		Published: true,
	})
	require.NoError(t, err)

	require.NoError(t, registrationstore.New(db).Insert(ctx, &models.Registration{
		EventID:          ev.ID,
		Name:             "Riley Helper",
		Email:            "riley@example.org",
		ConfirmationCode: "ABC123",
	}))

	msgs := contactstore.New(db)
	for _, subject := range []string{"One", "Two"} {
		_, err := msgs.Create(ctx, contactstore.CreateInput{Name: "Sam", Email: "sam@example.org", Subject: subject, Message: "Hi"})
		require.NoError(t, err)
	}
	_, err = subscriberstore.New(db).Subscribe(ctx, "ana@example.org", "", "footer")
	require.NoError(t, err)
}

func TestDashboard_Admin(t *testing.T) {
	testutil.MustBootTemplates(t)
	db := testutil.SetupTestDB(t)
	seedSite(t, db)
	routes := Routes(NewHandler(db, nil, zap.NewNop()), &auth.SessionManager{})

	rec := testutil.NewRecorder()
	routes.ServeHTTP(rec, testutil.NewAuthenticatedRequest(http.MethodGet, "/", testutil.AdminUser()))

	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "<strong>2</strong> new messages")
	rec.AssertContains(t, "<strong>1</strong> subscribers")
	rec.AssertContains(t, "River Cleanup")
	rec.AssertContains(t, `<td class="spots">12</td>`)
	rec.AssertContains(t, `<td class="spots">Unlimited</td>`)
	rec.AssertContains(t, "Riley Helper")
}

func TestDashboard_EditorSeesNoVisitorData(t *testing.T) {
	testutil.MustBootTemplates(t)
	db := testutil.SetupTestDB(t)
	seedSite(t, db)
	routes := Routes(NewHandler(db, nil, zap.NewNop()), &auth.SessionManager{})

	rec := testutil.NewRecorder()
	routes.ServeHTTP(rec, testutil.NewAuthenticatedRequest(http.MethodGet, "/", testutil.EditorUser()))

	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "River Cleanup")
	rec.AssertNotContains(t, "new messages")
	rec.AssertNotContains(t, "Riley Helper")
}

func TestDashboard_RequiresLogin(t *testing.T) {
	testutil.MustBootTemplates(t)
	db := testutil.SetupTestDB(t)
	routes := Routes(NewHandler(db, nil, zap.NewNop()), &auth.SessionManager{})

	rec := testutil.NewRecorder()
	routes.ServeHTTP(rec, testutil.NewRequest(http.MethodGet, "/"))
	rec.AssertStatus(t, http.StatusUnauthorized)
}
