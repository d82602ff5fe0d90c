package events

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	eventstore "github.com/dalemusser/strataimpact/internal/app/store/events"
	registrationstore "github.com/dalemusser/strataimpact/internal/app/store/registrations"
	"github.com/dalemusser/strataimpact/internal/app/system/auth"
	"github.com/dalemusser/strataimpact/internal/app/system/mailer"
	"github.com/dalemusser/strataimpact/internal/app/system/throttle"
	"github.com/dalemusser/strataimpact/internal/domain/models"
	"github.com/dalemusser/strataimpact/internal/testutil"
	"github.com/dalemusser/waffle/pantry/storage"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type recordingSender struct{ sent []mailer.Email }

func (s *recordingSender) Send(_ context.Context, e mailer.Email) error {
	s.sent = append(s.sent, e)
	return nil
}

type fixture struct {
	h      *Handler
	db     *mongo.Database
	events *eventstore.Store
	public http.Handler
	admin  http.Handler
}

func newFixture(t *testing.T, opts Options) fixture {
	t.Helper()
	testutil.MustBootTemplates(t)
	db := testutil.SetupTestDB(t)
	h := NewHandler(db, nil, opts, zap.NewNop())
	return fixture{
		h:      h,
		db:     db,
		events: eventstore.New(db),
		public: Routes(h),
		admin:  AdminRoutes(h, &auth.SessionManager{}),
	}
}

func (f fixture) create(t *testing.T, in eventstore.Input) models.Event {
	t.Helper()
	if in.Title == "" {
		in.Title = "Community Cleanup"
	}
	if in.StartsAt.IsZero() {
		in.StartsAt = time.Now().Add(72 * time.Hour).UTC()
	}
	ev, err := f.events.Create(context.Background(), in)
	require.NoError(t, err)
	return ev
}

func (f fixture) register(ev models.Event, email string) *testutil.ResponseRecorder {
	form := url.Values{"name": {"Sam Rivera"}, "email": {email}, "organization": {"Rivera Co"}}
	rec := testutil.NewRecorder()
	f.public.ServeHTTP(rec, testutil.NewFormRequest("/"+ev.Slug+"/register", form))
	return rec
}

func (f fixture) reload(t *testing.T, ev models.Event) models.Event {
	t.Helper()
	got, err := f.events.GetByID(context.Background(), ev.ID)
	require.NoError(t, err)
	return got
}

func capacity(n int) *int { return &n }

func TestRegister_TakesASpot(t *testing.T) {
	sender := &recordingSender{}
	f := newFixture(t, Options{Mailer: mailer.New(sender, "StrataImpact", zap.NewNop()), BaseURL: "https://impact.example.org"})
	ev := f.create(t, eventstore.Input{Capacity: capacity(5), Published: true})

	rec := f.register(ev, "sam@example.org")

	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "Spots left: <strong>4</strong>")
	assert.Equal(t, 4, *f.reload(t, ev).Capacity)

	regs, err := registrationstore.New(f.db).ListByEvent(context.Background(), ev.ID)
	require.NoError(t, err)
	require.Len(t, regs, 1)
	rec.AssertContains(t, regs[0].ConfirmationCode)

	require.Len(t, sender.sent, 1)
	assert.Equal(t, "sam@example.org", sender.sent[0].To)
	assert.Contains(t, sender.sent[0].TextBody, regs[0].ConfirmationCode)
	assert.Contains(t, sender.sent[0].TextBody, "https://impact.example.org/events/"+ev.Slug)
}

func TestRegister_DuplicateEmailRejected(t *testing.T) {
	f := newFixture(t, Options{})
	ev := f.create(t, eventstore.Input{Capacity: capacity(5), Published: true})

	f.register(ev, "sam@example.org").AssertStatus(t, http.StatusOK)
	rec := f.register(ev, "SAM@example.org ")

	rec.AssertStatus(t, http.StatusConflict)
	rec.AssertContains(t, "This email is already registered for this event.")
	assert.Equal(t, 4, *f.reload(t, ev).Capacity)
	n, err := registrationstore.New(f.db).CountByEvent(context.Background(), ev.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestRegister_DeadlinePassed(t *testing.T) {
	f := newFixture(t, Options{})
	deadline := time.Now().Add(-time.Hour).UTC()
	ev := f.create(t, eventstore.Input{Capacity: capacity(5), RegistrationDeadline: &deadline, Published: true})

	rec := f.register(ev, "sam@example.org")

	rec.AssertStatus(t, http.StatusConflict)
	rec.AssertContains(t, "Registration for this event has closed.")
	assert.Equal(t, 5, *f.reload(t, ev).Capacity)
}

func TestRegister_FullEvent(t *testing.T) {
	f := newFixture(t, Options{})
	ev := f.create(t, eventstore.Input{Capacity: capacity(1), Published: true})

	f.register(ev, "first@example.org").AssertStatus(t, http.StatusOK)
	rec := f.register(ev, "second@example.org")

	rec.AssertStatus(t, http.StatusConflict)
	rec.AssertContains(t, "Sorry, this event is full.")
	assert.Equal(t, 0, *f.reload(t, ev).Capacity)
}

func TestRegister_UncappedShowsUnlimited(t *testing.T) {
	f := newFixture(t, Options{})
	ev := f.create(t, eventstore.Input{Published: true})

	rec := f.register(ev, "sam@example.org")

	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "Spots left: <strong>Unlimited</strong>")
	assert.Nil(t, f.reload(t, ev).Capacity)
}

func TestRegister_InvalidEmail(t *testing.T) {
	f := newFixture(t, Options{})
	ev := f.create(t, eventstore.Input{Capacity: capacity(3), Published: true})

	rec := f.register(ev, "nope")

	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "Please enter a valid email address.")
	assert.Equal(t, 3, *f.reload(t, ev).Capacity)
}

func TestRegister_Throttled(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	f := newFixture(t, Options{Limiter: throttle.New(rdb, 1, time.Minute)})
	ev := f.create(t, eventstore.Input{Published: true})

	f.register(ev, "one@example.org").AssertStatus(t, http.StatusOK)
	rec := f.register(ev, "two@example.org")

	rec.AssertStatus(t, http.StatusTooManyRequests)
	n, err := registrationstore.New(f.db).CountByEvent(context.Background(), ev.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestShow_DraftIsNotFound(t *testing.T) {
	f := newFixture(t, Options{})
	ev := f.create(t, eventstore.Input{Published: false})

	rec := testutil.NewRecorder()
	f.public.ServeHTTP(rec, testutil.NewRequest(http.MethodGet, "/"+ev.Slug))

	rec.AssertStatus(t, http.StatusNotFound)
}

func TestList_SplitsUpcomingAndPast(t *testing.T) {
	f := newFixture(t, Options{})
	f.create(t, eventstore.Input{Title: "Spring Gala", Published: true})
	f.create(t, eventstore.Input{Title: "Winter Drive", StartsAt: time.Now().Add(-48 * time.Hour).UTC(), Published: true})
	f.create(t, eventstore.Input{Title: "Secret Draft"})

	rec := testutil.NewRecorder()
	f.public.ServeHTTP(rec, testutil.NewRequest(http.MethodGet, "/"))

	rec.AssertStatus(t, http.StatusOK)
	body := rec.Body.String()
	assert.Contains(t, body, "Spring Gala")
	assert.Contains(t, body, "Winter Drive")
	assert.NotContains(t, body, "Secret Draft")
	assert.Less(t, strings.Index(body, "Upcoming events"), strings.Index(body, "Spring Gala"))
	assert.Less(t, strings.Index(body, "Past events"), strings.Index(body, "Winter Drive"))
}

func TestAdminCreate_ParsesForm(t *testing.T) {
	f := newFixture(t, Options{})
	form := url.Values{
		"title":     {"Tree Planting"},
		"starts_at": {"2031-04-12T09:30"},
		"capacity":  {"40"},
		"impact":    {"120 | trees planted\n15 | volunteers"},
		"published": {"on"},
	}

	rec := testutil.NewRecorder()
	f.admin.ServeHTTP(rec, testutil.NewAuthenticatedForm("/", form, testutil.EditorUser()))

	rec.AssertRedirect(t, "/admin/events?success=created")
	ev, err := f.events.GetBySlug(context.Background(), "tree-planting", true)
	require.NoError(t, err)
	assert.Equal(t, 40, *ev.Capacity)
	require.Len(t, ev.Impact, 2)
	assert.Equal(t, models.ImpactMetric{Label: "trees planted", Value: "120"}, ev.Impact[0])
}

func TestAdminCreate_BadCapacityKeepsForm(t *testing.T) {
	f := newFixture(t, Options{})
	form := url.Values{"title": {"Tree Planting"}, "starts_at": {"2031-04-12T09:30"}, "capacity": {"lots"}}

	rec := testutil.NewRecorder()
	f.admin.ServeHTTP(rec, testutil.NewAuthenticatedForm("/", form, testutil.EditorUser()))

	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "Capacity must be a whole number")
	rec.AssertContains(t, `value="Tree Planting"`)
}

func TestAdminCreate_DuplicateSlug(t *testing.T) {
	f := newFixture(t, Options{})
	f.create(t, eventstore.Input{Title: "Tree Planting"})
	form := url.Values{"title": {"Tree Planting"}, "starts_at": {"2031-04-12T09:30"}}

	rec := testutil.NewRecorder()
	f.admin.ServeHTTP(rec, testutil.NewAuthenticatedForm("/", form, testutil.EditorUser()))

	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "Another event already uses this slug.")
}

func TestAdminDelete_EditorForbidden(t *testing.T) {
	f := newFixture(t, Options{})
	ev := f.create(t, eventstore.Input{})

	rec := testutil.NewRecorder()
	f.admin.ServeHTTP(rec, testutil.NewAuthenticatedForm("/"+ev.ID.Hex()+"/delete", url.Values{}, testutil.EditorUser()))

	rec.AssertStatus(t, http.StatusForbidden)
	_, err := f.events.GetByID(context.Background(), ev.ID)
	assert.NoError(t, err)
}

func TestAdminDelete_RemovesRegistrations(t *testing.T) {
	f := newFixture(t, Options{})
	ev := f.create(t, eventstore.Input{Published: true})
	f.register(ev, "sam@example.org")

	rec := testutil.NewRecorder()
	f.admin.ServeHTTP(rec, testutil.NewAuthenticatedForm("/"+ev.ID.Hex()+"/delete", url.Values{}, testutil.AdminUser()))

	rec.AssertRedirect(t, "/admin/events?success=deleted")
	_, err := f.events.GetByID(context.Background(), ev.ID)
	assert.ErrorIs(t, err, eventstore.ErrNotFound)
	n, err := registrationstore.New(f.db).CountByEvent(context.Background(), ev.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestExportRegistrations_CSV(t *testing.T) {
	f := newFixture(t, Options{})
	ev := f.create(t, eventstore.Input{Published: true})
	f.register(ev, "sam@example.org")

	rec := testutil.NewRecorder()
	f.admin.ServeHTTP(rec, testutil.NewAuthenticatedRequest(http.MethodGet, "/"+ev.ID.Hex()+"/registrations.csv", testutil.AdminUser()))

	rec.AssertStatus(t, http.StatusOK)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), ev.Slug+"-registrations.csv")
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "name,email,"))
	assert.True(t, strings.HasPrefix(lines[1], "Sam Rivera,sam@example.org,"))
}

func TestCancelRegistration_ReleasesSpot(t *testing.T) {
	f := newFixture(t, Options{})
	ev := f.create(t, eventstore.Input{Capacity: capacity(2), Published: true})
	f.register(ev, "sam@example.org")
	regs, err := registrationstore.New(f.db).ListByEvent(context.Background(), ev.ID)
	require.NoError(t, err)
	require.Len(t, regs, 1)

	target := "/" + ev.ID.Hex() + "/registrations/" + regs[0].ID.Hex() + "/cancel"
	rec := testutil.NewRecorder()
	f.admin.ServeHTTP(rec, testutil.NewAuthenticatedForm(target, url.Values{}, testutil.AdminUser()))

	rec.AssertRedirect(t, "/admin/events/"+ev.ID.Hex()+"/registrations?success=cancelled")
	assert.Equal(t, 2, *f.reload(t, ev).Capacity)
}

func TestExportRegistrations_EscapesFormulas(t *testing.T) {
	f := newFixture(t, Options{})
	ev := f.create(t, eventstore.Input{Published: true})
	form := url.Values{"name": {"Sam Rivera"}, "email": {"sam@example.org"}, "organization": {"=cmd|'/c calc'!A1"}, "dietary": {"@vegan"}}
	rec := testutil.NewRecorder()
	f.public.ServeHTTP(rec, testutil.NewFormRequest("/"+ev.Slug+"/register", form))
	rec.AssertStatus(t, http.StatusOK)

	rec = testutil.NewRecorder()
	f.admin.ServeHTTP(rec, testutil.NewAuthenticatedRequest(http.MethodGet, "/"+ev.ID.Hex()+"/registrations.csv", testutil.AdminUser()))

	rec.AssertStatus(t, http.StatusOK)
	body := rec.Body.String()
	assert.Contains(t, body, ",'=cmd|'/c calc'!A1,'@vegan,")
	assert.NotContains(t, body, ",=cmd")
}

func TestRegistrationRoutes_OtherEventNotFound(t *testing.T) {
	f := newFixture(t, Options{})
	owner := f.create(t, eventstore.Input{Title: "Food Drive", Capacity: capacity(2), Published: true})
	other := f.create(t, eventstore.Input{Title: "Book Swap", Capacity: capacity(5), Published: true})
	f.register(owner, "sam@example.org")
	store := registrationstore.New(f.db)
	regs, err := store.ListByEvent(context.Background(), owner.ID)
	require.NoError(t, err)
	require.Len(t, regs, 1)
	base := "/" + other.ID.Hex() + "/registrations/" + regs[0].ID.Hex()

	t.Run("cancel", func(t *testing.T) {
		rec := testutil.NewRecorder()
		f.admin.ServeHTTP(rec, testutil.NewAuthenticatedForm(base+"/cancel", url.Values{}, testutil.AdminUser()))
		rec.AssertStatus(t, http.StatusNotFound)
	})

	t.Run("status", func(t *testing.T) {
		rec := testutil.NewRecorder()
		f.admin.ServeHTTP(rec, testutil.NewAuthenticatedForm(base+"/status", url.Values{"status": {"confirmed"}}, testutil.AdminUser()))
		rec.AssertStatus(t, http.StatusNotFound)
	})

	got, err := store.GetByID(context.Background(), regs[0].ID)
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationPending, got.Status)
	assert.Equal(t, 1, *f.reload(t, owner).Capacity)
	assert.Equal(t, 5, *f.reload(t, other).Capacity)
}

func TestSetRegistrationStatus(t *testing.T) {
	f := newFixture(t, Options{})
	ev := f.create(t, eventstore.Input{Capacity: capacity(2), Published: true})
	f.register(ev, "sam@example.org")
	store := registrationstore.New(f.db)
	regs, err := store.ListByEvent(context.Background(), ev.ID)
	require.NoError(t, err)
	require.Len(t, regs, 1)
	target := "/" + ev.ID.Hex() + "/registrations/" + regs[0].ID.Hex() + "/status"

	t.Run("invalid", func(t *testing.T) {
		rec := testutil.NewRecorder()
		f.admin.ServeHTTP(rec, testutil.NewAuthenticatedForm(target, url.Values{"status": {"vip"}}, testutil.AdminUser()))
		rec.AssertStatus(t, http.StatusBadRequest)
	})

	t.Run("cancelled keeps capacity", func(t *testing.T) {
		rec := testutil.NewRecorder()
		f.admin.ServeHTTP(rec, testutil.NewAuthenticatedForm(target, url.Values{"status": {"cancelled"}}, testutil.AdminUser()))
		rec.AssertRedirect(t, "/admin/events/"+ev.ID.Hex()+"/registrations?success=status")

		got, err := store.GetByID(context.Background(), regs[0].ID)
		require.NoError(t, err)
		assert.Equal(t, models.RegistrationCancelled, got.Status)
		assert.Equal(t, 1, *f.reload(t, ev).Capacity)
	})
}

func TestGallery_UploadAndRemove(t *testing.T) {
	dir := t.TempDir()
	store, err := storage.NewLocal(storage.LocalConfig{BasePath: dir, BaseURL: "/uploads"})
	require.NoError(t, err)
	f := newFixture(t, Options{Storage: store})
	ev := f.create(t, eventstore.Input{})

	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")
	rec := testutil.NewRecorder()
	f.admin.ServeHTTP(rec, testutil.NewUploadForm("/"+ev.ID.Hex()+"/gallery", url.Values{"caption": {"Morning crew"}},
		testutil.Upload{Field: "image", Filename: "crew.png", Content: png}, testutil.EditorUser()))

	rec.AssertRedirect(t, "/admin/events/"+ev.ID.Hex()+"/edit?success=image#gallery")
	got := f.reload(t, ev)
	require.Len(t, got.Gallery, 1)
	assert.Equal(t, "Morning crew", got.Gallery[0].Caption)

	rec = testutil.NewRecorder()
	form := url.Values{"url": {got.Gallery[0].URL}}
	f.admin.ServeHTTP(rec, testutil.NewAuthenticatedForm("/"+ev.ID.Hex()+"/gallery/remove", form, testutil.EditorUser()))

	rec.AssertRedirect(t, "/admin/events/"+ev.ID.Hex()+"/edit?success=removed#gallery")
	assert.Empty(t, f.reload(t, ev).Gallery)
}

func TestGallery_NoStorage(t *testing.T) {
	f := newFixture(t, Options{})
	ev := f.create(t, eventstore.Input{})

	req := httptest.NewRequest(http.MethodPost, "/"+ev.ID.Hex()+"/gallery", strings.NewReader(""))
	rec := testutil.NewRecorder()
	f.admin.ServeHTTP(rec, testutil.WithUser(req, testutil.EditorUser()))

	rec.AssertRedirect(t, "/admin/events/"+ev.ID.Hex()+"/edit?error=nostorage#gallery")
}
