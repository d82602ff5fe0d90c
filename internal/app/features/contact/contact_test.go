package contact

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	contactstore "github.com/dalemusser/strataimpact/internal/app/store/contacts"
	"github.com/dalemusser/strataimpact/internal/app/system/mailer"
	"github.com/dalemusser/strataimpact/internal/app/system/metrics"
	"github.com/dalemusser/strataimpact/internal/app/system/throttle"
	"github.com/dalemusser/strataimpact/internal/testutil"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type recordingSender struct {
	mu   sync.Mutex
	sent []mailer.Email
	err  error
}

func (s *recordingSender) Send(_ context.Context, e mailer.Email) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, e)
	return s.err
}

func validForm() url.Values {
	return url.Values{
		"name":         {"Maya Chen"},
		"email":        {"Maya@Example.org"},
		"subject":      {"Volunteering"},
		"message":      {"I'd like to help on weekends."},
		"inquiry_type": {"volunteer"},
		"urgency":      {"normal"},
	}
}

func newHandler(t *testing.T, opts Options) (*Handler, *mongo.Database) {
	t.Helper()
	testutil.MustBootTemplates(t)
	db := testutil.SetupTestDB(t)
	return NewHandler(db, nil, opts, zap.NewNop()), db
}

func post(h *Handler, form url.Values) *testutil.ResponseRecorder {
	rec := testutil.NewRecorder()
	h.Submit(rec, testutil.NewFormRequest("/contact", form))
	return rec
}

func TestSubmit_StoresMessageAndNotifies(t *testing.T) {
	sender := &recordingSender{}
	h, db := newHandler(t, Options{
		Mailer:   mailer.New(sender, "StrataImpact", zap.NewNop()),
		BaseURL:  "https://impact.example.org/",
		NotifyTo: "staff@example.org",
	})
	before := promtest.ToFloat64(metrics.ContactMessages.WithLabelValues(metrics.ResultOK))

	rec := post(h, validForm())

	rec.AssertRedirect(t, "/contact?sent=1")
	msgs, total, err := contactstore.New(db).List(context.Background(), contactstore.ListFilter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 1 || len(msgs) != 1 {
		t.Fatalf("got %d messages, want 1", total)
	}
	if msgs[0].Email != "maya@example.org" || msgs[0].Status != "new" {
		t.Errorf("stored = %+v", msgs[0])
	}

	if len(sender.sent) != 1 {
		t.Fatalf("sent %d emails, want 1", len(sender.sent))
	}
	email := sender.sent[0]
	if email.To != "staff@example.org" || email.ReplyTo != "maya@example.org" {
		t.Errorf("email to=%q reply-to=%q", email.To, email.ReplyTo)
	}
	if !strings.Contains(email.TextBody, "https://impact.example.org/admin/messages/"+msgs[0].ID.Hex()) {
		t.Errorf("admin link missing from body: %s", email.TextBody)
	}
	if got := promtest.ToFloat64(metrics.ContactMessages.WithLabelValues(metrics.ResultOK)); got != before+1 {
		t.Errorf("ok counter = %v, want %v", got, before+1)
	}
}

func TestSubmit_MailFailureStillSucceeds(t *testing.T) {
	sender := &recordingSender{err: errors.New("smtp down")}
	h, _ := newHandler(t, Options{Mailer: mailer.New(sender, "StrataImpact", zap.NewNop()), NotifyTo: "staff@example.org"})

	rec := post(h, validForm())

	rec.AssertRedirect(t, "/contact?sent=1")
}

func TestSubmit_InvalidKeepsInput(t *testing.T) {
	h, db := newHandler(t, Options{})
	form := validForm()
	form.Set("email", "not-an-email")

	rec := post(h, form)

	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "Please enter a valid email address.")
	rec.AssertContains(t, "I&#39;d like to help on weekends.")
	_, total, _ := contactstore.New(db).List(context.Background(), contactstore.ListFilter{})
	if total != 0 {
		t.Errorf("stored %d messages, want 0", total)
	}
}

func TestSubmit_MalformedBody(t *testing.T) {
	h, db := newHandler(t, Options{})
	req := httptest.NewRequest(http.MethodPost, "/contact", strings.NewReader("name=%zz"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rec := testutil.NewRecorder()
	h.Submit(rec, testutil.WithCSRFToken(req))

	rec.AssertStatus(t, http.StatusBadRequest)
	rec.AssertContains(t, "The form could not be read.")
	_, total, _ := contactstore.New(db).List(context.Background(), contactstore.ListFilter{})
	if total != 0 {
		t.Errorf("stored %d messages, want 0", total)
	}
}

func TestSubmit_RejectsUnknownUrgency(t *testing.T) {
	h, _ := newHandler(t, Options{})
	form := validForm()
	form.Set("urgency", "asap")

	rec := post(h, form)

	rec.AssertContains(t, "Urgency must be one of")
}

func TestSubmit_RejectsLongMessage(t *testing.T) {
	h, _ := newHandler(t, Options{})
	form := validForm()
	form.Set("message", strings.Repeat("a", MaxMessageLength+1))

	rec := post(h, form)

	rec.AssertContains(t, "Message must be at most 5000 characters.")
}

func TestSubmit_Throttled(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	h, db := newHandler(t, Options{Limiter: throttle.New(rdb, 2, time.Minute)})

	post(h, validForm()).AssertStatus(t, http.StatusSeeOther)
	post(h, validForm()).AssertStatus(t, http.StatusSeeOther)
	rec := post(h, validForm())

	rec.AssertStatus(t, http.StatusTooManyRequests)
	rec.AssertContains(t, "Please wait a few minutes")
	_, total, _ := contactstore.New(db).List(context.Background(), contactstore.ListFilter{})
	if total != 2 {
		t.Errorf("stored %d messages, want 2", total)
	}
}

func TestShow_SentBanner(t *testing.T) {
	h, _ := newHandler(t, Options{})
	rec := testutil.NewRecorder()

	h.Show(rec, testutil.WithCSRFToken(httptest.NewRequest(http.MethodGet, "/contact?sent=1", nil)))

	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "Your message has been sent")
	rec.AssertContains(t, "hello@example.org")
}
