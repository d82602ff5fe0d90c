// internal/app/features/newsletter/newsletter.go
package newsletter

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	errorsfeature "github.com/dalemusser/strataimpact/internal/app/features/errors"
	subscriberstore "github.com/dalemusser/strataimpact/internal/app/store/subscribers"
	"github.com/dalemusser/strataimpact/internal/app/system/inputval"
	"github.com/dalemusser/strataimpact/internal/app/system/mailer"
	"github.com/dalemusser/strataimpact/internal/app/system/metrics"
	"github.com/dalemusser/strataimpact/internal/app/system/network"
	"github.com/dalemusser/strataimpact/internal/app/system/throttle"
	"github.com/dalemusser/strataimpact/internal/app/system/timeouts"
	"github.com/dalemusser/strataimpact/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/urlutil"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// ThrottleScope is the limiter scope for signups.
const ThrottleScope = "newsletter"

// Known signup sources. Anything else is recorded as "footer".
var sources = map[string]bool{"home": true, "get-involved": true, "footer": true}

// Options carries the optional collaborators of the newsletter feature.
type Options struct {
	Limiter *throttle.Limiter
	Mailer  *mailer.Mailer // welcome emails; nil disables them
	BaseURL string
}

// Handler takes newsletter signups.
type Handler struct {
	subs   *subscriberstore.Store
	opts   Options
	errLog *errorsfeature.ErrorLogger
	logger *zap.Logger
}

// NewHandler creates a new newsletter Handler.
func NewHandler(db *mongo.Database, errLog *errorsfeature.ErrorLogger, opts Options, logger *zap.Logger) *Handler {
	return &Handler{
		subs:   subscriberstore.New(db),
		opts:   opts,
		errLog: errLog,
		logger: logger,
	}
}

// Routes returns the signup endpoint, mounted at /newsletter.
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Post("/subscribe", h.Subscribe)
	return r
}

type signupInput struct {
	Email string `validate:"required,mailaddr,max=254" label:"Email"`
	Name  string `validate:"max=120" label:"Name"`
}

// Subscribe adds the posted email to the list and redirects back to the
// page the form was on with the outcome in the newsletter parameter.
func (h *Handler) Subscribe(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.back(w, r, viewdata.NewsletterInvalid)
		return
	}
	in := signupInput{
		Email: strings.TrimSpace(r.FormValue("email")),
		Name:  strings.TrimSpace(r.FormValue("name")),
	}
	source := r.FormValue("source")
	if !sources[source] {
		source = "footer"
	}

	res, err := h.opts.Limiter.Hit(r.Context(), ThrottleScope, network.GetClientIP(r))
	if err != nil {
		h.logger.Warn("newsletter throttle unavailable", zap.Error(err))
	}
	if !res.Allowed {
		metrics.Subscriptions.WithLabelValues(metrics.ResultThrottled).Inc()
		h.back(w, r, viewdata.NewsletterBusy)
		return
	}

	if v := inputval.Validate(in); v.HasErrors() {
		metrics.Subscriptions.WithLabelValues(metrics.ResultInvalid).Inc()
		h.back(w, r, viewdata.NewsletterInvalid)
		return
	}

	sub, err := h.subs.Subscribe(r.Context(), in.Email, in.Name, source)
	switch {
	case errors.Is(err, subscriberstore.ErrAlreadySubscribed):
		metrics.Subscriptions.WithLabelValues(metrics.ResultDuplicate).Inc()
		h.back(w, r, viewdata.NewsletterAlready)
		return
	case err != nil:
		metrics.Subscriptions.WithLabelValues(metrics.ResultError).Inc()
		h.errLog.Log(r, "failed to subscribe", err)
		h.back(w, r, viewdata.NewsletterFailed)
		return
	}
	metrics.Subscriptions.WithLabelValues(metrics.ResultOK).Inc()

	h.welcome(r, sub.Email, sub.Name)
	h.back(w, r, viewdata.NewsletterSubscribed)
}

func (h *Handler) welcome(r *http.Request, email, name string) {
	if h.opts.Mailer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), timeouts.Medium())
	defer cancel()
	msg := mailer.WelcomeSubscriberEmail(email, mailer.WelcomeSubscriberData{
		SiteName: viewdata.Site(ctx).SiteName,
		Name:     name,
		SiteURL:  h.opts.BaseURL,
	})
	metrics.RecordEmail("welcome", h.opts.Mailer.Notify(ctx, msg))
}

// back redirects to the form's page. Off-site return values fall back to /.
func (h *Handler) back(w http.ResponseWriter, r *http.Request, outcome string) {
	target := urlutil.SafeReturn(r.FormValue("return"), "", "/")
	u, err := url.Parse(target)
	if err != nil {
		u = &url.URL{Path: "/"}
	}
	q := u.Query()
	q.Set("newsletter", outcome)
	u.RawQuery = q.Encode()
	u.Fragment = ""
	http.Redirect(w, r, u.String(), http.StatusSeeOther)
}
