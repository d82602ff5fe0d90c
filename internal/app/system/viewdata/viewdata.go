// internal/app/system/viewdata/viewdata.go
package viewdata

import (
	"context"
	"html/template"
	"net/http"

	"github.com/dalemusser/strataimpact/internal/app/store/sitecontent"
	"github.com/dalemusser/strataimpact/internal/app/system/auth"
	"github.com/dalemusser/strataimpact/internal/app/system/authz"
	"github.com/dalemusser/strataimpact/internal/app/system/htmlsanitize"
	"github.com/dalemusser/strataimpact/internal/app/system/timeouts"
	"github.com/dalemusser/strataimpact/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/httpnav"
	"github.com/dalemusser/waffle/pantry/storage"
	"github.com/gorilla/csrf"
	"go.uber.org/zap"
)

// BaseVM carries the fields every page template needs: the layout's site
// settings, the signed-in user and the CSRF token.
//
//	type eventPage struct {
//	    viewdata.BaseVM
//	    Event models.Event
//	}
//
//	vm := eventPage{BaseVM: viewdata.New(r).WithTitle(ev.Title)}
type BaseVM struct {
	SiteName   string
	Tagline    string
	LogoURL    string
	FooterHTML template.HTML

	IsLoggedIn bool
	IsAdmin    bool
	CanEdit    bool
	UserID     string
	LoginID    string
	Role       string
	UserName   string

	Title       string
	BackURL     string
	CurrentPath string

	CSRFToken string

	// NewsletterNote is the outcome of a newsletter signup that redirected
	// back to this page.
	NewsletterNote string
}

// Newsletter outcome codes carried in the "newsletter" query parameter.
const (
	NewsletterSubscribed = "subscribed"
	NewsletterAlready    = "already"
	NewsletterInvalid    = "invalid"
	NewsletterBusy       = "busy"
	NewsletterFailed     = "failed"
)

var newsletterNotes = map[string]string{
	NewsletterSubscribed: "Thanks for subscribing!",
	NewsletterAlready:    "You're already subscribed.",
	NewsletterInvalid:    "Please enter a valid email address to subscribe.",
	NewsletterBusy:       "Too many signup attempts. Please try again in a few minutes.",
	NewsletterFailed:     "We couldn't add you to the list. Please try again.",
}

var (
	files   storage.Store
	content *sitecontent.Store
	logger  = zap.NewNop()
)

// Init installs the storage backend used for logo URLs and the content
// store that supplies site settings. Call once from bootstrap.
func Init(store storage.Store, cs *sitecontent.Store, log *zap.Logger) {
	files = store
	content = cs
	if log != nil {
		logger = log
	}
}

// Site returns the stored site settings or the defaults. A read failure is
// logged and falls back to the defaults so a page can still render.
func Site(ctx context.Context) models.SiteSettings {
	if content == nil {
		return models.DefaultSite()
	}
	ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	found, err := sitecontent.Get[models.SiteSettings](ctx, content, models.ContentKeySite)
	if err != nil {
		logger.Warn("site settings unavailable, using defaults", zap.Error(err))
		return models.DefaultSite()
	}
	return found.Or(models.DefaultSite())
}

// New builds a BaseVM for r.
func New(r *http.Request) BaseVM {
	role, name, userID, signedIn := authz.UserCtx(r)
	site := Site(r.Context())

	vm := BaseVM{
		SiteName:    site.SiteName,
		Tagline:     site.Tagline,
		FooterHTML:  htmlsanitize.SanitizeToHTML(site.FooterHTML),
		IsLoggedIn:  signedIn,
		IsAdmin:     authz.IsAdmin(r),
		CanEdit:     authz.CanEditContent(r),
		Role:        role,
		UserName:    name,
		Title:       site.SiteName,
		CurrentPath: httpnav.CurrentPath(r),
		CSRFToken:   csrf.Token(r),

		NewsletterNote: newsletterNotes[r.URL.Query().Get("newsletter")],
	}
	if signedIn {
		vm.UserID = userID.Hex()
		if u, ok := auth.CurrentUser(r); ok {
			vm.LoginID = u.LoginID
		}
	}
	if vm.SiteName == "" {
		vm.SiteName = models.DefaultSiteName
	}
	vm.LogoURL = logoURL(site.LogoURL)
	return vm
}

// NewBaseVM is New with a title and a back link.
func NewBaseVM(r *http.Request, title, backDefault string) BaseVM {
	vm := New(r).WithTitle(title)
	vm.BackURL = httpnav.ResolveBackURL(r, backDefault)
	return vm
}

// WithTitle returns a copy of vm with its page title set.
func (vm BaseVM) WithTitle(title string) BaseVM {
	if title != "" {
		vm.Title = title
	}
	return vm
}

// logoURL resolves a stored logo reference. Absolute URLs and root-relative
// paths are used as-is; anything else is a storage path.
func logoURL(ref string) string {
	switch {
	case ref == "":
		return ""
	case len(ref) > 0 && ref[0] == '/', hasScheme(ref):
		return ref
	case files != nil:
		return files.URL(ref)
	default:
		return ref
	}
}

func hasScheme(s string) bool {
	return len(s) > 8 && (s[:7] == "http://" || s[:8] == "https://")
}
