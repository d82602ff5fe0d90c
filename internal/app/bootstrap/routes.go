// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"
	"time"

	aboutfeature "github.com/dalemusser/strataimpact/internal/app/features/about"
	auditlogfeature "github.com/dalemusser/strataimpact/internal/app/features/auditlog"
	contactfeature "github.com/dalemusser/strataimpact/internal/app/features/contact"
	contentfeature "github.com/dalemusser/strataimpact/internal/app/features/content"
	dashboardfeature "github.com/dalemusser/strataimpact/internal/app/features/dashboard"
	errorsfeature "github.com/dalemusser/strataimpact/internal/app/features/errors"
	eventsfeature "github.com/dalemusser/strataimpact/internal/app/features/events"
	faqsfeature "github.com/dalemusser/strataimpact/internal/app/features/faqs"
	healthfeature "github.com/dalemusser/strataimpact/internal/app/features/health"
	homefeature "github.com/dalemusser/strataimpact/internal/app/features/home"
	loginfeature "github.com/dalemusser/strataimpact/internal/app/features/login"
	logoutfeature "github.com/dalemusser/strataimpact/internal/app/features/logout"
	messagesfeature "github.com/dalemusser/strataimpact/internal/app/features/messages"
	newsletterfeature "github.com/dalemusser/strataimpact/internal/app/features/newsletter"
	pagesfeature "github.com/dalemusser/strataimpact/internal/app/features/pages"
	profilefeature "github.com/dalemusser/strataimpact/internal/app/features/profile"
	projectsfeature "github.com/dalemusser/strataimpact/internal/app/features/projects"
	statusfeature "github.com/dalemusser/strataimpact/internal/app/features/status"
	subscribersfeature "github.com/dalemusser/strataimpact/internal/app/features/subscribers"
	systemusersfeature "github.com/dalemusser/strataimpact/internal/app/features/systemusers"
	appresources "github.com/dalemusser/strataimpact/internal/app/resources"
	"github.com/dalemusser/strataimpact/internal/app/store/audit"
	userstore "github.com/dalemusser/strataimpact/internal/app/store/users"
	"github.com/dalemusser/strataimpact/internal/app/system/auditlog"
	"github.com/dalemusser/strataimpact/internal/app/system/auth"
	"github.com/dalemusser/strataimpact/internal/app/system/metrics"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/middleware"
	"github.com/dalemusser/waffle/pantry/fileserver"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/csrf"
	"go.uber.org/zap"
)

// csrfExempt lists paths served without CSRF checks. /metrics is scraped
// by Prometheus, which carries no token.
var csrfExempt = map[string]bool{
	"/metrics": true,
}

// BuildHandler constructs the root router: global middleware, the public
// site, the login flow and the /admin back office.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}
	// Role changes and disabled accounts take effect on the next request.
	sessionMgr.SetUserFetcher(userstore.NewFetcher(deps.MongoDatabase, logger))

	// Dev mode reloads templates from disk.
	eng := templates.New(coreCfg.Env == "dev")
	if err := eng.Boot(logger); err != nil {
		logger.Error("template engine boot failed", zap.Error(err))
		return nil, err
	}
	templates.UseEngine(eng, logger)

	errLog := errorsfeature.NewErrorLogger(logger)
	auditLogger := auditlog.New(audit.New(deps.MongoDatabase), logger, auditlog.Config{
		Auth:  appCfg.AuditLogAuth,
		Admin: appCfg.AuditLogAdmin,
	})

	r := chi.NewRouter()

	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.CORSFromConfig(coreCfg))
	r.Use(middleware.SecurityHeadersFromConfig(coreCfg))
	r.Use(sessionMgr.LoadSessionUser)
	r.Use(csrfMiddleware(appCfg, secure, logger))

	// ── Infrastructure ──────────────────────────────────────────────────────

	healthHandler := healthfeature.NewHandler(deps.MongoClient, deps.Redis, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))
	healthfeature.MountRootEndpoints(r, healthHandler)

	if appCfg.MetricsEnabled {
		r.Handle("/metrics", metrics.Handler())
	}

	r.Handle("/static/*", fileserver.Handler("/static", "static"))
	r.Handle("/assets/*", appresources.AssetsHandler("/assets"))
	if appCfg.StorageType == "local" || appCfg.StorageType == "" {
		r.Handle(appCfg.StorageLocalURL+"/*", fileserver.Handler(appCfg.StorageLocalURL, appCfg.StorageLocalPath))
	}

	// ── Public site ─────────────────────────────────────────────────────────

	homeHandler := homefeature.NewHandler(deps.MongoDatabase, errLog, logger)
	r.Mount("/", homefeature.Routes(homeHandler))

	aboutHandler := aboutfeature.NewHandler(deps.MongoDatabase, errLog, logger)
	r.Mount("/about", aboutfeature.Routes(aboutHandler))

	contactHandler := contactfeature.NewHandler(deps.MongoDatabase, errLog, contactfeature.Options{
		Limiter:  deps.Limiter,
		Mailer:   deps.Mailer,
		BaseURL:  appCfg.BaseURL,
		NotifyTo: appCfg.ContactNotifyEmail,
	}, logger)
	r.Mount("/contact", contactfeature.Routes(contactHandler))

	eventsHandler := eventsfeature.NewHandler(deps.MongoDatabase, errLog, eventsfeature.Options{
		Storage: deps.FileStorage,
		Mailer:  deps.Mailer,
		Limiter: deps.Limiter,
		Audit:   auditLogger,
		BaseURL: appCfg.BaseURL,
	}, logger)
	r.Mount("/events", eventsfeature.Routes(eventsHandler))

	projectsHandler := projectsfeature.NewHandler(deps.MongoDatabase, deps.FileStorage, auditLogger, errLog, logger)
	r.Mount("/projects", projectsfeature.Routes(projectsHandler))

	newsletterHandler := newsletterfeature.NewHandler(deps.MongoDatabase, errLog, newsletterfeature.Options{
		Limiter: deps.Limiter,
		Mailer:  deps.Mailer,
		BaseURL: appCfg.BaseURL,
	}, logger)
	r.Mount("/newsletter", newsletterfeature.Routes(newsletterHandler))

	// get-involved, media, resources, success-stories, terms, privacy
	pagesHandler := pagesfeature.NewHandler(deps.MongoDatabase, errLog, auditLogger, logger)
	pagesfeature.MountPublic(r, pagesHandler)

	// ── Authentication ──────────────────────────────────────────────────────

	loginHandler := loginfeature.NewHandler(deps.MongoDatabase, sessionMgr, errLog, auditLogger, loginfeature.Options{
		Limiter: deps.Limiter,
		Lockout: deps.Lockout,
	}, logger)
	r.Mount("/login", loginfeature.Routes(loginHandler))

	logoutHandler := logoutfeature.NewHandler(sessionMgr, auditLogger, logger)
	r.Mount("/logout", logoutfeature.Routes(logoutHandler))

	errorsHandler := errorsfeature.NewHandler()
	r.Get("/forbidden", errorsHandler.Forbidden)
	r.Get("/unauthorized", errorsHandler.Unauthorized)

	// ── Admin ───────────────────────────────────────────────────────────────
	// Each feature router applies its own role guard: editors reach content,
	// admins also reach visitor data, users and the audit log.

	r.Route("/admin", func(ar chi.Router) {
		dashboardHandler := dashboardfeature.NewHandler(deps.MongoDatabase, errLog, logger)
		ar.Mount("/", dashboardfeature.Routes(dashboardHandler, sessionMgr))

		ar.Mount("/pages", pagesfeature.EditRoutes(pagesHandler, sessionMgr))

		contentHandler := contentfeature.NewHandler(deps.MongoDatabase, auditLogger, errLog, logger)
		ar.Mount("/content", contentfeature.AdminRoutes(contentHandler, sessionMgr))

		ar.Mount("/events", eventsfeature.AdminRoutes(eventsHandler, sessionMgr))
		ar.Mount("/projects", projectsfeature.AdminRoutes(projectsHandler, sessionMgr))

		faqsHandler := faqsfeature.NewHandler(deps.MongoDatabase, auditLogger, errLog, logger)
		ar.Mount("/faqs", faqsfeature.AdminRoutes(faqsHandler, sessionMgr))

		messagesHandler := messagesfeature.NewHandler(deps.MongoDatabase, auditLogger, errLog, logger)
		ar.Mount("/messages", messagesfeature.AdminRoutes(messagesHandler, sessionMgr))

		subscribersHandler := subscribersfeature.NewHandler(deps.MongoDatabase, auditLogger, errLog, logger)
		ar.Mount("/subscribers", subscribersfeature.AdminRoutes(subscribersHandler, sessionMgr))

		profileHandler := profilefeature.NewHandler(deps.MongoDatabase, errLog, auditLogger, logger)
		ar.Mount("/profile", profilefeature.Routes(profileHandler, sessionMgr))

		usersHandler := systemusersfeature.NewHandler(deps.MongoDatabase, errLog, auditLogger, logger)
		ar.Mount("/users", systemusersfeature.Routes(usersHandler, sessionMgr))

		auditHandler := auditlogfeature.NewHandler(deps.MongoDatabase, errLog, logger)
		ar.Mount("/audit", auditlogfeature.Routes(auditHandler, sessionMgr))

		statusOpts := statusfeature.Options{
			Redis:  deps.Redis,
			Audit:  auditLogger,
			Config: statusConfigGroups(coreCfg, appCfg),
		}
		if taskRunner != nil {
			statusOpts.Jobs = taskRunner
		}
		statusHandler := statusfeature.NewHandler(deps.MongoClient, errLog, statusOpts, logger)
		ar.Mount("/status", statusfeature.Routes(statusHandler, sessionMgr))
	})

	r.NotFound(errorsHandler.NotFound)

	return r, nil
}

// csrfMiddleware wraps gorilla/csrf and skips the paths in csrfExempt.
func csrfMiddleware(appCfg AppConfig, secure bool, logger *zap.Logger) func(http.Handler) http.Handler {
	opts := []csrf.Option{
		csrf.Secure(secure),
		csrf.Path("/"),
		csrf.CookieName("strataimpact_csrf"),
		csrf.FieldName("csrf_token"),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.ErrorHandler(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			logger.Warn("CSRF validation failed",
				zap.String("path", req.URL.Path),
				zap.String("method", req.Method),
				zap.String("reason", csrf.FailureReason(req).Error()),
			)
			http.Error(w, "CSRF token invalid or missing", http.StatusForbidden)
		})),
	}
	if !secure {
		opts = append(opts, csrf.TrustedOrigins([]string{
			"localhost:8080",
			"localhost:3000",
			"127.0.0.1:8080",
			"127.0.0.1:3000",
		}))
	}
	if appCfg.SessionDomain != "" {
		opts = append(opts, csrf.Domain(appCfg.SessionDomain))
	}
	protect := csrf.Protect([]byte(appCfg.CSRFKey), opts...)

	return func(next http.Handler) http.Handler {
		protected := protect(next)
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if csrfExempt[req.URL.Path] {
				next.ServeHTTP(w, req)
				return
			}
			protected.ServeHTTP(w, req)
		})
	}
}
