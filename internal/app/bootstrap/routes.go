// internal/app/bootstrap/routes.go
package bootstrap

import (
	"crypto/sha256"
	"net/http"

	dashboardfeature "github.com/dalemusser/councilhub/internal/app/features/dashboard"
	directoryfeature "github.com/dalemusser/councilhub/internal/app/features/directory"
	errorsfeature "github.com/dalemusser/councilhub/internal/app/features/errors"
	eventsfeature "github.com/dalemusser/councilhub/internal/app/features/events"
	healthfeature "github.com/dalemusser/councilhub/internal/app/features/health"
	homefeature "github.com/dalemusser/councilhub/internal/app/features/home"
	integrationsfeature "github.com/dalemusser/councilhub/internal/app/features/integrations"
	loginfeature "github.com/dalemusser/councilhub/internal/app/features/login"
	logoutfeature "github.com/dalemusser/councilhub/internal/app/features/logout"
	registerfeature "github.com/dalemusser/councilhub/internal/app/features/register"
	settingsfeature "github.com/dalemusser/councilhub/internal/app/features/settings"
	tasksfeature "github.com/dalemusser/councilhub/internal/app/features/tasks"
	usersfeature "github.com/dalemusser/councilhub/internal/app/features/users"
	settingsstore "github.com/dalemusser/councilhub/internal/app/store/settings"
	userstore "github.com/dalemusser/councilhub/internal/app/store/users"
	"github.com/dalemusser/councilhub/internal/app/system/auth"
	"github.com/dalemusser/councilhub/internal/app/system/jsonresp"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/pantry/fileserver"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/csrf"
	"go.uber.org/zap"
)

// stopWorkers is set by BuildHandler and called from Shutdown.
var stopWorkers func()

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed.
//
// The router has two halves. /api serves JSON to the browser client and
// allows cross-origin calls from the configured origins. Everything else is
// server-rendered HTML behind CSRF protection.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	db := deps.MongoDatabase

	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	// Fresh user data on each request, so role changes and deactivation
	// take effect immediately.
	sessionMgr.SetUserFetcher(userstore.NewFetcher(db))

	// Dev mode enables template reloading for faster iteration.
	eng := templates.New(coreCfg.Env == "dev")
	if err := eng.Boot(logger); err != nil {
		logger.Error("template engine boot failed", zap.Error(err))
		return nil, err
	}
	templates.UseEngine(eng, logger)

	svc, err := NewServices(appCfg, db, logger)
	if err != nil {
		logger.Error("services init failed", zap.Error(err))
		return nil, err
	}
	stopWorkers = svc.StartWorkers(logger)

	errLog := errorsfeature.NewErrorLogger(logger)
	site := settingsstore.New(db, logger)

	// Handlers shared by the API and HTML halves.
	loginHandler := loginfeature.NewHandler(db, sessionMgr, errLog, svc.Audit, logger)
	registerHandler := registerfeature.NewHandler(db, svc.Recaptcha, svc.Lifecycle, sessionMgr, errLog, svc.Audit, logger)
	eventsHandler := eventsfeature.NewHandler(db, sessionMgr, errLog, svc.Audit, logger)
	tasksHandler := tasksfeature.NewHandler(db, logger)
	usersHandler := usersfeature.NewHandler(db, svc.Lifecycle, sessionMgr, errLog, logger)
	directoryHandler := directoryfeature.NewHandler(db, sessionMgr, errLog, svc.Audit, logger)
	settingsHandler := settingsfeature.NewHandler(db, svc.Recaptcha, sessionMgr, errLog, svc.Audit, logger)
	integrationsHandler := integrationsfeature.NewHandler(db, svc.Integrations, svc.Gmail, sessionMgr, errLog, svc.Audit, logger)
	dashboardHandler := dashboardfeature.NewHandler(db, sessionMgr, errLog, logger)
	errorsHandler := errorsfeature.NewHandler(site)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	// Global auth middleware: loads SessionUser into context if logged in.
	r.Use(sessionMgr.LoadSessionUser)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Static assets with pre-compressed file support (gzip/brotli)
	r.Handle("/static/*", fileserver.Handler("/static", "public"))

	r.Route("/api", func(api chi.Router) {
		api.Use(cors.Handler(cors.Options{
			AllowedOrigins:   appCfg.CORSAllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", "X-Requested-With"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
		// gorilla/csrf covers the HTML forms; the API instead refuses
		// writes a cross-site form could send.
		api.Use(jsonresp.RequireAPIClient)

		authRouter := loginfeature.APIRoutes(loginHandler, sessionMgr)
		registerfeature.AddAPIRoutes(authRouter, registerHandler)
		api.Mount("/auth", authRouter)

		api.Mount("/events", eventsfeature.PublicRoutes(eventsHandler))
		api.Mount("/settings", settingsfeature.PublicRoutes(settingsHandler))

		api.Route("/admin", func(admin chi.Router) {
			eventsRouter := eventsfeature.AdminRoutes(eventsHandler, sessionMgr)
			tasksfeature.AddEventRoutes(eventsRouter, tasksHandler)
			admin.Mount("/events", eventsRouter)

			admin.Mount("/tasks", tasksfeature.Routes(tasksHandler, sessionMgr))
			admin.Mount("/users", usersfeature.APIRoutes(usersHandler, sessionMgr))
			admin.Mount("/directory", directoryfeature.APIRoutes(directoryHandler, sessionMgr))
			admin.Mount("/settings", settingsfeature.APIRoutes(settingsHandler, sessionMgr))
			admin.Mount("/integrations", integrationsfeature.APIRoutes(integrationsHandler, sessionMgr))
			admin.Mount("/dashboard", dashboardfeature.APIRoutes(dashboardHandler, sessionMgr))
		})
	})

	r.Group(func(web chi.Router) {
		if !secure {
			web.Use(plaintextCSRF)
		}
		web.Use(csrf.Protect(csrfKey(appCfg.SessionKey),
			csrf.Secure(secure),
			csrf.Path("/"),
			csrf.CookieName("councilhub-csrf"),
			csrf.ErrorHandler(http.HandlerFunc(errorsHandler.Forbidden)),
		))

		homeHandler := homefeature.NewHandler(db, logger)
		homefeature.AddRoutes(web, homeHandler)

		web.Mount("/login", loginfeature.Routes(loginHandler))
		web.Mount("/verify-email", registerfeature.Routes(registerHandler))

		logoutHandler := logoutfeature.NewHandler(sessionMgr, svc.Audit, logger)
		web.Mount("/logout", logoutfeature.Routes(logoutHandler, sessionMgr))

		web.Get("/forbidden", errorsHandler.Forbidden)
		web.Get("/unauthorized", errorsHandler.Unauthorized)

		web.Mount("/dashboard", dashboardfeature.Routes(dashboardHandler, sessionMgr))

		web.Mount("/admin/events", eventsfeature.Routes(eventsHandler, sessionMgr))
		web.Mount("/admin/users", usersfeature.Routes(usersHandler, sessionMgr))
		web.Mount("/admin/directory", directoryfeature.Routes(directoryHandler, sessionMgr))
		web.Mount("/admin/settings", settingsfeature.Routes(settingsHandler, sessionMgr))
		web.Mount("/admin/integrations", integrationsfeature.Routes(integrationsHandler, sessionMgr))
	})

	r.NotFound(errorsHandler.NotFound)

	return r, nil
}

// csrfKey derives the 32-byte CSRF key from the session key so operators
// manage one secret.
func csrfKey(sessionKey string) []byte {
	sum := sha256.Sum256([]byte("csrf:" + sessionKey))
	return sum[:]
}

// plaintextCSRF tells gorilla/csrf the request arrived over plain HTTP,
// which skips the HTTPS-only Referer check during local development.
func plaintextCSRF(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, csrf.PlaintextHTTPRequest(r))
	})
}
