package rest

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
	"github.com/gorilla/csrf"

	"github.com/frahmantamala/appraisal-portal/internal/auth"
	"github.com/frahmantamala/appraisal-portal/internal/boss"
	"github.com/frahmantamala/appraisal-portal/internal/employee"
	"github.com/frahmantamala/appraisal-portal/internal/hr"
	"github.com/frahmantamala/appraisal-portal/internal/manager"
	"github.com/frahmantamala/appraisal-portal/internal/navigation"
	"github.com/frahmantamala/appraisal-portal/internal/session"
	"github.com/frahmantamala/appraisal-portal/internal/transport/middleware"
	"github.com/frahmantamala/appraisal-portal/internal/transport/swagger"
)

// Handlers groups the page handlers the portal serves.
type Handlers struct {
	Pages    *PageHandler
	Auth     *auth.Handler
	HR       *hr.Handler
	Manager  *manager.Handler
	Boss     *boss.Handler
	Employee *employee.Handler
	Health   *HealthHandler
}

// Options carries what the web middleware needs.
type Options struct {
	Cookies       *session.CookieCodec
	Registry      *session.Registry
	Menu          *navigation.Menu
	CSRFKey       []byte
	SecureCookies bool
	GuardWait     time.Duration
	Contract      []byte
}

func RegisterAllRoutes(router *chi.Mux, h Handlers, opts Options, logger *slog.Logger) {
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RequestID)
	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(middleware.RecoveryMiddleware(logger))

	// backend contract and its Swagger UI
	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		_, _ = w.Write(opts.Contract)
	})
	router.Handle("/swagger/*", swagger.Handler("/openapi.yml"))

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", h.Health.healthCheckHandler)
		r.Get("/ping", h.Health.pingHandler)
	})

	router.Group(func(web chi.Router) {
		web.Use(middleware.Session(opts.Cookies, opts.Registry, logger))
		if !opts.SecureCookies {
			web.Use(plaintextHTTP)
		}
		web.Use(csrf.Protect(opts.CSRFKey,
			csrf.Secure(opts.SecureCookies),
			csrf.Path("/"),
			csrf.HttpOnly(true),
			csrf.SameSite(csrf.SameSiteLaxMode),
			csrf.ErrorHandler(http.HandlerFunc(h.Pages.CSRFFailure)),
		))

		web.Get("/login", h.Auth.ShowLogin)
		web.Post("/login", h.Auth.Login)
		web.Post("/logout", h.Auth.Logout)
		web.Get("/whoami", h.Pages.WhoAmI)

		web.Group(func(pr chi.Router) {
			pr.Use(middleware.Guard(opts.GuardWait, http.HandlerFunc(h.Pages.Placeholder), logger))

			pr.Get("/", h.Pages.Home)

			pr.Group(func(hrr chi.Router) {
				hrr.Use(requireSection(opts.Menu, "/hr", h.Pages, logger))
				hrr.Get("/hr", h.HR.Dashboard)
				hrr.Post("/hr/appraisals", h.HR.Initiate)
				hrr.Post("/hr/appraisals/{id}/assign-pm", h.HR.AssignPM)
			})

			pr.Group(func(pmr chi.Router) {
				pmr.Use(requireSection(opts.Menu, "/pm", h.Pages, logger))
				pmr.Get("/pm", h.Manager.Dashboard)
				pmr.Get("/pm/reviews/{id}", h.Manager.Review)
				pmr.Post("/pm/reviews/{id}", h.Manager.Step)
				pmr.Get("/pm/reviews/{id}/clarifications", h.Manager.Clarifications)
			})

			pr.Group(func(br chi.Router) {
				br.Use(requireSection(opts.Menu, "/boss", h.Pages, logger))
				br.Get("/boss", h.Boss.Dashboard)
				br.Get("/boss/cycles/{id}", h.Boss.Cycle)
				br.Post("/boss/cycles/{id}/close", h.Boss.Close)
			})

			pr.Group(func(er chi.Router) {
				er.Use(requireSection(opts.Menu, "/employee", h.Pages, logger))
				er.Get("/employee", h.Employee.Overview)
				er.Post("/employee/self-assessment/{id}", h.Employee.SelfAssessment)
				er.Post("/employee/clarify", h.Employee.Clarify)
			})
		})
	})

	router.NotFound(chi.Chain(
		middleware.Session(opts.Cookies, opts.Registry, logger),
		middleware.Guard(opts.GuardWait, http.HandlerFunc(h.Pages.Placeholder), logger),
	).HandlerFunc(h.Pages.Missing).ServeHTTP)
}

// requireSection guards a dashboard with the roles its menu item lists.
func requireSection(menu *navigation.Menu, path string, pages *PageHandler, logger *slog.Logger) func(http.Handler) http.Handler {
	return middleware.RequireRole(http.HandlerFunc(pages.Forbidden), logger, menu.RolesFor(path)...)
}

// plaintextHTTP tells the CSRF check the portal is served without TLS, so
// it skips the strict referer check made for HTTPS.
func plaintextHTTP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, csrf.PlaintextHTTPRequest(r))
	})
}
