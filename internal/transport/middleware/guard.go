package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/frahmantamala/appraisal-portal/internal/guard"
	"github.com/frahmantamala/appraisal-portal/internal/session"
	"github.com/frahmantamala/appraisal-portal/internal/transport"
)

// Guard protects a subtree. It waits up to wait for the session to settle;
// while the state is still unknown it serves placeholder with 503 and never
// redirects.
func Guard(wait time.Duration, placeholder http.Handler, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			store, _ := session.FromContext(r.Context())
			if store != nil && !store.Initialized() && wait > 0 {
				timer := time.NewTimer(wait)
				select {
				case <-store.Start(r.Context()):
				case <-timer.C:
				case <-r.Context().Done():
				}
				timer.Stop()
			}

			state := guard.Of(store)
			switch guard.Decide(state) {
			case guard.Allow:
				next.ServeHTTP(w, r)
			case guard.RedirectToLogin:
				http.Redirect(w, r, transport.LoginPath(r.URL.RequestURI()), http.StatusSeeOther)
			default:
				logger.DebugContext(r.Context(), "guard: session not settled, serving placeholder", "path", r.URL.Path)
				w.Header().Set("Retry-After", "1")
				w.Header().Set("Cache-Control", "no-store")
				placeholder.ServeHTTP(w, r)
			}
		})
	}
}
