package middleware

import (
	"log/slog"
	"net/http"

	"github.com/frahmantamala/appraisal-portal/internal/core/role"
	"github.com/frahmantamala/appraisal-portal/internal/session"
)

// RequireRole lets through users holding at least one of roles. It must run
// behind Guard, so an anonymous request never reaches it.
func RequireRole(forbidden http.Handler, logger *slog.Logger, roles ...role.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			store, ok := session.FromContext(r.Context())
			if !ok {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			user, ok := store.User()
			if !ok || !user.Roles.HasAny(roles...) {
				logger.WarnContext(r.Context(), "access denied: user lacks required role",
					"path", r.URL.Path,
					"required_roles", roles,
					"user_roles", user.Roles.Strings())
				forbidden.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
