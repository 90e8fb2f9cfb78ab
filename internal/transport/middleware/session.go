package middleware

import (
	"log/slog"
	"net/http"

	"github.com/frahmantamala/appraisal-portal/internal"
	"github.com/frahmantamala/appraisal-portal/internal/session"
	"github.com/frahmantamala/appraisal-portal/pkg/logger"
)

// Session attaches the browser's session store to the request. A browser
// without a valid scope cookie gets a fresh scope. The store starts loading in
// the background; the guard decides whether to wait for it.
func Session(codec *session.CookieCodec, registry *session.Registry, lg *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			scope, ok := codec.FromRequest(r)
			if !ok {
				scope = session.NewScope()
				ck, err := codec.Cookie(scope)
				if err != nil {
					lg.ErrorContext(r.Context(), "failed to issue session cookie", "error", err)
					http.Error(w, "internal server error", http.StatusInternalServerError)
					return
				}
				http.SetCookie(w, ck)
			}

			store := registry.Get(scope)
			store.Start(r.Context())

			ctx := session.ContextWithStore(r.Context(), store)
			ctx = internal.ContextWithScope(ctx, scope)
			ctx = logger.With(ctx, "session_scope", shortScope(scope))
			next.ServeHTTP(w, r.WithContext(ctx))
			store.Touch(ctx)
		})
	}
}

func shortScope(scope string) string {
	if len(scope) > 8 {
		return scope[:8]
	}
	return scope
}
