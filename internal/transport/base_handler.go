package transport

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi"

	"github.com/frahmantamala/appraisal-portal/internal"
	"github.com/frahmantamala/appraisal-portal/internal/apiclient"
	"github.com/frahmantamala/appraisal-portal/internal/session"
	"github.com/frahmantamala/appraisal-portal/internal/transport/web"
	"github.com/frahmantamala/appraisal-portal/internal/view"
	"github.com/frahmantamala/appraisal-portal/pkg/logger"
)

// BaseHandler provides common functionality for HTTP handlers
type BaseHandler struct {
	Logger   *slog.Logger
	Renderer *web.Renderer
	Notices  *view.Notices
}

// NewBaseHandler creates a base handler with logger
func NewBaseHandler(lg *slog.Logger, renderer *web.Renderer, notices *view.Notices) *BaseHandler {
	if lg == nil {
		lg = logger.LoggerWrapper()
		if lg == nil {
			lg = slog.Default()
		}
	}
	return &BaseHandler{Logger: lg, Renderer: renderer, Notices: notices}
}

// WriteJSON writes a JSON response
func (h *BaseHandler) WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.Logger.Error("failed to encode JSON response", "error", err)
	}
}

// Render writes an HTML page inside the layout.
func (h *BaseHandler) Render(w http.ResponseWriter, r *http.Request, status int, page, title string, data interface{}) {
	h.Renderer.Render(w, r, status, page, title, data)
}

// NotFound renders the not found page with a short explanation.
func (h *BaseHandler) NotFound(w http.ResponseWriter, r *http.Request, message string) {
	h.Render(w, r, http.StatusNotFound, "not_found", "Not found", message)
}

// SeeOther redirects after a form post.
func (h *BaseHandler) SeeOther(w http.ResponseWriter, r *http.Request, path string) {
	http.Redirect(w, r, path, http.StatusSeeOther)
}

// Flash queues a notice for the browser's next page.
func (h *BaseHandler) Flash(r *http.Request, n view.Notice) {
	store, ok := session.FromContext(r.Context())
	if !ok || h.Notices == nil {
		return
	}
	h.Notices.Add(store.Scope(), n)
}

// Store returns the request's session store.
func (h *BaseHandler) Store(r *http.Request) *session.Store {
	store, _ := session.FromContext(r.Context())
	return store
}

// Scope returns the browser's session scope, empty without a session.
func (h *BaseHandler) Scope(r *http.Request) string {
	if store := h.Store(r); store != nil {
		return store.Scope()
	}
	return ""
}

// Token returns the bearer token of the logged in user.
func (h *BaseHandler) Token(r *http.Request) string {
	if store := h.Store(r); store != nil {
		return store.Token()
	}
	return ""
}

// ExpiredToken logs the browser out when the backend no longer accepts its
// token. It reports whether the request has been answered.
func (h *BaseHandler) ExpiredToken(w http.ResponseWriter, r *http.Request, err error) bool {
	if !apiclient.IsUnauthorized(err) {
		return false
	}
	store := h.Store(r)
	if store == nil {
		return false
	}

	h.Logger.WarnContext(r.Context(), "backend rejected session token, logging out", "scope", store.Scope())
	if logoutErr := store.Logout(r.Context()); logoutErr != nil {
		h.Logger.ErrorContext(r.Context(), "logout after rejected token failed", "error", logoutErr)
	}
	h.Flash(r, view.Failure("Session expired", "Please sign in again."))
	h.SeeOther(w, r, LoginPath(returnPath(r)))
	return true
}

// returnPath is where the browser goes back to after signing in again. Form
// posts cannot be replayed, so they return to their dashboard.
func returnPath(r *http.Request) string {
	if r.Method == http.MethodGet || r.Method == http.MethodHead {
		return r.URL.RequestURI()
	}
	section, _, _ := strings.Cut(strings.TrimPrefix(r.URL.Path, "/"), "/")
	return "/" + section
}

// PathID parses a positive numeric URL parameter.
func (h *BaseHandler) PathID(r *http.Request, name string) (int64, error) {
	return ParseID(chi.URLParam(r, name), name)
}

// FormID parses a positive numeric form field.
func (h *BaseHandler) FormID(r *http.Request, name string) (int64, error) {
	return ParseID(r.PostFormValue(name), name)
}

func ParseID(raw, field string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, internal.NewValidationFieldError(field, field+" must be a positive number", internal.ErrCodeValidationFailed)
	}
	return id, nil
}

// LoginPath builds the login URL returning to next.
func LoginPath(next string) string {
	if !SafeNext(next) || next == "/" {
		return "/login"
	}
	return "/login?next=" + url.QueryEscape(next)
}

// SafeNext accepts only local absolute paths as redirect targets.
func SafeNext(next string) bool {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return false
	}
	u, err := url.Parse(next)
	return err == nil && u.Scheme == "" && u.Host == ""
}
