package rest

import (
	"net/http"

	"github.com/gorilla/csrf"

	"github.com/frahmantamala/appraisal-portal/internal"
	"github.com/frahmantamala/appraisal-portal/internal/guard"
	"github.com/frahmantamala/appraisal-portal/internal/transport"
)

// PageHandler serves the pages that belong to no dashboard.
type PageHandler struct {
	*transport.BaseHandler
}

func NewPageHandler(baseHandler *transport.BaseHandler) *PageHandler {
	return &PageHandler{BaseHandler: baseHandler}
}

// Home greets the signed in user and links the dashboards they may open.
func (h *PageHandler) Home(w http.ResponseWriter, r *http.Request) {
	h.Render(w, r, http.StatusOK, "home", "Dashboard", nil)
}

// Placeholder is shown while a browser's session is still loading.
func (h *PageHandler) Placeholder(w http.ResponseWriter, r *http.Request) {
	h.Render(w, r, http.StatusServiceUnavailable, "placeholder", "Loading", nil)
}

func (h *PageHandler) Forbidden(w http.ResponseWriter, r *http.Request) {
	h.Render(w, r, http.StatusForbidden, "forbidden", "Not permitted", nil)
}

func (h *PageHandler) Missing(w http.ResponseWriter, r *http.Request) {
	h.NotFound(w, r, "The page you asked for does not exist.")
}

// CSRFFailure answers a form post whose token did not match.
func (h *PageHandler) CSRFFailure(w http.ResponseWriter, r *http.Request) {
	h.Logger.WarnContext(r.Context(), "csrf check failed", "path", r.URL.Path, "reason", csrf.FailureReason(r))
	h.Render(w, r, http.StatusForbidden, "forbidden", "Not permitted", nil)
}

type whoAmIResponse struct {
	State string      `json:"state"`
	User  interface{} `json:"user,omitempty"`
}

// WhoAmI reports the browser's session as JSON once it has settled.
func (h *PageHandler) WhoAmI(w http.ResponseWriter, r *http.Request) {
	store := h.Store(r)
	if store == nil {
		status, body := internal.ErrSessionInvalid.ToHTTPResponse()
		h.WriteJSON(w, status, body)
		return
	}

	select {
	case <-store.Start(r.Context()):
	case <-r.Context().Done():
		return
	}

	resp := whoAmIResponse{State: guard.Of(store).String()}
	if user, ok := store.User(); ok {
		resp.User = user
	}
	h.WriteJSON(w, http.StatusOK, resp)
}
