package auth

import (
	"context"
	"net/http"

	"github.com/frahmantamala/appraisal-portal/internal"
	"github.com/frahmantamala/appraisal-portal/internal/session"
	"github.com/frahmantamala/appraisal-portal/internal/transport"
	"github.com/frahmantamala/appraisal-portal/internal/view"
)

type ServiceAPI interface {
	Login(ctx context.Context, store *session.Store, dto LoginDTO) (session.User, error)
	Logout(ctx context.Context, store *session.Store) error
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, svc ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     svc,
	}
}

// LoginPage is the data of the login form.
type LoginPage struct {
	Next     string
	Username string
}

func (h *Handler) ShowLogin(w http.ResponseWriter, r *http.Request) {
	next := r.URL.Query().Get("next")
	if store := h.Store(r); store != nil && store.Authenticated() {
		h.SeeOther(w, r, redirectTarget(next))
		return
	}
	h.Render(w, r, http.StatusOK, "login", "Sign in", LoginPage{Next: next})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	store := h.Store(r)
	if store == nil {
		h.Logger.ErrorContext(r.Context(), "login: no session on request")
		http.Error(w, "session unavailable", http.StatusInternalServerError)
		return
	}

	if err := r.ParseForm(); err != nil {
		h.Flash(r, view.Failure("Sign in failed", "The form could not be read."))
		h.Render(w, r, http.StatusBadRequest, "login", "Sign in", LoginPage{})
		return
	}

	dto := LoginFromForm(r)
	next := r.PostFormValue("next")

	user, err := h.Service.Login(r.Context(), store, dto)
	if err != nil {
		status := http.StatusUnauthorized
		notice := view.NoticeFromError("Sign in failed", err, "Could not reach the server. Please try again.")
		if appErr, ok := internal.IsAppError(err); ok {
			status = appErr.StatusCode
			if appErr.Code == internal.ErrCodeInvalidLogin {
				notice = view.Failure("Sign in failed", appErr.Message)
			}
		}
		h.Flash(r, notice)
		h.Render(w, r, status, "login", "Sign in", LoginPage{Next: next, Username: dto.Username})
		return
	}

	h.Logger.InfoContext(r.Context(), "user signed in", "user", user.Name, "roles", user.Roles.Strings())
	h.Flash(r, view.Success("Welcome", "Signed in as "+user.Name+"."))
	h.SeeOther(w, r, redirectTarget(next))
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if store := h.Store(r); store != nil {
		if err := h.Service.Logout(r.Context(), store); err != nil {
			h.Logger.ErrorContext(r.Context(), "logout: stored session not removed", "error", err)
		}
	}
	h.Flash(r, view.Success("Signed out", "You have been signed out."))
	h.SeeOther(w, r, "/login")
}

func redirectTarget(next string) string {
	if transport.SafeNext(next) {
		return next
	}
	return "/"
}
