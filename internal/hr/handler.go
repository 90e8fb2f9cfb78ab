package hr

import (
	"context"
	"net/http"

	"github.com/frahmantamala/appraisal-portal/internal/appraisal"
	"github.com/frahmantamala/appraisal-portal/internal/transport"
	"github.com/frahmantamala/appraisal-portal/internal/view"
)

type ServiceAPI interface {
	Dashboard(ctx context.Context, scope, token string) (Dashboard, error)
	Initiate(ctx context.Context, token string, form InitiateForm) (*appraisal.Cycle, error)
	AssignPM(ctx context.Context, scope, token string, cycleID, pmID int64) error
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

const dashboardPath = "/hr"

func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	dash, err := h.Service.Dashboard(r.Context(), h.Scope(r), h.Token(r))
	if err != nil {
		if h.ExpiredToken(w, r, err) {
			return
		}
		h.Logger.WarnContext(r.Context(), "hr: dashboard read incomplete", "error", err)
	}
	h.Render(w, r, http.StatusOK, "hr", "HR Console", dash)
}

func (h *Handler) Initiate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.Flash(r, view.Failure("Failed to Initiate", "The form could not be read."))
		h.SeeOther(w, r, dashboardPath)
		return
	}

	if _, err := h.Service.Initiate(r.Context(), h.Token(r), InitiateFromForm(r)); err != nil {
		if h.ExpiredToken(w, r, err) {
			return
		}
		h.Flash(r, view.NoticeFromError("Failed to Initiate", err, "Could not create appraisal."))
		h.SeeOther(w, r, dashboardPath)
		return
	}

	h.Flash(r, view.Success("Appraisal Initiated", "The appraisal cycle has been created successfully."))
	h.SeeOther(w, r, dashboardPath)
}

func (h *Handler) AssignPM(w http.ResponseWriter, r *http.Request) {
	cycleID, err := h.PathID(r, "id")
	if err != nil {
		h.NotFound(w, r, "No such appraisal cycle.")
		return
	}
	pmID, err := h.FormID(r, "pmId")
	if err != nil {
		h.Flash(r, view.NoticeFromError("Failed to Assign PM", err, "Select a project manager."))
		h.SeeOther(w, r, dashboardPath)
		return
	}

	if err := h.Service.AssignPM(r.Context(), h.Scope(r), h.Token(r), cycleID, pmID); err != nil {
		if h.ExpiredToken(w, r, err) {
			return
		}
		h.Flash(r, view.NoticeFromError("Failed to Assign PM", err, "Could not assign PM."))
		h.SeeOther(w, r, dashboardPath)
		return
	}

	h.Flash(r, view.Success("PM Assigned", "The Project Manager has been assigned successfully."))
	h.SeeOther(w, r, dashboardPath)
}
