package employee

import (
	"context"
	"net/http"

	"github.com/frahmantamala/appraisal-portal/internal/transport"
	"github.com/frahmantamala/appraisal-portal/internal/view"
)

type ServiceAPI interface {
	Overview(ctx context.Context, scope, token string) (Overview, error)
	SubmitSelfAssessment(ctx context.Context, scope, token string, cycleID int64, form SelfAssessmentForm) error
	Clarify(ctx context.Context, token string, form ClarifyForm) error
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

const overviewPath = "/employee"

func (h *Handler) Overview(w http.ResponseWriter, r *http.Request) {
	overview, err := h.Service.Overview(r.Context(), h.Scope(r), h.Token(r))
	if err != nil {
		if h.ExpiredToken(w, r, err) {
			return
		}
		h.Logger.WarnContext(r.Context(), "employee: overview read incomplete", "error", err)
	}
	h.Render(w, r, http.StatusOK, "employee", "My Appraisal", overview)
}

func (h *Handler) SelfAssessment(w http.ResponseWriter, r *http.Request) {
	cycleID, err := h.PathID(r, "id")
	if err != nil {
		h.NotFound(w, r, "No such appraisal cycle.")
		return
	}

	form, err := SelfAssessmentFromForm(r)
	if err == nil {
		err = h.Service.SubmitSelfAssessment(r.Context(), h.Scope(r), h.Token(r), cycleID, form)
	}
	if err != nil {
		if h.ExpiredToken(w, r, err) {
			return
		}
		h.Flash(r, view.NoticeFromError("Submission Failed", err, "Please try again later."))
		h.SeeOther(w, r, overviewPath)
		return
	}

	h.Flash(r, view.Success("Assessment Submitted", "Your self-assessment has been saved."))
	h.SeeOther(w, r, overviewPath)
}

func (h *Handler) Clarify(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.Flash(r, view.Failure("Reply Failed", "The form could not be read."))
		h.SeeOther(w, r, overviewPath)
		return
	}

	if err := h.Service.Clarify(r.Context(), h.Token(r), ClarifyFromForm(r)); err != nil {
		if h.ExpiredToken(w, r, err) {
			return
		}
		h.Flash(r, view.NoticeFromError("Reply Failed", err, "Could not send your reply."))
		h.SeeOther(w, r, overviewPath)
		return
	}

	h.Flash(r, view.Success("Reply Sent", "Your clarification has been sent to your manager."))
	h.SeeOther(w, r, overviewPath)
}
