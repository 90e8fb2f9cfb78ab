package boss

import (
	"context"
	"fmt"
	"net/http"

	"github.com/frahmantamala/appraisal-portal/internal/transport"
	"github.com/frahmantamala/appraisal-portal/internal/view"
)

type ServiceAPI interface {
	Dashboard(ctx context.Context, scope, token string) (Dashboard, error)
	Cycle(ctx context.Context, scope, token string, cycleID int64) (CyclePage, error)
	Close(ctx context.Context, scope, token string, cycleID int64, form CloseForm) error
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

const dashboardPath = "/boss"

func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	dash, err := h.Service.Dashboard(r.Context(), h.Scope(r), h.Token(r))
	if err != nil {
		if h.ExpiredToken(w, r, err) {
			return
		}
		h.Logger.WarnContext(r.Context(), "boss: pending read failed", "error", err)
	}
	h.Render(w, r, http.StatusOK, "boss", "Executive Review", dash)
}

func (h *Handler) Cycle(w http.ResponseWriter, r *http.Request) {
	cycleID, err := h.PathID(r, "id")
	if err != nil {
		h.NotFound(w, r, "No such appraisal cycle.")
		return
	}

	page, err := h.Service.Cycle(r.Context(), h.Scope(r), h.Token(r), cycleID)
	if err != nil {
		if h.ExpiredToken(w, r, err) {
			return
		}
		h.Logger.WarnContext(r.Context(), "boss: summary read failed", "cycle_id", cycleID, "error", err)
	}
	if page.Summary == nil {
		h.NotFound(w, r, "The appraisal summary could not be loaded.")
		return
	}
	h.Render(w, r, http.StatusOK, "boss_cycle", page.Summary.EmployeeName, page)
}

func (h *Handler) Close(w http.ResponseWriter, r *http.Request) {
	cycleID, err := h.PathID(r, "id")
	if err != nil {
		h.NotFound(w, r, "No such appraisal cycle.")
		return
	}
	cyclePath := fmt.Sprintf("/boss/cycles/%d", cycleID)

	if err := r.ParseForm(); err != nil {
		h.Flash(r, view.Failure("Action Failed", "The form could not be read."))
		h.SeeOther(w, r, cyclePath)
		return
	}

	if err := h.Service.Close(r.Context(), h.Scope(r), h.Token(r), cycleID, CloseFromForm(r)); err != nil {
		if h.ExpiredToken(w, r, err) {
			return
		}
		h.Flash(r, view.NoticeFromError("Action Failed", err, "Could not finalize the appraisal."))
		h.SeeOther(w, r, cyclePath)
		return
	}

	h.Flash(r, view.Success("Appraisal Finalized", "The appraisal cycle has been closed successfully."))
	h.SeeOther(w, r, dashboardPath)
}
