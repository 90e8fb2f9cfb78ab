package manager

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/frahmantamala/appraisal-portal/internal"
	"github.com/frahmantamala/appraisal-portal/internal/transport"
	"github.com/frahmantamala/appraisal-portal/internal/view"
)

type ServiceAPI interface {
	Dashboard(ctx context.Context, scope, token string) (Dashboard, error)
	Review(ctx context.Context, scope, token string, reviewID int64) (ReviewPage, error)
	Step(ctx context.Context, scope, token string, reviewID int64, in StepInput) (bool, error)
	Clarifications(ctx context.Context, scope, token string, reviewID int64) (ClarificationsPage, error)
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

const dashboardPath = "/pm"

func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	dash, err := h.Service.Dashboard(r.Context(), h.Scope(r), h.Token(r))
	if err != nil {
		if h.ExpiredToken(w, r, err) {
			return
		}
		h.Logger.WarnContext(r.Context(), "manager: dashboard read incomplete", "error", err)
	}
	h.Render(w, r, http.StatusOK, "pm", "Manager Dashboard", dash)
}

func (h *Handler) Review(w http.ResponseWriter, r *http.Request) {
	reviewID, err := h.PathID(r, "id")
	if err != nil {
		h.NotFound(w, r, "No such review.")
		return
	}

	page, err := h.Service.Review(r.Context(), h.Scope(r), h.Token(r), reviewID)
	if err != nil {
		if h.ExpiredToken(w, r, err) {
			return
		}
		h.Flash(r, view.NoticeFromError("Review unavailable", err, "The questions could not be loaded."))
		h.SeeOther(w, r, dashboardPath)
		return
	}
	h.Render(w, r, http.StatusOK, "pm_review", fmt.Sprintf("Review #%d", reviewID), page)
}

func (h *Handler) Step(w http.ResponseWriter, r *http.Request) {
	reviewID, err := h.PathID(r, "id")
	if err != nil {
		h.NotFound(w, r, "No such review.")
		return
	}
	reviewPath := fmt.Sprintf("/pm/reviews/%d", reviewID)

	in, err := stepFromForm(r)
	if err != nil {
		h.Flash(r, view.NoticeFromError("Invalid answer", err, "The answer could not be read."))
		h.SeeOther(w, r, reviewPath)
		return
	}

	submitted, err := h.Service.Step(r.Context(), h.Scope(r), h.Token(r), reviewID, in)
	if err != nil {
		if h.ExpiredToken(w, r, err) {
			return
		}
		if in.Action == ActionSubmit {
			h.Flash(r, view.NoticeFromError("Submission Failed", err, "Please try again later."))
		} else {
			h.Flash(r, view.NoticeFromError("Invalid answer", err, "The answer could not be saved."))
		}
		h.SeeOther(w, r, reviewPath)
		return
	}

	if submitted {
		h.Flash(r, view.Success("Review Submitted", "Your feedback has been recorded successfully."))
		h.SeeOther(w, r, dashboardPath)
		return
	}
	h.SeeOther(w, r, reviewPath)
}

func (h *Handler) Clarifications(w http.ResponseWriter, r *http.Request) {
	reviewID, err := h.PathID(r, "id")
	if err != nil {
		h.NotFound(w, r, "No such review.")
		return
	}

	page, err := h.Service.Clarifications(r.Context(), h.Scope(r), h.Token(r), reviewID)
	if err != nil {
		if h.ExpiredToken(w, r, err) {
			return
		}
		h.Logger.WarnContext(r.Context(), "manager: clarifications read failed", "review_id", reviewID, "error", err)
	}
	h.Render(w, r, http.StatusOK, "pm_clarifications", "Clarifications", page)
}

func stepFromForm(r *http.Request) (StepInput, error) {
	if err := r.ParseForm(); err != nil {
		return StepInput{}, err
	}
	in := StepInput{
		Action:  Action(strings.TrimSpace(r.PostFormValue("action"))),
		Comment: r.PostFormValue("comment"),
	}
	if in.Action == "" {
		in.Action = ActionNext
	}

	if raw := strings.TrimSpace(r.PostFormValue("questionId")); raw != "" {
		id, err := transport.ParseID(raw, "questionId")
		if err != nil {
			return StepInput{}, err
		}
		in.QuestionID = id
	}

	rating, err := strconv.Atoi(strings.TrimSpace(r.PostFormValue("rating")))
	if err != nil {
		return StepInput{}, internal.NewValidationFieldError("rating", "rating must be a number", internal.ErrCodeInvalidRating)
	}
	in.Rating = rating
	return in, nil
}
