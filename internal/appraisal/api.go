package appraisal

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/frahmantamala/appraisal-portal/internal/apiclient"
)

// Requester is the transport the API speaks through.
type Requester interface {
	Get(ctx context.Context, token, path string, out interface{}) error
	Post(ctx context.Context, token, path string, body, out interface{}) error
}

// API wraps the backend endpoints the dashboards use. Every call is made on
// behalf of the token holder.
type API struct {
	client Requester
}

func NewAPI(client Requester) *API {
	return &API{client: client}
}

func (a *API) Employees(ctx context.Context, token string) ([]Person, error) {
	var out []Person
	if err := a.client.Get(ctx, token, "/users/employees", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (a *API) ProjectManagers(ctx context.Context, token string) ([]Person, error) {
	var out []Person
	if err := a.client.Get(ctx, token, "/users/pms", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (a *API) Cycles(ctx context.Context, token string) ([]Cycle, error) {
	var out []Cycle
	if err := a.client.Get(ctx, token, "/appraisals", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (a *API) Initiate(ctx context.Context, token string, req InitiateRequest) (*Cycle, error) {
	var out Cycle
	if err := a.client.Post(ctx, token, "/appraisals", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *API) AssignPM(ctx context.Context, token string, cycleID, pmID int64) error {
	return a.client.Post(ctx, token, fmt.Sprintf("/appraisals/%d/assign-pm", cycleID), AssignRequest{PMID: pmID}, nil)
}

func (a *API) PendingReviews(ctx context.Context, token string) ([]Review, error) {
	var out []Review
	if err := a.client.Get(ctx, token, "/pm/pending-reviews", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (a *API) SubmittedReviews(ctx context.Context, token string) ([]Review, error) {
	var out []Review
	if err := a.client.Get(ctx, token, "/pm/submitted-reviews", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (a *API) ReviewClarifications(ctx context.Context, token string, reviewID int64) ([]Feedback, error) {
	var out []Feedback
	if err := a.client.Get(ctx, token, fmt.Sprintf("/pm/reviews/%d/clarifications", reviewID), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (a *API) Questions(ctx context.Context, token string) ([]Question, error) {
	var out []Question
	if err := a.client.Get(ctx, token, "/questions", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (a *API) SubmitReview(ctx context.Context, token string, reviewID int64, ratings []RatingSubmission) error {
	return a.client.Post(ctx, token, fmt.Sprintf("/pm/reviews/%d/submit", reviewID), ratings, nil)
}

func (a *API) BossPending(ctx context.Context, token string) ([]Cycle, error) {
	var out []Cycle
	if err := a.client.Get(ctx, token, "/boss/pending", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (a *API) Summary(ctx context.Context, token string, cycleID int64) (*Summary, error) {
	var out Summary
	if err := a.client.Get(ctx, token, fmt.Sprintf("/boss/summary/%d", cycleID), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *API) Close(ctx context.Context, token string, cycleID int64, comment string) error {
	return a.client.Post(ctx, token, fmt.Sprintf("/boss/close/%d", cycleID), CloseRequest{BossComment: comment}, nil)
}

// ActiveCycle returns nil without error when the employee has no cycle this year.
func (a *API) ActiveCycle(ctx context.Context, token string) (*Cycle, error) {
	var out *Cycle
	err := a.client.Get(ctx, token, "/employee/active-cycle", &out)
	if err != nil {
		var apiErr *apiclient.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return nil, nil
		}
		return nil, err
	}
	if out != nil && out.ID == 0 {
		return nil, nil
	}
	return out, nil
}

func (a *API) Report(ctx context.Context, token string, cycleID int64) ([]ReportLine, error) {
	var out []ReportLine
	if err := a.client.Get(ctx, token, fmt.Sprintf("/employee/report/%d", cycleID), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (a *API) Feedback(ctx context.Context, token string, cycleID int64) ([]Feedback, error) {
	var out []Feedback
	if err := a.client.Get(ctx, token, fmt.Sprintf("/employee/feedback/%d", cycleID), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (a *API) SubmitSelfAssessment(ctx context.Context, token string, cycleID int64, ratings []RatingSubmission) error {
	return a.client.Post(ctx, token, fmt.Sprintf("/employee/self-assessment/%d", cycleID), ratings, nil)
}

func (a *API) Clarify(ctx context.Context, token string, req ClarifyRequest) error {
	return a.client.Post(ctx, token, "/employee/clarify", req, nil)
}
