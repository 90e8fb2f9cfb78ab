package manager

import (
	"sync"

	"github.com/frahmantamala/appraisal-portal/internal/appraisal"
	"github.com/frahmantamala/appraisal-portal/internal/review"
)

// Dashboard lists the reviews assigned to the signed in manager.
type Dashboard struct {
	Pending   []appraisal.Review
	Submitted []appraisal.Review
}

// Action is the button pressed on a review step.
type Action string

const (
	ActionNext     Action = "next"
	ActionPrevious Action = "previous"
	ActionSubmit   Action = "submit"
)

// StepInput is one posted review step: the shown question's answer and
// where to go next.
type StepInput struct {
	Action     Action
	QuestionID int64
	Rating     int
	Comment    string
}

// ReviewPage is the current step of a review as rendered.
type ReviewPage struct {
	ReviewID int64
	Empty    bool
	Step     int
	Total    int
	Progress int
	Question appraisal.Question
	Answer   review.Answer
	First    bool
	Last     bool
}

// ClarificationsPage shows the employee replies to one review.
type ClarificationsPage struct {
	ReviewID int64
	Items    []appraisal.Feedback
}

// reviewState is the wizard of one review in one browser.
type reviewState struct {
	mu     sync.Mutex
	wizard *review.Wizard
}

func pageOf(reviewID int64, w *review.Wizard) ReviewPage {
	page := ReviewPage{
		ReviewID: reviewID,
		Empty:    w.Empty(),
		Step:     w.Step(),
		Total:    w.Len(),
		Progress: w.Progress(),
		First:    w.IsFirst(),
		Last:     w.IsLast(),
	}
	page.Question, page.Answer, _ = w.Current()
	return page
}
