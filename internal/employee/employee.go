package employee

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/frahmantamala/appraisal-portal/internal"
	"github.com/frahmantamala/appraisal-portal/internal/appraisal"
	"github.com/frahmantamala/appraisal-portal/internal/core/common/validation"
	"github.com/frahmantamala/appraisal-portal/internal/review"
)

// Overview is the employee's page. Cycle is nil when no cycle is active.
type Overview struct {
	Cycle     *appraisal.Cycle
	Chart     []appraisal.Bar
	Questions []appraisal.Question
	Feedback  []appraisal.Feedback
}

// SelfAssessmentForm holds the posted answers keyed by question id.
type SelfAssessmentForm struct {
	Answers map[int64]review.Answer
}

// SelfAssessmentFromForm reads the rating-{id} and comment-{id} fields.
func SelfAssessmentFromForm(r *http.Request) (SelfAssessmentForm, error) {
	if err := r.ParseForm(); err != nil {
		return SelfAssessmentForm{}, err
	}
	form := SelfAssessmentForm{Answers: make(map[int64]review.Answer)}
	for key, values := range r.PostForm {
		raw, ok := strings.CutPrefix(key, "rating-")
		if !ok || len(values) == 0 {
			continue
		}
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			continue
		}
		rating, err := strconv.Atoi(strings.TrimSpace(values[0]))
		if err != nil {
			return SelfAssessmentForm{}, internal.NewValidationFieldError(key, "rating must be a number", internal.ErrCodeInvalidRating)
		}
		form.Answers[id] = review.Answer{Rating: rating, Comment: r.PostFormValue("comment-" + raw)}
	}
	return form, nil
}

// ClarifyForm is an employee's reply to one manager rating.
type ClarifyForm struct {
	PMRatingID int64
	ReplyText  string
}

func ClarifyFromForm(r *http.Request) ClarifyForm {
	id, _ := strconv.ParseInt(strings.TrimSpace(r.PostFormValue("pmRatingId")), 10, 64)
	return ClarifyForm{PMRatingID: id, ReplyText: strings.TrimSpace(r.PostFormValue("replyText"))}
}

func (f ClarifyForm) Validate() *internal.AppError {
	validator := validation.NewValidator()
	validator.Field("pmRatingId", f.PMRatingID).Required()
	validator.Field("replyText", f.ReplyText).Required().MaxLength(2000)
	return validator.Validate()
}

func (f ClarifyForm) Request() appraisal.ClarifyRequest {
	return appraisal.ClarifyRequest{PMRatingID: f.PMRatingID, ReplyText: f.ReplyText}
}
