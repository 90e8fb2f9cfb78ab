package review

import (
	"fmt"

	"github.com/frahmantamala/appraisal-portal/internal"
	"github.com/frahmantamala/appraisal-portal/internal/appraisal"
	"github.com/frahmantamala/appraisal-portal/internal/core/common/validation"
)

// Answer is the rating and comment given to one question.
type Answer struct {
	Rating  int
	Comment string
}

// Wizard walks a reviewer through questions one step at a time. It holds no
// I/O; callers render Current and submit Submissions.
type Wizard struct {
	questions []appraisal.Question
	index     map[int64]int
	step      int
	answers   map[int64]Answer
}

func NewWizard(questions []appraisal.Question) *Wizard {
	w := &Wizard{
		questions: append([]appraisal.Question(nil), questions...),
		index:     make(map[int64]int, len(questions)),
		answers:   make(map[int64]Answer, len(questions)),
	}
	for i, q := range w.questions {
		w.index[q.ID] = i
		w.answers[q.ID] = Answer{Rating: appraisal.DefaultRating}
	}
	return w
}

func (w *Wizard) Len() int {
	return len(w.questions)
}

func (w *Wizard) Empty() bool {
	return len(w.questions) == 0
}

func (w *Wizard) Step() int {
	return w.step
}

// Current returns the question at the current step.
func (w *Wizard) Current() (appraisal.Question, Answer, bool) {
	if w.Empty() {
		return appraisal.Question{}, Answer{}, false
	}
	q := w.questions[w.step]
	return q, w.answers[q.ID], true
}

// Next moves forward unless already on the last question.
func (w *Wizard) Next() bool {
	if w.step >= len(w.questions)-1 {
		return false
	}
	w.step++
	return true
}

// Previous moves back unless already on the first question.
func (w *Wizard) Previous() bool {
	if w.step == 0 {
		return false
	}
	w.step--
	return true
}

func (w *Wizard) IsFirst() bool {
	return w.step == 0
}

func (w *Wizard) IsLast() bool {
	return len(w.questions) == 0 || w.step == len(w.questions)-1
}

// Progress is the completed share in percent, counting the current step.
func (w *Wizard) Progress() int {
	if w.Empty() {
		return 0
	}
	return (w.step + 1) * 100 / len(w.questions)
}

func (w *Wizard) SetRating(questionID int64, rating int) error {
	if _, ok := w.index[questionID]; !ok {
		return internal.NewValidationFieldError("questionId", fmt.Sprintf("unknown question %d", questionID), internal.ErrCodeValidationFailed)
	}
	if err := validation.ValidateRating("rating", rating, appraisal.MinRating, appraisal.MaxRating); err != nil {
		return err
	}
	a := w.answers[questionID]
	a.Rating = rating
	w.answers[questionID] = a
	return nil
}

func (w *Wizard) SetComment(questionID int64, comment string) error {
	if _, ok := w.index[questionID]; !ok {
		return internal.NewValidationFieldError("questionId", fmt.Sprintf("unknown question %d", questionID), internal.ErrCodeValidationFailed)
	}
	if err := validation.ValidateComment("comment", comment); err != nil {
		return err
	}
	a := w.answers[questionID]
	a.Comment = comment
	w.answers[questionID] = a
	return nil
}

// Answer returns the answer recorded for a question.
func (w *Wizard) Answer(questionID int64) (Answer, bool) {
	a, ok := w.answers[questionID]
	return a, ok
}

// Questions returns the questions in order.
func (w *Wizard) Questions() []appraisal.Question {
	return append([]appraisal.Question(nil), w.questions...)
}

// Submissions lists every answer in question order.
func (w *Wizard) Submissions() []appraisal.RatingSubmission {
	out := make([]appraisal.RatingSubmission, 0, len(w.questions))
	for _, q := range w.questions {
		a := w.answers[q.ID]
		out = append(out, appraisal.RatingSubmission{QuestionID: q.ID, Rating: a.Rating, Comment: a.Comment})
	}
	return out
}
