package manager

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/appraisal-portal/internal"
	"github.com/frahmantamala/appraisal-portal/internal/appraisal"
	"github.com/frahmantamala/appraisal-portal/internal/review"
	"github.com/frahmantamala/appraisal-portal/internal/view"
)

type API interface {
	PendingReviews(ctx context.Context, token string) ([]appraisal.Review, error)
	SubmittedReviews(ctx context.Context, token string) ([]appraisal.Review, error)
	Questions(ctx context.Context, token string) ([]appraisal.Question, error)
	SubmitReview(ctx context.Context, token string, reviewID int64, ratings []appraisal.RatingSubmission) error
	ReviewClarifications(ctx context.Context, token string, reviewID int64) ([]appraisal.Feedback, error)
}

type Service struct {
	api    API
	logger *slog.Logger

	pending        *view.Registry[*view.Snapshot[[]appraisal.Review]]
	submitted      *view.Registry[*view.Snapshot[[]appraisal.Review]]
	clarifications *view.Registry[*view.Snapshot[[]appraisal.Feedback]]
	reviews        *view.Registry[*reviewState]
}

func NewService(api API, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	newReviews := func() *view.Snapshot[[]appraisal.Review] { return view.NewSnapshot[[]appraisal.Review](logger) }
	return &Service{
		api:       api,
		logger:    logger,
		pending:   view.NewRegistry(newReviews),
		submitted: view.NewRegistry(newReviews),
		clarifications: view.NewRegistry(func() *view.Snapshot[[]appraisal.Feedback] {
			return view.NewSnapshot[[]appraisal.Feedback](logger)
		}),
		reviews: view.NewRegistry(func() *reviewState { return &reviewState{} }),
	}
}

// Dashboard reads pending and submitted reviews. Each list falls back to its
// previous snapshot on failure; the first error is returned.
func (s *Service) Dashboard(ctx context.Context, scope, token string) (Dashboard, error) {
	pending, _, pendingErr := s.pending.Get(view.Key(scope)).Refresh(func() ([]appraisal.Review, error) {
		return s.api.PendingReviews(ctx, token)
	})
	submitted, _, submittedErr := s.submitted.Get(view.Key(scope)).Refresh(func() ([]appraisal.Review, error) {
		return s.api.SubmittedReviews(ctx, token)
	})

	err := pendingErr
	if err == nil {
		err = submittedErr
	}
	return Dashboard{Pending: pending, Submitted: submitted}, err
}

// Review returns the current step of a review, starting the wizard on the
// first visit.
func (s *Service) Review(ctx context.Context, scope, token string, reviewID int64) (ReviewPage, error) {
	state := s.reviews.Get(view.Key(scope, "review", reviewID))
	state.mu.Lock()
	defer state.mu.Unlock()

	if err := s.ensureWizard(ctx, token, state); err != nil {
		return ReviewPage{ReviewID: reviewID}, err
	}
	return pageOf(reviewID, state.wizard), nil
}

// Step records the posted answer and moves the wizard. It reports whether
// the review was submitted.
func (s *Service) Step(ctx context.Context, scope, token string, reviewID int64, in StepInput) (bool, error) {
	key := view.Key(scope, "review", reviewID)
	state := s.reviews.Get(key)
	state.mu.Lock()
	defer state.mu.Unlock()

	if err := s.ensureWizard(ctx, token, state); err != nil {
		return false, err
	}
	w := state.wizard

	if !w.Empty() {
		if err := w.SetRating(in.QuestionID, in.Rating); err != nil {
			return false, err
		}
		if err := w.SetComment(in.QuestionID, in.Comment); err != nil {
			return false, err
		}
	}

	switch in.Action {
	case ActionNext:
		w.Next()
		return false, nil
	case ActionPrevious:
		w.Previous()
		return false, nil
	case ActionSubmit:
		if w.Empty() || !w.IsLast() {
			return false, internal.NewValidationError("Answer every question before submitting", internal.ErrCodeValidationFailed)
		}
		if err := s.api.SubmitReview(ctx, token, reviewID, w.Submissions()); err != nil {
			s.logger.ErrorContext(ctx, "manager: submit review failed", "review_id", reviewID, "error", err)
			return false, fmt.Errorf("submit review %d: %w", reviewID, err)
		}
		s.reviews.Delete(key)
		s.logger.InfoContext(ctx, "manager: review submitted", "review_id", reviewID, "answers", w.Len())
		return true, nil
	default:
		return false, internal.NewValidationError(fmt.Sprintf("unknown action %q", in.Action), internal.ErrCodeValidationFailed)
	}
}

func (s *Service) Clarifications(ctx context.Context, scope, token string, reviewID int64) (ClarificationsPage, error) {
	items, _, err := s.clarifications.Get(view.Key(scope, "clarifications", reviewID)).Refresh(func() ([]appraisal.Feedback, error) {
		return s.api.ReviewClarifications(ctx, token, reviewID)
	})
	return ClarificationsPage{ReviewID: reviewID, Items: items}, err
}

func (s *Service) ForgetScope(scope string) {
	s.pending.ForgetScope(scope)
	s.submitted.ForgetScope(scope)
	s.clarifications.ForgetScope(scope)
	s.reviews.ForgetScope(scope)
}

// ensureWizard loads the questions once per review. A failed load leaves the
// state empty so the next visit retries.
func (s *Service) ensureWizard(ctx context.Context, token string, state *reviewState) error {
	if state.wizard != nil {
		return nil
	}
	questions, err := s.api.Questions(ctx, token)
	if err != nil {
		s.logger.WarnContext(ctx, "manager: questions read failed", "error", err)
		return fmt.Errorf("read questions: %w", err)
	}
	state.wizard = review.NewWizard(questions)
	return nil
}
