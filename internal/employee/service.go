package employee

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/frahmantamala/appraisal-portal/internal/appraisal"
	"github.com/frahmantamala/appraisal-portal/internal/review"
	"github.com/frahmantamala/appraisal-portal/internal/view"
)

type API interface {
	ActiveCycle(ctx context.Context, token string) (*appraisal.Cycle, error)
	Report(ctx context.Context, token string, cycleID int64) ([]appraisal.ReportLine, error)
	Feedback(ctx context.Context, token string, cycleID int64) ([]appraisal.Feedback, error)
	Questions(ctx context.Context, token string) ([]appraisal.Question, error)
	SubmitSelfAssessment(ctx context.Context, token string, cycleID int64, ratings []appraisal.RatingSubmission) error
	Clarify(ctx context.Context, token string, req appraisal.ClarifyRequest) error
}

type Service struct {
	api    API
	logger *slog.Logger

	cycles    *view.Registry[*view.Snapshot[*appraisal.Cycle]]
	reports   *view.Registry[*view.Snapshot[[]appraisal.ReportLine]]
	feedback  *view.Registry[*view.Snapshot[[]appraisal.Feedback]]
	questions *view.Registry[*view.Snapshot[[]appraisal.Question]]
}

func NewService(api API, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		api:    api,
		logger: logger,
		cycles: view.NewRegistry(func() *view.Snapshot[*appraisal.Cycle] {
			return view.NewSnapshot[*appraisal.Cycle](logger)
		}),
		reports: view.NewRegistry(func() *view.Snapshot[[]appraisal.ReportLine] {
			return view.NewSnapshot[[]appraisal.ReportLine](logger)
		}),
		feedback: view.NewRegistry(func() *view.Snapshot[[]appraisal.Feedback] {
			return view.NewSnapshot[[]appraisal.Feedback](logger)
		}),
		questions: view.NewRegistry(func() *view.Snapshot[[]appraisal.Question] {
			return view.NewSnapshot[[]appraisal.Question](logger)
		}),
	}
}

// Overview reads the active cycle, then its report, feedback and the
// questions in parallel.
func (s *Service) Overview(ctx context.Context, scope, token string) (Overview, error) {
	cycle, _, err := s.cycles.Get(view.Key(scope)).Refresh(func() (*appraisal.Cycle, error) {
		return s.api.ActiveCycle(ctx, token)
	})
	if cycle == nil {
		return Overview{}, err
	}

	out := Overview{Cycle: cycle}
	var g errgroup.Group
	g.Go(func() error {
		lines, _, err := s.reports.Get(view.Key(scope, cycle.ID)).Refresh(func() ([]appraisal.ReportLine, error) {
			return s.api.Report(ctx, token, cycle.ID)
		})
		out.Chart = appraisal.Chart(lines)
		return err
	})
	g.Go(func() error {
		items, _, err := s.feedback.Get(view.Key(scope, cycle.ID)).Refresh(func() ([]appraisal.Feedback, error) {
			return s.api.Feedback(ctx, token, cycle.ID)
		})
		out.Feedback = items
		return err
	})
	g.Go(func() error {
		questions, _, err := s.questions.Get(view.Key(scope)).Refresh(func() ([]appraisal.Question, error) {
			return s.api.Questions(ctx, token)
		})
		out.Questions = questions
		return err
	})
	if waitErr := g.Wait(); err == nil {
		err = waitErr
	}
	return out, err
}

// SubmitSelfAssessment answers every question, using the default rating for
// questions the form left out.
func (s *Service) SubmitSelfAssessment(ctx context.Context, scope, token string, cycleID int64, form SelfAssessmentForm) error {
	questions, loaded, err := s.questions.Get(view.Key(scope)).Refresh(func() ([]appraisal.Question, error) {
		return s.api.Questions(ctx, token)
	})
	if !loaded {
		return fmt.Errorf("read questions: %w", err)
	}

	w := review.NewWizard(questions)
	for _, q := range questions {
		a, ok := form.Answers[q.ID]
		if !ok {
			continue
		}
		if err := w.SetRating(q.ID, a.Rating); err != nil {
			return err
		}
		if err := w.SetComment(q.ID, a.Comment); err != nil {
			return err
		}
	}

	if err := s.api.SubmitSelfAssessment(ctx, token, cycleID, w.Submissions()); err != nil {
		s.logger.ErrorContext(ctx, "employee: self-assessment failed", "cycle_id", cycleID, "error", err)
		return fmt.Errorf("submit self-assessment: %w", err)
	}
	s.logger.InfoContext(ctx, "employee: self-assessment saved", "cycle_id", cycleID, "answers", w.Len())
	return nil
}

func (s *Service) Clarify(ctx context.Context, token string, form ClarifyForm) error {
	if err := form.Validate(); err != nil {
		return err
	}
	if err := s.api.Clarify(ctx, token, form.Request()); err != nil {
		s.logger.ErrorContext(ctx, "employee: clarification failed", "pm_rating_id", form.PMRatingID, "error", err)
		return fmt.Errorf("send clarification: %w", err)
	}
	s.logger.InfoContext(ctx, "employee: clarification sent", "pm_rating_id", form.PMRatingID)
	return nil
}

func (s *Service) ForgetScope(scope string) {
	s.cycles.ForgetScope(scope)
	s.reports.ForgetScope(scope)
	s.feedback.ForgetScope(scope)
	s.questions.ForgetScope(scope)
}
