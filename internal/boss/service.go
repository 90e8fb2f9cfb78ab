package boss

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/appraisal-portal/internal"
	"github.com/frahmantamala/appraisal-portal/internal/appraisal"
	"github.com/frahmantamala/appraisal-portal/internal/view"
)

type API interface {
	BossPending(ctx context.Context, token string) ([]appraisal.Cycle, error)
	Summary(ctx context.Context, token string, cycleID int64) (*appraisal.Summary, error)
	Close(ctx context.Context, token string, cycleID int64, comment string) error
}

var errAlreadyClosed = internal.NewValidationFieldError("cycle", "This appraisal is already closed", internal.ErrCodeValidationFailed)

type Service struct {
	api    API
	logger *slog.Logger

	pending   *view.Registry[*view.Snapshot[[]appraisal.Cycle]]
	summaries *view.Registry[*view.Snapshot[*appraisal.Summary]]
}

func NewService(api API, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		api:    api,
		logger: logger,
		pending: view.NewRegistry(func() *view.Snapshot[[]appraisal.Cycle] {
			return view.NewSnapshot[[]appraisal.Cycle](logger)
		}),
		summaries: view.NewRegistry(func() *view.Snapshot[*appraisal.Summary] {
			return view.NewSnapshot[*appraisal.Summary](logger)
		}),
	}
}

func (s *Service) Dashboard(ctx context.Context, scope, token string) (Dashboard, error) {
	list, _, err := s.pending.Get(view.Key(scope)).Refresh(func() ([]appraisal.Cycle, error) {
		return s.api.BossPending(ctx, token)
	})
	return Dashboard{Cycles: list}, err
}

// Cycle reads the summary of a cycle. Summary is nil until a read succeeded.
func (s *Service) Cycle(ctx context.Context, scope, token string, cycleID int64) (CyclePage, error) {
	summary, _, err := s.summaries.Get(view.Key(scope, "summary", cycleID)).Refresh(func() (*appraisal.Summary, error) {
		return s.api.Summary(ctx, token, cycleID)
	})
	page := CyclePage{Summary: summary}
	if summary != nil {
		page.Chart = appraisal.Chart(summary.Reports)
	}
	return page, err
}

// Close finalizes a cycle. A cycle last seen closed is not sent again.
func (s *Service) Close(ctx context.Context, scope, token string, cycleID int64, form CloseForm) error {
	if err := form.Validate(); err != nil {
		return err
	}
	if snap, ok := s.summaries.Lookup(view.Key(scope, "summary", cycleID)); ok {
		if summary, loaded := snap.Value(); loaded && summary != nil && summary.Status.Closed() {
			return errAlreadyClosed
		}
	}

	if err := s.api.Close(ctx, token, cycleID, form.Comment); err != nil {
		s.logger.ErrorContext(ctx, "boss: close appraisal failed", "cycle_id", cycleID, "error", err)
		return fmt.Errorf("close appraisal %d: %w", cycleID, err)
	}
	s.logger.InfoContext(ctx, "boss: appraisal closed", "cycle_id", cycleID)
	return nil
}

func (s *Service) ForgetScope(scope string) {
	s.pending.ForgetScope(scope)
	s.summaries.ForgetScope(scope)
}
