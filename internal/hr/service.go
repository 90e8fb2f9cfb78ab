package hr

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/frahmantamala/appraisal-portal/internal"
	"github.com/frahmantamala/appraisal-portal/internal/appraisal"
	"github.com/frahmantamala/appraisal-portal/internal/view"
)

// API is the slice of the backend the HR console talks to.
type API interface {
	Employees(ctx context.Context, token string) ([]appraisal.Person, error)
	ProjectManagers(ctx context.Context, token string) ([]appraisal.Person, error)
	Cycles(ctx context.Context, token string) ([]appraisal.Cycle, error)
	Initiate(ctx context.Context, token string, req appraisal.InitiateRequest) (*appraisal.Cycle, error)
	AssignPM(ctx context.Context, token string, cycleID, pmID int64) error
}

type people = view.Snapshot[[]appraisal.Person]
type cycles = view.Snapshot[[]appraisal.Cycle]

type Service struct {
	api    API
	logger *slog.Logger
	now    func() time.Time

	employees *view.Registry[*people]
	managers  *view.Registry[*people]
	cycles    *view.Registry[*cycles]
}

func NewService(api API, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	newPeople := func() *people { return view.NewSnapshot[[]appraisal.Person](logger) }
	return &Service{
		api:       api,
		logger:    logger,
		now:       time.Now,
		employees: view.NewRegistry(newPeople),
		managers:  view.NewRegistry(newPeople),
		cycles:    view.NewRegistry(func() *cycles { return view.NewSnapshot[[]appraisal.Cycle](logger) }),
	}
}

// Dashboard reads the three lists in parallel. A failed read keeps that
// list's previous snapshot; the first failure is returned for logging and
// expired token handling.
func (s *Service) Dashboard(ctx context.Context, scope, token string) (Dashboard, error) {
	var (
		g                   errgroup.Group
		employees, managers []appraisal.Person
		list                []appraisal.Cycle
		cyclesLoaded        bool
	)

	g.Go(func() error {
		var err error
		employees, _, err = s.employees.Get(view.Key(scope)).Refresh(func() ([]appraisal.Person, error) {
			return s.api.Employees(ctx, token)
		})
		return err
	})
	g.Go(func() error {
		var err error
		managers, _, err = s.managers.Get(view.Key(scope)).Refresh(func() ([]appraisal.Person, error) {
			return s.api.ProjectManagers(ctx, token)
		})
		return err
	})
	g.Go(func() error {
		var err error
		list, cyclesLoaded, err = s.cycles.Get(view.Key(scope)).Refresh(func() ([]appraisal.Cycle, error) {
			return s.api.Cycles(ctx, token)
		})
		return err
	})
	err := g.Wait()

	return Dashboard{
		Employees:   employees,
		Managers:    managers,
		Cycles:      list,
		Loaded:      cyclesLoaded,
		DefaultYear: currentYear(s.now()),
	}, err
}

// Initiate starts a cycle. Nothing is cached; the next dashboard read shows it.
func (s *Service) Initiate(ctx context.Context, token string, form InitiateForm) (*appraisal.Cycle, error) {
	if err := form.Validate(); err != nil {
		return nil, err
	}
	cycle, err := s.api.Initiate(ctx, token, form.Request())
	if err != nil {
		s.logger.ErrorContext(ctx, "hr: initiate appraisal failed", "employee_id", form.EmployeeID, "year", form.Year, "error", err)
		return nil, fmt.Errorf("initiate appraisal: %w", err)
	}
	s.logger.InfoContext(ctx, "hr: appraisal initiated", "employee_id", form.EmployeeID, "year", form.Year)
	return cycle, nil
}

// AssignPM assigns a reviewer. A cycle known from the last read to be past
// OPEN is refused locally.
func (s *Service) AssignPM(ctx context.Context, scope, token string, cycleID, pmID int64) error {
	if snap, ok := s.cycles.Lookup(view.Key(scope)); ok {
		if list, loaded := snap.Value(); loaded {
			for _, c := range list {
				if c.ID == cycleID && !c.Status.Assignable() {
					return internal.NewValidationFieldError("cycle",
						fmt.Sprintf("a reviewer can only be assigned while the cycle is %s", appraisal.StatusOpen.Label()),
						internal.ErrCodeValidationFailed)
				}
			}
		}
	}

	if err := s.api.AssignPM(ctx, token, cycleID, pmID); err != nil {
		s.logger.ErrorContext(ctx, "hr: assign reviewer failed", "cycle_id", cycleID, "pm_id", pmID, "error", err)
		return fmt.Errorf("assign reviewer: %w", err)
	}
	s.logger.InfoContext(ctx, "hr: reviewer assigned", "cycle_id", cycleID, "pm_id", pmID)
	return nil
}

// ForgetScope drops the dashboard state of a browser.
func (s *Service) ForgetScope(scope string) {
	s.employees.ForgetScope(scope)
	s.managers.ForgetScope(scope)
	s.cycles.ForgetScope(scope)
}
