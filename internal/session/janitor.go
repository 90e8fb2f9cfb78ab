package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/frahmantamala/appraisal-portal/internal/core/events"
)

// Janitor removes scopes whose entries have not been written for IdleTTL, and
// the in-memory stores of anonymous browsers not seen for as long.
type Janitor struct {
	sweeper   Sweeper
	registry  *Registry
	publisher events.Publisher
	idleTTL   time.Duration
	logger    *slog.Logger
	now       func() time.Time

	cron *cron.Cron
}

func NewJanitor(sweeper Sweeper, registry *Registry, publisher events.Publisher, idleTTL time.Duration, logger *slog.Logger) *Janitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Janitor{
		sweeper:   sweeper,
		registry:  registry,
		publisher: publisher,
		idleTTL:   idleTTL,
		logger:    logger,
		now:       time.Now,
	}
}

// Sweep runs one pass and returns the scopes removed, stored sessions first.
func (j *Janitor) Sweep(ctx context.Context) ([]string, error) {
	before := j.now().Add(-j.idleTTL)
	swept, err := j.sweeper.SweepIdle(ctx, before)
	if err != nil {
		return nil, fmt.Errorf("sweep idle sessions: %w", err)
	}
	for _, scope := range swept {
		if j.registry != nil {
			j.registry.ForgetScope(scope)
		}
		j.expire(ctx, scope)
	}

	var anonymous []string
	if j.registry != nil {
		anonymous = j.registry.PruneAnonymous(before)
		for _, scope := range anonymous {
			j.expire(ctx, scope)
		}
	}

	if len(swept) > 0 || len(anonymous) > 0 {
		j.logger.Info("janitor: swept idle sessions",
			"count", len(swept), "anonymous", len(anonymous), "idle_before", before)
	}
	return append(swept, anonymous...), nil
}

func (j *Janitor) expire(ctx context.Context, scope string) {
	if j.publisher == nil {
		return
	}
	if err := j.publisher.PublishSync(ctx, events.NewSessionExpiredEvent(scope)); err != nil {
		j.logger.Warn("janitor: expired event handler failed", "scope", scope, "error", err)
	}
}

// Start schedules Sweep on a cron spec such as "@every 15m".
func (j *Janitor) Start(spec string) error {
	c := cron.New()
	if _, err := c.AddFunc(spec, func() {
		if _, err := j.Sweep(context.Background()); err != nil {
			j.logger.Error("janitor: sweep failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", spec, err)
	}
	j.cron = c
	c.Start()
	j.logger.Info("janitor: started", "schedule", spec, "idle_ttl", j.idleTTL)
	return nil
}

// Stop waits for a running sweep to finish.
func (j *Janitor) Stop() {
	if j.cron == nil {
		return
	}
	<-j.cron.Stop().Done()
	j.logger.Info("janitor: stopped")
}
