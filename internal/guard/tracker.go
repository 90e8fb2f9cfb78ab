package guard

import (
	"context"
	"log/slog"
	"sync"

	"github.com/frahmantamala/appraisal-portal/internal/core/events"
)

// Tracker follows every scope's guard state from session lifecycle events.
type Tracker struct {
	logger *slog.Logger

	mu     sync.RWMutex
	states map[string]State
}

func NewTracker(logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{
		logger: logger,
		states: make(map[string]State),
	}
}

// Subscribe registers the tracker on the bus for all session events.
func (t *Tracker) Subscribe(bus *events.EventBus) {
	bus.SubscribeAll(t.Handle,
		events.EventTypeSessionInitialized,
		events.EventTypeSessionLoggedIn,
		events.EventTypeSessionLoggedOut,
		events.EventTypeSessionExpired,
	)
}

func (t *Tracker) Handle(_ context.Context, ev events.Event) error {
	se, ok := ev.(*events.SessionEvent)
	if !ok {
		return nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	from := t.states[se.Scope]
	to := Next(from, se)
	if to == Unknown {
		delete(t.states, se.Scope)
	} else {
		t.states[se.Scope] = to
	}

	if from != to {
		t.logger.Debug("guard: state changed", "scope", se.Scope, "from", from.String(), "to", to.String())
	}
	return nil
}

// State returns Unknown for scopes the tracker has not seen settle.
func (t *Tracker) State(scope string) State {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.states[scope]
}

// Counts returns how many scopes are in each settled state.
func (t *Tracker) Counts() map[string]int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := map[string]int{
		Authenticated.String():   0,
		Unauthenticated.String(): 0,
	}
	for _, s := range t.states {
		out[s.String()]++
	}
	return out
}
