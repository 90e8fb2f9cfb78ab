package view

import (
	"context"

	"github.com/frahmantamala/appraisal-portal/internal/core/events"
)

// Forgetter drops the view state of a scope.
type Forgetter interface {
	ForgetScope(scope string)
}

// ForgetOnSessionEnd clears view state when a scope logs out or expires, so
// data read with one user's token is never shown to the next.
func ForgetOnSessionEnd(bus *events.EventBus, forgetters ...Forgetter) {
	bus.SubscribeAll(func(_ context.Context, ev events.Event) error {
		se, ok := ev.(*events.SessionEvent)
		if !ok {
			return nil
		}
		for _, f := range forgetters {
			f.ForgetScope(se.Scope)
		}
		return nil
	}, events.EventTypeSessionLoggedOut, events.EventTypeSessionExpired)
}
