package guard

import (
	"github.com/frahmantamala/appraisal-portal/internal/core/events"
	"github.com/frahmantamala/appraisal-portal/internal/session"
)

// State is the guard's view of a session scope.
type State int

const (
	Unknown State = iota
	Authenticated
	Unauthenticated
)

func (s State) String() string {
	switch s {
	case Authenticated:
		return "authenticated"
	case Unauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

// Decision is what a protected route does for a given state.
type Decision int

const (
	ShowPlaceholder Decision = iota
	RedirectToLogin
	Allow
)

func (d Decision) String() string {
	switch d {
	case RedirectToLogin:
		return "redirect"
	case Allow:
		return "allow"
	default:
		return "placeholder"
	}
}

// Decide never redirects while the state is unresolved.
func Decide(s State) Decision {
	switch s {
	case Authenticated:
		return Allow
	case Unauthenticated:
		return RedirectToLogin
	default:
		return ShowPlaceholder
	}
}

// Of reads the state of a store.
func Of(store *session.Store) State {
	if store == nil || !store.Initialized() {
		return Unknown
	}
	if store.Authenticated() {
		return Authenticated
	}
	return Unauthenticated
}

// Next applies a session event to a state. Events that do not describe a
// legal transition leave the state unchanged.
func Next(s State, ev *events.SessionEvent) State {
	switch ev.EventType() {
	case events.EventTypeSessionInitialized:
		if s != Unknown {
			return s
		}
		if ev.Authenticated {
			return Authenticated
		}
		return Unauthenticated
	case events.EventTypeSessionLoggedIn:
		return Authenticated
	case events.EventTypeSessionLoggedOut:
		if s == Authenticated {
			return Unauthenticated
		}
		return s
	case events.EventTypeSessionExpired:
		return Unknown
	}
	return s
}
