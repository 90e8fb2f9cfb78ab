package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeSessionInitialized = "session.initialized"
	EventTypeSessionLoggedIn    = "session.logged_in"
	EventTypeSessionLoggedOut   = "session.logged_out"
	EventTypeSessionExpired     = "session.expired"
)

// SessionEvent reports a change of a session scope's authentication state.
type SessionEvent struct {
	BaseEvent
	Scope         string `json:"scope"`
	Authenticated bool   `json:"authenticated"`
	UserName      string `json:"user_name,omitempty"`
}

func newSessionEvent(eventType, scope string, authenticated bool, userName string) *SessionEvent {
	return &SessionEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      eventType,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"scope":         scope,
				"authenticated": authenticated,
			},
		},
		Scope:         scope,
		Authenticated: authenticated,
		UserName:      userName,
	}
}

func NewSessionInitializedEvent(scope string, authenticated bool, userName string) *SessionEvent {
	return newSessionEvent(EventTypeSessionInitialized, scope, authenticated, userName)
}

func NewSessionLoggedInEvent(scope, userName string) *SessionEvent {
	return newSessionEvent(EventTypeSessionLoggedIn, scope, true, userName)
}

func NewSessionLoggedOutEvent(scope string) *SessionEvent {
	return newSessionEvent(EventTypeSessionLoggedOut, scope, false, "")
}

// NewSessionExpiredEvent is published when an idle scope is swept.
func NewSessionExpiredEvent(scope string) *SessionEvent {
	return newSessionEvent(EventTypeSessionExpired, scope, false, "")
}
