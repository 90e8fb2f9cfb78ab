package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/frahmantamala/appraisal-portal/internal"
	"github.com/frahmantamala/appraisal-portal/internal/core/events"
	"github.com/frahmantamala/appraisal-portal/internal/core/role"
)

var errStoredUserNameless = errors.New("stored user has no name")

// touchEvery bounds how often an active session rewrites its idle clock.
const touchEvery = time.Minute

// User is the profile saved next to the token.
type User struct {
	Name  string
	Roles role.Set
}

type userProfile struct {
	Name  string   `json:"name"`
	Roles []string `json:"roles"`
}

func NewUser(name string, roles ...role.Role) User {
	return User{Name: name, Roles: role.NewSet(roles...)}
}

func (u User) MarshalJSON() ([]byte, error) {
	return json.Marshal(userProfile{Name: u.Name, Roles: u.Roles.Strings()})
}

func (u *User) UnmarshalJSON(data []byte) error {
	var p userProfile
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	u.Name = p.Name
	u.Roles = role.FromStrings(p.Roles)
	return nil
}

// Valid reports whether the profile can back a session.
func (u User) Valid() bool {
	return strings.TrimSpace(u.Name) != ""
}

func (u User) HasRole(r role.Role) bool {
	return u.Roles.Has(r)
}

func (u User) clone() User {
	return User{Name: u.Name, Roles: u.Roles.Clone()}
}

// Session pairs the opaque credential with the profile it was issued for.
type Session struct {
	Token string
	User  User
}

// Store is the single source of truth for who is logged in within one scope.
// Login and Logout are the only writers.
type Store struct {
	scope     string
	storage   Storage
	publisher events.Publisher
	logger    *slog.Logger

	mu          sync.RWMutex
	current     *Session
	initialized bool
	touchedAt   time.Time

	once      sync.Once
	startOnce sync.Once
	done      chan struct{}
}

type Option func(*Store)

func WithPublisher(p events.Publisher) Option {
	return func(s *Store) { s.publisher = p }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

func NewStore(storage Storage, scope string, opts ...Option) *Store {
	s := &Store{
		scope:   scope,
		storage: storage,
		logger:  slog.Default(),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Scope() string {
	return s.scope
}

// Initialize loads a previously saved session. Only the first call reads the
// storage; a failed or partial read leaves the store logged out.
func (s *Store) Initialize(ctx context.Context) {
	s.once.Do(func() {
		defer close(s.done)
		s.load(ctx)
	})
}

// Start runs Initialize in the background and returns a channel closed once
// the store has settled.
func (s *Store) Start(ctx context.Context) <-chan struct{} {
	s.startOnce.Do(func() {
		go s.Initialize(context.WithoutCancel(ctx))
	})
	return s.done
}

// Done is closed when initialization has finished.
func (s *Store) Done() <-chan struct{} {
	return s.done
}

func (s *Store) load(ctx context.Context) {
	loaded, err := s.read(ctx)
	if err != nil {
		s.logger.Warn("session: stored session unreadable, starting logged out",
			"scope", s.scope, "error", err)
		loaded = nil
	}

	s.mu.Lock()
	if s.initialized {
		// a login already settled this scope
		s.mu.Unlock()
		return
	}
	s.current = loaded
	s.initialized = true
	s.mu.Unlock()

	name := ""
	if loaded != nil {
		name = loaded.User.Name
	}
	s.publish(ctx, events.NewSessionInitializedEvent(s.scope, loaded != nil, name))
}

func (s *Store) read(ctx context.Context) (*Session, error) {
	entries, err := s.storage.Load(ctx, s.scope)
	if err != nil {
		return nil, fmt.Errorf("load entries: %w", err)
	}

	token := entries[KeyToken]
	rawUser := entries[KeyUser]
	if token == "" || rawUser == "" {
		if token != "" || rawUser != "" {
			s.logger.Warn("session: discarding half-written session", "scope", s.scope)
		}
		return nil, nil
	}

	var u User
	if err := json.Unmarshal([]byte(rawUser), &u); err != nil {
		return nil, fmt.Errorf("decode user: %w", err)
	}
	if !u.Valid() {
		return nil, errStoredUserNameless
	}

	return &Session{Token: token, User: u}, nil
}

// Login persists the credential and profile together, then makes them current.
// The token is not inspected.
func (s *Store) Login(ctx context.Context, token string, user User) error {
	if strings.TrimSpace(token) == "" {
		return internal.NewValidationFieldError("token", "token is required", internal.ErrCodeSessionInvalid)
	}
	if !user.Valid() {
		return internal.NewValidationFieldError("user", "user name is required", internal.ErrCodeSessionInvalid)
	}

	user = user.clone()
	rawUser, err := json.Marshal(user)
	if err != nil {
		return internal.NewInternalError("failed to encode user profile", err)
	}

	if err := s.storage.Save(ctx, s.scope, Entries{KeyToken: token, KeyUser: string(rawUser)}); err != nil {
		s.logger.Error("session: failed to persist login", "scope", s.scope, "error", err)
		appErr := internal.NewInternalError("failed to persist session", err)
		appErr.Code = internal.ErrCodeSessionStorage
		return appErr
	}

	s.mu.Lock()
	s.current = &Session{Token: token, User: user}
	s.initialized = true
	s.mu.Unlock()

	s.logger.Info("session: logged in", "scope", s.scope, "user", user.Name, "roles", user.Roles.Strings())
	s.publish(ctx, events.NewSessionLoggedInEvent(s.scope, user.Name))
	return nil
}

// Logout forgets the session in memory and storage. Calling it while logged
// out changes nothing. A storage failure is returned after memory is cleared.
func (s *Store) Logout(ctx context.Context) error {
	s.mu.Lock()
	hadSession := s.current != nil
	firstSettle := !s.initialized
	s.current = nil
	s.initialized = true
	s.mu.Unlock()

	var storageErr error
	if err := s.storage.Delete(ctx, s.scope); err != nil {
		s.logger.Error("session: failed to delete stored session", "scope", s.scope, "error", err)
		storageErr = fmt.Errorf("delete session entries: %w", err)
	}

	if firstSettle {
		s.publish(ctx, events.NewSessionInitializedEvent(s.scope, false, ""))
	}
	if hadSession {
		s.logger.Info("session: logged out", "scope", s.scope)
		s.publish(ctx, events.NewSessionLoggedOutEvent(s.scope))
	}
	return storageErr
}

// Touch tells the storage that the logged in user is still active, at most
// once per touchEvery. Storages that cannot touch only age from login.
func (s *Store) Touch(ctx context.Context) {
	toucher, ok := s.storage.(Toucher)
	if !ok {
		return
	}

	s.mu.Lock()
	now := time.Now()
	if s.current == nil || now.Sub(s.touchedAt) < touchEvery {
		s.mu.Unlock()
		return
	}
	s.touchedAt = now
	s.mu.Unlock()

	if err := toucher.Touch(ctx, s.scope); err != nil {
		s.logger.Warn("session: failed to mark session active", "scope", s.scope, "error", err)
	}
}

// HasRole never fails; without a user it is always false.
func (s *Store) HasRole(r role.Role) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.current == nil {
		return false
	}
	return s.current.User.HasRole(r)
}

func (s *Store) Initialized() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.initialized
}

func (s *Store) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current != nil
}

func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.current == nil {
		return ""
	}
	return s.current.Token
}

// User returns a copy of the current profile.
func (s *Store) User() (User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.current == nil {
		return User{}, false
	}
	return s.current.User.clone(), true
}

// Current returns a copy of the whole session.
func (s *Store) Current() (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.current == nil {
		return Session{}, false
	}
	return Session{Token: s.current.Token, User: s.current.User.clone()}, true
}

func (s *Store) publish(ctx context.Context, ev events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishSync(ctx, ev); err != nil {
		s.logger.Warn("session: event handler failed", "event_type", ev.EventType(), "error", err)
	}
}
