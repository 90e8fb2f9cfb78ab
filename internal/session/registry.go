package session

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/frahmantamala/appraisal-portal/internal/core/events"
)

// Registry hands out one Store per browser scope, all sharing a storage.
type Registry struct {
	storage   Storage
	publisher events.Publisher
	logger    *slog.Logger

	mu     sync.Mutex
	stores map[string]*registered
	now    func() time.Time
}

type registered struct {
	store    *Store
	lastSeen time.Time
}

func NewRegistry(storage Storage, publisher events.Publisher, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		storage:   storage,
		publisher: publisher,
		logger:    logger,
		stores:    make(map[string]*registered),
		now:       time.Now,
	}
}

// Get returns the scope's store, creating it on first use, and marks the
// scope as seen. The store is not initialized here; callers decide whether to
// wait for it.
func (r *Registry) Get(scope string) *Store {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if e, ok := r.stores[scope]; ok {
		e.lastSeen = now
		return e.store
	}
	s := NewStore(r.storage, scope, WithPublisher(r.publisher), WithLogger(r.logger))
	r.stores[scope] = &registered{store: s, lastSeen: now}
	return s
}

// ForgetScope drops the in-memory store of scope. Persisted entries are
// untouched, so a later Get reloads them.
func (r *Registry) ForgetScope(scope string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.stores, scope)
}

// PruneAnonymous drops stores without a logged in user that were last seen
// before the cutoff and returns their scopes.
func (r *Registry) PruneAnonymous(before time.Time) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var pruned []string
	for scope, e := range r.stores {
		if e.lastSeen.Before(before) && !e.store.Authenticated() {
			delete(r.stores, scope)
			pruned = append(pruned, scope)
		}
	}
	sort.Strings(pruned)
	return pruned
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.stores)
}

func (r *Registry) Storage() Storage {
	return r.storage
}

type ctxKey struct{}

// ContextWithStore attaches the request's session store.
func ContextWithStore(ctx context.Context, s *Store) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the store attached by the session middleware.
func FromContext(ctx context.Context) (*Store, bool) {
	if ctx == nil {
		return nil, false
	}
	s, ok := ctx.Value(ctxKey{}).(*Store)
	return s, ok && s != nil
}
