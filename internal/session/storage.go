package session

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Keys of the two durable entries making up a saved session.
const (
	KeyToken = "token"
	KeyUser  = "user"
)

// Entries is the key/value view of one scope.
type Entries map[string]string

// Storage persists session entries per scope. Save writes all given entries
// together and Delete removes every entry of the scope together.
type Storage interface {
	Load(ctx context.Context, scope string) (Entries, error)
	Save(ctx context.Context, scope string, entries Entries) error
	Delete(ctx context.Context, scope string) error
}

// Toucher is implemented by storages able to mark a scope as active without
// rewriting its entries.
type Toucher interface {
	Touch(ctx context.Context, scope string) error
}

// Sweeper is implemented by storages able to drop scopes left idle.
type Sweeper interface {
	SweepIdle(ctx context.Context, before time.Time) ([]string, error)
}

type memoryScope struct {
	entries   Entries
	updatedAt time.Time
}

// MemoryStorage keeps entries in process memory.
type MemoryStorage struct {
	mu     sync.RWMutex
	scopes map[string]memoryScope
	now    func() time.Time
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		scopes: make(map[string]memoryScope),
		now:    time.Now,
	}
}

func (m *MemoryStorage) Load(_ context.Context, scope string) (Entries, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sc, ok := m.scopes[scope]
	if !ok {
		return Entries{}, nil
	}
	out := make(Entries, len(sc.entries))
	for k, v := range sc.entries {
		out[k] = v
	}
	return out, nil
}

func (m *MemoryStorage) Save(_ context.Context, scope string, entries Entries) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sc, ok := m.scopes[scope]
	if !ok {
		sc = memoryScope{entries: make(Entries, len(entries))}
	}
	for k, v := range entries {
		sc.entries[k] = v
	}
	sc.updatedAt = m.now()
	m.scopes[scope] = sc
	return nil
}

func (m *MemoryStorage) Delete(_ context.Context, scope string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.scopes, scope)
	return nil
}

// Touch refreshes the idle clock of an existing scope.
func (m *MemoryStorage) Touch(_ context.Context, scope string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if sc, ok := m.scopes[scope]; ok {
		sc.updatedAt = m.now()
		m.scopes[scope] = sc
	}
	return nil
}

func (m *MemoryStorage) SweepIdle(_ context.Context, before time.Time) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var swept []string
	for scope, sc := range m.scopes {
		if sc.updatedAt.Before(before) {
			delete(m.scopes, scope)
			swept = append(swept, scope)
		}
	}
	sort.Strings(swept)
	return swept, nil
}
