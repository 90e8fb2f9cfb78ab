package view

import (
	"fmt"
	"strings"
	"sync"
)

// Key builds a registry key under a session scope.
func Key(scope string, parts ...interface{}) string {
	if len(parts) == 0 {
		return scope
	}
	var b strings.Builder
	b.WriteString(scope)
	for _, p := range parts {
		b.WriteByte('/')
		fmt.Fprint(&b, p)
	}
	return b.String()
}

// Registry keeps per-browser view state.
type Registry[T any] struct {
	newFn func() T

	mu    sync.Mutex
	items map[string]T
}

func NewRegistry[T any](newFn func() T) *Registry[T] {
	return &Registry[T]{newFn: newFn, items: make(map[string]T)}
}

// Get returns the entry of key, creating it on first use.
func (r *Registry[T]) Get(key string) T {
	r.mu.Lock()
	defer r.mu.Unlock()

	if v, ok := r.items[key]; ok {
		return v
	}
	v := r.newFn()
	r.items[key] = v
	return v
}

func (r *Registry[T]) Lookup(key string) (T, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.items[key]
	return v, ok
}

func (r *Registry[T]) Put(key string, v T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[key] = v
}

func (r *Registry[T]) Delete(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, key)
}

// ForgetScope drops every entry of a scope.
func (r *Registry[T]) ForgetScope(scope string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	prefix := scope + "/"
	for k := range r.items {
		if k == scope || strings.HasPrefix(k, prefix) {
			delete(r.items, k)
		}
	}
}

func (r *Registry[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}
