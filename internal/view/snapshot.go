package view

import (
	"log/slog"
	"sync"
	"time"
)

// Ticket orders reads of one snapshot by the time they were issued.
type Ticket uint64

// Snapshot holds the latest successful read of a view. Reads that finish out
// of order never replace a newer result.
type Snapshot[T any] struct {
	logger *slog.Logger

	mu        sync.Mutex
	issued    Ticket
	committed Ticket
	value     T
	loaded    bool
	loadedAt  time.Time
	lastErr   error
}

func NewSnapshot[T any](logger *slog.Logger) *Snapshot[T] {
	if logger == nil {
		logger = slog.Default()
	}
	return &Snapshot[T]{logger: logger}
}

// Begin issues the ticket for a new read.
func (s *Snapshot[T]) Begin() Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issued++
	return s.issued
}

// Commit stores v unless a read issued later has already committed.
func (s *Snapshot[T]) Commit(t Ticket, v T) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t < s.committed {
		s.logger.Debug("view: discarding stale read", "ticket", uint64(t), "committed", uint64(s.committed))
		return false
	}
	s.committed = t
	s.value = v
	s.loaded = true
	s.loadedAt = time.Now()
	s.lastErr = nil
	return true
}

// Fail records a failed read; the prior value stays.
func (s *Snapshot[T]) Fail(t Ticket, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logger.Warn("view: read failed, keeping previous data", "ticket", uint64(t), "error", err)
	if t >= s.committed {
		s.lastErr = err
	}
}

func (s *Snapshot[T]) Value() (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value, s.loaded
}

// Err is the failure of the newest read, if it failed.
func (s *Snapshot[T]) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

func (s *Snapshot[T]) LoadedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadedAt
}

// Load runs one read through the snapshot and returns what should be shown.
func (s *Snapshot[T]) Load(read func() (T, error)) (T, bool) {
	v, loaded, _ := s.Refresh(read)
	return v, loaded
}

// Refresh is Load that also reports the read's own error.
func (s *Snapshot[T]) Refresh(read func() (T, error)) (T, bool, error) {
	t := s.Begin()
	v, err := read()
	if err != nil {
		s.Fail(t, err)
	} else {
		s.Commit(t, v)
	}
	got, loaded := s.Value()
	return got, loaded, err
}
