package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/frahmantamala/appraisal-portal/internal/session"
)

const fileExt = ".json"

var validScope = regexp.MustCompile(`^[A-Za-z0-9_-]{1,128}$`)

var ErrInvalidScope = errors.New("invalid session scope")

// Storage keeps one JSON document per scope inside a directory.
type Storage struct {
	dir string
	mu  sync.RWMutex
}

// NewStorage creates dir if needed.
func NewStorage(dir string) (*Storage, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}
	return &Storage{dir: dir}, nil
}

func (s *Storage) path(scope string) (string, error) {
	if !validScope.MatchString(scope) {
		return "", ErrInvalidScope
	}
	return filepath.Join(s.dir, scope+fileExt), nil
}

func (s *Storage) Load(_ context.Context, scope string) (session.Entries, error) {
	p, err := s.path(scope)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(p)
	if os.IsNotExist(err) {
		return session.Entries{}, nil
	}
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return session.Entries{}, nil
	}

	entries := session.Entries{}
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(p), err)
	}
	return entries, nil
}

func (s *Storage) Save(_ context.Context, scope string, entries session.Entries) error {
	p, err := s.path(scope)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	merged := session.Entries{}
	if data, err := os.ReadFile(p); err == nil && len(data) > 0 {
		// an unreadable previous document is simply replaced
		_ = json.Unmarshal(data, &merged)
	}
	for k, v := range entries {
		merged[k] = v
	}

	data, err := json.MarshalIndent(merged, "", "  ")
	if err != nil {
		return err
	}

	// write-then-rename so a crash never leaves a torn document
	tmp, err := os.CreateTemp(s.dir, scope+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, p)
}

func (s *Storage) Delete(_ context.Context, scope string) error {
	p, err := s.path(scope)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Touch moves the document's modification time to now.
func (s *Storage) Touch(_ context.Context, scope string) error {
	p, err := s.path(scope)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if err := os.Chtimes(p, now, now); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// SweepIdle removes documents whose modification time is before the cutoff.
func (s *Storage) SweepIdle(_ context.Context, before time.Time) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dirEntries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}

	var swept []string
	for _, de := range dirEntries {
		name := de.Name()
		if de.IsDir() || !strings.HasSuffix(name, fileExt) {
			continue
		}
		info, err := de.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(before) {
			if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !os.IsNotExist(err) {
				return swept, err
			}
			swept = append(swept, strings.TrimSuffix(name, fileExt))
		}
	}
	sort.Strings(swept)
	return swept, nil
}

// Ping checks that the directory is still there.
func (s *Storage) Ping(_ context.Context) error {
	info, err := os.Stat(s.dir)
	if err != nil {
		return fmt.Errorf("session dir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("session dir %s is not a directory", s.dir)
	}
	return nil
}
