package out

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"sleepsun/internal/modules/session/domain"
	sessionout "sleepsun/internal/modules/session/port/out"
	apperrors "sleepsun/internal/platform/errors"
)

type FileActiveSessionStore struct {
	path string
}

func NewFileActiveSessionStore(path string) sessionout.ActiveSessionStore {
	return &FileActiveSessionStore{path: path}
}

func (s *FileActiveSessionStore) SaveActive(_ context.Context, session domain.ActiveSession) error {
	if err := writeJSON(s.path, session); err != nil {
		return fmt.Errorf("write active session: %w", err)
	}
	return nil
}

func (s *FileActiveSessionStore) LoadActive(_ context.Context) (domain.ActiveSession, error) {
	payload, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.ActiveSession{}, apperrors.ErrNoActiveSession
		}
		return domain.ActiveSession{}, fmt.Errorf("read active session: %w", err)
	}
	active := domain.ActiveSession{}
	if err := json.Unmarshal(payload, &active); err != nil {
		return domain.ActiveSession{}, fmt.Errorf("decode active session: %w", err)
	}
	if active.ID == "" {
		return domain.ActiveSession{}, apperrors.ErrNoActiveSession
	}
	return active, nil
}

func (s *FileActiveSessionStore) ClearActive(_ context.Context) error {
	if err := os.Remove(s.path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("clear active session: %w", err)
	}
	return nil
}

// MemoryActiveSessionStore keeps tracking state for the lifetime of the
// process only.
type MemoryActiveSessionStore struct {
	mu     sync.Mutex
	active *domain.ActiveSession
}

func NewMemoryActiveSessionStore() *MemoryActiveSessionStore {
	return &MemoryActiveSessionStore{}
}

func (s *MemoryActiveSessionStore) SaveActive(_ context.Context, session domain.ActiveSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = &session
	return nil
}

func (s *MemoryActiveSessionStore) LoadActive(_ context.Context) (domain.ActiveSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return domain.ActiveSession{}, apperrors.ErrNoActiveSession
	}
	return *s.active, nil
}

func (s *MemoryActiveSessionStore) ClearActive(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = nil
	return nil
}

// writeJSON replaces path atomically via a sibling temp file.
func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	payload, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
