package out

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"sleepsun/internal/modules/session/domain"
	sessionout "sleepsun/internal/modules/session/port/out"
)

type FileCounterStore struct {
	path string
}

func NewFileCounterStore(path string) sessionout.CounterStore {
	return &FileCounterStore{path: path}
}

func (s *FileCounterStore) LoadCounters(_ context.Context) (domain.Counters, error) {
	payload, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.Counters{}, nil
		}
		return domain.Counters{}, fmt.Errorf("read counters: %w", err)
	}
	counters := domain.Counters{}
	if err := json.Unmarshal(payload, &counters); err != nil {
		return domain.Counters{}, fmt.Errorf("decode counters: %w", err)
	}
	return counters, nil
}

func (s *FileCounterStore) SaveCounters(_ context.Context, counters domain.Counters) error {
	if err := writeJSON(s.path, counters); err != nil {
		return fmt.Errorf("write counters: %w", err)
	}
	return nil
}

type MemoryCounterStore struct {
	mu       sync.Mutex
	counters domain.Counters
}

func NewMemoryCounterStore() *MemoryCounterStore {
	return &MemoryCounterStore{}
}

func (s *MemoryCounterStore) LoadCounters(_ context.Context) (domain.Counters, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counters, nil
}

func (s *MemoryCounterStore) SaveCounters(_ context.Context, counters domain.Counters) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters = counters
	return nil
}
