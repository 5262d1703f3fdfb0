// Package memory implements checkpoint.Store in-process, for tests
// and single-process deployments. Grounded on the teacher's
// store/memory package (inferred from store/memory/memory_test.go's
// NewMemoryCheckpointStore constructor and Save/Load/List/Delete/Clear
// usage, since the teacher's memory.go source itself was not included
// in the retrieved pack).
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/agentmap-go/agentmap/checkpoint"
)

// Store is an in-memory checkpoint.Store keyed by thread ID, storing
// every saved version per thread so List can return full history.
type Store struct {
	mu   sync.RWMutex
	byID map[string][]*checkpoint.Checkpoint
}

// New creates an empty in-memory checkpoint store.
func New() *Store {
	return &Store{byID: make(map[string][]*checkpoint.Checkpoint)}
}

func (s *Store) Save(_ context.Context, cp *checkpoint.Checkpoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *cp
	s.byID[cp.ThreadID] = append(s.byID[cp.ThreadID], &clone)
	return nil
}

func (s *Store) Load(_ context.Context, threadID string) (*checkpoint.Checkpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	versions := s.byID[threadID]
	if len(versions) == 0 {
		return nil, nil
	}
	latest := versions[0]
	for _, v := range versions[1:] {
		if v.Version > latest.Version {
			latest = v
		}
	}
	clone := *latest
	return &clone, nil
}

func (s *Store) List(_ context.Context, threadID string) ([]*checkpoint.Checkpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	versions := s.byID[threadID]
	out := make([]*checkpoint.Checkpoint, len(versions))
	for i, v := range versions {
		clone := *v
		out[i] = &clone
	}
	return out, nil
}

func (s *Store) Delete(_ context.Context, threadID string, version int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	versions := s.byID[threadID]
	for i, v := range versions {
		if v.Version == version {
			s.byID[threadID] = append(versions[:i], versions[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("checkpoint not found: thread %s version %d", threadID, version)
}

func (s *Store) Clear(_ context.Context, threadID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byID, threadID)
	return nil
}

var _ checkpoint.Store = (*Store)(nil)
