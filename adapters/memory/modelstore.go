// Package memory provides in-memory implementations for testing.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/artpar/valigate/ports"
)

// ModelStore is an in-memory implementation of ports.ModelStore.
type ModelStore struct {
	mu     sync.RWMutex
	models map[string]map[int]string // name -> version -> serialized
}

// NewModelStore creates a new in-memory model store.
func NewModelStore() *ModelStore {
	return &ModelStore{
		models: make(map[string]map[int]string),
	}
}

// Get retrieves the serialized model for a name and version.
func (s *ModelStore) Get(ctx context.Context, name string, version int) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	serialized, ok := s.models[name][version]
	if !ok {
		return "", ports.ErrModelNotFound
	}
	return serialized, nil
}

// GetLatest retrieves the newest stored version of a model.
func (s *ModelStore) GetLatest(ctx context.Context, name string) (string, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	versions := s.models[name]
	if len(versions) == 0 {
		return "", 0, ports.ErrModelNotFound
	}
	latest := 0
	for v := range versions {
		if v > latest {
			latest = v
		}
	}
	return versions[latest], latest, nil
}

// Put stores a serialized model under a new version.
func (s *ModelStore) Put(ctx context.Context, name string, version int, serialized string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	versions, ok := s.models[name]
	if !ok {
		versions = make(map[int]string)
		s.models[name] = versions
	}
	if _, exists := versions[version]; exists {
		return ports.ErrVersionExists
	}
	versions[version] = serialized
	return nil
}

// ListVersions returns all stored versions for a name, descending.
func (s *ModelStore) ListVersions(ctx context.Context, name string) ([]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	versions := s.models[name]
	out := make([]int, 0, len(versions))
	for v := range versions {
		out = append(out, v)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(out)))
	return out, nil
}
