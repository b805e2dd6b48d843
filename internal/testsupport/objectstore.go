package testsupport

import (
	"context"
	"sort"
	"strings"
	"sync"

	"scribe/internal/objectstore"
	"scribe/internal/services"
)

// MemoryStore is an in-memory objectstore.Store for tests. It is safe for
// concurrent use.
type MemoryStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

var _ objectstore.Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty in-memory object store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string][]byte)}
}

// Seed stores an object without error handling, for test setup.
func (s *MemoryStore) Seed(key string, body []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = append([]byte(nil), body...)
}

// Keys returns every stored key in lexical order.
func (s *MemoryStore) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.objects))
	for key := range s.objects {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func (s *MemoryStore) Head(_ context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	body, ok := s.objects[key]
	if !ok {
		return 0, services.Wrap(services.ErrNotFound, "objectstore", "head", "object not found: "+key, nil)
	}
	return int64(len(body)), nil
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	body, ok := s.objects[key]
	if !ok {
		return nil, services.Wrap(services.ErrNotFound, "objectstore", "get", "object not found: "+key, nil)
	}
	return append([]byte(nil), body...), nil
}

func (s *MemoryStore) Put(_ context.Context, key string, body []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = append([]byte(nil), body...)
	return nil
}

func (s *MemoryStore) List(_ context.Context, prefix string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var keys []string
	for key := range s.objects {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}
