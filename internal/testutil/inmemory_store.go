package testutil

import (
	"context"
	"sort"
	"sync"

	ierr "github.com/tutordesk/tutordesk/internal/errors"
)

// errItemNotFound is returned as-is so wrappers can translate it
var errItemNotFound = ierr.NewError("item not found").Mark(ierr.ErrNotFound)

// InMemoryStore is a goroutine-safe map keyed by id. Stores built on it copy
// values in and out so callers never share memory with the store.
type InMemoryStore[T any] struct {
	mu    sync.RWMutex
	items map[string]T
}

func NewInMemoryStore[T any]() *InMemoryStore[T] {
	return &InMemoryStore[T]{items: make(map[string]T)}
}

func (s *InMemoryStore[T]) Create(_ context.Context, id string, item T) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; ok {
		return ierr.NewError("item already exists").Mark(ierr.ErrAlreadyExists)
	}
	s.items[id] = item
	return nil
}

func (s *InMemoryStore[T]) Get(_ context.Context, id string) (T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.items[id]
	if !ok {
		var zero T
		return zero, ierr.NewError("item not found").Mark(ierr.ErrNotFound)
	}
	return item, nil
}

func (s *InMemoryStore[T]) Update(_ context.Context, id string, item T) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return ierr.NewError("item not found").Mark(ierr.ErrNotFound)
	}
	s.items[id] = item
	return nil
}

// Mutate applies fn to the stored item under the write lock. fn returning an
// error leaves the item untouched.
func (s *InMemoryStore[T]) Mutate(_ context.Context, id string, fn func(item T) (T, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[id]
	if !ok {
		return errItemNotFound
	}
	updated, err := fn(item)
	if err != nil {
		return err
	}
	s.items[id] = updated
	return nil
}

// Find returns every item matching filter, ordered by less when given
func (s *InMemoryStore[T]) Find(_ context.Context, filter func(T) bool, less func(a, b T) bool) []T {
	s.mu.RLock()
	out := make([]T, 0, len(s.items))
	for _, item := range s.items {
		if filter == nil || filter(item) {
			out = append(out, item)
		}
	}
	s.mu.RUnlock()
	if less != nil {
		sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	}
	return out
}

func (s *InMemoryStore[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

func (s *InMemoryStore[T]) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = make(map[string]T)
}
