package state

import (
	"context"
	"maps"
	"slices"
	"strings"
	"sync"
)

// MemoryStore keeps snapshots in process, keyed by Ref.Identifier(). Without
// a copier snapshots are stored by value, so reference types inside T stay
// shared with the caller.
type MemoryStore[T any] struct {
	mu     sync.RWMutex
	items  map[string]stored[T]
	copier func(T) T
}

type stored[T any] struct {
	value T
	meta  Meta
}

// MemoryStoreOption configures a MemoryStore.
type MemoryStoreOption[T any] func(*MemoryStore[T])

// WithCopier deep-copies snapshots on the way in and on the way out.
func WithCopier[T any](copier func(T) T) MemoryStoreOption[T] {
	return func(s *MemoryStore[T]) {
		s.copier = copier
	}
}

func NewMemoryStore[T any](opts ...MemoryStoreOption[T]) *MemoryStore[T] {
	s := &MemoryStore[T]{items: map[string]stored[T]{}}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *MemoryStore[T]) Load(_ context.Context, ref Ref) (T, Meta, bool, error) {
	var zero T
	key, err := ref.Identifier()
	if err != nil {
		return zero, Meta{}, false, err
	}
	s.mu.RLock()
	item, ok := s.items[key]
	s.mu.RUnlock()
	if !ok {
		return zero, Meta{}, false, nil
	}
	return s.copy(item.value), item.meta.clone(), true, nil
}

func (s *MemoryStore[T]) Save(_ context.Context, ref Ref, snapshot T, meta Meta) (Meta, error) {
	key, err := ref.Identifier()
	if err != nil {
		return Meta{}, err
	}
	item := stored[T]{value: s.copy(snapshot), meta: meta.clone()}
	s.mu.Lock()
	if s.items == nil {
		s.items = map[string]stored[T]{}
	}
	s.items[key] = item
	s.mu.Unlock()
	return meta.clone(), nil
}

// Delete forgets ref. Deleting an unknown ref is a no-op.
func (s *MemoryStore[T]) Delete(_ context.Context, ref Ref) error {
	key, err := ref.Identifier()
	if err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.items, key)
	s.mu.Unlock()
	return nil
}

// Keys lists stored identifiers starting with prefix, sorted.
func (s *MemoryStore[T]) Keys(prefix string) []string {
	s.mu.RLock()
	keys := slices.Collect(maps.Keys(s.items))
	s.mu.RUnlock()
	keys = slices.DeleteFunc(keys, func(key string) bool {
		return !strings.HasPrefix(key, prefix)
	})
	slices.Sort(keys)
	return keys
}

func (s *MemoryStore[T]) copy(value T) T {
	if s.copier == nil {
		return value
	}
	return s.copier(value)
}

func (m Meta) clone() Meta {
	m.Extra = maps.Clone(m.Extra)
	return m
}
