package cacheinfra

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/puzpuzpuz/xsync/v3"
)

// Interface assertion to ensure MemoryStore implements Store[T]
var _ Store[any] = (*MemoryStore[any])(nil)

// MemoryStore keeps computed values for the lifetime of the process.
// Each decorated function owns its own store.
type MemoryStore[T any] struct {
	entries *xsync.MapOf[string, T]
	logger  *log.Logger
}

// NewMemoryStore creates an empty memory tier.
func NewMemoryStore[T any](cfg Config) *MemoryStore[T] {
	return &MemoryStore[T]{
		entries: xsync.NewMapOf[string, T](),
		logger:  cfg.logger().With("tier", "memory"),
	}
}

// GetOrCompute returns the stored value for key or computes and stores it.
// Concurrent misses on the same key may each run compute; the last store wins.
func (s *MemoryStore[T]) GetOrCompute(ctx context.Context, key string, compute ComputeFunc[T]) (T, error) {
	if value, ok := s.entries.Load(key); ok {
		s.logger.Debug("cache hit", "key", key)
		return value, nil
	}

	s.logger.Debug("cache miss", "key", key)
	value, err := compute(ctx)
	if err != nil {
		var zero T
		return zero, err
	}

	s.entries.Store(key, value)
	return value, nil
}

// Invalidate drops key if present.
func (s *MemoryStore[T]) Invalidate(ctx context.Context, key string) error {
	s.entries.Delete(key)
	return nil
}

// InvalidateAll drops every entry of this store.
func (s *MemoryStore[T]) InvalidateAll(ctx context.Context) error {
	s.entries.Clear()
	return nil
}

// Len returns the number of stored entries.
func (s *MemoryStore[T]) Len() int {
	return s.entries.Size()
}
