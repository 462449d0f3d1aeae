package cacheinfra

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/puzpuzpuz/xsync/v3"
)

// Interface assertion to ensure TimedStore implements Store[T]
var _ Store[any] = (*TimedStore[any])(nil)

type timedEntry[T any] struct {
	value    T
	storedAt time.Time
}

// TimedStore is a memory tier whose entries count as absent once they are
// older than the configured duration. Expiry is only checked on access.
type TimedStore[T any] struct {
	entries  *xsync.MapOf[string, timedEntry[T]]
	duration time.Duration
	now      func() time.Time
	logger   *log.Logger
}

// NewTimedStore creates a timed tier. cfg.Duration must be positive.
func NewTimedStore[T any](cfg Config) (*TimedStore[T], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Duration <= 0 {
		return nil, &ConfigError{Field: "Duration", Message: "must be greater than 0"}
	}

	return &TimedStore[T]{
		entries:  xsync.NewMapOf[string, timedEntry[T]](),
		duration: cfg.Duration,
		now:      cfg.clock(),
		logger:   cfg.logger().With("tier", "timed"),
	}, nil
}

// GetOrCompute returns the stored value when it is younger than the store
// duration, otherwise it recomputes and refreshes the timestamp.
func (s *TimedStore[T]) GetOrCompute(ctx context.Context, key string, compute ComputeFunc[T]) (T, error) {
	if entry, ok := s.entries.Load(key); ok {
		age := s.now().Sub(entry.storedAt)
		if age < s.duration {
			s.logger.Debug("cache hit", "key", key, "age", age)
			return entry.value, nil
		}
		s.logger.Debug("cache expired", "key", key, "age", age)
	} else {
		s.logger.Debug("cache miss", "key", key)
	}

	storedAt := s.now()
	value, err := compute(ctx)
	if err != nil {
		var zero T
		return zero, err
	}

	s.entries.Store(key, timedEntry[T]{value: value, storedAt: storedAt})
	return value, nil
}

// StoredAt reports when key was last computed.
func (s *TimedStore[T]) StoredAt(key string) (time.Time, bool) {
	entry, ok := s.entries.Load(key)
	if !ok {
		return time.Time{}, false
	}
	return entry.storedAt, true
}

// Invalidate drops key if present.
func (s *TimedStore[T]) Invalidate(ctx context.Context, key string) error {
	s.entries.Delete(key)
	return nil
}

// InvalidateAll drops every entry of this store.
func (s *TimedStore[T]) InvalidateAll(ctx context.Context) error {
	s.entries.Clear()
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (s *TimedStore[T]) Len() int {
	return s.entries.Size()
}
