package cacheinfra

import (
	"context"
	"errors"
)

// Interface assertion to ensure TieredStore implements Store[T]
var _ Store[any] = (*TieredStore[any])(nil)

// TieredStore puts a front tier ahead of a back tier. A front miss is filled
// from the back tier, which computes only on its own miss.
type TieredStore[T any] struct {
	front Store[T]
	back  Store[T]
}

// NewTieredStore layers front over back.
func NewTieredStore[T any](front, back Store[T]) *TieredStore[T] {
	return &TieredStore[T]{front: front, back: back}
}

// GetOrCompute consults front, then back, then compute.
func (s *TieredStore[T]) GetOrCompute(ctx context.Context, key string, compute ComputeFunc[T]) (T, error) {
	return s.front.GetOrCompute(ctx, key, func(ctx context.Context) (T, error) {
		return s.back.GetOrCompute(ctx, key, compute)
	})
}

// Invalidate removes key from both tiers.
func (s *TieredStore[T]) Invalidate(ctx context.Context, key string) error {
	return errors.Join(
		s.front.Invalidate(ctx, key),
		s.back.Invalidate(ctx, key),
	)
}

// InvalidateAll clears both tiers.
func (s *TieredStore[T]) InvalidateAll(ctx context.Context) error {
	return errors.Join(
		s.front.InvalidateAll(ctx),
		s.back.InvalidateAll(ctx),
	)
}
