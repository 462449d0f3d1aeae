package cacheinfra

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/goliatone/go-autocache/pkg/testsupport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDiskStore[T any](t *testing.T) (*DiskStore[T], string) {
	t.Helper()

	cfg := DefaultConfig()
	cfg.Root = filepath.Join(testsupport.CacheRoot(t), "pkg", "fn")

	store, err := NewDiskStore[T](cfg)
	require.NoError(t, err)
	return store, cfg.Root
}

func TestDiskStore_ComputesOnceAndPersists(t *testing.T) {
	ctx := context.Background()
	store, root := newDiskStore[[]int](t)
	path := filepath.Join(root, "1-2")

	var calls testsupport.Counter
	compute := func(context.Context) ([]int, error) {
		calls.Inc()
		return []int{1, 2, 3}, nil
	}

	first, err := store.GetOrCompute(ctx, path, compute)
	require.NoError(t, err)
	second, err := store.GetOrCompute(ctx, path, compute)
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2, 3}, first)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls.Count())
	assert.FileExists(t, path)

	// A fresh store over the same root behaves like a restarted process.
	restarted, _ := NewDiskStore[[]int](Config{Root: root, CompressionLevel: -1})
	third, err := restarted.GetOrCompute(ctx, path, compute)
	require.NoError(t, err)
	assert.Equal(t, first, third)
	assert.Equal(t, 1, calls.Count())
}

func TestDiskStore_RoundTripValues(t *testing.T) {
	ctx := context.Background()
	store, root := newDiskStore[sample](t)

	want := sample{ID: 3, Name: "x", Tags: []string{}, Created: time.Unix(1542844800, 0).UTC()}
	got, err := store.GetOrCompute(ctx, filepath.Join(root, "v"), func(context.Context) (sample, error) {
		return want, nil
	})
	require.NoError(t, err)

	assert.Equal(t, want, got)
}

type withHidden struct {
	Public string
	hidden string
}

func TestDiskStore_LossyValuesAreRejected(t *testing.T) {
	tests := []struct {
		name  string
		value any
	}{
		{name: "unexported field", value: withHidden{Public: "p", hidden: "h"}},
		{name: "int in interface", value: map[string]any{"n": 42}},
		{name: "nested int in interface", value: []any{int64(1), []any{1}}},
		{name: "int32 in interface", value: int32(7)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, root := newDiskStore[any](t)
			path := filepath.Join(root, "v")

			_, err := store.GetOrCompute(context.Background(), path, func(context.Context) (any, error) {
				return tt.value, nil
			})

			var serr *SerializationError
			require.ErrorAs(t, err, &serr)
			assert.Equal(t, path, serr.Path)
			assert.NoFileExists(t, path)
		})
	}
}

func TestDiskStore_UnexportedFieldRejectedForConcreteType(t *testing.T) {
	store, root := newDiskStore[withHidden](t)
	path := filepath.Join(root, "v")

	_, err := store.GetOrCompute(context.Background(), path, func(context.Context) (withHidden, error) {
		return withHidden{Public: "p", hidden: "h"}, nil
	})

	assert.ErrorIs(t, err, ErrSerialization)
	assert.NoFileExists(t, path)
}

func TestDiskStore_ExactRoundTrips(t *testing.T) {
	tests := []struct {
		name  string
		value any
	}{
		{name: "canonical interface map", value: map[string]any{"n": int64(42), "f": []any{int64(1), "a"}}},
		{name: "utc time", value: time.Date(2018, 11, 22, 0, 0, 0, 0, time.UTC)},
		{name: "string", value: "plain"},
		{name: "float", value: 2.5},
		{name: "nil", value: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, root := newDiskStore[any](t)

			got, err := store.GetOrCompute(context.Background(), filepath.Join(root, "v"), func(context.Context) (any, error) {
				return tt.value, nil
			})

			require.NoError(t, err)
			assert.Equal(t, tt.value, got)
		})
	}
}

func TestDiskStore_TimesComeBackInUTC(t *testing.T) {
	store, root := newDiskStore[time.Time](t)
	when := time.Date(2018, 11, 22, 9, 30, 0, 0, time.FixedZone("CET", 3600))

	got, err := store.GetOrCompute(context.Background(), filepath.Join(root, "t"), func(context.Context) (time.Time, error) {
		return when, nil
	})

	require.NoError(t, err)
	assert.Equal(t, when.UTC(), got)
}

func TestDiskStore_ComputeErrorWritesNothing(t *testing.T) {
	store, root := newDiskStore[int](t)
	path := filepath.Join(root, "boom")
	boom := errors.New("boom")

	_, err := store.GetOrCompute(context.Background(), path, func(context.Context) (int, error) {
		return 0, boom
	})

	assert.ErrorIs(t, err, boom)
	assert.NoFileExists(t, path)
}

func TestDiskStore_SerializationError(t *testing.T) {
	store, root := newDiskStore[func()](t)
	path := filepath.Join(root, "fn")

	_, err := store.GetOrCompute(context.Background(), path, func(context.Context) (func(), error) {
		return func() {}, nil
	})

	var serr *SerializationError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, path, serr.Path)
	assert.ErrorIs(t, err, ErrSerialization)
	assert.NoFileExists(t, path)
	assert.Empty(t, testsupport.ListBlobs(t, root))
}

func TestDiskStore_CorruptBlobIsNotRepaired(t *testing.T) {
	ctx := context.Background()
	store, root := newDiskStore[int](t)
	path := filepath.Join(root, "1")

	var calls testsupport.Counter
	compute := func(context.Context) (int, error) { return calls.Inc(), nil }

	_, err := store.GetOrCompute(ctx, path, compute)
	require.NoError(t, err)

	testsupport.CorruptFile(t, path)

	_, err = store.GetOrCompute(ctx, path, compute)
	assert.ErrorIs(t, err, ErrCorruptCache)
	_, err = store.GetOrCompute(ctx, path, compute)
	assert.ErrorIs(t, err, ErrCorruptCache)
	assert.Equal(t, 1, calls.Count())

	require.NoError(t, store.Invalidate(ctx, path))
	got, err := store.GetOrCompute(ctx, path, compute)
	require.NoError(t, err)
	assert.Equal(t, 2, got)
}

func TestDiskStore_Invalidate(t *testing.T) {
	ctx := context.Background()
	store, root := newDiskStore[string](t)
	path := filepath.Join(root, "a")

	assert.NoError(t, store.Invalidate(ctx, path), "missing blob is a no-op")

	_, err := store.GetOrCompute(ctx, path, func(context.Context) (string, error) { return "a", nil })
	require.NoError(t, err)
	require.FileExists(t, path)

	require.NoError(t, store.Invalidate(ctx, path))
	assert.NoFileExists(t, path)
}

func TestDiskStore_InvalidateAll(t *testing.T) {
	ctx := context.Background()
	store, root := newDiskStore[string](t)

	sibling := filepath.Join(filepath.Dir(root), "other")
	require.NoError(t, os.MkdirAll(filepath.Dir(sibling), 0o755))
	require.NoError(t, os.WriteFile(sibling, []byte("keep"), 0o644))

	for _, name := range []string{"a", filepath.Join("nested", "b")} {
		_, err := store.GetOrCompute(ctx, filepath.Join(root, name), func(context.Context) (string, error) {
			return name, nil
		})
		require.NoError(t, err)
	}
	require.Len(t, testsupport.ListBlobs(t, root), 2)

	require.NoError(t, store.InvalidateAll(ctx))
	assert.NoDirExists(t, root)
	assert.FileExists(t, sibling)

	assert.NoError(t, store.InvalidateAll(ctx), "missing root is a no-op")
}

func TestDiskStore_NoTempFilesLeft(t *testing.T) {
	store, root := newDiskStore[int](t)

	_, err := store.GetOrCompute(context.Background(), filepath.Join(root, "x"), func(context.Context) (int, error) {
		return 1, nil
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"x"}, testsupport.ListBlobs(t, root))
}

func TestNewDiskStore_InvalidConfig(t *testing.T) {
	_, err := NewDiskStore[int](Config{Root: "", CompressionLevel: -1})
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = NewDiskStore[int](Config{Root: "x", CompressionLevel: 42})
	var cerr *ConfigError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "CompressionLevel", cerr.Field)
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore[string](DefaultConfig())

	var calls testsupport.Counter
	compute := func(context.Context) (string, error) {
		calls.Inc()
		return "value", nil
	}

	for i := 0; i < 3; i++ {
		got, err := store.GetOrCompute(ctx, "k", compute)
		require.NoError(t, err)
		assert.Equal(t, "value", got)
	}
	assert.Equal(t, 1, calls.Count())
	assert.Equal(t, 1, store.Len())

	require.NoError(t, store.Invalidate(ctx, "k"))
	require.NoError(t, store.Invalidate(ctx, "missing"))
	assert.Equal(t, 0, store.Len())

	_, err := store.GetOrCompute(ctx, "k", compute)
	require.NoError(t, err)
	_, err = store.GetOrCompute(ctx, "j", compute)
	require.NoError(t, err)
	assert.Equal(t, 3, calls.Count())

	require.NoError(t, store.InvalidateAll(ctx))
	assert.Equal(t, 0, store.Len())
}

func TestMemoryStore_ComputeErrorNotStored(t *testing.T) {
	store := NewMemoryStore[int](DefaultConfig())
	boom := errors.New("boom")

	_, err := store.GetOrCompute(context.Background(), "k", func(context.Context) (int, error) {
		return 0, boom
	})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, store.Len())
}

func TestMemoryStores_AreIndependent(t *testing.T) {
	ctx := context.Background()
	a := NewMemoryStore[int](DefaultConfig())
	b := NewMemoryStore[int](DefaultConfig())

	_, err := a.GetOrCompute(ctx, "k", func(context.Context) (int, error) { return 1, nil })
	require.NoError(t, err)

	got, err := b.GetOrCompute(ctx, "k", func(context.Context) (int, error) { return 2, nil })
	require.NoError(t, err)
	assert.Equal(t, 2, got)

	require.NoError(t, b.InvalidateAll(ctx))
	assert.Equal(t, 1, a.Len())
}

func TestTimedStore(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2018, 11, 22, 9, 0, 0, 0, time.UTC)
	clock := testsupport.NewClock(start)

	cfg := DefaultConfig()
	cfg.Duration = time.Minute
	cfg.Clock = clock.Now

	store, err := NewTimedStore[int](cfg)
	require.NoError(t, err)

	var calls testsupport.Counter
	compute := func(context.Context) (int, error) { return calls.Inc(), nil }

	got, err := store.GetOrCompute(ctx, "k", compute)
	require.NoError(t, err)
	assert.Equal(t, 1, got)

	clock.Advance(59 * time.Second)
	got, err = store.GetOrCompute(ctx, "k", compute)
	require.NoError(t, err)
	assert.Equal(t, 1, got, "entry younger than duration is a hit")

	storedAt, ok := store.StoredAt("k")
	require.True(t, ok)
	assert.True(t, storedAt.Equal(start))

	clock.Advance(time.Second)
	got, err = store.GetOrCompute(ctx, "k", compute)
	require.NoError(t, err)
	assert.Equal(t, 2, got, "entry as old as duration is recomputed")

	storedAt, ok = store.StoredAt("k")
	require.True(t, ok)
	assert.True(t, storedAt.Equal(start.Add(time.Minute)), "timestamp refreshed")

	require.NoError(t, store.Invalidate(ctx, "k"))
	_, ok = store.StoredAt("k")
	assert.False(t, ok)

	_, err = store.GetOrCompute(ctx, "a", compute)
	require.NoError(t, err)
	require.NoError(t, store.InvalidateAll(ctx))
	assert.Equal(t, 0, store.Len())
}

func TestTimedStore_ExpiryIsLazy(t *testing.T) {
	clock := testsupport.NewClock(time.Unix(0, 0))
	store, err := NewTimedStore[int](Config{Duration: time.Second, Clock: clock.Now, CompressionLevel: -1})
	require.NoError(t, err)

	_, err = store.GetOrCompute(context.Background(), "k", func(context.Context) (int, error) { return 1, nil })
	require.NoError(t, err)

	clock.Advance(time.Hour)
	assert.Equal(t, 1, store.Len(), "expired entries stay until accessed")
}

func TestNewTimedStore_RequiresDuration(t *testing.T) {
	_, err := NewTimedStore[int](DefaultConfig())

	var cerr *ConfigError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "Duration", cerr.Field)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name      string
		cfg       Config
		wantField string
	}{
		{name: "valid default config", cfg: DefaultConfig()},
		{name: "negative duration", cfg: Config{Duration: -time.Second, CompressionLevel: -1}, wantField: "Duration"},
		{name: "compression too high", cfg: Config{CompressionLevel: 10}, wantField: "CompressionLevel"},
		{name: "compression too low", cfg: Config{CompressionLevel: -4}, wantField: "CompressionLevel"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			var cerr *ConfigError
			require.ErrorAs(t, err, &cerr)
			assert.Equal(t, tt.wantField, cerr.Field)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}
