package autocache

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/goliatone/go-autocache/cache"
	"github.com/goliatone/go-autocache/internal/cacheinfra"
)

// ComputeFunc produces the result of a decorated function from its bound
// arguments. A returned error is passed to the caller and nothing is cached.
type ComputeFunc[T any] func(ctx context.Context, args cache.Arguments) (T, error)

// Tier names reported by Func.Tier.
const (
	TierNone       = "none"
	TierMemory     = "memory"
	TierDisk       = "disk"
	TierMemoryDisk = "memory+disk"
	TierTimed      = "timed"
)

// Func is a decorated function. Calls with equal bound arguments share one
// cache entry per tier. Func is safe for concurrent use, but concurrent misses
// on the same key may each run the compute function.
type Func[T any] struct {
	sig     cache.Signature
	fn      ComputeFunc[T]
	cfg     cache.Config
	deriver cache.KeyDeriver
	store   cacheinfra.Store[T]
	tier    string
	logger  *log.Logger
}

// Wrap decorates fn with the tiers selected by opts on top of
// cache.DefaultConfig. When sig has no Name, the identity is taken from fn's
// runtime symbol.
func Wrap[T any](sig cache.Signature, fn ComputeFunc[T], opts ...cache.Option) (*Func[T], error) {
	if fn == nil {
		return nil, &cache.ConfigError{Field: "fn", Message: "cannot be nil"}
	}

	cfg := cache.NewConfig(opts...)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if sig.Name == "" {
		namespace, name := functionIdentity(fn)
		if sig.Namespace == "" {
			sig.Namespace = namespace
		}
		sig.Name = name
	}

	deriver, err := cache.NewKeyDeriver(sig, cfg.Root, cfg.Filepattern, cfg.Delimiter)
	if err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	logger = logger.With("fn", sig.Qualified())

	infra := cfg.Infra(deriver.FunctionRoot().Path())
	infra.Logger = logger

	store, tier, err := newStore[T](cfg, infra)
	if err != nil {
		return nil, err
	}

	logger.Debug("wrapped function", "tier", tier, "pattern", deriver.Pattern())

	return &Func[T]{
		sig:     sig,
		fn:      fn,
		cfg:     cfg,
		deriver: deriver,
		store:   store,
		tier:    tier,
		logger:  logger,
	}, nil
}

// Memo decorates fn with the memory tier only.
func Memo[T any](sig cache.Signature, fn ComputeFunc[T], opts ...cache.Option) (*Func[T], error) {
	return Wrap(sig, fn, prepend(opts, cache.WithDisk(false), cache.WithMemory(true))...)
}

// Timed decorates fn with the timed tier: results are reused while they are
// younger than d.
func Timed[T any](d time.Duration, sig cache.Signature, fn ComputeFunc[T], opts ...cache.Option) (*Func[T], error) {
	return Wrap(sig, fn, prepend(opts, cache.WithDisk(false), cache.WithDuration(d))...)
}

// newStore selects tiers by priority: timed, memory over disk, disk, memory.
// A nil store means calls pass through.
func newStore[T any](cfg cache.Config, infra cacheinfra.Config) (cacheinfra.Store[T], string, error) {
	switch {
	case cfg.Timed():
		store, err := cacheinfra.NewTimedStore[T](infra)
		return store, TierTimed, err
	case cfg.Memory && cfg.Disk:
		disk, err := cacheinfra.NewDiskStore[T](infra)
		if err != nil {
			return nil, "", err
		}
		return cacheinfra.NewTieredStore[T](cacheinfra.NewMemoryStore[T](infra), disk), TierMemoryDisk, nil
	case cfg.Disk:
		store, err := cacheinfra.NewDiskStore[T](infra)
		return store, TierDisk, err
	case cfg.Memory:
		return cacheinfra.NewMemoryStore[T](infra), TierMemory, nil
	}
	return nil, TierNone, nil
}

func prepend(opts []cache.Option, first ...cache.Option) []cache.Option {
	return append(first, opts...)
}

// Call returns the cached result for args, computing it on a miss.
func (f *Func[T]) Call(ctx context.Context, args ...any) (T, error) {
	if f.store == nil {
		bound, err := f.sig.Bind(args...)
		if err != nil {
			var zero T
			return zero, err
		}
		return f.fn(ctx, bound)
	}

	key, bound, err := f.deriver.Derive(args...)
	if err != nil {
		var zero T
		return zero, err
	}

	return f.store.GetOrCompute(ctx, key.String(), func(ctx context.Context) (T, error) {
		f.logger.Debug("computing", "key", key)
		return f.fn(ctx, bound)
	})
}

// Invalidate removes the entry for args from every active tier. Missing
// entries are ignored.
func (f *Func[T]) Invalidate(ctx context.Context, args ...any) error {
	if f.store == nil {
		return nil
	}

	key, _, err := f.deriver.Derive(args...)
	if err != nil {
		return err
	}
	return f.store.Invalidate(ctx, key.String())
}

// InvalidateAll removes every entry of this function from every active tier.
// Other functions sharing the root are not affected.
func (f *Func[T]) InvalidateAll(ctx context.Context) error {
	if f.store == nil {
		return nil
	}
	return f.store.InvalidateAll(ctx)
}

// Key returns the storage key args map to without computing anything.
func (f *Func[T]) Key(args ...any) (cache.Key, error) {
	key, _, err := f.deriver.Derive(args...)
	return key, err
}

// FunctionRoot returns the key prefix shared by every call.
func (f *Func[T]) FunctionRoot() cache.Key {
	return f.deriver.FunctionRoot()
}

// Config returns the configuration fixed at Wrap time.
func (f *Func[T]) Config() cache.Config {
	return f.cfg
}

// Signature returns the signature with its resolved identity.
func (f *Func[T]) Signature() cache.Signature {
	return f.sig
}

// Tier names the active tier layout.
func (f *Func[T]) Tier() string {
	return f.tier
}
