package di

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/log"
	"github.com/goliatone/go-autocache/autocache"
	"github.com/goliatone/go-autocache/cache"
)

// Settings are the process-wide cache defaults read from the environment.
type Settings struct {
	Root             string `env:"AUTOCACHE_ROOT" envDefault:".cache"`
	DisableDisk      bool   `env:"AUTOCACHE_DISABLE_DISK"`
	CompressionLevel int    `env:"AUTOCACHE_COMPRESSION_LEVEL" envDefault:"-1"`
	LogLevel         string `env:"AUTOCACHE_LOG_LEVEL" envDefault:"info"`
}

// DefaultSettings returns the settings used when no variable is set.
func DefaultSettings() Settings {
	return Settings{
		Root:             ".cache",
		CompressionLevel: -1,
		LogLevel:         "info",
	}
}

// LoadSettings reads Settings from the environment.
func LoadSettings() (Settings, error) {
	var s Settings
	if err := env.Parse(&s); err != nil {
		return Settings{}, fmt.Errorf("parse env: %w", err)
	}
	return s, nil
}

type invalidator interface {
	InvalidateAll(ctx context.Context) error
}

// Container provides dependency injection for cached functions.
// It owns the shared logger and defaults, and remembers every function it
// builds so they can be cleared together.
type Container struct {
	settings Settings
	logger   *log.Logger

	mu    sync.Mutex
	funcs []invalidator
}

// NewContainer creates a container from settings. Log output goes to stderr.
func NewContainer(settings Settings) (*Container, error) {
	return NewContainerWithOutput(settings, os.Stderr)
}

// NewContainerWithOutput creates a container whose logger writes to w.
func NewContainerWithOutput(settings Settings, w io.Writer) (*Container, error) {
	level, err := log.ParseLevel(settings.LogLevel)
	if err != nil {
		return nil, &cache.ConfigError{Field: "LogLevel", Message: err.Error()}
	}

	logger := log.NewWithOptions(w, log.Options{
		Level:  level,
		Prefix: "autocache",
	})

	c := &Container{
		settings: settings,
		logger:   logger,
	}

	if err := cache.NewConfig(c.Options()...).Validate(); err != nil {
		return nil, err
	}

	return c, nil
}

// NewContainerWithDefaults creates a container using DefaultSettings.
func NewContainerWithDefaults() (*Container, error) {
	return NewContainer(DefaultSettings())
}

// NewContainerFromEnv creates a container using LoadSettings.
func NewContainerFromEnv() (*Container, error) {
	settings, err := LoadSettings()
	if err != nil {
		return nil, err
	}
	return NewContainer(settings)
}

// Settings returns the settings the container was built with.
func (c *Container) Settings() Settings {
	return c.settings
}

// Logger returns the shared logger.
func (c *Container) Logger() *log.Logger {
	return c.logger
}

// Options returns the container defaults as cache options. Options passed to
// NewCachedFunc are applied after these and win.
func (c *Container) Options() []cache.Option {
	return []cache.Option{
		cache.WithRoot(c.settings.Root),
		cache.WithDisk(!c.settings.DisableDisk),
		cache.WithCompressionLevel(c.settings.CompressionLevel),
		cache.WithLogger(c.logger),
	}
}

// InvalidateAll clears every function built by the container.
func (c *Container) InvalidateAll(ctx context.Context) error {
	c.mu.Lock()
	funcs := append([]invalidator(nil), c.funcs...)
	c.mu.Unlock()

	var errs []error
	for _, f := range funcs {
		if err := f.InvalidateAll(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Len returns the number of functions built by the container.
func (c *Container) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.funcs)
}

func (c *Container) register(f invalidator) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.funcs = append(c.funcs, f)
}

// NewCachedFunc decorates fn with the container defaults followed by opts.
//
// Since Go methods cannot have type parameters, this is provided as a package-level function.
// Example: NewCachedFunc[[]Statement](container, sig, fetchStatements)
func NewCachedFunc[T any](container *Container, sig cache.Signature, fn autocache.ComputeFunc[T], opts ...cache.Option) (*autocache.Func[T], error) {
	f, err := autocache.Wrap(sig, fn, append(container.Options(), opts...)...)
	if err != nil {
		return nil, err
	}
	container.register(f)
	return f, nil
}
