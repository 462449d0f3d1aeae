package cache

import (
	"errors"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-autocache/internal/cacheinfra"
)

// Config selects the cache tiers of one decorated function and how its keys
// are laid out. It is fixed once the function is wrapped.
type Config struct {
	// Filepattern overrides the key format template. Nil selects the
	// default pattern built from every parameter name.
	Filepattern *string
	// Disk enables the persistent tier.
	Disk bool
	// Memory enables the in-process tier. With Disk it sits in front of disk.
	Memory bool
	// Duration enables the timed tier. It cannot be combined with Disk.
	Duration time.Duration
	// Root is the base storage path.
	Root string
	// Delimiter joins parameters in the default filepattern.
	Delimiter string
	// CompressionLevel is the gzip level of disk blobs.
	CompressionLevel int
	// Logger receives debug output. Nil selects log.Default().
	Logger *log.Logger
	// Clock drives the timed tier. Nil selects time.Now.
	Clock func() time.Time
}

// Option mutates a Config.
type Option func(*Config)

// DefaultConfig returns disk-only caching under ".cache".
func DefaultConfig() Config {
	return convertFromInternal(cacheinfra.DefaultConfig())
}

// NewConfig applies opts on top of DefaultConfig.
func NewConfig(opts ...Option) Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// WithFilepattern sets the key format template, e.g. "{date:%Y-%m-%d}".
// An empty pattern stores every call under the function root.
func WithFilepattern(pattern string) Option {
	return func(c *Config) { c.Filepattern = &pattern }
}

// WithDisk toggles the persistent tier.
func WithDisk(enabled bool) Option {
	return func(c *Config) { c.Disk = enabled }
}

// WithMemory toggles the in-process tier.
func WithMemory(enabled bool) Option {
	return func(c *Config) { c.Memory = enabled }
}

// WithDuration enables the timed tier.
func WithDuration(d time.Duration) Option {
	return func(c *Config) { c.Duration = d }
}

// WithRoot sets the base storage path.
func WithRoot(root string) Option {
	return func(c *Config) { c.Root = root }
}

// WithDelimiter sets the separator of the default filepattern.
func WithDelimiter(delimiter string) Option {
	return func(c *Config) { c.Delimiter = delimiter }
}

// WithCompressionLevel sets the gzip level of disk blobs.
func WithCompressionLevel(level int) Option {
	return func(c *Config) { c.CompressionLevel = level }
}

// WithLogger sets the logger.
func WithLogger(logger *log.Logger) Option {
	return func(c *Config) { c.Logger = logger }
}

// WithClock sets the time source of the timed tier.
func WithClock(clock func() time.Time) Option {
	return func(c *Config) { c.Clock = clock }
}

// Timed reports whether the timed tier is selected.
func (c Config) Timed() bool {
	return c.Duration > 0
}

// Passthrough reports whether no tier is selected.
func (c Config) Passthrough() bool {
	return !c.Timed() && !c.Disk && !c.Memory
}

// Validate checks tier combinations and option values.
func (c Config) Validate() error {
	err := validation.ValidateStruct(&c,
		validation.Field(&c.Duration,
			validation.By(nonNegativeDuration),
			validation.When(c.Disk && c.Duration > 0, validation.By(rejectWithDisk)),
		),
		validation.Field(&c.Root,
			validation.When(c.Disk, validation.Required),
		),
		validation.Field(&c.Delimiter,
			validation.By(noSeparator),
		),
	)
	if err != nil {
		return toConfigError(err)
	}

	return c.toInternal().Validate()
}

// Infra returns the tier settings for the given function root.
func (c Config) Infra(functionRoot string) cacheinfra.Config {
	cfg := c.toInternal()
	cfg.Root = functionRoot
	return cfg
}

func (c Config) toInternal() cacheinfra.Config {
	return cacheinfra.Config{
		Root:             c.Root,
		Duration:         c.Duration,
		CompressionLevel: c.CompressionLevel,
		Clock:            c.Clock,
		Logger:           c.Logger,
	}
}

func convertFromInternal(cfg cacheinfra.Config) Config {
	return Config{
		Disk:             true,
		Root:             cfg.Root,
		Duration:         cfg.Duration,
		Delimiter:        DefaultDelimiter,
		CompressionLevel: cfg.CompressionLevel,
		Clock:            cfg.Clock,
		Logger:           cfg.Logger,
	}
}

func nonNegativeDuration(value any) error {
	if d, _ := value.(time.Duration); d < 0 {
		return errors.New("must be non-negative")
	}
	return nil
}

func rejectWithDisk(any) error {
	return errors.New("duration based expiry cannot be combined with disk caching")
}

func noSeparator(value any) error {
	s, _ := value.(string)
	if strings.ContainsRune(s, '/') || strings.ContainsRune(s, filepath.Separator) {
		return errors.New("must not contain a path separator")
	}
	return nil
}

// toConfigError reports the first failing field, in name order.
func toConfigError(err error) error {
	var verrs validation.Errors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}

	fields := make([]string, 0, len(verrs))
	for field := range verrs {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	field := fields[0]
	return &ConfigError{Field: field, Message: verrs[field].Error()}
}
