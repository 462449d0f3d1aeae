package cacheinfra

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/klauspost/compress/gzip"
)

// ComputeFunc produces the value for a cache miss.
type ComputeFunc[T any] func(ctx context.Context) (T, error)

// Store is the contract shared by every cache tier.
type Store[T any] interface {
	GetOrCompute(ctx context.Context, key string, compute ComputeFunc[T]) (T, error)
	Invalidate(ctx context.Context, key string) error
	InvalidateAll(ctx context.Context) error
}

// Config holds the settings shared by the cache tiers of one decorated function.
type Config struct {
	// Root is the directory that holds every blob of the function.
	// Only used by the disk tier.
	Root string

	// Duration is the freshness window of the timed tier.
	// Must not be negative. Zero disables the timed tier.
	Duration time.Duration

	// CompressionLevel is the gzip level used for disk blobs.
	// Accepts gzip.StatelessCompression through gzip.BestCompression.
	CompressionLevel int

	// Clock returns the current time. Defaults to time.Now.
	Clock func() time.Time

	// Logger receives debug output for hits, misses and writes.
	Logger *log.Logger
}

// DefaultConfig returns a Config with defaults suitable for most functions.
func DefaultConfig() Config {
	return Config{
		Root:             ".cache",
		CompressionLevel: gzip.DefaultCompression,
		Clock:            time.Now,
		Logger:           log.Default(),
	}
}

// Validate checks if the configuration values are valid.
func (c Config) Validate() error {
	if c.Duration < 0 {
		return &ConfigError{Field: "Duration", Message: "must be non-negative"}
	}

	if c.CompressionLevel < gzip.StatelessCompression || c.CompressionLevel > gzip.BestCompression {
		return &ConfigError{Field: "CompressionLevel", Message: "must be between -3 and 9"}
	}

	return nil
}

func (c Config) clock() func() time.Time {
	if c.Clock == nil {
		return time.Now
	}
	return c.Clock
}

func (c Config) logger() *log.Logger {
	if c.Logger == nil {
		return log.Default()
	}
	return c.Logger
}
