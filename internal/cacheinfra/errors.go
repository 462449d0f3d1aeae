package cacheinfra

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig is matched by every *ConfigError.
	ErrInvalidConfig = errors.New("invalid cache configuration")
	// ErrSerialization is matched by every *SerializationError.
	ErrSerialization = errors.New("cache value cannot be serialized")
	// ErrCorruptCache is matched by every *CorruptCacheError.
	ErrCorruptCache = errors.New("cache blob cannot be decoded")
)

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return "config error in field " + e.Field + ": " + e.Message
}

// Is reports whether target is ErrInvalidConfig.
func (e *ConfigError) Is(target error) bool {
	return target == ErrInvalidConfig
}

// SerializationError is returned when a computed value cannot be encoded.
// Nothing is written to disk when it occurs.
type SerializationError struct {
	Path string
	Err  error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("serialize cache entry %s: %v", e.Path, e.Err)
}

func (e *SerializationError) Unwrap() error { return e.Err }

func (e *SerializationError) Is(target error) bool {
	return target == ErrSerialization
}

// CorruptCacheError is returned when an existing blob cannot be decompressed
// or decoded. The blob is left in place; callers must invalidate it.
type CorruptCacheError struct {
	Path string
	Err  error
}

func (e *CorruptCacheError) Error() string {
	return fmt.Sprintf("corrupt cache entry %s: %v", e.Path, e.Err)
}

func (e *CorruptCacheError) Unwrap() error { return e.Err }

func (e *CorruptCacheError) Is(target error) bool {
	return target == ErrCorruptCache
}
