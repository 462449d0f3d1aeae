package cache

import (
	"errors"
	"strconv"

	"github.com/goliatone/go-autocache/internal/cacheinfra"
)

var (
	// ErrConfiguration is matched by every *ConfigError.
	ErrConfiguration = cacheinfra.ErrInvalidConfig
	// ErrBinding is matched by every *BindingError.
	ErrBinding = errors.New("arguments do not match signature")
	// ErrFormat is matched by every *FormatError.
	ErrFormat = errors.New("cache key format failed")
	// ErrSerialization is matched by every *SerializationError.
	ErrSerialization = cacheinfra.ErrSerialization
	// ErrCorruptCache is matched by every *CorruptCacheError.
	ErrCorruptCache = cacheinfra.ErrCorruptCache
)

// ConfigError reports an invalid tier combination or option value.
type ConfigError = cacheinfra.ConfigError

// SerializationError reports a computed value that could not be encoded.
type SerializationError = cacheinfra.SerializationError

// CorruptCacheError reports a stored blob that could not be read back.
type CorruptCacheError = cacheinfra.CorruptCacheError

// BindingError reports call arguments that do not fit a Signature.
type BindingError struct {
	Function string
	Message  string
}

func (e *BindingError) Error() string {
	if e.Function == "" {
		return "bind arguments: " + e.Message
	}
	return "bind arguments for " + e.Function + ": " + e.Message
}

func (e *BindingError) Is(target error) bool {
	return target == ErrBinding
}

// FormatError reports a filepattern that could not be parsed or applied.
type FormatError struct {
	Pattern string
	Field   string
	Message string
	Err     error
}

func (e *FormatError) Error() string {
	msg := "format " + strconv.Quote(e.Pattern)
	if e.Field != "" {
		msg += " field " + strconv.Quote(e.Field)
	}
	msg += ": " + e.Message
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FormatError) Unwrap() error { return e.Err }

func (e *FormatError) Is(target error) bool {
	return target == ErrFormat
}
