package cacheinfra

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// Interface assertion to ensure DiskStore implements Store[T]
var _ Store[any] = (*DiskStore[any])(nil)

// DiskStore persists one gzip-compressed blob per key under a function root.
// Keys are file paths. There is no locking: concurrent first writers race and
// the last rename wins.
type DiskStore[T any] struct {
	root   string
	codec  Codec
	logger *log.Logger
}

// NewDiskStore creates a disk tier rooted at cfg.Root.
func NewDiskStore[T any](cfg Config) (*DiskStore[T], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Root == "" {
		return nil, &ConfigError{Field: "Root", Message: "cannot be empty"}
	}

	return &DiskStore[T]{
		root:   cfg.Root,
		codec:  NewCodec(cfg.CompressionLevel),
		logger: cfg.logger().With("tier", "disk"),
	}, nil
}

// Root returns the directory removed by InvalidateAll.
func (s *DiskStore[T]) Root() string {
	return s.root
}

// GetOrCompute returns the value stored at path, computing and writing it
// first when no blob exists. The result is always read back from disk.
func (s *DiskStore[T]) GetOrCompute(ctx context.Context, path string, compute ComputeFunc[T]) (T, error) {
	var zero T

	_, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		s.logger.Debug("cache miss", "path", path)
		if err := s.write(ctx, path, compute); err != nil {
			return zero, err
		}
	case err != nil:
		return zero, err
	default:
		s.logger.Debug("cache hit", "path", path)
	}

	return s.read(path)
}

func (s *DiskStore[T]) write(ctx context.Context, path string, compute ComputeFunc[T]) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	value, err := compute(ctx)
	if err != nil {
		return err
	}

	data, err := s.codec.Encode(value)
	if err != nil {
		return &SerializationError{Path: path, Err: err}
	}

	var decoded T
	if err := s.codec.Decode(data, &decoded); err != nil {
		return &SerializationError{Path: path, Err: err}
	}
	if !sameValue(reflect.ValueOf(&value).Elem(), reflect.ValueOf(&decoded).Elem()) {
		return &SerializationError{Path: path, Err: errLossyRoundTrip}
	}

	if err := writeFileAtomic(path, data); err != nil {
		return err
	}

	s.logger.Debug("cache write", "path", path, "bytes", len(data))
	return nil
}

func (s *DiskStore[T]) read(path string) (T, error) {
	var value T

	data, err := os.ReadFile(path)
	if err != nil {
		return value, err
	}

	if err := s.codec.Decode(data, &value); err != nil {
		var zero T
		return zero, &CorruptCacheError{Path: path, Err: err}
	}

	return value, nil
}

// Invalidate removes the blob at path. Missing blobs are ignored.
func (s *DiskStore[T]) Invalidate(ctx context.Context, path string) error {
	err := os.Remove(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	s.logger.Debug("cache invalidate", "path", path)
	return nil
}

// InvalidateAll removes the whole function root, recursively.
func (s *DiskStore[T]) InvalidateAll(ctx context.Context) error {
	if err := os.RemoveAll(s.root); err != nil {
		return err
	}
	s.logger.Debug("cache invalidate all", "root", s.root)
	return nil
}

// writeFileAtomic writes to a uniquely named sibling and renames it into place
// so readers never observe a partially written blob.
func writeFileAtomic(path string, data []byte) error {
	tmp := path + ".tmp-" + uuid.NewString()

	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}

	_, err = f.Write(data)
	closeErr := f.Close()

	if err != nil {
		os.Remove(tmp)
		return err
	}
	if closeErr != nil {
		os.Remove(tmp)
		return closeErr
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
