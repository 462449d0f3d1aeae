package cacheinfra

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"

	"github.com/klauspost/compress/gzip"
	"github.com/vmihailenco/msgpack/v5"
)

// BlobVersion is the first byte of every decompressed blob.
const BlobVersion byte = 1

// Codec turns values into gzip-compressed, versioned msgpack blobs and back.
type Codec struct {
	level int
}

// NewCodec returns a Codec that compresses with the given gzip level.
func NewCodec(level int) Codec {
	return Codec{level: level}
}

// Encode serializes v. Errors are returned as-is; callers decide how to wrap them.
func (c Codec) Encode(v any) ([]byte, error) {
	payload, err := msgpack.Marshal(v)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	zw, err := gzip.NewWriterLevel(&buf, c.level)
	if err != nil {
		return nil, err
	}
	if _, err := zw.Write([]byte{BlobVersion}); err != nil {
		return nil, err
	}
	if _, err := zw.Write(payload); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// Decode decompresses data and unmarshals the payload into dst. Numbers held
// in interfaces come back as int64, uint64 or float64 and times come back in UTC.
func (c Codec) Decode(data []byte, dst any) error {
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return err
	}
	defer zr.Close()

	raw, err := io.ReadAll(zr)
	if err != nil {
		return err
	}
	if len(raw) == 0 {
		return errors.New("empty blob")
	}
	if raw[0] != BlobVersion {
		return fmt.Errorf("unsupported blob version %d", raw[0])
	}

	dec := msgpack.NewDecoder(bytes.NewReader(raw[1:]))
	dec.UseLooseInterfaceDecoding(true)
	if err := dec.Decode(dst); err != nil {
		return err
	}

	if rv := reflect.ValueOf(dst); rv.Kind() == reflect.Pointer && !rv.IsNil() {
		utcTimes(rv.Elem())
	}
	return nil
}

// ReadBlob decodes the blob at path into a generic value. It is meant for
// tooling that inspects a cache without knowing the stored types.
func ReadBlob(path string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var v any
	if err := (Codec{}).Decode(data, &v); err != nil {
		return nil, &CorruptCacheError{Path: path, Err: err}
	}
	return v, nil
}
