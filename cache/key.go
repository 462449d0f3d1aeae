package cache

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// DefaultDelimiter separates parameters in the generated filepattern.
const DefaultDelimiter = "-"

// maxSegmentLength is the longest path component most filesystems accept.
const maxSegmentLength = 255

// Key identifies one function and argument combination. It is a path-like
// sequence of segments: root, namespace segments, function name and, when
// the filepattern is not empty, the formatted arguments.
type Key struct {
	segments []string
}

// NewKey builds a Key from segments.
func NewKey(segments ...string) Key {
	return Key{segments: append([]string(nil), segments...)}
}

// Segments returns a copy of the key segments.
func (k Key) Segments() []string {
	return append([]string(nil), k.segments...)
}

// Path joins the segments with the OS path separator.
func (k Key) Path() string {
	return filepath.Join(k.segments...)
}

// String returns Path.
func (k Key) String() string {
	return k.Path()
}

// IsZero reports whether k has no segments.
func (k Key) IsZero() bool {
	return len(k.segments) == 0
}

// KeyDeriver builds storage keys for the calls of one function.
type KeyDeriver interface {
	// Derive binds args and returns the key together with the bound arguments.
	Derive(args ...any) (Key, Arguments, error)
	// FunctionRoot is the key prefix shared by every call of the function.
	FunctionRoot() Key
	// Pattern is the filepattern in use, after defaulting.
	Pattern() string
}

type defaultKeyDeriver struct {
	sig     Signature
	base    []string
	pattern string
	tmpl    *template
}

// DefaultFilepattern joins every parameter as "{name}" with delimiter.
func DefaultFilepattern(sig Signature, delimiter string) string {
	fields := make([]string, len(sig.Params))
	for i, p := range sig.Params {
		fields[i] = "{" + p.Name + "}"
	}
	return strings.Join(fields, delimiter)
}

// NewKeyDeriver creates the default KeyDeriver. A nil filepattern selects
// DefaultFilepattern; an empty one makes every call share the function root.
func NewKeyDeriver(sig Signature, root string, filepattern *string, delimiter string) (KeyDeriver, error) {
	if err := sig.Validate(); err != nil {
		return nil, err
	}
	if sig.Name == "" {
		return nil, &ConfigError{Field: "Signature.Name", Message: "cannot be empty"}
	}

	pattern := DefaultFilepattern(sig, delimiter)
	if filepattern != nil {
		pattern = *filepattern
	}

	d := &defaultKeyDeriver{
		sig:     sig,
		base:    append(append([]string{root}, sig.NamespaceSegments()...), sig.Name),
		pattern: pattern,
	}

	if pattern != "" {
		tmpl, err := parseTemplate(pattern)
		if err != nil {
			return nil, err
		}
		d.tmpl = tmpl
	}

	return d, nil
}

func (d *defaultKeyDeriver) Derive(args ...any) (Key, Arguments, error) {
	bound, err := d.sig.Bind(args...)
	if err != nil {
		return Key{}, Arguments{}, err
	}

	if d.tmpl == nil {
		return NewKey(d.base...), bound, nil
	}

	formatted, err := d.tmpl.execute(bound)
	if err != nil {
		return Key{}, Arguments{}, err
	}

	segment, err := boundSegment(formatted)
	if err != nil {
		return Key{}, Arguments{}, &FormatError{Pattern: d.pattern, Message: err.Error()}
	}

	segments := make([]string, 0, len(d.base)+1)
	segments = append(segments, d.base...)
	segments = append(segments, segment)
	return Key{segments: segments}, bound, nil
}

func (d *defaultKeyDeriver) FunctionRoot() Key {
	return NewKey(d.base...)
}

func (d *defaultKeyDeriver) Pattern() string {
	return d.pattern
}

// boundSegment keeps every slash separated component of a formatted pattern
// within maxSegmentLength by replacing long components with their hash.
// Empty, "." and ".." components are rejected: they would collapse the key
// onto the function root or move it outside.
func boundSegment(formatted string) (string, error) {
	parts := strings.Split(formatted, "/")
	for i, part := range parts {
		switch part {
		case "":
			return "", fmt.Errorf("formatted key %q has an empty path component", formatted)
		case ".", "..":
			return "", fmt.Errorf("formatted key %q has a %q path component", formatted, part)
		}
		if len(part) > maxSegmentLength {
			parts[i] = fmt.Sprintf("h%016x", xxhash.Sum64String(part))
		}
	}
	return filepath.FromSlash(strings.Join(parts, "/")), nil
}
