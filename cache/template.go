package cache

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// KeyFormatter lets a value control how it is rendered by a filepattern
// field such as "{date:%Y-%m}". spec is the text after the colon.
type KeyFormatter interface {
	FormatKey(spec string) (string, error)
}

// template is a parsed filepattern. Supported syntax:
//
//	literal text, "{{" and "}}" for literal braces
//	{name}  {name.Field}  {name[0]}  {name[key]}
//	{name!s}  {name!r}  {name:spec}
type template struct {
	raw   string
	parts []templatePart
}

type templatePart struct {
	literal string
	field   *fieldRef
}

type fieldRef struct {
	raw        string
	name       string
	accessors  []accessor
	conversion byte
	spec       string
}

type accessor struct {
	name  string
	index bool
}

func parseTemplate(raw string) (*template, error) {
	t := &template{raw: raw}
	var lit strings.Builder

	flush := func() {
		if lit.Len() > 0 {
			t.parts = append(t.parts, templatePart{literal: lit.String()})
			lit.Reset()
		}
	}

	for i := 0; i < len(raw); i++ {
		c := raw[i]
		switch c {
		case '{':
			if i+1 < len(raw) && raw[i+1] == '{' {
				lit.WriteByte('{')
				i++
				continue
			}
			end := strings.IndexAny(raw[i+1:], "{}")
			if end < 0 || raw[i+1+end] == '{' {
				if end >= 0 {
					return nil, &FormatError{Pattern: raw, Message: "nested replacement fields are not supported"}
				}
				return nil, &FormatError{Pattern: raw, Message: "unmatched '{'"}
			}
			body := raw[i+1 : i+1+end]
			field, err := parseField(raw, body)
			if err != nil {
				return nil, err
			}
			flush()
			t.parts = append(t.parts, templatePart{field: field})
			i += end + 1
		case '}':
			if i+1 < len(raw) && raw[i+1] == '}' {
				lit.WriteByte('}')
				i++
				continue
			}
			return nil, &FormatError{Pattern: raw, Message: "single '}' encountered"}
		default:
			lit.WriteByte(c)
		}
	}
	flush()

	return t, nil
}

func parseField(pattern, body string) (*fieldRef, error) {
	f := &fieldRef{raw: body}

	// The field name ends at the first '!' or ':' outside an index.
	end := len(body)
	depth := 0
	for i := 0; i < len(body); i++ {
		switch body[i] {
		case '[':
			depth++
		case ']':
			depth--
		case '!', ':':
			if depth == 0 {
				end = i
				i = len(body)
			}
		}
	}
	name, rest := body[:end], body[end:]

	if strings.HasPrefix(rest, "!") {
		if len(rest) < 2 || (rest[1] != 's' && rest[1] != 'r') || (len(rest) > 2 && rest[2] != ':') {
			return nil, &FormatError{Pattern: pattern, Field: body, Message: "conversion must be !s or !r"}
		}
		f.conversion = rest[1]
		rest = rest[2:]
	}
	if strings.HasPrefix(rest, ":") {
		f.spec = rest[1:]
	}

	root := name
	if i := strings.IndexAny(name, ".["); i >= 0 {
		root = name[:i]
	}
	if root == "" || !isIdentifier(root) {
		if _, err := strconv.Atoi(root); err == nil || root == "" {
			return nil, &FormatError{Pattern: pattern, Field: body, Message: "positional fields are not supported, use parameter names"}
		}
		return nil, &FormatError{Pattern: pattern, Field: body, Message: "invalid field name"}
	}
	f.name = root

	for rem := name[len(root):]; rem != ""; {
		switch rem[0] {
		case '.':
			rem = rem[1:]
			j := strings.IndexAny(rem, ".[")
			if j < 0 {
				j = len(rem)
			}
			if j == 0 {
				return nil, &FormatError{Pattern: pattern, Field: body, Message: "empty attribute"}
			}
			f.accessors = append(f.accessors, accessor{name: rem[:j]})
			rem = rem[j:]
		case '[':
			j := strings.IndexByte(rem, ']')
			if j < 0 {
				return nil, &FormatError{Pattern: pattern, Field: body, Message: "missing ']'"}
			}
			if j == 1 {
				return nil, &FormatError{Pattern: pattern, Field: body, Message: "empty index"}
			}
			f.accessors = append(f.accessors, accessor{name: rem[1:j], index: true})
			rem = rem[j+1:]
		default:
			return nil, &FormatError{Pattern: pattern, Field: body, Message: "only '.' or '[' may follow ']'"}
		}
	}

	return f, nil
}

// execute renders the template with bound argument values.
func (t *template) execute(args Arguments) (string, error) {
	var b strings.Builder
	for _, part := range t.parts {
		if part.field == nil {
			b.WriteString(part.literal)
			continue
		}
		s, err := t.render(part.field, args)
		if err != nil {
			return "", err
		}
		b.WriteString(s)
	}
	return b.String(), nil
}

func (t *template) render(f *fieldRef, args Arguments) (string, error) {
	v, ok := args.Get(f.name)
	if !ok {
		return "", &FormatError{Pattern: t.raw, Field: f.raw, Message: fmt.Sprintf("unknown field %q", f.name)}
	}

	for _, acc := range f.accessors {
		var err error
		if acc.index {
			v, err = indexValue(v, acc.name)
		} else {
			v, err = attrValue(v, acc.name)
		}
		if err != nil {
			return "", &FormatError{Pattern: t.raw, Field: f.raw, Message: err.Error()}
		}
	}

	switch f.conversion {
	case 's':
		v = valueString(v)
	case 'r':
		if s, ok := v.(string); ok {
			v = strconv.Quote(s)
		} else {
			v = fmt.Sprintf("%#v", v)
		}
	}

	s, err := formatWithSpec(v, f.spec)
	if err != nil {
		return "", &FormatError{Pattern: t.raw, Field: f.raw, Message: "cannot apply format spec " + strconv.Quote(f.spec), Err: err}
	}
	return s, nil
}

// attrValue resolves a zero-argument method, exported struct field or string
// map key. A lowercase name also matches its capitalized form, so "{d.year}"
// reaches time.Time.Year.
func attrValue(v any, name string) (any, error) {
	names := []string{name}
	if r, size := utf8.DecodeRuneInString(name); unicode.IsLower(r) {
		names = append(names, string(unicode.ToUpper(r))+name[size:])
	}

	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return nil, fmt.Errorf("nil has no attribute %q", name)
	}

	for _, n := range names {
		if out, ok := callGetter(rv, n); ok {
			return out, nil
		}
	}

	for rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, fmt.Errorf("nil has no attribute %q", name)
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Struct:
		for _, n := range names {
			sf, ok := rv.Type().FieldByName(n)
			if ok && sf.IsExported() {
				return rv.FieldByIndex(sf.Index).Interface(), nil
			}
		}
		for _, n := range names {
			if out, ok := callGetter(rv, n); ok {
				return out, nil
			}
		}
	case reflect.Map:
		if rv.Type().Key().Kind() == reflect.String {
			mv := rv.MapIndex(reflect.ValueOf(name).Convert(rv.Type().Key()))
			if mv.IsValid() {
				return mv.Interface(), nil
			}
			return nil, fmt.Errorf("missing key %q", name)
		}
	}

	return nil, fmt.Errorf("%s has no attribute %q", rv.Type(), name)
}

func callGetter(rv reflect.Value, name string) (any, bool) {
	if (rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface) && rv.IsNil() {
		return nil, false
	}
	m := rv.MethodByName(name)
	if !m.IsValid() {
		return nil, false
	}
	mt := m.Type()
	if mt.NumIn() != 0 || mt.NumOut() != 1 {
		return nil, false
	}
	return m.Call(nil)[0].Interface(), true
}

// indexValue resolves "[n]" on sequences and "[key]" on maps. Digit-only
// indexes are integers, everything else is a string key.
func indexValue(v any, index string) (any, error) {
	rv := reflect.ValueOf(v)
	for rv.IsValid() && (rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface) {
		if rv.IsNil() {
			break
		}
		rv = rv.Elem()
	}
	if !rv.IsValid() || ((rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface) && rv.IsNil()) {
		return nil, fmt.Errorf("nil is not indexable")
	}

	n, numErr := strconv.Atoi(index)
	isInt := numErr == nil && strings.Trim(index, "0123456789") == ""

	switch rv.Kind() {
	case reflect.String:
		if !isInt {
			return nil, fmt.Errorf("%s indices must be integers", rv.Type())
		}
		runes := []rune(rv.String())
		if n >= len(runes) {
			return nil, fmt.Errorf("index %d out of range", n)
		}
		return string(runes[n]), nil
	case reflect.Slice, reflect.Array:
		if !isInt {
			return nil, fmt.Errorf("%s indices must be integers", rv.Type())
		}
		if n >= rv.Len() {
			return nil, fmt.Errorf("index %d out of range", n)
		}
		return rv.Index(n).Interface(), nil
	case reflect.Map:
		kt := rv.Type().Key()
		var key reflect.Value
		switch {
		case kt.Kind() == reflect.String:
			key = reflect.ValueOf(index).Convert(kt)
		case isInt && isIntKind(kt.Kind()):
			key = reflect.ValueOf(n).Convert(kt)
		default:
			return nil, fmt.Errorf("cannot index %s with %q", rv.Type(), index)
		}
		mv := rv.MapIndex(key)
		if !mv.IsValid() {
			return nil, fmt.Errorf("missing key %q", index)
		}
		return mv.Interface(), nil
	}

	return nil, fmt.Errorf("%s is not indexable", rv.Type())
}

func isIntKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return true
	}
	return false
}
