package cache

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// valueString renders a bound argument the way it appears in a key when the
// filepattern gives no format spec. Output is deterministic for equal values:
// maps are rendered with sorted keys and structs by exported field.
func valueString(v any) string {
	if v == nil {
		return "nil"
	}

	rv := reflect.ValueOf(v)
	rt := rv.Type()

	// Nil pointers must not reach String() or Error().
	if rt.Kind() == reflect.Ptr && rv.IsNil() {
		return "nil"
	}

	switch s := v.(type) {
	case string:
		return s
	case fmt.Stringer:
		return s.String()
	case error:
		return s.Error()
	}

	switch rt.Kind() {
	case reflect.Func:
		return fmt.Sprintf("func:%p", v)
	case reflect.Chan:
		return fmt.Sprintf("chan:%p", v)
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return "nil"
		}
		return valueString(rv.Elem().Interface())
	case reflect.Slice:
		if rv.IsNil() {
			return "[]"
		}
		return sequenceString(rv)
	case reflect.Array:
		return sequenceString(rv)
	case reflect.Map:
		return mapString(rv)
	case reflect.Struct:
		return structString(rv, rt)
	}

	return fmt.Sprintf("%v", v)
}

func sequenceString(rv reflect.Value) string {
	parts := make([]string, rv.Len())
	for i := range parts {
		parts[i] = elemString(rv.Index(i))
	}
	return "[" + strings.Join(parts, ",") + "]"
}

func mapString(rv reflect.Value) string {
	pairs := make([]string, 0, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		pairs = append(pairs, elemString(iter.Key())+"="+elemString(iter.Value()))
	}
	sort.Strings(pairs)
	return "{" + strings.Join(pairs, ",") + "}"
}

func structString(rv reflect.Value, rt reflect.Type) string {
	parts := make([]string, 0, rv.NumField())
	for i := 0; i < rv.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}
		parts = append(parts, field.Name+":"+elemString(rv.Field(i)))
	}
	return "{" + strings.Join(parts, ",") + "}"
}

func elemString(rv reflect.Value) string {
	if !rv.IsValid() || !rv.CanInterface() {
		return "nil"
	}
	return valueString(rv.Interface())
}
