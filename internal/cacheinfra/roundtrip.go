package cacheinfra

import (
	"errors"
	"math"
	"reflect"
	"time"
)

var errLossyRoundTrip = errors.New("value changes when decoded")

var timeType = reflect.TypeOf(time.Time{})

// sameValue reports whether decoded reproduces original. It follows
// reflect.DeepEqual, but times compare by instant and a nil slice or map
// equals an empty one. NaN equals NaN.
func sameValue(original, decoded reflect.Value) bool {
	if !original.IsValid() || !decoded.IsValid() {
		return original.IsValid() == decoded.IsValid()
	}
	if original.Type() != decoded.Type() {
		return false
	}

	switch original.Kind() {
	case reflect.Bool:
		return original.Bool() == decoded.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return original.Int() == decoded.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return original.Uint() == decoded.Uint()
	case reflect.Float32, reflect.Float64:
		a, b := original.Float(), decoded.Float()
		return a == b || (math.IsNaN(a) && math.IsNaN(b))
	case reflect.Complex64, reflect.Complex128:
		return original.Complex() == decoded.Complex()
	case reflect.String:
		return original.String() == decoded.String()
	case reflect.Pointer:
		if original.IsNil() || decoded.IsNil() {
			return original.IsNil() == decoded.IsNil()
		}
		return sameValue(original.Elem(), decoded.Elem())
	case reflect.Interface:
		if original.IsNil() || decoded.IsNil() {
			return original.IsNil() == decoded.IsNil()
		}
		return sameValue(original.Elem(), decoded.Elem())
	case reflect.Slice, reflect.Array:
		if original.Len() != decoded.Len() {
			return false
		}
		for i := range original.Len() {
			if !sameValue(original.Index(i), decoded.Index(i)) {
				return false
			}
		}
		return true
	case reflect.Map:
		if original.Len() != decoded.Len() {
			return false
		}
		iter := original.MapRange()
		for iter.Next() {
			other := decoded.MapIndex(iter.Key())
			if !other.IsValid() || !sameValue(iter.Value(), other) {
				return false
			}
		}
		return true
	case reflect.Struct:
		if original.Type() == timeType && original.CanInterface() && decoded.CanInterface() {
			return original.Interface().(time.Time).Equal(decoded.Interface().(time.Time))
		}
		for i := range original.NumField() {
			if !sameValue(original.Field(i), decoded.Field(i)) {
				return false
			}
		}
		return true
	}

	// Funcs, channels and unsafe pointers never decode back.
	return false
}

// utcTimes moves every reachable time.Time under v to UTC. v must be settable.
func utcTimes(v reflect.Value) {
	switch v.Kind() {
	case reflect.Struct:
		if v.Type() == timeType {
			if v.CanSet() {
				v.Set(reflect.ValueOf(v.Interface().(time.Time).UTC()))
			}
			return
		}
		for i := range v.NumField() {
			if v.Type().Field(i).IsExported() {
				utcTimes(v.Field(i))
			}
		}
	case reflect.Pointer:
		if !v.IsNil() {
			utcTimes(v.Elem())
		}
	case reflect.Slice, reflect.Array:
		for i := range v.Len() {
			utcTimes(v.Index(i))
		}
	case reflect.Map:
		if v.IsNil() {
			return
		}
		iter := v.MapRange()
		for iter.Next() {
			elem := reflect.New(v.Type().Elem()).Elem()
			elem.Set(iter.Value())
			utcTimes(elem)
			v.SetMapIndex(iter.Key(), elem)
		}
	case reflect.Interface:
		if v.IsNil() || !v.CanSet() {
			return
		}
		elem := reflect.New(v.Elem().Type()).Elem()
		elem.Set(v.Elem())
		utcTimes(elem)
		v.Set(elem)
	}
}
