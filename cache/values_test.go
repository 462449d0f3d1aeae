package cache

import (
	"errors"
	"strings"
	"testing"
	"time"
)

type user struct {
	ID       int
	Name     string
	password string
}

type stringerValue struct{ v string }

func (s stringerValue) String() string { return "S(" + s.v + ")" }

func TestValueString_BasicTypes(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{name: "int", in: 42, want: "42"},
		{name: "negative int", in: -7, want: "-7"},
		{name: "string", in: "hello", want: "hello"},
		{name: "bool", in: true, want: "true"},
		{name: "float", in: 3.14, want: "3.14"},
		{name: "uint8", in: uint8(9), want: "9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := valueString(tt.in); got != tt.want {
				t.Errorf("valueString() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValueString_NilValues(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{name: "nil interface", in: nil, want: "nil"},
		{name: "nil pointer", in: (*int)(nil), want: "nil"},
		{name: "nil stringer pointer", in: (*time.Time)(nil), want: "nil"},
		{name: "nil slice", in: ([]int)(nil), want: "[]"},
		{name: "nil map", in: (map[string]int)(nil), want: "{}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := valueString(tt.in); got != tt.want {
				t.Errorf("valueString() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValueString_Composite(t *testing.T) {
	value := 42

	tests := []struct {
		name string
		in   any
		want string
	}{
		{name: "int slice", in: []int{1, 2, 3}, want: "[1,2,3]"},
		{name: "nested slice", in: [][]int{{1, 2}, {3}}, want: "[[1,2],[3]]"},
		{name: "array", in: [2]string{"a", "b"}, want: "[a,b]"},
		{name: "any slice with nil", in: []any{1, nil}, want: "[1,nil]"},
		{name: "map sorted", in: map[string]int{"b": 2, "a": 1}, want: "{a=1,b=2}"},
		{name: "struct exported only", in: user{ID: 1, Name: "alice", password: "x"}, want: "{ID:1,Name:alice}"},
		{name: "pointer dereferenced", in: &value, want: "42"},
		{name: "stringer", in: stringerValue{"x"}, want: "S(x)"},
		{name: "error", in: errors.New("boom"), want: "boom"},
		{name: "time", in: time.Date(2018, 11, 22, 0, 0, 0, 0, time.UTC), want: "2018-11-22 00:00:00 +0000 UTC"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := valueString(tt.in); got != tt.want {
				t.Errorf("valueString() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValueString_MapDeterminism(t *testing.T) {
	m := map[int]string{}
	for i := 0; i < 50; i++ {
		m[i] = strings.Repeat("x", i%3)
	}

	first := valueString(m)
	for i := 0; i < 10; i++ {
		if got := valueString(m); got != first {
			t.Fatalf("map rendering is not stable: %v != %v", got, first)
		}
	}
}

func TestValueString_Functions(t *testing.T) {
	fn := func() {}

	key1 := valueString(fn)
	key2 := valueString(fn)

	if key1 != key2 {
		t.Errorf("function rendering should be stable: %v != %v", key1, key2)
	}
	if !strings.HasPrefix(key1, "func:") {
		t.Errorf("function rendering should use func: prefix, got: %v", key1)
	}
}
