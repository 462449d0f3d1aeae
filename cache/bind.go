package cache

import (
	"fmt"
	"strings"
)

// Arguments is the result of binding call arguments to a Signature with
// defaults applied. Values are kept in declaration order.
type Arguments struct {
	names  []string
	values map[string]any
}

// Get returns the bound value for name.
func (a Arguments) Get(name string) (any, bool) {
	v, ok := a.values[name]
	return v, ok
}

// Value returns the bound value for name, or nil.
func (a Arguments) Value(name string) any {
	return a.values[name]
}

// Names returns the parameter names in declaration order.
func (a Arguments) Names() []string {
	return append([]string(nil), a.names...)
}

// Len returns the number of bound parameters.
func (a Arguments) Len() int {
	return len(a.names)
}

// Map returns a copy of the bound values keyed by parameter name.
func (a Arguments) Map() map[string]any {
	out := make(map[string]any, len(a.values))
	for k, v := range a.values {
		out[k] = v
	}
	return out
}

// ArgValue returns the bound value for name converted to V. The zero value is
// returned when name is unbound or holds a different type.
func ArgValue[V any](a Arguments, name string) V {
	v, _ := a.values[name].(V)
	return v
}

// Bind matches call arguments against the signature. Keyword arguments are
// given as KwArg values and must follow the positional ones. Defaults are
// applied for omitted parameters.
func (s Signature) Bind(args ...any) (Arguments, error) {
	var (
		positional []any
		keywords   []KwArg
	)
	for _, arg := range args {
		switch kw := arg.(type) {
		case KwArg:
			keywords = append(keywords, kw)
		case *KwArg:
			keywords = append(keywords, *kw)
		default:
			if len(keywords) > 0 {
				return Arguments{}, s.bindError("positional argument follows keyword argument")
			}
			positional = append(positional, arg)
		}
	}

	values := make(map[string]any, len(s.Params))

	i := 0
	for _, p := range s.Params {
		switch p.Kind {
		case PositionalOnly, PositionalOrKeyword:
			if i < len(positional) {
				values[p.Name] = positional[i]
				i++
			}
		case VarPositional:
			rest := make([]any, 0, len(positional)-i)
			values[p.Name] = append(rest, positional[i:]...)
			i = len(positional)
		}
	}
	if i < len(positional) {
		return Arguments{}, s.bindError(fmt.Sprintf("takes %d positional arguments but %d were given", s.positionalCount(), len(positional)))
	}

	varKw, hasVarKw := s.paramOfKind(VarKeyword)
	extra := map[string]any{}
	seenKw := make(map[string]bool, len(keywords))

	for _, kw := range keywords {
		if seenKw[kw.Name] {
			return Arguments{}, s.bindError(fmt.Sprintf("keyword argument repeated: %s", kw.Name))
		}
		seenKw[kw.Name] = true

		p, ok := s.param(kw.Name)
		if !ok || p.Kind == VarPositional || p.Kind == VarKeyword || p.Kind == PositionalOnly {
			if hasVarKw {
				extra[kw.Name] = kw.Value
				continue
			}
			if ok && p.Kind == PositionalOnly {
				return Arguments{}, s.bindError(fmt.Sprintf("positional-only argument passed as keyword: %s", kw.Name))
			}
			return Arguments{}, s.bindError(fmt.Sprintf("unexpected keyword argument %q", kw.Name))
		}

		if _, set := values[p.Name]; set {
			return Arguments{}, s.bindError(fmt.Sprintf("multiple values for argument %q", p.Name))
		}
		values[p.Name] = kw.Value
	}
	if hasVarKw {
		values[varKw.Name] = extra
	}

	var missing []string
	names := make([]string, 0, len(s.Params))
	for _, p := range s.Params {
		names = append(names, p.Name)
		if _, set := values[p.Name]; set {
			continue
		}
		switch {
		case p.Kind == VarPositional:
			values[p.Name] = []any{}
		case p.HasDefault:
			values[p.Name] = p.Default
		default:
			missing = append(missing, p.Name)
		}
	}
	if len(missing) > 0 {
		return Arguments{}, s.bindError(fmt.Sprintf("missing required arguments: %s", strings.Join(missing, ", ")))
	}

	return Arguments{names: names, values: values}, nil
}

func (s Signature) positionalCount() int {
	n := 0
	for _, p := range s.Params {
		if p.Kind == PositionalOnly || p.Kind == PositionalOrKeyword {
			n++
		}
	}
	return n
}

func (s Signature) bindError(msg string) *BindingError {
	return &BindingError{Function: s.Qualified(), Message: msg}
}
