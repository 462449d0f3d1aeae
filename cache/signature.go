package cache

import (
	"fmt"
	"strings"
	"unicode"
)

// ParamKind mirrors the ways an argument can be supplied to a parameter.
type ParamKind int

const (
	// PositionalOrKeyword parameters accept a positional value or a keyword.
	PositionalOrKeyword ParamKind = iota
	// PositionalOnly parameters can only be filled positionally.
	PositionalOnly
	// VarPositional collects surplus positional values as []any.
	VarPositional
	// KeywordOnly parameters can only be filled by keyword.
	KeywordOnly
	// VarKeyword collects surplus keywords as map[string]any.
	VarKeyword
)

func (k ParamKind) String() string {
	switch k {
	case PositionalOrKeyword:
		return "positional-or-keyword"
	case PositionalOnly:
		return "positional-only"
	case VarPositional:
		return "var-positional"
	case KeywordOnly:
		return "keyword-only"
	case VarKeyword:
		return "var-keyword"
	default:
		return fmt.Sprintf("ParamKind(%d)", int(k))
	}
}

// rank orders kinds the way they must appear in a parameter list.
func (k ParamKind) rank() int {
	switch k {
	case PositionalOnly:
		return 0
	case PositionalOrKeyword:
		return 1
	case VarPositional:
		return 2
	case KeywordOnly:
		return 3
	default:
		return 4
	}
}

// Param describes one declared parameter of a cached function.
type Param struct {
	Name       string
	Kind       ParamKind
	Default    any
	HasDefault bool
}

// Arg declares a required positional-or-keyword parameter.
func Arg(name string) Param {
	return Param{Name: name}
}

// ArgDefault declares a positional-or-keyword parameter with a default.
func ArgDefault(name string, def any) Param {
	return Param{Name: name, Default: def, HasDefault: true}
}

// PosOnly declares a required positional-only parameter.
func PosOnly(name string) Param {
	return Param{Name: name, Kind: PositionalOnly}
}

// KwOnly declares a required keyword-only parameter.
func KwOnly(name string) Param {
	return Param{Name: name, Kind: KeywordOnly}
}

// KwOnlyDefault declares a keyword-only parameter with a default.
func KwOnlyDefault(name string, def any) Param {
	return Param{Name: name, Kind: KeywordOnly, Default: def, HasDefault: true}
}

// VarArgs declares a parameter collecting surplus positional arguments.
func VarArgs(name string) Param {
	return Param{Name: name, Kind: VarPositional}
}

// VarKwargs declares a parameter collecting surplus keyword arguments.
func VarKwargs(name string) Param {
	return Param{Name: name, Kind: VarKeyword}
}

// KwArg is a keyword argument passed in a call's variadic argument list.
type KwArg struct {
	Name  string
	Value any
}

// Kw builds a keyword argument. Keyword arguments must follow all
// positional ones.
func Kw(name string, value any) KwArg {
	return KwArg{Name: name, Value: value}
}

// Signature is the explicit call signature of a cached function together
// with the identity used to lay out its keys.
type Signature struct {
	// Namespace is the slash separated location the function belongs to,
	// for example "banks/starling".
	Namespace string
	// Name is the function name.
	Name string
	// Params are the declared parameters in declaration order.
	Params []Param
}

// NewSignature returns a Signature with the given parameters and no identity.
func NewSignature(params ...Param) Signature {
	return Signature{Params: params}
}

// Named returns a copy of s with the given identity.
func (s Signature) Named(namespace, name string) Signature {
	s.Namespace = namespace
	s.Name = name
	return s
}

// Qualified returns namespace and name joined by a slash.
func (s Signature) Qualified() string {
	if s.Namespace == "" {
		return s.Name
	}
	return strings.TrimSuffix(s.Namespace, "/") + "/" + s.Name
}

// NamespaceSegments splits the namespace on '/', dropping empty segments.
func (s Signature) NamespaceSegments() []string {
	var segments []string
	for _, part := range strings.Split(s.Namespace, "/") {
		if part != "" {
			segments = append(segments, part)
		}
	}
	return segments
}

// Validate checks parameter names and ordering.
func (s Signature) Validate() error {
	seen := make(map[string]bool, len(s.Params))
	lastRank := -1
	sawDefault := false
	sawVar := map[ParamKind]bool{}

	for i, p := range s.Params {
		field := fmt.Sprintf("Params[%d]", i)

		if !isIdentifier(p.Name) {
			return &ConfigError{Field: field, Message: fmt.Sprintf("invalid parameter name %q", p.Name)}
		}
		if seen[p.Name] {
			return &ConfigError{Field: field, Message: fmt.Sprintf("duplicate parameter name %q", p.Name)}
		}
		seen[p.Name] = true

		if p.Kind < PositionalOrKeyword || p.Kind > VarKeyword {
			return &ConfigError{Field: field, Message: "unknown parameter kind"}
		}

		rank := p.Kind.rank()
		if rank < lastRank {
			return &ConfigError{Field: field, Message: fmt.Sprintf("%s parameter %q cannot follow %s parameters", p.Kind, p.Name, s.Params[i-1].Kind)}
		}
		lastRank = rank

		switch p.Kind {
		case VarPositional, VarKeyword:
			if sawVar[p.Kind] {
				return &ConfigError{Field: field, Message: fmt.Sprintf("more than one %s parameter", p.Kind)}
			}
			sawVar[p.Kind] = true
			if p.HasDefault {
				return &ConfigError{Field: field, Message: fmt.Sprintf("%s parameter %q cannot have a default", p.Kind, p.Name)}
			}
		case PositionalOnly, PositionalOrKeyword:
			if p.HasDefault {
				sawDefault = true
			} else if sawDefault {
				return &ConfigError{Field: field, Message: fmt.Sprintf("parameter %q without a default follows a parameter with a default", p.Name)}
			}
		}
	}

	return nil
}

func (s Signature) param(name string) (Param, bool) {
	for _, p := range s.Params {
		if p.Name == name {
			return p, true
		}
	}
	return Param{}, false
}

func (s Signature) paramOfKind(kind ParamKind) (Param, bool) {
	for _, p := range s.Params {
		if p.Kind == kind {
			return p, true
		}
	}
	return Param{}, false
}

func isIdentifier(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		if r == '_' || unicode.IsLetter(r) || (i > 0 && unicode.IsDigit(r)) {
			continue
		}
		return false
	}
	return true
}
