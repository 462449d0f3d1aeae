package autocache

import (
	"reflect"
	"runtime"
	"strings"
	"unicode"
)

// functionIdentity derives a namespace and name from fn's runtime symbol.
// "github.com/acme/banks.(*Client).Fetch-fm" becomes namespace
// "github.com/acme/banks" and name "Client_Fetch".
func functionIdentity(fn any) (namespace, name string) {
	rv := reflect.ValueOf(fn)
	if rv.Kind() != reflect.Func || rv.IsNil() {
		return "", "anonymous"
	}

	rf := runtime.FuncForPC(rv.Pointer())
	if rf == nil {
		return "", "anonymous"
	}
	return splitSymbol(rf.Name())
}

// splitSymbol separates an import path from the symbol that follows it.
func splitSymbol(symbol string) (namespace, name string) {
	symbol = stripTypeArgs(symbol)
	symbol = strings.TrimSuffix(symbol, "-fm")

	dir, rest := "", symbol
	if i := strings.LastIndex(symbol, "/"); i >= 0 {
		dir, rest = symbol[:i+1], symbol[i+1:]
	}

	pkg, fn := rest, ""
	if i := strings.Index(rest, "."); i >= 0 {
		pkg, fn = rest[:i], rest[i+1:]
	}

	name = cleanSegment(fn)
	if name == "" {
		name = "anonymous"
	}
	return dir + pkg, name
}

// stripTypeArgs drops instantiation lists such as "[...]" or "[int]".
func stripTypeArgs(s string) string {
	var b strings.Builder
	depth := 0
	for _, r := range s {
		switch {
		case r == '[':
			depth++
		case r == ']' && depth > 0:
			depth--
		case depth == 0:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// cleanSegment keeps letters and digits and collapses every run of other
// characters into a single underscore, so receiver markers like "(*T)" and
// closure suffixes like ".func1" cannot produce odd path segments.
func cleanSegment(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	lastUnderscore := false
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore && b.Len() > 0 {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}

	return strings.Trim(b.String(), "_")
}
