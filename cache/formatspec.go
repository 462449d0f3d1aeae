package cache

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ncruces/go-strftime"
)

// formatSpec is the parsed form of
// [[fill]align][sign][#][0][width][grouping][.precision][type].
type formatSpec struct {
	fill      rune
	align     rune
	sign      rune
	alt       bool
	zero      bool
	width     int
	grouping  rune
	precision int
	verb      rune
}

const formatVerbs = "bcdeEfFgGnosxX%"

// maxSpecNumber bounds widths and precisions. Anything wider than a path
// component is hashed anyway.
const maxSpecNumber = 1024

func parseFormatSpec(spec string) (formatSpec, error) {
	fs := formatSpec{precision: -1}
	r := []rune(spec)
	i := 0

	isAlign := func(c rune) bool { return strings.ContainsRune("<>=^", c) }

	switch {
	case len(r) >= 2 && isAlign(r[1]):
		fs.fill, fs.align = r[0], r[1]
		i = 2
	case len(r) >= 1 && isAlign(r[0]):
		fs.align = r[0]
		i = 1
	}

	if i < len(r) && strings.ContainsRune("+- ", r[i]) {
		fs.sign = r[i]
		i++
	}
	if i < len(r) && r[i] == '#' {
		fs.alt = true
		i++
	}
	if i < len(r) && r[i] == '0' {
		fs.zero = true
		i++
	}

	start := i
	for i < len(r) && r[i] >= '0' && r[i] <= '9' {
		i++
	}
	if i > start {
		width, err := specNumber(string(r[start:i]), "width")
		if err != nil {
			return fs, err
		}
		fs.width = width
	}

	if i < len(r) && (r[i] == ',' || r[i] == '_') {
		fs.grouping = r[i]
		i++
	}

	if i < len(r) && r[i] == '.' {
		i++
		start = i
		for i < len(r) && r[i] >= '0' && r[i] <= '9' {
			i++
		}
		if i == start {
			return fs, fmt.Errorf("format specifier missing precision")
		}
		precision, err := specNumber(string(r[start:i]), "precision")
		if err != nil {
			return fs, err
		}
		fs.precision = precision
	}

	if i < len(r) {
		if !strings.ContainsRune(formatVerbs, r[i]) {
			return fs, fmt.Errorf("unknown format code %q", r[i])
		}
		fs.verb = r[i]
		i++
	}

	if i != len(r) {
		return fs, fmt.Errorf("invalid format specifier %q", spec)
	}
	return fs, nil
}

// specNumber parses a width or precision, capped at maxSpecNumber.
func specNumber(digits, what string) (int, error) {
	n, err := strconv.Atoi(digits)
	if err != nil || n > maxSpecNumber {
		return 0, fmt.Errorf("format %s %s exceeds %d", what, digits, maxSpecNumber)
	}
	return n, nil
}

// formatWithSpec applies a field format spec to a value.
func formatWithSpec(v any, spec string) (string, error) {
	if kf, ok := v.(KeyFormatter); ok {
		return kf.FormatKey(spec)
	}
	if spec == "" {
		return valueString(v), nil
	}

	if t, ok := v.(*time.Time); ok && t != nil {
		v = *t
	}
	if t, ok := v.(time.Time); ok {
		if strings.Contains(spec, "%") {
			return strftime.Format(spec, t), nil
		}
		return t.Format(spec), nil
	}

	fs, err := parseFormatSpec(spec)
	if err != nil {
		return "", err
	}

	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return formatString(fs, valueString(v))
	}

	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i := rv.Int()
		if i < 0 {
			return formatInt(fs, true, uint64(-(i + 1))+1)
		}
		return formatInt(fs, false, uint64(i))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return formatInt(fs, false, rv.Uint())
	case reflect.Float32, reflect.Float64:
		return formatFloat(fs, rv.Float())
	case reflect.Bool:
		if fs.verb != 0 && fs.verb != 's' {
			if rv.Bool() {
				return formatInt(fs, false, 1)
			}
			return formatInt(fs, false, 0)
		}
		return formatString(fs, strconv.FormatBool(rv.Bool()))
	case reflect.String:
		return formatString(fs, rv.String())
	}

	return formatString(fs, valueString(v))
}

func formatInt(fs formatSpec, neg bool, mag uint64) (string, error) {
	switch fs.verb {
	case 'e', 'E', 'f', 'F', 'g', 'G', '%':
		f := float64(mag)
		if neg {
			f = -f
		}
		return formatFloat(fs, f)
	case 's':
		return "", fmt.Errorf("unknown format code 's' for integer")
	}

	if fs.precision >= 0 {
		return "", fmt.Errorf("precision not allowed in integer format specifier")
	}

	if fs.verb == 'c' {
		if fs.sign != 0 || fs.alt {
			return "", fmt.Errorf("sign not allowed with integer format specifier 'c'")
		}
		return pad(fs, "", string(rune(mag)), false), nil
	}

	base, prefix, groupSize := 10, "", 3
	switch fs.verb {
	case 'b':
		base, prefix, groupSize = 2, "0b", 4
	case 'o':
		base, prefix, groupSize = 8, "0o", 4
	case 'x':
		base, prefix, groupSize = 16, "0x", 4
	case 'X':
		base, prefix, groupSize = 16, "0X", 4
	}
	if !fs.alt {
		prefix = ""
	}
	if fs.grouping == ',' && base != 10 {
		return "", fmt.Errorf("cannot specify ',' with %q", fs.verb)
	}

	digits := strconv.FormatUint(mag, base)
	if fs.verb == 'X' {
		digits = strings.ToUpper(digits)
	}
	if fs.grouping != 0 {
		digits = groupDigits(digits, fs.grouping, groupSize)
	}

	return pad(fs, signPrefix(fs, neg)+prefix, digits, true), nil
}

func formatFloat(fs formatSpec, f float64) (string, error) {
	switch fs.verb {
	case 'b', 'c', 'd', 'o', 'x', 'X', 's':
		return "", fmt.Errorf("unknown format code %q for float", fs.verb)
	}

	neg := math.Signbit(f) && !math.IsNaN(f)
	f = math.Abs(f)
	upper := fs.verb == 'E' || fs.verb == 'F' || fs.verb == 'G'

	var body string
	switch {
	case math.IsInf(f, 0):
		body = "inf"
	case math.IsNaN(f):
		body = "nan"
	default:
		prec := fs.precision
		switch fs.verb {
		case 'f', 'F':
			body = strconv.FormatFloat(f, 'f', defaultPrecision(prec), 64)
		case 'e', 'E':
			body = strconv.FormatFloat(f, 'e', defaultPrecision(prec), 64)
		case 'g', 'G', 'n':
			p := defaultPrecision(prec)
			if p == 0 {
				p = 1
			}
			body = strconv.FormatFloat(f, 'g', p, 64)
		case '%':
			body = strconv.FormatFloat(f*100, 'f', defaultPrecision(prec), 64) + "%"
		default:
			if prec >= 0 {
				body = strconv.FormatFloat(f, 'g', max(prec, 1), 64)
			} else {
				body = strconv.FormatFloat(f, 'g', -1, 64)
				if !strings.ContainsAny(body, ".e") {
					body += ".0"
				}
			}
		}
	}
	if upper {
		body = strings.ToUpper(body)
	}

	if fs.grouping != 0 && !strings.ContainsAny(body, "en") {
		intPart, frac := body, ""
		if i := strings.IndexAny(body, ".%"); i >= 0 {
			intPart, frac = body[:i], body[i:]
		}
		body = groupDigits(intPart, fs.grouping, 3) + frac
	}

	return pad(fs, signPrefix(fs, neg), body, true), nil
}

func formatString(fs formatSpec, s string) (string, error) {
	if fs.verb != 0 && fs.verb != 's' {
		return "", fmt.Errorf("unknown format code %q for string", fs.verb)
	}
	if fs.sign != 0 {
		return "", fmt.Errorf("sign not allowed in string format specifier")
	}
	if fs.alt {
		return "", fmt.Errorf("alternate form (#) not allowed in string format specifier")
	}
	if fs.align == '=' {
		return "", fmt.Errorf("'=' alignment not allowed in string format specifier")
	}
	if fs.grouping != 0 {
		return "", fmt.Errorf("cannot specify %q with 's'", fs.grouping)
	}

	if fs.precision >= 0 && utf8.RuneCountInString(s) > fs.precision {
		s = string([]rune(s)[:fs.precision])
	}
	return pad(fs, "", s, false), nil
}

func defaultPrecision(p int) int {
	if p < 0 {
		return 6
	}
	return p
}

func signPrefix(fs formatSpec, neg bool) string {
	switch {
	case neg:
		return "-"
	case fs.sign == '+':
		return "+"
	case fs.sign == ' ':
		return " "
	}
	return ""
}

// groupDigits inserts sep every size digits counting from the right.
func groupDigits(digits string, sep rune, size int) string {
	if len(digits) <= size {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % size
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += size {
		if b.Len() > 0 {
			b.WriteRune(sep)
		}
		b.WriteString(digits[i : i+size])
	}
	return b.String()
}

// pad applies width, fill and alignment. prefix holds the sign and base
// prefix so '=' alignment can place padding after it.
func pad(fs formatSpec, prefix, body string, numeric bool) string {
	out := prefix + body
	n := fs.width - utf8.RuneCountInString(out)
	if n <= 0 {
		return out
	}

	fill, align := fs.fill, fs.align
	if fs.zero && fill == 0 {
		fill = '0'
	}
	if fill == 0 {
		fill = ' '
	}
	if align == 0 {
		switch {
		case fs.zero && numeric:
			align = '='
		case numeric:
			align = '>'
		default:
			align = '<'
		}
	}

	switch align {
	case '<':
		return out + strings.Repeat(string(fill), n)
	case '^':
		left := n / 2
		return strings.Repeat(string(fill), left) + out + strings.Repeat(string(fill), n-left)
	case '=':
		return prefix + strings.Repeat(string(fill), n) + body
	default:
		return strings.Repeat(string(fill), n) + out
	}
}
