package object

import (
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/cloudcmds/framevm/errz"
)

// formatSpec is a parsed format specification:
//
//	[[fill]align][sign][0][width][,][.precision][type]
type formatSpec struct {
	fill      rune
	align     byte
	sign      byte
	width     int
	comma     bool
	precision int
	typ       byte
}

func parseFormatSpec(spec string) (formatSpec, error) {
	fs := formatSpec{fill: ' ', precision: -1}
	s := spec
	isAlign := func(b byte) bool { return b == '<' || b == '>' || b == '^' || b == '=' }
	if r, size := utf8.DecodeRuneInString(s); size > 0 && len(s) > size && isAlign(s[size]) {
		fs.fill, fs.align = r, s[size]
		s = s[size+1:]
	} else if len(s) > 0 && isAlign(s[0]) {
		fs.align = s[0]
		s = s[1:]
	}
	if len(s) > 0 && (s[0] == '+' || s[0] == '-' || s[0] == ' ') {
		fs.sign = s[0]
		s = s[1:]
	}
	if len(s) > 0 && s[0] == '0' {
		if fs.align == 0 {
			fs.fill, fs.align = '0', '='
		}
		s = s[1:]
	}
	n := 0
	for n < len(s) && s[n] >= '0' && s[n] <= '9' {
		n++
	}
	if n > 0 {
		fs.width, _ = strconv.Atoi(s[:n])
		s = s[n:]
	}
	if len(s) > 0 && s[0] == ',' {
		fs.comma = true
		s = s[1:]
	}
	if len(s) > 0 && s[0] == '.' {
		n = 1
		for n < len(s) && s[n] >= '0' && s[n] <= '9' {
			n++
		}
		if n == 1 {
			return fs, errz.ValueErrorf("format specifier missing precision")
		}
		fs.precision, _ = strconv.Atoi(s[1:n])
		s = s[n:]
	}
	if len(s) > 1 {
		return fs, errz.ValueErrorf("invalid format specifier '%s'", spec)
	}
	if len(s) == 1 {
		fs.typ = s[0]
	}
	return fs, nil
}

// Format renders an object according to a format specification, as used by
// FORMAT_VALUE. An empty specification yields the informal string form.
func Format(obj Object, spec string) (string, error) {
	if spec == "" {
		return Str(obj), nil
	}
	fs, err := parseFormatSpec(spec)
	if err != nil {
		return "", err
	}
	switch obj := obj.(type) {
	case *String:
		return formatString(obj.value, fs)
	case *Int:
		return formatInt(obj.value, fs)
	case *Bool:
		return formatInt(obj.asInt(), fs)
	case *Float:
		return formatFloatSpec(obj.value, fs)
	}
	return "", errz.TypeErrorf("unsupported format string passed to %s.__format__", obj.Type())
}

func formatString(s string, fs formatSpec) (string, error) {
	if fs.typ != 0 && fs.typ != 's' {
		return "", errz.ValueErrorf("unknown format code '%c' for object of type 'str'", fs.typ)
	}
	if fs.sign != 0 {
		return "", errz.ValueErrorf("sign not allowed in string format specifier")
	}
	if fs.align == '=' {
		return "", errz.ValueErrorf("'=' alignment not allowed in string format specifier")
	}
	if fs.precision >= 0 && utf8.RuneCountInString(s) > fs.precision {
		s = string([]rune(s)[:fs.precision])
	}
	align := fs.align
	if align == 0 {
		align = '<'
	}
	return pad("", s, fs.fill, align, fs.width), nil
}

func formatInt(v int64, fs formatSpec) (string, error) {
	var digits string
	abs := uint64(v)
	if v < 0 {
		abs = uint64(-v)
	}
	switch fs.typ {
	case 0, 'd', 'n':
		digits = strconv.FormatUint(abs, 10)
		if fs.comma {
			digits = groupThousands(digits)
		}
	case 'x':
		digits = strconv.FormatUint(abs, 16)
	case 'X':
		digits = strings.ToUpper(strconv.FormatUint(abs, 16))
	case 'o':
		digits = strconv.FormatUint(abs, 8)
	case 'b':
		digits = strconv.FormatUint(abs, 2)
	case 'e', 'E', 'f', 'F', 'g', 'G', '%':
		return formatFloatSpec(float64(v), fs)
	default:
		return "", errz.ValueErrorf("unknown format code '%c' for object of type 'int'", fs.typ)
	}
	if fs.precision >= 0 {
		return "", errz.ValueErrorf("precision not allowed in integer format specifier")
	}
	return pad(signPrefix(v < 0, fs.sign), digits, fs.fill, numericAlign(fs), fs.width), nil
}

func formatFloatSpec(v float64, fs formatSpec) (string, error) {
	neg := math.Signbit(v) && !math.IsNaN(v)
	abs := math.Abs(v)
	prec := fs.precision
	var digits string
	switch fs.typ {
	case 'f', 'F':
		if prec < 0 {
			prec = 6
		}
		digits = strconv.FormatFloat(abs, 'f', prec, 64)
	case 'e', 'E':
		if prec < 0 {
			prec = 6
		}
		digits = strconv.FormatFloat(abs, byte(fs.typ), prec, 64)
	case 'g', 'G':
		if prec < 0 {
			prec = 6
		}
		if prec == 0 {
			prec = 1
		}
		digits = strconv.FormatFloat(abs, byte(fs.typ), prec, 64)
	case '%':
		if prec < 0 {
			prec = 6
		}
		digits = strconv.FormatFloat(abs*100, 'f', prec, 64) + "%"
	case 0, 'n':
		if prec < 0 {
			digits = formatFloat(abs)
		} else {
			digits = strconv.FormatFloat(abs, 'g', max(prec, 1), 64)
		}
	default:
		return "", errz.ValueErrorf("unknown format code '%c' for object of type 'float'", fs.typ)
	}
	switch {
	case math.IsInf(v, 0):
		digits = "inf"
	case math.IsNaN(v):
		digits = "nan"
	}
	if fs.typ == 'F' || fs.typ == 'E' || fs.typ == 'G' {
		digits = strings.ToUpper(digits)
	}
	if fs.comma {
		intPart, rest := digits, ""
		if i := strings.IndexAny(digits, ".e%"); i >= 0 {
			intPart, rest = digits[:i], digits[i:]
		}
		digits = groupThousands(intPart) + rest
	}
	return pad(signPrefix(neg, fs.sign), digits, fs.fill, numericAlign(fs), fs.width), nil
}

func numericAlign(fs formatSpec) byte {
	if fs.align == 0 {
		return '>'
	}
	return fs.align
}

func signPrefix(negative bool, sign byte) string {
	switch {
	case negative:
		return "-"
	case sign == '+':
		return "+"
	case sign == ' ':
		return " "
	}
	return ""
}

// pad applies fill and alignment. With '=' alignment the fill goes between
// the sign and the digits.
func pad(sign, body string, fill rune, align byte, width int) string {
	n := width - utf8.RuneCountInString(sign) - utf8.RuneCountInString(body)
	if n <= 0 {
		return sign + body
	}
	padding := strings.Repeat(string(fill), n)
	switch align {
	case '<':
		return sign + body + padding
	case '^':
		left := strings.Repeat(string(fill), n/2)
		return left + sign + body + padding[len(string(fill))*(n/2):]
	case '=':
		return sign + padding + body
	default:
		return padding + sign + body
	}
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
