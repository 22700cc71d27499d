package object

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/cloudcmds/framevm/errz"
	"github.com/cloudcmds/framevm/op"
)

var stringMethods = NewMethodRegistry[*String]("str")

func init() {
	stringMethods.Define("count").
		Doc("Count non-overlapping occurrences of a substring").
		Arg("sub").
		Returns("int").
		Impl(func(s *String, ctx context.Context, args ...Object) (Object, error) {
			sub, err := AsString(args[0])
			if err != nil {
				return nil, err
			}
			return NewInt(int64(strings.Count(s.value, sub))), nil
		})

	stringMethods.Define("endswith").
		Doc("Check if string ends with suffix").
		Arg("suffix").
		Returns("bool").
		Impl(func(s *String, ctx context.Context, args ...Object) (Object, error) {
			suffix, err := AsString(args[0])
			if err != nil {
				return nil, err
			}
			return NewBool(strings.HasSuffix(s.value, suffix)), nil
		})

	stringMethods.Define("find").
		Doc("Find the first index of a substring (-1 if not found)").
		Arg("sub").
		Returns("int").
		Impl(func(s *String, ctx context.Context, args ...Object) (Object, error) {
			sub, err := AsString(args[0])
			if err != nil {
				return nil, err
			}
			index := strings.Index(s.value, sub)
			if index < 0 {
				return NewInt(-1), nil
			}
			return NewInt(int64(utf8.RuneCountInString(s.value[:index]))), nil
		})

	stringMethods.Define("join").
		Doc("Join the strings of an iterable using this string as separator").
		Arg("items").
		Returns("str").
		Impl(func(s *String, ctx context.Context, args ...Object) (Object, error) {
			items, err := Collect(args[0])
			if err != nil {
				return nil, err
			}
			parts := make([]string, 0, len(items))
			for i, item := range items {
				part, ok := item.(*String)
				if !ok {
					return nil, errz.TypeErrorf("sequence item %d: expected str instance, %s found", i, item.Type())
				}
				parts = append(parts, part.value)
			}
			return NewString(strings.Join(parts, s.value)), nil
		})

	stringMethods.Define("lower").
		Doc("Convert to lowercase").
		Returns("str").
		Impl(func(s *String, ctx context.Context, args ...Object) (Object, error) {
			return NewString(strings.ToLower(s.value)), nil
		})

	stringMethods.Define("lstrip").
		Doc("Remove leading whitespace or the given characters").
		OptionalArg("chars").
		Returns("str").
		Impl(func(s *String, ctx context.Context, args ...Object) (Object, error) {
			return s.strip(args, strings.TrimLeft, strings.TrimLeftFunc)
		})

	stringMethods.Define("replace").
		Doc("Replace all occurrences of old with new").
		Args("old", "new").
		Returns("str").
		Impl(func(s *String, ctx context.Context, args ...Object) (Object, error) {
			old, err := AsString(args[0])
			if err != nil {
				return nil, err
			}
			repl, err := AsString(args[1])
			if err != nil {
				return nil, err
			}
			return NewString(strings.ReplaceAll(s.value, old, repl)), nil
		})

	stringMethods.Define("rstrip").
		Doc("Remove trailing whitespace or the given characters").
		OptionalArg("chars").
		Returns("str").
		Impl(func(s *String, ctx context.Context, args ...Object) (Object, error) {
			return s.strip(args, strings.TrimRight, strings.TrimRightFunc)
		})

	stringMethods.Define("split").
		Doc("Split by separator, or by runs of whitespace").
		OptionalArg("sep").
		Returns("list").
		Impl(func(s *String, ctx context.Context, args ...Object) (Object, error) {
			var parts []string
			if len(args) == 0 || args[0] == None {
				parts = strings.Fields(s.value)
			} else {
				sep, err := AsString(args[0])
				if err != nil {
					return nil, err
				}
				if sep == "" {
					return nil, errz.ValueErrorf("empty separator")
				}
				parts = strings.Split(s.value, sep)
			}
			return NewStringList(parts), nil
		})

	stringMethods.Define("startswith").
		Doc("Check if string starts with prefix").
		Arg("prefix").
		Returns("bool").
		Impl(func(s *String, ctx context.Context, args ...Object) (Object, error) {
			prefix, err := AsString(args[0])
			if err != nil {
				return nil, err
			}
			return NewBool(strings.HasPrefix(s.value, prefix)), nil
		})

	stringMethods.Define("strip").
		Doc("Remove leading and trailing whitespace or the given characters").
		OptionalArg("chars").
		Returns("str").
		Impl(func(s *String, ctx context.Context, args ...Object) (Object, error) {
			return s.strip(args, strings.Trim, strings.TrimFunc)
		})

	stringMethods.Define("upper").
		Doc("Convert to uppercase").
		Returns("str").
		Impl(func(s *String, ctx context.Context, args ...Object) (Object, error) {
			return NewString(strings.ToUpper(s.value)), nil
		})
}

// String is an immutable text value. Indexing and length operate on runes.
type String struct {
	value string
}

func NewString(s string) *String {
	return &String{value: s}
}

func (s *String) Attrs() []AttrSpec {
	return stringMethods.Specs()
}

func (s *String) GetAttr(name string) (Object, bool) {
	return stringMethods.GetAttr(s, name)
}

func (s *String) Type() Type {
	return STRING
}

func (s *String) Value() string {
	return s.value
}

func (s *String) Inspect() string {
	return quote(s.value)
}

func (s *String) String() string {
	return s.value
}

func (s *String) Interface() any {
	return s.value
}

func (s *String) Equals(other Object) bool {
	o, ok := other.(*String)
	return ok && s.value == o.value
}

func (s *String) IsTruthy() bool {
	return s.value != ""
}

func (s *String) HashKey() (HashKey, error) {
	return HashKey{Type: STRING, Value: s.value}, nil
}

func (s *String) Compare(other Object) (int, bool) {
	o, ok := other.(*String)
	if !ok {
		return 0, false
	}
	return strings.Compare(s.value, o.value), true
}

func (s *String) Len() int {
	return utf8.RuneCountInString(s.value)
}

func (s *String) RunOperation(opType op.BinaryOpType, right Object) (Object, error) {
	switch opType {
	case op.Add:
		if r, ok := right.(*String); ok {
			return NewString(s.value + r.value), nil
		}
	case op.Multiply:
		if n, err := AsInt(right); err == nil {
			if n < 0 {
				n = 0
			}
			return NewString(strings.Repeat(s.value, int(n))), nil
		}
	}
	return nil, unsupportedOperand(opType, s, right)
}

func (s *String) GetItem(key Object) (Object, error) {
	runes := []rune(s.value)
	if slice, ok := key.(*Slice); ok {
		indices, err := slice.Indices(len(runes))
		if err != nil {
			return nil, err
		}
		result := make([]rune, 0, len(indices))
		for _, i := range indices {
			result = append(result, runes[i])
		}
		return NewString(string(result)), nil
	}
	index, err := AsIndex(key, "string")
	if err != nil {
		return nil, err
	}
	i, err := ResolveIndex(index, len(runes), "string")
	if err != nil {
		return nil, err
	}
	return NewString(string(runes[i])), nil
}

func (s *String) Contains(item Object) (bool, error) {
	sub, ok := item.(*String)
	if !ok {
		return false, errz.TypeErrorf("'in <string>' requires string as left operand, not %s", item.Type())
	}
	return strings.Contains(s.value, sub.value), nil
}

func (s *String) Iter() Iterator {
	runes := []rune(s.value)
	pos := 0
	return NewIter("str_iterator", func() (Object, bool, error) {
		if pos >= len(runes) {
			return nil, false, nil
		}
		pos++
		return NewString(string(runes[pos-1])), true, nil
	})
}

func (s *String) strip(args []Object,
	trim func(string, string) string,
	trimFunc func(string, func(rune) bool) string,
) (Object, error) {
	if len(args) == 0 || args[0] == None {
		return NewString(trimFunc(s.value, isSpace)), nil
	}
	chars, err := AsString(args[0])
	if err != nil {
		return nil, err
	}
	return NewString(trim(s.value, chars)), nil
}

func isSpace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}

// quote returns the literal form of a string, preferring single quotes.
func quote(s string) string {
	q := byte('\'')
	if strings.ContainsRune(s, '\'') && !strings.ContainsRune(s, '"') {
		q = '"'
	}
	var b strings.Builder
	b.WriteByte(q)
	for _, r := range s {
		switch {
		case r == rune(q) || r == '\\':
			b.WriteByte('\\')
			b.WriteRune(r)
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\r':
			b.WriteString(`\r`)
		case r == '\t':
			b.WriteString(`\t`)
		case r < 0x20 || r == 0x7f:
			fmt.Fprintf(&b, `\x%02x`, r)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte(q)
	return b.String()
}
