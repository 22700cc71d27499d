package object

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cloudcmds/framevm/errz"
	"github.com/cloudcmds/framevm/op"
)

func TestStringInspect(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"hello", `'hello'`},
		{"it's", `"it's"`},
		{`both ' and "`, `'both \' and "'`},
		{"tab\tnew\n", `'tab\tnew\n'`},
		{"\x01", `'\x01'`},
	}
	for _, tt := range tests {
		require.Equal(t, tt.expected, NewString(tt.input).Inspect())
	}
	require.Equal(t, "it's", Str(NewString("it's")))
}

func TestStringIndexing(t *testing.T) {
	s := NewString("héllo")
	require.Equal(t, 5, s.Len())

	item, err := s.GetItem(NewInt(1))
	require.NoError(t, err)
	require.Equal(t, "é", item.(*String).Value())

	item, err = s.GetItem(NewSlice(NewInt(1), NewInt(-1), None))
	require.NoError(t, err)
	require.Equal(t, "éll", item.(*String).Value())

	_, err = s.GetItem(NewInt(10))
	require.Equal(t, "index error: string index out of range", err.Error())

	items, err := Collect(NewString("ab"))
	require.NoError(t, err)
	require.Equal(t, "['a', 'b']", NewList(items).Inspect())
}

func TestStringOperations(t *testing.T) {
	result, err := BinaryOp(op.Add, NewString("a"), NewString("b"))
	require.NoError(t, err)
	require.Equal(t, "ab", result.(*String).Value())

	result, err = BinaryOp(op.Multiply, NewInt(3), NewString("ab"))
	require.NoError(t, err)
	require.Equal(t, "ababab", result.(*String).Value())

	ok, err := Contains(NewString("hello"), NewString("ell"))
	require.NoError(t, err)
	require.True(t, ok)

	_, err = Contains(NewString("hello"), NewInt(1))
	require.True(t, errors.Is(err, errz.ErrType))

	cmp, err := Compare(op.LessThan, NewString("abc"), NewString("abd"))
	require.NoError(t, err)
	require.Equal(t, True, cmp)
}

func TestStringMethods(t *testing.T) {
	s := NewString("  a,b,,c  ")

	stripped, err := callMethod(t, s, "strip")
	require.NoError(t, err)
	require.Equal(t, "a,b,,c", stripped.(*String).Value())

	parts, err := callMethod(t, stripped, "split", NewString(","))
	require.NoError(t, err)
	require.Equal(t, "['a', 'b', '', 'c']", parts.Inspect())

	words, err := callMethod(t, NewString(" x  y "), "split")
	require.NoError(t, err)
	require.Equal(t, "['x', 'y']", words.Inspect())

	_, err = callMethod(t, s, "split", NewString(""))
	require.True(t, errors.Is(err, errz.ErrValue))

	joined, err := callMethod(t, NewString("-"), "join", NewList([]Object{NewString("a"), NewString("b")}))
	require.NoError(t, err)
	require.Equal(t, "a-b", joined.(*String).Value())

	_, err = callMethod(t, NewString("-"), "join", NewList([]Object{NewInt(1)}))
	require.Equal(t, "type error: sequence item 0: expected str instance, int found", err.Error())

	found, err := callMethod(t, NewString("héllo"), "find", NewString("l"))
	require.NoError(t, err)
	require.Equal(t, int64(2), found.(*Int).Value())

	upper, err := callMethod(t, NewString("abc"), "upper")
	require.NoError(t, err)
	require.Equal(t, "ABC", upper.(*String).Value())

	trimmed, err := callMethod(t, NewString("xxhixx"), "lstrip", NewString("x"))
	require.NoError(t, err)
	require.Equal(t, "hixx", trimmed.(*String).Value())

	require.Contains(t, AttrNames(s.Attrs()), "replace")
}
