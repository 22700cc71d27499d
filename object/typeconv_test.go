package object

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cloudcmds/framevm/bytecode"
	"github.com/cloudcmds/framevm/errz"
	"github.com/cloudcmds/framevm/op"
)

type point struct{ X int }

func TestAsObject(t *testing.T) {
	tests := []struct {
		input    any
		expected string
	}{
		{nil, "None"},
		{true, "True"},
		{7, "7"},
		{int8(-3), "-3"},
		{uint16(9), "9"},
		{float32(0.5), "0.5"},
		{"x", "'x'"},
		{[]string{"a", "b"}, "['a', 'b']"},
		{[2]int{1, 2}, "[1, 2]"},
		{map[string]int{"b": 2, "a": 1}, "{'a': 1, 'b': 2}"},
		{[]any{1, "two", nil}, "[1, 'two', None]"},
		{NewInt(3), "3"},
	}
	for _, tt := range tests {
		obj, err := AsObject(tt.input)
		require.NoError(t, err)
		require.Equal(t, tt.expected, obj.Inspect())
	}

	_, err := AsObject(point{X: 1})
	require.True(t, errors.Is(err, errz.ErrType))

	_, err = AsObject(map[int]string{1: "a"})
	require.True(t, errors.Is(err, errz.ErrType))
}

func TestAsObjects(t *testing.T) {
	objs, err := AsObjects(map[string]any{"n": 1, "s": "x"})
	require.NoError(t, err)
	require.Equal(t, int64(1), objs["n"].(*Int).Value())
	require.Equal(t, "x", objs["s"].(*String).Value())

	_, err = AsObjects(map[string]any{"bad": struct{}{}})
	require.Error(t, err)
	require.True(t, errors.Is(err, errz.ErrType))
}

func TestFromConstant(t *testing.T) {
	code := bytecode.NewCode(bytecode.CodeParams{Name: "f"})
	tests := []struct {
		input    any
		expected string
	}{
		{nil, "None"},
		{false, "False"},
		{int64(5), "5"},
		{2.5, "2.5"},
		{"s", "'s'"},
		{bytecode.Tuple{int64(1), bytecode.Tuple{"a"}}, "(1, ('a',))"},
		{code, "<code object f>"},
	}
	for _, tt := range tests {
		obj, err := FromConstant(tt.input)
		require.NoError(t, err)
		require.Equal(t, tt.expected, obj.Inspect())
	}

	_, err := FromConstant(int32(1))
	require.True(t, errors.Is(err, errz.ErrMalformedCode))
}

func TestIndexHelpers(t *testing.T) {
	i, err := ResolveIndex(-1, 3, "list")
	require.NoError(t, err)
	require.Equal(t, 2, i)

	_, err = ResolveIndex(-4, 3, "list")
	require.True(t, errors.Is(err, errz.ErrIndex))

	n, err := AsIndex(True, "list")
	require.NoError(t, err)
	require.Equal(t, int64(1), n)
}

func TestFunctionCallsThroughContext(t *testing.T) {
	code := bytecode.NewCode(bytecode.CodeParams{Name: "double"})
	fn := NewFunction(code, nil, nil, nil)
	require.Equal(t, "<function double>", fn.Inspect())
	require.Equal(t, 0, fn.KwDefaults().Len())

	_, err := fn.Call(context.Background(), NewInt(1))
	require.True(t, errors.Is(err, errz.ErrType))

	var gotKwargs *Dict
	ctx := WithCallFunc(context.Background(), func(ctx context.Context, f *Function, args []Object, kwargs *Dict) (Object, error) {
		require.Same(t, fn, f)
		gotKwargs = kwargs
		return BinaryOp(op.Add, args[0], args[0])
	})
	result, err := fn.Call(ctx, NewInt(21))
	require.NoError(t, err)
	require.Equal(t, int64(42), result.(*Int).Value())
	require.Nil(t, gotKwargs)
}

func TestBuiltinKeywords(t *testing.T) {
	plain := NewBuiltin("plain", func(ctx context.Context, args ...Object) (Object, error) {
		return NewInt(int64(len(args))), nil
	})
	kwargs := NewDict()
	kwargs.SetString("x", None)

	result, err := plain.CallWithKeywords(context.Background(), []Object{None}, nil)
	require.NoError(t, err)
	require.Equal(t, int64(1), result.(*Int).Value())

	_, err = plain.CallWithKeywords(context.Background(), nil, kwargs)
	require.Equal(t, "type error: plain() takes no keyword arguments", err.Error())

	kw := NewKeywordBuiltin("kw", func(ctx context.Context, args []Object, kwargs *Dict) (Object, error) {
		return NewInt(int64(kwargs.Len())), nil
	})
	require.True(t, kw.AcceptsKeywords())
	result, err = kw.CallWithKeywords(context.Background(), nil, kwargs)
	require.NoError(t, err)
	require.Equal(t, int64(1), result.(*Int).Value())

	result, err = kw.Call(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(0), result.(*Int).Value())
}
