package object

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cloudcmds/framevm/errz"
	"github.com/cloudcmds/framevm/op"
)

func TestDictInsertionOrder(t *testing.T) {
	d := NewDict()
	require.NoError(t, d.Set(NewString("b"), NewInt(1)))
	require.NoError(t, d.Set(NewString("a"), NewInt(2)))
	require.NoError(t, d.Set(NewInt(3), NewInt(3)))
	require.Equal(t, "{'b': 1, 'a': 2, 3: 3}", d.Inspect())

	// Replacing keeps the position.
	require.NoError(t, d.Set(NewString("b"), NewInt(10)))
	require.Equal(t, "{'b': 10, 'a': 2, 3: 3}", d.Inspect())

	require.NoError(t, d.Delete(NewString("b")))
	require.Equal(t, "{'a': 2, 3: 3}", d.Inspect())

	value, ok, err := d.Get(NewFloat(3.0))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, int64(3), value.(*Int).Value())
}

func TestDictFaults(t *testing.T) {
	d := NewDict()
	err := d.Set(NewList(nil), None)
	require.True(t, errors.Is(err, errz.ErrType))

	_, err = d.GetItem(NewString("missing"))
	require.True(t, errors.Is(err, errz.ErrKey))
	require.Equal(t, "key error: 'missing'", err.Error())

	err = d.DelItem(NewInt(1))
	require.True(t, errors.Is(err, errz.ErrKey))
}

func TestDictNilIsEmpty(t *testing.T) {
	var d *Dict
	require.Equal(t, 0, d.Len())
	require.Nil(t, d.Entries())
	_, ok := d.GetString("x")
	require.False(t, ok)
}

func TestDictMethods(t *testing.T) {
	d := NewDict()
	d.SetString("x", NewInt(1))

	value, err := callMethod(t, d, "get", NewString("y"), NewInt(5))
	require.NoError(t, err)
	require.Equal(t, int64(5), value.(*Int).Value())

	value, err = callMethod(t, d, "setdefault", NewString("y"), NewInt(7))
	require.NoError(t, err)
	require.Equal(t, int64(7), value.(*Int).Value())
	require.Equal(t, "{'x': 1, 'y': 7}", d.Inspect())

	keys, err := callMethod(t, d, "keys")
	require.NoError(t, err)
	require.Equal(t, "['x', 'y']", keys.Inspect())

	items, err := callMethod(t, d, "items")
	require.NoError(t, err)
	require.Equal(t, "[('x', 1), ('y', 7)]", items.Inspect())

	popped, err := callMethod(t, d, "pop", NewString("x"))
	require.NoError(t, err)
	require.Equal(t, int64(1), popped.(*Int).Value())

	_, err = callMethod(t, d, "pop", NewString("x"))
	require.True(t, errors.Is(err, errz.ErrKey))

	update, err := GetAttr(d, "update")
	require.NoError(t, err)
	kwargs := NewDict()
	kwargs.SetString("z", NewInt(26))
	pairs := NewList([]Object{NewTuple([]Object{NewString("w"), NewInt(0)})})
	_, err = update.(KeywordCallable).CallWithKeywords(context.Background(), []Object{pairs}, kwargs)
	require.NoError(t, err)
	require.Equal(t, "{'y': 7, 'w': 0, 'z': 26}", d.Inspect())
}

func TestDictMerge(t *testing.T) {
	a := NewDict()
	a.SetString("x", NewInt(1))
	b := NewDict()
	b.SetString("x", NewInt(2))
	b.SetString("y", NewInt(3))

	merged, err := BinaryOp(op.BitwiseOr, a, b)
	require.NoError(t, err)
	require.Equal(t, "{'x': 2, 'y': 3}", merged.Inspect())
	require.Equal(t, "{'x': 1}", a.Inspect())

	require.True(t, merged.Equals(b))
	require.False(t, merged.Equals(a))
}

func TestDictIterationDetectsResize(t *testing.T) {
	d := NewDict()
	d.SetString("a", None)
	it := d.Iter()
	key, ok, err := it.Next()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "'a'", key.Inspect())

	d.SetString("b", None)
	_, _, err = it.Next()
	require.True(t, errors.Is(err, errz.ErrValue))
}

func TestDictInterface(t *testing.T) {
	d := NewDict()
	d.SetString("n", NewInt(1))
	d.SetString("l", NewList([]Object{NewString("a")}))
	require.Equal(t, map[string]any{
		"n": int64(1),
		"l": []any{"a"},
	}, d.Interface())
}
