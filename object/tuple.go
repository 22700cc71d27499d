package object

import (
	"context"
	"strings"

	"github.com/cloudcmds/framevm/errz"
	"github.com/cloudcmds/framevm/op"
)

var tupleMethods = NewMethodRegistry[*Tuple]("tuple")

func init() {
	tupleMethods.Define("count").
		Doc("Count occurrences of item").
		Arg("item").
		Returns("int").
		Impl(func(t *Tuple, ctx context.Context, args ...Object) (Object, error) {
			return NewInt(countItems(t.items, args[0])), nil
		})

	tupleMethods.Define("index").
		Doc("Find first index of item").
		Arg("item").
		Returns("int").
		Impl(func(t *Tuple, ctx context.Context, args ...Object) (Object, error) {
			i := indexItems(t.items, args[0])
			if i < 0 {
				return nil, errz.ValueErrorf("tuple.index(x): x not in tuple")
			}
			return NewInt(int64(i)), nil
		})
}

// Tuple is an immutable sequence. It is hashable when all of its items are.
type Tuple struct {
	items []Object
}

// NewTuple returns a tuple that takes ownership of items.
func NewTuple(items []Object) *Tuple {
	return &Tuple{items: items}
}

func (t *Tuple) Attrs() []AttrSpec {
	return tupleMethods.Specs()
}

func (t *Tuple) GetAttr(name string) (Object, bool) {
	return tupleMethods.GetAttr(t, name)
}

func (t *Tuple) Type() Type {
	return TUPLE
}

// Value returns the items of the tuple. Callers must not modify the slice.
func (t *Tuple) Value() []Object {
	return t.items
}

func (t *Tuple) Inspect() string {
	if len(t.items) == 1 {
		return "(" + t.items[0].Inspect() + ",)"
	}
	return "(" + inspectItems(t.items) + ")"
}

func (t *Tuple) String() string {
	return t.Inspect()
}

func (t *Tuple) Interface() any {
	values := make([]any, 0, len(t.items))
	for _, item := range t.items {
		values = append(values, item.Interface())
	}
	return values
}

func (t *Tuple) Equals(other Object) bool {
	o, ok := other.(*Tuple)
	return ok && equalItems(t.items, o.items)
}

func (t *Tuple) IsTruthy() bool {
	return len(t.items) > 0
}

func (t *Tuple) HashKey() (HashKey, error) {
	h, err := hashItems(t.items)
	if err != nil {
		return HashKey{}, err
	}
	return HashKey{Type: TUPLE, Value: h}, nil
}

func (t *Tuple) Compare(other Object) (int, bool) {
	o, ok := other.(*Tuple)
	if !ok {
		return 0, false
	}
	return compareItems(t.items, o.items)
}

func (t *Tuple) Len() int {
	return len(t.items)
}

func (t *Tuple) GetItem(key Object) (Object, error) {
	if slice, ok := key.(*Slice); ok {
		items, err := sliceItems(t.items, slice)
		if err != nil {
			return nil, err
		}
		return NewTuple(items), nil
	}
	index, err := AsIndex(key, "tuple")
	if err != nil {
		return nil, err
	}
	i, err := ResolveIndex(index, len(t.items), "tuple")
	if err != nil {
		return nil, err
	}
	return t.items[i], nil
}

func (t *Tuple) Contains(item Object) (bool, error) {
	return indexItems(t.items, item) >= 0, nil
}

func (t *Tuple) Iter() Iterator {
	return NewSliceIter("tuple_iterator", t.items)
}

func (t *Tuple) RunOperation(opType op.BinaryOpType, right Object) (Object, error) {
	switch opType {
	case op.Add:
		if r, ok := right.(*Tuple); ok {
			items := make([]Object, 0, len(t.items)+len(r.items))
			items = append(items, t.items...)
			return NewTuple(append(items, r.items...)), nil
		}
	case op.Multiply:
		if n, err := AsInt(right); err == nil {
			return NewTuple(repeatItems(t.items, n)), nil
		}
	}
	return nil, unsupportedOperand(opType, t, right)
}

func inspectItems(items []Object) string {
	parts := make([]string, 0, len(items))
	for _, item := range items {
		parts = append(parts, item.Inspect())
	}
	return strings.Join(parts, ", ")
}

func equalItems(a, b []Object) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equals(b[i]) {
			return false
		}
	}
	return true
}

// compareItems orders two sequences lexicographically.
func compareItems(a, b []Object) (int, bool) {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i].Equals(b[i]) {
			continue
		}
		c, ok := a[i].(Comparable)
		if !ok {
			return 0, false
		}
		return c.Compare(b[i])
	}
	return compareInts(int64(len(a)), int64(len(b))), true
}

func countItems(items []Object, obj Object) int64 {
	var count int64
	for _, item := range items {
		if item.Equals(obj) {
			count++
		}
	}
	return count
}

func indexItems(items []Object, obj Object) int {
	for i, item := range items {
		if item == obj || item.Equals(obj) {
			return i
		}
	}
	return -1
}

func repeatItems(items []Object, n int64) []Object {
	if n <= 0 {
		return []Object{}
	}
	result := make([]Object, 0, len(items)*int(n))
	for i := int64(0); i < n; i++ {
		result = append(result, items...)
	}
	return result
}

func sliceItems(items []Object, slice *Slice) ([]Object, error) {
	indices, err := slice.Indices(len(items))
	if err != nil {
		return nil, err
	}
	result := make([]Object, 0, len(indices))
	for _, i := range indices {
		result = append(result, items[i])
	}
	return result, nil
}
