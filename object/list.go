package object

import (
	"context"

	"github.com/cloudcmds/framevm/errz"
	"github.com/cloudcmds/framevm/op"
)

var listMethods = NewMethodRegistry[*List]("list")

func init() {
	listMethods.Define("append").
		Doc("Add item to end of list").
		Arg("item").
		Returns("None").
		Impl(func(ls *List, ctx context.Context, args ...Object) (Object, error) {
			ls.Append(args[0])
			return None, nil
		})

	listMethods.Define("clear").
		Doc("Remove all items").
		Returns("None").
		Impl(func(ls *List, ctx context.Context, args ...Object) (Object, error) {
			ls.Clear()
			return None, nil
		})

	listMethods.Define("copy").
		Doc("Create a shallow copy").
		Returns("list").
		Impl(func(ls *List, ctx context.Context, args ...Object) (Object, error) {
			return ls.Copy(), nil
		})

	listMethods.Define("count").
		Doc("Count occurrences of item").
		Arg("item").
		Returns("int").
		Impl(func(ls *List, ctx context.Context, args ...Object) (Object, error) {
			return NewInt(countItems(ls.items, args[0])), nil
		})

	listMethods.Define("extend").
		Doc("Add all items from an iterable").
		Arg("items").
		Returns("None").
		Impl(func(ls *List, ctx context.Context, args ...Object) (Object, error) {
			if err := ls.Extend(args[0]); err != nil {
				return nil, err
			}
			return None, nil
		})

	listMethods.Define("index").
		Doc("Find first index of item").
		Arg("item").
		Returns("int").
		Impl(func(ls *List, ctx context.Context, args ...Object) (Object, error) {
			i := indexItems(ls.items, args[0])
			if i < 0 {
				return nil, errz.ValueErrorf("%s is not in list", args[0].Inspect())
			}
			return NewInt(int64(i)), nil
		})

	listMethods.Define("insert").
		Doc("Insert item at index").
		Args("index", "item").
		Returns("None").
		Impl(func(ls *List, ctx context.Context, args ...Object) (Object, error) {
			index, err := AsIndex(args[0], "list")
			if err != nil {
				return nil, err
			}
			ls.Insert(index, args[1])
			return None, nil
		})

	listMethods.Define("pop").
		Doc("Remove and return item at index (default last)").
		OptionalArg("index").
		Returns("any").
		Impl(func(ls *List, ctx context.Context, args ...Object) (Object, error) {
			index := int64(-1)
			if len(args) > 0 {
				var err error
				if index, err = AsIndex(args[0], "list"); err != nil {
					return nil, err
				}
			}
			return ls.Pop(index)
		})

	listMethods.Define("remove").
		Doc("Remove first occurrence of item").
		Arg("item").
		Returns("None").
		Impl(func(ls *List, ctx context.Context, args ...Object) (Object, error) {
			if err := ls.Remove(args[0]); err != nil {
				return nil, err
			}
			return None, nil
		})

	listMethods.Define("reverse").
		Doc("Reverse the list in place").
		Returns("None").
		Impl(func(ls *List, ctx context.Context, args ...Object) (Object, error) {
			ls.Reverse()
			return None, nil
		})

	listMethods.Define("sort").
		Doc("Sort the list in place (keywords: key, reverse)").
		Returns("None").
		ImplKw(func(ls *List, ctx context.Context, args []Object, kwargs *Dict) (Object, error) {
			key, reverse, err := SortOptions("list.sort", kwargs)
			if err != nil {
				return nil, err
			}
			if err := Sort(ctx, ls.items, key, reverse); err != nil {
				return nil, err
			}
			return None, nil
		})
}

// List is a mutable sequence of objects.
type List struct {
	items []Object

	// Used to avoid the possibility of infinite recursion when inspecting.
	// Similar to the usage of Py_ReprEnter in CPython.
	inspectActive bool
}

// NewList returns a list that takes ownership of items.
func NewList(items []Object) *List {
	if items == nil {
		items = []Object{}
	}
	return &List{items: items}
}

// NewStringList returns a list of strings.
func NewStringList(s []string) *List {
	items := make([]Object, 0, len(s))
	for _, v := range s {
		items = append(items, NewString(v))
	}
	return &List{items: items}
}

func (ls *List) Attrs() []AttrSpec {
	return listMethods.Specs()
}

func (ls *List) GetAttr(name string) (Object, bool) {
	return listMethods.GetAttr(ls, name)
}

func (ls *List) Type() Type {
	return LIST
}

// Value returns the items of the list. Callers must not retain the slice
// across mutations.
func (ls *List) Value() []Object {
	return ls.items
}

func (ls *List) Inspect() string {
	// A list can contain itself. Detect if we're already inspecting the list
	// and return a placeholder if so.
	if ls.inspectActive {
		return "[...]"
	}
	ls.inspectActive = true
	defer func() { ls.inspectActive = false }()
	return "[" + inspectItems(ls.items) + "]"
}

func (ls *List) String() string {
	return ls.Inspect()
}

func (ls *List) Append(obj Object) {
	ls.items = append(ls.items, obj)
}

func (ls *List) Clear() {
	ls.items = []Object{}
}

func (ls *List) Copy() *List {
	items := make([]Object, len(ls.items))
	copy(items, ls.items)
	return &List{items: items}
}

// Extend appends every item of an iterable. Extending a list with itself
// appends a copy of its current items.
func (ls *List) Extend(iterable Object) error {
	items, err := Collect(iterable)
	if err != nil {
		return err
	}
	ls.items = append(ls.items, items...)
	return nil
}

// Insert adds an item before the given index. Out of range indexes are
// clamped to the ends of the list.
func (ls *List) Insert(index int64, obj Object) {
	size := int64(len(ls.items))
	if index < 0 {
		index += size
		if index < 0 {
			index = 0
		}
	}
	if index > size {
		index = size
	}
	ls.items = append(ls.items, nil)
	copy(ls.items[index+1:], ls.items[index:])
	ls.items[index] = obj
}

func (ls *List) Pop(index int64) (Object, error) {
	if len(ls.items) == 0 {
		return nil, errz.IndexErrorf("pop from empty list")
	}
	i, err := ResolveIndex(index, len(ls.items), "pop")
	if err != nil {
		return nil, err
	}
	value := ls.items[i]
	ls.items = append(ls.items[:i], ls.items[i+1:]...)
	return value, nil
}

func (ls *List) Remove(obj Object) error {
	i := indexItems(ls.items, obj)
	if i < 0 {
		return errz.ValueErrorf("list.remove(x): x not in list")
	}
	ls.items = append(ls.items[:i], ls.items[i+1:]...)
	return nil
}

func (ls *List) Reverse() {
	for i, j := 0, len(ls.items)-1; i < j; i, j = i+1, j-1 {
		ls.items[i], ls.items[j] = ls.items[j], ls.items[i]
	}
}

func (ls *List) Interface() any {
	items := make([]any, 0, len(ls.items))
	for _, item := range ls.items {
		items = append(items, item.Interface())
	}
	return items
}

func (ls *List) Compare(other Object) (int, bool) {
	o, ok := other.(*List)
	if !ok {
		return 0, false
	}
	return compareItems(ls.items, o.items)
}

func (ls *List) Equals(other Object) bool {
	o, ok := other.(*List)
	if !ok {
		return false
	}
	return ls == o || equalItems(ls.items, o.items)
}

func (ls *List) IsTruthy() bool {
	return len(ls.items) > 0
}

func (ls *List) GetItem(key Object) (Object, error) {
	if slice, ok := key.(*Slice); ok {
		items, err := sliceItems(ls.items, slice)
		if err != nil {
			return nil, err
		}
		return NewList(items), nil
	}
	index, err := AsIndex(key, "list")
	if err != nil {
		return nil, err
	}
	i, err := ResolveIndex(index, len(ls.items), "list")
	if err != nil {
		return nil, err
	}
	return ls.items[i], nil
}

func (ls *List) SetItem(key, value Object) error {
	if slice, ok := key.(*Slice); ok {
		return ls.setSlice(slice, value)
	}
	index, err := AsIndex(key, "list")
	if err != nil {
		return err
	}
	i, err := ResolveIndex(index, len(ls.items), "list assignment")
	if err != nil {
		return err
	}
	ls.items[i] = value
	return nil
}

func (ls *List) setSlice(slice *Slice, value Object) error {
	values, err := Collect(value)
	if err != nil {
		return err
	}
	step := int64(1)
	if slice.Step != None {
		if step, err = AsIndex(slice.Step, "slice"); err != nil {
			return err
		}
	}
	if step == 1 {
		start, err := clampBound(slice.Start, 0, len(ls.items))
		if err != nil {
			return err
		}
		stop, err := clampBound(slice.Stop, len(ls.items), len(ls.items))
		if err != nil {
			return err
		}
		if stop < start {
			stop = start
		}
		items := make([]Object, 0, len(ls.items)-(stop-start)+len(values))
		items = append(items, ls.items[:start]...)
		items = append(items, values...)
		ls.items = append(items, ls.items[stop:]...)
		return nil
	}
	indices, err := slice.Indices(len(ls.items))
	if err != nil {
		return err
	}
	if len(values) != len(indices) {
		return errz.ValueErrorf("attempt to assign sequence of size %d to extended slice of size %d", len(values), len(indices))
	}
	for n, i := range indices {
		ls.items[i] = values[n]
	}
	return nil
}

func (ls *List) DelItem(key Object) error {
	if slice, ok := key.(*Slice); ok {
		indices, err := slice.Indices(len(ls.items))
		if err != nil {
			return err
		}
		drop := make(map[int]bool, len(indices))
		for _, i := range indices {
			drop[i] = true
		}
		items := make([]Object, 0, len(ls.items)-len(drop))
		for i, item := range ls.items {
			if !drop[i] {
				items = append(items, item)
			}
		}
		ls.items = items
		return nil
	}
	index, err := AsIndex(key, "list")
	if err != nil {
		return err
	}
	i, err := ResolveIndex(index, len(ls.items), "list assignment")
	if err != nil {
		return err
	}
	ls.items = append(ls.items[:i], ls.items[i+1:]...)
	return nil
}

func (ls *List) Contains(item Object) (bool, error) {
	return indexItems(ls.items, item) >= 0, nil
}

func (ls *List) Len() int {
	return len(ls.items)
}

func (ls *List) Iter() Iterator {
	pos := 0
	return NewIter("list_iterator", func() (Object, bool, error) {
		if pos >= len(ls.items) {
			return nil, false, nil
		}
		pos++
		return ls.items[pos-1], true, nil
	})
}

func (ls *List) RunOperation(opType op.BinaryOpType, right Object) (Object, error) {
	switch opType {
	case op.Add:
		if r, ok := right.(*List); ok {
			items := make([]Object, 0, len(ls.items)+len(r.items))
			items = append(items, ls.items...)
			return NewList(append(items, r.items...)), nil
		}
	case op.Multiply:
		if n, err := AsInt(right); err == nil {
			return NewList(repeatItems(ls.items, n)), nil
		}
	}
	return nil, unsupportedOperand(opType, ls, right)
}

// clampBound resolves a contiguous slice bound against a sequence length.
func clampBound(obj Object, def, length int) (int, error) {
	if obj == None {
		return def, nil
	}
	n, err := AsIndex(obj, "slice")
	if err != nil {
		return 0, err
	}
	v := int(n)
	if v < 0 {
		v += length
		if v < 0 {
			v = 0
		}
	}
	if v > length {
		v = length
	}
	return v, nil
}
