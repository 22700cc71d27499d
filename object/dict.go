package object

import (
	"context"
	"strings"

	"github.com/cloudcmds/framevm/errz"
	"github.com/cloudcmds/framevm/op"
)

var dictMethods = NewMethodRegistry[*Dict]("dict")

func init() {
	dictMethods.Define("clear").
		Doc("Remove all items").
		Returns("None").
		Impl(func(d *Dict, ctx context.Context, args ...Object) (Object, error) {
			d.Clear()
			return None, nil
		})

	dictMethods.Define("copy").
		Doc("Create a shallow copy").
		Returns("dict").
		Impl(func(d *Dict, ctx context.Context, args ...Object) (Object, error) {
			return d.Copy(), nil
		})

	dictMethods.Define("get").
		Doc("Get value by key with optional default").
		Arg("key").
		OptionalArg("default").
		Returns("any").
		Impl(func(d *Dict, ctx context.Context, args ...Object) (Object, error) {
			value, ok, err := d.Get(args[0])
			if err != nil {
				return nil, err
			}
			if ok {
				return value, nil
			}
			if len(args) > 1 {
				return args[1], nil
			}
			return None, nil
		})

	dictMethods.Define("items").
		Doc("Get list of (key, value) tuples").
		Returns("list").
		Impl(func(d *Dict, ctx context.Context, args ...Object) (Object, error) {
			return d.Items(), nil
		})

	dictMethods.Define("keys").
		Doc("Get list of keys").
		Returns("list").
		Impl(func(d *Dict, ctx context.Context, args ...Object) (Object, error) {
			return d.Keys(), nil
		})

	dictMethods.Define("pop").
		Doc("Remove key and return its value, or the default").
		Arg("key").
		OptionalArg("default").
		Returns("any").
		Impl(func(d *Dict, ctx context.Context, args ...Object) (Object, error) {
			value, ok, err := d.Pop(args[0])
			if err != nil {
				return nil, err
			}
			if ok {
				return value, nil
			}
			if len(args) > 1 {
				return args[1], nil
			}
			return nil, errz.KeyErrorf("%s", args[0].Inspect())
		})

	dictMethods.Define("setdefault").
		Doc("Get value by key, inserting the default if missing").
		Arg("key").
		OptionalArg("default").
		Returns("any").
		Impl(func(d *Dict, ctx context.Context, args ...Object) (Object, error) {
			value, ok, err := d.Get(args[0])
			if err != nil || ok {
				return value, err
			}
			var def Object = None
			if len(args) > 1 {
				def = args[1]
			}
			if err := d.Set(args[0], def); err != nil {
				return nil, err
			}
			return def, nil
		})

	dictMethods.Define("update").
		Doc("Update with items from another dict or keywords").
		OptionalArg("other").
		Returns("None").
		ImplKw(func(d *Dict, ctx context.Context, args []Object, kwargs *Dict) (Object, error) {
			if len(args) > 0 {
				if err := d.Update(args[0]); err != nil {
					return nil, err
				}
			}
			if kwargs.Len() > 0 {
				if err := d.Update(kwargs); err != nil {
					return nil, err
				}
			}
			return None, nil
		})

	dictMethods.Define("values").
		Doc("Get list of values").
		Returns("list").
		Impl(func(d *Dict, ctx context.Context, args ...Object) (Object, error) {
			return d.Values(), nil
		})
}

type dictEntry struct {
	key   Object
	value Object
}

// Dict is an insertion-ordered mapping with hashable keys.
type Dict struct {
	entries []dictEntry
	index   map[HashKey]int

	// Used to avoid the possibility of infinite recursion when inspecting.
	inspectActive bool
}

func NewDict() *Dict {
	return &Dict{index: map[HashKey]int{}}
}

// NewStringDict returns a dict with string keys. Keys are inserted in
// sorted order.
func NewStringDict(m map[string]Object) *Dict {
	d := NewDict()
	for _, k := range Keys(m) {
		d.SetString(k, m[k])
	}
	return d
}

func (d *Dict) Attrs() []AttrSpec {
	return dictMethods.Specs()
}

func (d *Dict) GetAttr(name string) (Object, bool) {
	return dictMethods.GetAttr(d, name)
}

func (d *Dict) Type() Type {
	return DICT
}

// Len returns the number of entries. A nil dict is empty.
func (d *Dict) Len() int {
	if d == nil {
		return 0
	}
	return len(d.entries)
}

func (d *Dict) Get(key Object) (Object, bool, error) {
	h, err := Hash(key)
	if err != nil {
		return nil, false, err
	}
	if d == nil {
		return nil, false, nil
	}
	i, ok := d.index[h]
	if !ok {
		return nil, false, nil
	}
	return d.entries[i].value, true, nil
}

// GetString looks up a string key.
func (d *Dict) GetString(key string) (Object, bool) {
	if d == nil {
		return nil, false
	}
	i, ok := d.index[HashKey{Type: STRING, Value: key}]
	if !ok {
		return nil, false
	}
	return d.entries[i].value, true
}

// Set inserts or replaces a value. Replacing keeps the original position
// and the original key object.
func (d *Dict) Set(key, value Object) error {
	h, err := Hash(key)
	if err != nil {
		return err
	}
	if i, ok := d.index[h]; ok {
		d.entries[i].value = value
		return nil
	}
	d.index[h] = len(d.entries)
	d.entries = append(d.entries, dictEntry{key: key, value: value})
	return nil
}

func (d *Dict) SetString(key string, value Object) {
	// String keys are always hashable
	_ = d.Set(NewString(key), value)
}

// Pop removes a key, returning its value if it was present.
func (d *Dict) Pop(key Object) (Object, bool, error) {
	h, err := Hash(key)
	if err != nil {
		return nil, false, err
	}
	i, ok := d.index[h]
	if !ok {
		return nil, false, nil
	}
	value := d.entries[i].value
	d.entries = append(d.entries[:i], d.entries[i+1:]...)
	delete(d.index, h)
	for j := i; j < len(d.entries); j++ {
		eh, _ := Hash(d.entries[j].key)
		d.index[eh] = j
	}
	return value, true, nil
}

// Delete removes a key that is already in the dict, or fails with a key
// fault.
func (d *Dict) Delete(key Object) error {
	_, ok, err := d.Pop(key)
	if err != nil {
		return err
	}
	if !ok {
		return errz.KeyErrorf("%s", key.Inspect())
	}
	return nil
}

func (d *Dict) Clear() {
	d.entries = nil
	d.index = map[HashKey]int{}
}

func (d *Dict) Copy() *Dict {
	c := &Dict{
		entries: make([]dictEntry, len(d.entries)),
		index:   make(map[HashKey]int, len(d.index)),
	}
	copy(c.entries, d.entries)
	for k, v := range d.index {
		c.index[k] = v
	}
	return c
}

// Update merges the entries of another dict, or of an iterable of
// key/value pairs, into d.
func (d *Dict) Update(other Object) error {
	if o, ok := other.(*Dict); ok {
		for _, e := range o.Entries() {
			if err := d.Set(e[0], e[1]); err != nil {
				return err
			}
		}
		return nil
	}
	items, err := Collect(other)
	if err != nil {
		return err
	}
	for i, item := range items {
		pair, err := Collect(item)
		if err != nil {
			return errz.TypeErrorf("cannot convert dictionary update sequence element #%d to a sequence", i)
		}
		if len(pair) != 2 {
			return errz.ValueErrorf("dictionary update sequence element #%d has length %d; 2 is required", i, len(pair))
		}
		if err := d.Set(pair[0], pair[1]); err != nil {
			return err
		}
	}
	return nil
}

// Entries returns the key/value pairs in insertion order.
func (d *Dict) Entries() [][2]Object {
	if d == nil {
		return nil
	}
	entries := make([][2]Object, 0, len(d.entries))
	for _, e := range d.entries {
		entries = append(entries, [2]Object{e.key, e.value})
	}
	return entries
}

func (d *Dict) Keys() *List {
	items := make([]Object, 0, d.Len())
	for _, e := range d.Entries() {
		items = append(items, e[0])
	}
	return NewList(items)
}

func (d *Dict) Values() *List {
	items := make([]Object, 0, d.Len())
	for _, e := range d.Entries() {
		items = append(items, e[1])
	}
	return NewList(items)
}

func (d *Dict) Items() *List {
	items := make([]Object, 0, d.Len())
	for _, e := range d.Entries() {
		items = append(items, NewTuple([]Object{e[0], e[1]}))
	}
	return NewList(items)
}

func (d *Dict) Inspect() string {
	if d.inspectActive {
		return "{...}"
	}
	d.inspectActive = true
	defer func() { d.inspectActive = false }()
	parts := make([]string, 0, len(d.entries))
	for _, e := range d.entries {
		parts = append(parts, e.key.Inspect()+": "+e.value.Inspect())
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func (d *Dict) String() string {
	return d.Inspect()
}

// Interface returns a map keyed by the informal string form of each key.
func (d *Dict) Interface() any {
	m := make(map[string]any, len(d.entries))
	for _, e := range d.entries {
		m[Str(e.key)] = e.value.Interface()
	}
	return m
}

func (d *Dict) Equals(other Object) bool {
	o, ok := other.(*Dict)
	if !ok || d.Len() != o.Len() {
		return false
	}
	for _, e := range d.entries {
		value, found, err := o.Get(e.key)
		if err != nil || !found || !e.value.Equals(value) {
			return false
		}
	}
	return true
}

func (d *Dict) IsTruthy() bool {
	return len(d.entries) > 0
}

func (d *Dict) GetItem(key Object) (Object, error) {
	value, ok, err := d.Get(key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errz.KeyErrorf("%s", key.Inspect())
	}
	return value, nil
}

func (d *Dict) SetItem(key, value Object) error {
	return d.Set(key, value)
}

func (d *Dict) DelItem(key Object) error {
	return d.Delete(key)
}

func (d *Dict) Contains(key Object) (bool, error) {
	_, ok, err := d.Get(key)
	return ok, err
}

// Iter iterates over the keys. Mutating the dict while iterating is a
// runtime fault.
func (d *Dict) Iter() Iterator {
	pos := 0
	size := len(d.entries)
	return NewIter("dict_keyiterator", func() (Object, bool, error) {
		if len(d.entries) != size {
			return nil, false, errz.ValueErrorf("dictionary changed size during iteration")
		}
		if pos >= len(d.entries) {
			return nil, false, nil
		}
		pos++
		return d.entries[pos-1].key, true, nil
	})
}

func (d *Dict) RunOperation(opType op.BinaryOpType, right Object) (Object, error) {
	if r, ok := right.(*Dict); ok && opType == op.BitwiseOr {
		result := d.Copy()
		if err := result.Update(r); err != nil {
			return nil, err
		}
		return result, nil
	}
	return nil, unsupportedOperand(opType, d, right)
}
