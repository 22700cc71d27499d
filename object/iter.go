package object

import (
	"fmt"

	"github.com/cloudcmds/framevm/errz"
	"github.com/cloudcmds/framevm/op"
)

var _ Iterator = (*Iter)(nil)

// Iter is a pull-based iterator wrapping a next function. Once the next
// function reports exhaustion it is not called again.
type Iter struct {
	// description for Inspect/debugging
	desc string

	next func() (Object, bool, error)
	done bool
}

// NewIter returns an iterator that yields values produced by next.
func NewIter(desc string, next func() (Object, bool, error)) *Iter {
	return &Iter{desc: desc, next: next}
}

// NewSliceIter returns an iterator over a fixed list of items.
func NewSliceIter(desc string, items []Object) *Iter {
	pos := 0
	return NewIter(desc, func() (Object, bool, error) {
		if pos >= len(items) {
			return nil, false, nil
		}
		pos++
		return items[pos-1], true, nil
	})
}

func (it *Iter) Type() Type {
	return ITER
}

func (it *Iter) Inspect() string {
	return fmt.Sprintf("<%s object>", it.desc)
}

func (it *Iter) String() string {
	return it.Inspect()
}

func (it *Iter) Interface() any {
	return nil
}

func (it *Iter) Equals(other Object) bool {
	// Iterators are only equal to themselves
	return it == other
}

func (it *Iter) IsTruthy() bool {
	return true
}

func (it *Iter) RunOperation(opType op.BinaryOpType, right Object) (Object, error) {
	return nil, unsupportedOperand(opType, it, right)
}

func (it *Iter) Next() (Object, bool, error) {
	if it.done {
		return nil, false, nil
	}
	value, ok, err := it.next()
	if err != nil {
		return nil, false, err
	}
	if !ok {
		it.done = true
		return nil, false, nil
	}
	return value, true, nil
}

// Iter returns the iterator itself, so iterators are iterable.
func (it *Iter) Iter() Iterator {
	return it
}

// GetIter returns an iterator over the given object.
func GetIter(obj Object) (Iterator, error) {
	iterable, ok := obj.(Iterable)
	if !ok {
		return nil, errz.TypeErrorf("'%s' object is not iterable", obj.Type())
	}
	return iterable.Iter(), nil
}

// Collect drains an iterable into a slice.
func Collect(obj Object) ([]Object, error) {
	switch obj := obj.(type) {
	case *List:
		return append([]Object(nil), obj.items...), nil
	case *Tuple:
		return append([]Object(nil), obj.items...), nil
	}
	it, err := GetIter(obj)
	if err != nil {
		return nil, err
	}
	var items []Object
	for {
		value, ok, err := it.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return items, nil
		}
		items = append(items, value)
	}
}
