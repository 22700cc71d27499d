package object

import (
	"fmt"

	"github.com/cloudcmds/framevm/errz"
	"github.com/cloudcmds/framevm/op"
)

// Range represents a lazy sequence of integers. It stores start, stop, and
// step values and generates integers on demand.
type Range struct {
	start int64
	stop  int64
	step  int64
}

// NewRange creates a new Range object. A zero step is a value fault.
func NewRange(start, stop, step int64) (*Range, error) {
	if step == 0 {
		return nil, errz.ValueErrorf("range() arg 3 must not be zero")
	}
	return &Range{start: start, stop: stop, step: step}, nil
}

func (r *Range) Type() Type {
	return RANGE
}

func (r *Range) Start() int64 {
	return r.start
}

func (r *Range) Stop() int64 {
	return r.stop
}

func (r *Range) Step() int64 {
	return r.step
}

func (r *Range) Inspect() string {
	if r.step == 1 {
		return fmt.Sprintf("range(%d, %d)", r.start, r.stop)
	}
	return fmt.Sprintf("range(%d, %d, %d)", r.start, r.stop, r.step)
}

func (r *Range) String() string {
	return r.Inspect()
}

func (r *Range) Interface() any {
	values := make([]any, 0, r.Len())
	for i := 0; i < r.Len(); i++ {
		values = append(values, r.at(i))
	}
	return values
}

// Equals compares ranges by the sequences they produce.
func (r *Range) Equals(other Object) bool {
	o, ok := other.(*Range)
	if !ok {
		return false
	}
	n := r.Len()
	if n != o.Len() {
		return false
	}
	if n == 0 {
		return true
	}
	if r.start != o.start {
		return false
	}
	return n == 1 || r.step == o.step
}

func (r *Range) IsTruthy() bool {
	return r.Len() > 0
}

func (r *Range) RunOperation(opType op.BinaryOpType, right Object) (Object, error) {
	return nil, unsupportedOperand(opType, r, right)
}

func (r *Range) Len() int {
	if r.step > 0 {
		if r.start >= r.stop {
			return 0
		}
		return int((r.stop - r.start + r.step - 1) / r.step)
	}
	if r.start <= r.stop {
		return 0
	}
	return int((r.start - r.stop - r.step - 1) / -r.step)
}

func (r *Range) at(i int) int64 {
	return r.start + int64(i)*r.step
}

func (r *Range) GetItem(key Object) (Object, error) {
	if slice, ok := key.(*Slice); ok {
		indices, err := slice.Indices(r.Len())
		if err != nil {
			return nil, err
		}
		items := make([]Object, 0, len(indices))
		for _, i := range indices {
			items = append(items, NewInt(r.at(i)))
		}
		return NewList(items), nil
	}
	index, err := AsIndex(key, "range")
	if err != nil {
		return nil, err
	}
	i, err := ResolveIndex(index, r.Len(), "range object")
	if err != nil {
		return nil, err
	}
	return NewInt(r.at(i)), nil
}

func (r *Range) Contains(item Object) (bool, error) {
	var v int64
	switch item := item.(type) {
	case *Int:
		v = item.value
	case *Bool:
		v = item.asInt()
	default:
		return false, nil
	}
	if r.step > 0 {
		if v < r.start || v >= r.stop {
			return false, nil
		}
	} else if v > r.start || v <= r.stop {
		return false, nil
	}
	return (v-r.start)%r.step == 0, nil
}

func (r *Range) Iter() Iterator {
	pos := 0
	n := r.Len()
	return NewIter("range_iterator", func() (Object, bool, error) {
		if pos >= n {
			return nil, false, nil
		}
		pos++
		return NewInt(r.at(pos - 1)), true, nil
	})
}
