package object

import (
	"fmt"

	"github.com/cloudcmds/framevm/errz"
	"github.com/cloudcmds/framevm/op"
)

// Slice is the value produced by BUILD_SLICE. Missing bounds are None.
type Slice struct {
	Start Object
	Stop  Object
	Step  Object
}

func NewSlice(start, stop, step Object) *Slice {
	if start == nil {
		start = None
	}
	if stop == nil {
		stop = None
	}
	if step == nil {
		step = None
	}
	return &Slice{Start: start, Stop: stop, Step: step}
}

func (s *Slice) Type() Type {
	return SLICE
}

func (s *Slice) Inspect() string {
	return fmt.Sprintf("slice(%s, %s, %s)", s.Start.Inspect(), s.Stop.Inspect(), s.Step.Inspect())
}

func (s *Slice) Interface() any {
	return nil
}

func (s *Slice) Equals(other Object) bool {
	o, ok := other.(*Slice)
	return ok && s.Start.Equals(o.Start) && s.Stop.Equals(o.Stop) && s.Step.Equals(o.Step)
}

func (s *Slice) IsTruthy() bool {
	return true
}

func (s *Slice) RunOperation(opType op.BinaryOpType, right Object) (Object, error) {
	return nil, unsupportedOperand(opType, s, right)
}

// Indices returns the positions selected by the slice in a sequence of the
// given length, in selection order.
func (s *Slice) Indices(length int) ([]int, error) {
	step := 1
	if s.Step != None {
		n, err := AsIndex(s.Step, "slice")
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return nil, errz.ValueErrorf("slice step cannot be zero")
		}
		step = int(n)
	}
	var lower, upper int
	if step > 0 {
		lower, upper = 0, length
	} else {
		lower, upper = -1, length-1
	}
	bound := func(obj Object, def int) (int, error) {
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
			if v < lower {
				v = lower
			}
		} else if v > upper {
			v = upper
		}
		return v, nil
	}
	var start, stop int
	var err error
	if step > 0 {
		if start, err = bound(s.Start, lower); err != nil {
			return nil, err
		}
		if stop, err = bound(s.Stop, upper); err != nil {
			return nil, err
		}
	} else {
		if start, err = bound(s.Start, upper); err != nil {
			return nil, err
		}
		if stop, err = bound(s.Stop, lower); err != nil {
			return nil, err
		}
	}
	var indices []int
	// Each loop stops before the next step could pass the bound, so a huge
	// step never overflows the index.
	if step > 0 {
		for i := start; i < stop; i += step {
			indices = append(indices, i)
			if step >= stop-i {
				break
			}
		}
	} else {
		for i := start; i > stop; i += step {
			indices = append(indices, i)
			if step <= stop-i {
				break
			}
		}
	}
	return indices, nil
}
