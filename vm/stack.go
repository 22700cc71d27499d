package vm

import (
	"github.com/cloudcmds/framevm/errz"
	"github.com/cloudcmds/framevm/object"
)

// stack is the operand stack of a single frame. It is never shared between
// frames.
type stack struct {
	items []object.Object
}

func newStack(capacity int) *stack {
	return &stack{items: make([]object.Object, 0, capacity)}
}

// Push adds values to the top of the stack, leftmost first.
func (s *stack) Push(values ...object.Object) {
	s.items = append(s.items, values...)
}

// Pop removes and returns the top of the stack.
func (s *stack) Pop() (object.Object, error) {
	n := len(s.items)
	if n == 0 {
		return nil, errz.New(errz.ErrStackUnderflow, "pop from empty operand stack")
	}
	obj := s.items[n-1]
	s.items[n-1] = nil
	s.items = s.items[:n-1]
	return obj, nil
}

// Peek returns the value depth entries below the top without removing it.
// Peek(0) is the top of the stack.
func (s *stack) Peek(depth int) (object.Object, error) {
	n := len(s.items)
	if depth < 0 || depth >= n {
		return nil, errz.New(errz.ErrStackUnderflow,
			"peek at depth %d of operand stack holding %d values", depth, n)
	}
	return s.items[n-1-depth], nil
}

// PopN removes the k topmost values and returns them in their original
// bottom-to-top order, so the first element was the deepest.
func (s *stack) PopN(k int) ([]object.Object, error) {
	n := len(s.items)
	if k < 0 || k > n {
		return nil, errz.New(errz.ErrStackUnderflow,
			"pop of %d values from operand stack holding %d", k, n)
	}
	values := make([]object.Object, k)
	copy(values, s.items[n-k:])
	for i := n - k; i < n; i++ {
		s.items[i] = nil
	}
	s.items = s.items[:n-k]
	return values, nil
}

// Set replaces the value depth entries below the top.
func (s *stack) Set(depth int, obj object.Object) error {
	n := len(s.items)
	if depth < 0 || depth >= n {
		return errz.New(errz.ErrStackUnderflow,
			"set at depth %d of operand stack holding %d values", depth, n)
	}
	s.items[n-1-depth] = obj
	return nil
}

// Len returns the number of values on the stack.
func (s *stack) Len() int {
	return len(s.items)
}
