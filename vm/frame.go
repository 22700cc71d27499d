package vm

import (
	"context"
	"errors"

	"github.com/cloudcmds/framevm/bytecode"
	"github.com/cloudcmds/framevm/errz"
	"github.com/cloudcmds/framevm/object"
)

// frame is one activation of a code object. It owns its operand stack and
// fast-locals; globals are shared and builtins are read-only. The caller
// link is kept for stack traces and is never used to reach into the
// caller's state.
type frame struct {
	vm     *VirtualMachine
	code   *loadedCode
	fn     *object.Function
	scope  scope
	stack  *stack
	caller *frame
	depth  int

	// ip is the offset of the instruction being executed; next is the
	// offset the loop moves to once its handler returns.
	ip      int
	next    int
	current bytecode.Instruction

	returned bool
	result   object.Object
}

func newFrame(vm *VirtualMachine, code *loadedCode, fn *object.Function, sc scope, caller *frame) *frame {
	depth := 1
	if caller != nil {
		depth = caller.depth + 1
	}
	return &frame{
		vm:     vm,
		code:   code,
		fn:     fn,
		scope:  sc,
		stack:  newStack(8),
		caller: caller,
		depth:  depth,
		result: object.None,
	}
}

// name returns the function name shown in stack traces.
func (f *frame) name() string {
	if name := f.code.Name(); name != "" {
		return name
	}
	if f.fn == nil {
		return "<main>"
	}
	return "<anonymous>"
}

// jump transfers control to the target of the current instruction.
func (f *frame) jump(ins *bytecode.Instruction) error {
	target, ok := ins.Target()
	if !ok {
		return errz.MalformedCodef("%s: %s at offset %d has no jump target", f.code.Name(), ins.Op, ins.Offset)
	}
	f.next = target
	return nil
}

// run executes instructions until a return instruction stores the result.
func (f *frame) run(ctx context.Context) (object.Object, error) {
	listing := f.code.listing
	for !f.returned {
		ins, ok := listing.Lookup(f.ip)
		if !ok {
			if f.ip >= listing.End() {
				return nil, f.fault(errz.MalformedCodef("%s: reached the end of the instruction stream without returning",
					f.code.Name()))
			}
			return nil, f.fault(errz.MalformedCodef("%s: no instruction starts at offset %d", f.code.Name(), f.ip))
		}
		f.current = ins
		if !f.vm.observeStep(f, &ins) {
			return nil, f.fault(errz.New(errz.ErrHalted, "execution halted by observer"))
		}
		handler := handlers[ins.Op]
		if handler == nil {
			return nil, f.fault(errz.MalformedCodef("%s: no handler for %s", f.code.Name(), ins.Op))
		}
		f.next = ins.Next()
		if err := handler(ctx, f, &ins); err != nil {
			return nil, f.fault(err)
		}
		f.ip = f.next
	}
	if n := f.stack.Len(); n > 0 {
		f.vm.log.Debug().
			Str("function", f.name()).
			Int("depth", f.depth).
			Int("values", n).
			Msg("operand stack not empty after return")
	}
	return f.result, nil
}

// fault records this frame's depth and the active frame chain on the first
// fault of err's chain, unless an inner frame already did. Errors that are
// not faults are wrapped as runtime faults.
func (f *frame) fault(err error) error {
	var fault *errz.Fault
	if !errors.As(err, &fault) {
		fault = errz.Wrap(errz.ErrRuntime, err)
		err = fault
	}
	if fault.HasStack() {
		return err
	}
	fault.Depth = f.depth
	fault.Stack = f.captureStack()
	return err
}

// captureStack builds a stack trace from this frame outwards.
func (f *frame) captureStack() []errz.StackFrame {
	var frames []errz.StackFrame
	for fr := f; fr != nil; fr = fr.caller {
		frames = append(frames, errz.StackFrame{
			Function: fr.name(),
			Filename: fr.code.Filename(),
			Offset:   fr.current.Offset,
			Opname:   fr.current.Op.String(),
		})
	}
	return frames
}
