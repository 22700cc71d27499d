package vm

import (
	"github.com/cloudcmds/framevm/errz"
	"github.com/cloudcmds/framevm/object"
	"github.com/cloudcmds/framevm/op"
)

// buildFunction implements MAKE_FUNCTION. The code value is on top of the
// stack, followed by the keyword-only defaults mapping and then the
// positional defaults tuple when the flags call for them.
func (f *frame) buildFunction(flags int) (*object.Function, error) {
	if flags&(op.MakeAnnotations|op.MakeClosure) != 0 {
		return nil, errz.MalformedCodef("%s: unsupported MAKE_FUNCTION flags 0x%02x", f.code.Name(), flags)
	}
	top, err := f.stack.Pop()
	if err != nil {
		return nil, err
	}
	codeValue, ok := top.(*object.CodeValue)
	if !ok {
		return nil, errz.MalformedCodef("MAKE_FUNCTION expected a code object (%s given)", top.Type())
	}
	var kwDefaults *object.Dict
	if flags&op.MakeKwDefaults != 0 {
		obj, err := f.stack.Pop()
		if err != nil {
			return nil, err
		}
		if kwDefaults, ok = obj.(*object.Dict); !ok {
			return nil, errz.TypeErrorf("keyword-only defaults must be a dict (%s given)", obj.Type())
		}
		kwDefaults = kwDefaults.Copy()
	}
	var defaults []object.Object
	if flags&op.MakeDefaults != 0 {
		obj, err := f.stack.Pop()
		if err != nil {
			return nil, err
		}
		tuple, ok := obj.(*object.Tuple)
		if !ok {
			return nil, errz.TypeErrorf("positional defaults must be a tuple (%s given)", obj.Type())
		}
		defaults = tuple.Value()
	}
	return object.NewFunction(codeValue.Code(), defaults, kwDefaults, f.scope.snapshot()), nil
}
