package vm

import (
	"context"

	"github.com/cloudcmds/framevm/errz"
	"github.com/cloudcmds/framevm/object"
)

// callObject invokes a callable value. Closures run in a new frame; any other
// callable is host code and is invoked directly. A host callable that returns
// no value and no error yields None.
func (vm *VirtualMachine) callObject(ctx context.Context, fn object.Object, args []object.Object, kwargs *object.Dict) (object.Object, error) {
	var result object.Object
	var err error
	switch callable := fn.(type) {
	case *object.Function:
		return vm.callFunction(ctx, callable, args, kwargs)
	case object.KeywordCallable:
		result, err = callable.CallWithKeywords(ctx, args, kwargs)
	case object.Callable:
		if kwargs.Len() > 0 {
			return nil, errz.TypeErrorf("%s takes no keyword arguments", fn.Inspect())
		}
		result, err = callable.Call(ctx, args...)
	default:
		return nil, errz.TypeErrorf("'%s' object is not callable", fn.Type())
	}
	if err != nil {
		return nil, err
	}
	if result == nil {
		return object.None, nil
	}
	return result, nil
}

// callFunction binds the arguments of a closure and runs its code in a new
// frame whose caller is the active frame. It is also installed in the
// context so host callables can call back into closures.
func (vm *VirtualMachine) callFunction(ctx context.Context, fn *object.Function, args []object.Object, kwargs *object.Dict) (object.Object, error) {
	caller := vm.active
	depth := 1
	if caller != nil {
		depth = caller.depth + 1
	}
	if depth > vm.maxFrameDepth {
		return nil, errz.New(errz.ErrRecursion,
			"maximum frame depth of %d exceeded calling %s()", vm.maxFrameDepth, fn.Name())
	}
	code, err := vm.loadCode(fn.Code())
	if err != nil {
		return nil, err
	}
	locals, err := bindArguments(fn.Code(), fn.Defaults(), fn.KwDefaults(), fn.Snapshot(), args, kwargs)
	if err != nil {
		return nil, err
	}

	if vm.observer != nil && vm.observerCfg.ObserveCalls {
		if !vm.observer.OnCall(CallEvent{
			FunctionName: fn.Name(),
			ArgCount:     len(args),
			KwargCount:   kwargs.Len(),
			FrameDepth:   depth,
		}) {
			return nil, errz.New(errz.ErrHalted, "execution halted by observer")
		}
	}
	vm.log.Trace().Str("function", fn.Name()).Int("depth", depth).Msg("call")

	f := newFrame(vm, code, fn, scope{
		locals:   locals,
		globals:  vm.globals,
		builtins: vm.builtins,
	}, caller)
	result, err := vm.runFrame(ctx, f)
	if err != nil {
		return nil, err
	}

	vm.log.Trace().Str("function", fn.Name()).Int("depth", depth).Msg("return")
	if vm.observer != nil && vm.observerCfg.ObserveReturns {
		if !vm.observer.OnReturn(ReturnEvent{
			FunctionName: fn.Name(),
			Value:        result,
			FrameDepth:   depth,
		}) {
			return nil, errz.New(errz.ErrHalted, "execution halted by observer")
		}
	}
	return result, nil
}

// keywordsFromNames pairs CALL_FUNCTION_KW keyword names with the trailing
// argument values.
func keywordsFromNames(names *object.Tuple, values []object.Object) (*object.Dict, error) {
	kwargs := object.NewDict()
	for i, item := range names.Value() {
		name, ok := item.(*object.String)
		if !ok {
			return nil, errz.TypeErrorf("keywords must be strings, not %s", item.Type())
		}
		if _, exists := kwargs.GetString(name.Value()); exists {
			return nil, errz.TypeErrorf("keyword argument repeated: %s", name.Value())
		}
		kwargs.SetString(name.Value(), values[i])
	}
	return kwargs, nil
}
