package vm

import (
	"context"
	"strings"

	"github.com/cloudcmds/framevm/bytecode"
	"github.com/cloudcmds/framevm/errz"
	"github.com/cloudcmds/framevm/object"
	"github.com/cloudcmds/framevm/op"
)

// handler executes one instruction. Sequential handlers leave f.next at the
// following instruction; control-transfer handlers overwrite it.
type handler func(ctx context.Context, f *frame, ins *bytecode.Instruction) error

var handlers [256]handler

func init() {
	handlers = [256]handler{
		op.Nop:           func(context.Context, *frame, *bytecode.Instruction) error { return nil },
		op.PopTop:        opPopTop,
		op.RotTwo:        opRotate(2),
		op.RotThree:      opRotate(3),
		op.RotFour:       opRotate(4),
		op.DupTop:        opDupTop,
		op.DupTopTwo:     opDupTopTwo,
		op.UnaryPositive: opUnary(object.Positive),
		op.UnaryNegative: opUnary(object.Negate),
		op.UnaryInvert:   opUnary(object.Invert),
		op.UnaryNot: opUnary(func(obj object.Object) (object.Object, error) {
			return object.Not(obj), nil
		}),

		op.BinaryOp:   opBinary(object.BinaryOp),
		op.InplaceOp:  opBinary(object.InplaceOp),
		op.CompareOp:  opCompare,
		op.IsOp:       opIs,
		op.ContainsOp: opContains,

		op.BinarySubscr:     opBinarySubscr,
		op.StoreSubscr:      opStoreSubscr,
		op.DeleteSubscr:     opDeleteSubscr,
		op.BuildTuple:       opBuildTuple,
		op.BuildList:        opBuildList,
		op.BuildMap:         opBuildMap,
		op.BuildConstKeyMap: opBuildConstKeyMap,
		op.BuildString:      opBuildString,
		op.BuildSlice:       opBuildSlice,
		op.UnpackSequence:   opUnpackSequence,
		op.ListAppend:       opListAppend,
		op.ListExtend:       opListExtend,
		op.FormatValue:      opFormatValue,

		op.LoadConst:    opLoadConst,
		op.LoadName:     opLoad((*scope).loadName),
		op.LoadFast:     opLoad((*scope).loadFast),
		op.LoadGlobal:   opLoad((*scope).loadGlobal),
		op.StoreName:    opStore((*scope).storeLocal),
		op.StoreFast:    opStore((*scope).storeLocal),
		op.StoreGlobal:  opStore((*scope).storeGlobal),
		op.DeleteName:   opDelete((*scope).deleteName),
		op.DeleteFast:   opDelete((*scope).deleteFast),
		op.DeleteGlobal: opDelete((*scope).deleteGlobal),

		op.JumpForward:      opJump,
		op.JumpAbsolute:     opJump,
		op.PopJumpIfTrue:    opPopJumpIf(true),
		op.PopJumpIfFalse:   opPopJumpIf(false),
		op.JumpIfTrueOrPop:  opJumpIfOrPop(true),
		op.JumpIfFalseOrPop: opJumpIfOrPop(false),
		op.GetIter:          opGetIter,
		op.ForIter:          opForIter,
		op.ReturnValue:      opReturnValue,

		op.MakeFunction:   opMakeFunction,
		op.CallFunction:   opCallFunction,
		op.CallFunctionKw: opCallFunctionKw,
		op.CallFunctionEx: opCallFunctionEx,
		op.LoadMethod:     opLoadMethod,
		op.CallMethod:     opCallFunction,
	}
}

func opPopTop(ctx context.Context, f *frame, ins *bytecode.Instruction) error {
	_, err := f.stack.Pop()
	return err
}

// opRotate moves the top of the stack down to position n, lifting the
// n-1 values above it.
func opRotate(n int) handler {
	return func(ctx context.Context, f *frame, ins *bytecode.Instruction) error {
		values, err := f.stack.PopN(n)
		if err != nil {
			return err
		}
		f.stack.Push(values[n-1])
		f.stack.Push(values[:n-1]...)
		return nil
	}
}

func opDupTop(ctx context.Context, f *frame, ins *bytecode.Instruction) error {
	top, err := f.stack.Peek(0)
	if err != nil {
		return err
	}
	f.stack.Push(top)
	return nil
}

func opDupTopTwo(ctx context.Context, f *frame, ins *bytecode.Instruction) error {
	second, err := f.stack.Peek(1)
	if err != nil {
		return err
	}
	top, _ := f.stack.Peek(0)
	f.stack.Push(second, top)
	return nil
}

func opUnary(fn func(object.Object) (object.Object, error)) handler {
	return func(ctx context.Context, f *frame, ins *bytecode.Instruction) error {
		operand, err := f.stack.Pop()
		if err != nil {
			return err
		}
		result, err := fn(operand)
		if err != nil {
			return err
		}
		f.stack.Push(result)
		return nil
	}
}

func opBinary(fn func(op.BinaryOpType, object.Object, object.Object) (object.Object, error)) handler {
	return func(ctx context.Context, f *frame, ins *bytecode.Instruction) error {
		operands, err := f.stack.PopN(2)
		if err != nil {
			return err
		}
		result, err := fn(ins.ArgVal.(op.BinaryOpType), operands[0], operands[1])
		if err != nil {
			return err
		}
		f.stack.Push(result)
		return nil
	}
}

func opCompare(ctx context.Context, f *frame, ins *bytecode.Instruction) error {
	operands, err := f.stack.PopN(2)
	if err != nil {
		return err
	}
	result, err := object.Compare(ins.ArgVal.(op.CompareOpType), operands[0], operands[1])
	if err != nil {
		return err
	}
	f.stack.Push(result)
	return nil
}

func opIs(ctx context.Context, f *frame, ins *bytecode.Instruction) error {
	operands, err := f.stack.PopN(2)
	if err != nil {
		return err
	}
	result := object.Is(operands[0], operands[1])
	f.stack.Push(object.NewBool(result != (ins.Arg == 1)))
	return nil
}

func opContains(ctx context.Context, f *frame, ins *bytecode.Instruction) error {
	operands, err := f.stack.PopN(2)
	if err != nil {
		return err
	}
	found, err := object.Contains(operands[1], operands[0])
	if err != nil {
		return err
	}
	f.stack.Push(object.NewBool(found != (ins.Arg == 1)))
	return nil
}

func opBinarySubscr(ctx context.Context, f *frame, ins *bytecode.Instruction) error {
	operands, err := f.stack.PopN(2)
	if err != nil {
		return err
	}
	result, err := object.GetItem(operands[0], operands[1])
	if err != nil {
		return err
	}
	f.stack.Push(result)
	return nil
}

// opStoreSubscr implements TOS1[TOS] = TOS2.
func opStoreSubscr(ctx context.Context, f *frame, ins *bytecode.Instruction) error {
	operands, err := f.stack.PopN(3)
	if err != nil {
		return err
	}
	value, container, key := operands[0], operands[1], operands[2]
	return object.SetItem(container, key, value)
}

func opDeleteSubscr(ctx context.Context, f *frame, ins *bytecode.Instruction) error {
	operands, err := f.stack.PopN(2)
	if err != nil {
		return err
	}
	return object.DelItem(operands[0], operands[1])
}

func opBuildTuple(ctx context.Context, f *frame, ins *bytecode.Instruction) error {
	items, err := f.stack.PopN(ins.Arg)
	if err != nil {
		return err
	}
	f.stack.Push(object.NewTuple(items))
	return nil
}

func opBuildList(ctx context.Context, f *frame, ins *bytecode.Instruction) error {
	items, err := f.stack.PopN(ins.Arg)
	if err != nil {
		return err
	}
	f.stack.Push(object.NewList(items))
	return nil
}

func opBuildMap(ctx context.Context, f *frame, ins *bytecode.Instruction) error {
	items, err := f.stack.PopN(2 * ins.Arg)
	if err != nil {
		return err
	}
	dict := object.NewDict()
	for i := 0; i < len(items); i += 2 {
		if err := dict.Set(items[i], items[i+1]); err != nil {
			return err
		}
	}
	f.stack.Push(dict)
	return nil
}

func opBuildConstKeyMap(ctx context.Context, f *frame, ins *bytecode.Instruction) error {
	top, err := f.stack.Pop()
	if err != nil {
		return err
	}
	keys, ok := top.(*object.Tuple)
	if !ok || keys.Len() != ins.Arg {
		return errz.MalformedCodef("BUILD_CONST_KEY_MAP expected a tuple of %d keys (%s given)", ins.Arg, top.Inspect())
	}
	values, err := f.stack.PopN(ins.Arg)
	if err != nil {
		return err
	}
	dict := object.NewDict()
	for i, key := range keys.Value() {
		if err := dict.Set(key, values[i]); err != nil {
			return err
		}
	}
	f.stack.Push(dict)
	return nil
}

func opBuildString(ctx context.Context, f *frame, ins *bytecode.Instruction) error {
	items, err := f.stack.PopN(ins.Arg)
	if err != nil {
		return err
	}
	var b strings.Builder
	for _, item := range items {
		s, err := object.AsString(item)
		if err != nil {
			return err
		}
		b.WriteString(s)
	}
	f.stack.Push(object.NewString(b.String()))
	return nil
}

func opBuildSlice(ctx context.Context, f *frame, ins *bytecode.Instruction) error {
	if ins.Arg != 2 && ins.Arg != 3 {
		return errz.MalformedCodef("BUILD_SLICE argument must be 2 or 3 (got %d)", ins.Arg)
	}
	bounds, err := f.stack.PopN(ins.Arg)
	if err != nil {
		return err
	}
	step := object.Object(object.None)
	if ins.Arg == 3 {
		step = bounds[2]
	}
	f.stack.Push(object.NewSlice(bounds[0], bounds[1], step))
	return nil
}

// opUnpackSequence pushes the items of TOS right to left, leaving the first
// item on top.
func opUnpackSequence(ctx context.Context, f *frame, ins *bytecode.Instruction) error {
	seq, err := f.stack.Pop()
	if err != nil {
		return err
	}
	items, err := object.Collect(seq)
	if err != nil {
		return errz.TypeErrorf("cannot unpack non-iterable %s object", seq.Type())
	}
	if len(items) < ins.Arg {
		return errz.ValueErrorf("not enough values to unpack (expected %d, got %d)", ins.Arg, len(items))
	}
	if len(items) > ins.Arg {
		return errz.ValueErrorf("too many values to unpack (expected %d)", ins.Arg)
	}
	for i := len(items) - 1; i >= 0; i-- {
		f.stack.Push(items[i])
	}
	return nil
}

// listAt returns the list found arg entries deep once TOS has been popped.
func listAt(f *frame, arg int) (*object.List, error) {
	obj, err := f.stack.Peek(arg - 1)
	if err != nil {
		return nil, err
	}
	list, ok := obj.(*object.List)
	if !ok {
		return nil, errz.MalformedCodef("expected a list at stack depth %d (%s given)", arg, obj.Type())
	}
	return list, nil
}

func opListAppend(ctx context.Context, f *frame, ins *bytecode.Instruction) error {
	value, err := f.stack.Pop()
	if err != nil {
		return err
	}
	list, err := listAt(f, ins.Arg)
	if err != nil {
		return err
	}
	list.Append(value)
	return nil
}

func opListExtend(ctx context.Context, f *frame, ins *bytecode.Instruction) error {
	iterable, err := f.stack.Pop()
	if err != nil {
		return err
	}
	list, err := listAt(f, ins.Arg)
	if err != nil {
		return err
	}
	return list.Extend(iterable)
}

func opFormatValue(ctx context.Context, f *frame, ins *bytecode.Instruction) error {
	spec := ""
	if ins.Arg&op.FormatHasSpec != 0 {
		obj, err := f.stack.Pop()
		if err != nil {
			return err
		}
		if spec, err = object.AsString(obj); err != nil {
			return err
		}
	}
	value, err := f.stack.Pop()
	if err != nil {
		return err
	}
	switch ins.Arg & op.FormatConvMask {
	case op.FormatConvStr:
		value = object.NewString(object.Str(value))
	case op.FormatConvRepr:
		value = object.NewString(value.Inspect())
	case op.FormatConvNone:
	default:
		return errz.MalformedCodef("FORMAT_VALUE has unknown conversion %d", ins.Arg&op.FormatConvMask)
	}
	text, err := object.Format(value, spec)
	if err != nil {
		return err
	}
	f.stack.Push(object.NewString(text))
	return nil
}

func opLoadConst(ctx context.Context, f *frame, ins *bytecode.Instruction) error {
	f.stack.Push(f.code.constant(ins.Arg))
	return nil
}

func opLoad(load func(*scope, string) (object.Object, error)) handler {
	return func(ctx context.Context, f *frame, ins *bytecode.Instruction) error {
		obj, err := load(&f.scope, ins.ArgVal.(string))
		if err != nil {
			return err
		}
		f.stack.Push(obj)
		return nil
	}
}

func opStore(store func(*scope, string, object.Object)) handler {
	return func(ctx context.Context, f *frame, ins *bytecode.Instruction) error {
		obj, err := f.stack.Pop()
		if err != nil {
			return err
		}
		store(&f.scope, ins.ArgVal.(string), obj)
		return nil
	}
}

func opDelete(del func(*scope, string) error) handler {
	return func(ctx context.Context, f *frame, ins *bytecode.Instruction) error {
		return del(&f.scope, ins.ArgVal.(string))
	}
}

func opJump(ctx context.Context, f *frame, ins *bytecode.Instruction) error {
	return f.jump(ins)
}

// opPopJumpIf pops the test value and jumps when its truthiness equals when.
func opPopJumpIf(when bool) handler {
	return func(ctx context.Context, f *frame, ins *bytecode.Instruction) error {
		test, err := f.stack.Pop()
		if err != nil {
			return err
		}
		if test.IsTruthy() == when {
			return f.jump(ins)
		}
		return nil
	}
}

// opJumpIfOrPop jumps, leaving the test value on the stack, when its
// truthiness equals when; otherwise it pops the value.
func opJumpIfOrPop(when bool) handler {
	return func(ctx context.Context, f *frame, ins *bytecode.Instruction) error {
		test, err := f.stack.Peek(0)
		if err != nil {
			return err
		}
		if test.IsTruthy() == when {
			return f.jump(ins)
		}
		_, err = f.stack.Pop()
		return err
	}
}

func opGetIter(ctx context.Context, f *frame, ins *bytecode.Instruction) error {
	obj, err := f.stack.Pop()
	if err != nil {
		return err
	}
	iter, err := object.GetIter(obj)
	if err != nil {
		return err
	}
	f.stack.Push(iter)
	return nil
}

// opForIter pushes the next value of the iterator on TOS. On exhaustion it
// pops the iterator and jumps.
func opForIter(ctx context.Context, f *frame, ins *bytecode.Instruction) error {
	top, err := f.stack.Peek(0)
	if err != nil {
		return err
	}
	iter, ok := top.(object.Iterator)
	if !ok {
		return errz.TypeErrorf("'%s' object is not an iterator", top.Type())
	}
	value, ok, err := iter.Next()
	if err != nil {
		return err
	}
	if ok {
		f.stack.Push(value)
		return nil
	}
	if _, err := f.stack.Pop(); err != nil {
		return err
	}
	return f.jump(ins)
}

func opReturnValue(ctx context.Context, f *frame, ins *bytecode.Instruction) error {
	result, err := f.stack.Pop()
	if err != nil {
		return err
	}
	f.result = result
	f.returned = true
	return nil
}

func opMakeFunction(ctx context.Context, f *frame, ins *bytecode.Instruction) error {
	fn, err := f.buildFunction(ins.Arg)
	if err != nil {
		return err
	}
	f.stack.Push(fn)
	return nil
}

// opCallFunction implements CALL_FUNCTION and CALL_METHOD: the callable is
// below argc positional arguments.
func opCallFunction(ctx context.Context, f *frame, ins *bytecode.Instruction) error {
	args, err := f.stack.PopN(ins.Arg)
	if err != nil {
		return err
	}
	fn, err := f.stack.Pop()
	if err != nil {
		return err
	}
	return f.call(ctx, fn, args, nil)
}

// opCallFunctionKw pops a tuple of keyword names, then argc values of which
// the last len(names) are keyword values, then the callable.
func opCallFunctionKw(ctx context.Context, f *frame, ins *bytecode.Instruction) error {
	top, err := f.stack.Pop()
	if err != nil {
		return err
	}
	names, ok := top.(*object.Tuple)
	if !ok {
		return errz.MalformedCodef("CALL_FUNCTION_KW expected a tuple of keyword names (%s given)", top.Type())
	}
	if names.Len() > ins.Arg {
		return errz.MalformedCodef("CALL_FUNCTION_KW has %d keyword names for %d arguments", names.Len(), ins.Arg)
	}
	values, err := f.stack.PopN(ins.Arg)
	if err != nil {
		return err
	}
	fn, err := f.stack.Pop()
	if err != nil {
		return err
	}
	split := ins.Arg - names.Len()
	kwargs, err := keywordsFromNames(names, values[split:])
	if err != nil {
		return err
	}
	return f.call(ctx, fn, values[:split], kwargs)
}

// opCallFunctionEx pops an optional keyword mapping, an iterable of
// positional arguments and the callable.
func opCallFunctionEx(ctx context.Context, f *frame, ins *bytecode.Instruction) error {
	var kwargs *object.Dict
	if ins.Arg&op.CallHasKwargs != 0 {
		obj, err := f.stack.Pop()
		if err != nil {
			return err
		}
		dict, ok := obj.(*object.Dict)
		if !ok {
			return errz.TypeErrorf("argument after ** must be a mapping, not %s", obj.Type())
		}
		kwargs = dict
	}
	iterable, err := f.stack.Pop()
	if err != nil {
		return err
	}
	args, err := object.Collect(iterable)
	if err != nil {
		return errz.TypeErrorf("argument after * must be an iterable, not %s", iterable.Type())
	}
	fn, err := f.stack.Pop()
	if err != nil {
		return err
	}
	return f.call(ctx, fn, args, kwargs)
}

// opLoadMethod replaces TOS with the named method bound to it.
func opLoadMethod(ctx context.Context, f *frame, ins *bytecode.Instruction) error {
	receiver, err := f.stack.Pop()
	if err != nil {
		return err
	}
	method, err := object.GetAttr(receiver, ins.ArgVal.(string))
	if err != nil {
		return err
	}
	f.stack.Push(method)
	return nil
}

func (f *frame) call(ctx context.Context, fn object.Object, args []object.Object, kwargs *object.Dict) error {
	result, err := f.vm.callObject(ctx, fn, args, kwargs)
	if err != nil {
		return err
	}
	f.stack.Push(result)
	return nil
}
