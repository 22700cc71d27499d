package vm

import (
	"bytes"
	"context"
	"errors"
	"math"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/cloudcmds/framevm/bytecode"
	"github.com/cloudcmds/framevm/errz"
	"github.com/cloudcmds/framevm/object"
	"github.com/cloudcmds/framevm/op"
)

func assemble(t *testing.T, asm *bytecode.Assembler) *bytecode.Code {
	t.Helper()
	code, err := asm.Assemble()
	require.NoError(t, err)
	return code
}

func mustRun(t *testing.T, code *bytecode.Code, opts ...Option) object.Object {
	t.Helper()
	result, err := Run(context.Background(), code, opts...)
	require.NoError(t, err)
	return result
}

func runFault(t *testing.T, code *bytecode.Code, opts ...Option) *errz.Fault {
	t.Helper()
	_, err := Run(context.Background(), code, opts...)
	require.Error(t, err)
	var fault *errz.Fault
	require.True(t, errors.As(err, &fault), "expected a fault, got %v", err)
	return fault
}

// define emits MAKE_FUNCTION for fn and stores the closure under name.
func define(asm *bytecode.Assembler, fn *bytecode.Code, name string) *bytecode.Assembler {
	return asm.LoadConst(fn).Emit(op.MakeFunction, 0).StoreName(name)
}

func stackFunctions(fault *errz.Fault) []string {
	var names []string
	for _, frame := range fault.Stack {
		names = append(names, frame.Function)
	}
	return names
}

func TestRunReturnsTopOfStack(t *testing.T) {
	code := assemble(t, bytecode.NewAssembler("main").
		LoadConst(6).
		LoadConst(7).
		Emit(op.BinaryOp, int(op.Multiply)).
		Return())
	result := mustRun(t, code)
	require.Equal(t, int64(42), result.(*object.Int).Value())
}

func TestArgumentBindingThroughCalls(t *testing.T) {
	// def f(a, /, b, c=10, *, d=20): return (a, b, c, d)
	fn := assemble(t, bytecode.NewAssembler("f").
		Params([]string{"a"}, []string{"b", "c"}, []string{"d"}, "", "").
		LoadFast("a").LoadFast("b").LoadFast("c").LoadFast("d").
		Emit(op.BuildTuple, 4).
		Return())

	main := bytecode.NewAssembler("main")
	main.LoadConst([]any{10})
	main.LoadConst(20).LoadConst([]any{"d"}).Emit(op.BuildConstKeyMap, 1)
	main.LoadConst(fn).Emit(op.MakeFunction, op.MakeDefaults|op.MakeKwDefaults).StoreName("f")
	main.LoadName("f").LoadConst(1).LoadConst(2).Emit(op.CallFunction, 2).StoreName("r1")
	main.LoadName("f").LoadConst(1).LoadConst(2).LoadConst(3).Emit(op.CallFunction, 3).StoreName("r2")
	main.LoadName("f").LoadConst(1).LoadConst(2).LoadConst(99).LoadConst([]any{"d"}).
		Emit(op.CallFunctionKw, 3).StoreName("r3")
	main.LoadConst(nil).Return()

	machine, err := New(assemble(t, main))
	require.NoError(t, err)
	result, err := machine.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, object.None, result)

	globals := machine.Globals()
	require.Equal(t, "(1, 2, 10, 20)", globals["r1"].Inspect())
	require.Equal(t, "(1, 2, 3, 20)", globals["r2"].Inspect())
	require.Equal(t, "(1, 2, 10, 99)", globals["r3"].Inspect())
	require.Equal(t, "<function f>", globals["f"].Inspect())
}

func TestCallArityFaults(t *testing.T) {
	fn := assemble(t, bytecode.NewAssembler("f").
		Params(nil, []string{"a"}, nil, "", "").
		LoadFast("a").
		Return())

	tooMany := bytecode.NewAssembler("main")
	define(tooMany, fn, "f")
	tooMany.LoadName("f").LoadConst(1).LoadConst(2).Emit(op.CallFunction, 2).Return()
	fault := runFault(t, assemble(t, tooMany))
	require.Equal(t, errz.ErrArity, fault.Kind)
	require.Equal(t, "f() takes 1 positional argument but 2 were given", fault.Message)
	require.Equal(t, 1, fault.Depth)
	require.Equal(t, "CALL_FUNCTION", fault.Stack[0].Opname)

	unexpected := bytecode.NewAssembler("main")
	define(unexpected, fn, "f")
	unexpected.LoadName("f").LoadConst(1).LoadConst(2).LoadConst([]any{"z"}).
		Emit(op.CallFunctionKw, 2).Return()
	fault = runFault(t, assemble(t, unexpected))
	require.Equal(t, errz.ErrUnexpectedKeyword, fault.Kind)
	require.Equal(t, "f() got an unexpected keyword argument 'z'", fault.Message)
}

func TestScopePrecedence(t *testing.T) {
	// def g(x): return (x, <global x>, <name y>, <global len>)
	g := assemble(t, bytecode.NewAssembler("g").
		Params(nil, []string{"x"}, nil, "", "").
		LoadName("x").
		LoadGlobal("x").
		LoadName("y").
		LoadGlobal("len").
		Emit(op.BuildTuple, 4).
		Return())
	opts := []Option{
		WithGlobals(map[string]any{"x": "global"}),
		WithBuiltins(map[string]object.Object{
			"x":   object.NewString("builtin"),
			"y":   object.NewString("by"),
			"len": object.NewString("blen"),
		}),
	}

	// y becomes a global only after g is built, so it is absent from g's
	// snapshot and LOAD_NAME y reaches the builtins before the globals.
	main := bytecode.NewAssembler("main")
	define(main, g, "g")
	main.LoadConst("gy").StoreName("y")
	main.LoadName("g").LoadConst("local").Emit(op.CallFunction, 1).Return()
	result := mustRun(t, assemble(t, main), opts...)
	require.Equal(t, "('local', 'global', 'by', 'blen')", result.Inspect())

	// Built after y is stored, g snapshots the top-level bindings and
	// LOAD_NAME y finds y among its fast-locals.
	main = bytecode.NewAssembler("main")
	main.LoadConst("gy").StoreName("y")
	define(main, g, "g")
	main.LoadName("g").LoadConst("local").Emit(op.CallFunction, 1).Return()
	result = mustRun(t, assemble(t, main), opts...)
	require.Equal(t, "('local', 'global', 'gy', 'blen')", result.Inspect())

	// At the top level the fast-locals are the globals.
	module := assemble(t, bytecode.NewAssembler("main").LoadName("y").Return())
	global := WithGlobals(map[string]any{"y": "gy"})
	require.Equal(t, "'gy'", mustRun(t, module, append(opts, global)...).Inspect())
}

func TestLookupFaults(t *testing.T) {
	fn := assemble(t, bytecode.NewAssembler("f").LoadFast("z").Return())
	main := bytecode.NewAssembler("main")
	define(main, fn, "f")
	main.LoadName("f").Emit(op.CallFunction, 0).Return()
	fault := runFault(t, assemble(t, main))
	require.Equal(t, errz.ErrUnboundLocal, fault.Kind)
	require.Equal(t, "unbound local error: local variable 'z' referenced before assignment", fault.Error())
	require.Equal(t, 2, fault.Depth)

	fault = runFault(t, assemble(t, bytecode.NewAssembler("main").LoadName("missing").Return()))
	require.Equal(t, "name error: name 'missing' is not defined", fault.Error())

	fault = runFault(t, assemble(t, bytecode.NewAssembler("main").LoadGlobal("missing").Return()))
	require.Equal(t, errz.ErrName, fault.Kind)

	deleted := bytecode.NewAssembler("main")
	deleted.LoadConst(1).StoreName("x")
	deleted.Emit(op.DeleteName, deleted.Name("x"))
	deleted.LoadName("x").Return()
	fault = runFault(t, assemble(t, deleted))
	require.Equal(t, errz.ErrName, fault.Kind)
	require.Equal(t, "LOAD_NAME", fault.Stack[0].Opname)
}

func TestRecursiveClosuresHaveIndependentLocals(t *testing.T) {
	// def fact(n):
	//     if n <= 1: return 1
	//     m = n
	//     sub = fact(n - 1)
	//     return m * sub
	fact := bytecode.NewAssembler("fact").Params(nil, []string{"n"}, nil, "", "")
	fact.LoadFast("n").LoadConst(1).Emit(op.CompareOp, int(op.LessThanOrEqual))
	fact.EmitJump(op.PopJumpIfFalse, "recurse")
	fact.LoadConst(1).Return()
	fact.Label("recurse")
	fact.LoadFast("n").StoreFast("m")
	fact.LoadGlobal("fact").LoadFast("n").LoadConst(1).Emit(op.BinaryOp, int(op.Subtract))
	fact.Emit(op.CallFunction, 1).StoreFast("sub")
	fact.LoadFast("m").LoadFast("sub").Emit(op.BinaryOp, int(op.Multiply)).Return()

	main := bytecode.NewAssembler("main")
	define(main, assemble(t, fact), "fact")
	main.LoadName("fact").LoadConst(5).Emit(op.CallFunction, 1).Return()

	result := mustRun(t, assemble(t, main))
	require.Equal(t, int64(120), result.(*object.Int).Value())
}

func TestClosureSnapshot(t *testing.T) {
	// inner reads x from its snapshot, then rebinds x in its own frame.
	inner := assemble(t, bytecode.NewAssembler("inner").
		LoadName("x").
		LoadConst(100).StoreName("x").
		Return())

	outer := bytecode.NewAssembler("outer")
	outer.LoadConst(1).StoreFast("x")
	outer.LoadConst(inner).Emit(op.MakeFunction, 0).StoreFast("fn")
	outer.LoadConst(2).StoreFast("x")
	outer.LoadFast("fn").Emit(op.CallFunction, 0)
	outer.LoadFast("fn").Emit(op.CallFunction, 0)
	outer.LoadFast("x")
	outer.Emit(op.BuildTuple, 3).Return()

	main := bytecode.NewAssembler("main")
	define(main, assemble(t, outer), "outer")
	main.LoadName("outer").Emit(op.CallFunction, 0).Return()

	result := mustRun(t, assemble(t, main))
	require.Equal(t, "(1, 1, 2)", result.Inspect())
}

func TestGlobalsAreShared(t *testing.T) {
	setter := assemble(t, bytecode.NewAssembler("setter").
		LoadConst(5).StoreGlobal("counter").
		LoadConst(nil).Return())
	main := bytecode.NewAssembler("main")
	define(main, setter, "setter")
	main.LoadName("setter").Emit(op.CallFunction, 0).Emit(op.PopTop, 0)
	main.LoadName("counter").Return()

	result := mustRun(t, assemble(t, main))
	require.Equal(t, int64(5), result.(*object.Int).Value())
}

func TestConditionalJumps(t *testing.T) {
	tests := []struct {
		opcode   op.Code
		test     any
		expected string
	}{
		{op.PopJumpIfTrue, true, "jumped"},
		{op.PopJumpIfTrue, false, "next"},
		{op.PopJumpIfTrue, 0, "next"},
		{op.PopJumpIfTrue, "x", "jumped"},
		{op.PopJumpIfFalse, false, "jumped"},
		{op.PopJumpIfFalse, true, "next"},
		{op.PopJumpIfFalse, "", "jumped"},
		{op.PopJumpIfFalse, 2.5, "next"},
	}
	for _, tt := range tests {
		t.Run(tt.opcode.String(), func(t *testing.T) {
			code := assemble(t, bytecode.NewAssembler("main").
				LoadConst(tt.test).
				EmitJump(tt.opcode, "target").
				LoadConst("next").Return().
				Label("target").
				LoadConst("jumped").Return())

			listing, err := bytecode.Decode(code)
			require.NoError(t, err)
			target, ok := listing.At(1).Target()
			require.True(t, ok)
			landing, ok := listing.Lookup(target)
			require.True(t, ok)
			require.Equal(t, "jumped", landing.ArgVal)

			result := mustRun(t, code)
			require.Equal(t, tt.expected, result.(*object.String).Value())
		})
	}
}

type stepRecorder struct {
	NoOpObserver
	Steps   []StepEvent
	Calls   []CallEvent
	Returns []ReturnEvent
}

func (o *stepRecorder) OnStep(event StepEvent) bool {
	o.Steps = append(o.Steps, event)
	return true
}

func (o *stepRecorder) OnCall(event CallEvent) bool {
	o.Calls = append(o.Calls, event)
	return true
}

func (o *stepRecorder) OnReturn(event ReturnEvent) bool {
	o.Returns = append(o.Returns, event)
	return true
}

func TestJumpOrPop(t *testing.T) {
	tests := []struct {
		opcode   op.Code
		test     any
		expected string
	}{
		{op.JumpIfTrueOrPop, 7, "7"},
		{op.JumpIfTrueOrPop, 0, "'popped'"},
		{op.JumpIfFalseOrPop, 0, "0"},
		{op.JumpIfFalseOrPop, 7, "'popped'"},
	}
	for _, tt := range tests {
		code := assemble(t, bytecode.NewAssembler("main").
			LoadConst(tt.test).
			EmitJump(tt.opcode, "end").
			LoadConst("popped").
			Label("end").
			Return())
		recorder := &stepRecorder{}
		result := mustRun(t, code, WithObserver(recorder))
		require.Equal(t, tt.expected, result.Inspect())

		last := recorder.Steps[len(recorder.Steps)-1]
		require.Equal(t, op.ReturnValue, last.Opcode)
		require.Equal(t, 1, last.StackDepth)
	}
}

func TestForIterLoop(t *testing.T) {
	main := bytecode.NewAssembler("main")
	main.LoadConst(0).StoreName("total")
	main.LoadConst([]any{1, 2, 3, 4}).Emit(op.GetIter, 0)
	main.Label("loop")
	main.EmitJump(op.ForIter, "done")
	main.LoadName("total").Emit(op.BinaryOp, int(op.Add)).StoreName("total")
	main.EmitJump(op.JumpAbsolute, "loop")
	main.Label("done")
	main.LoadName("total").Return()

	recorder := &stepRecorder{}
	result := mustRun(t, assemble(t, main), WithObserver(recorder))
	require.Equal(t, int64(10), result.(*object.Int).Value())

	last := recorder.Steps[len(recorder.Steps)-1]
	require.Equal(t, 1, last.StackDepth)
}

func TestExtendedArguments(t *testing.T) {
	wide := bytecode.NewAssembler("main")
	for i := 0; i < 300; i++ {
		wide.Const(int64(i))
	}
	wide.Emit(op.LoadConst, 299).Return()
	result := mustRun(t, assemble(t, wide))
	require.Equal(t, int64(299), result.(*object.Int).Value())

	far := bytecode.NewAssembler("main")
	far.LoadConst(true)
	far.EmitJump(op.PopJumpIfTrue, "far")
	for i := 0; i < 200; i++ {
		far.Emit(op.Nop, 0)
	}
	far.LoadConst("near").Return()
	far.Label("far")
	far.LoadConst("far").Return()
	code := assemble(t, far)

	require.Equal(t, byte(op.ExtendedArg), code.Instructions()[2])
	listing, err := bytecode.Decode(code)
	require.NoError(t, err)
	jump := listing.At(1)
	require.Equal(t, op.PopJumpIfTrue, jump.Op)
	require.Equal(t, 2, jump.Offset)
	require.Equal(t, 4, jump.Size)

	result = mustRun(t, code)
	require.Equal(t, "far", result.(*object.String).Value())
}

func TestStackDiscipline(t *testing.T) {
	main := bytecode.NewAssembler("main")
	main.LoadConst(1).LoadConst(2).Emit(op.BinaryOp, int(op.Add))
	main.LoadConst(4).Emit(op.RotTwo, 0).Emit(op.BuildTuple, 2)
	main.Emit(op.UnpackSequence, 2).Emit(op.BuildList, 2)
	main.Emit(op.DupTop, 0).LoadConst(5).Emit(op.ListAppend, 1).Emit(op.PopTop, 0)
	main.LoadConst(0).Emit(op.BinarySubscr, 0)
	main.Emit(op.DupTop, 0).Emit(op.CompareOp, int(op.LessThan)).Emit(op.UnaryNot, 0)
	main.LoadConst("x").LoadConst(">3").Emit(op.FormatValue, op.FormatHasSpec)
	main.LoadConst("!").Emit(op.BuildString, 2)
	main.Emit(op.RotTwo, 0).Emit(op.PopTop, 0)
	main.Return()

	recorder := &stepRecorder{}
	result := mustRun(t, assemble(t, main), WithObserver(recorder))
	require.Equal(t, "  x!", result.(*object.String).Value())

	steps := recorder.Steps
	require.Equal(t, 0, steps[0].StackDepth)
	for i := 0; i < len(steps)-1; i++ {
		effect, ok := op.StackEffect(steps[i].Opcode, steps[i].Arg, false)
		require.True(t, ok)
		require.Equal(t, effect, steps[i+1].StackDepth-steps[i].StackDepth,
			"%s at offset %d", steps[i].OpcodeName, steps[i].Offset)
	}
	last := steps[len(steps)-1]
	require.Equal(t, op.ReturnValue, last.Opcode)
	require.Equal(t, 1, last.StackDepth)
}

func TestContainerOpcodes(t *testing.T) {
	main := bytecode.NewAssembler("main")
	main.Emit(op.BuildMap, 0).StoreName("d")
	main.LoadConst(5).LoadName("d").LoadConst("k").Emit(op.StoreSubscr, 0)
	main.LoadConst(6).LoadName("d").LoadConst("j").Emit(op.StoreSubscr, 0)
	main.LoadName("d").LoadConst("j").Emit(op.DeleteSubscr, 0)
	main.LoadName("d")
	main.LoadConst("k").LoadName("d").Emit(op.ContainsOp, 0)
	main.LoadConst("k").LoadName("d").Emit(op.ContainsOp, 1)
	main.LoadConst(nil).LoadConst(nil).Emit(op.IsOp, 1)
	main.LoadConst([]any{1, 2, 3, 4}).LoadConst(1).LoadConst(nil).Emit(op.BuildSlice, 2).Emit(op.BinarySubscr, 0)
	main.LoadConst("a").LoadConst(1).LoadConst("b").LoadConst(2).Emit(op.BuildMap, 2)
	main.Emit(op.BuildTuple, 6).Return()

	result := mustRun(t, assemble(t, main))
	require.Equal(t, "({'k': 5}, True, False, False, (2, 3, 4), {'a': 1, 'b': 2})", result.Inspect())
}

func TestSliceWithHugeStep(t *testing.T) {
	code := assemble(t, bytecode.NewAssembler("main").
		LoadConst(1).LoadConst(2).LoadConst(3).Emit(op.BuildList, 3).
		LoadConst(1).LoadConst(3).LoadConst(int64(math.MaxInt64)).Emit(op.BuildSlice, 3).
		Emit(op.BinarySubscr, 0).
		Return())
	require.Equal(t, "[2]", mustRun(t, code).Inspect())
}

func TestUnpackSequenceFaults(t *testing.T) {
	code := assemble(t, bytecode.NewAssembler("main").
		LoadConst([]any{1, 2, 3}).
		Emit(op.UnpackSequence, 2).
		Return())
	fault := runFault(t, code)
	require.Equal(t, "value error: too many values to unpack (expected 2)", fault.Error())
}

func TestCallFunctionEx(t *testing.T) {
	fn := assemble(t, bytecode.NewAssembler("f").
		Params(nil, []string{"a", "b", "c"}, nil, "", "").
		LoadFast("a").LoadFast("b").LoadFast("c").
		Emit(op.BuildTuple, 3).
		Return())
	main := bytecode.NewAssembler("main")
	define(main, fn, "f")
	main.LoadName("f").LoadConst([]any{1, 2})
	main.LoadConst("c").LoadConst(3).Emit(op.BuildMap, 1)
	main.Emit(op.CallFunctionEx, op.CallHasKwargs)
	main.LoadName("f").LoadConst([]any{4, 5, 6}).Emit(op.CallFunctionEx, 0)
	main.Emit(op.BuildTuple, 2).Return()

	result := mustRun(t, assemble(t, main))
	require.Equal(t, "((1, 2, 3), (4, 5, 6))", result.Inspect())
}

func TestMethodCalls(t *testing.T) {
	main := bytecode.NewAssembler("main")
	main.LoadConst(3).LoadConst(1).LoadConst(2).Emit(op.BuildList, 3).StoreName("l")
	main.LoadName("l").Emit(op.LoadMethod, main.Name("sort")).Emit(op.CallMethod, 0).Emit(op.PopTop, 0)
	main.LoadConst("abc").Emit(op.LoadMethod, main.Name("upper")).Emit(op.CallMethod, 0)
	main.LoadName("l").Emit(op.BuildTuple, 2).Return()

	result := mustRun(t, assemble(t, main))
	require.Equal(t, "('ABC', [1, 2, 3])", result.Inspect())

	missing := bytecode.NewAssembler("main")
	missing.LoadConst(1).Emit(op.LoadMethod, missing.Name("nope")).Return()
	fault := runFault(t, assemble(t, missing))
	require.Equal(t, errz.ErrAttribute, fault.Kind)
}

func TestFaultCarriesDepthAndStack(t *testing.T) {
	g := assemble(t, bytecode.NewAssembler("g").
		LoadConst(1).LoadConst(0).
		Emit(op.BinaryOp, int(op.TrueDivide)).
		Return())
	f := assemble(t, bytecode.NewAssembler("f").
		LoadGlobal("g").Emit(op.CallFunction, 0).
		Return())
	main := bytecode.NewAssembler("main")
	define(main, g, "g")
	define(main, f, "f")
	main.LoadName("f").Emit(op.CallFunction, 0).Return()

	fault := runFault(t, assemble(t, main))
	require.Equal(t, errz.ErrZeroDivision, fault.Kind)
	require.Equal(t, 3, fault.Depth)
	require.Equal(t, []string{"g", "f", "main"}, stackFunctions(fault))
	require.Equal(t, "BINARY_OP", fault.Stack[0].Opname)
	require.Equal(t, 4, fault.Stack[0].Offset)
	require.Equal(t, "CALL_FUNCTION", fault.Stack[1].Opname)
	require.Contains(t, fault.FriendlyErrorMessage(), "frame depth 3")
}

func TestHostCallablesCallClosures(t *testing.T) {
	apply := object.NewBuiltin("apply", func(ctx context.Context, args ...object.Object) (object.Object, error) {
		return args[0].(object.Callable).Call(ctx, args[1:]...)
	})
	builtins := map[string]object.Object{"apply": apply}

	double := assemble(t, bytecode.NewAssembler("double").
		Params(nil, []string{"x"}, nil, "", "").
		LoadFast("x").LoadConst(2).Emit(op.BinaryOp, int(op.Multiply)).
		Return())
	main := bytecode.NewAssembler("main")
	main.LoadName("apply").LoadConst(double).Emit(op.MakeFunction, 0).LoadConst(21)
	main.Emit(op.CallFunction, 2).Return()
	result := mustRun(t, assemble(t, main), WithBuiltins(builtins))
	require.Equal(t, int64(42), result.(*object.Int).Value())

	boom := assemble(t, bytecode.NewAssembler("boom").
		LoadConst(1).LoadConst(0).Emit(op.BinaryOp, int(op.FloorDivide)).
		Return())
	failing := bytecode.NewAssembler("main")
	failing.LoadName("apply").LoadConst(boom).Emit(op.MakeFunction, 0).Emit(op.CallFunction, 1).Return()
	fault := runFault(t, assemble(t, failing), WithBuiltins(builtins))
	require.Equal(t, errz.ErrZeroDivision, fault.Kind)
	require.Equal(t, 2, fault.Depth)
	require.Equal(t, []string{"boom", "main"}, stackFunctions(fault))
}

func TestHostErrorsBecomeRuntimeFaults(t *testing.T) {
	fail := object.NewBuiltin("fail", func(ctx context.Context, args ...object.Object) (object.Object, error) {
		return nil, errors.New("disk on fire")
	})
	code := assemble(t, bytecode.NewAssembler("main").
		LoadName("fail").Emit(op.CallFunction, 0).
		Return())
	fault := runFault(t, code, WithBuiltins(map[string]object.Object{"fail": fail}))
	require.Equal(t, errz.ErrRuntime, fault.Kind)
	require.Equal(t, "runtime error: disk on fire", fault.Error())
	require.Equal(t, 1, fault.Depth)
}

// positionalOnly is a host callable without keyword support that returns
// no value.
type positionalOnly struct{ *object.NoneType }

func (positionalOnly) Inspect() string { return "<positional>" }

func (positionalOnly) Call(ctx context.Context, args ...object.Object) (object.Object, error) {
	return nil, nil
}

func TestHostCallablesReturningNothing(t *testing.T) {
	silent := object.NewKeywordBuiltin("silent", func(ctx context.Context, args []object.Object, kwargs *object.Dict) (object.Object, error) {
		return nil, nil
	})
	builtins := WithBuiltins(map[string]object.Object{
		"silent": silent,
		"pos":    positionalOnly{object.None},
	})

	code := assemble(t, bytecode.NewAssembler("main").
		LoadName("silent").Emit(op.CallFunction, 0).
		LoadName("pos").LoadConst(1).Emit(op.CallFunction, 1).
		Emit(op.BuildTuple, 2).
		Return())
	require.Equal(t, "(None, None)", mustRun(t, code, builtins).Inspect())

	code = assemble(t, bytecode.NewAssembler("main").
		LoadName("pos").LoadConst(1).LoadConst([]any{"k"}).
		Emit(op.CallFunctionKw, 1).
		Return())
	fault := runFault(t, code, builtins)
	require.Equal(t, errz.ErrType, fault.Kind)
	require.Equal(t, "type error: <positional> takes no keyword arguments", fault.Error())
}

func TestRecursionLimit(t *testing.T) {
	loop := assemble(t, bytecode.NewAssembler("loop").
		LoadGlobal("loop").Emit(op.CallFunction, 0).
		Return())
	main := bytecode.NewAssembler("main")
	define(main, loop, "loop")
	main.LoadName("loop").Emit(op.CallFunction, 0).Return()

	fault := runFault(t, assemble(t, main), WithMaxFrameDepth(50))
	require.Equal(t, errz.ErrRecursion, fault.Kind)
	require.Equal(t, 50, fault.Depth)
	require.Len(t, fault.Stack, 50)
}

func TestMalformedCode(t *testing.T) {
	noReturn := assemble(t, bytecode.NewAssembler("main").LoadConst(1))
	fault := runFault(t, noReturn)
	require.Equal(t, errz.ErrMalformedCode, fault.Kind)
	require.Contains(t, fault.Message, "without returning")

	underflow := assemble(t, bytecode.NewAssembler("main").Emit(op.PopTop, 0).LoadConst(nil).Return())
	fault = runFault(t, underflow)
	require.Equal(t, errz.ErrStackUnderflow, fault.Kind)

	fn := assemble(t, bytecode.NewAssembler("f").LoadConst(nil).Return())
	closure := assemble(t, bytecode.NewAssembler("main").
		LoadConst(fn).Emit(op.MakeFunction, op.MakeClosure).
		Return())
	fault = runFault(t, closure)
	require.Equal(t, errz.ErrMalformedCode, fault.Kind)

	odd := bytecode.NewCode(bytecode.CodeParams{
		Name:         "main",
		Instructions: []byte{byte(op.LoadConst)},
	})
	_, err := Run(context.Background(), odd)
	require.True(t, errors.Is(err, errz.ErrMalformedCode))
}

func TestLeftoverStackIsLogged(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)
	code := assemble(t, bytecode.NewAssembler("main").LoadConst(1).LoadConst(2).Return())

	result := mustRun(t, code, WithLogger(logger))
	require.Equal(t, int64(2), result.(*object.Int).Value())
	require.Contains(t, buf.String(), "operand stack not empty after return")
	require.Contains(t, buf.String(), `"run_id"`)
	require.Contains(t, buf.String(), "run finished")
}

func TestCallAfterRun(t *testing.T) {
	double := assemble(t, bytecode.NewAssembler("double").
		Params(nil, []string{"x"}, nil, "", "").
		LoadFast("x").LoadFast("x").Emit(op.BinaryOp, int(op.Add)).
		Return())
	main := bytecode.NewAssembler("main")
	define(main, double, "double")
	main.LoadName("double").Return()

	machine, err := New(assemble(t, main))
	require.NoError(t, err)
	fn, err := machine.Run(context.Background())
	require.NoError(t, err)

	result, err := machine.Call(context.Background(), fn, ints(21), nil)
	require.NoError(t, err)
	require.Equal(t, int64(42), result.(*object.Int).Value())

	_, err = machine.Call(context.Background(), object.NewInt(1), nil, nil)
	require.Equal(t, "type error: 'int' object is not callable", err.Error())
}

func TestInvalidGlobals(t *testing.T) {
	code := assemble(t, bytecode.NewAssembler("main").LoadConst(nil).Return())
	_, err := New(code, WithGlobals(map[string]any{"bad": struct{}{}}))
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid global provided")
}
