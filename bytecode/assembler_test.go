package bytecode

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cloudcmds/framevm/op"
)

func TestAssembleInternsPools(t *testing.T) {
	asm := NewAssembler("main")
	asm.LoadConst(1).LoadConst(int64(1)).LoadConst(1.0).LoadConst(true).LoadConst("1").LoadConst(nil)
	asm.LoadName("x").StoreName("x").LoadGlobal("y")
	asm.Return()
	code, err := asm.Assemble()
	require.NoError(t, err)
	require.Equal(t, 5, code.ConstantCount())
	require.Equal(t, int64(1), code.ConstantAt(0))
	require.Equal(t, 1.0, code.ConstantAt(1))
	require.Equal(t, true, code.ConstantAt(2))
	require.Equal(t, "1", code.ConstantAt(3))
	require.Nil(t, code.ConstantAt(4))
	require.Equal(t, 2, code.NameCount())
}

func TestAssembleKeepsSignedZeros(t *testing.T) {
	asm := NewAssembler("main")
	zero := asm.Const(0.0)
	negZero := asm.Const(math.Copysign(0, -1))
	require.Equal(t, zero, asm.Const(0.0))
	require.NotEqual(t, zero, negZero)
	require.Equal(t, negZero, asm.Const(math.Copysign(0, -1)))

	code, err := asm.Return().Assemble()
	require.NoError(t, err)
	require.True(t, math.Signbit(code.ConstantAt(negZero).(float64)))
	require.False(t, math.Signbit(code.ConstantAt(zero).(float64)))
}

func TestAssembleTupleConstant(t *testing.T) {
	asm := NewAssembler("main")
	asm.LoadConst([]any{1, "a", []any{2.5}}).Return()
	code, err := asm.Assemble()
	require.NoError(t, err)
	require.Equal(t, Tuple{int64(1), "a", Tuple{2.5}}, code.ConstantAt(0))
}

func TestAssembleParams(t *testing.T) {
	asm := NewAssembler("f").Params([]string{"a"}, []string{"b"}, []string{"c"}, "args", "kwargs")
	asm.LoadFast("tmp").Return()
	code, err := asm.Assemble()
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b", "c", "args", "kwargs", "tmp"}, code.VarNames())
	require.Equal(t, VarArgs|VarKeywords, code.Flags())
	require.Equal(t, 1, code.PosOnlyCount())
	require.Equal(t, 1, code.PosOrKeywordCount())
	require.Equal(t, 1, code.KwOnlyCount())
}

func TestAssembleParamsAfterLocals(t *testing.T) {
	asm := NewAssembler("f")
	asm.Local("x")
	asm.Params(nil, []string{"a"}, nil, "", "")
	_, err := asm.Assemble()
	require.ErrorContains(t, err, "parameters declared after locals")
}

func TestAssembleWideArgument(t *testing.T) {
	asm := NewAssembler("main")
	for i := 0; i < 300; i++ {
		asm.Const(int64(i))
	}
	asm.Emit(op.LoadConst, 299).Return()
	code, err := asm.Assemble()
	require.NoError(t, err)
	require.Equal(t, []byte{
		byte(op.ExtendedArg), 0x01,
		byte(op.LoadConst), 0x2B,
		byte(op.ReturnValue), 0,
	}, code.Instructions())

	listing, err := Decode(code)
	require.NoError(t, err)
	require.Equal(t, 2, listing.Len())
	require.Equal(t, int64(299), listing.At(0).ArgVal)
}

func TestAssembleLabels(t *testing.T) {
	asm := NewAssembler("main")
	asm.LoadConst(true)
	asm.EmitJump(op.PopJumpIfFalse, "else")
	asm.LoadConst(1)
	asm.EmitJump(op.JumpForward, "end")
	asm.Label("else")
	asm.LoadConst(2)
	asm.Label("end")
	asm.Return()
	code, err := asm.Assemble()
	require.NoError(t, err)

	listing, err := Decode(code)
	require.NoError(t, err)
	jump, ok := listing.At(1).Target()
	require.True(t, ok)
	require.Equal(t, 8, jump)
	forward, ok := listing.At(3).Target()
	require.True(t, ok)
	require.Equal(t, 10, forward)
	require.Equal(t, 2, listing.At(3).Arg)
}

func TestAssembleLongForwardJumpGrowsPrefix(t *testing.T) {
	asm := NewAssembler("main")
	asm.EmitJump(op.JumpAbsolute, "end")
	for i := 0; i < 200; i++ {
		asm.Emit(op.Nop, 0)
	}
	asm.Label("end")
	asm.LoadConst(nil).Return()
	code, err := asm.Assemble()
	require.NoError(t, err)

	listing, err := Decode(code)
	require.NoError(t, err)
	jump := listing.At(0)
	require.Equal(t, 4, jump.Size)
	target, _ := jump.Target()
	require.Equal(t, 4+200*2, target)
	index, ok := listing.IndexOf(target)
	require.True(t, ok)
	require.Equal(t, op.LoadConst, listing.At(index).Op)
}

func TestAssembleBackwardJump(t *testing.T) {
	asm := NewAssembler("main")
	asm.Label("top")
	asm.Emit(op.Nop, 0)
	asm.EmitJump(op.JumpAbsolute, "top")
	_, err := asm.Assemble()
	require.NoError(t, err)

	asm = NewAssembler("main")
	asm.Label("top")
	asm.EmitJump(op.JumpForward, "top")
	_, err = asm.Assemble()
	require.ErrorContains(t, err, "cannot jump backward")
}

func TestAssembleErrors(t *testing.T) {
	asm := NewAssembler("main")
	asm.EmitJump(op.JumpForward, "missing")
	asm.EmitJump(op.LoadConst, "x")
	asm.Emit(op.ExtendedArg, 1)
	asm.Emit(op.Code(250), 0)
	asm.Emit(op.BuildList, -1)
	asm.Label("dup").Label("dup")
	asm.Const(struct{}{})
	_, err := asm.Assemble()
	require.Error(t, err)
	msg := err.Error()
	require.Contains(t, msg, `undefined label "missing"`)
	require.Contains(t, msg, "LOAD_CONST is not a jump")
	require.Contains(t, msg, "cannot emit opcode EXTENDED_ARG")
	require.Contains(t, msg, "cannot emit opcode <250>")
	require.Contains(t, msg, "argument -1 of BUILD_LIST out of range")
	require.Contains(t, msg, `duplicate label "dup"`)
	require.Contains(t, msg, "unsupported constant type")
}
