package bytecode

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cloudcmds/framevm/errz"
	"github.com/cloudcmds/framevm/op"
)

func rawCode(constants []any, names []string, units ...byte) *Code {
	return NewCode(CodeParams{
		Name:         "test",
		Instructions: units,
		Constants:    constants,
		Names:        names,
	})
}

func TestDecodeSimple(t *testing.T) {
	code := rawCode([]any{int64(1)}, []string{"x"},
		byte(op.LoadConst), 0,
		byte(op.StoreName), 0,
		byte(op.LoadName), 0,
		byte(op.ReturnValue), 0,
	)
	listing, err := Decode(code)
	require.NoError(t, err)
	require.Equal(t, 4, listing.Len())
	require.Equal(t, 8, listing.End())

	first := listing.At(0)
	require.Equal(t, op.LoadConst, first.Op)
	require.Equal(t, int64(1), first.ArgVal)
	require.Equal(t, 0, first.Offset)
	require.Equal(t, 2, first.Size)

	require.Equal(t, "x", listing.At(1).ArgVal)
	require.Nil(t, listing.At(3).ArgVal)

	for i, instr := range listing.Instructions() {
		index, ok := listing.IndexOf(instr.Offset)
		require.True(t, ok)
		require.Equal(t, i, index)
	}
	_, ok := listing.IndexOf(1)
	require.False(t, ok)
}

func TestDecodeArgumentlessOpcodeIgnoresArgByte(t *testing.T) {
	listing, err := Decode(rawCode(nil, nil, byte(op.Nop), 0xAB))
	require.NoError(t, err)
	require.Equal(t, 0, listing.At(0).Arg)
}

func TestDecodeFoldsExtendedArg(t *testing.T) {
	constants := make([]any, 0x0103)
	for i := range constants {
		constants[i] = int64(i)
	}
	code := rawCode(constants, nil,
		byte(op.Nop), 0,
		byte(op.ExtendedArg), 0x01,
		byte(op.LoadConst), 0x02,
		byte(op.ReturnValue), 0,
	)
	listing, err := Decode(code)
	require.NoError(t, err)
	require.Equal(t, 3, listing.Len())

	load := listing.At(1)
	require.Equal(t, op.LoadConst, load.Op)
	require.Equal(t, 0x0102, load.Arg)
	require.Equal(t, int64(0x0102), load.ArgVal)
	require.Equal(t, 2, load.Offset)
	require.Equal(t, 4, load.Size)
	require.Equal(t, 6, load.Next())

	_, ok := listing.IndexOf(4)
	require.False(t, ok, "the folded opcode unit is not an instruction start")
	index, ok := listing.IndexOf(6)
	require.True(t, ok)
	require.Equal(t, 2, index)
}

func TestDecodeThreePrefixes(t *testing.T) {
	code := rawCode(nil, nil,
		byte(op.ExtendedArg), 0x01,
		byte(op.ExtendedArg), 0x02,
		byte(op.ExtendedArg), 0x03,
		byte(op.BuildTuple), 0x04,
	)
	listing, err := Decode(code)
	require.NoError(t, err)
	require.Equal(t, 0x01020304, listing.At(0).Arg)
	require.Equal(t, 8, listing.At(0).Size)
}

func TestDecodeRelativeJump(t *testing.T) {
	code := rawCode([]any{nil}, nil,
		byte(op.JumpForward), 2,
		byte(op.Nop), 0,
		byte(op.LoadConst), 0,
		byte(op.ReturnValue), 0,
	)
	listing, err := Decode(code)
	require.NoError(t, err)
	target, ok := listing.At(0).Target()
	require.True(t, ok)
	require.Equal(t, 4, target)
	_, ok = listing.At(1).Target()
	require.False(t, ok)
}

func TestDecodeMalformed(t *testing.T) {
	tests := []struct {
		name  string
		code  *Code
		error string
	}{
		{"odd length", rawCode(nil, nil, byte(op.Nop)), "odd length"},
		{"unknown opcode", rawCode(nil, nil, 250, 0), "unknown opcode 250 at offset 0"},
		{"dangling extended arg", rawCode(nil, nil, byte(op.Nop), 0, byte(op.ExtendedArg), 1), "dangling EXTENDED_ARG at offset 2"},
		{"too many prefixes", rawCode(nil, nil,
			byte(op.ExtendedArg), 1, byte(op.ExtendedArg), 1,
			byte(op.ExtendedArg), 1, byte(op.ExtendedArg), 1,
			byte(op.BuildList), 0), "too many EXTENDED_ARG"},
		{"prefix before argument-less opcode", rawCode(nil, nil, byte(op.ExtendedArg), 1, byte(op.PopTop), 0), "EXTENDED_ARG before POP_TOP"},
		{"constant out of range", rawCode(nil, nil, byte(op.LoadConst), 0), "constant index 0 out of range"},
		{"name out of range", rawCode(nil, []string{"a"}, byte(op.LoadName), 1), "name index 1 out of range"},
		{"variable out of range", rawCode(nil, nil, byte(op.LoadFast), 0), "variable index 0 out of range"},
		{"jump into prefix", rawCode(nil, nil,
			byte(op.JumpAbsolute), 4,
			byte(op.ExtendedArg), 0, byte(op.BuildList), 0), "jump target 4"},
		{"jump past end", rawCode(nil, nil, byte(op.JumpForward), 0), "jump target 2"},
		{"unknown operator", rawCode(nil, nil, byte(op.BinaryOp), 99), "unknown binary operator 99"},
		{"unknown comparison", rawCode(nil, nil, byte(op.CompareOp), 0), "unknown comparison operator 0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.code)
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.error)
			require.True(t, errors.Is(err, errz.ErrMalformedCode))
		})
	}
}
