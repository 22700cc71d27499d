package bytecode

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cloudcmds/framevm/op"
)

func TestNewCodeImmutability(t *testing.T) {
	instructions := []byte{byte(op.LoadConst), 0, byte(op.ReturnValue), 0}
	constants := []any{int64(42), Tuple{int64(1), "x"}}
	names := []string{"foo"}
	varNames := []string{"a"}

	code := NewCode(CodeParams{
		ID:                "test",
		Name:              "test_code",
		Instructions:      instructions,
		Constants:         constants,
		Names:             names,
		VarNames:          varNames,
		PosOrKeywordCount: 1,
	})

	instructions[0] = byte(op.Nop)
	constants[0] = int64(99)
	constants[1].(Tuple)[0] = int64(7)
	names[0] = "modified"
	varNames[0] = "b"

	require.Equal(t, byte(op.LoadConst), code.Instructions()[0])
	require.Equal(t, int64(42), code.ConstantAt(0))
	require.Equal(t, Tuple{int64(1), "x"}, code.ConstantAt(1))
	require.Equal(t, "foo", code.NameAt(0))
	require.Equal(t, "a", code.VarNameAt(0))

	code.Instructions()[0] = byte(op.Nop)
	code.VarNames()[0] = "z"
	require.Equal(t, byte(op.LoadConst), code.Instructions()[0])
	require.Equal(t, "a", code.VarNameAt(0))
}

func TestNewCodeGeneratesID(t *testing.T) {
	a := NewCode(CodeParams{Name: "a"})
	b := NewCode(CodeParams{Name: "b"})
	require.NotEmpty(t, a.ID())
	require.NotEqual(t, a.ID(), b.ID())
	require.Equal(t, "given", NewCode(CodeParams{ID: "given"}).ID())
}

func TestParamNames(t *testing.T) {
	code := NewCode(CodeParams{
		Name:              "f",
		VarNames:          []string{"a", "b", "c", "d", "args", "kwargs", "tmp"},
		PosOnlyCount:      1,
		PosOrKeywordCount: 2,
		KwOnlyCount:       1,
		Flags:             VarArgs | VarKeywords,
	})
	p, u, k := code.ParamNames()
	require.Equal(t, []string{"a"}, p)
	require.Equal(t, []string{"b", "c"}, u)
	require.Equal(t, []string{"d"}, k)
	require.Equal(t, "args", code.VarArgsName())
	require.Equal(t, "kwargs", code.VarKeywordsName())
	require.Equal(t, 3, code.ArgCount())
	require.NoError(t, code.Validate())
}

func TestVarKeywordsWithoutVarArgs(t *testing.T) {
	code := NewCode(CodeParams{
		VarNames:          []string{"a", "kw"},
		PosOrKeywordCount: 1,
		Flags:             VarKeywords,
	})
	require.Equal(t, "", code.VarArgsName())
	require.Equal(t, "kw", code.VarKeywordsName())
	require.False(t, code.HasVarArgs())
	require.True(t, code.HasVarKeywords())
}

func TestValidateReportsAllProblems(t *testing.T) {
	code := NewCode(CodeParams{
		Name:              "bad",
		Instructions:      []byte{byte(op.Nop)},
		Constants:         []any{int64(1), struct{}{}},
		VarNames:          []string{"a"},
		PosOrKeywordCount: 2,
	})
	err := code.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "odd length 1")
	require.Contains(t, err.Error(), "parameters need 2 variable names (1 given)")
	require.Contains(t, err.Error(), "unsupported constant type struct {}")
}

func TestValidateDuplicateParameter(t *testing.T) {
	code := NewCode(CodeParams{
		Name:              "dup",
		VarNames:          []string{"a", "a"},
		PosOrKeywordCount: 2,
	})
	err := code.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), `duplicate parameter "a"`)
}

func TestValidateNestedCode(t *testing.T) {
	child := NewCode(CodeParams{Name: "child", Instructions: []byte{1}})
	parent := NewCode(CodeParams{Name: "parent", Constants: []any{Tuple{child}}})
	err := parent.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), `code "child"`)
}

func TestChildrenAndStats(t *testing.T) {
	grandchild := NewCode(CodeParams{Name: "gc", Instructions: []byte{byte(op.Nop), 0}})
	child := NewCode(CodeParams{
		Name:         "child",
		Instructions: []byte{byte(op.Nop), 0, byte(op.Nop), 0},
		Constants:    []any{grandchild},
	})
	root := NewCode(CodeParams{
		Name:      "root",
		Constants: []any{int64(1), Tuple{child}},
		Names:     []string{"x"},
	})
	require.Equal(t, []*Code{child}, root.Children())
	require.Equal(t, []*Code{root, child, grandchild}, root.Flatten())

	stats := root.Stats()
	require.Equal(t, 6, stats.InstructionBytes)
	require.Equal(t, 3, stats.ConstantCount)
	require.Equal(t, 1, stats.NameCount)
	require.Equal(t, 2, stats.FunctionCount)
	require.Equal(t, 3, stats.MaxDepth)
}
