package errz

import (
	"errors"
	"fmt"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/require"
)

func TestFaultIsKind(t *testing.T) {
	err := New(ErrName, "name %q is not defined", "x")
	require.Equal(t, `name error: name "x" is not defined`, err.Error())
	require.True(t, errors.Is(err, ErrName))
	require.False(t, errors.Is(err, ErrUnboundLocal))

	wrapped := fmt.Errorf("run failed: %w", err)
	require.True(t, errors.Is(wrapped, ErrName))
	kind, ok := KindOf(wrapped)
	require.True(t, ok)
	require.Equal(t, ErrName, kind)

	_, ok = KindOf(errors.New("plain"))
	require.False(t, ok)
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("disk on fire")
	err := Wrap(ErrValue, cause)
	require.Equal(t, "value error: disk on fire", err.Error())
	require.True(t, errors.Is(err, cause))
	require.True(t, errors.Is(err, ErrValue))

	other := TypeErrorf("bad").WithCause(cause)
	require.True(t, errors.Is(other, cause))
}

func TestKindStrings(t *testing.T) {
	tests := map[ErrorKind]string{
		ErrName:              "name error",
		ErrUnboundLocal:      "unbound local error",
		ErrStackUnderflow:    "stack underflow",
		ErrMalformedCode:     "malformed code",
		ErrArity:             "arity error",
		ErrMissingArgument:   "missing argument",
		ErrUnexpectedKeyword: "unexpected keyword argument",
		ErrType:              "type error",
		ErrValue:             "value error",
		ErrIndex:             "index error",
		ErrKey:               "key error",
		ErrZeroDivision:      "zero division error",
		ErrRecursion:         "recursion error",
		ErrHalted:            "halted",
		ErrAttribute:         "attribute error",
		ErrRuntime:           "runtime error",
		ErrorKind(0):         "error",
	}
	for kind, expected := range tests {
		require.Equal(t, expected, kind.String())
		require.Equal(t, expected, kind.Error())
	}
}

func TestFormatStackTrace(t *testing.T) {
	require.Equal(t, "", FormatStackTrace(nil))
	frames := []StackFrame{
		{Function: "inner", Offset: 4, Opname: "LOAD_FAST"},
		{Function: "<module>", Filename: "main.yaml", Offset: 12, Opname: "CALL_FUNCTION"},
		{Offset: 0, Opname: "NOP"},
	}
	expected := "Stack trace:\n" +
		"  at inner (@4 LOAD_FAST)\n" +
		"  at <module> (main.yaml@12 CALL_FUNCTION)\n" +
		"  at <anonymous> (@0 NOP)\n"
	require.Equal(t, expected, FormatStackTrace(frames))
}

func TestFriendlyErrorMessage(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	err := New(ErrZeroDivision, "division by zero")
	require.Equal(t, "zero division error: division by zero\n", err.FriendlyErrorMessage())
	require.False(t, err.HasStack())

	err.Depth = 2
	err.Stack = []StackFrame{{Function: "f", Offset: 6, Opname: "BINARY_OP"}}
	require.Equal(t,
		"zero division error: division by zero\nframe depth 2\nStack trace:\n  at f (@6 BINARY_OP)\n",
		err.FriendlyErrorMessage())
}
