package vm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cloudcmds/framevm/bytecode"
	"github.com/cloudcmds/framevm/errz"
	"github.com/cloudcmds/framevm/op"
)

type configuredRecorder struct {
	stepRecorder
	config ObserverConfig
	limit  int
}

func (o *configuredRecorder) Config() ObserverConfig {
	return o.config
}

func (o *configuredRecorder) OnStep(event StepEvent) bool {
	o.Steps = append(o.Steps, event)
	return o.limit == 0 || len(o.Steps) < o.limit
}

func callingProgram(t *testing.T) *bytecode.Code {
	add := assemble(t, bytecode.NewAssembler("add").
		Params(nil, []string{"a", "b"}, nil, "", "").
		LoadFast("a").LoadFast("b").Emit(op.BinaryOp, int(op.Add)).
		Return())
	main := bytecode.NewAssembler("main")
	define(main, add, "add")
	main.LoadName("add").LoadConst(1).LoadConst(2).LoadConst([]any{"b"}).
		Emit(op.CallFunctionKw, 2).Return()
	return assemble(t, main)
}

func TestObserverRecordsEvents(t *testing.T) {
	recorder := &stepRecorder{}
	result := mustRun(t, callingProgram(t), WithObserver(recorder))
	require.Equal(t, "3", result.Inspect())

	var names []string
	for _, step := range recorder.Steps {
		names = append(names, step.Function+":"+step.OpcodeName)
	}
	require.Equal(t, []string{
		"main:LOAD_CONST",
		"main:MAKE_FUNCTION",
		"main:STORE_NAME",
		"main:LOAD_NAME",
		"main:LOAD_CONST",
		"main:LOAD_CONST",
		"main:LOAD_CONST",
		"main:CALL_FUNCTION_KW",
		"add:LOAD_FAST",
		"add:LOAD_FAST",
		"add:BINARY_OP",
		"add:RETURN_VALUE",
		"main:RETURN_VALUE",
	}, names)
	require.Equal(t, 2, recorder.Steps[8].FrameDepth)

	require.Equal(t, []CallEvent{{
		FunctionName: "add",
		ArgCount:     1,
		KwargCount:   1,
		FrameDepth:   2,
	}}, recorder.Calls)
	require.Len(t, recorder.Returns, 1)
	require.Equal(t, "add", recorder.Returns[0].FunctionName)
	require.Equal(t, "3", recorder.Returns[0].Value.Inspect())
}

func TestObserverHalts(t *testing.T) {
	recorder := &configuredRecorder{config: NewObserverConfig(StepAll), limit: 3}
	_, err := Run(context.Background(), callingProgram(t), WithObserver(recorder))
	require.True(t, errors.Is(err, errz.ErrHalted))
	require.Len(t, recorder.Steps, 3)

	var fault *errz.Fault
	require.True(t, errors.As(err, &fault))
	require.Equal(t, 1, fault.Depth)
	require.Equal(t, "STORE_NAME", fault.Stack[0].Opname)
}

func TestObserverStepModes(t *testing.T) {
	sampled := NewObserverConfig(StepSampled)
	sampled.SampleInterval = 2
	recorder := &configuredRecorder{config: sampled}
	mustRun(t, callingProgram(t), WithObserver(recorder))
	require.Len(t, recorder.Steps, 6)
	require.Equal(t, "MAKE_FUNCTION", recorder.Steps[0].OpcodeName)

	none := NewObserverConfig(StepNone)
	none.ObserveReturns = false
	recorder = &configuredRecorder{config: none}
	mustRun(t, callingProgram(t), WithObserver(recorder))
	require.Empty(t, recorder.Steps)
	require.Len(t, recorder.Calls, 1)
	require.Empty(t, recorder.Returns)
}

func TestNormalizeConfig(t *testing.T) {
	cfg := NormalizeConfig(ObserverConfig{StepMode: StepSampled})
	require.Equal(t, 1, cfg.SampleInterval)
}
