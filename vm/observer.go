package vm

import (
	"github.com/cloudcmds/framevm/object"
	"github.com/cloudcmds/framevm/op"
)

// StepMode selects which instructions are reported to Observer.OnStep.
type StepMode uint8

const (
	// StepAll reports every executed instruction.
	StepAll StepMode = iota

	// StepNone reports no instructions; calls and returns are still
	// delivered according to the config.
	StepNone

	// StepSampled reports one instruction out of every SampleInterval,
	// counted across all frames of a run.
	StepSampled
)

// ObserverConfig is read from Observer.Config when a run starts.
type ObserverConfig struct {
	StepMode StepMode

	// SampleInterval applies to StepSampled only. NormalizeConfig raises
	// non-positive intervals to 1.
	SampleInterval int

	ObserveCalls   bool
	ObserveReturns bool
}

// NewObserverConfig returns a config for the given step mode with call and
// return events enabled and a sample interval of 1000.
func NewObserverConfig(mode StepMode) ObserverConfig {
	return ObserverConfig{
		StepMode:       mode,
		SampleInterval: 1000,
		ObserveCalls:   true,
		ObserveReturns: true,
	}
}

// NormalizeConfig returns cfg with a usable sample interval.
func NormalizeConfig(cfg ObserverConfig) ObserverConfig {
	if cfg.StepMode == StepSampled && cfg.SampleInterval <= 0 {
		cfg.SampleInterval = 1
	}
	return cfg
}

// Observer is notified as the machine executes. Callbacks run on the
// executing goroutine between instructions. A callback that returns false
// stops the run with an errz.ErrHalted fault.
type Observer interface {
	Config() ObserverConfig

	// OnStep receives an instruction before its handler runs.
	OnStep(event StepEvent) bool

	// OnCall receives a closure call once its arguments are bound and
	// before its frame starts.
	OnCall(event CallEvent) bool

	// OnReturn receives a closure's result after its frame finishes.
	OnReturn(event ReturnEvent) bool
}

// StepEvent identifies one instruction about to execute.
type StepEvent struct {
	// Offset is where the instruction starts, at its first EXTENDED_ARG
	// prefix when it has any.
	Offset     int
	Opcode     op.Code
	OpcodeName string
	// Arg has the prefixes folded in.
	Arg        int
	Function   string
	// StackDepth is measured before the instruction runs.
	StackDepth int
	// FrameDepth is 1 for the main frame.
	FrameDepth int
}

// CallEvent describes a closure invocation. Host callables are not reported.
type CallEvent struct {
	FunctionName string
	ArgCount     int
	KwargCount   int
	// FrameDepth is the depth the callee's frame runs at.
	FrameDepth int
}

// ReturnEvent carries the value a closure returned.
type ReturnEvent struct {
	FunctionName string
	Value        object.Object
	FrameDepth   int
}

// NoOpObserver accepts every event. Embedding it lets an observer implement
// only the callbacks it cares about.
type NoOpObserver struct{}

func (NoOpObserver) Config() ObserverConfig {
	return NewObserverConfig(StepAll)
}

func (NoOpObserver) OnStep(StepEvent) bool     { return true }
func (NoOpObserver) OnCall(CallEvent) bool     { return true }
func (NoOpObserver) OnReturn(ReturnEvent) bool { return true }

var _ Observer = NoOpObserver{}
