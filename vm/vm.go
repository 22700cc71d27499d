// Package vm provides a VirtualMachine that executes framevm code objects.
//
// Every call runs in its own frame holding an operand stack and a
// fast-locals mapping. The outermost frame's fast-locals are the globals
// mapping, which is shared with every closure created while the program
// runs. Builtins are consulted but never written.
package vm

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog"

	"github.com/cloudcmds/framevm/bytecode"
	"github.com/cloudcmds/framevm/object"
)

// DefaultMaxFrameDepth is the default limit on nested frames.
const DefaultMaxFrameDepth = 1000

type VirtualMachine struct {
	main          *bytecode.Code
	inputGlobals  map[string]any
	globals       map[string]object.Object
	builtins      map[string]object.Object
	loadedCode    map[*bytecode.Code]*loadedCode
	maxFrameDepth int

	logger zerolog.Logger
	// log is logger with the fields of the current run.
	log zerolog.Logger

	observer    Observer
	observerCfg ObserverConfig
	stepCount   int64

	// active is the innermost frame currently executing.
	active *frame

	running  bool
	runMutex sync.Mutex
}

// New creates a new Virtual Machine for the given code. It fails if a
// global provided with WithGlobals cannot be converted to an object.
func New(main *bytecode.Code, options ...Option) (*VirtualMachine, error) {
	vm := &VirtualMachine{
		main:          main,
		inputGlobals:  map[string]any{},
		globals:       map[string]object.Object{},
		builtins:      map[string]object.Object{},
		loadedCode:    map[*bytecode.Code]*loadedCode{},
		maxFrameDepth: DefaultMaxFrameDepth,
		logger:        zerolog.Nop(),
	}
	for _, opt := range options {
		opt(vm)
	}
	globals, err := object.AsObjects(vm.inputGlobals)
	if err != nil {
		return nil, fmt.Errorf("invalid global provided: %w", err)
	}
	vm.globals = globals
	if vm.builtins == nil {
		vm.builtins = map[string]object.Object{}
	}
	vm.log = vm.logger
	return vm, nil
}

func (vm *VirtualMachine) start() error {
	vm.runMutex.Lock()
	defer vm.runMutex.Unlock()
	if vm.running {
		return fmt.Errorf("vm is already running")
	}
	vm.running = true
	vm.stepCount = 0
	if vm.observer != nil {
		vm.observerCfg = NormalizeConfig(vm.observer.Config())
	}
	return nil
}

func (vm *VirtualMachine) stop() {
	vm.runMutex.Lock()
	defer vm.runMutex.Unlock()
	vm.running = false
	vm.active = nil
}

// Run executes the main code object to completion and returns the value
// it returns. A fault aborts the run and is returned as an *errz.Fault
// carrying the depth of the frame it surfaced in and the frame stack.
func (vm *VirtualMachine) Run(ctx context.Context) (result object.Object, err error) {
	if vm.main == nil {
		return nil, fmt.Errorf("no main code available")
	}
	// Set up some guarantees:
	// 1. It is an error to call Run on a VM that is already running
	// 2. The running flag will always be set to false when Run returns
	// 3. Any panics are translated to errors and the VM is stopped
	if err := vm.start(); err != nil {
		return nil, err
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
		vm.stop()
	}()

	vm.log = vm.logger.With().
		Str("run_id", uuid.Must(uuid.NewV4()).String()).
		Str("code", vm.main.Name()).
		Logger()

	code, err := vm.loadCode(vm.main)
	if err != nil {
		return nil, err
	}
	started := time.Now()
	vm.log.Debug().Int("globals", len(vm.globals)).Msg("run started")

	ctx = object.WithCallFunc(ctx, vm.callFunction)
	main := newFrame(vm, code, nil, scope{
		locals:   vm.globals,
		globals:  vm.globals,
		builtins: vm.builtins,
	}, nil)
	result, err = vm.runFrame(ctx, main)

	event := vm.log.Debug().Dur("elapsed", time.Since(started))
	if err != nil {
		event.Err(err).Msg("run failed")
		return nil, err
	}
	event.Str("result", string(result.Type())).Msg("run finished")
	return result, nil
}

// Call invokes a callable value, typically a closure returned by an earlier
// Run, outside of a running program. Closures run against this VM's
// globals and builtins.
func (vm *VirtualMachine) Call(ctx context.Context, fn object.Object, args []object.Object, kwargs *object.Dict) (result object.Object, err error) {
	if err := vm.start(); err != nil {
		return nil, err
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
		vm.stop()
	}()
	return vm.callObject(object.WithCallFunc(ctx, vm.callFunction), fn, args, kwargs)
}

// Globals returns the globals mapping. After a run it holds every name the
// program stored at the top level.
func (vm *VirtualMachine) Globals() map[string]object.Object {
	return vm.globals
}

// GetGlobal returns the global variable with the given name.
func (vm *VirtualMachine) GetGlobal(name string) (object.Object, bool) {
	obj, ok := vm.globals[name]
	return obj, ok
}

// runFrame makes f the active frame for the duration of its run.
func (vm *VirtualMachine) runFrame(ctx context.Context, f *frame) (object.Object, error) {
	vm.active = f
	defer func() { vm.active = f.caller }()
	return f.run(ctx)
}

func (vm *VirtualMachine) observeStep(f *frame, ins *bytecode.Instruction) bool {
	if vm.observer == nil {
		return true
	}
	switch vm.observerCfg.StepMode {
	case StepNone:
		return true
	case StepSampled:
		vm.stepCount++
		if vm.stepCount%int64(vm.observerCfg.SampleInterval) != 0 {
			return true
		}
	}
	return vm.observer.OnStep(StepEvent{
		Offset:     ins.Offset,
		Opcode:     ins.Op,
		OpcodeName: ins.Op.String(),
		Arg:        ins.Arg,
		Function:   f.name(),
		StackDepth: f.stack.Len(),
		FrameDepth: f.depth,
	})
}
