package vm

import (
	"github.com/rs/zerolog"

	"github.com/cloudcmds/framevm/object"
)

// Option is a configuration function for a Virtual Machine.
type Option func(*VirtualMachine)

// WithGlobals provides global variables with the given names. Values are
// converted with object.AsObject when the VM is created.
func WithGlobals(globals map[string]any) Option {
	return func(vm *VirtualMachine) {
		for name, value := range globals {
			vm.inputGlobals[name] = value
		}
	}
}

// WithBuiltins sets the read-only builtins mapping. The VM never writes to
// it. Without this option the VM has no builtins.
func WithBuiltins(builtins map[string]object.Object) Option {
	return func(vm *VirtualMachine) {
		vm.builtins = builtins
	}
}

// WithLogger sets the logger used for run and call diagnostics.
func WithLogger(logger zerolog.Logger) Option {
	return func(vm *VirtualMachine) {
		vm.logger = logger
	}
}

// WithObserver sets an observer for VM execution events.
// Returning false from any observer method halts execution immediately.
func WithObserver(observer Observer) Option {
	return func(vm *VirtualMachine) {
		vm.observer = observer
	}
}

// WithMaxFrameDepth limits how deeply closure calls may nest. Exceeding the
// limit is a recursion fault. Values <= 0 select DefaultMaxFrameDepth.
func WithMaxFrameDepth(depth int) Option {
	return func(vm *VirtualMachine) {
		if depth <= 0 {
			depth = DefaultMaxFrameDepth
		}
		vm.maxFrameDepth = depth
	}
}
