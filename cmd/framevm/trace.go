package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/cloudcmds/framevm/vm"
)

var (
	traceOpColor   = color.New(color.FgCyan)
	traceCallColor = color.New(color.FgGreen)
)

// tracer prints one line per executed instruction, indented by frame depth,
// and marks closure calls and returns.
type tracer struct {
	vm.NoOpObserver
	w io.Writer
}

func newTracer(w io.Writer) *tracer {
	return &tracer{w: w}
}

func (t *tracer) Config() vm.ObserverConfig {
	return vm.NewObserverConfig(vm.StepAll)
}

func (t *tracer) indent(depth int) string {
	return strings.Repeat("  ", depth-1)
}

func (t *tracer) OnStep(event vm.StepEvent) bool {
	fmt.Fprintf(t.w, "%s%-12s %4d %s %d [stack %d]\n",
		t.indent(event.FrameDepth),
		event.Function,
		event.Offset,
		traceOpColor.Sprint(event.OpcodeName),
		event.Arg,
		event.StackDepth)
	return true
}

func (t *tracer) OnCall(event vm.CallEvent) bool {
	fmt.Fprintf(t.w, "%s%s %s(%d args, %d kwargs)\n",
		t.indent(event.FrameDepth),
		traceCallColor.Sprint("call"),
		event.FunctionName,
		event.ArgCount,
		event.KwargCount)
	return true
}

func (t *tracer) OnReturn(event vm.ReturnEvent) bool {
	fmt.Fprintf(t.w, "%s%s %s -> %s\n",
		t.indent(event.FrameDepth),
		traceCallColor.Sprint("return"),
		event.FunctionName,
		event.Value.Inspect())
	return true
}
