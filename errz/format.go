package errz

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// StackFrame identifies the instruction a frame was executing when a fault
// surfaced.
type StackFrame struct {
	Function string
	Filename string
	Offset   int
	Opname   string
}

// String returns a formatted string representation of the stack frame.
func (f StackFrame) String() string {
	name := f.Function
	if name == "" {
		name = "<anonymous>"
	}
	if f.Filename != "" {
		return fmt.Sprintf("at %s (%s@%d %s)", name, f.Filename, f.Offset, f.Opname)
	}
	return fmt.Sprintf("at %s (@%d %s)", name, f.Offset, f.Opname)
}

// FormatStackTrace formats a slice of stack frames as a human-readable
// string, innermost frame first.
func FormatStackTrace(frames []StackFrame) string {
	if len(frames) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("Stack trace:\n")
	for _, frame := range frames {
		b.WriteString("  ")
		b.WriteString(frame.String())
		b.WriteString("\n")
	}
	return b.String()
}

var (
	kindColor  = color.New(color.FgRed, color.Bold)
	depthColor = color.New(color.FgYellow)
)

// FriendlyErrorMessage returns the fault message followed by the frame depth
// and stack trace. Color is applied unless color.NoColor is set.
func (e *Fault) FriendlyErrorMessage() string {
	var b strings.Builder
	b.WriteString(kindColor.Sprint(e.Kind.String()))
	b.WriteString(": ")
	b.WriteString(e.Message)
	b.WriteString("\n")
	if e.HasStack() {
		b.WriteString(depthColor.Sprintf("frame depth %d", e.Depth))
		b.WriteString("\n")
		b.WriteString(FormatStackTrace(e.Stack))
	}
	return b.String()
}
