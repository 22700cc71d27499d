// Package errz defines the faults raised while decoding and executing code
// objects. Every fault is fatal to the frame in which it occurs and
// propagates unchanged to the caller of the virtual machine.
package errz

import (
	"errors"
	"fmt"
)

// ErrorKind represents the category of a fault. ErrorKind implements error so
// that callers can test for a category with errors.Is:
//
//	if errors.Is(err, errz.ErrName) { ... }
type ErrorKind int

const (
	// ErrName indicates a scope lookup that exhausted its chain.
	ErrName ErrorKind = iota + 1
	// ErrUnboundLocal indicates a fast-locals lookup with no binding.
	ErrUnboundLocal
	// ErrStackUnderflow indicates an instruction needed more operands than
	// the operand stack held.
	ErrStackUnderflow
	// ErrMalformedCode indicates an undecodable instruction stream or one
	// that runs off its end without returning.
	ErrMalformedCode
	// ErrArity indicates too many positional arguments.
	ErrArity
	// ErrMissingArgument indicates a parameter with neither a value nor a
	// default.
	ErrMissingArgument
	// ErrUnexpectedKeyword indicates a keyword argument that matches no
	// parameter.
	ErrUnexpectedKeyword
	// ErrType indicates operands incompatible with an operation.
	ErrType
	// ErrValue indicates an operand of the right type but invalid value.
	ErrValue
	// ErrIndex indicates a sequence index out of range.
	ErrIndex
	// ErrKey indicates a missing mapping key.
	ErrKey
	// ErrZeroDivision indicates division or modulo by zero.
	ErrZeroDivision
	// ErrRecursion indicates the frame depth limit was exceeded.
	ErrRecursion
	// ErrHalted indicates an observer stopped execution.
	ErrHalted
	// ErrAttribute indicates a method lookup on a value without that method.
	ErrAttribute
	// ErrRuntime wraps an error returned by a host callable that is not
	// itself a fault.
	ErrRuntime
)

// String returns the string representation of the error kind.
func (k ErrorKind) String() string {
	switch k {
	case ErrName:
		return "name error"
	case ErrUnboundLocal:
		return "unbound local error"
	case ErrStackUnderflow:
		return "stack underflow"
	case ErrMalformedCode:
		return "malformed code"
	case ErrArity:
		return "arity error"
	case ErrMissingArgument:
		return "missing argument"
	case ErrUnexpectedKeyword:
		return "unexpected keyword argument"
	case ErrType:
		return "type error"
	case ErrValue:
		return "value error"
	case ErrIndex:
		return "index error"
	case ErrKey:
		return "key error"
	case ErrZeroDivision:
		return "zero division error"
	case ErrRecursion:
		return "recursion error"
	case ErrHalted:
		return "halted"
	case ErrAttribute:
		return "attribute error"
	case ErrRuntime:
		return "runtime error"
	default:
		return "error"
	}
}

func (k ErrorKind) Error() string {
	return k.String()
}

// Fault is a categorized error. Faults raised by value operations carry no
// stack; the frame in which a fault surfaces records its depth and the chain
// of active frames.
type Fault struct {
	Kind    ErrorKind
	Message string
	Depth   int
	Stack   []StackFrame
	Cause   error
}

// Error implements the error interface.
func (e *Fault) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause of the fault.
func (e *Fault) Unwrap() error {
	return e.Cause
}

// Is reports whether target is this fault's kind.
func (e *Fault) Is(target error) bool {
	kind, ok := target.(ErrorKind)
	return ok && kind == e.Kind
}

// HasStack reports whether a frame has already recorded its stack on this
// fault.
func (e *Fault) HasStack() bool {
	return len(e.Stack) > 0
}

// New creates a fault with a formatted message.
func New(kind ErrorKind, format string, args ...any) *Fault {
	return &Fault{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a fault of the given kind whose message is taken from cause.
func Wrap(kind ErrorKind, cause error) *Fault {
	return &Fault{
		Kind:    kind,
		Message: cause.Error(),
		Cause:   cause,
	}
}

// WithCause sets the underlying cause of the fault.
func (e *Fault) WithCause(cause error) *Fault {
	e.Cause = cause
	return e
}

// KindOf returns the kind of the first fault in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var fault *Fault
	if errors.As(err, &fault) {
		return fault.Kind, true
	}
	return 0, false
}

// Constructors for the kinds raised by value operations.

func TypeErrorf(format string, args ...any) *Fault {
	return New(ErrType, format, args...)
}

func ValueErrorf(format string, args ...any) *Fault {
	return New(ErrValue, format, args...)
}

func IndexErrorf(format string, args ...any) *Fault {
	return New(ErrIndex, format, args...)
}

func KeyErrorf(format string, args ...any) *Fault {
	return New(ErrKey, format, args...)
}

func ZeroDivisionErrorf(format string, args ...any) *Fault {
	return New(ErrZeroDivision, format, args...)
}

func AttributeErrorf(format string, args ...any) *Fault {
	return New(ErrAttribute, format, args...)
}

func MalformedCodef(format string, args ...any) *Fault {
	return New(ErrMalformedCode, format, args...)
}
