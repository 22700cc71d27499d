package object

import (
	"context"
	"fmt"

	"github.com/cloudcmds/framevm/bytecode"
	"github.com/cloudcmds/framevm/errz"
	"github.com/cloudcmds/framevm/op"
)

var _ KeywordCallable = (*Function)(nil)

// Function is a closure: a code object bundled with the positional defaults,
// the keyword-only defaults and a snapshot of the defining frame's locals.
// A Function holds no per-call state; each call runs in a fresh frame.
type Function struct {
	code       *bytecode.Code
	defaults   []Object
	kwDefaults *Dict
	snapshot   map[string]Object
}

// NewFunction returns a closure over the given code. The defaults slice and
// the snapshot map are owned by the function from this point on.
func NewFunction(code *bytecode.Code, defaults []Object, kwDefaults *Dict, snapshot map[string]Object) *Function {
	if kwDefaults == nil {
		kwDefaults = NewDict()
	}
	if snapshot == nil {
		snapshot = map[string]Object{}
	}
	return &Function{
		code:       code,
		defaults:   defaults,
		kwDefaults: kwDefaults,
		snapshot:   snapshot,
	}
}

func (f *Function) Type() Type {
	return FUNCTION
}

func (f *Function) Code() *bytecode.Code {
	return f.code
}

func (f *Function) Name() string {
	return f.code.Name()
}

// Defaults returns the positional defaults, aligned with the last
// positional parameters.
func (f *Function) Defaults() []Object {
	return f.defaults
}

// KwDefaults returns the keyword-only defaults by parameter name.
func (f *Function) KwDefaults() *Dict {
	return f.kwDefaults
}

// Snapshot returns the captured locals of the defining frame. Callers must
// not modify the returned map.
func (f *Function) Snapshot() map[string]Object {
	return f.snapshot
}

func (f *Function) Inspect() string {
	return fmt.Sprintf("<function %s>", f.code.Name())
}

func (f *Function) String() string {
	return f.Inspect()
}

func (f *Function) Interface() any {
	return nil
}

func (f *Function) Equals(other Object) bool {
	o, ok := other.(*Function)
	return ok && f == o
}

func (f *Function) IsTruthy() bool {
	return true
}

func (f *Function) RunOperation(opType op.BinaryOpType, right Object) (Object, error) {
	return nil, unsupportedOperand(opType, f, right)
}

func (f *Function) Call(ctx context.Context, args ...Object) (Object, error) {
	return f.CallWithKeywords(ctx, args, nil)
}

func (f *Function) CallWithKeywords(ctx context.Context, args []Object, kwargs *Dict) (Object, error) {
	call, ok := GetCallFunc(ctx)
	if !ok {
		return nil, errz.TypeErrorf("function %s called outside of a running vm", f.code.Name())
	}
	return call(ctx, f, args, kwargs)
}

// CodeValue is a code object used as a runtime value, as loaded from the
// constant pool before MAKE_FUNCTION turns it into a Function.
type CodeValue struct {
	code *bytecode.Code
}

func NewCodeValue(code *bytecode.Code) *CodeValue {
	return &CodeValue{code: code}
}

func (c *CodeValue) Type() Type {
	return CODE
}

func (c *CodeValue) Code() *bytecode.Code {
	return c.code
}

func (c *CodeValue) Inspect() string {
	return fmt.Sprintf("<code object %s>", c.code.Name())
}

func (c *CodeValue) Interface() any {
	return c.code
}

func (c *CodeValue) Equals(other Object) bool {
	o, ok := other.(*CodeValue)
	return ok && c.code == o.code
}

func (c *CodeValue) IsTruthy() bool {
	return true
}

func (c *CodeValue) RunOperation(opType op.BinaryOpType, right Object) (Object, error) {
	return nil, unsupportedOperand(opType, c, right)
}

var _ KeywordCallable = (*BoundMethod)(nil)

// BoundMethod is a method of a host value bound to its receiver.
type BoundMethod struct {
	receiver Object
	name     string
	fn       func(ctx context.Context, args []Object, kwargs *Dict) (Object, error)
}

func (m *BoundMethod) Type() Type {
	return BOUND_METHOD
}

func (m *BoundMethod) Name() string {
	return m.name
}

func (m *BoundMethod) Receiver() Object {
	return m.receiver
}

func (m *BoundMethod) Inspect() string {
	return fmt.Sprintf("<bound method %s>", m.name)
}

func (m *BoundMethod) Interface() any {
	return nil
}

func (m *BoundMethod) Equals(other Object) bool {
	o, ok := other.(*BoundMethod)
	return ok && m.name == o.name && m.receiver == o.receiver
}

func (m *BoundMethod) IsTruthy() bool {
	return true
}

func (m *BoundMethod) RunOperation(opType op.BinaryOpType, right Object) (Object, error) {
	return nil, unsupportedOperand(opType, m, right)
}

func (m *BoundMethod) Call(ctx context.Context, args ...Object) (Object, error) {
	return m.fn(ctx, args, nil)
}

func (m *BoundMethod) CallWithKeywords(ctx context.Context, args []Object, kwargs *Dict) (Object, error) {
	return m.fn(ctx, args, kwargs)
}
