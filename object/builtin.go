package object

import (
	"context"
	"fmt"

	"github.com/cloudcmds/framevm/errz"
	"github.com/cloudcmds/framevm/op"
)

var _ KeywordCallable = (*Builtin)(nil) // Ensure that *Builtin implements KeywordCallable

// BuiltinFunction holds the type of a built-in function.
type BuiltinFunction func(ctx context.Context, args ...Object) (Object, error)

// KeywordBuiltinFunction holds the type of a built-in function that accepts
// keyword arguments. kwargs is nil when none are supplied.
type KeywordBuiltinFunction func(ctx context.Context, args []Object, kwargs *Dict) (Object, error)

// Builtin wraps a Go function and implements the Object interface. It is an
// opaque host callable: the VM invokes it directly instead of running a
// frame.
type Builtin struct {
	// The function that this object wraps. Exactly one is set.
	fn   BuiltinFunction
	kwfn KeywordBuiltinFunction

	// The name of the function.
	name string
}

// NewBuiltin creates a new builtin function with the given name and function.
func NewBuiltin(name string, fn BuiltinFunction) *Builtin {
	return &Builtin{fn: fn, name: name}
}

// NewKeywordBuiltin creates a builtin function that accepts keyword
// arguments.
func NewKeywordBuiltin(name string, fn KeywordBuiltinFunction) *Builtin {
	return &Builtin{kwfn: fn, name: name}
}

// NewNoopBuiltin creates a builtin function that has no effect.
func NewNoopBuiltin(name string) *Builtin {
	return &Builtin{
		fn: func(ctx context.Context, args ...Object) (Object, error) {
			return None, nil
		},
		name: name,
	}
}

func (b *Builtin) Type() Type {
	return BUILTIN
}

func (b *Builtin) Name() string {
	return b.name
}

func (b *Builtin) Inspect() string {
	return fmt.Sprintf("<built-in function %s>", b.name)
}

func (b *Builtin) String() string {
	return b.Inspect()
}

func (b *Builtin) Interface() any {
	return nil
}

func (b *Builtin) Equals(other Object) bool {
	otherBuiltin, ok := other.(*Builtin)
	return ok && b == otherBuiltin
}

func (b *Builtin) IsTruthy() bool {
	return true
}

func (b *Builtin) RunOperation(opType op.BinaryOpType, right Object) (Object, error) {
	return nil, unsupportedOperand(opType, b, right)
}

// AcceptsKeywords reports whether the builtin takes keyword arguments.
func (b *Builtin) AcceptsKeywords() bool {
	return b.kwfn != nil
}

func (b *Builtin) Call(ctx context.Context, args ...Object) (Object, error) {
	if b.fn != nil {
		return b.fn(ctx, args...)
	}
	return b.kwfn(ctx, args, nil)
}

func (b *Builtin) CallWithKeywords(ctx context.Context, args []Object, kwargs *Dict) (Object, error) {
	if b.kwfn != nil {
		return b.kwfn(ctx, args, kwargs)
	}
	if kwargs.Len() > 0 {
		return nil, errz.TypeErrorf("%s() takes no keyword arguments", b.name)
	}
	return b.fn(ctx, args...)
}
