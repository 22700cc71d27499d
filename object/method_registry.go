package object

import (
	"context"
	"fmt"
	"slices"

	"github.com/cloudcmds/framevm/errz"
)

// MethodDef combines a method's specification with its implementation.
// Exactly one of Impl and ImplKw is set.
type MethodDef[T any] struct {
	Spec     AttrSpec
	Required int
	Impl     func(self T, ctx context.Context, args ...Object) (Object, error)
	ImplKw   func(self T, ctx context.Context, args []Object, kwargs *Dict) (Object, error)
}

// MethodRegistry holds all methods for a given object type.
type MethodRegistry[T Object] struct {
	typeName string
	methods  map[string]MethodDef[T]
	specs    []AttrSpec
}

// MethodBuilder provides a fluent API for defining a single method.
type MethodBuilder[T Object] struct {
	registry *MethodRegistry[T]
	name     string
	doc      string
	args     []string
	optional []string
	returns  string
}

// NewMethodRegistry creates a registry for the given type name.
func NewMethodRegistry[T Object](typeName string) *MethodRegistry[T] {
	return &MethodRegistry[T]{
		typeName: typeName,
		methods:  make(map[string]MethodDef[T]),
	}
}

// Define starts building a new method definition.
func (r *MethodRegistry[T]) Define(name string) *MethodBuilder[T] {
	return &MethodBuilder[T]{
		registry: r,
		name:     name,
	}
}

// Specs returns a copy of all registered method specifications in
// registration order.
func (r *MethodRegistry[T]) Specs() []AttrSpec {
	return slices.Clone(r.specs)
}

// GetAttr returns the named method bound to self.
func (r *MethodRegistry[T]) GetAttr(self T, name string) (Object, bool) {
	m, ok := r.methods[name]
	if !ok {
		return nil, false
	}
	fullName := r.typeName + "." + name
	maxArgs := len(m.Spec.Args)
	return &BoundMethod{
		receiver: self,
		name:     fullName,
		fn: func(ctx context.Context, args []Object, kwargs *Dict) (Object, error) {
			if len(args) < m.Required || len(args) > maxArgs {
				return nil, argsError(fullName, m.Required, maxArgs, len(args))
			}
			if m.ImplKw != nil {
				return m.ImplKw(self, ctx, args, kwargs)
			}
			if kwargs.Len() > 0 {
				return nil, errz.TypeErrorf("%s() takes no keyword arguments", fullName)
			}
			return m.Impl(self, ctx, args...)
		},
	}, true
}

// Doc sets the method's documentation string.
func (b *MethodBuilder[T]) Doc(doc string) *MethodBuilder[T] {
	b.doc = doc
	return b
}

// Arg adds a required argument by name.
func (b *MethodBuilder[T]) Arg(name string) *MethodBuilder[T] {
	b.args = append(b.args, name)
	return b
}

// Args adds multiple required arguments.
func (b *MethodBuilder[T]) Args(names ...string) *MethodBuilder[T] {
	b.args = append(b.args, names...)
	return b
}

// OptionalArg adds an optional argument, which must follow the required
// arguments.
func (b *MethodBuilder[T]) OptionalArg(name string) *MethodBuilder[T] {
	b.optional = append(b.optional, name)
	return b
}

// Returns sets the return type (for documentation/tooling).
func (b *MethodBuilder[T]) Returns(typ string) *MethodBuilder[T] {
	b.returns = typ
	return b
}

// Impl sets a positional-only implementation and registers the method.
func (b *MethodBuilder[T]) Impl(fn func(T, context.Context, ...Object) (Object, error)) {
	b.register(MethodDef[T]{Impl: fn})
}

// ImplKw sets an implementation that also receives keyword arguments and
// registers the method.
func (b *MethodBuilder[T]) ImplKw(fn func(T, context.Context, []Object, *Dict) (Object, error)) {
	b.register(MethodDef[T]{ImplKw: fn})
}

// register panics if a method with the same name is already registered.
func (b *MethodBuilder[T]) register(def MethodDef[T]) {
	r := b.registry
	if _, exists := r.methods[b.name]; exists {
		panic(fmt.Sprintf("%s: method %q already registered", r.typeName, b.name))
	}
	args := append(slices.Clone(b.args), b.optional...)
	def.Spec = AttrSpec{
		Name:    b.name,
		Doc:     b.doc,
		Args:    args,
		Returns: b.returns,
	}
	def.Required = len(b.args)
	r.methods[b.name] = def
	r.specs = append(r.specs, def.Spec)
}

// argsError returns a grammatically correct argument count error.
func argsError(name string, minArgs, maxArgs, got int) error {
	switch {
	case minArgs != maxArgs:
		return errz.TypeErrorf("%s: expected %d to %d arguments, got %d", name, minArgs, maxArgs, got)
	case minArgs == 1:
		return errz.TypeErrorf("%s: expected 1 argument, got %d", name, got)
	default:
		return errz.TypeErrorf("%s: expected %d arguments, got %d", name, minArgs, got)
	}
}
