// Package object provides the runtime values manipulated by the framevm
// virtual machine.
//
// Values are usually handled through the Object interface and type asserted
// to a concrete type when needed:
//
//	switch obj := obj.(type) {
//	case *object.Int:
//		// do something with obj.Value()
//	case *object.String:
//		// do something with obj.Value()
//	}
//
// Optional behavior is expressed by small capability interfaces such as
// Comparable, Subscriptable, Iterable and Callable. Operations that need a
// capability the operand lacks fail with an errz type fault.
package object

import (
	"context"
	"sort"

	"github.com/cloudcmds/framevm/op"
)

// Type of an object as a string.
type Type string

// Type constants
const (
	BOOL         Type = "bool"
	BOUND_METHOD Type = "method"
	BUILTIN      Type = "builtin_function"
	CODE         Type = "code"
	DICT         Type = "dict"
	FLOAT        Type = "float"
	FUNCTION     Type = "function"
	INT          Type = "int"
	ITER         Type = "iterator"
	LIST         Type = "list"
	NONE         Type = "NoneType"
	RANGE        Type = "range"
	SLICE        Type = "slice"
	STRING       Type = "str"
	TUPLE        Type = "tuple"
)

var (
	None  = &NoneType{}
	True  = &Bool{value: true}
	False = &Bool{value: false}
)

// Object is the interface that all runtime values implement.
type Object interface {
	// Type of the object.
	Type() Type

	// Inspect returns the printable representation of the object, in the
	// form a reader would type it as a literal where one exists.
	Inspect() string

	// Interface converts the object to a native Go value.
	Interface() any

	// Equals returns true if the given object is equal to this object.
	Equals(other Object) bool

	// IsTruthy returns true if the object is considered "truthy".
	IsTruthy() bool

	// RunOperation runs a binary operation with this object as the left
	// operand.
	RunOperation(opType op.BinaryOpType, right Object) (Object, error)
}

// Comparable is implemented by objects with an ordering. ok is false when
// the two objects cannot be ordered relative to each other.
//
//	-1 if this < other
//	 0 if this == other
//	 1 if this > other
type Comparable interface {
	Compare(other Object) (result int, ok bool)
}

// Hashable is implemented by objects that may be used as dict keys.
type Hashable interface {
	HashKey() (HashKey, error)
}

// Sized is implemented by objects with a length.
type Sized interface {
	Len() int
}

// Subscriptable implements the obj[key] operator.
type Subscriptable interface {
	GetItem(key Object) (Object, error)
}

// ItemSetter implements the obj[key] = value operator.
type ItemSetter interface {
	SetItem(key, value Object) error
}

// ItemDeleter implements the del obj[key] operator.
type ItemDeleter interface {
	DelItem(key Object) error
}

// Container implements the "in" operator.
type Container interface {
	Contains(item Object) (bool, error)
}

// Iterable is implemented by objects that can produce an Iterator.
type Iterable interface {
	Iter() Iterator
}

// Iterator produces the values of an iteration one at a time. ok is false
// once the iterator is exhausted.
type Iterator interface {
	Object
	Next() (value Object, ok bool, err error)
}

// Callable is an interface for objects that can be invoked as functions.
// Both *Builtin and *Function implement this interface, allowing host code
// to call functions without knowing their concrete type.
//
// For functions, Call uses the CallFunc stored in the context by the VM to
// run the function's code in a new frame. For builtins, Call invokes the
// wrapped Go function directly.
type Callable interface {
	Call(ctx context.Context, args ...Object) (Object, error)
}

// KeywordCallable is a Callable that also accepts keyword arguments. kwargs
// may be nil when no keyword arguments are supplied.
type KeywordCallable interface {
	Callable
	CallWithKeywords(ctx context.Context, args []Object, kwargs *Dict) (Object, error)
}

// MethodProvider is implemented by objects that expose named methods.
type MethodProvider interface {
	GetAttr(name string) (Object, bool)
}

// Introspectable is implemented by objects that can describe their methods.
type Introspectable interface {
	Attrs() []AttrSpec
}

// Keys returns the keys of an object map as a sorted slice of strings.
func Keys(m map[string]Object) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Str returns the informal string form of an object: the raw text of a
// string and the Inspect form of everything else.
func Str(obj Object) string {
	if s, ok := obj.(*String); ok {
		return s.value
	}
	return obj.Inspect()
}
