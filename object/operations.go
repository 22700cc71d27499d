package object

import (
	"github.com/cloudcmds/framevm/errz"
	"github.com/cloudcmds/framevm/op"
)

// BinaryOp applies a binary operator to two objects.
func BinaryOp(opType op.BinaryOpType, a, b Object) (Object, error) {
	return a.RunOperation(opType, b)
}

// InplaceOp applies an augmented assignment operator. Lists are extended in
// place by +; every other combination behaves like BinaryOp.
func InplaceOp(opType op.BinaryOpType, a, b Object) (Object, error) {
	if list, ok := a.(*List); ok && opType == op.Add {
		if err := list.Extend(b); err != nil {
			return nil, err
		}
		return list, nil
	}
	return BinaryOp(opType, a, b)
}

// Compare two objects using the given comparison operator. Ordering
// operators fail with a type fault when the objects are not ordered
// relative to each other.
func Compare(opType op.CompareOpType, a, b Object) (Object, error) {
	switch opType {
	case op.Equal:
		return NewBool(a.Equals(b)), nil
	case op.NotEqual:
		return NewBool(!a.Equals(b)), nil
	}

	var value int
	ok := false
	if comparable, isComparable := a.(Comparable); isComparable {
		value, ok = comparable.Compare(b)
	}
	if !ok {
		return nil, errz.TypeErrorf("'%s' not supported between instances of '%s' and '%s'",
			opType, a.Type(), b.Type())
	}

	switch opType {
	case op.LessThan:
		return NewBool(value < 0), nil
	case op.LessThanOrEqual:
		return NewBool(value <= 0), nil
	case op.GreaterThan:
		return NewBool(value > 0), nil
	case op.GreaterThanOrEqual:
		return NewBool(value >= 0), nil
	default:
		return nil, errz.MalformedCodef("unknown comparison operator: %d", opType)
	}
}

// Less reports whether a orders before b.
func Less(a, b Object) (bool, error) {
	result, err := Compare(op.LessThan, a, b)
	if err != nil {
		return false, err
	}
	return result.IsTruthy(), nil
}

// Is reports object identity. Numbers and strings of the same type and
// value are considered identical, since they are immutable.
func Is(a, b Object) bool {
	if a == b {
		return true
	}
	if a.Type() != b.Type() {
		return false
	}
	switch a.(type) {
	case *Int, *Float, *String:
		return a.Equals(b)
	}
	return false
}

func Negate(obj Object) (Object, error) {
	switch obj := obj.(type) {
	case *Int:
		return NewInt(-obj.value), nil
	case *Bool:
		return NewInt(-obj.asInt()), nil
	case *Float:
		return NewFloat(-obj.value), nil
	}
	return nil, errz.TypeErrorf("bad operand type for unary -: '%s'", obj.Type())
}

func Positive(obj Object) (Object, error) {
	switch obj := obj.(type) {
	case *Int, *Float:
		return obj, nil
	case *Bool:
		return NewInt(obj.asInt()), nil
	}
	return nil, errz.TypeErrorf("bad operand type for unary +: '%s'", obj.Type())
}

func Invert(obj Object) (Object, error) {
	switch obj := obj.(type) {
	case *Int:
		return NewInt(^obj.value), nil
	case *Bool:
		return NewInt(^obj.asInt()), nil
	}
	return nil, errz.TypeErrorf("bad operand type for unary ~: '%s'", obj.Type())
}

func Not(obj Object) Object {
	return NewBool(!obj.IsTruthy())
}

// Contains implements the "in" operator. Iterables without a dedicated
// membership test are searched item by item.
func Contains(container, item Object) (bool, error) {
	if c, ok := container.(Container); ok {
		return c.Contains(item)
	}
	if _, ok := container.(Iterable); !ok {
		return false, errz.TypeErrorf("argument of type '%s' is not iterable", container.Type())
	}
	it, err := GetIter(container)
	if err != nil {
		return false, err
	}
	for {
		value, ok, err := it.Next()
		if err != nil || !ok {
			return false, err
		}
		if Is(value, item) || value.Equals(item) {
			return true, nil
		}
	}
}

func GetItem(container, key Object) (Object, error) {
	s, ok := container.(Subscriptable)
	if !ok {
		return nil, errz.TypeErrorf("'%s' object is not subscriptable", container.Type())
	}
	return s.GetItem(key)
}

func SetItem(container, key, value Object) error {
	s, ok := container.(ItemSetter)
	if !ok {
		return errz.TypeErrorf("'%s' object does not support item assignment", container.Type())
	}
	return s.SetItem(key, value)
}

func DelItem(container, key Object) error {
	s, ok := container.(ItemDeleter)
	if !ok {
		return errz.TypeErrorf("'%s' object doesn't support item deletion", container.Type())
	}
	return s.DelItem(key)
}

func Len(obj Object) (int, error) {
	s, ok := obj.(Sized)
	if !ok {
		return 0, errz.TypeErrorf("object of type '%s' has no len()", obj.Type())
	}
	return s.Len(), nil
}

// GetAttr returns a named method of a host value.
func GetAttr(obj Object, name string) (Object, error) {
	if p, ok := obj.(MethodProvider); ok {
		if attr, found := p.GetAttr(name); found {
			return attr, nil
		}
	}
	return nil, errz.AttributeErrorf("'%s' object has no attribute '%s'", obj.Type(), name)
}

func unsupportedOperand(opType op.BinaryOpType, left, right Object) error {
	return errz.TypeErrorf("unsupported operand type(s) for %s: '%s' and '%s'",
		opType, left.Type(), right.Type())
}
