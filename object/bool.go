package object

import (
	"github.com/cloudcmds/framevm/op"
)

// Bool is a boolean. Booleans behave as the integers 0 and 1 in arithmetic
// and comparisons.
type Bool struct {
	value bool
}

// NewBool returns the True or False singleton.
func NewBool(value bool) *Bool {
	if value {
		return True
	}
	return False
}

func (b *Bool) Type() Type {
	return BOOL
}

func (b *Bool) Value() bool {
	return b.value
}

func (b *Bool) Inspect() string {
	if b.value {
		return "True"
	}
	return "False"
}

func (b *Bool) String() string {
	return b.Inspect()
}

func (b *Bool) Interface() any {
	return b.value
}

func (b *Bool) asInt() int64 {
	if b.value {
		return 1
	}
	return 0
}

func (b *Bool) Equals(other Object) bool {
	return NewInt(b.asInt()).Equals(other)
}

func (b *Bool) IsTruthy() bool {
	return b.value
}

func (b *Bool) HashKey() (HashKey, error) {
	return HashKey{Type: INT, Value: b.asInt()}, nil
}

func (b *Bool) Compare(other Object) (int, bool) {
	return NewInt(b.asInt()).Compare(other)
}

func (b *Bool) RunOperation(opType op.BinaryOpType, right Object) (Object, error) {
	if other, ok := right.(*Bool); ok {
		switch opType {
		case op.BitwiseAnd:
			return NewBool(b.value && other.value), nil
		case op.BitwiseOr:
			return NewBool(b.value || other.value), nil
		case op.Xor:
			return NewBool(b.value != other.value), nil
		}
	}
	return NewInt(b.asInt()).RunOperation(opType, right)
}
