package object

import (
	"math"
	"strconv"

	"github.com/cloudcmds/framevm/errz"
	"github.com/cloudcmds/framevm/op"
)

// Int wraps int64 and implements Object, Hashable and Comparable.
// Arithmetic wraps on int64 overflow.
type Int struct {
	value int64
}

func NewInt(value int64) *Int {
	return &Int{value: value}
}

func (i *Int) Type() Type {
	return INT
}

func (i *Int) Value() int64 {
	return i.value
}

func (i *Int) Inspect() string {
	return strconv.FormatInt(i.value, 10)
}

func (i *Int) String() string {
	return i.Inspect()
}

func (i *Int) Interface() any {
	return i.value
}

func (i *Int) Equals(other Object) bool {
	switch other := other.(type) {
	case *Int:
		return i.value == other.value
	case *Bool:
		return i.value == other.asInt()
	case *Float:
		return float64(i.value) == other.value
	}
	return false
}

func (i *Int) IsTruthy() bool {
	return i.value != 0
}

func (i *Int) HashKey() (HashKey, error) {
	return HashKey{Type: INT, Value: i.value}, nil
}

func (i *Int) Compare(other Object) (int, bool) {
	switch other := other.(type) {
	case *Int:
		return compareInts(i.value, other.value), true
	case *Bool:
		return compareInts(i.value, other.asInt()), true
	case *Float:
		return compareFloats(float64(i.value), other.value)
	}
	return 0, false
}

func (i *Int) RunOperation(opType op.BinaryOpType, right Object) (Object, error) {
	switch right := right.(type) {
	case *Int:
		return intOp(opType, i.value, right.value)
	case *Bool:
		return intOp(opType, i.value, right.asInt())
	case *Float:
		return floatOp(opType, float64(i.value), right.value, i, right)
	case *String, *List, *Tuple:
		if opType == op.Multiply {
			return right.RunOperation(opType, i)
		}
	}
	return nil, unsupportedOperand(opType, i, right)
}

func intOp(opType op.BinaryOpType, a, b int64) (Object, error) {
	switch opType {
	case op.Add:
		return NewInt(a + b), nil
	case op.Subtract:
		return NewInt(a - b), nil
	case op.Multiply:
		return NewInt(a * b), nil
	case op.TrueDivide:
		if b == 0 {
			return nil, errz.ZeroDivisionErrorf("division by zero")
		}
		return NewFloat(float64(a) / float64(b)), nil
	case op.FloorDivide:
		if b == 0 {
			return nil, errz.ZeroDivisionErrorf("integer division or modulo by zero")
		}
		q := a / b
		if a%b != 0 && (a < 0) != (b < 0) {
			q--
		}
		return NewInt(q), nil
	case op.Modulo:
		if b == 0 {
			return nil, errz.ZeroDivisionErrorf("integer division or modulo by zero")
		}
		m := a % b
		if m != 0 && (m < 0) != (b < 0) {
			m += b
		}
		return NewInt(m), nil
	case op.Power:
		if b < 0 {
			if a == 0 {
				return nil, errz.ZeroDivisionErrorf("0.0 cannot be raised to a negative power")
			}
			return NewFloat(math.Pow(float64(a), float64(b))), nil
		}
		return NewInt(intPow(a, b)), nil
	case op.LShift:
		if b < 0 {
			return nil, errz.ValueErrorf("negative shift count")
		}
		return NewInt(a << uint64(b)), nil
	case op.RShift:
		if b < 0 {
			return nil, errz.ValueErrorf("negative shift count")
		}
		return NewInt(a >> uint64(b)), nil
	case op.BitwiseAnd:
		return NewInt(a & b), nil
	case op.BitwiseOr:
		return NewInt(a | b), nil
	case op.Xor:
		return NewInt(a ^ b), nil
	}
	return nil, errz.TypeErrorf("unsupported operand type(s) for %s: 'int' and 'int'", opType)
}

func intPow(base, exp int64) int64 {
	result := int64(1)
	for exp > 0 {
		if exp&1 == 1 {
			result *= base
		}
		base *= base
		exp >>= 1
	}
	return result
}

func compareInts(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
