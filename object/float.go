package object

import (
	"math"
	"strconv"
	"strings"

	"github.com/cloudcmds/framevm/errz"
	"github.com/cloudcmds/framevm/op"
)

// Float wraps float64 and implements Object, Hashable and Comparable.
type Float struct {
	value float64
}

func NewFloat(value float64) *Float {
	return &Float{value: value}
}

func (f *Float) Type() Type {
	return FLOAT
}

func (f *Float) Value() float64 {
	return f.value
}

func (f *Float) Inspect() string {
	return formatFloat(f.value)
}

func (f *Float) String() string {
	return f.Inspect()
}

func (f *Float) Interface() any {
	return f.value
}

func (f *Float) Equals(other Object) bool {
	switch other := other.(type) {
	case *Int:
		return f.value == float64(other.value)
	case *Bool:
		return f.value == float64(other.asInt())
	case *Float:
		return f.value == other.value
	}
	return false
}

func (f *Float) IsTruthy() bool {
	return f.value != 0.0
}

// HashKey returns the key of the equal integer when the float is integral,
// so that 1.0 and 1 address the same dict entry.
func (f *Float) HashKey() (HashKey, error) {
	if f.value == math.Trunc(f.value) && math.Abs(f.value) < 1<<63 {
		return HashKey{Type: INT, Value: int64(f.value)}, nil
	}
	return HashKey{Type: FLOAT, Value: f.value}, nil
}

func (f *Float) Compare(other Object) (int, bool) {
	switch other := other.(type) {
	case *Float:
		return compareFloats(f.value, other.value)
	case *Int:
		return compareFloats(f.value, float64(other.value))
	case *Bool:
		return compareFloats(f.value, float64(other.asInt()))
	}
	return 0, false
}

func (f *Float) RunOperation(opType op.BinaryOpType, right Object) (Object, error) {
	switch r := right.(type) {
	case *Int:
		return floatOp(opType, f.value, float64(r.value), f, right)
	case *Bool:
		return floatOp(opType, f.value, float64(r.asInt()), f, right)
	case *Float:
		return floatOp(opType, f.value, r.value, f, right)
	}
	return nil, unsupportedOperand(opType, f, right)
}

func floatOp(opType op.BinaryOpType, a, b float64, left, right Object) (Object, error) {
	switch opType {
	case op.Add:
		return NewFloat(a + b), nil
	case op.Subtract:
		return NewFloat(a - b), nil
	case op.Multiply:
		return NewFloat(a * b), nil
	case op.TrueDivide:
		if b == 0 {
			return nil, errz.ZeroDivisionErrorf("float division by zero")
		}
		return NewFloat(a / b), nil
	case op.FloorDivide:
		if b == 0 {
			return nil, errz.ZeroDivisionErrorf("float floor division by zero")
		}
		return NewFloat(math.Floor(a / b)), nil
	case op.Modulo:
		if b == 0 {
			return nil, errz.ZeroDivisionErrorf("float modulo")
		}
		m := math.Mod(a, b)
		if m != 0 && (m < 0) != (b < 0) {
			m += b
		}
		return NewFloat(m), nil
	case op.Power:
		if a == 0 && b < 0 {
			return nil, errz.ZeroDivisionErrorf("0.0 cannot be raised to a negative power")
		}
		if a < 0 && b != math.Trunc(b) {
			return nil, errz.ValueErrorf("math domain error")
		}
		return NewFloat(math.Pow(a, b)), nil
	}
	return nil, unsupportedOperand(opType, left, right)
}

func compareFloats(a, b float64) (int, bool) {
	switch {
	case a < b:
		return -1, true
	case a > b:
		return 1, true
	case a == b:
		return 0, true
	default:
		// NaN is unordered.
		return 0, false
	}
}

// formatFloat formats a float the way it is written as a literal: always
// with a decimal point or exponent, switching to exponent form for very
// large or very small magnitudes.
func formatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case math.IsNaN(f):
		return "nan"
	}
	if f != 0 {
		exp := math.Floor(math.Log10(math.Abs(f)))
		if exp < -4 || exp >= 16 {
			return strconv.FormatFloat(f, 'e', -1, 64)
		}
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
