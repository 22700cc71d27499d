// Package op defines the opcodes understood by the framevm decoder and
// virtual machine.
//
// Instructions are encoded as two-byte units: an opcode byte followed by an
// argument byte. Opcodes below HaveArgument ignore their argument byte. Wider
// arguments are expressed with one or more ExtendedArg prefixes.
package op

import "fmt"

// Code is an opcode that indicates an operation to execute.
type Code uint8

// HaveArgument is the first opcode whose argument byte is meaningful.
const HaveArgument Code = 90

// UnitSize is the width in bytes of one instruction unit.
const UnitSize = 2

const (
	Invalid Code = 0

	// Stack
	PopTop    Code = 1
	RotTwo    Code = 2
	RotThree  Code = 3
	DupTop    Code = 4
	DupTopTwo Code = 5
	RotFour   Code = 6
	Nop       Code = 9

	// Unary operations
	UnaryPositive Code = 10
	UnaryNegative Code = 11
	UnaryNot      Code = 12
	UnaryInvert   Code = 15

	// Containers
	BinarySubscr Code = 25
	StoreSubscr  Code = 60
	DeleteSubscr Code = 61

	// Iteration and return
	GetIter     Code = 68
	ReturnValue Code = 83

	// Names
	StoreName    Code = 90
	DeleteName   Code = 91
	StoreGlobal  Code = 97
	DeleteGlobal Code = 98
	LoadConst    Code = 100
	LoadName     Code = 101
	LoadGlobal   Code = 116
	LoadFast     Code = 124
	StoreFast    Code = 125
	DeleteFast   Code = 126

	// Build
	UnpackSequence   Code = 92
	BuildTuple       Code = 102
	BuildList        Code = 103
	BuildMap         Code = 105
	BuildSlice       Code = 133
	ListAppend       Code = 145
	FormatValue      Code = 155
	BuildConstKeyMap Code = 156
	BuildString      Code = 157
	ListExtend       Code = 162

	// Operations
	CompareOp  Code = 107
	IsOp       Code = 117
	ContainsOp Code = 118
	BinaryOp   Code = 170
	InplaceOp  Code = 171

	// Jump
	ForIter          Code = 93
	JumpForward      Code = 110
	JumpIfFalseOrPop Code = 111
	JumpIfTrueOrPop  Code = 112
	JumpAbsolute     Code = 113
	PopJumpIfFalse   Code = 114
	PopJumpIfTrue    Code = 115

	// Functions
	CallFunction   Code = 131
	MakeFunction   Code = 132
	CallFunctionKw Code = 141
	CallFunctionEx Code = 142
	LoadMethod     Code = 160
	CallMethod     Code = 161

	// Encoding
	ExtendedArg Code = 144
)

// MakeFunction flags.
const (
	MakeDefaults    = 0x01
	MakeKwDefaults  = 0x02
	MakeAnnotations = 0x04
	MakeClosure     = 0x08
)

// CallFunctionEx flags.
const CallHasKwargs = 0x01

// FormatValue flags.
const (
	FormatConvMask = 0x03
	FormatConvNone = 0x00
	FormatConvStr  = 0x01
	FormatConvRepr = 0x02
	FormatHasSpec  = 0x04
)

// HasArg reports whether the argument byte of this opcode is meaningful.
func (c Code) HasArg() bool {
	return c >= HaveArgument
}

// String returns the opcode name, e.g. "LOAD_CONST".
func (c Code) String() string {
	if info := infos[c]; info.Name != "" {
		return info.Name
	}
	return fmt.Sprintf("<%d>", uint8(c))
}

// IsJump reports whether the opcode may transfer control to a target offset.
func (c Code) IsJump() bool {
	kind := infos[c].ArgKind
	return kind == ArgJumpAbs || kind == ArgJumpRel
}

// ArgKind describes how an instruction argument is interpreted.
type ArgKind uint8

const (
	ArgNone ArgKind = iota
	// ArgCount is a plain integer (item counts, argument counts, booleans).
	ArgCount
	// ArgConst indexes the constant pool.
	ArgConst
	// ArgName indexes the name pool.
	ArgName
	// ArgLocal indexes the local variable names.
	ArgLocal
	// ArgJumpAbs is an absolute byte offset.
	ArgJumpAbs
	// ArgJumpRel is a byte delta from the end of the instruction.
	ArgJumpRel
	ArgBinaryOp
	ArgCompareOp
	ArgFlags
)

func (k ArgKind) String() string {
	switch k {
	case ArgNone:
		return "none"
	case ArgCount:
		return "count"
	case ArgConst:
		return "const"
	case ArgName:
		return "name"
	case ArgLocal:
		return "local"
	case ArgJumpAbs:
		return "jabs"
	case ArgJumpRel:
		return "jrel"
	case ArgBinaryOp:
		return "binop"
	case ArgCompareOp:
		return "cmpop"
	case ArgFlags:
		return "flags"
	default:
		return fmt.Sprintf("ArgKind(%d)", k)
	}
}

// BinaryOpType describes a type of binary operation, as in an operation that
// takes two operands. For example, addition, subtraction, multiplication, etc.
type BinaryOpType uint16

const (
	Add         BinaryOpType = 1
	Subtract    BinaryOpType = 2
	Multiply    BinaryOpType = 3
	TrueDivide  BinaryOpType = 4
	FloorDivide BinaryOpType = 5
	Modulo      BinaryOpType = 6
	Power       BinaryOpType = 7
	LShift      BinaryOpType = 8
	RShift      BinaryOpType = 9
	BitwiseAnd  BinaryOpType = 10
	BitwiseOr   BinaryOpType = 11
	Xor         BinaryOpType = 12
)

// String returns a string representation of the binary operation.
// For example "+" for addition.
func (bop BinaryOpType) String() string {
	switch bop {
	case Add:
		return "+"
	case Subtract:
		return "-"
	case Multiply:
		return "*"
	case TrueDivide:
		return "/"
	case FloorDivide:
		return "//"
	case Modulo:
		return "%"
	case Power:
		return "**"
	case LShift:
		return "<<"
	case RShift:
		return ">>"
	case BitwiseAnd:
		return "&"
	case BitwiseOr:
		return "|"
	case Xor:
		return "^"
	default:
		return ""
	}
}

// CompareOpType describes a type of comparison operation. For example, less
// than, greater than, equal, etc.
type CompareOpType uint16

const (
	LessThan           CompareOpType = 1
	LessThanOrEqual    CompareOpType = 2
	Equal              CompareOpType = 3
	NotEqual           CompareOpType = 4
	GreaterThan        CompareOpType = 5
	GreaterThanOrEqual CompareOpType = 6
)

// String returns a string representation of the comparison operation.
// For example "<" for less than.
func (cop CompareOpType) String() string {
	switch cop {
	case LessThan:
		return "<"
	case LessThanOrEqual:
		return "<="
	case Equal:
		return "=="
	case NotEqual:
		return "!="
	case GreaterThan:
		return ">"
	case GreaterThanOrEqual:
		return ">="
	default:
		return ""
	}
}

// Info contains information about an opcode.
type Info struct {
	Code    Code
	Name    string
	ArgKind ArgKind
}

var (
	infos  = make([]Info, 256)
	byName = map[string]Code{}
)

func init() {
	type opInfo struct {
		op   Code
		name string
		kind ArgKind
	}
	ops := []opInfo{
		{BinaryOp, "BINARY_OP", ArgBinaryOp},
		{BinarySubscr, "BINARY_SUBSCR", ArgNone},
		{BuildConstKeyMap, "BUILD_CONST_KEY_MAP", ArgCount},
		{BuildList, "BUILD_LIST", ArgCount},
		{BuildMap, "BUILD_MAP", ArgCount},
		{BuildSlice, "BUILD_SLICE", ArgCount},
		{BuildString, "BUILD_STRING", ArgCount},
		{BuildTuple, "BUILD_TUPLE", ArgCount},
		{CallFunction, "CALL_FUNCTION", ArgCount},
		{CallFunctionEx, "CALL_FUNCTION_EX", ArgFlags},
		{CallFunctionKw, "CALL_FUNCTION_KW", ArgCount},
		{CallMethod, "CALL_METHOD", ArgCount},
		{CompareOp, "COMPARE_OP", ArgCompareOp},
		{ContainsOp, "CONTAINS_OP", ArgCount},
		{DeleteFast, "DELETE_FAST", ArgLocal},
		{DeleteGlobal, "DELETE_GLOBAL", ArgName},
		{DeleteName, "DELETE_NAME", ArgName},
		{DeleteSubscr, "DELETE_SUBSCR", ArgNone},
		{DupTop, "DUP_TOP", ArgNone},
		{DupTopTwo, "DUP_TOP_TWO", ArgNone},
		{ExtendedArg, "EXTENDED_ARG", ArgCount},
		{ForIter, "FOR_ITER", ArgJumpRel},
		{FormatValue, "FORMAT_VALUE", ArgFlags},
		{GetIter, "GET_ITER", ArgNone},
		{InplaceOp, "INPLACE_OP", ArgBinaryOp},
		{IsOp, "IS_OP", ArgCount},
		{JumpAbsolute, "JUMP_ABSOLUTE", ArgJumpAbs},
		{JumpForward, "JUMP_FORWARD", ArgJumpRel},
		{JumpIfFalseOrPop, "JUMP_IF_FALSE_OR_POP", ArgJumpAbs},
		{JumpIfTrueOrPop, "JUMP_IF_TRUE_OR_POP", ArgJumpAbs},
		{ListAppend, "LIST_APPEND", ArgCount},
		{ListExtend, "LIST_EXTEND", ArgCount},
		{LoadConst, "LOAD_CONST", ArgConst},
		{LoadFast, "LOAD_FAST", ArgLocal},
		{LoadGlobal, "LOAD_GLOBAL", ArgName},
		{LoadMethod, "LOAD_METHOD", ArgName},
		{LoadName, "LOAD_NAME", ArgName},
		{MakeFunction, "MAKE_FUNCTION", ArgFlags},
		{Nop, "NOP", ArgNone},
		{PopJumpIfFalse, "POP_JUMP_IF_FALSE", ArgJumpAbs},
		{PopJumpIfTrue, "POP_JUMP_IF_TRUE", ArgJumpAbs},
		{PopTop, "POP_TOP", ArgNone},
		{ReturnValue, "RETURN_VALUE", ArgNone},
		{RotFour, "ROT_FOUR", ArgNone},
		{RotThree, "ROT_THREE", ArgNone},
		{RotTwo, "ROT_TWO", ArgNone},
		{StoreFast, "STORE_FAST", ArgLocal},
		{StoreGlobal, "STORE_GLOBAL", ArgName},
		{StoreName, "STORE_NAME", ArgName},
		{StoreSubscr, "STORE_SUBSCR", ArgNone},
		{UnaryInvert, "UNARY_INVERT", ArgNone},
		{UnaryNegative, "UNARY_NEGATIVE", ArgNone},
		{UnaryNot, "UNARY_NOT", ArgNone},
		{UnaryPositive, "UNARY_POSITIVE", ArgNone},
		{UnpackSequence, "UNPACK_SEQUENCE", ArgCount},
	}
	for _, o := range ops {
		if (o.kind != ArgNone) != o.op.HasArg() {
			panic(fmt.Sprintf("op: %s argument kind disagrees with its code", o.name))
		}
		infos[o.op] = Info{
			Code:    o.op,
			Name:    o.name,
			ArgKind: o.kind,
		}
		byName[o.name] = o.op
	}
}

// GetInfo returns information about the given opcode. The Name of the
// returned Info is empty for unknown opcodes.
func GetInfo(code Code) Info {
	return infos[code]
}

// IsDefined reports whether the opcode is known.
func IsDefined(code Code) bool {
	return infos[code].Name != ""
}

// Lookup returns the opcode with the given name.
func Lookup(name string) (Code, bool) {
	code, ok := byName[name]
	return code, ok
}

// Defined returns all known opcodes in ascending order.
func Defined() []Code {
	var codes []Code
	for i := range infos {
		if infos[i].Name != "" {
			codes = append(codes, Code(i))
		}
	}
	return codes
}

// StackEffect returns the net change in operand stack depth caused by
// executing the opcode with the given argument. For jump instructions jump
// selects the effect when control transfers. ok is false for opcodes whose
// effect cannot be derived from the argument alone.
func StackEffect(code Code, arg int, jump bool) (effect int, ok bool) {
	switch code {
	case Nop, RotTwo, RotThree, RotFour, ExtendedArg,
		UnaryPositive, UnaryNegative, UnaryNot, UnaryInvert,
		GetIter, JumpForward, JumpAbsolute:
		return 0, true
	case PopTop, ReturnValue, StoreName, StoreGlobal, StoreFast,
		BinarySubscr, BinaryOp, InplaceOp, CompareOp, IsOp, ContainsOp,
		ListAppend, ListExtend, PopJumpIfFalse, PopJumpIfTrue:
		return -1, true
	case DeleteName, DeleteGlobal, DeleteFast:
		return 0, true
	case DupTop, LoadConst, LoadName, LoadGlobal, LoadFast:
		return 1, true
	case DupTopTwo:
		return 2, true
	case StoreSubscr:
		return -3, true
	case DeleteSubscr:
		return -2, true
	case JumpIfFalseOrPop, JumpIfTrueOrPop:
		if jump {
			return 0, true
		}
		return -1, true
	case ForIter:
		if jump {
			return -1, true
		}
		return 1, true
	case UnpackSequence:
		return arg - 1, true
	case BuildTuple, BuildList, BuildString:
		return 1 - arg, true
	case BuildMap:
		return 1 - 2*arg, true
	case BuildConstKeyMap:
		return -arg, true
	case BuildSlice:
		return 1 - arg, true
	case FormatValue:
		if arg&FormatHasSpec != 0 {
			return -1, true
		}
		return 0, true
	case CallFunction:
		return -arg, true
	case CallFunctionKw:
		return -arg - 1, true
	case CallFunctionEx:
		if arg&CallHasKwargs != 0 {
			return -2, true
		}
		return -1, true
	case LoadMethod:
		return 0, true
	case CallMethod:
		return -arg, true
	case MakeFunction:
		effect = 0
		if arg&MakeDefaults != 0 {
			effect--
		}
		if arg&MakeKwDefaults != 0 {
			effect--
		}
		return effect, true
	}
	return 0, false
}
