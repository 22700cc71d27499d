package bytecode

import (
	"fmt"

	"github.com/cloudcmds/framevm/errz"
	"github.com/cloudcmds/framevm/op"
)

// MaxExtendedArgs is the number of EXTENDED_ARG prefixes that may precede an
// instruction, allowing 32-bit arguments.
const MaxExtendedArgs = 3

// Instruction is one decoded instruction. Any EXTENDED_ARG prefixes are
// folded into Arg, and Offset is the offset of the first prefix.
type Instruction struct {
	Op  op.Code
	Arg int
	// ArgVal is the resolved argument: the constant, name or variable name
	// indexed by Arg, the absolute target offset of a jump, an
	// op.BinaryOpType or op.CompareOpType, the plain integer for counts and
	// flags, or nil for argument-less opcodes.
	ArgVal any
	Offset int
	Size   int
}

// Next returns the offset of the instruction that follows this one.
func (i Instruction) Next() int {
	return i.Offset + i.Size
}

// Target returns the absolute jump target of a jump instruction.
func (i Instruction) Target() (int, bool) {
	if !i.Op.IsJump() {
		return 0, false
	}
	target, ok := i.ArgVal.(int)
	return target, ok
}

func (i Instruction) String() string {
	if !i.Op.HasArg() {
		return fmt.Sprintf("%d %s", i.Offset, i.Op)
	}
	return fmt.Sprintf("%d %s %d", i.Offset, i.Op, i.Arg)
}

// Listing is the decoded instruction sequence of a code object together with
// a map from instruction start offsets to sequence positions.
type Listing struct {
	code         *Code
	instructions []Instruction
	index        map[int]int
}

// Decode decodes the instruction stream of the code object. A malformed
// stream results in a MalformedCode fault.
func Decode(code *Code) (*Listing, error) {
	raw := code.instructions
	if len(raw)%op.UnitSize != 0 {
		return nil, errz.MalformedCodef("%s: instruction stream has odd length %d", code.name, len(raw))
	}
	listing := &Listing{
		code:         code,
		instructions: make([]Instruction, 0, len(raw)/op.UnitSize),
		index:        make(map[int]int, len(raw)/op.UnitSize),
	}
	var ext uint32
	prefixes := 0
	start := 0
	for offset := 0; offset < len(raw); offset += op.UnitSize {
		opcode := op.Code(raw[offset])
		arg := raw[offset+1]
		if !op.IsDefined(opcode) {
			return nil, errz.MalformedCodef("%s: unknown opcode %d at offset %d", code.name, opcode, offset)
		}
		if prefixes == 0 {
			start = offset
		}
		if opcode == op.ExtendedArg {
			if prefixes == MaxExtendedArgs {
				return nil, errz.MalformedCodef("%s: too many EXTENDED_ARG prefixes at offset %d", code.name, start)
			}
			ext = (ext | uint32(arg)) << 8
			prefixes++
			continue
		}
		instr := Instruction{
			Op:     opcode,
			Offset: start,
			Size:   offset + op.UnitSize - start,
		}
		if opcode.HasArg() {
			instr.Arg = int(ext | uint32(arg))
		} else if prefixes > 0 {
			return nil, errz.MalformedCodef("%s: EXTENDED_ARG before %s at offset %d", code.name, opcode, offset)
		}
		listing.index[start] = len(listing.instructions)
		listing.instructions = append(listing.instructions, instr)
		ext = 0
		prefixes = 0
	}
	if prefixes > 0 {
		return nil, errz.MalformedCodef("%s: dangling EXTENDED_ARG at offset %d", code.name, start)
	}
	for i := range listing.instructions {
		if err := listing.resolve(&listing.instructions[i]); err != nil {
			return nil, err
		}
	}
	return listing, nil
}

func (l *Listing) resolve(instr *Instruction) error {
	code := l.code
	arg := instr.Arg
	switch op.GetInfo(instr.Op).ArgKind {
	case op.ArgNone:
		instr.ArgVal = nil
	case op.ArgConst:
		if arg >= len(code.constants) {
			return errz.MalformedCodef("%s: constant index %d out of range at offset %d", code.name, arg, instr.Offset)
		}
		instr.ArgVal = code.constants[arg]
	case op.ArgName:
		if arg >= len(code.names) {
			return errz.MalformedCodef("%s: name index %d out of range at offset %d", code.name, arg, instr.Offset)
		}
		instr.ArgVal = code.names[arg]
	case op.ArgLocal:
		if arg >= len(code.varNames) {
			return errz.MalformedCodef("%s: variable index %d out of range at offset %d", code.name, arg, instr.Offset)
		}
		instr.ArgVal = code.varNames[arg]
	case op.ArgJumpAbs, op.ArgJumpRel:
		target := arg
		if op.GetInfo(instr.Op).ArgKind == op.ArgJumpRel {
			target = instr.Next() + arg
		}
		if _, ok := l.index[target]; !ok {
			return errz.MalformedCodef("%s: jump target %d at offset %d is not an instruction start",
				code.name, target, instr.Offset)
		}
		instr.ArgVal = target
	case op.ArgBinaryOp:
		binop := op.BinaryOpType(arg)
		if binop.String() == "" {
			return errz.MalformedCodef("%s: unknown binary operator %d at offset %d", code.name, arg, instr.Offset)
		}
		instr.ArgVal = binop
	case op.ArgCompareOp:
		cmpop := op.CompareOpType(arg)
		if cmpop.String() == "" {
			return errz.MalformedCodef("%s: unknown comparison operator %d at offset %d", code.name, arg, instr.Offset)
		}
		instr.ArgVal = cmpop
	default:
		instr.ArgVal = arg
	}
	return nil
}

// Code returns the decoded code object.
func (l *Listing) Code() *Code {
	return l.code
}

// Len returns the number of decoded instructions.
func (l *Listing) Len() int {
	return len(l.instructions)
}

// At returns the instruction at the given sequence position.
func (l *Listing) At(index int) Instruction {
	return l.instructions[index]
}

// Instructions returns a copy of the decoded instructions.
func (l *Listing) Instructions() []Instruction {
	result := make([]Instruction, len(l.instructions))
	copy(result, l.instructions)
	return result
}

// IndexOf returns the sequence position of the instruction that starts at
// the given byte offset.
func (l *Listing) IndexOf(offset int) (int, bool) {
	index, ok := l.index[offset]
	return index, ok
}

// Lookup returns the instruction that starts at the given byte offset.
func (l *Listing) Lookup(offset int) (Instruction, bool) {
	index, ok := l.index[offset]
	if !ok {
		return Instruction{}, false
	}
	return l.instructions[index], true
}

// End returns the offset just past the last instruction.
func (l *Listing) End() int {
	return len(l.code.instructions)
}
