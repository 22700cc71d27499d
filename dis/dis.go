// Package dis renders code objects as human-readable instruction listings.
package dis

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/fatih/color"

	"github.com/cloudcmds/framevm/bytecode"
	"github.com/cloudcmds/framevm/internal/table"
	"github.com/cloudcmds/framevm/object"
	"github.com/cloudcmds/framevm/op"
)

// Instruction is one row of a disassembly listing.
type Instruction struct {
	Offset   int
	Opcode   op.Code
	Name     string
	Operands []int
	// Info annotates the argument: the constant, name or variable it
	// indexes, a jump target, an operator or decoded flags.
	Info string
	// Target is set when some jump in the same code object lands here.
	Target bool
}

// Disassemble decodes the instructions of a single code object. Nested code
// objects are not descended into; see bytecode.Code.Flatten.
func Disassemble(code *bytecode.Code) ([]Instruction, error) {
	listing, err := bytecode.Decode(code)
	if err != nil {
		return nil, err
	}
	targets := map[int]bool{}
	for _, ins := range listing.Instructions() {
		if target, ok := ins.Target(); ok {
			targets[target] = true
		}
	}
	var result []Instruction
	for _, ins := range listing.Instructions() {
		row := Instruction{
			Offset: ins.Offset,
			Opcode: ins.Op,
			Name:   ins.Op.String(),
			Info:   annotate(ins),
			Target: targets[ins.Offset],
		}
		if ins.Op.HasArg() {
			row.Operands = []int{ins.Arg}
		}
		result = append(result, row)
	}
	return result, nil
}

func annotate(ins bytecode.Instruction) string {
	switch op.GetInfo(ins.Op).ArgKind {
	case op.ArgConst:
		value, err := object.FromConstant(ins.ArgVal)
		if err != nil {
			return fmt.Sprintf("%v", ins.ArgVal)
		}
		return value.Inspect()
	case op.ArgName, op.ArgLocal:
		return fmt.Sprintf("%s", ins.ArgVal)
	case op.ArgJumpAbs, op.ArgJumpRel:
		target, _ := ins.Target()
		return fmt.Sprintf("to %d", target)
	case op.ArgBinaryOp, op.ArgCompareOp:
		return fmt.Sprintf("%s", ins.ArgVal)
	case op.ArgFlags:
		return flagNames(ins.Op, ins.Arg)
	default:
		return ""
	}
}

func flagNames(code op.Code, flags int) string {
	var names []string
	switch code {
	case op.MakeFunction:
		if flags&op.MakeDefaults != 0 {
			names = append(names, "defaults")
		}
		if flags&op.MakeKwDefaults != 0 {
			names = append(names, "kwdefaults")
		}
		if flags&op.MakeAnnotations != 0 {
			names = append(names, "annotations")
		}
		if flags&op.MakeClosure != 0 {
			names = append(names, "closure")
		}
	case op.FormatValue:
		switch flags & op.FormatConvMask {
		case op.FormatConvStr:
			names = append(names, "str")
		case op.FormatConvRepr:
			names = append(names, "repr")
		}
		if flags&op.FormatHasSpec != 0 {
			names = append(names, "with format")
		}
	case op.CallFunctionEx:
		if flags&op.CallHasKwargs != 0 {
			names = append(names, "kwargs")
		}
	}
	return strings.Join(names, ", ")
}

var opcodeColor = color.New(color.FgCyan)

// Print writes the instructions as a table. Opcode names are colorized
// unless color.NoColor is set.
func Print(instructions []Instruction, w io.Writer) error {
	var lines [][]string
	for _, ins := range instructions {
		offset := strconv.Itoa(ins.Offset)
		if ins.Target {
			offset = ">> " + offset
		}
		operands := make([]string, len(ins.Operands))
		for i, operand := range ins.Operands {
			operands[i] = strconv.Itoa(operand)
		}
		lines = append(lines, []string{
			offset,
			opcodeColor.Sprint(ins.Name),
			strings.Join(operands, ", "),
			ins.Info,
		})
	}

	return table.NewTable(w).
		WithHeader([]string{"OFFSET", "OPCODE", "OPERANDS", "INFO"}).
		WithColumnAlignment([]table.Alignment{
			table.AlignRight,
			table.AlignLeft,
			table.AlignRight,
			table.AlignLeft,
		}).
		WithHeaderAlignment([]table.Alignment{
			table.AlignCenter,
			table.AlignCenter,
			table.AlignCenter,
			table.AlignCenter,
		}).
		WithRows(lines).
		Render()
}

// OpCount is the number of occurrences of one opcode.
type OpCount struct {
	Name  string
	Count int
}

// CountOps counts opcode occurrences in the code object and every code
// object nested in its constants. EXTENDED_ARG prefixes folded into an
// instruction are counted as well. The result is ordered by descending
// count, then by name.
func CountOps(code *bytecode.Code) ([]OpCount, error) {
	counts := map[string]int{}
	for _, c := range code.Flatten() {
		listing, err := bytecode.Decode(c)
		if err != nil {
			return nil, err
		}
		for _, ins := range listing.Instructions() {
			counts[ins.Op.String()]++
			if prefixes := ins.Size/op.UnitSize - 1; prefixes > 0 {
				counts[op.ExtendedArg.String()] += prefixes
			}
		}
	}
	result := make([]OpCount, 0, len(counts))
	for name, count := range counts {
		result = append(result, OpCount{Name: name, Count: count})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Name < result[j].Name
	})
	return result, nil
}
