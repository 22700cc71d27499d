package bytecode

import (
	"fmt"
	"math"

	"github.com/hashicorp/go-multierror"

	"github.com/cloudcmds/framevm/op"
)

// Assembler builds a code object from symbolic instructions. Arguments wider
// than one byte receive EXTENDED_ARG prefixes automatically, and jumps may
// refer to named labels defined before or after them.
//
// Errors are accumulated and reported by Assemble, so calls may be chained.
type Assembler struct {
	name     string
	filename string
	id       string

	constants []any
	constKeys map[constKey]int
	names     []string
	nameIndex map[string]int
	varNames  []string
	varIndex  map[string]int

	posOnlyCount      int
	posOrKeywordCount int
	kwOnlyCount       int
	flags             Flags

	items  []asmItem
	labels map[string]int
	errs   *multierror.Error
}

type asmItem struct {
	op    op.Code
	arg   int
	label string
}

type constKey struct {
	kind string
	val  any
}

// NewAssembler returns an assembler for a code object with the given name.
func NewAssembler(name string) *Assembler {
	return &Assembler{
		name:      name,
		constKeys: map[constKey]int{},
		nameIndex: map[string]int{},
		varIndex:  map[string]int{},
		labels:    map[string]int{},
	}
}

// WithFilename sets the filename recorded on the code object.
func (a *Assembler) WithFilename(filename string) *Assembler {
	a.filename = filename
	return a
}

// WithID sets the ID of the code object.
func (a *Assembler) WithID(id string) *Assembler {
	a.id = id
	return a
}

// Params declares the parameters of the code object. It must be called
// before any local variable is interned so that parameters occupy the
// leading variable-name slots. Empty varArgs or varKeywords names mean the
// corresponding variadic slot is not declared.
func (a *Assembler) Params(posOnly, posOrKeyword, kwOnly []string, varArgs, varKeywords string) *Assembler {
	if len(a.varNames) > 0 {
		a.errs = multierror.Append(a.errs, fmt.Errorf("%s: parameters declared after locals", a.name))
		return a
	}
	a.posOnlyCount = len(posOnly)
	a.posOrKeywordCount = len(posOrKeyword)
	a.kwOnlyCount = len(kwOnly)
	a.flags = 0
	var params []string
	params = append(params, posOnly...)
	params = append(params, posOrKeyword...)
	params = append(params, kwOnly...)
	if varArgs != "" {
		a.flags |= VarArgs
		params = append(params, varArgs)
	}
	if varKeywords != "" {
		a.flags |= VarKeywords
		params = append(params, varKeywords)
	}
	for _, name := range params {
		if _, exists := a.varIndex[name]; exists {
			a.errs = multierror.Append(a.errs, fmt.Errorf("%s: duplicate parameter %q", a.name, name))
			continue
		}
		a.Local(name)
	}
	return a
}

// Const interns a constant and returns its index. Go integer and float
// types are normalized to int64 and float64, and []any becomes a Tuple.
func (a *Assembler) Const(value any) int {
	value, err := normalizeConst(value)
	if err != nil {
		a.errs = multierror.Append(a.errs, fmt.Errorf("%s: %w", a.name, err))
		return 0
	}
	var key constKey
	switch v := value.(type) {
	case nil:
		key = constKey{kind: "none"}
	case bool:
		key = constKey{kind: "bool", val: v}
	case int64:
		key = constKey{kind: "int", val: v}
	case float64:
		// Keyed by bits so that -0.0 and 0.0 stay distinct.
		key = constKey{kind: "float", val: math.Float64bits(v)}
	case string:
		key = constKey{kind: "str", val: v}
	default:
		a.constants = append(a.constants, value)
		return len(a.constants) - 1
	}
	if index, ok := a.constKeys[key]; ok {
		return index
	}
	a.constants = append(a.constants, value)
	a.constKeys[key] = len(a.constants) - 1
	return len(a.constants) - 1
}

// Name interns a name and returns its index in the name pool.
func (a *Assembler) Name(name string) int {
	if index, ok := a.nameIndex[name]; ok {
		return index
	}
	a.names = append(a.names, name)
	a.nameIndex[name] = len(a.names) - 1
	return len(a.names) - 1
}

// Local interns a local variable name and returns its index.
func (a *Assembler) Local(name string) int {
	if index, ok := a.varIndex[name]; ok {
		return index
	}
	a.varNames = append(a.varNames, name)
	a.varIndex[name] = len(a.varNames) - 1
	return len(a.varNames) - 1
}

// Emit appends an instruction with a numeric argument.
func (a *Assembler) Emit(code op.Code, arg int) *Assembler {
	if !op.IsDefined(code) || code == op.ExtendedArg {
		a.errs = multierror.Append(a.errs, fmt.Errorf("%s: cannot emit opcode %s", a.name, code))
		return a
	}
	if arg < 0 || uint64(arg) > 0xFFFFFFFF {
		a.errs = multierror.Append(a.errs, fmt.Errorf("%s: argument %d of %s out of range", a.name, arg, code))
		return a
	}
	if !code.HasArg() {
		arg = 0
	}
	a.items = append(a.items, asmItem{op: code, arg: arg})
	return a
}

// EmitJump appends a jump instruction targeting the named label.
func (a *Assembler) EmitJump(code op.Code, label string) *Assembler {
	if !code.IsJump() {
		a.errs = multierror.Append(a.errs, fmt.Errorf("%s: %s is not a jump", a.name, code))
		return a
	}
	a.items = append(a.items, asmItem{op: code, label: label})
	return a
}

// Label defines a label at the position of the next emitted instruction.
func (a *Assembler) Label(name string) *Assembler {
	if _, exists := a.labels[name]; exists {
		a.errs = multierror.Append(a.errs, fmt.Errorf("%s: duplicate label %q", a.name, name))
		return a
	}
	a.labels[name] = len(a.items)
	return a
}

// LoadConst emits LOAD_CONST for the interned constant.
func (a *Assembler) LoadConst(value any) *Assembler {
	return a.Emit(op.LoadConst, a.Const(value))
}

// LoadName emits LOAD_NAME for the interned name.
func (a *Assembler) LoadName(name string) *Assembler {
	return a.Emit(op.LoadName, a.Name(name))
}

// StoreName emits STORE_NAME for the interned name.
func (a *Assembler) StoreName(name string) *Assembler {
	return a.Emit(op.StoreName, a.Name(name))
}

// LoadGlobal emits LOAD_GLOBAL for the interned name.
func (a *Assembler) LoadGlobal(name string) *Assembler {
	return a.Emit(op.LoadGlobal, a.Name(name))
}

// StoreGlobal emits STORE_GLOBAL for the interned name.
func (a *Assembler) StoreGlobal(name string) *Assembler {
	return a.Emit(op.StoreGlobal, a.Name(name))
}

// LoadFast emits LOAD_FAST for the interned local.
func (a *Assembler) LoadFast(name string) *Assembler {
	return a.Emit(op.LoadFast, a.Local(name))
}

// StoreFast emits STORE_FAST for the interned local.
func (a *Assembler) StoreFast(name string) *Assembler {
	return a.Emit(op.StoreFast, a.Local(name))
}

// Return emits RETURN_VALUE.
func (a *Assembler) Return() *Assembler {
	return a.Emit(op.ReturnValue, 0)
}

// Assemble lays out the instructions and returns the code object.
func (a *Assembler) Assemble() (*Code, error) {
	errs := a.errs
	for i := range a.items {
		if label := a.items[i].label; label != "" {
			if _, ok := a.labels[label]; !ok {
				errs = multierror.Append(errs, fmt.Errorf("%s: undefined label %q", a.name, label))
			}
		}
	}
	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}
	offsets, err := a.layout()
	if err != nil {
		return nil, err
	}
	var raw []byte
	for i, item := range a.items {
		arg, err := a.jumpArg(i, offsets)
		if err != nil {
			return nil, err
		}
		if item.label == "" {
			arg = item.arg
		}
		for k := extendedArgCount(arg); k > 0; k-- {
			raw = append(raw, byte(op.ExtendedArg), byte(arg>>(8*k)))
		}
		raw = append(raw, byte(item.op), byte(arg))
	}
	code := NewCode(CodeParams{
		ID:                a.id,
		Name:              a.name,
		Filename:          a.filename,
		Instructions:      raw,
		Constants:         a.constants,
		Names:             a.names,
		VarNames:          a.varNames,
		PosOnlyCount:      a.posOnlyCount,
		PosOrKeywordCount: a.posOrKeywordCount,
		KwOnlyCount:       a.kwOnlyCount,
		Flags:             a.flags,
	})
	if err := code.Validate(); err != nil {
		return nil, err
	}
	return code, nil
}

// layout computes the start offset of every item, plus the end offset as a
// final entry. Jump arguments depend on offsets and offsets depend on the
// prefix count of jump arguments, so sizes are grown until they are stable.
func (a *Assembler) layout() ([]int, error) {
	sizes := make([]int, len(a.items))
	for i, item := range a.items {
		sizes[i] = 1 + extendedArgCount(item.arg)
	}
	offsets := make([]int, len(a.items)+1)
	for {
		pos := 0
		for i := range a.items {
			offsets[i] = pos
			pos += sizes[i] * op.UnitSize
		}
		offsets[len(a.items)] = pos
		changed := false
		for i, item := range a.items {
			if item.label == "" {
				continue
			}
			arg, err := a.jumpArg(i, offsets)
			if err != nil {
				return nil, err
			}
			if size := 1 + extendedArgCount(arg); size > sizes[i] {
				sizes[i] = size
				changed = true
			}
		}
		if !changed {
			return offsets, nil
		}
	}
}

func (a *Assembler) jumpArg(i int, offsets []int) (int, error) {
	item := a.items[i]
	if item.label == "" {
		return 0, nil
	}
	target := offsets[a.labels[item.label]]
	if op.GetInfo(item.op).ArgKind == op.ArgJumpAbs {
		return target, nil
	}
	delta := target - offsets[i+1]
	if delta < 0 {
		return 0, fmt.Errorf("%s: %s cannot jump backward to %q", a.name, item.op, item.label)
	}
	return delta, nil
}

func extendedArgCount(arg int) int {
	switch {
	case arg > 0xFFFFFF:
		return 3
	case arg > 0xFFFF:
		return 2
	case arg > 0xFF:
		return 1
	default:
		return 0
	}
}

func normalizeConst(value any) (any, error) {
	switch v := value.(type) {
	case nil, bool, int64, float64, string, *Code:
		return v, nil
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case float32:
		return float64(v), nil
	case Tuple:
		return normalizeTuple(v)
	case []any:
		return normalizeTuple(v)
	default:
		return nil, fmt.Errorf("unsupported constant type %T", value)
	}
}

func normalizeTuple(items []any) (Tuple, error) {
	result := make(Tuple, len(items))
	for i, item := range items {
		v, err := normalizeConst(item)
		if err != nil {
			return nil, err
		}
		result[i] = v
	}
	return result, nil
}
