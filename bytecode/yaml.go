package bytecode

import (
	"fmt"
	"math"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/cloudcmds/framevm/op"
)

// A listing file describes a code object in a readable form:
//
//	name: main
//	params:
//	  posonly: [a]
//	  args: [b, c]
//	  kwonly: [d]
//	  varargs: rest
//	  varkw: options
//	code:
//	  - [LOAD_CONST, {func: add}]
//	  - [MAKE_FUNCTION, 0]
//	  - [STORE_NAME, add]
//	  - label: loop
//	  - [POP_JUMP_IF_FALSE, done]
//	  - RETURN_VALUE
//	functions:
//	  add:
//	    ...
//
// Arguments are symbolic: LOAD_CONST takes the constant itself (a sequence
// is a tuple and {func: name} refers to an entry of functions), name and
// local opcodes take the name, jumps take a label, and BINARY_OP,
// INPLACE_OP and COMPARE_OP take an operator symbol such as "+" or "<=".
type yamlListing struct {
	Name      string                  `yaml:"name"`
	Filename  string                  `yaml:"filename"`
	Params    yamlParams              `yaml:"params"`
	Locals    []string                `yaml:"locals"`
	Code      []yamlStep              `yaml:"code"`
	Functions map[string]*yamlListing `yaml:"functions"`
}

type yamlParams struct {
	PosOnly     []string `yaml:"posonly"`
	Args        []string `yaml:"args"`
	KwOnly      []string `yaml:"kwonly"`
	VarArgs     string   `yaml:"varargs"`
	VarKeywords string   `yaml:"varkw"`
}

type yamlStep struct {
	Op     string
	Arg    any
	HasArg bool
	Label  string
	Line   int
}

func (s *yamlStep) UnmarshalYAML(node *yaml.Node) error {
	s.Line = node.Line
	switch node.Kind {
	case yaml.ScalarNode:
		return node.Decode(&s.Op)
	case yaml.SequenceNode:
		if len(node.Content) == 0 || len(node.Content) > 2 {
			return fmt.Errorf("line %d: expected [OPNAME] or [OPNAME, arg]", node.Line)
		}
		if err := node.Content[0].Decode(&s.Op); err != nil {
			return err
		}
		if len(node.Content) == 2 {
			s.HasArg = true
			return node.Content[1].Decode(&s.Arg)
		}
		return nil
	case yaml.MappingNode:
		var m struct {
			Label string `yaml:"label"`
		}
		if err := node.Decode(&m); err != nil {
			return err
		}
		if m.Label == "" {
			return fmt.Errorf("line %d: expected a label", node.Line)
		}
		s.Label = m.Label
		return nil
	default:
		return fmt.Errorf("line %d: unexpected instruction node", node.Line)
	}
}

// ParseYAML assembles the code object described by a listing file.
func ParseYAML(data []byte) (*Code, error) {
	return ParseYAMLFile(data, "")
}

// ParseYAMLFile is like ParseYAML but attributes the code to filename unless
// the listing names its own file.
func ParseYAMLFile(data []byte, filename string) (*Code, error) {
	var listing yamlListing
	if err := yaml.Unmarshal(data, &listing); err != nil {
		return nil, fmt.Errorf("bytecode: parse listing: %w", err)
	}
	if listing.Name == "" {
		listing.Name = "<module>"
	}
	return listing.assemble(filename)
}

func (l *yamlListing) assemble(filename string) (*Code, error) {
	if l.Filename != "" {
		filename = l.Filename
	}
	functions := make(map[string]*Code, len(l.Functions))
	names := make([]string, 0, len(l.Functions))
	for name := range l.Functions {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fn := l.Functions[name]
		if fn == nil {
			return nil, fmt.Errorf("bytecode: function %q is empty", name)
		}
		if fn.Name == "" {
			fn.Name = name
		}
		code, err := fn.assemble(filename)
		if err != nil {
			return nil, err
		}
		functions[name] = code
	}

	asm := NewAssembler(l.Name).WithFilename(filename)
	p := l.Params
	asm.Params(p.PosOnly, p.Args, p.KwOnly, p.VarArgs, p.VarKeywords)
	for _, local := range l.Locals {
		asm.Local(local)
	}
	for _, step := range l.Code {
		if step.Label != "" {
			asm.Label(step.Label)
			continue
		}
		if err := l.emit(asm, step, functions); err != nil {
			return nil, fmt.Errorf("bytecode: %s: line %d: %w", l.Name, step.Line, err)
		}
	}
	return asm.Assemble()
}

func (l *yamlListing) emit(asm *Assembler, step yamlStep, functions map[string]*Code) error {
	code, ok := op.Lookup(step.Op)
	if !ok {
		return fmt.Errorf("unknown opcode %q", step.Op)
	}
	kind := op.GetInfo(code).ArgKind
	if kind == op.ArgNone {
		if step.HasArg {
			return fmt.Errorf("%s takes no argument", code)
		}
		asm.Emit(code, 0)
		return nil
	}
	if !step.HasArg {
		return fmt.Errorf("%s requires an argument", code)
	}
	switch kind {
	case op.ArgConst:
		value, err := yamlConst(step.Arg, functions)
		if err != nil {
			return err
		}
		asm.LoadConst(value)
	case op.ArgName:
		name, ok := step.Arg.(string)
		if !ok {
			return fmt.Errorf("%s expects a name", code)
		}
		asm.Emit(code, asm.Name(name))
	case op.ArgLocal:
		name, ok := step.Arg.(string)
		if !ok {
			return fmt.Errorf("%s expects a variable name", code)
		}
		asm.Emit(code, asm.Local(name))
	case op.ArgJumpAbs, op.ArgJumpRel:
		label, ok := step.Arg.(string)
		if !ok {
			return fmt.Errorf("%s expects a label", code)
		}
		asm.EmitJump(code, label)
	case op.ArgBinaryOp:
		binop, err := lookupBinaryOp(step.Arg)
		if err != nil {
			return err
		}
		asm.Emit(code, int(binop))
	case op.ArgCompareOp:
		cmpop, err := lookupCompareOp(step.Arg)
		if err != nil {
			return err
		}
		asm.Emit(code, int(cmpop))
	default:
		n, ok := step.Arg.(int)
		if !ok {
			return fmt.Errorf("%s expects an integer argument", code)
		}
		asm.Emit(code, n)
	}
	return nil
}

func yamlConst(v any, functions map[string]*Code) (any, error) {
	switch v := v.(type) {
	case nil, bool, string:
		return v, nil
	case int:
		return int64(v), nil
	case float64:
		return v, nil
	case []any:
		items := make(Tuple, 0, len(v))
		for _, item := range v {
			c, err := yamlConst(item, functions)
			if err != nil {
				return nil, err
			}
			items = append(items, c)
		}
		return items, nil
	case map[string]any:
		name, ok := v["func"].(string)
		if !ok || len(v) != 1 {
			return nil, fmt.Errorf("constant mapping must be {func: name}")
		}
		code, ok := functions[name]
		if !ok {
			return nil, fmt.Errorf("undefined function %q", name)
		}
		return code, nil
	default:
		return nil, fmt.Errorf("unsupported constant %v (%T)", v, v)
	}
}

func lookupBinaryOp(v any) (op.BinaryOpType, error) {
	switch v := v.(type) {
	case string:
		for b := op.Add; b <= op.Xor; b++ {
			if b.String() == v {
				return b, nil
			}
		}
		return 0, fmt.Errorf("unknown binary operator %q", v)
	case int:
		if b := op.BinaryOpType(v); v > 0 && v <= math.MaxUint16 && b.String() != "" {
			return b, nil
		}
		return 0, fmt.Errorf("unknown binary operator %d", v)
	default:
		return 0, fmt.Errorf("unknown binary operator %v", v)
	}
}

func lookupCompareOp(v any) (op.CompareOpType, error) {
	switch v := v.(type) {
	case string:
		for c := op.LessThan; c <= op.GreaterThanOrEqual; c++ {
			if c.String() == v {
				return c, nil
			}
		}
		return 0, fmt.Errorf("unknown comparison operator %q", v)
	case int:
		if c := op.CompareOpType(v); v > 0 && v <= math.MaxUint16 && c.String() != "" {
			return c, nil
		}
		return 0, fmt.Errorf("unknown comparison operator %d", v)
	default:
		return 0, fmt.Errorf("unknown comparison operator %v", v)
	}
}
