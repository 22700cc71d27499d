package bytecode

import (
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/hashicorp/go-multierror"
)

// Flags describe the variadic parameter slots of a code object.
type Flags uint8

const (
	// VarArgs indicates the code accepts excess positional arguments.
	VarArgs Flags = 0x04
	// VarKeywords indicates the code accepts excess keyword arguments.
	VarKeywords Flags = 0x08
)

// Tuple is an immutable sequence constant.
type Tuple []any

// Code represents a code object: a module body or a function body.
// It is immutable after creation and safe for concurrent use.
type Code struct {
	id       string
	name     string
	filename string

	instructions []byte
	constants    []any
	names        []string
	varNames     []string

	posOnlyCount      int
	posOrKeywordCount int
	kwOnlyCount       int
	flags             Flags
}

// CodeParams contains parameters for creating a new Code.
type CodeParams struct {
	ID           string
	Name         string
	Filename     string
	Instructions []byte
	Constants    []any
	Names        []string
	// VarNames lists the local variable names: declared parameters first,
	// then the variadic positional slot, then the variadic keyword slot.
	VarNames          []string
	PosOnlyCount      int
	PosOrKeywordCount int
	KwOnlyCount       int
	Flags             Flags
}

// NewCode creates a new immutable Code from the given parameters. Input
// slices are copied. An ID is generated when none is supplied.
func NewCode(params CodeParams) *Code {
	id := params.ID
	if id == "" {
		id = uuid.Must(uuid.NewV4()).String()
	}
	return &Code{
		id:                id,
		name:              params.Name,
		filename:          params.Filename,
		instructions:      copyBytes(params.Instructions),
		constants:         copyAny(params.Constants),
		names:             copyStrings(params.Names),
		varNames:          copyStrings(params.VarNames),
		posOnlyCount:      params.PosOnlyCount,
		posOrKeywordCount: params.PosOrKeywordCount,
		kwOnlyCount:       params.KwOnlyCount,
		flags:             params.Flags,
	}
}

// ID returns the unique identifier for this code object.
func (c *Code) ID() string {
	return c.id
}

// Name returns the name of this code object.
func (c *Code) Name() string {
	return c.name
}

// Filename returns the name of the file the code was loaded from, if any.
func (c *Code) Filename() string {
	return c.filename
}

// Len returns the length of the instruction stream in bytes.
func (c *Code) Len() int {
	return len(c.instructions)
}

// Instructions returns a copy of the raw instruction stream.
func (c *Code) Instructions() []byte {
	return copyBytes(c.instructions)
}

// ConstantCount returns the number of constants.
func (c *Code) ConstantCount() int {
	return len(c.constants)
}

// ConstantAt returns the constant at the given index.
func (c *Code) ConstantAt(index int) any {
	return c.constants[index]
}

// NameCount returns the number of entries in the name pool.
func (c *Code) NameCount() int {
	return len(c.names)
}

// NameAt returns the name at the given index.
func (c *Code) NameAt(index int) string {
	return c.names[index]
}

// VarNameCount returns the number of local variable names.
func (c *Code) VarNameCount() int {
	return len(c.varNames)
}

// VarNameAt returns the local variable name at the given index.
func (c *Code) VarNameAt(index int) string {
	return c.varNames[index]
}

// VarNames returns a copy of the local variable names.
func (c *Code) VarNames() []string {
	return copyStrings(c.varNames)
}

// PosOnlyCount returns the number of positional-only parameters.
func (c *Code) PosOnlyCount() int {
	return c.posOnlyCount
}

// PosOrKeywordCount returns the number of positional-or-keyword parameters.
func (c *Code) PosOrKeywordCount() int {
	return c.posOrKeywordCount
}

// KwOnlyCount returns the number of keyword-only parameters.
func (c *Code) KwOnlyCount() int {
	return c.kwOnlyCount
}

// ArgCount returns the number of parameters that may be filled positionally.
func (c *Code) ArgCount() int {
	return c.posOnlyCount + c.posOrKeywordCount
}

// Flags returns the variadic flags of the code object.
func (c *Code) Flags() Flags {
	return c.flags
}

// HasVarArgs reports whether the code declares a variadic positional slot.
func (c *Code) HasVarArgs() bool {
	return c.flags&VarArgs != 0
}

// HasVarKeywords reports whether the code declares a variadic keyword slot.
func (c *Code) HasVarKeywords() bool {
	return c.flags&VarKeywords != 0
}

// ParamNames returns the positional-only, positional-or-keyword and
// keyword-only parameter names in declaration order.
func (c *Code) ParamNames() (posOnly, posOrKeyword, kwOnly []string) {
	p := c.posOnlyCount
	u := p + c.posOrKeywordCount
	k := u + c.kwOnlyCount
	return copyStrings(c.varNames[:p]), copyStrings(c.varNames[p:u]), copyStrings(c.varNames[u:k])
}

// VarArgsName returns the name of the variadic positional slot, or an empty
// string if none is declared.
func (c *Code) VarArgsName() string {
	if !c.HasVarArgs() {
		return ""
	}
	return c.varNames[c.ArgCount()+c.kwOnlyCount]
}

// VarKeywordsName returns the name of the variadic keyword slot, or an empty
// string if none is declared.
func (c *Code) VarKeywordsName() string {
	if !c.HasVarKeywords() {
		return ""
	}
	index := c.ArgCount() + c.kwOnlyCount
	if c.HasVarArgs() {
		index++
	}
	return c.varNames[index]
}

// paramSlots returns the number of var-name entries occupied by parameters,
// including the variadic slots.
func (c *Code) paramSlots() int {
	n := c.ArgCount() + c.kwOnlyCount
	if c.HasVarArgs() {
		n++
	}
	if c.HasVarKeywords() {
		n++
	}
	return n
}

// Children returns the code objects found in the constant pool, including
// those nested in tuple constants.
func (c *Code) Children() []*Code {
	var children []*Code
	var visit func(v any)
	visit = func(v any) {
		switch v := v.(type) {
		case *Code:
			children = append(children, v)
		case Tuple:
			for _, item := range v {
				visit(item)
			}
		}
	}
	for _, constant := range c.constants {
		visit(constant)
	}
	return children
}

// Flatten returns this code and all descendants in a flat slice.
func (c *Code) Flatten() []*Code {
	codes := []*Code{c}
	for _, child := range c.Children() {
		codes = append(codes, child.Flatten()...)
	}
	return codes
}

// Validate checks the metadata of the code object and all nested code
// objects, returning every problem found.
func (c *Code) Validate() error {
	var result *multierror.Error
	if len(c.instructions)%2 != 0 {
		result = multierror.Append(result,
			fmt.Errorf("instruction stream has odd length %d", len(c.instructions)))
	}
	if c.posOnlyCount < 0 || c.posOrKeywordCount < 0 || c.kwOnlyCount < 0 {
		result = multierror.Append(result, fmt.Errorf("negative parameter count"))
	} else if slots := c.paramSlots(); slots > len(c.varNames) {
		result = multierror.Append(result,
			fmt.Errorf("parameters need %d variable names (%d given)", slots, len(c.varNames)))
	} else {
		seen := make(map[string]bool, slots)
		for _, name := range c.varNames[:slots] {
			if seen[name] {
				result = multierror.Append(result, fmt.Errorf("duplicate parameter %q", name))
			}
			seen[name] = true
		}
	}
	if c.flags&^(VarArgs|VarKeywords) != 0 {
		result = multierror.Append(result, fmt.Errorf("unknown flags 0x%02x", uint8(c.flags)))
	}
	for i, constant := range c.constants {
		if err := validateConstant(constant); err != nil {
			result = multierror.Append(result, fmt.Errorf("constant %d: %w", i, err))
		}
	}
	for _, child := range c.Children() {
		if err := child.Validate(); err != nil {
			result = multierror.Append(result, fmt.Errorf("code %q: %w", child.Name(), err))
		}
	}
	return result.ErrorOrNil()
}

func validateConstant(v any) error {
	switch v := v.(type) {
	case nil, bool, int64, float64, string, *Code:
		return nil
	case Tuple:
		for _, item := range v {
			if err := validateConstant(item); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("unsupported constant type %T", v)
	}
}

func (c *Code) String() string {
	return fmt.Sprintf("<code %s>", c.name)
}
