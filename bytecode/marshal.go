package bytecode

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// FormatVersion is the version of the binary artifact format written by
// Marshal.
const FormatVersion = 1

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("bytecode: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

type artifact struct {
	Version int         `cbor:"v"`
	Code    *codeRecord `cbor:"code"`
}

type codeRecord struct {
	ID                string        `cbor:"id"`
	Name              string        `cbor:"name"`
	Filename          string        `cbor:"file,omitempty"`
	Instructions      []byte        `cbor:"ins"`
	Constants         []constRecord `cbor:"consts,omitempty"`
	Names             []string      `cbor:"names,omitempty"`
	VarNames          []string      `cbor:"vars,omitempty"`
	PosOnlyCount      int           `cbor:"posonly,omitempty"`
	PosOrKeywordCount int           `cbor:"args,omitempty"`
	KwOnlyCount       int           `cbor:"kwonly,omitempty"`
	Flags             uint8         `cbor:"flags,omitempty"`
}

// constRecord is a tagged constant. Kind selects which field holds the value.
type constRecord struct {
	Kind  string        `cbor:"k"`
	Bool  bool          `cbor:"b,omitempty"`
	Int   int64         `cbor:"i,omitempty"`
	Float float64       `cbor:"f,omitempty"`
	Str   string        `cbor:"s,omitempty"`
	Code  *codeRecord   `cbor:"c,omitempty"`
	Items []constRecord `cbor:"t,omitempty"`
}

const (
	constNone  = "none"
	constBool  = "bool"
	constInt   = "int"
	constFloat = "float"
	constStr   = "str"
	constCode  = "code"
	constTuple = "tuple"
)

// Marshal serializes a code object and its nested code to CBOR.
func Marshal(code *Code) ([]byte, error) {
	record, err := toRecord(code)
	if err != nil {
		return nil, err
	}
	return cborEncMode.Marshal(artifact{Version: FormatVersion, Code: record})
}

// Unmarshal deserializes a code object written by Marshal and validates it.
func Unmarshal(data []byte) (*Code, error) {
	var a artifact
	if err := cbor.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("bytecode: unmarshal artifact: %w", err)
	}
	if a.Version != FormatVersion {
		return nil, fmt.Errorf("bytecode: unsupported artifact version %d", a.Version)
	}
	if a.Code == nil {
		return nil, fmt.Errorf("bytecode: artifact has no code")
	}
	code, err := fromRecord(a.Code)
	if err != nil {
		return nil, err
	}
	if err := code.Validate(); err != nil {
		return nil, fmt.Errorf("bytecode: invalid artifact: %w", err)
	}
	return code, nil
}

func toRecord(code *Code) (*codeRecord, error) {
	record := &codeRecord{
		ID:                code.id,
		Name:              code.name,
		Filename:          code.filename,
		Instructions:      copyBytes(code.instructions),
		Names:             copyStrings(code.names),
		VarNames:          copyStrings(code.varNames),
		PosOnlyCount:      code.posOnlyCount,
		PosOrKeywordCount: code.posOrKeywordCount,
		KwOnlyCount:       code.kwOnlyCount,
		Flags:             uint8(code.flags),
	}
	for i, constant := range code.constants {
		c, err := toConstRecord(constant)
		if err != nil {
			return nil, fmt.Errorf("bytecode: %s: constant %d: %w", code.name, i, err)
		}
		record.Constants = append(record.Constants, c)
	}
	return record, nil
}

func toConstRecord(v any) (constRecord, error) {
	switch v := v.(type) {
	case nil:
		return constRecord{Kind: constNone}, nil
	case bool:
		return constRecord{Kind: constBool, Bool: v}, nil
	case int64:
		return constRecord{Kind: constInt, Int: v}, nil
	case float64:
		return constRecord{Kind: constFloat, Float: v}, nil
	case string:
		return constRecord{Kind: constStr, Str: v}, nil
	case *Code:
		child, err := toRecord(v)
		if err != nil {
			return constRecord{}, err
		}
		return constRecord{Kind: constCode, Code: child}, nil
	case Tuple:
		items := make([]constRecord, 0, len(v))
		for _, item := range v {
			c, err := toConstRecord(item)
			if err != nil {
				return constRecord{}, err
			}
			items = append(items, c)
		}
		return constRecord{Kind: constTuple, Items: items}, nil
	default:
		return constRecord{}, fmt.Errorf("unsupported constant type %T", v)
	}
}

func fromRecord(record *codeRecord) (*Code, error) {
	constants := make([]any, 0, len(record.Constants))
	for i, c := range record.Constants {
		v, err := fromConstRecord(c)
		if err != nil {
			return nil, fmt.Errorf("bytecode: %s: constant %d: %w", record.Name, i, err)
		}
		constants = append(constants, v)
	}
	return NewCode(CodeParams{
		ID:                record.ID,
		Name:              record.Name,
		Filename:          record.Filename,
		Instructions:      record.Instructions,
		Constants:         constants,
		Names:             record.Names,
		VarNames:          record.VarNames,
		PosOnlyCount:      record.PosOnlyCount,
		PosOrKeywordCount: record.PosOrKeywordCount,
		KwOnlyCount:       record.KwOnlyCount,
		Flags:             Flags(record.Flags),
	}), nil
}

func fromConstRecord(c constRecord) (any, error) {
	switch c.Kind {
	case constNone:
		return nil, nil
	case constBool:
		return c.Bool, nil
	case constInt:
		return c.Int, nil
	case constFloat:
		return c.Float, nil
	case constStr:
		return c.Str, nil
	case constCode:
		if c.Code == nil {
			return nil, fmt.Errorf("code constant has no code")
		}
		return fromRecord(c.Code)
	case constTuple:
		items := make(Tuple, 0, len(c.Items))
		for _, item := range c.Items {
			v, err := fromConstRecord(item)
			if err != nil {
				return nil, err
			}
			items = append(items, v)
		}
		return items, nil
	default:
		return nil, fmt.Errorf("unknown constant kind %q", c.Kind)
	}
}
