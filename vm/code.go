package vm

import (
	"fmt"

	"github.com/cloudcmds/framevm/bytecode"
	"github.com/cloudcmds/framevm/errz"
	"github.com/cloudcmds/framevm/object"
)

// loadedCode is a code object prepared for execution: decoded once, with its
// constants converted to runtime values.
type loadedCode struct {
	*bytecode.Code
	listing   *bytecode.Listing
	constants []object.Object
}

func wrapCode(cc *bytecode.Code) (*loadedCode, error) {
	if err := cc.Validate(); err != nil {
		return nil, errz.Wrap(errz.ErrMalformedCode, err)
	}
	listing, err := bytecode.Decode(cc)
	if err != nil {
		return nil, err
	}
	c := &loadedCode{
		Code:      cc,
		listing:   listing,
		constants: make([]object.Object, cc.ConstantCount()),
	}
	for i := 0; i < cc.ConstantCount(); i++ {
		constant, err := object.FromConstant(cc.ConstantAt(i))
		if err != nil {
			return nil, fmt.Errorf("%s: constant %d: %w", cc.Name(), i, err)
		}
		c.constants[i] = constant
	}
	return c, nil
}

// constant returns the converted constant at the given pool index.
func (c *loadedCode) constant(index int) object.Object {
	return c.constants[index]
}

// loadCode returns the prepared form of the code object, decoding it on
// first use.
func (vm *VirtualMachine) loadCode(cc *bytecode.Code) (*loadedCode, error) {
	if c, ok := vm.loadedCode[cc]; ok {
		return c, nil
	}
	c, err := wrapCode(cc)
	if err != nil {
		return nil, err
	}
	vm.loadedCode[cc] = c
	return c, nil
}
