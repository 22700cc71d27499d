package vm

import (
	"context"

	"github.com/cloudcmds/framevm/bytecode"
	"github.com/cloudcmds/framevm/object"
)

// Run the given code in a new Virtual Machine and return the result.
func Run(ctx context.Context, main *bytecode.Code, options ...Option) (object.Object, error) {
	machine, err := New(main, options...)
	if err != nil {
		return nil, err
	}
	return machine.Run(ctx)
}
